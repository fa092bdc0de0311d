package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pantry-hub/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const ctxUser contextKey = "user"

// UserLoader resolves the authenticated user.
type UserLoader interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, ctxUser, user)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *model.User {
	if ctx == nil {
		return nil
	}
	user, _ := ctx.Value(ctxUser).(*model.User)
	return user
}

// Auth verifies an HS256 bearer token and loads the user named by its
// subject. Tokens are issued elsewhere; only the signature, expiry and
// issuer are checked here.
func Auth(secret, issuer string, users UserLoader, logger zerolog.Logger) func(http.Handler) http.Handler {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if len(raw) < 7 || !strings.EqualFold(raw[:7], "bearer ") {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			token := strings.TrimSpace(raw[7:])

			claims := &jwt.RegisteredClaims{}
			_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
				return key, nil
			})
			if err != nil {
				logger.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected token")
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token subject")
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if err != nil {
				if errors.Is(err, model.ErrUserNotFound) {
					writeError(w, http.StatusUnauthorized, "unknown user")
					return
				}
				logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to load user")
				writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
					Error:   model.ErrCodeInternalError,
					Message: "internal server error",
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
