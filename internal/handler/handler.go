package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"pantry-hub/internal/middleware"
	"pantry-hub/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError maps err to a status code and writes an error response. Domain
// errors keep their code and message; anything else becomes a generic 500.
func writeError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	de, ok := model.AsDomainError(err)
	if !ok {
		logger.Error().Err(err).Msg("handler error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "internal server error",
		})
		return
	}

	status := statusFor(de.Kind)
	event := logger.Debug()
	if status == http.StatusBadGateway {
		event = logger.Warn()
	}
	event.Str("code", de.Code).Int("status", status).Msg(de.Message)
	writeJSON(w, status, model.ErrorResponse{Error: de.Code, Message: de.Message})
}

func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindConflict:
		return http.StatusConflict
	case model.KindUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// requestError is a malformed or invalid request body.
type requestError struct {
	code    string
	message string
	details any
}

func (e *requestError) Error() string { return e.message }

// writeRequestError writes a 400 for decode and validation failures and
// falls back to writeError for anything else.
func writeRequestError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var re *requestError
	if errors.As(err, &re) {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: re.code, Message: re.message, Details: re.details})
		return
	}
	writeError(w, err, logger)
}

// decodeJSONBody decodes the request body into dest and validates it.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		// Custom unmarshalers surface domain errors, e.g. bad meal roles.
		if de, ok := model.AsDomainError(err); ok {
			return de
		}
		return &requestError{
			code:    model.ErrCodeInvalidJSON,
			message: "invalid request body",
			details: map[string]string{"error": err.Error()},
		}
	}
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// decodeOptionalJSONBody is decodeJSONBody for endpoints where every field
// has a default; an empty body leaves dest untouched.
func decodeOptionalJSONBody(w http.ResponseWriter, r *http.Request, dest any) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil
	}
	return decodeJSONBody(w, r, dest)
}

func formatValidationErrors(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		details := make(map[string]string, len(errs))
		for _, fe := range errs {
			details[fe.Field()] = validationMessage(fe)
		}
		return &requestError{code: model.ErrCodeInvalidInput, message: "validation failed", details: details}
	}
	return &requestError{code: model.ErrCodeInvalidInput, message: "validation failed"}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "uuid":
		return "must be a valid UUID"
	case "numeric":
		return "must contain only digits"
	}
	return "is invalid"
}

// uuidParam parses the named chi URL parameter as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, model.Validation(model.ErrCodeInvalidInput, fmt.Sprintf("invalid %s", name))
	}
	return id, nil
}

// currentUser returns the authenticated user. Routes using it sit behind the
// auth middleware, so a missing user is a wiring error.
func currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, model.ErrorResponse{
			Error:   model.ErrCodeUnauthorised,
			Message: "authentication required",
		})
		return nil, false
	}
	return user, true
}
