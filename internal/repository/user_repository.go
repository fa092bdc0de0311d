package repository

import (
	"context"
	"fmt"
	"time"

	"pantry-hub/internal/database"
	"pantry-hub/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// userRepository implements the UserRepository interface using PostgreSQL.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

const userColumns = `id, email, username, household_id, created_at, updated_at`

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.HouseholdID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// BeginTx starts a new database transaction.
func (r *userRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.pool, r.logger)
}

// Create inserts a user.
func (r *userRepository) Create(ctx context.Context, tx pgx.Tx, user *model.User) error {
	query := `
		INSERT INTO users (id, email, username, household_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.Exec(ctx, query, user.ID, user.Email, user.Username, user.HouseholdID, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "users_email_key") {
			r.logger.Debug().Str("email", user.Email).Msg("email already registered")
			return model.ErrEmailTaken
		}
		r.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to create user")
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Debug().Str("user_id", user.ID.String()).Msg("user created successfully")
	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("user_id", id.String()).Msg("user not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query user by email")
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}
	return u, nil
}

// GetForUpdate retrieves and locks a user row.
func (r *userRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`

	u, err := scanUser(tx.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to lock user")
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	return u, nil
}

// SetHousehold sets or clears the user's household reference.
func (r *userRepository) SetHousehold(ctx context.Context, tx pgx.Tx, userID uuid.UUID, householdID *uuid.UUID) error {
	query := `UPDATE users SET household_id = $2, updated_at = $3 WHERE id = $1`

	tag, err := tx.Exec(ctx, query, userID, householdID, time.Now().UTC())
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to set user household")
		return fmt.Errorf("failed to set user household: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// ClearHouseholdForAll clears the household reference of every user pointing at householdID.
func (r *userRepository) ClearHouseholdForAll(ctx context.Context, tx pgx.Tx, householdID uuid.UUID) error {
	query := `UPDATE users SET household_id = NULL, updated_at = $2 WHERE household_id = $1`

	tag, err := tx.Exec(ctx, query, householdID, time.Now().UTC())
	if err != nil {
		r.logger.Error().Err(err).Str("household_id", householdID.String()).Msg("failed to clear household references")
		return fmt.Errorf("failed to clear household references: %w", err)
	}

	r.logger.Debug().
		Str("household_id", householdID.String()).
		Int64("users", tag.RowsAffected()).
		Msg("household references cleared")
	return nil
}
