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

// householdRepository implements the HouseholdRepository interface using PostgreSQL.
type householdRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewHouseholdRepository creates a new PostgreSQL-backed household repository.
func NewHouseholdRepository(pool *pgxpool.Pool, logger zerolog.Logger) HouseholdRepository {
	return &householdRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "household").Logger(),
	}
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BeginTx starts a new database transaction.
func (r *householdRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.pool, r.logger)
}

// Create inserts a household together with its initial members.
func (r *householdRepository) Create(ctx context.Context, tx pgx.Tx, h *model.Household) error {
	query := `
		INSERT INTO households (id, name, owner_id, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := tx.Exec(ctx, query, h.ID, h.Name, h.OwnerID, h.Settings, h.CreatedAt, h.UpdatedAt); err != nil {
		r.logger.Error().Err(err).Str("household_id", h.ID.String()).Msg("failed to create household")
		return fmt.Errorf("failed to create household: %w", err)
	}

	for _, m := range h.Members {
		if err := r.insertMember(ctx, tx, h.ID, m.User.ID(), m.Role, m.JoinedAt); err != nil {
			return err
		}
	}

	r.logger.Debug().
		Str("household_id", h.ID.String()).
		Int("members", len(h.Members)).
		Msg("household created successfully")
	return nil
}

// GetByID retrieves a household with resolved members.
func (r *householdRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Household, error) {
	return r.get(ctx, r.pool, id, false)
}

// GetForUpdate retrieves and locks a household.
func (r *householdRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Household, error) {
	return r.get(ctx, tx, id, true)
}

func (r *householdRepository) get(ctx context.Context, q queryer, id uuid.UUID, lock bool) (*model.Household, error) {
	query := `
		SELECT id, name, owner_id, settings, created_at, updated_at
		FROM households
		WHERE id = $1
	`
	if lock {
		query += ` FOR UPDATE`
	}

	var h model.Household
	err := q.QueryRow(ctx, query, id).Scan(&h.ID, &h.Name, &h.OwnerID, &h.Settings, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("household_id", id.String()).Msg("household not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("household_id", id.String()).Msg("failed to query household")
		return nil, fmt.Errorf("failed to query household: %w", err)
	}

	members, err := r.listMembers(ctx, q, id)
	if err != nil {
		return nil, err
	}
	h.Members = members

	return &h, nil
}

func (r *householdRepository) listMembers(ctx context.Context, q queryer, householdID uuid.UUID) ([]model.HouseholdMember, error) {
	query := `
		SELECT m.role, m.joined_at, u.id, u.email, u.username, u.household_id, u.created_at, u.updated_at
		FROM household_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.household_id = $1
		ORDER BY m.joined_at, u.id
	`

	rows, err := q.Query(ctx, query, householdID)
	if err != nil {
		r.logger.Error().Err(err).Str("household_id", householdID.String()).Msg("failed to query members")
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	members := make([]model.HouseholdMember, 0)
	for rows.Next() {
		var (
			m model.HouseholdMember
			u model.User
		)
		err := rows.Scan(&m.Role, &m.JoinedAt, &u.ID, &u.Email, &u.Username, &u.HouseholdID, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan member row")
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.User = model.Resolved(u)
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating member rows")
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return members, nil
}

// Update persists name and settings.
func (r *householdRepository) Update(ctx context.Context, tx pgx.Tx, h *model.Household) error {
	query := `UPDATE households SET name = $2, settings = $3, updated_at = $4 WHERE id = $1`

	h.UpdatedAt = time.Now().UTC()
	tag, err := tx.Exec(ctx, query, h.ID, h.Name, h.Settings, h.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("household_id", h.ID.String()).Msg("failed to update household")
		return fmt.Errorf("failed to update household: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrHouseholdNotFound
	}
	return nil
}

// AddMember adds a user to the household.
func (r *householdRepository) AddMember(ctx context.Context, tx pgx.Tx, householdID, userID uuid.UUID, role model.HouseholdRole) error {
	return r.insertMember(ctx, tx, householdID, userID, role, time.Now().UTC())
}

func (r *householdRepository) insertMember(ctx context.Context, tx pgx.Tx, householdID, userID uuid.UUID, role model.HouseholdRole, joinedAt time.Time) error {
	query := `
		INSERT INTO household_members (household_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := tx.Exec(ctx, query, householdID, userID, role, joinedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "idx_household_members_user") || database.IsUniqueViolation(err, "household_members_pkey") {
			r.logger.Debug().
				Str("household_id", householdID.String()).
				Str("user_id", userID.String()).
				Msg("user already belongs to a household")
			return model.ErrAlreadyMember
		}
		r.logger.Error().
			Err(err).
			Str("household_id", householdID.String()).
			Str("user_id", userID.String()).
			Msg("failed to add member")
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from the household.
func (r *householdRepository) RemoveMember(ctx context.Context, tx pgx.Tx, householdID, userID uuid.UUID) error {
	query := `DELETE FROM household_members WHERE household_id = $1 AND user_id = $2`

	tag, err := tx.Exec(ctx, query, householdID, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("household_id", householdID.String()).Msg("failed to remove member")
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrMemberNotFound
	}
	return nil
}

// UpdateMemberRole changes a member's role.
func (r *householdRepository) UpdateMemberRole(ctx context.Context, tx pgx.Tx, householdID, userID uuid.UUID, role model.HouseholdRole) error {
	query := `UPDATE household_members SET role = $3 WHERE household_id = $1 AND user_id = $2`

	tag, err := tx.Exec(ctx, query, householdID, userID, role)
	if err != nil {
		r.logger.Error().Err(err).Str("household_id", householdID.String()).Msg("failed to update member role")
		return fmt.Errorf("failed to update member role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrMemberNotFound
	}
	return nil
}

// CountMembers returns the number of members.
func (r *householdRepository) CountMembers(ctx context.Context, tx pgx.Tx, householdID uuid.UUID) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM household_members WHERE household_id = $1`, householdID).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Str("household_id", householdID.String()).Msg("failed to count members")
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// Delete removes the household.
func (r *householdRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM households WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("household_id", id.String()).Msg("failed to delete household")
		return fmt.Errorf("failed to delete household: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrHouseholdNotFound
	}

	r.logger.Debug().Str("household_id", id.String()).Msg("household deleted")
	return nil
}
