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

// invitationRepository implements the InvitationRepository interface using PostgreSQL.
type invitationRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewInvitationRepository creates a new PostgreSQL-backed invitation repository.
func NewInvitationRepository(pool *pgxpool.Pool, logger zerolog.Logger) InvitationRepository {
	return &invitationRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "invitation").Logger(),
	}
}

const invitationColumns = `id, email, household_id, invited_by, token, status, created_at, expires_at, accepted_at, accepted_by`

func scanInvitation(row rowScanner) (*model.Invitation, error) {
	var inv model.Invitation
	err := row.Scan(
		&inv.ID,
		&inv.Email,
		&inv.HouseholdID,
		&inv.InvitedBy,
		&inv.Token,
		&inv.Status,
		&inv.CreatedAt,
		&inv.ExpiresAt,
		&inv.AcceptedAt,
		&inv.AcceptedBy,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create inserts an invitation.
func (r *invitationRepository) Create(ctx context.Context, tx pgx.Tx, inv *model.Invitation) error {
	query := `
		INSERT INTO invitations (id, email, household_id, invited_by, token, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.Exec(ctx, query,
		inv.ID, inv.Email, inv.HouseholdID, inv.InvitedBy, inv.Token, inv.Status, inv.CreatedAt, inv.ExpiresAt)
	if err != nil {
		if database.IsUniqueViolation(err, "idx_invitations_one_pending") {
			r.logger.Debug().
				Str("household_id", inv.HouseholdID.String()).
				Msg("pending invitation already exists")
			return model.ErrDuplicateInvitation
		}
		r.logger.Error().Err(err).Str("household_id", inv.HouseholdID.String()).Msg("failed to create invitation")
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	r.logger.Debug().Str("invitation_id", inv.ID.String()).Msg("invitation created successfully")
	return nil
}

// ExpireStale marks pending invitations past their expiry as expired.
func (r *invitationRepository) ExpireStale(ctx context.Context, tx pgx.Tx, email string, householdID uuid.UUID, now time.Time) error {
	query := `
		UPDATE invitations
		SET status = 'expired'
		WHERE email = $1 AND household_id = $2 AND status = 'pending' AND expires_at <= $3
	`

	tag, err := tx.Exec(ctx, query, email, householdID, now)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to expire stale invitations")
		return fmt.Errorf("failed to expire stale invitations: %w", err)
	}
	if tag.RowsAffected() > 0 {
		r.logger.Debug().Int64("count", tag.RowsAffected()).Msg("stale invitations expired")
	}
	return nil
}

// GetByToken retrieves an invitation by token.
func (r *invitationRepository) GetByToken(ctx context.Context, token uuid.UUID) (*model.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE token = $1`

	inv, err := scanInvitation(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query invitation")
		return nil, fmt.Errorf("failed to query invitation: %w", err)
	}
	return inv, nil
}

// GetByTokenForUpdate retrieves and locks an invitation.
func (r *invitationRepository) GetByTokenForUpdate(ctx context.Context, tx pgx.Tx, token uuid.UUID) (*model.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE token = $1 FOR UPDATE`

	inv, err := scanInvitation(tx.QueryRow(ctx, query, token))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to lock invitation")
		return nil, fmt.Errorf("failed to lock invitation: %w", err)
	}
	return inv, nil
}

// UpdateStatus persists status and acceptance fields.
func (r *invitationRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, inv *model.Invitation) error {
	query := `
		UPDATE invitations
		SET status = $2, accepted_at = $3, accepted_by = $4
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, inv.ID, inv.Status, inv.AcceptedAt, inv.AcceptedBy)
	if err != nil {
		r.logger.Error().Err(err).Str("invitation_id", inv.ID.String()).Msg("failed to update invitation")
		return fmt.Errorf("failed to update invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrInvitationNotFound
	}
	return nil
}

// MarkExpired marks a single pending invitation expired.
func (r *invitationRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE invitations SET status = 'expired' WHERE id = $1 AND status = 'pending'`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		r.logger.Error().Err(err).Str("invitation_id", id.String()).Msg("failed to expire invitation")
		return fmt.Errorf("failed to expire invitation: %w", err)
	}
	return nil
}

// HasUsableForEmail reports whether a pending, unexpired invitation exists for email.
func (r *invitationRepository) HasUsableForEmail(ctx context.Context, tx pgx.Tx, email string, now time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM invitations
			WHERE email = $1 AND status = 'pending' AND expires_at > $2
		)
	`

	var exists bool
	if err := tx.QueryRow(ctx, query, email, now).Scan(&exists); err != nil {
		r.logger.Error().Err(err).Msg("failed to check pending invitations")
		return false, fmt.Errorf("failed to check pending invitations: %w", err)
	}
	return exists, nil
}
