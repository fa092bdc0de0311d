package repository

import (
	"context"
	"fmt"
	"time"

	"pantry-hub/internal/database"
	"pantry-hub/internal/model"
	"pantry-hub/internal/ownership"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// pantryRepository implements the PantryRepository interface using PostgreSQL.
type pantryRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPantryRepository creates a new PostgreSQL-backed pantry repository.
func NewPantryRepository(pool *pgxpool.Pool, logger zerolog.Logger) PantryRepository {
	return &pantryRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "pantry").Logger(),
	}
}

const pantryItemColumns = `
	i.id, i.pantry_id, i.name, i.normalized_name, i.quantity, i.unit, i.expiration_date,
	i.food_item_id, i.category, i.price, i.calories, i.origin, i.source_item_id,
	i.created_at, i.updated_at`

func scanPantryItem(row rowScanner) (*model.PantryItem, error) {
	var item model.PantryItem
	err := row.Scan(
		&item.ID,
		&item.PantryID,
		&item.Name,
		&item.NormalizedName,
		&item.Quantity,
		&item.Unit,
		&item.ExpirationDate,
		&item.FoodItemID,
		&item.Category,
		&item.Price,
		&item.Calories,
		&item.Origin,
		&item.SourceItemID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if item.Category == nil {
		item.Category = []string{}
	}
	return &item, nil
}

// ownerPredicate selects exactly one owner context: the household's pantry
// for members, otherwise the user's personal pantry.
func ownerPredicate(owner ownership.Owner, alias string, argOffset int) (string, []any) {
	if owner.HouseholdID != nil {
		return fmt.Sprintf("%s.household_id = $%d", alias, argOffset+1), []any{*owner.HouseholdID}
	}
	return fmt.Sprintf("%s.user_id = $%d AND %s.household_id IS NULL", alias, argOffset+1, alias), []any{owner.UserID}
}

// BeginTx starts a new database transaction.
func (r *pantryRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.pool, r.logger)
}

// GetOrCreate returns the locked pantry of the owner context, creating it if missing.
func (r *pantryRepository) GetOrCreate(ctx context.Context, tx pgx.Tx, owner ownership.Owner) (*model.Pantry, error) {
	now := time.Now().UTC()
	insert := `
		INSERT INTO pantries (id, user_id, household_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT DO NOTHING
	`

	tag, err := tx.Exec(ctx, insert, uuid.New(), owner.UserID, owner.HouseholdID, now)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", owner.UserID.String()).Msg("failed to create pantry")
		return nil, fmt.Errorf("failed to create pantry: %w", err)
	}
	if tag.RowsAffected() > 0 {
		r.logger.Debug().Str("user_id", owner.UserID.String()).Msg("pantry created")
	}

	pred, args := ownerPredicate(owner, "p", 0)
	query := `SELECT p.id, p.user_id, p.household_id, p.created_at, p.updated_at FROM pantries p WHERE ` + pred + ` FOR UPDATE`

	var p model.Pantry
	if err := tx.QueryRow(ctx, query, args...).Scan(&p.ID, &p.UserID, &p.HouseholdID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		r.logger.Error().Err(err).Str("user_id", owner.UserID.String()).Msg("failed to lock pantry")
		return nil, fmt.Errorf("failed to lock pantry: %w", err)
	}
	p.Items = []model.PantryItem{}

	return &p, nil
}

// ListVisibleItems retrieves the items of every pantry visible through the
// filter, oldest first. A member sees the household pantry as well as any
// pantry they kept from before joining.
func (r *pantryRepository) ListVisibleItems(ctx context.Context, tx pgx.Tx, filter ownership.Filter) ([]model.PantryItem, error) {
	pred, args := filter.Predicate("p.user_id", "p.household_id", 0)
	query := `
		SELECT ` + pantryItemColumns + `
		FROM pantry_items i
		JOIN pantries p ON p.id = i.pantry_id
		WHERE ` + pred + `
		ORDER BY i.created_at, i.id`

	return r.queryItems(ctx, tx, query, args...)
}

// ListExpiring retrieves visible items expiring in [from, until], soonest first.
func (r *pantryRepository) ListExpiring(ctx context.Context, filter ownership.Filter, from, until time.Time) ([]model.PantryItem, error) {
	pred, args := filter.Predicate("p.user_id", "p.household_id", 2)
	query := `
		SELECT ` + pantryItemColumns + `
		FROM pantry_items i
		JOIN pantries p ON p.id = i.pantry_id
		WHERE i.expiration_date BETWEEN $1 AND $2 AND ` + pred + `
		ORDER BY i.expiration_date, i.id`

	return r.queryItems(ctx, r.pool, query, append([]any{from, until}, args...)...)
}

func (r *pantryRepository) queryItems(ctx context.Context, q queryer, query string, args ...any) ([]model.PantryItem, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query pantry items")
		return nil, fmt.Errorf("failed to query pantry items: %w", err)
	}
	defer rows.Close()

	items := make([]model.PantryItem, 0)
	for rows.Next() {
		item, err := scanPantryItem(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan pantry item row")
			return nil, fmt.Errorf("failed to scan pantry item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating pantry item rows")
		return nil, fmt.Errorf("error iterating pantry items: %w", err)
	}

	return items, nil
}

// FindMergeTarget locks the item an incoming entry merges into. A food item
// reference match wins over a name match.
func (r *pantryRepository) FindMergeTarget(ctx context.Context, tx pgx.Tx, pantryID uuid.UUID, foodItemID *uuid.UUID, normalizedName string) (*model.PantryItem, error) {
	query := `
		SELECT ` + pantryItemColumns + `
		FROM pantry_items i
		WHERE i.pantry_id = $1
			AND (($2::uuid IS NOT NULL AND i.food_item_id = $2) OR i.normalized_name = $3)
		ORDER BY (i.food_item_id IS NOT DISTINCT FROM $2::uuid) DESC, i.created_at, i.id
		LIMIT 1
		FOR UPDATE`

	item, err := scanPantryItem(tx.QueryRow(ctx, query, pantryID, foodItemID, normalizedName))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("pantry_id", pantryID.String()).Msg("failed to find pantry merge target")
		return nil, fmt.Errorf("failed to find pantry merge target: %w", err)
	}
	return item, nil
}

// GetItemForUpdate retrieves and locks one item of a visible pantry.
func (r *pantryRepository) GetItemForUpdate(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, filter ownership.Filter) (*model.PantryItem, error) {
	pred, args := filter.Predicate("p.user_id", "p.household_id", 1)
	query := `
		SELECT ` + pantryItemColumns + `
		FROM pantry_items i
		JOIN pantries p ON p.id = i.pantry_id
		WHERE i.id = $1 AND ` + pred + `
		FOR UPDATE OF i`

	item, err := scanPantryItem(tx.QueryRow(ctx, query, append([]any{itemID}, args...)...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to lock pantry item")
		return nil, fmt.Errorf("failed to lock pantry item: %w", err)
	}
	return item, nil
}

// InsertItem inserts an item.
func (r *pantryRepository) InsertItem(ctx context.Context, tx pgx.Tx, item *model.PantryItem) error {
	query := `
		INSERT INTO pantry_items (
			id, pantry_id, name, normalized_name, quantity, unit, expiration_date,
			food_item_id, category, price, calories, origin, source_item_id,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := tx.Exec(ctx, query,
		item.ID,
		item.PantryID,
		item.Name,
		item.NormalizedName,
		item.Quantity,
		item.Unit,
		item.ExpirationDate,
		item.FoodItemID,
		nonNilStrings(item.Category),
		item.Price,
		item.Calories,
		item.Origin,
		item.SourceItemID,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return model.ErrInvalidFoodItemReference
		}
		r.logger.Error().Err(err).Str("item_id", item.ID.String()).Msg("failed to insert pantry item")
		return fmt.Errorf("failed to insert pantry item: %w", err)
	}

	r.logger.Debug().Str("item_id", item.ID.String()).Msg("pantry item inserted")
	return nil
}

// UpdateItem persists an item.
func (r *pantryRepository) UpdateItem(ctx context.Context, tx pgx.Tx, item *model.PantryItem) error {
	query := `
		UPDATE pantry_items SET
			name = $2,
			normalized_name = $3,
			quantity = $4,
			unit = $5,
			expiration_date = $6,
			food_item_id = $7,
			category = $8,
			price = $9,
			calories = $10,
			updated_at = $11
		WHERE id = $1
	`

	item.UpdatedAt = time.Now().UTC()
	tag, err := tx.Exec(ctx, query,
		item.ID,
		item.Name,
		item.NormalizedName,
		item.Quantity,
		item.Unit,
		item.ExpirationDate,
		item.FoodItemID,
		nonNilStrings(item.Category),
		item.Price,
		item.Calories,
		item.UpdatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return model.ErrInvalidFoodItemReference
		}
		r.logger.Error().Err(err).Str("item_id", item.ID.String()).Msg("failed to update pantry item")
		return fmt.Errorf("failed to update pantry item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

// DeleteItem removes one item.
func (r *pantryRepository) DeleteItem(ctx context.Context, tx pgx.Tx, pantryID, itemID uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM pantry_items WHERE pantry_id = $1 AND id = $2`, pantryID, itemID)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to delete pantry item")
		return fmt.Errorf("failed to delete pantry item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

// ReleaseHousehold hands the household's pantry to userID so it survives the
// household being deleted. When the user already has a personal pantry the
// items move into it; otherwise the pantry itself becomes personal.
func (r *pantryRepository) ReleaseHousehold(ctx context.Context, tx pgx.Tx, householdID, userID uuid.UUID) error {
	var sharedID uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM pantries WHERE household_id = $1 FOR UPDATE`, householdID).Scan(&sharedID)
	if err != nil {
		if isNoRows(err) {
			return nil
		}
		r.logger.Error().Err(err).Str("household_id", householdID.String()).Msg("failed to lock household pantry")
		return fmt.Errorf("failed to lock household pantry: %w", err)
	}

	var personalID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM pantries WHERE user_id = $1 AND household_id IS NULL FOR UPDATE`, userID).Scan(&personalID)
	switch {
	case isNoRows(err):
		_, err = tx.Exec(ctx,
			`UPDATE pantries SET user_id = $2, household_id = NULL, updated_at = $3 WHERE id = $1`,
			sharedID, userID, time.Now().UTC())
		if err != nil {
			r.logger.Error().Err(err).Str("pantry_id", sharedID.String()).Msg("failed to release household pantry")
			return fmt.Errorf("failed to release household pantry: %w", err)
		}
	case err != nil:
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to lock personal pantry")
		return fmt.Errorf("failed to lock personal pantry: %w", err)
	default:
		if _, err := tx.Exec(ctx, `UPDATE pantry_items SET pantry_id = $2 WHERE pantry_id = $1`, sharedID, personalID); err != nil {
			r.logger.Error().Err(err).Str("pantry_id", sharedID.String()).Msg("failed to move household pantry items")
			return fmt.Errorf("failed to move household pantry items: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM pantries WHERE id = $1`, sharedID); err != nil {
			r.logger.Error().Err(err).Str("pantry_id", sharedID.String()).Msg("failed to delete household pantry")
			return fmt.Errorf("failed to delete household pantry: %w", err)
		}
	}

	r.logger.Info().
		Str("household_id", householdID.String()).
		Str("user_id", userID.String()).
		Msg("household pantry released")
	return nil
}
