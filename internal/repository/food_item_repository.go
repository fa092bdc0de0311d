package repository

import (
	"context"
	"fmt"
	"time"

	"pantry-hub/internal/model"
	"pantry-hub/internal/ownership"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// foodItemRepository implements the FoodItemRepository interface using PostgreSQL.
type foodItemRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewFoodItemRepository creates a new PostgreSQL-backed food item repository.
func NewFoodItemRepository(pool *pgxpool.Pool, logger zerolog.Logger) FoodItemRepository {
	return &foodItemRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "food_item").Logger(),
	}
}

const foodItemColumns = `
	f.id, f.name, f.normalized_name, f.category, f.unit, f.price, f.calories,
	f.user_id, f.household_id, f.qty_meal, f.qty_shopping_list, f.qty_pantry,
	f.locations, f.expiration_date, f.image_url, f.image_id, f.enrichment,
	f.version, f.created_at, f.updated_at`

func scanFoodItem(row rowScanner) (*model.FoodItem, error) {
	var (
		item      model.FoodItem
		locations []string
		imageURL  *string
		imageID   *string
	)
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.NormalizedName,
		&item.Category,
		&item.Unit,
		&item.Price,
		&item.Calories,
		&item.UserID,
		&item.HouseholdID,
		&item.Quantities.Meal,
		&item.Quantities.ShoppingList,
		&item.Quantities.Pantry,
		&locations,
		&item.ExpirationDate,
		&imageURL,
		&imageID,
		&item.Enrichment,
		&item.Version,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Locations = stringsToLocations(locations)
	item.Image = imageFromColumns(imageURL, imageID)
	if item.Category == nil {
		item.Category = []string{}
	}
	return &item, nil
}

// BeginTx starts a new database transaction.
func (r *foodItemRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.pool, r.logger)
}

// Create inserts a food item. Locations are persisted from the quantities.
func (r *foodItemRepository) Create(ctx context.Context, tx pgx.Tx, item *model.FoodItem) error {
	query := `
		INSERT INTO food_items (
			id, name, normalized_name, category, unit, price, calories,
			user_id, household_id, qty_meal, qty_shopping_list, qty_pantry,
			locations, expiration_date, image_url, image_id, enrichment,
			version, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	imageURL, imageID := imageColumns(item.Image)
	item.Locations = item.Quantities.Locations()

	_, err := tx.Exec(ctx, query,
		item.ID,
		item.Name,
		item.NormalizedName,
		nonNilStrings(item.Category),
		item.Unit,
		item.Price,
		item.Calories,
		item.UserID,
		item.HouseholdID,
		item.Quantities.Meal,
		item.Quantities.ShoppingList,
		item.Quantities.Pantry,
		locationsToStrings(item.Locations),
		item.ExpirationDate,
		imageURL,
		imageID,
		item.Enrichment,
		item.Version,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("food_item_id", item.ID.String()).Msg("failed to create food item")
		return fmt.Errorf("failed to create food item: %w", err)
	}

	r.logger.Debug().Str("food_item_id", item.ID.String()).Msg("food item created successfully")
	return nil
}

// GetByID retrieves a visible food item.
func (r *foodItemRepository) GetByID(ctx context.Context, id uuid.UUID, filter ownership.Filter) (*model.FoodItem, error) {
	pred, args := filter.Predicate("f.user_id", "f.household_id", 1)
	query := `SELECT ` + foodItemColumns + ` FROM food_items f WHERE f.id = $1 AND ` + pred

	item, err := scanFoodItem(r.pool.QueryRow(ctx, query, append([]any{id}, args...)...))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("food_item_id", id.String()).Msg("food item not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("food_item_id", id.String()).Msg("failed to query food item")
		return nil, fmt.Errorf("failed to query food item: %w", err)
	}
	return item, nil
}

// GetForUpdate retrieves and locks a visible food item.
func (r *foodItemRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID, filter ownership.Filter) (*model.FoodItem, error) {
	pred, args := filter.Predicate("f.user_id", "f.household_id", 1)
	query := `SELECT ` + foodItemColumns + ` FROM food_items f WHERE f.id = $1 AND ` + pred + ` FOR UPDATE`

	item, err := scanFoodItem(tx.QueryRow(ctx, query, append([]any{id}, args...)...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("food_item_id", id.String()).Msg("failed to lock food item")
		return nil, fmt.Errorf("failed to lock food item: %w", err)
	}
	return item, nil
}

// List retrieves visible food items, optionally only those stocked at location.
func (r *foodItemRepository) List(ctx context.Context, filter ownership.Filter, location *model.Location) ([]model.FoodItem, error) {
	pred, args := filter.Predicate("f.user_id", "f.household_id", 0)
	query := `SELECT ` + foodItemColumns + ` FROM food_items f WHERE ` + pred
	if location != nil {
		args = append(args, string(*location))
		query += fmt.Sprintf(` AND $%d = ANY(f.locations)`, len(args))
	}
	query += ` ORDER BY f.created_at DESC, f.id`

	return r.query(ctx, r.pool, query, args...)
}

// ListForMatching retrieves visible food items oldest first.
func (r *foodItemRepository) ListForMatching(ctx context.Context, tx pgx.Tx, filter ownership.Filter) ([]model.FoodItem, error) {
	pred, args := filter.Predicate("f.user_id", "f.household_id", 0)
	query := `SELECT ` + foodItemColumns + ` FROM food_items f WHERE ` + pred + ` ORDER BY f.created_at, f.id`

	return r.query(ctx, tx, query, args...)
}

func (r *foodItemRepository) query(ctx context.Context, q queryer, query string, args ...any) ([]model.FoodItem, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query food items")
		return nil, fmt.Errorf("failed to query food items: %w", err)
	}
	defer rows.Close()

	items := make([]model.FoodItem, 0)
	for rows.Next() {
		item, err := scanFoodItem(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan food item row")
			return nil, fmt.Errorf("failed to scan food item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating food item rows")
		return nil, fmt.Errorf("error iterating food items: %w", err)
	}

	return items, nil
}

// LockName takes a transaction-scoped advisory lock on the owner scope and name.
func (r *foodItemRepository) LockName(ctx context.Context, tx pgx.Tx, filter ownership.Filter, normalizedName string) error {
	scope := filter.UserID
	if filter.HouseholdID != nil {
		scope = *filter.HouseholdID
	}

	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, scope.String()+":"+normalizedName)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to take food item name lock")
		return fmt.Errorf("failed to take food item name lock: %w", err)
	}
	return nil
}

// Update persists all mutable fields if the stored version matches.
func (r *foodItemRepository) Update(ctx context.Context, tx pgx.Tx, item *model.FoodItem) error {
	query := `
		UPDATE food_items SET
			name = $3,
			normalized_name = $4,
			category = $5,
			unit = $6,
			price = $7,
			calories = $8,
			qty_meal = $9,
			qty_shopping_list = $10,
			qty_pantry = $11,
			locations = $12,
			expiration_date = $13,
			image_url = $14,
			image_id = $15,
			enrichment = $16,
			version = version + 1,
			updated_at = $17
		WHERE id = $1 AND version = $2
	`

	imageURL, imageID := imageColumns(item.Image)
	item.Locations = item.Quantities.Locations()
	now := time.Now().UTC()

	tag, err := tx.Exec(ctx, query,
		item.ID,
		item.Version,
		item.Name,
		item.NormalizedName,
		nonNilStrings(item.Category),
		item.Unit,
		item.Price,
		item.Calories,
		item.Quantities.Meal,
		item.Quantities.ShoppingList,
		item.Quantities.Pantry,
		locationsToStrings(item.Locations),
		item.ExpirationDate,
		imageURL,
		imageID,
		item.Enrichment,
		now,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("food_item_id", item.ID.String()).Msg("failed to update food item")
		return fmt.Errorf("failed to update food item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn().
			Str("food_item_id", item.ID.String()).
			Int("version", item.Version).
			Msg("food item version conflict")
		return model.ErrConcurrentModification
	}

	item.Version++
	item.UpdatedAt = now
	return nil
}

// Delete removes a food item. Foreign keys drop meal links and null list and
// pantry references in the same statement.
func (r *foodItemRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM food_items WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("food_item_id", id.String()).Msg("failed to delete food item")
		return fmt.Errorf("failed to delete food item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrFoodItemNotFound
	}

	r.logger.Debug().Str("food_item_id", id.String()).Msg("food item deleted")
	return nil
}

// CountVisible counts how many distinct ids are visible through the filter.
func (r *foodItemRepository) CountVisible(ctx context.Context, ids []uuid.UUID, filter ownership.Filter) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	pred, args := filter.Predicate("f.user_id", "f.household_id", 1)
	query := `SELECT COUNT(DISTINCT f.id) FROM food_items f WHERE f.id = ANY($1) AND ` + pred

	var count int
	if err := r.pool.QueryRow(ctx, query, append([]any{ids}, args...)...).Scan(&count); err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to count visible food items")
		return 0, fmt.Errorf("failed to count visible food items: %w", err)
	}
	return count, nil
}
