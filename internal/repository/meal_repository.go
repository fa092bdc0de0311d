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

// mealRepository implements the MealRepository interface using PostgreSQL.
type mealRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewMealRepository creates a new PostgreSQL-backed meal repository.
func NewMealRepository(pool *pgxpool.Pool, logger zerolog.Logger) MealRepository {
	return &mealRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "meal").Logger(),
	}
}

// Food item ids are aggregated in link order so a meal reads back in one row.
const mealSelect = `
	SELECT m.id, m.name, m.recipe, m.difficulty, m.cooking_time, m.default_roles,
		m.planned_cooking_date, m.planned_eating_dates, m.user_id, m.household_id,
		m.image_url, m.image_id, m.created_at, m.updated_at,
		COALESCE(
			(SELECT array_agg(l.food_item_id ORDER BY l.position)
			 FROM meal_food_items l WHERE l.meal_id = m.id),
			'{}'
		)
	FROM meals m`

func scanMeal(row rowScanner) (*model.Meal, error) {
	var (
		meal       model.Meal
		difficulty *string
		roles      []string
		imageURL   *string
		imageID    *string
	)
	err := row.Scan(
		&meal.ID,
		&meal.Name,
		&meal.Recipe,
		&difficulty,
		&meal.CookingTime,
		&roles,
		&meal.PlannedCookingDate,
		&meal.PlannedEatingDates,
		&meal.UserID,
		&meal.HouseholdID,
		&imageURL,
		&imageID,
		&meal.CreatedAt,
		&meal.UpdatedAt,
		&meal.FoodItemIDs,
	)
	if err != nil {
		return nil, err
	}
	if difficulty != nil {
		meal.Difficulty = model.Difficulty(*difficulty)
	}
	meal.DefaultRoles = stringsToRoles(roles)
	meal.Image = imageFromColumns(imageURL, imageID)
	if meal.PlannedEatingDates == nil {
		meal.PlannedEatingDates = []time.Time{}
	}
	if meal.FoodItemIDs == nil {
		meal.FoodItemIDs = []uuid.UUID{}
	}
	return &meal, nil
}

func difficultyColumn(d model.Difficulty) *string {
	if d == "" {
		return nil
	}
	s := string(d)
	return &s
}

func nonNilTimes(ts []time.Time) []time.Time {
	if ts == nil {
		return []time.Time{}
	}
	return ts
}

// BeginTx starts a new database transaction.
func (r *mealRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.pool, r.logger)
}

// Create inserts a meal and its food item links.
func (r *mealRepository) Create(ctx context.Context, tx pgx.Tx, meal *model.Meal) error {
	query := `
		INSERT INTO meals (
			id, name, recipe, difficulty, cooking_time, default_roles,
			planned_cooking_date, planned_eating_dates, user_id, household_id,
			image_url, image_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	imageURL, imageID := imageColumns(meal.Image)
	_, err := tx.Exec(ctx, query,
		meal.ID,
		meal.Name,
		meal.Recipe,
		difficultyColumn(meal.Difficulty),
		meal.CookingTime,
		rolesToStrings(meal.DefaultRoles),
		meal.PlannedCookingDate,
		nonNilTimes(meal.PlannedEatingDates),
		meal.UserID,
		meal.HouseholdID,
		imageURL,
		imageID,
		meal.CreatedAt,
		meal.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("meal_id", meal.ID.String()).Msg("failed to create meal")
		return fmt.Errorf("failed to create meal: %w", err)
	}

	if err := r.insertLinks(ctx, tx, meal.ID, meal.FoodItemIDs); err != nil {
		return err
	}

	r.logger.Debug().
		Str("meal_id", meal.ID.String()).
		Int("food_items", len(meal.FoodItemIDs)).
		Msg("meal created successfully")
	return nil
}

func (r *mealRepository) insertLinks(ctx context.Context, tx pgx.Tx, mealID uuid.UUID, foodItemIDs []uuid.UUID) error {
	query := `
		INSERT INTO meal_food_items (meal_id, food_item_id, position)
		VALUES ($1, $2, $3)
		ON CONFLICT (meal_id, food_item_id) DO NOTHING
	`

	for i, id := range foodItemIDs {
		if _, err := tx.Exec(ctx, query, mealID, id, i); err != nil {
			r.logger.Error().
				Err(err).
				Str("meal_id", mealID.String()).
				Str("food_item_id", id.String()).
				Msg("failed to link food item")
			return fmt.Errorf("failed to link food item: %w", err)
		}
	}
	return nil
}

// GetByID retrieves a visible meal.
func (r *mealRepository) GetByID(ctx context.Context, id uuid.UUID, filter ownership.Filter) (*model.Meal, error) {
	pred, args := filter.Predicate("m.user_id", "m.household_id", 1)
	query := mealSelect + ` WHERE m.id = $1 AND ` + pred

	meal, err := scanMeal(r.pool.QueryRow(ctx, query, append([]any{id}, args...)...))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("meal_id", id.String()).Msg("meal not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("meal_id", id.String()).Msg("failed to query meal")
		return nil, fmt.Errorf("failed to query meal: %w", err)
	}
	return meal, nil
}

// GetForUpdate retrieves and locks a visible meal.
func (r *mealRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID, filter ownership.Filter) (*model.Meal, error) {
	pred, args := filter.Predicate("m.user_id", "m.household_id", 1)
	query := mealSelect + ` WHERE m.id = $1 AND ` + pred + ` FOR UPDATE OF m`

	meal, err := scanMeal(tx.QueryRow(ctx, query, append([]any{id}, args...)...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("meal_id", id.String()).Msg("failed to lock meal")
		return nil, fmt.Errorf("failed to lock meal: %w", err)
	}
	return meal, nil
}

// List retrieves visible meals, newest first.
func (r *mealRepository) List(ctx context.Context, filter ownership.Filter) ([]model.Meal, error) {
	pred, args := filter.Predicate("m.user_id", "m.household_id", 0)
	query := mealSelect + ` WHERE ` + pred + ` ORDER BY m.created_at DESC, m.id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query meals")
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	meals := make([]model.Meal, 0)
	for rows.Next() {
		meal, err := scanMeal(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan meal row")
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		meals = append(meals, *meal)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating meal rows")
		return nil, fmt.Errorf("error iterating meals: %w", err)
	}

	r.logger.Debug().Int("count", len(meals)).Msg("meals retrieved")
	return meals, nil
}

// Update persists a meal and replaces its food item links.
func (r *mealRepository) Update(ctx context.Context, tx pgx.Tx, meal *model.Meal) error {
	query := `
		UPDATE meals SET
			name = $2,
			recipe = $3,
			difficulty = $4,
			cooking_time = $5,
			default_roles = $6,
			planned_cooking_date = $7,
			planned_eating_dates = $8,
			image_url = $9,
			image_id = $10,
			updated_at = $11
		WHERE id = $1
	`

	imageURL, imageID := imageColumns(meal.Image)
	meal.UpdatedAt = time.Now().UTC()

	tag, err := tx.Exec(ctx, query,
		meal.ID,
		meal.Name,
		meal.Recipe,
		difficultyColumn(meal.Difficulty),
		meal.CookingTime,
		rolesToStrings(meal.DefaultRoles),
		meal.PlannedCookingDate,
		nonNilTimes(meal.PlannedEatingDates),
		imageURL,
		imageID,
		meal.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("meal_id", meal.ID.String()).Msg("failed to update meal")
		return fmt.Errorf("failed to update meal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrMealNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM meal_food_items WHERE meal_id = $1`, meal.ID); err != nil {
		r.logger.Error().Err(err).Str("meal_id", meal.ID.String()).Msg("failed to clear meal links")
		return fmt.Errorf("failed to clear meal links: %w", err)
	}

	return r.insertLinks(ctx, tx, meal.ID, meal.FoodItemIDs)
}

// Delete removes a meal; links cascade.
func (r *mealRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM meals WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("meal_id", id.String()).Msg("failed to delete meal")
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrMealNotFound
	}

	r.logger.Debug().Str("meal_id", id.String()).Msg("meal deleted")
	return nil
}
