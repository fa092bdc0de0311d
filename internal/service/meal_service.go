package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"pantry-hub/internal/imagestore"
	"pantry-hub/internal/metrics"
	"pantry-hub/internal/model"
	"pantry-hub/internal/ownership"
	"pantry-hub/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var errInvalidDifficulty = model.Validation(model.ErrCodeInvalidInput, "Difficulty must be easy, medium or hard")

// mealService implements MealService.
type mealService struct {
	mealRepo repository.MealRepository
	foodRepo repository.FoodItemRepository
	images   imageAttacher
	logger   zerolog.Logger
}

// NewMealService creates a new meal service.
func NewMealService(
	mealRepo repository.MealRepository,
	foodRepo repository.FoodItemRepository,
	store imagestore.Store,
	m *metrics.Metrics,
	logger zerolog.Logger,
) MealService {
	logger = logger.With().Str("service", "meal").Logger()
	return &mealService{
		mealRepo: mealRepo,
		foodRepo: foodRepo,
		images:   imageAttacher{store: store, metrics: m, logger: logger},
		logger:   logger,
	}
}

// mealFields is a validated MealRequest.
type mealFields struct {
	name        *string
	recipe      *string
	difficulty  *model.Difficulty
	roles       model.MealRoles
	cookingDate *time.Time
	eatingDates []time.Time
	eatingSet   bool
}

func parseMealFields(req *model.MealRequest, create bool) (*mealFields, error) {
	f := &mealFields{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, model.ErrMissingRequiredField
		}
		f.name = &name
	}
	if req.Recipe != nil {
		recipe := strings.TrimSpace(*req.Recipe)
		if recipe == "" {
			return nil, model.ErrMissingRequiredField
		}
		f.recipe = &recipe
	}
	if create && (f.name == nil || f.recipe == nil) {
		return nil, model.ErrMissingRequiredField
	}

	if req.Difficulty != nil && *req.Difficulty != "" {
		d := model.Difficulty(strings.ToLower(strings.TrimSpace(*req.Difficulty)))
		if !d.IsValid() {
			return nil, errInvalidDifficulty
		}
		f.difficulty = &d
	}

	if create || req.DefaultRoles != nil {
		roles, err := req.DefaultRoles.Normalize()
		if err != nil {
			return nil, err
		}
		f.roles = roles
	}

	if req.PlannedCookingDate != nil && strings.TrimSpace(*req.PlannedCookingDate) != "" {
		t, err := model.ParseDate(*req.PlannedCookingDate)
		if err != nil {
			return nil, err
		}
		f.cookingDate = &t
	}

	if req.PlannedEatingDates != nil {
		f.eatingSet = true
		f.eatingDates = normalizeDays(req.PlannedEatingDates)
	}

	return f, nil
}

// normalizeDays parses dates, dropping unparseable entries, truncates them to
// midnight UTC and removes duplicates. The result is sorted.
func normalizeDays(values []string) []time.Time {
	seen := make(map[time.Time]bool, len(values))
	days := make([]time.Time, 0, len(values))
	for _, v := range values {
		day, err := model.ParseDay(v)
		if err != nil {
			continue
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// Create creates a meal.
func (s *mealService) Create(ctx context.Context, user *model.User, req *model.MealRequest) (*model.Meal, error) {
	f, err := parseMealFields(req, true)
	if err != nil {
		return nil, err
	}

	filter := ownership.FilterFor(user)
	if err := s.checkFoodItems(ctx, req.FoodItemIDs, filter); err != nil {
		return nil, err
	}

	owner := ownership.For(user)
	now := time.Now().UTC()
	meal := &model.Meal{
		ID:                 uuid.New(),
		Name:               *f.name,
		Recipe:             *f.recipe,
		DefaultRoles:       f.roles,
		PlannedCookingDate: f.cookingDate,
		PlannedEatingDates: f.eatingDates,
		FoodItemIDs:        nonNilIDs(req.FoodItemIDs),
		UserID:             owner.UserID,
		HouseholdID:        owner.HouseholdID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if f.difficulty != nil {
		meal.Difficulty = *f.difficulty
	}
	if req.CookingTime != nil {
		meal.CookingTime = *req.CookingTime
	}
	defaultEatingDates(meal)

	err = inTx(ctx, s.mealRepo, s.logger, func(tx pgx.Tx) error {
		return s.mealRepo.Create(ctx, tx, meal)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("meal_id", meal.ID.String()).
		Int("food_items", len(meal.FoodItemIDs)).
		Msg("meal created successfully")
	return meal, nil
}

// List returns the visible meals.
func (s *mealService) List(ctx context.Context, user *model.User) ([]model.Meal, error) {
	meals, err := s.mealRepo.List(ctx, ownership.FilterFor(user))
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to list meals")
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	return meals, nil
}

// Get retrieves a visible meal.
func (s *mealService) Get(ctx context.Context, user *model.User, id uuid.UUID) (*model.Meal, error) {
	meal, err := s.mealRepo.GetByID(ctx, id, ownership.FilterFor(user))
	if err != nil {
		s.logger.Error().Err(err).Str("meal_id", id.String()).Msg("failed to get meal")
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}
	if meal == nil {
		return nil, model.ErrMealNotFound
	}
	return meal, nil
}

// Update applies the provided fields.
func (s *mealService) Update(ctx context.Context, user *model.User, id uuid.UUID, req *model.MealRequest) (*model.Meal, error) {
	f, err := parseMealFields(req, false)
	if err != nil {
		return nil, err
	}

	filter := ownership.FilterFor(user)
	if req.FoodItemIDs != nil {
		if err := s.checkFoodItems(ctx, req.FoodItemIDs, filter); err != nil {
			return nil, err
		}
	}

	return s.mutate(ctx, user, id, func(meal *model.Meal) error {
		if f.name != nil {
			meal.Name = *f.name
		}
		if f.recipe != nil {
			meal.Recipe = *f.recipe
		}
		if f.difficulty != nil {
			meal.Difficulty = *f.difficulty
		}
		if req.CookingTime != nil {
			meal.CookingTime = *req.CookingTime
		}
		if f.roles != nil {
			meal.DefaultRoles = f.roles
		}
		if f.cookingDate != nil {
			meal.PlannedCookingDate = f.cookingDate
		}
		if f.eatingSet {
			meal.PlannedEatingDates = f.eatingDates
		}
		if req.FoodItemIDs != nil {
			meal.FoodItemIDs = req.FoodItemIDs
		}
		defaultEatingDates(meal)
		return nil
	})
}

// Delete removes a meal and its image.
func (s *mealService) Delete(ctx context.Context, user *model.User, id uuid.UUID) error {
	var image *model.Image
	err := inTx(ctx, s.mealRepo, s.logger, func(tx pgx.Tx) error {
		meal, err := s.mealRepo.GetForUpdate(ctx, tx, id, ownership.FilterFor(user))
		if err != nil {
			return err
		}
		if meal == nil {
			return model.ErrMealNotFound
		}
		image = meal.Image
		return s.mealRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.images.discard(ctx, image)
	s.logger.Info().Str("meal_id", id.String()).Msg("meal deleted")
	return nil
}

// SetImage uploads and attaches an image.
func (s *mealService) SetImage(ctx context.Context, user *model.User, id uuid.UUID, localPath string) (*model.Meal, error) {
	if _, err := s.Get(ctx, user, id); err != nil {
		removeQuietly(localPath)
		return nil, err
	}

	var result *model.Meal
	err := s.images.attach(ctx, localPath, func(img *model.Image) (*model.Image, error) {
		var old *model.Image
		meal, err := s.mutate(ctx, user, id, func(meal *model.Meal) error {
			old = meal.Image
			meal.Image = img
			return nil
		})
		result = meal
		return old, err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveImage detaches and deletes the meal's image.
func (s *mealService) RemoveImage(ctx context.Context, user *model.User, id uuid.UUID) (*model.Meal, error) {
	var old *model.Image
	meal, err := s.mutate(ctx, user, id, func(meal *model.Meal) error {
		old = meal.Image
		meal.Image = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.images.discard(ctx, old)
	return meal, nil
}

func (s *mealService) mutate(ctx context.Context, user *model.User, id uuid.UUID, fn func(meal *model.Meal) error) (*model.Meal, error) {
	var result *model.Meal
	err := inTx(ctx, s.mealRepo, s.logger, func(tx pgx.Tx) error {
		meal, err := s.mealRepo.GetForUpdate(ctx, tx, id, ownership.FilterFor(user))
		if err != nil {
			return err
		}
		if meal == nil {
			return model.ErrMealNotFound
		}
		if err := fn(meal); err != nil {
			return err
		}
		if err := s.mealRepo.Update(ctx, tx, meal); err != nil {
			return err
		}
		result = meal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// checkFoodItems requires every id to be a distinct item visible to the user.
func (s *mealService) checkFoodItems(ctx context.Context, ids []uuid.UUID, filter ownership.Filter) error {
	if len(ids) == 0 {
		return nil
	}

	count, err := s.foodRepo.CountVisible(ctx, ids, filter)
	if err != nil {
		s.logger.Error().Err(err).Int("requested", len(ids)).Msg("failed to validate food items")
		return fmt.Errorf("failed to validate food items: %w", err)
	}
	if count != len(ids) {
		s.logger.Debug().
			Int("requested", len(ids)).
			Int("found", count).
			Msg("meal references invalid food items")
		return model.ErrInvalidFoodItemReference
	}
	return nil
}

// defaultEatingDates falls back to the cooking day when no eating day is planned.
func defaultEatingDates(meal *model.Meal) {
	if len(meal.PlannedEatingDates) == 0 && meal.PlannedCookingDate != nil {
		meal.PlannedEatingDates = []time.Time{model.StartOfDay(*meal.PlannedCookingDate)}
	}
	if meal.PlannedEatingDates == nil {
		meal.PlannedEatingDates = []time.Time{}
	}
}

func nonNilIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
