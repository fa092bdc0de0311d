package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"pantry-hub/internal/imagestore"
	"pantry-hub/internal/ledger"
	"pantry-hub/internal/metrics"
	"pantry-hub/internal/model"
	"pantry-hub/internal/ownership"
	"pantry-hub/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// foodItemService implements FoodItemService.
type foodItemService struct {
	foodRepo repository.FoodItemRepository
	products ProductService
	images   imageAttacher
	matcher  ledger.Matcher
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewFoodItemService creates a new food item service.
func NewFoodItemService(
	foodRepo repository.FoodItemRepository,
	products ProductService,
	store imagestore.Store,
	m *metrics.Metrics,
	logger zerolog.Logger,
) FoodItemService {
	logger = logger.With().Str("service", "food_item").Logger()
	return &foodItemService{
		foodRepo: foodRepo,
		products: products,
		images:   imageAttacher{store: store, metrics: m, logger: logger},
		matcher:  ledger.DefaultMatcher,
		metrics:  m,
		logger:   logger,
	}
}

// Create creates a food item owned by the user's owner context.
func (s *foodItemService) Create(ctx context.Context, user *model.User, req *model.CreateFoodItemRequest) (*model.FoodItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.ErrNameRequired
	}

	var requested model.Quantities
	if req.Quantities != nil {
		requested = *req.Quantities
	}
	quantities, err := ledger.InitialQuantities(requested, req.Location)
	if err != nil {
		return nil, err
	}

	expiration, err := parseOptionalDate(req.ExpirationDate)
	if err != nil {
		return nil, err
	}

	owner := ownership.For(user)
	now := time.Now().UTC()
	item := &model.FoodItem{
		ID:             uuid.New(),
		Name:           name,
		NormalizedName: ledger.Normalize(name),
		Category:       ledger.UnionCategories(nil, req.Category),
		Unit:           unitOrDefault(req.Unit),
		Price:          req.Price,
		Calories:       req.Calories,
		UserID:         owner.UserID,
		HouseholdID:    owner.HouseholdID,
		Quantities:     quantities,
		ExpirationDate: expiration,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	ledger.Recompute(item)

	err = inTx(ctx, s.foodRepo, s.logger, func(tx pgx.Tx) error {
		return s.foodRepo.Create(ctx, tx, item)
	})
	s.metrics.LedgerOp("create", err)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("food_item_id", item.ID.String()).
		Str("user_id", user.ID.String()).
		Msg("food item created successfully")
	return item, nil
}

// List returns the visible items, optionally filtered by location.
func (s *foodItemService) List(ctx context.Context, user *model.User, location string) ([]model.FoodItem, error) {
	var loc *model.Location
	if location != "" {
		parsed, err := model.ParseLocation(location)
		if err != nil {
			return nil, err
		}
		loc = &parsed
	}

	items, err := s.foodRepo.List(ctx, ownership.FilterFor(user), loc)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to list food items")
		return nil, fmt.Errorf("failed to list food items: %w", err)
	}
	return items, nil
}

// Get retrieves a visible item.
func (s *foodItemService) Get(ctx context.Context, user *model.User, id uuid.UUID) (*model.FoodItem, error) {
	item, err := s.foodRepo.GetByID(ctx, id, ownership.FilterFor(user))
	if err != nil {
		s.logger.Error().Err(err).Str("food_item_id", id.String()).Msg("failed to get food item")
		return nil, fmt.Errorf("failed to get food item: %w", err)
	}
	if item == nil {
		return nil, model.ErrFoodItemNotFound
	}
	return item, nil
}

// Update applies a partial update. Quantities are set only at the locations
// the patch names.
func (s *foodItemService) Update(ctx context.Context, user *model.User, id uuid.UUID, req *model.UpdateFoodItemRequest) (*model.FoodItem, error) {
	var name string
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, model.ErrNameRequired
		}
	}
	expiration, err := parseOptionalDate(req.ExpirationDate)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, user, id, "update", func(item *model.FoodItem) error {
		if req.Name != nil {
			item.Name = name
			item.NormalizedName = ledger.Normalize(name)
		}
		if req.Category != nil {
			item.Category = ledger.UnionCategories(nil, req.Category)
		}
		if req.Unit != nil {
			item.Unit = unitOrDefault(*req.Unit)
		}
		if req.Price != nil {
			item.Price = *req.Price
		}
		if req.Calories != nil {
			item.Calories = *req.Calories
		}
		if req.ExpirationDate != nil {
			item.ExpirationDate = expiration
		}
		if q := req.Quantities; q != nil {
			for _, loc := range model.AllLocations {
				v := q.Get(loc)
				if v == nil {
					continue
				}
				if err := ledger.Set(item, loc, *v); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Delete removes an item; references to it are cleaned up by the store.
func (s *foodItemService) Delete(ctx context.Context, user *model.User, id uuid.UUID) error {
	var image *model.Image
	err := inTx(ctx, s.foodRepo, s.logger, func(tx pgx.Tx) error {
		item, err := s.foodRepo.GetForUpdate(ctx, tx, id, ownership.FilterFor(user))
		if err != nil {
			return err
		}
		if item == nil {
			return model.ErrFoodItemNotFound
		}
		image = item.Image
		return s.foodRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.images.discard(ctx, image)
	s.logger.Info().Str("food_item_id", id.String()).Msg("food item deleted")
	return nil
}

// UpdateQuantity applies add, subtract or set at one location.
func (s *foodItemService) UpdateQuantity(ctx context.Context, user *model.User, id uuid.UUID, req *model.UpdateQuantityRequest) (*model.FoodItem, error) {
	if _, err := model.ParseLocation(req.Location); err != nil {
		return nil, err
	}
	action, err := ledger.ParseAction(req.Action)
	if err != nil {
		return nil, err
	}
	if req.Value == nil {
		return nil, model.ErrInvalidQuantity
	}
	value := *req.Value

	return s.mutate(ctx, user, id, string(action), func(item *model.FoodItem) error {
		return ledger.Apply(item, req.Location, req.Action, value)
	})
}

// Move transfers quantity between two locations.
func (s *foodItemService) Move(ctx context.Context, user *model.User, id uuid.UUID, req *model.MoveFoodItemRequest) (*model.FoodItem, error) {
	from, err := model.ParseLocation(req.From)
	if err != nil {
		return nil, err
	}
	to, err := model.ParseLocation(req.To)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, user, id, "transfer", func(item *model.FoodItem) error {
		return ledger.Transfer(item, from, to, req.Amount)
	})
}

// FindOrCreate resolves a name against the user's visible items. Concurrent
// calls for the same name in the same owner scope are serialized.
func (s *foodItemService) FindOrCreate(ctx context.Context, user *model.User, req *model.FindOrCreateRequest) (*model.FoodItem, bool, error) {
	return s.resolve(ctx, user, req, nil, "find_or_create")
}

// AddFromBarcode looks up a product and stocks it at a location, merging into
// a similarly named visible item when there is one. The location defaults to
// the shopping list and the quantity to one.
func (s *foodItemService) AddFromBarcode(ctx context.Context, user *model.User, barcode string, req *model.AddFromBarcodeRequest) (*model.FoodItem, bool, error) {
	location := model.LocationShoppingList
	if req.Location != "" {
		parsed, err := model.ParseLocation(req.Location)
		if err != nil {
			return nil, false, err
		}
		location = parsed
	}
	quantity := 1.0
	if req.Quantity != nil {
		quantity = *req.Quantity
		if math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity <= 0 {
			return nil, false, model.ErrInvalidQuantity
		}
	}

	product, err := s.products.ByBarcode(ctx, barcode)
	if err != nil {
		return nil, false, err
	}

	var q model.Quantities
	q.Set(location, quantity)
	item, created, err := s.resolve(ctx, user, &model.FindOrCreateRequest{
		Name:       product.Name,
		Location:   string(location),
		Quantities: q,
		Unit:       req.Unit,
		Category:   []string{product.MainCategory},
		Calories:   product.Calories,
	}, product.ToEnrichment(time.Now().UTC()), "add_from_barcode")
	if err != nil {
		return nil, false, err
	}

	s.logger.Info().
		Str("food_item_id", item.ID.String()).
		Str("barcode", product.Barcode).
		Bool("created", created).
		Msg("product added to food items")
	return item, created, nil
}

// resolve merges req into a similarly named visible item or creates one.
// A non-nil enrichment is stored on the result either way.
func (s *foodItemService) resolve(ctx context.Context, user *model.User, req *model.FindOrCreateRequest, enrichment *model.Enrichment, op string) (*model.FoodItem, bool, error) {
	name := strings.TrimSpace(req.Name)
	normalized := ledger.Normalize(name)
	if normalized == "" {
		return nil, false, model.ErrNameRequired
	}
	if req.Location != "" {
		if _, err := model.ParseLocation(req.Location); err != nil {
			return nil, false, err
		}
	}

	filter := ownership.FilterFor(user)
	var (
		result  *model.FoodItem
		created bool
	)
	err := inTx(ctx, s.foodRepo, s.logger, func(tx pgx.Tx) error {
		if err := s.foodRepo.LockName(ctx, tx, filter, normalized); err != nil {
			return err
		}

		candidates, err := s.foodRepo.ListForMatching(ctx, tx, filter)
		if err != nil {
			return err
		}

		if idx := s.matcher.Find(name, candidates); idx >= 0 {
			item := candidates[idx]
			if err := ledger.Merge(&item, req.Quantities, req.Category, req.Price, req.Calories); err != nil {
				return err
			}
			if enrichment != nil {
				item.Enrichment = enrichment
			}
			if err := s.foodRepo.Update(ctx, tx, &item); err != nil {
				return err
			}
			result = &item
			return nil
		}

		quantities, err := ledger.InitialQuantities(req.Quantities, req.Location)
		if err != nil {
			return err
		}
		owner := ownership.For(user)
		now := time.Now().UTC()
		item := &model.FoodItem{
			ID:             uuid.New(),
			Name:           name,
			NormalizedName: normalized,
			Category:       ledger.UnionCategories(nil, req.Category),
			Unit:           unitOrDefault(req.Unit),
			Price:          req.Price,
			Calories:       req.Calories,
			UserID:         owner.UserID,
			HouseholdID:    owner.HouseholdID,
			Quantities:     quantities,
			Enrichment:     enrichment,
			Version:        1,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		ledger.Recompute(item)
		if err := s.foodRepo.Create(ctx, tx, item); err != nil {
			return err
		}
		result = item
		created = true
		return nil
	})
	s.metrics.LedgerOp(op, err)
	if err != nil {
		return nil, false, err
	}

	s.logger.Debug().
		Str("food_item_id", result.ID.String()).
		Bool("created", created).
		Msg("food item resolved by name")
	return result, created, nil
}

// SetImage uploads and attaches an image, replacing any previous one.
func (s *foodItemService) SetImage(ctx context.Context, user *model.User, id uuid.UUID, localPath string) (*model.FoodItem, error) {
	if _, err := s.Get(ctx, user, id); err != nil {
		removeQuietly(localPath)
		return nil, err
	}

	var result *model.FoodItem
	err := s.images.attach(ctx, localPath, func(img *model.Image) (*model.Image, error) {
		var old *model.Image
		item, err := s.mutate(ctx, user, id, "set_image", func(item *model.FoodItem) error {
			old = item.Image
			item.Image = img
			return nil
		})
		result = item
		return old, err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveImage detaches and deletes the item's image.
func (s *foodItemService) RemoveImage(ctx context.Context, user *model.User, id uuid.UUID) (*model.FoodItem, error) {
	var old *model.Image
	item, err := s.mutate(ctx, user, id, "remove_image", func(item *model.FoodItem) error {
		old = item.Image
		item.Image = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.images.discard(ctx, old)
	return item, nil
}

// Enrich merges product data into the item. Calories are only filled in
// when the user left them at zero; categories gain the product's main category.
func (s *foodItemService) Enrich(ctx context.Context, user *model.User, id uuid.UUID, barcode string) (*model.FoodItem, error) {
	if _, err := s.Get(ctx, user, id); err != nil {
		return nil, err
	}

	product, err := s.products.ByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, user, id, "enrich", func(item *model.FoodItem) error {
		if item.Calories == 0 && product.Calories > 0 {
			item.Calories = product.Calories
		}
		if product.MainCategory != "" {
			item.Category = ledger.UnionCategories(item.Category, []string{product.MainCategory})
		}
		item.Enrichment = product.ToEnrichment(time.Now().UTC())
		return nil
	})
}

// mutate locks a visible item, applies fn and persists the result with a
// version check.
func (s *foodItemService) mutate(ctx context.Context, user *model.User, id uuid.UUID, op string, fn func(item *model.FoodItem) error) (*model.FoodItem, error) {
	var result *model.FoodItem
	err := inTx(ctx, s.foodRepo, s.logger, func(tx pgx.Tx) error {
		item, err := s.foodRepo.GetForUpdate(ctx, tx, id, ownership.FilterFor(user))
		if err != nil {
			return err
		}
		if item == nil {
			return model.ErrFoodItemNotFound
		}

		if err := fn(item); err != nil {
			return err
		}
		ledger.Recompute(item)

		if err := s.foodRepo.Update(ctx, tx, item); err != nil {
			return err
		}
		result = item
		return nil
	})
	s.metrics.LedgerOp(op, err)
	if err != nil {
		s.logger.Debug().Err(err).Str("food_item_id", id.String()).Str("operation", op).Msg("food item update rejected")
		return nil, err
	}
	return result, nil
}

func unitOrDefault(unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return model.DefaultUnit
	}
	return unit
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := model.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
