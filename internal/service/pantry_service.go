package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"pantry-hub/internal/ledger"
	"pantry-hub/internal/model"
	"pantry-hub/internal/ownership"
	"pantry-hub/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// pantryService implements PantryService.
type pantryService struct {
	pantryRepo     repository.PantryRepository
	foodRepo       repository.FoodItemRepository
	expiringWindow time.Duration
	logger         zerolog.Logger
}

// NewPantryService creates a new pantry service. windowDays is the default
// look-ahead of the expiring-soon view.
func NewPantryService(pantryRepo repository.PantryRepository, foodRepo repository.FoodItemRepository, windowDays int, logger zerolog.Logger) PantryService {
	if windowDays < 1 {
		windowDays = model.DefaultExpiringWindowDays
	}
	return &pantryService{
		pantryRepo:     pantryRepo,
		foodRepo:       foodRepo,
		expiringWindow: time.Duration(windowDays) * 24 * time.Hour,
		logger:         logger.With().Str("service", "pantry").Logger(),
	}
}

// Get returns the pantry of the user's owner context, creating it when
// missing, together with every item the user can see. A household member
// still sees the pantry they kept from before joining.
func (s *pantryService) Get(ctx context.Context, user *model.User) (*model.PantryView, error) {
	var pantry *model.Pantry
	err := inTx(ctx, s.pantryRepo, s.logger, func(tx pgx.Tx) error {
		p, err := s.pantryRepo.GetOrCreate(ctx, tx, ownership.For(user))
		if err != nil {
			return err
		}
		items, err := s.pantryRepo.ListVisibleItems(ctx, tx, ownership.FilterFor(user))
		if err != nil {
			return err
		}
		p.Items = items
		pantry = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &model.PantryView{
		Pantry:        pantry,
		ExpiringItems: pantry.ExpiringItems(time.Now().UTC(), s.expiringWindow),
	}, nil
}

// AddItem adds stock, merging into an entry with the same name.
func (s *pantryService) AddItem(ctx context.Context, user *model.User, req *model.AddPantryItemRequest) (*model.PantryItem, error) {
	entry, err := newPantryEntry(req, model.OriginPantry)
	if err != nil {
		return nil, err
	}
	if err := checkFoodRefs(ctx, s.foodRepo, ownership.FilterFor(user), s.logger, entry.FoodItemID); err != nil {
		return nil, err
	}

	var result *model.PantryItem
	err = inTx(ctx, s.pantryRepo, s.logger, func(tx pgx.Tx) error {
		pantry, err := s.pantryRepo.GetOrCreate(ctx, tx, ownership.For(user))
		if err != nil {
			return err
		}
		result, _, err = creditPantry(ctx, tx, s.pantryRepo, pantry.ID, entry)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("item_id", result.ID.String()).Msg("pantry item added")
	return result, nil
}

// AddItems stocks several items in one transaction. Every item is validated
// before anything is written; a missing quantity counts as one.
func (s *pantryService) AddItems(ctx context.Context, user *model.User, req *model.AddPantryItemsRequest) (*model.AddPantryItemsResponse, error) {
	if len(req.Items) == 0 {
		return nil, model.Validation(model.ErrCodeMissingField, "At least one item is required")
	}

	entries := make([]*model.PantryItem, len(req.Items))
	refs := make([]*uuid.UUID, len(req.Items))
	for i := range req.Items {
		in := req.Items[i]
		if in.Quantity == 0 {
			in.Quantity = 1
		}
		entry, err := newPantryEntry(&in, model.OriginShoppingList)
		if err != nil {
			if de, ok := model.AsDomainError(err); ok {
				return nil, model.Validation(de.Code, fmt.Sprintf("Item %d: %s", i+1, de.Message))
			}
			return nil, err
		}
		entries[i] = entry
		refs[i] = entry.FoodItemID
	}
	if err := checkFoodRefs(ctx, s.foodRepo, ownership.FilterFor(user), s.logger, refs...); err != nil {
		return nil, err
	}

	resp := &model.AddPantryItemsResponse{Items: make([]model.PantryItem, 0, len(entries))}
	err := inTx(ctx, s.pantryRepo, s.logger, func(tx pgx.Tx) error {
		pantry, err := s.pantryRepo.GetOrCreate(ctx, tx, ownership.For(user))
		if err != nil {
			return err
		}
		for _, entry := range entries {
			item, merged, err := creditPantry(ctx, tx, s.pantryRepo, pantry.ID, entry)
			if err != nil {
				return err
			}
			if merged {
				resp.Summary.Updated++
			} else {
				resp.Summary.Added++
			}
			resp.Items = append(resp.Items, *item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID.String()).
		Int("added", resp.Summary.Added).
		Int("updated", resp.Summary.Updated).
		Msg("pantry intake applied")
	return resp, nil
}

// UpdateItem applies a partial update; a quantity of zero or less removes the item.
func (s *pantryService) UpdateItem(ctx context.Context, user *model.User, itemID uuid.UUID, req *model.UpdatePantryItemRequest) (*model.PantryItem, error) {
	var name string
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, model.ErrNameRequired
		}
	}
	if q := req.Quantity; q != nil && (math.IsNaN(*q) || math.IsInf(*q, 0)) {
		return nil, model.ErrInvalidQuantity
	}
	expiration, err := parseOptionalDate(req.ExpirationDate)
	if err != nil {
		return nil, err
	}

	var result *model.PantryItem
	err = inTx(ctx, s.pantryRepo, s.logger, func(tx pgx.Tx) error {
		item, err := s.pantryRepo.GetItemForUpdate(ctx, tx, itemID, ownership.FilterFor(user))
		if err != nil {
			return err
		}
		if item == nil {
			return model.ErrItemNotFound
		}

		if req.Quantity != nil && *req.Quantity <= 0 {
			return s.pantryRepo.DeleteItem(ctx, tx, item.PantryID, itemID)
		}

		if req.Name != nil {
			item.Name = name
			item.NormalizedName = ledger.Normalize(name)
		}
		if req.Quantity != nil {
			item.Quantity = *req.Quantity
		}
		if req.Unit != nil {
			item.Unit = unitOrDefault(*req.Unit)
		}
		if req.ExpirationDate != nil {
			item.ExpirationDate = expiration
		}
		if err := s.pantryRepo.UpdateItem(ctx, tx, item); err != nil {
			return err
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveItem deletes one visible item.
func (s *pantryService) RemoveItem(ctx context.Context, user *model.User, itemID uuid.UUID) error {
	return inTx(ctx, s.pantryRepo, s.logger, func(tx pgx.Tx) error {
		item, err := s.pantryRepo.GetItemForUpdate(ctx, tx, itemID, ownership.FilterFor(user))
		if err != nil {
			return err
		}
		if item == nil {
			return model.ErrItemNotFound
		}
		return s.pantryRepo.DeleteItem(ctx, tx, item.PantryID, itemID)
	})
}

// ExpiringSoon lists visible items expiring within days from now.
func (s *pantryService) ExpiringSoon(ctx context.Context, user *model.User, days int) ([]model.PantryItem, error) {
	window := s.expiringWindow
	if days > 0 {
		window = time.Duration(days) * 24 * time.Hour
	}

	now := time.Now().UTC()
	items, err := s.pantryRepo.ListExpiring(ctx, ownership.FilterFor(user), now, now.Add(window))
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to list expiring items")
		return nil, fmt.Errorf("failed to list expiring items: %w", err)
	}
	return items, nil
}

// newPantryEntry validates an incoming item.
func newPantryEntry(req *model.AddPantryItemRequest, origin model.PantryOrigin) (*model.PantryItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.ErrNameRequired
	}
	if math.IsNaN(req.Quantity) || math.IsInf(req.Quantity, 0) || req.Quantity < 0 {
		return nil, model.ErrInvalidQuantity
	}
	expiration, err := parseOptionalDate(req.ExpirationDate)
	if err != nil {
		return nil, err
	}

	return &model.PantryItem{
		Name:           name,
		Quantity:       req.Quantity,
		Unit:           unitOrDefault(req.Unit),
		ExpirationDate: expiration,
		FoodItemID:     req.FoodItemID,
		Category:       ledger.UnionCategories(nil, req.Category),
		Price:          req.Price,
		Calories:       req.Calories,
		Origin:         origin,
	}, nil
}

// creditPantry merges entry into the matching pantry item, adding the
// quantity and keeping the later expiry, or inserts it as a new item. The
// bool reports a merge.
func creditPantry(ctx context.Context, tx pgx.Tx, repo repository.PantryRepository, pantryID uuid.UUID, entry *model.PantryItem) (*model.PantryItem, bool, error) {
	entry.NormalizedName = ledger.Normalize(entry.Name)

	target, err := repo.FindMergeTarget(ctx, tx, pantryID, entry.FoodItemID, entry.NormalizedName)
	if err != nil {
		return nil, false, err
	}

	if target != nil {
		target.Quantity += entry.Quantity
		target.ExpirationDate = laterDate(target.ExpirationDate, entry.ExpirationDate)
		if target.FoodItemID == nil {
			target.FoodItemID = entry.FoodItemID
		}
		target.Category = ledger.UnionCategories(target.Category, entry.Category)
		if target.Price == 0 {
			target.Price = entry.Price
		}
		if target.Calories == 0 {
			target.Calories = entry.Calories
		}
		if err := repo.UpdateItem(ctx, tx, target); err != nil {
			return nil, false, err
		}
		return target, true, nil
	}

	now := time.Now().UTC()
	entry.ID = uuid.New()
	entry.PantryID = pantryID
	entry.Category = ledger.UnionCategories(nil, entry.Category)
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if err := repo.InsertItem(ctx, tx, entry); err != nil {
		return nil, false, err
	}
	return entry, false, nil
}

func laterDate(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	default:
		return a
	}
}
