package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pantry-hub/internal/model"
	"pantry-hub/internal/ownership"
	"pantry-hub/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var errNegativePrice = model.Validation(model.ErrCodeInvalidInput, "Estimated price cannot be negative")

// shoppingListService implements ShoppingListService.
type shoppingListService struct {
	listRepo   repository.ShoppingListRepository
	pantryRepo repository.PantryRepository
	foodRepo   repository.FoodItemRepository
	logger     zerolog.Logger
}

// NewShoppingListService creates a new shopping list service.
func NewShoppingListService(
	listRepo repository.ShoppingListRepository,
	pantryRepo repository.PantryRepository,
	foodRepo repository.FoodItemRepository,
	logger zerolog.Logger,
) ShoppingListService {
	return &shoppingListService{
		listRepo:   listRepo,
		pantryRepo: pantryRepo,
		foodRepo:   foodRepo,
		logger:     logger.With().Str("service", "shopping_list").Logger(),
	}
}

// Create creates a list with its initial items.
func (s *shoppingListService) Create(ctx context.Context, user *model.User, req *model.CreateShoppingListRequest) (*model.ShoppingList, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, model.ErrNameRequired
	}
	items, err := newListItems(req.Items)
	if err != nil {
		return nil, err
	}
	if err := s.checkItemRefs(ctx, user, items); err != nil {
		return nil, err
	}

	owner := ownership.For(user)
	now := time.Now().UTC()
	list := &model.ShoppingList{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Items:       items,
		UserID:      owner.UserID,
		HouseholdID: owner.HouseholdID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	list.RecomputeTotal()

	err = inTx(ctx, s.listRepo, s.logger, func(tx pgx.Tx) error {
		return s.listRepo.Create(ctx, tx, list)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("list_id", list.ID.String()).
		Int("items", len(list.Items)).
		Msg("shopping list created successfully")
	return list, nil
}

// List returns the visible lists.
func (s *shoppingListService) List(ctx context.Context, user *model.User) ([]model.ShoppingList, error) {
	lists, err := s.listRepo.List(ctx, ownership.FilterFor(user))
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to list shopping lists")
		return nil, fmt.Errorf("failed to list shopping lists: %w", err)
	}
	return lists, nil
}

// Get retrieves a visible list.
func (s *shoppingListService) Get(ctx context.Context, user *model.User, id uuid.UUID) (*model.ShoppingList, error) {
	list, err := s.listRepo.GetByID(ctx, id, ownership.FilterFor(user))
	if err != nil {
		s.logger.Error().Err(err).Str("list_id", id.String()).Msg("failed to get shopping list")
		return nil, fmt.Errorf("failed to get shopping list: %w", err)
	}
	if list == nil {
		return nil, model.ErrShoppingListNotFound
	}
	return list, nil
}

// Update changes name or description.
func (s *shoppingListService) Update(ctx context.Context, user *model.User, id uuid.UUID, req *model.UpdateShoppingListRequest) (*model.ShoppingList, error) {
	var name string
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, model.ErrNameRequired
		}
	}

	return s.mutate(ctx, user, id, func(tx pgx.Tx, list *model.ShoppingList) error {
		if req.Name != nil {
			list.Name = name
		}
		if req.Description != nil {
			list.Description = strings.TrimSpace(*req.Description)
		}
		return nil
	})
}

// Delete removes a list and its items.
func (s *shoppingListService) Delete(ctx context.Context, user *model.User, id uuid.UUID) error {
	return inTx(ctx, s.listRepo, s.logger, func(tx pgx.Tx) error {
		list, err := s.listRepo.GetForUpdate(ctx, tx, id, ownership.FilterFor(user))
		if err != nil {
			return err
		}
		if list == nil {
			return model.ErrShoppingListNotFound
		}
		return s.listRepo.Delete(ctx, tx, id)
	})
}

// AddItems appends items and recomputes the total.
func (s *shoppingListService) AddItems(ctx context.Context, user *model.User, id uuid.UUID, inputs []model.ShoppingListItemInput) (*model.ShoppingList, error) {
	items, err := newListItems(inputs)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, model.Validation(model.ErrCodeMissingField, "At least one item is required")
	}
	if err := s.checkItemRefs(ctx, user, items); err != nil {
		return nil, err
	}

	return s.mutate(ctx, user, id, func(tx pgx.Tx, list *model.ShoppingList) error {
		if err := s.listRepo.InsertItems(ctx, tx, list.ID, items); err != nil {
			return err
		}
		list.Items = append(list.Items, items...)
		return nil
	})
}

// RemoveItem deletes one item and recomputes the total.
func (s *shoppingListService) RemoveItem(ctx context.Context, user *model.User, id, itemID uuid.UUID) (*model.ShoppingList, error) {
	return s.mutate(ctx, user, id, func(tx pgx.Tx, list *model.ShoppingList) error {
		idx := list.FindItem(itemID)
		if idx < 0 {
			return model.ErrItemNotFound
		}
		if err := s.listRepo.DeleteItem(ctx, tx, list.ID, itemID); err != nil {
			return err
		}
		list.Items = append(list.Items[:idx], list.Items[idx+1:]...)
		return nil
	})
}

// MarkBought flags an item and credits the user's pantry in the same
// transaction. Repeating the call on a bought item changes nothing.
func (s *shoppingListService) MarkBought(ctx context.Context, user *model.User, id, itemID uuid.UUID) (*model.MarkBoughtResponse, error) {
	resp := &model.MarkBoughtResponse{}

	err := inTx(ctx, s.listRepo, s.logger, func(tx pgx.Tx) error {
		list, err := s.listRepo.GetForUpdate(ctx, tx, id, ownership.FilterFor(user))
		if err != nil {
			return err
		}
		if list == nil {
			return model.ErrShoppingListNotFound
		}
		resp.ShoppingList = list

		item, err := s.listRepo.GetItemForUpdate(ctx, tx, list.ID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return model.ErrItemNotFound
		}
		if item.Bought {
			resp.AlreadyBought = true
			return nil
		}

		now := time.Now().UTC()
		if err := s.listRepo.MarkItemBought(ctx, tx, item.ID, now); err != nil {
			return err
		}
		if idx := list.FindItem(item.ID); idx >= 0 {
			list.Items[idx].Bought = true
			list.Items[idx].BoughtAt = &now
		}

		pantry, err := s.pantryRepo.GetOrCreate(ctx, tx, ownership.For(user))
		if err != nil {
			return err
		}

		expires := now.Add(model.DefaultShelfLife)
		sourceID := item.ID
		var category []string
		if item.Category != "" {
			category = []string{item.Category}
		}
		price, _ := item.EstimatedPrice.Float64()

		resp.PantryItem, _, err = creditPantry(ctx, tx, s.pantryRepo, pantry.ID, &model.PantryItem{
			Name:           item.Name,
			Quantity:       item.Quantity,
			Unit:           unitOrDefault(item.Unit),
			ExpirationDate: &expires,
			FoodItemID:     item.FoodItemID,
			Category:       category,
			Price:          price,
			Calories:       item.Calories,
			Origin:         model.OriginShoppingList,
			SourceItemID:   &sourceID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("list_id", id.String()).
		Str("item_id", itemID.String()).
		Bool("already_bought", resp.AlreadyBought).
		Msg("shopping list item marked bought")
	return resp, nil
}

// mutate locks a visible list, applies fn, recomputes the total and persists.
func (s *shoppingListService) mutate(ctx context.Context, user *model.User, id uuid.UUID, fn func(tx pgx.Tx, list *model.ShoppingList) error) (*model.ShoppingList, error) {
	var result *model.ShoppingList
	err := inTx(ctx, s.listRepo, s.logger, func(tx pgx.Tx) error {
		list, err := s.listRepo.GetForUpdate(ctx, tx, id, ownership.FilterFor(user))
		if err != nil {
			return err
		}
		if list == nil {
			return model.ErrShoppingListNotFound
		}
		if err := fn(tx, list); err != nil {
			return err
		}
		list.RecomputeTotal()
		if err := s.listRepo.Update(ctx, tx, list); err != nil {
			return err
		}
		result = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *shoppingListService) checkItemRefs(ctx context.Context, user *model.User, items []model.ShoppingListItem) error {
	refs := make([]*uuid.UUID, len(items))
	for i := range items {
		refs[i] = items[i].FoodItemID
	}
	return checkFoodRefs(ctx, s.foodRepo, ownership.FilterFor(user), s.logger, refs...)
}

// newListItems validates inputs. Quantities that are not positive numbers become 1.
func newListItems(inputs []model.ShoppingListItemInput) ([]model.ShoppingListItem, error) {
	items := make([]model.ShoppingListItem, 0, len(inputs))
	for _, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, model.ErrNameRequired
		}
		if in.EstimatedPrice.IsNegative() {
			return nil, errNegativePrice
		}
		items = append(items, model.ShoppingListItem{
			ID:             uuid.New(),
			Name:           name,
			Quantity:       in.Quantity.Positive(),
			Unit:           unitOrDefault(in.Unit),
			Category:       strings.TrimSpace(in.Category),
			Calories:       in.Calories,
			EstimatedPrice: in.EstimatedPrice.Round(2),
			FoodItemID:     in.FoodItemID,
		})
	}
	return items, nil
}
