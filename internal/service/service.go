package service

import (
	"context"

	"pantry-hub/internal/model"
	"pantry-hub/internal/productlookup"

	"github.com/google/uuid"
)

// UserService defines operations for user provisioning.
type UserService interface {
	// Register creates a user. Unless a pending invitation exists for the
	// email, a household is created with the user as owner.
	Register(ctx context.Context, req *model.RegisterUserRequest) (*model.RegisterUserResponse, error)

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// HouseholdService defines household membership and invitation operations.
// The actor is always the authenticated user.
type HouseholdService interface {
	Create(ctx context.Context, actor *model.User, name *string) (*model.Household, error)

	// Get returns the actor's household, or nil when they have none.
	Get(ctx context.Context, actor *model.User) (*model.Household, error)

	Update(ctx context.Context, actor *model.User, req *model.UpdateHouseholdRequest) (*model.Household, error)
	Invite(ctx context.Context, actor *model.User, email string) (*model.InviteResponse, error)

	// GetInvitation is the public lookup behind the accept page.
	GetInvitation(ctx context.Context, token uuid.UUID) (*model.InvitationDetails, error)

	Accept(ctx context.Context, actor *model.User, token uuid.UUID) (*model.Household, error)
	Decline(ctx context.Context, actor *model.User, token uuid.UUID) error
	Leave(ctx context.Context, actor *model.User) error
	RemoveMember(ctx context.Context, actor *model.User, memberID uuid.UUID) (*model.Household, error)
	UpdateMemberRole(ctx context.Context, actor *model.User, memberID uuid.UUID, role model.HouseholdRole) (*model.Household, error)
	Delete(ctx context.Context, actor *model.User) error
}

// FoodItemService defines the quantity ledger operations on food items.
type FoodItemService interface {
	Create(ctx context.Context, user *model.User, req *model.CreateFoodItemRequest) (*model.FoodItem, error)

	// List returns visible items, only those stocked at location when it is set.
	List(ctx context.Context, user *model.User, location string) ([]model.FoodItem, error)

	Get(ctx context.Context, user *model.User, id uuid.UUID) (*model.FoodItem, error)
	Update(ctx context.Context, user *model.User, id uuid.UUID, req *model.UpdateFoodItemRequest) (*model.FoodItem, error)
	Delete(ctx context.Context, user *model.User, id uuid.UUID) error
	UpdateQuantity(ctx context.Context, user *model.User, id uuid.UUID, req *model.UpdateQuantityRequest) (*model.FoodItem, error)
	Move(ctx context.Context, user *model.User, id uuid.UUID, req *model.MoveFoodItemRequest) (*model.FoodItem, error)

	// FindOrCreate merges into a similarly named visible item or creates a
	// new one. The bool reports whether an item was created.
	FindOrCreate(ctx context.Context, user *model.User, req *model.FindOrCreateRequest) (*model.FoodItem, bool, error)

	// AddFromBarcode stocks the product behind barcode, merging like FindOrCreate.
	AddFromBarcode(ctx context.Context, user *model.User, barcode string, req *model.AddFromBarcodeRequest) (*model.FoodItem, bool, error)

	// SetImage uploads the file at localPath and removes it afterwards.
	SetImage(ctx context.Context, user *model.User, id uuid.UUID, localPath string) (*model.FoodItem, error)
	RemoveImage(ctx context.Context, user *model.User, id uuid.UUID) (*model.FoodItem, error)

	// Enrich merges product data for barcode without overwriting user-entered fields.
	Enrich(ctx context.Context, user *model.User, id uuid.UUID, barcode string) (*model.FoodItem, error)
}

// MealService defines meal operations.
type MealService interface {
	Create(ctx context.Context, user *model.User, req *model.MealRequest) (*model.Meal, error)
	List(ctx context.Context, user *model.User) ([]model.Meal, error)
	Get(ctx context.Context, user *model.User, id uuid.UUID) (*model.Meal, error)
	Update(ctx context.Context, user *model.User, id uuid.UUID, req *model.MealRequest) (*model.Meal, error)
	Delete(ctx context.Context, user *model.User, id uuid.UUID) error
	SetImage(ctx context.Context, user *model.User, id uuid.UUID, localPath string) (*model.Meal, error)
	RemoveImage(ctx context.Context, user *model.User, id uuid.UUID) (*model.Meal, error)
}

// ShoppingListService defines shopping list operations.
type ShoppingListService interface {
	Create(ctx context.Context, user *model.User, req *model.CreateShoppingListRequest) (*model.ShoppingList, error)
	List(ctx context.Context, user *model.User) ([]model.ShoppingList, error)
	Get(ctx context.Context, user *model.User, id uuid.UUID) (*model.ShoppingList, error)
	Update(ctx context.Context, user *model.User, id uuid.UUID, req *model.UpdateShoppingListRequest) (*model.ShoppingList, error)
	Delete(ctx context.Context, user *model.User, id uuid.UUID) error
	AddItems(ctx context.Context, user *model.User, id uuid.UUID, items []model.ShoppingListItemInput) (*model.ShoppingList, error)
	RemoveItem(ctx context.Context, user *model.User, id, itemID uuid.UUID) (*model.ShoppingList, error)

	// MarkBought flags the item and credits the pantry once.
	MarkBought(ctx context.Context, user *model.User, id, itemID uuid.UUID) (*model.MarkBoughtResponse, error)
}

// PantryService defines pantry operations on the user's owner context.
type PantryService interface {
	Get(ctx context.Context, user *model.User) (*model.PantryView, error)
	AddItem(ctx context.Context, user *model.User, req *model.AddPantryItemRequest) (*model.PantryItem, error)

	// AddItems stocks several items at once, reporting how many were added
	// as new entries and how many merged into existing ones.
	AddItems(ctx context.Context, user *model.User, req *model.AddPantryItemsRequest) (*model.AddPantryItemsResponse, error)

	// UpdateItem returns nil when the update removed the item.
	UpdateItem(ctx context.Context, user *model.User, itemID uuid.UUID, req *model.UpdatePantryItemRequest) (*model.PantryItem, error)
	RemoveItem(ctx context.Context, user *model.User, itemID uuid.UUID) error
	ExpiringSoon(ctx context.Context, user *model.User, days int) ([]model.PantryItem, error)
}

// ProductService defines product lookup operations.
type ProductService interface {
	ByBarcode(ctx context.Context, barcode string) (*productlookup.Product, error)
	Search(ctx context.Context, query string, page, pageSize int) (*productlookup.SearchResult, error)
	ByCategory(ctx context.Context, category string, page, pageSize int) (*productlookup.SearchResult, error)

	// Categories lists the browsable categories.
	Categories() []productlookup.Category

	// Suggestions completes a partial product name. Lookup failures yield
	// an empty list.
	Suggestions(ctx context.Context, query string, limit int) ([]productlookup.Suggestion, error)
}
