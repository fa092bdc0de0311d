package repository

import (
	"context"
	"time"

	"pantry-hub/internal/model"
	"pantry-hub/internal/ownership"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Transactor starts database transactions.
type Transactor interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// UserRepository defines the interface for user data access operations.
type UserRepository interface {
	Transactor

	// Create inserts a user. Returns model.ErrEmailTaken if the email exists.
	Create(ctx context.Context, tx pgx.Tx, user *model.User) error

	// GetByID retrieves a user by ID. Returns nil when not found.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// GetByEmail retrieves a user by lowercased email. Returns nil when not found.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// GetForUpdate retrieves and locks a user row. Returns nil when not found.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.User, error)

	// SetHousehold sets or clears the user's household reference.
	SetHousehold(ctx context.Context, tx pgx.Tx, userID uuid.UUID, householdID *uuid.UUID) error

	// ClearHouseholdForAll clears the household reference of every user pointing at householdID.
	ClearHouseholdForAll(ctx context.Context, tx pgx.Tx, householdID uuid.UUID) error
}

// HouseholdRepository defines the interface for household data access operations.
type HouseholdRepository interface {
	Transactor

	// Create inserts a household together with its initial members.
	Create(ctx context.Context, tx pgx.Tx, household *model.Household) error

	// GetByID retrieves a household with resolved members. Returns nil when not found.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Household, error)

	// GetForUpdate retrieves and locks a household. Returns nil when not found.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Household, error)

	// Update persists name and settings.
	Update(ctx context.Context, tx pgx.Tx, household *model.Household) error

	// AddMember adds a user. Returns model.ErrAlreadyMember if the user belongs to any household.
	AddMember(ctx context.Context, tx pgx.Tx, householdID, userID uuid.UUID, role model.HouseholdRole) error

	// RemoveMember removes a user from the household.
	RemoveMember(ctx context.Context, tx pgx.Tx, householdID, userID uuid.UUID) error

	// UpdateMemberRole changes a member's role.
	UpdateMemberRole(ctx context.Context, tx pgx.Tx, householdID, userID uuid.UUID, role model.HouseholdRole) error

	// CountMembers returns the number of members.
	CountMembers(ctx context.Context, tx pgx.Tx, householdID uuid.UUID) (int, error)

	// Delete removes the household; members and invitations cascade.
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// InvitationRepository defines the interface for invitation data access operations.
type InvitationRepository interface {
	// Create inserts an invitation. Returns model.ErrDuplicateInvitation if a
	// pending invitation exists for the same email and household.
	Create(ctx context.Context, tx pgx.Tx, invitation *model.Invitation) error

	// ExpireStale marks pending invitations for email and household whose expiry has passed.
	ExpireStale(ctx context.Context, tx pgx.Tx, email string, householdID uuid.UUID, now time.Time) error

	// GetByToken retrieves an invitation by token. Returns nil when not found.
	GetByToken(ctx context.Context, token uuid.UUID) (*model.Invitation, error)

	// GetByTokenForUpdate retrieves and locks an invitation. Returns nil when not found.
	GetByTokenForUpdate(ctx context.Context, tx pgx.Tx, token uuid.UUID) (*model.Invitation, error)

	// UpdateStatus persists status and acceptance fields.
	UpdateStatus(ctx context.Context, tx pgx.Tx, invitation *model.Invitation) error

	// MarkExpired marks a single pending invitation expired outside a transaction.
	MarkExpired(ctx context.Context, id uuid.UUID) error

	// HasUsableForEmail reports whether a pending, unexpired invitation exists for email.
	HasUsableForEmail(ctx context.Context, tx pgx.Tx, email string, now time.Time) (bool, error)
}

// FoodItemRepository defines the interface for food item data access operations.
type FoodItemRepository interface {
	Transactor

	// Create inserts a food item.
	Create(ctx context.Context, tx pgx.Tx, item *model.FoodItem) error

	// GetByID retrieves a visible food item. Returns nil when not found or not visible.
	GetByID(ctx context.Context, id uuid.UUID, filter ownership.Filter) (*model.FoodItem, error)

	// GetForUpdate retrieves and locks a visible food item. Returns nil when not found.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID, filter ownership.Filter) (*model.FoodItem, error)

	// List retrieves visible food items, optionally only those stocked at location.
	List(ctx context.Context, filter ownership.Filter, location *model.Location) ([]model.FoodItem, error)

	// ListForMatching retrieves visible food items oldest first within the transaction.
	ListForMatching(ctx context.Context, tx pgx.Tx, filter ownership.Filter) ([]model.FoodItem, error)

	// LockName serializes find-or-create for a name within an owner scope until the transaction ends.
	LockName(ctx context.Context, tx pgx.Tx, filter ownership.Filter, normalizedName string) error

	// Update persists all mutable fields if the stored version matches item.Version.
	// On success item.Version is incremented; otherwise model.ErrConcurrentModification.
	Update(ctx context.Context, tx pgx.Tx, item *model.FoodItem) error

	// Delete removes a food item; meal links are dropped and list and pantry references nulled.
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// CountVisible counts how many distinct ids are visible through the filter.
	CountVisible(ctx context.Context, ids []uuid.UUID, filter ownership.Filter) (int, error)
}

// MealRepository defines the interface for meal data access operations.
type MealRepository interface {
	Transactor

	// Create inserts a meal and its food item links.
	Create(ctx context.Context, tx pgx.Tx, meal *model.Meal) error

	// GetByID retrieves a visible meal. Returns nil when not found.
	GetByID(ctx context.Context, id uuid.UUID, filter ownership.Filter) (*model.Meal, error)

	// GetForUpdate retrieves and locks a visible meal. Returns nil when not found.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID, filter ownership.Filter) (*model.Meal, error)

	// List retrieves visible meals, newest first.
	List(ctx context.Context, filter ownership.Filter) ([]model.Meal, error)

	// Update persists a meal and replaces its food item links.
	Update(ctx context.Context, tx pgx.Tx, meal *model.Meal) error

	// Delete removes a meal.
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// ShoppingListRepository defines the interface for shopping list data access operations.
type ShoppingListRepository interface {
	Transactor

	// Create inserts a list and its items.
	Create(ctx context.Context, tx pgx.Tx, list *model.ShoppingList) error

	// GetByID retrieves a visible list with items. Returns nil when not found.
	GetByID(ctx context.Context, id uuid.UUID, filter ownership.Filter) (*model.ShoppingList, error)

	// GetForUpdate retrieves and locks a visible list with items. Returns nil when not found.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID, filter ownership.Filter) (*model.ShoppingList, error)

	// List retrieves visible lists with items, newest first.
	List(ctx context.Context, filter ownership.Filter) ([]model.ShoppingList, error)

	// Update persists name, description and total.
	Update(ctx context.Context, tx pgx.Tx, list *model.ShoppingList) error

	// Delete removes a list and its items.
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// InsertItems appends items to a list. Returns model.ErrInvalidFoodItemReference
	// when a food item reference does not exist.
	InsertItems(ctx context.Context, tx pgx.Tx, listID uuid.UUID, items []model.ShoppingListItem) error

	// DeleteItem removes one item. Returns model.ErrItemNotFound when absent.
	DeleteItem(ctx context.Context, tx pgx.Tx, listID, itemID uuid.UUID) error

	// GetItemForUpdate retrieves and locks one item. Returns nil when not found.
	GetItemForUpdate(ctx context.Context, tx pgx.Tx, listID, itemID uuid.UUID) (*model.ShoppingListItem, error)

	// MarkItemBought sets the bought flag and time.
	MarkItemBought(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, at time.Time) error
}

// PantryRepository defines the interface for pantry data access operations.
type PantryRepository interface {
	Transactor

	// GetOrCreate returns the locked pantry of the owner context, creating it if missing.
	GetOrCreate(ctx context.Context, tx pgx.Tx, owner ownership.Owner) (*model.Pantry, error)

	// ListVisibleItems retrieves the items of every pantry visible through the filter, oldest first.
	ListVisibleItems(ctx context.Context, tx pgx.Tx, filter ownership.Filter) ([]model.PantryItem, error)

	// ListExpiring retrieves visible items expiring in [from, until].
	ListExpiring(ctx context.Context, filter ownership.Filter, from, until time.Time) ([]model.PantryItem, error)

	// FindMergeTarget locks the item that an incoming entry should merge into:
	// one with the same food item reference, else one with the same normalized name.
	FindMergeTarget(ctx context.Context, tx pgx.Tx, pantryID uuid.UUID, foodItemID *uuid.UUID, normalizedName string) (*model.PantryItem, error)

	// GetItemForUpdate retrieves and locks one item of a visible pantry. Returns nil when not found.
	GetItemForUpdate(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, filter ownership.Filter) (*model.PantryItem, error)

	// InsertItem inserts an item. Returns model.ErrInvalidFoodItemReference
	// when the food item reference does not exist.
	InsertItem(ctx context.Context, tx pgx.Tx, item *model.PantryItem) error

	// UpdateItem persists an item.
	UpdateItem(ctx context.Context, tx pgx.Tx, item *model.PantryItem) error

	// DeleteItem removes one item. Returns model.ErrItemNotFound when absent.
	DeleteItem(ctx context.Context, tx pgx.Tx, pantryID, itemID uuid.UUID) error

	// ReleaseHousehold hands the household pantry to userID, merging it into
	// their personal pantry when they have one. No-op without a household pantry.
	ReleaseHousehold(ctx context.Context, tx pgx.Tx, householdID, userID uuid.UUID) error
}
