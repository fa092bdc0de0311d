package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultExpiringWindowDays is the default look-ahead of the expiring-soon view.
const DefaultExpiringWindowDays = 7

// DefaultShelfLife is the expiry given to items moved in from a shopping list.
const DefaultShelfLife = 7 * 24 * time.Hour

// PantryOrigin records how a pantry item was added.
type PantryOrigin string

const (
	OriginPantry       PantryOrigin = "pantry"
	OriginShoppingList PantryOrigin = "shopping-list"
)

// Pantry is the stock of one owner context.
type Pantry struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	UserID      uuid.UUID    `json:"user" db:"user_id"`
	HouseholdID *uuid.UUID   `json:"household,omitempty" db:"household_id"`
	Items       []PantryItem `json:"items"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time    `json:"updatedAt" db:"updated_at"`
}

// PantryItem is one stocked entry.
type PantryItem struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	PantryID       uuid.UUID    `json:"-" db:"pantry_id"`
	Name           string       `json:"name" db:"name"`
	NormalizedName string       `json:"-" db:"normalized_name"`
	Quantity       float64      `json:"quantity" db:"quantity"`
	Unit           string       `json:"unit" db:"unit"`
	ExpirationDate *time.Time   `json:"expirationDate,omitempty" db:"expiration_date"`
	FoodItemID     *uuid.UUID   `json:"foodId,omitempty" db:"food_item_id"`
	Category       []string     `json:"category" db:"category"`
	Price          float64      `json:"price" db:"price"`
	Calories       float64      `json:"calories" db:"calories"`
	Origin         PantryOrigin `json:"addedFrom" db:"origin"`
	SourceItemID   *uuid.UUID   `json:"-" db:"source_item_id"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time    `json:"updatedAt" db:"updated_at"`
}

// ExpiresWithin reports whether the item expires in [now, now+window].
func (p *PantryItem) ExpiresWithin(now time.Time, window time.Duration) bool {
	if p.ExpirationDate == nil {
		return false
	}
	exp := *p.ExpirationDate
	return !exp.Before(now) && !exp.After(now.Add(window))
}

// ExpiringItems returns the items expiring within window of now.
func (p *Pantry) ExpiringItems(now time.Time, window time.Duration) []PantryItem {
	items := make([]PantryItem, 0)
	for _, it := range p.Items {
		if it.ExpiresWithin(now, window) {
			items = append(items, it)
		}
	}
	return items
}

// PantryView is a pantry together with its expiring items.
type PantryView struct {
	*Pantry
	ExpiringItems []PantryItem `json:"expiringItems"`
}

// AddPantryItemRequest is the payload for adding to the pantry.
type AddPantryItemRequest struct {
	Name           string     `json:"name"`
	Quantity       float64    `json:"quantity"`
	Unit           string     `json:"unit,omitempty" validate:"max=20"`
	ExpirationDate *string    `json:"expirationDate,omitempty"`
	FoodItemID     *uuid.UUID `json:"foodId,omitempty"`
	Category       []string   `json:"category,omitempty"`
	Price          float64    `json:"price,omitempty" validate:"gte=0"`
	Calories       float64    `json:"calories,omitempty" validate:"gte=0"`
}

// UpdatePantryItemRequest is a partial pantry item update.
type UpdatePantryItemRequest struct {
	Name           *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Quantity       *float64 `json:"quantity,omitempty"`
	Unit           *string  `json:"unit,omitempty" validate:"omitempty,max=20"`
	ExpirationDate *string  `json:"expirationDate,omitempty"`
}

// AddPantryItemsRequest is the payload for stocking several items at once,
// typically the haul of a shopping trip.
type AddPantryItemsRequest struct {
	Items []AddPantryItemRequest `json:"items"`
}

// PantryIntakeSummary counts how a bulk intake was applied.
type PantryIntakeSummary struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
}

// AddPantryItemsResponse lists the touched items in request order.
type AddPantryItemsResponse struct {
	Items   []PantryItem        `json:"items"`
	Summary PantryIntakeSummary `json:"summary"`
}
