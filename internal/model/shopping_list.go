package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShoppingList is a named list of items to buy.
type ShoppingList struct {
	ID                  uuid.UUID          `json:"id" db:"id"`
	Name                string             `json:"name" db:"name"`
	Description         string             `json:"description" db:"description"`
	Items               []ShoppingListItem `json:"items"`
	TotalEstimatedPrice decimal.Decimal    `json:"totalEstimatedPrice" db:"total_estimated_price"`
	UserID              uuid.UUID          `json:"user" db:"user_id"`
	HouseholdID         *uuid.UUID         `json:"household,omitempty" db:"household_id"`
	CreatedAt           time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time          `json:"updatedAt" db:"updated_at"`
}

// ShoppingListItem is one entry on a shopping list.
type ShoppingListItem struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	ListID         uuid.UUID       `json:"-" db:"list_id"`
	Name           string          `json:"name" db:"name"`
	Quantity       float64         `json:"quantity" db:"quantity"`
	Unit           string          `json:"unit" db:"unit"`
	Category       string          `json:"category" db:"category"`
	Calories       float64         `json:"calories" db:"calories"`
	EstimatedPrice decimal.Decimal `json:"estimatedPrice" db:"estimated_price"`
	Bought         bool            `json:"bought" db:"bought"`
	BoughtAt       *time.Time      `json:"boughtAt,omitempty" db:"bought_at"`
	FoodItemID     *uuid.UUID      `json:"foodId,omitempty" db:"food_item_id"`
	Position       int             `json:"-" db:"position"`
}

// RecomputeTotal sets the list total to the sum of item prices, rounded to
// two decimal places.
func (l *ShoppingList) RecomputeTotal() {
	total := decimal.Zero
	for _, item := range l.Items {
		total = total.Add(item.EstimatedPrice)
	}
	l.TotalEstimatedPrice = total.Round(2)
}

// FindItem returns the index of the item with id, or -1.
func (l *ShoppingList) FindItem(id uuid.UUID) int {
	for i, item := range l.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// FlexibleQuantity decodes a quantity sent as a number or a numeric string.
// Anything else decodes to zero.
type FlexibleQuantity float64

// UnmarshalJSON never fails; unusable input becomes zero.
func (q *FlexibleQuantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*q = FlexibleQuantity(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*q = FlexibleQuantity(f)
			return nil
		}
	}
	*q = 0
	return nil
}

// Positive returns the quantity, or 1 when it is not a positive finite number.
func (q FlexibleQuantity) Positive() float64 {
	f := float64(q)
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 1
	}
	return f
}

// ShoppingListItemInput is a new shopping list item.
type ShoppingListItemInput struct {
	Name           string           `json:"name" validate:"required,max=200"`
	Quantity       FlexibleQuantity `json:"quantity"`
	Unit           string           `json:"unit,omitempty" validate:"max=20"`
	Category       string           `json:"category,omitempty"`
	Calories       float64          `json:"calories,omitempty" validate:"gte=0"`
	EstimatedPrice decimal.Decimal  `json:"estimatedPrice"`
	FoodItemID     *uuid.UUID       `json:"foodId,omitempty"`
}

// CreateShoppingListRequest is the payload for creating a shopping list.
type CreateShoppingListRequest struct {
	Name        string                  `json:"name" validate:"required,max=200"`
	Description string                  `json:"description,omitempty"`
	Items       []ShoppingListItemInput `json:"items,omitempty" validate:"dive"`
}

// UpdateShoppingListRequest changes a list's name or description.
type UpdateShoppingListRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty"`
}

// AddShoppingListItemsRequest appends items to a list.
type AddShoppingListItemsRequest struct {
	Items []ShoppingListItemInput `json:"items" validate:"required,min=1,dive"`
}

// MarkBoughtResponse reports the list and the pantry entry that was credited.
type MarkBoughtResponse struct {
	ShoppingList  *ShoppingList `json:"shoppingList"`
	PantryItem    *PantryItem   `json:"pantryItem,omitempty"`
	AlreadyBought bool          `json:"alreadyBought"`
}
