package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultUnit is used when a food item is created without a unit.
const DefaultUnit = "kpl"

// Location is a place where a food item's quantity can reside.
type Location string

const (
	LocationMeal         Location = "meal"
	LocationShoppingList Location = "shopping-list"
	LocationPantry       Location = "pantry"
)

// AllLocations lists every location in display order.
var AllLocations = []Location{LocationMeal, LocationShoppingList, LocationPantry}

// ParseLocation validates s as a location.
func ParseLocation(s string) (Location, error) {
	switch Location(s) {
	case LocationMeal, LocationShoppingList, LocationPantry:
		return Location(s), nil
	}
	return "", ErrInvalidLocation
}

// Quantities holds the amount of an item at each location.
type Quantities struct {
	Meal         float64 `json:"meal"`
	ShoppingList float64 `json:"shopping-list"`
	Pantry       float64 `json:"pantry"`
}

// Get returns the quantity at loc.
func (q Quantities) Get(loc Location) float64 {
	switch loc {
	case LocationMeal:
		return q.Meal
	case LocationShoppingList:
		return q.ShoppingList
	case LocationPantry:
		return q.Pantry
	}
	return 0
}

// Set replaces the quantity at loc. Unknown locations are ignored.
func (q *Quantities) Set(loc Location, v float64) {
	switch loc {
	case LocationMeal:
		q.Meal = v
	case LocationShoppingList:
		q.ShoppingList = v
	case LocationPantry:
		q.Pantry = v
	}
}

// Total is the sum over all locations.
func (q Quantities) Total() float64 {
	return q.Meal + q.ShoppingList + q.Pantry
}

// IsZero reports whether every location is empty.
func (q Quantities) IsZero() bool {
	return q.Meal == 0 && q.ShoppingList == 0 && q.Pantry == 0
}

// Locations returns the locations holding a positive quantity.
func (q Quantities) Locations() []Location {
	locs := make([]Location, 0, len(AllLocations))
	for _, loc := range AllLocations {
		if q.Get(loc) > 0 {
			locs = append(locs, loc)
		}
	}
	return locs
}

// Image is a stored image reference.
type Image struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

// Enrichment is product data merged in from an external lookup.
type Enrichment struct {
	Barcode        string             `json:"barcode,omitempty"`
	Brands         string             `json:"brands,omitempty"`
	NutritionGrade string             `json:"nutritionGrade,omitempty"`
	NovaGroup      int                `json:"novaGroup,omitempty"`
	ImageURL       string             `json:"imageUrl,omitempty"`
	Nutrition      map[string]float64 `json:"nutrition,omitempty"`
	Labels         []string           `json:"labels,omitempty"`
	Allergens      []string           `json:"allergens,omitempty"`
	LastUpdated    time.Time          `json:"lastUpdated"`
}

// FoodItem is a tracked food with per-location quantities.
type FoodItem struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	Name           string      `json:"name" db:"name"`
	NormalizedName string      `json:"-" db:"normalized_name"`
	Category       []string    `json:"category" db:"category"`
	Unit           string      `json:"unit" db:"unit"`
	Price          float64     `json:"price" db:"price"`
	Calories       float64     `json:"calories" db:"calories"`
	UserID         uuid.UUID   `json:"user" db:"user_id"`
	HouseholdID    *uuid.UUID  `json:"household,omitempty" db:"household_id"`
	Quantities     Quantities  `json:"quantities"`
	Locations      []Location  `json:"locations" db:"locations"`
	ExpirationDate *time.Time  `json:"expirationDate,omitempty" db:"expiration_date"`
	Image          *Image      `json:"image,omitempty" db:"image"`
	Enrichment     *Enrichment `json:"openFoodFactsData,omitempty" db:"enrichment"`
	Version        int         `json:"version" db:"version"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time   `json:"updatedAt" db:"updated_at"`
}

// CreateFoodItemRequest is the payload for creating a food item.
type CreateFoodItemRequest struct {
	Name           string      `json:"name" validate:"required,max=200"`
	Category       []string    `json:"category,omitempty"`
	Unit           string      `json:"unit,omitempty" validate:"max=20"`
	Price          float64     `json:"price,omitempty" validate:"gte=0"`
	Calories       float64     `json:"calories,omitempty" validate:"gte=0"`
	Quantities     *Quantities `json:"quantities,omitempty"`
	Location       string      `json:"location,omitempty"`
	ExpirationDate *string     `json:"expirationDate,omitempty"`
}

// UpdateFoodItemRequest is a partial food item update. Only the quantity
// locations named in Quantities change.
type UpdateFoodItemRequest struct {
	Name           *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Category       []string         `json:"category,omitempty"`
	Unit           *string          `json:"unit,omitempty" validate:"omitempty,max=20"`
	Price          *float64         `json:"price,omitempty" validate:"omitempty,gte=0"`
	Calories       *float64         `json:"calories,omitempty" validate:"omitempty,gte=0"`
	Quantities     *QuantitiesPatch `json:"quantities,omitempty"`
	ExpirationDate *string          `json:"expirationDate,omitempty"`
}

// QuantitiesPatch sets the quantity of the locations it names and leaves
// the others alone.
type QuantitiesPatch struct {
	Meal         *float64 `json:"meal,omitempty"`
	ShoppingList *float64 `json:"shopping-list,omitempty"`
	Pantry       *float64 `json:"pantry,omitempty"`
}

// Get returns the patched quantity at loc, or nil when loc is not named.
func (p QuantitiesPatch) Get(loc Location) *float64 {
	switch loc {
	case LocationMeal:
		return p.Meal
	case LocationShoppingList:
		return p.ShoppingList
	case LocationPantry:
		return p.Pantry
	}
	return nil
}

// AddFromBarcodeRequest stocks a looked-up product at one location.
type AddFromBarcodeRequest struct {
	Location string   `json:"location,omitempty"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty" validate:"max=20"`
}

// UpdateQuantityRequest applies an add, subtract or set at one location.
type UpdateQuantityRequest struct {
	Location string   `json:"location" validate:"required"`
	Action   string   `json:"action" validate:"required"`
	Value    *float64 `json:"value" validate:"required"`
}

// MoveFoodItemRequest transfers quantity between two locations.
type MoveFoodItemRequest struct {
	From   string  `json:"fromLocation" validate:"required"`
	To     string  `json:"toLocation" validate:"required"`
	Amount float64 `json:"quantity" validate:"required"`
}

// FindOrCreateRequest resolves a food item by name, creating it when no
// similar item exists.
type FindOrCreateRequest struct {
	Name       string     `json:"name" validate:"required,max=200"`
	Location   string     `json:"location,omitempty"`
	Quantities Quantities `json:"quantities"`
	Unit       string     `json:"unit,omitempty" validate:"max=20"`
	Category   []string   `json:"category,omitempty"`
	Price      float64    `json:"price,omitempty" validate:"gte=0"`
	Calories   float64    `json:"calories,omitempty" validate:"gte=0"`
}

// EnrichRequest links a food item to a product barcode.
type EnrichRequest struct {
	Barcode string `json:"barcode" validate:"required,numeric,min=8,max=14"`
}
