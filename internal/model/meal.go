package model

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MealRole is a slot a meal can fill during the day.
type MealRole string

const (
	MealRoleBreakfast MealRole = "breakfast"
	MealRoleLunch     MealRole = "lunch"
	MealRoleSnack     MealRole = "snack"
	MealRoleDinner    MealRole = "dinner"
	MealRoleSupper    MealRole = "supper"
	MealRoleDessert   MealRole = "dessert"
	MealRoleOther     MealRole = "other"
)

// IsValid reports whether r is a known role.
func (r MealRole) IsValid() bool {
	switch r {
	case MealRoleBreakfast, MealRoleLunch, MealRoleSnack, MealRoleDinner,
		MealRoleSupper, MealRoleDessert, MealRoleOther:
		return true
	}
	return false
}

// MealRoles is an ordered set of roles.
//
// Older clients send the roles as a JSON-encoded string holding an array, or
// as a single role string; both decode to the same value as a plain array.
type MealRoles []MealRole

// UnmarshalJSON accepts an array, a string holding an array, or a single role.
func (m *MealRoles) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = nil
		return nil
	}

	var list []MealRole
	if err := json.Unmarshal(data, &list); err == nil {
		*m = list
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidRole
	}
	if err := json.Unmarshal([]byte(s), &list); err == nil {
		*m = list
		return nil
	}
	*m = MealRoles{MealRole(s)}
	return nil
}

// Normalize validates the roles and removes duplicates, keeping first
// occurrence order.
func (m MealRoles) Normalize() (MealRoles, error) {
	if len(m) == 0 {
		return nil, ErrInvalidRole
	}
	seen := make(map[MealRole]bool, len(m))
	out := make(MealRoles, 0, len(m))
	for _, r := range m {
		if !r.IsValid() {
			return nil, ErrInvalidRole
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out, nil
}

// Difficulty is a meal's preparation difficulty.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid reports whether d is a known difficulty.
func (d Difficulty) IsValid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Meal is a recipe with planned dates and linked food items.
type Meal struct {
	ID                 uuid.UUID   `json:"id" db:"id"`
	Name               string      `json:"name" db:"name"`
	Recipe             string      `json:"recipe" db:"recipe"`
	Difficulty         Difficulty  `json:"difficultyLevel,omitempty" db:"difficulty"`
	CookingTime        int         `json:"cookingTime" db:"cooking_time"`
	DefaultRoles       MealRoles   `json:"defaultRoles" db:"default_roles"`
	PlannedCookingDate *time.Time  `json:"plannedCookingDate,omitempty" db:"planned_cooking_date"`
	PlannedEatingDates []time.Time `json:"plannedEatingDates" db:"planned_eating_dates"`
	FoodItemIDs        []uuid.UUID `json:"foodItems"`
	UserID             uuid.UUID   `json:"user" db:"user_id"`
	HouseholdID        *uuid.UUID  `json:"household,omitempty" db:"household_id"`
	Image              *Image      `json:"image,omitempty" db:"image"`
	CreatedAt          time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time   `json:"updatedAt" db:"updated_at"`
}

// MealRequest creates or updates a meal. On update only non-nil fields apply.
type MealRequest struct {
	Name               *string     `json:"name,omitempty" validate:"omitempty,max=200"`
	Recipe             *string     `json:"recipe,omitempty"`
	Difficulty         *string     `json:"difficultyLevel,omitempty"`
	CookingTime        *int        `json:"cookingTime,omitempty" validate:"omitempty,gte=0"`
	DefaultRoles       MealRoles   `json:"defaultRoles,omitempty"`
	PlannedCookingDate *string     `json:"plannedCookingDate,omitempty"`
	PlannedEatingDates []string    `json:"plannedEatingDates,omitempty"`
	FoodItemIDs        []uuid.UUID `json:"foodItems,omitempty"`
}
