package ledger

import (
	"math"
	"testing"

	"pantry-hub/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newItem(meal, shopping, pantry float64) *model.FoodItem {
	item := &model.FoodItem{
		Name:       "Milk",
		Quantities: model.Quantities{Meal: meal, ShoppingList: shopping, Pantry: pantry},
	}
	Recompute(item)
	return item
}

func assertLocationsDerived(t *testing.T, item *model.FoodItem) {
	t.Helper()
	assert.Equal(t, item.Quantities.Locations(), item.Locations)
}

func TestSet(t *testing.T) {
	tests := []struct {
		name     string
		loc      model.Location
		value    float64
		expected float64
		wantErr  error
	}{
		{name: "Replaces value", loc: model.LocationPantry, value: 5, expected: 5},
		{name: "Clamps negative to zero", loc: model.LocationPantry, value: -3, expected: 0},
		{name: "Rejects unknown location", loc: "fridge", value: 1, wantErr: model.ErrInvalidLocation},
		{name: "Rejects NaN", loc: model.LocationPantry, value: math.NaN(), wantErr: model.ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := newItem(1, 2, 3)
			before := item.Quantities

			err := Set(item, tt.loc, tt.value)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, item.Quantities)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, item.Quantities.Get(tt.loc))
			assertLocationsDerived(t, item)
		})
	}
}

func TestAddAndSubtract(t *testing.T) {
	item := newItem(0, 0, 2)

	require.NoError(t, Add(item, model.LocationMeal, 3))
	assert.Equal(t, 3.0, item.Quantities.Meal)
	assert.Equal(t, []model.Location{model.LocationMeal, model.LocationPantry}, item.Locations)

	require.NoError(t, Subtract(item, model.LocationPantry, 10))
	assert.Equal(t, 0.0, item.Quantities.Pantry)
	assert.Equal(t, []model.Location{model.LocationMeal}, item.Locations)

	err := Add(item, model.LocationMeal, math.Inf(1))
	assert.ErrorIs(t, err, model.ErrInvalidQuantity)
	assert.Equal(t, 3.0, item.Quantities.Meal)
}

func TestTransfer(t *testing.T) {
	tests := []struct {
		name    string
		from    model.Location
		to      model.Location
		amount  float64
		wantErr error
	}{
		{name: "Moves amount", from: model.LocationPantry, to: model.LocationMeal, amount: 1},
		{name: "Moves everything", from: model.LocationShoppingList, to: model.LocationPantry, amount: 2},
		{name: "Insufficient quantity", from: model.LocationPantry, to: model.LocationMeal, amount: 5, wantErr: model.ErrInsufficientQuantity},
		{name: "Same location", from: model.LocationPantry, to: model.LocationPantry, amount: 1, wantErr: model.ErrSameLocation},
		{name: "Zero amount", from: model.LocationPantry, to: model.LocationMeal, amount: 0, wantErr: model.ErrInvalidTransferAmount},
		{name: "Negative amount", from: model.LocationPantry, to: model.LocationMeal, amount: -1, wantErr: model.ErrInvalidTransferAmount},
		{name: "Invalid source", from: "cellar", to: model.LocationMeal, amount: 1, wantErr: model.ErrInvalidLocation},
		{name: "Invalid destination", from: model.LocationPantry, to: "cellar", amount: 1, wantErr: model.ErrInvalidLocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := newItem(0, 2, 1)
			before := item.Quantities

			err := Transfer(item, tt.from, tt.to, tt.amount)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, item.Quantities)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, before.Total(), item.Quantities.Total())
			assert.Equal(t, before.Get(tt.from)-tt.amount, item.Quantities.Get(tt.from))
			assert.Equal(t, before.Get(tt.to)+tt.amount, item.Quantities.Get(tt.to))
			assertLocationsDerived(t, item)
		})
	}
}

func TestTransfer_ConservesTotalOverSequence(t *testing.T) {
	item := newItem(1, 4, 7)
	total := item.Quantities.Total()

	moves := []struct {
		from, to model.Location
		amount   float64
	}{
		{model.LocationPantry, model.LocationMeal, 3},
		{model.LocationShoppingList, model.LocationPantry, 4},
		{model.LocationMeal, model.LocationShoppingList, 2.5},
		{model.LocationPantry, model.LocationMeal, 100},
		{model.LocationShoppingList, model.LocationMeal, 0.5},
	}

	for _, m := range moves {
		_ = Transfer(item, m.from, m.to, m.amount)
		assert.InDelta(t, total, item.Quantities.Total(), 1e-9)
		assertLocationsDerived(t, item)
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		location string
		action   string
		value    float64
		expected float64
		wantErr  error
	}{
		{name: "Add", location: "pantry", action: "add", value: 2, expected: 3},
		{name: "Subtract", location: "pantry", action: "subtract", value: 0.5, expected: 0.5},
		{name: "Set", location: "pantry", action: "set", value: 9, expected: 9},
		{name: "Invalid location", location: "garage", action: "add", value: 1, wantErr: model.ErrInvalidLocation},
		{name: "Invalid action", location: "pantry", action: "multiply", value: 2, wantErr: model.ErrInvalidAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := newItem(0, 0, 1)

			err := Apply(item, tt.location, tt.action, tt.value)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 1.0, item.Quantities.Pantry)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, item.Quantities.Pantry)
		})
	}
}

func TestInitialQuantities(t *testing.T) {
	tests := []struct {
		name     string
		input    model.Quantities
		hint     string
		expected model.Quantities
		wantErr  error
	}{
		{
			name:     "Hint fills empty quantities",
			hint:     "shopping-list",
			expected: model.Quantities{ShoppingList: 1},
		},
		{
			name:     "Hint ignored when quantities given",
			input:    model.Quantities{Pantry: 2},
			hint:     "meal",
			expected: model.Quantities{Pantry: 2},
		},
		{
			name:     "Negative values clamped",
			input:    model.Quantities{Pantry: -2, Meal: 1},
			expected: model.Quantities{Meal: 1},
		},
		{
			name:    "Invalid hint",
			hint:    "basement",
			wantErr: model.ErrInvalidLocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InitialQuantities(tt.input, tt.hint)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
