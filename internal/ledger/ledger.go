// Package ledger implements the per-location quantity arithmetic of food items.
//
// Every function validates its input before touching the item, so a returned
// error always leaves the quantities unchanged. After any successful mutation
// item.Locations equals the set of locations holding a positive quantity.
package ledger

import (
	"math"

	"pantry-hub/internal/model"
)

// Action is a quantity update verb.
type Action string

const (
	ActionAdd      Action = "add"
	ActionSubtract Action = "subtract"
	ActionSet      Action = "set"
)

// ParseAction validates s as an action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionAdd, ActionSubtract, ActionSet:
		return Action(s), nil
	}
	return "", model.ErrInvalidAction
}

// Recompute derives item.Locations from item.Quantities.
func Recompute(item *model.FoodItem) {
	item.Locations = item.Quantities.Locations()
}

// Set replaces the quantity at loc, clamping negative values to zero.
func Set(item *model.FoodItem, loc model.Location, value float64) error {
	if _, err := model.ParseLocation(string(loc)); err != nil {
		return err
	}
	if !isFinite(value) {
		return model.ErrInvalidQuantity
	}

	item.Quantities.Set(loc, math.Max(0, value))
	Recompute(item)
	return nil
}

// Add increments the quantity at loc by delta.
func Add(item *model.FoodItem, loc model.Location, delta float64) error {
	if _, err := model.ParseLocation(string(loc)); err != nil {
		return err
	}
	if !isFinite(delta) {
		return model.ErrInvalidQuantity
	}

	item.Quantities.Set(loc, math.Max(0, item.Quantities.Get(loc)+delta))
	Recompute(item)
	return nil
}

// Subtract decrements the quantity at loc by delta, flooring at zero. Any
// excess over the stored amount is discarded.
func Subtract(item *model.FoodItem, loc model.Location, delta float64) error {
	if _, err := model.ParseLocation(string(loc)); err != nil {
		return err
	}
	if !isFinite(delta) {
		return model.ErrInvalidQuantity
	}

	item.Quantities.Set(loc, math.Max(0, item.Quantities.Get(loc)-delta))
	Recompute(item)
	return nil
}

// Transfer moves amount from one location to another. The total across all
// locations is unchanged.
func Transfer(item *model.FoodItem, from, to model.Location, amount float64) error {
	if _, err := model.ParseLocation(string(from)); err != nil {
		return err
	}
	if _, err := model.ParseLocation(string(to)); err != nil {
		return err
	}
	if from == to {
		return model.ErrSameLocation
	}
	if !isFinite(amount) || amount <= 0 {
		return model.ErrInvalidTransferAmount
	}
	if item.Quantities.Get(from) < amount {
		return model.ErrInsufficientQuantity
	}

	item.Quantities.Set(from, item.Quantities.Get(from)-amount)
	item.Quantities.Set(to, item.Quantities.Get(to)+amount)
	Recompute(item)
	return nil
}

// Apply runs action at location. Both are validated before any change.
func Apply(item *model.FoodItem, location, action string, value float64) error {
	loc, err := model.ParseLocation(location)
	if err != nil {
		return err
	}
	act, err := ParseAction(action)
	if err != nil {
		return err
	}

	switch act {
	case ActionAdd:
		return Add(item, loc, value)
	case ActionSubtract:
		return Subtract(item, loc, value)
	default:
		return Set(item, loc, value)
	}
}

// InitialQuantities prepares the quantities of a new item. Negative values
// are clamped. When every quantity is zero and hint names a valid location,
// that location receives one unit.
func InitialQuantities(q model.Quantities, hint string) (model.Quantities, error) {
	out := model.Quantities{}
	for _, loc := range model.AllLocations {
		v := q.Get(loc)
		if !isFinite(v) {
			return model.Quantities{}, model.ErrInvalidQuantity
		}
		out.Set(loc, math.Max(0, v))
	}

	if hint == "" {
		return out, nil
	}
	loc, err := model.ParseLocation(hint)
	if err != nil {
		return model.Quantities{}, err
	}
	if out.IsZero() {
		out.Set(loc, 1)
	}
	return out, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
