// Package ownership decides which owner context a record belongs to and which
// records a user may see.
package ownership

import (
	"fmt"

	"pantry-hub/internal/model"

	"github.com/google/uuid"
)

// Owner is the stamp written on newly created records.
type Owner struct {
	UserID      uuid.UUID
	HouseholdID *uuid.UUID
}

// For returns the owner stamp for u. Records created by a household member
// belong to the household as well as to the user.
func For(u *model.User) Owner {
	o := Owner{UserID: u.ID}
	if u.HouseholdID != nil {
		hid := *u.HouseholdID
		o.HouseholdID = &hid
	}
	return o
}

// Filter selects the records visible to a user.
type Filter struct {
	UserID      uuid.UUID
	HouseholdID *uuid.UUID
}

// FilterFor returns the visibility filter for u: their own records, plus the
// household's records when they belong to one.
func FilterFor(u *model.User) Filter {
	o := For(u)
	return Filter{UserID: o.UserID, HouseholdID: o.HouseholdID}
}

// Predicate renders the filter as a SQL boolean expression over userColumn
// and householdColumn. Placeholders start at $argOffset+1; the returned args
// are bound in order.
func (f Filter) Predicate(userColumn, householdColumn string, argOffset int) (string, []any) {
	if f.HouseholdID == nil {
		return fmt.Sprintf("%s = $%d", userColumn, argOffset+1), []any{f.UserID}
	}
	return fmt.Sprintf("(%s = $%d OR %s = $%d)", userColumn, argOffset+1, householdColumn, argOffset+2),
		[]any{f.UserID, *f.HouseholdID}
}

// Allows reports whether a record stamped with userID and householdID is
// visible through the filter.
func (f Filter) Allows(userID uuid.UUID, householdID *uuid.UUID) bool {
	if userID == f.UserID {
		return true
	}
	return f.HouseholdID != nil && householdID != nil && *householdID == *f.HouseholdID
}
