package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated account. Credentials live with the identity
// provider; this record only carries what the data model needs.
type User struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	Username    string     `json:"username" db:"username"`
	HouseholdID *uuid.UUID `json:"household,omitempty" db:"household_id"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// Identity returns the user id.
func (u User) Identity() uuid.UUID {
	return u.ID
}

// RegisterUserRequest is the payload of the provisioning endpoint.
type RegisterUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=1,max=100"`
}

// RegisterUserResponse reports the created user and whether a household was
// created for them.
type RegisterUserResponse struct {
	User          *User      `json:"user"`
	Household     *Household `json:"household,omitempty"`
	PendingInvite bool       `json:"pendingInvitation"`
}
