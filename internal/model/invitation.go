package model

import (
	"time"

	"github.com/google/uuid"
)

// InvitationTTL is how long an invitation stays usable.
const InvitationTTL = 7 * 24 * time.Hour

// InvitationStatus is the lifecycle state of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation is an email invitation to join a household.
type Invitation struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	Email       string           `json:"email" db:"email"`
	HouseholdID uuid.UUID        `json:"household" db:"household_id"`
	InvitedBy   uuid.UUID        `json:"invitedBy" db:"invited_by"`
	Token       uuid.UUID        `json:"token" db:"token"`
	Status      InvitationStatus `json:"status" db:"status"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
	ExpiresAt   time.Time        `json:"expiresAt" db:"expires_at"`
	AcceptedAt  *time.Time       `json:"acceptedAt,omitempty" db:"accepted_at"`
	AcceptedBy  *uuid.UUID       `json:"acceptedBy,omitempty" db:"accepted_by"`
}

// IsUsable reports whether the invitation is pending and unexpired at now.
func (i *Invitation) IsUsable(now time.Time) bool {
	return i.Status == InvitationPending && now.Before(i.ExpiresAt)
}

// IsStale reports whether the invitation is still pending but past its expiry.
func (i *Invitation) IsStale(now time.Time) bool {
	return i.Status == InvitationPending && !now.Before(i.ExpiresAt)
}

// NewInvitation creates a pending invitation expiring after InvitationTTL.
func NewInvitation(email string, householdID, invitedBy uuid.UUID, now time.Time) *Invitation {
	return &Invitation{
		ID:          uuid.New(),
		Email:       email,
		HouseholdID: householdID,
		InvitedBy:   invitedBy,
		Token:       uuid.New(),
		Status:      InvitationPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(InvitationTTL),
	}
}

// InvitationDetails is the public view of an invitation looked up by token.
type InvitationDetails struct {
	Email         string    `json:"email"`
	HouseholdID   uuid.UUID `json:"householdId"`
	HouseholdName string    `json:"householdName"`
	InvitedBy     string    `json:"invitedBy"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// InviteRequest is the payload for inviting someone by email.
type InviteRequest struct {
	Email string `json:"email" validate:"required"`
}

// InviteResponse is returned after an invitation is created. Warning is set
// when the email could not be delivered; the link can then be shared manually.
type InviteResponse struct {
	Invitation *Invitation `json:"invitation"`
	InviteLink string      `json:"inviteLink"`
	DeepLink   string      `json:"deepLink"`
	EmailSent  bool        `json:"emailSent"`
	Warning    string      `json:"warning,omitempty"`
}

// InvitationTokenRequest carries an invitation token.
type InvitationTokenRequest struct {
	Token string `json:"token" validate:"required,uuid"`
}
