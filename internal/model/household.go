package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultHouseholdName is used when a household is created at signup.
const DefaultHouseholdName = "Perhe"

// HouseholdRole is a member's role within a household.
type HouseholdRole string

const (
	RoleOwner  HouseholdRole = "owner"
	RoleAdmin  HouseholdRole = "admin"
	RoleMember HouseholdRole = "member"
)

// IsAssignable reports whether the role can be given through a role change.
func (r HouseholdRole) IsAssignable() bool {
	return r == RoleAdmin || r == RoleMember
}

// Household is a group of users sharing food-management data.
type Household struct {
	ID        uuid.UUID         `json:"id" db:"id"`
	Name      string            `json:"name" db:"name"`
	OwnerID   uuid.UUID         `json:"owner" db:"owner_id"`
	Members   []HouseholdMember `json:"members"`
	Settings  HouseholdSettings `json:"settings" db:"settings"`
	CreatedAt time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time         `json:"updatedAt" db:"updated_at"`
}

// HouseholdMember links a user to a household with a role.
type HouseholdMember struct {
	User     Ref[User]     `json:"user"`
	Role     HouseholdRole `json:"role"`
	JoinedAt time.Time     `json:"joinedAt"`
}

// HouseholdSettings controls invitations and what data is shared.
type HouseholdSettings struct {
	AllowMemberInvites bool       `json:"allowMemberInvites"`
	SharedData         SharedData `json:"sharedData"`
}

// SharedData flags which data categories are shared with the household.
type SharedData struct {
	Meals         bool `json:"meals"`
	ShoppingLists bool `json:"shoppingLists"`
	Pantry        bool `json:"pantry"`
	Schedules     bool `json:"schedules"`
}

// DefaultHouseholdSettings returns the settings of a new household.
func DefaultHouseholdSettings() HouseholdSettings {
	return HouseholdSettings{
		AllowMemberInvites: false,
		SharedData: SharedData{
			Meals:         true,
			ShoppingLists: true,
			Pantry:        true,
			Schedules:     true,
		},
	}
}

// HouseholdSettingsPatch is a partial settings update.
type HouseholdSettingsPatch struct {
	AllowMemberInvites *bool            `json:"allowMemberInvites,omitempty"`
	SharedData         *SharedDataPatch `json:"sharedData,omitempty"`
}

// SharedDataPatch is a partial shared-data update.
type SharedDataPatch struct {
	Meals         *bool `json:"meals,omitempty"`
	ShoppingLists *bool `json:"shoppingLists,omitempty"`
	Pantry        *bool `json:"pantry,omitempty"`
	Schedules     *bool `json:"schedules,omitempty"`
}

// Apply merges the patch into s. Unset fields keep their value.
func (p HouseholdSettingsPatch) Apply(s HouseholdSettings) HouseholdSettings {
	if p.AllowMemberInvites != nil {
		s.AllowMemberInvites = *p.AllowMemberInvites
	}
	if sd := p.SharedData; sd != nil {
		if sd.Meals != nil {
			s.SharedData.Meals = *sd.Meals
		}
		if sd.ShoppingLists != nil {
			s.SharedData.ShoppingLists = *sd.ShoppingLists
		}
		if sd.Pantry != nil {
			s.SharedData.Pantry = *sd.Pantry
		}
		if sd.Schedules != nil {
			s.SharedData.Schedules = *sd.Schedules
		}
	}
	return s
}

// RoleOf returns the role of userID, or false when they are not a member.
func (h *Household) RoleOf(userID uuid.UUID) (HouseholdRole, bool) {
	for _, m := range h.Members {
		if m.User.ID() == userID {
			return m.Role, true
		}
	}
	return "", false
}

// IsMember reports whether userID belongs to the household.
func (h *Household) IsMember(userID uuid.UUID) bool {
	_, ok := h.RoleOf(userID)
	return ok
}

// CanManage reports whether userID is the owner or an admin.
func (h *Household) CanManage(userID uuid.UUID) bool {
	role, ok := h.RoleOf(userID)
	return ok && (role == RoleOwner || role == RoleAdmin)
}

// CanInvite reports whether userID may send invitations.
func (h *Household) CanInvite(userID uuid.UUID) bool {
	role, ok := h.RoleOf(userID)
	if !ok {
		return false
	}
	if role == RoleOwner || role == RoleAdmin {
		return true
	}
	return h.Settings.AllowMemberInvites
}

// DefaultNameFor is the name given to an explicitly created household without one.
func DefaultNameFor(username string) string {
	return username + "n perhe"
}

// CreateHouseholdRequest is the payload for creating a household.
type CreateHouseholdRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,max=100"`
}

// UpdateHouseholdRequest is the payload for updating a household.
type UpdateHouseholdRequest struct {
	Name     *string                 `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Settings *HouseholdSettingsPatch `json:"settings,omitempty"`
}

// UpdateMemberRoleRequest is the payload for changing a member's role.
type UpdateMemberRoleRequest struct {
	Role HouseholdRole `json:"role" validate:"required"`
}
