package handler

import (
	"net/http"

	"pantry-hub/internal/model"
	"pantry-hub/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HouseholdHandler handles household and invitation HTTP requests.
type HouseholdHandler struct {
	service service.HouseholdService
	logger  zerolog.Logger
}

// NewHouseholdHandler creates a new household handler.
func NewHouseholdHandler(service service.HouseholdService, logger zerolog.Logger) *HouseholdHandler {
	return &HouseholdHandler{
		service: service,
		logger:  logger.With().Str("handler", "household").Logger(),
	}
}

// Create handles POST /api/household requests.
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.CreateHouseholdRequest
	if r.ContentLength != 0 {
		if err := decodeJSONBody(w, r, &req); err != nil {
			writeRequestError(w, err, h.logger)
			return
		}
	}

	household, err := h.service.Create(r.Context(), user, req.Name)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, household)
}

// Get handles GET /api/household requests. A user without a household gets
// a null body.
func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	household, err := h.service.Get(r.Context(), user)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, household)
}

// Update handles PUT /api/household requests.
func (h *HouseholdHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.UpdateHouseholdRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	household, err := h.service.Update(r.Context(), user, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, household)
}

// Delete handles DELETE /api/household requests.
func (h *HouseholdHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), user); err != nil {
		writeError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Invite handles POST /api/household/invite requests.
func (h *HouseholdHandler) Invite(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.InviteRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	resp, err := h.service.Invite(r.Context(), user, req.Email)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// GetInvitation handles GET /api/household/invitation/{token} requests. It
// needs no authentication.
func (h *HouseholdHandler) GetInvitation(w http.ResponseWriter, r *http.Request) {
	token, err := uuidParam(r, "token")
	if err != nil {
		writeError(w, model.ErrInvitationNotFound, h.logger)
		return
	}

	details, err := h.service.GetInvitation(r.Context(), token)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// Accept handles POST /api/household/accept-invite requests.
func (h *HouseholdHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	token, ok := h.decodeToken(w, r)
	if !ok {
		return
	}

	household, err := h.service.Accept(r.Context(), user, token)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, household)
}

// Decline handles POST /api/household/decline-invite requests.
func (h *HouseholdHandler) Decline(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	token, ok := h.decodeToken(w, r)
	if !ok {
		return
	}

	if err := h.service.Decline(r.Context(), user, token); err != nil {
		writeError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Leave handles POST /api/household/leave requests.
func (h *HouseholdHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Leave(r.Context(), user); err != nil {
		writeError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember handles DELETE /api/household/members/{memberId} requests.
func (h *HouseholdHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	memberID, err := uuidParam(r, "memberId")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	household, err := h.service.RemoveMember(r.Context(), user, memberID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, household)
}

// UpdateMemberRole handles PUT /api/household/members/{memberId}/role requests.
func (h *HouseholdHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	memberID, err := uuidParam(r, "memberId")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.UpdateMemberRoleRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	household, err := h.service.UpdateMemberRole(r.Context(), user, memberID, req.Role)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, household)
}

func (h *HouseholdHandler) decodeToken(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var req model.InvitationTokenRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return uuid.Nil, false
	}
	token, err := uuid.Parse(req.Token)
	if err != nil {
		writeError(w, model.ErrInvalidOrExpired, h.logger)
		return uuid.Nil, false
	}
	return token, true
}
