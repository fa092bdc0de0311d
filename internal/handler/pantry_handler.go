package handler

import (
	"net/http"
	"strconv"

	"pantry-hub/internal/model"
	"pantry-hub/internal/service"

	"github.com/rs/zerolog"
)

// PantryHandler handles pantry HTTP requests.
type PantryHandler struct {
	service service.PantryService
	logger  zerolog.Logger
}

// NewPantryHandler creates a new pantry handler.
func NewPantryHandler(service service.PantryService, logger zerolog.Logger) *PantryHandler {
	return &PantryHandler{
		service: service,
		logger:  logger.With().Str("handler", "pantry").Logger(),
	}
}

// Get handles GET /api/pantry requests.
func (h *PantryHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	view, err := h.service.Get(r.Context(), user)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// AddItem handles POST /api/pantry/items requests.
func (h *PantryHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.AddPantryItemRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	item, err := h.service.AddItem(r.Context(), user, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// AddItems handles POST /api/pantry/move-from-shopping requests.
func (h *PantryHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.AddPantryItemsRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	resp, err := h.service.AddItems(r.Context(), user, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateItem handles PUT /api/pantry/items/{itemId} requests. An update that
// drops the quantity to zero removes the item and answers 204.
func (h *PantryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, err := uuidParam(r, "itemId")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.UpdatePantryItemRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	item, err := h.service.UpdateItem(r.Context(), user, itemID, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	if item == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// RemoveItem handles DELETE /api/pantry/items/{itemId} requests.
func (h *PantryHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, err := uuidParam(r, "itemId")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.service.RemoveItem(r.Context(), user, itemID); err != nil {
		writeError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Expiring handles GET /api/pantry/expiring requests. ?days= overrides the
// configured window.
func (h *PantryHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	days := 0
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		var err error
		days, err = strconv.Atoi(daysStr)
		if err != nil || days < 1 {
			writeError(w, model.Validation(model.ErrCodeInvalidInput, "days must be a positive integer"), h.logger)
			return
		}
	}

	items, err := h.service.ExpiringSoon(r.Context(), user, days)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
