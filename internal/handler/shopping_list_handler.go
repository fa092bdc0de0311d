package handler

import (
	"net/http"

	"pantry-hub/internal/model"
	"pantry-hub/internal/service"

	"github.com/rs/zerolog"
)

// ShoppingListHandler handles shopping list HTTP requests.
type ShoppingListHandler struct {
	service service.ShoppingListService
	logger  zerolog.Logger
}

// NewShoppingListHandler creates a new shopping list handler.
func NewShoppingListHandler(service service.ShoppingListService, logger zerolog.Logger) *ShoppingListHandler {
	return &ShoppingListHandler{
		service: service,
		logger:  logger.With().Str("handler", "shopping_list").Logger(),
	}
}

// Create handles POST /api/shopping-lists requests.
func (h *ShoppingListHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.CreateShoppingListRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	list, err := h.service.Create(r.Context(), user, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

// List handles GET /api/shopping-lists requests.
func (h *ShoppingListHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	lists, err := h.service.List(r.Context(), user)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// Get handles GET /api/shopping-lists/{id} requests.
func (h *ShoppingListHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	list, err := h.service.Get(r.Context(), user, id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Update handles PUT /api/shopping-lists/{id} requests.
func (h *ShoppingListHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.UpdateShoppingListRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	list, err := h.service.Update(r.Context(), user, id, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Delete handles DELETE /api/shopping-lists/{id} requests.
func (h *ShoppingListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), user, id); err != nil {
		writeError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItems handles POST /api/shopping-lists/{id}/items requests.
func (h *ShoppingListHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.AddShoppingListItemsRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	list, err := h.service.AddItems(r.Context(), user, id, req.Items)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// RemoveItem handles DELETE /api/shopping-lists/{id}/items/{itemId} requests.
func (h *ShoppingListHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	itemID, err := uuidParam(r, "itemId")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	list, err := h.service.RemoveItem(r.Context(), user, id, itemID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// MarkBought handles PUT /api/shopping-lists/{id}/items/{itemId}/bought
// requests. Repeating the call is safe.
func (h *ShoppingListHandler) MarkBought(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	itemID, err := uuidParam(r, "itemId")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	resp, err := h.service.MarkBought(r.Context(), user, id, itemID)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
