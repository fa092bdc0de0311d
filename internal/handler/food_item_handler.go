package handler

import (
	"net/http"
	"os"

	"pantry-hub/internal/model"
	"pantry-hub/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// FoodItemHandler handles food item HTTP requests.
type FoodItemHandler struct {
	service service.FoodItemService
	logger  zerolog.Logger
}

// NewFoodItemHandler creates a new food item handler.
func NewFoodItemHandler(service service.FoodItemService, logger zerolog.Logger) *FoodItemHandler {
	return &FoodItemHandler{
		service: service,
		logger:  logger.With().Str("handler", "food_item").Logger(),
	}
}

// Create handles POST /api/food-items requests.
func (h *FoodItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.CreateFoodItemRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	item, err := h.service.Create(r.Context(), user, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// List handles GET /api/food-items requests, optionally filtered by ?location=.
func (h *FoodItemHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	items, err := h.service.List(r.Context(), user, r.URL.Query().Get("location"))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Get handles GET /api/food-items/{id} requests.
func (h *FoodItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	item, err := h.service.Get(r.Context(), user, id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Update handles PUT /api/food-items/{id} requests.
func (h *FoodItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.UpdateFoodItemRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	item, err := h.service.Update(r.Context(), user, id, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /api/food-items/{id} requests.
func (h *FoodItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// UpdateQuantity handles PATCH /api/food-items/{id}/quantity requests.
func (h *FoodItemHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.UpdateQuantityRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	item, err := h.service.UpdateQuantity(r.Context(), user, id, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Move handles PUT /api/food-items/{id}/move requests.
func (h *FoodItemHandler) Move(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.MoveFoodItemRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	item, err := h.service.Move(r.Context(), user, id, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// FindOrCreate handles POST /api/food-items/find-or-create requests. It
// answers 201 when an item was created and 200 when one was merged into.
func (h *FoodItemHandler) FindOrCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.FindOrCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	item, created, err := h.service.FindOrCreate(r.Context(), user, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, item)
}

// AddFromBarcode handles POST /api/products/barcode/{barcode}/add requests.
// The body is optional; it answers 201 when a new food item was created.
func (h *FoodItemHandler) AddFromBarcode(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	barcode := chi.URLParam(r, "barcode")
	var req model.AddFromBarcodeRequest
	if err := decodeOptionalJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	item, created, err := h.service.AddFromBarcode(r.Context(), user, barcode, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, item)
}

// UploadImage handles POST /api/food-items/{id}/image multipart requests.
func (h *FoodItemHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	path, err := saveUpload(w, r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	defer os.Remove(path)

	item, err := h.service.SetImage(r.Context(), user, id, path)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// RemoveImage handles DELETE /api/food-items/{id}/image requests.
func (h *FoodItemHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	item, err := h.service.RemoveImage(r.Context(), user, id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Enrich handles POST /api/food-items/{id}/enrich requests.
func (h *FoodItemHandler) Enrich(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.EnrichRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	item, err := h.service.Enrich(r.Context(), user, id, req.Barcode)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
