package handler

import (
	"net/http"
	"os"

	"pantry-hub/internal/model"
	"pantry-hub/internal/service"

	"github.com/rs/zerolog"
)

// MealHandler handles meal HTTP requests.
type MealHandler struct {
	service service.MealService
	logger  zerolog.Logger
}

// NewMealHandler creates a new meal handler.
func NewMealHandler(service service.MealService, logger zerolog.Logger) *MealHandler {
	return &MealHandler{
		service: service,
		logger:  logger.With().Str("handler", "meal").Logger(),
	}
}

// Create handles POST /api/meals requests.
func (h *MealHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.MealRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	meal, err := h.service.Create(r.Context(), user, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, meal)
}

// List handles GET /api/meals requests.
func (h *MealHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	meals, err := h.service.List(r.Context(), user)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, meals)
}

// Get handles GET /api/meals/{id} requests.
func (h *MealHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	meal, err := h.service.Get(r.Context(), user, id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

// Update handles PUT /api/meals/{id} requests.
func (h *MealHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.MealRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeRequestError(w, err, h.logger)
		return
	}

	meal, err := h.service.Update(r.Context(), user, id, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

// Delete handles DELETE /api/meals/{id} requests.
func (h *MealHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// UploadImage handles POST /api/meals/{id}/image multipart requests.
func (h *MealHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
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

	meal, err := h.service.SetImage(r.Context(), user, id, path)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

// RemoveImage handles DELETE /api/meals/{id}/image requests.
func (h *MealHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	meal, err := h.service.RemoveImage(r.Context(), user, id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}
