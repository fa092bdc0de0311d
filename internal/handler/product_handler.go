package handler

import (
	"net/http"
	"strconv"
	"strings"

	"pantry-hub/internal/model"
	"pantry-hub/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ProductHandler handles product lookup HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// ByBarcode handles GET /api/products/barcode/{barcode} requests.
func (h *ProductHandler) ByBarcode(w http.ResponseWriter, r *http.Request) {
	barcode := strings.TrimSpace(chi.URLParam(r, "barcode"))
	if barcode == "" {
		writeError(w, model.Validation(model.ErrCodeInvalidInput, "barcode is required"), h.logger)
		return
	}

	product, err := h.service.ByBarcode(r.Context(), barcode)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// Search handles GET /api/products/search requests with pagination.
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, model.Validation(model.ErrCodeMissingField, "q is required"), h.logger)
		return
	}

	page, pageSize, ok := h.paging(w, r)
	if !ok {
		return
	}

	result, err := h.service.Search(r.Context(), query, page, pageSize)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ByCategory handles GET /api/products/category/{category} requests with pagination.
func (h *ProductHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(chi.URLParam(r, "category"))
	if category == "" {
		writeError(w, model.Validation(model.ErrCodeMissingField, "category is required"), h.logger)
		return
	}
	page, pageSize, ok := h.paging(w, r)
	if !ok {
		return
	}

	result, err := h.service.ByCategory(r.Context(), category, page, pageSize)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Categories handles GET /api/products/categories requests.
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Categories())
}

// Suggestions handles GET /api/products/suggestions requests.
func (h *ProductHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.queryInt(w, r, "limit", 0)
	if !ok {
		return
	}

	suggestions, err := h.service.Suggestions(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

// paging reads page (default 1) and pageSize (0 leaves it to the service).
func (h *ProductHandler) paging(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	page, ok := h.queryInt(w, r, "page", 1)
	if !ok {
		return 0, 0, false
	}
	pageSize, ok := h.queryInt(w, r, "pageSize", 0)
	if !ok {
		return 0, 0, false
	}
	return page, pageSize, true
}

func (h *ProductHandler) queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, model.Validation(model.ErrCodeInvalidInput, "invalid "+name+" parameter"), h.logger)
		return 0, false
	}
	return v, true
}
