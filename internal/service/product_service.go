package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"pantry-hub/internal/metrics"
	"pantry-hub/internal/model"
	"pantry-hub/internal/productlookup"

	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	client  productlookup.Client
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(client productlookup.Client, m *metrics.Metrics, logger zerolog.Logger) ProductService {
	return &productService{
		client:  client,
		metrics: m,
		logger:  logger.With().Str("service", "product").Logger(),
	}
}

// ByBarcode retrieves a single product by barcode.
func (s *productService) ByBarcode(ctx context.Context, barcode string) (*productlookup.Product, error) {
	barcode = productlookup.CleanBarcode(barcode)
	if barcode == "" {
		s.logger.Warn().Msg("barcode is empty")
		return nil, model.Validation(model.ErrCodeInvalidInput, "Barcode is required")
	}

	product, err := s.client.ByBarcode(ctx, barcode)
	if err != nil {
		return nil, s.lookupFailed(err, "barcode", barcode)
	}

	if product == nil {
		s.logger.Debug().Str("barcode", barcode).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// Search runs a text search with clamped paging.
func (s *productService) Search(ctx context.Context, query string, page, pageSize int) (*productlookup.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.Validation(model.ErrCodeInvalidInput, "Search query is required")
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	result, err := s.client.Search(ctx, query, page, pageSize)
	if err != nil {
		return nil, s.lookupFailed(err, "query", query)
	}

	s.logger.Debug().
		Str("query", query).
		Int("count", result.Count).
		Int("page", page).
		Msg("product search completed")

	return result, nil
}

// ByCategory lists one page of a category. Pages hold at most 50 products.
func (s *productService) ByCategory(ctx context.Context, category string, page, pageSize int) (*productlookup.SearchResult, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return nil, model.Validation(model.ErrCodeInvalidInput, "Category is required")
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}

	result, err := s.client.ByCategory(ctx, category, page, pageSize)
	if err != nil {
		return nil, s.lookupFailed(err, "category", category)
	}

	s.logger.Debug().
		Str("category", category).
		Int("count", result.Count).
		Int("page", page).
		Msg("category listing completed")

	return result, nil
}

// Categories returns the browsable categories.
func (s *productService) Categories() []productlookup.Category {
	return productlookup.PopularCategories()
}

// Suggestions completes a partial product name. Autocomplete is best effort:
// queries under two characters and upstream failures both yield no suggestions.
func (s *productService) Suggestions(ctx context.Context, query string, limit int) ([]productlookup.Suggestion, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < 2 {
		return []productlookup.Suggestion{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 20 {
		limit = 20
	}

	out, err := s.client.Suggestions(ctx, query, limit)
	if err != nil {
		s.metrics.UpstreamFailure("productlookup")
		s.logger.Warn().Err(err).Str("query", query).Msg("product suggestions unavailable")
		return []productlookup.Suggestion{}, nil
	}
	if out == nil {
		out = []productlookup.Suggestion{}
	}
	return out, nil
}

func (s *productService) lookupFailed(err error, field, value string) error {
	de, ok := model.AsDomainError(err)
	if ok && de.Kind != model.KindUpstream {
		return err
	}

	s.metrics.UpstreamFailure("productlookup")
	s.logger.Error().Err(err).Str(field, value).Msg("product lookup failed")
	if ok {
		return err
	}
	return fmt.Errorf("%w: %v", model.ErrUpstreamFailure, err)
}
