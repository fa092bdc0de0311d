package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pantry-hub/internal/model"
	"pantry-hub/internal/productlookup"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestProductHandler_Search(t *testing.T) {
	logger := zerolog.Nop()

	testResult := &productlookup.SearchResult{
		Products: []productlookup.Product{{Barcode: "6408430000210", Name: "Kevytmaito"}},
		Count:    1,
		Page:     1,
		PageSize: 20,
	}

	tests := []struct {
		name           string
		queryParams    string
		mockReturn     *productlookup.SearchResult
		mockError      error
		expectedStatus int
		expectService  bool
		page           int
		pageSize       int
	}{
		{
			name:           "Success with default pagination",
			queryParams:    "?q=maito",
			mockReturn:     testResult,
			expectedStatus: http.StatusOK,
			expectService:  true,
			page:           1,
			pageSize:       0,
		},
		{
			name:           "Success with custom pagination",
			queryParams:    "?q=maito&page=3&pageSize=5",
			mockReturn:     testResult,
			expectedStatus: http.StatusOK,
			expectService:  true,
			page:           3,
			pageSize:       5,
		},
		{
			name:           "Missing query",
			queryParams:    "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid page parameter",
			queryParams:    "?q=maito&page=invalid",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid pageSize parameter",
			queryParams:    "?q=maito&pageSize=invalid",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Upstream failure",
			queryParams:    "?q=maito",
			mockError:      model.ErrUpstreamFailure,
			expectedStatus: http.StatusBadGateway,
			expectService:  true,
			page:           1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)

			if tt.expectService {
				mockService.On("Search", mock.Anything, "maito", tt.page, tt.pageSize).
					Return(tt.mockReturn, tt.mockError)
			}

			req := newRequest(t, http.MethodGet, "/api/products/search"+tt.queryParams, nil, nil)
			w := httptest.NewRecorder()

			handler.Search(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectService {
				mockService.AssertExpectations(t)
			} else {
				mockService.AssertNotCalled(t, "Search")
			}
		})
	}
}

func TestProductHandler_ByBarcode(t *testing.T) {
	logger := zerolog.Nop()

	testProduct := &productlookup.Product{
		Barcode:      "6408430000210",
		Name:         "Kevytmaito",
		MainCategory: "dairy",
	}

	tests := []struct {
		name           string
		barcode        string
		mockReturn     *productlookup.Product
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Success",
			barcode:        "6408430000210",
			mockReturn:     testProduct,
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Product not found",
			barcode:        "0000000000000",
			mockError:      model.ErrProductNotFound,
			expectedStatus: http.StatusNotFound,
			expectService:  true,
		},
		{
			name:           "Unexpected error",
			barcode:        "6408430000210",
			mockError:      errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectService:  true,
		},
		{
			name:           "Missing barcode",
			barcode:        "",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProductService)
			handler := NewProductHandler(mockService, logger)

			if tt.expectService {
				mockService.On("ByBarcode", mock.Anything, tt.barcode).
					Return(tt.mockReturn, tt.mockError)
			}

			req := newRequest(t, http.MethodGet, "/api/products/barcode/"+tt.barcode, nil, nil, "barcode", tt.barcode)
			w := httptest.NewRecorder()

			handler.ByBarcode(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectService {
				mockService.AssertExpectations(t)
			}
		})
	}
}

func TestProductHandler_ByCategory(t *testing.T) {
	logger := zerolog.Nop()
	result := &productlookup.SearchResult{Products: []productlookup.Product{{Name: "Rahka"}}, Count: 1, Page: 2, PageSize: 10}

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockProductService)
		handler := NewProductHandler(mockService, logger)
		mockService.On("ByCategory", mock.Anything, "dairy", 2, 10).Return(result, nil)

		w := httptest.NewRecorder()
		handler.ByCategory(w, newRequest(t, http.MethodGet, "/api/products/category/dairy?page=2&pageSize=10", nil, nil, "category", "dairy"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"Rahka"`)
		mockService.AssertExpectations(t)
	})

	t.Run("Invalid page parameter", func(t *testing.T) {
		mockService := new(MockProductService)
		handler := NewProductHandler(mockService, logger)

		w := httptest.NewRecorder()
		handler.ByCategory(w, newRequest(t, http.MethodGet, "/api/products/category/dairy?page=x", nil, nil, "category", "dairy"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "ByCategory")
	})
}

func TestProductHandler_Categories(t *testing.T) {
	mockService := new(MockProductService)
	handler := NewProductHandler(mockService, zerolog.Nop())
	mockService.On("Categories").Return([]productlookup.Category{{ID: "dairy", Name: "Dairy", Key: "dairy"}})

	w := httptest.NewRecorder()
	handler.Categories(w, newRequest(t, http.MethodGet, "/api/products/categories", nil, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":"dairy","name":"Dairy","key":"dairy"}]`, w.Body.String())
}

func TestProductHandler_Suggestions(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockProductService)
		handler := NewProductHandler(mockService, logger)
		mockService.On("Suggestions", mock.Anything, "mai", 5).
			Return([]productlookup.Suggestion{{ID: "Maito", Name: "Maito"}}, nil)

		w := httptest.NewRecorder()
		handler.Suggestions(w, newRequest(t, http.MethodGet, "/api/products/suggestions?q=mai&limit=5", nil, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[{"id":"Maito","name":"Maito"}]`, w.Body.String())
	})

	t.Run("Invalid limit parameter", func(t *testing.T) {
		mockService := new(MockProductService)
		handler := NewProductHandler(mockService, logger)

		w := httptest.NewRecorder()
		handler.Suggestions(w, newRequest(t, http.MethodGet, "/api/products/suggestions?q=mai&limit=lots", nil, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Suggestions")
	})
}
