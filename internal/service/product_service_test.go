package service

import (
	"context"
	"errors"
	"testing"

	"pantry-hub/internal/metrics"
	"pantry-hub/internal/model"
	"pantry-hub/internal/productlookup"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductService_ByBarcode(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	milk := &productlookup.Product{Barcode: "6408430000036", Name: "Maito", MainCategory: "milks"}

	tests := []struct {
		name       string
		barcode    string
		setupMock  func(*MockProductClient)
		wantErr    error
		wantUp     bool
		wantResult *productlookup.Product
	}{
		{
			name:    "found",
			barcode: " 6408430000036 ",
			setupMock: func(m *MockProductClient) {
				m.On("ByBarcode", ctx, "6408430000036").Return(milk, nil)
			},
			wantResult: milk,
		},
		{
			name:    "spaces and hyphens stripped",
			barcode: "6408-4300 00036",
			setupMock: func(m *MockProductClient) {
				m.On("ByBarcode", ctx, "6408430000036").Return(milk, nil)
			},
			wantResult: milk,
		},
		{
			name:    "not found",
			barcode: "000",
			setupMock: func(m *MockProductClient) {
				m.On("ByBarcode", ctx, "000").Return(nil, nil)
			},
			wantErr: model.ErrProductNotFound,
		},
		{
			name:      "empty barcode",
			barcode:   "  ",
			setupMock: func(m *MockProductClient) {},
		},
		{
			name:    "upstream failure",
			barcode: "123",
			setupMock: func(m *MockProductClient) {
				m.On("ByBarcode", ctx, "123").Return(nil, errors.New("connection refused"))
			},
			wantErr: model.ErrUpstreamFailure,
			wantUp:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockProductClient)
			tt.setupMock(client)
			m := metrics.New(prometheus.NewRegistry())
			svc := NewProductService(client, m, logger)

			product, err := svc.ByBarcode(ctx, tt.barcode)

			switch {
			case tt.wantResult != nil:
				require.NoError(t, err)
				assert.Equal(t, tt.wantResult, product)
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, product)
			default:
				de, ok := model.AsDomainError(err)
				require.True(t, ok)
				assert.Equal(t, model.KindValidation, de.Kind)
				client.AssertNotCalled(t, "ByBarcode")
			}

			client.AssertExpectations(t)
		})
	}
}

func TestProductService_UpstreamFailureIsCounted(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	client := new(MockProductClient)
	client.On("ByBarcode", ctx, "123").Return(nil, errors.New("timeout"))

	svc := NewProductService(client, m, zerolog.Nop())
	_, err := svc.ByBarcode(ctx, "123")
	require.Error(t, err)

	count, err := testutil.GatherAndCount(reg, "pantryhub_upstream_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProductService_Search_ClampsPaging(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tests := []struct {
		name         string
		page         int
		pageSize     int
		wantPage     int
		wantPageSize int
	}{
		{name: "defaults", page: 0, pageSize: 0, wantPage: 1, wantPageSize: 20},
		{name: "negative page", page: -3, pageSize: 10, wantPage: 1, wantPageSize: 10},
		{name: "page size capped", page: 2, pageSize: 500, wantPage: 2, wantPageSize: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockProductClient)
			result := &productlookup.SearchResult{Count: 1, Page: tt.wantPage, PageSize: tt.wantPageSize}
			client.On("Search", ctx, "ruisleipä", tt.wantPage, tt.wantPageSize).Return(result, nil)

			svc := NewProductService(client, nil, logger)
			got, err := svc.Search(ctx, " ruisleipä ", tt.page, tt.pageSize)

			require.NoError(t, err)
			assert.Equal(t, result, got)
			client.AssertExpectations(t)
		})
	}
}

func TestProductService_Search_EmptyQuery(t *testing.T) {
	client := new(MockProductClient)
	svc := NewProductService(client, nil, zerolog.Nop())

	result, err := svc.Search(context.Background(), "", 1, 20)

	require.Error(t, err)
	assert.Nil(t, result)
	client.AssertNotCalled(t, "Search")
}

func TestProductService_ByCategory(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tests := []struct {
		name         string
		page         int
		pageSize     int
		wantPage     int
		wantPageSize int
	}{
		{name: "defaults", page: 0, pageSize: 0, wantPage: 1, wantPageSize: 20},
		{name: "page size capped", page: 3, pageSize: 80, wantPage: 3, wantPageSize: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockProductClient)
			result := &productlookup.SearchResult{Count: 2, Page: tt.wantPage, PageSize: tt.wantPageSize}
			client.On("ByCategory", ctx, "dairy", tt.wantPage, tt.wantPageSize).Return(result, nil)

			svc := NewProductService(client, nil, logger)
			got, err := svc.ByCategory(ctx, " Dairy ", tt.page, tt.pageSize)

			require.NoError(t, err)
			assert.Equal(t, result, got)
			client.AssertExpectations(t)
		})
	}

	t.Run("blank category", func(t *testing.T) {
		client := new(MockProductClient)
		svc := NewProductService(client, nil, logger)

		_, err := svc.ByCategory(ctx, " ", 1, 20)

		de, ok := model.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, model.KindValidation, de.Kind)
		client.AssertNotCalled(t, "ByCategory")
	})

	t.Run("upstream failure", func(t *testing.T) {
		client := new(MockProductClient)
		client.On("ByCategory", ctx, "dairy", 1, 20).Return(nil, errors.New("timeout"))
		svc := NewProductService(client, metrics.New(prometheus.NewRegistry()), logger)

		_, err := svc.ByCategory(ctx, "dairy", 1, 20)

		assert.ErrorIs(t, err, model.ErrUpstreamFailure)
	})
}

func TestProductService_Categories(t *testing.T) {
	svc := NewProductService(new(MockProductClient), nil, zerolog.Nop())

	cats := svc.Categories()

	require.NotEmpty(t, cats)
	assert.Equal(t, productlookup.PopularCategories(), cats)
}

func TestProductService_Suggestions(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	t.Run("short query skips lookup", func(t *testing.T) {
		client := new(MockProductClient)
		svc := NewProductService(client, nil, logger)

		got, err := svc.Suggestions(ctx, " m ", 5)

		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
		client.AssertNotCalled(t, "Suggestions")
	})

	t.Run("limit defaults and caps", func(t *testing.T) {
		client := new(MockProductClient)
		client.On("Suggestions", ctx, "mai", 10).Return([]productlookup.Suggestion{{ID: "Maito", Name: "Maito"}}, nil).Once()
		client.On("Suggestions", ctx, "mai", 20).Return([]productlookup.Suggestion{}, nil).Once()
		svc := NewProductService(client, nil, logger)

		got, err := svc.Suggestions(ctx, "mai", 0)
		require.NoError(t, err)
		assert.Len(t, got, 1)

		_, err = svc.Suggestions(ctx, "mai", 99)
		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("upstream failure yields nothing", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		client := new(MockProductClient)
		client.On("Suggestions", ctx, "mai", 10).Return(nil, errors.New("timeout"))
		svc := NewProductService(client, metrics.New(reg), logger)

		got, err := svc.Suggestions(ctx, "mai", 10)

		require.NoError(t, err)
		assert.Empty(t, got)
		count, err := testutil.GatherAndCount(reg, "pantryhub_upstream_failures_total")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}
