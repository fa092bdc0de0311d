package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"pantry-hub/internal/middleware"
	"pantry-hub/internal/model"
	"pantry-hub/internal/productlookup"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockFoodItemService is a mock implementation of FoodItemService.
type MockFoodItemService struct {
	mock.Mock
}

func (m *MockFoodItemService) Create(ctx context.Context, user *model.User, req *model.CreateFoodItemRequest) (*model.FoodItem, error) {
	args := m.Called(ctx, user, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FoodItem), args.Error(1)
}

func (m *MockFoodItemService) List(ctx context.Context, user *model.User, location string) ([]model.FoodItem, error) {
	args := m.Called(ctx, user, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FoodItem), args.Error(1)
}

func (m *MockFoodItemService) Get(ctx context.Context, user *model.User, id uuid.UUID) (*model.FoodItem, error) {
	args := m.Called(ctx, user, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FoodItem), args.Error(1)
}

func (m *MockFoodItemService) Update(ctx context.Context, user *model.User, id uuid.UUID, req *model.UpdateFoodItemRequest) (*model.FoodItem, error) {
	args := m.Called(ctx, user, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FoodItem), args.Error(1)
}

func (m *MockFoodItemService) Delete(ctx context.Context, user *model.User, id uuid.UUID) error {
	return m.Called(ctx, user, id).Error(0)
}

func (m *MockFoodItemService) UpdateQuantity(ctx context.Context, user *model.User, id uuid.UUID, req *model.UpdateQuantityRequest) (*model.FoodItem, error) {
	args := m.Called(ctx, user, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FoodItem), args.Error(1)
}

func (m *MockFoodItemService) Move(ctx context.Context, user *model.User, id uuid.UUID, req *model.MoveFoodItemRequest) (*model.FoodItem, error) {
	args := m.Called(ctx, user, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FoodItem), args.Error(1)
}

func (m *MockFoodItemService) FindOrCreate(ctx context.Context, user *model.User, req *model.FindOrCreateRequest) (*model.FoodItem, bool, error) {
	args := m.Called(ctx, user, req)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.FoodItem), args.Bool(1), args.Error(2)
}

func (m *MockFoodItemService) AddFromBarcode(ctx context.Context, user *model.User, barcode string, req *model.AddFromBarcodeRequest) (*model.FoodItem, bool, error) {
	args := m.Called(ctx, user, barcode, req)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.FoodItem), args.Bool(1), args.Error(2)
}

func (m *MockFoodItemService) SetImage(ctx context.Context, user *model.User, id uuid.UUID, localPath string) (*model.FoodItem, error) {
	args := m.Called(ctx, user, id, localPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FoodItem), args.Error(1)
}

func (m *MockFoodItemService) RemoveImage(ctx context.Context, user *model.User, id uuid.UUID) (*model.FoodItem, error) {
	args := m.Called(ctx, user, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FoodItem), args.Error(1)
}

func (m *MockFoodItemService) Enrich(ctx context.Context, user *model.User, id uuid.UUID, barcode string) (*model.FoodItem, error) {
	args := m.Called(ctx, user, id, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FoodItem), args.Error(1)
}

// MockHouseholdService is a mock implementation of HouseholdService.
type MockHouseholdService struct {
	mock.Mock
}

func (m *MockHouseholdService) Create(ctx context.Context, actor *model.User, name *string) (*model.Household, error) {
	args := m.Called(ctx, actor, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Household), args.Error(1)
}

func (m *MockHouseholdService) Get(ctx context.Context, actor *model.User) (*model.Household, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Household), args.Error(1)
}

func (m *MockHouseholdService) Update(ctx context.Context, actor *model.User, req *model.UpdateHouseholdRequest) (*model.Household, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Household), args.Error(1)
}

func (m *MockHouseholdService) Invite(ctx context.Context, actor *model.User, email string) (*model.InviteResponse, error) {
	args := m.Called(ctx, actor, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InviteResponse), args.Error(1)
}

func (m *MockHouseholdService) GetInvitation(ctx context.Context, token uuid.UUID) (*model.InvitationDetails, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InvitationDetails), args.Error(1)
}

func (m *MockHouseholdService) Accept(ctx context.Context, actor *model.User, token uuid.UUID) (*model.Household, error) {
	args := m.Called(ctx, actor, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Household), args.Error(1)
}

func (m *MockHouseholdService) Decline(ctx context.Context, actor *model.User, token uuid.UUID) error {
	return m.Called(ctx, actor, token).Error(0)
}

func (m *MockHouseholdService) Leave(ctx context.Context, actor *model.User) error {
	return m.Called(ctx, actor).Error(0)
}

func (m *MockHouseholdService) RemoveMember(ctx context.Context, actor *model.User, memberID uuid.UUID) (*model.Household, error) {
	args := m.Called(ctx, actor, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Household), args.Error(1)
}

func (m *MockHouseholdService) UpdateMemberRole(ctx context.Context, actor *model.User, memberID uuid.UUID, role model.HouseholdRole) (*model.Household, error) {
	args := m.Called(ctx, actor, memberID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Household), args.Error(1)
}

func (m *MockHouseholdService) Delete(ctx context.Context, actor *model.User) error {
	return m.Called(ctx, actor).Error(0)
}

// MockMealService is a mock implementation of MealService.
type MockMealService struct {
	mock.Mock
}

func (m *MockMealService) Create(ctx context.Context, user *model.User, req *model.MealRequest) (*model.Meal, error) {
	args := m.Called(ctx, user, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Meal), args.Error(1)
}

func (m *MockMealService) List(ctx context.Context, user *model.User) ([]model.Meal, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Meal), args.Error(1)
}

func (m *MockMealService) Get(ctx context.Context, user *model.User, id uuid.UUID) (*model.Meal, error) {
	args := m.Called(ctx, user, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Meal), args.Error(1)
}

func (m *MockMealService) Update(ctx context.Context, user *model.User, id uuid.UUID, req *model.MealRequest) (*model.Meal, error) {
	args := m.Called(ctx, user, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Meal), args.Error(1)
}

func (m *MockMealService) Delete(ctx context.Context, user *model.User, id uuid.UUID) error {
	return m.Called(ctx, user, id).Error(0)
}

func (m *MockMealService) SetImage(ctx context.Context, user *model.User, id uuid.UUID, localPath string) (*model.Meal, error) {
	args := m.Called(ctx, user, id, localPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Meal), args.Error(1)
}

func (m *MockMealService) RemoveImage(ctx context.Context, user *model.User, id uuid.UUID) (*model.Meal, error) {
	args := m.Called(ctx, user, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Meal), args.Error(1)
}

// MockShoppingListService is a mock implementation of ShoppingListService.
type MockShoppingListService struct {
	mock.Mock
}

func (m *MockShoppingListService) Create(ctx context.Context, user *model.User, req *model.CreateShoppingListRequest) (*model.ShoppingList, error) {
	args := m.Called(ctx, user, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShoppingList), args.Error(1)
}

func (m *MockShoppingListService) List(ctx context.Context, user *model.User) ([]model.ShoppingList, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ShoppingList), args.Error(1)
}

func (m *MockShoppingListService) Get(ctx context.Context, user *model.User, id uuid.UUID) (*model.ShoppingList, error) {
	args := m.Called(ctx, user, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShoppingList), args.Error(1)
}

func (m *MockShoppingListService) Update(ctx context.Context, user *model.User, id uuid.UUID, req *model.UpdateShoppingListRequest) (*model.ShoppingList, error) {
	args := m.Called(ctx, user, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShoppingList), args.Error(1)
}

func (m *MockShoppingListService) Delete(ctx context.Context, user *model.User, id uuid.UUID) error {
	return m.Called(ctx, user, id).Error(0)
}

func (m *MockShoppingListService) AddItems(ctx context.Context, user *model.User, id uuid.UUID, items []model.ShoppingListItemInput) (*model.ShoppingList, error) {
	args := m.Called(ctx, user, id, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShoppingList), args.Error(1)
}

func (m *MockShoppingListService) RemoveItem(ctx context.Context, user *model.User, id, itemID uuid.UUID) (*model.ShoppingList, error) {
	args := m.Called(ctx, user, id, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShoppingList), args.Error(1)
}

func (m *MockShoppingListService) MarkBought(ctx context.Context, user *model.User, id, itemID uuid.UUID) (*model.MarkBoughtResponse, error) {
	args := m.Called(ctx, user, id, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MarkBoughtResponse), args.Error(1)
}

// MockPantryService is a mock implementation of PantryService.
type MockPantryService struct {
	mock.Mock
}

func (m *MockPantryService) Get(ctx context.Context, user *model.User) (*model.PantryView, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PantryView), args.Error(1)
}

func (m *MockPantryService) AddItem(ctx context.Context, user *model.User, req *model.AddPantryItemRequest) (*model.PantryItem, error) {
	args := m.Called(ctx, user, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PantryItem), args.Error(1)
}

func (m *MockPantryService) AddItems(ctx context.Context, user *model.User, req *model.AddPantryItemsRequest) (*model.AddPantryItemsResponse, error) {
	args := m.Called(ctx, user, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AddPantryItemsResponse), args.Error(1)
}

func (m *MockPantryService) UpdateItem(ctx context.Context, user *model.User, itemID uuid.UUID, req *model.UpdatePantryItemRequest) (*model.PantryItem, error) {
	args := m.Called(ctx, user, itemID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PantryItem), args.Error(1)
}

func (m *MockPantryService) RemoveItem(ctx context.Context, user *model.User, itemID uuid.UUID) error {
	return m.Called(ctx, user, itemID).Error(0)
}

func (m *MockPantryService) ExpiringSoon(ctx context.Context, user *model.User, days int) ([]model.PantryItem, error) {
	args := m.Called(ctx, user, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PantryItem), args.Error(1)
}

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) ByBarcode(ctx context.Context, barcode string) (*productlookup.Product, error) {
	args := m.Called(ctx, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*productlookup.Product), args.Error(1)
}

func (m *MockProductService) Search(ctx context.Context, query string, page, pageSize int) (*productlookup.SearchResult, error) {
	args := m.Called(ctx, query, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*productlookup.SearchResult), args.Error(1)
}

func (m *MockProductService) ByCategory(ctx context.Context, category string, page, pageSize int) (*productlookup.SearchResult, error) {
	args := m.Called(ctx, category, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*productlookup.SearchResult), args.Error(1)
}

func (m *MockProductService) Categories() []productlookup.Category {
	args := m.Called()
	return args.Get(0).([]productlookup.Category)
}

func (m *MockProductService) Suggestions(ctx context.Context, query string, limit int) ([]productlookup.Suggestion, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]productlookup.Suggestion), args.Error(1)
}

// MockUserService is a mock implementation of UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, req *model.RegisterUserRequest) (*model.RegisterUserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RegisterUserResponse), args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func testUser() *model.User {
	householdID := uuid.New()
	return &model.User{ID: uuid.New(), Email: "aino@example.com", Username: "aino", HouseholdID: &householdID}
}

// newRequest builds a request carrying user and chi URL params given as
// name/value pairs. A nil body sends nothing; a string is sent verbatim and
// anything else is JSON encoded.
func newRequest(t *testing.T, method, target string, body any, user *model.User, params ...string) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	ctx := req.Context()
	if user != nil {
		ctx = middleware.WithUser(ctx, user)
	}
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
