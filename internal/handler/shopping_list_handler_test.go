package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pantry-hub/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestShoppingListHandler_Create_LenientQuantities(t *testing.T) {
	user := testUser()
	svc := new(MockShoppingListService)
	h := NewShoppingListHandler(svc, zerolog.Nop())

	var got *model.CreateShoppingListRequest
	svc.On("Create", mock.Anything, user, mock.AnythingOfType("*model.CreateShoppingListRequest")).
		Run(func(args mock.Arguments) { got = args.Get(2).(*model.CreateShoppingListRequest) }).
		Return(&model.ShoppingList{ID: uuid.New(), Name: "Viikko"}, nil)

	body := `{"name":"Viikko","items":[{"name":"Maito","quantity":"2","estimatedPrice":"1.19"},{"name":"Leipä","quantity":"paljon"}]}`
	w := httptest.NewRecorder()
	h.Create(w, newRequest(t, http.MethodPost, "/api/shopping-lists", body, user))

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, got)
	require.Len(t, got.Items, 2)
	assert.Equal(t, 2.0, got.Items[0].Quantity.Positive())
	assert.True(t, decimal.RequireFromString("1.19").Equal(got.Items[0].EstimatedPrice))
	assert.Equal(t, 1.0, got.Items[1].Quantity.Positive())
}

func TestShoppingListHandler_Create_ItemNameRequired(t *testing.T) {
	user := testUser()
	svc := new(MockShoppingListService)
	h := NewShoppingListHandler(svc, zerolog.Nop())

	w := httptest.NewRecorder()
	h.Create(w, newRequest(t, http.MethodPost, "/", `{"name":"Viikko","items":[{"quantity":1}]}`, user))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Create")
}

func TestShoppingListHandler_AddItems(t *testing.T) {
	user := testUser()
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		svc := new(MockShoppingListService)
		h := NewShoppingListHandler(svc, zerolog.Nop())
		svc.On("AddItems", mock.Anything, user, id, mock.AnythingOfType("[]model.ShoppingListItemInput")).
			Return(&model.ShoppingList{ID: id}, nil)

		w := httptest.NewRecorder()
		h.AddItems(w, newRequest(t, http.MethodPost, "/", `{"items":[{"name":"Kahvi"}]}`, user, "id", id.String()))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Empty items", func(t *testing.T) {
		svc := new(MockShoppingListService)
		h := NewShoppingListHandler(svc, zerolog.Nop())

		w := httptest.NewRecorder()
		h.AddItems(w, newRequest(t, http.MethodPost, "/", `{"items":[]}`, user, "id", id.String()))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "AddItems")
	})
}

func TestShoppingListHandler_MarkBought(t *testing.T) {
	user := testUser()
	listID := uuid.New()
	itemID := uuid.New()

	tests := []struct {
		name           string
		mockReturn     *model.MarkBoughtResponse
		mockError      error
		expectedStatus int
		alreadyBought  bool
	}{
		{
			name:           "First call credits pantry",
			mockReturn:     &model.MarkBoughtResponse{ShoppingList: &model.ShoppingList{ID: listID}, PantryItem: &model.PantryItem{Name: "Maito"}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Repeat call",
			mockReturn:     &model.MarkBoughtResponse{ShoppingList: &model.ShoppingList{ID: listID}, AlreadyBought: true},
			expectedStatus: http.StatusOK,
			alreadyBought:  true,
		},
		{
			name:           "Unknown item",
			mockError:      model.ErrItemNotFound,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockShoppingListService)
			h := NewShoppingListHandler(svc, zerolog.Nop())
			svc.On("MarkBought", mock.Anything, user, listID, itemID).Return(tt.mockReturn, tt.mockError)

			w := httptest.NewRecorder()
			h.MarkBought(w, newRequest(t, http.MethodPut, "/", nil, user, "id", listID.String(), "itemId", itemID.String()))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.mockError == nil {
				var resp model.MarkBoughtResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.alreadyBought, resp.AlreadyBought)
			}
		})
	}
}

func TestShoppingListHandler_RemoveItem_BadItemID(t *testing.T) {
	user := testUser()
	svc := new(MockShoppingListService)
	h := NewShoppingListHandler(svc, zerolog.Nop())

	w := httptest.NewRecorder()
	h.RemoveItem(w, newRequest(t, http.MethodDelete, "/", nil, user, "id", uuid.NewString(), "itemId", "x"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "RemoveItem")
}

func TestShoppingListHandler_Delete_NotFound(t *testing.T) {
	user := testUser()
	id := uuid.New()
	svc := new(MockShoppingListService)
	h := NewShoppingListHandler(svc, zerolog.Nop())
	svc.On("Delete", mock.Anything, user, id).Return(model.ErrShoppingListNotFound)

	w := httptest.NewRecorder()
	h.Delete(w, newRequest(t, http.MethodDelete, "/", nil, user, "id", id.String()))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
