package service

import (
	"context"
	"time"

	"pantry-hub/internal/email"
	"pantry-hub/internal/model"
	"pantry-hub/internal/ownership"
	"pantry-hub/internal/productlookup"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

// mockTransactor is embedded by the repository mocks.
type mockTransactor struct {
	mock.Mock
}

func (m *mockTransactor) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mockTransactor
}

func (m *MockUserRepository) Create(ctx context.Context, tx pgx.Tx, user *model.User) error {
	return m.Called(ctx, tx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, tx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) SetHousehold(ctx context.Context, tx pgx.Tx, userID uuid.UUID, householdID *uuid.UUID) error {
	return m.Called(ctx, tx, userID, householdID).Error(0)
}

func (m *MockUserRepository) ClearHouseholdForAll(ctx context.Context, tx pgx.Tx, householdID uuid.UUID) error {
	return m.Called(ctx, tx, householdID).Error(0)
}

// MockHouseholdRepository is a mock implementation of HouseholdRepository.
type MockHouseholdRepository struct {
	mockTransactor
}

func (m *MockHouseholdRepository) Create(ctx context.Context, tx pgx.Tx, household *model.Household) error {
	return m.Called(ctx, tx, household).Error(0)
}

func (m *MockHouseholdRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Household, error) {
	args := m.Called(ctx, id)
	h, _ := args.Get(0).(*model.Household)
	return h, args.Error(1)
}

func (m *MockHouseholdRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Household, error) {
	args := m.Called(ctx, tx, id)
	h, _ := args.Get(0).(*model.Household)
	return h, args.Error(1)
}

func (m *MockHouseholdRepository) Update(ctx context.Context, tx pgx.Tx, household *model.Household) error {
	return m.Called(ctx, tx, household).Error(0)
}

func (m *MockHouseholdRepository) AddMember(ctx context.Context, tx pgx.Tx, householdID, userID uuid.UUID, role model.HouseholdRole) error {
	return m.Called(ctx, tx, householdID, userID, role).Error(0)
}

func (m *MockHouseholdRepository) RemoveMember(ctx context.Context, tx pgx.Tx, householdID, userID uuid.UUID) error {
	return m.Called(ctx, tx, householdID, userID).Error(0)
}

func (m *MockHouseholdRepository) UpdateMemberRole(ctx context.Context, tx pgx.Tx, householdID, userID uuid.UUID, role model.HouseholdRole) error {
	return m.Called(ctx, tx, householdID, userID, role).Error(0)
}

func (m *MockHouseholdRepository) CountMembers(ctx context.Context, tx pgx.Tx, householdID uuid.UUID) (int, error) {
	args := m.Called(ctx, tx, householdID)
	return args.Int(0), args.Error(1)
}

func (m *MockHouseholdRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	return m.Called(ctx, tx, id).Error(0)
}

// MockInvitationRepository is a mock implementation of InvitationRepository.
type MockInvitationRepository struct {
	mock.Mock
}

func (m *MockInvitationRepository) Create(ctx context.Context, tx pgx.Tx, invitation *model.Invitation) error {
	return m.Called(ctx, tx, invitation).Error(0)
}

func (m *MockInvitationRepository) ExpireStale(ctx context.Context, tx pgx.Tx, email string, householdID uuid.UUID, now time.Time) error {
	return m.Called(ctx, tx, email, householdID, now).Error(0)
}

func (m *MockInvitationRepository) GetByToken(ctx context.Context, token uuid.UUID) (*model.Invitation, error) {
	args := m.Called(ctx, token)
	inv, _ := args.Get(0).(*model.Invitation)
	return inv, args.Error(1)
}

func (m *MockInvitationRepository) GetByTokenForUpdate(ctx context.Context, tx pgx.Tx, token uuid.UUID) (*model.Invitation, error) {
	args := m.Called(ctx, tx, token)
	inv, _ := args.Get(0).(*model.Invitation)
	return inv, args.Error(1)
}

func (m *MockInvitationRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, invitation *model.Invitation) error {
	return m.Called(ctx, tx, invitation).Error(0)
}

func (m *MockInvitationRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockInvitationRepository) HasUsableForEmail(ctx context.Context, tx pgx.Tx, email string, now time.Time) (bool, error) {
	args := m.Called(ctx, tx, email, now)
	return args.Bool(0), args.Error(1)
}

// MockFoodItemRepository is a mock implementation of FoodItemRepository.
type MockFoodItemRepository struct {
	mockTransactor
}

func (m *MockFoodItemRepository) Create(ctx context.Context, tx pgx.Tx, item *model.FoodItem) error {
	return m.Called(ctx, tx, item).Error(0)
}

func (m *MockFoodItemRepository) GetByID(ctx context.Context, id uuid.UUID, filter ownership.Filter) (*model.FoodItem, error) {
	args := m.Called(ctx, id, filter)
	item, _ := args.Get(0).(*model.FoodItem)
	return item, args.Error(1)
}

func (m *MockFoodItemRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID, filter ownership.Filter) (*model.FoodItem, error) {
	args := m.Called(ctx, tx, id, filter)
	item, _ := args.Get(0).(*model.FoodItem)
	return item, args.Error(1)
}

func (m *MockFoodItemRepository) List(ctx context.Context, filter ownership.Filter, location *model.Location) ([]model.FoodItem, error) {
	args := m.Called(ctx, filter, location)
	items, _ := args.Get(0).([]model.FoodItem)
	return items, args.Error(1)
}

func (m *MockFoodItemRepository) ListForMatching(ctx context.Context, tx pgx.Tx, filter ownership.Filter) ([]model.FoodItem, error) {
	args := m.Called(ctx, tx, filter)
	items, _ := args.Get(0).([]model.FoodItem)
	return items, args.Error(1)
}

func (m *MockFoodItemRepository) LockName(ctx context.Context, tx pgx.Tx, filter ownership.Filter, normalizedName string) error {
	return m.Called(ctx, tx, filter, normalizedName).Error(0)
}

func (m *MockFoodItemRepository) Update(ctx context.Context, tx pgx.Tx, item *model.FoodItem) error {
	return m.Called(ctx, tx, item).Error(0)
}

func (m *MockFoodItemRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	return m.Called(ctx, tx, id).Error(0)
}

func (m *MockFoodItemRepository) CountVisible(ctx context.Context, ids []uuid.UUID, filter ownership.Filter) (int, error) {
	args := m.Called(ctx, ids, filter)
	return args.Int(0), args.Error(1)
}

// MockMealRepository is a mock implementation of MealRepository.
type MockMealRepository struct {
	mockTransactor
}

func (m *MockMealRepository) Create(ctx context.Context, tx pgx.Tx, meal *model.Meal) error {
	return m.Called(ctx, tx, meal).Error(0)
}

func (m *MockMealRepository) GetByID(ctx context.Context, id uuid.UUID, filter ownership.Filter) (*model.Meal, error) {
	args := m.Called(ctx, id, filter)
	meal, _ := args.Get(0).(*model.Meal)
	return meal, args.Error(1)
}

func (m *MockMealRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID, filter ownership.Filter) (*model.Meal, error) {
	args := m.Called(ctx, tx, id, filter)
	meal, _ := args.Get(0).(*model.Meal)
	return meal, args.Error(1)
}

func (m *MockMealRepository) List(ctx context.Context, filter ownership.Filter) ([]model.Meal, error) {
	args := m.Called(ctx, filter)
	meals, _ := args.Get(0).([]model.Meal)
	return meals, args.Error(1)
}

func (m *MockMealRepository) Update(ctx context.Context, tx pgx.Tx, meal *model.Meal) error {
	return m.Called(ctx, tx, meal).Error(0)
}

func (m *MockMealRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	return m.Called(ctx, tx, id).Error(0)
}

// MockShoppingListRepository is a mock implementation of ShoppingListRepository.
type MockShoppingListRepository struct {
	mockTransactor
}

func (m *MockShoppingListRepository) Create(ctx context.Context, tx pgx.Tx, list *model.ShoppingList) error {
	return m.Called(ctx, tx, list).Error(0)
}

func (m *MockShoppingListRepository) GetByID(ctx context.Context, id uuid.UUID, filter ownership.Filter) (*model.ShoppingList, error) {
	args := m.Called(ctx, id, filter)
	list, _ := args.Get(0).(*model.ShoppingList)
	return list, args.Error(1)
}

func (m *MockShoppingListRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID, filter ownership.Filter) (*model.ShoppingList, error) {
	args := m.Called(ctx, tx, id, filter)
	list, _ := args.Get(0).(*model.ShoppingList)
	return list, args.Error(1)
}

func (m *MockShoppingListRepository) List(ctx context.Context, filter ownership.Filter) ([]model.ShoppingList, error) {
	args := m.Called(ctx, filter)
	lists, _ := args.Get(0).([]model.ShoppingList)
	return lists, args.Error(1)
}

func (m *MockShoppingListRepository) Update(ctx context.Context, tx pgx.Tx, list *model.ShoppingList) error {
	return m.Called(ctx, tx, list).Error(0)
}

func (m *MockShoppingListRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	return m.Called(ctx, tx, id).Error(0)
}

func (m *MockShoppingListRepository) InsertItems(ctx context.Context, tx pgx.Tx, listID uuid.UUID, items []model.ShoppingListItem) error {
	return m.Called(ctx, tx, listID, items).Error(0)
}

func (m *MockShoppingListRepository) DeleteItem(ctx context.Context, tx pgx.Tx, listID, itemID uuid.UUID) error {
	return m.Called(ctx, tx, listID, itemID).Error(0)
}

func (m *MockShoppingListRepository) GetItemForUpdate(ctx context.Context, tx pgx.Tx, listID, itemID uuid.UUID) (*model.ShoppingListItem, error) {
	args := m.Called(ctx, tx, listID, itemID)
	item, _ := args.Get(0).(*model.ShoppingListItem)
	return item, args.Error(1)
}

func (m *MockShoppingListRepository) MarkItemBought(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, at time.Time) error {
	return m.Called(ctx, tx, itemID, at).Error(0)
}

// MockPantryRepository is a mock implementation of PantryRepository.
type MockPantryRepository struct {
	mockTransactor
}

func (m *MockPantryRepository) GetOrCreate(ctx context.Context, tx pgx.Tx, owner ownership.Owner) (*model.Pantry, error) {
	args := m.Called(ctx, tx, owner)
	p, _ := args.Get(0).(*model.Pantry)
	return p, args.Error(1)
}

func (m *MockPantryRepository) ListVisibleItems(ctx context.Context, tx pgx.Tx, filter ownership.Filter) ([]model.PantryItem, error) {
	args := m.Called(ctx, tx, filter)
	items, _ := args.Get(0).([]model.PantryItem)
	return items, args.Error(1)
}

func (m *MockPantryRepository) ListExpiring(ctx context.Context, filter ownership.Filter, from, until time.Time) ([]model.PantryItem, error) {
	args := m.Called(ctx, filter, from, until)
	items, _ := args.Get(0).([]model.PantryItem)
	return items, args.Error(1)
}

func (m *MockPantryRepository) FindMergeTarget(ctx context.Context, tx pgx.Tx, pantryID uuid.UUID, foodItemID *uuid.UUID, normalizedName string) (*model.PantryItem, error) {
	args := m.Called(ctx, tx, pantryID, foodItemID, normalizedName)
	item, _ := args.Get(0).(*model.PantryItem)
	return item, args.Error(1)
}

func (m *MockPantryRepository) GetItemForUpdate(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, filter ownership.Filter) (*model.PantryItem, error) {
	args := m.Called(ctx, tx, itemID, filter)
	item, _ := args.Get(0).(*model.PantryItem)
	return item, args.Error(1)
}

func (m *MockPantryRepository) InsertItem(ctx context.Context, tx pgx.Tx, item *model.PantryItem) error {
	return m.Called(ctx, tx, item).Error(0)
}

func (m *MockPantryRepository) UpdateItem(ctx context.Context, tx pgx.Tx, item *model.PantryItem) error {
	return m.Called(ctx, tx, item).Error(0)
}

func (m *MockPantryRepository) DeleteItem(ctx context.Context, tx pgx.Tx, pantryID, itemID uuid.UUID) error {
	return m.Called(ctx, tx, pantryID, itemID).Error(0)
}

func (m *MockPantryRepository) ReleaseHousehold(ctx context.Context, tx pgx.Tx, householdID, userID uuid.UUID) error {
	return m.Called(ctx, tx, householdID, userID).Error(0)
}

// MockStore is a mock implementation of imagestore.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Upload(ctx context.Context, localPath string) (*model.Image, error) {
	args := m.Called(ctx, localPath)
	img, _ := args.Get(0).(*model.Image)
	return img, args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockSender is a mock implementation of email.Sender.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendInvitation(ctx context.Context, msg email.Invitation) error {
	return m.Called(ctx, msg).Error(0)
}

// MockProductClient is a mock implementation of productlookup.Client.
type MockProductClient struct {
	mock.Mock
}

func (m *MockProductClient) ByBarcode(ctx context.Context, barcode string) (*productlookup.Product, error) {
	args := m.Called(ctx, barcode)
	p, _ := args.Get(0).(*productlookup.Product)
	return p, args.Error(1)
}

func (m *MockProductClient) Search(ctx context.Context, query string, page, pageSize int) (*productlookup.SearchResult, error) {
	args := m.Called(ctx, query, page, pageSize)
	r, _ := args.Get(0).(*productlookup.SearchResult)
	return r, args.Error(1)
}

func (m *MockProductClient) ByCategory(ctx context.Context, category string, page, pageSize int) (*productlookup.SearchResult, error) {
	args := m.Called(ctx, category, page, pageSize)
	r, _ := args.Get(0).(*productlookup.SearchResult)
	return r, args.Error(1)
}

func (m *MockProductClient) Suggestions(ctx context.Context, query string, limit int) ([]productlookup.Suggestion, error) {
	args := m.Called(ctx, query, limit)
	out, _ := args.Get(0).([]productlookup.Suggestion)
	return out, args.Error(1)
}

// soloUser returns a user without a household.
func soloUser() *model.User {
	return &model.User{ID: uuid.New(), Email: "solo@example.com", Username: "solo"}
}

// householdUser returns a user belonging to a fresh household.
func householdUser() *model.User {
	hid := uuid.New()
	return &model.User{ID: uuid.New(), Email: "member@example.com", Username: "member", HouseholdID: &hid}
}
