package repository

import (
	"context"
	"fmt"
	"time"

	"pantry-hub/internal/database"
	"pantry-hub/internal/model"
	"pantry-hub/internal/ownership"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// shoppingListRepository implements the ShoppingListRepository interface using PostgreSQL.
type shoppingListRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewShoppingListRepository creates a new PostgreSQL-backed shopping list repository.
func NewShoppingListRepository(pool *pgxpool.Pool, logger zerolog.Logger) ShoppingListRepository {
	return &shoppingListRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "shopping_list").Logger(),
	}
}

const shoppingListColumns = `
	l.id, l.name, l.description, l.total_estimated_price, l.user_id, l.household_id,
	l.created_at, l.updated_at`

const shoppingListItemColumns = `
	id, list_id, name, quantity, unit, category, calories, estimated_price,
	bought, bought_at, food_item_id, position`

func scanShoppingList(row rowScanner) (*model.ShoppingList, error) {
	var list model.ShoppingList
	err := row.Scan(
		&list.ID,
		&list.Name,
		&list.Description,
		&list.TotalEstimatedPrice,
		&list.UserID,
		&list.HouseholdID,
		&list.CreatedAt,
		&list.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	list.Items = []model.ShoppingListItem{}
	return &list, nil
}

func scanShoppingListItem(row rowScanner) (*model.ShoppingListItem, error) {
	var item model.ShoppingListItem
	err := row.Scan(
		&item.ID,
		&item.ListID,
		&item.Name,
		&item.Quantity,
		&item.Unit,
		&item.Category,
		&item.Calories,
		&item.EstimatedPrice,
		&item.Bought,
		&item.BoughtAt,
		&item.FoodItemID,
		&item.Position,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// BeginTx starts a new database transaction.
func (r *shoppingListRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.pool, r.logger)
}

// Create inserts a list and its items.
func (r *shoppingListRepository) Create(ctx context.Context, tx pgx.Tx, list *model.ShoppingList) error {
	query := `
		INSERT INTO shopping_lists (id, name, description, total_estimated_price, user_id, household_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.Exec(ctx, query,
		list.ID,
		list.Name,
		list.Description,
		list.TotalEstimatedPrice,
		list.UserID,
		list.HouseholdID,
		list.CreatedAt,
		list.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("list_id", list.ID.String()).Msg("failed to create shopping list")
		return fmt.Errorf("failed to create shopping list: %w", err)
	}

	if err := r.InsertItems(ctx, tx, list.ID, list.Items); err != nil {
		return err
	}

	r.logger.Debug().
		Str("list_id", list.ID.String()).
		Int("items", len(list.Items)).
		Msg("shopping list created successfully")
	return nil
}

// GetByID retrieves a visible list with items.
func (r *shoppingListRepository) GetByID(ctx context.Context, id uuid.UUID, filter ownership.Filter) (*model.ShoppingList, error) {
	return r.get(ctx, r.pool, id, filter, false)
}

// GetForUpdate retrieves and locks a visible list with items.
func (r *shoppingListRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID, filter ownership.Filter) (*model.ShoppingList, error) {
	return r.get(ctx, tx, id, filter, true)
}

func (r *shoppingListRepository) get(ctx context.Context, q queryer, id uuid.UUID, filter ownership.Filter, lock bool) (*model.ShoppingList, error) {
	pred, args := filter.Predicate("l.user_id", "l.household_id", 1)
	query := `SELECT ` + shoppingListColumns + ` FROM shopping_lists l WHERE l.id = $1 AND ` + pred
	if lock {
		query += ` FOR UPDATE`
	}

	list, err := scanShoppingList(q.QueryRow(ctx, query, append([]any{id}, args...)...))
	if err != nil {
		if isNoRows(err) {
			r.logger.Debug().Str("list_id", id.String()).Msg("shopping list not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("list_id", id.String()).Msg("failed to query shopping list")
		return nil, fmt.Errorf("failed to query shopping list: %w", err)
	}

	items, err := r.listItems(ctx, q, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	list.Items = items[id]
	if list.Items == nil {
		list.Items = []model.ShoppingListItem{}
	}

	return list, nil
}

func (r *shoppingListRepository) listItems(ctx context.Context, q queryer, listIDs []uuid.UUID) (map[uuid.UUID][]model.ShoppingListItem, error) {
	query := `SELECT ` + shoppingListItemColumns + ` FROM shopping_list_items WHERE list_id = ANY($1) ORDER BY position, id`

	rows, err := q.Query(ctx, query, listIDs)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query shopping list items")
		return nil, fmt.Errorf("failed to query shopping list items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]model.ShoppingListItem, len(listIDs))
	for rows.Next() {
		item, err := scanShoppingListItem(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan shopping list item row")
			return nil, fmt.Errorf("failed to scan shopping list item: %w", err)
		}
		items[item.ListID] = append(items[item.ListID], *item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating shopping list item rows")
		return nil, fmt.Errorf("error iterating shopping list items: %w", err)
	}

	return items, nil
}

// List retrieves visible lists with items, newest first.
func (r *shoppingListRepository) List(ctx context.Context, filter ownership.Filter) ([]model.ShoppingList, error) {
	pred, args := filter.Predicate("l.user_id", "l.household_id", 0)
	query := `SELECT ` + shoppingListColumns + ` FROM shopping_lists l WHERE ` + pred + ` ORDER BY l.created_at DESC, l.id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query shopping lists")
		return nil, fmt.Errorf("failed to query shopping lists: %w", err)
	}
	defer rows.Close()

	lists := make([]model.ShoppingList, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		list, err := scanShoppingList(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan shopping list row")
			return nil, fmt.Errorf("failed to scan shopping list: %w", err)
		}
		lists = append(lists, *list)
		ids = append(ids, list.ID)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating shopping list rows")
		return nil, fmt.Errorf("error iterating shopping lists: %w", err)
	}

	if len(lists) == 0 {
		return lists, nil
	}

	items, err := r.listItems(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range lists {
		if its, ok := items[lists[i].ID]; ok {
			lists[i].Items = its
		}
	}

	r.logger.Debug().Int("count", len(lists)).Msg("shopping lists retrieved")
	return lists, nil
}

// Update persists name, description and total.
func (r *shoppingListRepository) Update(ctx context.Context, tx pgx.Tx, list *model.ShoppingList) error {
	query := `
		UPDATE shopping_lists
		SET name = $2, description = $3, total_estimated_price = $4, updated_at = $5
		WHERE id = $1
	`

	list.UpdatedAt = time.Now().UTC()
	tag, err := tx.Exec(ctx, query, list.ID, list.Name, list.Description, list.TotalEstimatedPrice, list.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("list_id", list.ID.String()).Msg("failed to update shopping list")
		return fmt.Errorf("failed to update shopping list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrShoppingListNotFound
	}
	return nil
}

// Delete removes a list; items cascade.
func (r *shoppingListRepository) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM shopping_lists WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("list_id", id.String()).Msg("failed to delete shopping list")
		return fmt.Errorf("failed to delete shopping list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrShoppingListNotFound
	}

	r.logger.Debug().Str("list_id", id.String()).Msg("shopping list deleted")
	return nil
}

// InsertItems appends items after the current last position.
func (r *shoppingListRepository) InsertItems(ctx context.Context, tx pgx.Tx, listID uuid.UUID, items []model.ShoppingListItem) error {
	if len(items) == 0 {
		return nil
	}

	var next int
	err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM shopping_list_items WHERE list_id = $1`, listID).Scan(&next)
	if err != nil {
		r.logger.Error().Err(err).Str("list_id", listID.String()).Msg("failed to read item position")
		return fmt.Errorf("failed to read item position: %w", err)
	}

	query := `
		INSERT INTO shopping_list_items (` + shoppingListItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	for i := range items {
		item := &items[i]
		item.ListID = listID
		item.Position = next + i
		_, err := tx.Exec(ctx, query,
			item.ID,
			item.ListID,
			item.Name,
			item.Quantity,
			item.Unit,
			item.Category,
			item.Calories,
			item.EstimatedPrice,
			item.Bought,
			item.BoughtAt,
			item.FoodItemID,
			item.Position,
		)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return model.ErrInvalidFoodItemReference
			}
			r.logger.Error().
				Err(err).
				Str("list_id", listID.String()).
				Str("item_id", item.ID.String()).
				Msg("failed to insert shopping list item")
			return fmt.Errorf("failed to insert shopping list item: %w", err)
		}
	}

	r.logger.Debug().Str("list_id", listID.String()).Int("items", len(items)).Msg("shopping list items inserted")
	return nil
}

// DeleteItem removes one item from a list.
func (r *shoppingListRepository) DeleteItem(ctx context.Context, tx pgx.Tx, listID, itemID uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM shopping_list_items WHERE list_id = $1 AND id = $2`, listID, itemID)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to delete shopping list item")
		return fmt.Errorf("failed to delete shopping list item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

// GetItemForUpdate retrieves and locks one item.
func (r *shoppingListRepository) GetItemForUpdate(ctx context.Context, tx pgx.Tx, listID, itemID uuid.UUID) (*model.ShoppingListItem, error) {
	query := `SELECT ` + shoppingListItemColumns + ` FROM shopping_list_items WHERE list_id = $1 AND id = $2 FOR UPDATE`

	item, err := scanShoppingListItem(tx.QueryRow(ctx, query, listID, itemID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to lock shopping list item")
		return nil, fmt.Errorf("failed to lock shopping list item: %w", err)
	}
	return item, nil
}

// MarkItemBought sets the bought flag and time.
func (r *shoppingListRepository) MarkItemBought(ctx context.Context, tx pgx.Tx, itemID uuid.UUID, at time.Time) error {
	tag, err := tx.Exec(ctx, `UPDATE shopping_list_items SET bought = TRUE, bought_at = $2 WHERE id = $1`, itemID, at)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to mark item bought")
		return fmt.Errorf("failed to mark item bought: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}
