package repository

import (
	"context"

	"github.com/jabsona1985/digital-game-hub/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	DB *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{DB: db}
}

// ListPurchasedKeys returns the caller's completed orders with title and
// key string, newest first. Titles come from the games table; a deleted
// game falls back to its id so old purchases stay listable.
func (r *OrderRepository) ListPurchasedKeys(ctx context.Context, userID string) ([]model.PurchasedKey, error) {
	q := `SELECT o.id, COALESCE(g.title, o.game_id), k.key_value, o.amount, o.created_at
		FROM orders o
		JOIN game_keys k ON k.id = o.game_key_id
		LEFT JOIN games g ON g.id = o.game_id
		WHERE o.user_id=$1 AND o.status=$2
		ORDER BY o.created_at DESC`
	rows, err := r.DB.Query(ctx, q, userID, model.OrderCompleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.PurchasedKey{}
	for rows.Next() {
		var p model.PurchasedKey
		if err := rows.Scan(&p.OrderID, &p.Title, &p.KeyValue, &p.Amount, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *OrderRepository) ListAll(ctx context.Context, limit, offset int) ([]model.Order, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	q := `SELECT id, user_id, game_id, game_key_id, amount, status, created_at
		FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.DB.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.GameID, &o.GameKeyID, &o.Amount, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

func (r *OrderRepository) CountCompleted(ctx context.Context) (int, error) {
	var n int
	q := `SELECT COUNT(*) FROM orders WHERE status=$1`
	if err := r.DB.QueryRow(ctx, q, model.OrderCompleted).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *OrderRepository) Revenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	q := `SELECT COALESCE(SUM(amount), 0) FROM orders WHERE status=$1`
	if err := r.DB.QueryRow(ctx, q, model.OrderCompleted).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
