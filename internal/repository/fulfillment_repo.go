package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jabsona1985/digital-game-hub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrGameUnavailable is returned by GamePricing when the game does not
// exist or is not active for sale.
var ErrGameUnavailable = errors.New("game unavailable")

// FulfillmentRepository is the checkout engine's view of the store. The
// claim predicate (is_sold=false) is the only thing standing between two
// concurrent checkouts and a double-sold key, so every mutation here is
// conditional and transactional.
type FulfillmentRepository struct {
	DB *pgxpool.Pool
}

func NewFulfillmentRepository(db *pgxpool.Pool) *FulfillmentRepository {
	return &FulfillmentRepository{DB: db}
}

// GamePricing returns the current title and price for an active game.
// The charged amount always comes from here, never from the client cart.
func (r *FulfillmentRepository) GamePricing(ctx context.Context, gameID string) (string, decimal.Decimal, error) {
	var (
		title string
		price decimal.Decimal
	)
	q := `SELECT title, price FROM games WHERE id=$1 AND is_active=true`
	if err := r.DB.QueryRow(ctx, q, gameID).Scan(&title, &price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", decimal.Zero, ErrGameUnavailable
		}
		return "", decimal.Zero, err
	}
	return title, price, nil
}

// FindUnsoldKey picks any unsold key for the game, skipping ids already
// claimed earlier in the same checkout. Returns nil when none remain.
func (r *FulfillmentRepository) FindUnsoldKey(ctx context.Context, gameID string, exclude []string) (*model.GameKey, error) {
	if exclude == nil {
		exclude = []string{}
	}
	q := `SELECT id, game_id, key_value, is_sold, sold_to, sold_at, created_at
		FROM game_keys
		WHERE game_id=$1 AND is_sold=false AND id <> ALL($2::uuid[])
		LIMIT 1`
	var k model.GameKey
	err := r.DB.QueryRow(ctx, q, gameID, exclude).Scan(
		&k.ID, &k.GameID, &k.KeyValue, &k.IsSold, &k.SoldTo, &k.SoldAt, &k.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// AllocateUnit claims the key and records its completed order as one
// transaction. The claim only succeeds if the key was still unsold at
// write time; a lost race reports ok=false with nothing committed.
func (r *FulfillmentRepository) AllocateUnit(ctx context.Context, keyID, userID string, amount decimal.Decimal, gameID string) (string, bool, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return "", false, fmt.Errorf("begin allocation: %w", err)
	}
	defer tx.Rollback(ctx)

	claim := `UPDATE game_keys SET is_sold=true, sold_to=$2, sold_at=$3
		WHERE id=$1 AND is_sold=false`
	tag, err := tx.Exec(ctx, claim, keyID, userID, time.Now())
	if err != nil {
		return "", false, fmt.Errorf("claim key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// someone else got there first
		return "", false, nil
	}

	var orderID string
	insert := `INSERT INTO orders (user_id, game_id, game_key_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := tx.QueryRow(ctx, insert, userID, gameID, keyID, amount, model.OrderCompleted, time.Now()).Scan(&orderID); err != nil {
		return "", false, fmt.Errorf("insert order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", false, fmt.Errorf("commit allocation: %w", err)
	}
	return orderID, true, nil
}

// ReleaseAllocation undoes one committed allocation: the order row goes
// away and the key returns to the unsold pool, again in one transaction.
// Used only for all-or-nothing compensation inside a failed checkout.
func (r *FulfillmentRepository) ReleaseAllocation(ctx context.Context, orderID, keyID string) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin release: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE game_keys SET is_sold=false, sold_to=NULL, sold_at=NULL WHERE id=$1`, keyID); err != nil {
		return fmt.Errorf("release key: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit release: %w", err)
	}
	return nil
}
