package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jabsona1985/digital-game-hub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CheckoutRepository persists idempotency records for checkout attempts.
type CheckoutRepository struct {
	DB *pgxpool.Pool
}

func NewCheckoutRepository(db *pgxpool.Pool) *CheckoutRepository {
	return &CheckoutRepository{DB: db}
}

// AttemptStaleAfter is how long an in_flight attempt may sit before a
// new BeginAttempt takes the token over. Covers a process crash between
// beginning and settling an attempt, which would otherwise leave the
// token rejected on every retry.
const AttemptStaleAfter = 15 * time.Minute

// BeginAttempt claims the token. created=true means this call owns the
// attempt; otherwise the previously recorded attempt comes back so the
// caller can replay or reject. A stale in_flight row is reclaimed as if
// the token were fresh.
func (r *CheckoutRepository) BeginAttempt(ctx context.Context, token, userID string) (bool, *model.CheckoutAttempt, error) {
	now := time.Now()
	q := `INSERT INTO checkout_attempts (token, user_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id, status = EXCLUDED.status, created_at = EXCLUDED.created_at
		WHERE checkout_attempts.status = $3 AND checkout_attempts.created_at < $5`
	tag, err := r.DB.Exec(ctx, q, token, userID, model.AttemptInFlight, now, now.Add(-AttemptStaleAfter))
	if err != nil {
		return false, nil, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil, nil
	}

	var a model.CheckoutAttempt
	get := `SELECT token, user_id, status, receipt_json, created_at FROM checkout_attempts WHERE token=$1`
	if err := r.DB.QueryRow(ctx, get, token).Scan(&a.Token, &a.UserID, &a.Status, &a.ReceiptJSON, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// raced with a concurrent delete; treat as in flight
			return false, &model.CheckoutAttempt{Token: token, Status: model.AttemptInFlight}, nil
		}
		return false, nil, err
	}
	return false, &a, nil
}

// CompleteAttempt stores the receipt for replays of the same token.
func (r *CheckoutRepository) CompleteAttempt(ctx context.Context, token, receiptJSON string) error {
	q := `UPDATE checkout_attempts SET status=$2, receipt_json=$3 WHERE token=$1`
	_, err := r.DB.Exec(ctx, q, token, model.AttemptCompleted, receiptJSON)
	return err
}

// FailAttempt releases the token so the client may retry the checkout
// with the same token after a surfaced failure.
func (r *CheckoutRepository) FailAttempt(ctx context.Context, token string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM checkout_attempts WHERE token=$1`, token)
	return err
}
