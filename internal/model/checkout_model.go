package model

import "time"

const (
	AttemptInFlight  = "in_flight"
	AttemptCompleted = "completed"
)

// CheckoutAttempt is the idempotency record for one checkout submission.
// The token is client-generated per attempt; a resubmitted token replays
// the stored receipt instead of allocating again.
type CheckoutAttempt struct {
	Token       string    `json:"token"`
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	ReceiptJSON *string   `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
