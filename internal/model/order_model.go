package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderPending   = "pending"
	OrderCompleted = "completed"
	OrderFailed    = "failed"
)

// Order covers exactly one unit of one game bound to one key. A cart line
// with quantity N produces N order rows.
type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	GameID    string          `json:"game_id"`
	GameKeyID *string         `json:"game_key_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// PurchasedKey is an order joined with its game title and key string,
// as shown on the customer's keys page.
type PurchasedKey struct {
	OrderID   string          `json:"order_id"`
	Title     string          `json:"title"`
	KeyValue  string          `json:"key_value"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// StoreStats backs the admin dashboard cards.
type StoreStats struct {
	Games         int             `json:"games"`
	AvailableKeys int             `json:"available_keys"`
	Orders        int             `json:"orders"`
	Users         int             `json:"users"`
	Revenue       decimal.Decimal `json:"revenue"`
}
