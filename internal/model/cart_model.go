package model

import "github.com/shopspring/decimal"

// CartLine is one entry of the client-held cart, sent as checkout input.
// The cart itself lives in the browser; the server only ever sees it here.
// Price and title are display values from the client snapshot; the charged
// amount is re-read from the catalog at fulfillment time.
type CartLine struct {
	GameID   string          `json:"game_id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	ImageURL *string         `json:"image_url,omitempty"`
	Quantity int             `json:"quantity"`
}

// IssuedKey is one purchased unit on the receipt, in cart expansion order.
type IssuedKey struct {
	Title    string `json:"title"`
	KeyValue string `json:"key"`
}

// Receipt is the successful checkout result.
type Receipt struct {
	Orders []IssuedKey     `json:"orders"`
	Total  decimal.Decimal `json:"total"`
}
