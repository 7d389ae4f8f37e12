package model

import "time"

// GameKey is a single-use license string for one unit of one game.
// Once sold it is never reassigned and never unsold (outside of checkout
// compensation within the same call that claimed it).
type GameKey struct {
	ID        string     `json:"id"`
	GameID    string     `json:"game_id"`
	KeyValue  string     `json:"key_value"`
	IsSold    bool       `json:"is_sold"`
	SoldTo    *string    `json:"sold_to,omitempty"`
	SoldAt    *time.Time `json:"sold_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// KeyStock is the per-game inventory count shown on the admin keys tab.
type KeyStock struct {
	GameID    string `json:"game_id"`
	Title     string `json:"title"`
	Available int    `json:"available"`
	Sold      int    `json:"sold"`
}
