package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Game struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	TitleGe       *string          `json:"title_ge,omitempty"`
	TitleRu       *string          `json:"title_ru,omitempty"`
	Description   *string          `json:"description,omitempty"`
	DescriptionGe *string          `json:"description_ge,omitempty"`
	DescriptionRu *string          `json:"description_ru,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	ImageURL      *string          `json:"image_url,omitempty"`
	Category      *string          `json:"category,omitempty"`
	Platform      []string         `json:"platform"`
	IsActive      bool             `json:"is_active"`
	IsFeatured    bool             `json:"is_featured"`
	Rating        *float64         `json:"rating,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     *time.Time       `json:"updated_at,omitempty"`
}
