package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jabsona1985/digital-game-hub/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

const gameColumns = `id, title, title_ge, title_ru, description, description_ge, description_ru,
	price, original_price, image_url, category, platform, is_active, is_featured, rating,
	created_at, updated_at`

type GameRepository struct {
	DB *pgxpool.Pool
}

func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{DB: db}
}

// GameFilter narrows the storefront listing. Zero value lists every
// active game, newest first.
type GameFilter struct {
	Category        string
	Platform        string
	Search          string
	FeaturedOnly    bool
	Sort            string // price_asc | price_desc | rating | newest
	Limit           int
	Offset          int
	IncludeInactive bool
}

// buildGameQuery renders the filter into a SELECT over games.
// Kept as a pure function so the clause logic is testable without a pool.
func buildGameQuery(f GameFilter) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !f.IncludeInactive {
		where = append(where, "is_active = true")
	}
	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}
	if f.Platform != "" {
		where = append(where, arg(f.Platform)+" = ANY(platform)")
	}
	if f.Search != "" {
		where = append(where, "title ILIKE "+arg("%"+f.Search+"%"))
	}
	if f.FeaturedOnly {
		where = append(where, "is_featured = true")
	}

	q := "SELECT " + gameColumns + " FROM games"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}

	switch f.Sort {
	case "price_asc":
		q += " ORDER BY price ASC"
	case "price_desc":
		q += " ORDER BY price DESC"
	case "rating":
		q += " ORDER BY rating DESC NULLS LAST"
	default:
		q += " ORDER BY created_at DESC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	q += " LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	return q, args
}

func scanGame(row interface{ Scan(...interface{}) error }) (*model.Game, error) {
	var g model.Game
	if err := row.Scan(
		&g.ID, &g.Title, &g.TitleGe, &g.TitleRu,
		&g.Description, &g.DescriptionGe, &g.DescriptionRu,
		&g.Price, &g.OriginalPrice, &g.ImageURL, &g.Category, &g.Platform,
		&g.IsActive, &g.IsFeatured, &g.Rating, &g.CreatedAt, &g.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GameRepository) List(ctx context.Context, f GameFilter) ([]model.Game, error) {
	q, args := buildGameQuery(f)
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *g)
	}
	return list, rows.Err()
}

func (r *GameRepository) GetByID(ctx context.Context, id string, includeInactive bool) (*model.Game, error) {
	q := "SELECT " + gameColumns + " FROM games WHERE id=$1"
	if !includeInactive {
		q += " AND is_active = true"
	}
	g, err := scanGame(r.DB.QueryRow(ctx, q, id))
	if err != nil {
		return nil, errors.New("game not found")
	}
	return g, nil
}

func (r *GameRepository) Create(ctx context.Context, g *model.Game) (string, error) {
	var id string
	q := `INSERT INTO games (title, title_ge, title_ru, description, description_ge, description_ru,
		price, original_price, image_url, category, platform, is_active, is_featured, rating, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id`
	if err := r.DB.QueryRow(ctx, q,
		g.Title, g.TitleGe, g.TitleRu, g.Description, g.DescriptionGe, g.DescriptionRu,
		g.Price, g.OriginalPrice, g.ImageURL, g.Category, g.Platform,
		g.IsActive, g.IsFeatured, g.Rating, time.Now(),
	).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *GameRepository) Update(ctx context.Context, g *model.Game) error {
	q := `UPDATE games SET title=$1, title_ge=$2, title_ru=$3, description=$4, description_ge=$5,
		description_ru=$6, price=$7, original_price=$8, image_url=$9, category=$10, platform=$11,
		is_active=$12, is_featured=$13, rating=$14, updated_at=$15
		WHERE id=$16`
	tag, err := r.DB.Exec(ctx, q,
		g.Title, g.TitleGe, g.TitleRu, g.Description, g.DescriptionGe, g.DescriptionRu,
		g.Price, g.OriginalPrice, g.ImageURL, g.Category, g.Platform,
		g.IsActive, g.IsFeatured, g.Rating, time.Now(), g.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("game not found")
	}
	return nil
}

// Delete removes the game row. Keys and orders keep their own rows;
// historical orders stay readable through their stored game_id.
func (r *GameRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM games WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("game not found")
	}
	return nil
}

func (r *GameRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM games`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
