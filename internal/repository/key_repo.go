package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jabsona1985/digital-game-hub/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type KeyRepository struct {
	DB *pgxpool.Pool
}

func NewKeyRepository(db *pgxpool.Pool) *KeyRepository {
	return &KeyRepository{DB: db}
}

// InsertKeys adds unsold keys for a game in one statement.
func (r *KeyRepository) InsertKeys(ctx context.Context, gameID string, values []string) (int, error) {
	if len(values) == 0 {
		return 0, nil
	}
	q := `INSERT INTO game_keys (game_id, key_value, is_sold, created_at)
		SELECT $1, v, false, $2 FROM UNNEST($3::text[]) AS v
		ON CONFLICT (game_id, key_value) DO NOTHING`
	tag, err := r.DB.Exec(ctx, q, gameID, time.Now(), values)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *KeyRepository) ListByGame(ctx context.Context, gameID string, unsoldOnly bool) ([]model.GameKey, error) {
	q := `SELECT id, game_id, key_value, is_sold, sold_to, sold_at, created_at
		FROM game_keys WHERE game_id=$1`
	if unsoldOnly {
		q += ` AND is_sold=false`
	}
	q += ` ORDER BY created_at DESC`
	return r.queryKeys(ctx, q, gameID)
}

func (r *KeyRepository) ListAll(ctx context.Context, unsoldOnly bool) ([]model.GameKey, error) {
	q := `SELECT id, game_id, key_value, is_sold, sold_to, sold_at, created_at FROM game_keys`
	if unsoldOnly {
		q += ` WHERE is_sold=false`
	}
	q += ` ORDER BY created_at DESC`
	return r.queryKeys(ctx, q)
}

func (r *KeyRepository) queryKeys(ctx context.Context, q string, args ...interface{}) ([]model.GameKey, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.GameKey{}
	for rows.Next() {
		var k model.GameKey
		if err := rows.Scan(&k.ID, &k.GameID, &k.KeyValue, &k.IsSold, &k.SoldTo, &k.SoldAt, &k.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, k)
	}
	return list, rows.Err()
}

// DeleteUnsold removes a key only while it is still unsold. Sold keys are
// immutable: they back a completed order.
func (r *KeyRepository) DeleteUnsold(ctx context.Context, keyID string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM game_keys WHERE id=$1 AND is_sold=false`, keyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("key not found or already sold")
	}
	return nil
}

// StockCounts returns available/sold counts per game for the admin view.
func (r *KeyRepository) StockCounts(ctx context.Context) ([]model.KeyStock, error) {
	q := `SELECT g.id, g.title,
			COUNT(k.id) FILTER (WHERE NOT k.is_sold) AS available,
			COUNT(k.id) FILTER (WHERE k.is_sold) AS sold
		FROM games g
		LEFT JOIN game_keys k ON k.game_id = g.id
		GROUP BY g.id, g.title
		ORDER BY g.title`
	rows, err := r.DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.KeyStock{}
	for rows.Next() {
		var s model.KeyStock
		if err := rows.Scan(&s.GameID, &s.Title, &s.Available, &s.Sold); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *KeyRepository) CountUnsold(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM game_keys WHERE is_sold=false`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
