package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jabsona1985/digital-game-hub/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, email, passwordHash string, displayName *string) (string, error) {
	var id string
	q := `INSERT INTO profiles (email, password_hash, display_name, created_at)
		VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.DB.QueryRow(ctx, q, email, passwordHash, displayName, time.Now()).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	var p model.Profile
	q := `SELECT id, email, password_hash, display_name, created_at FROM profiles WHERE email=$1`
	if err := r.DB.QueryRow(ctx, q, email).Scan(&p.ID, &p.Email, &p.PasswordHash, &p.DisplayName, &p.CreatedAt); err != nil {
		return nil, errors.New("user not found")
	}
	return &p, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	q := `SELECT id, email, password_hash, display_name, created_at FROM profiles WHERE id=$1`
	if err := r.DB.QueryRow(ctx, q, id).Scan(&p.ID, &p.Email, &p.PasswordHash, &p.DisplayName, &p.CreatedAt); err != nil {
		return nil, errors.New("user not found")
	}
	return &p, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM profiles WHERE email=$1)`
	if err := r.DB.QueryRow(ctx, q, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// UserWithRole is the admin users listing row.
type UserWithRole struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListWithRoles joins profiles against user_roles; an absent role row
// reads as the default role "user".
func (r *UserRepository) ListWithRoles(ctx context.Context) ([]UserWithRole, error) {
	q := `SELECT p.id, p.email, p.display_name, COALESCE(ur.role, 'user'), p.created_at
		FROM profiles p
		LEFT JOIN user_roles ur ON ur.user_id = p.id
		ORDER BY p.created_at DESC`
	rows, err := r.DB.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []UserWithRole{}
	for rows.Next() {
		var u UserWithRole
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type RoleRepository struct {
	DB *pgxpool.Pool
}

func NewRoleRepository(db *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{DB: db}
}

// GetRole resolves a user's role, defaulting to "user" when no row exists.
func (r *RoleRepository) GetRole(ctx context.Context, userID string) (string, error) {
	var role string
	q := `SELECT role FROM user_roles WHERE user_id=$1`
	err := r.DB.QueryRow(ctx, q, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.RoleUser, nil
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

// SetRole upserts the elevated role row. Setting "user" deletes the row
// instead, keeping absent-row-means-user as the single source of truth.
func (r *RoleRepository) SetRole(ctx context.Context, userID, role string) error {
	if role == model.RoleUser {
		_, err := r.DB.Exec(ctx, `DELETE FROM user_roles WHERE user_id=$1`, userID)
		return err
	}
	q := `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role`
	_, err := r.DB.Exec(ctx, q, userID, role)
	return err
}
