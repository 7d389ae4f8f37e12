package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jabsona1985/digital-game-hub/internal/model"
	"github.com/jabsona1985/digital-game-hub/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLen = 8

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type AuthService struct {
	Users *repository.UserRepository
	Roles *repository.RoleRepository
}

func NewAuthService(u *repository.UserRepository, r *repository.RoleRepository) *AuthService {
	return &AuthService{Users: u, Roles: r}
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

func validatePassword(pw string) error {
	if len(pw) < MinPasswordLen {
		return fmt.Errorf("password too short: must be at least %d characters", MinPasswordLen)
	}
	return nil
}

// Signup creates an account with the default role. Roles are only ever
// granted afterwards through the admin role endpoint.
func (s *AuthService) Signup(ctx context.Context, email, password string, displayName *string) (string, error) {
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if err := validatePassword(password); err != nil {
		return "", err
	}
	exists, err := s.Users.EmailExists(ctx, email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", errors.New("email already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return s.Users.Create(ctx, email, string(hash), displayName)
}

// Login verifies credentials and resolves the caller's role.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Profile, string, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", errors.New("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", errors.New("invalid email or password")
	}
	role, err := s.Roles.GetRole(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, role, nil
}
