package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jabsona1985/digital-game-hub/internal/model"
	"github.com/jabsona1985/digital-game-hub/internal/repository"
)

type UserService struct {
	Users *repository.UserRepository
	Roles *repository.RoleRepository
}

func NewUserService(u *repository.UserRepository, r *repository.RoleRepository) *UserService {
	return &UserService{Users: u, Roles: r}
}

func (s *UserService) List(ctx context.Context) ([]repository.UserWithRole, error) {
	return s.Users.ListWithRoles(ctx)
}

// SetRole changes a user's role. Admins cannot demote themselves, so a
// store always keeps at least the acting admin.
func (s *UserService) SetRole(ctx context.Context, actorID, userID, role string) error {
	if !model.ValidRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}
	if actorID == userID && role != model.RoleAdmin {
		return errors.New("cannot change your own admin role")
	}
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return err
	}
	return s.Roles.SetRole(ctx, userID, role)
}
