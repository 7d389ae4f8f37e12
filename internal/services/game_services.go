package services

import (
	"context"
	"errors"

	"github.com/jabsona1985/digital-game-hub/internal/model"
	"github.com/jabsona1985/digital-game-hub/internal/repository"
)

type GameService struct {
	Repo *repository.GameRepository
}

func NewGameService(r *repository.GameRepository) *GameService {
	return &GameService{Repo: r}
}

// ListStore lists games visible to shoppers. Read-only, repeatable.
func (s *GameService) ListStore(ctx context.Context, f repository.GameFilter) ([]model.Game, error) {
	f.IncludeInactive = false
	return s.Repo.List(ctx, f)
}

// ListAdmin lists every game, including inactive ones.
func (s *GameService) ListAdmin(ctx context.Context, f repository.GameFilter) ([]model.Game, error) {
	f.IncludeInactive = true
	return s.Repo.List(ctx, f)
}

func (s *GameService) Get(ctx context.Context, id string, includeInactive bool) (*model.Game, error) {
	return s.Repo.GetByID(ctx, id, includeInactive)
}

func validateGame(g *model.Game) error {
	if g.Title == "" {
		return errors.New("title is required")
	}
	if g.Price.IsNegative() {
		return errors.New("price must not be negative")
	}
	if g.OriginalPrice != nil && g.OriginalPrice.IsNegative() {
		return errors.New("original price must not be negative")
	}
	if g.Rating != nil && (*g.Rating < 0 || *g.Rating > 5) {
		return errors.New("rating must be between 0 and 5")
	}
	return nil
}

func (s *GameService) Create(ctx context.Context, g *model.Game) (string, error) {
	if err := validateGame(g); err != nil {
		return "", err
	}
	return s.Repo.Create(ctx, g)
}

func (s *GameService) Update(ctx context.Context, g *model.Game) error {
	if err := validateGame(g); err != nil {
		return err
	}
	return s.Repo.Update(ctx, g)
}

func (s *GameService) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}
