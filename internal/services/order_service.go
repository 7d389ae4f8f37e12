package services

import (
	"context"

	"github.com/jabsona1985/digital-game-hub/internal/model"
	"github.com/jabsona1985/digital-game-hub/internal/repository"
)

type OrderService struct {
	Orders *repository.OrderRepository
	Games  *repository.GameRepository
	Keys   *repository.KeyRepository
	Users  *repository.UserRepository
}

func NewOrderService(o *repository.OrderRepository, g *repository.GameRepository, k *repository.KeyRepository, u *repository.UserRepository) *OrderService {
	return &OrderService{Orders: o, Games: g, Keys: k, Users: u}
}

// MyKeys returns the caller's purchased keys, newest first.
func (s *OrderService) MyKeys(ctx context.Context, userID string) ([]model.PurchasedKey, error) {
	return s.Orders.ListPurchasedKeys(ctx, userID)
}

func (s *OrderService) ListAll(ctx context.Context, limit, offset int) ([]model.Order, error) {
	return s.Orders.ListAll(ctx, limit, offset)
}

// Stats assembles the admin dashboard counters.
func (s *OrderService) Stats(ctx context.Context) (*model.StoreStats, error) {
	games, err := s.Games.Count(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := s.Keys.CountUnsold(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.Orders.CountCompleted(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.Users.Count(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.Orders.Revenue(ctx)
	if err != nil {
		return nil, err
	}
	return &model.StoreStats{
		Games:         games,
		AvailableKeys: keys,
		Orders:        orders,
		Users:         users,
		Revenue:       revenue,
	}, nil
}
