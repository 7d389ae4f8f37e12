package services

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized: checkout started without an authenticated user.
	ErrUnauthorized = errors.New("authentication required")

	// ErrEmptyCart: nothing to fulfill after dropping zero-quantity lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrDuplicateCheckout: the idempotency token belongs to an attempt
	// that is still in flight.
	ErrDuplicateCheckout = errors.New("checkout already in progress")
)

// OutOfStockError means no unsold key could be secured for a game. Any
// allocations already made in the same checkout were compensated.
type OutOfStockError struct {
	GameID string
	Title  string
}

func (e *OutOfStockError) Error() string {
	name := e.Title
	if name == "" {
		name = e.GameID
	}
	return fmt.Sprintf("no keys available for %s", name)
}

// StoreError wraps an underlying data-store failure. The engine treats it
// like a conflict for safety: abort, compensate, surface.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
