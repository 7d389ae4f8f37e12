package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jabsona1985/digital-game-hub/internal/model"
	"github.com/jabsona1985/digital-game-hub/internal/repository"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// maxClaimAttempts bounds per-unit re-selection after lost claim races.
// Exhausting it reads as the pool being effectively empty.
const maxClaimAttempts = 5

// FulfillmentStore is the checkout engine's boundary to the catalog
// store. Implemented by repository.FulfillmentRepository over postgres
// and by in-memory stubs in tests.
type FulfillmentStore interface {
	GamePricing(ctx context.Context, gameID string) (title string, price decimal.Decimal, err error)
	FindUnsoldKey(ctx context.Context, gameID string, exclude []string) (*model.GameKey, error)
	AllocateUnit(ctx context.Context, keyID, userID string, amount decimal.Decimal, gameID string) (orderID string, ok bool, err error)
	ReleaseAllocation(ctx context.Context, orderID, keyID string) error
}

// AttemptStore records checkout attempts for idempotent resubmission.
type AttemptStore interface {
	BeginAttempt(ctx context.Context, token, userID string) (created bool, prev *model.CheckoutAttempt, err error)
	CompleteAttempt(ctx context.Context, token, receiptJSON string) error
	FailAttempt(ctx context.Context, token string) error
}

// FulfillmentService turns a cart snapshot plus a user id into completed
// orders and issued keys, or fails with nothing charged. All-or-nothing
// across the whole cart; a key is never sold twice.
type FulfillmentService struct {
	Store    FulfillmentStore
	Attempts AttemptStore
}

func NewFulfillmentService(store FulfillmentStore, attempts AttemptStore) *FulfillmentService {
	return &FulfillmentService{Store: store, Attempts: attempts}
}

// Fulfill allocates one key per purchased unit, in cart order. The token
// is the client-generated idempotency token for this attempt; empty skips
// the idempotency guard.
func (s *FulfillmentService) Fulfill(ctx context.Context, userID, token string, lines []model.CartLine) (*model.Receipt, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	lines = normalizeLines(lines)
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	if token != "" {
		created, prev, err := s.Attempts.BeginAttempt(ctx, token, userID)
		if err != nil {
			return nil, &StoreError{Op: "begin attempt", Err: err}
		}
		if !created {
			if prev != nil && prev.UserID != userID {
				// a receipt replays only to the user who opened the
				// attempt; anyone else holding the token is rejected
				return nil, ErrDuplicateCheckout
			}
			if prev != nil && prev.Status == model.AttemptCompleted && prev.ReceiptJSON != nil {
				var r model.Receipt
				if err := json.Unmarshal([]byte(*prev.ReceiptJSON), &r); err == nil {
					log.WithField("token", token).Info("replaying completed checkout")
					return &r, nil
				}
			}
			return nil, ErrDuplicateCheckout
		}
	}

	receipt, err := s.allocateAll(ctx, userID, lines)

	if token != "" {
		s.settleAttempt(ctx, token, receipt, err)
	}
	return receipt, err
}

// allocation is one committed unit, remembered for compensation.
type allocation struct {
	orderID string
	keyID   string
}

func (s *FulfillmentService) allocateAll(ctx context.Context, userID string, lines []model.CartLine) (*model.Receipt, error) {
	var (
		done    []allocation
		claimed = map[string]bool{}
		issued  []model.IssuedKey
		total   = decimal.Zero
	)

	// fail compensates everything committed so far, then surfaces cause.
	// A caller-side abort is the one exception: those allocations were
	// already paid for and stay valid.
	fail := func(cause error) (*model.Receipt, error) {
		if ctx.Err() == nil {
			s.compensate(context.WithoutCancel(ctx), done)
		}
		return nil, cause
	}

	for _, line := range lines {
		title, price, err := s.Store.GamePricing(ctx, line.GameID)
		if err != nil {
			if errors.Is(err, repository.ErrGameUnavailable) {
				return fail(&OutOfStockError{GameID: line.GameID, Title: line.Title})
			}
			return fail(&StoreError{Op: "price lookup", Err: err})
		}

		for unit := 0; unit < line.Quantity; unit++ {
			alloc, keyValue, err := s.allocateUnit(ctx, userID, line.GameID, price, claimed)
			if err != nil {
				if errors.Is(err, errNoStock) {
					return fail(&OutOfStockError{GameID: line.GameID, Title: title})
				}
				return fail(err)
			}
			claimed[alloc.keyID] = true
			done = append(done, alloc)
			issued = append(issued, model.IssuedKey{Title: title, KeyValue: keyValue})
			total = total.Add(price)
		}
	}

	return &model.Receipt{Orders: issued, Total: total}, nil
}

var errNoStock = errors.New("no unsold key")

// allocateUnit secures one key for one unit. A lost claim race is
// recovered locally: re-select excluding the contested key, bounded by
// maxClaimAttempts.
func (s *FulfillmentService) allocateUnit(ctx context.Context, userID, gameID string, price decimal.Decimal, claimed map[string]bool) (allocation, string, error) {
	exclude := make([]string, 0, len(claimed))
	for id := range claimed {
		exclude = append(exclude, id)
	}

	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		key, err := s.Store.FindUnsoldKey(ctx, gameID, exclude)
		if err != nil {
			return allocation{}, "", &StoreError{Op: "key selection", Err: err}
		}
		if key == nil {
			return allocation{}, "", errNoStock
		}

		orderID, ok, err := s.Store.AllocateUnit(ctx, key.ID, userID, price, gameID)
		if err != nil {
			return allocation{}, "", &StoreError{Op: "allocation", Err: err}
		}
		if ok {
			return allocation{orderID: orderID, keyID: key.ID}, key.KeyValue, nil
		}

		// another session claimed it between select and write
		log.WithFields(log.Fields{"game_id": gameID, "key_id": key.ID}).Debug("claim conflict, reselecting")
		exclude = append(exclude, key.ID)
	}

	return allocation{}, "", errNoStock
}

// compensate rolls back committed allocations in reverse order,
// best-effort. A failed release is logged and left as an auditable
// inconsistency rather than masking the original error.
func (s *FulfillmentService) compensate(ctx context.Context, done []allocation) {
	for i := len(done) - 1; i >= 0; i-- {
		a := done[i]
		if err := s.Store.ReleaseAllocation(ctx, a.orderID, a.keyID); err != nil {
			log.WithFields(log.Fields{
				"order_id": a.orderID,
				"key_id":   a.keyID,
			}).WithError(err).Error("compensation failed, allocation left dangling")
		}
	}
}

func (s *FulfillmentService) settleAttempt(ctx context.Context, token string, receipt *model.Receipt, err error) {
	ctx = context.WithoutCancel(ctx)
	if err != nil {
		if ferr := s.Attempts.FailAttempt(ctx, token); ferr != nil {
			log.WithField("token", token).WithError(ferr).Warn("could not release checkout attempt")
		}
		return
	}
	b, merr := json.Marshal(receipt)
	if merr != nil {
		log.WithField("token", token).WithError(merr).Warn("could not encode receipt for replay")
		return
	}
	if cerr := s.Attempts.CompleteAttempt(ctx, token, string(b)); cerr != nil {
		log.WithField("token", token).WithError(cerr).Warn("could not record completed checkout")
	}
}

// normalizeLines drops lines whose quantity fell to zero (the cart treats
// quantity 0 as removal) and merges repeated game ids into the first
// occurrence, preserving line order.
func normalizeLines(lines []model.CartLine) []model.CartLine {
	out := make([]model.CartLine, 0, len(lines))
	index := map[string]int{}
	for _, l := range lines {
		if l.Quantity < 1 || l.GameID == "" {
			continue
		}
		if i, ok := index[l.GameID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.GameID] = len(out)
		out = append(out, l)
	}
	return out
}
