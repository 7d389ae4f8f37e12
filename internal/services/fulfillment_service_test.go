package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jabsona1985/digital-game-hub/internal/model"
	"github.com/jabsona1985/digital-game-hub/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a mutex-guarded in-memory FulfillmentStore. Selection and
// allocation take the lock separately, so concurrent callers can select
// the same key and race on the claim exactly like sessions sharing a
// database do.
type memStore struct {
	mu     sync.Mutex
	games  map[string]memGame
	keys   map[string]*model.GameKey
	orders map[string]*model.Order
	seq    int

	// fault injection
	conflictTimes  int   // first N claims lose the race without a winner
	failAllocOn    int   // 1-based allocate call that errors, 0 = never
	releaseErr     error // forced compensation failure
	allocCalls     int
	selectCalls    int
	releasedOrders []string
}

type memGame struct {
	title  string
	price  decimal.Decimal
	active bool
}

func newMemStore() *memStore {
	return &memStore{
		games:  map[string]memGame{},
		keys:   map[string]*model.GameKey{},
		orders: map[string]*model.Order{},
	}
}

func (m *memStore) addGame(id, title string, price int64) {
	m.games[id] = memGame{title: title, price: decimal.NewFromInt(price), active: true}
}

func (m *memStore) addKeys(gameID string, values ...string) {
	for _, v := range values {
		id := fmt.Sprintf("%s-key-%s", gameID, v)
		m.keys[id] = &model.GameKey{ID: id, GameID: gameID, KeyValue: v, CreatedAt: time.Now()}
	}
}

func (m *memStore) GamePricing(_ context.Context, gameID string) (string, decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok || !g.active {
		return "", decimal.Zero, repository.ErrGameUnavailable
	}
	return g.title, g.price, nil
}

func (m *memStore) FindUnsoldKey(_ context.Context, gameID string, exclude []string) (*model.GameKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selectCalls++
	skip := map[string]bool{}
	for _, id := range exclude {
		skip[id] = true
	}
	ids := make([]string, 0, len(m.keys))
	for id := range m.keys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		k := m.keys[id]
		if k.GameID == gameID && !k.IsSold && !skip[id] {
			cp := *k
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) AllocateUnit(_ context.Context, keyID, userID string, amount decimal.Decimal, gameID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allocCalls++
	if m.failAllocOn > 0 && m.allocCalls == m.failAllocOn {
		return "", false, errors.New("connection reset")
	}
	if m.conflictTimes > 0 {
		m.conflictTimes--
		return "", false, nil
	}
	k, ok := m.keys[keyID]
	if !ok || k.IsSold {
		return "", false, nil
	}
	now := time.Now()
	k.IsSold = true
	k.SoldTo = &userID
	k.SoldAt = &now

	m.seq++
	orderID := fmt.Sprintf("order-%d", m.seq)
	m.orders[orderID] = &model.Order{
		ID:        orderID,
		UserID:    userID,
		GameID:    gameID,
		GameKeyID: &keyID,
		Amount:    amount,
		Status:    model.OrderCompleted,
		CreatedAt: now,
	}
	return orderID, true, nil
}

func (m *memStore) ReleaseAllocation(_ context.Context, orderID, keyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.releaseErr != nil {
		return m.releaseErr
	}
	delete(m.orders, orderID)
	if k, ok := m.keys[keyID]; ok {
		k.IsSold = false
		k.SoldTo = nil
		k.SoldAt = nil
	}
	m.releasedOrders = append(m.releasedOrders, orderID)
	return nil
}

func (m *memStore) unsoldCount(gameID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, k := range m.keys {
		if k.GameID == gameID && !k.IsSold {
			n++
		}
	}
	return n
}

type memAttempts struct {
	mu       sync.Mutex
	attempts map[string]*model.CheckoutAttempt
}

func newMemAttempts() *memAttempts {
	return &memAttempts{attempts: map[string]*model.CheckoutAttempt{}}
}

func (m *memAttempts) BeginAttempt(_ context.Context, token, userID string) (bool, *model.CheckoutAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.attempts[token]; ok {
		stale := prev.Status == model.AttemptInFlight && time.Since(prev.CreatedAt) >= repository.AttemptStaleAfter
		if !stale {
			cp := *prev
			return false, &cp, nil
		}
		// stale in-flight row, taken over by the fresh insert below
	}
	m.attempts[token] = &model.CheckoutAttempt{
		Token:     token,
		UserID:    userID,
		Status:    model.AttemptInFlight,
		CreatedAt: time.Now(),
	}
	return true, nil, nil
}

func (m *memAttempts) CompleteAttempt(_ context.Context, token, receiptJSON string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.attempts[token]; ok {
		a.Status = model.AttemptCompleted
		a.ReceiptJSON = &receiptJSON
	}
	return nil
}

func (m *memAttempts) FailAttempt(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attempts, token)
	return nil
}

func newTestService(store *memStore) *FulfillmentService {
	return NewFulfillmentService(store, newMemAttempts())
}

func line(gameID string, qty int) model.CartLine {
	return model.CartLine{GameID: gameID, Title: "client title", Price: decimal.NewFromInt(1), Quantity: qty}
}

func TestFulfill_HappyPath(t *testing.T) {
	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 10)
	store.addKeys("game-a", "k1", "k2", "k3")
	svc := newTestService(store)

	receipt, err := svc.Fulfill(context.Background(), "user-1", "", []model.CartLine{line("game-a", 2)})
	require.NoError(t, err)
	require.Len(t, receipt.Orders, 2)

	for _, o := range receipt.Orders {
		assert.Equal(t, "Nebula Drift", o.Title)
		assert.Contains(t, []string{"k1", "k2", "k3"}, o.KeyValue)
	}
	assert.NotEqual(t, receipt.Orders[0].KeyValue, receipt.Orders[1].KeyValue)
	assert.True(t, receipt.Total.Equal(decimal.NewFromInt(20)), "total %s", receipt.Total)
	assert.Equal(t, 1, store.unsoldCount("game-a"))
	assert.Len(t, store.orders, 2)
	for _, o := range store.orders {
		assert.Equal(t, model.OrderCompleted, o.Status)
		assert.True(t, o.Amount.Equal(decimal.NewFromInt(10)))
		assert.Equal(t, "user-1", o.UserID)
	}
}

func TestFulfill_ChargesCatalogPriceNotClientPrice(t *testing.T) {
	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 49)
	store.addKeys("game-a", "k1")
	svc := newTestService(store)

	// client snapshot claims a price of 1
	receipt, err := svc.Fulfill(context.Background(), "user-1", "", []model.CartLine{line("game-a", 1)})
	require.NoError(t, err)
	assert.True(t, receipt.Total.Equal(decimal.NewFromInt(49)))
	for _, o := range store.orders {
		assert.True(t, o.Amount.Equal(decimal.NewFromInt(49)))
	}
}

func TestFulfill_Stockout(t *testing.T) {
	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 10)
	store.addKeys("game-a", "k1")
	svc := newTestService(store)

	_, err := svc.Fulfill(context.Background(), "user-1", "", []model.CartLine{line("game-a", 2)})

	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, "game-a", oos.GameID)
	assert.Equal(t, "Nebula Drift", oos.Title)
	assert.Empty(t, store.orders)
	assert.Equal(t, 1, store.unsoldCount("game-a"))
}

func TestFulfill_AllOrNothingAcrossLines(t *testing.T) {
	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 10)
	store.addGame("game-b", "Iron Harvest", 20)
	store.addKeys("game-a", "a1", "a2", "a3", "a4", "a5")
	// game-b has no keys at all
	svc := newTestService(store)

	cart := []model.CartLine{line("game-a", 2), line("game-b", 1)}
	_, err := svc.Fulfill(context.Background(), "user-1", "", cart)

	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, "game-b", oos.GameID)
	assert.Empty(t, store.orders, "no order from any line may survive")
	assert.Equal(t, 5, store.unsoldCount("game-a"), "stock-rich game's pool unchanged")
	assert.Len(t, store.releasedOrders, 2, "both committed units compensated")
}

func TestFulfill_ExpansionDistinctKeys(t *testing.T) {
	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 15)
	store.addKeys("game-a", "k1", "k2", "k3")
	svc := newTestService(store)

	receipt, err := svc.Fulfill(context.Background(), "user-1", "", []model.CartLine{line("game-a", 3)})
	require.NoError(t, err)
	require.Len(t, receipt.Orders, 3)

	seen := map[string]bool{}
	for _, o := range receipt.Orders {
		assert.False(t, seen[o.KeyValue], "key %s issued twice", o.KeyValue)
		seen[o.KeyValue] = true
	}
	assert.Len(t, store.orders, 3)
	keyIDs := map[string]bool{}
	for _, o := range store.orders {
		require.NotNil(t, o.GameKeyID)
		keyIDs[*o.GameKeyID] = true
	}
	assert.Len(t, keyIDs, 3, "three orders reference three distinct keys")
}

func TestFulfill_InactiveGameReadsAsOutOfStock(t *testing.T) {
	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 10)
	g := store.games["game-a"]
	g.active = false
	store.games["game-a"] = g
	store.addKeys("game-a", "k1")
	svc := newTestService(store)

	_, err := svc.Fulfill(context.Background(), "user-1", "", []model.CartLine{line("game-a", 1)})

	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Empty(t, store.orders)
}

func TestFulfill_Preconditions(t *testing.T) {
	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 10)
	store.addKeys("game-a", "k1")
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Fulfill(ctx, "", "", []model.CartLine{line("game-a", 1)})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Fulfill(ctx, "user-1", "", nil)
	assert.ErrorIs(t, err, ErrEmptyCart)

	// zero-quantity lines are removals, not purchases
	_, err = svc.Fulfill(ctx, "user-1", "", []model.CartLine{line("game-a", 0)})
	assert.ErrorIs(t, err, ErrEmptyCart)

	assert.Empty(t, store.orders)
	assert.Equal(t, 0, store.selectCalls, "preconditions fail before any store read")
}

func TestFulfill_ClaimConflictRetriesAnotherKey(t *testing.T) {
	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 10)
	store.addKeys("game-a", "k1", "k2", "k3")
	store.conflictTimes = 2
	svc := newTestService(store)

	receipt, err := svc.Fulfill(context.Background(), "user-1", "", []model.CartLine{line("game-a", 1)})
	require.NoError(t, err)
	require.Len(t, receipt.Orders, 1)
	assert.Equal(t, 3, store.allocCalls, "two lost races then a successful claim")
	assert.Len(t, store.orders, 1)
}

func TestFulfill_ConflictExhaustionEscalatesToOutOfStock(t *testing.T) {
	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 10)
	store.addKeys("game-a", "k1", "k2", "k3", "k4", "k5", "k6", "k7")
	store.conflictTimes = 1000
	svc := newTestService(store)

	_, err := svc.Fulfill(context.Background(), "user-1", "", []model.CartLine{line("game-a", 1)})

	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, maxClaimAttempts, store.allocCalls)
	assert.Empty(t, store.orders)
}

func TestFulfill_StoreErrorCompensatesPriorUnits(t *testing.T) {
	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 10)
	store.addKeys("game-a", "k1", "k2", "k3")
	store.failAllocOn = 3
	svc := newTestService(store)

	_, err := svc.Fulfill(context.Background(), "user-1", "", []model.CartLine{line("game-a", 3)})

	var serr *StoreError
	require.ErrorAs(t, err, &serr)
	assert.Empty(t, store.orders)
	assert.Equal(t, 3, store.unsoldCount("game-a"), "the two claimed keys were released")
	assert.Len(t, store.releasedOrders, 2)
}

func TestFulfill_CompensationFailureKeepsOriginalError(t *testing.T) {
	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 10)
	store.addGame("game-b", "Iron Harvest", 20)
	store.addKeys("game-a", "a1")
	store.releaseErr = errors.New("store unreachable")
	svc := newTestService(store)

	cart := []model.CartLine{line("game-a", 1), line("game-b", 1)}
	_, err := svc.Fulfill(context.Background(), "user-1", "", cart)

	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, "game-b", oos.GameID, "surfaced error is the stockout, not the failed release")
}

func TestFulfill_ConcurrentCallersNeverShareAKey(t *testing.T) {
	const callers = 8
	const keys = 3

	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 10)
	for i := 0; i < keys; i++ {
		store.addKeys("game-a", fmt.Sprintf("key-%d", i))
	}
	svc := newTestService(store)

	var wg sync.WaitGroup
	results := make([]*model.Receipt, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i)
			results[i], errs[i] = svc.Fulfill(context.Background(), user, "", []model.CartLine{line("game-a", 1)})
		}(i)
	}
	wg.Wait()

	won := 0
	issued := map[string]int{}
	for i := 0; i < callers; i++ {
		if errs[i] == nil {
			won++
			require.Len(t, results[i].Orders, 1)
			issued[results[i].Orders[0].KeyValue]++
		} else {
			var oos *OutOfStockError
			assert.ErrorAs(t, errs[i], &oos)
		}
	}
	assert.Equal(t, keys, won, "exactly one winner per key")
	for v, n := range issued {
		assert.Equal(t, 1, n, "key %s issued %d times", v, n)
	}
	assert.Equal(t, 0, store.unsoldCount("game-a"))
	assert.Len(t, store.orders, keys)
}

func TestFulfill_TwoCallersOneKey(t *testing.T) {
	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 10)
	store.addKeys("game-a", "k1")
	svc := newTestService(store)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Fulfill(context.Background(), fmt.Sprintf("user-%d", i), "", []model.CartLine{line("game-a", 1)})
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			var oos *OutOfStockError
			assert.ErrorAs(t, err, &oos)
		}
	}
	assert.Equal(t, 1, failures, "exactly one caller gets the key")
	assert.Len(t, store.orders, 1)
}

func TestFulfill_IdempotentReplay(t *testing.T) {
	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 10)
	store.addKeys("game-a", "k1", "k2")
	svc := newTestService(store)
	ctx := context.Background()

	first, err := svc.Fulfill(ctx, "user-1", "token-1", []model.CartLine{line("game-a", 1)})
	require.NoError(t, err)

	// double-click: same token, same cart
	second, err := svc.Fulfill(ctx, "user-1", "token-1", []model.CartLine{line("game-a", 1)})
	require.NoError(t, err)

	assert.Equal(t, first.Orders, second.Orders)
	assert.True(t, first.Total.Equal(second.Total))
	assert.Len(t, store.orders, 1, "replay must not allocate again")
	assert.Equal(t, 1, store.unsoldCount("game-a"))
}

func TestFulfill_ReplayIsScopedToAttemptOwner(t *testing.T) {
	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 10)
	store.addKeys("game-a", "k1", "k2")
	svc := newTestService(store)
	ctx := context.Background()

	first, err := svc.Fulfill(ctx, "user-a", "token-1", []model.CartLine{line("game-a", 1)})
	require.NoError(t, err)
	require.Len(t, first.Orders, 1)

	// a different user presenting the same token must not see the
	// recorded receipt, which carries user-a's license key
	second, err := svc.Fulfill(ctx, "user-b", "token-1", []model.CartLine{line("game-a", 1)})
	assert.ErrorIs(t, err, ErrDuplicateCheckout)
	assert.Nil(t, second)
	assert.Len(t, store.orders, 1)
	assert.Equal(t, 1, store.unsoldCount("game-a"))
}

func TestFulfill_StaleInFlightAttemptReclaimed(t *testing.T) {
	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 10)
	store.addKeys("game-a", "k1")
	attempts := newMemAttempts()
	// an attempt begun long ago and never settled, as after a crash
	// between beginning and settling
	attempts.attempts["token-1"] = &model.CheckoutAttempt{
		Token:     "token-1",
		UserID:    "user-1",
		Status:    model.AttemptInFlight,
		CreatedAt: time.Now().Add(-2 * repository.AttemptStaleAfter),
	}
	svc := NewFulfillmentService(store, attempts)

	receipt, err := svc.Fulfill(context.Background(), "user-1", "token-1", []model.CartLine{line("game-a", 1)})
	require.NoError(t, err)
	assert.Len(t, receipt.Orders, 1)
	assert.Equal(t, model.AttemptCompleted, attempts.attempts["token-1"].Status)
}

func TestFulfill_DuplicateInFlightRejected(t *testing.T) {
	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 10)
	store.addKeys("game-a", "k1")
	attempts := newMemAttempts()
	_, _, err := attempts.BeginAttempt(context.Background(), "token-1", "user-1")
	require.NoError(t, err)
	svc := NewFulfillmentService(store, attempts)

	_, err = svc.Fulfill(context.Background(), "user-1", "token-1", []model.CartLine{line("game-a", 1)})
	assert.ErrorIs(t, err, ErrDuplicateCheckout)
	assert.Empty(t, store.orders)
}

func TestFulfill_FailedAttemptTokenIsRetryable(t *testing.T) {
	store := newMemStore()
	store.addGame("game-a", "Nebula Drift", 10)
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.Fulfill(ctx, "user-1", "token-1", []model.CartLine{line("game-a", 1)})
	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)

	// stock arrives, the customer retries the same attempt
	store.mu.Lock()
	store.keys["game-a-key-k1"] = &model.GameKey{ID: "game-a-key-k1", GameID: "game-a", KeyValue: "k1", CreatedAt: time.Now()}
	store.mu.Unlock()

	receipt, err := svc.Fulfill(ctx, "user-1", "token-1", []model.CartLine{line("game-a", 1)})
	require.NoError(t, err)
	assert.Len(t, receipt.Orders, 1)
}

func TestNormalizeLines(t *testing.T) {
	got := normalizeLines([]model.CartLine{
		{GameID: "a", Quantity: 2},
		{GameID: "b", Quantity: 0},
		{GameID: "a", Quantity: 1},
		{GameID: "", Quantity: 3},
		{GameID: "c", Quantity: 1},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].GameID)
	assert.Equal(t, 3, got[0].Quantity, "duplicate lines merge into the first occurrence")
	assert.Equal(t, "c", got[1].GameID)
	assert.Equal(t, 1, got[1].Quantity)
}
