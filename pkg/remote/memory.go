package remote

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/printloft/storefront/pkg/types"
)

// Operation names accepted by MemoryBackend.FailNext
const (
	OpGetCart    = "get_cart"
	OpAddLine    = "add_line"
	OpUpdateLine = "update_line"
	OpRemoveLine = "remove_line"
	OpClearCart  = "clear_cart"
	OpPlaceOrder = "place_order"
)

type memoryRecord struct {
	line types.CartLine
	seq  int
}

// MemoryBackend is an in-process Store with fault injection, used by tests and
// the single-process demo configuration.
type MemoryBackend struct {
	mu     sync.Mutex
	carts  map[string]map[string]*memoryRecord
	orders map[string][]*types.Order
	seq    int
	fail   map[string][]error
	calls  map[string]int
	delay  time.Duration
}

// NewMemoryBackend creates an empty in-memory remote store
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		carts:  make(map[string]map[string]*memoryRecord),
		orders: make(map[string][]*types.Order),
		fail:   make(map[string][]error),
		calls:  make(map[string]int),
	}
}

// FailNext queues err to be returned by the next call to op
func (m *MemoryBackend) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[op] = append(m.fail[op], err)
}

// SetDelay makes every call wait d (or until ctx is done) before running
func (m *MemoryBackend) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls returns how many times op has been invoked
func (m *MemoryBackend) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Orders returns the orders recorded for userID
func (m *MemoryBackend) Orders(userID string) []*types.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*types.Order, len(m.orders[userID]))
	copy(out, m.orders[userID])
	return out
}

// Seed stores lines for userID directly, bypassing fault injection
func (m *MemoryBackend) Seed(userID string, productID string, snapshot types.ProductSnapshot, qty int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(userID, productID, snapshot, qty)
}

// begin records the call, waits out any delay and pops a queued failure
func (m *MemoryBackend) begin(ctx context.Context, op string) error {
	m.mu.Lock()
	m.calls[op]++
	delay := m.delay
	var err error
	if queued := m.fail[op]; len(queued) > 0 {
		err = queued[0]
		m.fail[op] = queued[1:]
	}
	m.mu.Unlock()

	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (m *MemoryBackend) insertLocked(userID, productID string, snapshot types.ProductSnapshot, qty int) string {
	cart, ok := m.carts[userID]
	if !ok {
		cart = make(map[string]*memoryRecord)
		m.carts[userID] = cart
	}
	id := uuid.NewString()
	m.seq++
	cart[id] = &memoryRecord{
		line: types.CartLine{
			LineID:    id,
			RemoteID:  id,
			ProductID: productID,
			Product:   snapshot,
			Quantity:  qty,
		},
		seq: m.seq,
	}
	return id
}

// GetCart returns the user's lines in insertion order
func (m *MemoryBackend) GetCart(ctx context.Context, userID string) ([]types.CartLine, error) {
	if err := m.begin(ctx, OpGetCart); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, ErrInvalidUser
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]*memoryRecord, 0, len(m.carts[userID]))
	for _, r := range m.carts[userID] {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })

	lines := make([]types.CartLine, 0, len(records))
	for _, r := range records {
		lines = append(lines, r.line)
	}
	return lines, nil
}

// AddLine inserts a line for productID or adds qty to the existing one
func (m *MemoryBackend) AddLine(ctx context.Context, userID, productID string, snapshot types.ProductSnapshot, qty int) error {
	if err := m.begin(ctx, OpAddLine); err != nil {
		return err
	}
	if err := checkArgs(userID, qty); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.carts[userID] {
		if r.line.ProductID == productID {
			r.line.Quantity += qty
			return nil
		}
	}
	m.insertLocked(userID, productID, snapshot, qty)
	return nil
}

// UpdateLineQuantity sets the quantity of an existing line
func (m *MemoryBackend) UpdateLineQuantity(ctx context.Context, userID, lineID string, qty int) error {
	if err := m.begin(ctx, OpUpdateLine); err != nil {
		return err
	}
	if err := checkArgs(userID, qty); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.carts[userID][lineID]
	if !ok {
		return ErrNotFound
	}
	r.line.Quantity = qty
	return nil
}

// RemoveLine deletes a line. ErrNotFound if it does not exist.
func (m *MemoryBackend) RemoveLine(ctx context.Context, userID, lineID string) error {
	if err := m.begin(ctx, OpRemoveLine); err != nil {
		return err
	}
	if userID == "" {
		return ErrInvalidUser
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.carts[userID][lineID]; !ok {
		return ErrNotFound
	}
	delete(m.carts[userID], lineID)
	return nil
}

// ClearCart deletes every line the user owns
func (m *MemoryBackend) ClearCart(ctx context.Context, userID string) error {
	if err := m.begin(ctx, OpClearCart); err != nil {
		return err
	}
	if userID == "" {
		return ErrInvalidUser
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

// PlaceOrder records a completed order
func (m *MemoryBackend) PlaceOrder(ctx context.Context, order *types.Order) error {
	if err := m.begin(ctx, OpPlaceOrder); err != nil {
		return err
	}
	if order.UserID == "" {
		return ErrInvalidUser
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *order
	stored.Lines = types.CloneLines(order.Lines)
	m.orders[order.UserID] = append(m.orders[order.UserID], &stored)
	return nil
}
