package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/printloft/storefront/pkg/events"
	"github.com/printloft/storefront/pkg/log"
	"github.com/printloft/storefront/pkg/metrics"
	"github.com/printloft/storefront/pkg/remote"
	"github.com/printloft/storefront/pkg/storage"
	"github.com/printloft/storefront/pkg/types"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	// ErrBackend wraps every persistence failure returned by the store
	ErrBackend = errors.New("cart: backend failure")

	// ErrQuantityTooLarge is returned when an increase would overflow a line quantity
	ErrQuantityTooLarge = errors.New("cart: quantity too large")
)

// User-facing messages
const (
	MsgBackendFailure = "Something went wrong. Please try again."
	MsgRemoved        = "Item removed from cart"
	MsgAdded          = "Added to cart"
	MsgTooMany        = "That quantity is too large"
)

// Notifier shows user-facing messages
type Notifier interface {
	Notify(message string)
}

// Option configures a Store
type Option func(*Store)

// WithPublisher publishes cart events to p
func WithPublisher(p events.Publisher) Option {
	return func(s *Store) {
		s.publisher = p
	}
}

// WithClock overrides the clock used for local line IDs
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// Store is the single source of truth for cart contents. It dispatches every
// operation to the backend strategy selected for the current identity.
//
// Every failure is surfaced through the Notifier before the error is returned,
// and leaves the in-memory lines as they were before the call.
type Store struct {
	mu        sync.Mutex
	lines     []types.CartLine
	backend   backend
	epoch     uint64 // bumped on every backend switch
	local     storage.KV
	notifier  Notifier
	publisher events.Publisher
	clock     func() time.Time
	logger    zerolog.Logger
}

// New creates a store in anonymous mode backed by local. Call Reload to read
// the persisted local copy.
func New(local storage.KV, notifier Notifier, opts ...Option) *Store {
	s := &Store{
		lines:    []types.CartLine{},
		local:    local,
		notifier: notifier,
		clock:    time.Now,
		logger:   log.WithComponent("cart"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.backend = s.localBackend()
	return s
}

func (s *Store) localBackend() backend {
	return &localBackend{kv: s.local, clock: s.clock}
}

// UseAnonymous makes the local device store authoritative and reloads from it
func (s *Store) UseAnonymous(ctx context.Context) error {
	s.SwitchAnonymous()
	return s.Reload(ctx)
}

// UseAuthenticated makes userID's remote cart authoritative and reloads from it
func (s *Store) UseAuthenticated(ctx context.Context, userID string, rb remote.Backend) error {
	s.SwitchAuthenticated(userID, rb)
	return s.Reload(ctx)
}

// SwitchAnonymous selects the local backend without reloading. The cart is
// empty until the next Reload.
func (s *Store) SwitchAnonymous() {
	s.swap(s.localBackend())
}

// SwitchAuthenticated selects userID's remote cart without reloading. Once it
// returns, no further writes reach the local store.
func (s *Store) SwitchAuthenticated(userID string, rb remote.Backend) {
	s.swap(&remoteBackend{remote: rb, userID: userID})
}

// swap installs b and empties the in-memory cart. In-flight calls started
// against the previous backend will not be applied.
func (s *Store) swap(b backend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.backend = b
	s.lines = []types.CartLine{}
	metrics.CartLines.Set(0)
}

// Reload replaces the in-memory cart with the authoritative backend's contents
func (s *Store) Reload(ctx context.Context) error {
	_, err := s.run(ctx, "reload", func(b backend, _ []types.CartLine) ([]types.CartLine, error) {
		return b.load(ctx)
	})
	if err != nil {
		return s.fail("reload", err)
	}
	events.Emit(s.publisher, events.EventCartReloaded, "", map[string]string{"mode": string(s.Mode())})
	return nil
}

// Add puts one unit of productID in the cart, creating the line if needed
func (s *Store) Add(ctx context.Context, productID string, snapshot types.ProductSnapshot) error {
	if productID == "" {
		return nil
	}
	if line, ok := s.Line(productID); ok && line.Quantity == math.MaxInt {
		s.count("add", metrics.ResultInvalid)
		s.notify(MsgTooMany)
		return fmt.Errorf("%w: product %s", ErrQuantityTooLarge, productID)
	}

	applied, err := s.run(ctx, "add", func(b backend, current []types.CartLine) ([]types.CartLine, error) {
		return b.add(ctx, current, productID, snapshot)
	})
	if err != nil {
		return s.fail("add", err)
	}
	if !applied {
		return nil
	}

	s.logger.Debug().Str("product_id", productID).Msg("Line added")
	msg := MsgAdded
	if snapshot.Name != "" {
		msg = fmt.Sprintf("Added %s to cart", snapshot.Name)
	}
	s.notify(msg)
	meta := map[string]string{"product_id": productID}
	events.Emit(s.publisher, events.EventCartLineAdded, msg, meta)
	events.Emit(s.publisher, events.EventCartOpened, "", nil)
	return nil
}

// UpdateQuantity changes a line's quantity by delta. A result of zero or less
// removes the line. Unknown line IDs are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, lineID string, delta int) error {
	line, ok := s.find(lineID)
	if !ok {
		s.count("update", metrics.ResultNoop)
		return nil
	}
	if delta == 0 {
		return nil
	}

	qty := line.Quantity + delta
	if delta > 0 && qty < line.Quantity {
		s.count("update", metrics.ResultInvalid)
		s.notify(MsgTooMany)
		return fmt.Errorf("%w: line %s", ErrQuantityTooLarge, lineID)
	}
	if qty <= 0 {
		return s.Remove(ctx, lineID)
	}

	applied, err := s.run(ctx, "update", func(b backend, current []types.CartLine) ([]types.CartLine, error) {
		return b.setQuantity(ctx, current, line, qty)
	})
	if err != nil {
		return s.fail("update", err)
	}
	if applied {
		logger := log.WithLineID(lineID)
		logger.Debug().Int("quantity", qty).Msg("Line quantity updated")
		events.Emit(s.publisher, events.EventCartLineUpdated, "", map[string]string{"line_id": lineID})
	}
	return nil
}

// Remove deletes a line. Unknown line IDs are ignored.
func (s *Store) Remove(ctx context.Context, lineID string) error {
	line, ok := s.find(lineID)
	if !ok {
		s.count("remove", metrics.ResultNoop)
		return nil
	}

	applied, err := s.run(ctx, "remove", func(b backend, current []types.CartLine) ([]types.CartLine, error) {
		return b.remove(ctx, current, line)
	})
	if err != nil {
		return s.fail("remove", err)
	}
	if applied {
		logger := log.WithLineID(lineID)
		logger.Debug().Msg("Line removed")
		s.notify(MsgRemoved)
		events.Emit(s.publisher, events.EventCartLineRemoved, MsgRemoved, map[string]string{"line_id": lineID})
	}
	return nil
}

// Clear empties the cart in the authoritative backend. Clearing an empty cart
// does nothing.
func (s *Store) Clear(ctx context.Context) error {
	if s.IsEmpty() {
		s.count("clear", metrics.ResultNoop)
		return nil
	}

	applied, err := s.run(ctx, "clear", func(b backend, _ []types.CartLine) ([]types.CartLine, error) {
		return b.clear(ctx)
	})
	if err != nil {
		return s.fail("clear", err)
	}
	if applied {
		events.Emit(s.publisher, events.EventCartCleared, "", nil)
	}
	return nil
}

// run executes op against the current backend. Synchronous backends run under
// the lock; others run unlocked and their result is applied only if no backend
// switch happened meanwhile. The in-memory lines change only on success.
func (s *Store) run(ctx context.Context, op string, fn func(b backend, current []types.CartLine) ([]types.CartLine, error)) (applied bool, err error) {
	s.mu.Lock()
	b, epoch := s.backend, s.epoch
	mode := string(b.mode())
	timer := metrics.NewTimer()

	var next []types.CartLine
	if b.synchronous() {
		next, err = fn(b, s.lines)
		if err == nil {
			s.setLines(next)
			applied = true
		}
		s.mu.Unlock()
	} else {
		current := types.CloneLines(s.lines)
		s.mu.Unlock()

		next, err = fn(b, current)

		s.mu.Lock()
		if err == nil && epoch == s.epoch {
			s.setLines(next)
			applied = true
		}
		s.mu.Unlock()
	}

	timer.ObserveDurationVec(metrics.CartBackendDuration, op, mode)
	metrics.ReportBackend(b.component(), err)

	switch {
	case err != nil:
		s.count(op, metrics.ResultFailed)
		err = fmt.Errorf("%w: %s: %w", ErrBackend, op, err)
	case !applied:
		s.logger.Debug().Str("op", op).Msg("Discarding result from a previous session")
		s.count(op, metrics.ResultNoop)
	default:
		s.count(op, metrics.ResultOK)
	}
	return applied, err
}

// setLines must be called with mu held
func (s *Store) setLines(lines []types.CartLine) {
	s.lines = types.CloneLines(lines)
	metrics.CartLines.Set(float64(len(s.lines)))
}

func (s *Store) fail(op string, err error) error {
	s.logger.Error().Err(err).Str("op", op).Str("mode", string(s.Mode())).Msg("Cart operation failed")
	s.notify(MsgBackendFailure)
	events.Emit(s.publisher, events.EventCartFailed, err.Error(), map[string]string{"op": op})
	return err
}

func (s *Store) notify(message string) {
	if s.notifier != nil {
		s.notifier.Notify(message)
	}
}

func (s *Store) count(op, result string) {
	metrics.CartOperationsTotal.WithLabelValues(op, string(s.Mode()), result).Inc()
}

func (s *Store) find(lineID string) (types.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := types.FindByLineID(s.lines, lineID)
	if idx < 0 {
		return types.CartLine{}, false
	}
	return s.lines[idx], true
}

// Lines returns a copy of the cart lines
func (s *Store) Lines() []types.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.CloneLines(s.lines)
}

// Line returns the line holding productID
func (s *Store) Line(productID string) (types.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := types.FindByProduct(s.lines, productID)
	if idx < 0 {
		return types.CartLine{}, false
	}
	return s.lines[idx], true
}

// Len returns the number of lines
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// IsEmpty reports whether the cart has no lines
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// Mode returns the mode of the authoritative backend
func (s *Store) Mode() types.CartMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.mode()
}

// Total returns the sum of quantity × price over all lines
func (s *Store) Total() decimal.Decimal {
	return Total(s.Lines())
}

// Total sums quantity × price. Missing prices and quantities contribute 0.
func Total(lines []types.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
