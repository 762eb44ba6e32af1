package session

import (
	"context"
	"errors"
	"sync"

	"github.com/printloft/storefront/pkg/cart"
	"github.com/printloft/storefront/pkg/events"
	"github.com/printloft/storefront/pkg/log"
	"github.com/printloft/storefront/pkg/metrics"
	"github.com/printloft/storefront/pkg/remote"
	"github.com/printloft/storefront/pkg/storage"
	"github.com/printloft/storefront/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Transition directions, used as metric labels
const (
	DirectionInitial = "initial"
	DirectionLogin   = "login"
	DirectionLogout  = "logout"
	DirectionSwitch  = "switch"
)

// Notifier shows user-facing messages
type Notifier interface {
	Notify(message string)
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithNotifier reports local discard failures through n
func WithNotifier(n Notifier) HandlerOption {
	return func(h *Handler) {
		h.notifier = n
	}
}

// WithPublisher publishes session events to p
func WithPublisher(p events.Publisher) HandlerOption {
	return func(h *Handler) {
		h.publisher = p
	}
}

// Handler keeps the cart store's backend in step with the session identity.
// Each distinct user ID is applied exactly once; repeated notifications for
// the same identity do nothing.
type Handler struct {
	sess      *Session
	store     *cart.Store
	local     storage.KV
	remote    remote.Backend
	notifier  Notifier
	publisher events.Publisher
	logger    zerolog.Logger

	mu       sync.Mutex // serializes transitions
	ctx      context.Context
	applied  types.Identity
	attached bool
	cancel   func()
}

// NewHandler creates a handler. Call Attach to start following sess.
func NewHandler(sess *Session, store *cart.Store, local storage.KV, rb remote.Backend, opts ...HandlerOption) *Handler {
	h := &Handler{
		sess:   sess,
		store:  store,
		local:  local,
		remote: rb,
		logger: log.WithComponent("session"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Attach applies the current identity and then follows every change. ctx is
// used for the backend calls of later transitions.
func (h *Handler) Attach(ctx context.Context) error {
	h.mu.Lock()
	h.ctx = ctx
	h.mu.Unlock()

	cancel := h.sess.Subscribe(func(_, next types.Identity) {
		h.mu.Lock()
		ctx := h.ctx
		h.mu.Unlock()
		// Failures have already been notified and logged
		_ = h.Apply(ctx, next)
	})

	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	return h.Apply(ctx, h.sess.Current())
}

// Detach stops following the session
func (h *Handler) Detach() {
	h.mu.Lock()
	cancel := h.cancel
	h.cancel = nil
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Apply moves the cart to the backend for next. The mode switches even when
// the reload fails, so the cart shows empty rather than another identity's lines.
func (h *Handler) Apply(ctx context.Context, next types.Identity) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.attached && h.applied.Same(next) {
		h.applied = next
		return nil
	}
	prev, first := h.applied, !h.attached
	h.applied, h.attached = next, true

	var (
		direction string
		event     events.EventType
		err       error
	)
	switch {
	case next.IsAnonymous():
		direction, event = DirectionLogout, events.EventSessionSignedOut
		if first {
			direction, event = DirectionInitial, ""
		}
		err = h.store.UseAnonymous(ctx)

	case first:
		// Restored sign-in: the anonymous cart was discarded when it happened
		direction = DirectionInitial
		err = h.store.UseAuthenticated(ctx, next.UserID, h.remote)

	case prev.IsAnonymous():
		direction, event = DirectionLogin, events.EventSessionSignedIn
		err = h.login(ctx, next)

	default:
		direction, event = DirectionSwitch, events.EventSessionSwitched
		err = h.store.UseAuthenticated(ctx, next.UserID, h.remote)
	}

	metrics.SessionTransitionsTotal.WithLabelValues(direction).Inc()
	logger := h.logger.With().Str("direction", direction).Str("user_id", next.UserID).Logger()
	if err != nil {
		logger.Error().Err(err).Msg("Session transition completed with errors")
	} else {
		logger.Info().Int("lines", h.store.Len()).Msg("Session transition completed")
	}

	if event != "" {
		events.Emit(h.publisher, event, "", map[string]string{
			"from": prev.UserID,
			"to":   next.UserID,
		})
	}
	return err
}

// login discards the anonymous cart without merging it, then loads the
// user's remote cart. The local copy is removed only after the switch so a
// late anonymous write cannot recreate it.
func (h *Handler) login(ctx context.Context, next types.Identity) error {
	h.store.SwitchAuthenticated(next.UserID, h.remote)

	var (
		g                     errgroup.Group
		discardErr, reloadErr error
	)
	g.Go(func() error {
		discardErr = h.local.Remove(storage.CartKey)
		metrics.ReportBackend(metrics.ComponentLocalStore, discardErr)
		if discardErr != nil {
			h.logger.Warn().Err(discardErr).Msg("Failed to discard anonymous cart")
			if h.notifier != nil {
				h.notifier.Notify(cart.MsgBackendFailure)
			}
		}
		return nil
	})
	g.Go(func() error {
		reloadErr = h.store.Reload(ctx)
		return nil
	})
	_ = g.Wait()

	return errors.Join(reloadErr, discardErr)
}
