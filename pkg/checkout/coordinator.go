package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/printloft/storefront/pkg/cart"
	"github.com/printloft/storefront/pkg/events"
	"github.com/printloft/storefront/pkg/log"
	"github.com/printloft/storefront/pkg/metrics"
	"github.com/printloft/storefront/pkg/remote"
	"github.com/printloft/storefront/pkg/types"
	"github.com/rs/zerolog"
)

// User-facing messages
const (
	MsgEmptyCart         = "Your cart is empty"
	MsgIncompleteAddress = "Please fill in all required address fields"
	MsgNoPaymentMethod   = "Please select a payment method"
	MsgIncompletePayment = "Please fill in all payment details"
	MsgUnsupportedMethod = "That payment method is not available"
	MsgWrongStep         = "Please restart checkout"
	MsgInProgress        = "Your order is already being placed"
	MsgOrderPlaced       = "Order placed successfully!"
)

// Cart is the part of the cart store checkout reads and clears
type Cart interface {
	Lines() []types.CartLine
	IsEmpty() bool
	Mode() types.CartMode
	Clear(ctx context.Context) error
}

// IdentitySource reports who is signed in
type IdentitySource interface {
	Current() types.Identity
}

// Notifier shows user-facing messages
type Notifier interface {
	Notify(message string)
}

// Mailer sends an order confirmation to the signed-in user
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, to types.Identity, order *types.Order) error
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithOrderRecorder records authenticated orders server-side before the cart is cleared
func WithOrderRecorder(r remote.OrderRecorder) Option {
	return func(c *Coordinator) {
		c.recorder = r
	}
}

// WithMailer sends a confirmation after each order. Mail failures are logged only.
func WithMailer(m Mailer) Option {
	return func(c *Coordinator) {
		c.mailer = m
	}
}

// WithClock overrides the clock used for StartedAt and PlacedAt
func WithClock(clock func() time.Time) Option {
	return func(c *Coordinator) {
		c.clock = clock
	}
}

// WithIDGenerator overrides how order IDs are generated
func WithIDGenerator(fn func() string) Option {
	return func(c *Coordinator) {
		c.newID = fn
	}
}

// WithPublisher publishes checkout events to p
func WithPublisher(p events.Publisher) Option {
	return func(c *Coordinator) {
		c.publisher = p
	}
}

// Coordinator drives one checkout at a time through
// idle → address → payment → idle. Every rejected action is notified and
// leaves the step where it was.
type Coordinator struct {
	mu       sync.Mutex
	session  types.CheckoutSession
	placing  bool
	recorded *types.Order // recorded server-side but cart not yet cleared

	cart      Cart
	identity  IdentitySource
	notifier  Notifier
	recorder  remote.OrderRecorder
	mailer    Mailer
	clock     func() time.Time
	newID     func() string
	publisher events.Publisher
	logger    zerolog.Logger
}

// New creates an idle coordinator
func New(c Cart, identity IdentitySource, notifier Notifier, opts ...Option) *Coordinator {
	co := &Coordinator{
		session:  types.CheckoutSession{Step: types.StepIdle},
		cart:     c,
		identity: identity,
		notifier: notifier,
		clock:    time.Now,
		newID:    uuid.NewString,
		logger:   log.WithComponent("checkout"),
	}
	for _, opt := range opts {
		opt(co)
	}
	return co
}

// Step returns the current step
func (c *Coordinator) Step() types.CheckoutStep {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Step
}

// Session returns a copy of the current checkout session
func (c *Coordinator) Session() types.CheckoutSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	if s.Address != nil {
		addr := *s.Address
		s.Address = &addr
	}
	return s
}

// Start begins a new checkout at address capture. Any session in progress is
// discarded; checkout never resumes from a later step.
func (c *Coordinator) Start() error {
	c.mu.Lock()
	if c.placing {
		c.mu.Unlock()
		return c.reject(ErrInProgress, MsgInProgress)
	}
	if c.cart.IsEmpty() {
		c.mu.Unlock()
		return c.reject(ErrEmptyCart, MsgEmptyCart)
	}
	from := c.session.Step
	c.session = types.CheckoutSession{
		Step:      types.StepAddressCapture,
		StartedAt: c.clock(),
	}
	c.recorded = nil
	c.mu.Unlock()

	c.advance(from, types.StepAddressCapture)
	events.Emit(c.publisher, events.EventCheckoutStarted, "", nil)
	return nil
}

// SubmitAddress accepts a shipping address and moves to payment capture.
// Every required field must be non-blank.
func (c *Coordinator) SubmitAddress(addr types.Address) error {
	addr = addr.Normalize()

	c.mu.Lock()
	if c.session.Step != types.StepAddressCapture {
		c.mu.Unlock()
		return c.reject(ErrWrongStep, MsgWrongStep)
	}
	if missing := addr.Missing(); len(missing) > 0 {
		c.mu.Unlock()
		return c.reject(fmt.Errorf("%w: missing %s", ErrIncompleteAddress, strings.Join(missing, ", ")), MsgIncompleteAddress)
	}
	c.session.Address = &addr
	c.session.Step = types.StepPaymentCapture
	c.mu.Unlock()

	c.advance(types.StepAddressCapture, types.StepPaymentCapture)
	return nil
}

// SubmitPayment validates the payment selection and places the order
func (c *Coordinator) SubmitPayment(ctx context.Context, method types.PaymentMethod, details types.PaymentDetails) (*types.Order, error) {
	c.mu.Lock()
	if c.session.Step != types.StepPaymentCapture {
		c.mu.Unlock()
		return nil, c.reject(ErrWrongStep, MsgWrongStep)
	}
	if msg, err := validatePayment(method, details); err != nil {
		c.mu.Unlock()
		return nil, c.reject(err, msg)
	}
	c.session.PaymentMethod = method
	c.session.Payment = details
	c.mu.Unlock()

	return c.Complete(ctx)
}

// Complete places the order with the payment selection already accepted by
// SubmitPayment. It is used to retry after a backend failure.
func (c *Coordinator) Complete(ctx context.Context) (*types.Order, error) {
	c.mu.Lock()
	if c.session.Step != types.StepPaymentCapture {
		c.mu.Unlock()
		return nil, c.reject(ErrWrongStep, MsgWrongStep)
	}
	if c.session.PaymentMethod == "" {
		c.mu.Unlock()
		return nil, c.reject(ErrNoPaymentMethod, MsgNoPaymentMethod)
	}
	if c.placing {
		c.mu.Unlock()
		return nil, c.reject(ErrInProgress, MsgInProgress)
	}
	c.placing = true
	sess := c.session
	recorded := c.recorded
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.placing = false
		c.mu.Unlock()
	}()

	return c.place(ctx, sess, recorded)
}

func (c *Coordinator) place(ctx context.Context, sess types.CheckoutSession, recorded *types.Order) (*types.Order, error) {
	identity := c.identity.Current()
	mode := c.cart.Mode()

	order := recorded
	if order == nil {
		lines := c.cart.Lines()
		if len(lines) == 0 {
			return nil, c.reject(ErrEmptyCart, MsgEmptyCart)
		}
		order = &types.Order{
			ID:       c.newID(),
			UserID:   identity.UserID,
			Lines:    lines,
			Total:    cart.Total(lines),
			Address:  *sess.Address,
			Method:   sess.PaymentMethod,
			PlacedAt: c.clock(),
		}

		if !identity.IsAnonymous() && c.recorder != nil {
			if err := c.recorder.PlaceOrder(ctx, order); err != nil {
				c.logger.Error().Err(err).Str("order_id", order.ID).Msg("Failed to record order")
				return nil, c.reject(fmt.Errorf("%w: %w", ErrOrderFailed, err), cart.MsgBackendFailure)
			}
			c.mu.Lock()
			c.recorded = order
			c.mu.Unlock()
		}
	}

	// The store has already notified the failure
	if err := c.cart.Clear(ctx); err != nil {
		c.logger.Error().Err(err).Str("order_id", order.ID).Msg("Failed to clear cart after order")
		c.count(err)
		events.Emit(c.publisher, events.EventCheckoutRejected, err.Error(), map[string]string{"reason": Kind(err)})
		return nil, fmt.Errorf("%w: %w", ErrOrderFailed, err)
	}

	c.notify(MsgOrderPlaced)
	c.logger.Info().
		Str("order_id", order.ID).
		Str("user_id", order.UserID).
		Str("total", order.Total.StringFixed(2)).
		Str("method", string(order.Method)).
		Msg("Order placed")

	if c.mailer != nil && identity.Email != "" {
		if err := c.mailer.SendOrderConfirmation(ctx, identity, order); err != nil {
			c.logger.Warn().Err(err).Str("order_id", order.ID).Msg("Failed to send order confirmation")
		}
	}

	c.mu.Lock()
	c.session = types.CheckoutSession{Step: types.StepIdle}
	c.recorded = nil
	c.mu.Unlock()

	metrics.OrdersPlacedTotal.WithLabelValues(string(mode)).Inc()
	c.advance(types.StepPaymentCapture, types.StepIdle)
	events.Emit(c.publisher, events.EventOrderPlaced, MsgOrderPlaced, map[string]string{
		"order_id": order.ID,
		"total":    order.Total.String(),
	})
	return order, nil
}

// Cancel abandons the checkout from any step. The cart is untouched.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	from := c.session.Step
	c.session = types.CheckoutSession{Step: types.StepIdle}
	c.recorded = nil
	c.mu.Unlock()

	if from == types.StepIdle {
		return
	}
	c.advance(from, types.StepIdle)
	events.Emit(c.publisher, events.EventCheckoutCancelled, "", map[string]string{"from": from.String()})
}

func validatePayment(method types.PaymentMethod, details types.PaymentDetails) (string, error) {
	if method == "" {
		return MsgNoPaymentMethod, ErrNoPaymentMethod
	}
	if !method.Supported() {
		return MsgUnsupportedMethod, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
	if missing := details.MissingFor(method); len(missing) > 0 {
		return MsgIncompletePayment, fmt.Errorf("%w: missing %s", ErrIncompletePayment, strings.Join(missing, ", "))
	}
	return "", nil
}

func (c *Coordinator) reject(err error, msg string) error {
	c.logger.Debug().Err(err).Str("step", c.Step().String()).Msg("Checkout action rejected")
	c.notify(msg)
	c.count(err)
	events.Emit(c.publisher, events.EventCheckoutRejected, msg, map[string]string{"reason": Kind(err)})
	return err
}

func (c *Coordinator) advance(from, to types.CheckoutStep) {
	metrics.CheckoutTransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
	c.logger.Info().Str("from", from.String()).Str("to", to.String()).Msg("Checkout step changed")
	if to != types.StepIdle {
		events.Emit(c.publisher, events.EventCheckoutAdvanced, "", map[string]string{
			"from": from.String(),
			"to":   to.String(),
		})
	}
}

func (c *Coordinator) count(err error) {
	metrics.CheckoutRejectionsTotal.WithLabelValues(Kind(err)).Inc()
}

func (c *Coordinator) notify(message string) {
	if c.notifier != nil {
		c.notifier.Notify(message)
	}
}
