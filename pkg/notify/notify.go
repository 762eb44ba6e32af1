// Package notify implements the single-slot, auto-expiring notification channel.
//
// At most one notification is visible. Issuing a new one replaces the message
// and restarts the dismissal timer; each timer carries the generation it was
// started for, so a stale timer can never hide a newer message.
package notify

import (
	"strconv"
	"sync"
	"time"

	"github.com/printloft/storefront/pkg/events"
	"github.com/printloft/storefront/pkg/log"
	"github.com/printloft/storefront/pkg/metrics"
	"github.com/printloft/storefront/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultTimeout is how long a notification stays visible
const DefaultTimeout = 3 * time.Second

// Notifier is implemented by anything that can show a user-facing message
type Notifier interface {
	Notify(message string)
}

// Option configures a Channel
type Option func(*Channel)

// WithTimeout overrides the auto-dismiss timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPublisher publishes shown/dismissed events to p
func WithPublisher(p events.Publisher) Option {
	return func(c *Channel) {
		c.publisher = p
	}
}

// Channel is the notification slot
type Channel struct {
	mu         sync.Mutex
	timeout    time.Duration
	current    types.Notification
	generation uint64
	timer      *time.Timer
	publisher  events.Publisher
	logger     zerolog.Logger
}

// New creates an empty notification channel
func New(opts ...Option) *Channel {
	c := &Channel{
		timeout: DefaultTimeout,
		logger:  log.WithComponent("notify"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notify shows message, pre-empting whatever is currently visible
func (c *Channel) Notify(message string) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	if c.timer != nil {
		c.timer.Stop()
	}
	c.current = types.Notification{Visible: true, Message: message}
	c.timer = time.AfterFunc(c.timeout, func() { c.expire(gen) })
	c.mu.Unlock()

	metrics.NotificationsTotal.Inc()
	c.logger.Debug().Uint64("generation", gen).Str("message", message).Msg("Notification shown")
	events.Emit(c.publisher, events.EventNotificationShown, message, map[string]string{
		"generation": strconv.FormatUint(gen, 10),
	})
}

// Current returns the visible notification, or the zero value when none is shown
func (c *Channel) Current() types.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Dismiss hides the current notification immediately
func (c *Channel) Dismiss() {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()
	c.expire(gen)
}

// Close stops any pending timer
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// expire hides the notification only if it is still the one started as gen
func (c *Channel) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || !c.current.Visible {
		c.mu.Unlock()
		return
	}
	message := c.current.Message
	c.current = types.Notification{}
	c.timer = nil
	c.mu.Unlock()

	events.Emit(c.publisher, events.EventNotificationDismissed, message, map[string]string{
		"generation": strconv.FormatUint(gen, 10),
	})
}
