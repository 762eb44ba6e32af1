package events

import (
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventCartLineAdded   EventType = "cart.line.added"
	EventCartLineUpdated EventType = "cart.line.updated"
	EventCartLineRemoved EventType = "cart.line.removed"
	EventCartCleared     EventType = "cart.cleared"
	EventCartReloaded    EventType = "cart.reloaded"
	EventCartOpened      EventType = "cart.opened"
	EventCartFailed      EventType = "cart.failed"

	EventSessionSignedIn  EventType = "session.signed_in"
	EventSessionSignedOut EventType = "session.signed_out"
	EventSessionSwitched  EventType = "session.switched"

	EventCheckoutStarted   EventType = "checkout.started"
	EventCheckoutAdvanced  EventType = "checkout.advanced"
	EventCheckoutRejected  EventType = "checkout.rejected"
	EventCheckoutCancelled EventType = "checkout.cancelled"
	EventOrderPlaced       EventType = "checkout.order_placed"

	EventNotificationShown     EventType = "notification.shown"
	EventNotificationDismissed EventType = "notification.dismissed"
)

// Event represents a storefront event
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Message   string
	Metadata  map[string]string
}

// Subscriber is a channel that receives events
type Subscriber chan *Event

// Publisher is implemented by anything events can be sent to
type Publisher interface {
	Publish(event *Event)
}

// Broker manages event subscriptions and distribution
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 100), // Buffer up to 100 events
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's event distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker. It is safe to call more than once.
func (b *Broker) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)
	})
}

// Subscribe creates a new subscription and returns a channel
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50) // Buffer per subscriber
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub)
}

// Publish queues an event for all subscribers. It never blocks the caller:
// when the queue is full or the broker is stopped the event is dropped.
func (b *Broker) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case <-b.stopCh:
		return
	default:
	}

	select {
	case b.eventCh <- event:
	default:
		// Queue full, drop
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, skip
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Emit publishes an event of type t to p when p is non-nil
func Emit(p Publisher, t EventType, message string, metadata map[string]string) {
	if p == nil {
		return
	}
	p.Publish(&Event{
		Type:     t,
		Message:  message,
		Metadata: metadata,
	})
}
