package session

import (
	"sync"

	"github.com/printloft/storefront/pkg/log"
	"github.com/printloft/storefront/pkg/storage"
	"github.com/printloft/storefront/pkg/types"
)

// Listener is called after the signed-in user changes
type Listener func(prev, next types.Identity)

type subscription struct {
	id uint64
	fn Listener
}

// Option configures a Session
type Option func(*Session)

// WithStore persists every identity change to store
func WithStore(store storage.SessionStore) Option {
	return func(s *Session) {
		s.store = store
	}
}

// Session holds the current identity for the process. It is created once at
// startup and passed to everything that depends on who is signed in.
type Session struct {
	mu        sync.Mutex
	current   types.Identity
	listeners []subscription
	nextID    uint64
	store     storage.SessionStore
}

// New creates an anonymous session
func New(opts ...Option) *Session {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the persisted identity, notifying listeners if it differs
// from the current one. Without a store it does nothing.
func (s *Session) Restore() error {
	if s.store == nil {
		return nil
	}
	identity, err := s.store.LoadIdentity()
	if err != nil {
		return err
	}
	s.set(identity, false)
	return nil
}

// Current returns the signed-in identity, or the zero value when anonymous
func (s *Session) Current() types.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Authenticated reports whether a user is signed in
func (s *Session) Authenticated() bool {
	return !s.Current().IsAnonymous()
}

// SignIn makes identity the current user
func (s *Session) SignIn(identity types.Identity) error {
	return s.Set(identity)
}

// SignOut returns the session to anonymous
func (s *Session) SignOut() error {
	return s.Set(types.Identity{})
}

// Set replaces the current identity. Listeners run synchronously, in
// subscription order, and only when the user ID changes; profile-only updates
// are stored silently. A persistence error is returned after listeners ran.
func (s *Session) Set(identity types.Identity) error {
	return s.set(identity, true)
}

func (s *Session) set(identity types.Identity, persist bool) error {
	s.mu.Lock()
	prev := s.current
	s.current = identity
	changed := !prev.Same(identity)
	listeners := make([]subscription, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if changed {
		logger := log.WithUserID(identity.UserID)
		logger.Debug().
			Str("component", "session").
			Str("previous_user_id", prev.UserID).
			Msg("Identity changed")
		for _, l := range listeners {
			l.fn(prev, identity)
		}
	}

	if persist && s.store != nil {
		return s.store.SaveIdentity(identity)
	}
	return nil
}

// Subscribe registers fn for identity changes. The returned function removes
// it and is safe to call more than once.
func (s *Session) Subscribe(fn Listener) (cancel func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}
