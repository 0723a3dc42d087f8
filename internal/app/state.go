// Package app holds the client's application state. State is a value:
// update functions return a new State instead of mutating shared fields,
// and the Store publishes every new State to its subscribers so the view
// renders from snapshots rather than reaching into live fields.
package app

import (
	"sync"
	"time"

	"realestate.dapp/redapp/internal/types"
)

// State is everything the view renders.
type State struct {
	Account     string           `json:"account"`
	Connected   bool             `json:"connected"`
	Properties  []types.Property `json:"properties"`
	RefreshedAt time.Time        `json:"refreshed_at"`
	Pending     string           `json:"pending,omitempty"` // Hash of the in-flight mutation, if any
}

// WithSession records the connected account.
func (s State) WithSession(account string) State {
	s.Account = account
	s.Connected = true
	return s
}

// WithProperties replaces the property set wholesale.
func (s State) WithProperties(props []types.Property, at time.Time) State {
	s.Properties = types.CloneAll(props)
	s.RefreshedAt = at
	return s
}

// WithPending marks a mutation in flight; an empty hash clears it.
func (s State) WithPending(hash string) State {
	s.Pending = hash
	return s
}

// Store owns the current State and fans it out to subscribers.
type Store struct {
	mu      sync.RWMutex
	current State
	subs    map[chan State]struct{}
}

// NewStore creates a store holding the zero State.
func NewStore() *Store {
	return &Store{subs: make(map[chan State]struct{})}
}

// Current returns the latest State.
func (s *Store) Current() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Apply runs update against the current State, stores the result and
// notifies subscribers.
func (s *Store) Apply(update func(State) State) State {
	s.mu.Lock()
	next := update(s.current)
	s.current = next
	for ch := range s.subs {
		select {
		case ch <- next:
		default:
			// Subscriber is behind; drop the stale value and deliver the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- next:
			default:
			}
		}
	}
	s.mu.Unlock()
	return next
}

// Subscribe returns a channel that receives the current State immediately
// and every later State. Call the returned func to unsubscribe.
func (s *Store) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	ch <- s.current
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			close(ch)
			s.mu.Unlock()
		})
	}
}
