package live

import (
	"errors"
	"strings"
	"sync"

	"attendance_tracker/internal/metrics"
)

// ErrClosed is reported by subscriptions closed by their owner.
var ErrClosed = errors.New("subscription closed")

const (
	storeEmployeesPrefix = "store-employees:"
	ownerStoresPrefix    = "owner-stores:"
	userCheckInsPrefix   = "user-checkins:"
)

// StoreEmployeesTopic changes when a store's employee set or their check-ins change.
func StoreEmployeesTopic(storeID string) string { return storeEmployeesPrefix + storeID }

// OwnerStoresTopic changes when an admin's store set changes.
func OwnerStoresTopic(adminID string) string { return ownerStoresPrefix + adminID }

// UserCheckInsTopic changes when a user appends a check-in.
func UserCheckInsTopic(userID string) string { return userCheckInsPrefix + userID }

// ValidTopic reports whether a payload names a known topic.
func ValidTopic(topic string) bool {
	for _, p := range []string{storeEmployeesPrefix, ownerStoresPrefix, userCheckInsPrefix} {
		if strings.HasPrefix(topic, p) && len(topic) > len(p) {
			return true
		}
	}
	return false
}

// Hub fans change signals out to subscribers by topic. Signals carry no data;
// subscribers re-read the state they care about.
type Hub struct {
	mu      sync.Mutex
	subs    map[string]map[*Subscription]struct{}
	metrics *metrics.Metrics
}

// NewHub creates a Hub. m may be nil.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{}), metrics: m}
}

// Subscription receives a coalesced signal on C whenever one of its topics
// changes. After a failure C is signalled once more and Err is non-nil.
type Subscription struct {
	C <-chan struct{}

	c      chan struct{}
	hub    *Hub
	topics []string

	mu     sync.Mutex
	err    error
	closed bool
}

func (h *Hub) Subscribe(topics ...string) *Subscription {
	c := make(chan struct{}, 1)
	s := &Subscription{C: c, c: c, hub: h, topics: topics}

	h.mu.Lock()
	for _, t := range topics {
		set, ok := h.subs[t]
		if !ok {
			set = make(map[*Subscription]struct{})
			h.subs[t] = set
		}
		set[s] = struct{}{}
	}
	h.mu.Unlock()

	h.metrics.SubscriptionOpened()
	return s
}

// Publish signals every subscriber of topic.
func (h *Hub) Publish(topic string) {
	h.mu.Lock()
	targets := make([]*Subscription, 0, len(h.subs[topic]))
	for s := range h.subs[topic] {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	for _, s := range targets {
		s.notify()
	}
}

// Fail terminates every current subscription with err.
func (h *Hub) Fail(err error) {
	h.mu.Lock()
	seen := make(map[*Subscription]struct{})
	for _, set := range h.subs {
		for s := range set {
			seen[s] = struct{}{}
		}
	}
	h.mu.Unlock()

	for s := range seen {
		s.fail(err)
	}
}

// Subscribers returns the number of subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	for _, t := range s.topics {
		if set, ok := h.subs[t]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, t)
			}
		}
	}
	h.mu.Unlock()
}

func (s *Subscription) notify() {
	select {
	case s.c <- struct{}{}:
	default:
	}
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	if s.closed || s.err != nil {
		s.mu.Unlock()
		return
	}
	s.err = err
	s.mu.Unlock()
	s.notify()
}

// Err returns the terminal error, if any.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.err == nil {
		s.err = ErrClosed
	}
	s.mu.Unlock()

	s.hub.remove(s)
	s.hub.metrics.SubscriptionClosed()
}
