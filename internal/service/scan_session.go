package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"attendance_tracker/internal/model"
)

// SessionStore keeps one scan session per user. A user without a stored
// session is Idle.
type SessionStore interface {
	Get(ctx context.Context, userID string) (model.ScanSession, error)
	// Transition stores next only if the current state is one of from. It
	// returns the session now stored and whether the swap happened.
	Transition(ctx context.Context, userID string, from []model.ScanState, next model.ScanSession) (model.ScanSession, bool, error)
	// Sweep forgets sessions not updated since cutoff and returns how many.
	// Sessions awaiting a result are kept until awaitingCutoff instead.
	Sweep(ctx context.Context, cutoff, awaitingCutoff time.Time) (int, error)
}

// awaitingTTLFactor stretches the lifetime of a session awaiting a result.
const awaitingTTLFactor = 3

// sessionTTL returns how long a session in state may go untouched.
func sessionTTL(state model.ScanState, ttl time.Duration) time.Duration {
	if state == model.ScanAwaitingResult {
		return ttl * awaitingTTLFactor
	}
	return ttl
}

func idleSession(userID string) model.ScanSession {
	return model.ScanSession{UserID: userID, State: model.ScanIdle}
}

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]model.ScanSession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]model.ScanSession)}
}

func (m *MemorySessionStore) Get(_ context.Context, userID string) (model.ScanSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s, nil
	}
	return idleSession(userID), nil
}

func (m *MemorySessionStore) Transition(_ context.Context, userID string, from []model.ScanState, next model.ScanSession) (model.ScanSession, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.sessions[userID]
	if !ok {
		cur = idleSession(userID)
	}
	if !slices.Contains(from, cur.State) {
		return cur, false, nil
	}
	next.UserID = userID
	m.sessions[userID] = next
	return next, true, nil
}

func (m *MemorySessionStore) Sweep(_ context.Context, cutoff, awaitingCutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.sessions {
		limit := cutoff
		if s.State == model.ScanAwaitingResult {
			limit = awaitingCutoff
		}
		if s.UpdatedAt.Before(limit) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}
