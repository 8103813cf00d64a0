package live

import (
	"context"
	"sync"
)

// Views tracks the live views each user has open so that sign-out can end
// them all before the session goes away.
type Views struct {
	mu     sync.Mutex
	next   uint64
	byUser map[string]map[uint64]*view
}

type view struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewViews() *Views {
	return &Views{byUser: make(map[string]map[uint64]*view)}
}

// Track derives a context that is cancelled by CloseAll(userID). The caller
// must call release once the view has released its subscriptions.
func (v *Views) Track(parent context.Context, userID string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	vw := &view{cancel: cancel, done: make(chan struct{})}

	v.mu.Lock()
	v.next++
	id := v.next
	set, ok := v.byUser[userID]
	if !ok {
		set = make(map[uint64]*view)
		v.byUser[userID] = set
	}
	set[id] = vw
	v.mu.Unlock()

	release := func() {
		vw.once.Do(func() {
			cancel()
			v.mu.Lock()
			if set, ok := v.byUser[userID]; ok {
				delete(set, id)
				if len(set) == 0 {
					delete(v.byUser, userID)
				}
			}
			v.mu.Unlock()
			close(vw.done)
		})
	}
	return ctx, release
}

// CloseAll cancels every view of userID and waits until each is released or
// ctx is done. It returns how many views were open.
func (v *Views) CloseAll(ctx context.Context, userID string) (int, error) {
	v.mu.Lock()
	views := make([]*view, 0, len(v.byUser[userID]))
	for _, vw := range v.byUser[userID] {
		views = append(views, vw)
	}
	v.mu.Unlock()

	for _, vw := range views {
		vw.cancel()
	}
	for _, vw := range views {
		select {
		case <-vw.done:
		case <-ctx.Done():
			return len(views), ctx.Err()
		}
	}
	return len(views), nil
}

// Count returns the number of open views of userID.
func (v *Views) Count(userID string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.byUser[userID])
}
