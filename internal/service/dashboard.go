package service

import (
	"context"
	"errors"
	"sync"

	"attendance_tracker/internal/live"
	"attendance_tracker/internal/logger"
	"attendance_tracker/internal/model"

	"github.com/google/uuid"
)

var ErrViewNotFound = errors.New("dashboard view not found")

const dashboardEventBuffer = 8

// Dashboard is one admin's live view: the owned store tabs plus the roster
// of the selected store. A single goroutine owns the subscriptions, so at
// most one roster subscription is open at any time.
type Dashboard struct {
	ID      string
	AdminID string

	events chan model.DashboardEvent
	cmds   chan selectCmd
	done   chan struct{}
	cancel context.CancelFunc

	stores StoreService
	roster RosterService
	hub    *live.Hub
	log    *logger.Logger
}

type selectCmd struct {
	storeID string
	reply   chan error
}

// Events is closed when the view ends.
func (d *Dashboard) Events() <-chan model.DashboardEvent {
	return d.events
}

func (d *Dashboard) Done() <-chan struct{} {
	return d.done
}

// Close ends the view and waits until its subscriptions are released.
func (d *Dashboard) Close() {
	d.cancel()
	<-d.done
}

// Select switches the roster to storeID. The previous roster subscription is
// closed before the new one opens.
func (d *Dashboard) Select(ctx context.Context, storeID string) error {
	cmd := selectCmd{storeID: storeID, reply: make(chan error, 1)}
	select {
	case d.cmds <- cmd:
	case <-d.done:
		return ErrViewNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-d.done:
		return ErrViewNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dashboard) run(ctx context.Context, wanted string) {
	defer close(d.done)
	defer close(d.events)

	stores := live.Watch(ctx, d.hub, func(ctx context.Context) ([]model.Store, error) {
		return d.stores.List(ctx, d.AdminID)
	}, live.OwnerStoresTopic(d.AdminID))
	defer stores.Close()

	var (
		owned    []model.Store
		selected string
		roster   *live.Stream[[]model.RosterEntry]
		rosterC  <-chan []model.RosterEntry
		loaded   bool
	)
	switchTo := func(storeID string) {
		if roster != nil {
			roster.Close()
			roster, rosterC = nil, nil
		}
		selected = storeID
		if storeID != "" {
			roster = d.roster.Watch(ctx, storeID)
			rosterC = roster.C
		}
	}
	defer func() {
		if roster != nil {
			roster.Close()
		}
	}()

	if !d.emit(ctx, model.DashboardEvent{Kind: model.DashboardEventView, ViewID: d.ID}) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return

		case list, ok := <-stores.C:
			if !ok {
				if err := stores.Err(); err != nil {
					d.log.Error(ctx, "dashboard store subscription failed", err)
					d.emit(ctx, model.DashboardEvent{Kind: model.DashboardEventError, ViewID: d.ID, Error: err.Error()})
				}
				return
			}
			owned = list
			if !loaded {
				loaded = true
				if !ownsStore(owned, wanted) {
					wanted = firstStoreID(owned)
				}
				switchTo(wanted)
			} else if !ownsStore(owned, selected) {
				switchTo(firstStoreID(owned))
			}
			if !d.emit(ctx, model.DashboardEvent{Kind: model.DashboardEventStores, ViewID: d.ID, SelectedStoreID: selected, Stores: owned}) {
				return
			}

		case entries, ok := <-rosterC:
			if !ok {
				err := roster.Err()
				roster, rosterC = nil, nil
				if err != nil {
					d.log.Error(d.log.WithStoreID(ctx, selected), "roster subscription failed", err)
					if !d.emit(ctx, model.DashboardEvent{Kind: model.DashboardEventError, ViewID: d.ID, SelectedStoreID: selected, Error: err.Error()}) {
						return
					}
				}
				continue
			}
			if entries == nil {
				entries = []model.RosterEntry{}
			}
			if !d.emit(ctx, model.DashboardEvent{Kind: model.DashboardEventRoster, ViewID: d.ID, SelectedStoreID: selected, Roster: entries}) {
				return
			}

		case cmd := <-d.cmds:
			if !loaded || !ownsStore(owned, cmd.storeID) {
				cmd.reply <- ErrStoreNotFound
				continue
			}
			switchTo(cmd.storeID)
			cmd.reply <- nil
		}
	}
}

func (d *Dashboard) emit(ctx context.Context, ev model.DashboardEvent) bool {
	select {
	case d.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func ownsStore(stores []model.Store, id string) bool {
	if id == "" {
		return false
	}
	for _, s := range stores {
		if s.ID == id {
			return true
		}
	}
	return false
}

func firstStoreID(stores []model.Store) string {
	if len(stores) == 0 {
		return ""
	}
	return stores[0].ID
}

// DashboardRegistry tracks open dashboards so they can be addressed by id
// and torn down on sign-out.
type DashboardRegistry struct {
	mu    sync.Mutex
	views map[string]*Dashboard

	tracker *live.Views
	stores  StoreService
	roster  RosterService
	hub     *live.Hub
	log     *logger.Logger
}

func NewDashboardRegistry(tracker *live.Views, stores StoreService, roster RosterService, hub *live.Hub, log *logger.Logger) *DashboardRegistry {
	return &DashboardRegistry{
		views:   make(map[string]*Dashboard),
		tracker: tracker,
		stores:  stores,
		roster:  roster,
		hub:     hub,
		log:     log,
	}
}

// Open starts a dashboard for adminID. storeID is the preferred selection;
// when empty or not owned the first owned store is selected.
func (r *DashboardRegistry) Open(ctx context.Context, adminID, storeID string) *Dashboard {
	viewCtx, release := r.tracker.Track(context.WithoutCancel(ctx), adminID)
	viewCtx, cancel := context.WithCancel(viewCtx)
	d := &Dashboard{
		ID:      uuid.NewString(),
		AdminID: adminID,
		events:  make(chan model.DashboardEvent, dashboardEventBuffer),
		cmds:    make(chan selectCmd),
		done:    make(chan struct{}),
		cancel:  cancel,
		stores:  r.stores,
		roster:  r.roster,
		hub:     r.hub,
		log:     r.log,
	}

	r.mu.Lock()
	r.views[d.ID] = d
	r.mu.Unlock()

	go d.run(viewCtx, storeID)
	go func() {
		<-d.done
		cancel()
		r.mu.Lock()
		delete(r.views, d.ID)
		r.mu.Unlock()
		release()
	}()
	return d
}

// Get returns the admin's view with the given id.
func (r *DashboardRegistry) Get(adminID, viewID string) (*Dashboard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.views[viewID]
	if !ok || d.AdminID != adminID {
		return nil, ErrViewNotFound
	}
	return d, nil
}

func (r *DashboardRegistry) Select(ctx context.Context, adminID, viewID, storeID string) error {
	d, err := r.Get(adminID, viewID)
	if err != nil {
		return err
	}
	return d.Select(ctx, storeID)
}

// Count returns the number of open dashboards of adminID.
func (r *DashboardRegistry) Count(adminID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, d := range r.views {
		if d.AdminID == adminID {
			n++
		}
	}
	return n
}
