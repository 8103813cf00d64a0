package service

import (
	"context"
	"fmt"

	"attendance_tracker/internal/attendance"
	"attendance_tracker/internal/live"
	"attendance_tracker/internal/model"
	"attendance_tracker/internal/repository"

	"golang.org/x/sync/errgroup"
)

// RosterService joins a store's employees with their latest check-in.
type RosterService interface {
	// Snapshot returns the roster only once every employee's status is known.
	Snapshot(ctx context.Context, storeID string) ([]model.RosterEntry, error)
	// Watch re-delivers a full snapshot whenever the store's employees or
	// their check-ins change.
	Watch(ctx context.Context, storeID string) *live.Stream[[]model.RosterEntry]
}

type rosterService struct {
	uow         repository.UnitOfWork
	hub         *live.Hub
	concurrency int
}

// NewRosterService creates a new RosterService
func NewRosterService(uow repository.UnitOfWork, hub *live.Hub, concurrency int) RosterService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &rosterService{uow: uow, hub: hub, concurrency: concurrency}
}

func (s *rosterService) Snapshot(ctx context.Context, storeID string) ([]model.RosterEntry, error) {
	employees, err := s.uow.Users().ListEmployeesByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	entries := make([]model.RosterEntry, len(employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	checkIns := s.uow.CheckIns()
	for i, e := range employees {
		i, e := i, e
		g.Go(func() error {
			last, err := checkIns.Latest(gctx, e.ID)
			if err != nil {
				return fmt.Errorf("failed to load status of %s: %w", e.ID, err)
			}
			entries[i] = model.RosterEntry{Employee: e, LastStatus: attendance.StatusOf(last)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *rosterService) Watch(ctx context.Context, storeID string) *live.Stream[[]model.RosterEntry] {
	return live.Watch(ctx, s.hub, func(ctx context.Context) ([]model.RosterEntry, error) {
		return s.Snapshot(ctx, storeID)
	}, live.StoreEmployeesTopic(storeID))
}
