package service

import (
	"context"
	"errors"
	"fmt"

	"attendance_tracker/internal/attendance"
	"attendance_tracker/internal/live"
	"attendance_tracker/internal/model"
	"attendance_tracker/internal/repository"

	"github.com/google/uuid"
)

var ErrEmployeeNotFound = errors.New("employee not found")

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// AttendanceService records check-ins and serves the derived views of them.
type AttendanceService interface {
	// Record appends the next event for userID at storeID. Writers for the
	// same user are serialized so the in/out alternation holds.
	Record(ctx context.Context, userID, storeID string) (*model.CheckIn, error)
	Status(ctx context.Context, userID string) (model.AttendanceStatus, error)
	WatchStatus(ctx context.Context, userID string) *live.Stream[model.AttendanceStatus]
	History(ctx context.Context, userID string, limit int) ([]model.CheckIn, error)
	// EmployeeHistory is History for an employee enrolled in one of adminID's stores.
	EmployeeHistory(ctx context.Context, adminID, employeeID string, limit int) ([]model.CheckIn, error)
}

type attendanceService struct {
	uow repository.UnitOfWork
	hub *live.Hub
}

// NewAttendanceService creates a new AttendanceService
func NewAttendanceService(uow repository.UnitOfWork, hub *live.Hub) AttendanceService {
	return &attendanceService{uow: uow, hub: hub}
}

func (s *attendanceService) Record(ctx context.Context, userID, storeID string) (*model.CheckIn, error) {
	var created *model.CheckIn
	err := s.uow.Within(ctx, func(tx repository.UnitOfWork) error {
		if err := tx.CheckIns().LockUser(ctx, userID); err != nil {
			return err
		}
		last, err := tx.CheckIns().Latest(ctx, userID)
		if err != nil {
			return err
		}
		c := &model.CheckIn{
			ID:      uuid.NewString(),
			UserID:  userID,
			StoreID: storeID,
			Type:    attendance.NextType(last),
		}
		if err := tx.CheckIns().Create(ctx, c); err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record check-in: %w", err)
	}
	return created, nil
}

func (s *attendanceService) Status(ctx context.Context, userID string) (model.AttendanceStatus, error) {
	last, err := s.uow.CheckIns().Latest(ctx, userID)
	if err != nil {
		return model.AttendanceStatus{}, fmt.Errorf("failed to load status: %w", err)
	}
	return attendance.Describe(last), nil
}

func (s *attendanceService) WatchStatus(ctx context.Context, userID string) *live.Stream[model.AttendanceStatus] {
	return live.Watch(ctx, s.hub, func(ctx context.Context) (model.AttendanceStatus, error) {
		return s.Status(ctx, userID)
	}, live.UserCheckInsTopic(userID))
}

func (s *attendanceService) History(ctx context.Context, userID string, limit int) ([]model.CheckIn, error) {
	history, err := s.uow.CheckIns().ListByUser(ctx, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if history == nil {
		history = []model.CheckIn{}
	}
	return history, nil
}

func (s *attendanceService) EmployeeHistory(ctx context.Context, adminID, employeeID string, limit int) ([]model.CheckIn, error) {
	employee, err := s.uow.Users().FindByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	if employee == nil {
		return nil, ErrEmployeeNotFound
	}
	profile, ok := employee.Employee()
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	store, err := s.uow.Stores().FindByID(ctx, profile.StoreID)
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	if store == nil || store.OwnerID != adminID {
		return nil, ErrEmployeeNotFound
	}
	return s.History(ctx, employeeID, limit)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	}
	return limit
}
