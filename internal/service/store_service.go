package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"attendance_tracker/internal/geo"
	"attendance_tracker/internal/logger"
	"attendance_tracker/internal/model"
	"attendance_tracker/internal/repository"
	"attendance_tracker/internal/utils"

	"github.com/google/uuid"
)

var (
	ErrStoreNotFound          = errors.New("store not found")
	ErrNotAdmin               = errors.New("only admins can manage stores")
	ErrNoStoreCredits         = errors.New("no store creation credits left")
	ErrDuplicateQRPayload     = errors.New("qr payload is already used by another store")
	ErrStoreHasEmployees      = errors.New("store still has enrolled employees")
	ErrReferenceCodeExhausted = errors.New("could not allocate a unique reference code")
	ErrInvalidStore           = errors.New("invalid store data")
)

// StoreService manages an admin's stores
type StoreService interface {
	List(ctx context.Context, adminID string) ([]model.Store, error)
	// Get returns ErrStoreNotFound for stores the admin does not own.
	Get(ctx context.Context, adminID, storeID string) (*model.Store, error)
	Create(ctx context.Context, adminID string, req model.CreateStoreRequest) (*model.Store, error)
	Update(ctx context.Context, adminID, storeID string, req model.UpdateStoreRequest) (*model.Store, error)
	Delete(ctx context.Context, adminID, storeID string) error
}

type storeService struct {
	uow          repository.UnitOfWork
	codeAttempts int
	log          *logger.Logger
}

// NewStoreService creates a new StoreService
func NewStoreService(uow repository.UnitOfWork, codeAttempts int, log *logger.Logger) StoreService {
	if codeAttempts < 1 {
		codeAttempts = 1
	}
	return &storeService{uow: uow, codeAttempts: codeAttempts, log: log}
}

func (s *storeService) List(ctx context.Context, adminID string) ([]model.Store, error) {
	stores, err := s.uow.Stores().ListByOwner(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	if stores == nil {
		stores = []model.Store{}
	}
	return stores, nil
}

func (s *storeService) Get(ctx context.Context, adminID, storeID string) (*model.Store, error) {
	store, err := s.uow.Stores().FindByID(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	if store == nil || store.OwnerID != adminID {
		return nil, ErrStoreNotFound
	}
	return store, nil
}

// Create adds a store beyond the founding one, consuming one creation credit
// in the same transaction.
func (s *storeService) Create(ctx context.Context, adminID string, req model.CreateStoreRequest) (*model.Store, error) {
	store, err := newStore(adminID, req)
	if err != nil {
		return nil, err
	}

	err = s.uow.Within(ctx, func(tx repository.UnitOfWork) error {
		admin, err := tx.Users().FindByIDForUpdate(ctx, adminID)
		if err != nil {
			return err
		}
		if admin == nil || admin.Role() != model.RoleAdmin {
			return ErrNotAdmin
		}
		if err := tx.Users().ConsumeStoreCredit(ctx, adminID); err != nil {
			if errors.Is(err, repository.ErrNoCredits) {
				return ErrNoStoreCredits
			}
			return err
		}
		return insertStore(ctx, tx, store, s.codeAttempts)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	s.log.Info(s.log.WithStoreID(ctx, store.ID), "store created")
	return store, nil
}

func (s *storeService) Update(ctx context.Context, adminID, storeID string, req model.UpdateStoreRequest) (*model.Store, error) {
	store, err := s.Get(ctx, adminID, storeID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		store.Name = strings.TrimSpace(*req.Name)
	}
	if req.QRPayload != nil {
		store.QRPayload = strings.TrimSpace(*req.QRPayload)
	}
	if req.Latitude != nil {
		store.Location.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		store.Location.Longitude = *req.Longitude
	}
	if store.Name == "" || store.QRPayload == "" {
		return nil, fmt.Errorf("%w: name and qr payload must not be empty", ErrInvalidStore)
	}
	if err := store.Location.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStore, err)
	}

	if err := s.uow.Stores().Update(ctx, store); err != nil {
		return nil, mapStoreError(err)
	}
	return store, nil
}

// Delete removes a store. Stores with enrolled employees are kept so that
// every employee keeps pointing at an existing store.
func (s *storeService) Delete(ctx context.Context, adminID, storeID string) error {
	if err := s.uow.Stores().Delete(ctx, storeID, adminID); err != nil {
		return mapStoreError(err)
	}
	s.log.Info(s.log.WithStoreID(ctx, storeID), "store deleted")
	return nil
}

func newStore(ownerID string, req model.CreateStoreRequest) (*model.Store, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Latitude == nil || req.Longitude == nil {
		return nil, fmt.Errorf("%w: name and coordinates are required", ErrInvalidStore)
	}
	loc := geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err := loc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStore, err)
	}
	qr := strings.TrimSpace(req.QRPayload)
	if qr == "" {
		qr = utils.DefaultQRPayload(name)
	}
	return &model.Store{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		Location:  loc,
		QRPayload: qr,
	}, nil
}

// insertStore assigns a fresh reference code, retrying on collisions. Each
// attempt runs in its own savepoint so a conflict does not abort tx.
func insertStore(ctx context.Context, tx repository.UnitOfWork, store *model.Store, attempts int) error {
	for i := 0; i < attempts; i++ {
		code, err := utils.GenerateReferenceCode()
		if err != nil {
			return err
		}
		store.ReferenceCode = code
		err = tx.Within(ctx, func(sp repository.UnitOfWork) error {
			return sp.Stores().Create(ctx, store)
		})
		if errors.Is(err, repository.ErrDuplicateReferenceCode) {
			continue
		}
		return err
	}
	return ErrReferenceCodeExhausted
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrStoreNotFound
	case errors.Is(err, repository.ErrDuplicateQRPayload):
		return ErrDuplicateQRPayload
	case errors.Is(err, repository.ErrStoreInUse):
		return ErrStoreHasEmployees
	case errors.Is(err, ErrStoreNotFound), errors.Is(err, ErrNotAdmin), errors.Is(err, ErrNoStoreCredits),
		errors.Is(err, ErrReferenceCodeExhausted), errors.Is(err, ErrInvalidStore):
		return err
	}
	return fmt.Errorf("store operation failed: %w", err)
}
