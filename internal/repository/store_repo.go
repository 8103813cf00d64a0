package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendance_tracker/internal/model"

	"github.com/jackc/pgx/v5"
)

// StoreRepository defines operations for store data
type StoreRepository interface {
	Create(ctx context.Context, store *model.Store) error
	Update(ctx context.Context, store *model.Store) error
	Delete(ctx context.Context, id, ownerID string) error
	FindByID(ctx context.Context, id string) (*model.Store, error)
	FindByQRPayload(ctx context.Context, payload string) (*model.Store, error)
	FindByReferenceCode(ctx context.Context, code string) (*model.Store, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Store, error)
}

type storeRepository struct {
	db DB
}

// NewStoreRepository creates a new StoreRepository
func NewStoreRepository(db DB) StoreRepository {
	return &storeRepository{db: db}
}

const storeColumns = `id, owner_id, name, latitude, longitude, qr_payload, reference_code, created_at, updated_at`

func (r *storeRepository) Create(ctx context.Context, store *model.Store) error {
	now := time.Now().UTC()
	if store.CreatedAt.IsZero() {
		store.CreatedAt = now
	}
	store.UpdatedAt = store.CreatedAt

	sql := `INSERT INTO stores (` + storeColumns + `)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, sql, store.ID, store.OwnerID, store.Name, store.Location.Latitude,
		store.Location.Longitude, store.QRPayload, store.ReferenceCode, store.CreatedAt, store.UpdatedAt)
	if err != nil {
		if mapped := mapStoreConflict(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create store: %w", err)
	}
	return nil
}

// Update writes the mutable fields of a store owned by store.OwnerID.
func (r *storeRepository) Update(ctx context.Context, store *model.Store) error {
	sql := `UPDATE stores SET name = $1, latitude = $2, longitude = $3, qr_payload = $4
            WHERE id = $5 AND owner_id = $6
            RETURNING updated_at`
	err := r.db.QueryRow(ctx, sql, store.Name, store.Location.Latitude, store.Location.Longitude,
		store.QRPayload, store.ID, store.OwnerID).Scan(&store.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if mapped := mapStoreConflict(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update store: %w", err)
	}
	return nil
}

// Delete removes a store. Stores that still have employees are refused with
// ErrStoreInUse.
func (r *storeRepository) Delete(ctx context.Context, id, ownerID string) error {
	sql := `DELETE FROM stores WHERE id = $1 AND owner_id = $2`
	tag, err := r.db.Exec(ctx, sql, id, ownerID)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return ErrStoreInUse
		}
		return fmt.Errorf("failed to delete store: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *storeRepository) FindByID(ctx context.Context, id string) (*model.Store, error) {
	return r.findOne(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = $1`, id)
}

// FindByQRPayload matches the scanned text exactly.
func (r *storeRepository) FindByQRPayload(ctx context.Context, payload string) (*model.Store, error) {
	return r.findOne(ctx, `SELECT `+storeColumns+` FROM stores WHERE qr_payload = $1`, payload)
}

func (r *storeRepository) FindByReferenceCode(ctx context.Context, code string) (*model.Store, error) {
	return r.findOne(ctx, `SELECT `+storeColumns+` FROM stores WHERE reference_code = $1`, code)
}

func (r *storeRepository) findOne(ctx context.Context, sql string, arg string) (*model.Store, error) {
	store, err := scanStore(r.db.QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find store: %w", err)
	}
	return store, nil
}

// ListByOwner returns an admin's stores, oldest first.
func (r *storeRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Store, error) {
	sql := `SELECT ` + storeColumns + ` FROM stores WHERE owner_id = $1 ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, sql, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}
	defer rows.Close()

	var stores []model.Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		stores = append(stores, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stores: %w", err)
	}
	return stores, nil
}

func scanStore(row pgx.Row) (*model.Store, error) {
	var s model.Store
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Location.Latitude, &s.Location.Longitude,
		&s.QRPayload, &s.ReferenceCode, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func mapStoreConflict(err error) error {
	code, constraint := pgErrorCode(err)
	if code != pgUniqueViolation {
		return nil
	}
	switch constraint {
	case "stores_qr_payload_key":
		return ErrDuplicateQRPayload
	case "stores_reference_code_key":
		return ErrDuplicateReferenceCode
	}
	return nil
}
