package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound               = errors.New("record not found")
	ErrDuplicateEmail         = errors.New("email already in use")
	ErrDuplicateQRPayload     = errors.New("qr payload already used by another store")
	ErrDuplicateReferenceCode = errors.New("reference code already used by another store")
	ErrStoreInUse             = errors.New("store still has enrolled employees")
	ErrNoCredits              = errors.New("no store creation credits left")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// DB is the query surface shared by *pgxpool.Pool, pgx.Tx and pgxmock.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// UnitOfWork hands out repositories bound to one handle and runs closures
// atomically.
type UnitOfWork interface {
	Users() UserRepository
	Stores() StoreRepository
	CheckIns() CheckInRepository
	// Within commits when fn returns nil and rolls back otherwise.
	Within(ctx context.Context, fn func(tx UnitOfWork) error) error
}

type unitOfWork struct {
	db DB
}

// NewUnitOfWork creates a UnitOfWork over db
func NewUnitOfWork(db DB) UnitOfWork {
	return &unitOfWork{db: db}
}

func (u *unitOfWork) Users() UserRepository { return NewUserRepository(u.db) }
func (u *unitOfWork) Stores() StoreRepository { return NewStoreRepository(u.db) }
func (u *unitOfWork) CheckIns() CheckInRepository { return NewCheckInRepository(u.db) }

func (u *unitOfWork) Within(ctx context.Context, fn func(tx UnitOfWork) error) error {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&unitOfWork{db: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func pgErrorCode(err error) (code, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}
