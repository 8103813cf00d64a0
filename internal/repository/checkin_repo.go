package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendance_tracker/internal/model"

	"github.com/jackc/pgx/v5"
)

// CheckInRepository defines operations for the append-only check-in log.
// Rows without a timestamp are never returned.
type CheckInRepository interface {
	// LockUser serializes check-in writers for one user within a transaction.
	LockUser(ctx context.Context, userID string) error
	Latest(ctx context.Context, userID string) (*model.CheckIn, error)
	// Create appends an event and fills in the server-assigned timestamp.
	Create(ctx context.Context, c *model.CheckIn) error
	ListByUser(ctx context.Context, userID string, limit int) ([]model.CheckIn, error)
	// ListForUsers returns events in [from, to) ordered by user then time.
	ListForUsers(ctx context.Context, userIDs []string, from, to time.Time) ([]model.CheckIn, error)
}

type checkInRepository struct {
	db DB
}

// NewCheckInRepository creates a new CheckInRepository
func NewCheckInRepository(db DB) CheckInRepository {
	return &checkInRepository{db: db}
}

const checkInColumns = `id, user_id, store_id, type, timestamp`

func (r *checkInRepository) LockUser(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
		return fmt.Errorf("failed to lock check-ins: %w", err)
	}
	return nil
}

func (r *checkInRepository) Latest(ctx context.Context, userID string) (*model.CheckIn, error) {
	sql := `SELECT ` + checkInColumns + ` FROM check_ins
            WHERE user_id = $1 AND timestamp IS NOT NULL
            ORDER BY timestamp DESC, seq DESC LIMIT 1`
	c, err := scanCheckIn(r.db.QueryRow(ctx, sql, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest check-in: %w", err)
	}
	return c, nil
}

// Create stamps the row with clock_timestamp() rather than NOW(), so a caller
// that waited on the per-user advisory lock gets the time it actually wrote.
func (r *checkInRepository) Create(ctx context.Context, c *model.CheckIn) error {
	sql := `INSERT INTO check_ins (id, user_id, store_id, type, timestamp)
            VALUES ($1, $2, $3, $4, clock_timestamp()) RETURNING timestamp`
	var ts time.Time
	if err := r.db.QueryRow(ctx, sql, c.ID, c.UserID, c.StoreID, string(c.Type)).Scan(&ts); err != nil {
		return fmt.Errorf("failed to create check-in: %w", err)
	}
	c.Timestamp = &ts
	return nil
}

// ListByUser returns the user's history newest first.
func (r *checkInRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.CheckIn, error) {
	sql := `SELECT ` + checkInColumns + ` FROM check_ins
            WHERE user_id = $1 AND timestamp IS NOT NULL
            ORDER BY timestamp DESC, seq DESC LIMIT $2`
	rows, err := r.db.Query(ctx, sql, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	return collectCheckIns(rows)
}

func (r *checkInRepository) ListForUsers(ctx context.Context, userIDs []string, from, to time.Time) ([]model.CheckIn, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	sql := `SELECT ` + checkInColumns + ` FROM check_ins
            WHERE user_id = ANY($1) AND timestamp IS NOT NULL AND timestamp >= $2 AND timestamp < $3
            ORDER BY user_id, timestamp, seq`
	rows, err := r.db.Query(ctx, sql, userIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	return collectCheckIns(rows)
}

func collectCheckIns(rows pgx.Rows) ([]model.CheckIn, error) {
	defer rows.Close()
	var out []model.CheckIn
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check-ins: %w", err)
	}
	return out, nil
}

func scanCheckIn(row pgx.Row) (*model.CheckIn, error) {
	var (
		c   model.CheckIn
		typ string
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.StoreID, &typ, &c.Timestamp); err != nil {
		return nil, err
	}
	c.Type = model.CheckInType(typ)
	return &c, nil
}
