package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendance_tracker/internal/model"

	"github.com/jackc/pgx/v5"
)

// UserRepository defines operations for user data
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	// FindByIDForUpdate locks the user row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*model.User, error)
	ListEmployeesByStore(ctx context.Context, storeID string) ([]model.User, error)
	ConsumeStoreCredit(ctx context.Context, adminID string) error
}

type userRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `u.id, u.full_name, u.email, u.password_hash, u.role, u.store_id, u.store_creation_credits,
	ARRAY(SELECT s.id FROM stores s WHERE s.owner_id = u.id ORDER BY s.created_at, s.id) AS store_ids, u.created_at`

// Create inserts a new user. The role-specific columns come from user.Profile.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	var storeID *string
	var credits *int
	switch p := user.Profile.(type) {
	case model.EmployeeProfile:
		storeID = &p.StoreID
	case model.AdminProfile:
		credits = p.StoreCreationCredits
	default:
		return fmt.Errorf("failed to create user: missing role profile")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	sql := `INSERT INTO users (id, full_name, email, password_hash, role, store_id, store_creation_credits, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, sql, user.ID, user.FullName, user.Email, user.PasswordHash,
		string(user.Role()), storeID, credits, user.CreatedAt)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgUniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByEmail retrieves a user by their email address
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1`
	user, err := scanUser(r.db.QueryRow(ctx, sql, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindByID retrieves a user by their ID
func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findByID(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id)
}

func (r *userRepository) FindByIDForUpdate(ctx context.Context, id string) (*model.User, error) {
	return r.findByID(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1 FOR UPDATE OF u`, id)
}

func (r *userRepository) findByID(ctx context.Context, sql, id string) (*model.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// ListEmployeesByStore returns the employees enrolled at a store ordered by name.
func (r *userRepository) ListEmployeesByStore(ctx context.Context, storeID string) ([]model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users u
            WHERE u.role = 'employee' AND u.store_id = $1
            ORDER BY u.full_name, u.id`
	rows, err := r.db.Query(ctx, sql, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}
	return users, nil
}

// ConsumeStoreCredit decrements an admin's credits, failing with ErrNoCredits
// when none are left.
func (r *userRepository) ConsumeStoreCredit(ctx context.Context, adminID string) error {
	sql := `UPDATE users SET store_creation_credits = store_creation_credits - 1
            WHERE id = $1 AND role = 'admin' AND store_creation_credits >= 1`
	tag, err := r.db.Exec(ctx, sql, adminID)
	if err != nil {
		return fmt.Errorf("failed to consume store credit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoCredits
	}
	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u        model.User
		role     string
		storeID  *string
		credits  *int
		storeIDs []string
	)
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &role, &storeID, &credits, &storeIDs, &u.CreatedAt); err != nil {
		return nil, err
	}
	switch model.Role(role) {
	case model.RoleEmployee:
		p := model.EmployeeProfile{}
		if storeID != nil {
			p.StoreID = *storeID
		}
		u.Profile = p
	case model.RoleAdmin:
		u.Profile = model.AdminProfile{StoreIDs: storeIDs, StoreCreationCredits: credits}
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	return &u, nil
}
