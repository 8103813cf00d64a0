package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"attendance_tracker/internal/logger"
	"attendance_tracker/internal/model"
	"attendance_tracker/internal/repository"
	"attendance_tracker/internal/utils"

	"github.com/google/uuid"
)

var (
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidReferenceCode = errors.New("invalid store reference code")
)

// AuthService provides authentication related services
type AuthService interface {
	// RegisterAdmin creates the admin and the founding store atomically. The
	// founding store does not consume a creation credit.
	RegisterAdmin(ctx context.Context, req model.RegisterAdminRequest) (*model.User, *model.Store, string, error)
	// RegisterEmployee enrolls the new user into the store owning the reference code.
	RegisterEmployee(ctx context.Context, req model.RegisterEmployeeRequest) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
}

type authService struct {
	uow            repository.UnitOfWork
	jwtUtil        *utils.JWTUtil
	initialCredits int
	codeAttempts   int
	log            *logger.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(uow repository.UnitOfWork, jwtUtil *utils.JWTUtil, initialCredits, codeAttempts int, log *logger.Logger) AuthService {
	if codeAttempts < 1 {
		codeAttempts = 1
	}
	return &authService{
		uow:            uow,
		jwtUtil:        jwtUtil,
		initialCredits: initialCredits,
		codeAttempts:   codeAttempts,
		log:            log,
	}
}

func (s *authService) RegisterAdmin(ctx context.Context, req model.RegisterAdminRequest) (*model.User, *model.Store, string, error) {
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	credits := s.initialCredits
	user := &model.User{
		ID:           uuid.NewString(),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hashedPassword,
		Profile:      model.AdminProfile{StoreCreationCredits: &credits},
		CreatedAt:    time.Now().UTC(),
	}
	store, err := newStore(user.ID, req.Store)
	if err != nil {
		return nil, nil, "", err
	}

	err = s.uow.Within(ctx, func(tx repository.UnitOfWork) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		return insertStore(ctx, tx, store, s.codeAttempts)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, nil, "", ErrUserAlreadyExists
		}
		return nil, nil, "", mapStoreError(err)
	}
	user.Profile = model.AdminProfile{StoreIDs: []string{store.ID}, StoreCreationCredits: &credits}
	s.log.Info(s.log.WithUserID(ctx, user.ID), "admin registered")

	token, err := s.issueToken(user)
	if err != nil {
		return user, store, "", fmt.Errorf("user created, but failed to generate token: %w", err)
	}
	return user, store, token, nil
}

func (s *authService) RegisterEmployee(ctx context.Context, req model.RegisterEmployeeRequest) (*model.User, string, error) {
	code := utils.NormalizeReferenceCode(req.ReferenceCode)
	if !utils.IsReferenceCode(code) {
		return nil, "", ErrInvalidReferenceCode
	}
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}
	err = s.uow.Within(ctx, func(tx repository.UnitOfWork) error {
		store, err := tx.Stores().FindByReferenceCode(ctx, code)
		if err != nil {
			return err
		}
		if store == nil {
			return ErrInvalidReferenceCode
		}
		user.Profile = model.EmployeeProfile{StoreID: store.ID}
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidReferenceCode):
			return nil, "", err
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, "", ErrUserAlreadyExists
		}
		return nil, "", fmt.Errorf("failed to create user in repository: %w", err)
	}
	s.log.Info(s.log.WithUserID(ctx, user.ID), "employee enrolled")

	token, err := s.issueToken(user)
	if err != nil {
		return user, "", fmt.Errorf("user created, but failed to generate token: %w", err)
	}
	return user, token, nil
}

// Login authenticates a user and returns a JWT token
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.uow.Users().FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// issueToken signs a session token; employees carry their store in it.
func (s *authService) issueToken(user *model.User) (string, error) {
	id := utils.Identity{UserID: user.ID, Role: string(user.Role())}
	if p, ok := user.Employee(); ok {
		id.StoreID = p.StoreID
	}
	return s.jwtUtil.GenerateToken(id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
