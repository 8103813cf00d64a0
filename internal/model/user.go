package model

import (
	"encoding/json"
	"time"
)

// Role is immutable once a user is created.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Profile is the role-specific half of a user. Only EmployeeProfile and
// AdminProfile implement it.
type Profile interface {
	Role() Role
	isProfile()
}

// EmployeeProfile belongs to exactly one store.
type EmployeeProfile struct {
	StoreID string
}

func (EmployeeProfile) Role() Role { return RoleEmployee }
func (EmployeeProfile) isProfile() {}

// AdminProfile owns zero or more stores. StoreCreationCredits is nil when the
// admin was never granted credits.
type AdminProfile struct {
	StoreIDs             []string
	StoreCreationCredits *int
}

func (AdminProfile) Role() Role { return RoleAdmin }
func (AdminProfile) isProfile() {}

// User represents a signed-up account
type User struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string // never serialized
	Profile      Profile
	CreatedAt    time.Time
}

// Role reports the user's role, or "" when the profile is missing.
func (u User) Role() Role {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.Role()
}

func (u User) Employee() (EmployeeProfile, bool) {
	p, ok := u.Profile.(EmployeeProfile)
	return p, ok
}

func (u User) Admin() (AdminProfile, bool) {
	p, ok := u.Profile.(AdminProfile)
	return p, ok
}

type userJSON struct {
	ID                   string    `json:"id"`
	FullName             string    `json:"full_name"`
	Email                string    `json:"email"`
	Role                 Role      `json:"role"`
	StoreID              string    `json:"store_id,omitempty"`
	StoreIDs             []string  `json:"store_ids,omitempty"`
	StoreCreationCredits *int      `json:"store_creation_credits,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

func (u User) MarshalJSON() ([]byte, error) {
	out := userJSON{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      u.Role(),
		CreatedAt: u.CreatedAt,
	}
	switch p := u.Profile.(type) {
	case EmployeeProfile:
		out.StoreID = p.StoreID
	case AdminProfile:
		out.StoreIDs = p.StoreIDs
		if out.StoreIDs == nil {
			out.StoreIDs = []string{}
		}
		out.StoreCreationCredits = p.StoreCreationCredits
	}
	return json.Marshal(out)
}

// RegisterAdminRequest signs up an admin together with the founding store
type RegisterAdminRequest struct {
	FullName string             `json:"full_name" binding:"required,min=6"`
	Email    string             `json:"email" binding:"required,email"`
	Password string             `json:"password" binding:"required,strongpwd"`
	Store    CreateStoreRequest `json:"store" binding:"required"`
}

// RegisterEmployeeRequest enrolls an employee into the store owning ReferenceCode
type RegisterEmployeeRequest struct {
	FullName      string `json:"full_name" binding:"required,min=6"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,strongpwd"`
	ReferenceCode string `json:"reference_code" binding:"required,refcode"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
