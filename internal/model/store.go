package model

import (
	"time"

	"attendance_tracker/internal/geo"
)

// Store is a physical location employees check in to.
type Store struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Name          string    `json:"name"`
	Location      geo.Point `json:"location"`
	QRPayload     string    `json:"qr_payload"`
	ReferenceCode string    `json:"reference_code"` // immutable once assigned
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateStoreRequest is used for creating a store. QRPayload defaults to a value
// derived from Name.
type CreateStoreRequest struct {
	Name      string   `json:"name" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required,latitude"`
	Longitude *float64 `json:"longitude" binding:"required,longitude"`
	QRPayload string   `json:"qr_payload"`
}

// UpdateStoreRequest carries the mutable store fields; nil means unchanged.
type UpdateStoreRequest struct {
	Name      *string  `json:"name,omitempty" binding:"omitempty,min=1"`
	QRPayload *string  `json:"qr_payload,omitempty" binding:"omitempty,min=1"`
	Latitude  *float64 `json:"latitude,omitempty" binding:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" binding:"omitempty,longitude"`
}
