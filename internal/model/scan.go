package model

import "time"

// ScanState is the scanning screen's state. Idle accepts a trigger,
// AwaitingResult is processing one, DialogShown holds the single outcome until
// dismissed and Closed means the screen was left after a successful check-in.
type ScanState string

const (
	ScanIdle           ScanState = "idle"
	ScanAwaitingResult ScanState = "awaiting_result"
	ScanDialogShown    ScanState = "dialog_shown"
	ScanClosed         ScanState = "closed"
)

type ScanOutcomeKind string

const (
	ScanOutcomeSuccess     ScanOutcomeKind = "success"
	ScanOutcomeInvalidCode ScanOutcomeKind = "invalid_code"
	ScanOutcomeTooFar      ScanOutcomeKind = "too_far"
	ScanOutcomeUnexpected  ScanOutcomeKind = "unexpected"
)

// ScanOutcome is the feedback dialog content of one scan.
type ScanOutcome struct {
	Kind           ScanOutcomeKind `json:"kind"`
	Message        string          `json:"message"`
	DistanceMeters *float64        `json:"distance_meters,omitempty"`
	StoreID        string          `json:"store_id,omitempty"`
	CheckIn        *CheckIn        `json:"check_in,omitempty"`
}

// ScanSession is persisted per employee.
type ScanSession struct {
	UserID    string       `json:"user_id"`
	State     ScanState    `json:"state"`
	Outcome   *ScanOutcome `json:"outcome,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type ScanRequest struct {
	Payload   string   `json:"payload" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" binding:"omitempty,longitude"`
}
