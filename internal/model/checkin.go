package model

import "time"

type CheckInType string

const (
	CheckInTypeIn  CheckInType = "in"
	CheckInTypeOut CheckInType = "out"
)

// Status is the derived presence of a user: the type of the latest visible
// check-in, or unknown when there is none.
type Status string

const (
	StatusIn      Status = "in"
	StatusOut     Status = "out"
	StatusUnknown Status = "unknown"
)

// CheckIn is an append-only attendance event. Timestamp is assigned by the
// database and is nil until committed.
type CheckIn struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	StoreID   string      `json:"store_id"`
	Type      CheckInType `json:"type"`
	Timestamp *time.Time  `json:"timestamp"`
}

// Visible reports whether the event may appear in derived views.
func (c *CheckIn) Visible() bool {
	return c != nil && c.Timestamp != nil
}

// AttendanceStatus is what the employee home view shows.
type AttendanceStatus struct {
	Status     Status      `json:"status"`
	LastCheck  *CheckIn    `json:"last_check,omitempty"`
	NextAction CheckInType `json:"next_action"`
}
