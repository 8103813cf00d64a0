package model

// RosterEntry is one employee of the selected store with their presence.
type RosterEntry struct {
	Employee   User   `json:"employee"`
	LastStatus Status `json:"last_status"`
}

// DashboardEventKind names the events a live admin dashboard emits.
type DashboardEventKind string

const (
	DashboardEventView   DashboardEventKind = "view"
	DashboardEventStores DashboardEventKind = "stores"
	DashboardEventRoster DashboardEventKind = "roster"
	DashboardEventError  DashboardEventKind = "error"
)

// DashboardEvent is one update of a dashboard view.
type DashboardEvent struct {
	Kind            DashboardEventKind `json:"kind"`
	ViewID          string             `json:"view_id,omitempty"`
	SelectedStoreID string             `json:"selected_store_id,omitempty"`
	Stores          []Store            `json:"stores,omitempty"`
	Roster          []RosterEntry      `json:"roster,omitempty"`
	Error           string             `json:"error,omitempty"`
}
