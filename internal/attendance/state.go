// Package attendance holds the check-in/check-out toggle.
package attendance

import "attendance_tracker/internal/model"

// NextType decides the type of the next event from the user's latest one.
// No history counts as having checked out.
func NextType(last *model.CheckIn) model.CheckInType {
	if last != nil && last.Type == model.CheckInTypeIn {
		return model.CheckInTypeOut
	}
	return model.CheckInTypeIn
}

// StatusOf derives the presence shown on rosters. Events without a committed
// timestamp are not visible yet.
func StatusOf(last *model.CheckIn) model.Status {
	if !last.Visible() {
		return model.StatusUnknown
	}
	switch last.Type {
	case model.CheckInTypeIn:
		return model.StatusIn
	case model.CheckInTypeOut:
		return model.StatusOut
	}
	return model.StatusUnknown
}

// Describe builds the employee home view value.
func Describe(last *model.CheckIn) model.AttendanceStatus {
	if !last.Visible() {
		last = nil
	}
	return model.AttendanceStatus{
		Status:     StatusOf(last),
		LastCheck:  last,
		NextAction: NextType(last),
	}
}
