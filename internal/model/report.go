package model

import "time"

type ReportPeriod string

const (
	PeriodWeekly  ReportPeriod = "weekly"
	PeriodMonthly ReportPeriod = "monthly"
)

func (p ReportPeriod) Valid() bool {
	return p == PeriodWeekly || p == PeriodMonthly
}

// WorkRow is one employee-day of paired in/out intervals. When a day holds
// several pairs CheckIn is the first pair's in, CheckOut the last pair's out
// and Duration their sum.
type WorkRow struct {
	EmployeeID   string        `json:"employee_id"`
	EmployeeName string        `json:"employee_name"`
	Date         string        `json:"date"`
	CheckIn      time.Time     `json:"check_in"`
	CheckOut     time.Time     `json:"check_out"`
	Duration     time.Duration `json:"-"`
	Hours        string        `json:"total_hours"`
}

// SummaryRow is the per-employee total for a period.
type SummaryRow struct {
	EmployeeID   string        `json:"employee_id"`
	EmployeeName string        `json:"employee_name"`
	Duration     time.Duration `json:"-"`
	Hours        string        `json:"total_hours"`
}
