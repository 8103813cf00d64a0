package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendance_tracker/internal/export"
	"attendance_tracker/internal/metrics"
	"attendance_tracker/internal/model"
	"attendance_tracker/internal/repository"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPeriod = errors.New("period must be weekly or monthly")
	ErrNoReportData  = errors.New("no report data to export")
)

// Report column names, shared by the JSON rows and exported files.
const (
	ColEmployee   = "Employee"
	ColDate       = "Date"
	ColCheckIn    = "Check-in"
	ColCheckOut   = "Check-out"
	ColTotalHours = "Total Hours"
)

// ReportLayout controls how times are localized in reports.
type ReportLayout struct {
	Location   *time.Location
	DateLayout string
	TimeLayout string
}

// Report is the work-interval report of one store and period.
type Report struct {
	Store  model.Store        `json:"store"`
	Period model.ReportPeriod `json:"period"`
	From   time.Time          `json:"from"`
	To     time.Time          `json:"to"`
	Rows   []model.WorkRow    `json:"rows"`
}

// Summary is the per-employee total of the current month.
type Summary struct {
	Store model.Store        `json:"store"`
	From  time.Time          `json:"from"`
	To    time.Time          `json:"to"`
	Rows  []model.SummaryRow `json:"rows"`
}

type ReportService interface {
	Generate(ctx context.Context, adminID, storeID string, period model.ReportPeriod) (*Report, error)
	Summary(ctx context.Context, adminID, storeID string) (*Summary, error)
	Export(ctx context.Context, adminID, storeID string, period model.ReportPeriod, format export.Format) (*export.Artifact, error)
	ExportSummary(ctx context.Context, adminID, storeID string, format export.Format) (*export.Artifact, error)
}

type reportService struct {
	uow     repository.UnitOfWork
	stores  StoreService
	sink    export.Sink
	layout  ReportLayout
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(uow repository.UnitOfWork, stores StoreService, sink export.Sink, layout ReportLayout, m *metrics.Metrics) ReportService {
	if layout.Location == nil {
		layout.Location = time.Local
	}
	return &reportService{uow: uow, stores: stores, sink: sink, layout: layout, metrics: m, now: time.Now}
}

// PeriodStart is the first day of the month, or the most recent Monday, at
// 00:00 in loc.
func PeriodStart(now time.Time, period model.ReportPeriod, loc *time.Location) time.Time {
	now = now.In(loc)
	if period == model.PeriodMonthly {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	}
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	return time.Date(now.Year(), now.Month(), now.Day()-daysSinceMonday, 0, 0, 0, 0, loc)
}

// PeriodEnd is the exclusive end of the period starting at start.
func PeriodEnd(start time.Time, period model.ReportPeriod) time.Time {
	if period == model.PeriodMonthly {
		return start.AddDate(0, 1, 0)
	}
	return start.AddDate(0, 0, 7)
}

// FormatHours renders d in hours with two decimals.
func FormatHours(d time.Duration) string {
	return decimal.NewFromInt(d.Milliseconds()).Div(decimal.NewFromInt(3_600_000)).StringFixed(2)
}

type interval struct {
	in, out time.Time
}

// pairIntervals walks events in time order and pairs each "in" with an
// immediately following "out". Anything else is dropped.
func pairIntervals(events []model.CheckIn) []interval {
	var out []interval
	for i := 0; i < len(events); i++ {
		if !events[i].Visible() || events[i].Type != model.CheckInTypeIn {
			continue
		}
		if i+1 < len(events) && events[i+1].Visible() && events[i+1].Type == model.CheckInTypeOut {
			out = append(out, interval{in: *events[i].Timestamp, out: *events[i+1].Timestamp})
			i++
		}
	}
	return out
}

func groupByUser(events []model.CheckIn) map[string][]model.CheckIn {
	byUser := make(map[string][]model.CheckIn)
	for _, e := range events {
		if e.Visible() {
			byUser[e.UserID] = append(byUser[e.UserID], e)
		}
	}
	return byUser
}

// BuildWorkRows produces one row per employee and date of the in-event.
// Several pairs on one date share a row: the first check-in stays, the
// check-out is the last pair's and the durations add up. events must be in
// ascending time order per user.
func BuildWorkRows(employees []model.User, events []model.CheckIn, layout ReportLayout) []model.WorkRow {
	byUser := groupByUser(events)
	rows := []model.WorkRow{}
	for _, emp := range employees {
		index := make(map[string]int)
		for _, iv := range pairIntervals(byUser[emp.ID]) {
			date := iv.in.In(layout.Location).Format(layout.DateLayout)
			if i, ok := index[date]; ok {
				rows[i].CheckOut = iv.out
				rows[i].Duration += iv.out.Sub(iv.in)
				rows[i].Hours = FormatHours(rows[i].Duration)
				continue
			}
			d := iv.out.Sub(iv.in)
			index[date] = len(rows)
			rows = append(rows, model.WorkRow{
				EmployeeID:   emp.ID,
				EmployeeName: emp.FullName,
				Date:         date,
				CheckIn:      iv.in,
				CheckOut:     iv.out,
				Duration:     d,
				Hours:        FormatHours(d),
			})
		}
	}
	return rows
}

// BuildSummary totals paired intervals per employee. Employees without any
// pair are listed with zero hours.
func BuildSummary(employees []model.User, events []model.CheckIn) []model.SummaryRow {
	byUser := groupByUser(events)
	rows := make([]model.SummaryRow, 0, len(employees))
	for _, emp := range employees {
		var total time.Duration
		for _, iv := range pairIntervals(byUser[emp.ID]) {
			total += iv.out.Sub(iv.in)
		}
		rows = append(rows, model.SummaryRow{
			EmployeeID:   emp.ID,
			EmployeeName: emp.FullName,
			Duration:     total,
			Hours:        FormatHours(total),
		})
	}
	return rows
}

func (s *reportService) load(ctx context.Context, storeID string, from, to time.Time) ([]model.User, []model.CheckIn, error) {
	employees, err := s.uow.Users().ListEmployeesByStore(ctx, storeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load employees: %w", err)
	}
	ids := make([]string, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
	}
	events, err := s.uow.CheckIns().ListForUsers(ctx, ids, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load check-ins: %w", err)
	}
	return employees, events, nil
}

func (s *reportService) Generate(ctx context.Context, adminID, storeID string, period model.ReportPeriod) (*Report, error) {
	if !period.Valid() {
		return nil, ErrInvalidPeriod
	}
	started := time.Now()
	store, err := s.stores.Get(ctx, adminID, storeID)
	if err != nil {
		return nil, err
	}
	from := PeriodStart(s.now(), period, s.layout.Location)
	to := PeriodEnd(from, period)
	employees, events, err := s.load(ctx, storeID, from, to)
	if err != nil {
		return nil, err
	}
	report := &Report{
		Store:  *store,
		Period: period,
		From:   from,
		To:     to,
		Rows:   BuildWorkRows(employees, events, s.layout),
	}
	s.metrics.ObserveReport(string(period), time.Since(started))
	return report, nil
}

func (s *reportService) Summary(ctx context.Context, adminID, storeID string) (*Summary, error) {
	started := time.Now()
	store, err := s.stores.Get(ctx, adminID, storeID)
	if err != nil {
		return nil, err
	}
	from := PeriodStart(s.now(), model.PeriodMonthly, s.layout.Location)
	to := PeriodEnd(from, model.PeriodMonthly)
	employees, events, err := s.load(ctx, storeID, from, to)
	if err != nil {
		return nil, err
	}
	summary := &Summary{Store: *store, From: from, To: to, Rows: BuildSummary(employees, events)}
	s.metrics.ObserveReport("summary", time.Since(started))
	return summary, nil
}

func (s *reportService) Export(ctx context.Context, adminID, storeID string, period model.ReportPeriod, format export.Format) (*export.Artifact, error) {
	report, err := s.Generate(ctx, adminID, storeID, period)
	if err != nil {
		return nil, err
	}
	if len(report.Rows) == 0 {
		return nil, ErrNoReportData
	}
	return s.sink.Export(ctx, WorkRowsTable(report, s.layout), format)
}

func (s *reportService) ExportSummary(ctx context.Context, adminID, storeID string, format export.Format) (*export.Artifact, error) {
	summary, err := s.Summary(ctx, adminID, storeID)
	if err != nil {
		return nil, err
	}
	if len(summary.Rows) == 0 {
		return nil, ErrNoReportData
	}
	return s.sink.Export(ctx, SummaryTable(summary), format)
}

// WorkRowsTable flattens report rows for an export sink.
func WorkRowsTable(r *Report, layout ReportLayout) export.Table {
	label := "Weekly"
	if r.Period == model.PeriodMonthly {
		label = "Monthly"
	}
	t := export.Table{
		Title:   fmt.Sprintf("%s - %s Report", r.Store.Name, label),
		Columns: []string{ColEmployee, ColDate, ColCheckIn, ColCheckOut, ColTotalHours},
		Records: make([]export.Record, 0, len(r.Rows)),
	}
	for _, row := range r.Rows {
		t.Records = append(t.Records, export.Record{
			ColEmployee:   row.EmployeeName,
			ColDate:       row.Date,
			ColCheckIn:    row.CheckIn.In(layout.Location).Format(layout.TimeLayout),
			ColCheckOut:   row.CheckOut.In(layout.Location).Format(layout.TimeLayout),
			ColTotalHours: row.Hours,
		})
	}
	return t
}

func SummaryTable(s *Summary) export.Table {
	t := export.Table{
		Title:   fmt.Sprintf("%s - This Month Report", s.Store.Name),
		Columns: []string{ColEmployee, ColTotalHours},
		Records: make([]export.Record, 0, len(s.Rows)),
	}
	for _, row := range s.Rows {
		t.Records = append(t.Records, export.Record{ColEmployee: row.EmployeeName, ColTotalHours: row.Hours})
	}
	return t
}
