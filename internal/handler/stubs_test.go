package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"attendance_tracker/internal/export"
	"attendance_tracker/internal/live"
	"attendance_tracker/internal/logger"
	"attendance_tracker/internal/middleware"
	"attendance_tracker/internal/model"
	"attendance_tracker/internal/service"
	"attendance_tracker/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var testJWT = utils.NewJWTUtil("test-secret", 1)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

func tokenFor(t *testing.T, userID string, role model.Role) string {
	t.Helper()
	id := utils.Identity{UserID: userID, Role: string(role)}
	if role == model.RoleEmployee {
		id.StoreID = "s1"
	}
	token, err := testJWT.GenerateToken(id)
	require.NoError(t, err)
	return token
}

func request(method, target string, body any, token string) *http.Request {
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

type deps struct {
	auth       service.AuthService
	stores     service.StoreService
	scan       service.ScanService
	attendance service.AttendanceService
	roster     service.RosterService
	reports    service.ReportService
	registry   *service.DashboardRegistry
	views      *live.Views
}

func newTestRouter(d deps) *gin.Engine {
	log := logger.Nop()
	if d.views == nil {
		d.views = live.NewViews()
	}
	authMW := middleware.JWTAuthMiddleware(testJWT)
	adminMW := middleware.AdminMiddleware()
	employeeMW := middleware.EmployeeMiddleware()

	r := gin.New()
	api := r.Group("/api/v1")
	NewAuthHandler(d.auth, d.views, log).RegisterAuthRoutes(api, authMW)
	NewStoreHandler(d.stores, log).RegisterStoreRoutes(api, authMW, adminMW)
	NewScanHandler(d.scan, log).RegisterScanRoutes(api, authMW, employeeMW)
	NewAttendanceHandler(d.attendance, d.views, log).RegisterAttendanceRoutes(api, authMW, employeeMW, adminMW)
	NewDashboardHandler(d.registry, d.stores, d.roster, log).RegisterDashboardRoutes(api, authMW, adminMW)
	NewReportHandler(d.reports, log).RegisterReportRoutes(api, authMW, adminMW)
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type stubAuth struct {
	user  *model.User
	store *model.Store
	token string
	err   error

	gotAdmin    model.RegisterAdminRequest
	gotEmployee model.RegisterEmployeeRequest
}

func (s *stubAuth) RegisterAdmin(_ context.Context, req model.RegisterAdminRequest) (*model.User, *model.Store, string, error) {
	s.gotAdmin = req
	return s.user, s.store, s.token, s.err
}

func (s *stubAuth) RegisterEmployee(_ context.Context, req model.RegisterEmployeeRequest) (*model.User, string, error) {
	s.gotEmployee = req
	return s.user, s.token, s.err
}

func (s *stubAuth) Login(context.Context, string, string) (*model.User, string, error) {
	return s.user, s.token, s.err
}

type stubStores struct {
	stores []model.Store
	err    error
}

func (s *stubStores) List(_ context.Context, adminID string) ([]model.Store, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []model.Store
	for _, st := range s.stores {
		if st.OwnerID == adminID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *stubStores) Get(_ context.Context, adminID, storeID string) (*model.Store, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, st := range s.stores {
		if st.ID == storeID && st.OwnerID == adminID {
			st := st
			return &st, nil
		}
	}
	return nil, service.ErrStoreNotFound
}

func (s *stubStores) Create(_ context.Context, adminID string, req model.CreateStoreRequest) (*model.Store, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Store{ID: "new", OwnerID: adminID, Name: req.Name}, nil
}

func (s *stubStores) Update(ctx context.Context, adminID, storeID string, _ model.UpdateStoreRequest) (*model.Store, error) {
	return s.Get(ctx, adminID, storeID)
}

func (s *stubStores) Delete(ctx context.Context, adminID, storeID string) error {
	_, err := s.Get(ctx, adminID, storeID)
	return err
}

type stubScan struct {
	session  model.ScanSession
	accepted bool
	err      error
	got      service.ScanTrigger
}

func (s *stubScan) Enter(context.Context, string) (model.ScanSession, error) {
	return s.session, s.err
}

func (s *stubScan) Session(context.Context, string) (model.ScanSession, error) {
	return s.session, s.err
}

func (s *stubScan) Trigger(_ context.Context, _ string, t service.ScanTrigger) (model.ScanSession, bool, error) {
	s.got = t
	return s.session, s.accepted, s.err
}

func (s *stubScan) Dismiss(context.Context, string) (model.ScanSession, error) {
	return s.session, s.err
}

func (s *stubScan) SweepStale(context.Context) (int, error) {
	return 0, nil
}

type stubAttendance struct {
	hub       *live.Hub
	status    model.AttendanceStatus
	history   []model.CheckIn
	err       error
	gotLimit  int
	fetchErrs []error
}

func (s *stubAttendance) Record(context.Context, string, string) (*model.CheckIn, error) {
	return nil, s.err
}

func (s *stubAttendance) Status(context.Context, string) (model.AttendanceStatus, error) {
	return s.status, s.err
}

// WatchStatus fails its n-th fetch with fetchErrs[n] when set.
func (s *stubAttendance) WatchStatus(ctx context.Context, userID string) *live.Stream[model.AttendanceStatus] {
	calls := 0
	return live.Watch(ctx, s.hub, func(context.Context) (model.AttendanceStatus, error) {
		defer func() { calls++ }()
		if calls < len(s.fetchErrs) && s.fetchErrs[calls] != nil {
			return model.AttendanceStatus{}, s.fetchErrs[calls]
		}
		return s.status, nil
	}, live.UserCheckInsTopic(userID))
}

func (s *stubAttendance) History(_ context.Context, _ string, limit int) ([]model.CheckIn, error) {
	s.gotLimit = limit
	return s.history, s.err
}

func (s *stubAttendance) EmployeeHistory(_ context.Context, _, _ string, limit int) ([]model.CheckIn, error) {
	s.gotLimit = limit
	return s.history, s.err
}

type stubRoster struct {
	hub     *live.Hub
	entries []model.RosterEntry
	err     error
}

func (s *stubRoster) Snapshot(context.Context, string) ([]model.RosterEntry, error) {
	return s.entries, s.err
}

func (s *stubRoster) Watch(ctx context.Context, storeID string) *live.Stream[[]model.RosterEntry] {
	return live.Watch(ctx, s.hub, func(ctx context.Context) ([]model.RosterEntry, error) {
		return s.Snapshot(ctx, storeID)
	}, live.StoreEmployeesTopic(storeID))
}

type stubReports struct {
	report   *service.Report
	summary  *service.Summary
	artifact *export.Artifact
	err      error

	gotPeriod model.ReportPeriod
	gotFormat export.Format
}

func (s *stubReports) Generate(_ context.Context, _, _ string, period model.ReportPeriod) (*service.Report, error) {
	s.gotPeriod = period
	return s.report, s.err
}

func (s *stubReports) Summary(context.Context, string, string) (*service.Summary, error) {
	return s.summary, s.err
}

func (s *stubReports) Export(_ context.Context, _, _ string, period model.ReportPeriod, format export.Format) (*export.Artifact, error) {
	s.gotPeriod, s.gotFormat = period, format
	return s.artifact, s.err
}

func (s *stubReports) ExportSummary(_ context.Context, _, _ string, format export.Format) (*export.Artifact, error) {
	s.gotFormat = format
	return s.artifact, s.err
}
