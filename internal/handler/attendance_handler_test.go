package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"attendance_tracker/internal/live"
	"attendance_tracker/internal/model"
	"attendance_tracker/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMyStatus(t *testing.T) {
	att := &stubAttendance{status: model.AttendanceStatus{Status: model.StatusUnknown, NextAction: model.CheckInTypeIn}}
	r := newTestRouter(deps{attendance: att})

	w := serve(r, request(http.MethodGet, "/api/v1/me/status", nil, tokenFor(t, "e1", model.RoleEmployee)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"unknown","next_action":"in"}`, w.Body.String())
}

func TestGetMyCheckInsLimit(t *testing.T) {
	att := &stubAttendance{history: []model.CheckIn{}}
	r := newTestRouter(deps{attendance: att})
	token := tokenFor(t, "e1", model.RoleEmployee)

	w := serve(r, request(http.MethodGet, "/api/v1/me/check-ins?limit=20", nil, token))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, att.gotLimit)

	w = serve(r, request(http.MethodGet, "/api/v1/me/check-ins?limit=abc", nil, token))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEmployeeCheckIns(t *testing.T) {
	r := newTestRouter(deps{attendance: &stubAttendance{err: service.ErrEmployeeNotFound}})
	w := serve(r, request(http.MethodGet, "/api/v1/admin/employees/e9/check-ins", nil, tokenFor(t, "a1", model.RoleAdmin)))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, request(http.MethodGet, "/api/v1/admin/employees/e9/check-ins", nil, tokenFor(t, "e1", model.RoleEmployee)))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStatusStreamReportsSubscriptionFailure(t *testing.T) {
	hub := live.NewHub(nil)
	att := &stubAttendance{hub: hub, status: model.AttendanceStatus{Status: model.StatusOut, NextAction: model.CheckInTypeIn}}
	r := newTestRouter(deps{attendance: att})
	token := tokenFor(t, "e1", model.RoleEmployee)

	done := make(chan struct{})
	var body string
	go func() {
		defer close(done)
		req := request(http.MethodGet, "/api/v1/me/status/stream?access_token="+token, nil, "")
		body = serve(r, req).Body.String()
	}()
	require.Eventually(t, func() bool {
		return hub.Subscribers(live.UserCheckInsTopic("e1")) == 1
	}, time.Second, 5*time.Millisecond)

	hub.Fail(errors.New("listener connection lost"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not end after subscription failure")
	}
	assert.Contains(t, body, "event:status")
	assert.Contains(t, body, `"status":"out"`)
	assert.Contains(t, body, "event:error")
	assert.NotContains(t, body, "listener connection lost")
}
