package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attendance_tracker/internal/geo"
	"attendance_tracker/internal/logger"
	"attendance_tracker/internal/metrics"
	"attendance_tracker/internal/model"
	"attendance_tracker/internal/repository"
)

const (
	msgInvalidCode = "Invalid QR code. Please scan a store QR code."
	msgUnexpected  = "An unexpected problem occurred. Please try again."
)

// ScanTrigger is one raw fire of the camera callback.
type ScanTrigger struct {
	Payload string
	Locator geo.Locator
}

// ScanService drives the scanning screen. Each session moves
// Idle -> AwaitingResult -> DialogShown and back to Idle on dismissal, or to
// Closed after a successful check-in. Triggers outside Idle are dropped.
type ScanService interface {
	// Enter starts a fresh session. A scan still being processed is left alone.
	Enter(ctx context.Context, userID string) (model.ScanSession, error)
	Session(ctx context.Context, userID string) (model.ScanSession, error)
	// Trigger processes t if the session is Idle. accepted is false when the
	// trigger was ignored.
	Trigger(ctx context.Context, userID string, t ScanTrigger) (session model.ScanSession, accepted bool, err error)
	Dismiss(ctx context.Context, userID string) (model.ScanSession, error)
	// SweepStale forgets sessions idle for longer than the session TTL. A
	// session awaiting a result gets three times as long.
	SweepStale(ctx context.Context) (int, error)
}

type scanService struct {
	sessions   SessionStore
	stores     repository.StoreRepository
	attendance AttendanceService
	ttl        time.Duration
	metrics    *metrics.Metrics
	log        *logger.Logger
	now        func() time.Time
}

// NewScanService creates a new ScanService
func NewScanService(sessions SessionStore, stores repository.StoreRepository, attendance AttendanceService,
	ttl time.Duration, m *metrics.Metrics, log *logger.Logger) ScanService {
	return &scanService{
		sessions:   sessions,
		stores:     stores,
		attendance: attendance,
		ttl:        ttl,
		metrics:    m,
		log:        log,
		now:        time.Now,
	}
}

func (s *scanService) Enter(ctx context.Context, userID string) (model.ScanSession, error) {
	from := []model.ScanState{model.ScanIdle, model.ScanDialogShown, model.ScanClosed}
	cur, _, err := s.sessions.Transition(ctx, userID, from, s.session(model.ScanIdle, nil))
	if err != nil {
		return model.ScanSession{}, err
	}
	return cur, nil
}

func (s *scanService) Session(ctx context.Context, userID string) (model.ScanSession, error) {
	return s.sessions.Get(ctx, userID)
}

func (s *scanService) Trigger(ctx context.Context, userID string, t ScanTrigger) (model.ScanSession, bool, error) {
	cur, ok, err := s.sessions.Transition(ctx, userID, []model.ScanState{model.ScanIdle}, s.session(model.ScanAwaitingResult, nil))
	if err != nil {
		return model.ScanSession{}, false, err
	}
	if !ok {
		s.metrics.IgnoredTrigger(string(cur.State))
		return cur, false, nil
	}

	// The session is ours now; finish it even if the caller goes away.
	ctx = context.WithoutCancel(s.log.WithUserID(ctx, userID))
	outcome := s.process(ctx, userID, t)
	s.metrics.ScanOutcome(string(outcome.Kind))

	cur, ok, err = s.sessions.Transition(ctx, userID, []model.ScanState{model.ScanAwaitingResult}, s.session(model.ScanDialogShown, &outcome))
	if err != nil {
		return model.ScanSession{}, true, err
	}
	if !ok {
		s.log.Warn(ctx, fmt.Sprintf("scan session left awaiting_result early, now %s", cur.State), nil)
	}
	return cur, true, nil
}

func (s *scanService) process(ctx context.Context, userID string, t ScanTrigger) model.ScanOutcome {
	store, err := s.stores.FindByQRPayload(ctx, t.Payload)
	if err != nil {
		s.log.Error(ctx, "failed to resolve qr payload", err)
		return model.ScanOutcome{Kind: model.ScanOutcomeUnexpected, Message: msgUnexpected}
	}
	if store == nil {
		return model.ScanOutcome{Kind: model.ScanOutcomeInvalidCode, Message: msgInvalidCode}
	}
	ctx = s.log.WithStoreID(ctx, store.ID)

	if t.Locator == nil {
		t.Locator = geo.ReportedLocator{}
	}
	pos, err := t.Locator.CurrentPosition(ctx, geo.AccuracyHigh)
	if err != nil {
		s.log.Error(ctx, "location unavailable during scan", err)
		return model.ScanOutcome{Kind: model.ScanOutcomeUnexpected, Message: msgUnexpected, StoreID: store.ID}
	}

	distance := geo.Distance(pos, store.Location)
	if distance > geo.ThresholdMeters {
		s.log.Infof(ctx, "scan rejected, %.1f m from store", distance)
		return model.ScanOutcome{
			Kind:           model.ScanOutcomeTooFar,
			Message:        fmt.Sprintf("You are too far from the store. Distance: %.0f m", distance),
			DistanceMeters: &distance,
			StoreID:        store.ID,
		}
	}

	checkIn, err := s.attendance.Record(ctx, userID, store.ID)
	if err != nil {
		s.log.Error(ctx, "failed to record check-in", err)
		return model.ScanOutcome{Kind: model.ScanOutcomeUnexpected, Message: msgUnexpected, StoreID: store.ID}
	}

	verb := "Checked in"
	if checkIn.Type == model.CheckInTypeOut {
		verb = "Checked out"
	}
	s.log.Infof(ctx, "%s at store, %.1f m away", verb, distance)
	return model.ScanOutcome{
		Kind:           model.ScanOutcomeSuccess,
		Message:        fmt.Sprintf("%s successfully. Distance: %.0f m", verb, distance),
		DistanceMeters: &distance,
		StoreID:        store.ID,
		CheckIn:        checkIn,
	}
}

// Dismiss closes the dialog. After a success the session ends; any other
// outcome returns to Idle so the user can scan again.
func (s *scanService) Dismiss(ctx context.Context, userID string) (model.ScanSession, error) {
	cur, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return model.ScanSession{}, err
	}
	if cur.State != model.ScanDialogShown {
		return cur, nil
	}

	next := s.session(model.ScanIdle, nil)
	if cur.Outcome != nil && cur.Outcome.Kind == model.ScanOutcomeSuccess {
		next = s.session(model.ScanClosed, cur.Outcome)
	}
	cur, _, err = s.sessions.Transition(ctx, userID, []model.ScanState{model.ScanDialogShown}, next)
	if err != nil {
		return model.ScanSession{}, err
	}
	return cur, nil
}

func (s *scanService) SweepStale(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, errors.New("scan session ttl is not set")
	}
	now := s.now()
	return s.sessions.Sweep(ctx, now.Add(-s.ttl), now.Add(-sessionTTL(model.ScanAwaitingResult, s.ttl)))
}

func (s *scanService) session(state model.ScanState, outcome *model.ScanOutcome) model.ScanSession {
	return model.ScanSession{State: state, Outcome: outcome, UpdatedAt: s.now().UTC()}
}
