package jobs

import (
	"context"

	"attendance_tracker/internal/logger"
	"attendance_tracker/internal/service"
)

// ScanSessionSweep forgets scan sessions nobody touched within the session TTL,
// including ones left awaiting a result by a crashed request.
type ScanSessionSweep struct {
	scans service.ScanService
	log   *logger.Logger
}

func NewScanSessionSweep(scans service.ScanService, log *logger.Logger) *ScanSessionSweep {
	return &ScanSessionSweep{scans: scans, log: log}
}

func (j *ScanSessionSweep) Name() string {
	return "scan_session_sweep"
}

func (j *ScanSessionSweep) Run(ctx context.Context) error {
	n, err := j.scans.SweepStale(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		j.log.Infof(ctx, "swept %d stale scan sessions", n)
	}
	return nil
}
