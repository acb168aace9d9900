/*
scheduler.go - Periodic ledger audit

PURPOSE:
  Replays every wallet on a cron schedule and logs any client whose stored
  balance no longer equals the signed sum of its transactions. A clean run
  logs at info; a discrepancy logs at error, once per affected client.

DESIGN:
  - robfig/cron drives the schedule (UTC, standard 5-field specs or
    descriptors such as "@every 1h")
  - Runs against whichever Coordinator the Handler currently serves, so
    scenario loads and resets are picked up automatically
  - The last result is kept for inspection

USAGE:
  scheduler := NewAuditScheduler(handler, "@every 1h", log)
  if err := scheduler.Start(); err != nil { ... }
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Audit endpoint (manual run)
  - agency/ledger.go: Ledger.Verify
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/warp/agency-ledger/agency"
	"go.uber.org/zap"
)

// AuditScheduler runs the ledger audit periodically.
type AuditScheduler struct {
	handler  *Handler
	schedule string
	log      *zap.Logger
	cron     *cron.Cron

	mu      sync.Mutex
	lastRun time.Time
	last    []agency.Discrepancy
}

// NewAuditScheduler creates a scheduler. Nothing runs until Start.
func NewAuditScheduler(handler *Handler, schedule string, log *zap.Logger) *AuditScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditScheduler{
		handler:  handler,
		schedule: schedule,
		log:      log,
		cron:     cron.New(cron.WithLocation(time.UTC)),
	}
}

// Start registers the audit job and starts the cron loop.
func (s *AuditScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunNow(context.Background()) }); err != nil {
		return fmt.Errorf("failed to schedule ledger audit %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.log.Info("ledger audit scheduled", zap.String("schedule", s.schedule))
	return nil
}

// Stop stops the cron loop and waits for a running audit to finish.
func (s *AuditScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("ledger audit stopped")
}

// RunNow audits the ledger immediately and records the result.
func (s *AuditScheduler) RunNow(ctx context.Context) ([]agency.Discrepancy, error) {
	ds, err := s.handler.RunAudit(ctx)
	if err != nil {
		s.log.Error("ledger audit failed", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.lastRun = time.Now()
	s.last = ds
	s.mu.Unlock()

	for _, d := range ds {
		s.log.Error("wallet balance diverges from transaction history",
			zap.String("client_id", string(d.ClientID)),
			zap.String("stored", d.Stored.String()),
			zap.String("replayed", d.Replayed.String()))
	}
	if len(ds) == 0 {
		s.log.Info("ledger audit clean")
	}
	return ds, nil
}

// LastResult returns the time and discrepancies of the last completed audit.
func (s *AuditScheduler) LastResult() (time.Time, []agency.Discrepancy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, append([]agency.Discrepancy(nil), s.last...)
}
