// internal/app/automation_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"obligation_engine/internal/domain/automation"
	"obligation_engine/internal/domain/recurrence"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// dueSoonWindow is the horizon of the "due this week" statistic.
const dueSoonWindow = 7 * 24 * time.Hour

// AutomationStats is the read-only projection exposed to dashboards.
type AutomationStats struct {
	TotalSchedules  int
	ActiveSchedules int
	DueThisWeek     int
}

// AutomationService exposes per-firm automation control: enabling the daily
// run, forcing a run immediately, and aggregate schedule statistics.
type AutomationService struct {
	settingsRepo   automation.Repository
	patternRepo    recurrence.Repository
	generation     GenerationService
	authz          Authorizer
	defaultRunTime string
	logger         *logrus.Entry
	now            func() time.Time
}

func NewAutomationService(
	sr automation.Repository,
	pr recurrence.Repository,
	gen GenerationService,
	authz Authorizer,
	defaultRunTime string,
	logger *logrus.Entry,
) *AutomationService {
	return &AutomationService{
		settingsRepo:   sr,
		patternRepo:    pr,
		generation:     gen,
		authz:          authz,
		defaultRunTime: defaultRunTime,
		logger:         logger,
		now:            time.Now,
	}
}

// Toggle enables or disables the firm's daily generation run. An empty
// autoRunTime keeps the configured default.
func (s *AutomationService) Toggle(ctx context.Context, actorID int64, firmID uuid.UUID, enabled bool, autoRunTime string) (*automation.Settings, error) {
	allowed, err := s.authz.CanManageAutomation(ctx, actorID, firmID)
	if err != nil {
		return nil, fmt.Errorf("authorization check failed: %w", err)
	}
	if !allowed {
		return nil, ErrNotAuthorized
	}

	if autoRunTime == "" {
		autoRunTime = s.defaultRunTime
	}
	if err := automation.ValidateRunTime(autoRunTime); err != nil {
		return nil, err
	}

	settings := &automation.Settings{
		FirmID:      firmID,
		Enabled:     enabled,
		AutoRunTime: autoRunTime,
	}
	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to store automation settings: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"firm_id":       firmID,
		"enabled":       enabled,
		"auto_run_time": autoRunTime,
	}).Info("automation settings updated")
	return settings, nil
}

// RunNow forces a generation batch for the firm, bypassing the scheduler's
// time-of-day check. The store-derived idempotency gate still applies, so
// forcing twice in one day creates no duplicates.
func (s *AutomationService) RunNow(ctx context.Context, firmID uuid.UUID) (*GenerationResult, error) {
	s.logger.WithField("firm_id", firmID).Info("manual generation run requested")
	return s.generation.Generate(ctx, firmID)
}

// Stats computes schedule counts and how many active patterns produce an
// occurrence within the next seven days. Pure read; nothing is mutated.
func (s *AutomationService) Stats(ctx context.Context, firmID uuid.UUID) (*AutomationStats, error) {
	patterns, err := s.patternRepo.ListAll(ctx, firmID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns for stats: %w", err)
	}

	stats := &AutomationStats{TotalSchedules: len(patterns)}
	now := s.now()
	horizon := now.Add(dueSoonWindow)

	for _, p := range patterns {
		if !p.IsActive {
			continue
		}
		stats.ActiveSchedules++

		next, err := recurrence.NextOccurrence(p, now)
		if err != nil {
			// A misconfigured custom pattern shouldn't poison the dashboard.
			s.logger.WithField("pattern_id", p.ID).
				Warnf("skipping pattern in due-soon count: %v", err)
			continue
		}
		if p.End.Expired(next) {
			continue
		}
		if !next.After(horizon) {
			stats.DueThisWeek++
		}
	}
	return stats, nil
}
