package scheduler

import (
	"context"
	"sync"
	"time"

	"obligation_engine/internal/app"
	"obligation_engine/internal/domain/automation"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// AutomationScheduler owns the wall-clock timer. On every tick it checks each
// enabled firm against its configured run time and triggers a generation
// batch at most once per day, recording completion in the persisted marker so
// restarts cannot cause a second run.
type AutomationScheduler struct {
	cronEngine   *cron.Cron
	settingsRepo automation.Repository
	genService   app.GenerationService
	logger       *logrus.Entry
	cronSpecTick string
	runTimeout   time.Duration
	now          func() time.Time

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
	wg       sync.WaitGroup
}

func NewAutomationScheduler(
	sr automation.Repository,
	gen app.GenerationService,
	logger *logrus.Entry,
	cronSpecTick string, // e.g. "* * * * *" (every minute)
	runTimeout time.Duration,
) *AutomationScheduler {
	return &AutomationScheduler{
		cronEngine:   cron.New(cron.WithLocation(time.Local)), // wall clock per server locale
		settingsRepo: sr,
		genService:   gen,
		logger:       logger,
		cronSpecTick: cronSpecTick,
		runTimeout:   runTimeout,
		now:          time.Now,
		inFlight:     make(map[uuid.UUID]struct{}),
	}
}

func (s *AutomationScheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(s.cronSpecTick, s.tick); err != nil {
		return err
	}
	s.cronEngine.Start()
	s.logger.WithField("tick", s.cronSpecTick).Info("automation scheduler started")
	return nil
}

// Stop halts the timer and waits for in-flight generation runs, so shutdown
// never leaves a batch half-scheduled.
func (s *AutomationScheduler) Stop() {
	s.logger.Info("stopping automation scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.wg.Wait()
	s.logger.Info("automation scheduler stopped")
}

func (s *AutomationScheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	settings, err := s.settingsRepo.ListEnabled(ctx)
	if err != nil {
		// Retry on the next tick; a transient store fault must not disable
		// the scheduler permanently.
		s.logger.Errorf("failed to list enabled firms, retrying next tick: %v", err)
		return
	}

	now := s.now()
	for _, st := range settings {
		if !runDue(st, now) {
			continue
		}
		s.launchRun(st.FirmID, now)
	}
}

// runDue reports whether the firm's daily run should fire at the given
// wall-clock moment: the configured time of day has been reached and the
// persisted marker shows no completed run today. Using "reached" rather than
// an exact minute match means a tick missed around the configured time (or a
// restart) still triggers that day's single run.
func runDue(st *automation.Settings, now time.Time) bool {
	if !st.Enabled || st.RanOn(now) {
		return false
	}
	runAt, err := time.Parse("15:04", st.AutoRunTime)
	if err != nil {
		return false
	}
	nowMinutes := now.Hour()*60 + now.Minute()
	dueMinutes := runAt.Hour()*60 + runAt.Minute()
	return nowMinutes >= dueMinutes
}

// launchRun starts the firm's generation batch on its own goroutine. Firms
// fan out concurrently; the in-flight set keeps a slow batch from overlapping
// with a later tick for the same firm.
func (s *AutomationScheduler) launchRun(firmID uuid.UUID, day time.Time) {
	s.mu.Lock()
	if _, running := s.inFlight[firmID]; running {
		s.mu.Unlock()
		return
	}
	s.inFlight[firmID] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, firmID)
			s.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()

		log := s.logger.WithField("firm_id", firmID)
		result, err := s.genService.Generate(ctx, firmID)
		if err != nil {
			// Marker untouched, so the next tick retries.
			log.Errorf("scheduled generation run failed: %v", err)
			return
		}
		log.WithFields(logrus.Fields{
			"created": result.GeneratedCount,
			"failed":  len(result.Failures),
		}).Info("scheduled generation run completed")

		if err := s.settingsRepo.MarkRunCompleted(ctx, firmID, day); err != nil {
			// Next tick will re-run generation, which the store-derived
			// idempotency gate turns into a no-op.
			log.Warnf("failed to persist run marker: %v", err)
		}
	}()
}
