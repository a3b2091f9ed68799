package scheduler

import (
	"context"
	"database/sql"
	"io"
	"sync"
	"testing"
	"time"

	"obligation_engine/internal/app"
	"obligation_engine/internal/domain/automation"
	idb "obligation_engine/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type stubSettingsRepo struct {
	mu       sync.Mutex
	settings map[uuid.UUID]*automation.Settings
}

func newStubSettingsRepo() *stubSettingsRepo {
	return &stubSettingsRepo{settings: make(map[uuid.UUID]*automation.Settings)}
}

func (r *stubSettingsRepo) Upsert(_ context.Context, s *automation.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[s.FirmID] = s
	return nil
}

func (r *stubSettingsRepo) GetByFirm(_ context.Context, firmID uuid.UUID) (*automation.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[firmID]
	if !ok {
		return nil, idb.ErrSettingsNotFound
	}
	return s, nil
}

func (r *stubSettingsRepo) ListEnabled(_ context.Context) ([]*automation.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*automation.Settings, 0)
	for _, s := range r.settings {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *stubSettingsRepo) MarkRunCompleted(_ context.Context, firmID uuid.UUID, day time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[firmID]
	if !ok {
		return idb.ErrSettingsNotFound
	}
	s.LastRunDate = sql.NullTime{
		Time:  time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()),
		Valid: true,
	}
	return nil
}

// countingGenerator records every firm it was asked to generate for.
type countingGenerator struct {
	mu    sync.Mutex
	calls []uuid.UUID

	// release, when set, blocks Generate until closed.
	release chan struct{}
}

func (g *countingGenerator) Generate(_ context.Context, firmID uuid.UUID) (*app.GenerationResult, error) {
	if g.release != nil {
		<-g.release
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, firmID)
	return &app.GenerationResult{}, nil
}

func (g *countingGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func enabledSettings(runTime string) *automation.Settings {
	return &automation.Settings{
		FirmID:      uuid.New(),
		Enabled:     true,
		AutoRunTime: runTime,
	}
}

func TestRunDue(t *testing.T) {
	day := func(hour, minute int) time.Time {
		return time.Date(2025, time.March, 14, hour, minute, 0, 0, time.UTC)
	}

	t.Run("fires once the configured time is reached", func(t *testing.T) {
		st := enabledSettings("07:00")
		assert.False(t, runDue(st, day(6, 59)))
		assert.True(t, runDue(st, day(7, 0)))
		// A missed tick at 07:00 still fires later the same day.
		assert.True(t, runDue(st, day(11, 30)))
	})

	t.Run("never fires when disabled", func(t *testing.T) {
		st := enabledSettings("07:00")
		st.Enabled = false
		assert.False(t, runDue(st, day(8, 0)))
	})

	t.Run("fires at most once per day", func(t *testing.T) {
		st := enabledSettings("07:00")
		st.LastRunDate = sql.NullTime{Time: day(0, 0), Valid: true}
		assert.False(t, runDue(st, day(8, 0)))

		// The marker from yesterday does not block today.
		st.LastRunDate.Time = st.LastRunDate.Time.AddDate(0, 0, -1)
		assert.True(t, runDue(st, day(8, 0)))
	})

	t.Run("skips an unparseable run time", func(t *testing.T) {
		st := enabledSettings("quarter past seven")
		assert.False(t, runDue(st, day(8, 0)))
	})
}

func TestTickRunsDueFirmsOnce(t *testing.T) {
	repo := newStubSettingsRepo()
	gen := &countingGenerator{}

	due := enabledSettings("07:00")
	notYet := enabledSettings("23:00")
	disabled := enabledSettings("07:00")
	disabled.Enabled = false
	for _, st := range []*automation.Settings{due, notYet, disabled} {
		require.NoError(t, repo.Upsert(context.Background(), st))
	}

	s := NewAutomationScheduler(repo, gen, testLogger(), "* * * * *", time.Minute)
	s.now = func() time.Time {
		return time.Date(2025, time.March, 14, 8, 0, 0, 0, time.UTC)
	}

	s.tick()
	s.wg.Wait()

	require.Equal(t, 1, gen.callCount())
	assert.Equal(t, due.FirmID, gen.calls[0])

	// The completed run is persisted, so a later tick the same day is a no-op.
	stored, err := repo.GetByFirm(context.Background(), due.FirmID)
	require.NoError(t, err)
	require.True(t, stored.LastRunDate.Valid)

	s.tick()
	s.wg.Wait()
	assert.Equal(t, 1, gen.callCount())
}

func TestTickDoesNotOverlapInFlightRuns(t *testing.T) {
	repo := newStubSettingsRepo()
	gen := &countingGenerator{release: make(chan struct{})}

	st := enabledSettings("07:00")
	require.NoError(t, repo.Upsert(context.Background(), st))

	s := NewAutomationScheduler(repo, gen, testLogger(), "* * * * *", time.Minute)
	s.now = func() time.Time {
		return time.Date(2025, time.March, 14, 8, 0, 0, 0, time.UTC)
	}

	// First tick starts a run that blocks inside Generate; the second tick
	// must not start another for the same firm.
	s.tick()
	s.tick()

	close(gen.release)
	s.wg.Wait()
	assert.Equal(t, 1, gen.callCount())
}

func TestStopWaitsForInFlightRuns(t *testing.T) {
	repo := newStubSettingsRepo()
	gen := &countingGenerator{release: make(chan struct{})}

	st := enabledSettings("07:00")
	require.NoError(t, repo.Upsert(context.Background(), st))

	s := NewAutomationScheduler(repo, gen, testLogger(), "* * * * *", time.Minute)
	s.now = func() time.Time {
		return time.Date(2025, time.March, 14, 8, 0, 0, 0, time.UTC)
	}
	require.NoError(t, s.Start())

	s.tick()
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(gen.release)
	}()

	s.Stop()
	assert.Equal(t, 1, gen.callCount(), "Stop returned before the run finished")
}
