package app

import (
	"context"
	"io"
	"sync"
	"time"

	"obligation_engine/internal/domain/automation"
	"obligation_engine/internal/domain/obligation"
	"obligation_engine/internal/domain/recurrence"
	idb "obligation_engine/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// --- pattern repository fake ---

type fakePatternRepo struct {
	mu       sync.Mutex
	patterns map[uuid.UUID]*recurrence.Pattern
}

func newFakePatternRepo() *fakePatternRepo {
	return &fakePatternRepo{patterns: make(map[uuid.UUID]*recurrence.Pattern)}
}

func (r *fakePatternRepo) Create(_ context.Context, p *recurrence.Pattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.patterns {
		if existing.FirmID == p.FirmID && existing.Name == p.Name {
			return idb.ErrDuplicatePatternName
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.patterns[p.ID] = p
	return nil
}

func (r *fakePatternRepo) GetByID(_ context.Context, id uuid.UUID) (*recurrence.Pattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patterns[id]
	if !ok {
		return nil, idb.ErrPatternNotFound
	}
	return p, nil
}

func (r *fakePatternRepo) Update(_ context.Context, p *recurrence.Pattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patterns[p.ID]; !ok {
		return idb.ErrPatternNotFound
	}
	p.UpdatedAt = time.Now()
	r.patterns[p.ID] = p
	return nil
}

func (r *fakePatternRepo) ListActive(_ context.Context, firmID uuid.UUID) ([]*recurrence.Pattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*recurrence.Pattern, 0)
	for _, p := range r.patterns {
		if p.FirmID == firmID && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePatternRepo) ListAll(_ context.Context, firmID uuid.UUID) ([]*recurrence.Pattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*recurrence.Pattern, 0)
	for _, p := range r.patterns {
		if p.FirmID == firmID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePatternRepo) ExistsByName(_ context.Context, firmID uuid.UUID, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patterns {
		if p.FirmID == firmID && p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// --- template repository fake ---

type fakeTemplateRepo struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*obligation.Template
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: make(map[uuid.UUID]*obligation.Template)}
}

func (r *fakeTemplateRepo) Create(_ context.Context, t *obligation.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	r.templates[t.ID] = t
	return nil
}

func (r *fakeTemplateRepo) GetByID(_ context.Context, id uuid.UUID) (*obligation.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, idb.ErrTemplateNotFound
	}
	return t, nil
}

func (r *fakeTemplateRepo) Update(_ context.Context, t *obligation.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[t.ID]; !ok {
		return idb.ErrTemplateNotFound
	}
	r.templates[t.ID] = t
	return nil
}

func (r *fakeTemplateRepo) ListActiveByPatternIDs(_ context.Context, firmID uuid.UUID, patternIDs []uuid.UUID) ([]*obligation.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(patternIDs))
	for _, id := range patternIDs {
		wanted[id] = true
	}
	out := make([]*obligation.Template, 0)
	for _, t := range r.templates {
		if t.FirmID == firmID && t.IsActive && t.PatternID.Valid && wanted[t.PatternID.UUID] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTemplateRepo) UpdateLastGenerated(_ context.Context, templateID uuid.UUID, generatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[templateID]
	if !ok {
		return idb.ErrTemplateNotFound
	}
	t.LastGeneratedAt.Time = generatedAt
	t.LastGeneratedAt.Valid = true
	return nil
}

// --- instance repository fake ---

type fakeInstanceRepo struct {
	mu        sync.Mutex
	instances []*obligation.Instance
	// createErrs injects a per-template failure for Create.
	createErrs map[uuid.UUID]error
}

func newFakeInstanceRepo() *fakeInstanceRepo {
	return &fakeInstanceRepo{createErrs: make(map[uuid.UUID]error)}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func (r *fakeInstanceRepo) Create(_ context.Context, inst *obligation.Instance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.createErrs[inst.TemplateID]; ok {
		return err
	}
	for _, existing := range r.instances {
		if existing.AutoGenerated && inst.AutoGenerated &&
			existing.TemplateID == inst.TemplateID && sameDay(existing.DueDate, inst.DueDate) {
			return idb.ErrDuplicateInstance
		}
	}
	inst.ID = uuid.New()
	inst.CreatedAt = time.Now()
	r.instances = append(r.instances, inst)
	return nil
}

func (r *fakeInstanceRepo) GetByID(_ context.Context, id uuid.UUID) (*obligation.Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inst := range r.instances {
		if inst.ID == id {
			return inst, nil
		}
	}
	return nil, idb.ErrInstanceNotFound
}

func (r *fakeInstanceRepo) ExistsOnDay(_ context.Context, templateID uuid.UUID, dueDate time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inst := range r.instances {
		if inst.TemplateID == templateID && sameDay(inst.DueDate, dueDate) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInstanceRepo) CountAutoGenerated(_ context.Context, templateID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, inst := range r.instances {
		if inst.TemplateID == templateID && inst.AutoGenerated {
			count++
		}
	}
	return count, nil
}

// --- automation settings repository fake ---

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings map[uuid.UUID]*automation.Settings
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: make(map[uuid.UUID]*automation.Settings)}
}

func (r *fakeSettingsRepo) Upsert(_ context.Context, s *automation.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.settings[s.FirmID]; ok {
		s.LastRunDate = existing.LastRunDate
		s.CreatedAt = existing.CreatedAt
	} else {
		s.CreatedAt = time.Now()
	}
	s.UpdatedAt = time.Now()
	r.settings[s.FirmID] = s
	return nil
}

func (r *fakeSettingsRepo) GetByFirm(_ context.Context, firmID uuid.UUID) (*automation.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[firmID]
	if !ok {
		return nil, idb.ErrSettingsNotFound
	}
	return s, nil
}

func (r *fakeSettingsRepo) ListEnabled(_ context.Context) ([]*automation.Settings, error) {
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

func (r *fakeSettingsRepo) MarkRunCompleted(_ context.Context, firmID uuid.UUID, day time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[firmID]
	if !ok {
		return idb.ErrSettingsNotFound
	}
	s.LastRunDate.Time = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	s.LastRunDate.Valid = true
	return nil
}

// --- authorizer fakes ---

type allowAllAuthorizer struct{}

func (allowAllAuthorizer) CanManageAutomation(context.Context, int64, uuid.UUID) (bool, error) {
	return true, nil
}

type denyAllAuthorizer struct{}

func (denyAllAuthorizer) CanManageAutomation(context.Context, int64, uuid.UUID) (bool, error) {
	return false, nil
}
