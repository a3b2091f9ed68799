// internal/app/generation_service.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"obligation_engine/internal/domain/obligation"
	"obligation_engine/internal/domain/recurrence"
	idb "obligation_engine/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// GenerationService turns active templates bound to active patterns into
// concrete obligation instances.
type GenerationService interface {
	// Generate runs one generation batch for a firm. Per-template failures
	// are collected in the result, never returned as the call's error; the
	// error is reserved for failures that prevent the batch from starting.
	Generate(ctx context.Context, firmID uuid.UUID) (*GenerationResult, error)
}

// GenerationResult reports what one batch produced.
type GenerationResult struct {
	GeneratedCount int
	InstanceIDs    []uuid.UUID
	Failures       []GenerationFailure
}

// GenerationFailure records an isolated per-template error.
type GenerationFailure struct {
	TemplateID uuid.UUID
	Err        error
}

type GenerationServiceImpl struct {
	patternRepo  recurrence.Repository
	templateRepo obligation.TemplateRepository
	instanceRepo obligation.InstanceRepository
	logger       *logrus.Entry
	now          func() time.Time
}

func NewGenerationService(
	pr recurrence.Repository,
	tr obligation.TemplateRepository,
	ir obligation.InstanceRepository,
	logger *logrus.Entry,
) *GenerationServiceImpl {
	return &GenerationServiceImpl{
		patternRepo:  pr,
		templateRepo: tr,
		instanceRepo: ir,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *GenerationServiceImpl) Generate(ctx context.Context, firmID uuid.UUID) (*GenerationResult, error) {
	patterns, err := s.patternRepo.ListActive(ctx, firmID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active patterns for firm %s: %w", firmID, err)
	}

	patternByID := make(map[uuid.UUID]*recurrence.Pattern, len(patterns))
	patternIDs := make([]uuid.UUID, 0, len(patterns))
	for _, p := range patterns {
		patternByID[p.ID] = p
		patternIDs = append(patternIDs, p.ID)
	}

	result := &GenerationResult{}
	if len(patternIDs) == 0 {
		return result, nil
	}

	templates, err := s.templateRepo.ListActiveByPatternIDs(ctx, firmID, patternIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list active templates for firm %s: %w", firmID, err)
	}

	for _, t := range templates {
		instanceID, err := s.generateForTemplate(ctx, t, patternByID)
		if err != nil {
			// Isolated: one template's failure never aborts the batch.
			s.logger.WithFields(logrus.Fields{
				"firm_id":     firmID,
				"template_id": t.ID,
			}).Errorf("generation failed for template: %v", err)
			result.Failures = append(result.Failures, GenerationFailure{TemplateID: t.ID, Err: err})
			continue
		}
		if instanceID != uuid.Nil {
			result.GeneratedCount++
			result.InstanceIDs = append(result.InstanceIDs, instanceID)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"firm_id":   firmID,
		"templates": len(templates),
		"created":   result.GeneratedCount,
		"failed":    len(result.Failures),
	}).Info("generation batch finished")
	return result, nil
}

// generateForTemplate runs the check-then-create sequence for one template.
// It returns uuid.Nil without error when the template is skipped: pattern
// exhausted, occurrence limit reached, or an instance already exists for the
// computed day.
func (s *GenerationServiceImpl) generateForTemplate(
	ctx context.Context,
	t *obligation.Template,
	patternByID map[uuid.UUID]*recurrence.Pattern,
) (uuid.UUID, error) {
	if !t.PatternID.Valid {
		// One-off template; recurrence never touches it.
		return uuid.Nil, nil
	}
	pattern, ok := patternByID[t.PatternID.UUID]
	if !ok {
		// Bound pattern is inactive or gone; not an error, just not due.
		return uuid.Nil, nil
	}

	next, err := recurrence.NextOccurrence(pattern, s.now())
	if err != nil {
		return uuid.Nil, fmt.Errorf("next occurrence for pattern %s: %w", pattern.ID, err)
	}

	if pattern.End.Expired(next) {
		return uuid.Nil, nil
	}
	if pattern.End.Type == recurrence.EndAfterOccurrences {
		produced, err := s.instanceRepo.CountAutoGenerated(ctx, t.ID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("count generated instances: %w", err)
		}
		if produced >= pattern.End.Occurrences {
			return uuid.Nil, nil
		}
	}

	// Idempotency gate: existence is re-derived from the store on every run,
	// so repeating the batch the same day creates nothing new.
	exists, err := s.instanceRepo.ExistsOnDay(ctx, t.ID, next)
	if err != nil {
		return uuid.Nil, fmt.Errorf("existence check: %w", err)
	}
	if exists {
		return uuid.Nil, nil
	}

	inst := &obligation.Instance{
		FirmID:        t.FirmID,
		TemplateID:    t.ID,
		ClientID:      t.ClientID,
		Title:         t.Title,
		Category:      t.Category,
		AssignedTo:    t.AssignedTo,
		DueDate:       next,
		AutoGenerated: true,
	}
	if err := s.instanceRepo.Create(ctx, inst); err != nil {
		if errors.Is(err, idb.ErrDuplicateInstance) {
			// Lost a race with a concurrent run; the instance exists, which
			// is exactly the outcome we wanted.
			return uuid.Nil, nil
		}
		return uuid.Nil, fmt.Errorf("create instance: %w", err)
	}

	if err := s.templateRepo.UpdateLastGenerated(ctx, t.ID, next); err != nil {
		// The instance exists; losing the marker only costs a redundant
		// existence check next run.
		s.logger.WithField("template_id", t.ID).
			Warnf("failed to update last-generated marker: %v", err)
	}
	t.LastGeneratedAt = sql.NullTime{Time: next, Valid: true}

	return inst.ID, nil
}
