// internal/app/pattern_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"obligation_engine/internal/domain/recurrence"
	idb "obligation_engine/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrPatternAlreadyExists = fmt.Errorf("pattern with this name already exists for the firm")

// PatternService handles the admin-facing lifecycle of recurrence patterns:
// creation with write-time validation, edits, activation toggling, preset
// seeding and occurrence previews.
type PatternService struct {
	patternRepo recurrence.Repository
	authz       Authorizer
	logger      *logrus.Entry
}

func NewPatternService(pr recurrence.Repository, authz Authorizer, logger *logrus.Entry) *PatternService {
	return &PatternService{
		patternRepo: pr,
		authz:       authz,
		logger:      logger,
	}
}

// Create validates and persists a new pattern. Invalid configurations are
// rejected before any write happens.
func (s *PatternService) Create(ctx context.Context, actorID int64, p *recurrence.Pattern) error {
	if err := s.authorize(ctx, actorID, p.FirmID); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.patternRepo.Create(ctx, p); err != nil {
		if err == idb.ErrDuplicatePatternName {
			return ErrPatternAlreadyExists
		}
		return fmt.Errorf("failed to create pattern in repository: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"firm_id": p.FirmID, "pattern_id": p.ID}).
		Infof("pattern %q created", p.Name)
	return nil
}

// Update re-validates and persists changed pattern configuration.
func (s *PatternService) Update(ctx context.Context, actorID int64, p *recurrence.Pattern) error {
	if err := s.authorize(ctx, actorID, p.FirmID); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.patternRepo.Update(ctx, p); err != nil {
		return fmt.Errorf("failed to update pattern in repository: %w", err)
	}
	return nil
}

// SetActive toggles whether a pattern participates in generation. Inactive
// patterns are never deleted, only excluded.
func (s *PatternService) SetActive(ctx context.Context, actorID int64, patternID uuid.UUID, active bool) (*recurrence.Pattern, error) {
	p, err := s.patternRepo.GetByID(ctx, patternID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actorID, p.FirmID); err != nil {
		return nil, err
	}
	if p.IsActive == active {
		return p, nil
	}
	p.IsActive = active
	if err := s.patternRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to toggle pattern active state: %w", err)
	}
	return p, nil
}

// List returns all patterns of a firm, active or not.
func (s *PatternService) List(ctx context.Context, firmID uuid.UUID) ([]*recurrence.Pattern, error) {
	return s.patternRepo.ListAll(ctx, firmID)
}

// PreviewOccurrences computes up to count upcoming dates for UI preview,
// advancing the cursor past each returned date so the same date never
// repeats. End conditions are honored: a by-date bound stops the preview
// early and an occurrence limit caps it.
func (s *PatternService) PreviewOccurrences(ctx context.Context, patternID uuid.UUID, from time.Time, count int) ([]time.Time, error) {
	p, err := s.patternRepo.GetByID(ctx, patternID)
	if err != nil {
		return nil, err
	}

	if p.End.Type == recurrence.EndAfterOccurrences && count > p.End.Occurrences {
		count = p.End.Occurrences
	}

	dates := make([]time.Time, 0, count)
	cursor := from
	for len(dates) < count {
		next, err := recurrence.NextOccurrence(p, cursor)
		if err != nil {
			return dates, err
		}
		if p.End.Expired(next) {
			break
		}
		dates = append(dates, next)
		cursor = next
	}
	return dates, nil
}

// SeedPresets inserts the canonical compliance cadences for a firm. It is
// idempotent by pattern name: cadences the firm already has are left alone.
func (s *PatternService) SeedPresets(ctx context.Context, actorID int64, firmID uuid.UUID) (int, error) {
	if err := s.authorize(ctx, actorID, firmID); err != nil {
		return 0, err
	}

	seeded := 0
	for _, preset := range recurrence.Presets(firmID) {
		exists, err := s.patternRepo.ExistsByName(ctx, firmID, preset.Name)
		if err != nil {
			return seeded, fmt.Errorf("failed to check preset %q: %w", preset.Name, err)
		}
		if exists {
			continue
		}
		if err := s.patternRepo.Create(ctx, preset); err != nil {
			if err == idb.ErrDuplicatePatternName {
				// Concurrent seeding; the preset is there, which is the goal.
				continue
			}
			return seeded, fmt.Errorf("failed to seed preset %q: %w", preset.Name, err)
		}
		seeded++
	}
	if seeded > 0 {
		s.logger.WithField("firm_id", firmID).Infof("seeded %d preset patterns", seeded)
	}
	return seeded, nil
}

func (s *PatternService) authorize(ctx context.Context, actorID int64, firmID uuid.UUID) error {
	allowed, err := s.authz.CanManageAutomation(ctx, actorID, firmID)
	if err != nil {
		return fmt.Errorf("authorization check failed: %w", err)
	}
	if !allowed {
		return ErrNotAuthorized
	}
	return nil
}
