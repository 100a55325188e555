// ABOUTME: Per-user compliance scorecards built from stage transition outcomes
// ABOUTME: Records transitions, derives score and trend, and manages the violation log
package scorecard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
)

const (
	validWeight  = 0.6
	fieldsWeight = 0.4
)

// TrendConfig controls trend derivation. Below MinViolations recorded
// violations the trend is stable; otherwise unresolved violations inside
// Window are compared with older unresolved ones.
type TrendConfig struct {
	MinViolations int
	Window        time.Duration
}

func DefaultTrendConfig() TrendConfig {
	return TrendConfig{MinViolations: 5, Window: 7 * 24 * time.Hour}
}

// ViolationFilter narrows GetUserViolations. Zero values match everything.
type ViolationFilter struct {
	Resolved   *bool
	ObjectType models.ObjectType
	Limit      int
}

type Service struct {
	scorecards ScorecardRepository
	violations ViolationRepository
	trend      TrendConfig
	now        func() time.Time
	newID      func() string

	locks sync.Map
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithTrendConfig(cfg TrendConfig) Option {
	return func(s *Service) { s.trend = cfg }
}

func NewService(scorecards ScorecardRepository, violations ViolationRepository, opts ...Option) *Service {
	s := &Service{
		scorecards: scorecards,
		violations: violations,
		trend:      DefaultTrendConfig(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lock serializes read-modify-write sequences on one user's scorecard
// within this process.
func (s *Service) lock(userID string) func() {
	m, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Recording is what one recorded transition produced. PreviousScore is read
// under the same per-user lock as the update.
type Recording struct {
	Scorecard     *models.RepScorecard
	Violation     *models.ComplianceViolation
	PreviousScore float64
}

// CrossedBelow reports whether this update took the score from at or above
// threshold to below it.
func (r *Recording) CrossedBelow(threshold float64) bool {
	return r.PreviousScore >= threshold && r.Scorecard.ComplianceScore < threshold
}

// RecordStageTransition folds one outcome into the user's scorecard. A
// violation is created only for invalid outcomes that name the rule.
func (s *Service) RecordStageTransition(ctx context.Context, out models.TransitionOutcome) (*models.RepScorecard, *models.ComplianceViolation, error) {
	rec, err := s.Record(ctx, out)
	if err != nil {
		return nil, nil, err
	}
	return rec.Scorecard, rec.Violation, nil
}

// Record is RecordStageTransition plus the score the user had before it.
// If the scorecard cannot be saved the new violation is removed again.
func (s *Service) Record(ctx context.Context, out models.TransitionOutcome) (*Recording, error) {
	unlock := s.lock(out.UserID)
	defer unlock()

	now := s.now()
	sc, err := s.getOrCreate(ctx, out.UserID, out.UserName, now)
	if err != nil {
		return nil, err
	}
	previous := sc.ComplianceScore

	sc.Metrics.TotalStageTransitions++
	var violation *models.ComplianceViolation
	if out.IsValid {
		sc.Metrics.ValidTransitions++
		switch out.ObjectType {
		case models.ObjectContact:
			sc.Metrics.ContactsStagedCorrectly++
		case models.ObjectDeal:
			sc.Metrics.DealsStagedCorrectly++
		}
	} else {
		sc.Metrics.InvalidAttempts++
		if out.RuleID != "" && out.RuleName != "" {
			violation = s.newViolation(out, now)
			if err := s.violations.AddViolation(ctx, violation); err != nil {
				return nil, fmt.Errorf("failed to record violation: %w", err)
			}
			sc.ViolationIDs = append(sc.ViolationIDs, violation.ID)
		}
	}

	sc.ComplianceScore = ComplianceScore(sc.Metrics)

	history, err := s.violations.ListViolations(ctx, out.UserID)
	if err != nil {
		return nil, s.discard(ctx, violation, fmt.Errorf("failed to list violations: %w", err))
	}
	sc.Trend = s.deriveTrend(history, now)
	sc.LastUpdated = now

	if err := s.scorecards.SaveScorecard(ctx, sc); err != nil {
		return nil, s.discard(ctx, violation, fmt.Errorf("failed to save scorecard: %w", err))
	}

	hydrate(sc, history)
	return &Recording{Scorecard: sc, Violation: violation, PreviousScore: previous}, nil
}

// discard removes a violation whose scorecard update did not land and returns cause.
func (s *Service) discard(ctx context.Context, v *models.ComplianceViolation, cause error) error {
	if v == nil {
		return cause
	}
	if err := s.violations.DeleteViolation(ctx, v.UserID, v.ID); err != nil {
		return fmt.Errorf("%w (violation %s left in log: %v)", cause, v.ID, err)
	}
	return cause
}

func (s *Service) newViolation(out models.TransitionOutcome, now time.Time) *models.ComplianceViolation {
	violationType := models.ViolationInvalidStageProgression
	if len(out.MissingFields) > 0 {
		violationType = models.ViolationMissingRequiredField
	}
	return &models.ComplianceViolation{
		ID:            s.newID(),
		UserID:        out.UserID,
		Timestamp:     now,
		ObjectType:    out.ObjectType,
		ObjectID:      out.ObjectID,
		ViolationType: violationType,
		FromStage:     out.FromStage,
		ToStage:       out.ToStage,
		MissingFields: append([]string(nil), out.MissingFields...),
		RuleID:        out.RuleID,
		RuleName:      out.RuleName,
		Severity:      Severity(len(out.MissingFields)),
	}
}

// Severity grades a violation by how many fields were missing.
func Severity(missing int) string {
	switch {
	case missing >= 5:
		return models.SeverityCritical
	case missing >= 3:
		return models.SeverityHigh
	case missing >= 1:
		return models.SeverityMedium
	}
	return models.SeverityLow
}

// ComplianceScore weights the valid-transition rate at 60% and field
// completeness at 40%. An empty scorecard scores 100.
func ComplianceScore(m models.ScorecardMetrics) float64 {
	if m.TotalStageTransitions == 0 {
		return 100
	}
	validRate := float64(m.ValidTransitions) / float64(m.TotalStageTransitions) * 100
	return validRate*validWeight + m.RequiredFieldsCompliance*fieldsWeight
}

func (s *Service) deriveTrend(history []*models.ComplianceViolation, now time.Time) string {
	if len(history) < s.trend.MinViolations {
		return models.TrendStable
	}
	cutoff := now.Add(-s.trend.Window)
	recent, older := 0, 0
	for _, v := range history {
		if v.Resolved {
			continue
		}
		if v.Timestamp.After(cutoff) {
			recent++
		} else {
			older++
		}
	}
	switch {
	case recent < older:
		return models.TrendImproving
	case recent > older:
		return models.TrendDeclining
	}
	return models.TrendStable
}

// UpdateFieldsCompliance sets the required-fields percentage. The compliance
// score picks it up on the next recorded transition.
func (s *Service) UpdateFieldsCompliance(ctx context.Context, userID, userName string, totalFields, compliantFields int) (*models.RepScorecard, error) {
	unlock := s.lock(userID)
	defer unlock()

	now := s.now()
	sc, err := s.getOrCreate(ctx, userID, userName, now)
	if err != nil {
		return nil, err
	}
	if totalFields > 0 {
		sc.Metrics.RequiredFieldsCompliance = float64(compliantFields) / float64(totalFields) * 100
	}
	sc.LastUpdated = now

	if err := s.scorecards.SaveScorecard(ctx, sc); err != nil {
		return nil, fmt.Errorf("failed to save scorecard: %w", err)
	}
	return s.hydrated(ctx, sc)
}

// GetScorecard returns nil without error for unknown users.
func (s *Service) GetScorecard(ctx context.Context, userID string) (*models.RepScorecard, error) {
	sc, err := s.scorecards.GetScorecard(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scorecard: %w", err)
	}
	if sc == nil {
		return nil, nil
	}
	return s.hydrated(ctx, sc)
}

// GetUserViolations returns the user's violations newest first.
func (s *Service) GetUserViolations(ctx context.Context, userID string, filter ViolationFilter) ([]models.ComplianceViolation, error) {
	history, err := s.violations.ListViolations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}

	out := make([]models.ComplianceViolation, 0, len(history))
	for _, v := range history {
		if filter.Resolved != nil && v.Resolved != *filter.Resolved {
			continue
		}
		if filter.ObjectType != "" && v.ObjectType != filter.ObjectType {
			continue
		}
		out = append(out, *v)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// ResolveViolation marks a violation resolved. It reports false when the
// user has no violation with that id. Resolving twice keeps the first
// resolution time.
func (s *Service) ResolveViolation(ctx context.Context, userID, violationID string) (bool, error) {
	unlock := s.lock(userID)
	defer unlock()

	v, err := s.violations.GetViolation(ctx, userID, violationID)
	if err != nil {
		return false, fmt.Errorf("failed to get violation: %w", err)
	}
	if v == nil {
		return false, nil
	}
	if v.Resolved {
		return true, nil
	}

	now := s.now()
	v.Resolved = true
	v.ResolvedAt = &now
	if err := s.violations.UpdateViolation(ctx, v); err != nil {
		return false, fmt.Errorf("failed to update violation: %w", err)
	}
	return true, nil
}

// GetAllScorecards returns every scorecard ordered by compliance score,
// highest first. Ties keep insertion order.
func (s *Service) GetAllScorecards(ctx context.Context) ([]*models.RepScorecard, error) {
	list, err := s.scorecards.ListScorecards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scorecards: %w", err)
	}
	for i, sc := range list {
		if list[i], err = s.hydrated(ctx, sc); err != nil {
			return nil, err
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].ComplianceScore > list[j].ComplianceScore
	})
	return list, nil
}

// ResetScorecardForNewPeriod starts a fresh weekly period. The violation log
// itself is left alone; only the scorecard forgets its references. It
// reports false when the user has no scorecard.
func (s *Service) ResetScorecardForNewPeriod(ctx context.Context, userID string) (bool, error) {
	unlock := s.lock(userID)
	defer unlock()

	sc, err := s.scorecards.GetScorecard(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to get scorecard: %w", err)
	}
	if sc == nil {
		return false, nil
	}

	now := s.now()
	sc.Period = CurrentWeek(now)
	sc.Metrics = models.ScorecardMetrics{RequiredFieldsCompliance: 100}
	sc.ViolationIDs = []string{}
	sc.ComplianceScore = 100
	sc.LastUpdated = now

	if err := s.scorecards.SaveScorecard(ctx, sc); err != nil {
		return false, fmt.Errorf("failed to save scorecard: %w", err)
	}
	return true, nil
}

// CurrentWeek returns the Sunday-to-Saturday window containing now, from
// midnight Sunday to the last instant of Saturday.
func CurrentWeek(now time.Time) models.ScorecardPeriod {
	y, m, d := now.Date()
	start := time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return models.ScorecardPeriod{Start: start, End: end}
}

func (s *Service) getOrCreate(ctx context.Context, userID, userName string, now time.Time) (*models.RepScorecard, error) {
	sc, err := s.scorecards.GetScorecard(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scorecard: %w", err)
	}
	if sc == nil {
		sc = &models.RepScorecard{
			UserID:          userID,
			Period:          CurrentWeek(now),
			Metrics:         models.ScorecardMetrics{RequiredFieldsCompliance: 100},
			ComplianceScore: 100,
			Trend:           models.TrendStable,
			ViolationIDs:    []string{},
			CreatedAt:       now,
			LastUpdated:     now,
		}
	}
	if userName != "" {
		sc.UserName = userName
	}
	return sc, nil
}

func (s *Service) hydrated(ctx context.Context, sc *models.RepScorecard) (*models.RepScorecard, error) {
	history, err := s.violations.ListViolations(ctx, sc.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	hydrate(sc, history)
	return sc, nil
}

// hydrate fills the Violations projection from the log, in reference order.
func hydrate(sc *models.RepScorecard, history []*models.ComplianceViolation) {
	byID := make(map[string]*models.ComplianceViolation, len(history))
	for _, v := range history {
		byID[v.ID] = v
	}
	sc.Violations = make([]models.ComplianceViolation, 0, len(sc.ViolationIDs))
	for _, id := range sc.ViolationIDs {
		if v, ok := byID[id]; ok {
			sc.Violations = append(sc.Violations, *v)
		}
	}
}
