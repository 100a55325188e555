// ABOUTME: Governance alert service
// ABOUTME: Creates alerts from violations, filters by portal or user, acknowledges and cleans up
package alerts

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/oklog/ulid/v2"
)

// DefaultRetentionDays is used by CleanupOldAlerts when no age is given.
const DefaultRetentionDays = 30

// AlertInput carries the caller-chosen fields of a new alert.
type AlertInput struct {
	Type       string
	Severity   string
	Title      string
	Message    string
	ObjectType models.ObjectType
	ObjectID   string
	UserID     string
	Metadata   map[string]string
}

// Filter narrows alert queries. Zero values match everything.
type Filter struct {
	Acknowledged *bool
	Severity     string
	Type         string
	Limit        int
}

type Service struct {
	repo Repository
	now  func() time.Time

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) newID(t time.Time) string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// CreateAlert stores a new unacknowledged alert stamped with the current time.
func (s *Service) CreateAlert(ctx context.Context, portalID string, in AlertInput) (*models.GovernanceAlert, error) {
	now := s.now()
	alert := &models.GovernanceAlert{
		ID:         s.newID(now),
		PortalID:   portalID,
		Type:       in.Type,
		Severity:   in.Severity,
		Title:      in.Title,
		Message:    in.Message,
		ObjectType: in.ObjectType,
		ObjectID:   in.ObjectID,
		UserID:     in.UserID,
		Timestamp:  now,
		Metadata:   in.Metadata,
	}
	if err := s.repo.CreateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	return alert, nil
}

// CreateAlertFromViolation raises the alert that accompanies a recorded
// violation.
func (s *Service) CreateAlertFromViolation(ctx context.Context, portalID string, v *models.ComplianceViolation, userID string) (*models.GovernanceAlert, error) {
	alertType := models.AlertStageGateViolation
	title := fmt.Sprintf("Stage Gate Violation: %s", v.RuleName)
	if v.ViolationType == models.ViolationMissingRequiredField {
		alertType = models.AlertMissingRequiredField
		title = fmt.Sprintf("Missing Required Fields: %s", v.RuleName)
	}

	return s.CreateAlert(ctx, portalID, AlertInput{
		Type:       alertType,
		Severity:   AlertSeverity(v.Severity),
		Title:      title,
		Message:    ViolationMessage(v),
		ObjectType: v.ObjectType,
		ObjectID:   v.ObjectID,
		UserID:     userID,
		Metadata: map[string]string{
			"violation_id":   v.ID,
			"violation_type": v.ViolationType,
			"rule_id":        v.RuleID,
			"from_stage":     v.FromStage,
			"to_stage":       v.ToStage,
		},
	})
}

// AlertSeverity maps a violation severity onto the alert scale.
func AlertSeverity(violationSeverity string) string {
	switch violationSeverity {
	case models.SeverityLow:
		return models.AlertInfo
	case models.SeverityMedium:
		return models.AlertWarning
	case models.SeverityHigh:
		return models.AlertError
	case models.SeverityCritical:
		return models.AlertCritical
	}
	return models.AlertWarning
}

// ViolationMessage renders the human-readable sentence for a violation.
func ViolationMessage(v *models.ComplianceViolation) string {
	record := fmt.Sprintf("%s %s", v.ObjectType, v.ObjectID)
	switch v.ViolationType {
	case models.ViolationMissingRequiredField:
		return fmt.Sprintf("Attempted to move %s from %s to %s without required fields: %s",
			record, v.FromStage, v.ToStage, strings.Join(v.MissingFields, ", "))
	case models.ViolationInvalidStageProgression:
		return fmt.Sprintf("Invalid stage progression for %s from %s to %s (rule: %s)",
			record, v.FromStage, v.ToStage, v.RuleName)
	case models.ViolationSkippedStage:
		return fmt.Sprintf("%s skipped required stages moving from %s to %s", record, v.FromStage, v.ToStage)
	case models.ViolationDependencyNotMet:
		return fmt.Sprintf("%s cannot move to %s until its dependencies are met (rule: %s)", record, v.ToStage, v.RuleName)
	case models.ViolationConditionFailed:
		return fmt.Sprintf("%s failed a stage condition moving from %s to %s (rule: %s)", record, v.FromStage, v.ToStage, v.RuleName)
	case models.ViolationBackwardProgression:
		return fmt.Sprintf("%s was moved backward from %s to %s", record, v.FromStage, v.ToStage)
	}
	return fmt.Sprintf("Stage gate violation on %s (rule: %s)", record, v.RuleName)
}

// GetAlert returns nil without error for unknown ids.
func (s *Service) GetAlert(ctx context.Context, id string) (*models.GovernanceAlert, error) {
	alert, err := s.repo.GetAlert(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return alert, nil
}

func (s *Service) GetPortalAlerts(ctx context.Context, portalID string, filter Filter) ([]*models.GovernanceAlert, error) {
	list, err := s.repo.ListPortalAlerts(ctx, portalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list portal alerts: %w", err)
	}
	return apply(list, filter), nil
}

func (s *Service) GetUserAlerts(ctx context.Context, userID string, filter Filter) ([]*models.GovernanceAlert, error) {
	list, err := s.repo.ListUserAlerts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user alerts: %w", err)
	}
	return apply(list, filter), nil
}

// apply filters, orders newest first and truncates.
func apply(list []*models.GovernanceAlert, filter Filter) []*models.GovernanceAlert {
	out := make([]*models.GovernanceAlert, 0, len(list))
	for _, a := range list {
		if filter.Acknowledged != nil && a.Acknowledged != *filter.Acknowledged {
			continue
		}
		if filter.Severity != "" && a.Severity != filter.Severity {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

// AcknowledgeAlert reports false when the alert does not exist.
func (s *Service) AcknowledgeAlert(ctx context.Context, id, acknowledgedBy string) (bool, error) {
	alert, err := s.repo.GetAlert(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to get alert: %w", err)
	}
	if alert == nil {
		return false, nil
	}

	now := s.now()
	alert.Acknowledged = true
	alert.AcknowledgedBy = acknowledgedBy
	alert.AcknowledgedAt = &now
	if err := s.repo.UpdateAlert(ctx, alert); err != nil {
		return false, fmt.Errorf("failed to update alert: %w", err)
	}
	return true, nil
}

func (s *Service) GetUnacknowledgedAlertCount(ctx context.Context, userID string) (int, error) {
	unacked := false
	list, err := s.GetUserAlerts(ctx, userID, Filter{Acknowledged: &unacked})
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// CleanupOldAlerts deletes acknowledged alerts older than olderThanDays and
// returns how many went. Unacknowledged alerts are never removed.
func (s *Service) CleanupOldAlerts(ctx context.Context, olderThanDays int) (int, error) {
	if olderThanDays <= 0 {
		olderThanDays = DefaultRetentionDays
	}
	cutoff := s.now().AddDate(0, 0, -olderThanDays)

	list, err := s.repo.ListAlerts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list alerts: %w", err)
	}

	deleted := 0
	for _, a := range list {
		if !a.Acknowledged || !a.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.repo.DeleteAlert(ctx, a.ID); err != nil {
			return deleted, fmt.Errorf("failed to delete alert %s: %w", a.ID, err)
		}
		deleted++
	}
	return deleted, nil
}
