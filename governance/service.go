// ABOUTME: Ties validation, scorecards and alerts together for one stage transition
// ABOUTME: Rejects malformed requests, records outcomes, raises alerts and notifies the timeline
package governance

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/alerts"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/scorecard"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/validation"
)

// Input error codes.
const (
	CodeInvalidObjectType = "INVALID_OBJECT_TYPE"
	CodeMissingObjectID   = "MISSING_OBJECT_ID"
	CodeMissingStage      = "MISSING_STAGE"
)

// InputError rejects a request before it reaches validation.
type InputError struct {
	Code    string
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CheckRequest verifies the shape of a validation request.
func CheckRequest(req models.ValidationRequest) error {
	if _, err := models.ParseObjectType(string(req.ObjectType)); err != nil {
		return &InputError{Code: CodeInvalidObjectType, Field: "object_type", Message: err.Error()}
	}
	if req.ObjectID == "" {
		return &InputError{Code: CodeMissingObjectID, Field: "object_id", Message: "object id is required"}
	}
	if req.CurrentStage == "" {
		return &InputError{Code: CodeMissingStage, Field: "current_stage", Message: "current stage is required"}
	}
	if req.TargetStage == "" {
		return &InputError{Code: CodeMissingStage, Field: "target_stage", Message: "target stage is required"}
	}
	return nil
}

// TimelineNotifier receives a fire-and-forget record of each processed
// transition, typically forwarded to the CRM timeline.
type TimelineNotifier interface {
	NotifyTransition(ctx context.Context, event TransitionEvent) error
}

type TransitionEvent struct {
	PortalID  string
	Request   models.ValidationRequest
	Result    models.ValidationResult
	Scorecard *models.RepScorecard
	Violation *models.ComplianceViolation
}

type TransitionRequest struct {
	PortalID string
	UserName string
	Request  models.ValidationRequest
	// Resolver enables the dependency phase. Nil runs local checks only.
	Resolver validation.DependencyResolver
}

type TransitionResult struct {
	Validation models.ValidationResult
	Scorecard  *models.RepScorecard
	Violation  *models.ComplianceViolation
	Alerts     []*models.GovernanceAlert
}

type Service struct {
	engine     *validation.Engine
	scorecards *scorecard.Service
	alerts     *alerts.Service
	notifier   TimelineNotifier
	logger     *log.Logger
	portalID   string
	threshold  float64
	retention  int
}

type Option func(*Service)

func WithNotifier(n TimelineNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithDefaultPortal sets the portal used when a request carries none.
func WithDefaultPortal(portalID string) Option {
	return func(s *Service) { s.portalID = portalID }
}

// WithComplianceThreshold raises a compliance_threshold alert when a user's
// score drops from at or above threshold to below it. Zero disables it.
func WithComplianceThreshold(threshold float64) Option {
	return func(s *Service) { s.threshold = threshold }
}

// WithAlertRetention sets the age in days past which CleanupAlerts removes
// acknowledged alerts when the caller passes no age of its own.
func WithAlertRetention(days int) Option {
	return func(s *Service) { s.retention = days }
}

func NewService(engine *validation.Engine, scorecards *scorecard.Service, alertSvc *alerts.Service, opts ...Option) *Service {
	s := &Service{
		engine:     engine,
		scorecards: scorecards,
		alerts:     alertSvc,
		logger:     log.New(io.Discard),
		retention:  alerts.DefaultRetentionDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Engine() *validation.Engine { return s.engine }

func (s *Service) Scorecards() *scorecard.Service { return s.scorecards }

func (s *Service) Alerts() *alerts.Service { return s.alerts }

func (s *Service) DefaultPortal() string { return s.portalID }

func (s *Service) ComplianceThreshold() float64 { return s.threshold }

// Rules lists the active rules for an object type.
func (s *Service) Rules(t models.ObjectType) []models.StageGateRule {
	return s.engine.Catalog().Rules(t)
}

// Audit reports every rule the properties would currently fail.
func (s *Service) Audit(objectType models.ObjectType, props map[string]any) (models.ValidationResult, error) {
	if _, err := models.ParseObjectType(string(objectType)); err != nil {
		return models.ValidationResult{}, &InputError{Code: CodeInvalidObjectType, Field: "object_type", Message: err.Error()}
	}
	return s.engine.ValidateAllRules(objectType, props), nil
}

// CleanupAlerts removes acknowledged alerts older than days, or older than
// the configured retention when days is not positive.
func (s *Service) CleanupAlerts(ctx context.Context, days int) (int, error) {
	if days <= 0 {
		days = s.retention
	}
	n, err := s.alerts.CleanupOldAlerts(ctx, days)
	if err != nil {
		return n, err
	}
	if n > 0 {
		s.logger.Info("cleaned up alerts", "deleted", n, "older_than_days", days)
	}
	return n, nil
}

// ProcessTransition validates a transition and, when the request names a
// user, records the outcome and raises any alerts. A failing timeline
// notification is logged and does not undo the recorded state.
func (s *Service) ProcessTransition(ctx context.Context, tr TransitionRequest) (*TransitionResult, error) {
	req := tr.Request
	if err := CheckRequest(req); err != nil {
		return nil, err
	}
	portalID := tr.PortalID
	if portalID == "" {
		portalID = s.portalID
	}

	result, err := s.engine.Validate(ctx, req, tr.Resolver)
	if err != nil {
		return nil, fmt.Errorf("failed to validate transition: %w", err)
	}
	out := &TransitionResult{Validation: result}

	logger := s.logger.With("object_type", req.ObjectType, "object_id", req.ObjectID, "from", req.CurrentStage, "to", req.TargetStage)
	logger.Debug("validated transition", "valid", result.IsValid, "errors", len(result.Errors), "warnings", len(result.Warnings))

	if req.UserID != "" {
		if err := s.record(ctx, portalID, tr.UserName, req, out); err != nil {
			return nil, err
		}
	}

	if s.notifier != nil {
		event := TransitionEvent{PortalID: portalID, Request: req, Result: result, Scorecard: out.Scorecard, Violation: out.Violation}
		if err := s.notifier.NotifyTransition(ctx, event); err != nil {
			logger.Warn("timeline notification failed", "err", err)
		}
	}

	return out, nil
}

func (s *Service) record(ctx context.Context, portalID, userName string, req models.ValidationRequest, out *TransitionResult) error {
	outcome := models.TransitionOutcome{
		UserID:     req.UserID,
		UserName:   userName,
		ObjectType: req.ObjectType,
		ObjectID:   req.ObjectID,
		FromStage:  req.CurrentStage,
		ToStage:    req.TargetStage,
		IsValid:    out.Validation.IsValid,
	}
	if !out.Validation.IsValid {
		outcome.MissingFields = validation.MissingFields(out.Validation)
		if rule, ok := s.engine.Catalog().FindRule(req.ObjectType, req.CurrentStage, req.TargetStage); ok {
			outcome.RuleID = rule.ID
			outcome.RuleName = rule.Name
		}
	}

	rec, err := s.scorecards.Record(ctx, outcome)
	if err != nil {
		return fmt.Errorf("failed to record transition: %w", err)
	}
	sc, violation, previous := rec.Scorecard, rec.Violation, rec.PreviousScore
	out.Scorecard = sc
	out.Violation = violation

	if violation != nil {
		alert, err := s.alerts.CreateAlertFromViolation(ctx, portalID, violation, req.UserID)
		if err != nil {
			return fmt.Errorf("failed to raise violation alert: %w", err)
		}
		out.Alerts = append(out.Alerts, alert)
		s.logger.Info("stage gate violation", "user_id", req.UserID, "rule_id", violation.RuleID, "severity", violation.Severity)
	}

	if s.threshold > 0 && rec.CrossedBelow(s.threshold) {
		alert, err := s.alerts.CreateAlert(ctx, portalID, alerts.AlertInput{
			Type:     models.AlertComplianceThreshold,
			Severity: models.AlertWarning,
			Title:    fmt.Sprintf("Compliance below %.0f%%", s.threshold),
			Message:  fmt.Sprintf("%s's compliance score fell from %.1f to %.1f", displayName(sc), previous, sc.ComplianceScore),
			UserID:   req.UserID,
			Metadata: map[string]string{
				"previous_score": fmt.Sprintf("%.1f", previous),
				"score":          fmt.Sprintf("%.1f", sc.ComplianceScore),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to raise threshold alert: %w", err)
		}
		out.Alerts = append(out.Alerts, alert)
	}
	return nil
}

func displayName(sc *models.RepScorecard) string {
	if sc.UserName != "" {
		return sc.UserName
	}
	return sc.UserID
}
