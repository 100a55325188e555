// ABOUTME: Data models for stage-gate governance
// ABOUTME: Defines rules, validation results, scorecards, violations, and alerts
package models

import (
	"fmt"
	"time"
)

// ObjectType is the CRM entity a stage transition applies to.
type ObjectType string

const (
	ObjectContact ObjectType = "contact"
	ObjectDeal    ObjectType = "deal"
)

// ParseObjectType accepts only the entity types the rule catalog knows about.
func ParseObjectType(s string) (ObjectType, error) {
	switch ObjectType(s) {
	case ObjectContact, ObjectDeal:
		return ObjectType(s), nil
	}
	return "", fmt.Errorf("invalid object type: %q (valid: contact, deal)", s)
}

// Contact lifecycle stages.
const (
	StageSubscriber             = "subscriber"
	StageLead                   = "lead"
	StageMarketingQualifiedLead = "marketingqualifiedlead"
	StageSalesQualifiedLead     = "salesqualifiedlead"
	StageOpportunity            = "opportunity"
	StageCustomer               = "customer"
	StageEvangelist             = "evangelist"
)

// Deal pipeline stages.
const (
	StageAppointmentScheduled  = "appointmentscheduled"
	StageQualifiedToBuy        = "qualifiedtobuy"
	StagePresentationScheduled = "presentationscheduled"
	StageDecisionMakerBoughtIn = "decisionmakerboughtin"
	StageContractSent          = "contractsent"
	StageClosedWon             = "closedwon"
	StageClosedLost            = "closedlost"
)

// Field rule types.
const (
	FieldRequired  = "required"
	FieldNonEmpty  = "non_empty"
	FieldEmail     = "email"
	FieldPhone     = "phone"
	FieldRegex     = "regex"
	FieldMinLength = "min_length"
)

// Condition operators.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpContains    = "contains"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpExists      = "exists"
)

// Dependency types.
const (
	DependencyAssociation = "association"
	DependencyClosedDeal  = "closed_deal"
	DependencyProperty    = "property"
)

type RequiredFieldRule struct {
	Field        string `json:"field" yaml:"field"`
	Label        string `json:"label" yaml:"label"`
	Type         string `json:"type" yaml:"type"`
	Pattern      string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	MinLength    int    `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	ErrorMessage string `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

type StageCondition struct {
	Field        string `json:"field" yaml:"field"`
	Operator     string `json:"operator" yaml:"operator"`
	Value        any    `json:"value,omitempty" yaml:"value,omitempty"`
	ErrorMessage string `json:"error_message" yaml:"error_message"`
}

// StageDependency is declared on a rule but resolved by the caller, since it
// needs data (associations, related deals) that the engine does not hold.
type StageDependency struct {
	Type       string `json:"type" yaml:"type"`
	ObjectType string `json:"object_type,omitempty" yaml:"object_type,omitempty"`
	MinCount   int    `json:"min_count,omitempty" yaml:"min_count,omitempty"`
	Field      string `json:"field,omitempty" yaml:"field,omitempty"`
	Message    string `json:"message" yaml:"message"`
	Blocking   bool   `json:"blocking" yaml:"blocking"`
}

type StageGateRule struct {
	ID             string              `json:"id" yaml:"id"`
	Name           string              `json:"name" yaml:"name"`
	FromStage      string              `json:"from_stage" yaml:"from_stage"`
	ToStage        string              `json:"to_stage" yaml:"to_stage"`
	RequiredFields []RequiredFieldRule `json:"required_fields" yaml:"required_fields"`
	Dependencies   []StageDependency   `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Conditions     []StageCondition    `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Active         bool                `json:"active" yaml:"active"`
}

// ValidationRequest describes a proposed stage move. A property that is
// missing from the map and one mapped to nil are both treated as absent.
type ValidationRequest struct {
	ObjectType   ObjectType     `json:"object_type"`
	ObjectID     string         `json:"object_id"`
	CurrentStage string         `json:"current_stage"`
	TargetStage  string         `json:"target_stage"`
	Properties   map[string]any `json:"properties"`
	UserID       string         `json:"user_id,omitempty"`
}

type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

type ValidationWarning struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type ValidationResult struct {
	IsValid  bool                `json:"is_valid"`
	Errors   []ValidationError   `json:"errors"`
	Warnings []ValidationWarning `json:"warnings"`
}

// Warning codes.
const (
	WarningBackwardProgression = "BACKWARD_PROGRESSION"
	WarningSkippedStages       = "SKIPPED_STAGES"
	WarningRuleWouldFail       = "RULE_WOULD_FAIL"
)

// Error code prefixes; the upper-cased field or dependency type is appended.
const (
	ErrorPrefixInvalidField     = "INVALID_"
	ErrorPrefixConditionFailed  = "CONDITION_FAILED_"
	ErrorPrefixDependencyNotMet = "DEPENDENCY_NOT_MET_"
)

// Trend values.
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

// Violation types.
const (
	ViolationMissingRequiredField    = "missing_required_field"
	ViolationInvalidStageProgression = "invalid_stage_progression"
	ViolationSkippedStage            = "skipped_stage"
	ViolationDependencyNotMet        = "dependency_not_met"
	ViolationConditionFailed         = "condition_failed"
	ViolationBackwardProgression     = "backward_progression"
)

// Violation severities.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

type ScorecardPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type ScorecardMetrics struct {
	TotalStageTransitions    int     `json:"total_stage_transitions"`
	ValidTransitions         int     `json:"valid_transitions"`
	InvalidAttempts          int     `json:"invalid_attempts"`
	RequiredFieldsCompliance float64 `json:"required_fields_compliance"`
	AverageStageVelocity     float64 `json:"average_stage_velocity"`
	DealsStagedCorrectly     int     `json:"deals_staged_correctly"`
	ContactsStagedCorrectly  int     `json:"contacts_staged_correctly"`
}

// RepScorecard tracks one user's stage-gate compliance. ViolationIDs is what
// gets stored; Violations is filled from the violation log on read.
type RepScorecard struct {
	UserID          string                `json:"user_id"`
	UserName        string                `json:"user_name"`
	Period          ScorecardPeriod       `json:"period"`
	Metrics         ScorecardMetrics      `json:"metrics"`
	ComplianceScore float64               `json:"compliance_score"`
	Trend           string                `json:"trend"`
	ViolationIDs    []string              `json:"violation_ids"`
	Violations      []ComplianceViolation `json:"violations,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	LastUpdated     time.Time             `json:"last_updated"`
}

type ComplianceViolation struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Timestamp     time.Time  `json:"timestamp"`
	ObjectType    ObjectType `json:"object_type"`
	ObjectID      string     `json:"object_id"`
	ViolationType string     `json:"violation_type"`
	FromStage     string     `json:"from_stage"`
	ToStage       string     `json:"to_stage"`
	MissingFields []string   `json:"missing_fields,omitempty"`
	RuleID        string     `json:"rule_id"`
	RuleName      string     `json:"rule_name"`
	Severity      string     `json:"severity"`
	Resolved      bool       `json:"resolved"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

// TransitionOutcome is what a caller reports to the scorecard store after
// validating a transition.
type TransitionOutcome struct {
	UserID        string
	UserName      string
	ObjectType    ObjectType
	ObjectID      string
	FromStage     string
	ToStage       string
	IsValid       bool
	MissingFields []string
	RuleID        string
	RuleName      string
}

// Alert types.
const (
	AlertStageGateViolation   = "stage_gate_violation"
	AlertMissingRequiredField = "missing_required_fields"
	AlertComplianceThreshold  = "compliance_threshold"
)

// Alert severities.
const (
	AlertInfo     = "info"
	AlertWarning  = "warning"
	AlertError    = "error"
	AlertCritical = "critical"
)

type GovernanceAlert struct {
	ID             string            `json:"id"`
	PortalID       string            `json:"portal_id"`
	Type           string            `json:"type"`
	Severity       string            `json:"severity"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	ObjectType     ObjectType        `json:"object_type,omitempty"`
	ObjectID       string            `json:"object_id,omitempty"`
	UserID         string            `json:"user_id"`
	Timestamp      time.Time         `json:"timestamp"`
	Acknowledged   bool              `json:"acknowledged"`
	AcknowledgedBy string            `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time        `json:"acknowledged_at,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}
