// ABOUTME: Stage-gate validation engine
// ABOUTME: Evaluates stage order, required fields and conditions for a proposed transition
package validation

import (
	"fmt"
	"strings"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/rules"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/validators"
)

// Engine validates transitions against a rule catalog. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	catalog *rules.Catalog
}

func NewEngine(catalog *rules.Catalog) *Engine {
	if catalog == nil {
		catalog = rules.Default()
	}
	return &Engine{catalog: catalog}
}

func (e *Engine) Catalog() *rules.Catalog {
	return e.catalog
}

// ValidateStageTransition runs the local, synchronous checks. Stage-order
// findings are warnings and apply whether or not a rule exists; a transition
// with no matching rule is informational only.
func (e *Engine) ValidateStageTransition(req models.ValidationRequest) models.ValidationResult {
	result := newResult()
	result.Warnings = append(result.Warnings, StageOrderWarnings(req.ObjectType, req.CurrentStage, req.TargetStage)...)

	rule, ok := e.catalog.FindRule(req.ObjectType, req.CurrentStage, req.TargetStage)
	if ok {
		result.Errors = append(result.Errors, ValidateRequiredFields(rule.RequiredFields, req.Properties)...)
		result.Errors = append(result.Errors, ValidateConditions(rule.Conditions, req.Properties)...)
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// StageOrderWarnings flags backward moves and skipped stages. Stages outside
// the rank table are left alone so custom pipelines keep working.
func StageOrderWarnings(objectType models.ObjectType, current, target string) []models.ValidationWarning {
	currentRank, okCurrent := rules.StageRank(objectType, current)
	targetRank, okTarget := rules.StageRank(objectType, target)
	if !okCurrent || !okTarget {
		return nil
	}

	var warnings []models.ValidationWarning
	if targetRank < currentRank {
		warnings = append(warnings, models.ValidationWarning{
			Code:    models.WarningBackwardProgression,
			Message: fmt.Sprintf("Moving backward from %s to %s", current, target),
		})
	}

	if targetRank > currentRank+1 {
		skipped := rules.StagesBetween(objectType, currentRank, targetRank)
		names := make([]string, len(skipped))
		for i, s := range skipped {
			names[i] = s.ID
		}
		warnings = append(warnings, models.ValidationWarning{
			Code:    models.WarningSkippedStages,
			Message: fmt.Sprintf("Skipping stages: %s", strings.Join(names, ", ")),
		})
	}

	return warnings
}

// ValidateRequiredFields checks every field rule against props.
func ValidateRequiredFields(fields []models.RequiredFieldRule, props map[string]any) []models.ValidationError {
	var errs []models.ValidationError
	for _, f := range fields {
		value := props[f.Field]
		if fieldPasses(f, value) {
			continue
		}
		msg := f.ErrorMessage
		if msg == "" {
			msg = defaultFieldMessage(f)
		}
		errs = append(errs, models.ValidationError{
			Code:    models.ErrorPrefixInvalidField + strings.ToUpper(f.Field),
			Field:   f.Field,
			Value:   value,
			Message: msg,
		})
	}
	return errs
}

func fieldPasses(f models.RequiredFieldRule, value any) bool {
	s := validators.StringValue(value)
	switch f.Type {
	case models.FieldRequired:
		return validators.Exists(value) && validators.IsNonEmpty(value)
	case models.FieldNonEmpty:
		return validators.IsNonEmpty(value)
	case models.FieldEmail:
		return validators.IsValidEmail(s)
	case models.FieldPhone:
		return validators.IsValidPhone(s)
	case models.FieldRegex:
		return validators.MatchesPattern(s, f.Pattern)
	case models.FieldMinLength:
		return validators.HasMinLength(s, f.MinLength)
	}
	return false
}

func defaultFieldMessage(f models.RequiredFieldRule) string {
	label := f.Label
	if label == "" {
		label = f.Field
	}
	switch f.Type {
	case models.FieldRequired:
		return fmt.Sprintf("%s is required", label)
	case models.FieldNonEmpty:
		return fmt.Sprintf("%s cannot be empty", label)
	case models.FieldEmail:
		return fmt.Sprintf("%s must be a valid email address", label)
	case models.FieldPhone:
		return fmt.Sprintf("%s must be a valid phone number", label)
	case models.FieldRegex:
		return fmt.Sprintf("%s has an invalid format", label)
	case models.FieldMinLength:
		return fmt.Sprintf("%s must be at least %d characters", label, f.MinLength)
	}
	return fmt.Sprintf("%s is invalid", label)
}

// ValidateAllRules reports, as warnings, every active rule for objectType
// that props would currently fail. It is advisory and never invalid.
func (e *Engine) ValidateAllRules(objectType models.ObjectType, props map[string]any) models.ValidationResult {
	result := newResult()
	for _, rule := range e.catalog.Rules(objectType) {
		errs := append(ValidateRequiredFields(rule.RequiredFields, props), ValidateConditions(rule.Conditions, props)...)
		if len(errs) == 0 {
			continue
		}
		reasons := make([]string, len(errs))
		for i, err := range errs {
			reasons[i] = err.Message
		}
		result.Warnings = append(result.Warnings, models.ValidationWarning{
			Code:    models.WarningRuleWouldFail,
			Field:   rule.ID,
			Message: fmt.Sprintf("%s: %s", rule.Name, strings.Join(reasons, "; ")),
		})
	}
	result.IsValid = true
	return result
}

// MissingFields lists the fields behind INVALID_* errors, in error order.
func MissingFields(result models.ValidationResult) []string {
	var fields []string
	for _, err := range result.Errors {
		if strings.HasPrefix(err.Code, models.ErrorPrefixInvalidField) && err.Field != "" {
			fields = append(fields, err.Field)
		}
	}
	return fields
}

func newResult() models.ValidationResult {
	return models.ValidationResult{
		Errors:   []models.ValidationError{},
		Warnings: []models.ValidationWarning{},
	}
}
