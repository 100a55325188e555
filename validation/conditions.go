// ABOUTME: Conditional checks for stage-gate rules
// ABOUTME: Implements equals, not_equals, contains, greater_than, less_than and exists
package validation

import (
	"strings"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/validators"
)

// ValidateConditions evaluates every condition against props. Unknown
// operators fail.
func ValidateConditions(conds []models.StageCondition, props map[string]any) []models.ValidationError {
	var errs []models.ValidationError
	for _, c := range conds {
		value := props[c.Field]
		if conditionHolds(c, value) {
			continue
		}
		errs = append(errs, models.ValidationError{
			Code:    models.ErrorPrefixConditionFailed + strings.ToUpper(c.Field),
			Field:   c.Field,
			Value:   value,
			Message: c.ErrorMessage,
		})
	}
	return errs
}

func conditionHolds(c models.StageCondition, actual any) bool {
	switch c.Operator {
	case models.OpEquals:
		return sameValue(actual, c.Value)
	case models.OpNotEquals:
		return !sameValue(actual, c.Value)
	case models.OpContains:
		s, ok := actual.(string)
		sub, okSub := c.Value.(string)
		return ok && okSub && strings.Contains(s, sub)
	case models.OpGreaterThan:
		want, ok := validators.AsNumber(c.Value)
		return ok && validators.ParseNumeric(actual) > want
	case models.OpLessThan:
		want, ok := validators.AsNumber(c.Value)
		return ok && validators.ParseNumeric(actual) < want
	case models.OpExists:
		return validators.Exists(actual) && validators.IsNonEmpty(actual)
	}
	return false
}

// sameValue compares without cross-type coercion: numbers equal numbers of
// any width, strings equal strings, everything else is unequal.
func sameValue(a, b any) bool {
	if an, ok := validators.AsNumber(a); ok {
		bn, okB := validators.AsNumber(b)
		return okB && an == bn
	}
	as, ok := a.(string)
	bs, okB := b.(string)
	return ok && okB && as == bs
}
