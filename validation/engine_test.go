// ABOUTME: Tests for stage transition validation and advisory audits
// ABOUTME: Exercises stage-order warnings, field rules, conditions and dependency resolution
package validation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactRequest(from, to string, props map[string]any) models.ValidationRequest {
	return models.ValidationRequest{
		ObjectType:   models.ObjectContact,
		ObjectID:     "101",
		CurrentStage: from,
		TargetStage:  to,
		Properties:   props,
	}
}

func hasWarning(result models.ValidationResult, code string) (models.ValidationWarning, bool) {
	for _, w := range result.Warnings {
		if w.Code == code {
			return w, true
		}
	}
	return models.ValidationWarning{}, false
}

func TestLeadToMQLPasses(t *testing.T) {
	engine := NewEngine(rules.Default())

	result := engine.ValidateStageTransition(contactRequest(models.StageLead, models.StageMarketingQualifiedLead, map[string]any{
		"email":     "test@example.com",
		"firstname": "Ada",
		"lastname":  "Lovelace",
		"company":   "Analytical Engines",
	}))

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestLeadToMQLMissingFields(t *testing.T) {
	engine := NewEngine(rules.Default())

	result := engine.ValidateStageTransition(contactRequest(models.StageLead, models.StageMarketingQualifiedLead, map[string]any{
		"email": "test@example.com",
	}))

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, "INVALID_FIRSTNAME", result.Errors[0].Code)
	assert.Equal(t, "First Name cannot be empty", result.Errors[0].Message)
	assert.Equal(t, []string{"firstname", "lastname", "company"}, MissingFields(result))
}

func TestEmailRuleShapes(t *testing.T) {
	field := []models.RequiredFieldRule{{Field: "email", Label: "Email", Type: models.FieldEmail}}

	assert.Empty(t, ValidateRequiredFields(field, map[string]any{"email": "test@example.com"}))
	for _, bad := range []any{"not-an-email", "@domain.com", "test@", "", nil} {
		errs := ValidateRequiredFields(field, map[string]any{"email": bad})
		require.Len(t, errs, 1, "value %v", bad)
		assert.Equal(t, "INVALID_EMAIL", errs[0].Code)
	}
}

func TestPhoneRuleShapes(t *testing.T) {
	field := []models.RequiredFieldRule{{Field: "phone", Type: models.FieldPhone}}

	for _, good := range []string{"+1-555-555-5555", "5555555555", "(555) 555-5555"} {
		assert.Empty(t, ValidateRequiredFields(field, map[string]any{"phone": good}), good)
	}
	for _, bad := range []string{"123", "abc", ""} {
		assert.Len(t, ValidateRequiredFields(field, map[string]any{"phone": bad}), 1, bad)
	}
}

func TestRequiredFieldTypes(t *testing.T) {
	tests := []struct {
		name  string
		rule  models.RequiredFieldRule
		value any
		fails bool
	}{
		{"required present", models.RequiredFieldRule{Field: "f", Type: models.FieldRequired}, "x", false},
		{"required zero", models.RequiredFieldRule{Field: "f", Type: models.FieldRequired}, 0, false},
		{"required blank", models.RequiredFieldRule{Field: "f", Type: models.FieldRequired}, "  ", true},
		{"required nil", models.RequiredFieldRule{Field: "f", Type: models.FieldRequired}, nil, true},
		{"non_empty false", models.RequiredFieldRule{Field: "f", Type: models.FieldNonEmpty}, false, false},
		{"regex match", models.RequiredFieldRule{Field: "f", Type: models.FieldRegex, Pattern: `^\d{5}$`}, "12345", false},
		{"regex miss", models.RequiredFieldRule{Field: "f", Type: models.FieldRegex, Pattern: `^\d{5}$`}, "1234", true},
		{"regex broken", models.RequiredFieldRule{Field: "f", Type: models.FieldRegex, Pattern: `([`}, "anything", true},
		{"min length ok", models.RequiredFieldRule{Field: "f", Type: models.FieldMinLength, MinLength: 3}, "abc", false},
		{"min length short", models.RequiredFieldRule{Field: "f", Type: models.FieldMinLength, MinLength: 3}, "ab", true},
		{"unknown type", models.RequiredFieldRule{Field: "f", Type: "checkbox"}, "x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateRequiredFields([]models.RequiredFieldRule{tt.rule}, map[string]any{"f": tt.value})
			if tt.fails {
				require.Len(t, errs, 1)
				assert.Equal(t, "INVALID_F", errs[0].Code)
				assert.NotEmpty(t, errs[0].Message)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestCustomErrorMessageWins(t *testing.T) {
	errs := ValidateRequiredFields([]models.RequiredFieldRule{
		{Field: "reason", Type: models.FieldMinLength, MinLength: 10, ErrorMessage: "Explain yourself"},
	}, map[string]any{"reason": "meh"})

	require.Len(t, errs, 1)
	assert.Equal(t, "Explain yourself", errs[0].Message)
	assert.Equal(t, "meh", errs[0].Value)
}

func TestConditions(t *testing.T) {
	tests := []struct {
		name  string
		cond  models.StageCondition
		value any
		holds bool
	}{
		{"equals string", models.StageCondition{Operator: models.OpEquals, Value: "true"}, "true", true},
		{"equals mismatch", models.StageCondition{Operator: models.OpEquals, Value: "true"}, "false", false},
		{"equals numbers across widths", models.StageCondition{Operator: models.OpEquals, Value: 5}, 5.0, true},
		{"equals no coercion", models.StageCondition{Operator: models.OpEquals, Value: 5}, "5", false},
		{"not equals", models.StageCondition{Operator: models.OpNotEquals, Value: "UNQUALIFIED"}, "OPEN", true},
		{"not equals absent", models.StageCondition{Operator: models.OpNotEquals, Value: "UNQUALIFIED"}, nil, true},
		{"not equals same", models.StageCondition{Operator: models.OpNotEquals, Value: "UNQUALIFIED"}, "UNQUALIFIED", false},
		{"contains", models.StageCondition{Operator: models.OpContains, Value: "corp"}, "megacorp", true},
		{"contains non-string", models.StageCondition{Operator: models.OpContains, Value: "1"}, 100, false},
		{"greater than currency", models.StageCondition{Operator: models.OpGreaterThan, Value: 0}, "$1,000.50", true},
		{"greater than zero", models.StageCondition{Operator: models.OpGreaterThan, Value: 0}, "0", false},
		{"greater than absent", models.StageCondition{Operator: models.OpGreaterThan, Value: 0}, nil, false},
		{"greater than non-numeric bound", models.StageCondition{Operator: models.OpGreaterThan, Value: "zero"}, 10, false},
		{"less than", models.StageCondition{Operator: models.OpLessThan, Value: 100}, 99, true},
		{"exists", models.StageCondition{Operator: models.OpExists}, "owner-1", true},
		{"exists blank", models.StageCondition{Operator: models.OpExists}, " ", false},
		{"unknown operator", models.StageCondition{Operator: "between"}, "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cond.Field = "prop"
			tt.cond.ErrorMessage = "nope"
			errs := ValidateConditions([]models.StageCondition{tt.cond}, map[string]any{"prop": tt.value})
			if tt.holds {
				assert.Empty(t, errs)
			} else {
				require.Len(t, errs, 1)
				assert.Equal(t, "CONDITION_FAILED_PROP", errs[0].Code)
				assert.Equal(t, "nope", errs[0].Message)
			}
		})
	}
}

func TestBackwardProgressionIsOnlyAWarning(t *testing.T) {
	engine := NewEngine(rules.Default())

	result := engine.ValidateStageTransition(contactRequest(models.StageOpportunity, models.StageLead, nil))

	_, ok := hasWarning(result, models.WarningBackwardProgression)
	assert.True(t, ok)
	assert.True(t, result.IsValid)
}

func TestSkippedStagesNamesIntermediates(t *testing.T) {
	engine := NewEngine(rules.Default())

	result := engine.ValidateStageTransition(contactRequest(models.StageSubscriber, models.StageOpportunity, nil))

	w, ok := hasWarning(result, models.WarningSkippedStages)
	require.True(t, ok)
	assert.Equal(t, "Skipping stages: lead, marketingqualifiedlead, salesqualifiedlead", w.Message)
	assert.True(t, result.IsValid, "no rule covers subscriber -> opportunity")
}

func TestCustomStagesSkipOrderChecks(t *testing.T) {
	engine := NewEngine(rules.Default())

	result := engine.ValidateStageTransition(models.ValidationRequest{
		ObjectType:   models.ObjectDeal,
		CurrentStage: "custom-stage-9",
		TargetStage:  models.StageAppointmentScheduled,
	})

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Warnings)
	assert.NotNil(t, result.Errors)
}

func TestClosedOutcomesAreNotSkips(t *testing.T) {
	engine := NewEngine(rules.Default())

	result := engine.ValidateStageTransition(models.ValidationRequest{
		ObjectType:   models.ObjectDeal,
		CurrentStage: models.StageClosedWon,
		TargetStage:  models.StageClosedLost,
	})

	assert.Empty(t, result.Warnings)
}

func TestDealConditionsBlock(t *testing.T) {
	engine := NewEngine(rules.Default())

	result := engine.ValidateStageTransition(models.ValidationRequest{
		ObjectType:   models.ObjectDeal,
		ObjectID:     "d-1",
		CurrentStage: models.StageContractSent,
		TargetStage:  models.StageClosedWon,
		Properties: map[string]any{
			"amount":          "$0",
			"closedate":       "2026-10-31",
			"contract_signed": "false",
		},
	})

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "CONDITION_FAILED_AMOUNT", result.Errors[0].Code)
	assert.Equal(t, "CONDITION_FAILED_CONTRACT_SIGNED", result.Errors[1].Code)
	assert.Empty(t, MissingFields(result), "condition failures are not missing fields")
}

func TestValidateAllRulesIsAdvisory(t *testing.T) {
	engine := NewEngine(rules.Default())

	result := engine.ValidateAllRules(models.ObjectContact, map[string]any{"email": "test@example.com"})

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	require.NotEmpty(t, result.Warnings)

	ids := map[string]bool{}
	for _, w := range result.Warnings {
		assert.Equal(t, models.WarningRuleWouldFail, w.Code)
		ids[w.Field] = true
	}
	assert.False(t, ids["contact-subscriber-to-lead"], "a valid email satisfies the first gate")
	assert.True(t, ids["contact-lead-to-mql"])
}

type stubResolver struct {
	met   map[string]bool
	err   error
	calls int
}

func (s *stubResolver) Satisfied(_ context.Context, _ models.ValidationRequest, dep models.StageDependency) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.met[dep.ObjectType], nil
}

func TestResolveDependenciesBlocking(t *testing.T) {
	engine := NewEngine(rules.Default())
	req := contactRequest(models.StageSalesQualifiedLead, models.StageOpportunity, map[string]any{
		"company":          "Acme",
		"jobtitle":         "CTO",
		"hubspot_owner_id": "42",
	})

	local := engine.ValidateStageTransition(req)
	require.True(t, local.IsValid)

	result, err := engine.ResolveDependencies(context.Background(), req, local, &stubResolver{})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "DEPENDENCY_NOT_MET_ASSOCIATION", result.Errors[0].Code)
	assert.Equal(t, "deals", result.Errors[0].Field)
	assert.True(t, local.IsValid, "input result is not mutated")
	assert.Empty(t, local.Errors)

	result, err = engine.ResolveDependencies(context.Background(), req, local, &stubResolver{met: map[string]bool{"deals": true}})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
}

func TestResolveDependenciesNonBlockingWarns(t *testing.T) {
	engine := NewEngine(rules.Default())
	req := models.ValidationRequest{
		ObjectType:   models.ObjectDeal,
		CurrentStage: models.StageDecisionMakerBoughtIn,
		TargetStage:  models.StageContractSent,
		Properties: map[string]any{
			"amount":       5000,
			"closedate":    "2026-11-01",
			"hs_next_step": "Send contract",
		},
	}

	result, err := engine.Validate(context.Background(), req, AssociationCounts{})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	_, ok := hasWarning(result, "DEPENDENCY_NOT_MET_ASSOCIATION")
	assert.True(t, ok)
}

func TestResolveDependenciesPropagatesErrors(t *testing.T) {
	engine := NewEngine(rules.Default())
	req := contactRequest(models.StageOpportunity, models.StageCustomer, map[string]any{"company": "Acme"})
	local := engine.ValidateStageTransition(req)

	result, err := engine.ResolveDependencies(context.Background(), req, local, &stubResolver{err: errors.New("crm unavailable")})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "crm unavailable"))
	assert.Equal(t, local, result)
}

func TestResolveDependenciesSkipsWithoutRule(t *testing.T) {
	engine := NewEngine(rules.Default())
	resolver := &stubResolver{}
	req := contactRequest(models.StageSubscriber, models.StageEvangelist, nil)

	_, err := engine.Validate(context.Background(), req, resolver)
	require.NoError(t, err)
	assert.Zero(t, resolver.calls)

	_, err = engine.Validate(context.Background(), req, nil)
	assert.NoError(t, err)
}

func TestAssociationCounts(t *testing.T) {
	ctx := context.Background()
	counts := AssociationCounts{"deals": 2, ClosedWonDeals: 1}
	req := models.ValidationRequest{Properties: map[string]any{"owner": "7"}}

	met, err := counts.Satisfied(ctx, req, models.StageDependency{Type: models.DependencyAssociation, ObjectType: "deals", MinCount: 2})
	require.NoError(t, err)
	assert.True(t, met)

	met, _ = counts.Satisfied(ctx, req, models.StageDependency{Type: models.DependencyAssociation, ObjectType: "companies"})
	assert.False(t, met, "min_count of zero still needs one association")

	met, _ = counts.Satisfied(ctx, req, models.StageDependency{Type: models.DependencyClosedDeal, ObjectType: "deals"})
	assert.True(t, met)

	met, _ = counts.Satisfied(ctx, req, models.StageDependency{Type: models.DependencyProperty, Field: "owner"})
	assert.True(t, met)

	_, err = counts.Satisfied(ctx, req, models.StageDependency{Type: "telepathy"})
	assert.Error(t, err)
}
