// ABOUTME: Second validation phase for rule dependencies that need CRM data
// ABOUTME: Resolver interface plus an association-count resolver for callers with prefetched counts
package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/validators"
)

// DependencyResolver answers whether a single dependency is satisfied for the
// record in req. Implementations usually query the CRM association graph.
type DependencyResolver interface {
	Satisfied(ctx context.Context, req models.ValidationRequest, dep models.StageDependency) (bool, error)
}

// ResolveDependencies evaluates the dependencies of the rule matching req and
// folds unmet ones into a copy of result. Blocking dependencies become
// errors, the rest warnings. On resolver failure the original result is
// returned untouched along with the error.
func (e *Engine) ResolveDependencies(ctx context.Context, req models.ValidationRequest, result models.ValidationResult, resolver DependencyResolver) (models.ValidationResult, error) {
	rule, ok := e.catalog.FindRule(req.ObjectType, req.CurrentStage, req.TargetStage)
	if !ok || len(rule.Dependencies) == 0 || resolver == nil {
		return result, nil
	}

	merged := models.ValidationResult{
		Errors:   append([]models.ValidationError{}, result.Errors...),
		Warnings: append([]models.ValidationWarning{}, result.Warnings...),
	}
	for _, dep := range rule.Dependencies {
		met, err := resolver.Satisfied(ctx, req, dep)
		if err != nil {
			return result, fmt.Errorf("failed to resolve %s dependency for rule %s: %w", dep.Type, rule.ID, err)
		}
		if met {
			continue
		}

		code := models.ErrorPrefixDependencyNotMet + strings.ToUpper(dep.Type)
		msg := dep.Message
		if msg == "" {
			msg = defaultDependencyMessage(dep)
		}
		if dep.Blocking {
			merged.Errors = append(merged.Errors, models.ValidationError{Code: code, Field: dependencyField(dep), Message: msg})
		} else {
			merged.Warnings = append(merged.Warnings, models.ValidationWarning{Code: code, Field: dependencyField(dep), Message: msg})
		}
	}

	merged.IsValid = len(merged.Errors) == 0
	return merged, nil
}

// Validate runs both phases. A nil resolver limits it to the local checks.
func (e *Engine) Validate(ctx context.Context, req models.ValidationRequest, resolver DependencyResolver) (models.ValidationResult, error) {
	return e.ResolveDependencies(ctx, req, e.ValidateStageTransition(req), resolver)
}

func dependencyField(dep models.StageDependency) string {
	if dep.Type == models.DependencyProperty {
		return dep.Field
	}
	return dep.ObjectType
}

func defaultDependencyMessage(dep models.StageDependency) string {
	switch dep.Type {
	case models.DependencyAssociation:
		return fmt.Sprintf("At least %d associated %s required", minCount(dep), dep.ObjectType)
	case models.DependencyClosedDeal:
		return "A closed won deal is required"
	case models.DependencyProperty:
		return fmt.Sprintf("%s must be set", dep.Field)
	}
	return "Dependency not met"
}

func minCount(dep models.StageDependency) int {
	if dep.MinCount < 1 {
		return 1
	}
	return dep.MinCount
}

// ClosedWonDeals is the AssociationCounts key consulted for closed_deal
// dependencies.
const ClosedWonDeals = "closed_won_deals"

// AssociationCounts resolves dependencies from counts the caller already
// fetched, keyed by associated object type ("deals", "contacts",
// "companies") plus ClosedWonDeals. Property dependencies are checked
// against the request's own properties.
type AssociationCounts map[string]int

func (a AssociationCounts) Satisfied(_ context.Context, req models.ValidationRequest, dep models.StageDependency) (bool, error) {
	switch dep.Type {
	case models.DependencyAssociation:
		return a[dep.ObjectType] >= minCount(dep), nil
	case models.DependencyClosedDeal:
		return a[ClosedWonDeals] >= minCount(dep), nil
	case models.DependencyProperty:
		v := req.Properties[dep.Field]
		return validators.Exists(v) && validators.IsNonEmpty(v), nil
	}
	return false, fmt.Errorf("unknown dependency type %q", dep.Type)
}
