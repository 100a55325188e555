// ABOUTME: YAML rule-file loading for custom stage-gate catalogs
// ABOUTME: Validates field types, operators and dependency kinds before building a Catalog
package rules

import (
	"errors"
	"fmt"
	"os"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/validators"
	"gopkg.in/yaml.v3"
)

var ErrInvalidRuleFile = errors.New("invalid rule file")

type ruleFile struct {
	Rules map[string][]fileRule `yaml:"rules"`
}

// fileRule mirrors StageGateRule so that an omitted "active" key means
// the rule is on.
type fileRule struct {
	ID             string                     `yaml:"id"`
	Name           string                     `yaml:"name"`
	FromStage      string                     `yaml:"from_stage"`
	ToStage        string                     `yaml:"to_stage"`
	RequiredFields []models.RequiredFieldRule `yaml:"required_fields"`
	Dependencies   []models.StageDependency   `yaml:"dependencies"`
	Conditions     []models.StageCondition    `yaml:"conditions"`
	Active         *bool                      `yaml:"active"`
}

// LoadFile reads a YAML rule file from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML of the form:
//
//	rules:
//	  contact:
//	    - id: contact-lead-to-mql
//	      from_stage: lead
//	      to_stage: marketingqualifiedlead
//	      required_fields:
//	        - {field: email, label: Email, type: email}
func Parse(data []byte) (*Catalog, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleFile, err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("%w: no rules defined", ErrInvalidRuleFile)
	}

	seen := make(map[string]bool)
	byType := make(map[models.ObjectType][]models.StageGateRule)
	for typeName, list := range file.Rules {
		objectType, err := models.ParseObjectType(typeName)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRuleFile, err)
		}
		for i, fr := range list {
			rule := fr.toRule()
			if err := validateRule(rule); err != nil {
				return nil, fmt.Errorf("%w: %s rule %d: %v", ErrInvalidRuleFile, typeName, i, err)
			}
			if seen[rule.ID] {
				return nil, fmt.Errorf("%w: duplicate rule id %q", ErrInvalidRuleFile, rule.ID)
			}
			seen[rule.ID] = true
			byType[objectType] = append(byType[objectType], rule)
		}
	}

	return NewCatalog(byType), nil
}

func (fr fileRule) toRule() models.StageGateRule {
	active := true
	if fr.Active != nil {
		active = *fr.Active
	}
	name := fr.Name
	if name == "" {
		name = fr.ID
	}
	return models.StageGateRule{
		ID:             fr.ID,
		Name:           name,
		FromStage:      fr.FromStage,
		ToStage:        fr.ToStage,
		RequiredFields: fr.RequiredFields,
		Dependencies:   fr.Dependencies,
		Conditions:     fr.Conditions,
		Active:         active,
	}
}

func validateRule(r models.StageGateRule) error {
	if r.ID == "" {
		return errors.New("id is required")
	}
	if r.FromStage == "" || r.ToStage == "" {
		return fmt.Errorf("rule %q: from_stage and to_stage are required", r.ID)
	}

	for _, f := range r.RequiredFields {
		if f.Field == "" {
			return fmt.Errorf("rule %q: required field without a name", r.ID)
		}
		switch f.Type {
		case models.FieldRequired, models.FieldNonEmpty, models.FieldEmail, models.FieldPhone:
		case models.FieldRegex:
			if f.Pattern == "" {
				return fmt.Errorf("rule %q: field %q: regex rule needs a pattern", r.ID, f.Field)
			}
		case models.FieldMinLength:
			if f.MinLength <= 0 {
				return fmt.Errorf("rule %q: field %q: min_length must be positive", r.ID, f.Field)
			}
		default:
			return fmt.Errorf("rule %q: field %q: unknown type %q", r.ID, f.Field, f.Type)
		}
	}

	for _, c := range r.Conditions {
		if c.Field == "" {
			return fmt.Errorf("rule %q: condition without a field", r.ID)
		}
		switch c.Operator {
		case models.OpEquals, models.OpNotEquals, models.OpContains, models.OpExists:
		case models.OpGreaterThan, models.OpLessThan:
			if _, ok := validators.AsNumber(c.Value); !ok {
				return fmt.Errorf("rule %q: condition on %q: %s needs a numeric value", r.ID, c.Field, c.Operator)
			}
		default:
			return fmt.Errorf("rule %q: condition on %q: unknown operator %q", r.ID, c.Field, c.Operator)
		}
	}

	for _, d := range r.Dependencies {
		switch d.Type {
		case models.DependencyAssociation, models.DependencyClosedDeal, models.DependencyProperty:
		default:
			return fmt.Errorf("rule %q: unknown dependency type %q", r.ID, d.Type)
		}
	}

	return nil
}
