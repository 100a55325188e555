// ABOUTME: Ordered stage-gate rule catalog per object type
// ABOUTME: Built-in HubSpot lifecycle and deal pipeline gates plus exact-match lookup
package rules

import "github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"

// Catalog is read-only after construction. Lookups hand out copies so
// callers cannot mutate the shared rule set.
type Catalog struct {
	rules map[models.ObjectType][]models.StageGateRule
}

// NewCatalog copies byType; declaration order is preserved and decides which
// rule wins when two active rules share a transition.
func NewCatalog(byType map[models.ObjectType][]models.StageGateRule) *Catalog {
	c := &Catalog{rules: make(map[models.ObjectType][]models.StageGateRule, len(byType))}
	for objectType, list := range byType {
		copied := make([]models.StageGateRule, len(list))
		for i, r := range list {
			copied[i] = cloneRule(r)
		}
		c.rules[objectType] = copied
	}
	return c
}

// Rules returns the active rules for objectType in declared order.
func (c *Catalog) Rules(objectType models.ObjectType) []models.StageGateRule {
	var active []models.StageGateRule
	for _, r := range c.rules[objectType] {
		if r.Active {
			active = append(active, cloneRule(r))
		}
	}
	return active
}

// FindRule returns the first active rule whose from/to stages match exactly.
func (c *Catalog) FindRule(objectType models.ObjectType, fromStage, toStage string) (models.StageGateRule, bool) {
	for _, r := range c.rules[objectType] {
		if r.Active && r.FromStage == fromStage && r.ToStage == toStage {
			return cloneRule(r), true
		}
	}
	return models.StageGateRule{}, false
}

// Len counts rules of every state across all object types.
func (c *Catalog) Len() int {
	n := 0
	for _, list := range c.rules {
		n += len(list)
	}
	return n
}

func cloneRule(r models.StageGateRule) models.StageGateRule {
	out := r
	out.RequiredFields = append([]models.RequiredFieldRule(nil), r.RequiredFields...)
	out.Dependencies = append([]models.StageDependency(nil), r.Dependencies...)
	out.Conditions = append([]models.StageCondition(nil), r.Conditions...)
	return out
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return NewCatalog(map[models.ObjectType][]models.StageGateRule{
		models.ObjectContact: defaultContactRules(),
		models.ObjectDeal:    defaultDealRules(),
	})
}

func defaultContactRules() []models.StageGateRule {
	return []models.StageGateRule{
		{
			ID:        "contact-subscriber-to-lead",
			Name:      "Subscriber to Lead",
			FromStage: models.StageSubscriber,
			ToStage:   models.StageLead,
			RequiredFields: []models.RequiredFieldRule{
				{Field: "email", Label: "Email", Type: models.FieldEmail},
			},
			Active: true,
		},
		{
			ID:        "contact-lead-to-mql",
			Name:      "Lead to Marketing Qualified Lead",
			FromStage: models.StageLead,
			ToStage:   models.StageMarketingQualifiedLead,
			RequiredFields: []models.RequiredFieldRule{
				{Field: "email", Label: "Email", Type: models.FieldEmail},
				{Field: "firstname", Label: "First Name", Type: models.FieldNonEmpty},
				{Field: "lastname", Label: "Last Name", Type: models.FieldNonEmpty},
				{Field: "company", Label: "Company", Type: models.FieldRequired},
			},
			Active: true,
		},
		{
			ID:        "contact-mql-to-sql",
			Name:      "Marketing Qualified Lead to Sales Qualified Lead",
			FromStage: models.StageMarketingQualifiedLead,
			ToStage:   models.StageSalesQualifiedLead,
			RequiredFields: []models.RequiredFieldRule{
				{Field: "email", Label: "Email", Type: models.FieldEmail},
				{Field: "phone", Label: "Phone Number", Type: models.FieldPhone},
				{Field: "jobtitle", Label: "Job Title", Type: models.FieldNonEmpty},
			},
			Conditions: []models.StageCondition{
				{Field: "hubspot_owner_id", Operator: models.OpExists, ErrorMessage: "A contact owner must be assigned before sales qualification"},
				{Field: "hs_lead_status", Operator: models.OpNotEquals, Value: "UNQUALIFIED", ErrorMessage: "Unqualified leads cannot be moved to sales qualified"},
			},
			Active: true,
		},
		{
			ID:        "contact-sql-to-opportunity",
			Name:      "Sales Qualified Lead to Opportunity",
			FromStage: models.StageSalesQualifiedLead,
			ToStage:   models.StageOpportunity,
			RequiredFields: []models.RequiredFieldRule{
				{Field: "company", Label: "Company", Type: models.FieldNonEmpty},
				{Field: "jobtitle", Label: "Job Title", Type: models.FieldNonEmpty},
				{Field: "hubspot_owner_id", Label: "Contact Owner", Type: models.FieldRequired},
			},
			Dependencies: []models.StageDependency{
				{Type: models.DependencyAssociation, ObjectType: "deals", MinCount: 1, Message: "Contact must be associated with at least one deal", Blocking: true},
			},
			Active: true,
		},
		{
			ID:        "contact-opportunity-to-customer",
			Name:      "Opportunity to Customer",
			FromStage: models.StageOpportunity,
			ToStage:   models.StageCustomer,
			RequiredFields: []models.RequiredFieldRule{
				{Field: "company", Label: "Company", Type: models.FieldNonEmpty},
			},
			Dependencies: []models.StageDependency{
				{Type: models.DependencyClosedDeal, ObjectType: "deals", MinCount: 1, Message: "Contact must have a closed won deal", Blocking: true},
			},
			Active: true,
		},
	}
}

func defaultDealRules() []models.StageGateRule {
	return []models.StageGateRule{
		{
			ID:        "deal-appointment-to-qualified",
			Name:      "Appointment Scheduled to Qualified To Buy",
			FromStage: models.StageAppointmentScheduled,
			ToStage:   models.StageQualifiedToBuy,
			RequiredFields: []models.RequiredFieldRule{
				{Field: "dealname", Label: "Deal Name", Type: models.FieldNonEmpty},
				{Field: "amount", Label: "Amount", Type: models.FieldRequired},
				{Field: "hubspot_owner_id", Label: "Deal Owner", Type: models.FieldRequired},
			},
			Active: true,
		},
		{
			ID:        "deal-qualified-to-presentation",
			Name:      "Qualified To Buy to Presentation Scheduled",
			FromStage: models.StageQualifiedToBuy,
			ToStage:   models.StagePresentationScheduled,
			RequiredFields: []models.RequiredFieldRule{
				{Field: "amount", Label: "Amount", Type: models.FieldRequired},
				{Field: "closedate", Label: "Close Date", Type: models.FieldRequired},
				{Field: "dealtype", Label: "Deal Type", Type: models.FieldNonEmpty},
			},
			Conditions: []models.StageCondition{
				{Field: "amount", Operator: models.OpGreaterThan, Value: 0, ErrorMessage: "Deal amount must be greater than zero"},
			},
			Active: true,
		},
		{
			ID:        "deal-presentation-to-decision",
			Name:      "Presentation Scheduled to Decision Maker Bought-In",
			FromStage: models.StagePresentationScheduled,
			ToStage:   models.StageDecisionMakerBoughtIn,
			RequiredFields: []models.RequiredFieldRule{
				{Field: "description", Label: "Deal Description", Type: models.FieldMinLength, MinLength: 20},
			},
			Dependencies: []models.StageDependency{
				{Type: models.DependencyAssociation, ObjectType: "contacts", MinCount: 1, Message: "Deal must be associated with a decision maker contact", Blocking: true},
			},
			Active: true,
		},
		{
			ID:        "deal-decision-to-contract",
			Name:      "Decision Maker Bought-In to Contract Sent",
			FromStage: models.StageDecisionMakerBoughtIn,
			ToStage:   models.StageContractSent,
			RequiredFields: []models.RequiredFieldRule{
				{Field: "amount", Label: "Amount", Type: models.FieldRequired},
				{Field: "closedate", Label: "Close Date", Type: models.FieldRequired},
				{Field: "hs_next_step", Label: "Next Step", Type: models.FieldNonEmpty},
			},
			Conditions: []models.StageCondition{
				{Field: "amount", Operator: models.OpGreaterThan, Value: 0, ErrorMessage: "Deal amount must be greater than zero"},
			},
			Dependencies: []models.StageDependency{
				{Type: models.DependencyAssociation, ObjectType: "companies", MinCount: 1, Message: "Deal should be associated with a company"},
			},
			Active: true,
		},
		{
			ID:        "deal-contract-to-closedwon",
			Name:      "Contract Sent to Closed Won",
			FromStage: models.StageContractSent,
			ToStage:   models.StageClosedWon,
			RequiredFields: []models.RequiredFieldRule{
				{Field: "amount", Label: "Amount", Type: models.FieldRequired},
				{Field: "closedate", Label: "Close Date", Type: models.FieldRequired},
			},
			Conditions: []models.StageCondition{
				{Field: "amount", Operator: models.OpGreaterThan, Value: 0, ErrorMessage: "Closed won deals must have a positive amount"},
				{Field: "contract_signed", Operator: models.OpEquals, Value: "true", ErrorMessage: "Contract must be signed before closing the deal"},
			},
			Active: true,
		},
		{
			ID:        "deal-contract-to-closedlost",
			Name:      "Contract Sent to Closed Lost",
			FromStage: models.StageContractSent,
			ToStage:   models.StageClosedLost,
			RequiredFields: []models.RequiredFieldRule{
				{Field: "closed_lost_reason", Label: "Closed Lost Reason", Type: models.FieldMinLength, MinLength: 10,
					ErrorMessage: "Please describe why the deal was lost (at least 10 characters)"},
			},
			Active: true,
		},
	}
}
