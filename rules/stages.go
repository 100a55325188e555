// ABOUTME: Canonical stage ordering for contacts and deals
// ABOUTME: Rank lookups used for backward and skipped-stage detection
package rules

import "github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"

// Stage is one entry of a rank table.
type Stage struct {
	ID    string
	Label string
	Rank  int
}

var contactStages = []Stage{
	{models.StageSubscriber, "Subscriber", 0},
	{models.StageLead, "Lead", 1},
	{models.StageMarketingQualifiedLead, "Marketing Qualified Lead", 2},
	{models.StageSalesQualifiedLead, "Sales Qualified Lead", 3},
	{models.StageOpportunity, "Opportunity", 4},
	{models.StageCustomer, "Customer", 5},
	{models.StageEvangelist, "Evangelist", 6},
}

// Both closed outcomes share the terminal rank.
var dealStages = []Stage{
	{models.StageAppointmentScheduled, "Appointment Scheduled", 0},
	{models.StageQualifiedToBuy, "Qualified To Buy", 1},
	{models.StagePresentationScheduled, "Presentation Scheduled", 2},
	{models.StageDecisionMakerBoughtIn, "Decision Maker Bought-In", 3},
	{models.StageContractSent, "Contract Sent", 4},
	{models.StageClosedWon, "Closed Won", 5},
	{models.StageClosedLost, "Closed Lost", 5},
}

// Stages returns the rank table for objectType in declaration order.
func Stages(objectType models.ObjectType) []Stage {
	var table []Stage
	switch objectType {
	case models.ObjectContact:
		table = contactStages
	case models.ObjectDeal:
		table = dealStages
	}
	out := make([]Stage, len(table))
	copy(out, table)
	return out
}

// StageRank reports the rank of stage. Custom pipeline stages are not
// ranked and return false.
func StageRank(objectType models.ObjectType, stage string) (int, bool) {
	for _, s := range Stages(objectType) {
		if s.ID == stage {
			return s.Rank, true
		}
	}
	return 0, false
}

// StagesBetween lists the stages ranked strictly between two ranks, in the
// table's declaration order.
func StagesBetween(objectType models.ObjectType, fromRank, toRank int) []Stage {
	var between []Stage
	for _, s := range Stages(objectType) {
		if s.Rank > fromRank && s.Rank < toRank {
			between = append(between, s)
		}
	}
	return between
}

// StageLabel returns the display label for a known stage, or the raw id.
func StageLabel(objectType models.ObjectType, stage string) string {
	for _, s := range Stages(objectType) {
		if s.ID == stage {
			return s.Label
		}
	}
	return stage
}
