// ABOUTME: Tests for governance data models
// ABOUTME: Validates object type parsing and JSON shape of stored records
package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseObjectType(t *testing.T) {
	for _, s := range []string{"contact", "deal"} {
		got, err := ParseObjectType(s)
		if err != nil {
			t.Fatalf("ParseObjectType(%q) failed: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("expected %q, got %q", s, got)
		}
	}

	for _, s := range []string{"", "company", "Contact", "ticket"} {
		if _, err := ParseObjectType(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestScorecardStoresViolationReferencesOnly(t *testing.T) {
	sc := RepScorecard{
		UserID:          "u1",
		ComplianceScore: 100,
		Trend:           TrendStable,
		ViolationIDs:    []string{"v1"},
		LastUpdated:     time.Now(),
	}

	data, err := json.Marshal(sc)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := raw["violations"]; ok {
		t.Error("empty violations projection should be omitted")
	}
	if ids, ok := raw["violation_ids"].([]any); !ok || len(ids) != 1 {
		t.Errorf("expected one violation id, got %v", raw["violation_ids"])
	}
}
