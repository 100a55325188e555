// ABOUTME: Database schema definitions
// ABOUTME: Tables for scorecards, the violation log and governance alerts
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS scorecards (
	user_id TEXT PRIMARY KEY,
	user_name TEXT NOT NULL DEFAULT '',
	period_start DATETIME NOT NULL,
	period_end DATETIME NOT NULL,
	total_stage_transitions INTEGER NOT NULL DEFAULT 0,
	valid_transitions INTEGER NOT NULL DEFAULT 0,
	invalid_attempts INTEGER NOT NULL DEFAULT 0,
	required_fields_compliance REAL NOT NULL DEFAULT 100,
	average_stage_velocity REAL NOT NULL DEFAULT 0,
	deals_staged_correctly INTEGER NOT NULL DEFAULT 0,
	contacts_staged_correctly INTEGER NOT NULL DEFAULT 0,
	compliance_score REAL NOT NULL DEFAULT 100,
	trend TEXT NOT NULL DEFAULT 'stable' CHECK(trend IN ('improving', 'stable', 'declining')),
	violation_ids TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL,
	last_updated DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scorecards_score ON scorecards(compliance_score DESC);

CREATE TABLE IF NOT EXISTS violations (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	object_type TEXT NOT NULL CHECK(object_type IN ('contact', 'deal')),
	object_id TEXT NOT NULL,
	violation_type TEXT NOT NULL,
	from_stage TEXT NOT NULL,
	to_stage TEXT NOT NULL,
	missing_fields TEXT NOT NULL DEFAULT '[]',
	rule_id TEXT NOT NULL,
	rule_name TEXT NOT NULL,
	severity TEXT NOT NULL CHECK(severity IN ('low', 'medium', 'high', 'critical')),
	resolved INTEGER NOT NULL DEFAULT 0,
	resolved_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_violations_user ON violations(user_id);
CREATE INDEX IF NOT EXISTS idx_violations_timestamp ON violations(timestamp DESC);

CREATE TABLE IF NOT EXISTS alerts (
	id TEXT PRIMARY KEY,
	portal_id TEXT NOT NULL,
	type TEXT NOT NULL,
	severity TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	object_type TEXT NOT NULL DEFAULT '',
	object_id TEXT NOT NULL DEFAULT '',
	user_id TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	acknowledged INTEGER NOT NULL DEFAULT 0,
	acknowledged_by TEXT NOT NULL DEFAULT '',
	acknowledged_at DATETIME,
	metadata TEXT
);

CREATE INDEX IF NOT EXISTS idx_alerts_portal ON alerts(portal_id);
CREATE INDEX IF NOT EXISTS idx_alerts_user ON alerts(user_id);
CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON alerts(timestamp DESC);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
