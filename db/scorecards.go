// ABOUTME: SQLite repositories for scorecards and the violation log
// ABOUTME: Scorecards keep violation references as a JSON id list
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/pkg/errors"
)

type ScorecardRepository struct {
	db *sql.DB
}

func NewScorecardRepository(db *sql.DB) *ScorecardRepository {
	return &ScorecardRepository{db: db}
}

const scorecardColumns = `user_id, user_name, period_start, period_end,
	total_stage_transitions, valid_transitions, invalid_attempts,
	required_fields_compliance, average_stage_velocity,
	deals_staged_correctly, contacts_staged_correctly,
	compliance_score, trend, violation_ids, created_at, last_updated`

func (r *ScorecardRepository) GetScorecard(ctx context.Context, userID string) (*models.RepScorecard, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+scorecardColumns+` FROM scorecards WHERE user_id = ?`, userID)
	sc, err := scanScorecard(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get scorecard %s", userID)
	}
	return sc, nil
}

// SaveScorecard upserts; the row keeps its original position for listing.
func (r *ScorecardRepository) SaveScorecard(ctx context.Context, sc *models.RepScorecard) error {
	ids := sc.ViolationIDs
	if ids == nil {
		ids = []string{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return errors.Wrap(err, "encode violation ids")
	}

	m := sc.Metrics
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO scorecards (`+scorecardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			user_name = excluded.user_name,
			period_start = excluded.period_start,
			period_end = excluded.period_end,
			total_stage_transitions = excluded.total_stage_transitions,
			valid_transitions = excluded.valid_transitions,
			invalid_attempts = excluded.invalid_attempts,
			required_fields_compliance = excluded.required_fields_compliance,
			average_stage_velocity = excluded.average_stage_velocity,
			deals_staged_correctly = excluded.deals_staged_correctly,
			contacts_staged_correctly = excluded.contacts_staged_correctly,
			compliance_score = excluded.compliance_score,
			trend = excluded.trend,
			violation_ids = excluded.violation_ids,
			last_updated = excluded.last_updated
	`,
		sc.UserID, sc.UserName, sc.Period.Start.UTC(), sc.Period.End.UTC(),
		m.TotalStageTransitions, m.ValidTransitions, m.InvalidAttempts,
		m.RequiredFieldsCompliance, m.AverageStageVelocity,
		m.DealsStagedCorrectly, m.ContactsStagedCorrectly,
		sc.ComplianceScore, sc.Trend, string(idsJSON), sc.CreatedAt.UTC(), sc.LastUpdated.UTC(),
	)
	return errors.Wrapf(err, "save scorecard %s", sc.UserID)
}

func (r *ScorecardRepository) ListScorecards(ctx context.Context) ([]*models.RepScorecard, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+scorecardColumns+` FROM scorecards ORDER BY rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "list scorecards")
	}
	defer rows.Close()

	var out []*models.RepScorecard
	for rows.Next() {
		sc, err := scanScorecard(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan scorecard")
		}
		out = append(out, sc)
	}
	return out, errors.Wrap(rows.Err(), "list scorecards")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanScorecard(s scanner) (*models.RepScorecard, error) {
	var sc models.RepScorecard
	var idsJSON string
	m := &sc.Metrics
	err := s.Scan(
		&sc.UserID, &sc.UserName, &sc.Period.Start, &sc.Period.End,
		&m.TotalStageTransitions, &m.ValidTransitions, &m.InvalidAttempts,
		&m.RequiredFieldsCompliance, &m.AverageStageVelocity,
		&m.DealsStagedCorrectly, &m.ContactsStagedCorrectly,
		&sc.ComplianceScore, &sc.Trend, &idsJSON, &sc.CreatedAt, &sc.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(idsJSON), &sc.ViolationIDs); err != nil {
		return nil, errors.Wrap(err, "decode violation ids")
	}
	return &sc, nil
}

type ViolationRepository struct {
	db *sql.DB
}

func NewViolationRepository(db *sql.DB) *ViolationRepository {
	return &ViolationRepository{db: db}
}

const violationColumns = `id, user_id, timestamp, object_type, object_id, violation_type,
	from_stage, to_stage, missing_fields, rule_id, rule_name, severity, resolved, resolved_at`

func (r *ViolationRepository) AddViolation(ctx context.Context, v *models.ComplianceViolation) error {
	fields := v.MissingFields
	if fields == nil {
		fields = []string{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return errors.Wrap(err, "encode missing fields")
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO violations (`+violationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.UserID, v.Timestamp.UTC(), string(v.ObjectType), v.ObjectID, v.ViolationType,
		v.FromStage, v.ToStage, string(fieldsJSON), v.RuleID, v.RuleName, v.Severity,
		v.Resolved, nullTime(v.ResolvedAt),
	)
	return errors.Wrapf(err, "add violation %s", v.ID)
}

func (r *ViolationRepository) GetViolation(ctx context.Context, userID, id string) (*models.ComplianceViolation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+violationColumns+` FROM violations WHERE user_id = ? AND id = ?`, userID, id)
	v, err := scanViolation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get violation %s", id)
	}
	return v, nil
}

// UpdateViolation persists resolution state; the rest of a violation is
// immutable once logged.
func (r *ViolationRepository) UpdateViolation(ctx context.Context, v *models.ComplianceViolation) error {
	_, err := r.db.ExecContext(ctx, `UPDATE violations SET resolved = ?, resolved_at = ? WHERE user_id = ? AND id = ?`,
		v.Resolved, nullTime(v.ResolvedAt), v.UserID, v.ID)
	return errors.Wrapf(err, "update violation %s", v.ID)
}

func (r *ViolationRepository) DeleteViolation(ctx context.Context, userID, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM violations WHERE user_id = ? AND id = ?`, userID, id)
	return errors.Wrapf(err, "delete violation %s", id)
}

func (r *ViolationRepository) ListViolations(ctx context.Context, userID string) ([]*models.ComplianceViolation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+violationColumns+` FROM violations WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list violations")
	}
	defer rows.Close()

	var out []*models.ComplianceViolation
	for rows.Next() {
		v, err := scanViolation(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan violation")
		}
		out = append(out, v)
	}
	return out, errors.Wrap(rows.Err(), "list violations")
}

// ListUsers returns every user with at least one logged violation.
func (r *ViolationRepository) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM violations ORDER BY user_id`)
	if err != nil {
		return nil, errors.Wrap(err, "list violation users")
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, errors.Wrap(err, "scan violation user")
		}
		users = append(users, u)
	}
	return users, errors.Wrap(rows.Err(), "list violation users")
}

func scanViolation(s scanner) (*models.ComplianceViolation, error) {
	var v models.ComplianceViolation
	var objectType, fieldsJSON string
	var resolvedAt sql.NullTime
	err := s.Scan(
		&v.ID, &v.UserID, &v.Timestamp, &objectType, &v.ObjectID, &v.ViolationType,
		&v.FromStage, &v.ToStage, &fieldsJSON, &v.RuleID, &v.RuleName, &v.Severity,
		&v.Resolved, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}
	v.ObjectType = models.ObjectType(objectType)
	if err := json.Unmarshal([]byte(fieldsJSON), &v.MissingFields); err != nil {
		return nil, errors.Wrap(err, "decode missing fields")
	}
	if len(v.MissingFields) == 0 {
		v.MissingFields = nil
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		v.ResolvedAt = &t
	}
	return &v, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
