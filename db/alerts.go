// ABOUTME: SQLite repository for governance alerts
// ABOUTME: Portal and user lookups are indexed columns, so deletes never leave stale entries
package db

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/pkg/errors"
)

type AlertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = `id, portal_id, type, severity, title, message, object_type, object_id,
	user_id, timestamp, acknowledged, acknowledged_by, acknowledged_at, metadata`

func (r *AlertRepository) CreateAlert(ctx context.Context, a *models.GovernanceAlert) error {
	metadataJSON, err := json.Marshal(a.Metadata)
	if err != nil {
		return errors.Wrap(err, "encode alert metadata")
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO alerts (`+alertColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.PortalID, a.Type, a.Severity, a.Title, a.Message, string(a.ObjectType), a.ObjectID,
		a.UserID, a.Timestamp.UTC(), a.Acknowledged, a.AcknowledgedBy, nullTime(a.AcknowledgedAt), metadataJSON,
	)
	return errors.Wrapf(err, "create alert %s", a.ID)
}

func (r *AlertRepository) GetAlert(ctx context.Context, id string) (*models.GovernanceAlert, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id)
	a, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get alert %s", id)
	}
	return a, nil
}

// UpdateAlert persists acknowledgement state and content changes. Portal and
// user are fixed at creation.
func (r *AlertRepository) UpdateAlert(ctx context.Context, a *models.GovernanceAlert) error {
	metadataJSON, err := json.Marshal(a.Metadata)
	if err != nil {
		return errors.Wrap(err, "encode alert metadata")
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE alerts
		SET type = ?, severity = ?, title = ?, message = ?,
			acknowledged = ?, acknowledged_by = ?, acknowledged_at = ?, metadata = ?
		WHERE id = ?
	`,
		a.Type, a.Severity, a.Title, a.Message,
		a.Acknowledged, a.AcknowledgedBy, nullTime(a.AcknowledgedAt), metadataJSON,
		a.ID,
	)
	return errors.Wrapf(err, "update alert %s", a.ID)
}

func (r *AlertRepository) ListPortalAlerts(ctx context.Context, portalID string) ([]*models.GovernanceAlert, error) {
	return r.list(ctx, `WHERE portal_id = ?`, portalID)
}

func (r *AlertRepository) ListUserAlerts(ctx context.Context, userID string) ([]*models.GovernanceAlert, error) {
	return r.list(ctx, `WHERE user_id = ?`, userID)
}

func (r *AlertRepository) ListAlerts(ctx context.Context) ([]*models.GovernanceAlert, error) {
	return r.list(ctx, ``)
}

func (r *AlertRepository) DeleteAlert(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?`, id)
	return errors.Wrapf(err, "delete alert %s", id)
}

func (r *AlertRepository) list(ctx context.Context, where string, args ...any) ([]*models.GovernanceAlert, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+alertColumns+` FROM alerts `+where+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list alerts")
	}
	defer rows.Close()

	var out []*models.GovernanceAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan alert")
		}
		out = append(out, a)
	}
	return out, errors.Wrap(rows.Err(), "list alerts")
}

func scanAlert(s scanner) (*models.GovernanceAlert, error) {
	var a models.GovernanceAlert
	var objectType string
	var acknowledgedAt sql.NullTime
	var metadataJSON []byte
	err := s.Scan(
		&a.ID, &a.PortalID, &a.Type, &a.Severity, &a.Title, &a.Message, &objectType, &a.ObjectID,
		&a.UserID, &a.Timestamp, &a.Acknowledged, &a.AcknowledgedBy, &acknowledgedAt, &metadataJSON,
	)
	if err != nil {
		return nil, err
	}
	a.ObjectType = models.ObjectType(objectType)
	if acknowledgedAt.Valid {
		t := acknowledgedAt.Time
		a.AcknowledgedAt = &t
	}
	if len(metadataJSON) > 0 && string(metadataJSON) != "null" {
		if err := json.Unmarshal(metadataJSON, &a.Metadata); err != nil {
			return nil, errors.Wrap(err, "decode alert metadata")
		}
	}
	return &a, nil
}
