// ABOUTME: Key-value repositories for scorecards, violations and alerts
// ABOUTME: JSON records carry an insertion sequence so listings keep save order

package charm

import (
	"context"
	"sort"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/alerts"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/scorecard"
	"github.com/pkg/errors"
)

const (
	scorecardPrefix = "scorecard:"
	violationPrefix = "violation:"
	alertPrefix     = "alert:"
	seqKey          = "meta:seq"
)

// record wraps a stored value with the sequence number it was first written at.
type record[T any] struct {
	Seq   uint64 `json:"seq"`
	Value T      `json:"value"`
}

func scorecardKey(userID string) string { return scorecardPrefix + userID }

func violationKey(userID, id string) string { return violationPrefix + userID + ":" + id }

func alertKey(id string) string { return alertPrefix + id }

// listRecords loads every record under prefix ordered by sequence.
func listRecords[T any](c *Client, prefix string) ([]record[T], error) {
	keys, err := c.KeysWithPrefix(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]record[T], 0, len(keys))
	for _, k := range keys {
		var rec record[T]
		ok, err := c.getJSON(string(k), &rec)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

type ScorecardRepository struct {
	c *Client
}

func NewScorecardRepository(c *Client) *ScorecardRepository {
	return &ScorecardRepository{c: c}
}

func (r *ScorecardRepository) GetScorecard(_ context.Context, userID string) (*models.RepScorecard, error) {
	var rec record[models.RepScorecard]
	ok, err := r.c.getJSON(scorecardKey(userID), &rec)
	if err != nil || !ok {
		return nil, errors.Wrapf(err, "get scorecard %s", userID)
	}
	return &rec.Value, nil
}

// SaveScorecard upserts, keeping the sequence of the first save.
func (r *ScorecardRepository) SaveScorecard(_ context.Context, sc *models.RepScorecard) error {
	key := scorecardKey(sc.UserID)
	var rec record[models.RepScorecard]
	ok, err := r.c.getJSON(key, &rec)
	if err != nil {
		return errors.Wrapf(err, "save scorecard %s", sc.UserID)
	}
	if !ok {
		if rec.Seq, err = r.c.nextSeq(seqKey); err != nil {
			return errors.Wrapf(err, "save scorecard %s", sc.UserID)
		}
	}
	rec.Value = *scorecard.CloneScorecard(sc)
	rec.Value.Violations = nil
	return errors.Wrapf(r.c.putJSON(key, rec), "save scorecard %s", sc.UserID)
}

func (r *ScorecardRepository) ListScorecards(_ context.Context) ([]*models.RepScorecard, error) {
	recs, err := listRecords[models.RepScorecard](r.c, scorecardPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "list scorecards")
	}
	out := make([]*models.RepScorecard, len(recs))
	for i := range recs {
		out[i] = &recs[i].Value
	}
	return out, nil
}

type ViolationRepository struct {
	c *Client
}

func NewViolationRepository(c *Client) *ViolationRepository {
	return &ViolationRepository{c: c}
}

func (r *ViolationRepository) AddViolation(_ context.Context, v *models.ComplianceViolation) error {
	seq, err := r.c.nextSeq(seqKey)
	if err != nil {
		return errors.Wrapf(err, "add violation %s", v.ID)
	}
	rec := record[models.ComplianceViolation]{Seq: seq, Value: *scorecard.CloneViolation(v)}
	return errors.Wrapf(r.c.putJSON(violationKey(v.UserID, v.ID), rec), "add violation %s", v.ID)
}

func (r *ViolationRepository) GetViolation(_ context.Context, userID, id string) (*models.ComplianceViolation, error) {
	var rec record[models.ComplianceViolation]
	ok, err := r.c.getJSON(violationKey(userID, id), &rec)
	if err != nil || !ok {
		return nil, errors.Wrapf(err, "get violation %s", id)
	}
	return &rec.Value, nil
}

// UpdateViolation persists resolution state onto the logged record.
func (r *ViolationRepository) UpdateViolation(_ context.Context, v *models.ComplianceViolation) error {
	key := violationKey(v.UserID, v.ID)
	var rec record[models.ComplianceViolation]
	ok, err := r.c.getJSON(key, &rec)
	if err != nil || !ok {
		return errors.Wrapf(err, "update violation %s", v.ID)
	}
	rec.Value.Resolved = v.Resolved
	rec.Value.ResolvedAt = v.ResolvedAt
	return errors.Wrapf(r.c.putJSON(key, rec), "update violation %s", v.ID)
}

func (r *ViolationRepository) DeleteViolation(_ context.Context, userID, id string) error {
	return errors.Wrapf(r.c.Delete([]byte(violationKey(userID, id))), "delete violation %s", id)
}

func (r *ViolationRepository) ListViolations(_ context.Context, userID string) ([]*models.ComplianceViolation, error) {
	recs, err := listRecords[models.ComplianceViolation](r.c, violationKey(userID, ""))
	if err != nil {
		return nil, errors.Wrap(err, "list violations")
	}
	var out []*models.ComplianceViolation
	for i := range recs {
		// A user id containing ':' can share this prefix with another user.
		if recs[i].Value.UserID == userID {
			out = append(out, &recs[i].Value)
		}
	}
	return out, nil
}

type AlertRepository struct {
	c *Client
}

func NewAlertRepository(c *Client) *AlertRepository {
	return &AlertRepository{c: c}
}

func (r *AlertRepository) CreateAlert(_ context.Context, a *models.GovernanceAlert) error {
	seq, err := r.c.nextSeq(seqKey)
	if err != nil {
		return errors.Wrapf(err, "create alert %s", a.ID)
	}
	rec := record[models.GovernanceAlert]{Seq: seq, Value: *alerts.CloneAlert(a)}
	return errors.Wrapf(r.c.putJSON(alertKey(a.ID), rec), "create alert %s", a.ID)
}

func (r *AlertRepository) GetAlert(_ context.Context, id string) (*models.GovernanceAlert, error) {
	var rec record[models.GovernanceAlert]
	ok, err := r.c.getJSON(alertKey(id), &rec)
	if err != nil || !ok {
		return nil, errors.Wrapf(err, "get alert %s", id)
	}
	return &rec.Value, nil
}

// UpdateAlert rewrites an existing alert. Portal and user are fixed at creation.
func (r *AlertRepository) UpdateAlert(_ context.Context, a *models.GovernanceAlert) error {
	key := alertKey(a.ID)
	var rec record[models.GovernanceAlert]
	ok, err := r.c.getJSON(key, &rec)
	if err != nil || !ok {
		return errors.Wrapf(err, "update alert %s", a.ID)
	}
	updated := alerts.CloneAlert(a)
	updated.PortalID = rec.Value.PortalID
	updated.UserID = rec.Value.UserID
	rec.Value = *updated
	return errors.Wrapf(r.c.putJSON(key, rec), "update alert %s", a.ID)
}

func (r *AlertRepository) ListPortalAlerts(_ context.Context, portalID string) ([]*models.GovernanceAlert, error) {
	return r.list(func(a *models.GovernanceAlert) bool { return a.PortalID == portalID })
}

func (r *AlertRepository) ListUserAlerts(_ context.Context, userID string) ([]*models.GovernanceAlert, error) {
	return r.list(func(a *models.GovernanceAlert) bool { return a.UserID == userID })
}

func (r *AlertRepository) ListAlerts(_ context.Context) ([]*models.GovernanceAlert, error) {
	return r.list(func(*models.GovernanceAlert) bool { return true })
}

func (r *AlertRepository) DeleteAlert(_ context.Context, id string) error {
	return errors.Wrapf(r.c.Delete([]byte(alertKey(id))), "delete alert %s", id)
}

func (r *AlertRepository) list(keep func(*models.GovernanceAlert) bool) ([]*models.GovernanceAlert, error) {
	recs, err := listRecords[models.GovernanceAlert](r.c, alertPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "list alerts")
	}
	var out []*models.GovernanceAlert
	for i := range recs {
		if keep(&recs[i].Value) {
			out = append(out, &recs[i].Value)
		}
	}
	return out, nil
}
