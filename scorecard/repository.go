// ABOUTME: Storage interfaces for scorecards and the violation log
// ABOUTME: In-memory implementations used by tests and the memory backend
package scorecard

import (
	"context"
	"sync"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
)

// ScorecardRepository stores one scorecard per user. GetScorecard returns
// nil, nil for an unknown user. ListScorecards returns scorecards in the
// order they were first saved.
type ScorecardRepository interface {
	GetScorecard(ctx context.Context, userID string) (*models.RepScorecard, error)
	SaveScorecard(ctx context.Context, sc *models.RepScorecard) error
	ListScorecards(ctx context.Context) ([]*models.RepScorecard, error)
}

// ViolationRepository is the violation log. It is the only place violation
// records live; scorecards reference them by id. DeleteViolation exists to
// undo an append whose scorecard update failed and is a no-op for unknown ids.
type ViolationRepository interface {
	AddViolation(ctx context.Context, v *models.ComplianceViolation) error
	DeleteViolation(ctx context.Context, userID, id string) error
	GetViolation(ctx context.Context, userID, id string) (*models.ComplianceViolation, error)
	UpdateViolation(ctx context.Context, v *models.ComplianceViolation) error
	ListViolations(ctx context.Context, userID string) ([]*models.ComplianceViolation, error)
}

type MemoryScorecardRepository struct {
	mu     sync.RWMutex
	byUser map[string]*models.RepScorecard
	order  []string
}

func NewMemoryScorecardRepository() *MemoryScorecardRepository {
	return &MemoryScorecardRepository{byUser: make(map[string]*models.RepScorecard)}
}

func (r *MemoryScorecardRepository) GetScorecard(_ context.Context, userID string) (*models.RepScorecard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sc, ok := r.byUser[userID]
	if !ok {
		return nil, nil
	}
	return CloneScorecard(sc), nil
}

func (r *MemoryScorecardRepository) SaveScorecard(_ context.Context, sc *models.RepScorecard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[sc.UserID]; !ok {
		r.order = append(r.order, sc.UserID)
	}
	stored := CloneScorecard(sc)
	stored.Violations = nil
	r.byUser[sc.UserID] = stored
	return nil
}

func (r *MemoryScorecardRepository) ListScorecards(_ context.Context) ([]*models.RepScorecard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.RepScorecard, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, CloneScorecard(r.byUser[id]))
	}
	return out, nil
}

type MemoryViolationRepository struct {
	mu     sync.RWMutex
	byUser map[string][]*models.ComplianceViolation
}

func NewMemoryViolationRepository() *MemoryViolationRepository {
	return &MemoryViolationRepository{byUser: make(map[string][]*models.ComplianceViolation)}
}

func (r *MemoryViolationRepository) AddViolation(_ context.Context, v *models.ComplianceViolation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[v.UserID] = append(r.byUser[v.UserID], CloneViolation(v))
	return nil
}

func (r *MemoryViolationRepository) GetViolation(_ context.Context, userID, id string) (*models.ComplianceViolation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.byUser[userID] {
		if v.ID == id {
			return CloneViolation(v), nil
		}
	}
	return nil, nil
}

func (r *MemoryViolationRepository) UpdateViolation(_ context.Context, v *models.ComplianceViolation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.byUser[v.UserID] {
		if existing.ID == v.ID {
			r.byUser[v.UserID][i] = CloneViolation(v)
			return nil
		}
	}
	return nil
}

func (r *MemoryViolationRepository) DeleteViolation(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.byUser[userID]
	for i, v := range list {
		if v.ID == id {
			r.byUser[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *MemoryViolationRepository) ListViolations(_ context.Context, userID string) ([]*models.ComplianceViolation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.byUser[userID]
	out := make([]*models.ComplianceViolation, len(list))
	for i, v := range list {
		out[i] = CloneViolation(v)
	}
	return out, nil
}

// CloneScorecard deep-copies sc so repositories never share slices with callers.
func CloneScorecard(sc *models.RepScorecard) *models.RepScorecard {
	if sc == nil {
		return nil
	}
	out := *sc
	out.ViolationIDs = append([]string(nil), sc.ViolationIDs...)
	if sc.Violations != nil {
		out.Violations = make([]models.ComplianceViolation, len(sc.Violations))
		for i := range sc.Violations {
			out.Violations[i] = *CloneViolation(&sc.Violations[i])
		}
	}
	return &out
}

func CloneViolation(v *models.ComplianceViolation) *models.ComplianceViolation {
	if v == nil {
		return nil
	}
	out := *v
	out.MissingFields = append([]string(nil), v.MissingFields...)
	if v.ResolvedAt != nil {
		t := *v.ResolvedAt
		out.ResolvedAt = &t
	}
	return &out
}
