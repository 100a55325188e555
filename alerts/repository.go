// ABOUTME: Alert storage interface and in-memory implementation
// ABOUTME: Portal and user indices live under the same lock as the alerts they point to
package alerts

import (
	"context"
	"sync"

	"github.com/inevitablesale/hubspot-lifecycle-gate-governance-app/models"
)

// Repository stores alerts. Lookups of unknown ids return nil, nil and
// deleting an unknown id is not an error. List results are in creation order.
type Repository interface {
	CreateAlert(ctx context.Context, alert *models.GovernanceAlert) error
	GetAlert(ctx context.Context, id string) (*models.GovernanceAlert, error)
	UpdateAlert(ctx context.Context, alert *models.GovernanceAlert) error
	ListPortalAlerts(ctx context.Context, portalID string) ([]*models.GovernanceAlert, error)
	ListUserAlerts(ctx context.Context, userID string) ([]*models.GovernanceAlert, error)
	ListAlerts(ctx context.Context) ([]*models.GovernanceAlert, error)
	DeleteAlert(ctx context.Context, id string) error
}

type MemoryRepository struct {
	mu       sync.RWMutex
	alerts   map[string]*models.GovernanceAlert
	order    []string
	byPortal map[string][]string
	byUser   map[string][]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		alerts:   make(map[string]*models.GovernanceAlert),
		byPortal: make(map[string][]string),
		byUser:   make(map[string][]string),
	}
}

func (r *MemoryRepository) CreateAlert(_ context.Context, alert *models.GovernanceAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts[alert.ID] = CloneAlert(alert)
	r.order = append(r.order, alert.ID)
	r.byPortal[alert.PortalID] = append(r.byPortal[alert.PortalID], alert.ID)
	r.byUser[alert.UserID] = append(r.byUser[alert.UserID], alert.ID)
	return nil
}

func (r *MemoryRepository) GetAlert(_ context.Context, id string) (*models.GovernanceAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return CloneAlert(r.alerts[id]), nil
}

// UpdateAlert replaces the stored alert. Portal and user are fixed at creation.
func (r *MemoryRepository) UpdateAlert(_ context.Context, alert *models.GovernanceAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.alerts[alert.ID]
	if !ok {
		return nil
	}
	updated := CloneAlert(alert)
	updated.PortalID = existing.PortalID
	updated.UserID = existing.UserID
	r.alerts[alert.ID] = updated
	return nil
}

func (r *MemoryRepository) ListPortalAlerts(_ context.Context, portalID string) ([]*models.GovernanceAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(r.byPortal[portalID]), nil
}

func (r *MemoryRepository) ListUserAlerts(_ context.Context, userID string) ([]*models.GovernanceAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(r.byUser[userID]), nil
}

func (r *MemoryRepository) ListAlerts(_ context.Context) ([]*models.GovernanceAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(r.order), nil
}

func (r *MemoryRepository) DeleteAlert(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[id]
	if !ok {
		return nil
	}
	delete(r.alerts, id)
	r.order = without(r.order, id)
	r.byPortal[alert.PortalID] = without(r.byPortal[alert.PortalID], id)
	if len(r.byPortal[alert.PortalID]) == 0 {
		delete(r.byPortal, alert.PortalID)
	}
	r.byUser[alert.UserID] = without(r.byUser[alert.UserID], id)
	if len(r.byUser[alert.UserID]) == 0 {
		delete(r.byUser, alert.UserID)
	}
	return nil
}

// IndexSizes reports how many ids the portal and user indices hold.
func (r *MemoryRepository) IndexSizes() (portal, user int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ids := range r.byPortal {
		portal += len(ids)
	}
	for _, ids := range r.byUser {
		user += len(ids)
	}
	return portal, user
}

func (r *MemoryRepository) resolve(ids []string) []*models.GovernanceAlert {
	out := make([]*models.GovernanceAlert, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.alerts[id]; ok {
			out = append(out, CloneAlert(a))
		}
	}
	return out
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// CloneAlert deep-copies a so stored alerts never alias caller memory.
func CloneAlert(a *models.GovernanceAlert) *models.GovernanceAlert {
	if a == nil {
		return nil
	}
	out := *a
	if a.AcknowledgedAt != nil {
		t := *a.AcknowledgedAt
		out.AcknowledgedAt = &t
	}
	if a.Metadata != nil {
		out.Metadata = make(map[string]string, len(a.Metadata))
		for k, v := range a.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
