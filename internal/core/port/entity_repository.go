package port

import (
	"context"
	"time"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

// EntityRepository is the read-mostly registry of organizational units and
// temporal leadership assignments.
type EntityRepository interface {
	Create(ctx context.Context, entity domain.Entity) error
	GetByID(ctx context.Context, id string) (*domain.Entity, error)
	ListAll(ctx context.Context) ([]domain.Entity, error)
	ListChildren(ctx context.Context, parentID string) ([]domain.Entity, error)

	// CurrentChief returns the user currently chiefing the entity, or
	// repository.ErrNotFound when leadership is vacant.
	CurrentChief(ctx context.Context, entityID string, now time.Time) (*domain.EntityLeadership, error)
	// ChiefedEntityIDs returns ids of entities the user currently chiefs.
	ChiefedEntityIDs(ctx context.Context, userID string, now time.Time) ([]string, error)
	AssignChief(ctx context.Context, leadership domain.EntityLeadership) error
	// EndLeadership closes the current leadership row without deleting it.
	EndLeadership(ctx context.Context, leadershipID string, at time.Time) error
}
