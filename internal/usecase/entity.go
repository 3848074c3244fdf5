package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
)

// CreateEntityInput captures the payload for creating an organizational unit.
type CreateEntityInput struct {
	Name        string
	Description *string
	ParentID    *string
}

// EntityService exposes the organizational hierarchy and its temporal
// leadership assignments.
type EntityService struct {
	entities port.EntityRepository
	users    port.UserRepository
	authz    *AuthzService
	audit    *AuditRecorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewEntityService constructs an EntityService.
func NewEntityService(
	entities port.EntityRepository,
	users port.UserRepository,
	authz *AuthzService,
	audit *AuditRecorder,
	logger *zap.Logger,
) *EntityService {
	return &EntityService{
		entities: entities,
		users:    users,
		authz:    authz,
		audit:    audit,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create adds an organizational unit to the hierarchy.
func (s *EntityService) Create(ctx context.Context, actorID string, input CreateEntityInput) (*domain.Entity, error) {
	if !s.authz.Authorize(ctx, actorID, domain.PermManageEntities) {
		return nil, domain.ErrForbidden
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("entity name is required")
	}

	if input.ParentID != nil {
		if _, err := s.entities.GetByID(ctx, *input.ParentID); err != nil {
			return nil, fmt.Errorf("get parent entity: %w", err)
		}
	}

	entity := domain.Entity{
		ID:          uuid.NewString(),
		Name:        name,
		Description: input.Description,
		ParentID:    input.ParentID,
		CreatedAt:   s.now(),
	}

	if err := s.entities.Create(ctx, entity); err != nil {
		return nil, fmt.Errorf("create entity: %w", err)
	}

	return &entity, nil
}

// Get returns a single entity.
func (s *EntityService) Get(ctx context.Context, id string) (*domain.Entity, error) {
	entity, err := s.entities.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get entity: %w", err)
	}
	return entity, nil
}

// List returns the full hierarchy.
func (s *EntityService) List(ctx context.Context) ([]domain.Entity, error) {
	entities, err := s.entities.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	return entities, nil
}

// SubEntityIDs returns the entity plus every descendant in the hierarchy.
func (s *EntityService) SubEntityIDs(ctx context.Context, entityID string) ([]string, error) {
	all, err := s.entities.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	return domain.SubEntityIDs(all, []string{entityID}), nil
}

// CurrentChief returns the current leadership row for the entity, or
// repository.ErrNotFound when leadership is vacant.
func (s *EntityService) CurrentChief(ctx context.Context, entityID string) (*domain.EntityLeadership, error) {
	chief, err := s.entities.CurrentChief(ctx, entityID, s.now())
	if err != nil {
		return nil, err
	}
	return chief, nil
}

// AssignChief installs a new entity chief, closing the current leadership
// row first so at most one is in force at a time.
func (s *EntityService) AssignChief(ctx context.Context, actorID, entityID, userID string) (*domain.EntityLeadership, error) {
	if !s.authz.Authorize(ctx, actorID, domain.PermManageEntities) {
		return nil, domain.ErrForbidden
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get chief candidate: %w", err)
	}
	if !user.IsActive() {
		return nil, fmt.Errorf("chief candidate %s account is disabled", userID)
	}

	now := s.now()
	if current, err := s.entities.CurrentChief(ctx, entityID, now); err == nil {
		if current.UserID == userID {
			return current, nil
		}
		if err := s.entities.EndLeadership(ctx, current.ID, now); err != nil {
			return nil, fmt.Errorf("end current leadership: %w", err)
		}
	}

	leadership := domain.EntityLeadership{
		ID:        uuid.NewString(),
		EntityID:  entityID,
		UserID:    userID,
		StartDate: now,
	}

	if err := s.entities.AssignChief(ctx, leadership); err != nil {
		return nil, fmt.Errorf("assign chief: %w", err)
	}

	s.audit.RecordAction(ctx, "entity.chief_assigned", "entity_leaderships", leadership.ID, actorID, map[string]any{
		"entity_id": entityID,
		"user_id":   userID,
	})

	return &leadership, nil
}
