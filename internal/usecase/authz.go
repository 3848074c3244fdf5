package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
)

// AuthzService resolves effective permissions and visibility scopes. It is a
// pure read over current role, grant, and assignment state; callers apply the
// returned scope as a query filter themselves.
type AuthzService struct {
	permissions port.PermissionRepository
	entities    port.EntityRepository
	assignments port.AssignmentRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthzService constructs an AuthzService.
func NewAuthzService(
	permissions port.PermissionRepository,
	entities port.EntityRepository,
	assignments port.AssignmentRepository,
	logger *zap.Logger,
) *AuthzService {
	return &AuthzService{
		permissions: permissions,
		entities:    entities,
		assignments: assignments,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Resolve returns the actor's effective permission set: the union of
// permissions from all non-revoked role assignments plus direct grants.
func (s *AuthzService) Resolve(ctx context.Context, actorID string) (domain.PermissionSet, error) {
	if actorID == "" {
		return domain.PermissionSet{}, nil
	}

	perms, err := s.permissions.ListByUser(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("list permissions for user: %w", err)
	}

	return domain.NewPermissionSet(perms), nil
}

// Authorize reports whether the actor holds the named permission. It fails
// closed: resolution errors and missing permissions alike yield false, and no
// internal state leaks to the caller.
func (s *AuthzService) Authorize(ctx context.Context, actorID, permission string) bool {
	set, err := s.Resolve(ctx, actorID)
	if err != nil {
		s.logger.Error("permission resolution failed, denying",
			zap.String("actor_id", actorID),
			zap.String("permission", permission),
			zap.Error(err),
		)
		return false
	}
	return set.Has(permission)
}

// ScopeFor derives the actor's visibility scope for a resource kind.
// Precedence, first match wins: global permission, then entity leadership
// with the entity-scoped permission, then the self-scoped permission, then
// no visibility at all. Errors resolve to ScopeNone.
func (s *AuthzService) ScopeFor(ctx context.Context, actorID string, kind domain.ResourceKind) domain.Scope {
	none := domain.Scope{Kind: domain.ScopeNone}

	viewPerms, ok := domain.ViewPermissionsFor(kind)
	if !ok {
		s.logger.Error("unknown resource kind in scope resolution", zap.String("kind", string(kind)))
		return none
	}

	set, err := s.Resolve(ctx, actorID)
	if err != nil {
		s.logger.Error("scope resolution failed, denying",
			zap.String("actor_id", actorID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return none
	}

	if set.Has(viewPerms.Global) {
		return domain.Scope{Kind: domain.ScopeGlobal}
	}

	if viewPerms.Entity != "" && set.Has(viewPerms.Entity) {
		entityIDs, err := s.chiefedEntityClosure(ctx, actorID)
		if err != nil {
			s.logger.Error("entity scope resolution failed, denying",
				zap.String("actor_id", actorID),
				zap.Error(err),
			)
			return none
		}
		if len(entityIDs) > 0 {
			return domain.Scope{Kind: domain.ScopeEntity, EntityIDs: entityIDs}
		}
	}

	if viewPerms.Own != "" && set.Has(viewPerms.Own) {
		return domain.Scope{Kind: domain.ScopeOwn, UserID: actorID}
	}

	return none
}

// chiefedEntityClosure returns the entities the actor currently chiefs plus,
// transitively, their sub-entities.
func (s *AuthzService) chiefedEntityClosure(ctx context.Context, actorID string) ([]string, error) {
	chiefed, err := s.entities.ChiefedEntityIDs(ctx, actorID, s.now())
	if err != nil {
		return nil, fmt.Errorf("list chiefed entities: %w", err)
	}
	if len(chiefed) == 0 {
		return nil, nil
	}

	all, err := s.entities.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}

	return domain.SubEntityIDs(all, chiefed), nil
}

// IsCurrentAssignee reports whether the actor currently holds the given role
// on the subject.
func (s *AuthzService) IsCurrentAssignee(ctx context.Context, actorID string, subjectType domain.SubjectType, subjectID string, role domain.AssignmentRole) (bool, error) {
	current, err := s.assignments.FindCurrent(ctx, subjectType, subjectID, role, s.now())
	if err != nil {
		return false, fmt.Errorf("find current assignments: %w", err)
	}
	for _, a := range current {
		if a.UserID == actorID {
			return true, nil
		}
	}
	return false, nil
}
