package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

func newAuthz(t *testing.T, permRepo *permRepoStub, entityRepo *entityRepoStub, assignRepo *assignmentRepoStub) *AuthzService {
	t.Helper()
	if entityRepo == nil {
		entityRepo = &entityRepoStub{}
	}
	if assignRepo == nil {
		assignRepo = newAssignmentRepoStub()
	}
	return NewAuthzService(permRepo, entityRepo, assignRepo, zaptest.NewLogger(t))
}

func TestAuthz_NoRolesResolvesToNothing(t *testing.T) {
	svc := newAuthz(t, &permRepoStub{byUser: map[string][]domain.Permission{}}, nil, nil)

	scope := svc.ScopeFor(context.Background(), "user-1", domain.ResourceInstructions)
	if scope.Kind != domain.ScopeNone {
		t.Fatalf("expected ScopeNone for actor without roles, got %s", scope.Kind)
	}

	for _, perm := range []string{domain.PermCreateInstruction, domain.PermChangeInstructionStatus, "view_all_projects"} {
		if svc.Authorize(context.Background(), "user-1", perm) {
			t.Errorf("expected authorize=false for %s", perm)
		}
	}
}

func TestAuthz_FailsClosedOnResolutionError(t *testing.T) {
	svc := newAuthz(t, &permRepoStub{listErr: errors.New("db down")}, nil, nil)

	if svc.Authorize(context.Background(), "user-1", domain.PermCreateInstruction) {
		t.Fatal("expected authorize to fail closed on repository error")
	}

	scope := svc.ScopeFor(context.Background(), "user-1", domain.ResourceInstructions)
	if scope.Kind != domain.ScopeNone {
		t.Fatalf("expected ScopeNone on repository error, got %s", scope.Kind)
	}
}

func TestAuthz_GlobalScopeWinsOverOwn(t *testing.T) {
	permRepo := &permRepoStub{byUser: map[string][]domain.Permission{
		"user-1": perms("view_all_projects", "view_my_projects"),
	}}
	svc := newAuthz(t, permRepo, nil, nil)

	scope := svc.ScopeFor(context.Background(), "user-1", domain.ResourceInstructions)
	if scope.Kind != domain.ScopeGlobal {
		t.Fatalf("expected ScopeGlobal, got %s", scope.Kind)
	}
}

func TestAuthz_EntityScopeIncludesSubEntities(t *testing.T) {
	parent := "ent-1"
	child := "ent-2"
	grandchild := "ent-3"

	entityRepo := &entityRepoStub{
		entities: []domain.Entity{
			{ID: parent, Name: "Ministry"},
			{ID: child, Name: "Directorate", ParentID: &parent},
			{ID: grandchild, Name: "Office", ParentID: &child},
			{ID: "ent-other", Name: "Other ministry"},
		},
		chiefed: map[string][]string{"chief-1": {parent}},
	}
	permRepo := &permRepoStub{byUser: map[string][]domain.Permission{
		"chief-1": perms("view_entity_projects"),
	}}

	svc := newAuthz(t, permRepo, entityRepo, nil)

	scope := svc.ScopeFor(context.Background(), "chief-1", domain.ResourceInstructions)
	if scope.Kind != domain.ScopeEntity {
		t.Fatalf("expected ScopeEntity, got %s", scope.Kind)
	}

	want := map[string]bool{parent: false, child: false, grandchild: false}
	for _, id := range scope.EntityIDs {
		if _, ok := want[id]; !ok {
			t.Errorf("unexpected entity id %s in scope", id)
		}
		want[id] = true
	}
	for id, seen := range want {
		if !seen {
			t.Errorf("entity %s missing from scope", id)
		}
	}
}

func TestAuthz_EntityPermissionWithoutLeadershipFallsThrough(t *testing.T) {
	permRepo := &permRepoStub{byUser: map[string][]domain.Permission{
		"user-1": perms("view_entity_projects", "view_my_projects"),
	}}
	svc := newAuthz(t, permRepo, &entityRepoStub{}, nil)

	scope := svc.ScopeFor(context.Background(), "user-1", domain.ResourceInstructions)
	if scope.Kind != domain.ScopeOwn {
		t.Fatalf("expected ScopeOwn when chiefing nothing, got %s", scope.Kind)
	}
	if scope.UserID != "user-1" {
		t.Fatalf("expected own scope bound to actor, got %q", scope.UserID)
	}
}

func TestAuthz_OwnScope(t *testing.T) {
	permRepo := &permRepoStub{byUser: map[string][]domain.Permission{
		"user-1": perms("view_my_projects"),
	}}
	svc := newAuthz(t, permRepo, nil, nil)

	scope := svc.ScopeFor(context.Background(), "user-1", domain.ResourceInstructions)
	if scope.Kind != domain.ScopeOwn || scope.UserID != "user-1" {
		t.Fatalf("expected own scope for user-1, got %+v", scope)
	}
}

func TestAuthz_IsCurrentAssignee(t *testing.T) {
	assignRepo := newAssignmentRepoStub()
	assignRepo.rows["a1"] = domain.Assignment{
		ID: "a1", SubjectType: domain.SubjectInstruction, SubjectID: "instr-1",
		UserID: "p1", Role: domain.RoleBearer, Active: true,
	}
	past := timeAgo(48)
	assignRepo.rows["a2"] = domain.Assignment{
		ID: "a2", SubjectType: domain.SubjectInstruction, SubjectID: "instr-1",
		UserID: "p2", Role: domain.RoleBearer, Active: false, EndedAt: &past,
	}

	svc := newAuthz(t, &permRepoStub{}, nil, assignRepo)

	ok, err := svc.IsCurrentAssignee(context.Background(), "p1", domain.SubjectInstruction, "instr-1", domain.RoleBearer)
	if err != nil || !ok {
		t.Fatalf("expected p1 to be a current bearer, got ok=%v err=%v", ok, err)
	}

	ok, err = svc.IsCurrentAssignee(context.Background(), "p2", domain.SubjectInstruction, "instr-1", domain.RoleBearer)
	if err != nil || ok {
		t.Fatalf("expected ended assignment not to count, got ok=%v err=%v", ok, err)
	}
}

func TestCatalogValidation(t *testing.T) {
	if err := domain.ValidateCatalog(); err != nil {
		t.Fatalf("catalog validation failed: %v", err)
	}

	if _, ok := domain.ViewPermissionsFor(domain.ResourceKind("unknown")); ok {
		t.Fatal("expected unknown resource kind to be unmapped")
	}
}
