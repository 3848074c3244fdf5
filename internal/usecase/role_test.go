package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

func newRoleService(t *testing.T, roles *roleRepoStub, perms *permRepoStub) *RoleService {
	t.Helper()
	if perms == nil {
		perms = &permRepoStub{byUser: map[string][]domain.Permission{}}
	}
	logger := zaptest.NewLogger(t)
	authz := NewAuthzService(perms, &entityRepoStub{}, newAssignmentRepoStub(), logger)
	audit := NewAuditRecorder(&auditRepoStub{}, logger)
	return NewRoleService(roles, perms, authz, audit, logger)
}

func TestRoleService_CreateRequiresManageRoles(t *testing.T) {
	roles := newRoleRepoStub()
	svc := newRoleService(t, roles, &permRepoStub{byUser: map[string][]domain.Permission{}})

	_, err := svc.Create(context.Background(), "actor-1", CreateRoleInput{Name: "controllers"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(roles.created) != 0 {
		t.Fatalf("expected no role created, got %d", len(roles.created))
	}
}

func TestRoleService_CreateSeedsPermissions(t *testing.T) {
	roles := newRoleRepoStub()
	permRepo := &permRepoStub{byUser: map[string][]domain.Permission{
		"admin-1": perms("manage_roles"),
	}}
	svc := newRoleService(t, roles, permRepo)

	role, err := svc.Create(context.Background(), "admin-1", CreateRoleInput{
		Name:          "controllers",
		PermissionIDs: []string{"perm-1", "perm-2"},
	})
	if err != nil {
		t.Fatalf("create role: %v", err)
	}
	if role.Name != "controllers" {
		t.Fatalf("expected role name controllers, got %q", role.Name)
	}
	if got := roles.assigned[role.ID]; len(got) != 2 {
		t.Fatalf("expected 2 seeded permissions, got %d", len(got))
	}
}

func TestRoleService_CreateRejectsDuplicateName(t *testing.T) {
	roles := newRoleRepoStub()
	roles.byName["controllers"] = domain.Role{ID: "role-1", Name: "controllers"}
	permRepo := &permRepoStub{byUser: map[string][]domain.Permission{
		"admin-1": perms("manage_roles"),
	}}
	svc := newRoleService(t, roles, permRepo)

	_, err := svc.Create(context.Background(), "admin-1", CreateRoleInput{Name: "controllers"})
	if !errors.Is(err, ErrRoleExists) {
		t.Fatalf("expected ErrRoleExists, got %v", err)
	}
}

func TestRoleService_GrantPermissionsUnknownRole(t *testing.T) {
	roles := newRoleRepoStub()
	permRepo := &permRepoStub{byUser: map[string][]domain.Permission{
		"admin-1": perms("manage_roles"),
	}}
	svc := newRoleService(t, roles, permRepo)

	_, err := svc.GrantPermissions(context.Background(), "admin-1", "missing", []string{"perm-1"})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}
