package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

func newUserService(t *testing.T, userRepo *userRepoStub, roleRepo *roleRepoStub, permRepo *permRepoStub) (*UserService, *auditRepoStub) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	authz := NewAuthzService(permRepo, &entityRepoStub{}, newAssignmentRepoStub(), logger)
	auditRepo := &auditRepoStub{}
	audit := NewAuditRecorder(auditRepo, logger)
	return NewUserService(userRepo, roleRepo, authz, audit, logger), auditRepo
}

func userAdminPerms() *permRepoStub {
	return &permRepoStub{byUser: map[string][]domain.Permission{
		"admin-1": perms(domain.PermManageUsers, domain.PermManageRoles),
	}}
}

func TestUserService_CreateRequiresManageUsers(t *testing.T) {
	userRepo := &userRepoStub{}
	svc, _ := newUserService(t, userRepo, newRoleRepoStub(), &permRepoStub{byUser: map[string][]domain.Permission{}})

	_, err := svc.Create(context.Background(), "nobody", CreateUserInput{Username: "amina", Email: "amina@example.com"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUserService_CreateAssignsInitialRoles(t *testing.T) {
	userRepo := &userRepoStub{}
	roleRepo := newRoleRepoStub()
	svc, auditRepo := newUserService(t, userRepo, roleRepo, userAdminPerms())

	user, err := svc.Create(context.Background(), "admin-1", CreateUserInput{
		Username: "amina",
		Email:    "amina@example.com",
		RoleIDs:  []string{"role-1", "role-2"},
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Status != domain.UserStatusActive {
		t.Fatalf("expected active status, got %s", user.Status)
	}
	if got := roleRepo.userRoles[user.ID]; len(got) != 2 {
		t.Fatalf("expected 2 initial roles, got %d", len(got))
	}
	if len(auditRepo.entries) != 1 || auditRepo.entries[0].ActionName != "user.created" {
		t.Fatalf("expected one user.created audit entry, got %+v", auditRepo.entries)
	}
}

func TestUserService_CreateRejectsDuplicateUsername(t *testing.T) {
	userRepo := &userRepoStub{users: map[string]domain.User{
		"u1": {ID: "u1", Username: "amina", Status: domain.UserStatusActive},
	}}
	svc, _ := newUserService(t, userRepo, newRoleRepoStub(), userAdminPerms())

	_, err := svc.Create(context.Background(), "admin-1", CreateUserInput{Username: "amina", Email: "amina@example.com"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserService_DisableKeepsTheAccount(t *testing.T) {
	userRepo := &userRepoStub{users: map[string]domain.User{
		"u1": {ID: "u1", Username: "amina", Status: domain.UserStatusActive},
	}}
	svc, _ := newUserService(t, userRepo, newRoleRepoStub(), userAdminPerms())

	if err := svc.Disable(context.Background(), "admin-1", "u1"); err != nil {
		t.Fatalf("disable user: %v", err)
	}

	u := userRepo.users["u1"]
	if u.Status != domain.UserStatusDisabled {
		t.Fatalf("expected disabled status, got %s", u.Status)
	}
}
