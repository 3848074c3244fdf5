package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

func newTaskService(t *testing.T, taskRepo *taskRepoStub, instrRepo *instructionRepoStub, permRepo *permRepoStub) *TaskService {
	t.Helper()
	logger := zaptest.NewLogger(t)
	authz := NewAuthzService(permRepo, &entityRepoStub{}, newAssignmentRepoStub(), logger)
	audit := NewAuditRecorder(&auditRepoStub{}, logger)
	assignments := NewAssignmentService(newAssignmentRepoStub(), activeUsers("r1"), authz, audit, logger)
	return NewTaskService(taskRepo, instrRepo, assignments, authz, audit, logger)
}

func TestTaskService_CreateWithResponsiblesNeedsAssignPermission(t *testing.T) {
	instrRepo := newInstructionRepoStub()
	instrRepo.instructions["instr-1"] = domain.Instruction{ID: "instr-1", Title: "Census"}
	taskRepo := newTaskRepoStub()
	svc := newTaskService(t, taskRepo, instrRepo, &permRepoStub{byUser: map[string][]domain.Permission{
		"clerk-1": perms(domain.PermCreateTask, "view_all_tasks"),
	}})

	_, err := svc.Create(context.Background(), "clerk-1", CreateTaskInput{
		InstructionID:      "instr-1",
		Title:              "Collect forms",
		ResponsibleUserIDs: []string{"r1"},
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden without assign permission, got %v", err)
	}
	if len(taskRepo.tasks) != 0 {
		t.Fatalf("expected no task persisted, got %d", len(taskRepo.tasks))
	}
}

func TestTaskService_GetEntityScopeChecksMembership(t *testing.T) {
	logger := zaptest.NewLogger(t)
	permRepo := &permRepoStub{byUser: map[string][]domain.Permission{
		"chief-1": perms("view_entity_tasks"),
	}}
	entities := &entityRepoStub{chiefed: map[string][]string{"chief-1": {"e1"}}}
	authz := NewAuthzService(permRepo, entities, newAssignmentRepoStub(), logger)
	audit := NewAuditRecorder(&auditRepoStub{}, logger)
	assignments := NewAssignmentService(newAssignmentRepoStub(), activeUsers("r1"), authz, audit, logger)

	instrRepo := newInstructionRepoStub()
	taskRepo := newTaskRepoStub()
	taskRepo.tasks["t-near"] = domain.Task{ID: "t-near", InstructionID: "instr-1", Title: "Local"}
	taskRepo.tasks["t-far"] = domain.Task{ID: "t-far", InstructionID: "instr-2", Title: "Foreign"}
	taskRepo.visible = map[string]bool{"t-near": true}

	svc := NewTaskService(taskRepo, instrRepo, assignments, authz, audit, logger)

	if _, err := svc.Get(context.Background(), "chief-1", "t-near"); err != nil {
		t.Fatalf("get task inside entity closure: %v", err)
	}
	if _, err := svc.Get(context.Background(), "chief-1", "t-far"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden outside entity closure, got %v", err)
	}
}
