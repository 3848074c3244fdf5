package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/eventbus"
)

type lifecycleFixture struct {
	svc    *LifecycleService
	store  *lifecycleStoreStub
	events []domain.Event
}

func newLifecycleFixture(t *testing.T, permRepo *permRepoStub, assignRepo *assignmentRepoStub, instrRepo *instructionRepoStub, taskRepo *taskRepoStub) *lifecycleFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	if assignRepo == nil {
		assignRepo = newAssignmentRepoStub()
	}
	if instrRepo == nil {
		instrRepo = newInstructionRepoStub()
	}
	if taskRepo == nil {
		taskRepo = newTaskRepoStub()
	}

	store := newLifecycleStoreStub()
	bus := eventbus.New(logger, nil)
	authz := NewAuthzService(permRepo, &entityRepoStub{}, assignRepo, logger)

	fixture := &lifecycleFixture{store: store}
	bus.Subscribe(func(_ context.Context, ev domain.Event) error {
		fixture.events = append(fixture.events, ev)
		return nil
	})

	fixture.svc = NewLifecycleService(store, instrRepo, taskRepo, authz, bus, logger)
	return fixture
}

func bearerOf(assignRepo *assignmentRepoStub, instructionID, userID string) {
	assignRepo.rows["bearer-"+userID] = domain.Assignment{
		ID: "bearer-" + userID, SubjectType: domain.SubjectInstruction,
		SubjectID: instructionID, UserID: userID, Role: domain.RoleBearer, Active: true,
	}
}

// Scenario B: in_progress → blocked succeeds; blocked → closure_requested is
// rejected because the lifecycle graph forces blocked work back through
// in_progress first.
func TestLifecycle_BlockedCannotRequestClosure(t *testing.T) {
	assignRepo := newAssignmentRepoStub()
	bearerOf(assignRepo, "instr-1", "p1")

	instrRepo := newInstructionRepoStub()
	instrRepo.instructions["instr-1"] = domain.Instruction{ID: "instr-1", Status: domain.StatusInProgress}

	fx := newLifecycleFixture(t, &permRepoStub{}, assignRepo, instrRepo, nil)
	fx.store.statuses["instruction/instr-1"] = domain.StatusInProgress

	subject := SubjectRef{Type: domain.SubjectInstruction, ID: "instr-1"}

	entry, err := fx.svc.Transition(context.Background(), subject, domain.StatusBlocked, "p1", nil)
	if err != nil {
		t.Fatalf("transition to blocked failed: %v", err)
	}
	if entry.PreviousStatus != domain.StatusInProgress || entry.NewStatus != domain.StatusBlocked {
		t.Fatalf("unexpected history entry %+v", entry)
	}
	if len(fx.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(fx.events))
	}

	// Simulate the reload the caller would do before a second transition.
	instrRepo.instructions["instr-1"] = domain.Instruction{ID: "instr-1", Status: domain.StatusBlocked}

	_, err = fx.svc.Transition(context.Background(), subject, domain.StatusClosureRequested, "p1", nil)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from blocked, got %v", err)
	}
	if len(fx.events) != 1 {
		t.Fatalf("rejected transition must not publish an event, got %d", len(fx.events))
	}
}

func TestLifecycle_DoneIsTerminal(t *testing.T) {
	assignRepo := newAssignmentRepoStub()
	bearerOf(assignRepo, "instr-1", "p1")

	instrRepo := newInstructionRepoStub()
	instrRepo.instructions["instr-1"] = domain.Instruction{ID: "instr-1", Status: domain.StatusDone}

	fx := newLifecycleFixture(t, &permRepoStub{}, assignRepo, instrRepo, nil)
	fx.store.statuses["instruction/instr-1"] = domain.StatusDone

	for _, next := range []domain.Status{domain.StatusToDo, domain.StatusInProgress, domain.StatusBlocked, domain.StatusClosureRequested} {
		_, err := fx.svc.Transition(context.Background(), SubjectRef{Type: domain.SubjectInstruction, ID: "instr-1"}, next, "p1", nil)
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Errorf("expected done to be terminal for %s, got %v", next, err)
		}
	}
}

func TestLifecycle_ForbiddenForOutsider(t *testing.T) {
	instrRepo := newInstructionRepoStub()
	instrRepo.instructions["instr-1"] = domain.Instruction{ID: "instr-1", Status: domain.StatusToDo}

	fx := newLifecycleFixture(t, &permRepoStub{byUser: map[string][]domain.Permission{}}, nil, instrRepo, nil)
	fx.store.statuses["instruction/instr-1"] = domain.StatusToDo

	_, err := fx.svc.Transition(context.Background(), SubjectRef{Type: domain.SubjectInstruction, ID: "instr-1"}, domain.StatusInProgress, "outsider", nil)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if fx.store.statusCalls != 0 {
		t.Fatal("authorization must be checked before any write")
	}
}

func TestLifecycle_GlobalPermissionAllowsTransition(t *testing.T) {
	permRepo := &permRepoStub{byUser: map[string][]domain.Permission{
		"supervisor": perms(domain.PermChangeInstructionStatus),
	}}

	instrRepo := newInstructionRepoStub()
	instrRepo.instructions["instr-1"] = domain.Instruction{ID: "instr-1", Status: domain.StatusToDo}

	fx := newLifecycleFixture(t, permRepo, nil, instrRepo, nil)
	fx.store.statuses["instruction/instr-1"] = domain.StatusToDo

	_, err := fx.svc.Transition(context.Background(), SubjectRef{Type: domain.SubjectInstruction, ID: "instr-1"}, domain.StatusInProgress, "supervisor", nil)
	if err != nil {
		t.Fatalf("expected supervisor transition to succeed, got %v", err)
	}
}

// Scenario D: two writers race from the same observed status; the loser gets
// ErrConflict instead of silently overwriting.
func TestLifecycle_ConcurrentTransitionConflicts(t *testing.T) {
	assignRepo := newAssignmentRepoStub()
	assignRepo.rows["r1"] = domain.Assignment{
		ID: "r1", SubjectType: domain.SubjectTask, SubjectID: "task-1",
		UserID: "u1", Role: domain.RoleResponsible, Active: true,
	}
	assignRepo.rows["r2"] = domain.Assignment{
		ID: "r2", SubjectType: domain.SubjectTask, SubjectID: "task-1",
		UserID: "u2", Role: domain.RoleResponsible, Active: true,
	}

	taskRepo := newTaskRepoStub()
	taskRepo.tasks["task-1"] = domain.Task{ID: "task-1", InstructionID: "instr-1", Status: domain.StatusToDo}

	fx := newLifecycleFixture(t, &permRepoStub{}, assignRepo, nil, taskRepo)
	fx.store.statuses["task/task-1"] = domain.StatusToDo

	subject := SubjectRef{Type: domain.SubjectTask, ID: "task-1"}

	if _, err := fx.svc.Transition(context.Background(), subject, domain.StatusInProgress, "u1", nil); err != nil {
		t.Fatalf("first writer failed: %v", err)
	}

	// Second writer still holds the stale to_do read.
	_, err := fx.svc.Transition(context.Background(), subject, domain.StatusInProgress, "u2", nil)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for stale writer, got %v", err)
	}

	if len(fx.events) != 1 {
		t.Fatalf("only the committed transition may publish, got %d events", len(fx.events))
	}
}

// Scenario C: a 40→70 progress update appends exactly one history entry and
// publishes exactly one event.
func TestLifecycle_ExecutionLevelUpdate(t *testing.T) {
	assignRepo := newAssignmentRepoStub()
	bearerOf(assignRepo, "instr-1", "u1")

	instrRepo := newInstructionRepoStub()
	instrRepo.instructions["instr-1"] = domain.Instruction{ID: "instr-1", Status: domain.StatusInProgress, ExecutionLevel: 40}

	fx := newLifecycleFixture(t, &permRepoStub{}, assignRepo, instrRepo, nil)
	fx.store.levels["instruction/instr-1"] = 40

	entry, err := fx.svc.UpdateExecutionLevel(context.Background(), SubjectRef{Type: domain.SubjectInstruction, ID: "instr-1"}, 70, "u1", nil)
	if err != nil {
		t.Fatalf("execution level update failed: %v", err)
	}

	if entry.PreviousLevel != 40 || entry.NewLevel != 70 {
		t.Fatalf("expected 40→70 history entry, got %+v", entry)
	}
	if len(fx.store.levelRows) != 1 {
		t.Fatalf("expected exactly one history row, got %d", len(fx.store.levelRows))
	}
	if len(fx.events) != 1 {
		t.Fatalf("expected exactly one published event, got %d", len(fx.events))
	}

	ev, ok := fx.events[0].(domain.ExecutionLevelChangedEvent)
	if !ok {
		t.Fatalf("expected ExecutionLevelChangedEvent, got %T", fx.events[0])
	}
	if ev.ActorID != "u1" || ev.PreviousLevel != 40 || ev.NewLevel != 70 {
		t.Fatalf("unexpected event payload %+v", ev)
	}
}

func TestLifecycle_ExecutionLevelBounds(t *testing.T) {
	fx := newLifecycleFixture(t, &permRepoStub{}, nil, nil, nil)

	for _, level := range []int{-1, 101, 500} {
		_, err := fx.svc.UpdateExecutionLevel(context.Background(), SubjectRef{Type: domain.SubjectInstruction, ID: "instr-1"}, level, "u1", nil)
		if !errors.Is(err, domain.ErrInvalidExecutionLevel) {
			t.Errorf("expected ErrInvalidExecutionLevel for %d, got %v", level, err)
		}
	}
	if fx.store.levelCalls != 0 {
		t.Fatal("out-of-range levels must be rejected before any write")
	}
}

func TestLifecycle_DoneDoesNotForceExecutionLevel(t *testing.T) {
	assignRepo := newAssignmentRepoStub()
	bearerOf(assignRepo, "instr-1", "p1")

	instrRepo := newInstructionRepoStub()
	instrRepo.instructions["instr-1"] = domain.Instruction{ID: "instr-1", Status: domain.StatusClosureRequested, ExecutionLevel: 80}

	fx := newLifecycleFixture(t, &permRepoStub{}, assignRepo, instrRepo, nil)
	fx.store.statuses["instruction/instr-1"] = domain.StatusClosureRequested
	fx.store.levels["instruction/instr-1"] = 80

	_, err := fx.svc.Transition(context.Background(), SubjectRef{Type: domain.SubjectInstruction, ID: "instr-1"}, domain.StatusDone, "p1", nil)
	if err != nil {
		t.Fatalf("approval transition failed: %v", err)
	}

	if fx.store.levels["instruction/instr-1"] != 80 {
		t.Fatalf("reaching done must not touch execution level, got %d", fx.store.levels["instruction/instr-1"])
	}
	if len(fx.store.levelRows) != 0 {
		t.Fatal("status transition must not append execution level history")
	}
}

// Replaying recorded history from to_do must only traverse lifecycle edges.
func TestLifecycle_HistoryReplaysOnlyGraphEdges(t *testing.T) {
	assignRepo := newAssignmentRepoStub()
	bearerOf(assignRepo, "instr-1", "p1")

	instrRepo := newInstructionRepoStub()
	instrRepo.instructions["instr-1"] = domain.Instruction{ID: "instr-1", Status: domain.StatusToDo}

	fx := newLifecycleFixture(t, &permRepoStub{}, assignRepo, instrRepo, nil)
	fx.store.statuses["instruction/instr-1"] = domain.StatusToDo

	subject := SubjectRef{Type: domain.SubjectInstruction, ID: "instr-1"}
	path := []domain.Status{
		domain.StatusInProgress,
		domain.StatusBlocked,
		domain.StatusInProgress,
		domain.StatusClosureRequested,
		domain.StatusInProgress,
		domain.StatusClosureRequested,
		domain.StatusDone,
	}

	for _, next := range path {
		if _, err := fx.svc.Transition(context.Background(), subject, next, "p1", nil); err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
		instrRepo.instructions["instr-1"] = domain.Instruction{ID: "instr-1", Status: next}
	}

	history, err := fx.svc.StatusHistory(context.Background(), subject)
	if err != nil {
		t.Fatalf("status history failed: %v", err)
	}

	replayed := domain.StatusToDo
	for _, entry := range history {
		if entry.PreviousStatus != replayed {
			t.Fatalf("history gap: expected previous %s, got %s", replayed, entry.PreviousStatus)
		}
		if !domain.CanTransition(entry.PreviousStatus, entry.NewStatus) {
			t.Fatalf("history contains non-edge %s→%s", entry.PreviousStatus, entry.NewStatus)
		}
		replayed = entry.NewStatus
	}
	if replayed != domain.StatusDone {
		t.Fatalf("expected replay to end at done, got %s", replayed)
	}
}
