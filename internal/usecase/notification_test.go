package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

type fanOutFixture struct {
	fanOut      *NotificationFanOut
	assignments *assignmentRepoStub
	instrs      *instructionRepoStub
	tasks       *taskRepoStub
	discussions *discussionRepoStub
	publisher   *notificationPublisherStub
}

func newFanOutFixture(t *testing.T) *fanOutFixture {
	t.Helper()
	fx := &fanOutFixture{
		assignments: newAssignmentRepoStub(),
		instrs:      newInstructionRepoStub(),
		tasks:       newTaskRepoStub(),
		discussions: newDiscussionRepoStub(),
		publisher:   &notificationPublisherStub{},
	}
	fx.fanOut = NewNotificationFanOut(fx.assignments, fx.instrs, fx.tasks, fx.discussions, fx.publisher, zaptest.NewLogger(t))
	return fx
}

func (fx *fanOutFixture) addBearer(instructionID, userID string) {
	id := "b-" + instructionID + "-" + userID
	fx.assignments.rows[id] = domain.Assignment{
		ID: id, SubjectType: domain.SubjectInstruction, SubjectID: instructionID,
		UserID: userID, Role: domain.RoleBearer, Active: true,
	}
}

func (fx *fanOutFixture) addResponsible(taskID, userID string) {
	id := "r-" + taskID + "-" + userID
	fx.assignments.rows[id] = domain.Assignment{
		ID: id, SubjectType: domain.SubjectTask, SubjectID: taskID,
		UserID: userID, Role: domain.RoleResponsible, Active: true,
	}
}

func recipientSet(intents []domain.NotificationEvent) map[string]int {
	set := make(map[string]int)
	for _, intent := range intents {
		set[intent.RecipientID]++
	}
	return set
}

// Scenario A: InstructionCreated by C with bearers [P1, P2] and ordering user
// O fans out to exactly {P1, P2, O}.
func TestFanOut_InstructionCreated(t *testing.T) {
	fx := newFanOutFixture(t)
	fx.instrs.instructions["instr-1"] = domain.Instruction{ID: "instr-1", Title: "Census", OrderingUserID: "O"}
	fx.addBearer("instr-1", "P1")
	fx.addBearer("instr-1", "P2")

	intents, err := fx.fanOut.Dispatch(context.Background(), domain.InstructionCreatedEvent{
		EventID: "ev-1", InstructionID: "instr-1", Title: "Census", ActorID: "C", CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	set := recipientSet(intents)
	if len(set) != 3 {
		t.Fatalf("expected recipients {P1,P2,O}, got %v", set)
	}
	for _, want := range []string{"P1", "P2", "O"} {
		if set[want] != 1 {
			t.Errorf("expected exactly one intent for %s, got %d", want, set[want])
		}
	}
	if _, ok := set["C"]; ok {
		t.Error("actor must never be a recipient")
	}
}

func TestFanOut_ActorWhoIsAlsoBearerIsExcluded(t *testing.T) {
	fx := newFanOutFixture(t)
	fx.instrs.instructions["instr-1"] = domain.Instruction{ID: "instr-1", OrderingUserID: "O"}
	fx.addBearer("instr-1", "P1")
	fx.addBearer("instr-1", "P2")

	intents, err := fx.fanOut.Dispatch(context.Background(), domain.StatusChangedEvent{
		EventID: "ev-1", SubjectType: domain.SubjectInstruction, SubjectID: "instr-1",
		ActorID: "P1", PreviousStatus: domain.StatusInProgress, NewStatus: domain.StatusBlocked,
		ChangedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	set := recipientSet(intents)
	if _, ok := set["P1"]; ok {
		t.Error("acting bearer must be excluded from recipients")
	}
	if set["P2"] != 1 || set["O"] != 1 || len(set) != 2 {
		t.Fatalf("expected {P2, O}, got %v", set)
	}
}

func TestFanOut_DeduplicatesMultiRoleRecipients(t *testing.T) {
	fx := newFanOutFixture(t)
	// O is both ordering user and a bearer.
	fx.instrs.instructions["instr-1"] = domain.Instruction{ID: "instr-1", OrderingUserID: "O"}
	fx.addBearer("instr-1", "O")
	fx.addBearer("instr-1", "P1")

	intents, err := fx.fanOut.Dispatch(context.Background(), domain.StatusChangedEvent{
		EventID: "ev-1", SubjectType: domain.SubjectInstruction, SubjectID: "instr-1",
		ActorID: "P2", PreviousStatus: domain.StatusToDo, NewStatus: domain.StatusInProgress,
		ChangedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	set := recipientSet(intents)
	if set["O"] != 1 {
		t.Fatalf("expected a single intent for multi-role recipient O, got %d", set["O"])
	}
	if len(intents) != 2 {
		t.Fatalf("expected 2 intents, got %d", len(intents))
	}
}

func TestFanOut_TaskEventsReachResponsiblesAndParentBearers(t *testing.T) {
	fx := newFanOutFixture(t)
	fx.instrs.instructions["instr-1"] = domain.Instruction{ID: "instr-1", OrderingUserID: "O"}
	fx.tasks.tasks["task-1"] = domain.Task{ID: "task-1", InstructionID: "instr-1"}
	fx.addBearer("instr-1", "P1")
	fx.addResponsible("task-1", "R1")
	fx.addResponsible("task-1", "R2")

	intents, err := fx.fanOut.Dispatch(context.Background(), domain.ExecutionLevelChangedEvent{
		EventID: "ev-1", SubjectType: domain.SubjectTask, SubjectID: "task-1",
		ActorID: "R1", PreviousLevel: 40, NewLevel: 70, ChangedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	set := recipientSet(intents)
	// Task audience is responsibles plus parent bearers; the ordering user
	// is not part of a task audience.
	if len(set) != 2 || set["R2"] != 1 || set["P1"] != 1 {
		t.Fatalf("expected {R2, P1}, got %v", set)
	}
}

func TestFanOut_TopLevelDiscussionNotifiesAssigneesOnly(t *testing.T) {
	fx := newFanOutFixture(t)
	fx.instrs.instructions["instr-1"] = domain.Instruction{ID: "instr-1", OrderingUserID: "O"}
	fx.addBearer("instr-1", "P1")
	fx.addBearer("instr-1", "P2")

	intents, err := fx.fanOut.Dispatch(context.Background(), domain.DiscussionCreatedEvent{
		EventID: "ev-1", DiscussionID: "msg-1", SubjectType: domain.SubjectInstruction,
		SubjectID: "instr-1", ActorID: "A", CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	set := recipientSet(intents)
	if len(set) != 2 || set["P1"] != 1 || set["P2"] != 1 {
		t.Fatalf("expected {P1, P2}, got %v", set)
	}
	if _, ok := set["O"]; ok {
		t.Error("ordering user is not part of a discussion audience")
	}
}

func TestFanOut_DiscussionReplyNotifiesParentAuthor(t *testing.T) {
	fx := newFanOutFixture(t)
	fx.instrs.instructions["instr-1"] = domain.Instruction{ID: "instr-1", OrderingUserID: "O"}
	fx.addBearer("instr-1", "P1")
	fx.addBearer("instr-1", "P2")

	parentID := "msg-1"
	fx.discussions.rows[parentID] = domain.Discussion{
		ID: parentID, SubjectType: domain.SubjectInstruction, SubjectID: "instr-1", AuthorID: "author-1",
	}

	intents, err := fx.fanOut.Dispatch(context.Background(), domain.DiscussionCreatedEvent{
		EventID: "ev-1", DiscussionID: "msg-2", SubjectType: domain.SubjectInstruction,
		SubjectID: "instr-1", ActorID: "P1", ParentID: &parentID, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	set := recipientSet(intents)
	if set["author-1"] != 1 {
		t.Fatalf("expected parent author notified once, got %v", set)
	}
	if _, ok := set["P1"]; ok {
		t.Error("replying actor must be excluded")
	}
	if set["P2"] != 1 || len(set) != 2 {
		t.Fatalf("expected {author-1, P2}, got %v", set)
	}
}

func TestFanOut_HandleEventPublishesEachIntentOnce(t *testing.T) {
	fx := newFanOutFixture(t)
	fx.instrs.instructions["instr-1"] = domain.Instruction{ID: "instr-1", OrderingUserID: "O"}
	fx.addBearer("instr-1", "P1")

	err := fx.fanOut.HandleEvent(context.Background(), domain.StatusChangedEvent{
		EventID: "ev-1", SubjectType: domain.SubjectInstruction, SubjectID: "instr-1",
		ActorID: "C", PreviousStatus: domain.StatusToDo, NewStatus: domain.StatusInProgress,
		ChangedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("handle event failed: %v", err)
	}

	if len(fx.publisher.published) != 2 {
		t.Fatalf("expected 2 published intents, got %d", len(fx.publisher.published))
	}
	set := recipientSet(fx.publisher.published)
	if set["P1"] != 1 || set["O"] != 1 {
		t.Fatalf("expected one intent each for P1 and O, got %v", set)
	}
}

func TestFanOut_PublishFailureIsContained(t *testing.T) {
	fx := newFanOutFixture(t)
	fx.instrs.instructions["instr-1"] = domain.Instruction{ID: "instr-1", OrderingUserID: "O"}
	fx.publisher.publishErr = errors.New("broker down")

	err := fx.fanOut.HandleEvent(context.Background(), domain.StatusChangedEvent{
		EventID: "ev-1", SubjectType: domain.SubjectInstruction, SubjectID: "instr-1",
		ActorID: "C", PreviousStatus: domain.StatusToDo, NewStatus: domain.StatusInProgress,
		ChangedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("publish failures must not surface, got %v", err)
	}
}

// Scenario E: own scope listing is driven by current bearer rows only.
func TestFanOut_EndedBearerNotNotified(t *testing.T) {
	fx := newFanOutFixture(t)
	fx.instrs.instructions["instr-1"] = domain.Instruction{ID: "instr-1", OrderingUserID: "O"}
	fx.addBearer("instr-1", "P1")

	past := timeAgo(24)
	fx.assignments.rows["ended"] = domain.Assignment{
		ID: "ended", SubjectType: domain.SubjectInstruction, SubjectID: "instr-1",
		UserID: "former", Role: domain.RoleBearer, Active: false, EndedAt: &past,
	}

	intents, err := fx.fanOut.Dispatch(context.Background(), domain.StatusChangedEvent{
		EventID: "ev-1", SubjectType: domain.SubjectInstruction, SubjectID: "instr-1",
		ActorID: "C", PreviousStatus: domain.StatusToDo, NewStatus: domain.StatusInProgress,
		ChangedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	set := recipientSet(intents)
	if _, ok := set["former"]; ok {
		t.Fatal("ended bearer must not receive notifications")
	}
}
