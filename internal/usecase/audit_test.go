package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

func TestAuditRecorder_RecordDeletionCapturesSummary(t *testing.T) {
	repo := &auditRepoStub{}
	recorder := NewAuditRecorder(repo, zaptest.NewLogger(t))

	recorder.RecordDeletion(context.Background(), "instructions", "instruction", "instr-1", "admin-1", map[string]any{
		"title":  "National census",
		"status": "to_do",
	})

	if len(repo.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(repo.entries))
	}

	entry := repo.entries[0]
	if entry.Action != domain.AuditActionDelete {
		t.Errorf("expected delete action, got %s", entry.Action)
	}
	if entry.HumanSummary != "instruction National census" {
		t.Errorf("unexpected summary %q", entry.HumanSummary)
	}
	if entry.ActorID != "admin-1" {
		t.Errorf("expected actor admin-1, got %s", entry.ActorID)
	}
}

func TestAuditRecorder_SummaryFallsBackToRecordID(t *testing.T) {
	repo := &auditRepoStub{}
	recorder := NewAuditRecorder(repo, zaptest.NewLogger(t))

	recorder.RecordDeletion(context.Background(), "tasks", "task", "task-9", "admin-1", map[string]any{
		"irrelevant": 42,
	})

	if repo.entries[0].HumanSummary != "task #task-9" {
		t.Errorf("expected primary-key fallback, got %q", repo.entries[0].HumanSummary)
	}
}

func TestAuditRecorder_InsertFailureIsSwallowed(t *testing.T) {
	repo := &auditRepoStub{insertErr: errors.New("disk full")}
	recorder := NewAuditRecorder(repo, zaptest.NewLogger(t))

	// Must not panic or propagate; the primary action already succeeded.
	recorder.RecordAction(context.Background(), "user.disabled", "users", "user-1", "admin-1", nil)
}

func TestAuditRecorder_CapturesRequestContext(t *testing.T) {
	repo := &auditRepoStub{}
	recorder := NewAuditRecorder(repo, zaptest.NewLogger(t))

	ctx := WithRequestContext(context.Background(), domain.RequestContext{
		RequestID: "req-1",
		IP:        "10.1.2.3",
		UserAgent: "curl/8.0",
	})

	recorder.RecordAction(ctx, "assignment.created", "instruction_assignments", "a-1", "admin-1", nil)

	entry := repo.entries[0]
	if entry.RequestID == nil || *entry.RequestID != "req-1" {
		t.Errorf("expected request id captured, got %v", entry.RequestID)
	}
	if entry.IP == nil || *entry.IP != "10.1.2.3" {
		t.Errorf("expected ip captured, got %v", entry.IP)
	}
}

func TestAuditRecorder_HandleEventRecordsLifecycle(t *testing.T) {
	repo := &auditRepoStub{}
	recorder := NewAuditRecorder(repo, zaptest.NewLogger(t))

	err := recorder.HandleEvent(context.Background(), domain.StatusChangedEvent{
		EventID: "ev-1", SubjectType: domain.SubjectInstruction, SubjectID: "instr-1",
		ActorID: "p1", PreviousStatus: domain.StatusToDo, NewStatus: domain.StatusInProgress,
	})
	if err != nil {
		t.Fatalf("handle event failed: %v", err)
	}

	if len(repo.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(repo.entries))
	}
	if repo.entries[0].ActionName != "status.changed" {
		t.Errorf("unexpected action name %q", repo.entries[0].ActionName)
	}
	if repo.entries[0].Metadata["new_status"] != "in_progress" {
		t.Errorf("expected new status in metadata, got %v", repo.entries[0].Metadata)
	}
}
