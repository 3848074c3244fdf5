package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
	"github.com/bouramah/GovTrack-sub006/internal/repository"
)

func TestLifecycleStore_ApplyStatusChange(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	store := NewLifecycleStore(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE govtrack\.instructions SET`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO govtrack\.status_history`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	entry, err := store.ApplyStatusChange(context.Background(), port.StatusChange{
		SubjectType:    domain.SubjectInstruction,
		SubjectID:      "instr-1",
		ActorID:        "p1",
		PreviousStatus: domain.StatusToDo,
		NewStatus:      domain.StatusInProgress,
	})
	if err != nil {
		t.Fatalf("ApplyStatusChange returned error: %v", err)
	}
	if entry.PreviousStatus != domain.StatusToDo || entry.NewStatus != domain.StatusInProgress {
		t.Errorf("unexpected history entry %+v", entry)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLifecycleStore_ApplyStatusChange_StaleWrite(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	store := NewLifecycleStore(mock)

	// The guarded UPDATE touches no rows but the subject exists: a
	// concurrent writer advanced the status first.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE govtrack\.instructions SET`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT 1 FROM govtrack\.instructions`).
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	_, err = store.ApplyStatusChange(context.Background(), port.StatusChange{
		SubjectType:    domain.SubjectInstruction,
		SubjectID:      "instr-1",
		ActorID:        "p2",
		PreviousStatus: domain.StatusToDo,
		NewStatus:      domain.StatusInProgress,
	})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLifecycleStore_ApplyStatusChange_MissingSubject(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	store := NewLifecycleStore(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE govtrack\.tasks SET`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT 1 FROM govtrack\.tasks`).
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}))
	mock.ExpectRollback()

	_, err = store.ApplyStatusChange(context.Background(), port.StatusChange{
		SubjectType:    domain.SubjectTask,
		SubjectID:      "task-404",
		ActorID:        "p1",
		PreviousStatus: domain.StatusToDo,
		NewStatus:      domain.StatusInProgress,
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLifecycleStore_ApplyExecutionLevelChange_StaleWrite(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	store := NewLifecycleStore(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE govtrack\.instructions SET`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT 1 FROM govtrack\.instructions`).
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	_, err = store.ApplyExecutionLevelChange(context.Background(), port.ExecutionLevelChange{
		SubjectType:   domain.SubjectInstruction,
		SubjectID:     "instr-1",
		ActorID:       "p1",
		PreviousLevel: 40,
		NewLevel:      70,
	})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
