package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	profilemock "github.com/riskibarqy/student-tracker/internal/mocks/domain/profile"
	studentmock "github.com/riskibarqy/student-tracker/internal/mocks/domain/student"
	"github.com/riskibarqy/student-tracker/internal/platform/logging"
)

func TestProfileSessions_ReusesControllerPerStudent(t *testing.T) {
	t.Parallel()

	sessions := NewProfileSessions(studentmock.NewRepository(t), profilemock.NewRepository(t), ProfileConfig{Logger: logging.NewNop()}, time.Minute)
	ctx := context.Background()

	first, err := sessions.Controller(ctx, "s1")
	if err != nil {
		t.Fatalf("controller s1: %v", err)
	}
	again, err := sessions.Controller(ctx, " s1 ")
	if err != nil {
		t.Fatalf("controller s1 again: %v", err)
	}
	if first != again {
		t.Fatalf("expected the same controller for the same student")
	}

	other, err := sessions.Controller(ctx, "s2")
	if err != nil {
		t.Fatalf("controller s2: %v", err)
	}
	if other == first {
		t.Fatalf("expected a separate controller per student")
	}
	if sessions.Len() != 2 {
		t.Fatalf("unexpected session count: %d", sessions.Len())
	}

	sessions.Forget(ctx, "s1")
	if sessions.Len() != 1 {
		t.Fatalf("expected forgotten session to be dropped, got %d", sessions.Len())
	}
}

func TestProfileSessions_RequiresStudentID(t *testing.T) {
	t.Parallel()

	sessions := NewProfileSessions(studentmock.NewRepository(t), profilemock.NewRepository(t), ProfileConfig{}, time.Minute)
	if _, err := sessions.Controller(context.Background(), ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
