package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/student-tracker/internal/domain/analytics"
	"github.com/riskibarqy/student-tracker/internal/domain/student"
	studentmock "github.com/riskibarqy/student-tracker/internal/mocks/domain/student"
	"github.com/riskibarqy/student-tracker/internal/platform/logging"
	"github.com/riskibarqy/student-tracker/internal/platform/opstate"
)

const testExportURL = "http://tracker.test/students/download/csv"

func newTestRoster(t *testing.T, repo *studentmock.Repository) *RosterController {
	t.Helper()

	repo.On("ExportCSVURL").Return(testExportURL).Maybe()

	c, err := NewRosterController(repo, RosterConfig{Logger: logging.NewNop(), DispatchWorkers: 4})
	if err != nil {
		t.Fatalf("new roster controller: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(time.Second) })
	return c
}

func sampleStudents() []student.Student {
	synced := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return []student.Student{
		{ID: "s1", Name: "Ada", Email: "ada@x.io", Phone: "1", CFHandle: "ada_l", CurrentRating: student.IntPtr(1500), MaxRating: student.IntPtr(1720), CFDataLastUpdated: &synced},
		{ID: "s2", Name: "Linus", Email: "linus@x.io", Phone: "2", CFHandle: "torvalds", CurrentRating: student.IntPtr(2100), MaxRating: student.IntPtr(2450), CFDataLastUpdated: &synced},
		{ID: "s3", Name: "Grace", Email: "grace@x.io", Phone: "3", CFHandle: "hopper"},
	}
}

func TestNewRosterController_RequiresRepository(t *testing.T) {
	t.Parallel()

	_, err := NewRosterController(nil, RosterConfig{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRosterController_ListCommitsRowsAndStats(t *testing.T) {
	t.Parallel()

	repo := studentmock.NewRepository(t)
	repo.On("List", mock.Anything).Return(sampleStudents(), nil).Once()
	c := newTestRoster(t, repo)

	if !c.View().Loading {
		t.Fatalf("expected loading before the first list")
	}
	if err := c.List(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}

	view := c.View()
	if view.Loading {
		t.Fatalf("expected loading to clear after the first list")
	}
	if len(view.Rows) != 3 {
		t.Fatalf("unexpected row count: got=%d want=3", len(view.Rows))
	}
	if view.Stats.Count != 3 {
		t.Fatalf("unexpected count: got=%d want=3", view.Stats.Count)
	}
	if view.Stats.AverageRating == nil || *view.Stats.AverageRating != 1800 {
		t.Fatalf("unexpected average rating: %v", view.Stats.AverageRating)
	}
	if view.Stats.Top == nil || view.Stats.Top.ID != "s2" {
		t.Fatalf("unexpected top student: %+v", view.Stats.Top)
	}
	if view.ExportCSVURL != testExportURL {
		t.Fatalf("unexpected export url: %s", view.ExportCSVURL)
	}

	grace := view.Rows[2]
	if !grace.NeverSynced {
		t.Fatalf("expected never-synced row for missing timestamp")
	}
	if grace.CurrentBand != analytics.BandUnrated {
		t.Fatalf("unexpected band for unrated student: %s", grace.CurrentBand)
	}
	if view.Rows[1].MaxBand != analytics.BandGrandmaster {
		t.Fatalf("unexpected max band: %s", view.Rows[1].MaxBand)
	}
}

func TestRosterController_FirstLoadFailureShowsBanner(t *testing.T) {
	t.Parallel()

	repo := studentmock.NewRepository(t)
	repo.On("List", mock.Anything).Return(nil, ErrDependencyUnavailable).Once()
	c := newTestRoster(t, repo)

	err := c.List(context.Background())
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}

	view := c.View()
	if view.Loading {
		t.Fatalf("expected loading to clear after a failed first list")
	}
	if view.LoadError != "Failed to load students. Please try again." {
		t.Fatalf("unexpected load error: %q", view.LoadError)
	}
	if view.RefreshError != "" {
		t.Fatalf("unexpected refresh error: %q", view.RefreshError)
	}
	if len(view.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(view.Rows))
	}
}

func TestRosterController_RefreshFailureKeepsRows(t *testing.T) {
	t.Parallel()

	repo := studentmock.NewRepository(t)
	repo.On("List", mock.Anything).Return(sampleStudents(), nil).Once()
	repo.On("List", mock.Anything).Return(nil, ErrDependencyUnavailable).Once()
	c := newTestRoster(t, repo)

	if err := c.List(context.Background()); err != nil {
		t.Fatalf("first list: %v", err)
	}
	if err := c.List(context.Background()); err == nil {
		t.Fatalf("expected refresh error")
	}

	view := c.View()
	if view.LoadError != "" {
		t.Fatalf("refresh failure must not raise the full-page banner: %q", view.LoadError)
	}
	if view.RefreshError == "" {
		t.Fatalf("expected refresh error to be recorded")
	}
	if len(view.Rows) != 3 {
		t.Fatalf("expected previous rows to stay, got %d", len(view.Rows))
	}
}

func TestRosterController_ListDropsSupersededResponse(t *testing.T) {
	t.Parallel()

	older := []student.Student{{ID: "old", Name: "Old"}}
	newer := []student.Student{{ID: "new", Name: "New"}}

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	repo := studentmock.NewRepository(t)
	repo.On("List", mock.Anything).Return(func(context.Context) ([]student.Student, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return older, nil
		}
		return newer, nil
	})
	c := newTestRoster(t, repo)

	done := make(chan error, 1)
	go func() { done <- c.List(context.Background()) }()
	<-started

	if err := c.List(context.Background()); err != nil {
		t.Fatalf("second list: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("superseded list should not fail: %v", err)
	}

	rows := c.View().Rows
	if len(rows) != 1 || rows[0].Student.ID != "new" {
		t.Fatalf("expected newest response to win, got %+v", rows)
	}
}

func TestRosterController_SupersededFailureStillReturnsError(t *testing.T) {
	t.Parallel()

	newer := []student.Student{{ID: "new", Name: "New"}}

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	repo := studentmock.NewRepository(t)
	repo.On("List", mock.Anything).Return(func(context.Context) ([]student.Student, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return nil, ErrDependencyUnavailable
		}
		return newer, nil
	})
	c := newTestRoster(t, repo)

	done := make(chan error, 1)
	go func() { done <- c.List(context.Background()) }()
	<-started

	if err := c.List(context.Background()); err != nil {
		t.Fatalf("second list: %v", err)
	}
	close(release)
	if err := <-done; !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected the failed call to report ErrDependencyUnavailable, got %v", err)
	}

	view := c.View()
	if len(view.Rows) != 1 || view.Rows[0].Student.ID != "new" {
		t.Fatalf("expected newest response to stay committed, got %+v", view.Rows)
	}
	if view.RefreshError != "" || view.LoadError != "" {
		t.Fatalf("superseded failure must not touch banners: refresh=%q load=%q", view.RefreshError, view.LoadError)
	}
}

func TestRosterController_SyncNowRejectsDuplicateWhilePending(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})

	repo := studentmock.NewRepository(t)
	repo.On("List", mock.Anything).Return(sampleStudents(), nil)
	repo.On("SyncNow", mock.Anything, "s1").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(student.Student{ID: "s1"}, nil).
		Once()
	c := newTestRoster(t, repo)

	if err := c.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- c.SyncNow(ctx, "s1") }()
	<-started

	if err := c.SyncNow(ctx, "s1"); !errors.Is(err, ErrOperationInFlight) {
		t.Fatalf("expected ErrOperationInFlight, got %v", err)
	}
	if !c.View().Rows[0].Syncing {
		t.Fatalf("expected row to show syncing while the request is outstanding")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("sync now: %v", err)
	}

	row := c.View().Rows[0]
	if row.Syncing {
		t.Fatalf("expected syncing marker to clear")
	}
	repo.AssertNumberOfCalls(t, "SyncNow", 1)
	// initial list plus the refresh after the sync settled
	repo.AssertNumberOfCalls(t, "List", 2)
}

func TestRosterController_DifferentKindsRunConcurrently(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})

	repo := studentmock.NewRepository(t)
	repo.On("List", mock.Anything).Return(sampleStudents(), nil)
	repo.On("SyncNow", mock.Anything, "s1").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(student.Student{ID: "s1"}, nil).
		Once()
	repo.On("ToggleReminder", mock.Anything, "s1").Return(student.Student{ID: "s1"}, nil).Once()
	repo.On("SyncNow", mock.Anything, "s2").Return(student.Student{ID: "s2"}, nil).Once()
	c := newTestRoster(t, repo)

	if err := c.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- c.SyncNow(ctx, "s1") }()
	<-started

	if err := c.ToggleReminder(ctx, "s1"); err != nil {
		t.Fatalf("toggle reminder on a syncing row: %v", err)
	}
	if err := c.SyncNow(ctx, "s2"); err != nil {
		t.Fatalf("sync another row: %v", err)
	}

	view := c.View()
	if !view.Rows[0].Syncing || view.Rows[0].TogglingReminder {
		t.Fatalf("unexpected markers on s1: %+v", view.Rows[0])
	}
	if view.Rows[1].Syncing {
		t.Fatalf("unexpected syncing marker on s2")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("sync now: %v", err)
	}
}

func TestRosterController_DeclinedDeleteSendsNothing(t *testing.T) {
	t.Parallel()

	repo := studentmock.NewRepository(t)
	c := newTestRoster(t, repo)

	var prompts []string
	confirm := ConfirmFunc(func(_ context.Context, prompt string) bool {
		prompts = append(prompts, prompt)
		return false
	})

	if err := c.Delete(context.Background(), "s1", confirm); err != nil {
		t.Fatalf("declined delete should not fail: %v", err)
	}
	if len(prompts) != 1 || prompts[0] != "Are you sure you want to delete this student?" {
		t.Fatalf("unexpected prompts: %v", prompts)
	}
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "List", mock.Anything)
}

func TestRosterController_ConfirmedDeleteRefreshes(t *testing.T) {
	t.Parallel()

	repo := studentmock.NewRepository(t)
	repo.On("List", mock.Anything).Return(sampleStudents(), nil).Once()
	repo.On("Delete", mock.Anything, "s3").Return(nil).Once()
	repo.On("List", mock.Anything).Return(sampleStudents()[:2], nil).Once()
	c := newTestRoster(t, repo)

	if err := c.List(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	accept := ConfirmFunc(func(context.Context, string) bool { return true })
	if err := c.Delete(context.Background(), "s3", accept); err != nil {
		t.Fatalf("delete: %v", err)
	}

	view := c.View()
	if len(view.Rows) != 2 {
		t.Fatalf("expected deleted row to disappear after refresh, got %d rows", len(view.Rows))
	}
	if view.Stats.Count != 2 {
		t.Fatalf("unexpected count after delete: %d", view.Stats.Count)
	}
}

func TestRosterController_RowFailureRecordsErrorAndStillRefreshes(t *testing.T) {
	t.Parallel()

	repo := studentmock.NewRepository(t)
	repo.On("List", mock.Anything).Return(sampleStudents(), nil)
	repo.On("SyncNow", mock.Anything, "s2").Return(student.Student{}, ErrNotFound).Once()
	c := newTestRoster(t, repo)

	if err := c.List(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	err := c.SyncNow(context.Background(), "s2")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	row := c.View().Rows[1]
	if row.Syncing {
		t.Fatalf("marker must clear after a failed request")
	}
	if row.Errors[opstate.KindSync] == "" {
		t.Fatalf("expected sync error on the row")
	}
	repo.AssertNumberOfCalls(t, "List", 2)
}

func TestRosterController_CreateValidatesBeforeSending(t *testing.T) {
	t.Parallel()

	repo := studentmock.NewRepository(t)
	c := newTestRoster(t, repo)

	c.OpenCreateForm()
	fields := student.Fields{Name: "Ada", Email: "ada@x.io", Phone: "   ", CFHandle: "ada_l"}
	_, err := c.Create(context.Background(), fields)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	form := c.View().CreateForm
	if !form.Open {
		t.Fatalf("expected form to stay open")
	}
	if form.FieldErrors["phone"] != "this field is required" {
		t.Fatalf("unexpected field errors: %v", form.FieldErrors)
	}
	if len(form.FieldErrors) != 1 {
		t.Fatalf("expected only phone to fail, got %v", form.FieldErrors)
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRosterController_CreateFailureKeepsForm(t *testing.T) {
	t.Parallel()

	fields := student.Fields{Name: "Ada", Email: "ada@x.io", Phone: "1", CFHandle: "ada_l"}
	repo := studentmock.NewRepository(t)
	repo.On("Create", mock.Anything, fields).Return(student.Student{}, ErrInvalidInput).Once()
	c := newTestRoster(t, repo)

	c.OpenCreateForm()
	if _, err := c.Create(context.Background(), fields); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	form := c.View().CreateForm
	if !form.Open || form.Submitting {
		t.Fatalf("unexpected form state: %+v", form)
	}
	if form.Fields != fields {
		t.Fatalf("expected submitted fields to be kept, got %+v", form.Fields)
	}
	if form.Error == "" {
		t.Fatalf("expected form error")
	}
	repo.AssertNotCalled(t, "List", mock.Anything)
}

func TestRosterController_AdaRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fields := student.Fields{Name: "Ada", Email: "ada@x.io", Phone: "1", CFHandle: "ada_l"}
	created := student.Student{ID: "a1", Name: "Ada", Email: "ada@x.io", Phone: "1", CFHandle: "ada_l"}
	toggled := created
	toggled.EmailReminderDisabled = true

	repo := studentmock.NewRepository(t)
	repo.On("Create", mock.Anything, fields).Return(created, nil).Once()
	repo.On("List", mock.Anything).Return([]student.Student{created}, nil).Once()
	repo.On("ToggleReminder", mock.Anything, "a1").Return(toggled, nil).Once()
	repo.On("List", mock.Anything).Return([]student.Student{toggled}, nil).Once()
	c := newTestRoster(t, repo)

	c.OpenCreateForm()
	got, err := c.Create(ctx, student.Fields{Name: " Ada ", Email: "ada@x.io", Phone: "1", CFHandle: "ada_l "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.ID != "a1" {
		t.Fatalf("unexpected created id: %s", got.ID)
	}

	view := c.View()
	if view.CreateForm.Open {
		t.Fatalf("expected create form to close on success")
	}
	if len(view.Rows) != 1 || !view.Rows[0].NeverSynced || view.Rows[0].CurrentBand != analytics.BandUnrated {
		t.Fatalf("unexpected rows after create: %+v", view.Rows)
	}
	if view.Stats.Count != 1 || view.Stats.AverageRating != nil {
		t.Fatalf("unexpected stats after create: %+v", view.Stats)
	}

	if err := c.ToggleReminder(ctx, "a1"); err != nil {
		t.Fatalf("toggle reminder: %v", err)
	}
	if !c.View().Rows[0].Student.EmailReminderDisabled {
		t.Fatalf("expected reminder to be disabled after refresh")
	}
}

func TestRosterController_EditFormLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	students := sampleStudents()
	updatedFields := student.FieldsOf(students[0])
	updatedFields.Phone = "99"

	started := make(chan struct{})
	release := make(chan struct{})

	repo := studentmock.NewRepository(t)
	repo.On("List", mock.Anything).Return(students, nil)
	repo.On("Update", mock.Anything, "s1", updatedFields).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(students[0], nil).
		Once()
	c := newTestRoster(t, repo)

	if err := c.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := c.OpenEditForm("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := c.OpenEditForm("s1"); err != nil {
		t.Fatalf("open edit form: %v", err)
	}
	if got := c.View().EditForm.Fields; got != student.FieldsOf(students[0]) {
		t.Fatalf("expected prefilled fields, got %+v", got)
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.Update(ctx, "s1", updatedFields)
		done <- err
	}()
	<-started

	c.CloseEditForm()
	form := c.View().EditForm
	if !form.Open || !form.Submitting {
		t.Fatalf("closing while submitting must be ignored: %+v", form)
	}
	if _, err := c.Update(ctx, "s1", updatedFields); !errors.Is(err, ErrOperationInFlight) {
		t.Fatalf("expected ErrOperationInFlight, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("update: %v", err)
	}
	if c.View().EditForm.Open {
		t.Fatalf("expected edit form to close after success")
	}
}

func TestRosterController_AsyncOperationsClaimMarkerSynchronously(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	release := make(chan struct{})

	repo := studentmock.NewRepository(t)
	repo.On("List", mock.Anything).Return(sampleStudents(), nil)
	repo.On("SyncNow", mock.Anything, "s1").
		Run(func(mock.Arguments) { <-release }).
		Return(student.Student{ID: "s1"}, nil).
		Once()
	c := newTestRoster(t, repo)

	if err := c.List(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := c.SyncNowAsync(ctx, "s1"); err != nil {
		t.Fatalf("sync now async: %v", err)
	}
	if !c.View().Rows[0].Syncing {
		t.Fatalf("expected marker to be set before the request runs")
	}
	if err := c.SyncNowAsync(ctx, "s1"); !errors.Is(err, ErrOperationInFlight) {
		t.Fatalf("expected ErrOperationInFlight, got %v", err)
	}

	close(release)
	require.Eventually(t, func() bool {
		return !c.View().Rows[0].Syncing
	}, 2*time.Second, 10*time.Millisecond)
	repo.AssertNumberOfCalls(t, "SyncNow", 1)
}

func TestRosterController_DeleteAsyncDeclined(t *testing.T) {
	t.Parallel()

	repo := studentmock.NewRepository(t)
	c := newTestRoster(t, repo)

	dispatched, err := c.DeleteAsync(context.Background(), "s1", ConfirmFunc(func(context.Context, string) bool { return false }))
	if err != nil {
		t.Fatalf("declined delete: %v", err)
	}
	if dispatched {
		t.Fatalf("declined delete must not dispatch")
	}
}

func TestRosterController_RowOperationRequiresID(t *testing.T) {
	t.Parallel()

	repo := studentmock.NewRepository(t)
	c := newTestRoster(t, repo)

	if err := c.SyncNow(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
