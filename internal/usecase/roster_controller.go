package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/student-tracker/internal/domain/analytics"
	"github.com/riskibarqy/student-tracker/internal/domain/student"
	"github.com/riskibarqy/student-tracker/internal/platform/logging"
	"github.com/riskibarqy/student-tracker/internal/platform/opstate"
)

const (
	defaultDispatchWorkers = 16
	deletePrompt           = "Are you sure you want to delete this student?"
	loadErrorText          = "Failed to load students. Please try again."
)

// Confirmer asks the operator to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// RosterMetrics is the slice of the metrics manager the roster reports to.
type RosterMetrics interface {
	RowOperationStarted(kind string)
	RowOperationFinished(kind string)
	RowOperationRejected(kind string)
	StaleResponseDropped(view string)
	SetRosterSize(count int)
}

type RosterConfig struct {
	Logger          *logging.Logger
	Metrics         RosterMetrics
	DispatchWorkers int
}

// FormState is the create or edit form as last seen by the controller.
type FormState struct {
	Open        bool
	Submitting  bool
	StudentID   string
	Fields      student.Fields
	FieldErrors map[string]string
	Error       string
}

func (f FormState) clone() FormState {
	if f.FieldErrors != nil {
		errs := make(map[string]string, len(f.FieldErrors))
		for k, v := range f.FieldErrors {
			errs[k] = v
		}
		f.FieldErrors = errs
	}
	return f
}

// RosterController owns the student list, the per-row operation markers and the two forms.
// All methods are safe for concurrent use.
type RosterController struct {
	repo     student.Repository
	validate *validator.Validate
	logger   *logging.Logger
	metrics  RosterMetrics
	markers  *opstate.Tracker
	pool     *ants.Pool

	mu           sync.Mutex
	students     []student.Student
	stats        student.Stats
	loadedOnce   bool
	loading      bool
	loadError    string
	refreshError string
	rowErrors    map[string]map[opstate.Kind]string
	issuedSeq    uint64
	committedSeq uint64
	createForm   FormState
	editForm     FormState
}

func NewRosterController(repo student.Repository, cfg RosterConfig) (*RosterController, error) {
	if repo == nil {
		return nil, fmt.Errorf("%w: student repository is required", ErrInvalidInput)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	workers := cfg.DispatchWorkers
	if workers <= 0 {
		workers = defaultDispatchWorkers
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create dispatch pool: %w", err)
	}

	return &RosterController{
		repo:     repo,
		validate: newValidator(),
		logger:   logger.Named("roster"),
		metrics:  metrics,
		markers: opstate.NewTracker(opstate.WithObserver(func(kind opstate.Kind, state opstate.State) {
			if state == opstate.Pending {
				metrics.RowOperationStarted(string(kind))
				return
			}
			metrics.RowOperationFinished(string(kind))
		})),
		pool:      pool,
		loading:   true,
		rowErrors: make(map[string]map[opstate.Kind]string),
	}, nil
}

// Close releases the dispatch pool, waiting up to timeout for running row operations.
func (c *RosterController) Close(timeout time.Duration) error {
	if err := c.pool.ReleaseTimeout(timeout); err != nil {
		return fmt.Errorf("release dispatch pool: %w", err)
	}
	return nil
}

// List replaces the collection with the server's. The first successful load of the session
// drives the loading flag and the full-page banner; later failures only set RefreshError.
// A response older than the committed one never touches state, but its error is still returned.
func (c *RosterController) List(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterController.List")
	defer span.End()

	c.mu.Lock()
	c.issuedSeq++
	seq := c.issuedSeq
	initial := !c.loadedOnce
	if initial {
		c.loading = true
		c.loadError = ""
	}
	c.mu.Unlock()

	students, err := c.repo.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if initial && !c.loadedOnce {
		c.loading = false
	}

	if seq <= c.committedSeq {
		c.metrics.StaleResponseDropped("roster")
		if err != nil {
			recordSpanError(span, err)
			c.logger.WarnContext(ctx, "superseded list students failed", "seq", seq, "committed_seq", c.committedSeq, "error", err)
			return fmt.Errorf("list students: %w", err)
		}
		c.logger.DebugContext(ctx, "drop superseded roster response", "seq", seq, "committed_seq", c.committedSeq)
		return nil
	}

	if err != nil {
		recordSpanError(span, err)
		c.logger.WarnContext(ctx, "list students failed", "initial", initial, "error", err)
		if c.loadedOnce {
			c.refreshError = err.Error()
		} else {
			c.loadError = loadErrorText
		}
		return fmt.Errorf("list students: %w", err)
	}

	c.committedSeq = seq
	c.loadedOnce = true
	c.loading = false
	c.loadError = ""
	c.refreshError = ""
	c.commitLocked(students)
	return nil
}

func (c *RosterController) commitLocked(students []student.Student) {
	c.students = append([]student.Student(nil), students...)
	c.stats = student.ComputeStats(c.students)
	c.metrics.SetRosterSize(len(c.students))

	present := make(map[string]struct{}, len(c.students))
	for _, s := range c.students {
		present[s.ID] = struct{}{}
	}
	for id := range c.rowErrors {
		if _, ok := present[id]; !ok {
			delete(c.rowErrors, id)
		}
	}
}

func (c *RosterController) OpenCreateForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createForm.Submitting {
		return
	}
	c.createForm = FormState{Open: true}
}

// CloseCreateForm is a no-op while a submission is outstanding.
func (c *RosterController) CloseCreateForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createForm.Submitting {
		return
	}
	c.createForm = FormState{}
}

// Create validates before any request. On failure the form stays open with the submitted
// fields; on success the form closes and the list is refreshed.
func (c *RosterController) Create(ctx context.Context, fields student.Fields) (student.Student, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterController.Create")
	defer span.End()

	fields = fields.Normalize()

	c.mu.Lock()
	if c.createForm.Submitting {
		c.mu.Unlock()
		return student.Student{}, fmt.Errorf("%w: create is already being submitted", ErrOperationInFlight)
	}
	c.createForm.Open = true
	c.createForm.Fields = fields
	c.createForm.Error = ""
	fieldErrs, err := validateStruct(ctx, c.validate, fields)
	c.createForm.FieldErrors = fieldErrs
	if err != nil {
		c.createForm.Error = err.Error()
		c.mu.Unlock()
		return student.Student{}, err
	}
	c.createForm.Submitting = true
	c.mu.Unlock()

	created, err := c.repo.Create(ctx, fields)

	c.mu.Lock()
	c.createForm.Submitting = false
	if err != nil {
		c.createForm.Error = err.Error()
		c.mu.Unlock()
		recordSpanError(span, err)
		c.logger.WarnContext(ctx, "create student failed", "cf_handle", fields.CFHandle, "error", err)
		return student.Student{}, fmt.Errorf("create student: %w", err)
	}
	c.createForm = FormState{}
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "student created", "student_id", created.ID, "cf_handle", fields.CFHandle)
	c.refresh(ctx)
	return created, nil
}

// OpenEditForm prefills the edit form from the listed record.
func (c *RosterController) OpenEditForm(studentID string) error {
	studentID = strings.TrimSpace(studentID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.editForm.Submitting {
		return fmt.Errorf("%w: edit is already being submitted", ErrOperationInFlight)
	}
	for _, s := range c.students {
		if s.ID == studentID {
			c.editForm = FormState{Open: true, StudentID: s.ID, Fields: student.FieldsOf(s)}
			return nil
		}
	}
	return fmt.Errorf("%w: student=%s", ErrNotFound, studentID)
}

// CloseEditForm is a no-op while a submission is outstanding.
func (c *RosterController) CloseEditForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editForm.Submitting {
		return
	}
	c.editForm = FormState{}
}

func (c *RosterController) Update(ctx context.Context, studentID string, fields student.Fields) (student.Student, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterController.Update", attribute.String("student.id", studentID))
	defer span.End()

	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return student.Student{}, fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}
	fields = fields.Normalize()

	c.mu.Lock()
	if c.editForm.Submitting {
		c.mu.Unlock()
		return student.Student{}, fmt.Errorf("%w: edit is already being submitted", ErrOperationInFlight)
	}
	c.editForm.Open = true
	c.editForm.StudentID = studentID
	c.editForm.Fields = fields
	c.editForm.Error = ""
	fieldErrs, err := validateStruct(ctx, c.validate, fields)
	c.editForm.FieldErrors = fieldErrs
	if err != nil {
		c.editForm.Error = err.Error()
		c.mu.Unlock()
		return student.Student{}, err
	}
	c.editForm.Submitting = true
	c.mu.Unlock()

	updated, err := c.repo.Update(ctx, studentID, fields)

	c.mu.Lock()
	c.editForm.Submitting = false
	if err != nil {
		c.editForm.Error = err.Error()
		c.mu.Unlock()
		recordSpanError(span, err)
		c.logger.WarnContext(ctx, "update student failed", "student_id", studentID, "error", err)
		return student.Student{}, fmt.Errorf("update student: %w", err)
	}
	c.editForm = FormState{}
	c.mu.Unlock()

	c.refresh(ctx)
	return updated, nil
}

// Delete asks confirm first; a declined confirmation sends nothing and returns nil.
func (c *RosterController) Delete(ctx context.Context, studentID string, confirm Confirmer) error {
	studentID, err := c.beginRowOp(ctx, studentID, opstate.KindDelete, confirm)
	if err != nil || studentID == "" {
		return err
	}
	return c.runRowOp(ctx, studentID, opstate.KindDelete)
}

func (c *RosterController) SyncNow(ctx context.Context, studentID string) error {
	studentID, err := c.beginRowOp(ctx, studentID, opstate.KindSync, nil)
	if err != nil {
		return err
	}
	return c.runRowOp(ctx, studentID, opstate.KindSync)
}

func (c *RosterController) ToggleReminder(ctx context.Context, studentID string) error {
	studentID, err := c.beginRowOp(ctx, studentID, opstate.KindToggleReminder, nil)
	if err != nil {
		return err
	}
	return c.runRowOp(ctx, studentID, opstate.KindToggleReminder)
}

// DeleteAsync confirms and claims the marker on the caller's goroutine, then runs the
// request on the dispatch pool.
func (c *RosterController) DeleteAsync(ctx context.Context, studentID string, confirm Confirmer) (bool, error) {
	studentID, err := c.beginRowOp(ctx, studentID, opstate.KindDelete, confirm)
	if err != nil || studentID == "" {
		return false, err
	}
	return true, c.dispatch(ctx, studentID, opstate.KindDelete)
}

func (c *RosterController) SyncNowAsync(ctx context.Context, studentID string) error {
	studentID, err := c.beginRowOp(ctx, studentID, opstate.KindSync, nil)
	if err != nil {
		return err
	}
	return c.dispatch(ctx, studentID, opstate.KindSync)
}

func (c *RosterController) ToggleReminderAsync(ctx context.Context, studentID string) error {
	studentID, err := c.beginRowOp(ctx, studentID, opstate.KindToggleReminder, nil)
	if err != nil {
		return err
	}
	return c.dispatch(ctx, studentID, opstate.KindToggleReminder)
}

// ExportCSVURL is where the browser navigates to download the roster.
func (c *RosterController) ExportCSVURL() string {
	return c.repo.ExportCSVURL()
}

// beginRowOp claims the (id, kind) marker. For deletes it consults confirm first and returns
// an empty id when the operator declined.
func (c *RosterController) beginRowOp(ctx context.Context, studentID string, kind opstate.Kind, confirm Confirmer) (string, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return "", fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}

	if kind == opstate.KindDelete {
		if confirm == nil || !confirm.Confirm(ctx, deletePrompt) {
			c.logger.DebugContext(ctx, "delete not confirmed", "student_id", studentID)
			return "", nil
		}
	}

	if !c.markers.TryBegin(studentID, kind) {
		c.metrics.RowOperationRejected(string(kind))
		return "", fmt.Errorf("%w: %s student=%s", ErrOperationInFlight, kind, studentID)
	}

	c.mu.Lock()
	if errs := c.rowErrors[studentID]; errs != nil {
		delete(errs, kind)
	}
	c.mu.Unlock()

	return studentID, nil
}

func (c *RosterController) dispatch(ctx context.Context, studentID string, kind opstate.Kind) error {
	detached := context.WithoutCancel(ctx)
	if err := c.pool.Submit(func() {
		_ = c.runRowOp(detached, studentID, kind)
	}); err != nil {
		c.markers.Finish(studentID, kind)
		c.logger.ErrorContext(ctx, "submit row operation failed", "student_id", studentID, "kind", kind, "error", err)
		return fmt.Errorf("%w: submit %s: %v", ErrDependencyUnavailable, kind, err)
	}
	return nil
}

// runRowOp sends the request for a claimed marker, releases the marker once the request
// settles and then refreshes the list whatever the outcome.
func (c *RosterController) runRowOp(ctx context.Context, studentID string, kind opstate.Kind) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterController."+string(kind),
		attribute.String("student.id", studentID),
	)
	defer span.End()

	var err error
	func() {
		defer c.markers.Finish(studentID, kind)
		switch kind {
		case opstate.KindDelete:
			err = c.repo.Delete(ctx, studentID)
		case opstate.KindSync:
			_, err = c.repo.SyncNow(ctx, studentID)
		case opstate.KindToggleReminder:
			_, err = c.repo.ToggleReminder(ctx, studentID)
		default:
			err = fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, kind)
		}
	}()

	if err != nil {
		recordSpanError(span, err)
		c.logger.WarnContext(ctx, "row operation failed", "student_id", studentID, "kind", kind, "error", err)
		c.mu.Lock()
		errs := c.rowErrors[studentID]
		if errs == nil {
			errs = make(map[opstate.Kind]string, 1)
			c.rowErrors[studentID] = errs
		}
		errs[kind] = err.Error()
		c.mu.Unlock()
	} else {
		c.logger.InfoContext(ctx, "row operation done", "student_id", studentID, "kind", kind)
	}

	c.refresh(ctx)
	if err != nil {
		return fmt.Errorf("%s student=%s: %w", kind, studentID, err)
	}
	return nil
}

// refresh runs a follow-up List whose failure is already recorded in the view.
func (c *RosterController) refresh(ctx context.Context) {
	_ = c.List(ctx)
}

type RosterRow struct {
	Student          student.Student
	CurrentBand      analytics.Band
	MaxBand          analytics.Band
	NeverSynced      bool
	Syncing          bool
	Deleting         bool
	TogglingReminder bool
	Errors           map[opstate.Kind]string
}

// RosterView is an immutable snapshot of everything the roster screen renders.
type RosterView struct {
	Rows         []RosterRow
	Stats        student.Stats
	Loading      bool
	LoadError    string
	RefreshError string
	CreateForm   FormState
	EditForm     FormState
	ExportCSVURL string
}

func (c *RosterController) View() RosterView {
	markers := c.markers.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]RosterRow, 0, len(c.students))
	for _, s := range c.students {
		row := RosterRow{
			Student:          s,
			CurrentBand:      analytics.RatingColorBand(s.CurrentRating),
			MaxBand:          analytics.RatingColorBand(s.MaxRating),
			NeverSynced:      s.NeverSynced(),
			Syncing:          markers.IsPending(s.ID, opstate.KindSync),
			Deleting:         markers.IsPending(s.ID, opstate.KindDelete),
			TogglingReminder: markers.IsPending(s.ID, opstate.KindToggleReminder),
		}
		if errs := c.rowErrors[s.ID]; len(errs) > 0 {
			row.Errors = make(map[opstate.Kind]string, len(errs))
			for k, v := range errs {
				row.Errors[k] = v
			}
		}
		rows = append(rows, row)
	}

	return RosterView{
		Rows:         rows,
		Stats:        c.stats,
		Loading:      c.loading,
		LoadError:    c.loadError,
		RefreshError: c.refreshError,
		CreateForm:   c.createForm.clone(),
		EditForm:     c.editForm.clone(),
		ExportCSVURL: c.repo.ExportCSVURL(),
	}
}

type nopMetrics struct{}

func (nopMetrics) RowOperationStarted(string)  {}
func (nopMetrics) RowOperationFinished(string) {}
func (nopMetrics) RowOperationRejected(string) {}
func (nopMetrics) StaleResponseDropped(string) {}
func (nopMetrics) SetRosterSize(int)           {}
