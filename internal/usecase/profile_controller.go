package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/student-tracker/internal/domain/analytics"
	"github.com/riskibarqy/student-tracker/internal/domain/profile"
	"github.com/riskibarqy/student-tracker/internal/domain/student"
	"github.com/riskibarqy/student-tracker/internal/platform/logging"
)

// StudentGetter is the identity lookup the profile needs.
type StudentGetter interface {
	GetByID(ctx context.Context, studentID string) (student.Student, error)
}

// ProfileMetrics is the slice of the metrics manager the profile reports to.
type ProfileMetrics interface {
	StaleResponseDropped(view string)
}

type ProfileConfig struct {
	Logger        *logging.Logger
	Metrics       ProfileMetrics
	DefaultWindow profile.Window
}

// ProfileController owns one student's identity and the snapshot of the selected window.
// Only the response to the most recently issued snapshot request is ever committed.
type ProfileController struct {
	students  StudentGetter
	snapshots profile.Repository
	logger    *logging.Logger
	metrics   ProfileMetrics

	renderMu sync.Mutex

	mu             sync.Mutex
	studentID      string
	identity       *student.Student
	identityErr    string
	window         profile.Window
	snapshot       *profile.Snapshot
	snapshotWindow profile.Window
	snapshotErr    string
	issuedSeq      uint64
}

func NewProfileController(students StudentGetter, snapshots profile.Repository, cfg ProfileConfig) *ProfileController {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	window := cfg.DefaultWindow
	if !window.Valid() {
		window = profile.DefaultWindow
	}

	return &ProfileController{
		students:  students,
		snapshots: snapshots,
		logger:    logger.Named("profile"),
		metrics:   metrics,
		window:    window,
	}
}

// Open selects window and loads identity and snapshot concurrently. Both are refetched on
// every call so edits made through the roster show up on the next visit.
func (c *ProfileController) Open(ctx context.Context, studentID string, window profile.Window) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileController.Open",
		attribute.String("student.id", studentID),
		attribute.Int("profile.window_days", window.Days()),
	)
	defer span.End()

	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}
	if !window.Valid() {
		return fmt.Errorf("%w: unsupported window %d", ErrInvalidInput, window.Days())
	}

	c.mu.Lock()
	c.resetForLocked(studentID)
	c.window = window
	c.issuedSeq++
	c.mu.Unlock()

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		return c.LoadIdentity(ctx, studentID)
	})
	p.Go(func(ctx context.Context) error {
		return c.LoadSnapshot(ctx, studentID, window)
	})

	if err := p.Wait(); err != nil {
		recordSpanError(span, err)
		return err
	}
	return nil
}

// LoadIdentity stores the student record. On failure the view stays in its loading state.
func (c *ProfileController) LoadIdentity(ctx context.Context, studentID string) error {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}

	c.mu.Lock()
	c.resetForLocked(studentID)
	c.mu.Unlock()

	got, err := c.students.GetByID(ctx, studentID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.studentID != studentID {
		c.metrics.StaleResponseDropped("profile_identity")
		return nil
	}
	if err != nil {
		c.identityErr = err.Error()
		c.logger.WarnContext(ctx, "load student failed", "student_id", studentID, "error", err)
		return fmt.Errorf("load student: %w", err)
	}

	c.identity = &got
	c.identityErr = ""
	return nil
}

// LoadSnapshot makes window the selected one and fetches its snapshot. Each call takes the
// next sequence number; a response is committed only if no later call has been issued and
// its window is still the selected one.
func (c *ProfileController) LoadSnapshot(ctx context.Context, studentID string, window profile.Window) error {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}
	if !window.Valid() {
		return fmt.Errorf("%w: unsupported window %d", ErrInvalidInput, window.Days())
	}

	c.mu.Lock()
	c.resetForLocked(studentID)
	c.window = window
	c.issuedSeq++
	seq := c.issuedSeq
	c.mu.Unlock()

	snapshot, err := c.snapshots.GetSnapshot(ctx, studentID, window)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.issuedSeq || c.studentID != studentID || window != c.window {
		c.metrics.StaleResponseDropped("profile")
		c.logger.DebugContext(ctx, "drop superseded snapshot",
			"student_id", studentID,
			"window_days", window.Days(),
			"seq", seq,
			"latest_seq", c.issuedSeq,
		)
		return nil
	}

	if err != nil {
		c.snapshotErr = err.Error()
		c.logger.WarnContext(ctx, "load snapshot failed", "student_id", studentID, "window_days", window.Days(), "error", err)
		return fmt.Errorf("load snapshot: %w", err)
	}

	c.snapshot = &snapshot
	c.snapshotWindow = window
	c.snapshotErr = ""
	return nil
}

// SelectWindow switches the window and refetches the snapshot for it.
func (c *ProfileController) SelectWindow(ctx context.Context, window profile.Window) error {
	if !window.Valid() {
		return fmt.Errorf("%w: unsupported window %d", ErrInvalidInput, window.Days())
	}

	c.mu.Lock()
	studentID := c.studentID
	c.window = window
	c.issuedSeq++
	c.mu.Unlock()

	if studentID == "" {
		return fmt.Errorf("%w: no student loaded", ErrInvalidInput)
	}
	return c.LoadSnapshot(ctx, studentID, window)
}

func (c *ProfileController) Window() profile.Window {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.window
}

// resetForLocked drops all state belonging to a different student.
func (c *ProfileController) resetForLocked(studentID string) {
	if c.studentID == studentID {
		return
	}
	c.studentID = studentID
	c.identity = nil
	c.identityErr = ""
	c.snapshot = nil
	c.snapshotWindow = 0
	c.snapshotErr = ""
	c.issuedSeq++
}

type ProfileSummary struct {
	TotalSolved    int
	HardestProblem string
	AvgRating      float64
	AvgPerDay      float64
}

type ContestRow struct {
	Contest    profile.Contest
	Trend      analytics.Trend
	DeltaLabel string
}

// ProfileView is what the profile screen renders. Projections are only filled when Ready.
type ProfileView struct {
	StudentID     string
	Window        profile.Window
	Windows       []profile.Window
	Ready         bool
	Student       *student.Student
	CurrentBand   analytics.Band
	MaxBand       analytics.Band
	Summary       ProfileSummary
	RatingSeries  []analytics.RatingPoint
	Contests      []ContestRow
	RatingBuckets []analytics.BucketPoint
	Heatmap       []analytics.HeatmapPoint
	IdentityError string
	SnapshotError string
}

// Render opens studentID at window and returns the view for that window. Renders of one
// controller run one at a time so concurrent callers never see each other's window.
func (c *ProfileController) Render(ctx context.Context, studentID string, window profile.Window, now time.Time) (ProfileView, error) {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	if err := c.Open(ctx, studentID, window); err != nil {
		return ProfileView{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked(window, now), nil
}

// View requires both identity and a snapshot for the selected window to be Ready.
func (c *ProfileController) View(now time.Time) ProfileView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked(c.window, now)
}

func (c *ProfileController) viewLocked(window profile.Window, now time.Time) ProfileView {
	out := ProfileView{
		StudentID:     c.studentID,
		Window:        window,
		Windows:       profile.Windows(),
		IdentityError: c.identityErr,
		SnapshotError: c.snapshotErr,
	}

	if c.identity == nil || c.snapshot == nil || c.snapshotWindow != window {
		return out
	}

	identity := *c.identity
	snapshot := *c.snapshot
	out.Ready = true
	out.Student = &identity
	out.CurrentBand = analytics.RatingColorBand(identity.CurrentRating)
	out.MaxBand = analytics.RatingColorBand(identity.MaxRating)
	out.Summary = ProfileSummary{
		TotalSolved:    snapshot.TotalSolved,
		HardestProblem: snapshot.HardestProblem,
		AvgRating:      snapshot.AvgRating,
		AvgPerDay:      snapshot.AvgPerDay,
	}

	ordered := analytics.ContestsChronological(snapshot.Contests)
	out.RatingSeries = analytics.RatingSeries(ordered)
	out.Contests = make([]ContestRow, 0, len(ordered))
	for _, contest := range ordered {
		out.Contests = append(out.Contests, ContestRow{
			Contest:    contest,
			Trend:      analytics.DeltaTrend(contest.Delta),
			DeltaLabel: analytics.FormatDelta(contest.Delta),
		})
	}
	out.RatingBuckets = analytics.RatingBucketsToSeries(snapshot.RatingBuckets)
	out.Heatmap = analytics.HeatmapToSeries(snapshot.Heatmap, window.Days(), now)

	return out
}
