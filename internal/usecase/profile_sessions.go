package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/student-tracker/internal/domain/profile"
	"github.com/riskibarqy/student-tracker/internal/platform/cache"
)

// ProfileSessions keeps one ProfileController per student so repeated visits reuse the
// loaded identity and snapshot. Idle sessions expire after the configured TTL.
type ProfileSessions struct {
	students  StudentGetter
	snapshots profile.Repository
	cfg       ProfileConfig
	store     *cache.Store[*ProfileController]
}

func NewProfileSessions(students StudentGetter, snapshots profile.Repository, cfg ProfileConfig, idleTTL time.Duration) *ProfileSessions {
	return &ProfileSessions{
		students:  students,
		snapshots: snapshots,
		cfg:       cfg,
		store:     cache.NewStore[*ProfileController](idleTTL),
	}
}

func (s *ProfileSessions) Controller(ctx context.Context, studentID string) (*ProfileController, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, fmt.Errorf("%w: student id is required", ErrInvalidInput)
	}

	return s.store.GetOrLoad(ctx, studentID, func(context.Context) (*ProfileController, error) {
		return NewProfileController(s.students, s.snapshots, s.cfg), nil
	})
}

// Forget drops the session, e.g. after the student was deleted.
func (s *ProfileSessions) Forget(ctx context.Context, studentID string) {
	s.store.Delete(ctx, strings.TrimSpace(studentID))
}

func (s *ProfileSessions) Len() int {
	return s.store.Len()
}
