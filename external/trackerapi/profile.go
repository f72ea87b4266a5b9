package trackerapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/student-tracker/internal/domain/profile"
	"github.com/riskibarqy/student-tracker/internal/usecase"
)

var _ profile.Repository = (*Client)(nil)

func (c *Client) GetSnapshot(ctx context.Context, studentID string, window profile.Window) (profile.Snapshot, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return profile.Snapshot{}, fmt.Errorf("%w: student id is required", usecase.ErrInvalidInput)
	}
	if !window.Valid() {
		return profile.Snapshot{}, fmt.Errorf("%w: unsupported window %d", usecase.ErrInvalidInput, window.Days())
	}

	path := studentPath(studentID, "profile")
	query := url.Values{}
	query.Set("days", strconv.Itoa(window.Days()))

	raw, _, err := c.profileFlight.Do(path+"?"+query.Encode(), func() ([]byte, error) {
		return c.do(ctx, call{operation: "get_profile", method: http.MethodGet, path: path, query: query})
	})
	if err != nil {
		return profile.Snapshot{}, fmt.Errorf("get profile id=%s days=%d: %w", studentID, window.Days(), err)
	}

	var payload profileDTO
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return profile.Snapshot{}, fmt.Errorf("%w: decode profile: %v", usecase.ErrDependencyUnavailable, err)
	}
	return payload.toDomain(), nil
}
