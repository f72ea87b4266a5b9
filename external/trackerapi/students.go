package trackerapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/student-tracker/internal/domain/student"
	"github.com/riskibarqy/student-tracker/internal/usecase"
)

var _ student.Repository = (*Client)(nil)

func (c *Client) List(ctx context.Context) ([]student.Student, error) {
	raw, err := c.do(ctx, call{operation: "list_students", method: http.MethodGet, path: "/students"})
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	var items []studentDTO
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: decode students: %v", usecase.ErrDependencyUnavailable, err)
	}

	out := make([]student.Student, 0, len(items))
	for _, item := range items {
		s := item.toDomain()
		if s.ID == "" {
			c.logger.WarnContext(ctx, "skip student without id", "name", s.Name)
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *Client) GetByID(ctx context.Context, studentID string) (student.Student, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return student.Student{}, fmt.Errorf("%w: student id is required", usecase.ErrInvalidInput)
	}

	path := studentPath(studentID)
	raw, _, err := c.studentFlight.Do(path, func() ([]byte, error) {
		return c.do(ctx, call{operation: "get_student", method: http.MethodGet, path: path})
	})
	if err != nil {
		return student.Student{}, fmt.Errorf("get student id=%s: %w", studentID, err)
	}

	var item studentDTO
	if err := sonic.Unmarshal(raw, &item); err != nil {
		return student.Student{}, fmt.Errorf("%w: decode student: %v", usecase.ErrDependencyUnavailable, err)
	}
	out := item.toDomain()
	if out.ID == "" {
		out.ID = studentID
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, fields student.Fields) (student.Student, error) {
	raw, err := c.do(ctx, call{
		operation: "create_student",
		method:    http.MethodPost,
		path:      "/students",
		body:      fields.Normalize(),
	})
	if err != nil {
		return student.Student{}, fmt.Errorf("create student: %w", err)
	}
	return decodeOptionalStudent(raw, ""), nil
}

func (c *Client) Update(ctx context.Context, studentID string, fields student.Fields) (student.Student, error) {
	if strings.TrimSpace(studentID) == "" {
		return student.Student{}, fmt.Errorf("%w: student id is required", usecase.ErrInvalidInput)
	}

	raw, err := c.do(ctx, call{
		operation: "update_student",
		method:    http.MethodPut,
		path:      studentPath(studentID),
		body:      fields.Normalize(),
	})
	if err != nil {
		return student.Student{}, fmt.Errorf("update student id=%s: %w", studentID, err)
	}
	return decodeOptionalStudent(raw, studentID), nil
}

func (c *Client) Delete(ctx context.Context, studentID string) error {
	if strings.TrimSpace(studentID) == "" {
		return fmt.Errorf("%w: student id is required", usecase.ErrInvalidInput)
	}

	if _, err := c.do(ctx, call{operation: "delete_student", method: http.MethodDelete, path: studentPath(studentID)}); err != nil {
		return fmt.Errorf("delete student id=%s: %w", studentID, err)
	}
	return nil
}

func (c *Client) SyncNow(ctx context.Context, studentID string) (student.Student, error) {
	if strings.TrimSpace(studentID) == "" {
		return student.Student{}, fmt.Errorf("%w: student id is required", usecase.ErrInvalidInput)
	}

	raw, err := c.do(ctx, call{operation: "sync_student", method: http.MethodPost, path: studentPath(studentID, "sync-now")})
	if err != nil {
		return student.Student{}, fmt.Errorf("sync student id=%s: %w", studentID, err)
	}
	return decodeOptionalStudent(raw, studentID), nil
}

func (c *Client) ToggleReminder(ctx context.Context, studentID string) (student.Student, error) {
	if strings.TrimSpace(studentID) == "" {
		return student.Student{}, fmt.Errorf("%w: student id is required", usecase.ErrInvalidInput)
	}

	raw, err := c.do(ctx, call{operation: "toggle_reminder", method: http.MethodPost, path: studentPath(studentID, "toggle-reminder")})
	if err != nil {
		return student.Student{}, fmt.Errorf("toggle reminder id=%s: %w", studentID, err)
	}
	return decodeOptionalStudent(raw, studentID), nil
}

// decodeOptionalStudent reads the record echoed by mutation endpoints. Some endpoints reply
// with a bare message instead, which yields a zero Student.
func decodeOptionalStudent(raw []byte, fallbackID string) student.Student {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return student.Student{}
	}

	var wrapped struct {
		Student *studentDTO `json:"student"`
	}
	if err := sonic.Unmarshal(raw, &wrapped); err == nil && wrapped.Student != nil {
		return withFallbackID(wrapped.Student.toDomain(), fallbackID)
	}

	var item studentDTO
	if err := sonic.Unmarshal(raw, &item); err != nil {
		return student.Student{}
	}
	out := item.toDomain()
	if out.ID == "" && out.Name == "" {
		return student.Student{}
	}
	return withFallbackID(out, fallbackID)
}

func withFallbackID(s student.Student, fallbackID string) student.Student {
	if s.ID == "" {
		s.ID = fallbackID
	}
	return s
}
