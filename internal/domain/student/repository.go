package student

import "context"

// Repository describes the tracker API operations the roster and profile screens need.
type Repository interface {
	List(ctx context.Context) ([]Student, error)
	GetByID(ctx context.Context, studentID string) (Student, error)
	Create(ctx context.Context, fields Fields) (Student, error)
	Update(ctx context.Context, studentID string, fields Fields) (Student, error)
	Delete(ctx context.Context, studentID string) error
	SyncNow(ctx context.Context, studentID string) (Student, error)
	ToggleReminder(ctx context.Context, studentID string) (Student, error)
	ExportCSVURL() string
}
