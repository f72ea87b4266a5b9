package profile

import "context"

// Repository fetches analytics snapshots from the tracker API.
type Repository interface {
	GetSnapshot(ctx context.Context, studentID string, window Window) (Snapshot, error)
}
