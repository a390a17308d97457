package repository

import (
	"context"

	"fileshare/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// FileRepository defines the interface for interacting with file metadata.
type FileRepository interface {
	Create(ctx context.Context, file *domain.File) (primitive.ObjectID, error)
	GetByFilename(ctx context.Context, filename string) (*domain.File, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.File, error)
	// GetByIDs returns the files whose IDs are in ids, sorted by upload date
	// descending. IDs with no matching document are simply absent from the
	// result.
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.File, error)
	ListRecent(ctx context.Context, limit int64) ([]domain.File, error)
	ListAll(ctx context.Context) ([]domain.File, error)
	// IncrementDownloadCount atomically bumps the counter for filename and
	// returns the updated document.
	IncrementDownloadCount(ctx context.Context, filename string) (*domain.File, error)
}

// HistoryRepository defines the interface for interacting with per-device
// recent-history documents.
type HistoryRepository interface {
	// PushFront upserts the device's history, inserting fileID at the front.
	// If fileID is already present it is moved to the front instead of being
	// duplicated, and the list is truncated to domain.MaxRecentFiles
	// entries. The whole operation is a single document update.
	PushFront(ctx context.Context, deviceID string, fileID primitive.ObjectID) error
	GetByDeviceID(ctx context.Context, deviceID string) (*domain.RecentHistory, error)
	// Delete removes the device's history document. Deleting an absent
	// history is not an error.
	Delete(ctx context.Context, deviceID string) error
	ListAll(ctx context.Context) ([]domain.RecentHistory, error)
}
