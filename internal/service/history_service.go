package service

import (
	"context"
	"errors"
	"time"

	"fileshare/internal/domain"
	"fileshare/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrDeviceIDRequired = errors.New("deviceId is required")

// DeviceHistorySummary describes one device's history for introspection.
type DeviceHistorySummary struct {
	DeviceID     string    `json:"deviceId"`
	FileCount    int       `json:"fileCount"`
	LastAccessed time.Time `json:"lastAccessed"`
}

// --- Service Interface ---
type HistoryService interface {
	// GetForDevice resolves the device's recent file references to full file
	// records, preserving the most-recent-first order. An unknown device
	// yields an empty slice, not an error. Dangling references are dropped.
	GetForDevice(ctx context.Context, deviceID string) ([]domain.File, error)
	// AddToRecent pushes fileID to the front of the device's history,
	// de-duplicating and capping at domain.MaxRecentFiles. Idempotent for a
	// repeated (deviceID, fileID) pair.
	AddToRecent(ctx context.Context, deviceID string, fileID primitive.ObjectID) error
	// ClearRecent drops the device's history entirely. No-op if absent.
	ClearRecent(ctx context.Context, deviceID string) error
	// ListDeviceHistories summarizes every device's history. Debug use.
	ListDeviceHistories(ctx context.Context) ([]DeviceHistorySummary, error)
}

// --- Service Implementation ---

// historyService implements the HistoryService interface.
type historyService struct {
	historyRepo repository.HistoryRepository
	fileRepo    repository.FileRepository
}

// NewHistoryService creates a new instance of historyService.
func NewHistoryService(historyRepo repository.HistoryRepository, fileRepo repository.FileRepository) HistoryService {
	return &historyService{
		historyRepo: historyRepo,
		fileRepo:    fileRepo,
	}
}

// GetForDevice joins the device's file references against the files
// collection and reorders the result to the history's own sequence.
func (s *historyService) GetForDevice(ctx context.Context, deviceID string) ([]domain.File, error) {
	if deviceID == "" {
		return nil, ErrDeviceIDRequired
	}

	history, err := s.historyRepo.GetByDeviceID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []domain.File{}, nil
		}
		return nil, err
	}

	files, err := s.fileRepo.GetByIDs(ctx, history.FileIDs)
	if err != nil {
		return nil, err
	}

	// The repository returns files in upload-date order; the history's own
	// FileIDs order (most recently touched first) is the one clients expect.
	byID := make(map[primitive.ObjectID]domain.File, len(files))
	for _, f := range files {
		byID[f.ID] = f
	}

	ordered := make([]domain.File, 0, len(history.FileIDs))
	for _, id := range history.FileIDs {
		if f, ok := byID[id]; ok {
			ordered = append(ordered, f)
		}
		// Dangling references (file record deleted out-of-band) are skipped.
	}
	return ordered, nil
}

// AddToRecent performs the atomic push-front upsert.
func (s *historyService) AddToRecent(ctx context.Context, deviceID string, fileID primitive.ObjectID) error {
	if deviceID == "" {
		return ErrDeviceIDRequired
	}
	return s.historyRepo.PushFront(ctx, deviceID, fileID)
}

// ClearRecent deletes the device's history document.
func (s *historyService) ClearRecent(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return ErrDeviceIDRequired
	}
	return s.historyRepo.Delete(ctx, deviceID)
}

// ListDeviceHistories returns a summary of every stored history.
func (s *historyService) ListDeviceHistories(ctx context.Context) ([]DeviceHistorySummary, error) {
	histories, err := s.historyRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]DeviceHistorySummary, 0, len(histories))
	for _, h := range histories {
		summaries = append(summaries, DeviceHistorySummary{
			DeviceID:     h.DeviceID,
			FileCount:    len(h.FileIDs),
			LastAccessed: h.LastAccessed,
		})
	}
	return summaries, nil
}
