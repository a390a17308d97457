package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"fileshare/internal/domain"
	"fileshare/internal/repository"
	"fileshare/internal/storage"

	qrcode "github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrFileNotFound       = errors.New("file not found")
	ErrNoFile             = errors.New("no file uploaded")
	ErrFileTooLarge       = errors.New("file exceeds the maximum allowed size")
	ErrFileTypeNotAllowed = errors.New("file type not supported! Please upload a valid file")
)

// MaxUploadSize caps uploads at 1 GiB.
const MaxUploadSize = 1 << 30

// QR image size in pixels.
const qrImageSize = 256

// allowedFileTypes lists the accepted extensions. The declared mimetype must
// also contain one of these tokens (image/doc/archive/audio/video/design
// formats). Matching is by name only; content is never sniffed.
var allowedFileTypes = []string{
	"jpeg", "jpg", "png", "gif", "pdf", "doc", "docx", "xls", "xlsx",
	"zip", "rar", "txt", "mp3", "mp4", "mov", "avi", "wav", "psd", "ai", "eps",
}

// UploadInput carries everything the upload operation needs. DeviceID is
// optional; when present the uploaded file is pushed onto that device's
// recent history.
type UploadInput struct {
	OriginalName string
	Mimetype     string
	Size         int64
	Content      io.Reader
	DeviceID     string
}

// --- Service Interface ---
type FileService interface {
	Upload(ctx context.Context, input UploadInput) (*domain.File, error)
	// Download resolves filename, atomically bumps its download counter and
	// opens a stream over the blob content. The caller owns the stream.
	Download(ctx context.Context, filename string) (*domain.File, io.ReadCloser, error)
	GetInfo(ctx context.Context, filename string) (*domain.File, error)
	ListRecent(ctx context.Context) ([]domain.File, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.File, error)
	ListAllFiles(ctx context.Context) ([]domain.File, error)
}

// --- Service Implementation ---

// fileService implements the FileService interface.
type fileService struct {
	fileRepo    repository.FileRepository
	historyRepo repository.HistoryRepository
	blobStore   storage.ObjectStorage
	baseURL     string
}

// NewFileService creates a new instance of fileService. baseURL is the
// public prefix encoded into QR download links.
func NewFileService(
	fileRepo repository.FileRepository,
	historyRepo repository.HistoryRepository,
	blobStore storage.ObjectStorage,
	baseURL string,
) FileService {
	return &fileService{
		fileRepo:    fileRepo,
		historyRepo: historyRepo,
		blobStore:   blobStore,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

// Upload validates the payload, persists the blob and its metadata and
// generates the QR code for the download URL. If input.DeviceID is set the
// file is pushed onto that device's recent history; a history failure does
// not fail the upload.
func (s *fileService) Upload(ctx context.Context, input UploadInput) (*domain.File, error) {
	if input.Content == nil || input.OriginalName == "" {
		return nil, ErrNoFile
	}
	if input.Size > MaxUploadSize {
		return nil, ErrFileTooLarge
	}
	if !isAllowedFileType(input.OriginalName, input.Mimetype) {
		return nil, ErrFileTypeNotAllowed
	}

	filename := generateFilename(input.OriginalName)

	blobID, err := s.blobStore.Upload(ctx, filename, input.Mimetype, input.Content)
	if err != nil {
		return nil, fmt.Errorf("storing file content: %w", err)
	}

	downloadURL := fmt.Sprintf("%s/api/files/download/%s", s.baseURL, filename)
	qrCode, err := generateQRDataURI(downloadURL)
	if err != nil {
		return nil, fmt.Errorf("generating QR code: %w", err)
	}

	file := &domain.File{
		Filename:     filename,
		OriginalName: input.OriginalName,
		BlobID:       blobID,
		Size:         input.Size,
		Mimetype:     input.Mimetype,
		QRCode:       qrCode,
		UploadDate:   time.Now().UTC(),
	}

	fileID, err := s.fileRepo.Create(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("storing file metadata: %w", err)
	}
	file.ID = fileID

	if input.DeviceID != "" {
		// Best effort, matching the original behavior: the upload already
		// succeeded, a history failure only costs the recent-files entry.
		if err := s.historyRepo.PushFront(ctx, input.DeviceID, fileID); err != nil {
			log.Printf("WARN: Failed to update recent history for device %s: %v", input.DeviceID, err)
		}
	}

	return file, nil
}

// Download bumps the download counter and opens the blob stream.
func (s *fileService) Download(ctx context.Context, filename string) (*domain.File, io.ReadCloser, error) {
	file, err := s.fileRepo.IncrementDownloadCount(ctx, filename)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, err
	}

	stream, err := s.blobStore.Download(ctx, file.BlobID)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, err
	}

	return file, stream, nil
}

// GetInfo retrieves file metadata by filename.
func (s *fileService) GetInfo(ctx context.Context, filename string) (*domain.File, error) {
	file, err := s.fileRepo.GetByFilename(ctx, filename)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return file, nil
}

// ListRecent returns the most recently uploaded files across all devices.
func (s *fileService) ListRecent(ctx context.Context) ([]domain.File, error) {
	return s.fileRepo.ListRecent(ctx, domain.MaxRecentFiles)
}

// GetByIDs returns the files matching ids, newest upload first. Unknown IDs
// are silently absent.
func (s *fileService) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.File, error) {
	return s.fileRepo.GetByIDs(ctx, ids)
}

// ListAllFiles returns every file record. Debug/introspection use.
func (s *fileService) ListAllFiles(ctx context.Context) ([]domain.File, error) {
	return s.fileRepo.ListAll(ctx)
}

// generateFilename builds the stored name {base}-{unixMillis}{ext}. The
// millisecond timestamp keeps repeated uploads of the same name unique in
// practice.
func generateFilename(originalName string) string {
	ext := filepath.Ext(originalName)
	base := strings.TrimSuffix(filepath.Base(originalName), ext)
	return fmt.Sprintf("%s-%d%s", base, time.Now().UnixMilli(), ext)
}

// isAllowedFileType checks both the extension and the declared mimetype
// against the allow-list, mirroring the double filter the original applied.
func isAllowedFileType(originalName, mimetype string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(originalName)), ".")
	mime := strings.ToLower(mimetype)

	extOK := false
	mimeOK := false
	for _, t := range allowedFileTypes {
		if ext == t {
			extOK = true
		}
		if strings.Contains(mime, t) {
			mimeOK = true
		}
	}
	return extOK && mimeOK
}

// generateQRDataURI renders url as a PNG QR code wrapped in a data URI.
func generateQRDataURI(url string) (string, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
