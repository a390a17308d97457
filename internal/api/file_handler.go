package api

import (
	"errors"
	"net/http"
	"time"

	"fileshare/internal/domain"
	"fileshare/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FileHandler holds the file service dependency.
type FileHandler struct {
	fileService service.FileService
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(fileService service.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// --- DTOs for API (Data Transfer Objects) ---

// FileResponse is the DTO for returning file details.
type FileResponse struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	OriginalName  string    `json:"originalName"`
	Size          int64     `json:"size"`
	Mimetype      string    `json:"mimetype"`
	QRCode        string    `json:"qrCode"`
	DownloadCount int64     `json:"downloadCount"`
	UploadDate    time.Time `json:"uploadDate"`
}

// UploadResponse wraps the created file and its QR code, the shape the
// upload widget and the mobile page both consume.
type UploadResponse struct {
	File   FileResponse `json:"file"`
	QRCode string       `json:"qrCode"`
}

// DeviceFilesRequest is the batch-lookup request body.
type DeviceFilesRequest struct {
	FileIDs []string `json:"fileIds" binding:"required"`
}

// MapFileToResponse converts a domain.File to FileResponse DTO.
func MapFileToResponse(f *domain.File) FileResponse {
	if f == nil {
		return FileResponse{}
	}
	return FileResponse{
		ID:            f.ID.Hex(),
		Filename:      f.Filename,
		OriginalName:  f.OriginalName,
		Size:          f.Size,
		Mimetype:      f.Mimetype,
		QRCode:        f.QRCode,
		DownloadCount: f.DownloadCount,
		UploadDate:    f.UploadDate,
	}
}

// MapFilesToResponse converts a slice of domain.File to a slice of FileResponse DTO.
func MapFilesToResponse(files []domain.File) []FileResponse {
	responses := make([]FileResponse, len(files))
	for i, f := range files {
		responses[i] = MapFileToResponse(&f)
	}
	return responses
}

// --- Handler Methods ---

// Upload godoc
// @Summary Upload a file
// @Description Stores the multipart "file" field, generates a QR code for its download URL and, when a device-id header is present, records the file in that device's recent history.
// @Tags Files
// @Accept mpfd
// @Produce json
// @Param file formData file true "File to upload"
// @Param device-id header string false "Anonymous device identifier"
// @Success 201 {object} UploadResponse "File uploaded"
// @Failure 400 {object} gin.H "Missing file, oversize or disallowed type"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /upload [post]
func (h *FileHandler) Upload(c *gin.Context) {
	// Cap the request body before multipart parsing touches it. The slack on
	// top of the file limit covers the multipart framing.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxUploadSize+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithMessage(c, http.StatusBadRequest, "No file uploaded")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Error uploading file", err)
		return
	}
	defer src.Close()

	file, err := h.fileService.Upload(c.Request.Context(), service.UploadInput{
		OriginalName: fileHeader.Filename,
		Mimetype:     fileHeader.Header.Get("Content-Type"),
		Size:         fileHeader.Size,
		Content:      src,
		DeviceID:     getDeviceIDFromContext(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoFile),
			errors.Is(err, service.ErrFileTooLarge),
			errors.Is(err, service.ErrFileTypeNotAllowed):
			abortWithMessage(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Error uploading file", err)
		}
		return
	}

	c.JSON(http.StatusCreated, UploadResponse{
		File:   MapFileToResponse(file),
		QRCode: file.QRCode,
	})
}

// Download godoc
// @Summary Download a file
// @Description Streams the stored content with the declared mimetype and an attachment Content-Disposition carrying the original filename. Each completed call increments the file's download counter.
// @Tags Files
// @Produce octet-stream
// @Param filename path string true "Server-generated filename"
// @Success 200 {file} binary "File content"
// @Failure 404 {object} gin.H "File not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /download/{filename} [get]
func (h *FileHandler) Download(c *gin.Context) {
	filename := c.Param("filename")

	file, stream, err := h.fileService.Download(c.Request.Context(), filename)
	if err != nil {
		if errors.Is(err, service.ErrFileNotFound) {
			abortWithMessage(c, http.StatusNotFound, "File not found")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Error downloading file", err)
		}
		return
	}
	defer stream.Close()

	extraHeaders := map[string]string{
		"Content-Disposition": `attachment; filename="` + file.OriginalName + `"`,
	}
	// A stream error past this point is unrecoverable: headers are out.
	c.DataFromReader(http.StatusOK, file.Size, file.Mimetype, stream, extraHeaders)
}

// GetInfo godoc
// @Summary Get file metadata
// @Tags Files
// @Produce json
// @Param filename path string true "Server-generated filename"
// @Success 200 {object} FileResponse "File metadata"
// @Failure 404 {object} gin.H "File not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /info/{filename} [get]
func (h *FileHandler) GetInfo(c *gin.Context) {
	filename := c.Param("filename")

	file, err := h.fileService.GetInfo(c.Request.Context(), filename)
	if err != nil {
		if errors.Is(err, service.ErrFileNotFound) {
			abortWithMessage(c, http.StatusNotFound, "File not found")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Error getting file info", err)
		}
		return
	}

	c.JSON(http.StatusOK, MapFileToResponse(file))
}

// ListRecent godoc
// @Summary Get the most recent files across all devices
// @Tags Files
// @Produce json
// @Success 200 {array} FileResponse "Up to 10 newest files"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /recent [get]
func (h *FileHandler) ListRecent(c *gin.Context) {
	files, err := h.fileService.ListRecent(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Error fetching recent files", err)
		return
	}

	c.JSON(http.StatusOK, MapFilesToResponse(files))
}

// DeviceFiles godoc
// @Summary Batch-resolve file IDs to file records
// @Tags Files
// @Accept json
// @Produce json
// @Param request body DeviceFilesRequest true "File IDs to resolve"
// @Success 200 {array} FileResponse "Matching files, newest first"
// @Failure 400 {object} gin.H "fileIds missing or malformed"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /device-files [post]
func (h *FileHandler) DeviceFiles(c *gin.Context) {
	var req DeviceFilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, "fileIds must be an array")
		return
	}

	ids, err := parseObjectIDs(req.FileIDs)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid file ID", err)
		return
	}

	files, err := h.fileService.GetByIDs(c.Request.Context(), ids)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Error fetching device files", err)
		return
	}

	c.JSON(http.StatusOK, MapFilesToResponse(files))
}

// DebugAllFiles godoc
// @Summary List every stored file record
// @Description Introspection endpoint, no access control.
// @Tags Debug
// @Produce json
// @Success 200 {object} gin.H "totalFiles plus the file list"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /debug/all-files [get]
func (h *FileHandler) DebugAllFiles(c *gin.Context) {
	files, err := h.fileService.ListAllFiles(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Error fetching all files", err)
		return
	}

	type fileSummary struct {
		ID           string    `json:"id"`
		Filename     string    `json:"filename"`
		OriginalName string    `json:"originalName"`
		UploadDate   time.Time `json:"uploadDate"`
		Size         int64     `json:"size"`
	}

	summaries := make([]fileSummary, len(files))
	for i, f := range files {
		summaries[i] = fileSummary{
			ID:           f.ID.Hex(),
			Filename:     f.Filename,
			OriginalName: f.OriginalName,
			UploadDate:   f.UploadDate,
			Size:         f.Size,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"totalFiles": len(files),
		"files":      summaries,
	})
}

// parseObjectIDs converts hex IDs from a request body, failing on the first
// malformed one.
func parseObjectIDs(hexIDs []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexIDs))
	for _, h := range hexIDs {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
