package api

import (
	"net/http"

	"fileshare/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HistoryHandler holds the history service dependency.
type HistoryHandler struct {
	historyService service.HistoryService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyService service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// --- DTOs for API (Data Transfer Objects) ---

// ClearHistoryRequest identifies the device whose history is dropped.
type ClearHistoryRequest struct {
	DeviceID string `json:"deviceId" binding:"required"`
}

// AddToRecentRequest carries the file to record.
type AddToRecentRequest struct {
	FileID string `json:"fileId" binding:"required"`
}

// --- Handler Methods ---

// GetForDevice godoc
// @Summary Get a device's recent files
// @Description Returns the device's up-to-10 most recent files, most recent first. Unknown devices get an empty array.
// @Tags History
// @Produce json
// @Param deviceId path string true "Device identifier"
// @Success 200 {array} FileResponse "Resolved recent files"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /recent/{deviceId} [get]
func (h *HistoryHandler) GetForDevice(c *gin.Context) {
	deviceID := c.Param("deviceId")

	files, err := h.historyService.GetForDevice(c.Request.Context(), deviceID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Error fetching recent files", err)
		return
	}

	c.JSON(http.StatusOK, MapFilesToResponse(files))
}

// AddToRecent godoc
// @Summary Record a file in a device's recent history
// @Description Moves the file to the front of the device's history, de-duplicating and keeping at most 10 entries. Idempotent for a repeated pair.
// @Tags History
// @Accept json
// @Produce json
// @Param deviceId path string true "Device identifier"
// @Param request body AddToRecentRequest true "File to record"
// @Success 200 {object} gin.H "message"
// @Failure 400 {object} gin.H "Missing or malformed fileId"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /add-to-recent/{deviceId} [post]
func (h *HistoryHandler) AddToRecent(c *gin.Context) {
	deviceID := c.Param("deviceId")

	var req AddToRecentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, "fileId is required")
		return
	}

	fileID, err := primitive.ObjectIDFromHex(req.FileID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid file ID", err)
		return
	}

	if err := h.historyService.AddToRecent(c.Request.Context(), deviceID, fileID); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Error updating recent history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "File added to recent history"})
}

// ClearRecent godoc
// @Summary Clear a device's recent history
// @Description Deletes the device's history record entirely. Clearing an absent history succeeds.
// @Tags History
// @Accept json
// @Produce json
// @Param request body ClearHistoryRequest true "Device whose history to clear"
// @Success 200 {object} gin.H "message"
// @Failure 400 {object} gin.H "Missing deviceId"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /clear-recent-history [post]
func (h *HistoryHandler) ClearRecent(c *gin.Context) {
	var req ClearHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, "deviceId is required")
		return
	}

	if err := h.historyService.ClearRecent(c.Request.Context(), req.DeviceID); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Error clearing recent history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recent history cleared successfully"})
}

// DebugDeviceIDs godoc
// @Summary List every device history summary
// @Description Introspection endpoint, no access control.
// @Tags Debug
// @Produce json
// @Success 200 {object} gin.H "totalHistories plus summaries"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /debug/device-ids [get]
func (h *HistoryHandler) DebugDeviceIDs(c *gin.Context) {
	summaries, err := h.historyService.ListDeviceHistories(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Error fetching device IDs", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalHistories": len(summaries),
		"histories":      summaries,
	})
}
