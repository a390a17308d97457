package api

import (
	"net/http"

	"fileshare/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRoutes wires the files API onto the router.
func SetupRoutes(
	router *gin.Engine,
	allowedOrigins []string,
	fileService service.FileService,
	historyService service.HistoryService,
) {
	fileHandler := NewFileHandler(fileService)
	historyHandler := NewHistoryHandler(historyService)

	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, DeviceIDHeader)
	router.Use(cors.New(corsConfig))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	files := router.Group("/api/files")
	files.Use(DeviceIDMiddleware())
	{
		files.GET("/recent", fileHandler.ListRecent)
		files.GET("/recent/:deviceId", historyHandler.GetForDevice)

		files.POST("/upload", fileHandler.Upload)
		files.GET("/upload-page", UploadPage)

		files.GET("/download/:filename", fileHandler.Download)
		files.GET("/info/:filename", fileHandler.GetInfo)

		files.POST("/device-files", fileHandler.DeviceFiles)
		files.POST("/clear-recent-history", historyHandler.ClearRecent)
		files.POST("/add-to-recent/:deviceId", historyHandler.AddToRecent)

		// Introspection, no access control.
		files.GET("/debug/device-ids", historyHandler.DebugDeviceIDs)
		files.GET("/debug/all-files", fileHandler.DebugAllFiles)
	}
}
