package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fileshare/internal/api"
	"fileshare/internal/config"
	"fileshare/internal/repository/mongo"
	"fileshare/internal/service"
	"fileshare/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/mdp/qrterminal/v3"
)

// @title File Share API
// @version 1.0
// @description API for uploading files, generating QR download codes and tracking per-device recent files.
// @host localhost:8080
// @BasePath /api/files
func main() {
	log.Println("Starting File Share Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureFileIndexes(ctx, appDB.Collection("files"))
		mongo.EnsureHistoryIndexes(ctx, appDB.Collection("recent_histories"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing blob storage...")
	var blobStore storage.ObjectStorage
	switch cfg.Storage.Backend {
	case config.StorageBackendS3:
		blobStore, err = storage.NewS3Storage(cfg.S3)
	case config.StorageBackendGridFS:
		blobStore, err = storage.NewGridFSStorage(appDB)
	default:
		log.Fatalf("FATAL: Unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize %s storage: %v", cfg.Storage.Backend, err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	fileRepo := mongo.NewMongoFileRepository(appDB)
	historyRepo := mongo.NewMongoHistoryRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	fileService := service.NewFileService(fileRepo, historyRepo, blobStore, cfg.Server.BaseURL)
	historyService := service.NewHistoryService(historyRepo, fileRepo)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.CORS.AllowedOrigins, fileService, historyService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Minute, // Large uploads stream through the request body
		WriteTimeout: 10 * time.Minute, // Large downloads stream through the response
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// Print a scannable QR of the mobile upload page, the same code the web
	// UI renders for phones.
	uploadPageURL := cfg.Server.BaseURL + "/api/files/upload-page"
	log.Printf("Scan to open the upload page: %s", uploadPageURL)
	qrterminal.GenerateHalfBlock(uploadPageURL, qrterminal.L, os.Stdout)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give in-flight requests 5 seconds to finish
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
