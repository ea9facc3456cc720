package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"videomerger/config"
	"videomerger/handlers"
	"videomerger/metrics"
	"videomerger/services"
	"videomerger/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Configuration loaded: %s", cfg)

	// Shared temp root lives for the whole process
	if err := utils.EnsureDir(cfg.TempDir); err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}
	if err := utils.EnsureDir(cfg.OutputDir); err != nil {
		log.Fatalf("Failed to create output dir: %v", err)
	}

	// Create Gin router
	router := gin.Default()

	// Setup CORS
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:   []string{"Content-Length", "Content-Disposition"},
		MaxAge:          12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	m := metrics.New()
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// Initialize merge handler
	mergeService := services.NewMergeService(cfg)
	mergeHandler := handlers.NewMergeHandler(cfg, mergeService, m)

	// API routes
	api := router.Group("/api")
	{
		api.POST("/merge", mergeHandler.Merge)
		api.POST("/merge/download", mergeHandler.MergeAndDownload)
		api.POST("/merge/upload", mergeHandler.MergeUpload)
	}
	router.GET("/output/:filename", mergeHandler.Output)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Remove the temp root on shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}

	if err := utils.RemoveDir(cfg.TempDir); err != nil {
		log.Printf("Failed to remove temp dir: %v", err)
	}
}
