package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tastyhouse/backend/config"
	"github.com/tastyhouse/backend/internal/database"
	"github.com/tastyhouse/backend/internal/router"
	"github.com/tastyhouse/backend/internal/server"
	"github.com/tastyhouse/backend/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db.Gorm); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		// Rate limiting degrades gracefully without Redis.
		log.Printf("Redis unavailable, rate limiting disabled: %v", err)
		redisClient = nil
	}

	ctx := context.Background()
	s3cfg, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to configure blob storage: %v", err)
	}
	blobs := storage.NewS3Store(s3cfg.Client, s3cfg.BucketName, s3cfg.Folder)

	engine := router.SetupRouter(db.Gorm, blobs, redisClient, cfg.JWTSecret)
	srv := server.New(engine, cfg.ServerHost, cfg.ServerPort)

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s:%s", cfg.ServerHost, cfg.ServerPort)
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	log.Println("Shutting down server...")
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
