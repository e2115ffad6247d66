package main

import (
	"context"
	"log"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/nuumi-app/backend/internal/realtime"
	"github.com/nuumi-app/backend/internal/repositories"
	"github.com/nuumi-app/backend/internal/retention"
	"github.com/nuumi-app/backend/internal/router"
	"github.com/nuumi-app/backend/pkg/config"
	"github.com/nuumi-app/backend/pkg/firebase"
	"github.com/nuumi-app/backend/pkg/metrics"
	"github.com/nuumi-app/backend/pkg/storage"
	"github.com/nuumi-app/backend/validators"
)

func main() {
	cfg := config.Load()

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	ctx := context.Background()

	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Media storage is optional; upload endpoints return 503 without it.
	var mediaStore storage.MediaStore
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region,
			os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"))
		if err != nil {
			log.Fatalf("Failed to initialize media storage: %v", err)
		}
		mediaStore = s3Store
	} else {
		log.Println("S3_BUCKET not set, media uploads disabled.")
	}

	hub := realtime.NewHub()
	defer hub.Close()

	go metrics.Serve(cfg.MetricsPort)

	e := echo.New()
	e.Validator = validators.NewValidator()
	router.SetupMiddleware(e)
	router.SetupRoutes(e, db, firebaseApp.AuthClient, hub, mediaStore)

	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoDBName == "" {
		mongoDBName = "nuumi"
	}
	storyRepo := repositories.NewStoryRepository(db.Mongo.Database(mongoDBName), db.Postgres)

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go retention.NewSweeper(storyRepo, cfg.StorySweepInterval).Run(sweepCtx)

	log.Printf("Starting server on port %s", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
