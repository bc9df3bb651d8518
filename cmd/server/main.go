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

	"physiq/physiq-app/internal/ai"
	"physiq/physiq-app/internal/api"
	"physiq/physiq-app/internal/config"
	"physiq/physiq-app/internal/repository/mongo"
	"physiq/physiq-app/internal/service"
	"physiq/physiq-app/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Physiq App Server...")

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
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureScanIndexes(ctx, appDB.Collection("scans"))
		mongo.EnsurePlanIndexes(ctx, appDB.Collection("training_plans"))
		mongo.EnsureAssetIndexes(ctx, appDB.Collection("exercise_assets"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	scanRepo := mongo.NewMongoScanRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	assetRepo := mongo.NewMongoAssetRepository(appDB)

	// --- Initialize AI Provider Client ---
	log.Println("Initializing AI provider client...")
	aiClient := ai.NewClient(cfg.AI)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	generator := service.NewPlanGenerator(aiClient)
	guard := service.NewRegenerationGuard(service.DefaultRegenerationTTL)
	planService := service.NewPlanService(planRepo, scanRepo, generator, guard)
	scanService := service.NewScanService(scanRepo, userRepo, planService, aiClient, aiClient, fileStorage)
	assetService := service.NewAssetService(assetRepo, aiClient, fileStorage, cfg.AI.ImageCallSpacing, cfg.AI.AssetQueueSize)

	// --- Start Asset Generation Worker ---
	// Single consumer; the image call spacing is enforced inside Run.
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go assetService.Run(workerCtx)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, scanService, planService, assetService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopWorker()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
