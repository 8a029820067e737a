package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hscplanner-backend/internal/config"
	"hscplanner-backend/internal/database"
	"hscplanner-backend/internal/exam"
	"hscplanner-backend/internal/handlers"
	"hscplanner-backend/internal/masterfile"
	"hscplanner-backend/internal/questionbank"
	"hscplanner-backend/internal/router"
	"hscplanner-backend/internal/services"
	"hscplanner-backend/internal/store"
	"hscplanner-backend/internal/websocket"
	"hscplanner-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting HSC Planner Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Step 5: Initialize Store & Services ────
	kvStore := store.NewPostgresStore(pool)

	geminiService, err := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiConcurrentReqs)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Println("✓ Gemini Flash client initialized")

	questionService := questionbank.NewService(kvStore, rand.New(rand.NewSource(time.Now().UnixNano())))
	examService := exam.NewService(kvStore, questionService)
	codec := masterfile.NewCodec(kvStore)
	driveClient := services.NewDriveClient()
	driveAuth := services.NewDriveAuthService(kvStore)

	// Optional env seed for the OAuth client id; a value saved through the
	// settings API wins.
	if cfg.GoogleClientID != "" {
		ctx := context.Background()
		if existing, err := store.GetString(ctx, kvStore, store.KeyGoogleClientID); err == nil && existing == "" {
			if err := driveAuth.SaveClientID(ctx, cfg.GoogleClientID); err != nil {
				log.Printf("⚠ Ignoring invalid GOOGLE_CLIENT_ID: %v", err)
			}
		}
	}

	// ──── Step 6: Start Auto-Sync Scheduler ────
	autoSync := worker.NewAutoSync(kvStore, codec, driveClient, redisClients.Events, cfg.SyncDebounce)
	autoSync.Start()
	log.Println("✓ Auto-sync scheduler started")

	// Startup reconcile: pull the remote master file or create it.
	func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		outcome, err := autoSync.Reconcile(ctx)
		if err != nil {
			log.Printf("⚠ Sync reconcile failed: %v", err)
			return
		}
		log.Printf("✓ Sync reconcile: %s", outcome)
	}()

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, worker.EventsChannel)
	wsHub.Start()
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Handlers ────
	profileHandler := handlers.NewProfileHandler(kvStore)
	subjectHandler := handlers.NewSubjectHandler(kvStore)
	routineHandler := handlers.NewRoutineHandler(kvStore)
	examHandler := handlers.NewExamHandler(kvStore, examService, geminiService)
	questionHandler := handlers.NewQuestionHandler(questionService, geminiService)
	newsHandler := handlers.NewNewsHandler(kvStore, geminiService)
	syncHandler := handlers.NewSyncHandler(kvStore, codec, autoSync, driveAuth, wsHub)

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		profileHandler,
		subjectHandler,
		routineHandler,
		examHandler,
		questionHandler,
		newsHandler,
		syncHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		autoSync.Stop()
		wsHub.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ HSC Planner Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
