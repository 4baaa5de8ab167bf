package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mvaldes/encore/internal/app"
	"github.com/mvaldes/encore/internal/config"
	"github.com/mvaldes/encore/internal/constants"
	httpapp "github.com/mvaldes/encore/internal/http"
	"github.com/mvaldes/encore/internal/listening"
	"github.com/mvaldes/encore/internal/logger"
	"github.com/mvaldes/encore/internal/matcher"
	"github.com/mvaldes/encore/internal/recommend"
	"github.com/mvaldes/encore/internal/store"
	"github.com/mvaldes/encore/internal/suggest"
	"github.com/mvaldes/encore/internal/sync"
	"github.com/mvaldes/encore/internal/worker"
)

func main() {
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Initialize DB
	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	settingsRepo := store.NewSettingsRepo(db)
	m := matcher.New(db)

	// Listening services. A service without credentials stays disconnected.
	services := buildServices(cfg, db, settingsRepo, appLogger)

	// Initialize Orchestrator and Worker
	orchestrator := sync.NewOrchestrator(db, db, m, services, appLogger)
	orchestrator.SetServiceBudget(cfg.SyncServiceBudget)

	w := worker.NewWorker(db, orchestrator, cfg.SyncConcurrency, appLogger)
	w.Start()
	defer w.Stop()

	// Initialize Engines
	engine, err := recommend.NewEngine(db, recommend.ConfigFromApp(cfg), appLogger)
	if err != nil {
		appLogger.Error("Invalid scoring configuration", "error", err)
		os.Exit(1)
	}
	suggestEngine := suggest.NewEngine(db, db, m, cfg.InitialBatchSize, cfg.MoreBatchSize, appLogger)

	// Initialize Services
	syncService := app.NewSyncService(db, orchestrator, appLogger)
	recommendService := app.NewRecommendService(db, db, engine, settingsRepo, appLogger)
	suggestService := app.NewSuggestService(suggestEngine)
	quizService := app.NewQuizService(db, db, m, settingsRepo, appLogger)

	// Initialize Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := httpapp.NewHandler(syncService, recommendService, suggestService, quizService, settingsRepo, appLogger)
	h.RegisterRoutes(r)

	// Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

// buildServices wires the configured listening services in the order the
// service_order setting dictates, defaulting to spotify first.
func buildServices(cfg *config.Config, db *store.DB, settingsRepo *store.SettingsRepo, appLogger *logger.Logger) []listening.Service {
	byName := make(map[string]listening.Service)

	if cfg.SpotifyClientID != "" && cfg.SpotifyClientSecret != "" && cfg.SpotifyRefreshToken != "" {
		svc := listening.NewSpotifyFromCredentials(context.Background(), cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyRefreshToken, cfg.SyncPageSize)
		byName[svc.Name()] = svc
	}
	if cfg.LastFMAPIKey != "" && cfg.LastFMUser != "" {
		client := listening.NewLastFMClient(cfg.LastFMAPIKey)
		svc := listening.NewLastFMService(client, db, cfg.LastFMUser, cfg.SyncPageSize)
		byName[svc.Name()] = svc
	}

	defaultOrder := []string{constants.SourceSpotify, constants.SourceLastFM}
	order := defaultOrder
	if saved, err := settingsRepo.Get(store.SettingServiceOrder); err == nil && saved != "" {
		order = strings.Split(saved, ",")
	}

	var services []listening.Service
	for _, name := range order {
		name = strings.TrimSpace(name)
		if svc, ok := byName[name]; ok {
			services = append(services, svc)
			delete(byName, name)
		}
	}
	// Services the setting omits keep their default relative order.
	for _, name := range defaultOrder {
		if svc, ok := byName[name]; ok {
			services = append(services, svc)
			delete(byName, name)
		}
	}

	if len(services) == 0 {
		appLogger.Warn("No listening services configured, syncs will fail until credentials are set")
	}
	return services
}
