package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/cyber-quest/internal/config"
	"github.com/jwebster45206/cyber-quest/internal/events"
	"github.com/jwebster45206/cyber-quest/internal/handlers"
	"github.com/jwebster45206/cyber-quest/internal/logger"
	"github.com/jwebster45206/cyber-quest/internal/middleware"
	"github.com/jwebster45206/cyber-quest/internal/queue"
	"github.com/jwebster45206/cyber-quest/internal/storage"
	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/dialogue"
	"github.com/jwebster45206/cyber-quest/pkg/dice"
	"github.com/jwebster45206/cyber-quest/pkg/game"
	"github.com/jwebster45206/cyber-quest/pkg/ranking"
	"github.com/jwebster45206/cyber-quest/pkg/story"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Cyber Quest API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"stages", []int{cfg.MinStages, cfg.MaxStages},
		"opponents", cfg.Opponents)

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Error("Failed to load catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}
	log.Info("Catalog loaded", "scenarios", len(cat.Scenarios), "events", len(cat.Events))

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.SessionTTL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx, 30, 2*time.Second); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	board := ranking.NewBoard(ranking.NewRedisStore(store.Client(), log), log)

	bootSeed := uint64(time.Now().UnixNano())
	var lines dialogue.Provider = dialogue.NewCanned(dice.New(dice.Derive(bootSeed, "dialogue")))
	if cfg.DialoguePath != "" {
		script, err := dialogue.LoadScript(cfg.DialoguePath)
		if err != nil {
			log.Error("Failed to load dialogue script", "path", cfg.DialoguePath, "error", err)
			os.Exit(1)
		}
		lines = dialogue.WithFallback(script, lines, log)
		log.Info("Using dialogue script", "path", cfg.DialoguePath)
	}

	var reporter game.Reporter = board
	if cfg.RankingQueue {
		reporter = queue.NewResultQueue(store.Client(), log)
		log.Info("Finished runs are queued for the ranking worker")
	}

	gen := story.NewGenerator(cat, log, story.Config{MinStages: cfg.MinStages, MaxStages: cfg.MaxStages})
	engine := game.NewEngine(gen, reporter, log,
		game.WithDialogue(lines),
		game.WithOpponents(cfg.Opponents))

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, cat, log))

	broadcaster := events.NewBroadcaster(store.Client(), log)
	sessionHandler := handlers.NewSessionHandler(engine, store, broadcaster, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	mux.Handle("/v1/rankings", handlers.NewRankingHandler(board, cfg.RankingLimit, log))
	mux.Handle("/v1/loadouts/", handlers.NewLoadoutHandler(store, log))
	mux.Handle("/v1/events/sessions/", handlers.NewEventsHandler(broadcaster, log))

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: event streams stay open for the whole session.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}
