package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/cyber-quest/internal/config"
	"github.com/jwebster45206/cyber-quest/internal/logger"
	"github.com/jwebster45206/cyber-quest/internal/queue"
	"github.com/jwebster45206/cyber-quest/internal/storage"
	"github.com/jwebster45206/cyber-quest/internal/worker"
	"github.com/jwebster45206/cyber-quest/pkg/ranking"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Cyber Quest ranking worker",
		"environment", cfg.Environment,
		"redis_url", cfg.RedisURL)

	store := storage.NewRedisStorage(cfg.RedisURL, cfg.SessionTTL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx, 30, 2*time.Second); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close Redis client", "error", err)
		}
	}()
	log.Info("Redis connection established successfully")

	board := ranking.NewBoard(ranking.NewRedisStore(store.Client(), log), log)
	results := queue.NewResultQueue(store.Client(), log)

	w := worker.New(results, board, log, cfg.WorkerID)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Start(); err != nil {
			log.Error("Worker error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("Worker started, waiting for results...")

	<-quit
	log.Info("Worker shutdown signal received")

	w.Stop()

	// Let the current result finish.
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Warn("Worker did not stop in time")
	}

	log.Info("Worker exited")
}
