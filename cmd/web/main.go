package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/h2h-playoffs/internal/archive"
	"github.com/AdamBeresnev/h2h-playoffs/internal/config"
	"github.com/AdamBeresnev/h2h-playoffs/internal/db"
	"github.com/AdamBeresnev/h2h-playoffs/internal/live"
	"github.com/AdamBeresnev/h2h-playoffs/internal/scoring"
	"github.com/AdamBeresnev/h2h-playoffs/internal/service"
	"github.com/AdamBeresnev/h2h-playoffs/internal/store"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.StandardLogger()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	logger.SetLevel(cfg.LogLevel)

	database, err := db.InitDB(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsURL); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	challenge, err := scoring.LoadChallenge(cfg.ChallengeFile)
	if err != nil {
		logger.WithError(err).WithField("file", cfg.ChallengeFile).Fatal("Failed to load challenge")
	}
	logger.WithFields(logrus.Fields{
		"challenge":   challenge.Title,
		"tiebreakers": len(challenge.Tiebreakers),
	}).Info("Challenge loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := live.NewHub(logger)
	go hub.Run(ctx)

	var archiver service.Archiver
	if cfg.Archive.Enabled() {
		a, err := archive.New(ctx, cfg.Archive, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize bracket archive")
		}
		archiver = a
		logger.WithField("bucket", cfg.Archive.Bucket).Info("Bracket archive enabled")
	}

	playoffs := service.NewPlayoffService(database, store.NewPlayoffStore(database), store.NewScoreStore(database),
		challenge, hub, archiver, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      newRouter(playoffs, hub),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.WithField("address", server.Addr).Info("Server starting")
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Graceful shutdown failed")
			server.Close()
		}
	}
	logger.Info("Server stopped")
}
