package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"ledger-service/internal/api"
	"ledger-service/internal/config"
	"ledger-service/internal/database"
	"ledger-service/internal/events"
	"ledger-service/internal/ledger"
	"ledger-service/internal/logger"
	"ledger-service/internal/repository"
)

func main() {
	log := logger.New()
	cfg := config.Load()

	// Initialize database
	db, err := database.New(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	sqlDB, _ := db.DB.DB()
	defer sqlDB.Close()

	if err := database.Seed(db.DB, log); err != nil {
		log.WithError(err).Fatal("failed to seed database")
	}

	// Initialize repositories
	assetRepo := repository.NewAssetRepository(db.DB, log)
	walletRepo := repository.NewWalletRepository(db.DB, log)
	entryRepo := repository.NewEntryRepository(db.DB, log)
	txnRepo := repository.NewTransactionRepository(db.DB, log)

	// Initialize the transfer engine
	coordinator := ledger.NewTransactionCoordinator(
		db.DB,
		assetRepo,
		walletRepo,
		entryRepo,
		txnRepo,
		ledger.RowLocker{},
		cfg.Engine.TransferTimeout,
		log,
	)
	queries := ledger.NewQueryService(assetRepo, walletRepo, entryRepo, log)

	// Optional transaction event publisher
	if cfg.RabbitMQ.Enabled() {
		publisher, err := events.New(cfg.RabbitMQ, log)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize event publisher")
		}
		defer publisher.Close()
		coordinator.WithEvents(publisher)
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.New(coordinator, queries, log).Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("server listening")
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped unexpectedly")
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("graceful shutdown failed")
		}
	}

	log.Info("graceful shutdown complete")
}
