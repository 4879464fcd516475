package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"billingx/internal/config"
	"billingx/internal/handlers"
	"billingx/internal/metrics"
	"billingx/internal/repositories"
	"billingx/internal/services"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger

	billingHandler *handlers.BillingHandler
	playHandler    *handlers.PlayDeveloperHandler
	verifyHandler  *handlers.PurchaseVerifyHandler
	purchaseHub    *handlers.PurchaseHub
	metrics        *metrics.Registry

	// queue is nil unless billing.executor is "queued".
	queue *services.QueuedExecutor
}

func initializeApp(cfg config.Config, errorLog *log.Logger, infoLog *log.Logger) (*application, error) {
	logger := logAdapter{info: infoLog, err: errorLog}

	seed, err := repositories.LoadSeed(cfg.Billing.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	}
	store := repositories.NewMemoryStore(seed)

	reg := metrics.New()
	hub := handlers.NewPurchaseHub(logger, reg)

	var (
		executor services.Executor = services.ImmediateExecutor{}
		queue    *services.QueuedExecutor
	)
	if cfg.Billing.Executor == config.ExecutorQueued {
		queue = services.NewQueuedExecutor()
		executor = queue
	}

	client, err := services.NewDebugBillingClient(services.DebugBillingClientDeps{
		Store:       store,
		Listener:    hub.OnPurchasesUpdated,
		Executor:    executor,
		Broadcaster: services.NewInProcessBroadcaster(),
		PackageName: cfg.Billing.PackageName,
		Logger:      logger,
		Recorder:    reg,
	})
	if err != nil {
		return nil, fmt.Errorf("billing client: %w", err)
	}

	playService, err := services.NewPlayDeveloperService(store, time.Now)
	if err != nil {
		return nil, fmt.Errorf("play developer service: %w", err)
	}

	// The verifier talks HTTP to the Play Developer routes below, so receipts
	// take the same path a real backend would.
	verifier, err := services.NewPlayVerifier(context.Background(), services.PlayVerifierConfig{
		PackageName: cfg.Billing.PackageName,
		Endpoint:    cfg.PlayEndpointURL(),
	})
	if err != nil {
		return nil, fmt.Errorf("play verifier: %w", err)
	}

	return &application{
		errorLog:       errorLog,
		infoLog:        infoLog,
		billingHandler: handlers.NewBillingHandler(client, 5*time.Second),
		playHandler:    handlers.NewPlayDeveloperHandler(playService),
		verifyHandler:  handlers.NewPurchaseVerifyHandler(verifier, logger),
		purchaseHub:    hub,
		metrics:        reg,
		queue:          queue,
	}, nil
}
