package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/commitpool/commitpool/application/port/outbound"
	"github.com/commitpool/commitpool/application/usecase"
	"github.com/commitpool/commitpool/infrastructure/adapter/memory"
	"github.com/commitpool/commitpool/infrastructure/adapter/postgres"
	"github.com/commitpool/commitpool/infrastructure/config"
	"github.com/commitpool/commitpool/infrastructure/events"
	"github.com/commitpool/commitpool/infrastructure/http/handler"
	"github.com/commitpool/commitpool/infrastructure/http/middleware"
	"github.com/commitpool/commitpool/infrastructure/http/response"
	"github.com/commitpool/commitpool/infrastructure/service/logger"
	"github.com/commitpool/commitpool/infrastructure/service/oracle"
	"github.com/commitpool/commitpool/infrastructure/service/token"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	structuredLogger := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "commitpool-ledger",
	})
	structuredLogger.Info(ctx, "application starting", map[string]interface{}{
		"env":           cfg.Environment,
		"store":         cfg.StoreBackend,
		"token_bridge":  cfg.TokenBridgeMode,
		"oracle":        cfg.OracleMode,
		"events":        cfg.EventsBackend,
		"duration_days": cfg.CommitmentDurationDays,
	})

	store, closeStore, err := buildStore(ctx, cfg, structuredLogger)
	if err != nil {
		structuredLogger.Error(ctx, "failed to initialize store", err, nil)
		os.Exit(1)
	}
	defer closeStore()

	tokenClient := buildTokenClient(cfg, structuredLogger)
	oracleClient := buildOracle(cfg, structuredLogger)

	publisher, closePublisher, err := buildPublisher(ctx, cfg, structuredLogger)
	if err != nil {
		structuredLogger.Error(ctx, "failed to initialize event publisher", err, nil)
		os.Exit(1)
	}
	defer closePublisher()

	seeds := make([]usecase.ActivitySeed, 0, len(cfg.Activities))
	for _, spec := range cfg.Activities {
		seeds = append(seeds, usecase.ActivitySeed{
			Name:           spec.Name,
			Measures:       spec.Measures,
			GoalLowerBound: spec.GoalLowerBound,
			GoalUpperBound: spec.GoalUpperBound,
			OracleRef:      cfg.OracleRef,
		})
	}
	created, err := usecase.SeedActivities(ctx, store, seeds)
	if err != nil {
		structuredLogger.Error(ctx, "failed to seed activities", err, nil)
		os.Exit(1)
	}
	structuredLogger.Info(ctx, "activity registry ready", map[string]interface{}{
		"seeded": created,
		"total":  len(seeds),
	})

	duration := time.Duration(cfg.CommitmentDurationDays) * 24 * time.Hour
	ledgerUC := usecase.NewLedgerUseCase(store, tokenClient, publisher, cfg.LedgerAccount)
	commitmentUC := usecase.NewCommitmentUseCase(store, tokenClient, oracleClient, publisher, cfg.LedgerAccount, duration)
	registryUC := usecase.NewRegistryUseCase(store)
	adminUC := usecase.NewAdminUseCase(store, tokenClient, publisher, cfg.AdminAddress, cfg.LedgerAccount)

	auth := middleware.NewAuthMiddleware(cfg.JWTSecret)
	router := mux.NewRouter()
	router.Use(middleware.CorrelationID)

	ledgerHandler := handler.NewLedgerHandler(ledgerUC, structuredLogger)
	commitmentHandler := handler.NewCommitmentHandler(commitmentUC, structuredLogger)
	activityHandler := handler.NewActivityHandler(registryUC)
	adminHandler := handler.NewAdminHandler(adminUC, ledgerUC, commitmentHandler, structuredLogger)

	ledgerHandler.RegisterRoutes(router, auth)
	commitmentHandler.RegisterRoutes(router, auth)
	activityHandler.RegisterRoutes(router)
	adminHandler.RegisterRoutes(router, auth)

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, "ok", map[string]string{"service": "commitpool-ledger"})
	}).Methods("GET")

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		structuredLogger.Info(ctx, "http server listening", map[string]interface{}{"addr": cfg.Addr()})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			structuredLogger.Error(ctx, "http server failed", err, nil)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	structuredLogger.Info(ctx, "shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "shutdown failed", err, nil)
	}
}

func buildStore(ctx context.Context, cfg *config.Config, log logger.Logger) (outbound.Store, func(), error) {
	if cfg.StoreBackend == "memory" {
		return memory.NewStore(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info(ctx, "database connection established", nil)

	return postgres.NewStore(db), func() { db.Close() }, nil
}

func buildTokenClient(cfg *config.Config, log logger.Logger) outbound.TokenClient {
	if cfg.TokenBridgeMode == "mock" {
		return token.NewMockClient()
	}
	return token.NewHTTPClient(cfg.TokenBridgeURL, cfg.TokenBridgeTimeout, log)
}

func buildOracle(cfg *config.Config, log logger.Logger) outbound.Oracle {
	if cfg.OracleMode == "static" {
		return oracle.NewStaticOracle(outbound.OracleNotMet)
	}
	return oracle.NewHTTPOracle(cfg.OracleURL, cfg.OracleTimeout, log)
}

func buildPublisher(ctx context.Context, cfg *config.Config, log logger.Logger) (outbound.EventPublisher, func(), error) {
	if cfg.EventsBackend == "redis" {
		publisher, err := events.NewRedisPublisher(ctx, cfg.RedisURL, cfg.EventsChannel, log)
		if err != nil {
			return nil, nil, err
		}
		return publisher, func() { publisher.Close() }, nil
	}
	return events.NewLogPublisher(log), func() {}, nil
}
