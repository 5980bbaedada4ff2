// Command server runs the circulation HTTP API.
//
// With DATABASE_URL set it runs against PostgreSQL, ensuring the schema on
// startup. Without it, the server falls back to the in-memory engine, which
// is handy for local development and demos.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"library-circulation/internal/circulation"
	"library-circulation/internal/config"
	"library-circulation/internal/fines"
	"library-circulation/internal/httpapi"
	"library-circulation/internal/inventory"
	"library-circulation/internal/notify"
	"library-circulation/internal/store"
	"library-circulation/internal/store/memory"
	"library-circulation/internal/store/postgres"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine, cleanup, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ledger := inventory.NewLedger(inventory.WithLogger(logger))
	dispatcher := notify.NewDispatcher(engine, notify.WithLogger(logger))
	fineEngine := fines.NewEngine(engine, dispatcher, fines.WithLogger(logger))
	service := circulation.NewService(engine, ledger, dispatcher, circulation.WithLogger(logger))

	router := httpapi.NewRouter(httpapi.Deps{
		Circulation: service,
		Fines:       fineEngine,
		Notify:      dispatcher,
		Store:       engine,
		Logger:      logger,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.ListenAndServe()
	}()

	logger.Info("server listening", "addr", cfg.ListenAddr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("shutting down server: %w", shutdownErr)
		}

		return nil

	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}

		return nil
	}
}

// engineStore is what both storage engines provide to the wiring above.
type engineStore interface {
	store.Store
	store.UnitOfWork
}

func buildEngine(ctx context.Context, cfg config.Config, logger store.Logger) (engineStore, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory storage")

		return memory.NewStore(memory.WithLogger(logger)), func() {}, nil
	}

	poolConfig, err := config.PostgresPGXPoolConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	engine, err := postgres.NewEngineFromPGXPool(pool, postgres.WithLogger(logger))
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	if err := engine.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ensuring schema: %w", err)
	}

	return engine, pool.Close, nil
}
