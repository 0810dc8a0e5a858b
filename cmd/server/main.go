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

	"go.uber.org/zap"

	"github.com/drawspace/sync-server/internal/api"
	"github.com/drawspace/sync-server/internal/board"
	"github.com/drawspace/sync-server/internal/config"
	"github.com/drawspace/sync-server/internal/retention"
	"github.com/drawspace/sync-server/internal/store"
	"github.com/drawspace/sync-server/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	var (
		st  *store.Store
		rec board.Recorder
	)
	if cfg.Store.Path != "" {
		st, err = store.Open(cfg.Store.Path, logger)
		if err != nil {
			logger.Fatal("open usage ledger", zap.Error(err))
		}
		defer st.Close()
		rec = st
	}

	engine := board.NewEngine(board.Config{
		MaxStrokesPerCanvas: cfg.Retention.MaxStrokesPerCanvas,
	}, rec)

	hub := ws.NewHub(engine, logger)
	go hub.Run()

	sweeper := retention.New(engine, retention.Config{
		Interval:            cfg.RetentionInterval(),
		MaxStrokesPerCanvas: cfg.Retention.MaxStrokesPerCanvas,
	}, logger)
	sweeper.Start()

	addr := cfg.HTTP.Addr
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: api.New(hub, engine, st, logger).Router(),
		// No read/write timeouts: they would kill long-lived websockets.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", addr),
			zap.String("ws", "/ws?room={roomId}"))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Fatal("server failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}

	sweeper.Stop()
	logger.Info("stopped")
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if cfg.Logging.Env == "prod" {
		zc = zap.NewProductionConfig()
	}
	if cfg.Logging.Debug {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zc.Build()
}
