package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/triples-server/internal/config"
	"github.com/DoyleJ11/triples-server/internal/httpapi"
	"github.com/DoyleJ11/triples-server/internal/hub"
	"github.com/DoyleJ11/triples-server/internal/logging"
	"github.com/DoyleJ11/triples-server/internal/room"
	"github.com/DoyleJ11/triples-server/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("graceful shutdown complete")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	h := hub.NewHub(context.Background(), room.Config{
		PresentationDelay: cfg.PresentationDelay,
		InboxSize:         cfg.InboxSize,
	}, logger)

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(h, ws.Options{
		OutboxSize:     cfg.OutboxSize,
		WriteTimeout:   cfg.WriteTimeout,
		OriginPatterns: cfg.AllowedOrigins,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		// closing rooms closes every client outbox, which ends the hijacked
		// websocket handlers
		h.Shutdown()

		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
