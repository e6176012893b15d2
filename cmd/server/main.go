package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beatbrawl/beatbrawl-backend/internal/config"
	"github.com/beatbrawl/beatbrawl-backend/internal/httpapi"
	"github.com/beatbrawl/beatbrawl-backend/internal/hub"
	"github.com/beatbrawl/beatbrawl-backend/internal/logging"
)

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := hub.NewHub(ctx, log)
	handler := httpapi.SetupRoutes(h, log, cfg.AllowedOrigins)

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}

	go func() {
		log.Infof("listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	h.Inbox() <- hub.ShutdownHub{}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
