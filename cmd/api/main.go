package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ayushrkl/ratehub/internal/config"
	"github.com/ayushrkl/ratehub/internal/db"
	httpx "github.com/ayushrkl/ratehub/internal/http"
	"github.com/ayushrkl/ratehub/internal/observability"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	// tracing (no-op when no OTLP endpoint is configured)
	tctx, tcancel := config.WithTimeout(5 * time.Second)
	shutdownTracer, err := observability.InitTracer(tctx, "ratehub", cfg.OTLPEndpoint)
	tcancel()

	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	// database pool, schema and seeded admin
	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	bctx, bcancel := config.WithTimeout(10 * time.Second)

	if err := db.EnsureSchema(bctx, pool); err != nil {
		bcancel()
		log.Error("schema bootstrap failed", "err", err)
		os.Exit(1)
	}

	if err := db.EnsureAdminUser(bctx, pool, cfg); err != nil {
		bcancel()
		log.Error("admin seeding failed", "err", err)
		os.Exit(1)
	}
	bcancel()

	// set up routers with the log
	router := httpx.NewRouter(log, pool, cfg)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
