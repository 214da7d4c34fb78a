package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AnubisArt/PVA-Model-Banky/internal/audit"
	"github.com/AnubisArt/PVA-Model-Banky/internal/config"
	"github.com/AnubisArt/PVA-Model-Banky/internal/db"
	httpx "github.com/AnubisArt/PVA-Model-Banky/internal/http"
	"github.com/AnubisArt/PVA-Model-Banky/internal/observability"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	// tracing is opt-in via OTEL_EXPORTER_OTLP_ENDPOINT

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(context.Background(), "banka-api", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(ctx)
		}()
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	// bootstrap: schema first, then the seed admin

	startCtx, cancel := config.WithTimeout(10 * time.Second)

	if err := db.EnsureSchema(startCtx, pool); err != nil {
		cancel()
		log.Error("schema bootstrap failed", "err", err)
		os.Exit(1)
	}

	if err := db.EnsureAdminUser(startCtx, pool, cfg); err != nil {
		cancel()
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}
	cancel()

	sink, err := newSink(cfg)

	if err != nil {
		log.Error("audit sink init failed", "backend", cfg.AuditBackend, "err", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(registry)

	router := httpx.NewRouter(cfg, log, pool, sink, prom, registry)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "auditBackend", cfg.AuditBackend)
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

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)
			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func newSink(cfg config.Config) (audit.Sink, error) {
	if cfg.AuditBackend == "redis" {
		return audit.NewRedisSink(audit.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	return audit.NewFileSink(cfg.AuditFile)
}
