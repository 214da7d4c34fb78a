package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AnubisArt/PVA-Model-Banky/internal/audit"
	"github.com/AnubisArt/PVA-Model-Banky/internal/config"
	"github.com/AnubisArt/PVA-Model-Banky/internal/db"
	"github.com/AnubisArt/PVA-Model-Banky/internal/interest"
	"github.com/AnubisArt/PVA-Model-Banky/internal/observability"
	"github.com/AnubisArt/PVA-Model-Banky/internal/repo/postgres"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

// The accrual daemon. Deployments that prefer interest to be settled by a
// background process instead of login traffic run this next to the API
// with ACCRUAL_ON_LOGIN=false.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	sink, err := newSink(cfg)

	if err != nil {
		log.Error("audit sink init failed", "backend", cfg.AuditBackend, "err", err)
		os.Exit(1)
	}

	prom := observability.NewProm(prometheus.NewRegistry())

	accountsRepo := postgres.NewAccountsRepo(pool, prom)
	runsRepo := postgres.NewAccrualRunsRepo(pool, prom)

	job := interest.NewJob(accountsRepo, runsRepo, sink, cfg.InterestRatePercent, log, prom)

	s := interest.NewScheduler(interest.SchedulerConfig{
		PollInterval: time.Hour,
	}, job, log)

	log.Info("accrual worker started", "ratePercent", cfg.InterestRatePercent)

	if err := s.Run(ctx); err != nil {
		log.Error("accrual worker stopped with error", "err", err)
	}

	log.Info("accrual worker shutdown complete")
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
