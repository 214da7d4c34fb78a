package postgres

import (
	"context"
	"errors"

	"github.com/AnubisArt/PVA-Model-Banky/internal/interest"
	"github.com/AnubisArt/PVA-Model-Banky/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccrualRunsRepo keeps the history of interest accrual passes. The daemon
// trigger uses it as its once-per-month marker.
type AccrualRunsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAccrualRunsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AccrualRunsRepo {
	return &AccrualRunsRepo{pool: pool, prom: prom}
}

func (r *AccrualRunsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *AccrualRunsRepo) RecordRun(ctx context.Context, run interest.Run) error {
	return r.observe("accrual_runs.record", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO accrual_runs (id, ran_at, rate_percent, accounts) VALUES ($1, $2, $3, $4)`,
			run.ID, run.RanAt, run.RatePercent, run.Accounts,
		)
		return err
	})
}

func (r *AccrualRunsRepo) LastRun(ctx context.Context) (interest.Run, error) {
	var run interest.Run

	err := r.observe("accrual_runs.last", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, ran_at, rate_percent, accounts FROM accrual_runs ORDER BY ran_at DESC LIMIT 1`,
		).Scan(&run.ID, &run.RanAt, &run.RatePercent, &run.Accounts)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return interest.Run{}, interest.ErrNoRuns
		}
		return interest.Run{}, err
	}
	return run, nil
}
