package interest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AnubisArt/PVA-Model-Banky/internal/audit"
	"github.com/AnubisArt/PVA-Model-Banky/internal/observability"
	"github.com/google/uuid"
)

var ErrNoRuns = errors.New("no accrual runs recorded")

// SavingsAccruer applies the percentage increment to every savings balance
// as one atomic pass and reports how many accounts it touched.
type SavingsAccruer interface {
	AccrueSavings(ctx context.Context, ratePercent int64) (int64, error)
}

// RunRecorder persists accrual run history. LastRun returns ErrNoRuns when
// the history is empty.
type RunRecorder interface {
	RecordRun(ctx context.Context, run Run) error
	LastRun(ctx context.Context) (Run, error)
}

type Run struct {
	ID          string    `json:"id"`
	RanAt       time.Time `json:"ranAt"`
	RatePercent int64     `json:"ratePercent"`
	Accounts    int64     `json:"accounts"`
}

// Job applies monthly interest to savings accounts.
type Job struct {
	store SavingsAccruer
	runs  RunRecorder
	sink  audit.Sink
	rate  int64
	log   *slog.Logger
	prom  *observability.Prom
}

func NewJob(store SavingsAccruer, runs RunRecorder, sink audit.Sink, ratePercent int64, log *slog.Logger, prom *observability.Prom) *Job {
	return &Job{
		store: store,
		runs:  runs,
		sink:  sink,
		rate:  ratePercent,
		log:   log,
		prom:  prom,
	}
}

// Run performs one accrual pass. Each savings balance B becomes
// B + floor(B*rate/100); a zero balance stays zero.
func (j *Job) Run(ctx context.Context) (Run, error) {
	start := time.Now().UTC()

	n, err := j.store.AccrueSavings(ctx, j.rate)
	if err != nil {
		if j.prom != nil {
			j.prom.AccrualRuns.WithLabelValues("error").Inc()
		}
		return Run{}, err
	}

	run := Run{
		ID:          uuid.NewString(),
		RanAt:       start,
		RatePercent: j.rate,
		Accounts:    n,
	}

	if j.runs != nil {
		if err := j.runs.RecordRun(ctx, run); err != nil {
			j.log.Error("accrual run not recorded", "err", err)
		}
	}

	if j.sink != nil {
		line := fmt.Sprintf("Urok: %d%% applied to %d savings accounts", j.rate, n)
		if err := j.sink.Record(ctx, line); err != nil {
			j.log.Error("audit record failed", "err", err)
		}
	}

	if j.prom != nil {
		j.prom.AccrualRuns.WithLabelValues("ok").Inc()
		j.prom.AccrualDuration.Observe(time.Since(start).Seconds())
	}

	j.log.Info("interest accrued", "rate_percent", j.rate, "accounts", n)
	return run, nil
}

// MaybeRun fires only on the first day of the month. It is called on every
// login, with no idempotent suppression within the day; repeated interactions
// on the 1st re-apply interest, matching the behavior this system inherited.
func (j *Job) MaybeRun(ctx context.Context, now time.Time) (bool, error) {
	if now.Day() != 1 {
		return false, nil
	}

	_, err := j.Run(ctx)
	if err != nil {
		return false, err
	}
	return true, nil
}

// RunOncePerMonth consults the persisted run history and accrues only when
// no run exists for the current calendar month. This is the daemon-side
// policy; see Scheduler.
func (j *Job) RunOncePerMonth(ctx context.Context, now time.Time) (bool, error) {
	if now.Day() != 1 {
		return false, nil
	}

	if j.runs != nil {
		last, err := j.runs.LastRun(ctx)
		switch {
		case errors.Is(err, ErrNoRuns):
			// first ever run
		case err != nil:
			return false, err
		case sameMonth(last.RanAt, now):
			return false, nil
		}
	}

	_, err := j.Run(ctx)
	if err != nil {
		return false, err
	}
	return true, nil
}

func sameMonth(a, b time.Time) bool {
	au, bu := a.UTC(), b.UTC()
	return au.Year() == bu.Year() && au.Month() == bu.Month()
}
