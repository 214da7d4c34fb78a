package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/AnubisArt/PVA-Model-Banky/internal/audit"
	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/account"
	"github.com/AnubisArt/PVA-Model-Banky/internal/observability"
)

// TxOps is the slice of the account store visible inside one transaction.
// BalanceForUpdate must lock the row until the surrounding transaction ends.
type TxOps interface {
	Exists(ctx context.Context, ref account.Ref) (bool, error)
	BalanceForUpdate(ctx context.Context, ref account.Ref) (int64, error)
	SetBalance(ctx context.Context, ref account.Ref, balance int64) error
}

// Store runs fn inside a single transaction: commit when fn returns nil,
// roll back otherwise.
type Store interface {
	Transact(ctx context.Context, fn func(ops TxOps) error) error
}

// Result reports a committed transfer.
type Result struct {
	Source             account.Ref `json:"source"`
	Destination        account.Ref `json:"destination"`
	Amount             int64       `json:"amount"`
	SourceBalance      int64       `json:"sourceBalance"`
	DestinationBalance int64       `json:"destinationBalance"`
}

// Engine validates and applies balance transfers. The whole
// read-validate-write sequence runs inside one store transaction with both
// balance rows locked, so a concurrent transfer cannot act on stale reads.
type Engine struct {
	store   Store
	sink    audit.Sink
	maxDebt int64
	log     *slog.Logger
	prom    *observability.Prom
}

func NewEngine(store Store, sink audit.Sink, maxDebt int64, log *slog.Logger, prom *observability.Prom) *Engine {
	return &Engine{
		store:   store,
		sink:    sink,
		maxDebt: maxDebt,
		log:     log,
		prom:    prom,
	}
}

// Transfer moves amount from src to dst. amount must already be validated
// positive by the caller. Every attempt leaves one audit line; validation
// failures are reported through the sentinel errors in errors.go.
func (e *Engine) Transfer(ctx context.Context, src, dst account.Ref, amount int64) (Result, error) {
	var res Result

	err := e.store.Transact(ctx, func(ops TxOps) error {
		ok, err := ops.Exists(ctx, src)
		if err != nil {
			return err
		}
		if !ok {
			return &NotFoundError{Leg: LegSource, Ref: src}
		}

		ok, err = ops.Exists(ctx, dst)
		if err != nil {
			return err
		}
		if !ok {
			return &NotFoundError{Leg: LegDestination, Ref: dst}
		}

		if src == dst {
			return ErrSelfTransfer
		}

		srcBal, dstBal, err := lockBalances(ctx, ops, src, dst)
		if err != nil {
			return err
		}

		if src.Kind != account.Credit && srcBal-amount < 0 {
			return ErrInsufficientFunds
		}
		if src.Kind == account.Credit && srcBal-amount < -e.maxDebt {
			return ErrCreditLimitExceeded
		}

		if err := ops.SetBalance(ctx, src, srcBal-amount); err != nil {
			return err
		}
		if err := ops.SetBalance(ctx, dst, dstBal+amount); err != nil {
			return err
		}

		res = Result{
			Source:             src,
			Destination:        dst,
			Amount:             amount,
			SourceBalance:      srcBal - amount,
			DestinationBalance: dstBal + amount,
		}
		return nil
	})

	status := audit.StatusSuccess
	outcome := "success"
	if err != nil {
		status = audit.StatusFailed
		outcome = classify(err)
	}

	e.record(ctx, audit.TransferLine(src, dst, amount, status))

	if e.prom != nil {
		e.prom.TransferResults.WithLabelValues(outcome).Inc()
	}

	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// Both rows are locked in a fixed (kind, id) order regardless of transfer
// direction, so two opposing transfers cannot deadlock on each other.
func lockBalances(ctx context.Context, ops TxOps, src, dst account.Ref) (srcBal, dstBal int64, err error) {
	first, second := src, dst
	if refLess(dst, src) {
		first, second = dst, src
	}

	firstBal, err := ops.BalanceForUpdate(ctx, first)
	if err != nil {
		return 0, 0, err
	}
	secondBal, err := ops.BalanceForUpdate(ctx, second)
	if err != nil {
		return 0, 0, err
	}

	if first == src {
		return firstBal, secondBal, nil
	}
	return secondBal, firstBal, nil
}

func refLess(a, b account.Ref) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}

func (e *Engine) record(ctx context.Context, line string) {
	if err := e.sink.Record(ctx, line); err != nil && e.log != nil {
		e.log.Error("audit record failed", "err", err, "line", line)
	}
}

func classify(err error) string {
	switch {
	case errors.Is(err, account.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrSelfTransfer):
		return "self_transfer"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrCreditLimitExceeded):
		return "credit_limit_exceeded"
	default:
		return "error"
	}
}
