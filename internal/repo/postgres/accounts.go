package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/account"
	"github.com/AnubisArt/PVA-Model-Banky/internal/ledger"
	"github.com/AnubisArt/PVA-Model-Banky/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountsRepo owns the three per-variant tables. Every operation is
// (id, kind) qualified; ids repeat across variants.
type AccountsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAccountsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AccountsRepo {
	return &AccountsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *AccountsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func tableFor(kind account.Kind) (string, error) {
	switch kind {
	case account.Checking:
		return "bezny_ucet", nil
	case account.Savings:
		return "sporici_ucet", nil
	case account.Credit:
		return "kreditni_ucet", nil
	}
	return "", account.ErrInvalidKind
}

// Create inserts a zero-balance account of the given variant. extra carries
// the student flag (savings) or the repayment due date (credit).
func (r *AccountsRepo) Create(ctx context.Context, kind account.Kind, ownerID int64, extra account.Extra) (account.Account, error) {
	a := account.Account{OwnerID: ownerID, Kind: kind}

	var err error

	switch kind {
	case account.Checking:
		err = r.observe("accounts.create", func() error {
			return r.pool.QueryRow(ctx,
				`INSERT INTO bezny_ucet (user_id, zustatek) VALUES ($1, 0) RETURNING acc_id`,
				ownerID,
			).Scan(&a.ID)
		})

	case account.Savings:
		a.Student = extra.Student
		err = r.observe("accounts.create", func() error {
			return r.pool.QueryRow(ctx,
				`INSERT INTO sporici_ucet (user_id, zustatek, studentsky) VALUES ($1, 0, $2) RETURNING acc_id`,
				ownerID, extra.Student,
			).Scan(&a.ID)
		})

	case account.Credit:
		if extra.DueDate == nil {
			return account.Account{}, errors.New("credit account requires a due date")
		}
		a.DueDate = extra.DueDate
		err = r.observe("accounts.create", func() error {
			return r.pool.QueryRow(ctx,
				`INSERT INTO kreditni_ucet (user_id, zustatek, termin_splatnosti) VALUES ($1, 0, $2) RETURNING acc_id`,
				ownerID, *extra.DueDate,
			).Scan(&a.ID)
		})

	default:
		return account.Account{}, account.ErrInvalidKind
	}

	if err != nil {
		return account.Account{}, err
	}
	return a, nil
}

// GetByOwner returns the owner's account of the given variant; an owner has
// at most one per variant.
func (r *AccountsRepo) GetByOwner(ctx context.Context, ownerID int64, kind account.Kind) (account.Account, error) {
	a := account.Account{OwnerID: ownerID, Kind: kind}

	var err error

	switch kind {
	case account.Checking:
		err = r.observe("accounts.get_by_owner", func() error {
			return r.pool.QueryRow(ctx,
				`SELECT acc_id, zustatek FROM bezny_ucet WHERE user_id = $1 ORDER BY acc_id LIMIT 1`,
				ownerID,
			).Scan(&a.ID, &a.Balance)
		})

	case account.Savings:
		err = r.observe("accounts.get_by_owner", func() error {
			return r.pool.QueryRow(ctx,
				`SELECT acc_id, zustatek, studentsky FROM sporici_ucet WHERE user_id = $1 ORDER BY acc_id LIMIT 1`,
				ownerID,
			).Scan(&a.ID, &a.Balance, &a.Student)
		})

	case account.Credit:
		err = r.observe("accounts.get_by_owner", func() error {
			return r.pool.QueryRow(ctx,
				`SELECT acc_id, zustatek, termin_splatnosti FROM kreditni_ucet WHERE user_id = $1 ORDER BY acc_id LIMIT 1`,
				ownerID,
			).Scan(&a.ID, &a.Balance, &a.DueDate)
		})

	default:
		return account.Account{}, account.ErrInvalidKind
	}

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrAccountNotFound
		}
		return account.Account{}, err
	}
	return a, nil
}

func (r *AccountsRepo) Exists(ctx context.Context, ref account.Ref) (bool, error) {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return false, err
	}

	var exists bool

	err = r.observe("accounts.exists", func() error {
		return r.pool.QueryRow(ctx,
			fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE acc_id = $1)`, table),
			ref.ID,
		).Scan(&exists)
	})

	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *AccountsRepo) Balance(ctx context.Context, ref account.Ref) (int64, error) {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return 0, err
	}

	var balance int64

	err = r.observe("accounts.balance", func() error {
		return r.pool.QueryRow(ctx,
			fmt.Sprintf(`SELECT zustatek FROM %s WHERE acc_id = $1`, table),
			ref.ID,
		).Scan(&balance)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, account.ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

// SetBalance writes unconditionally; invariant checks are the caller's job.
func (r *AccountsRepo) SetBalance(ctx context.Context, ref account.Ref, balance int64) error {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}

	return r.observe("accounts.set_balance", func() error {
		tag, err := r.pool.Exec(ctx,
			fmt.Sprintf(`UPDATE %s SET zustatek = $1 WHERE acc_id = $2`, table),
			balance, ref.ID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return account.ErrAccountNotFound
		}
		return nil
	})
}

// ListIDs returns the owner's account refs in checking, savings, credit
// order; absent variants are omitted.
func (r *AccountsRepo) ListIDs(ctx context.Context, ownerID int64) ([]account.Ref, error) {
	var out []account.Ref

	for _, kind := range account.Kinds() {
		a, err := r.GetByOwner(ctx, ownerID, kind)
		if errors.Is(err, account.ErrAccountNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, a.Ref())
	}
	return out, nil
}

// Summary returns the positional five-slot balances shape, nil slots for
// absent variants.
func (r *AccountsRepo) Summary(ctx context.Context, ownerID int64) (account.Summary, error) {
	var s account.Summary

	checking, err := r.GetByOwner(ctx, ownerID, account.Checking)
	switch {
	case err == nil:
		s.CheckingBalance = &checking.Balance
	case !errors.Is(err, account.ErrAccountNotFound):
		return account.Summary{}, err
	}

	savings, err := r.GetByOwner(ctx, ownerID, account.Savings)
	switch {
	case err == nil:
		s.SavingsBalance = &savings.Balance
		s.Student = &savings.Student
	case !errors.Is(err, account.ErrAccountNotFound):
		return account.Summary{}, err
	}

	credit, err := r.GetByOwner(ctx, ownerID, account.Credit)
	switch {
	case err == nil:
		s.CreditBalance = &credit.Balance
		s.DueDate = credit.DueDate
	case !errors.Is(err, account.ErrAccountNotFound):
		return account.Summary{}, err
	}

	return s, nil
}

// AccrueSavings applies the rate to every savings balance in one statement;
// integer division floors, matching minor-unit semantics.
func (r *AccountsRepo) AccrueSavings(ctx context.Context, ratePercent int64) (int64, error) {
	var touched int64

	err := r.observe("accounts.accrue_savings", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE sporici_ucet SET zustatek = zustatek + zustatek * $1 / 100`,
			ratePercent,
		)
		if err != nil {
			return err
		}
		touched = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return 0, err
	}
	return touched, nil
}

// Transact runs fn inside one transaction; row locks taken via
// BalanceForUpdate hold until commit or rollback.
func (r *AccountsRepo) Transact(ctx context.Context, fn func(ops ledger.TxOps) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(accountTxOps{tx: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

type accountTxOps struct {
	tx pgx.Tx
}

func (o accountTxOps) Exists(ctx context.Context, ref account.Ref) (bool, error) {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return false, err
	}

	var exists bool

	err = o.tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE acc_id = $1)`, table),
		ref.ID,
	).Scan(&exists)

	if err != nil {
		return false, err
	}
	return exists, nil
}

func (o accountTxOps) BalanceForUpdate(ctx context.Context, ref account.Ref) (int64, error) {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return 0, err
	}

	var balance int64

	err = o.tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT zustatek FROM %s WHERE acc_id = $1 FOR UPDATE`, table),
		ref.ID,
	).Scan(&balance)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, account.ErrAccountNotFound
		}
		return 0, err
	}
	return balance, nil
}

func (o accountTxOps) SetBalance(ctx context.Context, ref account.Ref, balance int64) error {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return err
	}

	tag, err := o.tx.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET zustatek = $1 WHERE acc_id = $2`, table),
		balance, ref.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}
