package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/account"
	"github.com/AnubisArt/PVA-Model-Banky/internal/ledger"
)

// AccountsRepo is the in-memory mirror of the postgres account store. One
// mutex serializes everything, so a Transact callback sees and leaves a
// consistent state; failed callbacks roll balances back.
type AccountsRepo struct {
	mu       sync.Mutex
	nextID   map[account.Kind]int64
	accounts map[account.Ref]*account.Account
}

func NewAccountsRepo() *AccountsRepo {
	return &AccountsRepo{
		nextID:   make(map[account.Kind]int64),
		accounts: make(map[account.Ref]*account.Account),
	}
}

func (r *AccountsRepo) Create(_ context.Context, kind account.Kind, ownerID int64, extra account.Extra) (account.Account, error) {
	if _, err := account.ParseKind(string(kind)); err != nil {
		return account.Account{}, err
	}
	if kind == account.Credit && extra.DueDate == nil {
		return account.Account{}, errors.New("credit account requires a due date")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID[kind]++
	a := &account.Account{
		ID:      r.nextID[kind],
		OwnerID: ownerID,
		Kind:    kind,
	}
	if kind == account.Savings {
		a.Student = extra.Student
	}
	if kind == account.Credit {
		a.DueDate = extra.DueDate
	}

	r.accounts[a.Ref()] = a
	return *a, nil
}

func (r *AccountsRepo) GetByOwner(_ context.Context, ownerID int64, kind account.Kind) (account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a := r.ownedLocked(ownerID, kind); a != nil {
		return *a, nil
	}
	return account.Account{}, account.ErrAccountNotFound
}

// ownedLocked returns the owner's account of the kind with the lowest id.
func (r *AccountsRepo) ownedLocked(ownerID int64, kind account.Kind) *account.Account {
	var found *account.Account
	for _, a := range r.accounts {
		if a.OwnerID != ownerID || a.Kind != kind {
			continue
		}
		if found == nil || a.ID < found.ID {
			found = a
		}
	}
	return found
}

func (r *AccountsRepo) Exists(_ context.Context, ref account.Ref) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.accounts[ref]
	return ok, nil
}

func (r *AccountsRepo) Balance(_ context.Context, ref account.Ref) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[ref]
	if !ok {
		return 0, account.ErrAccountNotFound
	}
	return a.Balance, nil
}

func (r *AccountsRepo) SetBalance(_ context.Context, ref account.Ref, balance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[ref]
	if !ok {
		return account.ErrAccountNotFound
	}
	a.Balance = balance
	return nil
}

func (r *AccountsRepo) ListIDs(_ context.Context, ownerID int64) ([]account.Ref, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []account.Ref
	for _, kind := range account.Kinds() {
		if a := r.ownedLocked(ownerID, kind); a != nil {
			out = append(out, a.Ref())
		}
	}
	return out, nil
}

func (r *AccountsRepo) Summary(_ context.Context, ownerID int64) (account.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s account.Summary

	if a := r.ownedLocked(ownerID, account.Checking); a != nil {
		bal := a.Balance
		s.CheckingBalance = &bal
	}
	if a := r.ownedLocked(ownerID, account.Savings); a != nil {
		bal, student := a.Balance, a.Student
		s.SavingsBalance = &bal
		s.Student = &student
	}
	if a := r.ownedLocked(ownerID, account.Credit); a != nil {
		bal := a.Balance
		s.CreditBalance = &bal
		s.DueDate = a.DueDate
	}
	return s, nil
}

func (r *AccountsRepo) AccrueSavings(_ context.Context, ratePercent int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var touched int64
	for _, a := range r.accounts {
		if a.Kind != account.Savings {
			continue
		}
		a.Balance += a.Balance * ratePercent / 100
		touched++
	}
	return touched, nil
}

func (r *AccountsRepo) Transact(ctx context.Context, fn func(ops ledger.TxOps) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// snapshot for rollback
	before := make(map[account.Ref]int64, len(r.accounts))
	for ref, a := range r.accounts {
		before[ref] = a.Balance
	}

	if err := fn(txOps{repo: r}); err != nil {
		for ref, bal := range before {
			if a, ok := r.accounts[ref]; ok {
				a.Balance = bal
			}
		}
		return err
	}
	return nil
}

// txOps runs with the repo mutex already held.
type txOps struct {
	repo *AccountsRepo
}

func (o txOps) Exists(_ context.Context, ref account.Ref) (bool, error) {
	_, ok := o.repo.accounts[ref]
	return ok, nil
}

func (o txOps) BalanceForUpdate(_ context.Context, ref account.Ref) (int64, error) {
	a, ok := o.repo.accounts[ref]
	if !ok {
		return 0, account.ErrAccountNotFound
	}
	return a.Balance, nil
}

func (o txOps) SetBalance(_ context.Context, ref account.Ref, balance int64) error {
	a, ok := o.repo.accounts[ref]
	if !ok {
		return account.ErrAccountNotFound
	}
	a.Balance = balance
	return nil
}
