package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/AnubisArt/PVA-Model-Banky/internal/audit"
	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/account"
	"github.com/AnubisArt/PVA-Model-Banky/internal/ledger"
	"github.com/AnubisArt/PVA-Model-Banky/internal/repo/memory"
)

const maxDebt = 2000

type fixture struct {
	repo   *memory.AccountsRepo
	sink   *audit.MemorySink
	engine *ledger.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := memory.NewAccountsRepo()
	sink := audit.NewMemorySink()

	return &fixture{
		repo:   repo,
		sink:   sink,
		engine: ledger.NewEngine(repo, sink, maxDebt, nil, nil),
	}
}

func (f *fixture) mustAccount(t *testing.T, kind account.Kind, ownerID, balance int64) account.Ref {
	t.Helper()

	extra := account.Extra{}
	if kind == account.Credit {
		due := time.Now().AddDate(1, 0, 0)
		extra.DueDate = &due
	}

	a, err := f.repo.Create(context.Background(), kind, ownerID, extra)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	if balance != 0 {
		if err := f.repo.SetBalance(context.Background(), a.Ref(), balance); err != nil {
			t.Fatalf("set balance: %v", err)
		}
	}

	return a.Ref()
}

func (f *fixture) balance(t *testing.T, ref account.Ref) int64 {
	t.Helper()

	bal, err := f.repo.Balance(context.Background(), ref)
	if err != nil {
		t.Fatalf("balance %v: %v", ref, err)
	}
	return bal
}

func TestTransferMovesFunds(t *testing.T) {
	f := newFixture(t)

	src := f.mustAccount(t, account.Checking, 1, 500)
	dst := f.mustAccount(t, account.Checking, 2, 300)

	res, err := f.engine.Transfer(context.Background(), src, dst, 300)

	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if res.SourceBalance != 200 || res.DestinationBalance != 600 {
		t.Fatalf("got balances %d/%d, want 200/600", res.SourceBalance, res.DestinationBalance)
	}

	if got := f.balance(t, src); got != 200 {
		t.Fatalf("source balance = %d, want 200", got)
	}
	if got := f.balance(t, dst); got != 600 {
		t.Fatalf("destination balance = %d, want 600", got)
	}

	// every attempt leaves exactly one line

	lines := f.sink.Lines()
	if len(lines) != 1 {
		t.Fatalf("got %d audit lines, want 1", len(lines))
	}

	want := fmt.Sprintf("Transakce: %d (checking) -> %d (checking) (300), status: SUCCESS", src.ID, dst.ID)
	if lines[0] != want {
		t.Fatalf("audit line = %q, want %q", lines[0], want)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	f := newFixture(t)

	src := f.mustAccount(t, account.Checking, 1, 500)
	dst := f.mustAccount(t, account.Savings, 2, 300)

	// first transfer drains the source to 200, second must bounce

	if _, err := f.engine.Transfer(context.Background(), src, dst, 300); err != nil {
		t.Fatalf("first transfer failed: %v", err)
	}

	_, err := f.engine.Transfer(context.Background(), src, dst, 300)

	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}

	// failed attempt must not move anything

	if got := f.balance(t, src); got != 200 {
		t.Fatalf("source balance = %d, want 200", got)
	}
	if got := f.balance(t, dst); got != 600 {
		t.Fatalf("destination balance = %d, want 600", got)
	}

	lines := f.sink.Lines()
	if len(lines) != 2 {
		t.Fatalf("got %d audit lines, want 2", len(lines))
	}
	if !strings.HasSuffix(lines[1], "status: FAILED") {
		t.Fatalf("second line = %q, want FAILED suffix", lines[1])
	}
}

func TestTransferCreditFloor(t *testing.T) {
	f := newFixture(t)

	src := f.mustAccount(t, account.Credit, 1, 0)
	dst := f.mustAccount(t, account.Checking, 2, 0)

	// credit accounts may go negative down to -maxDebt

	if _, err := f.engine.Transfer(context.Background(), src, dst, 1500); err != nil {
		t.Fatalf("transfer within limit failed: %v", err)
	}

	if got := f.balance(t, src); got != -1500 {
		t.Fatalf("credit balance = %d, want -1500", got)
	}

	_, err := f.engine.Transfer(context.Background(), src, dst, 600)

	if !errors.Is(err, ledger.ErrCreditLimitExceeded) {
		t.Fatalf("got %v, want ErrCreditLimitExceeded", err)
	}

	if got := f.balance(t, src); got != -1500 {
		t.Fatalf("credit balance after rejection = %d, want -1500", got)
	}
	if got := f.balance(t, dst); got != 1500 {
		t.Fatalf("destination balance = %d, want 1500", got)
	}
}

func TestTransferExactlyAtCreditFloor(t *testing.T) {
	f := newFixture(t)

	src := f.mustAccount(t, account.Credit, 1, 0)
	dst := f.mustAccount(t, account.Checking, 2, 0)

	// landing exactly on -maxDebt is allowed

	if _, err := f.engine.Transfer(context.Background(), src, dst, maxDebt); err != nil {
		t.Fatalf("transfer to the floor failed: %v", err)
	}

	if got := f.balance(t, src); got != -maxDebt {
		t.Fatalf("credit balance = %d, want %d", got, -maxDebt)
	}
}

func TestTransferSelf(t *testing.T) {
	f := newFixture(t)

	src := f.mustAccount(t, account.Checking, 1, 500)

	_, err := f.engine.Transfer(context.Background(), src, src, 100)

	if !errors.Is(err, ledger.ErrSelfTransfer) {
		t.Fatalf("got %v, want ErrSelfTransfer", err)
	}

	if got := f.balance(t, src); got != 500 {
		t.Fatalf("balance changed on self transfer: %d", got)
	}
}

func TestTransferSameIDDifferentKind(t *testing.T) {
	f := newFixture(t)

	// both accounts get id 1 in their own variant; they are distinct
	src := f.mustAccount(t, account.Checking, 1, 500)
	dst := f.mustAccount(t, account.Savings, 2, 0)

	if src.ID != dst.ID {
		t.Fatalf("fixture expects colliding ids, got %d and %d", src.ID, dst.ID)
	}

	if _, err := f.engine.Transfer(context.Background(), src, dst, 200); err != nil {
		t.Fatalf("transfer between same-id accounts failed: %v", err)
	}

	if got := f.balance(t, src); got != 300 {
		t.Fatalf("source balance = %d, want 300", got)
	}
	if got := f.balance(t, dst); got != 200 {
		t.Fatalf("destination balance = %d, want 200", got)
	}
}

func TestTransferUnknownAccounts(t *testing.T) {
	f := newFixture(t)

	known := f.mustAccount(t, account.Checking, 1, 500)
	missing := account.Ref{ID: 99, Kind: account.Savings}

	tests := []struct {
		name    string
		src     account.Ref
		dst     account.Ref
		wantLeg string
	}{
		{name: "missing_source", src: missing, dst: known, wantLeg: ledger.LegSource},
		{name: "missing_destination", src: known, dst: missing, wantLeg: ledger.LegDestination},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.Transfer(context.Background(), tt.src, tt.dst, 100)

			var notFound *ledger.NotFoundError
			if !errors.As(err, &notFound) {
				t.Fatalf("got %v, want NotFoundError", err)
			}
			if notFound.Leg != tt.wantLeg {
				t.Fatalf("got leg %v, want %v", notFound.Leg, tt.wantLeg)
			}
			if !errors.Is(err, account.ErrAccountNotFound) {
				t.Fatalf("NotFoundError must unwrap to ErrAccountNotFound")
			}
		})
	}
}

func TestTransferZeroSum(t *testing.T) {
	f := newFixture(t)

	refs := []account.Ref{
		f.mustAccount(t, account.Checking, 1, 500),
		f.mustAccount(t, account.Savings, 1, 250),
		f.mustAccount(t, account.Checking, 2, 300),
	}

	total := func() int64 {
		var sum int64
		for _, ref := range refs {
			sum += f.balance(t, ref)
		}
		return sum
	}

	before := total()

	moves := []struct {
		src, dst int
		amount   int64
	}{
		{0, 2, 120},
		{2, 1, 45},
		{1, 0, 250},
	}

	for _, m := range moves {
		if _, err := f.engine.Transfer(context.Background(), refs[m.src], refs[m.dst], m.amount); err != nil {
			t.Fatalf("transfer %d -> %d failed: %v", m.src, m.dst, err)
		}
		if got := total(); got != before {
			t.Fatalf("total drifted to %d, want %d", got, before)
		}
	}
}
