package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/AnubisArt/PVA-Model-Banky/internal/audit"
	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/account"
	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/user"
	"github.com/AnubisArt/PVA-Model-Banky/internal/http/handlers"
)

type fakeRefLister struct {
	refs map[int64][]account.Ref
}

func (f *fakeRefLister) ListIDs(_ context.Context, ownerID int64) ([]account.Ref, error) {
	return f.refs[ownerID], nil
}

func transactionsFrom(t *testing.T, body []byte) []string {
	t.Helper()

	var resp struct {
		Transactions []string `json:"transactions"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Transactions
}

func TestMyTransactionsHandler(t *testing.T) {
	sink := audit.NewMemorySink()

	lines := []string{
		"Transakce: 3 (checking) -> 8 (savings) (100), status: SUCCESS",
		"Transakce: 8 (savings) -> 9 (checking) (40), status: FAILED",
		"Transakce: 9 (checking) -> 5 (credit) (70), status: SUCCESS",
	}
	for _, line := range lines {
		if err := sink.Record(context.Background(), line); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	lister := &fakeRefLister{refs: map[int64][]account.Ref{
		1: {{ID: 3, Kind: account.Checking}},
	}}

	h := handlers.NewAuditHandler(sink, lister)
	r := setupAuthedRouter(http.MethodGet, "/me/transactions", 1, user.RoleUser, h.MyTransactions)

	w := doJSON(r, http.MethodGet, "/me/transactions", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	got := transactionsFrom(t, w.Body.Bytes())

	// account id 3 only appears in the first line
	if len(got) != 1 || got[0] != lines[0] {
		t.Fatalf("got %v, want only %q", got, lines[0])
	}
}

func TestMyTransactionsNoAccounts(t *testing.T) {
	h := handlers.NewAuditHandler(audit.NewMemorySink(), &fakeRefLister{refs: map[int64][]account.Ref{}})
	r := setupAuthedRouter(http.MethodGet, "/me/transactions", 1, user.RoleUser, h.MyTransactions)

	w := doJSON(r, http.MethodGet, "/me/transactions", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if got := transactionsFrom(t, w.Body.Bytes()); len(got) != 0 {
		t.Fatalf("got %v, want empty list", got)
	}
}

func TestUserTransactionsHandler(t *testing.T) {
	sink := audit.NewMemorySink()

	if err := sink.Record(context.Background(), "Transakce: 2 (savings) -> 4 (checking) (10), status: SUCCESS"); err != nil {
		t.Fatalf("record: %v", err)
	}

	lister := &fakeRefLister{refs: map[int64][]account.Ref{
		7: {{ID: 2, Kind: account.Savings}},
	}}

	h := handlers.NewAuditHandler(sink, lister)
	r := setupAuthedRouter(http.MethodGet, "/users/:id/transactions", 1, user.RoleBanker, h.UserTransactions)

	w := doJSON(r, http.MethodGet, "/users/7/transactions", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if got := transactionsFrom(t, w.Body.Bytes()); len(got) != 1 {
		t.Fatalf("got %v, want one line", got)
	}

	// bad path id short-circuits before any lookup
	w = doJSON(r, http.MethodGet, "/users/banana/transactions", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}
}
