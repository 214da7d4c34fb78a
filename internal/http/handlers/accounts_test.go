package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/account"
	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/user"
	"github.com/AnubisArt/PVA-Model-Banky/internal/http/handlers"
)

type fakeAccountStore struct {
	createFn  func(ctx context.Context, kind account.Kind, ownerID int64, extra account.Extra) (account.Account, error)
	summaryFn func(ctx context.Context, ownerID int64) (account.Summary, error)
	listFn    func(ctx context.Context, ownerID int64) ([]account.Ref, error)
}

func (f *fakeAccountStore) Create(ctx context.Context, kind account.Kind, ownerID int64, extra account.Extra) (account.Account, error) {
	if f.createFn != nil {
		return f.createFn(ctx, kind, ownerID, extra)
	}
	return account.Account{}, nil
}

func (f *fakeAccountStore) Summary(ctx context.Context, ownerID int64) (account.Summary, error) {
	if f.summaryFn != nil {
		return f.summaryFn(ctx, ownerID)
	}
	return account.Summary{}, nil
}

func (f *fakeAccountStore) ListIDs(ctx context.Context, ownerID int64) ([]account.Ref, error) {
	if f.listFn != nil {
		return f.listFn(ctx, ownerID)
	}
	return nil, nil
}

type fakeUserChecker struct {
	existsFn func(ctx context.Context, id int64) (bool, error)
}

func (f *fakeUserChecker) Exists(ctx context.Context, id int64) (bool, error) {
	if f.existsFn != nil {
		return f.existsFn(ctx, id)
	}
	return true, nil
}

func TestCreateAccountHandler(t *testing.T) {
	due := time.Now().AddDate(1, 0, 0).UTC().Format(time.RFC3339)

	tests := []struct {
		name           string
		body           string
		storeSetUp     func(*fakeAccountStore, *fakeUserChecker)
		wantStatusCode int
	}{
		{
			name: "checking_success",
			body: `{"ownerId": 3, "kind": "checking"}`,
			storeSetUp: func(f *fakeAccountStore, u *fakeUserChecker) {
				f.createFn = func(ctx context.Context, kind account.Kind, ownerID int64, extra account.Extra) (account.Account, error) {
					return account.Account{ID: 1, OwnerID: ownerID, Kind: kind}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "savings_with_student_flag",
			body: `{"ownerId": 3, "kind": "savings", "student": true}`,
			storeSetUp: func(f *fakeAccountStore, u *fakeUserChecker) {
				f.createFn = func(ctx context.Context, kind account.Kind, ownerID int64, extra account.Extra) (account.Account, error) {
					if !extra.Student {
						t.Fatal("student flag dropped")
					}
					return account.Account{ID: 1, OwnerID: ownerID, Kind: kind, Student: true}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "credit_with_due_date",
			body: `{"ownerId": 3, "kind": "credit", "dueDate": "` + due + `"}`,
			storeSetUp: func(f *fakeAccountStore, u *fakeUserChecker) {
				f.createFn = func(ctx context.Context, kind account.Kind, ownerID int64, extra account.Extra) (account.Account, error) {
					if extra.DueDate == nil {
						t.Fatal("due date dropped")
					}
					return account.Account{ID: 1, OwnerID: ownerID, Kind: kind, DueDate: extra.DueDate}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "credit_requires_due_date",
			body:           `{"ownerId": 3, "kind": "credit"}`,
			storeSetUp:     func(f *fakeAccountStore, u *fakeUserChecker) {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "unknown_kind",
			body:           `{"ownerId": 3, "kind": "offshore"}`,
			storeSetUp:     func(f *fakeAccountStore, u *fakeUserChecker) {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "owner_missing",
			body: `{"ownerId": 42, "kind": "checking"}`,
			storeSetUp: func(f *fakeAccountStore, u *fakeUserChecker) {
				u.existsFn = func(ctx context.Context, id int64) (bool, error) {
					return false, nil
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeAccountStore{}
			users := &fakeUserChecker{}
			tt.storeSetUp(store, users)

			h := handlers.NewAccountsHandler(store, users)

			r := setupRouter(http.MethodPost, "/accounts", h.Create)

			w := doJSON(r, http.MethodPost, "/accounts", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestMyBalancesHandler(t *testing.T) {
	checking := int64(500)
	student := true

	store := &fakeAccountStore{
		summaryFn: func(ctx context.Context, ownerID int64) (account.Summary, error) {
			if ownerID != 9 {
				t.Fatalf("got owner %d, want caller id 9", ownerID)
			}
			return account.Summary{CheckingBalance: &checking, Student: &student}, nil
		},
	}

	h := handlers.NewAccountsHandler(store, &fakeUserChecker{})
	r := setupAuthedRouter(http.MethodGet, "/me/balances", 9, user.RoleUser, h.MyBalances)

	w := doJSON(r, http.MethodGet, "/me/balances", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var got account.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.CheckingBalance == nil || *got.CheckingBalance != 500 {
		t.Fatalf("checking balance = %v", got.CheckingBalance)
	}
	// absent variants stay explicit nulls
	if got.SavingsBalance != nil || got.CreditBalance != nil {
		t.Fatalf("absent variants not null: %+v", got)
	}
}

func TestUserAccountsHandler(t *testing.T) {
	store := &fakeAccountStore{
		listFn: func(ctx context.Context, ownerID int64) ([]account.Ref, error) {
			if ownerID != 4 {
				t.Fatalf("got owner %d, want 4", ownerID)
			}
			return []account.Ref{
				{ID: 2, Kind: account.Checking},
				{ID: 1, Kind: account.Credit},
			}, nil
		},
	}

	h := handlers.NewAccountsHandler(store, &fakeUserChecker{})
	r := setupAuthedRouter(http.MethodGet, "/users/:id/accounts", 1, user.RoleBanker, h.UserAccounts)

	w := doJSON(r, http.MethodGet, "/users/4/accounts", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Accounts []account.Ref `json:"accounts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(resp.Accounts))
	}
}
