package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/account"
	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/user"
	"github.com/AnubisArt/PVA-Model-Banky/internal/repo/memory"
)

func newRepos() (*memory.AccountsRepo, *memory.UsersRepo) {
	accounts := memory.NewAccountsRepo()
	return accounts, memory.NewUsersRepo(accounts)
}

func TestCreateUserProvisionsCheckingAccount(t *testing.T) {
	accounts, users := newRepos()

	u, err := users.Create(context.Background(), "Jana", "Novakova", "hash", user.RoleUser)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	a, err := accounts.GetByOwner(context.Background(), u.ID, account.Checking)
	if err != nil {
		t.Fatalf("checking account not provisioned: %v", err)
	}
	if a.Balance != 0 {
		t.Fatalf("new checking account balance = %d, want 0", a.Balance)
	}
}

func TestGetByNameFirstMatchWins(t *testing.T) {
	_, users := newRepos()

	first, err := users.Create(context.Background(), "Jana", "Novakova", "hash1", user.RoleUser)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := users.Create(context.Background(), "Jana", "Svobodova", "hash2", user.RoleUser); err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := users.GetByName(context.Background(), "Jana")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("got user %d, want the earliest match %d", got.ID, first.ID)
	}
}

func TestDeleteUserCascadesAccounts(t *testing.T) {
	accounts, users := newRepos()

	u, err := users.Create(context.Background(), "Petr", "Svoboda", "hash", user.RoleUser)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	savings, err := accounts.Create(context.Background(), account.Savings, u.ID, account.Extra{Student: true})
	if err != nil {
		t.Fatalf("create savings: %v", err)
	}

	if err := users.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	if ok, _ := users.Exists(context.Background(), u.ID); ok {
		t.Fatal("user still exists after delete")
	}
	if ok, _ := accounts.Exists(context.Background(), savings.Ref()); ok {
		t.Fatal("savings account survived the cascade")
	}

	refs, err := accounts.ListIDs(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if len(refs) != 0 {
		t.Fatalf("owner still has accounts: %v", refs)
	}
}

func TestDeleteAdminIsRejected(t *testing.T) {
	_, users := newRepos()

	admin, err := users.Create(context.Background(), "Root", "Admin", "hash", user.RoleAdmin)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	err = users.Delete(context.Background(), admin.ID)

	if !errors.Is(err, user.ErrCannotDeleteAdmin) {
		t.Fatalf("got %v, want ErrCannotDeleteAdmin", err)
	}
	if ok, _ := users.Exists(context.Background(), admin.ID); !ok {
		t.Fatal("admin was deleted")
	}
}

func TestChangeRole(t *testing.T) {
	_, users := newRepos()

	u, err := users.Create(context.Background(), "Eva", "Dvorakova", "hash", user.RoleUser)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if err := users.ChangeRole(context.Background(), u.ID, user.RoleBanker); err != nil {
		t.Fatalf("change role: %v", err)
	}

	got, err := users.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Role != user.RoleBanker {
		t.Fatalf("role = %s, want Banker", got.Role)
	}

	if err := users.ChangeRole(context.Background(), 99, user.RoleBanker); !errors.Is(err, user.ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}

	listed, err := users.ListByRole(context.Background(), user.RoleBanker)
	if err != nil {
		t.Fatalf("list by role: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != u.ID {
		t.Fatalf("listing = %v", listed)
	}
}
