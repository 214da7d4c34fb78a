package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/account"
	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/user"
)

// UsersRepo is the in-memory identity store. It shares the accounts repo so
// user creation can provision the checking account and deletion can cascade.
type UsersRepo struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*user.User
	accounts *AccountsRepo
}

func NewUsersRepo(accounts *AccountsRepo) *UsersRepo {
	return &UsersRepo{
		users:    make(map[int64]*user.User),
		accounts: accounts,
	}
}

func (r *UsersRepo) Create(ctx context.Context, firstName, lastName, passwordHash string, role user.Role) (user.User, error) {
	r.mu.Lock()
	r.nextID++
	u := &user.User{
		ID:           r.nextID,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		Role:         role,
	}
	r.users[u.ID] = u
	r.mu.Unlock()

	if _, err := r.accounts.Create(ctx, account.Checking, u.ID, account.Extra{}); err != nil {
		return user.User{}, err
	}
	return *u, nil
}

func (r *UsersRepo) GetByName(_ context.Context, firstName string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found *user.User
	for _, u := range r.users {
		if u.FirstName != firstName {
			continue
		}
		if found == nil || u.ID < found.ID {
			found = u
		}
	}
	if found == nil {
		return user.User{}, user.ErrUserNotFound
	}
	return *found, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return *u, nil
}

func (r *UsersRepo) Exists(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.users[id]
	return ok, nil
}

func (r *UsersRepo) ChangeRole(_ context.Context, id int64, role user.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (r *UsersRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	u, ok := r.users[id]
	if !ok {
		r.mu.Unlock()
		return user.ErrUserNotFound
	}
	if u.Role == user.RoleAdmin {
		r.mu.Unlock()
		return user.ErrCannotDeleteAdmin
	}
	delete(r.users, id)
	r.mu.Unlock()

	// cascade: drop all owned accounts
	r.accounts.mu.Lock()
	for ref, a := range r.accounts.accounts {
		if a.OwnerID == id {
			delete(r.accounts.accounts, ref)
		}
	}
	r.accounts.mu.Unlock()
	return nil
}

func (r *UsersRepo) ListByRole(_ context.Context, role user.Role) ([]user.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []user.Listing
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, user.Listing{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
