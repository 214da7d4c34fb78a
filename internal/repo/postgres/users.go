package postgres

import (
	"context"
	"errors"

	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/user"
	"github.com/AnubisArt/PVA-Model-Banky/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Create stores a user with an already-hashed credential and provisions the
// checking account that registration always ships with, in one transaction.
func (r *UsersRepo) Create(ctx context.Context, firstName, lastName, passwordHash string, role user.Role) (user.User, error) {
	u := user.User{
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		Role:         role,
	}

	err := r.observe("users.create", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		err = tx.QueryRow(ctx,
			`INSERT INTO users (jmeno, prijmeni, heslo, role) VALUES ($1, $2, $3, $4) RETURNING user_id`,
			firstName, lastName, passwordHash, role,
		).Scan(&u.ID)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO bezny_ucet (user_id, zustatek) VALUES ($1, 0)`,
			u.ID,
		)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})

	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

// GetByName looks a user up by first name. Names are not unique; the lowest
// id wins, which is what login relies on.
func (r *UsersRepo) GetByName(ctx context.Context, firstName string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_name", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT user_id, jmeno, prijmeni, heslo, role
			 FROM users
			 WHERE jmeno = $1
			 ORDER BY user_id
			 LIMIT 1`,
			firstName,
		).Scan(&u.ID, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Role)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT user_id, jmeno, prijmeni, heslo, role FROM users WHERE user_id = $1`,
			id,
		).Scan(&u.ID, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Role)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool

	err := r.observe("users.exists", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)`,
			id,
		).Scan(&exists)
	})

	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *UsersRepo) ChangeRole(ctx context.Context, id int64, role user.Role) error {
	return r.observe("users.change_role", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users SET role = $1 WHERE user_id = $2`,
			role, id,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrUserNotFound
		}
		return nil
	})
}

// Delete removes the user and all owned accounts in one transaction.
// Admin users cannot be deleted.
func (r *UsersRepo) Delete(ctx context.Context, id int64) error {
	return r.observe("users.delete", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		var role user.Role

		err = tx.QueryRow(ctx, `SELECT role FROM users WHERE user_id = $1 FOR UPDATE`, id).Scan(&role)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return user.ErrUserNotFound
			}
			return err
		}

		if role == user.RoleAdmin {
			return user.ErrCannotDeleteAdmin
		}

		for _, stmt := range []string{
			`DELETE FROM bezny_ucet WHERE user_id = $1`,
			`DELETE FROM sporici_ucet WHERE user_id = $1`,
			`DELETE FROM kreditni_ucet WHERE user_id = $1`,
			`DELETE FROM users WHERE user_id = $1`,
		} {
			if _, err := tx.Exec(ctx, stmt, id); err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	})
}

func (r *UsersRepo) ListByRole(ctx context.Context, role user.Role) ([]user.Listing, error) {
	var out []user.Listing

	err := r.observe("users.list_by_role", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT user_id, jmeno, prijmeni FROM users WHERE role = $1 ORDER BY user_id`,
			role,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var l user.Listing
			if err := rows.Scan(&l.ID, &l.FirstName, &l.LastName); err != nil {
				return err
			}
			out = append(out, l)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}
