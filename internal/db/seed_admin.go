package db

import (
	"context"
	"errors"

	"github.com/AnubisArt/PVA-Model-Banky/internal/config"
	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/user"
	"github.com/AnubisArt/PVA-Model-Banky/internal/security"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser seeds the bootstrap admin principal when one with the
// configured name does not exist yet. Without it a fresh deployment has no
// caller allowed to create users.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminFirstName == "" || cfg.AdminPassword == "" {
		return nil
	}

	var dummy int64

	err := pool.QueryRow(ctx,
		`SELECT user_id FROM users WHERE jmeno = $1 AND role = $2`,
		cfg.AdminFirstName, user.RoleAdmin,
	).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (jmeno, prijmeni, heslo, role) VALUES ($1, $2, $3, $4)`,
		cfg.AdminFirstName, cfg.AdminLastName, hash, user.RoleAdmin,
	)

	return err
}
