package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/AnubisArt/PVA-Model-Banky/internal/auth"
	"github.com/AnubisArt/PVA-Model-Banky/internal/authz"
	"github.com/AnubisArt/PVA-Model-Banky/internal/config"
	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/account"
	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/user"
	"github.com/AnubisArt/PVA-Model-Banky/internal/interest"
	"github.com/AnubisArt/PVA-Model-Banky/internal/repo/postgres"
	"github.com/AnubisArt/PVA-Model-Banky/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByName(ctx context.Context, firstName string) (user.User, error)
}

type SummaryReader interface {
	Summary(ctx context.Context, ownerID int64) (account.Summary, error)
}

type RefreshTokenStore interface {
	BeginTx(ctx context.Context) (postgresTx, error)
	Create(ctx context.Context, tx postgresTx, row postgres.RefreshTokenRow) error
	GetForUpdate(ctx context.Context, tx postgresTx, id string) (postgres.RefreshTokenRow, error)
	Revoke(ctx context.Context, tx postgresTx, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, tx postgresTx, userID int64) error
}

type postgresTx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type AuthHandler struct {
	users        UserReader
	accounts     SummaryReader
	jwt          *auth.Manager
	refreshStore *postgres.RefreshTokensRepo
	gate         *authz.Gate
	accrual      *interest.Job
	cfg          config.Config
	log          *slog.Logger
}

func NewAuthHandler(users UserReader, accounts SummaryReader, jwtManager *auth.Manager, refreshStore *postgres.RefreshTokensRepo, gate *authz.Gate, accrual *interest.Job, cfg config.Config, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:        users,
		accounts:     accounts,
		jwt:          jwtManager,
		refreshStore: refreshStore,
		gate:         gate,
		accrual:      accrual,
		cfg:          cfg,
		log:          log,
	}
}

type LoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Principal is the login response body: who the caller is and what they
// are allowed to do. Accounts are preloaded for the User role only.
type Principal struct {
	ID        int64            `json:"id"`
	FirstName string           `json:"firstName"`
	LastName  string           `json:"lastName"`
	Role      user.Role        `json:"role"`
	Commands  []string         `json:"commands"`
	Accounts  *account.Summary `json:"accounts,omitempty"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	// Every login attempt is a chance to settle the monthly savings
	// interest, matching the branch's first-interaction-of-the-month
	// bookkeeping.

	if h.cfg.AccrualOnLogin && h.accrual != nil {
		if _, err := h.accrual.MaybeRun(cctx, time.Now()); err != nil {
			h.log.Error("interest accrual on login failed", "error", err)
		}
	}

	foundUser, err := h.users.GetByName(cctx, req.Name)
	if err != nil {
		// deliberately uniform: do not reveal which check failed
		RespondUnAuthorized(ctx, "auth_failure", "Name or password is incorrect.")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "auth_failure", "Name or password is incorrect.")
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(foundUser.ID, foundUser.FirstName, foundUser.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	rawRefreshToken, jti, expiresAt, err := h.jwt.GenerateRefreshToken(foundUser.ID, foundUser.FirstName, foundUser.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate refresh token")
		return
	}

	if err := h.storeRefreshToken(cctx, foundUser.ID, jti, rawRefreshToken, expiresAt); err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	principal := Principal{
		ID:        foundUser.ID,
		FirstName: foundUser.FirstName,
		LastName:  foundUser.LastName,
		Role:      foundUser.Role,
		Commands:  h.gate.Commands(foundUser.Role),
	}

	// Clients acting as plain account holders get their accounts up
	// front; Bankers and Admins look accounts up per client instead.

	if foundUser.Role == user.RoleUser && h.accounts != nil {
		summary, err := h.accounts.Summary(cctx, foundUser.ID)

		if err != nil {
			RespondInternal(ctx, "Could not load accounts")
			return
		}

		principal.Accounts = &summary
	}

	h.setRefreshCookie(ctx, rawRefreshToken, expiresAt)

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken": accessToken,
		"principal":   principal,
	})
}

// Refresh rotates the refresh token under a row lock and issues a fresh
// access token.

func (h *AuthHandler) Refresh(ctx *gin.Context) {
	raw, err := ctx.Cookie(h.refreshCookieName())

	if err != nil || raw == "" {
		RespondUnAuthorized(ctx, "no_refresh", "Missing refresh token")
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(raw)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	tx, err := h.refreshStore.BeginTx(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	defer func() { _ = tx.Rollback(cctx) }()

	row, err := h.refreshStore.GetForUpdate(cctx, tx, claims.JTI)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	if row.RevokedAt != nil {
		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	if time.Now().UTC().After(row.ExpiresAt) {
		RespondUnAuthorized(ctx, "expired_refresh", "Refresh token expired.")
		return
	}

	// hash must match the presented token (prevents token substitution)

	if row.TokenHash != h.jwt.HashRefreshToken(raw) {
		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token.")
		return
	}

	newRaw, newJTI, newExpiresAt, err := h.jwt.GenerateRefreshToken(row.UserID, claims.Name, claims.Role)
	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	// revoke old, insert new

	err = h.refreshStore.Revoke(cctx, tx, row.ID, &newJTI)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	newRow := postgres.RefreshTokenRow{
		ID:        newJTI,
		UserID:    row.UserID,
		TokenHash: h.jwt.HashRefreshToken(newRaw),
		ExpiresAt: newExpiresAt,
		CreatedAt: time.Now().UTC(),
	}

	err = h.refreshStore.Create(cctx, tx, newRow)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	err = tx.Commit(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(row.UserID, claims.Name, claims.Role)
	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	h.setRefreshCookie(ctx, newRaw, newExpiresAt)

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken": accessToken,
	})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	raw, err := ctx.Cookie(h.refreshCookieName())

	if err != nil || raw == "" {
		// still clear cookie to be safe
		h.clearRefreshCookie(ctx)
		ctx.Status(http.StatusNoContent)
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(raw)
	if err != nil {
		h.clearRefreshCookie(ctx)
		ctx.Status(http.StatusNoContent)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	tx, err := h.refreshStore.BeginTx(cctx)
	if err != nil {
		h.clearRefreshCookie(ctx)
		ctx.Status(http.StatusNoContent)
		return
	}
	defer func() { _ = tx.Rollback(cctx) }()

	// revoke the whole chain for this user (idempotent)
	_ = h.refreshStore.RevokeAllForUser(cctx, tx, claims.UserID)
	_ = tx.Commit(cctx)

	h.clearRefreshCookie(ctx)
	ctx.Status(http.StatusNoContent)
}

// Helper functions

func (h *AuthHandler) storeRefreshToken(ctx context.Context, userID int64, jti, raw string, expiresAt time.Time) error {
	tx, err := h.refreshStore.BeginTx(ctx)

	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := postgres.RefreshTokenRow{
		ID:        jti,
		UserID:    userID,
		TokenHash: h.jwt.HashRefreshToken(raw),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	err = h.refreshStore.Create(ctx, tx, row)

	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (h *AuthHandler) refreshCookieName() string {
	return "refresh_token"
}

func (h *AuthHandler) setRefreshCookie(ctx *gin.Context, raw string, expiresAt time.Time) {
	secure := h.cfg.Env == "prod"

	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(http.SameSiteStrictMode)

	ctx.SetCookie(
		h.refreshCookieName(),
		raw,
		maxAge,
		"/auth",
		"",
		secure,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearRefreshCookie(ctx *gin.Context) {
	secure := h.cfg.Env == "prod"
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(
		h.refreshCookieName(),
		"",
		-1,
		"/auth",
		"",
		secure,
		true,
	)
}
