package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AnubisArt/PVA-Model-Banky/internal/config"
	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/account"
	"github.com/AnubisArt/PVA-Model-Banky/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AccountStore interface {
	Create(ctx context.Context, kind account.Kind, ownerID int64, extra account.Extra) (account.Account, error)
	Summary(ctx context.Context, ownerID int64) (account.Summary, error)
	ListIDs(ctx context.Context, ownerID int64) ([]account.Ref, error)
}

type UserChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type AccountsHandler struct {
	accounts AccountStore
	users    UserChecker
}

func NewAccountsHandler(accounts AccountStore, users UserChecker) *AccountsHandler {
	return &AccountsHandler{accounts: accounts, users: users}
}

type CreateAccountRequest struct {
	OwnerID int64  `json:"ownerId" binding:"required,gt=0"`
	Kind    string `json:"kind" binding:"required,oneof=checking savings credit"`
	// Savings only.
	Student bool `json:"student"`
	// Credit only; the repayment deadline.
	DueDate *time.Time `json:"dueDate" binding:"required_if=Kind credit"`
}

func (h *AccountsHandler) Create(ctx *gin.Context) {
	var req CreateAccountRequest

	if !BindJSON(ctx, &req) {
		return
	}

	kind, err := account.ParseKind(req.Kind)

	if err != nil {
		RespondBadRequest(ctx, "Unknown account kind", gin.H{"kind": req.Kind})
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	ok, err := h.users.Exists(cctx, req.OwnerID)

	if err != nil {
		RespondInternal(ctx, "Could not create account")
		return
	}

	if !ok {
		RespondNotFound(ctx, "user_not_found", "No such user.")
		return
	}

	acc, err := h.accounts.Create(cctx, kind, req.OwnerID, account.Extra{
		Student: req.Student,
		DueDate: req.DueDate,
	})

	if err != nil {
		RespondInternal(ctx, "Could not create account")
		return
	}

	ctx.JSON(http.StatusCreated, acc)
}

// Own views resolve the owner from the authenticated principal; the
// banker views take it from the path.

func (h *AccountsHandler) MyBalances(ctx *gin.Context) {
	callerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "missing_identity", "Authentication required.")
		return
	}

	h.respondSummary(ctx, callerID)
}

func (h *AccountsHandler) MyAccounts(ctx *gin.Context) {
	callerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "missing_identity", "Authentication required.")
		return
	}

	h.respondRefs(ctx, callerID)
}

func (h *AccountsHandler) UserBalances(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	h.respondSummary(ctx, id)
}

func (h *AccountsHandler) UserAccounts(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	h.respondRefs(ctx, id)
}

func (h *AccountsHandler) respondSummary(ctx *gin.Context, ownerID int64) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	summary, err := h.accounts.Summary(cctx, ownerID)

	if err != nil {
		RespondInternal(ctx, "Could not load balances")
		return
	}

	ctx.JSON(http.StatusOK, summary)
}

func (h *AccountsHandler) respondRefs(ctx *gin.Context, ownerID int64) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	refs, err := h.accounts.ListIDs(cctx, ownerID)

	if err != nil {
		RespondInternal(ctx, "Could not load accounts")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"accounts": refs})
}
