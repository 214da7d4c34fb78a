package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/AnubisArt/PVA-Model-Banky/internal/config"
	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/account"
	"github.com/AnubisArt/PVA-Model-Banky/internal/http/middlewares"
	"github.com/AnubisArt/PVA-Model-Banky/internal/ledger"
	"github.com/gin-gonic/gin"
)

// OwnedAccountResolver maps the caller to their own account of a variant.
type OwnedAccountResolver interface {
	GetByOwner(ctx context.Context, ownerID int64, kind account.Kind) (account.Account, error)
}

type TransfersHandler struct {
	engine   *ledger.Engine
	accounts OwnedAccountResolver
}

func NewTransfersHandler(engine *ledger.Engine, accounts OwnedAccountResolver) *TransfersHandler {
	return &TransfersHandler{engine: engine, accounts: accounts}
}

type TransferRequest struct {
	// Which of the caller's own accounts to debit.
	SourceKind string `json:"sourceKind" binding:"required,oneof=checking savings credit"`

	Destination struct {
		ID   int64  `json:"id" binding:"required,gt=0"`
		Kind string `json:"kind" binding:"required,oneof=checking savings credit"`
	} `json:"destination" binding:"required"`

	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// Create debits the caller's account of the requested variant and credits
// the destination. The source is always resolved from the authenticated
// principal, never taken from the body.
func (h *TransfersHandler) Create(ctx *gin.Context) {
	callerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "missing_identity", "Authentication required.")
		return
	}

	var req TransferRequest

	if !BindJSON(ctx, &req) {
		return
	}

	srcKind, err := account.ParseKind(req.SourceKind)

	if err != nil {
		RespondBadRequest(ctx, "Unknown account kind", gin.H{"kind": req.SourceKind})
		return
	}

	dstKind, err := account.ParseKind(req.Destination.Kind)

	if err != nil {
		RespondBadRequest(ctx, "Unknown account kind", gin.H{"kind": req.Destination.Kind})
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	src, err := h.accounts.GetByOwner(cctx, callerID, srcKind)

	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			RespondNotFound(ctx, "source_account_not_found", "You have no account of that kind.")
			return
		}

		RespondInternal(ctx, "Could not resolve source account")
		return
	}

	dst := account.Ref{ID: req.Destination.ID, Kind: dstKind}

	result, err := h.engine.Transfer(cctx, src.Ref(), dst, req.Amount)

	if err != nil {
		h.respondTransferError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

func (h *TransfersHandler) respondTransferError(ctx *gin.Context, err error) {
	var notFound *ledger.NotFoundError

	switch {
	case errors.As(err, &notFound):
		if notFound.Leg == ledger.LegSource {
			RespondNotFound(ctx, "source_account_not_found", "Source account does not exist.")
			return
		}
		RespondNotFound(ctx, "destination_account_not_found", "Destination account does not exist.")

	case errors.Is(err, ledger.ErrSelfTransfer):
		RespondConflict(ctx, "self_transfer", "Source and destination must differ.")

	case errors.Is(err, ledger.ErrInsufficientFunds):
		RespondUnprocessable(ctx, "insufficient_funds", "Balance would go negative.")

	case errors.Is(err, ledger.ErrCreditLimitExceeded):
		RespondUnprocessable(ctx, "credit_limit_exceeded", "Credit limit would be exceeded.")

	default:
		RespondInternal(ctx, "Transfer failed")
	}
}
