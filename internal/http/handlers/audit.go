package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/AnubisArt/PVA-Model-Banky/internal/audit"
	"github.com/AnubisArt/PVA-Model-Banky/internal/cache"
	"github.com/AnubisArt/PVA-Model-Banky/internal/config"
	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/account"
	"github.com/AnubisArt/PVA-Model-Banky/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AccountRefLister interface {
	ListIDs(ctx context.Context, ownerID int64) ([]account.Ref, error)
}

// AuditHandler serves transaction-history views straight off the audit log.
type AuditHandler struct {
	sink     audit.Sink
	accounts AccountRefLister
	cache    *cache.Cache
}

func NewAuditHandler(sink audit.Sink, accounts AccountRefLister) *AuditHandler {
	return &AuditHandler{
		sink:     sink,
		accounts: accounts,
		cache:    cache.New(5 * time.Second),
	}
}

// MyTransactions lists every log line touching one of the caller's own
// accounts.
func (h *AuditHandler) MyTransactions(ctx *gin.Context) {
	callerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "missing_identity", "Authentication required.")
		return
	}

	h.respondForOwner(ctx, callerID)
}

// UserTransactions is the banker view of the same thing for any client.
func (h *AuditHandler) UserTransactions(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	h.respondForOwner(ctx, id)
}

func (h *AuditHandler) respondForOwner(ctx *gin.Context, ownerID int64) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	refs, err := h.accounts.ListIDs(cctx, ownerID)

	if err != nil {
		RespondInternal(ctx, "Could not load transaction log")
		return
	}

	if len(refs) == 0 {
		ctx.JSON(http.StatusOK, gin.H{"transactions": []string{}})
		return
	}

	key := "txlog:" + strconv.FormatInt(ownerID, 10)

	if cached, ok := h.cache.Get(key); ok {
		if lines, ok := cached.([]string); ok {
			ctx.JSON(http.StatusOK, gin.H{"transactions": lines})
			return
		}
	}

	substrings := make([]string, 0, len(refs))
	for _, ref := range refs {
		substrings = append(substrings, strconv.FormatInt(ref.ID, 10))
	}

	lines, err := h.sink.Filter(cctx, substrings)

	if err != nil {
		RespondInternal(ctx, "Could not load transaction log")
		return
	}

	if lines == nil {
		lines = []string{}
	}

	h.cache.Set(key, lines)

	ctx.JSON(http.StatusOK, gin.H{"transactions": lines})
}
