package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/account"
)

// Sink is the append-only event log. Record must not drop lines on the
// success path of a transfer; Filter returns every line containing at least
// one of the given substrings, in append order.
type Sink interface {
	Record(ctx context.Context, line string) error
	Filter(ctx context.Context, substrings []string) ([]string, error)
}

const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// TransferLine renders the structured transfer record. Downstream consumers
// parse this shape positionally; do not reorder the fields.
func TransferLine(src, dst account.Ref, amount int64, status string) string {
	return fmt.Sprintf("Transakce: %d (%s) -> %d (%s) (%d), status: %s",
		src.ID, src.Kind, dst.ID, dst.Kind, amount, status)
}

// Filtering is substring based, not token based: filtering for account id
// "5" also matches "35". Inherited behavior, kept on purpose.
func matchesAny(line string, substrings []string) bool {
	for _, s := range substrings {
		if s != "" && strings.Contains(line, s) {
			return true
		}
	}
	return false
}
