package authz

import "github.com/AnubisArt/PVA-Model-Banky/internal/domain/user"

// Command names exposed per role tier. These are the operation names the
// external surface routes by; the gate is the single place that maps a role
// to the commands it may invoke.
const (
	CmdTransfer              = "transfer"
	CmdViewOwnBalances       = "view-own-balances"
	CmdViewOwnAccountNumbers = "view-own-account-numbers"
	CmdViewOwnTransactionLog = "view-own-transaction-log"

	CmdCreateUser                            = "create-user"
	CmdCreateAccount                         = "create-account"
	CmdViewAnyAccountBalance                 = "view-any-account-balance"
	CmdViewAnyAccountNumbers                 = "view-any-account-numbers"
	CmdViewFilteredTransactionLogByAccountID = "view-filtered-transaction-log-by-account-id"

	CmdChangeRole      = "change-role"
	CmdDeleteUser      = "delete-user"
	CmdListUsersByRole = "list-users-by-role"
)

var userTier = []string{
	CmdTransfer,
	CmdViewOwnBalances,
	CmdViewOwnAccountNumbers,
	CmdViewOwnTransactionLog,
}

var bankerTier = []string{
	CmdCreateUser,
	CmdCreateAccount,
	CmdViewAnyAccountBalance,
	CmdViewAnyAccountNumbers,
	CmdViewFilteredTransactionLogByAccountID,
}

var adminTier = []string{
	CmdChangeRole,
	CmdDeleteUser,
	CmdListUsersByRole,
}

// Gate is the stateless role -> command-set mapping. Tiers are strictly
// additive: User < Banker < Admin.
type Gate struct {
	allowed map[user.Role]map[string]bool
}

func NewGate() *Gate {
	g := &Gate{allowed: make(map[user.Role]map[string]bool)}

	g.grant(user.RoleUser, userTier)
	g.grant(user.RoleBanker, userTier, bankerTier)
	g.grant(user.RoleAdmin, userTier, bankerTier, adminTier)

	return g
}

func (g *Gate) grant(role user.Role, tiers ...[]string) {
	set := make(map[string]bool)
	for _, tier := range tiers {
		for _, cmd := range tier {
			set[cmd] = true
		}
	}
	g.allowed[role] = set
}

// Allowed reports whether the role may invoke the named command.
func (g *Gate) Allowed(role user.Role, command string) bool {
	return g.allowed[role][command]
}

// Commands returns the command names available to the role, user tier first,
// then banker, then admin, so help output stays stable.
func (g *Gate) Commands(role user.Role) []string {
	set, ok := g.allowed[role]
	if !ok {
		return nil
	}

	out := make([]string, 0, len(set))
	for _, tier := range [][]string{userTier, bankerTier, adminTier} {
		for _, cmd := range tier {
			if set[cmd] {
				out = append(out, cmd)
			}
		}
	}
	return out
}
