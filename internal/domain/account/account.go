package account

import (
	"errors"
	"time"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidKind     = errors.New("invalid account kind")
)

// Kind is the account variant tag. Account ids are only unique within a
// variant, so every lookup must stay (id, kind) qualified.
type Kind string

const (
	Checking Kind = "checking"
	Savings  Kind = "savings"
	Credit   Kind = "credit"
)

// Kinds lists the variants in their fixed presentation order.
func Kinds() []Kind {
	return []Kind{Checking, Savings, Credit}
}

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Checking, Savings, Credit:
		return Kind(s), nil
	}
	return "", ErrInvalidKind
}

// Ref is the composite key identifying one account.
type Ref struct {
	ID   int64 `json:"id"`
	Kind Kind  `json:"kind"`
}

// Account is the tagged union over the three variants. Student is only
// meaningful for savings accounts, DueDate only for credit accounts.
type Account struct {
	ID      int64      `json:"id"`
	OwnerID int64      `json:"ownerId"`
	Kind    Kind       `json:"kind"`
	Balance int64      `json:"balance"` // minor currency units
	Student bool       `json:"student,omitempty"`
	DueDate *time.Time `json:"dueDate,omitempty"`
}

func (a Account) Ref() Ref {
	return Ref{ID: a.ID, Kind: a.Kind}
}

// Extra carries the variant-specific creation fields.
type Extra struct {
	Student bool
	DueDate *time.Time
}

// Summary is the positional balances-with-metadata shape. Consumers depend
// on the five slots staying in this order with nil marking an absent variant.
type Summary struct {
	CheckingBalance *int64     `json:"checkingBalance"`
	SavingsBalance  *int64     `json:"savingsBalance"`
	Student         *bool      `json:"student"`
	CreditBalance   *int64     `json:"creditBalance"`
	DueDate         *time.Time `json:"dueDate"`
}
