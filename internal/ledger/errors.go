package ledger

import (
	"errors"
	"fmt"

	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/account"
)

var (
	ErrSelfTransfer        = errors.New("cannot transfer to the same account")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrCreditLimitExceeded = errors.New("credit limit exceeded")
)

const (
	LegSource      = "source"
	LegDestination = "destination"
)

// NotFoundError says which leg of the transfer named a missing account.
// It unwraps to account.ErrAccountNotFound.
type NotFoundError struct {
	Leg string
	Ref account.Ref
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s account %d (%s) not found", e.Leg, e.Ref.ID, e.Ref.Kind)
}

func (e *NotFoundError) Unwrap() error {
	return account.ErrAccountNotFound
}
