package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInvalidIdempotencyKey = errors.New("idempotency key must be 1-255 characters")
	ErrConflict              = errors.New("idempotency key already used")
)

// InsufficientFundsError carries the derived balance that was available
// when the spend was rejected.
type InsufficientFundsError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s, requested %s",
		e.Available.StringFixed(4), e.Requested.StringFixed(4))
}
