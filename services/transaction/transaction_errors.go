package transaction

import "fmt"

var (
	ErrTransactionNotFound = fmt.Errorf("transaction not found")
	ErrSameParty           = fmt.Errorf("buyer and seller cannot be the same user")
	ErrWalletMissing       = fmt.Errorf("buyer or seller wallet not found")
	ErrInvalidPrice        = fmt.Errorf("price must be greater than zero")
	ErrInvalidOrderType    = fmt.Errorf("order type must be REAL or VIRTUAL")
	ErrNotDeferred         = fmt.Errorf("checkout only applies to REAL items")
	ErrInsufficientFunds   = fmt.Errorf("insufficient funds")

	// ErrIllegalTransition is the errors.Is target for any rejected
	// status transition; the concrete error names both states.
	ErrIllegalTransition = fmt.Errorf("illegal status transition")
)

type IllegalTransitionError struct {
	From Status
	To   Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal status transition from %s to %s", e.From, e.To)
}

func (e *IllegalTransitionError) Unwrap() error {
	return ErrIllegalTransition
}

func NewIllegalTransition(from, to Status) *IllegalTransitionError {
	return &IllegalTransitionError{From: from, To: to}
}
