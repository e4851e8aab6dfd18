package ponzi

import "errors"

var (
	// ErrDeadlinePassed indicates a join after the registration deadline.
	ErrDeadlinePassed = errors.New("ponzi: registration deadline passed")

	// ErrIncorrectPayment indicates the join payment is not L × unit price.
	ErrIncorrectPayment = errors.New("ponzi: incorrect payment")

	// ErrAffiliateCountMismatch indicates the affiliate list length differs from the registry size.
	ErrAffiliateCountMismatch = errors.New("ponzi: affiliate count mismatch")

	// ErrInsufficientPayment indicates an owner-role purchase below the threshold.
	ErrInsufficientPayment = errors.New("ponzi: insufficient payment for owner role")

	// ErrNotOwner indicates the caller is not the current owner.
	ErrNotOwner = errors.New("ponzi: caller is not the owner")

	// ErrInsufficientBalance indicates a withdrawal larger than the contract balance.
	ErrInsufficientBalance = errors.New("ponzi: insufficient contract balance")

	// ErrIndexOutOfRange indicates a registry lookup past the end.
	ErrIndexOutOfRange = errors.New("ponzi: affiliate index out of range")
)
