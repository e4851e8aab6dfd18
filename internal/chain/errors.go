package chain

import "errors"

// Transaction rejections. A rejected transaction is never mined: no
// receipt, no fee, no nonce bump.
var (
	ErrInvalidChainID    = errors.New("chain: invalid chain id")
	ErrInvalidSignature  = errors.New("chain: invalid transaction signature")
	ErrNonceTooLow       = errors.New("chain: nonce too low")
	ErrNonceTooHigh      = errors.New("chain: nonce too high")
	ErrInsufficientFunds = errors.New("chain: insufficient funds for gas * price + value")
	ErrIntrinsicGas      = errors.New("chain: intrinsic gas too low")
)

// Execution failures. The transaction is mined with a failed receipt and
// its fee is charged.
var (
	ErrExecutionReverted = errors.New("chain: execution reverted")
	ErrOutOfGas          = errors.New("chain: out of gas")
)

var (
	// ErrReceiptNotFound is returned for unknown transaction hashes.
	ErrReceiptNotFound = errors.New("chain: receipt not found")

	// ErrNoContract is returned when an address holds no deployed contract.
	ErrNoContract = errors.New("chain: no contract at address")
)
