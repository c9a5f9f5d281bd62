package exchange

import "errors"

var (
	// ErrInvalidAddress indicates a zero or nil reference was supplied where a live one is required.
	ErrInvalidAddress = errors.New("exchange: invalid address")
	// ErrInvalidAmount indicates the swap amount is not positive.
	ErrInvalidAmount = errors.New("exchange: amount must be positive")
	// ErrReentrantCall indicates a protected operation was re-entered while already executing.
	ErrReentrantCall = errors.New("exchange: reentrant call")
	// ErrTransferFailed wraps a failure reported by the underlying token ledger.
	ErrTransferFailed = errors.New("exchange: token transfer failed")
	// ErrInsufficientLiquidity indicates the vault lacks enough destination tokens to fulfil a swap.
	ErrInsufficientLiquidity = errors.New("exchange: insufficient destination liquidity")
	// ErrNotOwner indicates an owner-gated operation was invoked by another caller.
	ErrNotOwner = errors.New("exchange: caller is not the owner")
	// ErrNoFunds indicates a recycle was requested while the vault holds nothing.
	ErrNoFunds = errors.New("exchange: no funds to recycle")
	// ErrAmountOverflow indicates the rate multiplication overflowed the 256-bit domain.
	ErrAmountOverflow = errors.New("exchange: amount overflow")
	// ErrValueUnsupported indicates a nonzero incidental value was attached to a swap.
	ErrValueUnsupported = errors.New("exchange: incidental value not accepted")
)
