package exchange

import (
	"encoding/hex"
	"math/big"

	"burnswap/core/events"
)

const (
	EventTypeExchangeExecuted     = "exchange.executed"
	EventTypeRecycled             = "exchange.recycled"
	EventTypeOwnershipTransferred = "exchange.ownership_transferred"
)

// NewExchangeExecutedEvent returns the canonical payload for a completed swap.
func NewExchangeExecutedEvent(caller [20]byte, amountIn, amountOut *big.Int) *events.Event {
	return &events.Event{Type: EventTypeExchangeExecuted, Attributes: map[string]string{
		"caller":    hex.EncodeToString(caller[:]),
		"amountIn":  amountString(amountIn),
		"amountOut": amountString(amountOut),
		"burnSink":  hex.EncodeToString(burnSink[:]),
	}}
}

// NewRecycledEvent returns the canonical payload for an owner sweep.
func NewRecycledEvent(owner, recipient [20]byte, amount *big.Int) *events.Event {
	return &events.Event{Type: EventTypeRecycled, Attributes: map[string]string{
		"owner":     hex.EncodeToString(owner[:]),
		"recipient": hex.EncodeToString(recipient[:]),
		"amount":    amountString(amount),
	}}
}

// NewOwnershipTransferredEvent returns the canonical payload for an owner change.
func NewOwnershipTransferredEvent(previous, next [20]byte) *events.Event {
	return &events.Event{Type: EventTypeOwnershipTransferred, Attributes: map[string]string{
		"previousOwner": hex.EncodeToString(previous[:]),
		"newOwner":      hex.EncodeToString(next[:]),
	}}
}

func amountString(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}
