package token

import (
	"encoding/hex"
	"math/big"

	"burnswap/core/events"
)

const (
	EventTypeTransfer = "token.transfer"
	EventTypeApproval = "token.approval"
	EventTypeMint     = "token.mint"
)

// NewTransferEvent returns the canonical payload for a balance movement.
func NewTransferEvent(symbol string, from, to [20]byte, amount *big.Int) *events.Event {
	return &events.Event{Type: EventTypeTransfer, Attributes: map[string]string{
		"symbol": symbol,
		"from":   hex.EncodeToString(from[:]),
		"to":     hex.EncodeToString(to[:]),
		"amount": amountString(amount),
	}}
}

// NewApprovalEvent returns the canonical payload for an allowance update.
func NewApprovalEvent(symbol string, owner, spender [20]byte, amount *big.Int) *events.Event {
	return &events.Event{Type: EventTypeApproval, Attributes: map[string]string{
		"symbol":  symbol,
		"owner":   hex.EncodeToString(owner[:]),
		"spender": hex.EncodeToString(spender[:]),
		"amount":  amountString(amount),
	}}
}

// NewMintEvent returns the canonical payload for a supply increase.
func NewMintEvent(symbol string, to [20]byte, amount *big.Int) *events.Event {
	return &events.Event{Type: EventTypeMint, Attributes: map[string]string{
		"symbol": symbol,
		"to":     hex.EncodeToString(to[:]),
		"amount": amountString(amount),
	}}
}

func amountString(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}
