package exchange

import (
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"burnswap/core/events"
)

// ExchangeRate is the fixed rate constant. It is applied as both multiplier
// and divisor, so the effective ratio is 1:1; the generic formula is kept so
// a non-unity ratio only requires splitting the constant.
const ExchangeRate = 100

var (
	// burnSink is the conventional dead address. Tokens routed here are
	// permanently out of circulation; no private key is known for it.
	burnSink = [20]byte{18: 0xde, 19: 0xad}

	// vaultAddress is the module account holding destination-token liquidity.
	vaultAddress = deriveVaultAddress()
)

func deriveVaultAddress() [20]byte {
	var addr [20]byte
	hash := ethcrypto.Keccak256([]byte("exchange/module/vault"))
	copy(addr[:], hash[12:])
	return addr
}

// Token is the fungible-token ledger capability consumed by the engine. The
// implementation behind it is untrusted: any call may re-enter the engine,
// which is what the reentrancy guard defends against.
type Token interface {
	Symbol() string
	BalanceOf(addr [20]byte) (*big.Int, error)
	Transfer(from, to [20]byte, amount *big.Int) error
	TransferFrom(spender, from, to [20]byte, amount *big.Int) error
}

// Storage abstracts the state access required to persist the engine owner.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var ownerKey = []byte("exchange/owner")

type storedOwner struct {
	Address [20]byte
}

// Engine swaps a fixed quantity of the source token for the destination token
// at the constant rate, burning the input by routing it to the burn sink. The
// two token references are set at construction and never reassigned.
type Engine struct {
	source      Token
	destination Token
	state       Storage
	guard       ReentrancyGuard
	emitter     events.Emitter
}

// NewEngine constructs an engine over the two token ledgers. Either reference
// being nil fails with ErrInvalidAddress. The engine does not verify that the
// references are distinct or well-behaved; those are trust assumptions.
func NewEngine(source, destination Token) (*Engine, error) {
	if source == nil || destination == nil {
		return nil, ErrInvalidAddress
	}
	return &Engine{
		source:      source,
		destination: destination,
		emitter:     events.NoopEmitter{},
	}, nil
}

// SetState configures the state backend used for owner persistence.
func (e *Engine) SetState(state Storage) {
	if e == nil {
		return
	}
	e.state = state
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SourceToken returns the immutable source token reference.
func (e *Engine) SourceToken() Token { return e.source }

// DestinationToken returns the immutable destination token reference.
func (e *Engine) DestinationToken() Token { return e.destination }

// Rate returns the fixed exchange rate constant.
func (e *Engine) Rate() uint64 { return ExchangeRate }

// BurnSink returns the address swapped-in source tokens are routed to.
func (e *Engine) BurnSink() [20]byte { return burnSink }

// VaultAddress returns the module account holding destination liquidity.
func (e *Engine) VaultAddress() [20]byte { return vaultAddress }

// Owner returns the current owner address.
func (e *Engine) Owner() ([20]byte, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, fmt.Errorf("exchange: engine state not configured")
	}
	var stored storedOwner
	ok, err := e.state.KVGet(ownerKey, &stored)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, nil
	}
	return stored.Address, nil
}

// SetOwner records the owner address. It is intended for genesis
// initialisation; later changes go through TransferOwnership.
func (e *Engine) SetOwner(owner [20]byte) error {
	if e == nil || e.state == nil {
		return fmt.Errorf("exchange: engine state not configured")
	}
	if owner == ([20]byte{}) {
		return ErrInvalidAddress
	}
	return e.state.KVPut(ownerKey, storedOwner{Address: owner})
}

// TransferOwnership hands the owner role to newOwner. Only the current owner
// may invoke it.
func (e *Engine) TransferOwnership(caller, newOwner [20]byte) error {
	owner, err := e.Owner()
	if err != nil {
		return err
	}
	if caller != owner {
		return ErrNotOwner
	}
	if newOwner == ([20]byte{}) {
		return ErrInvalidAddress
	}
	if err := e.state.KVPut(ownerKey, storedOwner{Address: newOwner}); err != nil {
		return err
	}
	e.emit(NewOwnershipTransferredEvent(owner, newOwner))
	return nil
}

// Exchange swaps amount source tokens for destination tokens at the fixed
// rate. The source tokens are pulled from the caller into the burn sink via
// delegated transfer, so the caller must have approved the vault address for
// at least amount. The whole operation runs under the reentrancy guard.
//
// value carries an incidental native payment. This implementation has no
// native currency, so any nonzero value is rejected rather than silently
// retained.
func (e *Engine) Exchange(caller [20]byte, amount, value *big.Int) (*big.Int, error) {
	if e == nil {
		return nil, fmt.Errorf("exchange: engine not configured")
	}
	var out *big.Int
	err := e.guard.Do(func() error {
		if caller == ([20]byte{}) {
			return ErrInvalidAddress
		}
		if value != nil && value.Sign() != 0 {
			return ErrValueUnsupported
		}
		if amount == nil || amount.Sign() <= 0 {
			return ErrInvalidAmount
		}
		if err := e.source.TransferFrom(vaultAddress, caller, burnSink, amount); err != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		computed, err := computeOutput(amount)
		if err != nil {
			return err
		}
		liquidity, err := e.destination.BalanceOf(vaultAddress)
		if err != nil {
			return err
		}
		if liquidity.Cmp(computed) < 0 {
			return ErrInsufficientLiquidity
		}
		if err := e.destination.Transfer(vaultAddress, caller, computed); err != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		out = computed
		e.emit(NewExchangeExecutedEvent(caller, amount, computed))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecycleTokens transfers the vault's entire destination-token balance to
// recipient. Restricted to the current owner. The operation runs under the
// same reentrancy guard as Exchange so the two cannot interleave through a
// token callback.
func (e *Engine) RecycleTokens(caller, recipient [20]byte) (*big.Int, error) {
	if e == nil {
		return nil, fmt.Errorf("exchange: engine not configured")
	}
	var swept *big.Int
	err := e.guard.Do(func() error {
		owner, err := e.Owner()
		if err != nil {
			return err
		}
		if caller != owner {
			return ErrNotOwner
		}
		if recipient == ([20]byte{}) {
			return ErrInvalidAddress
		}
		balance, err := e.destination.BalanceOf(vaultAddress)
		if err != nil {
			return err
		}
		if balance.Sign() <= 0 {
			return ErrNoFunds
		}
		if err := e.destination.Transfer(vaultAddress, recipient, balance); err != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		swept = balance
		e.emit(NewRecycledEvent(owner, recipient, balance))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return swept, nil
}

// computeOutput applies the rate formula in the 256-bit unsigned domain with
// an explicit overflow check instead of wrapping.
func computeOutput(amount *big.Int) (*big.Int, error) {
	in, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, ErrAmountOverflow
	}
	rate := uint256.NewInt(ExchangeRate)
	product, overflow := new(uint256.Int).MulOverflow(in, rate)
	if overflow {
		return nil, ErrAmountOverflow
	}
	return new(uint256.Int).Div(product, rate).ToBig(), nil
}

func (e *Engine) emit(evt *events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}
