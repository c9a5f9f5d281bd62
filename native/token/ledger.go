package token

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"burnswap/core/events"
)

var (
	// ErrInsufficientBalance indicates the sender does not hold enough tokens.
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	// ErrInsufficientAllowance indicates the spender exceeds the approved amount.
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	// ErrNegativeAmount indicates a negative amount was supplied.
	ErrNegativeAmount = errors.New("token: amount must not be negative")
	// ErrZeroAddress indicates the zero address was supplied where a live account is required.
	ErrZeroAddress = errors.New("token: zero address")
	// ErrInvalidSymbol indicates the token symbol is malformed.
	ErrInvalidSymbol = errors.New("token: invalid symbol")
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// Storage abstracts the subset of state manager functionality required by the
// token ledger.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

type storedAmount struct {
	Value *big.Int
}

// Ledger tracks balances and allowances for a single fungible token. All
// amounts are non-negative big integers and total supply is conserved under
// Transfer and TransferFrom.
type Ledger struct {
	symbol  string
	state   Storage
	emitter events.Emitter
}

// NormalizeSymbol validates the token symbol and returns its canonical
// uppercase form.
func NormalizeSymbol(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return trimmed, nil
}

// NewLedger constructs a ledger for the supplied symbol. The state backend is
// bound later via SetState so callers can rebind the ledger to a per-call
// transaction.
func NewLedger(symbol string) (*Ledger, error) {
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return &Ledger{symbol: normalized, emitter: events.NoopEmitter{}}, nil
}

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(state Storage) {
	if l == nil {
		return
	}
	l.state = state
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if l == nil {
		return
	}
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// Symbol returns the canonical token symbol.
func (l *Ledger) Symbol() string {
	if l == nil {
		return ""
	}
	return l.symbol
}

func (l *Ledger) balanceKey(addr [20]byte) []byte {
	return []byte("token/" + l.symbol + "/balance/" + hex.EncodeToString(addr[:]))
}

func (l *Ledger) allowanceKey(owner, spender [20]byte) []byte {
	return []byte("token/" + l.symbol + "/allowance/" + hex.EncodeToString(owner[:]) + "/" + hex.EncodeToString(spender[:]))
}

func (l *Ledger) supplyKey() []byte {
	return []byte("token/" + l.symbol + "/supply")
}

func (l *Ledger) loadAmount(key []byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, fmt.Errorf("token: ledger not initialised")
	}
	var stored storedAmount
	ok, err := l.state.KVGet(key, &stored)
	if err != nil {
		return nil, err
	}
	if !ok || stored.Value == nil {
		return big.NewInt(0), nil
	}
	return stored.Value, nil
}

func (l *Ledger) storeAmount(key []byte, amount *big.Int) error {
	return l.state.KVPut(key, storedAmount{Value: amount})
}

func checkAmount(amount *big.Int) (*big.Int, error) {
	if amount == nil {
		return big.NewInt(0), nil
	}
	if amount.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	return new(big.Int).Set(amount), nil
}

// BalanceOf returns the balance held by addr.
func (l *Ledger) BalanceOf(addr [20]byte) (*big.Int, error) {
	return l.loadAmount(l.balanceKey(addr))
}

// TotalSupply returns the total amount of tokens minted so far.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	return l.loadAmount(l.supplyKey())
}

// Allowance returns the remaining amount spender may transfer on behalf of
// owner.
func (l *Ledger) Allowance(owner, spender [20]byte) (*big.Int, error) {
	return l.loadAmount(l.allowanceKey(owner, spender))
}

// Approve sets the allowance of spender over owner's tokens to amount,
// replacing any previous value.
func (l *Ledger) Approve(owner, spender [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return fmt.Errorf("token: ledger not initialised")
	}
	if owner == ([20]byte{}) || spender == ([20]byte{}) {
		return ErrZeroAddress
	}
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	if err := l.storeAmount(l.allowanceKey(owner, spender), amt); err != nil {
		return err
	}
	l.emit(NewApprovalEvent(l.symbol, owner, spender, amt))
	return nil
}

// Transfer moves amount tokens from one account to another. A zero amount is
// a no-op.
func (l *Ledger) Transfer(from, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return fmt.Errorf("token: ledger not initialised")
	}
	if to == ([20]byte{}) {
		return ErrZeroAddress
	}
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	if amt.Sign() == 0 {
		return nil
	}
	if err := l.move(from, to, amt); err != nil {
		return err
	}
	l.emit(NewTransferEvent(l.symbol, from, to, amt))
	return nil
}

// TransferFrom moves amount tokens from the owner account to the recipient,
// consuming the spender's allowance.
func (l *Ledger) TransferFrom(spender, from, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return fmt.Errorf("token: ledger not initialised")
	}
	if to == ([20]byte{}) {
		return ErrZeroAddress
	}
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	if amt.Sign() == 0 {
		return nil
	}
	allowanceKey := l.allowanceKey(from, spender)
	allowance, err := l.loadAmount(allowanceKey)
	if err != nil {
		return err
	}
	if allowance.Cmp(amt) < 0 {
		return ErrInsufficientAllowance
	}
	if err := l.move(from, to, amt); err != nil {
		return err
	}
	if err := l.storeAmount(allowanceKey, new(big.Int).Sub(allowance, amt)); err != nil {
		return err
	}
	l.emit(NewTransferEvent(l.symbol, from, to, amt))
	return nil
}

// Mint credits amount new tokens to the recipient and grows total supply.
func (l *Ledger) Mint(to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return fmt.Errorf("token: ledger not initialised")
	}
	if to == ([20]byte{}) {
		return ErrZeroAddress
	}
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	if amt.Sign() == 0 {
		return nil
	}
	balanceKey := l.balanceKey(to)
	balance, err := l.loadAmount(balanceKey)
	if err != nil {
		return err
	}
	supply, err := l.loadAmount(l.supplyKey())
	if err != nil {
		return err
	}
	if err := l.storeAmount(balanceKey, new(big.Int).Add(balance, amt)); err != nil {
		return err
	}
	if err := l.storeAmount(l.supplyKey(), new(big.Int).Add(supply, amt)); err != nil {
		return err
	}
	l.emit(NewMintEvent(l.symbol, to, amt))
	return nil
}

func (l *Ledger) move(from, to [20]byte, amt *big.Int) error {
	fromKey := l.balanceKey(from)
	fromBalance, err := l.loadAmount(fromKey)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amt) < 0 {
		return ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	toKey := l.balanceKey(to)
	toBalance, err := l.loadAmount(toKey)
	if err != nil {
		return err
	}
	if err := l.storeAmount(fromKey, new(big.Int).Sub(fromBalance, amt)); err != nil {
		return err
	}
	return l.storeAmount(toKey, new(big.Int).Add(toBalance, amt))
}

func (l *Ledger) emit(evt *events.Event) {
	if l == nil || l.emitter == nil || evt == nil {
		return
	}
	l.emitter.Emit(evt)
}
