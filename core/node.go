package core

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"burnswap/core/events"
	"burnswap/core/state"
	"burnswap/native/exchange"
	"burnswap/native/token"
	"burnswap/observability/metrics"
	"burnswap/storage"
)

var genesisAppliedKey = []byte("genesis/applied")

type storedGenesisMarker struct {
	Applied bool
}

// GenesisAlloc seeds a token balance when the node starts with fresh state.
type GenesisAlloc struct {
	Token   string
	Address [20]byte
	Amount  *big.Int
}

// SwapInfo summarises the exchange configuration and current liquidity.
type SwapInfo struct {
	SourceSymbol      string
	DestinationSymbol string
	Rate              uint64
	BurnSink          [20]byte
	Vault             [20]byte
	Owner             [20]byte
	Liquidity         *big.Int
}

// Node hosts the exchange engine and the two token ledgers. It supplies the
// guarantees the engines assume from their execution environment: public
// operations are totally ordered by the node mutex, and each runs inside a
// state transaction that commits only on success.
type Node struct {
	mu          sync.Mutex
	state       *state.Manager
	source      *token.Ledger
	destination *token.Ledger
	engine      *exchange.Engine
	logger      *slog.Logger
	metrics     *metrics.ExchangeMetrics
}

// NewNode wires the ledgers and engine over the supplied database.
func NewNode(db storage.Database, sourceSymbol, destinationSymbol string, logger *slog.Logger) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	source, err := token.NewLedger(sourceSymbol)
	if err != nil {
		return nil, fmt.Errorf("core: source token: %w", err)
	}
	destination, err := token.NewLedger(destinationSymbol)
	if err != nil {
		return nil, fmt.Errorf("core: destination token: %w", err)
	}
	engine, err := exchange.NewEngine(source, destination)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Node{
		state:       state.NewManager(db),
		source:      source,
		destination: destination,
		engine:      engine,
		logger:      logger,
		metrics:     metrics.Exchange(),
	}, nil
}

// withTxn serializes the operation and binds every engine to a fresh state
// transaction. The transaction commits only when fn succeeds, so a failed
// call leaves no partial effects. Events emitted during fn are returned.
func (n *Node) withTxn(fn func(txn *state.Txn) error) ([]*events.Event, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	txn := n.state.Begin()
	recorder := &events.Recorder{}
	n.source.SetState(txn)
	n.destination.SetState(txn)
	n.engine.SetState(txn)
	n.source.SetEmitter(recorder)
	n.destination.SetEmitter(recorder)
	n.engine.SetEmitter(recorder)

	if err := fn(txn); err != nil {
		txn.Rollback()
		return nil, err
	}
	if err := txn.Commit(); err != nil {
		return nil, err
	}
	return recorder.Events, nil
}

// InitGenesis applies the initial owner, balance allocations and vault
// liquidity exactly once per database.
func (n *Node) InitGenesis(owner [20]byte, allocs []GenesisAlloc, initialLiquidity *big.Int) error {
	_, err := n.withTxn(func(txn *state.Txn) error {
		var marker storedGenesisMarker
		ok, err := txn.KVGet(genesisAppliedKey, &marker)
		if err != nil {
			return err
		}
		if ok && marker.Applied {
			return nil
		}
		if err := n.engine.SetOwner(owner); err != nil {
			return err
		}
		for _, alloc := range allocs {
			ledger, err := n.ledgerFor(alloc.Token)
			if err != nil {
				return err
			}
			if err := ledger.Mint(alloc.Address, alloc.Amount); err != nil {
				return fmt.Errorf("core: genesis alloc %s: %w", alloc.Token, err)
			}
		}
		if initialLiquidity != nil && initialLiquidity.Sign() > 0 {
			if err := n.destination.Mint(n.engine.VaultAddress(), initialLiquidity); err != nil {
				return fmt.Errorf("core: genesis liquidity: %w", err)
			}
		}
		return txn.KVPut(genesisAppliedKey, storedGenesisMarker{Applied: true})
	})
	if err != nil {
		return err
	}
	n.logger.Info("genesis applied",
		slog.String("owner", hex.EncodeToString(owner[:])),
		slog.Int("allocs", len(allocs)))
	return nil
}

// Exchange swaps amount source tokens for destination tokens on behalf of
// caller. Returns the output amount and the events emitted by the operation.
func (n *Node) Exchange(caller [20]byte, amount, value *big.Int) (*big.Int, []*events.Event, error) {
	var out *big.Int
	var liquidity *big.Int
	evts, err := n.withTxn(func(_ *state.Txn) error {
		result, err := n.engine.Exchange(caller, amount, value)
		if err != nil {
			return err
		}
		out = result
		liquidity, err = n.destination.BalanceOf(n.engine.VaultAddress())
		return err
	})
	if err != nil {
		n.metrics.ObserveSwapFailure(failureReason(err))
		if errors.Is(err, exchange.ErrReentrantCall) {
			n.metrics.ObserveReentrancyRejected()
		}
		return nil, nil, err
	}
	n.metrics.ObserveSwap()
	n.metrics.SetDestinationLiquidity(liquidity)
	n.logger.Info("swap executed",
		slog.String("caller", hex.EncodeToString(caller[:])),
		slog.String("amountIn", amount.String()),
		slog.String("amountOut", out.String()))
	return out, evts, nil
}

// Recycle sweeps the vault's entire destination balance to recipient.
func (n *Node) Recycle(caller, recipient [20]byte) (*big.Int, []*events.Event, error) {
	var swept *big.Int
	evts, err := n.withTxn(func(_ *state.Txn) error {
		result, err := n.engine.RecycleTokens(caller, recipient)
		if err != nil {
			return err
		}
		swept = result
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	n.metrics.ObserveRecycle()
	n.metrics.SetDestinationLiquidity(big.NewInt(0))
	n.logger.Info("liquidity recycled",
		slog.String("recipient", hex.EncodeToString(recipient[:])),
		slog.String("amount", swept.String()))
	return swept, evts, nil
}

// TransferOwnership hands the exchange owner role to newOwner.
func (n *Node) TransferOwnership(caller, newOwner [20]byte) ([]*events.Event, error) {
	return n.withTxn(func(_ *state.Txn) error {
		return n.engine.TransferOwnership(caller, newOwner)
	})
}

// MintToken credits new tokens; restricted to the exchange owner.
func (n *Node) MintToken(caller [20]byte, symbol string, to [20]byte, amount *big.Int) ([]*events.Event, error) {
	return n.withTxn(func(_ *state.Txn) error {
		owner, err := n.engine.Owner()
		if err != nil {
			return err
		}
		if caller != owner {
			return exchange.ErrNotOwner
		}
		ledger, err := n.ledgerFor(symbol)
		if err != nil {
			return err
		}
		return ledger.Mint(to, amount)
	})
}

// TokenTransfer moves tokens between two accounts.
func (n *Node) TokenTransfer(caller [20]byte, symbol string, to [20]byte, amount *big.Int) ([]*events.Event, error) {
	return n.withTxn(func(_ *state.Txn) error {
		ledger, err := n.ledgerFor(symbol)
		if err != nil {
			return err
		}
		return ledger.Transfer(caller, to, amount)
	})
}

// TokenApprove sets the caller's allowance for spender.
func (n *Node) TokenApprove(caller [20]byte, symbol string, spender [20]byte, amount *big.Int) ([]*events.Event, error) {
	return n.withTxn(func(_ *state.Txn) error {
		ledger, err := n.ledgerFor(symbol)
		if err != nil {
			return err
		}
		return ledger.Approve(caller, spender, amount)
	})
}

// Balance returns the balance of addr for the given token symbol.
func (n *Node) Balance(symbol string, addr [20]byte) (*big.Int, error) {
	var balance *big.Int
	_, err := n.withTxn(func(_ *state.Txn) error {
		ledger, err := n.ledgerFor(symbol)
		if err != nil {
			return err
		}
		balance, err = ledger.BalanceOf(addr)
		return err
	})
	return balance, err
}

// Allowance returns the remaining approved amount of spender over owner.
func (n *Node) Allowance(symbol string, owner, spender [20]byte) (*big.Int, error) {
	var allowance *big.Int
	_, err := n.withTxn(func(_ *state.Txn) error {
		ledger, err := n.ledgerFor(symbol)
		if err != nil {
			return err
		}
		allowance, err = ledger.Allowance(owner, spender)
		return err
	})
	return allowance, err
}

// Info returns the exchange configuration and current vault liquidity.
func (n *Node) Info() (*SwapInfo, error) {
	info := &SwapInfo{
		SourceSymbol:      n.source.Symbol(),
		DestinationSymbol: n.destination.Symbol(),
		Rate:              n.engine.Rate(),
		BurnSink:          n.engine.BurnSink(),
		Vault:             n.engine.VaultAddress(),
	}
	_, err := n.withTxn(func(_ *state.Txn) error {
		owner, err := n.engine.Owner()
		if err != nil {
			return err
		}
		info.Owner = owner
		liquidity, err := n.destination.BalanceOf(n.engine.VaultAddress())
		if err != nil {
			return err
		}
		info.Liquidity = liquidity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (n *Node) ledgerFor(symbol string) (*token.Ledger, error) {
	normalized, err := token.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	switch normalized {
	case n.source.Symbol():
		return n.source, nil
	case n.destination.Symbol():
		return n.destination, nil
	default:
		return nil, fmt.Errorf("core: unknown token %q", symbol)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, exchange.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, exchange.ErrInvalidAddress):
		return "invalid_address"
	case errors.Is(err, exchange.ErrReentrantCall):
		return "reentrant_call"
	case errors.Is(err, exchange.ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, exchange.ErrInsufficientLiquidity):
		return "insufficient_liquidity"
	case errors.Is(err, exchange.ErrAmountOverflow):
		return "amount_overflow"
	case errors.Is(err, exchange.ErrValueUnsupported):
		return "value_unsupported"
	default:
		return "internal"
	}
}
