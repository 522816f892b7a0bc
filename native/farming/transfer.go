package farming

import (
	"math/big"
	"sync"

	"lukechampine.com/blake3"

	"github.com/galacticcouncil/warehouse/crypto"
	"github.com/galacticcouncil/warehouse/observability"
)

// FarmAccountKind distinguishes the two kinds of deterministic accounts the
// engine derives: a GlobalFarm's reward-currency treasury, and a
// YieldFarm's working account that receives pickups from its parent and
// pays out claims.
type FarmAccountKind string

const (
	FarmAccountGlobal FarmAccountKind = "global"
	FarmAccountYield  FarmAccountKind = "yield"
)

// DeriveFarmAccount returns the deterministic account address for a farm.
// The address is a content hash of (kind, id), never backed by a private
// key — nothing ever signs as a farm account, transfers out of it are
// authorized purely by the engine's own internal accounting.
func DeriveFarmAccount(kind FarmAccountKind, id uint64) crypto.Address {
	h := blake3.New(32, nil)
	h.Write([]byte(kind))
	h.Write([]byte{
		byte(id >> 56), byte(id >> 48), byte(id >> 40), byte(id >> 32),
		byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id),
	})
	sum := h.Sum(nil)
	return crypto.MustNewAddress(crypto.FarmPrefix, sum[:20])
}

// AssetTransactor is the boundary the engine uses to move and inspect
// reward-currency balances. It never inspects shares or farm state —
// those are the engine's own concern — only moves tokens between the
// deterministic farm accounts and depositor-owned accounts.
type AssetTransactor interface {
	// Transfer moves amount of asset from `from` to `to`. Implementations
	// must be atomic: either the full amount moves or neither balance
	// changes.
	Transfer(asset string, from, to crypto.Address, amount *big.Int) error
	// Balance returns the current balance of asset held by account.
	Balance(asset string, account crypto.Address) (*big.Int, error)
	// EnsureCanWithdraw reports ErrInsufficientBalance if account does not
	// currently hold at least amount of asset.
	EnsureCanWithdraw(asset string, account crypto.Address, amount *big.Int) error
}

// InMemoryLedger is a map-backed AssetTransactor used by tests and by
// single-process deployments with no external ledger of record.
type InMemoryLedger struct {
	mu       sync.Mutex
	balances map[string]map[string]*big.Int // asset -> address string -> balance
}

// NewInMemoryLedger returns an empty ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{balances: make(map[string]map[string]*big.Int)}
}

// Credit increases account's balance of asset by amount. Exposed so tests
// and admin tooling can fund farm accounts; the engine itself never credits
// an account out of thin air.
func (l *InMemoryLedger) Credit(asset string, account crypto.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLocked(asset, account)
	l.balances[asset][account.String()].Add(l.balances[asset][account.String()], amount)
}

func (l *InMemoryLedger) ensureLocked(asset string, account crypto.Address) {
	if l.balances[asset] == nil {
		l.balances[asset] = make(map[string]*big.Int)
	}
	key := account.String()
	if l.balances[asset][key] == nil {
		l.balances[asset][key] = big.NewInt(0)
	}
}

func (l *InMemoryLedger) Transfer(asset string, from, to crypto.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLocked(asset, from)
	l.ensureLocked(asset, to)
	fromBal := l.balances[asset][from.String()]
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	fromBal.Sub(fromBal, amount)
	toBal := l.balances[asset][to.String()]
	toBal.Add(toBal, amount)
	observability.Events().RecordTransfer(asset)
	return nil
}

func (l *InMemoryLedger) Balance(asset string, account crypto.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLocked(asset, account)
	return new(big.Int).Set(l.balances[asset][account.String()]), nil
}

func (l *InMemoryLedger) EnsureCanWithdraw(asset string, account crypto.Address, amount *big.Int) error {
	bal, err := l.Balance(asset, account)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	return nil
}
