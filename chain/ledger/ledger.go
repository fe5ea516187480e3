// Package ledger models the ERC-20-shaped side-effect port spec.md section 1
// treats as an external collaborator: transfer, transfer_from, balance_of.
// The core engine never sees token-transfer internals, only this interface.
package ledger

import (
	"fmt"
	"sync"

	"stakecore/chain/types"
	"stakecore/chain/wad"
)

// TokenLedger is the boundary the accounting engine calls through. Real
// deployments back it with an actual ERC-20 contract call; this package
// provides the in-memory reference implementation used by tests and by the
// standalone engine binary.
type TokenLedger interface {
	// Transfer moves amount from the ledger's own custody (e.g. a validator
	// or FeeVault that already holds the tokens) to `to`.
	Transfer(to types.Address, amount *wad.U256) error
	// TransferFrom moves amount out of `from`'s balance into `to`, the
	// allowance-gated ERC-20 path used for deposits.
	TransferFrom(from, to types.Address, amount *wad.U256) error
	BalanceOf(addr types.Address) *wad.U256
}

// InMemory is a reference TokenLedger, adapted from the teacher's
// chain/types.TokenSupply balance-map pattern but guarded by a mutex so it
// can stand in for a real ledger under the same single-writer-per-call
// contract the rest of the engine assumes.
type InMemory struct {
	mu       sync.Mutex
	balances map[types.Address]*wad.U256
	self     types.Address // the address this ledger instance transfers "from" on plain Transfer
}

func NewInMemory(self types.Address) *InMemory {
	return &InMemory{
		balances: make(map[types.Address]*wad.U256),
		self:     self,
	}
}

func (l *InMemory) balanceLocked(addr types.Address) *wad.U256 {
	if b, ok := l.balances[addr]; ok {
		return b
	}
	return wad.Zero()
}

func (l *InMemory) BalanceOf(addr types.Address) *wad.U256 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(wad.U256).Set(l.balanceLocked(addr))
}

// Mint credits addr, used only to seed balances in tests and genesis setup.
func (l *InMemory) Mint(addr types.Address, amount *wad.U256) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[addr] = wad.Add(l.balanceLocked(addr), amount)
}

func (l *InMemory) Transfer(to types.Address, amount *wad.U256) error {
	return l.TransferFrom(l.self, to, amount)
}

func (l *InMemory) TransferFrom(from, to types.Address, amount *wad.U256) error {
	if wad.IsZero(amount) {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	fromBal := l.balanceLocked(from)
	if fromBal.Lt(amount) {
		return fmt.Errorf("ledger: insufficient balance for %s: have %s, need %s", from.Hex(), fromBal.String(), amount.String())
	}
	l.balances[from] = new(wad.U256).Sub(fromBal, amount)
	l.balances[to] = wad.Add(l.balanceLocked(to), amount)
	return nil
}

// View is a self-scoped handle onto a shared InMemory ledger: every caller
// that needs its own "custody address" (a validator, its FeeVault) gets one
// of these instead of its own balance map, so transfers between them move
// real balances in the one shared store.
type View struct {
	inner *InMemory
	self  types.Address
}

func (l *InMemory) As(self types.Address) *View {
	return &View{inner: l, self: self}
}

func (v *View) Transfer(to types.Address, amount *wad.U256) error {
	return v.inner.TransferFrom(v.self, to, amount)
}

func (v *View) TransferFrom(from, to types.Address, amount *wad.U256) error {
	return v.inner.TransferFrom(from, to, amount)
}

func (v *View) BalanceOf(addr types.Address) *wad.U256 {
	return v.inner.BalanceOf(addr)
}
