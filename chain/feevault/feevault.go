// Package feevault implements the per-validator deposit-fee escrow from
// spec.md section 4.4.
package feevault

import (
	"sync"

	"stakecore/chain/ledger"
	"stakecore/chain/types"
	"stakecore/chain/wad"
)

// FeeVault escrows deposit-fee tokens for a single validator and pays them
// out to the validator owner on demand. It is bonded to its parent at
// construction and never takes instructions from anyone else.
type FeeVault struct {
	mu     sync.Mutex
	self   types.Address
	parent types.Address
	ledger ledger.TokenLedger
	token  types.Address
	tokenSet bool
}

func New(self, parent types.Address, tokenLedger ledger.TokenLedger) *FeeVault {
	return &FeeVault{
		self:   self,
		parent: parent,
		ledger: tokenLedger,
	}
}

// SetToken records the fee token address once; the source allows exactly
// one call, by the parent.
func (v *FeeVault) SetToken(caller types.Address, token types.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller != v.parent {
		return types.ErrNotValidator
	}
	if v.tokenSet {
		return types.ErrStateUnchanged
	}
	v.token = token
	v.tokenSet = true
	return nil
}

// ClaimFeesFor transfers the vault's full balance to recipient. Only the
// parent validator may call this.
func (v *FeeVault) ClaimFeesFor(caller types.Address, recipient types.Address) (*wad.U256, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller != v.parent {
		return nil, types.ErrNotValidator
	}

	balance := v.ledger.BalanceOf(v.self)
	if wad.IsZero(balance) {
		return nil, types.ErrZeroFee
	}

	if err := v.ledger.TransferFrom(v.self, recipient, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// Balance reports the vault's current escrowed amount, used by monitoring.
func (v *FeeVault) Balance() *wad.U256 {
	return v.ledger.BalanceOf(v.self)
}
