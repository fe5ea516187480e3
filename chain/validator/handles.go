package validator

import (
	"stakecore/chain/types"
	"stakecore/chain/wad"
)

// FactoryHandle is the capability surface a Validator needs from its
// parent Factory: aggregate counters and the quality threshold table.
// Implemented by *factory.Factory; declared here (rather than imported
// from a factory package) so Validator never imports Factory. Factory does
// import this package and holds *validator.Validator values; the interface
// breaks the import cycle from the validator side.
type FactoryHandle interface {
	AddTotalStakedAmount(caller types.Address, amount *wad.U256) error
	SubTotalStakedAmount(caller types.Address, amount *wad.U256) error
	AddTotalStakedWallet(caller types.Address) error
	SubTotalStakedWallet(caller types.Address) error
	MinAmountForQuality(quality uint8) *wad.U256
	IsRegisteredValidator(addr types.Address) bool
}

// MasterHandle is the capability surface secondary validators and
// Governance need from the master (quality 1) validator: its voting power
// computation and its purchase registry. The master Validator implements
// this directly.
type MasterHandle interface {
	Address() types.Address
	GetAmountAndAutoMax(user types.Address) (*wad.U256, bool)
	VeBalance(user types.Address, now uint64) *wad.U256
	HavePurchased(user types.Address, quality uint8) bool
	PlayerValidatorCost(user types.Address) *wad.U256
	UpdateHavePurchased(caller types.Address, user types.Address, quality uint8) error
	UpdatePlayerValidatorCost(caller types.Address, user types.Address, cost *wad.U256) error
	// StakeFor lets Governance restake a claimed vote-reward into the
	// master lock on the beneficiary's behalf, bypassing the deposit fee.
	StakeFor(caller types.Address, beneficiary types.Address, amount *wad.U256) error
}

// GovernanceHandle is the capability the master validator needs from
// Governance: resetting a user's accumulated votes on withdraw / post-expiry
// extend. Implemented by *governance.Governance.
type GovernanceHandle interface {
	Address() types.Address
	ResetVotes(caller types.Address, user types.Address) error
}

// BoostTarget is the capability Governance needs on an arbitrary validator
// (master or secondary) to hand it its share of a closed boost proposal's
// reward. Every *Validator satisfies this directly; Factory exposes a
// lookup returning this narrow view so Governance never needs the
// concrete validator type.
type BoostTarget interface {
	AddBoostReward(caller types.Address, start, end uint64, totalReward *wad.U256) error
}
