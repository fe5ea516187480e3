package validator

import (
	"stakecore/chain/types"
	"stakecore/chain/wad"
)

// RewardPeriod is an admin-scheduled window [start,end] releasing
// total_reward linearly per second, integrated into acc_token_per_share.
// Periods are append-only and non-overlapping (spec.md section 3).
type RewardPeriod struct {
	StartTime        uint64
	EndTime          uint64
	TotalReward      *wad.U256
	AccTokenPerShare *wad.U256
	LastRewardTime   uint64
	IsActive         bool
}

// BoostReward has the identical shape to RewardPeriod but is fed by
// Governance's boost distribution rather than admin scheduling.
type BoostReward struct {
	StartTime        uint64
	EndTime          uint64
	TotalReward      *wad.U256
	AccTokenPerShare *wad.U256
	LastRewardTime   uint64
	IsActive         bool
}

// UserInfo is a single address's position in one validator.
type UserInfo struct {
	Amount        *wad.U256
	LockStartTime uint64
	LockEndTime   uint64
	RewardDebt    *wad.U256
	BoostDebt     *wad.U256
	AutoMax       bool
}

func emptyUserInfo() UserInfo {
	return UserInfo{
		Amount:     wad.Zero(),
		RewardDebt: wad.Zero(),
		BoostDebt:  wad.Zero(),
	}
}

// PurchaseRegistry lives only on the master validator (quality 1): it
// records which secondary-tier qualities a user has already purchased and
// how much of their master lock has been "spent" doing so.
type PurchaseRegistry struct {
	HavePurchased        map[types.Address]map[uint8]bool
	PlayerValidatorCosts map[types.Address]*wad.U256
}

func newPurchaseRegistry() *PurchaseRegistry {
	return &PurchaseRegistry{
		HavePurchased:        make(map[types.Address]map[uint8]bool),
		PlayerValidatorCosts: make(map[types.Address]*wad.U256),
	}
}
