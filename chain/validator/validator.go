// Package validator implements the per-validator staking accumulator:
// deposits, locked withdrawal, MasterChef-style reward and boost-reward
// accrual, and (on the quality-1 "master" validator only) time-decayed
// voting power and the cross-quality purchase registry. Grounded on the
// teacher's chain/governance.GovernanceSystem: a mutex-guarded map of
// per-user state plus an optional event sink, mutated only through
// exported methods that each take the lock once.
package validator

import (
	"sync"

	"stakecore/chain/clock"
	"stakecore/chain/feevault"
	"stakecore/chain/ids"
	"stakecore/chain/ledger"
	"stakecore/chain/signer"
	"stakecore/chain/types"
	"stakecore/chain/wad"
)

// DepositMaxFeeBps and ClaimMaxFeeBps cap the fee knobs, expressed in basis
// points out of wad.BasisPointsDenominator (10000). SetDepositFee and
// SetClaimFee accept only the validator's admin; the owner cannot set fees.
const (
	DepositMaxFeeBps = 100
	ClaimMaxFeeBps   = 500
)

// Config wires together one validator instance. Factory builds one of
// these per created validator; the first (quality 1) validator it creates
// is the "master": Quality 1, no MasterHandle, and a non-nil purchase
// registry.
type Config struct {
	Address  types.Address
	Owner    types.Address
	Admin    types.Address
	Pauser   types.Address
	Quality  uint8
	ID       uint64
	ChainID  uint64
	Verifier types.Address // purchase-authorization signer, quality != 1 only

	MinLock uint64
	MaxLock uint64

	Ledger  *ledger.InMemory
	Clock   clock.Clock
	Factory FactoryHandle
	Signer  signer.Oracle // nil uses signer.EthOracle{}
	Events  types.Sink
}

// Validator is one quality-tiered staking pool. All exported mutating
// methods take mu once and hold it for the full call, matching the
// single-writer-per-call contract the rest of the engine assumes.
type Validator struct {
	mu sync.Mutex

	address types.Address
	owner   types.Address
	admin   types.Address
	pauser  types.Address
	quality uint8
	id      uint64
	chainID uint64

	verifier types.Address
	signer   signer.Oracle

	minLock uint64
	maxLock uint64

	depositFeeBps uint64
	claimFeeBps   uint64
	paused        bool

	periods []RewardPeriod
	boosts  []BoostReward
	users   map[types.Address]UserInfo

	totalStaked *wad.U256

	ledgerView *ledger.View
	feeVault   *feevault.FeeVault
	clock      clock.Clock
	factory    FactoryHandle

	master     MasterHandle     // non-nil on every secondary (quality != 1) validator
	governance     GovernanceHandle // set post-construction via SetGovernance, master only
	governanceAddr types.Address
	purchases  *PurchaseRegistry

	// claimed marks a secondary validator as purchased (owner set to the
	// buyer via PurchaseValidator). The master validator is claimed from
	// construction: it is bootstrapped directly, never purchased.
	claimed bool

	events types.Sink
}

// New constructs a validator. For the master validator, cfg.Quality must
// be 1; New leaves its purchase registry populated and its master field
// nil. Governance is wired in later via SetGovernance, once the engine has
// constructed the Governance instance.
func New(cfg Config) *Validator {
	v := &Validator{
		address:     cfg.Address,
		owner:       cfg.Owner,
		admin:       cfg.Admin,
		pauser:      cfg.Pauser,
		quality:     cfg.Quality,
		id:          cfg.ID,
		chainID:     cfg.ChainID,
		verifier:    cfg.Verifier,
		signer:      cfg.Signer,
		minLock:     cfg.MinLock,
		maxLock:     cfg.MaxLock,
		users:       make(map[types.Address]UserInfo),
		totalStaked: wad.Zero(),
		ledgerView:  cfg.Ledger.As(cfg.Address),
		clock:       cfg.Clock,
		factory:     cfg.Factory,
		events:      cfg.Events,
	}
	if v.signer == nil {
		v.signer = signer.EthOracle{}
	}
	if cfg.Quality == 1 {
		v.purchases = newPurchaseRegistry()
		v.claimed = true
	}
	return v
}

// Address reports the validator's derived identity; satisfies MasterHandle.
func (v *Validator) Address() types.Address { return v.address }

// SetMaster wires a secondary validator to the master it reads voting
// power and purchase state from. Only the factory (the construction-time
// admin of the whole fleet) may call this, and only once.
func (v *Validator) SetMaster(caller types.Address, master MasterHandle) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller != v.admin {
		return types.ErrNotAdmin
	}
	if v.quality == 1 {
		return types.ErrWrongStatus
	}
	if v.master != nil {
		return types.ErrStateUnchanged
	}
	v.master = master
	return nil
}

// SetGovernance wires the master validator to the governance system that
// distributes boost rewards and reads/resets vote weight through it.
// Master-only; one-shot.
func (v *Validator) SetGovernance(caller types.Address, gov GovernanceHandle) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller != v.admin {
		return types.ErrNotAdmin
	}
	if v.quality != 1 {
		return types.ErrWrongStatus
	}
	if v.governance != nil {
		return types.ErrStateUnchanged
	}
	v.governance = gov
	v.governanceAddr = gov.Address()
	return nil
}

// BindFeeVault attaches the per-validator deposit-fee escrow the factory
// created alongside this validator.
func (v *Validator) BindFeeVault(caller types.Address, vault *feevault.FeeVault) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller != v.admin {
		return types.ErrNotAdmin
	}
	if v.feeVault != nil {
		return types.ErrStateUnchanged
	}
	v.feeVault = vault
	return nil
}

// ---- admin surface ----

func (v *Validator) SetDepositFee(caller types.Address, bps uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller != v.admin {
		return types.ErrNotAdmin
	}
	if bps > DepositMaxFeeBps {
		return types.ErrFeeTooHigh
	}
	v.depositFeeBps = bps
	return nil
}

func (v *Validator) SetClaimFee(caller types.Address, bps uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller != v.admin {
		return types.ErrNotAdmin
	}
	if bps > ClaimMaxFeeBps {
		return types.ErrFeeTooHigh
	}
	v.claimFeeBps = bps
	return nil
}

func (v *Validator) SetPause(caller types.Address, paused bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller != v.pauser && caller != v.admin {
		return types.ErrNotPauser
	}
	if v.paused == paused {
		return types.ErrStateUnchanged
	}
	v.paused = paused
	return nil
}

// AddRewardPeriod schedules a new linear-release window. Periods are
// append-only and must not start before the previous one ends.
func (v *Validator) AddRewardPeriod(caller types.Address, start, end uint64, totalReward *wad.U256) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller != v.admin {
		return types.ErrNotAdmin
	}
	if end <= start {
		return types.ErrEndTimeBeforeStartTime
	}
	if len(v.periods) > 0 {
		last := v.periods[len(v.periods)-1]
		if start < last.EndTime {
			return types.ErrStartTimeNotAsExpected
		}
	}
	if wad.IsZero(totalReward) {
		return types.ErrInvalidTotalReward
	}
	v.periods = append(v.periods, RewardPeriod{
		StartTime:        start,
		EndTime:          end,
		TotalReward:      totalReward,
		AccTokenPerShare: wad.Zero(),
		LastRewardTime:   start,
		IsActive:         true,
	})
	return nil
}

// ---- internal accumulator math, spec.md section 6 ----

func multiplier(from, to, end uint64) uint64 {
	if to <= from {
		return 0
	}
	capped := to
	if end < capped {
		capped = end
	}
	if capped <= from {
		return 0
	}
	return capped - from
}

func (v *Validator) updateValidatorLocked(now uint64) {
	for i := range v.periods {
		p := &v.periods[i]
		if now < p.StartTime || p.LastRewardTime >= now {
			continue
		}
		if p.IsActive && !wad.IsZero(v.totalStaked) {
			mult := multiplier(p.LastRewardTime, now, p.EndTime)
			if mult > 0 {
				span := p.EndTime - p.StartTime
				rewardPerSecond := new(wad.U256).Div(p.TotalReward, wad.FromUint64(span))
				lrdsReward := new(wad.U256).Mul(wad.FromUint64(mult), rewardPerSecond)
				delta, _ := wad.MulDiv(lrdsReward, wad.PRECISION, v.totalStaked)
				p.AccTokenPerShare = wad.Add(p.AccTokenPerShare, delta)
			}
		}
		if now >= p.EndTime {
			p.IsActive = false
			p.LastRewardTime = p.EndTime
		} else {
			p.LastRewardTime = now
		}
	}
}

func (v *Validator) updateBoostLocked(now uint64) {
	for i := range v.boosts {
		b := &v.boosts[i]
		if now < b.StartTime || b.LastRewardTime >= now {
			continue
		}
		if b.IsActive && !wad.IsZero(v.totalStaked) {
			mult := multiplier(b.LastRewardTime, now, b.EndTime)
			if mult > 0 {
				span := b.EndTime - b.StartTime
				rewardPerSecond := new(wad.U256).Div(b.TotalReward, wad.FromUint64(span))
				lrdsReward := new(wad.U256).Mul(wad.FromUint64(mult), rewardPerSecond)
				delta, _ := wad.MulDiv(lrdsReward, wad.PRECISION, v.totalStaked)
				b.AccTokenPerShare = wad.Add(b.AccTokenPerShare, delta)
			}
		}
		if now >= b.EndTime {
			b.IsActive = false
			b.LastRewardTime = b.EndTime
		} else {
			b.LastRewardTime = now
		}
	}
}

func (v *Validator) accRewardSumLocked(now uint64) *wad.U256 {
	sum := wad.Zero()
	for _, p := range v.periods {
		if now < p.StartTime {
			continue
		}
		sum = wad.Add(sum, p.AccTokenPerShare)
	}
	return sum
}

func (v *Validator) accBoostSumLocked(now uint64) *wad.U256 {
	sum := wad.Zero()
	for _, b := range v.boosts {
		if now < b.StartTime {
			continue
		}
		sum = wad.Add(sum, b.AccTokenPerShare)
	}
	return sum
}

func (v *Validator) pendingRewardLocked(user UserInfo, now uint64) *wad.U256 {
	if wad.IsZero(v.totalStaked) || wad.IsZero(user.Amount) {
		return wad.Zero()
	}
	accSum := v.accRewardSumLocked(now)
	earned, _ := wad.MulDiv(user.Amount, accSum, wad.PRECISION)
	if earned.Lt(user.RewardDebt) {
		return wad.Zero()
	}
	pending, _ := wad.Sub(earned, user.RewardDebt)
	return pending
}

func (v *Validator) pendingBoostLocked(user UserInfo, now uint64) *wad.U256 {
	if wad.IsZero(user.Amount) {
		return wad.Zero()
	}
	accSum := v.accBoostSumLocked(now)
	earned, _ := wad.MulDiv(user.Amount, accSum, wad.PRECISION)
	if earned.Lt(user.BoostDebt) {
		return wad.Zero()
	}
	pending, _ := wad.Sub(earned, user.BoostDebt)
	return pending
}

// GetUserPendingReward is the read-only view used by monitoring/CLI. It
// catches the accumulator up to now first, the same way Claim and deposit
// do, since acc_token_per_share otherwise only advances as of the last
// mutating call and would under-report everything accrued since then.
func (v *Validator) GetUserPendingReward(user types.Address) (*wad.U256, *wad.U256) {
	v.mu.Lock()
	defer v.mu.Unlock()

	u, ok := v.users[user]
	if !ok || wad.IsZero(v.totalStaked) {
		return wad.Zero(), wad.Zero()
	}
	now := v.clock.Now()
	v.updateValidatorLocked(now)
	v.updateBoostLocked(now)
	return v.pendingRewardLocked(u, now), v.pendingBoostLocked(u, now)
}

// VeBalance computes time-decayed voting power, master validator only.
// Callers that invoke this on a secondary validator get zero back, since
// only the master tracks lock-based voting power.
func (v *Validator) VeBalance(user types.Address, now uint64) *wad.U256 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.veBalanceLocked(user, now)
}

func (v *Validator) veBalanceLocked(user types.Address, now uint64) *wad.U256 {
	if v.quality != 1 {
		return wad.Zero()
	}
	u, ok := v.users[user]
	if !ok || wad.IsZero(u.Amount) {
		return wad.Zero()
	}
	effectiveEnd := u.LockEndTime
	if u.AutoMax {
		effectiveEnd = now + v.maxLock
	}
	if now >= effectiveEnd {
		return wad.Zero()
	}
	remaining := effectiveEnd - now
	ve, _ := wad.MulDiv(u.Amount, wad.FromUint64(remaining), wad.FromUint64(v.maxLock))
	return ve
}

// GetAmountAndAutoMax satisfies MasterHandle: secondary validators and
// Governance read the master lock's principal and auto-max flag through
// this rather than reaching into master's user map directly.
func (v *Validator) GetAmountAndAutoMax(user types.Address) (*wad.U256, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	u, ok := v.users[user]
	if !ok {
		return wad.Zero(), false
	}
	return new(wad.U256).Set(u.Amount), u.AutoMax
}

func (v *Validator) HavePurchased(user types.Address, quality uint8) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.purchases == nil {
		return false
	}
	return v.purchases.HavePurchased[user][quality]
}

func (v *Validator) PlayerValidatorCost(user types.Address) *wad.U256 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.purchases == nil {
		return wad.Zero()
	}
	if c, ok := v.purchases.PlayerValidatorCosts[user]; ok {
		return new(wad.U256).Set(c)
	}
	return wad.Zero()
}

// UpdateHavePurchased and UpdatePlayerValidatorCost are called by a
// secondary validator's purchase_validator once it has verified the
// purchase-authorization signature; only a registered validator of the
// same factory may record a purchase against the master's registry.
func (v *Validator) UpdateHavePurchased(caller types.Address, user types.Address, quality uint8) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.purchases == nil {
		return types.ErrWrongStatus
	}
	if !v.factory.IsRegisteredValidator(caller) {
		return types.ErrNotRegisteredValidator
	}
	if v.purchases.HavePurchased[user] == nil {
		v.purchases.HavePurchased[user] = make(map[uint8]bool)
	}
	if v.purchases.HavePurchased[user][quality] {
		return types.ErrAlreadyPurchasedThisQuality
	}
	v.purchases.HavePurchased[user][quality] = true
	return nil
}

func (v *Validator) UpdatePlayerValidatorCost(caller types.Address, user types.Address, cost *wad.U256) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.purchases == nil {
		return types.ErrWrongStatus
	}
	if !v.factory.IsRegisteredValidator(caller) {
		return types.ErrNotRegisteredValidator
	}
	existing := wad.Zero()
	if c, ok := v.purchases.PlayerValidatorCosts[user]; ok {
		existing = c
	}
	v.purchases.PlayerValidatorCosts[user] = wad.Add(existing, cost)
	return nil
}

// resetVotesLocked is the governance-reset call chain: withdraw/extend on
// the master revokes whatever standing votes the user had, by delegating
// to GovernanceHandle.ResetVotes on the wired governance system.
func (v *Validator) resetVotesLocked(user types.Address) error {
	if v.governance == nil {
		return nil
	}
	return v.governance.ResetVotes(v.address, user)
}

// ---- staking surface, spec.md section 4.1 ----

func (v *Validator) deposit(caller types.Address, amount *wad.U256, newLockDuration uint64, autoMax bool, fromBoost bool) error {
	if v.paused {
		return types.ErrContractPaused
	}
	if wad.IsZero(amount) {
		return types.ErrZeroAmount
	}

	now := v.clock.Now()
	v.updateValidatorLocked(now)
	v.updateBoostLocked(now)

	user := v.users[caller]
	isNewLock := wad.IsZero(user.Amount)

	if isNewLock {
		if newLockDuration < v.minLock || newLockDuration > v.maxLock {
			return types.ErrWrongDuration
		}
		if min := v.factory.MinAmountForQuality(v.quality); min != nil && !wad.IsZero(min) && amount.Lt(min) {
			return types.ErrInsufficientAmount
		}
		user = emptyUserInfo()
		user.LockStartTime = now
		user.LockEndTime = now + newLockDuration
		user.AutoMax = autoMax
	} else if user.AutoMax {
		user.LockEndTime = now + v.maxLock
	}

	fee := wad.Zero()
	net := amount
	if !fromBoost && v.depositFeeBps > 0 {
		fee, _ = wad.MulDiv(amount, wad.FromUint64(v.depositFeeBps), wad.BasisPointsDenominator)
		net, _ = wad.Sub(amount, fee)
	}

	if !fromBoost {
		if err := v.ledgerView.TransferFrom(caller, v.address, net); err != nil {
			return err
		}
		if !wad.IsZero(fee) && v.feeVault != nil {
			if err := v.ledgerView.TransferFrom(caller, ids.FeeVaultAddress(v.address), fee); err != nil {
				return err
			}
		}
	}

	user.Amount = wad.Add(user.Amount, net)
	accSum := v.accRewardSumLocked(now)
	boostSum := v.accBoostSumLocked(now)
	user.RewardDebt, _ = wad.MulDiv(user.Amount, accSum, wad.PRECISION)
	user.BoostDebt, _ = wad.MulDiv(user.Amount, boostSum, wad.PRECISION)
	v.users[caller] = user

	v.totalStaked = wad.Add(v.totalStaked, net)
	if isNewLock {
		if err := v.factory.AddTotalStakedWallet(v.address); err != nil {
			return err
		}
	}
	if err := v.factory.AddTotalStakedAmount(v.address, net); err != nil {
		return err
	}

	v.emit(types.Deposit{
		User:      caller,
		Amount:    net.ToBig(),
		LockStart: user.LockStartTime,
		Duration:  newLockDuration,
		LockEnd:   user.LockEndTime,
		Now:       now,
	})
	return nil
}

// CreateLock opens a new position for caller. Fails with ErrAlreadyLocked
// if caller already has stake in this validator (use IncreaseAmount /
// ExtendDuration instead).
func (v *Validator) CreateLock(caller types.Address, amount *wad.U256, lockDuration uint64, autoMax bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if existing, ok := v.users[caller]; ok && !wad.IsZero(existing.Amount) {
		return types.ErrAlreadyLocked
	}
	return v.deposit(caller, amount, lockDuration, autoMax, false)
}

// IncreaseAmount adds to an existing lock without changing its end time
// (unless auto_max is set, in which case every deposit re-snaps the end
// time to now+MAX_LOCK).
func (v *Validator) IncreaseAmount(caller types.Address, amount *wad.U256) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	user, ok := v.users[caller]
	if !ok || wad.IsZero(user.Amount) {
		return types.ErrNoLockCreated
	}
	now := v.clock.Now()
	if now > user.LockEndTime && !user.AutoMax {
		return types.ErrLockTimeExceeded
	}
	return v.deposit(caller, amount, 0, user.AutoMax, false)
}

// ExtendDuration pushes a lock's end time further out. auto_max locks
// reject this: their end time is managed automatically. If the prior lock
// had already expired and this is the master validator, the user's
// governance votes are reset before the new end time takes effect.
func (v *Validator) ExtendDuration(caller types.Address, newDuration uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	user, ok := v.users[caller]
	if !ok || wad.IsZero(user.Amount) {
		return types.ErrNoLockCreated
	}
	if user.AutoMax {
		return types.ErrAutoMaxTime
	}
	if newDuration == 0 || newDuration > v.maxLock {
		return types.ErrWrongDuration
	}
	now := v.clock.Now()
	base := user.LockEndTime
	expired := now > user.LockEndTime
	if expired {
		base = now
	}
	newEnd := base + newDuration
	if newEnd > now+v.maxLock {
		return types.ErrGreaterThanMaxTime
	}

	if expired && v.quality == 1 {
		if err := v.resetVotesLocked(caller); err != nil {
			return err
		}
	}

	user.LockEndTime = newEnd
	v.users[caller] = user
	return nil
}

// SetAutoMax toggles the auto-renewing max-lock flag. Per spec.md section
// 9's resolved open question, disabling auto_max still snaps lock_end_time
// to now+MAX_LOCK once (the user keeps the longest lock they ever had,
// they just stop perpetually renewing it). Setting the flag to the value
// it already has returns ErrTheSameValue.
func (v *Validator) SetAutoMax(caller types.Address, flag bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	user, ok := v.users[caller]
	if !ok || wad.IsZero(user.Amount) {
		return types.ErrNoLockCreated
	}
	if user.AutoMax == flag {
		return types.ErrTheSameValue
	}
	now := v.clock.Now()
	user.AutoMax = flag
	user.LockEndTime = now + v.maxLock
	v.users[caller] = user
	v.emit(types.SetAutoMax{User: caller, Flag: flag})
	return nil
}

// payRewardsLocked transfers caller's pending base and boost reward (net of
// claim_fee_bps on the base portion only) and emits the matching events.
// Shared by Claim and Withdraw so withdraw() always runs the full claim
// path first, per spec: calling withdraw() alone must pay the same net
// tokens as calling claim() then withdraw().
func (v *Validator) payRewardsLocked(caller types.Address, user UserInfo, now uint64) error {
	pendingBase := v.pendingRewardLocked(user, now)
	pendingBoost := v.pendingBoostLocked(user, now)

	if !wad.IsZero(pendingBase) {
		fee := wad.Zero()
		net := pendingBase
		if v.claimFeeBps > 0 {
			fee, _ = wad.MulDiv(pendingBase, wad.FromUint64(v.claimFeeBps), wad.BasisPointsDenominator)
			net, _ = wad.Sub(pendingBase, fee)
		}
		if err := v.ledgerView.Transfer(caller, net); err != nil {
			return err
		}
		if !wad.IsZero(fee) {
			if err := v.ledgerView.Transfer(v.owner, fee); err != nil {
				return err
			}
		}
		v.emit(types.Claim{User: caller, Net: net.ToBig(), Fee: fee.ToBig()})
	}

	if !wad.IsZero(pendingBoost) {
		if err := v.ledgerView.Transfer(caller, pendingBoost); err != nil {
			return err
		}
		v.emit(types.BoostRewardClaimed{User: caller, Amount: pendingBoost.ToBig()})
	}
	return nil
}

// Claim pays out accrued base reward and boost reward to caller, net of
// claim_fee_bps on the base reward only (boost reward is never fee'd).
func (v *Validator) Claim(caller types.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	user, ok := v.users[caller]
	if !ok || wad.IsZero(user.Amount) {
		return types.ErrNoLockCreated
	}

	now := v.clock.Now()
	v.updateValidatorLocked(now)
	v.updateBoostLocked(now)

	pendingBase := v.pendingRewardLocked(user, now)
	pendingBoost := v.pendingBoostLocked(user, now)
	if wad.IsZero(pendingBase) && wad.IsZero(pendingBoost) {
		return types.ErrNoReward
	}

	if err := v.payRewardsLocked(caller, user, now); err != nil {
		return err
	}

	accSum := v.accRewardSumLocked(now)
	boostSum := v.accBoostSumLocked(now)
	user.RewardDebt, _ = wad.MulDiv(user.Amount, accSum, wad.PRECISION)
	user.BoostDebt, _ = wad.MulDiv(user.Amount, boostSum, wad.PRECISION)
	v.users[caller] = user
	return nil
}

// Withdraw runs the full claim path (base reward net of claim_fee_bps, plus
// any boost reward) and then returns principal, closing an expired,
// non-auto-max lock. Pending reward is never forfeit: withdraw() alone pays
// exactly what claim() followed by withdraw() would have paid.
func (v *Validator) Withdraw(caller types.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	user, ok := v.users[caller]
	if !ok || wad.IsZero(user.Amount) {
		return types.ErrNoLockCreated
	}
	if user.AutoMax {
		return types.ErrAutoMaxTime
	}
	now := v.clock.Now()
	if now < user.LockEndTime {
		return types.ErrTimeNotUp
	}

	v.updateValidatorLocked(now)
	v.updateBoostLocked(now)

	if err := v.payRewardsLocked(caller, user, now); err != nil {
		return err
	}

	amount := user.Amount
	if err := v.ledgerView.Transfer(caller, amount); err != nil {
		return err
	}

	if v.quality == 1 {
		if err := v.resetVotesLocked(caller); err != nil {
			return err
		}
	}

	v.totalStaked, _ = wad.Sub(v.totalStaked, amount)
	if err := v.factory.SubTotalStakedAmount(v.address, amount); err != nil {
		return err
	}
	if err := v.factory.SubTotalStakedWallet(v.address); err != nil {
		return err
	}

	delete(v.users, caller)
	v.emit(types.Withdraw{User: caller, Amount: amount.ToBig(), Now: now})
	return nil
}

// PurchaseValidator spends master-validator "NP" voting-power-equivalent
// principal to unlock a secondary validator's quality for caller, gated by
// a signed authorization from this validator's verifier key. Only
// meaningful on secondary (quality != 1) validators; the master validator
// rejects calls to this method outright.
func (v *Validator) PurchaseValidator(caller types.Address, np *wad.U256, deadline uint64, sig []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.quality == 1 {
		return types.ErrNotValidValidator
	}
	if v.master == nil {
		return types.ErrWrongStatus
	}
	now := v.clock.Now()
	if now > deadline {
		return types.ErrSignatureExpired
	}
	if wad.IsZero(np) {
		return types.ErrInsufficientNPPoint
	}
	if v.claimed {
		return types.ErrValidatorIsClaimed
	}
	if v.master.HavePurchased(caller, v.quality) {
		return types.ErrAlreadyPurchasedThisQuality
	}

	amount, autoMax := v.master.GetAmountAndAutoMax(caller)
	if !autoMax {
		return types.ErrAutoMaxNotEnabled
	}

	required := v.factory.MinAmountForQuality(v.quality)
	alreadySpent := v.master.PlayerValidatorCost(caller)
	threshold := wad.Add(required, alreadySpent)
	if amount.Lt(threshold) {
		return types.ErrInsufficientLockAmount
	}

	recovered, err := v.signer.Recover(np, v.address, deadline, v.chainID, caller, v.quality, sig)
	if err != nil {
		return err
	}
	if recovered != v.verifier {
		return types.ErrVerificationFailed
	}

	v.claimed = true
	v.owner = caller

	if err := v.master.UpdateHavePurchased(v.address, caller, v.quality); err != nil {
		return err
	}
	if err := v.master.UpdatePlayerValidatorCost(v.address, caller, required); err != nil {
		return err
	}

	v.emit(types.PurchaseValidator{User: caller, NP: np.ToBig(), Quality: v.quality})
	return nil
}

// StakeFor lets Governance re-lock a claimed vote reward into the
// beneficiary's lock (claim-and-restake), bypassing the deposit fee since
// the tokens never left the system.
func (v *Validator) StakeFor(caller types.Address, beneficiary types.Address, amount *wad.U256) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.governance == nil || caller != v.governanceAddr {
		return types.ErrNotGovernance
	}
	user, ok := v.users[beneficiary]
	isNewLock := !ok || wad.IsZero(user.Amount)
	if isNewLock {
		now := v.clock.Now()
		user = emptyUserInfo()
		user.LockStartTime = now
		user.LockEndTime = now + v.maxLock
		user.AutoMax = true
	}
	return v.restakeLocked(beneficiary, user, amount, isNewLock)
}

func (v *Validator) restakeLocked(beneficiary types.Address, user UserInfo, amount *wad.U256, isNewLock bool) error {
	now := v.clock.Now()
	v.updateValidatorLocked(now)
	v.updateBoostLocked(now)

	if user.AutoMax {
		user.LockEndTime = now + v.maxLock
	}
	user.Amount = wad.Add(user.Amount, amount)
	accSum := v.accRewardSumLocked(now)
	boostSum := v.accBoostSumLocked(now)
	user.RewardDebt, _ = wad.MulDiv(user.Amount, accSum, wad.PRECISION)
	user.BoostDebt, _ = wad.MulDiv(user.Amount, boostSum, wad.PRECISION)
	v.users[beneficiary] = user

	v.totalStaked = wad.Add(v.totalStaked, amount)
	if isNewLock {
		if err := v.factory.AddTotalStakedWallet(v.address); err != nil {
			return err
		}
	}
	return v.factory.AddTotalStakedAmount(v.address, amount)
}

// AddBoostReward is called by Governance once a boost proposal's voting
// window closes and its reward has been proportionally assigned to this
// validator; it opens a new BoostReward window exactly like AddRewardPeriod
// does for base rewards.
func (v *Validator) AddBoostReward(caller types.Address, start, end uint64, totalReward *wad.U256) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.governance == nil || caller != v.governanceAddr {
		return types.ErrNotGovernance
	}
	if end <= start {
		return types.ErrEndTimeBeforeStartTime
	}
	if wad.IsZero(totalReward) {
		return types.ErrInvalidBoostReward
	}
	v.boosts = append(v.boosts, BoostReward{
		StartTime:        start,
		EndTime:          end,
		TotalReward:      totalReward,
		AccTokenPerShare: wad.Zero(),
		LastRewardTime:   start,
		IsActive:         true,
	})
	v.emit(types.BoostRewardAdded{Start: start, End: end, Total: totalReward.ToBig()})
	return nil
}

// SweepFees pays the validator's escrowed deposit fees out to recipient.
// Owner-gated: only the validator owner decides where its accumulated fee
// revenue goes.
func (v *Validator) SweepFees(caller types.Address, recipient types.Address) (*wad.U256, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller != v.owner {
		return nil, types.ErrNotOwner
	}
	if v.feeVault == nil {
		return nil, types.ErrStateUnchanged
	}
	return v.feeVault.ClaimFeesFor(v.address, recipient)
}

func (v *Validator) TotalStaked() *wad.U256 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(wad.U256).Set(v.totalStaked)
}

// IsClaimed reports whether this validator has an owner: always true for
// the master, true for a secondary once PurchaseValidator has succeeded.
func (v *Validator) IsClaimed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.claimed
}

func (v *Validator) emit(e types.Event) {
	if v.events != nil {
		v.events.Emit(e)
	}
}
