// Package factory is the validator registry: it derives deterministic
// validator addresses, tracks the fleet-wide staked totals every
// validator reports back to, and holds the quality -> minimum-stake
// table. Grounded on the teacher's chain/governance.GovernanceSystem for
// its mutex-guarded map-of-structs-plus-counters shape.
package factory

import (
	"sync"

	"stakecore/chain/clock"
	"stakecore/chain/feevault"
	"stakecore/chain/ids"
	"stakecore/chain/ledger"
	"stakecore/chain/signer"
	"stakecore/chain/types"
	"stakecore/chain/validator"
	"stakecore/chain/wad"
)

// ValidatorInfo is the registry's public view of one created validator,
// returned by paginated queries.
type ValidatorInfo struct {
	Address types.Address
	Owner   types.Address
	Quality uint8
	ID      uint64
}

// Factory creates and tracks validators. The quality-1 ("master")
// validator is created first, by Bootstrap; every later CreateValidator
// call wires its result to that master via validator.SetMaster.
type Factory struct {
	mu sync.Mutex

	admin  types.Address
	pauser types.Address

	ledger  *ledger.InMemory
	clock   clock.Clock
	chainID uint64
	events  types.Sink

	minAmountForQuality map[uint8]*wad.U256

	master           *validator.Validator
	validators       []ValidatorInfo
	byAddress        map[types.Address]*validator.Validator
	nextID           uint64
	totalStakedAmt   *wad.U256
	totalStakedWllt  uint64

	// totalValidatorPeriods is the global reporting-only aggregate row set
	// recorded by AddTotalValidators; it feeds no accumulator math anywhere,
	// unlike a per-validator RewardPeriod.
	totalValidatorPeriods []validator.RewardPeriod
}

// Config seeds a new Factory. DefaultMinAmounts gives the spec's quality
// 3-7 thresholds (qualities 1-2 have no minimum: the master validator and
// quality-2 tier are reachable without a floor).
type Config struct {
	Admin   types.Address
	Pauser  types.Address
	Ledger  *ledger.InMemory
	Clock   clock.Clock
	ChainID uint64
	Events  types.Sink
}

// DefaultMinAmounts returns the spec's quality -> minimum whole-token
// stake table, scaled to 18-decimal fixed point.
func DefaultMinAmounts() map[uint8]*wad.U256 {
	return map[uint8]*wad.U256{
		3: wad.FromTokens(400),
		4: wad.FromTokens(1000),
		5: wad.FromTokens(3000),
		6: wad.FromTokens(5000),
		7: wad.FromTokens(10000),
	}
}

func New(cfg Config) *Factory {
	return &Factory{
		admin:               cfg.Admin,
		pauser:              cfg.Pauser,
		ledger:              cfg.Ledger,
		clock:               cfg.Clock,
		chainID:             cfg.ChainID,
		events:              cfg.Events,
		minAmountForQuality: DefaultMinAmounts(),
		byAddress:           make(map[types.Address]*validator.Validator),
		totalStakedAmt:      wad.Zero(),
	}
}

// SetMinAmountForQuality updates the registry's minimum-stake floor for a
// quality tier. Admin-gated.
func (f *Factory) SetMinAmountForQuality(caller types.Address, quality uint8, amount *wad.U256) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if caller != f.admin {
		return types.ErrNotAdmin
	}
	if quality < 1 || quality > 7 {
		return types.ErrQualityWrong
	}
	f.minAmountForQuality[quality] = amount
	return nil
}

// MinAmountForQuality satisfies validator.FactoryHandle.
func (f *Factory) MinAmountForQuality(quality uint8) *wad.U256 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.minAmountForQuality[quality]; ok {
		return new(wad.U256).Set(v)
	}
	return wad.Zero()
}

// IsRegisteredValidator satisfies validator.FactoryHandle.
func (f *Factory) IsRegisteredValidator(addr types.Address) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byAddress[addr]
	return ok
}

// IsClaimedValidator satisfies governance.ValidatorRegistry: a boost
// proposal's validator snapshot retains only validators with is_claimed ==
// true (the master, always; a secondary once PurchaseValidator succeeds).
func (f *Factory) IsClaimedValidator(addr types.Address) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byAddress[addr]
	if !ok {
		return false
	}
	return v.IsClaimed()
}

// AddTotalValidators records a global reporting-only reward-period row
// spanning the whole fleet, distinct from any individual validator's
// RewardPeriod: it feeds dashboards and off-chain accounting only, never
// accumulator math. Admin-gated like every other reward-schedule write.
func (f *Factory) AddTotalValidators(caller types.Address, start, end uint64, totalReward *wad.U256) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if caller != f.admin {
		return types.ErrNotAdmin
	}
	if end <= start {
		return types.ErrInvalidTimePeriod
	}
	f.totalValidatorPeriods = append(f.totalValidatorPeriods, validator.RewardPeriod{
		StartTime:        start,
		EndTime:          end,
		TotalReward:      totalReward,
		AccTokenPerShare: wad.Zero(),
		LastRewardTime:   start,
		IsActive:         true,
	})
	return nil
}

// TotalValidatorPeriods returns the recorded global reward-period rows,
// oldest first, for reporting.
func (f *Factory) TotalValidatorPeriods() []validator.RewardPeriod {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]validator.RewardPeriod, len(f.totalValidatorPeriods))
	copy(out, f.totalValidatorPeriods)
	return out
}

// AddTotalStakedAmount / SubTotalStakedAmount / AddTotalStakedWallet /
// SubTotalStakedWallet satisfy validator.FactoryHandle: every validator
// reports its own deposit/withdraw deltas back up to the fleet-wide
// counters, matching the teacher's aggregate-metrics-on-write pattern in
// MetricsServer.
func (f *Factory) AddTotalStakedAmount(caller types.Address, amount *wad.U256) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byAddress[caller]; !ok {
		return types.ErrNotValidator
	}
	f.totalStakedAmt = wad.Add(f.totalStakedAmt, amount)
	return nil
}

func (f *Factory) SubTotalStakedAmount(caller types.Address, amount *wad.U256) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byAddress[caller]; !ok {
		return types.ErrNotValidator
	}
	sub, err := wad.Sub(f.totalStakedAmt, amount)
	if err != nil {
		return types.ErrNotEnoughAmount
	}
	f.totalStakedAmt = sub
	return nil
}

func (f *Factory) AddTotalStakedWallet(caller types.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byAddress[caller]; !ok {
		return types.ErrNotValidator
	}
	f.totalStakedWllt++
	return nil
}

func (f *Factory) SubTotalStakedWallet(caller types.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byAddress[caller]; !ok {
		return types.ErrNotValidator
	}
	if f.totalStakedWllt > 0 {
		f.totalStakedWllt--
	}
	return nil
}

func (f *Factory) TotalStakedAmount() *wad.U256 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return new(wad.U256).Set(f.totalStakedAmt)
}

func (f *Factory) TotalStakedWallets() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totalStakedWllt
}

// Bootstrap creates the sole quality-1 master validator. Must be called
// exactly once, before any CreateValidator call.
func (f *Factory) Bootstrap(caller types.Address, owner types.Address, minLock, maxLock uint64) (*validator.Validator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if caller != f.admin {
		return nil, types.ErrNotAdmin
	}
	if f.master != nil {
		return nil, types.ErrStateUnchanged
	}

	addr := ids.ValidatorAddress(1, owner, f.nextID)
	v := validator.New(validator.Config{
		Address: addr,
		Owner:   owner,
		Admin:   f.admin,
		Pauser:  f.pauser,
		Quality: 1,
		ID:      f.nextID,
		ChainID: f.chainID,
		MinLock: minLock,
		MaxLock: maxLock,
		Ledger:  f.ledger,
		Clock:   f.clock,
		Factory: f,
		Events:  f.events,
	})
	f.register(v, owner, 1)
	f.master = v
	f.bindFeeVault(v, addr)

	f.emit(types.ValidatorCreated{Owner: owner, Validator: addr, NewLength: uint64(len(f.validators))})
	return v, nil
}

// CreateValidator derives and constructs a new secondary (quality 2-7)
// validator, wires it to the master, and registers it in the fleet.
func (f *Factory) CreateValidator(caller types.Address, owner types.Address, quality uint8, verifier types.Address, minLock, maxLock uint64, signerOracle signer.Oracle) (*validator.Validator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if caller != f.admin {
		return nil, types.ErrNotAdmin
	}
	if f.master == nil {
		return nil, types.ErrWrongStatus
	}
	if quality < 2 || quality > 7 {
		return nil, types.ErrQualityWrong
	}

	addr := ids.ValidatorAddress(quality, owner, f.nextID)
	v := validator.New(validator.Config{
		Address:  addr,
		Owner:    owner,
		Admin:    f.admin,
		Pauser:   f.pauser,
		Quality:  quality,
		ID:       f.nextID,
		ChainID:  f.chainID,
		Verifier: verifier,
		MinLock:  minLock,
		MaxLock:  maxLock,
		Ledger:   f.ledger,
		Clock:    f.clock,
		Factory:  f,
		Signer:   signerOracle,
		Events:   f.events,
	})
	f.register(v, owner, quality)
	if err := v.SetMaster(f.admin, f.master); err != nil {
		return nil, err
	}
	f.bindFeeVault(v, addr)

	f.emit(types.ValidatorCreated{Owner: owner, Validator: addr, NewLength: uint64(len(f.validators))})
	return v, nil
}

func (f *Factory) register(v *validator.Validator, owner types.Address, quality uint8) {
	f.validators = append(f.validators, ValidatorInfo{Address: v.Address(), Owner: owner, Quality: quality, ID: f.nextID})
	f.byAddress[v.Address()] = v
	f.nextID++
}

func (f *Factory) bindFeeVault(v *validator.Validator, addr types.Address) {
	vaultAddr := ids.FeeVaultAddress(addr)
	vault := feevault.New(vaultAddr, addr, f.ledger.As(vaultAddr))
	_ = v.BindFeeVault(f.admin, vault)
}

// Master returns the fleet's master validator handle, nil before Bootstrap.
func (f *Factory) Master() *validator.Validator {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.master
}

// ValidatorByAddress looks up a created validator by its derived address.
func (f *Factory) ValidatorByAddress(addr types.Address) (*validator.Validator, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byAddress[addr]
	return v, ok
}

// BoostTargetByAddress narrows ValidatorByAddress to the single method
// Governance needs, so Governance never has to import the concrete
// validator type to distribute a closed boost proposal's reward.
func (f *Factory) BoostTargetByAddress(addr types.Address) (validator.BoostTarget, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byAddress[addr]
	return v, ok
}

// GetAllValidatorData pages through the fleet, oldest-first, page size
// capped by the caller; offset beyond the end is an error rather than an
// empty page so callers can distinguish "ran off the end" from "no data".
func (f *Factory) GetAllValidatorData(offset, limit uint64) ([]ValidatorInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := uint64(len(f.validators))
	if offset > total {
		return nil, types.ErrPageOutOfBounds
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := make([]ValidatorInfo, end-offset)
	copy(page, f.validators[offset:end])
	return page, nil
}

func (f *Factory) emit(e types.Event) {
	if f.events != nil {
		f.events.Emit(e)
	}
}
