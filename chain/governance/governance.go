// Package governance implements proposal creation, stake-weighted voting,
// vote-reward claim-and-restake, and boost-reward distribution across the
// validator fleet. Grounded on the teacher's GovernanceSystem: a single
// mutex-guarded struct holding proposals and votes in maps keyed by ID,
// mutated only through exported methods, with a clock read replacing the
// teacher's time.Now() governance-timing checks.
package governance

import (
	"sync"

	"stakecore/chain/clock"
	"stakecore/chain/types"
	"stakecore/chain/validator"
	"stakecore/chain/wad"
)

// ValidatorRegistry is the capability Governance needs from the Factory:
// looking up a validator's boost-receiving surface, confirming a candidate
// address is actually a registered validator before a boost proposal names
// it, and filtering that candidate set down to claimed validators only.
type ValidatorRegistry interface {
	BoostTargetByAddress(addr types.Address) (validator.BoostTarget, bool)
	IsRegisteredValidator(addr types.Address) bool
	IsClaimedValidator(addr types.Address) bool
}

// BankLedger is the capability Governance needs to fund vote-reward and
// boost-reward payouts: a self-scoped transfer out of Governance's own
// pre-funded balance, the same shape every validator uses to pay out of
// its own custody (ledger.View.Transfer).
type BankLedger interface {
	Transfer(to types.Address, amount *wad.U256) error
}

// ProposalKind distinguishes a plain multiple-choice proposal (whose
// reward, if any, pays back to the voters themselves) from a boost
// proposal (whose reward pays out to the validators the votes were cast
// for).
type ProposalKind uint8

const (
	KindRegular ProposalKind = iota
	KindBoost
)

// Proposal is a single governance vote, regular or boost. Choice IDs run
// 0..NumChoices-1; for a boost proposal, choice i corresponds to
// Validators[i].
type Proposal struct {
	ID         uint64
	Kind       ProposalKind
	Creator    types.Address
	NumChoices uint64

	VotingStart uint64
	VotingEnd   uint64
	Cancelled   bool

	ChoiceWeights   map[uint64]*wad.U256
	TotalVoteWeight *wad.U256

	// Regular-only.
	VoteReward     *wad.U256
	RewardExecuted bool

	// Boost-only.
	Validators  []types.Address
	BoostReward *wad.U256
	BoostStart  uint64
	BoostEnd    uint64
	Distributed bool
}

type voteRecord struct {
	ChoiceID uint64
	Weight   *wad.U256
	Claimed  bool
}

// Governance is the single per-deployment voting engine. It reads voting
// power from the master validator's veBalance and, on boost proposals,
// writes reward windows directly onto the validators named as choices.
type Governance struct {
	mu sync.Mutex

	address types.Address
	admin   types.Address
	clock   clock.Clock
	master  validator.MasterHandle
	reg     ValidatorRegistry
	bank    BankLedger
	events  types.Sink

	nextProposalID uint64
	proposals      map[uint64]*Proposal
	votes          map[uint64]map[types.Address]*voteRecord
	userTotalVotes map[types.Address]*wad.U256
}

// Config wires a Governance instance to its collaborators. Ledger is the
// bank Governance pays vote and boost rewards out of; it must be funded
// (minted or transferred into Governance's derived address) out of band
// before any reward leaves it — the same way a validator's own balance is
// funded before it can pay claims.
type Config struct {
	Address types.Address
	Admin   types.Address
	Clock   clock.Clock
	Master  validator.MasterHandle
	Factory ValidatorRegistry
	Ledger  BankLedger
	Events  types.Sink
}

func New(cfg Config) *Governance {
	return &Governance{
		address:        cfg.Address,
		admin:          cfg.Admin,
		clock:          cfg.Clock,
		master:         cfg.Master,
		reg:            cfg.Factory,
		bank:           cfg.Ledger,
		events:         cfg.Events,
		nextProposalID: 1,
		proposals:      make(map[uint64]*Proposal),
		votes:          make(map[uint64]map[types.Address]*voteRecord),
		userTotalVotes: make(map[types.Address]*wad.U256),
	}
}

// Address satisfies validator.GovernanceHandle: the identity Governance
// presents as "caller" when it invokes StakeFor / AddBoostReward back on
// the validators it governs.
func (g *Governance) Address() types.Address { return g.address }

func (g *Governance) userVotesLocked(user types.Address) *wad.U256 {
	if w, ok := g.userTotalVotes[user]; ok {
		return w
	}
	return wad.Zero()
}

// CreateProposal opens a plain multiple-choice vote. Admin-gated: proposal
// scheduling is a protocol parameter, not a permissionless action.
func (g *Governance) CreateProposal(caller types.Address, start, end uint64, numChoices uint64) (*Proposal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if caller != g.admin {
		return nil, types.ErrNotAdmin
	}
	if end <= start {
		return nil, types.ErrEndTimeBeforeStartTime
	}
	if numChoices == 0 {
		return nil, types.ErrNoSuchOption
	}

	p := &Proposal{
		ID:              g.nextProposalID,
		Kind:            KindRegular,
		Creator:         caller,
		NumChoices:      numChoices,
		VotingStart:     start,
		VotingEnd:       end,
		ChoiceWeights:   make(map[uint64]*wad.U256),
		TotalVoteWeight: wad.Zero(),
	}
	g.proposals[p.ID] = p
	g.votes[p.ID] = make(map[types.Address]*voteRecord)
	g.nextProposalID++

	g.emit(types.ProposalCreated{ID: p.ID, IsBoost: false})
	return p, nil
}

// CreateBoostProposal opens a vote whose choices are validators: the
// reward is distributed across them proportionally to the stake weight
// each one collects.
func (g *Governance) CreateBoostProposal(caller types.Address, start, end uint64, validators []types.Address, boostReward *wad.U256, boostStart, boostEnd uint64) (*Proposal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if caller != g.admin {
		return nil, types.ErrNotAdmin
	}
	if end <= start {
		return nil, types.ErrEndTimeBeforeStartTime
	}
	if len(validators) == 0 {
		return nil, types.ErrNoSuchOption
	}
	if wad.IsZero(boostReward) {
		return nil, types.ErrInvalidBoostReward
	}
	if boostEnd <= boostStart {
		return nil, types.ErrWrongBoostTime
	}
	// Snapshot the candidate list down to validators that are claimed: an
	// unclaimed (unowned) secondary validator never collects boost reward.
	claimed := make([]types.Address, 0, len(validators))
	for _, addr := range validators {
		if !g.reg.IsRegisteredValidator(addr) {
			return nil, types.ErrNotRegisteredValidator
		}
		if g.reg.IsClaimedValidator(addr) {
			claimed = append(claimed, addr)
		}
	}
	if len(claimed) == 0 {
		return nil, types.ErrNoSuchOption
	}

	p := &Proposal{
		ID:              g.nextProposalID,
		Kind:            KindBoost,
		Creator:         caller,
		NumChoices:      uint64(len(claimed)),
		VotingStart:     start,
		VotingEnd:       end,
		ChoiceWeights:   make(map[uint64]*wad.U256),
		TotalVoteWeight: wad.Zero(),
		Validators:      claimed,
		BoostReward:     boostReward,
		BoostStart:      boostStart,
		BoostEnd:        boostEnd,
	}
	g.proposals[p.ID] = p
	g.votes[p.ID] = make(map[types.Address]*voteRecord)
	g.nextProposalID++

	g.emit(types.BoostProposalCreated{ID: p.ID, BoostReward: boostReward.ToBig(), ValidatorCount: len(validators)})
	return p, nil
}

// Vote casts weight-percent of caller's unused veBalance onto a choice.
// weight is a percentage in [1,100] of the caller's remaining (not yet
// committed to another open proposal) voting power, matching
// stake_weight = ((veBalance - userTotalVotes) * weight) / 100.
func (g *Governance) Vote(caller types.Address, proposalID uint64, choiceID uint64, weight uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.proposals[proposalID]
	if !ok {
		return types.ErrNoSuchOption
	}
	if p.Cancelled {
		return types.ErrWrongStatus
	}
	if weight == 0 || weight > 100 {
		return types.ErrInvalidWeight
	}
	if choiceID >= p.NumChoices {
		return types.ErrNoSuchOption
	}
	now := g.clock.Now()
	if now < p.VotingStart || now >= p.VotingEnd {
		return types.ErrVotingNotOpen
	}
	if _, voted := g.votes[proposalID][caller]; voted {
		return types.ErrUserIsVoted
	}

	veBalance := g.master.VeBalance(caller, now)
	if wad.IsZero(veBalance) {
		return types.ErrZeroVelrds
	}
	used := g.userVotesLocked(caller)
	if veBalance.Cmp(used) <= 0 {
		return types.ErrInsufficientLockAmount
	}
	available, _ := wad.Sub(veBalance, used)
	stakeWeight, _ := wad.MulDiv(available, wad.FromUint64(weight), wad.FromUint64(100))
	if wad.IsZero(stakeWeight) {
		return types.ErrNoVotes
	}

	g.votes[proposalID][caller] = &voteRecord{ChoiceID: choiceID, Weight: stakeWeight}
	existing := p.ChoiceWeights[choiceID]
	if existing == nil {
		existing = wad.Zero()
	}
	p.ChoiceWeights[choiceID] = wad.Add(existing, stakeWeight)
	p.TotalVoteWeight = wad.Add(p.TotalVoteWeight, stakeWeight)
	g.userTotalVotes[caller] = wad.Add(used, stakeWeight)

	g.emit(types.Voted{User: caller, ProposalID: proposalID, ChoiceID: choiceID, StakeWeight: stakeWeight.ToBig()})
	return nil
}

// SetVoteReward funds a regular proposal's post-close voter payout.
// One-shot: a proposal's reward amount doesn't change once set.
func (g *Governance) SetVoteReward(caller types.Address, proposalID uint64, reward *wad.U256) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.proposals[proposalID]
	if !ok {
		return types.ErrNoSuchOption
	}
	if caller != g.admin {
		return types.ErrNotAdmin
	}
	if p.Kind != KindRegular {
		return types.ErrWrongStatus
	}
	if p.VoteReward != nil && !wad.IsZero(p.VoteReward) {
		return types.ErrStateUnchanged
	}
	if wad.IsZero(reward) {
		return types.ErrRewardIsZero
	}
	p.VoteReward = reward
	return nil
}

// ExecuteVoteRewardProposal closes voting on a regular proposal's reward
// pool, enabling individual voters to ClaimAndLock their share.
func (g *Governance) ExecuteVoteRewardProposal(caller types.Address, proposalID uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.proposals[proposalID]
	if !ok {
		return types.ErrNoSuchOption
	}
	if caller != g.admin {
		return types.ErrNotAdmin
	}
	if p.Kind != KindRegular {
		return types.ErrWrongStatus
	}
	now := g.clock.Now()
	if now < p.VotingEnd {
		return types.ErrVotingNotOpen
	}
	if p.VoteReward == nil || wad.IsZero(p.VoteReward) {
		return types.ErrRewardIsZero
	}
	if p.RewardExecuted {
		return types.ErrRewardDistributionNotAllowed
	}
	if wad.IsZero(p.TotalVoteWeight) {
		return types.ErrNoVotes
	}
	p.RewardExecuted = true

	g.emit(types.RewardDistributionExecuted{ID: p.ID})
	return nil
}

// ClaimAndLock pays caller's pro-rata share of an executed proposal's vote
// reward and immediately restakes it into the master lock via StakeFor,
// bypassing the deposit fee since the tokens never left the system.
func (g *Governance) ClaimAndLock(caller types.Address, proposalID uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.proposals[proposalID]
	if !ok {
		return types.ErrNoSuchOption
	}
	if p.Kind != KindRegular || !p.RewardExecuted {
		return types.ErrRewardDistributionNotAllowed
	}
	rec, voted := g.votes[proposalID][caller]
	if !voted {
		return types.ErrUserIsNotVoted
	}
	if rec.Claimed {
		return types.ErrRewardAlreadyClaimed
	}

	share, _ := wad.MulDiv(p.VoteReward, rec.Weight, p.TotalVoteWeight)
	if wad.IsZero(share) {
		return types.ErrRewardIsZero
	}
	rec.Claimed = true

	if g.bank != nil {
		if err := g.bank.Transfer(g.master.Address(), share); err != nil {
			return err
		}
	}
	if err := g.master.StakeFor(g.address, caller, share); err != nil {
		return err
	}

	g.emit(types.RewardsClaimedAndLocked{ID: p.ID, User: caller, Amount: share.ToBig()})
	return nil
}

// AddBoostReward closes a boost proposal's voting window and splits its
// reward across the named validators in proportion to the stake weight
// each one collected.
func (g *Governance) AddBoostReward(caller types.Address, proposalID uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.proposals[proposalID]
	if !ok {
		return types.ErrNoSuchOption
	}
	if caller != g.admin {
		return types.ErrNotAdmin
	}
	if p.Kind != KindBoost {
		return types.ErrWrongStatus
	}
	now := g.clock.Now()
	if now < p.VotingEnd || now > p.BoostStart {
		return types.ErrRewardDistributionNotAllowed
	}
	if p.Distributed {
		return types.ErrRewardDistributionNotAllowed
	}
	if wad.IsZero(p.TotalVoteWeight) {
		return types.ErrNoVotes
	}

	for i, addr := range p.Validators {
		choiceID := uint64(i)
		weight := p.ChoiceWeights[choiceID]
		if weight == nil || wad.IsZero(weight) {
			continue
		}
		portion, _ := wad.MulDiv(p.BoostReward, weight, p.TotalVoteWeight)
		if wad.IsZero(portion) {
			continue
		}
		target, ok := g.reg.BoostTargetByAddress(addr)
		if !ok {
			return types.ErrNotRegisteredValidator
		}
		if g.bank != nil {
			if err := g.bank.Transfer(addr, portion); err != nil {
				return err
			}
		}
		if err := target.AddBoostReward(g.address, p.BoostStart, p.BoostEnd, portion); err != nil {
			return err
		}
		g.emit(types.BoostRewardTransferred{ProposalID: p.ID, Validator: addr, Amount: portion.ToBig()})
	}

	p.Distributed = true
	g.emit(types.BoostRewardDistributed{ProposalID: p.ID, Total: p.BoostReward.ToBig()})
	return nil
}

// CancelProposal withdraws a proposal before anyone has voted on it. Once
// votes exist, the proposal has bound voting power that a cancel would
// orphan, so it's refused outright.
func (g *Governance) CancelProposal(caller types.Address, proposalID uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.proposals[proposalID]
	if !ok {
		return types.ErrNoSuchOption
	}
	if caller != g.admin && caller != p.Creator {
		return types.ErrNotAdmin
	}
	if p.Cancelled {
		return types.ErrStateUnchanged
	}
	if !wad.IsZero(p.TotalVoteWeight) {
		return types.ErrProposalHasStakedVotes
	}
	p.Cancelled = true

	if p.Kind == KindBoost {
		g.emit(types.BoostProposalCancelled{ID: p.ID})
	} else {
		g.emit(types.ProposalCancelled{ID: p.ID})
	}
	return nil
}

// ResetVotes clears a user's committed voting-power budget. Called by the
// master validator when a lock is fully withdrawn: the user's veBalance
// has dropped to zero, so any standing "used" budget is moot until they
// lock again.
func (g *Governance) ResetVotes(caller types.Address, user types.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if caller != g.master.Address() {
		return types.ErrNotValidator
	}
	delete(g.userTotalVotes, user)
	return nil
}

// GetProposal is the read-only lookup used by monitoring/CLI.
func (g *Governance) GetProposal(id uint64) (*Proposal, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.proposals[id]
	return p, ok
}

func (g *Governance) emit(e types.Event) {
	if g.events != nil {
		g.events.Emit(e)
	}
}
