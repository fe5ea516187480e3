// Package store persists validator and governance state to leveldb,
// grounded on the teacher's chain/node.StateDB: a single *leveldb.DB
// wrapped in a mutex-free thin struct, keyed by byte-slice prefixes, with
// JSON-encoded records for anything richer than a scalar. The accounting
// engine itself is pure in-memory; Store is an optional write-behind
// snapshot layer a caller drives explicitly after mutating calls.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"stakecore/chain/types"
)

// Store wraps a leveldb handle with the composite-key helpers the engine's
// persisted state layout calls for: validator user/period/boost records,
// and governance proposal/vote records.
type Store struct {
	db *leveldb.DB
}

// Open creates or reopens a leveldb database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) put(key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: marshal: %w", err)
	}
	return s.db.Put(key, data, nil)
}

func (s *Store) get(key []byte, v interface{}) (bool, error) {
	data, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: get: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("store: unmarshal: %w", err)
	}
	return true, nil
}

func userKey(validator, user types.Address) []byte {
	return append([]byte("v/"+validator.Hex()+"/user/"), user.Bytes()...)
}

func periodKey(validator types.Address, i uint64) []byte {
	return indexedKey("v/"+validator.Hex()+"/period/", i)
}

func boostKey(validator types.Address, i uint64) []byte {
	return indexedKey("v/"+validator.Hex()+"/boost/", i)
}

func proposalKey(governance types.Address, id uint64) []byte {
	return indexedKey("g/"+governance.Hex()+"/proposal/", id)
}

func voteKey(governance types.Address, proposalID uint64, user types.Address) []byte {
	prefix := []byte(fmt.Sprintf("g/%s/vote/%d/", governance.Hex(), proposalID))
	return append(prefix, user.Bytes()...)
}

func indexedKey(prefix string, i uint64) []byte {
	idxBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idxBytes, i)
	return append([]byte(prefix), idxBytes...)
}

// UserRecord is the persisted shape of a validator's per-user lock state.
type UserRecord struct {
	Amount        string `json:"amount"`
	LockStartTime uint64 `json:"lockStartTime"`
	LockEndTime   uint64 `json:"lockEndTime"`
	RewardDebt    string `json:"rewardDebt"`
	BoostDebt     string `json:"boostDebt"`
	AutoMax       bool   `json:"autoMax"`
}

func (s *Store) SaveUser(validator, user types.Address, rec UserRecord) error {
	return s.put(userKey(validator, user), rec)
}

func (s *Store) LoadUser(validator, user types.Address) (UserRecord, bool, error) {
	var rec UserRecord
	ok, err := s.get(userKey(validator, user), &rec)
	return rec, ok, err
}

// PeriodRecord is the persisted shape of one reward or boost window; the
// same shape serves both RewardPeriod and BoostReward since their fields
// are identical.
type PeriodRecord struct {
	StartTime        uint64 `json:"startTime"`
	EndTime          uint64 `json:"endTime"`
	TotalReward      string `json:"totalReward"`
	AccTokenPerShare string `json:"accTokenPerShare"`
	LastRewardTime   uint64 `json:"lastRewardTime"`
	IsActive         bool   `json:"isActive"`
}

func (s *Store) SaveRewardPeriod(validator types.Address, i uint64, rec PeriodRecord) error {
	return s.put(periodKey(validator, i), rec)
}

func (s *Store) LoadRewardPeriod(validator types.Address, i uint64) (PeriodRecord, bool, error) {
	var rec PeriodRecord
	ok, err := s.get(periodKey(validator, i), &rec)
	return rec, ok, err
}

func (s *Store) SaveBoostReward(validator types.Address, i uint64, rec PeriodRecord) error {
	return s.put(boostKey(validator, i), rec)
}

func (s *Store) LoadBoostReward(validator types.Address, i uint64) (PeriodRecord, bool, error) {
	var rec PeriodRecord
	ok, err := s.get(boostKey(validator, i), &rec)
	return rec, ok, err
}

// ProposalRecord is the persisted shape of a governance proposal, regular
// or boost.
type ProposalRecord struct {
	Kind            uint8             `json:"kind"`
	Creator         string            `json:"creator"`
	NumChoices      uint64            `json:"numChoices"`
	VotingStart     uint64            `json:"votingStart"`
	VotingEnd       uint64            `json:"votingEnd"`
	Cancelled       bool              `json:"cancelled"`
	ChoiceWeights   map[string]string `json:"choiceWeights"`
	TotalVoteWeight string            `json:"totalVoteWeight"`
	VoteReward      string            `json:"voteReward,omitempty"`
	RewardExecuted  bool              `json:"rewardExecuted,omitempty"`
	Validators      []string          `json:"validators,omitempty"`
	BoostReward     string            `json:"boostReward,omitempty"`
	BoostStart      uint64            `json:"boostStart,omitempty"`
	BoostEnd        uint64            `json:"boostEnd,omitempty"`
	Distributed     bool              `json:"distributed,omitempty"`
}

func (s *Store) SaveProposal(governance types.Address, id uint64, rec ProposalRecord) error {
	return s.put(proposalKey(governance, id), rec)
}

func (s *Store) LoadProposal(governance types.Address, id uint64) (ProposalRecord, bool, error) {
	var rec ProposalRecord
	ok, err := s.get(proposalKey(governance, id), &rec)
	return rec, ok, err
}

// VoteRecord is one user's cast vote on a proposal.
type VoteRecord struct {
	ChoiceID uint64 `json:"choiceId"`
	Weight   string `json:"weight"`
	Claimed  bool   `json:"claimed"`
}

func (s *Store) SaveVote(governance types.Address, proposalID uint64, user types.Address, rec VoteRecord) error {
	return s.put(voteKey(governance, proposalID, user), rec)
}

func (s *Store) LoadVote(governance types.Address, proposalID uint64, user types.Address) (VoteRecord, bool, error) {
	var rec VoteRecord
	ok, err := s.get(voteKey(governance, proposalID, user), &rec)
	return rec, ok, err
}

// FactoryTotals is the persisted shape of the factory's aggregate counters.
type FactoryTotals struct {
	TotalStakedAmount string `json:"totalStakedAmount"`
	TotalStakedWallet uint64 `json:"totalStakedWallet"`
}

func factoryTotalsKey() []byte { return []byte("factory/totals") }

func (s *Store) SaveFactoryTotals(rec FactoryTotals) error {
	return s.put(factoryTotalsKey(), rec)
}

func (s *Store) LoadFactoryTotals() (FactoryTotals, bool, error) {
	var rec FactoryTotals
	ok, err := s.get(factoryTotalsKey(), &rec)
	return rec, ok, err
}
