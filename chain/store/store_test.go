package store

import (
	"path/filepath"
	"testing"

	"stakecore/chain/types"
)

func addr(b byte) types.Address {
	var a types.Address
	a[len(a)-1] = b
	return a
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadMissingUserReturnsFalse(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.LoadUser(addr(1), addr(2))
	if err != nil {
		t.Fatalf("LoadUser: %v", err)
	}
	if ok {
		t.Fatal("expected no record for an unsaved user")
	}
}

func TestSaveAndLoadUser(t *testing.T) {
	s := openTestStore(t)
	validator := addr(1)
	user := addr(2)
	rec := UserRecord{
		Amount:        "1000000000000000000",
		LockStartTime: 100,
		LockEndTime:   200,
		RewardDebt:    "0",
		BoostDebt:     "0",
		AutoMax:       true,
	}
	if err := s.SaveUser(validator, user, rec); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	loaded, ok, err := s.LoadUser(validator, user)
	if err != nil {
		t.Fatalf("LoadUser: %v", err)
	}
	if !ok {
		t.Fatal("expected a record after SaveUser")
	}
	if loaded.Amount != rec.Amount || loaded.AutoMax != rec.AutoMax || loaded.LockEndTime != rec.LockEndTime {
		t.Fatalf("loaded = %+v, want %+v", loaded, rec)
	}
}

func TestSaveAndLoadRewardPeriodIndexedDistinctly(t *testing.T) {
	s := openTestStore(t)
	validator := addr(3)
	p0 := PeriodRecord{StartTime: 0, EndTime: 100, TotalReward: "1000", AccTokenPerShare: "0", IsActive: false}
	p1 := PeriodRecord{StartTime: 100, EndTime: 200, TotalReward: "2000", AccTokenPerShare: "500", IsActive: true}

	if err := s.SaveRewardPeriod(validator, 0, p0); err != nil {
		t.Fatalf("SaveRewardPeriod 0: %v", err)
	}
	if err := s.SaveRewardPeriod(validator, 1, p1); err != nil {
		t.Fatalf("SaveRewardPeriod 1: %v", err)
	}

	loaded0, ok, err := s.LoadRewardPeriod(validator, 0)
	if err != nil || !ok {
		t.Fatalf("LoadRewardPeriod 0: ok=%v err=%v", ok, err)
	}
	if loaded0.TotalReward != p0.TotalReward {
		t.Fatalf("period 0 TotalReward = %s, want %s", loaded0.TotalReward, p0.TotalReward)
	}

	loaded1, ok, err := s.LoadRewardPeriod(validator, 1)
	if err != nil || !ok {
		t.Fatalf("LoadRewardPeriod 1: ok=%v err=%v", ok, err)
	}
	if loaded1.IsActive != p1.IsActive {
		t.Fatal("period 1 should remain active")
	}
}

func TestRewardPeriodAndBoostRewardKeysDoNotCollide(t *testing.T) {
	s := openTestStore(t)
	validator := addr(4)
	if err := s.SaveRewardPeriod(validator, 0, PeriodRecord{TotalReward: "111"}); err != nil {
		t.Fatalf("SaveRewardPeriod: %v", err)
	}
	if err := s.SaveBoostReward(validator, 0, PeriodRecord{TotalReward: "222"}); err != nil {
		t.Fatalf("SaveBoostReward: %v", err)
	}

	reward, ok, err := s.LoadRewardPeriod(validator, 0)
	if err != nil || !ok {
		t.Fatalf("LoadRewardPeriod: ok=%v err=%v", ok, err)
	}
	boost, ok, err := s.LoadBoostReward(validator, 0)
	if err != nil || !ok {
		t.Fatalf("LoadBoostReward: ok=%v err=%v", ok, err)
	}
	if reward.TotalReward == boost.TotalReward {
		t.Fatal("reward-period and boost-reward records at index 0 should not collide")
	}
}

func TestSaveAndLoadProposalAndVote(t *testing.T) {
	s := openTestStore(t)
	gov := addr(5)
	user := addr(6)

	prop := ProposalRecord{
		Kind:            0,
		Creator:         gov.Hex(),
		NumChoices:      2,
		VotingStart:     0,
		VotingEnd:       1000,
		ChoiceWeights:   map[string]string{"0": "100", "1": "0"},
		TotalVoteWeight: "100",
	}
	if err := s.SaveProposal(gov, 1, prop); err != nil {
		t.Fatalf("SaveProposal: %v", err)
	}
	loaded, ok, err := s.LoadProposal(gov, 1)
	if err != nil || !ok {
		t.Fatalf("LoadProposal: ok=%v err=%v", ok, err)
	}
	if loaded.TotalVoteWeight != prop.TotalVoteWeight {
		t.Fatalf("TotalVoteWeight = %s, want %s", loaded.TotalVoteWeight, prop.TotalVoteWeight)
	}

	vote := VoteRecord{ChoiceID: 0, Weight: "100", Claimed: false}
	if err := s.SaveVote(gov, 1, user, vote); err != nil {
		t.Fatalf("SaveVote: %v", err)
	}
	loadedVote, ok, err := s.LoadVote(gov, 1, user)
	if err != nil || !ok {
		t.Fatalf("LoadVote: ok=%v err=%v", ok, err)
	}
	if loadedVote.ChoiceID != vote.ChoiceID {
		t.Fatalf("ChoiceID = %d, want %d", loadedVote.ChoiceID, vote.ChoiceID)
	}
}

func TestSaveAndLoadFactoryTotals(t *testing.T) {
	s := openTestStore(t)
	totals := FactoryTotals{TotalStakedAmount: "5000000000000000000000", TotalStakedWallet: 7}
	if err := s.SaveFactoryTotals(totals); err != nil {
		t.Fatalf("SaveFactoryTotals: %v", err)
	}
	loaded, ok, err := s.LoadFactoryTotals()
	if err != nil || !ok {
		t.Fatalf("LoadFactoryTotals: ok=%v err=%v", ok, err)
	}
	if loaded.TotalStakedWallet != totals.TotalStakedWallet {
		t.Fatalf("TotalStakedWallet = %d, want %d", loaded.TotalStakedWallet, totals.TotalStakedWallet)
	}
}

func TestOverwriteReplacesPreviousRecord(t *testing.T) {
	s := openTestStore(t)
	validator := addr(7)
	user := addr(8)

	if err := s.SaveUser(validator, user, UserRecord{Amount: "100"}); err != nil {
		t.Fatalf("SaveUser first: %v", err)
	}
	if err := s.SaveUser(validator, user, UserRecord{Amount: "999"}); err != nil {
		t.Fatalf("SaveUser second: %v", err)
	}
	loaded, ok, err := s.LoadUser(validator, user)
	if err != nil || !ok {
		t.Fatalf("LoadUser: ok=%v err=%v", ok, err)
	}
	if loaded.Amount != "999" {
		t.Fatalf("Amount = %s, want 999 after overwrite", loaded.Amount)
	}
}
