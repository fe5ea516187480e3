package factory

import (
	"testing"

	"stakecore/chain/clock"
	"stakecore/chain/ledger"
	"stakecore/chain/types"
	"stakecore/chain/wad"
)

func addr(b byte) types.Address {
	var a types.Address
	a[len(a)-1] = b
	return a
}

func newTestFactory() (*Factory, types.Address, types.Address) {
	admin := addr(1)
	pauser := addr(2)
	ldg := ledger.NewInMemory(admin)
	f := New(Config{
		Admin:   admin,
		Pauser:  pauser,
		Ledger:  ldg,
		Clock:   clock.NewMock(0),
		ChainID: 1,
	})
	return f, admin, pauser
}

func TestBootstrapCreatesMaster(t *testing.T) {
	f, admin, _ := newTestFactory()
	owner := addr(10)

	if f.Master() != nil {
		t.Fatal("master should be nil before Bootstrap")
	}
	master, err := f.Bootstrap(admin, owner, 604800, 126144000)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if master.Address().IsZero() {
		t.Fatal("master should have a nonzero derived address")
	}
	if f.Master() != master {
		t.Fatal("Master() should return the bootstrapped validator")
	}
}

func TestBootstrapRejectsNonAdmin(t *testing.T) {
	f, _, _ := newTestFactory()
	notAdmin := addr(99)
	if _, err := f.Bootstrap(notAdmin, addr(10), 604800, 126144000); err != types.ErrNotAdmin {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
}

func TestBootstrapRejectsSecondCall(t *testing.T) {
	f, admin, _ := newTestFactory()
	if _, err := f.Bootstrap(admin, addr(10), 604800, 126144000); err != nil {
		t.Fatalf("first Bootstrap: %v", err)
	}
	if _, err := f.Bootstrap(admin, addr(11), 604800, 126144000); err != types.ErrStateUnchanged {
		t.Fatalf("expected ErrStateUnchanged on second Bootstrap, got %v", err)
	}
}

func TestCreateValidatorRequiresMasterFirst(t *testing.T) {
	f, admin, _ := newTestFactory()
	if _, err := f.CreateValidator(admin, addr(10), 3, addr(20), 604800, 126144000, nil); err != types.ErrWrongStatus {
		t.Fatalf("expected ErrWrongStatus before Bootstrap, got %v", err)
	}
}

func TestCreateValidatorRejectsBadQuality(t *testing.T) {
	f, admin, _ := newTestFactory()
	if _, err := f.Bootstrap(admin, addr(10), 604800, 126144000); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if _, err := f.CreateValidator(admin, addr(11), 1, addr(20), 604800, 126144000, nil); err != types.ErrQualityWrong {
		t.Fatalf("expected ErrQualityWrong for quality 1, got %v", err)
	}
	if _, err := f.CreateValidator(admin, addr(11), 8, addr(20), 604800, 126144000, nil); err != types.ErrQualityWrong {
		t.Fatalf("expected ErrQualityWrong for quality 8, got %v", err)
	}
}

func TestCreateValidatorRegistersAndWiresMaster(t *testing.T) {
	f, admin, _ := newTestFactory()
	master, err := f.Bootstrap(admin, addr(10), 604800, 126144000)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	secondary, err := f.CreateValidator(admin, addr(11), 3, addr(20), 604800, 126144000, nil)
	if err != nil {
		t.Fatalf("CreateValidator: %v", err)
	}
	if !f.IsRegisteredValidator(secondary.Address()) {
		t.Fatal("secondary validator should be registered")
	}
	if !f.IsRegisteredValidator(master.Address()) {
		t.Fatal("master validator should be registered")
	}
	if _, ok := f.ValidatorByAddress(secondary.Address()); !ok {
		t.Fatal("ValidatorByAddress should find the secondary validator")
	}
}

func TestTotalStakedCountersGatedToRegisteredValidators(t *testing.T) {
	f, admin, _ := newTestFactory()
	if _, err := f.Bootstrap(admin, addr(10), 604800, 126144000); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	stranger := addr(77)
	if err := f.AddTotalStakedAmount(stranger, wad.FromTokens(1)); err != types.ErrNotValidator {
		t.Fatalf("expected ErrNotValidator for an unregistered caller, got %v", err)
	}
}

func TestGetAllValidatorDataPagination(t *testing.T) {
	f, admin, _ := newTestFactory()
	if _, err := f.Bootstrap(admin, addr(10), 604800, 126144000); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	for i := byte(0); i < 3; i++ {
		if _, err := f.CreateValidator(admin, addr(20+i), 3, addr(30+i), 604800, 126144000, nil); err != nil {
			t.Fatalf("CreateValidator %d: %v", i, err)
		}
	}
	page, err := f.GetAllValidatorData(0, 2)
	if err != nil {
		t.Fatalf("GetAllValidatorData: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page length = %d, want 2", len(page))
	}
	if _, err := f.GetAllValidatorData(100, 1); err != types.ErrPageOutOfBounds {
		t.Fatalf("expected ErrPageOutOfBounds for offset beyond the end, got %v", err)
	}
}

func TestSetMinAmountForQualityRejectsBadTier(t *testing.T) {
	f, admin, _ := newTestFactory()
	if err := f.SetMinAmountForQuality(admin, 8, wad.FromTokens(1)); err != types.ErrQualityWrong {
		t.Fatalf("expected ErrQualityWrong, got %v", err)
	}
}

func TestIsClaimedValidatorTracksMasterAndSecondary(t *testing.T) {
	f, admin, _ := newTestFactory()
	master, err := f.Bootstrap(admin, addr(10), 604800, 126144000)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if !f.IsClaimedValidator(master.Address()) {
		t.Fatal("master should be claimed from construction")
	}

	secondary, err := f.CreateValidator(admin, addr(11), 3, addr(20), 604800, 126144000, nil)
	if err != nil {
		t.Fatalf("CreateValidator: %v", err)
	}
	if f.IsClaimedValidator(secondary.Address()) {
		t.Fatal("freshly created secondary validator should not be claimed yet")
	}

	if f.IsClaimedValidator(addr(99)) {
		t.Fatal("an unregistered address should never report claimed")
	}
}

func TestAddTotalValidatorsRecordsAggregatePeriod(t *testing.T) {
	f, admin, _ := newTestFactory()
	if err := f.AddTotalValidators(admin, 1000, 2000, wad.FromTokens(500)); err != nil {
		t.Fatalf("AddTotalValidators: %v", err)
	}
	periods := f.TotalValidatorPeriods()
	if len(periods) != 1 {
		t.Fatalf("periods = %d, want 1", len(periods))
	}
	if periods[0].StartTime != 1000 || periods[0].EndTime != 2000 {
		t.Fatalf("period window = [%d, %d), want [1000, 2000)", periods[0].StartTime, periods[0].EndTime)
	}
	if periods[0].TotalReward.Cmp(wad.FromTokens(500)) != 0 {
		t.Fatalf("total reward = %s, want 500", periods[0].TotalReward.String())
	}
}

func TestAddTotalValidatorsRejectsBadWindow(t *testing.T) {
	f, admin, _ := newTestFactory()
	if err := f.AddTotalValidators(admin, 2000, 1000, wad.FromTokens(500)); err != types.ErrInvalidTimePeriod {
		t.Fatalf("expected ErrInvalidTimePeriod for end <= start, got %v", err)
	}
}

func TestAddTotalValidatorsRejectsNonAdmin(t *testing.T) {
	f, _, _ := newTestFactory()
	notAdmin := addr(99)
	if err := f.AddTotalValidators(notAdmin, 1000, 2000, wad.FromTokens(500)); err != types.ErrNotAdmin {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
}
