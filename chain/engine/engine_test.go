package engine

import (
	"path/filepath"
	"testing"

	"stakecore/chain/clock"
	"stakecore/chain/config"
	"stakecore/chain/types"
)

func addr(b byte) types.Address {
	var a types.Address
	a[len(a)-1] = b
	return a
}

func newTestEngine(t *testing.T, storePath string) *Engine {
	t.Helper()
	admin := addr(1)
	owner := addr(2)
	genesis := config.Default(admin, admin, owner)

	e, err := New(Config{
		Genesis:           genesis,
		MetricsListenAddr: "127.0.0.1:0",
		Clock:             clock.NewMock(1000),
		StorePath:         storePath,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNewBootstrapsMasterAndGovernance(t *testing.T) {
	e := newTestEngine(t, "")
	if e.Master == nil {
		t.Fatal("expected a bootstrapped master validator")
	}
	if e.Governance == nil {
		t.Fatal("expected a wired governance instance")
	}
	if e.Store != nil {
		t.Fatal("expected a nil store when StorePath is empty")
	}
}

func TestCreateValidatorRegistersSecondary(t *testing.T) {
	e := newTestEngine(t, "")
	owner := addr(10)
	v, err := e.CreateValidator(addr(1), owner, 3, addr(20))
	if err != nil {
		t.Fatalf("CreateValidator: %v", err)
	}
	if !e.Factory.IsRegisteredValidator(v.Address()) {
		t.Fatal("secondary validator should be registered on the factory")
	}
}

func TestCheckpointWithoutStoreIsNoop(t *testing.T) {
	e := newTestEngine(t, "")
	if err := e.Checkpoint(); err != nil {
		t.Fatalf("Checkpoint should be a no-op without a store: %v", err)
	}
}

func TestCheckpointPersistsFactoryTotals(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "engine-store")
	e := newTestEngine(t, storePath)
	defer e.Stop()

	if _, err := e.CreateValidator(addr(1), addr(10), 3, addr(20)); err != nil {
		t.Fatalf("CreateValidator: %v", err)
	}
	if err := e.Checkpoint(); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}

	totals, ok, err := e.Store.LoadFactoryTotals()
	if err != nil {
		t.Fatalf("LoadFactoryTotals: %v", err)
	}
	if !ok {
		t.Fatal("expected a persisted factory-totals record after Checkpoint")
	}
	if totals.TotalStakedWallet != e.Factory.TotalStakedWallets() {
		t.Fatalf("TotalStakedWallet = %d, want %d", totals.TotalStakedWallet, e.Factory.TotalStakedWallets())
	}
}
