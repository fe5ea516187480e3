package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"stakecore/chain/types"
	"stakecore/chain/wad"
)

func TestDefaultValidates(t *testing.T) {
	admin := types.BytesToAddress([]byte("admin"))
	pauser := types.BytesToAddress([]byte("pauser"))
	owner := types.BytesToAddress([]byte("owner"))

	cfg := Default(admin, pauser, owner)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() should validate cleanly: %v", err)
	}
}

func TestValidateRejectsInvertedLockBounds(t *testing.T) {
	admin := types.BytesToAddress([]byte("admin"))
	cfg := Default(admin, admin, admin)
	cfg.MinLockSeconds = cfg.MaxLockSeconds
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error when min >= max lock seconds")
	}
}

func TestValidateRejectsFeeAboveCeiling(t *testing.T) {
	admin := types.BytesToAddress([]byte("admin"))
	cfg := Default(admin, admin, admin)
	cfg.DepositFeeBps = 101
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error when depositFeeBps exceeds the ceiling")
	}
}

func TestValidateRejectsBadAddress(t *testing.T) {
	admin := types.BytesToAddress([]byte("admin"))
	cfg := Default(admin, admin, admin)
	cfg.Owner = "not-an-address"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a malformed owner address")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	admin := types.BytesToAddress([]byte("admin"))
	cfg := Default(admin, admin, admin)

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ChainID != cfg.ChainID {
		t.Fatalf("ChainID = %d, want %d", loaded.ChainID, cfg.ChainID)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/genesis.json"); err == nil {
		t.Fatal("expected an error for a missing genesis file")
	}
}

func TestMinAmountsScalesByMultiplier(t *testing.T) {
	admin := types.BytesToAddress([]byte("admin"))
	cfg := Default(admin, admin, admin)
	amounts := cfg.MinAmounts()
	threshold, ok := amounts[3]
	if !ok {
		t.Fatal("expected a quality-3 threshold")
	}
	want := new(wad.U256).Mul(wad.FromUint64(400), wad.MULTIPLIER)
	if threshold.Cmp(want) != 0 {
		t.Fatalf("quality-3 threshold = %s, want 400 * MULTIPLIER = %s", threshold.String(), want.String())
	}
}
