// Package config loads the genesis-style protocol parameters the engine
// is bootstrapped with: quality thresholds, fee caps, and lock-duration
// bounds. Grounded on the teacher's GenesisConfig/ChainConfig: a JSON file
// unmarshalled into a typed struct, then validated before use.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"stakecore/chain/types"
	"stakecore/chain/wad"
)

// QualityThreshold pairs a validator tier with the minimum whole-token
// stake required to create the master lock entry that unlocks it.
type QualityThreshold struct {
	Quality   uint8  `json:"quality"`
	MinAmount uint64 `json:"minAmount"`
}

// GenesisConfig is the full set of parameters an engine deployment is
// bootstrapped from.
type GenesisConfig struct {
	ChainID uint64 `json:"chainId"`

	Admin  string `json:"admin"`
	Pauser string `json:"pauser"`
	Owner  string `json:"owner"`

	MinLockSeconds uint64 `json:"minLockSeconds"`
	MaxLockSeconds uint64 `json:"maxLockSeconds"`

	DepositFeeBps uint64 `json:"depositFeeBps"`
	ClaimFeeBps   uint64 `json:"claimFeeBps"`

	QualityThresholds []QualityThreshold `json:"qualityThresholds"`
}

// Default seconds-based lock bounds: a one-week minimum commitment and a
// four-year ceiling on any single lock or auto-max renewal window.
const (
	DefaultMinLockSeconds = 7 * 24 * 60 * 60
	DefaultMaxLockSeconds = 4 * 365 * 24 * 60 * 60
)

// Default loads the protocol's out-of-the-box parameters, used when no
// genesis file is supplied.
func Default(admin, pauser, owner types.Address) *GenesisConfig {
	return &GenesisConfig{
		ChainID:        1,
		Admin:          admin.Hex(),
		Pauser:         pauser.Hex(),
		Owner:          owner.Hex(),
		MinLockSeconds: DefaultMinLockSeconds,
		MaxLockSeconds: DefaultMaxLockSeconds,
		DepositFeeBps:  0,
		ClaimFeeBps:    0,
		QualityThresholds: []QualityThreshold{
			{Quality: 3, MinAmount: 400},
			{Quality: 4, MinAmount: 1000},
			{Quality: 5, MinAmount: 3000},
			{Quality: 6, MinAmount: 5000},
			{Quality: 7, MinAmount: 10000},
		},
	}
}

// Load reads and validates a genesis configuration file.
func Load(path string) (*GenesisConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config: genesis file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read genesis file: %w", err)
	}

	var cfg GenesisConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse genesis file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid genesis file: %w", err)
	}
	return &cfg, nil
}

// Validate checks structural invariants the engine assumes hold before it
// ever calls factory.Bootstrap.
func (g *GenesisConfig) Validate() error {
	if g.ChainID == 0 {
		return fmt.Errorf("config: chainId must be greater than 0")
	}
	if _, err := types.HexToAddress(g.Admin); err != nil {
		return fmt.Errorf("config: invalid admin address %q: %w", g.Admin, err)
	}
	if _, err := types.HexToAddress(g.Pauser); err != nil {
		return fmt.Errorf("config: invalid pauser address %q: %w", g.Pauser, err)
	}
	if _, err := types.HexToAddress(g.Owner); err != nil {
		return fmt.Errorf("config: invalid owner address %q: %w", g.Owner, err)
	}
	if g.MaxLockSeconds <= g.MinLockSeconds {
		return fmt.Errorf("config: maxLockSeconds must exceed minLockSeconds")
	}
	if g.DepositFeeBps > 100 {
		return fmt.Errorf("config: depositFeeBps exceeds the 100bps protocol ceiling")
	}
	if g.ClaimFeeBps > 500 {
		return fmt.Errorf("config: claimFeeBps exceeds the 500bps protocol ceiling")
	}
	for _, qt := range g.QualityThresholds {
		if qt.Quality < 2 || qt.Quality > 7 {
			return fmt.Errorf("config: quality threshold for invalid tier %d", qt.Quality)
		}
	}
	return nil
}

// AdminAddress, PauserAddress, and OwnerAddress decode the config's hex
// strings; callers hold Validate's guarantee that they parse cleanly.
func (g *GenesisConfig) AdminAddress() types.Address {
	addr, _ := types.HexToAddress(g.Admin)
	return addr
}

func (g *GenesisConfig) PauserAddress() types.Address {
	addr, _ := types.HexToAddress(g.Pauser)
	return addr
}

func (g *GenesisConfig) OwnerAddress() types.Address {
	addr, _ := types.HexToAddress(g.Owner)
	return addr
}

// MinAmounts converts the JSON threshold table into the wad-scaled map
// factory.Config expects.
func (g *GenesisConfig) MinAmounts() map[uint8]*wad.U256 {
	out := make(map[uint8]*wad.U256, len(g.QualityThresholds))
	for _, qt := range g.QualityThresholds {
		out[qt.Quality] = wad.FromTokens(qt.MinAmount)
	}
	return out
}
