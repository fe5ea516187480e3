// Package engine wires the Factory, the master validator, Governance, the
// shared ledger, and the monitoring server into one running deployment.
// Grounded on the teacher's chain/node.Node: a single Config-constructed
// struct exposing Start/Stop, holding every subsystem the binary needs so
// cmd/stakecored/main.go stays a thin cobra/viper shell around it.
package engine

import (
	"fmt"
	"time"

	"stakecore/chain/clock"
	"stakecore/chain/config"
	"stakecore/chain/factory"
	"stakecore/chain/governance"
	"stakecore/chain/ids"
	"stakecore/chain/ledger"
	"stakecore/chain/monitoring"
	"stakecore/chain/signer"
	"stakecore/chain/store"
	"stakecore/chain/types"
	"stakecore/chain/validator"
)

// Config is everything the engine needs to bootstrap a deployment: a
// genesis parameter set plus the monitoring HTTP surface.
type Config struct {
	Genesis *config.GenesisConfig

	MetricsListenAddr string
	MetricsPath       string
	HealthPath        string
	MetricsPeriod     time.Duration

	// StorePath, when set, opens a leveldb checkpoint database the engine
	// can snapshot aggregate factory counters into via Checkpoint. Left
	// empty, the engine runs purely in memory with no persistence.
	StorePath string

	Signer signer.Oracle // purchase-authorization recovery; defaults to signer.EthOracle
	Clock  clock.Clock   // defaults to clock.System
}

// Engine owns every live subsystem of a staking deployment.
type Engine struct {
	cfg Config

	Clock      clock.Clock
	Ledger     *ledger.InMemory
	Factory    *factory.Factory
	Master     *validator.Validator
	Governance *governance.Governance
	Metrics    *monitoring.Server
	Store      *store.Store // nil unless Config.StorePath was set
}

// New constructs and fully bootstraps an Engine: the ledger, the factory,
// the quality-1 master validator, and the governance instance wired back
// into that master. CreateValidator calls for the secondary fleet happen
// after New returns, via Factory.CreateValidator.
func New(cfg Config) (*Engine, error) {
	if cfg.Genesis == nil {
		return nil, fmt.Errorf("engine: genesis config is required")
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.System{}
	}
	sig := cfg.Signer
	if sig == nil {
		sig = signer.EthOracle{}
	}

	admin := cfg.Genesis.AdminAddress()
	pauser := cfg.Genesis.PauserAddress()
	owner := cfg.Genesis.OwnerAddress()

	ldg := ledger.NewInMemory(admin)

	f := factory.New(factory.Config{
		Admin:   admin,
		Pauser:  pauser,
		Ledger:  ldg,
		Clock:   clk,
		ChainID: cfg.Genesis.ChainID,
	})
	for quality, amount := range cfg.Genesis.MinAmounts() {
		if err := f.SetMinAmountForQuality(admin, quality, amount); err != nil {
			return nil, fmt.Errorf("engine: setting quality %d threshold: %w", quality, err)
		}
	}

	master, err := f.Bootstrap(admin, owner, cfg.Genesis.MinLockSeconds, cfg.Genesis.MaxLockSeconds)
	if err != nil {
		return nil, fmt.Errorf("engine: bootstrap master validator: %w", err)
	}
	if err := master.SetDepositFee(admin, cfg.Genesis.DepositFeeBps); err != nil {
		return nil, fmt.Errorf("engine: set master deposit fee: %w", err)
	}
	if err := master.SetClaimFee(admin, cfg.Genesis.ClaimFeeBps); err != nil {
		return nil, fmt.Errorf("engine: set master claim fee: %w", err)
	}

	govAddr := ids.GovernanceAddress(admin)
	gov := governance.New(governance.Config{
		Address: govAddr,
		Admin:   admin,
		Clock:   clk,
		Master:  master,
		Factory: f,
		Ledger:  ldg.As(govAddr),
	})
	if err := master.SetGovernance(admin, gov); err != nil {
		return nil, fmt.Errorf("engine: wire governance into master: %w", err)
	}

	e := &Engine{
		cfg:        cfg,
		Clock:      clk,
		Ledger:     ldg,
		Factory:    f,
		Master:     master,
		Governance: gov,
	}

	e.Metrics = monitoring.NewServer(monitoring.Config{
		ListenAddr:    cfg.MetricsListenAddr,
		MetricsPath:   firstNonEmpty(cfg.MetricsPath, "/metrics"),
		HealthPath:    firstNonEmpty(cfg.HealthPath, "/healthz"),
		RefreshPeriod: cfg.MetricsPeriod,
		Factory:       f,
		Governance:    gov,
	})

	if cfg.StorePath != "" {
		st, err := store.Open(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("engine: open store: %w", err)
		}
		e.Store = st
	}

	return e, nil
}

// Checkpoint snapshots the factory's aggregate staking counters to Store.
// It is a no-op if the engine was built without a StorePath. Per-user and
// per-period state stays in memory only: the accounting engine recomputes
// it on every call, so checkpointing it would duplicate rather than back up
// state, and the fleet never needs to replay it from cold storage.
func (e *Engine) Checkpoint() error {
	if e.Store == nil {
		return nil
	}
	return e.Store.SaveFactoryTotals(store.FactoryTotals{
		TotalStakedAmount: e.Factory.TotalStakedAmount().String(),
		TotalStakedWallet: e.Factory.TotalStakedWallets(),
	})
}

// CreateValidator derives and registers a secondary (quality 2-7)
// validator and wires it to the master, on behalf of the engine's admin.
// The stakecored CLI has no command that calls it.
func (e *Engine) CreateValidator(admin, owner types.Address, quality uint8, verifier types.Address) (*validator.Validator, error) {
	return e.Factory.CreateValidator(admin, owner, quality, verifier, e.cfg.Genesis.MinLockSeconds, e.cfg.Genesis.MaxLockSeconds, e.signerFor(quality))
}

func (e *Engine) signerFor(quality uint8) signer.Oracle {
	if quality == 1 {
		return nil
	}
	if e.cfg.Signer != nil {
		return e.cfg.Signer
	}
	return signer.EthOracle{}
}

// Start brings the monitoring HTTP surface up. The accounting engine
// itself has no background loop: every state transition happens
// synchronously inside the method call that requested it.
func (e *Engine) Start() error {
	return e.Metrics.Start()
}

// Stop tears the monitoring server down and closes the store, if one is open.
func (e *Engine) Stop() {
	e.Metrics.Stop()
	if e.Store != nil {
		e.Store.Close()
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
