// Package monitoring exposes the staking engine's state to Prometheus and
// a small HTTP surface, grounded on the teacher's MetricsServer: a
// registry-backed struct with named gauges/counters, refreshed on a
// ticker, served over a gorilla/mux router alongside a liveness endpoint.
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stakecore/chain/factory"
	"stakecore/chain/governance"
)

// Config configures the metrics server's HTTP surface and refresh cadence.
type Config struct {
	ListenAddr     string
	MetricsPath    string
	HealthPath     string
	RefreshPeriod  time.Duration
	Factory        *factory.Factory
	Governance     *governance.Governance
	TrackedVoteIDs []uint64 // proposal IDs to export per-proposal vote-weight gauges for
}

// Server collects and serves staking-engine metrics.
type Server struct {
	cfg Config

	registry *prometheus.Registry

	totalStakedAmount prometheus.Gauge
	totalStakedWallet prometheus.Gauge
	proposalVoteTotal *prometheus.GaugeVec

	server *http.Server

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer builds a Server and wires its HTTP routes; it does not start
// listening until Start is called.
func NewServer(cfg Config) *Server {
	registry := prometheus.NewRegistry()

	s := &Server{
		cfg:      cfg,
		registry: registry,
		totalStakedAmount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stakecore_total_staked_amount",
			Help: "Fleet-wide total staked principal, in whole tokens.",
		}),
		totalStakedWallet: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stakecore_total_staked_wallets",
			Help: "Number of wallets with an open lock somewhere in the fleet.",
		}),
		proposalVoteTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stakecore_proposal_vote_weight_total",
			Help: "Total stake weight cast on a tracked proposal.",
		}, []string{"proposal_id"}),
	}
	s.registry.MustRegister(s.totalStakedAmount, s.totalStakedWallet, s.proposalVoteTotal)
	s.setupServer()
	return s
}

func (s *Server) setupServer() {
	router := mux.NewRouter()
	router.Path(s.cfg.MetricsPath).Handler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	router.PathPrefix(s.cfg.HealthPath).HandlerFunc(s.healthHandler)
	router.PathPrefix("/api/staking/total").HandlerFunc(s.totalsHandler)

	s.server = &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: router,
	}
}

// Start begins periodic metric collection and opens the HTTP listener.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("monitoring: server already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.collectLoop(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Printf("monitoring: listening on %s", s.cfg.ListenAddr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("monitoring: server error: %v", err)
		}
	}()

	s.running = true
	return nil
}

// Stop shuts the HTTP listener down and waits for the collector to exit.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(ctx)

	s.wg.Wait()
	s.running = false
}

func (s *Server) collectLoop(ctx context.Context) {
	defer s.wg.Done()

	period := s.cfg.RefreshPeriod
	if period <= 0 {
		period = 10 * time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	s.collect()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.collect()
		}
	}
}

func (s *Server) collect() {
	if s.cfg.Factory != nil {
		amount := new(big.Float).SetInt(s.cfg.Factory.TotalStakedAmount().ToBig())
		whole, _ := new(big.Float).Quo(amount, new(big.Float).SetInt(big.NewInt(1_000_000_000_000_000_000))).Float64()
		s.totalStakedAmount.Set(whole)
		s.totalStakedWallet.Set(float64(s.cfg.Factory.TotalStakedWallets()))
	}
	if s.cfg.Governance != nil {
		for _, id := range s.cfg.TrackedVoteIDs {
			p, ok := s.cfg.Governance.GetProposal(id)
			if !ok {
				continue
			}
			total := new(big.Float).SetInt(p.TotalVoteWeight.ToBig())
			whole, _ := new(big.Float).Quo(total, new(big.Float).SetInt(big.NewInt(1_000_000_000_000_000_000))).Float64()
			s.proposalVoteTotal.WithLabelValues(fmt.Sprintf("%d", id)).Set(whole)
		}
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) totalsHandler(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Factory == nil {
		http.Error(w, "factory not wired", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"totalStakedAmount":  s.cfg.Factory.TotalStakedAmount().String(),
		"totalStakedWallets": s.cfg.Factory.TotalStakedWallets(),
	})
}
