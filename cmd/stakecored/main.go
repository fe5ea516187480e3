package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"stakecore/chain/config"
	"stakecore/chain/engine"
	"stakecore/chain/types"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	Commit    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "stakecored",
	Short: "Tiered validator staking engine",
	Long:  "A tiered, time-locked validator staking engine with governance-driven reward boosting",
	Run:   runEngine,
}

var (
	genesisPath   string
	metricsAddr   string
	metricsPath   string
	healthPath    string
	metricsPeriod time.Duration
	storePath     string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&genesisPath, "genesis", "./config/genesis.json", "genesis configuration file")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", ":9400", "metrics server listen address")
	rootCmd.PersistentFlags().StringVar(&metricsPath, "metrics-path", "/metrics", "Prometheus scrape path")
	rootCmd.PersistentFlags().StringVar(&healthPath, "health-path", "/healthz", "liveness check path")
	rootCmd.PersistentFlags().DurationVar(&metricsPeriod, "metrics-period", 10*time.Second, "metrics refresh interval")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "leveldb checkpoint directory (disabled if empty)")

	_ = viper.BindPFlags(rootCmd.PersistentFlags())
}

func runEngine(cmd *cobra.Command, args []string) {
	fmt.Printf("Starting stakecored v%s\n", Version)
	fmt.Printf("Build: %s (commit: %s)\n", BuildTime, Commit)

	var genesis *config.GenesisConfig
	if _, err := os.Stat(genesisPath); err == nil {
		g, err := config.Load(genesisPath)
		if err != nil {
			log.Fatalf("failed to load genesis config: %v", err)
		}
		genesis = g
	} else {
		log.Printf("no genesis file at %s, using defaults", genesisPath)
		genesis = config.Default(types.ZeroAddress, types.ZeroAddress, types.ZeroAddress)
	}

	eng, err := engine.New(engine.Config{
		Genesis:           genesis,
		MetricsListenAddr: metricsAddr,
		MetricsPath:       metricsPath,
		HealthPath:        healthPath,
		MetricsPeriod:     metricsPeriod,
		StorePath:         storePath,
	})
	if err != nil {
		log.Fatalf("failed to build engine: %v", err)
	}

	if err := eng.Start(); err != nil {
		log.Fatalf("failed to start engine: %v", err)
	}

	fmt.Printf("Metrics listening on %s%s\n", metricsAddr, metricsPath)
	fmt.Println("Staking engine is running")

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	fmt.Println("\nShutting down staking engine...")
	if err := eng.Checkpoint(); err != nil {
		log.Printf("checkpoint failed: %v", err)
	}
	eng.Stop()
	fmt.Println("Staking engine stopped")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
