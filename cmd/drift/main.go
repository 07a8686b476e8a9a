package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/drift/pkg/config"
	"github.com/cuemby/drift/pkg/log"
	"github.com/cuemby/drift/pkg/metrics"
	"github.com/cuemby/drift/pkg/results"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "drift",
	Short: "Drift - distributed stream monitoring simulator",
	Long: `Drift simulates geometric-method protocols for continuous-query
monitoring over distributed data streams: AGMS sketch queries are
answered within accuracy bounds while the simulator accounts every
byte the sites and the coordinator would have exchanged.`,
	Version: Version,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Drift version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation",
	Long: `Run one simulation described by a YAML configuration file and
emit the result tables when the stream ends.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		outPath, _ := cmd.Flags().GetString("out")
		dbPath, _ := cmd.Flags().GetString("results-db")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		verbose, _ := cmd.Flags().GetBool("verbose")

		level := "info"
		if verbose {
			level = "debug"
		}
		log.Init(log.Config{Level: level, Output: os.Stderr})

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		sim, sn, err := config.Assemble(cfg)
		if err != nil {
			return err
		}

		var writers []results.Writer
		out := os.Stdout
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			out = f
		}
		writers = append(writers, results.NewCSVWriter(out))
		if dbPath != "" {
			store, err := results.NewStore(dbPath)
			if err != nil {
				return err
			}
			log.Logger.Info().Str("run_id", store.RunID()).Msg("recording results")
			writers = append(writers, store)
		}

		reporter := results.NewReporter(sim, writers...)
		reporter.WatchDataset()
		reporter.WatchNetwork(sn)

		if metricsAddr != "" {
			go func() {
				http.Handle("/metrics", metrics.Handler())
				if err := http.ListenAndServe(metricsAddr, nil); err != nil {
					log.Errorf("metrics server failed", err)
				}
			}()
		}

		return sim.Run()
	},
}

func init() {
	runCmd.Flags().StringP("config", "f", "", "Path to the simulation config file (required)")
	runCmd.Flags().String("out", "", "Write result tables to this file instead of stdout")
	runCmd.Flags().String("results-db", "", "Also record result rows in this BoltDB file")
	runCmd.Flags().String("metrics-addr", "", "Expose Prometheus metrics on this address")
	runCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
	_ = runCmd.MarkFlagRequired("config")
}
