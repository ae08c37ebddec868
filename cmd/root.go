package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/facility-sim/facility-sim/sim"
	"github.com/facility-sim/facility-sim/sim/metrics"
	"github.com/facility-sim/facility-sim/sim/replicate"
	"github.com/facility-sim/facility-sim/sim/trace"
)

var (
	// CLI flags shared by run and replicate
	configPath   string // Facility config file (YAML or legacy text)
	seed         int64  // Seed for the Poisson stream; wall clock when unset
	logLevel     string // Log verbosity level
	stopWhenIdle bool   // End the drain phase once the facility is empty

	// Facility overrides, applied on top of the config file when set
	queueCapacity  int64 // Max customers waiting at once
	numServers     int64 // Number of servers
	closingTime    int64 // Ticks during which arrivals are accepted
	avgServiceTime int64 // Mean service duration (ticks)
	avgArrivalRate int64 // Mean arrivals per tick
	avgTolerance   int64 // Mean ticks a customer will wait

	// run flags
	outputPath    string // Per-tick text report
	summaryPath   string // YAML summary
	metricsPath   string // Prometheus textfile
	traceLevel    string // Trace verbosity for the YAML summary
	deterministic bool   // Replace every Poisson draw with its mean

	// replicate flags
	replications int // Number of independent replications
	parallelism  int // Max concurrent replications
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "facility-sim",
	Short: "Tick-based simulator for a single service facility",
	Long: `Simulates a service facility (e.g. a post office) over discrete ticks:
Poisson arrivals join a bounded queue, abandon it once their patience runs
out, and are served by a fixed pool of servers. After closing time a bounded
drain phase serves the customers still present.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd executes one simulation using the config file and CLI overrides
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one facility simulation",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := resolveConfig(cmd.Flags())
		if err != nil {
			logrus.Fatalf("Unable to load facility config: %v", err)
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}
		opts := runOptions{
			Config:        cfg,
			Key:           resolveKey(cmd.Flags()),
			Deterministic: deterministic,
			OutputPath:    outputPath,
			SummaryPath:   summaryPath,
			MetricsPath:   metricsPath,
			TraceLevel:    trace.TraceLevel(traceLevel),
		}

		startTime := time.Now()
		summary, err := runFacility(opts)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		printSummary(os.Stdout, cfg, summary)
		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// replicateCmd runs independent replications and reports mean and spread
var replicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Run independent replications of one facility configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := resolveConfig(cmd.Flags())
		if err != nil {
			logrus.Fatalf("Unable to load facility config: %v", err)
		}
		key := resolveKey(cmd.Flags())
		logrus.Infof("Starting %d replications with master seed %d", replications, key)

		report, err := replicate.Run(context.Background(), cfg, key, replicate.Options{
			Replications: replications,
			Parallelism:  parallelism,
		})
		if err != nil {
			logrus.Fatalf("Replication failed: %v", err)
		}
		printReplicationReport(os.Stdout, report)
		if summaryPath != "" {
			if err := writeYAML(summaryPath, report); err != nil {
				logrus.Fatalf("Unable to write summary: %v", err)
			}
		}
	},
}

// runOptions is everything a single run needs once flags are resolved.
type runOptions struct {
	Config        sim.FacilityConfig
	Key           sim.SimulationKey
	Deterministic bool
	OutputPath    string
	SummaryPath   string
	MetricsPath   string
	TraceLevel    trace.TraceLevel
}

// runSummaryFile is the YAML document written to --summary-path.
type runSummaryFile struct {
	Seed    int64              `yaml:"seed"`
	Config  sim.FacilityConfig `yaml:"config"`
	Summary trace.TraceSummary `yaml:"summary"`
	Ticks   []sim.TickRecord   `yaml:"ticks,omitempty"`
}

// runFacility runs one simulation and writes every requested output.
// The text report is truncated before the first tick; if the run fails the
// records written so far remain as a partial report.
func runFacility(opts runOptions) (*trace.TraceSummary, error) {
	var rng sim.RandomProcess = sim.NewPoissonStream(opts.Key)
	if opts.Deterministic {
		rng = sim.MeanProcess{}
	}
	s, err := sim.NewSimulator(opts.Config, rng)
	if err != nil {
		return nil, err
	}

	st := trace.NewSimulationTrace(trace.TraceConfig{Level: opts.TraceLevel})
	sinks := sim.MultiSink{st}

	var report *textReport
	if opts.OutputPath != "" {
		f, err := os.Create(opts.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		report = newTextReport(f)
		sinks = append(sinks, report)
	}

	var exporter *metrics.Exporter
	if opts.MetricsPath != "" {
		exporter = metrics.NewExporter(nil)
		sinks = append(sinks, exporter)
	}

	runErr := s.Run(sinks)
	if report != nil {
		if err := report.Flush(); err != nil && runErr == nil {
			runErr = fmt.Errorf("failed to write report file: %w", err)
		}
	}
	if runErr != nil {
		return nil, runErr
	}

	summary := trace.Summarize(st)
	if exporter != nil {
		if err := exporter.WriteTextfile(opts.MetricsPath); err != nil {
			return nil, err
		}
	}
	if opts.SummaryPath != "" {
		doc := runSummaryFile{Seed: int64(opts.Key), Config: opts.Config, Summary: *summary, Ticks: st.Records}
		if err := writeYAML(opts.SummaryPath, doc); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

// resolveConfig loads --config (if given) and applies any facility flag the
// user set explicitly. Unset flags never overwrite file values.
func resolveConfig(flags *pflag.FlagSet) (sim.FacilityConfig, error) {
	var cfg sim.FacilityConfig
	if configPath != "" {
		loaded, err := LoadFacilityConfig(configPath)
		if err != nil {
			return sim.FacilityConfig{}, err
		}
		cfg = loaded
	}
	overrides := []struct {
		flag  string
		value int64
		field *int64
	}{
		{"queue-capacity", queueCapacity, &cfg.QueueCapacity},
		{"servers", numServers, &cfg.NumServers},
		{"closing-time", closingTime, &cfg.ClosingTime},
		{"avg-service-time", avgServiceTime, &cfg.AvgServiceTime},
		{"avg-arrival-rate", avgArrivalRate, &cfg.AvgArrivalRate},
		{"avg-tolerance", avgTolerance, &cfg.AvgTolerance},
	}
	for _, o := range overrides {
		if flags.Changed(o.flag) {
			*o.field = o.value
		}
	}
	if flags.Changed("stop-when-idle") {
		cfg.StopWhenIdle = stopWhenIdle
	}
	if err := cfg.Validate(); err != nil {
		return sim.FacilityConfig{}, err
	}
	return cfg, nil
}

// resolveKey uses --seed when given, otherwise the wall clock.
func resolveKey(flags *pflag.FlagSet) sim.SimulationKey {
	if flags.Changed("seed") {
		return sim.NewSimulationKey(seed)
	}
	key := sim.WallClockKey()
	logrus.Infof("No --seed given; seeding from wall clock: %d", key)
	return key
}

// printReplicationReport displays the per-metric mean and standard deviation.
func printReplicationReport(w io.Writer, r *replicate.Report) {
	color.New(color.Bold).Fprintf(w, "=== Replication Summary (%d runs) ===\n", len(r.Outcomes))
	rows := []struct {
		name  string
		est   replicate.Estimate
		scale float64
		unit  string
	}{
		{"Fulfilled", r.Fulfilled, 1, ""},
		{"Unfulfilled", r.Unfulfilled, 1, ""},
		{"Timed out", r.TimedOut, 1, ""},
		{"Average queue length", r.MeanQueue, 1, ""},
		{"Server utilization", r.Utilization, 100, "%"},
		{"Fulfillment rate", r.FulfillmentRate, 100, "%"},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%-21s: %.2f%s ± %.2f%s\n", row.name, row.est.Mean*row.scale, row.unit, row.est.StdDev*row.scale, row.unit)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addFacilityFlags registers the config, seed and facility override flags
// shared by run and replicate.
func addFacilityFlags(fs *pflag.FlagSet) {
	fs.StringVar(&configPath, "config", "", "Facility config file (.yaml/.yml, or legacy \"label value,\" text)")
	fs.Int64Var(&seed, "seed", 0, "Seed for the Poisson stream (default: wall clock)")
	fs.BoolVar(&stopWhenIdle, "stop-when-idle", false, "End the drain phase early once no customer is waiting or in service")

	fs.Int64Var(&queueCapacity, "queue-capacity", 0, "Max customers waiting at once")
	fs.Int64Var(&numServers, "servers", 0, "Number of servers")
	fs.Int64Var(&closingTime, "closing-time", 0, "Ticks during which arrivals are accepted")
	fs.Int64Var(&avgServiceTime, "avg-service-time", 0, "Mean service duration (ticks)")
	fs.Int64Var(&avgArrivalRate, "avg-arrival-rate", 0, "Mean arrivals per tick")
	fs.Int64Var(&avgTolerance, "avg-tolerance", 0, "Mean ticks a customer will wait")
}

// init sets up CLI flags and subcommands
func init() {
	addFacilityFlags(runCmd.Flags())
	addFacilityFlags(replicateCmd.Flags())
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the per-tick text report to this file (truncated first)")
	runCmd.Flags().StringVar(&summaryPath, "summary-path", "", "Write a YAML run summary to this file")
	runCmd.Flags().StringVar(&metricsPath, "metrics-path", "", "Write final Prometheus metrics to this textfile")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Include per-tick records in the YAML summary (none, ticks)")
	runCmd.Flags().BoolVar(&deterministic, "deterministic", false, "Replace every Poisson draw with its mean")

	replicateCmd.Flags().IntVar(&replications, "replications", 10, "Number of independent replications")
	replicateCmd.Flags().IntVar(&parallelism, "parallelism", 0, "Max concurrent replications (default: GOMAXPROCS)")
	replicateCmd.Flags().StringVar(&summaryPath, "summary-path", "", "Write the YAML replication report to this file")

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replicateCmd)
}
