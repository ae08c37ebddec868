// Package replicate runs independent replications of one facility
// configuration and summarizes their outcomes.
//
// Each replication owns its own Simulator, queue, server pool and
// PoissonStream, seeded with SimulationKey.Replication(i). Nothing is shared
// between replications, so they run concurrently.
package replicate

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/facility-sim/facility-sim/sim"
	"github.com/facility-sim/facility-sim/sim/trace"
)

// Options controls a batch of replications.
type Options struct {
	Replications int
	// Parallelism bounds concurrently running replications; <= 0 means GOMAXPROCS.
	Parallelism int
}

// Outcome is the result of one replication.
type Outcome struct {
	Index   int                `yaml:"index"`
	Seed    int64              `yaml:"seed"`
	Summary trace.TraceSummary `yaml:"summary"`
}

// Estimate is the sample mean and standard deviation of one metric.
type Estimate struct {
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"std_dev"`
}

// Report aggregates every replication of a batch.
type Report struct {
	Outcomes        []Outcome `yaml:"outcomes"`
	Fulfilled       Estimate  `yaml:"fulfilled"`
	Unfulfilled     Estimate  `yaml:"unfulfilled"`
	TimedOut        Estimate  `yaml:"timed_out"`
	MeanQueue       Estimate  `yaml:"mean_queue"`
	Utilization     Estimate  `yaml:"utilization"`
	FulfillmentRate Estimate  `yaml:"fulfillment_rate"`
}

// Run executes opts.Replications runs of cfg. Outcomes are ordered by
// replication index, independent of scheduling. The first failure cancels
// replications that have not started yet.
func Run(ctx context.Context, cfg sim.FacilityConfig, key sim.SimulationKey, opts Options) (*Report, error) {
	if opts.Replications <= 0 {
		return nil, fmt.Errorf("replications must be > 0, got %d", opts.Replications)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	outcomes := make([]Outcome, opts.Replications)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range opts.Replications {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := runOne(cfg, key.Replication(i), i)
			if err != nil {
				return fmt.Errorf("%s: %w", sim.ReplicationName(i), err)
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logrus.Infof("Completed %d replications (parallelism=%d)", opts.Replications, parallelism)
	return summarize(outcomes, cfg.NumServers), nil
}

func runOne(cfg sim.FacilityConfig, key sim.SimulationKey, i int) (Outcome, error) {
	s, err := sim.NewSimulator(cfg, sim.NewPoissonStream(key))
	if err != nil {
		return Outcome{}, err
	}
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelNone})
	if err := s.Run(st); err != nil {
		return Outcome{}, err
	}
	return Outcome{Index: i, Seed: int64(key), Summary: *trace.Summarize(st)}, nil
}

func summarize(outcomes []Outcome, numServers int64) *Report {
	n := len(outcomes)
	fulfilled := make([]float64, n)
	unfulfilled := make([]float64, n)
	timedOut := make([]float64, n)
	meanQueue := make([]float64, n)
	util := make([]float64, n)
	rate := make([]float64, n)
	for i, o := range outcomes {
		fulfilled[i] = float64(o.Summary.Fulfilled)
		unfulfilled[i] = float64(o.Summary.Unfulfilled)
		timedOut[i] = float64(o.Summary.TimedOut)
		meanQueue[i] = o.Summary.MeanQueue
		util[i] = o.Summary.Utilization(numServers)
		rate[i] = o.Summary.FulfillmentRate()
	}
	return &Report{
		Outcomes:        outcomes,
		Fulfilled:       estimate(fulfilled),
		Unfulfilled:     estimate(unfulfilled),
		TimedOut:        estimate(timedOut),
		MeanQueue:       estimate(meanQueue),
		Utilization:     estimate(util),
		FulfillmentRate: estimate(rate),
	}
}

// estimate returns mean and sample standard deviation; a single sample has
// zero deviation.
func estimate(xs []float64) Estimate {
	if len(xs) == 1 {
		return Estimate{Mean: xs[0]}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	return Estimate{Mean: mean, StdDev: std}
}
