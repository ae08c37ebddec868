package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/facility-sim/facility-sim/sim"
	"github.com/facility-sim/facility-sim/sim/trace"
)

// textReport writes one block per tick in the facility's classic report
// layout. It implements sim.ReportSink.
type textReport struct {
	w *bufio.Writer
}

func newTextReport(w io.Writer) *textReport {
	return &textReport{w: bufio.NewWriter(w)}
}

// Record implements sim.ReportSink.
func (r *textReport) Record(rec sim.TickRecord) error {
	var err error
	if rec.Phase == sim.PhaseDrain {
		_, err = fmt.Fprintf(r.w, "Time interval: %d\n"+
			"\tCurrently served: %d\n"+
			"\tIn queue: %d\n"+
			"\tCustomers fulfilled: %d\n"+
			"\tCustomers unfulfilled: %d\n"+
			"\tCustomers left the queue early: %d\n"+
			"\tExtra time used: %d\n\n",
			rec.Time, rec.InService, rec.InQueue, rec.FulfilledTotal, rec.UnfulfilledTotal, rec.TimedOutTotal, rec.ExtraTime)
	} else {
		_, err = fmt.Fprintf(r.w, "Time interval: %d\n"+
			"\tCustomers arrived: %d\n"+
			"\tCurrently served: %d\n"+
			"\tIn queue: %d\n"+
			"\tCustomers fulfilled: %d\n"+
			"\tCustomers unfulfilled: %d\n"+
			"\tCustomers left the queue early: %d\n\n",
			rec.Time, rec.Arrivals, rec.InService, rec.InQueue, rec.FulfilledTotal, rec.UnfulfilledTotal, rec.TimedOutTotal)
	}
	return err
}

// Flush writes any buffered output.
func (r *textReport) Flush() error {
	return r.w.Flush()
}

// writeYAML encodes v to path, replacing any existing file.
func writeYAML(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// printSummary displays the aggregated outcome of one run.
func printSummary(w io.Writer, cfg sim.FacilityConfig, s *trace.TraceSummary) {
	heading := color.New(color.Bold)
	good := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	warn := color.New(color.FgYellow)

	heading.Fprintln(w, "=== Facility Simulation Summary ===")
	fmt.Fprintf(w, "Ticks                : %d (open %d, drain %d)\n", s.Ticks, s.OpenTicks, s.DrainTicks)
	fmt.Fprintf(w, "Arrivals             : %d\n", s.TotalArrivals)
	good.Fprintf(w, "Fulfilled            : %d (%.1f%%)\n", s.Fulfilled, 100*s.FulfillmentRate())
	bad.Fprintf(w, "Unfulfilled          : %d\n", s.Unfulfilled)
	bad.Fprintf(w, "Timed out            : %d\n", s.TimedOut)
	fmt.Fprintf(w, "Average queue length : %.2f (peak %d of %d)\n", s.MeanQueue, s.PeakQueue, cfg.QueueCapacity)
	fmt.Fprintf(w, "Server utilization   : %.1f%%\n", 100*s.Utilization(cfg.NumServers))
	if s.ResidualQueue > 0 || s.ResidualInService > 0 {
		warn.Fprintf(w, "Left unresolved      : %d waiting, %d in service\n", s.ResidualQueue, s.ResidualInService)
	}
}
