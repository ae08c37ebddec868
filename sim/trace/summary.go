package trace

import "github.com/facility-sim/facility-sim/sim"

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	Ticks      int64 `yaml:"ticks"`
	OpenTicks  int64 `yaml:"open_ticks"`
	DrainTicks int64 `yaml:"drain_ticks"`

	TotalArrivals int64 `yaml:"total_arrivals"`
	TotalRejected int64 `yaml:"total_rejected"`
	Fulfilled     int64 `yaml:"fulfilled"`
	Unfulfilled   int64 `yaml:"unfulfilled"`
	TimedOut      int64 `yaml:"timed_out"`

	PeakQueue     int64   `yaml:"peak_queue"`
	MeanQueue     float64 `yaml:"mean_queue"`
	PeakInService int64   `yaml:"peak_in_service"`
	MeanInService float64 `yaml:"mean_in_service"`

	// Left unresolved when the run ended.
	ResidualQueue     int64 `yaml:"residual_queue"`
	ResidualInService int64 `yaml:"residual_in_service"`
}

// Utilization is MeanInService as a fraction of numServers.
// Returns 0 for a non-positive pool size.
func (s *TraceSummary) Utilization(numServers int64) float64 {
	if numServers <= 0 {
		return 0
	}
	return s.MeanInService / float64(numServers)
}

// FulfillmentRate is the share of all arrivals that completed service.
// Returns 0 when nobody arrived.
func (s *TraceSummary) FulfillmentRate() float64 {
	if s.TotalArrivals == 0 {
		return 0
	}
	return float64(s.Fulfilled) / float64(s.TotalArrivals)
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	if st == nil {
		return &TraceSummary{}
	}
	return st.acc.summary()
}

// SummarizeRecords computes the same summary from a slice of records.
func SummarizeRecords(records []sim.TickRecord) *TraceSummary {
	var acc accumulator
	for _, rec := range records {
		acc.add(rec)
	}
	return acc.summary()
}

// accumulator folds records into a summary without retaining them.
type accumulator struct {
	ticks, open, drain int64
	arrivals, rejected int64
	peakQueue, peakSvc int64
	queueSum, svcSum   int64
	last               sim.TickRecord
}

func (a *accumulator) add(rec sim.TickRecord) {
	a.ticks++
	switch rec.Phase {
	case sim.PhaseOpen:
		a.open++
	case sim.PhaseDrain:
		a.drain++
	}
	a.arrivals += rec.Arrivals
	a.rejected += rec.Rejected
	a.peakQueue = max(a.peakQueue, rec.InQueue)
	a.peakSvc = max(a.peakSvc, rec.InService)
	a.queueSum += rec.InQueue
	a.svcSum += rec.InService
	a.last = rec
}

func (a *accumulator) summary() *TraceSummary {
	s := &TraceSummary{
		Ticks:         a.ticks,
		OpenTicks:     a.open,
		DrainTicks:    a.drain,
		TotalArrivals: a.arrivals,
		TotalRejected: a.rejected,
		PeakQueue:     a.peakQueue,
		PeakInService: a.peakSvc,
	}
	if a.ticks == 0 {
		return s
	}
	s.Fulfilled = a.last.FulfilledTotal
	s.Unfulfilled = a.last.UnfulfilledTotal
	s.TimedOut = a.last.TimedOutTotal
	s.ResidualQueue = a.last.InQueue
	s.ResidualInService = a.last.InService
	s.MeanQueue = float64(a.queueSum) / float64(a.ticks)
	s.MeanInService = float64(a.svcSum) / float64(a.ticks)
	return s
}
