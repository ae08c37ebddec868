package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/facility-sim/facility-sim/sim"
)

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelTicks})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	assert.Equal(t, &TraceSummary{}, summary)
	assert.Zero(t, summary.FulfillmentRate())
	assert.Zero(t, summary.Utilization(4))
}

func TestSummarize_NilTrace(t *testing.T) {
	assert.Equal(t, &TraceSummary{}, Summarize(nil))
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with open and drain ticks
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelTicks})
	for _, rec := range []sim.TickRecord{
		{Time: 0, Phase: sim.PhaseOpen, Arrivals: 3, InService: 2, InQueue: 1},
		{Time: 1, Phase: sim.PhaseOpen, Arrivals: 4, Rejected: 1, InService: 2, InQueue: 3, UnfulfilledTotal: 1},
		{Time: 2, Phase: sim.PhaseDrain, InService: 2, InQueue: 2, FulfilledTotal: 2, UnfulfilledTotal: 1, TimedOutTotal: 1},
		{Time: 3, Phase: sim.PhaseDrain, InService: 0, InQueue: 0, FulfilledTotal: 5, UnfulfilledTotal: 1, TimedOutTotal: 1, ExtraTime: 1},
	} {
		_ = st.Record(rec)
	}

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	assert.Equal(t, int64(4), summary.Ticks)
	assert.Equal(t, int64(2), summary.OpenTicks)
	assert.Equal(t, int64(2), summary.DrainTicks)
	assert.Equal(t, int64(7), summary.TotalArrivals)
	assert.Equal(t, int64(1), summary.TotalRejected)
	assert.Equal(t, int64(5), summary.Fulfilled)
	assert.Equal(t, int64(1), summary.Unfulfilled)
	assert.Equal(t, int64(1), summary.TimedOut)
	assert.Equal(t, int64(3), summary.PeakQueue)
	assert.Equal(t, int64(2), summary.PeakInService)
	assert.InDelta(t, 1.5, summary.MeanQueue, 1e-9)
	assert.InDelta(t, 1.5, summary.MeanInService, 1e-9)
	assert.Zero(t, summary.ResidualQueue)
	assert.Zero(t, summary.ResidualInService)
	assert.InDelta(t, 0.75, summary.Utilization(2), 1e-9)
	assert.InDelta(t, 5.0/7.0, summary.FulfillmentRate(), 1e-9)

	// AND summarizing the retained records gives the same answer
	assert.Equal(t, summary, SummarizeRecords(st.Records))
}
