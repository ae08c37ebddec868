// Package trace records the TickRecords of a facility run and summarizes them.
package trace

import (
	"github.com/facility-sim/facility-sim/sim"
)

// TraceLevel controls how much of a run is retained.
type TraceLevel string

const (
	// TraceLevelNone keeps only the running summary.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelTicks also keeps every TickRecord.
	TraceLevelTicks TraceLevel = "ticks"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:  true,
	TraceLevelTicks: true,
	"":              true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace is a sim.ReportSink that accumulates a Summary and, at
// TraceLevelTicks, the records themselves.
type SimulationTrace struct {
	Config  TraceConfig
	Records []sim.TickRecord

	acc accumulator
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:  config,
		Records: make([]sim.TickRecord, 0),
	}
}

// Record implements sim.ReportSink. It never fails.
func (st *SimulationTrace) Record(rec sim.TickRecord) error {
	st.acc.add(rec)
	if st.Config.Level == TraceLevelTicks {
		st.Records = append(st.Records, rec)
	}
	return nil
}

// Last returns the most recent record; ok is false before the first tick.
func (st *SimulationTrace) Last() (rec sim.TickRecord, ok bool) {
	if st.acc.ticks == 0 {
		return sim.TickRecord{}, false
	}
	return st.acc.last, true
}
