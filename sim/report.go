package sim

import "errors"

// Phase is the facility's state at a given tick.
type Phase string

const (
	// PhaseOpen accepts arrivals (Clock < ClosingTime).
	PhaseOpen Phase = "open"
	// PhaseDrain serves customers already present; no arrivals.
	PhaseDrain Phase = "drain"
	// PhaseClosed means the run is over.
	PhaseClosed Phase = "closed"
)

// TickRecord is the state of the facility at the end of one tick.
type TickRecord struct {
	Time             int64 `json:"time" yaml:"time"`
	Phase            Phase `json:"phase" yaml:"phase"`
	Arrivals         int64 `json:"arrivals" yaml:"arrivals"` // this tick, 0 in drain
	Rejected         int64 `json:"rejected" yaml:"rejected"` // this tick
	InService        int64 `json:"in_service" yaml:"in_service"`
	InQueue          int64 `json:"in_queue" yaml:"in_queue"`
	FulfilledTotal   int64 `json:"fulfilled_total" yaml:"fulfilled_total"`
	UnfulfilledTotal int64 `json:"unfulfilled_total" yaml:"unfulfilled_total"`
	TimedOutTotal    int64 `json:"timed_out_total" yaml:"timed_out_total"`
	ExtraTime        int64 `json:"extra_time" yaml:"extra_time"` // drain ticks before this one; 0 when open
}

// ReportSink receives one TickRecord per tick, in time order.
// A non-nil error aborts the run.
type ReportSink interface {
	Record(rec TickRecord) error
}

// SinkFunc adapts a function to ReportSink.
type SinkFunc func(rec TickRecord) error

// Record implements ReportSink.
func (f SinkFunc) Record(rec TickRecord) error {
	return f(rec)
}

// MultiSink fans each record out to every sink in order. Every sink sees
// the record even if an earlier one fails; the errors are joined.
type MultiSink []ReportSink

// Record implements ReportSink.
func (m MultiSink) Record(rec TickRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard is a ReportSink that drops every record.
var Discard ReportSink = SinkFunc(func(TickRecord) error { return nil })
