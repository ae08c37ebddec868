package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig marks a FacilityConfig that cannot be simulated.
	ErrInvalidConfig = errors.New("invalid facility config")
	// ErrReportSink marks a run aborted because its ReportSink failed.
	ErrReportSink = errors.New("report sink failed")
)

// FacilityConfig describes the facility being simulated. It is read once
// before the run and never changes during it. The Avg* fields are means of
// independent Poisson processes.
type FacilityConfig struct {
	QueueCapacity  int64 `yaml:"queue_capacity"`   // max customers waiting at once
	NumServers     int64 `yaml:"num_servers"`      // size of the server pool
	ClosingTime    int64 `yaml:"closing_time"`     // ticks during which arrivals are accepted
	AvgServiceTime int64 `yaml:"avg_service_time"` // mean service duration (ticks)
	AvgArrivalRate int64 `yaml:"avg_arrival_rate"` // mean arrivals per tick
	AvgTolerance   int64 `yaml:"avg_tolerance"`    // mean ticks a customer will wait

	// StopWhenIdle ends the drain phase early once the queue is empty and
	// every server is idle. Off by default: the drain is time-bounded.
	StopWhenIdle bool `yaml:"stop_when_idle"`
}

// DrainTicks is the maximum number of ticks run after closing time.
func (c FacilityConfig) DrainTicks() int64 {
	return c.ClosingTime / 5
}

// Validate returns an error wrapping ErrInvalidConfig for the first field
// that is not positive.
func (c FacilityConfig) Validate() error {
	fields := []struct {
		name  string
		value int64
	}{
		{"queue_capacity", c.QueueCapacity},
		{"num_servers", c.NumServers},
		{"closing_time", c.ClosingTime},
		{"avg_service_time", c.AvgServiceTime},
		{"avg_arrival_rate", c.AvgArrivalRate},
		{"avg_tolerance", c.AvgTolerance},
	}
	for _, f := range fields {
		if f.value <= 0 {
			return fmt.Errorf("%w: %s must be > 0, got %d", ErrInvalidConfig, f.name, f.value)
		}
	}
	return nil
}
