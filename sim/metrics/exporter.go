// Package metrics exports facility TickRecords as Prometheus metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/facility-sim/facility-sim/sim"
)

// Exporter is a sim.ReportSink that mirrors each record into Prometheus
// collectors. Counters are advanced by the difference between consecutive
// cumulative totals, so they stay monotonic.
type Exporter struct {
	registry *prometheus.Registry

	tick      prometheus.Gauge
	inService prometheus.Gauge
	inQueue   prometheus.Gauge
	arrivals  prometheus.Counter
	customers *prometheus.CounterVec

	prev sim.TickRecord
}

// NewExporter registers the facility collectors on a fresh registry.
// constLabels are attached to every series (e.g. a replication id).
func NewExporter(constLabels prometheus.Labels) *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		tick: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "facility_tick",
			Help:        "Last simulated tick",
			ConstLabels: constLabels,
		}),
		inService: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "facility_in_service",
			Help:        "Busy servers at the end of the last tick",
			ConstLabels: constLabels,
		}),
		inQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "facility_in_queue",
			Help:        "Waiting customers at the end of the last tick",
			ConstLabels: constLabels,
		}),
		arrivals: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "facility_arrivals_total",
			Help:        "Arrival draws, accepted or rejected",
			ConstLabels: constLabels,
		}),
		customers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "facility_customers_total",
				Help:        "Customers by outcome",
				ConstLabels: constLabels,
			},
			[]string{"outcome"},
		),
	}
	e.registry.MustRegister(e.tick, e.inService, e.inQueue, e.arrivals, e.customers)
	return e
}

// Record implements sim.ReportSink.
func (e *Exporter) Record(rec sim.TickRecord) error {
	if rec.FulfilledTotal < e.prev.FulfilledTotal ||
		rec.UnfulfilledTotal < e.prev.UnfulfilledTotal ||
		rec.TimedOutTotal < e.prev.TimedOutTotal {
		return fmt.Errorf("tick %d: cumulative totals went backwards", rec.Time)
	}
	e.tick.Set(float64(rec.Time))
	e.inService.Set(float64(rec.InService))
	e.inQueue.Set(float64(rec.InQueue))
	e.arrivals.Add(float64(rec.Arrivals))
	e.customers.WithLabelValues("fulfilled").Add(float64(rec.FulfilledTotal - e.prev.FulfilledTotal))
	e.customers.WithLabelValues("unfulfilled").Add(float64(rec.UnfulfilledTotal - e.prev.UnfulfilledTotal))
	e.customers.WithLabelValues("timed_out").Add(float64(rec.TimedOutTotal - e.prev.TimedOutTotal))
	e.prev = rec
	return nil
}

// Registry exposes the exporter's registry, e.g. for an HTTP handler.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// WriteTextfile writes the current metrics in the Prometheus text format,
// suitable for the node_exporter textfile collector.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
