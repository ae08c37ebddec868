// sim/simulator.go
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Simulator is the core object that holds simulation time, facility state,
// and the tick loop.
//
// Within a tick the order is fixed: arrivals, server countdown, then one
// queue sweep that assigns idle servers front to back and ages or abandons
// everyone else. Tick N is complete before tick N+1 draws its arrivals.
type Simulator struct {
	Config FacilityConfig
	// Clock is the tick about to run.
	Clock int64
	// ExtraTime counts drain-phase ticks already run.
	ExtraTime int64
	// WaitQ holds customers waiting for a server
	WaitQ   *WaitQueue
	Servers *ServerPool
	Stats   *Statistics

	rng    RandomProcess
	nextID int64
}

// NewSimulator validates cfg and builds an idle facility drawing from rng.
func NewSimulator(cfg FacilityConfig, rng RandomProcess) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: random process must not be nil", ErrInvalidConfig)
	}
	return &Simulator{
		Config:  cfg,
		WaitQ:   NewWaitQueue(int(cfg.QueueCapacity)),
		Servers: NewServerPool(int(cfg.NumServers)),
		Stats:   &Statistics{},
		rng:     rng,
	}, nil
}

// Phase returns the phase the next Step would run in.
func (sim *Simulator) Phase() Phase {
	if sim.Clock < sim.Config.ClosingTime {
		return PhaseOpen
	}
	if sim.ExtraTime >= sim.Config.DrainTicks() {
		return PhaseClosed
	}
	if sim.Config.StopWhenIdle && sim.WaitQ.Len() == 0 && sim.Servers.Busy() == 0 {
		return PhaseClosed
	}
	return PhaseDrain
}

// Done reports whether the run is over.
func (sim *Simulator) Done() bool {
	return sim.Phase() == PhaseClosed
}

// Run steps the simulation to completion, handing every record to sink.
// A sink error stops the run at once; records already delivered stay.
func (sim *Simulator) Run(sink ReportSink) error {
	if sink == nil {
		sink = Discard
	}
	logrus.Infof("Starting facility simulation: capacity=%d, servers=%d, closing=%d, drain<=%d, service=%d, arrivals=%d, tolerance=%d",
		sim.Config.QueueCapacity, sim.Config.NumServers, sim.Config.ClosingTime, sim.Config.DrainTicks(),
		sim.Config.AvgServiceTime, sim.Config.AvgArrivalRate, sim.Config.AvgTolerance)

	for !sim.Done() {
		rec := sim.Step()
		if err := sink.Record(rec); err != nil {
			logrus.Errorf("[tick %07d] report sink failed: %v", rec.Time, err)
			return fmt.Errorf("%w at tick %d: %w", ErrReportSink, rec.Time, err)
		}
	}

	logrus.Infof("[tick %07d] Simulation ended: fulfilled=%d, unfulfilled=%d, timed out=%d, left waiting=%d, left in service=%d",
		sim.Clock, sim.Stats.Fulfilled, sim.Stats.Unfulfilled, sim.Stats.TimedOut, sim.WaitQ.Len(), sim.Servers.Busy())
	return nil
}

// Step runs exactly one tick and returns its record.
// It panics if the run is already over.
func (sim *Simulator) Step() TickRecord {
	phase := sim.Phase()
	if phase == PhaseClosed {
		panic(fmt.Sprintf("Step: simulation closed at tick %d", sim.Clock))
	}

	var arrivals, rejected int64
	if phase == PhaseOpen {
		arrivals, rejected = sim.admitArrivals()
	}

	// servers freed here can take a customer in this tick's sweep
	sim.Stats.RecordFulfilled(sim.Servers.Tick())

	res := sim.WaitQ.Sweep(sim.serveOrAge)
	sim.Stats.RecordTimedOut(res.Abandoned)
	if res.Emptied {
		logrus.Debugf("[tick %07d] queue emptied during sweep", sim.Clock)
	}

	rec := TickRecord{
		Time:             sim.Clock,
		Phase:            phase,
		Arrivals:         arrivals,
		Rejected:         rejected,
		InService:        int64(sim.Servers.Busy()),
		InQueue:          int64(sim.WaitQ.Len()),
		FulfilledTotal:   sim.Stats.Fulfilled,
		UnfulfilledTotal: sim.Stats.Unfulfilled,
		TimedOutTotal:    sim.Stats.TimedOut,
	}
	if phase == PhaseDrain {
		rec.ExtraTime = sim.ExtraTime
		sim.ExtraTime++
	}
	logrus.Debugf("[tick %07d] %s: arrivals=%d rejected=%d assigned=%d abandoned=%d in service=%d in queue=%d",
		sim.Clock, phase, arrivals, rejected, res.Assigned, res.Abandoned, rec.InService, rec.InQueue)

	sim.Clock++
	return rec
}

// admitArrivals draws this tick's arrival count and enqueues each arrival
// that fits. Tolerance is drawn only for accepted arrivals.
func (sim *Simulator) admitArrivals() (arrivals, rejected int64) {
	arrivals = sim.rng.DrawPoisson(sim.Config.AvgArrivalRate)
	for range arrivals {
		if sim.WaitQ.Full() {
			sim.Stats.RecordRejected()
			rejected++
			continue
		}
		sim.nextID++
		sim.WaitQ.Enqueue(sim.nextID, sim.rng.DrawPoisson(sim.Config.AvgTolerance))
		sim.Stats.RecordAccepted()
	}
	return arrivals, rejected
}

// serveOrAge decides one waiting customer's fate for this tick.
func (sim *Simulator) serveOrAge(c *Customer) Outcome {
	if sim.Servers.HasIdle() {
		sim.Servers.Assign(c.ID, sim.rng.DrawPoisson(sim.Config.AvgServiceTime))
		return Assigned
	}
	c.Waited++
	if c.Waited >= c.Tolerance {
		return Abandoned
	}
	return Waiting
}
