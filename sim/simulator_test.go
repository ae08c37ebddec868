package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleConfig() FacilityConfig {
	return FacilityConfig{
		QueueCapacity:  5,
		NumServers:     1,
		ClosingTime:    3,
		AvgServiceTime: 2,
		AvgArrivalRate: 1,
		AvgTolerance:   10,
	}
}

// TestSimulator_WorkedExample walks the single-server example tick by tick
// with every draw replaced by its mean.
func TestSimulator_WorkedExample(t *testing.T) {
	s := mustSimulator(t, exampleConfig(), MeanProcess{})

	records := collect(t, s)

	want := []TickRecord{
		// customer 1 arrives and goes straight to the idle server (remaining=2)
		{Time: 0, Phase: PhaseOpen, Arrivals: 1, InService: 1, InQueue: 0},
		// customer 2 waits behind the busy server
		{Time: 1, Phase: PhaseOpen, Arrivals: 1, InService: 1, InQueue: 1},
		// server finishes customer 1 and takes customer 2; customer 3 waits
		{Time: 2, Phase: PhaseOpen, Arrivals: 1, InService: 1, InQueue: 1, FulfilledTotal: 1},
	}
	assert.Equal(t, want, records, "closing time 3 gives 3/5 = 0 drain ticks")
	assert.True(t, s.Done())
	assert.Equal(t, int64(1), s.Stats.Fulfilled)
	assert.Equal(t, int64(3), s.Stats.Accepted)
}

func TestSimulator_NewSimulator_RejectsInvalidInput(t *testing.T) {
	bad := exampleConfig()
	bad.AvgTolerance = 0
	_, err := NewSimulator(bad, MeanProcess{})
	assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)

	_, err = NewSimulator(exampleConfig(), nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
}

func TestSimulator_Abandonment_ExactlyAtTolerance(t *testing.T) {
	// GIVEN one server tied up for 100 ticks by customer 1, and customer 2
	// with tolerance 3 waiting behind it
	cfg := FacilityConfig{QueueCapacity: 5, NumServers: 1, ClosingTime: 10, AvgServiceTime: 100, AvgArrivalRate: 1, AvgTolerance: 3}
	rng := &scriptedProcess{scripts: map[int64][]int64{
		1: {2, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	}}
	s := mustSimulator(t, cfg, rng)

	records := collect(t, s)

	// THEN customer 2 waits on ticks 0 and 1 and abandons on tick 2
	require.Len(t, records, 12)
	assert.Equal(t, int64(1), records[0].InQueue)
	assert.Equal(t, int64(1), records[1].InQueue)
	assert.Zero(t, records[1].TimedOutTotal)
	assert.Zero(t, records[2].InQueue)
	assert.Equal(t, int64(1), records[2].TimedOutTotal)
	// AND is counted once
	assert.Equal(t, int64(1), records[len(records)-1].TimedOutTotal)
}

func TestSimulator_Abandonment_ZeroTolerance(t *testing.T) {
	// a customer with tolerance 0 that is not served leaves on its first tick
	cfg := FacilityConfig{QueueCapacity: 5, NumServers: 1, ClosingTime: 1, AvgServiceTime: 100, AvgArrivalRate: 1, AvgTolerance: 3}
	rng := &scriptedProcess{scripts: map[int64][]int64{
		1: {2},
		3: {3, 0},
	}}
	s := mustSimulator(t, cfg, rng)

	rec := s.Step()

	assert.Equal(t, int64(2), rec.Arrivals)
	assert.Equal(t, int64(1), rec.InService)
	assert.Zero(t, rec.InQueue)
	assert.Equal(t, int64(1), rec.TimedOutTotal)
}

func TestSimulator_CapacityRejection_CountsUnfulfilled(t *testing.T) {
	// GIVEN a queue of 2 and a busy server, and 6 arrivals in one tick
	cfg := FacilityConfig{QueueCapacity: 2, NumServers: 1, ClosingTime: 5, AvgServiceTime: 50, AvgArrivalRate: 1, AvgTolerance: 40}
	rng := &scriptedProcess{scripts: map[int64][]int64{1: {6}}}
	s := mustSimulator(t, cfg, rng)

	rec := s.Step()

	// THEN two are admitted and four turned away; the server only takes
	// customer 1 during the sweep, after admission filled the queue
	assert.Equal(t, int64(6), rec.Arrivals)
	assert.Equal(t, int64(4), rec.Rejected)
	assert.Equal(t, int64(4), rec.UnfulfilledTotal)
	assert.Equal(t, int64(1), rec.InService)
	assert.Equal(t, int64(1), rec.InQueue)
	assert.Equal(t, int64(2), s.Stats.Accepted)
}

func TestSimulator_FreedServerServesSameTick(t *testing.T) {
	cfg := FacilityConfig{QueueCapacity: 5, NumServers: 1, ClosingTime: 5, AvgServiceTime: 1, AvgArrivalRate: 1, AvgTolerance: 9}
	s := mustSimulator(t, cfg, MeanProcess{})

	s.Step() // customer 1 served with remaining=1
	rec := s.Step()

	// customer 1 completes and customer 2 is assigned without waiting
	assert.Equal(t, int64(1), rec.FulfilledTotal)
	assert.Equal(t, int64(1), rec.InService)
	assert.Zero(t, rec.InQueue)
}

func TestSimulator_DrainPhase_ExactBound(t *testing.T) {
	tests := []struct {
		closing int64
		drain   int64
	}{
		{1, 0}, {4, 0}, {5, 1}, {12, 2}, {26, 5},
	}
	for _, tt := range tests {
		cfg := FacilityConfig{QueueCapacity: 3, NumServers: 1, ClosingTime: tt.closing, AvgServiceTime: 3, AvgArrivalRate: 2, AvgTolerance: 2}
		s := mustSimulator(t, cfg, NewPoissonStream(NewSimulationKey(tt.closing)))

		records := collect(t, s)

		require.Len(t, records, int(tt.closing+tt.drain), "closing=%d", tt.closing)
		for i, rec := range records {
			assert.Equal(t, int64(i), rec.Time)
			if int64(i) < tt.closing {
				assert.Equal(t, PhaseOpen, rec.Phase)
				assert.Zero(t, rec.ExtraTime)
				continue
			}
			assert.Equal(t, PhaseDrain, rec.Phase)
			assert.Zero(t, rec.Arrivals)
			assert.Equal(t, int64(i)-tt.closing, rec.ExtraTime)
		}
	}
}

func TestSimulator_DrainPhase_RunsEvenWhenEmpty(t *testing.T) {
	cfg := FacilityConfig{QueueCapacity: 5, NumServers: 2, ClosingTime: 10, AvgServiceTime: 1, AvgArrivalRate: 1, AvgTolerance: 5}
	s := mustSimulator(t, cfg, MeanProcess{})

	records := collect(t, s)

	require.Len(t, records, 12)
	last := records[len(records)-1]
	assert.Zero(t, last.InQueue)
	assert.Zero(t, last.InService)
}

func TestSimulator_StopWhenIdle_EndsDrainEarly(t *testing.T) {
	cfg := FacilityConfig{QueueCapacity: 5, NumServers: 2, ClosingTime: 10, AvgServiceTime: 1, AvgArrivalRate: 1, AvgTolerance: 5, StopWhenIdle: true}
	s := mustSimulator(t, cfg, MeanProcess{})

	records := collect(t, s)

	// the last customer finishes on the first drain tick
	require.Len(t, records, 11)
	assert.Equal(t, PhaseDrain, records[10].Phase)
	assert.Equal(t, int64(10), records[10].FulfilledTotal)
	assert.Equal(t, PhaseClosed, s.Phase())
}

func TestSimulator_StopWhenIdle_StillBoundedByDrainTicks(t *testing.T) {
	cfg := FacilityConfig{QueueCapacity: 5, NumServers: 1, ClosingTime: 10, AvgServiceTime: 100, AvgArrivalRate: 1, AvgTolerance: 50, StopWhenIdle: true}
	s := mustSimulator(t, cfg, MeanProcess{})

	records := collect(t, s)

	require.Len(t, records, 12)
	assert.Equal(t, int64(1), records[11].InService)
}

func TestSimulator_Step_PanicsWhenClosed(t *testing.T) {
	s := mustSimulator(t, exampleConfig(), MeanProcess{})
	collect(t, s)
	assert.Panics(t, func() { s.Step() })
}

func TestSimulator_Run_SinkFailureAbortsRun(t *testing.T) {
	cfg := exampleConfig()
	cfg.ClosingTime = 20
	s := mustSimulator(t, cfg, MeanProcess{})
	boom := errors.New("disk full")
	var delivered []int64

	err := s.Run(SinkFunc(func(rec TickRecord) error {
		if rec.Time == 4 {
			return boom
		}
		delivered = append(delivered, rec.Time)
		return nil
	}))

	assert.ErrorIs(t, err, ErrReportSink)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int64{0, 1, 2, 3}, delivered)
	assert.Equal(t, int64(5), s.Clock, "no tick runs after the failing one")
}

func TestSimulator_Run_NilSinkDiscards(t *testing.T) {
	s := mustSimulator(t, exampleConfig(), MeanProcess{})
	require.NoError(t, s.Run(nil))
	assert.True(t, s.Done())
}

// TestSimulator_Invariants checks conservation, capacity, server bound and
// monotonicity on every record across seeds and load levels.
func TestSimulator_Invariants(t *testing.T) {
	configs := []FacilityConfig{
		{QueueCapacity: 4, NumServers: 2, ClosingTime: 200, AvgServiceTime: 5, AvgArrivalRate: 3, AvgTolerance: 3},
		{QueueCapacity: 50, NumServers: 8, ClosingTime: 150, AvgServiceTime: 2, AvgArrivalRate: 2, AvgTolerance: 10},
		{QueueCapacity: 1, NumServers: 1, ClosingTime: 100, AvgServiceTime: 1, AvgArrivalRate: 1, AvgTolerance: 1},
	}
	for ci, cfg := range configs {
		for seed := int64(0); seed < 5; seed++ {
			s := mustSimulator(t, cfg, NewPoissonStream(NewSimulationKey(seed)))
			records := collect(t, s)

			var accepted int64
			var prev TickRecord
			for _, rec := range records {
				require.LessOrEqual(t, rec.Rejected, rec.Arrivals)
				accepted += rec.Arrivals - rec.Rejected

				assert.LessOrEqual(t, rec.InQueue, cfg.QueueCapacity, "config %d seed %d tick %d", ci, seed, rec.Time)
				assert.LessOrEqual(t, rec.InService, cfg.NumServers, "config %d seed %d tick %d", ci, seed, rec.Time)
				assert.Equal(t, accepted, rec.FulfilledTotal+rec.TimedOutTotal+rec.InQueue+rec.InService,
					"conservation: config %d seed %d tick %d", ci, seed, rec.Time)
				assert.Equal(t, prev.UnfulfilledTotal+rec.Rejected, rec.UnfulfilledTotal)
				assert.GreaterOrEqual(t, rec.FulfilledTotal, prev.FulfilledTotal)
				assert.GreaterOrEqual(t, rec.TimedOutTotal, prev.TimedOutTotal)
				prev = rec
			}
			assert.Equal(t, accepted, s.Stats.Accepted)
			assert.Equal(t, s.Stats.Arrived, s.Stats.Accepted+s.Stats.Unfulfilled)
		}
	}
}

func TestSimulator_Determinism_SameSeedIdenticalRecords(t *testing.T) {
	cfg := FacilityConfig{QueueCapacity: 10, NumServers: 3, ClosingTime: 300, AvgServiceTime: 4, AvgArrivalRate: 1, AvgTolerance: 6}

	r1 := collect(t, mustSimulator(t, cfg, NewPoissonStream(NewSimulationKey(42))))
	r2 := collect(t, mustSimulator(t, cfg, NewPoissonStream(NewSimulationKey(42))))
	r3 := collect(t, mustSimulator(t, cfg, NewPoissonStream(NewSimulationKey(43))))

	assert.Equal(t, r1, r2)
	assert.NotEqual(t, r1, r3)
}
