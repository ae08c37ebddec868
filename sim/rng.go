package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical configuration
// MUST produce identical sequences of TickRecords.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// WallClockKey seeds a run from the current wall-clock time.
func WallClockKey() SimulationKey {
	return SimulationKey(time.Now().UnixNano())
}

// ReplicationName returns the derivation name for replication i.
func ReplicationName(i int) string {
	return fmt.Sprintf("replication_%d", i)
}

// Replication derives the key for the i-th independent replication.
//
// Derivation formula:
//   - replication 0: the key itself, so a single replication matches `run --seed`
//   - all others: key XOR fnv1a64(ReplicationName(i))
func (k SimulationKey) Replication(i int) SimulationKey {
	if i == 0 {
		return k
	}
	return SimulationKey(int64(k) ^ fnv1a64(ReplicationName(i)))
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

// === RandomProcess ===

// RandomProcess supplies independent Poisson draws. Arrival counts,
// tolerances and service durations all come from the same RandomProcess.
type RandomProcess interface {
	// DrawPoisson returns a non-negative draw with the given mean.
	// A mean <= 0 always yields 0.
	DrawPoisson(mean int64) int64
}

// PoissonStream draws from a single seeded PCG stream.
//
// Thread-safety: NOT thread-safe. Each run owns its own PoissonStream.
type PoissonStream struct {
	key SimulationKey
	src rand.Source
}

// NewPoissonStream creates a PoissonStream seeded from key.
func NewPoissonStream(key SimulationKey) *PoissonStream {
	return &PoissonStream{
		key: key,
		src: rand.NewPCG(uint64(key), uint64(key)^0x9e3779b97f4a7c15),
	}
}

// DrawPoisson implements RandomProcess.
func (p *PoissonStream) DrawPoisson(mean int64) int64 {
	if mean <= 0 {
		return 0
	}
	d := distuv.Poisson{Lambda: float64(mean), Src: p.src}
	return int64(d.Rand())
}

// Key returns the SimulationKey used to seed this stream.
func (p *PoissonStream) Key() SimulationKey {
	return p.key
}

// MeanProcess is a deterministic RandomProcess that returns every mean
// unchanged. It turns a run into an expected-value walk-through.
type MeanProcess struct{}

// DrawPoisson implements RandomProcess.
func (MeanProcess) DrawPoisson(mean int64) int64 {
	if mean <= 0 {
		return 0
	}
	return mean
}
