package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServerPool_Assign_LowestIdleIndex(t *testing.T) {
	p := NewServerPool(3)

	slot, ok := p.Assign(1, 5)
	assert.True(t, ok)
	assert.Equal(t, 0, slot)

	slot, ok = p.Assign(2, 1)
	assert.True(t, ok)
	assert.Equal(t, 1, slot)

	// slot 1 finishes; slot 0 still busy
	assert.Equal(t, 1, p.Tick())

	slot, ok = p.Assign(3, 2)
	assert.True(t, ok)
	assert.Equal(t, 1, slot, "freed slot 1 is the lowest idle index")
	assert.Equal(t, 2, p.Busy())
	assert.Equal(t, 1, p.Idle())
}

func TestServerPool_Assign_AllBusy(t *testing.T) {
	p := NewServerPool(1)
	p.Assign(1, 3)

	slot, ok := p.Assign(2, 3)

	assert.False(t, ok)
	assert.Equal(t, -1, slot)
	assert.False(t, p.HasIdle())
	assert.Equal(t, int64(1), p.Snapshot()[0].CustomerID, "pool must be unchanged")
}

func TestServerPool_Tick_CountsCompletions(t *testing.T) {
	p := NewServerPool(3)
	p.Assign(1, 1)
	p.Assign(2, 2)
	p.Assign(3, 2)

	assert.Equal(t, 1, p.Tick())
	assert.Equal(t, 2, p.Busy())
	assert.Equal(t, 2, p.Tick())
	assert.Equal(t, 0, p.Busy())
	assert.Equal(t, 0, p.Tick(), "idle servers do not complete anything")
}

func TestServerPool_Assign_ZeroDurationServedForOneTick(t *testing.T) {
	p := NewServerPool(1)
	p.Assign(1, 0)

	s := p.Snapshot()[0]
	assert.True(t, s.Busy)
	assert.Equal(t, int64(1), s.Remaining)
	assert.Equal(t, 1, p.Tick())
	assert.True(t, p.HasIdle())
}

func TestServerPool_RemainingPositiveWhileBusy(t *testing.T) {
	p := NewServerPool(4)
	durations := []int64{3, 1, 4, 2}
	for i, d := range durations {
		p.Assign(int64(i+1), d)
	}
	for range 5 {
		for _, s := range p.Snapshot() {
			if s.Busy {
				assert.Positive(t, s.Remaining)
			} else {
				assert.Zero(t, s.Remaining)
			}
		}
		p.Tick()
	}
	assert.Zero(t, p.Busy())
}

func TestServerPool_EmptyPool(t *testing.T) {
	p := NewServerPool(0)
	assert.False(t, p.HasIdle())
	_, ok := p.Assign(1, 1)
	assert.False(t, ok)
	assert.Zero(t, p.Tick())
	assert.Zero(t, p.Size())
}
