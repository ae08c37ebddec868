package sim

import "fmt"

// Server is one service position.
type Server struct {
	Remaining  int64 // ticks until free, > 0 while Busy
	Busy       bool
	CustomerID int64 // customer being served, meaningful only while Busy
}

// ServerPool is a fixed-size set of servers. Its size is set once in
// NewServerPool and never changes.
type ServerPool struct {
	servers []Server
	busy    int
}

// NewServerPool creates a pool of n idle servers.
func NewServerPool(n int) *ServerPool {
	if n < 0 {
		panic(fmt.Sprintf("NewServerPool: size must be >= 0, got %d", n))
	}
	return &ServerPool{servers: make([]Server, n)}
}

// Tick advances every busy server by one tick and returns how many of them
// finished their customer. Finished servers are idle on return, so they can
// take a new customer in the same tick.
func (p *ServerPool) Tick() int {
	completed := 0
	for i := range p.servers {
		s := &p.servers[i]
		if !s.Busy {
			continue
		}
		s.Remaining--
		if s.Remaining <= 0 {
			s.Remaining = 0
			s.Busy = false
			s.CustomerID = 0
			completed++
		}
	}
	p.busy -= completed
	return completed
}

// Assign gives customerID to the lowest-indexed idle server for duration
// ticks. A duration below 1 is served as 1 tick. ok is false, and the pool
// unchanged, when every server is busy.
func (p *ServerPool) Assign(customerID, duration int64) (slot int, ok bool) {
	if p.busy == len(p.servers) {
		return -1, false
	}
	for i := range p.servers {
		s := &p.servers[i]
		if s.Busy {
			continue
		}
		s.Busy = true
		s.Remaining = max(duration, 1)
		s.CustomerID = customerID
		p.busy++
		return i, true
	}
	return -1, false
}

// HasIdle reports whether at least one server is idle.
func (p *ServerPool) HasIdle() bool {
	return p.busy < len(p.servers)
}

// Busy returns the number of busy servers.
func (p *ServerPool) Busy() int {
	return p.busy
}

// Idle returns the number of idle servers.
func (p *ServerPool) Idle() int {
	return len(p.servers) - p.busy
}

// Size returns the number of servers in the pool.
func (p *ServerPool) Size() int {
	return len(p.servers)
}

// Snapshot returns a copy of every server's state, indexed by slot.
func (p *ServerPool) Snapshot() []Server {
	out := make([]Server, len(p.servers))
	copy(out, p.servers)
	return out
}
