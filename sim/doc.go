// Package sim provides the tick-driven simulation engine for a single service
// facility: customers arrive, wait in a bounded queue, and are served by a
// fixed pool of servers.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - queue.go: WaitQueue and the per-tick Sweep that assigns, ages, or abandons customers
//   - server.go: ServerPool countdowns and lowest-index assignment
//   - simulator.go: the tick loop, its open and drain phases, and record emission
//
// # Architecture
//
// The core performs no I/O. Every tick produces a TickRecord that is handed to
// a ReportSink; implementations live elsewhere:
//   - sim/trace/: in-memory recording and run summaries
//   - sim/metrics/: Prometheus exporter
//   - sim/replicate/: independent Monte Carlo replications
//
// All randomness comes from one RandomProcess per run. PoissonStream is the
// seeded implementation; MeanProcess replaces every draw with its mean.
package sim
