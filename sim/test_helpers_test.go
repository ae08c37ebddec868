package sim

import "testing"

// scriptedProcess returns queued values per mean, then falls back to the
// mean itself. Tests give each stochastic quantity a distinct mean so the
// scripts do not interfere.
type scriptedProcess struct {
	scripts map[int64][]int64
}

func (p *scriptedProcess) DrawPoisson(mean int64) int64 {
	if q := p.scripts[mean]; len(q) > 0 {
		p.scripts[mean] = q[1:]
		return q[0]
	}
	return MeanProcess{}.DrawPoisson(mean)
}

// collect runs s to completion and returns every record.
func collect(t *testing.T, s *Simulator) []TickRecord {
	t.Helper()
	var records []TickRecord
	err := s.Run(SinkFunc(func(rec TickRecord) error {
		records = append(records, rec)
		return nil
	}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return records
}

func mustSimulator(t *testing.T, cfg FacilityConfig, rng RandomProcess) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, rng)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return s
}
