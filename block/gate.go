package block

import "github.com/aim-sim/aim/sim"

// ReleaseMode controls how many agents an open gate lets through per tick.
type ReleaseMode uint8

const (
	// ReleaseOne ejects at most one agent per tick.
	ReleaseOne ReleaseMode = iota
	// ReleaseAll ejects agents until the downstream block rejects.
	ReleaseAll
)

// Gate accumulates agents while closed and releases them while open,
// pacing the release according to its ReleaseMode.
type Gate struct {
	core
	open bool
	mode ReleaseMode
}

// NewGate creates a gate in the state passed and registers it with the
// simulator.
func NewGate(s *sim.Simulator, name string, open bool, mode ReleaseMode) *Gate {
	g := &Gate{core: newCore(s, name), open: open, mode: mode}
	s.AddBlock(g)
	return g
}

// Toggle flips the gate between open and closed.
func (g *Gate) Toggle() {
	g.open = !g.open
}

// Open reports whether the gate is currently open.
func (g *Gate) Open() bool {
	return g.open
}

// Take accepts the agent unconditionally; closed gates accumulate.
func (g *Gate) Take(a *sim.Agent) error {
	g.accept(g, a)
	return nil
}

// Tick releases held agents if the gate is open.
func (g *Gate) Tick(int64) {
	if !g.open {
		return
	}
	limit := 1
	if g.mode == ReleaseAll {
		limit = -1
	}
	g.drain(g.out(0), limit)
}
