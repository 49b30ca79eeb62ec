package block

import (
	"errors"
	"fmt"

	"github.com/aim-sim/aim/sim"
)

// Source spawns fresh agents into the network. Each tick it asks its spawn
// schedule how many agents to create and feeds them into its sole output.
// Sources have no buffer: an agent the downstream block rejects is dropped.
type Source struct {
	core
	// Spawn returns the number of agents to spawn at the tick passed. If
	// nil, the source spawns nothing.
	Spawn func(tick int64) int
	// NewAgent produces a fresh agent for every spawn. It defaults to
	// sim.NewAgent on the owning simulator.
	NewAgent func() *sim.Agent
}

// NewSource creates a source with the spawn schedule passed and registers it
// with the simulator.
func NewSource(s *sim.Simulator, name string, spawn func(tick int64) int) *Source {
	src := &Source{core: newCore(s, name), Spawn: spawn}
	src.NewAgent = func() *sim.Agent { return sim.NewAgent(s) }
	s.AddBlock(src)
	return src
}

// Take rejects: a source has no input.
func (src *Source) Take(*sim.Agent) error {
	return sim.Rejectf("block %s: source does not accept agents", src.name)
}

// Tick spawns the scheduled number of agents and feeds them downstream.
func (src *Source) Tick(tick int64) {
	if src.Spawn == nil {
		return
	}
	out := src.out(0)
	for i, n := 0, src.Spawn(tick); i < n; i++ {
		if out == nil {
			panic(fmt.Sprintf("block %s: source has no output", src.name))
		}
		a := src.NewAgent()
		src.s.Metrics().IncSpawns(src.name)
		if err := out.Take(a); err != nil {
			if !errors.Is(err, sim.ErrRejected) {
				panic(fmt.Sprintf("block %s: spawn failed: %v", src.name, err))
			}
			a.Destroy()
			src.s.Metrics().IncDrops(src.name)
			src.s.Logger().Debug("source dropped agent", "block", src.name, "tick", tick)
		}
	}
}
