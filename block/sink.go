package block

import "github.com/aim-sim/aim/sim"

// Sink accepts agents unconditionally, counts them and destroys them. A
// container arriving with children destroys the children with it; the count
// only reflects agents the sink received directly.
type Sink struct {
	core
	count uint64
}

// NewSink creates a sink and registers it with the simulator.
func NewSink(s *sim.Simulator, name string) *Sink {
	snk := &Sink{core: newCore(s, name)}
	s.AddBlock(snk)
	return snk
}

// Count returns the number of agents the sink has received.
func (snk *Sink) Count() uint64 {
	return snk.count
}

// Take accepts and destroys the agent.
func (snk *Sink) Take(a *sim.Agent) error {
	snk.s.Metrics().IncTakes(snk.name)
	if snk.OnEnter != nil {
		snk.OnEnter(a)
	}
	a.Handler().HandleEnterBlock(a, snk)
	snk.count++
	for _, ch := range a.Children {
		ch.Destroy()
	}
	a.Destroy()
	return nil
}

// Tick does nothing; a sink never holds agents.
func (snk *Sink) Tick(int64) {}
