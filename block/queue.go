package block

import "github.com/aim-sim/aim/sim"

// Queue is an unbounded FIFO buffer. It accepts unconditionally and ejects
// from the head until the downstream block rejects.
type Queue struct {
	core
}

// NewQueue creates a queue and registers it with the simulator.
func NewQueue(s *sim.Simulator, name string) *Queue {
	q := &Queue{core: newCore(s, name)}
	s.AddBlock(q)
	return q
}

// Take accepts the agent unconditionally.
func (q *Queue) Take(a *sim.Agent) error {
	q.accept(q, a)
	return nil
}

// Tick retries ejecting the head until rejection.
func (q *Queue) Tick(int64) {
	q.drain(q.out(0), -1)
}
