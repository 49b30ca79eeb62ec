package block

import (
	"errors"
	"fmt"

	"github.com/aim-sim/aim/sim"
	"github.com/aim-sim/aim/space"
)

// Conveyor feeds agents onto a conveyor space and ejects them once their
// traversal completes. At most one agent may enter per tick, so consecutive
// entries never collide inside the shared entry interval.
type Conveyor struct {
	core
	space     *space.Conveyors
	from, to  string
	lastEntry int64
}

// NewConveyor creates a conveyor block moving agents from one entity of the
// space to another and registers it with the simulator. Both entities must
// already be registered with the space.
func NewConveyor(s *sim.Simulator, name string, sp *space.Conveyors, from, to string) *Conveyor {
	if sp == nil {
		panic(fmt.Sprintf("block %s: conveyor requires a space", name))
	}
	if !sp.HasEntity(from) {
		panic(fmt.Sprintf("block %s: start entity %q not registered with the space", name, from))
	}
	if !sp.HasEntity(to) {
		panic(fmt.Sprintf("block %s: end entity %q not registered with the space", name, to))
	}
	c := &Conveyor{core: newCore(s, name), space: sp, from: from, to: to, lastEntry: -1}
	s.AddBlock(c)
	return c
}

// Take registers the agent with the space and accepts it on success. The
// take is rejected when an agent already entered this tick, when no path
// exists or when the entry interval is occupied.
func (c *Conveyor) Take(a *sim.Agent) error {
	tick := c.s.CurrentTick()
	if c.lastEntry == tick {
		c.s.Metrics().IncRejections(c.name)
		return sim.Rejectf("block %s: an agent already entered this tick", c.name)
	}
	if err := c.space.Register(a, c.from, c.to); err != nil {
		c.s.Metrics().IncRejections(c.name)
		return sim.Rejectf("block %s: %v", c.name, err)
	}
	c.accept(c, a)
	c.lastEntry = tick
	return nil
}

// Tick ejects agents whose traversal completed, in FIFO order, and
// unregisters each from the space right after the downstream block accepted
// it. A rejected agent keeps its spatial slot and retries next tick.
func (c *Conveyor) Tick(int64) {
	for len(c.held) > 0 && c.space.MovementComplete(c.held[0]) {
		a := c.held[0]
		out := c.out(0)
		if out == nil {
			c.s.Metrics().IncRejections(c.name)
			break
		}
		if err := out.Take(a); err != nil {
			if errors.Is(err, sim.ErrRejected) {
				c.s.Metrics().IncRejections(c.name)
				break
			}
			panic(fmt.Sprintf("block %s: eject failed: %v", c.name, err))
		}
		c.space.Unregister(a)
		if c.OnExit != nil {
			c.OnExit(a)
		}
		c.held = c.held[1:]
		c.s.Metrics().IncEjections(c.name)
	}
}

// ConveyorExit marks the point where agents no longer need a spatial slot.
// It is a plain pass-through buffer: the conveyor block upstream already
// unregistered the agent from the space.
type ConveyorExit struct {
	core
}

// NewConveyorExit creates a conveyor exit and registers it with the
// simulator.
func NewConveyorExit(s *sim.Simulator, name string) *ConveyorExit {
	e := &ConveyorExit{core: newCore(s, name)}
	s.AddBlock(e)
	return e
}

// Take accepts the agent unconditionally.
func (e *ConveyorExit) Take(a *sim.Agent) error {
	e.accept(e, a)
	return nil
}

// Tick forwards held agents until the downstream block rejects.
func (e *ConveyorExit) Tick(int64) {
	e.drain(e.out(0), -1)
}
