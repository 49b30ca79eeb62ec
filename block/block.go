// Package block implements the canonical block family of the AIM engine:
// sources, queues, delays, gates, routing blocks, restricted areas,
// combine/split and the conveyor entry/exit blocks.
package block

import (
	"errors"
	"fmt"

	"github.com/aim-sim/aim/internal/sliceutil"
	"github.com/aim-sim/aim/sim"
)

// core holds the state shared by all blocks in the package: the simulator
// handle, the ordered output connections and the FIFO of held agents. It is
// embedded by the concrete block types.
type core struct {
	s       *sim.Simulator
	name    string
	outputs []sim.Block
	held    []*sim.Agent

	// OnEnter is called after the block accepted an agent.
	OnEnter func(a *sim.Agent)
	// OnExit is called after a downstream block accepted an ejected agent,
	// just before the block releases ownership.
	OnExit func(a *sim.Agent)
}

func newCore(s *sim.Simulator, name string) core {
	if s == nil {
		panic("block: block requires a simulator")
	}
	if name == "" {
		panic("block: block name must be non-empty")
	}
	return core{s: s, name: name}
}

// Name returns the name the block was constructed with.
func (c *core) Name() string {
	return c.name
}

// Connect sets the block's first output connection.
func (c *core) Connect(next sim.Block) {
	c.ConnectSlot(next, 0)
}

// ConnectSlot sets the output connection at the slot passed. Slot semantics
// vary by block type; branching blocks give slots 0 and 1 distinct meaning.
func (c *core) ConnectSlot(next sim.Block, slot int) {
	if next == nil {
		panic(fmt.Sprintf("block %s: connecting a nil block", c.name))
	}
	if slot < 0 {
		panic(fmt.Sprintf("block %s: negative output slot %d", c.name, slot))
	}
	for len(c.outputs) <= slot {
		c.outputs = append(c.outputs, nil)
	}
	c.outputs[slot] = next
}

// out returns the output connection at the slot, or nil if not connected.
func (c *core) out(slot int) sim.Block {
	if slot >= len(c.outputs) {
		return nil
	}
	return c.outputs[slot]
}

// Len returns the number of agents the block currently holds.
func (c *core) Len() int {
	return len(c.held)
}

// accept performs the default take semantics: the block takes ownership of
// the agent, appends it to the held FIFO and runs the enter hooks.
func (c *core) accept(self sim.Block, a *sim.Agent) {
	a.SetCurrentBlock(self)
	c.held = append(c.held, a)
	c.s.Metrics().IncTakes(c.name)
	if c.OnEnter != nil {
		c.OnEnter(a)
	}
	a.Handler().HandleEnterBlock(a, self)
}

// ejectHead hands the oldest held agent to out. A rejection from out is
// returned and the agent is kept; any other error escalates to a panic, as
// it indicates a misconfigured network. On success the exit hook runs and
// ownership is released.
func (c *core) ejectHead(out sim.Block) error {
	a := c.held[0]
	if out == nil {
		c.s.Metrics().IncRejections(c.name)
		return sim.Rejectf("block %s: no output connected", c.name)
	}
	if err := out.Take(a); err != nil {
		if errors.Is(err, sim.ErrRejected) {
			c.s.Metrics().IncRejections(c.name)
			return err
		}
		panic(fmt.Sprintf("block %s: eject failed: %v", c.name, err))
	}
	if c.OnExit != nil {
		c.OnExit(a)
	}
	c.held = c.held[1:]
	c.s.Metrics().IncEjections(c.name)
	return nil
}

// drain ejects held agents to out in FIFO order, stopping at the first
// rejection. A negative limit drains until rejection or empty. Returns the
// number of agents ejected.
func (c *core) drain(out sim.Block, limit int) int {
	n := 0
	for len(c.held) > 0 && (limit < 0 || n < limit) {
		if err := c.ejectHead(out); err != nil {
			break
		}
		n++
	}
	return n
}

// Retract withdraws an agent the block accepted earlier in the same tick,
// reversing the ownership transfer. It exists to support all-or-nothing
// multi-target handoffs; see Split.
func (c *core) Retract(a *sim.Agent) {
	c.held = sliceutil.DeleteVal(c.held, a)
	a.SetCurrentBlock(nil)
}
