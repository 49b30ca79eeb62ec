package block

import (
	"errors"
	"fmt"

	"github.com/aim-sim/aim/sim"
)

// Combine merges pickups onto a container. It has two input ports: the
// block itself receives containers, the block returned by PickupIn receives
// pickups. Once a container and the full number of pickups are present, the
// container leaves with the pickups recorded as its children; from then on
// the pickups travel with the container.
type Combine struct {
	core
	max       int
	container *sim.Agent
	pickups   []*sim.Agent
}

// NewCombine creates a combine block collecting maxPickups pickups per
// container and registers it with the simulator.
func NewCombine(s *sim.Simulator, name string, maxPickups int) *Combine {
	if maxPickups < 1 {
		panic("block: combine requires at least one pickup per container")
	}
	c := &Combine{core: newCore(s, name), max: maxPickups}
	s.AddBlock(c)
	return c
}

// PickupIn returns the pickup input port of the block. Upstream blocks
// feeding pickups connect to it; the Combine block itself is the container
// port.
func (c *Combine) PickupIn() sim.Block {
	return &pickupPort{c: c}
}

// Take accepts a container. A second container is rejected until the
// current one has left.
func (c *Combine) Take(a *sim.Agent) error {
	if c.container != nil {
		return sim.Rejectf("block %s: container slot occupied", c.name)
	}
	c.container = a
	a.SetCurrentBlock(c)
	c.s.Metrics().IncTakes(c.name)
	if c.OnEnter != nil {
		c.OnEnter(a)
	}
	a.Handler().HandleEnterBlock(a, c)
	return nil
}

// Tick emits the container once the pickup set is complete. The pickups are
// linked to the container before the handoff so a downstream rejection
// simply retries next tick with the relations already in place.
func (c *Combine) Tick(int64) {
	if c.container == nil || len(c.pickups) < c.max {
		return
	}
	cont := c.container
	cont.Children = append(cont.Children[:0], c.pickups...)
	for _, p := range c.pickups {
		p.Parents = []*sim.Agent{cont}
	}
	out := c.out(0)
	if out == nil {
		c.s.Metrics().IncRejections(c.name)
		return
	}
	if err := out.Take(cont); err != nil {
		if errors.Is(err, sim.ErrRejected) {
			c.s.Metrics().IncRejections(c.name)
			return
		}
		panic(fmt.Sprintf("block %s: eject failed: %v", c.name, err))
	}
	if c.OnExit != nil {
		c.OnExit(cont)
	}
	for _, p := range c.pickups {
		p.SetCurrentBlock(nil)
	}
	c.container = nil
	c.pickups = nil
	c.s.Metrics().IncEjections(c.name)
}

// pickupPort is the pickup-side input of a Combine block.
type pickupPort struct {
	c *Combine
}

func (p *pickupPort) Take(a *sim.Agent) error {
	c := p.c
	if len(c.pickups) >= c.max {
		return sim.Rejectf("block %s: pickup buffer full", c.name)
	}
	c.pickups = append(c.pickups, a)
	a.SetCurrentBlock(c)
	c.s.Metrics().IncTakes(c.name)
	if c.OnEnter != nil {
		c.OnEnter(a)
	}
	a.Handler().HandleEnterBlock(a, c)
	return nil
}

func (p *pickupPort) Tick(int64) {}

// Split is the inverse of Combine: a container entering the block leaves
// through the first output while each of its children is ejected through
// the second output individually. The split is all-or-nothing; if any
// target rejects, agents already handed off are retracted and the split
// rejects as a whole.
type Split struct {
	core
}

// NewSplit creates a split block and registers it with the simulator.
func NewSplit(s *sim.Simulator, name string) *Split {
	sp := &Split{core: newCore(s, name)}
	s.AddBlock(sp)
	return sp
}

// ConnectFirst sets the output receiving containers.
func (sp *Split) ConnectFirst(b sim.Block) {
	sp.ConnectSlot(b, 0)
}

// ConnectSecond sets the output receiving the container's children.
func (sp *Split) ConnectSecond(b sim.Block) {
	sp.ConnectSlot(b, 1)
}

// Take splits the container without buffering. No partial progress is ever
// visible to the network: a rejection from any target rolls the whole
// handoff back.
func (sp *Split) Take(a *sim.Agent) error {
	out0, out1 := sp.out(0), sp.out(1)
	children := a.Children
	if out0 == nil {
		return sim.Rejectf("block %s: container output not connected", sp.name)
	}
	if len(children) > 0 && out1 == nil {
		return sim.Rejectf("block %s: child output not connected", sp.name)
	}
	prev := a.CurrentBlock()
	// The children are detached before the container moves so that a
	// destroying target on the first output cannot take them down with it.
	a.Children = nil
	if err := out0.Take(a); err != nil {
		a.Children = children
		if errors.Is(err, sim.ErrRejected) {
			return err
		}
		panic(fmt.Sprintf("block %s: eject failed: %v", sp.name, err))
	}
	for i, ch := range children {
		err := out1.Take(ch)
		if err == nil {
			continue
		}
		if !errors.Is(err, sim.ErrRejected) {
			panic(fmt.Sprintf("block %s: eject failed: %v", sp.name, err))
		}
		for _, acc := range children[:i] {
			sp.retract(out1, acc)
		}
		sp.retract(out0, a)
		a.SetCurrentBlock(prev)
		a.Children = children
		return fmt.Errorf("block %s: split rolled back: %w", sp.name, err)
	}
	for _, ch := range children {
		ch.Parents = nil
	}
	return nil
}

// Tick does nothing; a Split never holds agents.
func (sp *Split) Tick(int64) {}

func (sp *Split) retract(b sim.Block, a *sim.Agent) {
	r, ok := b.(sim.Retractor)
	if !ok {
		panic(fmt.Sprintf("block %s: split target cannot retract agents", sp.name))
	}
	r.Retract(a)
}
