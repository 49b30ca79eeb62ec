package block

import (
	"fmt"

	"github.com/aim-sim/aim/sim"
)

// If routes agents by a boolean condition without buffering them. An agent
// for which the condition holds goes to the first output, otherwise to the
// second. If the chosen output is missing or rejects, the If block itself
// rejects and the upstream block keeps the agent.
type If struct {
	core
	// Cond decides the route of each agent. Required.
	Cond func(a *sim.Agent) bool
}

// NewIf creates an If block with the condition passed and registers it with
// the simulator.
func NewIf(s *sim.Simulator, name string, cond func(a *sim.Agent) bool) *If {
	i := &If{core: newCore(s, name), Cond: cond}
	s.AddBlock(i)
	return i
}

// ConnectFirst sets the output taken when the condition holds.
func (i *If) ConnectFirst(b sim.Block) {
	i.ConnectSlot(b, 0)
}

// ConnectSecond sets the output taken when the condition does not hold.
func (i *If) ConnectSecond(b sim.Block) {
	i.ConnectSlot(b, 1)
}

// Take evaluates the condition and forwards the agent to the chosen output.
func (i *If) Take(a *sim.Agent) error {
	if i.Cond == nil {
		panic(fmt.Sprintf("block %s: if block requires a condition", i.name))
	}
	slot := 1
	if i.Cond(a) {
		slot = 0
	}
	out := i.out(slot)
	if out == nil {
		return sim.Rejectf("block %s: output %d not connected", i.name, slot)
	}
	return out.Take(a)
}

// Tick does nothing; an If block never holds agents.
func (i *If) Tick(int64) {}

// Switch routes agents by a key function over a set of keyed outputs,
// without buffering. Routing an agent to a key that has no output connected
// is a misconfiguration and aborts the run.
type Switch struct {
	core
	// KeyOf derives the routing key of each agent. Required.
	KeyOf func(a *sim.Agent) string
	byKey map[string]sim.Block
}

// NewSwitch creates a switch with the key function passed and registers it
// with the simulator.
func NewSwitch(s *sim.Simulator, name string, keyOf func(a *sim.Agent) string) *Switch {
	sw := &Switch{core: newCore(s, name), KeyOf: keyOf, byKey: make(map[string]sim.Block)}
	s.AddBlock(sw)
	return sw
}

// ConnectKey sets the output used for agents whose key equals the key
// passed.
func (sw *Switch) ConnectKey(key string, b sim.Block) {
	if b == nil {
		panic(fmt.Sprintf("block %s: connecting a nil block", sw.name))
	}
	sw.byKey[key] = b
}

// Take routes the agent to the output registered for its key.
func (sw *Switch) Take(a *sim.Agent) error {
	if sw.KeyOf == nil {
		panic(fmt.Sprintf("block %s: switch requires a key function", sw.name))
	}
	key := sw.KeyOf(a)
	out, ok := sw.byKey[key]
	if !ok {
		return fmt.Errorf("block %s: no output for key %q", sw.name, key)
	}
	return out.Take(a)
}

// Tick does nothing; a Switch never holds agents.
func (sw *Switch) Tick(int64) {}
