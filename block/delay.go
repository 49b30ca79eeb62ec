package block

import (
	"github.com/aim-sim/aim/sim"
)

// Delay holds accepted agents for a fixed number of ticks, or until a
// release event arrives when constructed with NewEventDelay. Agents leave in
// the order they entered.
type Delay struct {
	core
	delay        int64
	releaseEvent string
	entries      []delayEntry
}

type delayEntry struct {
	a        *sim.Agent
	release  int64
	released bool
	prev     sim.AgentHandler
}

// NewDelay creates a delay of the fixed number of ticks passed and registers
// it with the simulator. An agent accepted at tick t becomes eligible for
// ejection at tick t+delay.
func NewDelay(s *sim.Simulator, name string, delay int64) *Delay {
	if delay < 0 {
		panic("block: delay must not be negative")
	}
	d := &Delay{core: newCore(s, name), delay: delay}
	s.AddBlock(d)
	return d
}

// NewEventDelay creates a delay that holds each agent until the agent
// receives the exact release event passed.
func NewEventDelay(s *sim.Simulator, name string, releaseEvent string) *Delay {
	if releaseEvent == "" {
		panic("block: delay release event must be non-empty")
	}
	d := &Delay{core: newCore(s, name), releaseEvent: releaseEvent}
	s.AddBlock(d)
	return d
}

// Take accepts the agent and records its release condition. In event mode
// the agent is subscribed to the release event and its handler is wrapped so
// the delay notices the delivery; the original handler is restored when the
// agent leaves.
func (d *Delay) Take(a *sim.Agent) error {
	d.accept(d, a)
	e := delayEntry{a: a, release: d.s.CurrentTick() + d.delay}
	if d.releaseEvent != "" {
		d.s.Subscribe(a, d.releaseEvent)
		h := &delayReleaseHandler{d: d, a: a}
		h.prev = a.Handle(h)
		e.prev = h.prev
	}
	d.entries = append(d.entries, e)
	return nil
}

// Tick ejects eligible agents in FIFO order, stopping at the first agent
// that is not yet eligible or at the first rejection.
func (d *Delay) Tick(tick int64) {
	for len(d.entries) > 0 {
		e := d.entries[0]
		ready := e.released
		if d.releaseEvent == "" {
			ready = e.release <= tick
		}
		if !ready {
			break
		}
		if err := d.ejectHead(d.out(0)); err != nil {
			break
		}
		if d.releaseEvent != "" {
			e.a.Handle(e.prev)
		}
		d.entries = d.entries[1:]
	}
}

func (d *Delay) markReleased(a *sim.Agent) {
	for i := range d.entries {
		if d.entries[i].a == a {
			d.entries[i].released = true
			return
		}
	}
}

// delayReleaseHandler wraps an agent's handler while it waits in an
// event-released delay, marking the agent eligible when the release event
// arrives and delegating everything to the wrapped handler.
type delayReleaseHandler struct {
	d    *Delay
	a    *sim.Agent
	prev sim.AgentHandler
}

func (h *delayReleaseHandler) HandleEnterBlock(a *sim.Agent, b sim.Block) {
	h.prev.HandleEnterBlock(a, b)
}

func (h *delayReleaseHandler) HandleEvent(a *sim.Agent, event string) {
	if event == h.d.releaseEvent {
		h.d.markReleased(h.a)
	}
	h.prev.HandleEvent(a, event)
}
