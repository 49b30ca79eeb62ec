package block

import (
	"fmt"

	"github.com/aim-sim/aim/sim"
)

// RestrictedAreaStart admits agents into a bounded region of the network.
// It buffers arriving agents and forwards them only while the number of
// agents between it and its paired RestrictedAreaEnd is below the maximum.
type RestrictedAreaStart struct {
	core
	max    int
	active int
	end    *RestrictedAreaEnd
}

// NewRestrictedAreaStart creates the entry half of a restricted area
// admitting at most max agents and registers it with the simulator. Pair it
// with an end block using SetEnd before running.
func NewRestrictedAreaStart(s *sim.Simulator, name string, max int) *RestrictedAreaStart {
	if max < 1 {
		panic("block: restricted area must admit at least one agent")
	}
	st := &RestrictedAreaStart{core: newCore(s, name), max: max}
	s.AddBlock(st)
	return st
}

// SetEnd binds the exit half of the restricted area to this entry.
func (st *RestrictedAreaStart) SetEnd(end *RestrictedAreaEnd) {
	if end == nil {
		panic(fmt.Sprintf("block %s: restricted area end must not be nil", st.name))
	}
	if end.start != nil && end.start != st {
		panic(fmt.Sprintf("block %s: restricted area end already bound", st.name))
	}
	st.end = end
	end.start = st
}

// Active returns the number of agents currently inside the area.
func (st *RestrictedAreaStart) Active() int {
	return st.active
}

// Take accepts the agent into the admission buffer.
func (st *RestrictedAreaStart) Take(a *sim.Agent) error {
	st.accept(st, a)
	return nil
}

// Tick admits buffered agents while the area has free slots, incrementing
// the shared counter on every successful admission.
func (st *RestrictedAreaStart) Tick(int64) {
	if st.end == nil {
		panic(fmt.Sprintf("block %s: restricted area has no end bound", st.name))
	}
	for len(st.held) > 0 && st.active < st.max {
		// The slot is claimed before the handoff so that a synchronous
		// chain through to the end block sees a consistent counter.
		st.active++
		if err := st.ejectHead(st.out(0)); err != nil {
			st.active--
			break
		}
	}
}

// RestrictedAreaEnd is the exit half of a restricted area. It forwards each
// agent to its output and frees the agent's slot in the paired start block.
type RestrictedAreaEnd struct {
	core
	start *RestrictedAreaStart
}

// NewRestrictedAreaEnd creates the exit half of a restricted area and
// registers it with the simulator.
func NewRestrictedAreaEnd(s *sim.Simulator, name string) *RestrictedAreaEnd {
	end := &RestrictedAreaEnd{core: newCore(s, name)}
	s.AddBlock(end)
	return end
}

// Take forwards the agent downstream and decrements the area counter on
// success. A downstream rejection propagates without freeing the slot.
func (end *RestrictedAreaEnd) Take(a *sim.Agent) error {
	if end.start == nil {
		panic(fmt.Sprintf("block %s: restricted area end not bound to a start", end.name))
	}
	out := end.out(0)
	if out == nil {
		return sim.Rejectf("block %s: no output connected", end.name)
	}
	if err := out.Take(a); err != nil {
		return err
	}
	end.start.active--
	return nil
}

// Tick does nothing; the end block never holds agents.
func (end *RestrictedAreaEnd) Tick(int64) {}
