package sim

// Block is a process node in the flow network. Blocks own zero or more
// agents and route them to downstream blocks. Blocks register themselves
// with a Simulator at construction and are ticked in registration order for
// the lifetime of the simulation.
type Block interface {
	// Take attempts to transfer an agent into the block. A block must either
	// accept the agent (taking ownership of it) or return an error; it never
	// silently drops the agent. A returned error satisfying
	// errors.Is(err, ErrRejected) means the block cannot accept the agent
	// this tick and the caller should keep it and retry next tick. Any other
	// error indicates misconfiguration and aborts the run.
	Take(a *Agent) error
	// Tick advances the block by one simulation tick. Blocks typically use
	// Tick to attempt ejection of held agents to their output connections.
	Tick(tick int64)
}

// Retractor is implemented by blocks that can withdraw an agent they
// previously accepted in the same tick. It exists to support all-or-nothing
// multi-target handoffs: a caller that handed agents to several blocks and
// then hit a rejection retracts the ones already accepted.
type Retractor interface {
	Retract(a *Agent)
}

// Observer is notified at the end of every tick, after all phases have
// completed. Observers see a consistent snapshot of agent and block state at
// tick boundaries and must not mutate it.
type Observer interface {
	HandleTickEnd(tick int64)
}

// NopObserver implements Observer, doing nothing. It may be embedded by
// observers that only care about a subset of notifications.
type NopObserver struct{}

// HandleTickEnd ...
func (NopObserver) HandleTickEnd(int64) {}
