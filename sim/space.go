package sim

import "github.com/go-gl/mathgl/mgl64"

// Space is a spatial substrate that manages agent position and collision
// independently of block flow. Registration is space-specific and therefore
// not part of the interface: a block built for a concrete space registers
// agents through that space's own API. A space exclusively owns the
// spatial-transit state of an agent between registration and the moment the
// owning block unregisters it after MovementComplete reports true.
type Space interface {
	// Update advances all registered agents by the time delta passed. The
	// simulator calls Update once per tick with a delta of 1, before events
	// are delivered and blocks are ticked.
	Update(delta float64)
	// MovementComplete reports whether the agent has finished traversing its
	// stored path and is ready to be ejected by the owning block.
	MovementComplete(a *Agent) bool
	// Unregister releases the agent's spatial state. Calling Unregister for
	// an agent that is not registered is a no-op.
	Unregister(a *Agent)
}

// SpaceState holds the spatial data a Space maintains for an agent while it
// is registered. The fields are updated by the space each tick and may be
// read by observers; Position refers to the agent's trailing edge.
type SpaceState struct {
	Position         mgl64.Vec3
	ProgressOnEntity float64
	ProgressOnPath   float64
}
