package sim

import (
	"github.com/google/uuid"
)

// Agent is a passive mobile entity moving between blocks and across spaces.
// Agents carry identity, dimensions and free-form user data; the engine
// calls back into them through their AgentHandler.
type Agent struct {
	id uuid.UUID

	// Width and Length are the agent's dimensions. Spaces use Length to
	// compute the occupancy interval of the agent on a spatial entity.
	Width, Length float64

	// SpaceState is maintained by the Space the agent is registered with,
	// if any. See SpaceState.
	SpaceState SpaceState

	// Data is an opaque user payload. The engine never touches it.
	Data any

	// Parents and Children hold combine/split relations. These are pure
	// relations, not ownership edges: a combined pickup is reachable through
	// its container's Children while no block holds it directly.
	Parents, Children []*Agent

	s         *Simulator
	current   Block
	handler   AgentHandler
	subs      map[string]struct{}
	destroyed bool
}

// NewAgent creates an agent attached to the simulator passed. The agent's id
// is drawn from the simulator's deterministic id stream, so runs with the
// same seed produce the same ids.
func NewAgent(s *Simulator) *Agent {
	if s == nil {
		panic("sim: agent requires a simulator")
	}
	id, err := uuid.NewRandomFromReader(&s.idSource)
	if err != nil {
		panic("sim: agent id generation failed: " + err.Error())
	}
	return &Agent{id: id, s: s, handler: NopAgentHandler{}}
}

// ID returns the unique id of the agent.
func (a *Agent) ID() uuid.UUID {
	return a.id
}

// Handle sets the handler of the agent and returns the handler previously
// set. Passing nil installs NopAgentHandler. Blocks that need to intercept
// agent events temporarily wrap the previous handler and restore it when
// done.
func (a *Agent) Handle(h AgentHandler) AgentHandler {
	prev := a.handler
	if h == nil {
		h = NopAgentHandler{}
	}
	a.handler = h
	return prev
}

// Handler returns the handler currently attached to the agent.
func (a *Agent) Handler() AgentHandler {
	return a.handler
}

// CurrentBlock returns the block currently owning the agent, or nil if the
// agent is not owned by a block.
func (a *Agent) CurrentBlock() Block {
	return a.current
}

// SetCurrentBlock records the block owning the agent. It is called by blocks
// during Take and retraction; user code generally has no reason to call it.
func (a *Agent) SetCurrentBlock(b Block) {
	a.current = b
}

// EmitEvent broadcasts an event tag from the agent. The event is delivered
// to all subscribed agents at the start of the next tick, never during the
// current one. The event string must be non-empty.
func (a *Agent) EmitEvent(event string) {
	if event == "" {
		panic("sim: emitted event must be non-empty")
	}
	if a.destroyed {
		return
	}
	a.s.bus.emit(event, a.id)
}

// Destroyed reports whether the agent has been destroyed.
func (a *Agent) Destroyed() bool {
	return a.destroyed
}

// Destroy marks the agent as destroyed and releases its references. Pending
// event deliveries to a destroyed agent are silently skipped.
func (a *Agent) Destroy() {
	a.destroyed = true
	a.current = nil
	a.handler = NopAgentHandler{}
}

// subscribed reports whether the agent already listens for the event.
func (a *Agent) subscribed(event string) bool {
	_, ok := a.subs[event]
	return ok
}

func (a *Agent) addSubscription(event string) {
	if a.subs == nil {
		a.subs = make(map[string]struct{})
	}
	a.subs[event] = struct{}{}
}

// AgentHandler handles engine callbacks into an agent. All methods run
// synchronously inside the tick phase that triggered them.
type AgentHandler interface {
	// HandleEnterBlock is called after a block accepted the agent.
	HandleEnterBlock(a *Agent, b Block)
	// HandleEvent is called when a subscribed event is delivered to the
	// agent, one tick after it was emitted.
	HandleEvent(a *Agent, event string)
}

// NopAgentHandler implements AgentHandler, doing nothing. It may be embedded
// by handlers that only care about a subset of callbacks.
type NopAgentHandler struct{}

// HandleEnterBlock ...
func (NopAgentHandler) HandleEnterBlock(*Agent, Block) {}

// HandleEvent ...
func (NopAgentHandler) HandleEvent(*Agent, string) {}
