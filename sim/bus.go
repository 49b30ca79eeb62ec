package sim

import "github.com/google/uuid"

// emission is a single event broadcast, recorded in emission order.
type emission struct {
	event   string
	emitter uuid.UUID
}

// eventBus implements the two-phase agent event system. Events emitted
// during a tick accumulate in the emitted buffer; at the end of the tick the
// buffer rotates into the inbox, which is drained at the event-delivery
// phase of the next tick. The two-buffer design guarantees that no event is
// delivered during the tick it was emitted in.
type eventBus struct {
	// subs holds the subscriber lists per exact event string, in
	// subscription registration order.
	subs    map[string][]*Agent
	emitted []emission
	inbox   []emission
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[string][]*Agent)}
}

// subscribe adds the agent to the subscriber list for the exact event
// string. Subscribing the same agent to the same event twice is a no-op.
func (b *eventBus) subscribe(a *Agent, event string) {
	if a.subscribed(event) {
		return
	}
	a.addSubscription(event)
	b.subs[event] = append(b.subs[event], a)
}

// emit enqueues an event into the buffer delivered next tick.
func (b *eventBus) emit(event string, emitter uuid.UUID) {
	b.emitted = append(b.emitted, emission{event: event, emitter: emitter})
}

// deliver drains the inbox, invoking HandleEvent on every subscribed agent.
// Delivery order is emission order crossed with subscriber registration
// order. Destroyed agents are skipped and pruned from the subscriber list.
func (b *eventBus) deliver(m *Metrics) {
	for _, em := range b.inbox {
		list := b.subs[em.event]
		kept := list[:0]
		for _, a := range list {
			if a.Destroyed() {
				continue
			}
			kept = append(kept, a)
			a.handler.HandleEvent(a, em.event)
			m.IncEventsDelivered(em.event)
		}
		if len(kept) == 0 {
			delete(b.subs, em.event)
		} else {
			b.subs[em.event] = kept
		}
	}
	b.inbox = nil
}

// rotate moves events emitted during the current tick into the inbox for
// delivery at the next tick.
func (b *eventBus) rotate() {
	b.inbox = b.emitted
	b.emitted = nil
}
