package sim

import (
	"testing"
)

// recordingHandler records delivered events per agent into a shared log.
type recordingHandler struct {
	NopAgentHandler
	name string
	log  *[]string
}

func (h *recordingHandler) HandleEvent(_ *Agent, event string) {
	*h.log = append(*h.log, h.name+":"+event)
}

func TestEventBusDeliversNextTickOnly(t *testing.T) {
	s := Config{MaxTicks: 3}.New()
	a, b := NewAgent(s), NewAgent(s)

	var log []string
	b.Handle(&recordingHandler{name: "b", log: &log})
	s.Subscribe(b, "ping")

	var deliveredAt int64 = -1
	b.Handle(&tickRecorder{s: s, at: &deliveredAt, prev: b.Handler()})

	s.ScheduleCallback(func(int64) { a.EmitEvent("ping") }, 0, false)
	s.Run()

	if deliveredAt != 1 {
		t.Fatalf("expected delivery at tick 1, got %d", deliveredAt)
	}
	if len(log) != 1 {
		t.Fatalf("expected exactly one delivery, got %v", log)
	}
}

type tickRecorder struct {
	s    *Simulator
	at   *int64
	prev AgentHandler
}

func (h *tickRecorder) HandleEnterBlock(a *Agent, b Block) { h.prev.HandleEnterBlock(a, b) }

func (h *tickRecorder) HandleEvent(a *Agent, event string) {
	*h.at = h.s.CurrentTick()
	h.prev.HandleEvent(a, event)
}

func TestEventBusDeliveryOrder(t *testing.T) {
	s := Config{MaxTicks: 2}.New()
	emitter := NewAgent(s)
	b1, b2 := NewAgent(s), NewAgent(s)

	var log []string
	b1.Handle(&recordingHandler{name: "b1", log: &log})
	b2.Handle(&recordingHandler{name: "b2", log: &log})
	s.Subscribe(b1, "first")
	s.Subscribe(b2, "first")
	s.Subscribe(b2, "second")
	s.Subscribe(b1, "second")

	s.ScheduleCallback(func(int64) {
		emitter.EmitEvent("first")
		emitter.EmitEvent("second")
	}, 0, false)
	s.Run()

	want := []string{"b1:first", "b2:first", "b2:second", "b1:second"}
	if len(log) != len(want) {
		t.Fatalf("expected %d deliveries, got %v", len(want), log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("expected delivery order %v, got %v", want, log)
		}
	}
}

func TestEventBusExactMatch(t *testing.T) {
	s := Config{MaxTicks: 2}.New()
	emitter, sub := NewAgent(s), NewAgent(s)

	var log []string
	sub.Handle(&recordingHandler{name: "sub", log: &log})
	s.Subscribe(sub, "belt/stop")

	s.ScheduleCallback(func(int64) {
		emitter.EmitEvent("belt/stopped")
		emitter.EmitEvent("belt/stop")
	}, 0, false)
	s.Run()

	if len(log) != 1 || log[0] != "sub:belt/stop" {
		t.Fatalf("expected exactly the exact-match delivery, got %v", log)
	}
}

func TestEventBusSkipsDestroyedAgents(t *testing.T) {
	s := Config{MaxTicks: 2}.New()
	emitter, sub := NewAgent(s), NewAgent(s)

	var log []string
	sub.Handle(&recordingHandler{name: "sub", log: &log})
	s.Subscribe(sub, "ping")

	s.ScheduleCallback(func(int64) {
		emitter.EmitEvent("ping")
		sub.Destroy()
	}, 0, false)
	s.Run()

	if len(log) != 0 {
		t.Fatalf("expected no delivery to a destroyed agent, got %v", log)
	}
}
