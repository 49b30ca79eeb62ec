package block

import (
	"testing"

	"github.com/aim-sim/aim/sim"
	"github.com/aim-sim/aim/space"
	"github.com/go-gl/mathgl/mgl64"
)

func TestConveyorAdmissionAfterCollision(t *testing.T) {
	s := newSim(25)
	belt := space.New(s, "belt_space")
	belt.AddConveyor("belt", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 0, 0}, 1)

	src := NewSource(s, "src", func(tick int64) int {
		if tick == 0 {
			return 2
		}
		return 0
	})
	src.NewAgent = func() *sim.Agent {
		a := sim.NewAgent(s)
		a.Length = 5
		return a
	}
	q := NewQueue(s, "q")
	conv := NewConveyor(s, "conv", belt, "belt", "belt")
	exit := NewConveyorExit(s, "exit")
	snk := NewSink(s, "snk")
	src.Connect(q)
	q.Connect(conv)
	conv.Connect(exit)
	exit.Connect(snk)

	var entries []int64
	conv.OnEnter = func(*sim.Agent) { entries = append(entries, s.CurrentTick()) }

	s.Run()

	// The first agent enters at tick 0. The second is rejected by the
	// one-agent-per-tick rule at tick 0 and by the entry collision until
	// the first has advanced strictly past progress 0.5, which happens
	// during tick 6's space update.
	if len(entries) != 2 {
		t.Fatalf("expected both agents to enter the conveyor, got entries at %v", entries)
	}
	if entries[0] != 0 || entries[1] != 6 {
		t.Fatalf("expected entries at ticks 0 and 6, got %v", entries)
	}
	if got := s.Metrics().Rejections("conv"); got == 0 {
		t.Fatalf("expected the queue's retries to be rejected at least once")
	}
	if got := snk.Count(); got != 2 {
		t.Fatalf("expected both agents in the sink, got %d", got)
	}
	if got := q.Len(); got != 0 {
		t.Fatalf("expected the queue to drain, got %d held", got)
	}
}

func TestConveyorOnePerTickRule(t *testing.T) {
	s := newSim(1)
	belt := space.New(s, "belt_space")
	belt.AddConveyor("belt", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{100, 0, 0}, 1)

	conv := NewConveyor(s, "conv", belt, "belt", "belt")

	a, b := sim.NewAgent(s), sim.NewAgent(s)
	a.Length, b.Length = 1, 1
	if err := conv.Take(a); err != nil {
		t.Fatalf("expected the first agent accepted, got %v", err)
	}
	if err := conv.Take(b); err == nil {
		t.Fatalf("expected the second agent rejected in the same tick")
	}
}

func TestConveyorValidatesEntities(t *testing.T) {
	s := newSim(1)
	belt := space.New(s, "belt_space")
	belt.AddConveyor("belt", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 0, 0}, 1)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected an unknown entity to panic at construction")
		}
	}()
	NewConveyor(s, "conv", belt, "belt", "missing")
}
