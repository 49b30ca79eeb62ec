// Package sim implements the tick-driven core of the AIM flow simulation
// engine: the simulator and its fixed phase order, the two-phase agent event
// bus, the scheduled-callback queue and the block and space contracts.
package sim

import (
	"encoding/binary"
	"log/slog"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
)

// Config contains options for constructing a Simulator. The zero value is
// usable: a zero seed, no tick budget and the default logger.
type Config struct {
	// Log is the Logger used for lifecycle and anomaly logging. If nil, Log
	// is set to slog.Default(). The simulator never logs in the per-tick hot
	// path.
	Log *slog.Logger
	// Seed seeds the simulator's random source. All stochastic decisions in
	// a simulation draw from this single source; two runs with the same
	// seed, tick budget and scenario produce identical trajectories.
	Seed int64
	// MaxTicks is the number of ticks Run executes, covering ticks 0 to
	// MaxTicks-1. Scheduled callbacks due at or beyond MaxTicks never fire.
	MaxTicks int64
	// Metrics is an optional counter registry. If nil, metrics are not
	// collected.
	Metrics *Metrics
}

// New creates a Simulator from the config. Multiple simulators are fully
// independent; each carries its own random source and event bus.
func (conf Config) New() *Simulator {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.MaxTicks < 0 {
		panic("sim: max ticks must not be negative")
	}
	s := &Simulator{
		conf:  conf,
		log:   conf.Log,
		r:     rand.New(rand.NewPCG(deriveSeed(conf.Seed, "sim"), deriveSeed(conf.Seed, "sim-stream"))),
		bus:   newEventBus(),
		queue: &callbackQueue{},
	}
	s.idSource.r = rand.New(rand.NewPCG(deriveSeed(conf.Seed, "agent-ids"), deriveSeed(conf.Seed, "agent-ids-stream")))
	return s
}

// deriveSeed hashes the master seed together with a stream label so that
// independent random streams never share state.
func deriveSeed(seed int64, label string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(label)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(seed))
	_, _ = d.Write(b[:])
	return d.Sum64()
}

// rngReader adapts a random source to io.Reader for id generation.
type rngReader struct {
	r *rand.Rand
}

func (r *rngReader) Read(p []byte) (int, error) {
	for i := 0; i < len(p); i += 8 {
		v := r.r.Uint64()
		for j := i; j < i+8 && j < len(p); j++ {
			p[j] = byte(v)
			v >>= 8
		}
	}
	return len(p), nil
}

// Simulator owns the blocks, spaces, event bus, callback queue and random
// source of one simulation and drives the tick loop. It is single-threaded:
// all phases of a tick run on the caller's stack and never interleave.
type Simulator struct {
	conf Config
	log  *slog.Logger

	r        *rand.Rand
	idSource rngReader

	tick    int64
	ticking bool

	blocks    []Block
	spaces    []Space
	observers []Observer

	bus   *eventBus
	queue *callbackQueue
}

// AddBlock registers a block with the simulator. Blocks are ticked in
// registration order. Block constructors call AddBlock; user code generally
// has no reason to.
func (s *Simulator) AddBlock(b Block) {
	if b == nil {
		panic("sim: registered block must not be nil")
	}
	s.blocks = append(s.blocks, b)
}

// AddSpace registers a space. Spaces are advanced in registration order at
// the space-update phase of every tick.
func (s *Simulator) AddSpace(sp Space) {
	if sp == nil {
		panic("sim: registered space must not be nil")
	}
	s.spaces = append(s.spaces, sp)
}

// AddObserver registers an observer notified at the end of every tick.
func (s *Simulator) AddObserver(o Observer) {
	if o == nil {
		panic("sim: registered observer must not be nil")
	}
	s.observers = append(s.observers, o)
}

// CurrentTick returns the tick currently being executed, or the next tick to
// execute when called between ticks.
func (s *Simulator) CurrentTick() int64 {
	return s.tick
}

// Rand returns the simulator's random source. Components requiring
// stochastic decisions must use this source and no other, so that runs stay
// reproducible under a fixed seed.
func (s *Simulator) Rand() *rand.Rand {
	return s.r
}

// Logger returns the logger the simulator was configured with.
func (s *Simulator) Logger() *slog.Logger {
	return s.log
}

// Metrics returns the metrics registry, which may be nil.
func (s *Simulator) Metrics() *Metrics {
	return s.conf.Metrics
}

// ScheduleCallback queues fn to run delay ticks from the current tick. A
// callback scheduled during a tick with delay 0 fires at the next tick, not
// the current one. If recurring is true, the callback re-fires every delay
// ticks; the delay must then be at least 1.
func (s *Simulator) ScheduleCallback(fn func(tick int64), delay int64, recurring bool) {
	s.queue.schedule(s.tick, fn, delay, recurring)
}

// Subscribe adds the agent to the subscriber set of the exact event string
// passed. Delivery is exact-match: an agent subscribed to "belt/stop" does
// not receive "belt/stopped". The event must be non-empty.
func (s *Simulator) Subscribe(a *Agent, event string) {
	if a == nil {
		panic("sim: subscribing agent must not be nil")
	}
	if event == "" {
		panic("sim: subscribed event must be non-empty")
	}
	s.bus.subscribe(a, event)
}

// Run executes ticks until the tick budget is exhausted. It returns after
// tick MaxTicks-1 completes. Run must not be called from inside a tick.
func (s *Simulator) Run() {
	s.log.Debug("simulation started", "seed", s.conf.Seed, "max_ticks", s.conf.MaxTicks)
	for s.tick < s.conf.MaxTicks {
		s.step()
	}
	s.log.Debug("simulation finished", "ticks", s.tick)
}

// Tick executes a single tick. It allows embedders and tests to inspect
// state at tick boundaries; mixing Tick and Run is fine, Run simply
// continues from the current tick.
func (s *Simulator) Tick() {
	s.step()
}

// step executes one tick with the fixed phase order: scheduled callbacks,
// space updates, event delivery, block ticks, event buffer rotation.
func (s *Simulator) step() {
	if s.ticking {
		panic("sim: recursive tick")
	}
	s.ticking = true
	t := s.tick

	fired := s.queue.fire(t)
	s.conf.Metrics.AddCallbacksFired(fired)

	for _, sp := range s.spaces {
		sp.Update(1)
	}

	s.bus.deliver(s.conf.Metrics)

	for _, b := range s.blocks {
		b.Tick(t)
	}

	s.bus.rotate()

	for _, o := range s.observers {
		o.HandleTickEnd(t)
	}

	s.tick++
	s.ticking = false
}
