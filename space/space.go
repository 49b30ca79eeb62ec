// Package space implements the conveyor-graph spatial substrate of the AIM
// engine. A Conveyors space holds a graph of conveyors and turntables,
// routes registered agents along time-weighted shortest paths and advances
// them each tick with closed-interval collision checks.
package space

import (
	"fmt"

	"github.com/aim-sim/aim/internal/sliceutil"
	"github.com/aim-sim/aim/sim"
	"github.com/brentp/intintmap"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/segmentio/fasthash/fnv1a"
)

type entityKind uint8

const (
	kindConveyor entityKind = iota
	kindTurntable
)

// entity is one node of the conveyor graph: a conveyor segment or a
// turntable.
type entity struct {
	name        string
	kind        entityKind
	start, end  mgl64.Vec3
	length      float64
	travelTime  float64
	connections []string
	next        []int

	// occ holds the closed occupancy intervals of the agents currently on
	// the entity. Intervals of distinct agents are pairwise disjoint.
	occ []occupancy
}

type occupancy struct {
	a      *sim.Agent
	lo, hi float64
}

// free reports whether the closed interval [lo, hi] is disjoint from every
// occupancy on the entity, ignoring the excluded agent. Touching endpoints
// count as a collision.
func (e *entity) free(exclude *sim.Agent, lo, hi float64) bool {
	for _, iv := range e.occ {
		if iv.a == exclude {
			continue
		}
		if hi < iv.lo || lo > iv.hi {
			continue
		}
		return false
	}
	return true
}

// setOccupancy stores the agent's interval on the entity, replacing a
// previous interval of the same agent.
func (e *entity) setOccupancy(a *sim.Agent, lo, hi float64) {
	for i := range e.occ {
		if e.occ[i].a == a {
			e.occ[i].lo, e.occ[i].hi = lo, hi
			return
		}
	}
	e.occ = append(e.occ, occupancy{a: a, lo: lo, hi: hi})
}

// release removes the agent's interval from the entity.
func (e *entity) release(a *sim.Agent) {
	for i := range e.occ {
		if e.occ[i].a == a {
			e.occ = append(e.occ[:i], e.occ[i+1:]...)
			return
		}
	}
}

// posAt returns the world position of a trailing edge at the progress value
// passed. Turntables report their center regardless of progress.
func (e *entity) posAt(prog float64) mgl64.Vec3 {
	if e.kind == kindTurntable {
		return e.start
	}
	return e.start.Add(e.end.Sub(e.start).Mul(prog))
}

// transit is the per-agent traversal state the space owns between
// registration and unregistration. Progress is tracked as elapsed traversal
// time rather than a running fraction, so whole-tick deltas accumulate
// without floating point drift and interval endpoints stay exact.
type transit struct {
	path     []int
	idx      int
	elapsed  float64
	done     float64
	total    float64
	complete bool
}

// Conveyors is a spatial substrate made of connected conveyors and
// turntables. It implements sim.Space.
type Conveyors struct {
	s    *sim.Simulator
	name string

	entities []*entity
	// lookup maps hashed entity names to dense indices; adjacency,
	// occupancy and pathfinding all run on the dense indices.
	lookup   *intintmap.Map
	resolved bool

	transits map[*sim.Agent]*transit
	// order preserves registration order so Update iterates agents
	// deterministically, front-most first on shared entities.
	order []*sim.Agent
}

// New creates an empty conveyor space and registers it with the simulator.
func New(s *sim.Simulator, name string) *Conveyors {
	if s == nil {
		panic("space: space requires a simulator")
	}
	if name == "" {
		panic("space: space name must be non-empty")
	}
	c := &Conveyors{
		s:        s,
		name:     name,
		lookup:   intintmap.New(64, 0.6),
		transits: make(map[*sim.Agent]*transit),
	}
	s.AddSpace(c)
	return c
}

// AddConveyor adds a conveyor segment running from start to end at the
// speed passed, connected to the named entities. Connections may name
// entities added later; they are resolved on first registration.
func (c *Conveyors) AddConveyor(name string, start, end mgl64.Vec3, speed float64, connections ...string) {
	if speed <= 0 {
		panic(fmt.Sprintf("space %s: conveyor %q speed must be positive", c.name, name))
	}
	length := end.Sub(start).Len()
	if length <= 0 {
		panic(fmt.Sprintf("space %s: conveyor %q must have a positive length", c.name, name))
	}
	c.add(&entity{
		name: name, kind: kindConveyor,
		start: start, end: end,
		length: length, travelTime: length / speed,
		connections: connections,
	})
}

// AddTurntable adds a turntable at the center passed with the given
// effective length and traversal time, connected to the named entities.
func (c *Conveyors) AddTurntable(name string, center mgl64.Vec3, length, travelTime float64, connections ...string) {
	if length <= 0 || travelTime <= 0 {
		panic(fmt.Sprintf("space %s: turntable %q length and travel time must be positive", c.name, name))
	}
	c.add(&entity{
		name: name, kind: kindTurntable,
		start: center, end: center,
		length: length, travelTime: travelTime,
		connections: connections,
	})
}

func (c *Conveyors) add(e *entity) {
	if e.name == "" {
		panic(fmt.Sprintf("space %s: entity name must be non-empty", c.name))
	}
	key := int64(fnv1a.HashString64(e.name))
	if idx, ok := c.lookup.Get(key); ok {
		if c.entities[idx].name == e.name {
			panic(fmt.Sprintf("space %s: duplicate entity %q", c.name, e.name))
		}
		panic(fmt.Sprintf("space %s: entity name hash collision between %q and %q", c.name, e.name, c.entities[idx].name))
	}
	c.lookup.Put(key, int64(len(c.entities)))
	c.entities = append(c.entities, e)
	c.resolved = false
}

// HasEntity reports whether an entity with the name passed is registered.
func (c *Conveyors) HasEntity(name string) bool {
	_, ok := c.index(name)
	return ok
}

func (c *Conveyors) index(name string) (int, bool) {
	idx, ok := c.lookup.Get(int64(fnv1a.HashString64(name)))
	if !ok || c.entities[idx].name != name {
		return 0, false
	}
	return int(idx), true
}

// resolve turns the declared connection names into dense adjacency indices.
func (c *Conveyors) resolve() {
	for _, e := range c.entities {
		e.next = e.next[:0]
		for _, name := range e.connections {
			idx, ok := c.index(name)
			if !ok {
				panic(fmt.Sprintf("space %s: entity %q connects to unknown entity %q", c.name, e.name, name))
			}
			e.next = append(e.next, idx)
		}
	}
	c.resolved = true
}

// Register routes the agent from one entity to another and claims its entry
// interval on the first entity of the path. It returns an error when no
// path exists or the entry interval collides with present occupancy; the
// caller treats the error as a rejection and may retry later ticks.
func (c *Conveyors) Register(a *sim.Agent, from, to string) error {
	if !c.resolved {
		c.resolve()
	}
	if _, ok := c.transits[a]; ok {
		return fmt.Errorf("space %s: agent %s already registered", c.name, a.ID())
	}
	fi, ok := c.index(from)
	if !ok {
		return fmt.Errorf("space %s: unknown entity %q", c.name, from)
	}
	ti, ok := c.index(to)
	if !ok {
		return fmt.Errorf("space %s: unknown entity %q", c.name, to)
	}
	path, ok := c.shortestPath(fi, ti)
	if !ok {
		return fmt.Errorf("space %s: no path from %q to %q", c.name, from, to)
	}
	first := c.entities[path[0]]
	hi := a.Length / first.length
	if hi > 1 {
		hi = 1
	}
	if !first.free(nil, 0, hi) {
		c.s.Metrics().IncCollisions(c.name)
		return fmt.Errorf("space %s: entry interval on %q occupied", c.name, from)
	}
	tr := &transit{path: path}
	for _, idx := range path {
		tr.total += c.entities[idx].travelTime
	}
	c.transits[a] = tr
	c.order = append(c.order, a)
	first.setOccupancy(a, 0, hi)
	a.SpaceState = sim.SpaceState{Position: first.posAt(0)}
	c.s.Metrics().IncRegistrations(c.name)
	return nil
}

// Update advances every registered agent by the time delta. An agent whose
// candidate interval would collide with present occupancy holds its
// position; an agent finishing its current entity hands off to the next
// entity on its path when the entry interval there is free, and otherwise
// stalls at the junction.
func (c *Conveyors) Update(delta float64) {
	for _, a := range c.order {
		tr := c.transits[a]
		if tr.complete {
			continue
		}
		e := c.entities[tr.path[tr.idx]]
		if tr.elapsed < e.travelTime {
			ne := tr.elapsed + delta
			if ne > e.travelTime {
				ne = e.travelTime
			}
			np := ne / e.travelTime
			hi := np + a.Length/e.length
			if hi > 1 {
				hi = 1
			}
			// An advance that would collide with present occupancy is
			// withheld entirely; the agent holds its position this tick.
			if e.free(a, np, hi) {
				tr.elapsed = ne
				e.setOccupancy(a, np, hi)
			}
		}
		if tr.elapsed >= e.travelTime {
			if tr.idx == len(tr.path)-1 {
				tr.complete = true
			} else {
				nxt := c.entities[tr.path[tr.idx+1]]
				nhi := a.Length / nxt.length
				if nhi > 1 {
					nhi = 1
				}
				if nxt.free(nil, 0, nhi) {
					e.release(a)
					tr.done += e.travelTime
					tr.idx++
					tr.elapsed = 0
					nxt.setOccupancy(a, 0, nhi)
				}
				// Otherwise the agent stays clamped at the junction.
			}
		}
		cur := c.entities[tr.path[tr.idx]]
		prog := tr.elapsed / cur.travelTime
		a.SpaceState.ProgressOnEntity = prog
		a.SpaceState.ProgressOnPath = (tr.done + tr.elapsed) / tr.total
		a.SpaceState.Position = cur.posAt(prog)
	}
}

// MovementComplete reports whether the agent reached the end of the last
// entity of its stored path.
func (c *Conveyors) MovementComplete(a *sim.Agent) bool {
	tr, ok := c.transits[a]
	return ok && tr.complete
}

// Unregister releases the agent's occupancy and traversal state. It is a
// no-op for agents that are not registered.
func (c *Conveyors) Unregister(a *sim.Agent) {
	tr, ok := c.transits[a]
	if !ok {
		return
	}
	c.entities[tr.path[tr.idx]].release(a)
	delete(c.transits, a)
	c.order = sliceutil.DeleteVal(c.order, a)
}
