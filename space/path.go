package space

import (
	"container/heap"
	"math"
)

// pathNode is a frontier entry of the shortest-path search.
type pathNode struct {
	idx  int
	dist float64
}

// pathHeap orders frontier entries by distance, breaking ties by entity
// index so the search stays deterministic.
type pathHeap []pathNode

func (h pathHeap) Len() int { return len(h) }

func (h pathHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	return h[i].idx < h[j].idx
}

func (h pathHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *pathHeap) Push(x any) { *h = append(*h, x.(pathNode)) }

func (h *pathHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// shortestPath runs Dijkstra over the entity graph with traversal time as
// the edge weight and returns the entity indices from one entity to the
// other, inclusive. The second return value is false when the destination
// is unreachable.
func (c *Conveyors) shortestPath(from, to int) ([]int, bool) {
	if from == to {
		return []int{from}, true
	}
	dist := make([]float64, len(c.entities))
	prev := make([]int, len(c.entities))
	done := make([]bool, len(c.entities))
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[from] = 0

	h := &pathHeap{{idx: from}}
	for h.Len() > 0 {
		n := heap.Pop(h).(pathNode)
		if done[n.idx] {
			continue
		}
		done[n.idx] = true
		if n.idx == to {
			break
		}
		for _, next := range c.entities[n.idx].next {
			d := n.dist + c.entities[next].travelTime
			if d < dist[next] {
				dist[next] = d
				prev[next] = n.idx
				heap.Push(h, pathNode{idx: next, dist: d})
			}
		}
	}
	if prev[to] == -1 {
		return nil, false
	}
	var path []int
	for at := to; at != -1; at = prev[at] {
		path = append(path, at)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}
