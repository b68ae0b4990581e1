package topology

import (
	"math"
	"sort"
)

// Step is one traversed edge together with the node it leaves.
type Step struct {
	From string
	Edge Edge
}

// Path is the outcome of ShortestPath. Zero value means not found.
type Path struct {
	Found          bool
	NodeIDs        []string
	Steps          []Step
	TotalCost      float64
	TotalDistanceM float64
}

type parentRef struct {
	prev int
	edge *Edge
}

// ShortestPath returns the minimum-cost path from source to target that
// uses at most maxHops edges.
//
// It runs layered relaxation: best[h][v] is the cheapest way to reach v
// with exactly h edges. Nodes are relaxed in id order and adjacency lists
// are in link-id order; an equal-cost candidate replaces the incumbent
// only when it arrives over a smaller link id. Across layers the smallest
// h wins a cost tie, so the result is always a simple path.
func ShortestPath(g *Graph, source, target string, maxHops int) Path {
	if !g.HasNode(source) || !g.HasNode(target) || maxHops < 0 {
		return Path{}
	}
	if source == target {
		return Path{Found: true, NodeIDs: []string{source}}
	}

	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	idx := make(map[string]int, len(ids))
	for i, id := range ids {
		idx[id] = i
	}

	// A simple path never needs more than n-1 edges.
	if maxHops > len(ids)-1 {
		maxHops = len(ids) - 1
	}

	inf := math.Inf(1)
	newLayer := func() ([]float64, []parentRef) {
		b := make([]float64, len(ids))
		p := make([]parentRef, len(ids))
		for v := range b {
			b[v] = inf
			p[v].prev = -1
		}
		return b, p
	}
	src, dst := idx[source], idx[target]
	b0, p0 := newLayer()
	b0[src] = 0
	best := [][]float64{b0}
	parent := [][]parentRef{p0}
	bestH, bestCost := -1, inf

	// Layers are allocated only while the frontier can still improve on the
	// best cost found for target. Costs are non-negative, so once every node
	// of layer h costs at least bestCost, no longer path can win.
	for h := 0; ; h++ {
		if best[h][dst] < bestCost {
			bestCost, bestH = best[h][dst], h
		}
		if h == maxHops {
			break
		}
		promising := false
		for _, c := range best[h] {
			if c < bestCost {
				promising = true
				break
			}
		}
		if !promising {
			break
		}
		nb, np := newLayer()
		for u, id := range ids {
			base := best[h][u]
			if math.IsInf(base, 1) {
				continue
			}
			adj := g.Adj[id]
			for i := range adj {
				e := &adj[i]
				v := idx[e.To]
				c := base + e.Cost
				cur := nb[v]
				inc := np[v].edge
				if c < cur || (c == cur && inc != nil && e.LinkID < inc.LinkID) {
					nb[v] = c
					np[v] = parentRef{prev: u, edge: e}
				}
			}
		}
		best = append(best, nb)
		parent = append(parent, np)
	}
	if bestH < 0 {
		return Path{}
	}

	steps := make([]Step, bestH)
	v := dst
	for h := bestH; h > 0; h-- {
		p := parent[h][v]
		steps[h-1] = Step{From: ids[p.prev], Edge: *p.edge}
		v = p.prev
	}
	out := Path{Found: true, Steps: steps, TotalCost: bestCost, NodeIDs: make([]string, 0, bestH+1)}
	out.NodeIDs = append(out.NodeIDs, source)
	for _, s := range steps {
		out.NodeIDs = append(out.NodeIDs, s.Edge.To)
		out.TotalDistanceM += s.Edge.DistanceM
	}
	return out
}
