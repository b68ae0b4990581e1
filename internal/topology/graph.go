package topology

import (
	"sort"

	"ispnet/internal/geo"
	"ispnet/internal/model"
)

// DefaultMaxHops applies when a request leaves maxHops unset.
const DefaultMaxHops = 10

// MaxHopsLimit is the largest hop budget a request may ask for unless the
// engine is configured otherwise.
const MaxHopsLimit = 64

// Constraints are the edge filters of a path request with defaults applied.
type Constraints struct {
	MaxHops            int
	MaxUtilizationPct  *float64
	AllowedLinkTypes   map[string]struct{} // nil = every type
	AllowedStatuses    map[string]struct{}
	ExcludeLinkIDs     map[string]struct{}
	RequireActiveNodes bool
}

// ConstraintsFrom converts a request, filling defaults. defaultHops <= 0
// falls back to DefaultMaxHops.
func ConstraintsFrom(req model.ComputePathRequest, defaultHops int) Constraints {
	if defaultHops <= 0 {
		defaultHops = DefaultMaxHops
	}
	c := Constraints{
		MaxHops:            defaultHops,
		MaxUtilizationPct:  req.MaxUtilizationPct,
		AllowedStatuses:    toSet(req.AllowedStatuses),
		ExcludeLinkIDs:     toSet(req.ExcludeLinkIDs),
		RequireActiveNodes: req.RequireActiveNodes,
	}
	if req.MaxHops != nil {
		c.MaxHops = *req.MaxHops
	}
	if len(req.AllowedLinkTypes) > 0 {
		c.AllowedLinkTypes = toSet(req.AllowedLinkTypes)
	}
	if len(c.AllowedStatuses) == 0 {
		c.AllowedStatuses = map[string]struct{}{model.StatusActive: {}}
	}
	return c
}

func toSet(vals []string) map[string]struct{} {
	out := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		out[v] = struct{}{}
	}
	return out
}

// CostFunc prices one traversable link given its length in meters.
type CostFunc func(l model.Link, distanceM float64) float64

// DefaultCost weights distance by utilization: d * (1 + util/100).
func DefaultCost(l model.Link, distanceM float64) float64 {
	cost := distanceM
	if l.UtilizationPct != nil {
		cost = distanceM * (1 + *l.UtilizationPct/100)
	}
	if cost < 0 {
		return 0
	}
	return cost
}

// Edge is one direction of an undirected link in the adjacency list.
type Edge struct {
	To        string
	LinkID    string
	Cost      float64
	DistanceM float64
	Link      *model.Link
}

// Graph is the filtered, weighted, undirected view of a snapshot.
type Graph struct {
	Nodes map[string]model.Node
	Adj   map[string][]Edge
	Edges int // undirected edge count
}

// HasNode reports whether id survived node filtering.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.Nodes[id]
	return ok
}

// LinkDistanceM is the explicit path length when the link carries one,
// otherwise the straight line between endpoints. Endpoints without a
// location contribute zero.
func LinkDistanceM(l model.Link, from, to model.Node) float64 {
	if len(l.Path) >= 2 {
		return geo.PolylineLengthM(l.Path)
	}
	if from.Location == nil || to.Location == nil {
		return 0
	}
	return geo.DistanceM(*from.Location, *to.Location)
}

// BuildGraph applies c to snap and prices every surviving link with cost.
func BuildGraph(snap *Snapshot, c Constraints, cost CostFunc) *Graph {
	if cost == nil {
		cost = DefaultCost
	}
	g := &Graph{Nodes: map[string]model.Node{}, Adj: map[string][]Edge{}}
	for _, n := range snap.Nodes {
		if c.RequireActiveNodes && n.Status != model.StatusActive {
			continue
		}
		g.Nodes[n.ID] = n
	}

	links := make([]model.Link, len(snap.Links))
	copy(links, snap.Links)
	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })

	for i := range links {
		l := &links[i]
		if _, excluded := c.ExcludeLinkIDs[l.ID]; excluded {
			continue
		}
		if _, ok := c.AllowedStatuses[l.Status]; !ok {
			continue
		}
		if c.AllowedLinkTypes != nil {
			if _, ok := c.AllowedLinkTypes[l.Kind]; !ok {
				continue
			}
		}
		if c.MaxUtilizationPct != nil && l.UtilizationPct != nil && *l.UtilizationPct > *c.MaxUtilizationPct {
			continue
		}
		// Dangling endpoints and, under RequireActiveNodes, inactive ones are
		// both absent from g.Nodes.
		from, okFrom := g.Nodes[l.FromNodeID]
		to, okTo := g.Nodes[l.ToNodeID]
		if !okFrom || !okTo {
			continue
		}
		if l.FromNodeID == l.ToNodeID {
			continue
		}
		d := LinkDistanceM(*l, from, to)
		w := cost(*l, d)
		if w < 0 {
			w = 0
		}
		g.Adj[l.FromNodeID] = append(g.Adj[l.FromNodeID], Edge{To: l.ToNodeID, LinkID: l.ID, Cost: w, DistanceM: d, Link: l})
		g.Adj[l.ToNodeID] = append(g.Adj[l.ToNodeID], Edge{To: l.FromNodeID, LinkID: l.ID, Cost: w, DistanceM: d, Link: l})
		g.Edges++
	}
	return g
}
