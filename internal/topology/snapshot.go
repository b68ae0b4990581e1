// Package topology computes cost-minimal, hop-bounded routes over a
// tenant's network snapshot.
package topology

import (
	"context"
	"fmt"
	"sort"

	"ispnet/internal/model"
	"ispnet/internal/store"
)

// Source is the subset of the storage collaborator the loader needs.
type Source interface {
	ListNodes(ctx context.Context, tenantID string) ([]model.Node, error)
	ListLinks(ctx context.Context, tenantID string) ([]model.Link, error)
}

// Snapshot is a read-only copy of one tenant's nodes and links, indexed by id.
type Snapshot struct {
	TenantID string
	Nodes    []model.Node
	Links    []model.Link

	// Ids carried by more than one row. Those rows are left out of Nodes
	// and Links since no row order can pick a winner.
	DuplicateNodeIDs []string
	DuplicateLinkIDs []string

	nodeIdx map[string]int
}

// NewSnapshot indexes nodes by id and drops every row whose id repeats.
func NewSnapshot(tenantID string, nodes []model.Node, links []model.Link) *Snapshot {
	s := &Snapshot{TenantID: tenantID}
	s.Nodes, s.DuplicateNodeIDs = uniqueRows(nodes, func(n model.Node) string { return n.ID })
	s.Links, s.DuplicateLinkIDs = uniqueRows(links, func(l model.Link) string { return l.ID })
	s.nodeIdx = make(map[string]int, len(s.Nodes))
	for i, n := range s.Nodes {
		s.nodeIdx[n.ID] = i
	}
	return s
}

func uniqueRows[T any](rows []T, id func(T) string) ([]T, []string) {
	count := make(map[string]int, len(rows))
	for _, r := range rows {
		count[id(r)]++
	}
	out := make([]T, 0, len(rows))
	var dups []string
	for _, r := range rows {
		switch c := count[id(r)]; {
		case c == 1:
			out = append(out, r)
		case c > 1:
			dups = append(dups, id(r))
			count[id(r)] = 0
		}
	}
	sort.Strings(dups)
	return out, dups
}

// Ambiguous reports whether id named more than one node row.
func (s *Snapshot) Ambiguous(id string) bool {
	i := sort.SearchStrings(s.DuplicateNodeIDs, id)
	return i < len(s.DuplicateNodeIDs) && s.DuplicateNodeIDs[i] == id
}

// Node looks a node up by id.
func (s *Snapshot) Node(id string) (model.Node, bool) {
	i, ok := s.nodeIdx[id]
	if !ok {
		return model.Node{}, false
	}
	return s.Nodes[i], true
}

// Loader pulls a tenant's topology from storage. It applies no filtering.
type Loader struct {
	Source Source
}

// Load reads one snapshot. Storage errors are returned wrapped; the caller
// can still match the original with errors.Is.
func (l *Loader) Load(ctx context.Context, tenantID string) (*Snapshot, error) {
	if tr, ok := l.Source.(store.TopologyReader); ok {
		nodes, links, err := tr.ReadTopology(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("load topology: %w", err)
		}
		return NewSnapshot(tenantID, nodes, links), nil
	}
	nodes, err := l.Source.ListNodes(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	links, err := l.Source.ListLinks(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	return NewSnapshot(tenantID, nodes, links), nil
}
