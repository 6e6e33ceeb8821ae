package service

import (
	"context"
	"slices"
	"sync"

	"myejbclient/domain"
	"myejbclient/interfaces"
)

// NodeDirectory holds the configured connections of a client: nodes it was told about directly
// (static config, HTTP discoverer, redis) rather than learned from cluster topology.
type NodeDirectory struct {
	mu    sync.RWMutex
	nodes map[string]domain.NodeInfo
	order []string
}

// NewNodeDirectory creates a directory seeded with nodes (later duplicates of a name replace earlier ones).
func NewNodeDirectory(nodes ...domain.NodeInfo) *NodeDirectory {
	d := &NodeDirectory{nodes: make(map[string]domain.NodeInfo)}
	d.Merge(nodes)
	return d
}

// Merge adds or replaces nodes by name.
//
// Returns: names that were not known before, in argument order.
func (d *NodeDirectory) Merge(nodes []domain.NodeInfo) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var fresh []string
	for _, n := range nodes {
		if _, ok := d.nodes[n.Name]; !ok {
			d.order = append(d.order, n.Name)
			fresh = append(fresh, n.Name)
		}
		d.nodes[n.Name] = n.Clone()
	}
	return fresh
}

// Get returns the configured node.
func (d *NodeDirectory) Get(name string) (domain.NodeInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.nodes[name]
	if !ok {
		return domain.NodeInfo{}, false
	}
	return n.Clone(), true
}

// Nodes returns every configured node in configuration order.
func (d *NodeDirectory) Nodes() []domain.NodeInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.NodeInfo, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.nodes[name].Clone())
	}
	return out
}

// Names returns configured node names in configuration order.
func (d *NodeDirectory) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.order)
}

// StaticNodeSource implements interfaces.NodeSource over a fixed list (YAML "nodes" section).
type StaticNodeSource struct {
	nodes []domain.NodeInfo
}

var _ interfaces.NodeSource = (*StaticNodeSource)(nil)

// NewStaticNodeSource copies nodes.
func NewStaticNodeSource(nodes []domain.NodeInfo) *StaticNodeSource {
	out := make([]domain.NodeInfo, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return &StaticNodeSource{nodes: out}
}

// GetNodes returns the configured list; never fails.
func (s *StaticNodeSource) GetNodes(ctx context.Context) ([]domain.NodeInfo, error) {
	out := make([]domain.NodeInfo, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n.Clone()
	}
	return out, nil
}
