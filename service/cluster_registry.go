package service

import (
	"reflect"
	"sync"
	"sync/atomic"

	"myejbclient/domain"
	"myejbclient/helpers"
	"myejbclient/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// ClusterRegistry is the authoritative in-memory mapping from cluster name to membership. Mutations
// are serialized by mu; each effective mutation bumps the snapshot version and enqueues the matching
// event for every listener registered at that moment. Events are delivered after mu is released, in
// mutation order, through a helpers.EventQueue, so a listener may call back into the registry.
//
// Delivery is asynchronous with respect to the mutating call: when another goroutine is already
// delivering events, a mutation returns before its own event has reached the listeners, and that
// goroutine delivers it once its current listener returns. Callers must not assume a listener has
// seen a change when the mutation returns; the snapshot methods always reflect it.
//
// Used on the client (fed by TopologyApplier from node watch streams) and on the node (configured
// membership, pushed to clients by the grpcnode watch stream).
type ClusterRegistry struct {
	logger log.Logger

	mu        sync.RWMutex
	clusters  map[string]domain.ClusterInfo
	order     []string
	version   uint64
	listeners []*topologyRegistration

	events helpers.EventQueue
}

// topologyRegistration is one registered listener; closed suppresses events still queued for it.
type topologyRegistration struct {
	listener interfaces.TopologyListener
	registry *ClusterRegistry
	closed   atomic.Bool
}

// NewClusterRegistry creates an empty registry. Panics on nil logger.
//
// Called from service.NewClientContext and cmd/node.
func NewClusterRegistry(logger log.Logger) *ClusterRegistry {
	return &ClusterRegistry{
		logger:   log.With(helpers.NilPanic(logger, "service.cluster_registry.go: logger is required"), "component", "cluster_registry"),
		clusters: make(map[string]domain.ClusterInfo),
	}
}

// AddCluster inserts the cluster if its name is unknown and fires ClusterTopology with it.
//
// Returns: true when inserted; false when a cluster with that name exists (reported as duplicate, entry untouched, no event).
func (r *ClusterRegistry) AddCluster(info domain.ClusterInfo) bool {
	r.mu.Lock()
	if _, ok := r.clusters[info.Name]; ok {
		r.mu.Unlock()
		level.Warn(r.logger).Log("msg", "duplicate cluster ignored", "cluster", info.Name)
		return false
	}
	stored := dedupNodes(info)
	r.insertLocked(stored)
	r.fanOutLocked(func(l interfaces.TopologyListener) {
		l.ClusterTopology([]domain.ClusterInfo{stored.Clone()})
	})
	r.mu.Unlock()
	r.events.Drain()
	return true
}

// ReplaceCluster sets the full membership of a cluster, creating it when absent. Fires
// ClusterTopology only when membership actually changed.
//
// Returns: true when the registry changed.
//
// Called from TopologyApplier.ClusterTopology when a node pushes a snapshot.
func (r *ClusterRegistry) ReplaceCluster(info domain.ClusterInfo) bool {
	stored := dedupNodes(info)
	r.mu.Lock()
	if existing, ok := r.clusters[info.Name]; ok {
		if reflect.DeepEqual(existing.Nodes, stored.Nodes) {
			r.mu.Unlock()
			return false
		}
		r.clusters[info.Name] = stored
		r.version++
	} else {
		r.insertLocked(stored)
	}
	r.fanOutLocked(func(l interfaces.TopologyListener) {
		l.ClusterTopology([]domain.ClusterInfo{stored.Clone()})
	})
	r.mu.Unlock()
	r.events.Drain()
	return true
}

// RemoveCluster removes the cluster and fires ClusterRemoval.
//
// Returns: true when removed; false when absent (logged at debug, no event).
func (r *ClusterRegistry) RemoveCluster(name string) bool {
	r.mu.Lock()
	if _, ok := r.clusters[name]; !ok {
		r.mu.Unlock()
		level.Debug(r.logger).Log("msg", "remove of unknown cluster", "cluster", name)
		return false
	}
	delete(r.clusters, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	r.version++
	r.fanOutLocked(func(l interfaces.TopologyListener) {
		l.ClusterRemoval([]string{name})
	})
	r.mu.Unlock()
	r.events.Drain()
	return true
}

// AddClusterNodes adds the delta's nodes whose names are not yet members. An absent cluster is
// created from the delta (absent clusters are treated as empty membership).
//
// Returns: nodes effectively added, in delta order. ClusterNewNodesAdded fires with exactly these; no event when none.
func (r *ClusterRegistry) AddClusterNodes(delta domain.ClusterInfo) []domain.NodeInfo {
	r.mu.Lock()
	existing, ok := r.clusters[delta.Name]
	if !ok {
		existing = domain.ClusterInfo{Name: delta.Name}
	}
	var added []domain.NodeInfo
	for _, n := range delta.Nodes {
		if existing.HasNode(n.Name) {
			continue
		}
		c := n.Clone()
		existing.Nodes = append(existing.Nodes, c)
		added = append(added, c)
	}
	if len(added) == 0 {
		r.mu.Unlock()
		return nil
	}
	if ok {
		r.clusters[delta.Name] = existing
		r.version++
	} else {
		r.insertLocked(existing)
	}
	event := domain.ClusterInfo{Name: delta.Name, Nodes: added}
	r.fanOutLocked(func(l interfaces.TopologyListener) {
		l.ClusterNewNodesAdded(event.Clone())
	})
	r.mu.Unlock()
	r.events.Drain()
	return cloneNodes(added)
}

// RemoveClusterNodes removes the named nodes from an existing cluster. The cluster entry stays even
// when it becomes empty.
//
// Returns: names effectively removed. ClusterNodesRemoved fires with exactly these; no event when
// none were members or the cluster is absent (absent cluster is logged at debug).
func (r *ClusterRegistry) RemoveClusterNodes(removal domain.ClusterRemovalInfo) []string {
	r.mu.Lock()
	existing, ok := r.clusters[removal.Name]
	if !ok {
		r.mu.Unlock()
		level.Debug(r.logger).Log("msg", "node removal for unknown cluster", "cluster", removal.Name)
		return nil
	}
	drop := make(map[string]bool, len(removal.NodeNames))
	for _, name := range removal.NodeNames {
		drop[name] = true
	}
	kept := make([]domain.NodeInfo, 0, len(existing.Nodes))
	var removed []string
	for _, n := range existing.Nodes {
		if drop[n.Name] {
			removed = append(removed, n.Name)
			continue
		}
		kept = append(kept, n)
	}
	if len(removed) == 0 {
		r.mu.Unlock()
		return nil
	}
	r.clusters[removal.Name] = domain.ClusterInfo{Name: removal.Name, Nodes: kept}
	r.version++
	event := domain.ClusterRemovalInfo{Name: removal.Name, NodeNames: removed}
	r.fanOutLocked(func(l interfaces.TopologyListener) {
		l.ClusterNodesRemoved([]domain.ClusterRemovalInfo{{Name: event.Name, NodeNames: append([]string(nil), event.NodeNames...)}})
	})
	r.mu.Unlock()
	r.events.Drain()
	return append([]string(nil), removed...)
}

// AddListener registers listener and delivers every known cluster in one ClusterTopology call
// before any later incremental event (nothing is delivered when the registry is empty).
//
// Returns: handle whose Close unregisters; events queued before Close are dropped.
func (r *ClusterRegistry) AddListener(listener interfaces.TopologyListener) interfaces.ListenerHandle {
	reg := &topologyRegistration{
		listener: helpers.NilPanic(listener, "service.cluster_registry.go: listener is required"),
		registry: r,
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, reg)
	snapshot := r.snapshotLocked()
	if len(snapshot) > 0 {
		r.events.Enqueue(func() {
			if !reg.closed.Load() {
				reg.listener.ClusterTopology(snapshot)
			}
		})
	}
	r.mu.Unlock()
	r.events.Drain()
	return reg
}

// Close unregisters the listener; idempotent.
func (reg *topologyRegistration) Close() {
	if reg.closed.Swap(true) {
		return
	}
	reg.registry.removeListener(reg)
}

func (r *ClusterRegistry) removeListener(reg *topologyRegistration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.listeners {
		if l == reg {
			r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)
			return
		}
	}
}

// Snapshot returns a deep copy of all clusters in insertion order with the current version.
// Versions never decrease, so a reader never observes a rollback.
func (r *ClusterRegistry) Snapshot() domain.Topology {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return domain.Topology{Version: r.version, Clusters: r.snapshotLocked()}
}

// Cluster returns a copy of one cluster.
func (r *ClusterRegistry) Cluster(name string) (domain.ClusterInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clusters[name]
	if !ok {
		return domain.ClusterInfo{}, false
	}
	return c.Clone(), true
}

// IsClusterMember reports whether node is currently a member of cluster.
func (r *ClusterRegistry) IsClusterMember(cluster, node string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clusters[cluster]
	return ok && c.HasNode(node)
}

// FindNode returns the node's info from the first cluster (insertion order) that lists it.
func (r *ClusterRegistry) FindNode(name string) (domain.NodeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cn := range r.order {
		for _, n := range r.clusters[cn].Nodes {
			if n.Name == name {
				return n.Clone(), true
			}
		}
	}
	return domain.NodeInfo{}, false
}

// insertLocked stores a new cluster. Caller holds mu.
func (r *ClusterRegistry) insertLocked(info domain.ClusterInfo) {
	r.clusters[info.Name] = info
	r.order = append(r.order, info.Name)
	r.version++
}

// fanOutLocked enqueues deliver for each listener registered now. Caller holds mu.
func (r *ClusterRegistry) fanOutLocked(deliver func(l interfaces.TopologyListener)) {
	for _, reg := range r.listeners {
		r.events.Enqueue(func() {
			if !reg.closed.Load() {
				deliver(reg.listener)
			}
		})
	}
}

func (r *ClusterRegistry) snapshotLocked() []domain.ClusterInfo {
	out := make([]domain.ClusterInfo, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.clusters[name].Clone())
	}
	return out
}

// dedupNodes deep-copies info keeping the first occurrence of each node name.
func dedupNodes(info domain.ClusterInfo) domain.ClusterInfo {
	out := domain.ClusterInfo{Name: info.Name, Nodes: make([]domain.NodeInfo, 0, len(info.Nodes))}
	seen := make(map[string]bool, len(info.Nodes))
	for _, n := range info.Nodes {
		if seen[n.Name] {
			continue
		}
		seen[n.Name] = true
		out.Nodes = append(out.Nodes, n.Clone())
	}
	return out
}

func cloneNodes(nodes []domain.NodeInfo) []domain.NodeInfo {
	out := make([]domain.NodeInfo, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
