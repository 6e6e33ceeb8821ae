package interfaces

import "myejbclient/domain"

// TopologyListener receives cluster membership changes. Implemented by routing logic that keeps its
// own view (service.TopologyApplier feeding a client ClusterRegistry, the grpcnode watch stream,
// the client context warm-up) and by tests.
//
// Registering with service.ClusterRegistry.AddListener delivers one ClusterTopology call with every
// known cluster before any incremental call. Callbacks run synchronously on the goroutine that
// drains the registry's event queue; no registry lock is held, so a listener may call back into the
// registry.
//
//go:generate moq -stub -out mock/topology_listener.go -pkg mock . TopologyListener
type TopologyListener interface {
	// ClusterTopology delivers full membership of each listed cluster (initial snapshot, new clusters, or replaced membership).
	// Parameter clusters: deep copies; the listener may keep them.
	ClusterTopology(clusters []domain.ClusterInfo)

	// ClusterRemoval reports clusters that no longer exist.
	// Parameter names: removed cluster names.
	ClusterRemoval(names []string)

	// ClusterNewNodesAdded reports nodes that joined an existing cluster (or a cluster created by the delta).
	// Parameter delta: cluster name and only the nodes effectively added.
	ClusterNewNodesAdded(delta domain.ClusterInfo)

	// ClusterNodesRemoved reports nodes that left clusters.
	// Parameter removals: cluster name and only the node names effectively removed.
	ClusterNodesRemoved(removals []domain.ClusterRemovalInfo)
}

// ModuleAvailabilityListener receives deployment availability changes, scoped to module identifiers.
//
// Registering with service.ModuleAvailabilityRegistry.AddListener delivers ModuleAvailable once per
// node with every module currently available on it, before any incremental call.
//
//go:generate moq -stub -out mock/module_availability_listener.go -pkg mock . ModuleAvailabilityListener
type ModuleAvailabilityListener interface {
	// ModuleAvailable reports modules available (or whose bean list changed) on node.
	ModuleAvailable(node string, modules []domain.ModuleIdentifier)

	// ModuleUnavailable reports modules no longer available on node.
	ModuleUnavailable(node string, modules []domain.ModuleIdentifier)
}

// ListenerHandle unregisters a listener. Close is idempotent.
type ListenerHandle interface {
	Close()
}
