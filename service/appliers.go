package service

import (
	"myejbclient/domain"
	"myejbclient/helpers"
	"myejbclient/interfaces"
)

// TopologyApplier implements interfaces.TopologyListener by applying every event to a ClusterRegistry.
// The client context attaches one to each node watch stream so pushed membership lands in the
// client's registry.
type TopologyApplier struct {
	registry *ClusterRegistry
}

var _ interfaces.TopologyListener = (*TopologyApplier)(nil)

// NewTopologyApplier panics on nil registry.
func NewTopologyApplier(registry *ClusterRegistry) *TopologyApplier {
	return &TopologyApplier{registry: helpers.NilPanic(registry, "service.appliers.go: registry is required")}
}

// ClusterTopology replaces the membership of each cluster.
func (a *TopologyApplier) ClusterTopology(clusters []domain.ClusterInfo) {
	for _, c := range clusters {
		a.registry.ReplaceCluster(c)
	}
}

// ClusterRemoval removes each cluster.
func (a *TopologyApplier) ClusterRemoval(names []string) {
	for _, n := range names {
		a.registry.RemoveCluster(n)
	}
}

// ClusterNewNodesAdded adds the delta's nodes.
func (a *TopologyApplier) ClusterNewNodesAdded(delta domain.ClusterInfo) {
	a.registry.AddClusterNodes(delta)
}

// ClusterNodesRemoved removes the nodes of each removal.
func (a *TopologyApplier) ClusterNodesRemoved(removals []domain.ClusterRemovalInfo) {
	for _, r := range removals {
		a.registry.RemoveClusterNodes(r)
	}
}

// ModuleAvailabilityApplier implements interfaces.ModuleAvailabilityListener by recording pushed
// module events in a ModuleAvailabilityRegistry. Events carry module identifiers only, so the
// client view is module-level (empty bean list).
type ModuleAvailabilityApplier struct {
	registry *ModuleAvailabilityRegistry
}

var _ interfaces.ModuleAvailabilityListener = (*ModuleAvailabilityApplier)(nil)

// NewModuleAvailabilityApplier panics on nil registry.
func NewModuleAvailabilityApplier(registry *ModuleAvailabilityRegistry) *ModuleAvailabilityApplier {
	return &ModuleAvailabilityApplier{registry: helpers.NilPanic(registry, "service.appliers.go: registry is required")}
}

// ModuleAvailable records the modules as available on node.
func (a *ModuleAvailabilityApplier) ModuleAvailable(node string, modules []domain.ModuleIdentifier) {
	deployments := make([]domain.ModuleDeployment, 0, len(modules))
	for _, m := range modules {
		deployments = append(deployments, domain.ModuleDeployment{Module: m})
	}
	a.registry.ReportAvailable(node, deployments)
}

// ModuleUnavailable drops the modules from node.
func (a *ModuleAvailabilityApplier) ModuleUnavailable(node string, modules []domain.ModuleIdentifier) {
	a.registry.ReportUnavailable(node, modules)
}

// ForgetNode drops everything node reported. The next watch stream starts again from its snapshot.
func (a *ModuleAvailabilityApplier) ForgetNode(node string) {
	a.registry.RemoveNode(node)
}
