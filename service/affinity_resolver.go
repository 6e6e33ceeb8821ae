package service

import (
	"fmt"
	"net"
	"slices"

	"myejbclient/domain"
	"myejbclient/helpers"
	"myejbclient/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// affinityResolver implements interfaces.AffinityResolver over the client's registries. It only
// reads: topology comes from ClusterRegistry.Snapshot (deep copy), hosting nodes from
// ModuleAvailabilityRegistry.NodesHosting, addresses from the cluster topology first and the
// configured NodeDirectory second. Sessions known to the SessionStore put their creating node
// first. The mapping of each node is chosen for localIP.
type affinityResolver struct {
	clusters  *ClusterRegistry
	modules   *ModuleAvailabilityRegistry
	directory *NodeDirectory
	sessions  *SessionStore
	localIP   net.IP
	logger    log.Logger
}

// NewAffinityResolver creates the resolver. Panics on any nil dependency.
//
// Parameters: localIP: caller's local address used to pick a node mapping (nil selects only mappings without a source constraint).
//
// Returns: interfaces.AffinityResolver (*affinityResolver).
//
// Called from service.NewClientContext.
func NewAffinityResolver(
	clusters *ClusterRegistry,
	modules *ModuleAvailabilityRegistry,
	directory *NodeDirectory,
	sessions *SessionStore,
	localIP net.IP,
	logger log.Logger,
) interfaces.AffinityResolver {
	return &affinityResolver{
		clusters:  helpers.NilPanic(clusters, "service.affinity_resolver.go: clusters is required"),
		modules:   helpers.NilPanic(modules, "service.affinity_resolver.go: modules is required"),
		directory: helpers.NilPanic(directory, "service.affinity_resolver.go: directory is required"),
		sessions:  helpers.NilPanic(sessions, "service.affinity_resolver.go: sessions is required"),
		localIP:   localIP,
		logger:    log.With(helpers.NilPanic(logger, "service.affinity_resolver.go: logger is required"), "component", "affinity_resolver"),
	}
}

// Resolve returns candidates for bean under affinity:
//   - none: every node hosting the bean, in node registration order;
//   - node: that node if it hosts the bean;
//   - cluster: members hosting the bean, in membership order;
//   - session: the captured node or cluster, resolved as above, with the node that created the
//     session first when it still hosts the bean; fails with ErrSessionTargetUnavailable when empty.
//
// Nodes without an applicable mapping for localIP are skipped.
//
// Returns: (candidates, nil) with Index set 0..n-1; (nil, error) wrapping ErrNoSuchDeployment, ErrSessionTargetUnavailable or ErrInvalidAffinity.
//
// Called from service.invocationDispatcher on every discovery attempt.
func (r *affinityResolver) Resolve(bean domain.BeanIdentifier, affinity domain.Affinity) ([]domain.Candidate, error) {
	topology := r.clusters.Snapshot()
	hosting := r.modules.NodesHosting(bean)

	var (
		names   []string
		cluster string
		err     error
	)
	switch {
	case affinity.IsNone():
		names = hosting
	case affinity.Kind == domain.AffinitySession:
		if affinity.SessionID == "" || affinity.Name == "" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAffinity, affinity)
		}
		names, cluster, err = r.targetNodes(topology, hosting, affinity.Target())
		if err != nil {
			return nil, err
		}
		if s, ok := r.sessions.Get(affinity.SessionID); ok {
			names = preferNode(names, s.Node)
		}
	default:
		names, cluster, err = r.targetNodes(topology, hosting, affinity)
		if err != nil {
			return nil, err
		}
	}

	candidates := r.candidates(topology, names, cluster)
	if len(candidates) > 0 {
		return candidates, nil
	}
	if affinity.Kind == domain.AffinitySession {
		return nil, fmt.Errorf("%w: session %s target %s no longer hosts %s", ErrSessionTargetUnavailable, affinity.SessionID, affinity.Target(), bean)
	}
	return nil, fmt.Errorf("%w: %s under affinity %s", ErrNoSuchDeployment, bean, affinity)
}

// targetNodes filters hosting by a node or cluster affinity.
func (r *affinityResolver) targetNodes(topology domain.Topology, hosting []string, target domain.Affinity) ([]string, string, error) {
	if target.Name == "" {
		return nil, "", fmt.Errorf("%w: %s", ErrInvalidAffinity, target)
	}
	switch target.Kind {
	case domain.AffinityNode:
		if slices.Contains(hosting, target.Name) {
			return []string{target.Name}, "", nil
		}
		return nil, "", nil
	case domain.AffinityCluster:
		c, ok := topology.Cluster(target.Name)
		if !ok {
			level.Debug(r.logger).Log("msg", "cluster unknown", "cluster", target.Name)
			return nil, target.Name, nil
		}
		var out []string
		for _, n := range c.Nodes {
			if slices.Contains(hosting, n.Name) {
				out = append(out, n.Name)
			}
		}
		return out, target.Name, nil
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrInvalidAffinity, target)
	}
}

// preferNode moves node to the front of names when present.
func preferNode(names []string, node string) []string {
	i := slices.Index(names, node)
	if i <= 0 {
		return names
	}
	out := make([]string, 0, len(names))
	out = append(out, node)
	out = append(out, names[:i]...)
	return append(out, names[i+1:]...)
}

// candidates turns node names into dialable candidates.
func (r *affinityResolver) candidates(topology domain.Topology, names []string, cluster string) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(names))
	for _, name := range names {
		info, ok := r.lookup(topology, name, cluster)
		if !ok {
			level.Debug(r.logger).Log("msg", "no address for node", "node", name)
			continue
		}
		mapping, ok := info.MappingFor(r.localIP)
		if !ok {
			level.Debug(r.logger).Log("msg", "no mapping applies to local address", "node", name, "local", r.localIP)
			continue
		}
		out = append(out, domain.Candidate{Node: info, Mapping: mapping, Cluster: cluster, Index: len(out)})
	}
	return out
}

// lookup finds node info: preferred cluster first, then any cluster, then configured nodes.
func (r *affinityResolver) lookup(topology domain.Topology, name, cluster string) (domain.NodeInfo, bool) {
	if cluster != "" {
		if c, ok := topology.Cluster(cluster); ok {
			for _, n := range c.Nodes {
				if n.Name == name {
					return n, true
				}
			}
		}
	}
	for _, c := range topology.Clusters {
		for _, n := range c.Nodes {
			if n.Name == name {
				return n, true
			}
		}
	}
	return r.directory.Get(name)
}
