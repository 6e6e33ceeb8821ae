package admin

import (
	"time"

	"myejbclient/domain"
)

// ClustersResponse is the body of GET /v1/clusters.
type ClustersResponse struct {
	Version  uint64        `json:"version"`
	Clusters []ClusterInfo `json:"clusters"`
}

// ClusterInfo is one cluster and its members.
type ClusterInfo struct {
	Name  string     `json:"name"`
	Nodes []NodeInfo `json:"nodes"`
}

// NodeInfo is one member with its mappings.
type NodeInfo struct {
	Name     string        `json:"name"`
	Mappings []MappingInfo `json:"mappings"`
}

// MappingInfo is one way to reach a node; SourceIP is omitted for mappings every caller may use.
type MappingInfo struct {
	DestHost    string `json:"dest_host"`
	DestPort    int    `json:"dest_port"`
	SourceIP    string `json:"source_ip,omitempty"`
	NetmaskBits int    `json:"netmask_bits,omitempty"`
}

// ModulesResponse is the body of GET /v1/modules.
type ModulesResponse struct {
	Nodes []NodeModules `json:"nodes"`
}

// NodeModules lists one node's deployments.
type NodeModules struct {
	Node    string       `json:"node"`
	Modules []ModuleInfo `json:"modules"`
}

// ModuleInfo is one deployed module; Beans is empty when the whole module is available.
type ModuleInfo struct {
	AppName      string   `json:"app_name"`
	ModuleName   string   `json:"module_name"`
	DistinctName string   `json:"distinct_name"`
	Beans        []string `json:"beans,omitempty"`
}

// InstancesResponse is the body of GET /v1/instances, the MyDiscoverer listing format.
type InstancesResponse struct {
	Instances []domain.Instance `json:"instances"`
}

func toClustersResponse(t domain.Topology) ClustersResponse {
	out := ClustersResponse{Version: t.Version, Clusters: make([]ClusterInfo, 0, len(t.Clusters))}
	for _, c := range t.Clusters {
		ci := ClusterInfo{Name: c.Name, Nodes: make([]NodeInfo, 0, len(c.Nodes))}
		for _, n := range c.Nodes {
			ci.Nodes = append(ci.Nodes, toNodeInfo(n))
		}
		out.Clusters = append(out.Clusters, ci)
	}
	return out
}

func toNodeInfo(n domain.NodeInfo) NodeInfo {
	ni := NodeInfo{Name: n.Name, Mappings: make([]MappingInfo, 0, len(n.Mappings))}
	for _, m := range n.Mappings {
		mi := MappingInfo{DestHost: m.DestHost, DestPort: m.DestPort}
		if m.SourceIP != nil {
			mi.SourceIP = m.SourceIP.String()
			mi.NetmaskBits = m.NetmaskBits
		}
		ni.Mappings = append(ni.Mappings, mi)
	}
	return ni
}

func toModulesResponse(nodes []domain.NodeDeployments) ModulesResponse {
	out := ModulesResponse{Nodes: make([]NodeModules, 0, len(nodes))}
	for _, nd := range nodes {
		nm := NodeModules{Node: nd.Node, Modules: make([]ModuleInfo, 0, len(nd.Deployments))}
		for _, d := range nd.Deployments {
			nm.Modules = append(nm.Modules, ModuleInfo{
				AppName:      d.Module.AppName,
				ModuleName:   d.Module.ModuleName,
				DistinctName: d.Module.DistinctName,
				Beans:        d.Beans,
			})
		}
		out.Nodes = append(out.Nodes, nm)
	}
	return out
}

// toInstances lists self first, then every cluster member in topology order, once per name. Nodes
// reachable only through source-constrained mappings are left out.
func toInstances(self domain.NodeInfo, t domain.Topology, now time.Time) []domain.Instance {
	seen := make(map[string]bool)
	var out []domain.Instance
	add := func(n domain.NodeInfo) {
		if seen[n.Name] {
			return
		}
		seen[n.Name] = true
		if inst, ok := domain.InstanceOf(n, now, 0); ok {
			out = append(out, inst)
		}
	}
	if self.Name != "" {
		add(self)
	}
	for _, c := range t.Clusters {
		for _, n := range c.Nodes {
			add(n)
		}
	}
	return out
}
