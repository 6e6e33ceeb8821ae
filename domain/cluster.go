package domain

import (
	"net"
	"strconv"
)

// MappingInfo is one way to reach a node: destination host/port plus an optional source-IP constraint.
// SourceIP and NetmaskBits select the callers the mapping applies to (SourceIP nil means every caller).
type MappingInfo struct {
	DestHost    string
	DestPort    int
	SourceIP    net.IP
	NetmaskBits int
}

// Address returns DestHost:DestPort joined with net.JoinHostPort (IPv6 hosts are bracketed).
//
// Returns: dial address for the transport (e.g. "localhost:6999").
//
// Called from adapters/grpcnode connector when dialing and from admin handlers when listing nodes.
func (m MappingInfo) Address() string {
	return net.JoinHostPort(m.DestHost, strconv.Itoa(m.DestPort))
}

// Applies reports whether this mapping may be used by a caller whose local address is local.
//
// Parameter local: caller's local address; nil means unknown and only unconstrained mappings (SourceIP nil) apply.
//
// Returns: true when SourceIP is nil or local falls within SourceIP/NetmaskBits; false otherwise.
// NetmaskBits outside 0..bitlen is clamped to the address bit length (exact match).
//
// Called from NodeInfo.MappingFor.
func (m MappingInfo) Applies(local net.IP) bool {
	if m.SourceIP == nil {
		return true
	}
	if local == nil {
		return false
	}
	src := m.SourceIP
	if v4 := src.To4(); v4 != nil {
		src = v4
	}
	dst := local
	if v4 := dst.To4(); v4 != nil {
		dst = v4
	}
	if len(src) != len(dst) {
		return false
	}
	bits := len(src) * 8
	ones := m.NetmaskBits
	if ones < 0 || ones > bits {
		ones = bits
	}
	mask := net.CIDRMask(ones, bits)
	return src.Mask(mask).Equal(dst.Mask(mask))
}

// NodeInfo is a server node: a name unique within the endpoint and the mappings it can be reached through.
// Name never changes once the node is created.
type NodeInfo struct {
	Name     string
	Mappings []MappingInfo
}

// MappingFor returns the first mapping that applies to the caller's local address.
//
// Parameter local: caller's local address (nil allowed).
//
// Returns: (mapping, true) when one of the mappings applies; (MappingInfo{}, false) when none does.
//
// Called from service.affinityResolver when turning a node name into a dialable Candidate.
func (n NodeInfo) MappingFor(local net.IP) (MappingInfo, bool) {
	for _, m := range n.Mappings {
		if m.Applies(local) {
			return m, true
		}
	}
	return MappingInfo{}, false
}

// Clone returns a deep copy of the node (mappings slice and source IPs are copied).
func (n NodeInfo) Clone() NodeInfo {
	if n.Mappings == nil {
		return NodeInfo{Name: n.Name}
	}
	out := NodeInfo{Name: n.Name, Mappings: make([]MappingInfo, len(n.Mappings))}
	for i, m := range n.Mappings {
		if m.SourceIP != nil {
			m.SourceIP = append(net.IP(nil), m.SourceIP...)
		}
		out.Mappings[i] = m
	}
	return out
}

// ClusterInfo is a named set of interchangeable nodes. Node order carries no meaning for membership
// but is kept stable so candidate ordering is deterministic.
type ClusterInfo struct {
	Name  string
	Nodes []NodeInfo
}

// HasNode reports whether a node with the given name is a member of the cluster.
func (c ClusterInfo) HasNode(name string) bool {
	for _, n := range c.Nodes {
		if n.Name == name {
			return true
		}
	}
	return false
}

// NodeNames returns member names in membership order.
func (c ClusterInfo) NodeNames() []string {
	out := make([]string, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		out = append(out, n.Name)
	}
	return out
}

// Clone returns a deep copy of the cluster so registries never hand out live references.
func (c ClusterInfo) Clone() ClusterInfo {
	if c.Nodes == nil {
		return ClusterInfo{Name: c.Name}
	}
	out := ClusterInfo{Name: c.Name, Nodes: make([]NodeInfo, len(c.Nodes))}
	for i, n := range c.Nodes {
		out.Nodes[i] = n.Clone()
	}
	return out
}

// ClusterRemovalInfo names nodes to drop from an existing cluster.
type ClusterRemovalInfo struct {
	Name      string
	NodeNames []string
}

// Topology is a snapshot of every known cluster. Version increases with every applied mutation,
// so two snapshots of the same registry can be ordered.
type Topology struct {
	Version  uint64
	Clusters []ClusterInfo
}

// Cluster returns the cluster with the given name from the snapshot.
func (t Topology) Cluster(name string) (ClusterInfo, bool) {
	for _, c := range t.Clusters {
		if c.Name == name {
			return c, true
		}
	}
	return ClusterInfo{}, false
}
