package domain

import (
	"fmt"
	"time"
)

// InstanceServiceType is the service_type a node announces itself with.
const InstanceServiceType = "ejb"

// Instance is a node announcement in the MyDiscoverer format: the node name as instance_id and the
// address callers should dial. Written to redis by the node and served by GET /v1/instances.
type Instance struct {
	InstanceID  string    `json:"instance_id"`
	ServiceType string    `json:"service_type"`
	Ipv4        string    `json:"ipv4"`
	Port        int       `json:"port"`
	Timestamp   time.Time `json:"timestamp"`
	TTLMs       int       `json:"ttl_ms"`
}

// InstanceOf announces node through its first unconstrained mapping.
//
// Returns: (instance, true); (Instance{}, false) when every mapping is limited to some source network.
//
// Called from service.NewAnnouncer and the admin instances handler.
func InstanceOf(node NodeInfo, now time.Time, ttl time.Duration) (Instance, bool) {
	for _, m := range node.Mappings {
		if m.SourceIP != nil {
			continue
		}
		return Instance{
			InstanceID:  node.Name,
			ServiceType: InstanceServiceType,
			Ipv4:        m.DestHost,
			Port:        m.DestPort,
			Timestamp:   now,
			TTLMs:       int(ttl / time.Millisecond),
		}, true
	}
	return Instance{}, false
}

// Node converts the announcement back into a dialable node with one unconstrained mapping.
//
// Returns: error when instance_id, ipv4 or port is missing.
func (i Instance) Node() (NodeInfo, error) {
	if i.InstanceID == "" || i.Ipv4 == "" || i.Port <= 0 {
		return NodeInfo{}, fmt.Errorf("incomplete instance %q", i.InstanceID)
	}
	return NodeInfo{
		Name:     i.InstanceID,
		Mappings: []MappingInfo{{DestHost: i.Ipv4, DestPort: i.Port}},
	}, nil
}
