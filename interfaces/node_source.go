package interfaces

import (
	"context"

	"myejbclient/domain"
)

// NodeSource provides the nodes a client connects to at startup ("configured connections").
//
// Implemented by service.StaticNodeSource (YAML), adapters.DiscovererHTTP (MyDiscoverer-compatible HTTP registry)
// and service.CacheNodeSource (announcements kept in redis by adapters/myredis). Called from service.ClientContext.Start.
//
//go:generate moq -stub -out mock/node_source.go -pkg mock . NodeSource
type NodeSource interface {
	// GetNodes returns the current node list.
	// Returns: (nodes, nil) on success (empty list is valid); (nil, error) on transport or parse error.
	GetNodes(ctx context.Context) ([]domain.NodeInfo, error)
}
