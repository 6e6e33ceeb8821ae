package interfaces

import (
	"context"

	"myejbclient/domain"
)

// ConnectionPool caches one Connection per node name.
//
// Get returns the cached healthy connection for the candidate's node or dials a new one through the
// Connector (the ctx deadline bounds the dial). OnNodeFailure drops and closes the cached connection
// of a node so the next Get redials. Close closes every connection; idempotent.
//
// Implemented by service.connectionPool. Called from service.discoveryCoordinator (Cached, Get) and
// service.invocationDispatcher (OnNodeFailure).
//
//go:generate moq -stub -out mock/connection_pool.go -pkg mock . ConnectionPool
type ConnectionPool interface {
	// Get returns a ready connection for the candidate's node.
	// Parameters: ctx: attempt context (deadline = connect timeout); candidate: node and mapping to dial when nothing usable is cached.
	// Returns: (conn, nil) on success; (nil, ErrConnPoolClosed) when closed; (nil, error) when the dial fails or ctx ends.
	Get(ctx context.Context, candidate domain.Candidate) (Connection, error)

	// Cached returns the cached connection of node if it is healthy, without dialing.
	Cached(node string) (Connection, bool)

	// OnNodeFailure closes and forgets the connection of node (no-op when nothing is cached).
	OnNodeFailure(node string)

	// Close closes all pooled connections and marks the pool closed; idempotent.
	Close() error
}
