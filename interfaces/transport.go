package interfaces

import (
	"context"

	"myejbclient/domain"
)

// Connector establishes connections to nodes. The routing core never dials on its own; it calls
// Connect with a context whose deadline is the per-attempt connect timeout, so a connection attempt
// that hangs (network black hole) is turned into an error when the deadline passes.
//
// Implemented by adapters/grpcnode.Connector. Called from service.connectionPool.
//
//go:generate moq -stub -out mock/connector.go -pkg mock . Connector
type Connector interface {
	// Connect dials the candidate's mapping and returns once the connection is ready for channels.
	// Parameters: ctx: attempt context (deadline = connect timeout, cancelled when discovery commits or the invocation is cancelled); candidate: node and chosen mapping.
	// Returns: (Connection, nil) when ready; (nil, error) on refusal, handshake failure or ctx expiry. Implementations must return promptly after ctx is done.
	Connect(ctx context.Context, candidate domain.Candidate) (Connection, error)
}

// Connection is an established, authenticated connection to one node. Channels multiplex over it.
//
//go:generate moq -stub -out mock/connection.go -pkg mock . Connection
type Connection interface {
	// Node returns the name of the node at the other end.
	Node() string

	// Healthy reports whether the connection can still carry new channels without redialing.
	Healthy() bool

	// OpenChannel opens an ordered request/response channel for one invocation.
	// Parameter ctx: values for the channel; a request already sent survives its cancellation until Close
	// has drained it, while cancelling the ctx passed to Receive tears the channel down.
	// Returns: (Channel, nil) or (nil, error) when the connection is broken.
	OpenChannel(ctx context.Context) (Channel, error)

	// Watch streams topology and module availability reports pushed by the node into the listeners until ctx is done or the stream breaks.
	// The node sends its full topology and module snapshot first.
	// Returns: ctx.Err() after cancellation; transport error when the stream breaks.
	Watch(ctx context.Context, topology TopologyListener, modules ModuleAvailabilityListener) error

	// Close closes the connection; idempotent.
	Close() error
}

// Channel carries exactly one invocation: one request, an optional cancel signal, one response.
//
//go:generate moq -stub -out mock/channel.go -pkg mock . Channel
type Channel interface {
	// Send writes the request. Returns once the request is accepted for sending.
	Send(ctx context.Context, req domain.InvocationRequest) error

	// SendCancel writes a best-effort cancellation signal for the invocation. Does not wait for acknowledgement.
	SendCancel(ctx context.Context, invocationID string) error

	// Receive blocks until the node's single response arrives, ctx is done or the channel breaks.
	Receive(ctx context.Context) (domain.InvocationResponse, error)

	// Close releases the channel; idempotent.
	Close() error
}
