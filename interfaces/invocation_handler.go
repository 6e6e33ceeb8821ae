package interfaces

import (
	"context"

	"myejbclient/domain"
)

// ResponseWriter writes the single response of a request back to the client. Only the first Write
// is delivered; later writes return an error and are dropped.
//
//go:generate moq -stub -out mock/response_writer.go -pkg mock . ResponseWriter
type ResponseWriter interface {
	Write(resp domain.InvocationResponse) error
}

// InvocationHandler is the server side of the invocation protocol: it receives requests from a
// channel and writes exactly one response for each.
//
// Implemented by service.InvocationHandler. Called from adapters/grpcnode.Server for every invoke stream.
type InvocationHandler interface {
	// HandleInvocation looks up the bean and method and runs it (possibly asynchronously).
	// Returns: a cancel func that flags the invocation as cancelled; when the flag is seen before the method runs, a cancelled response is written instead.
	HandleInvocation(ctx context.Context, req domain.InvocationRequest, w ResponseWriter) (cancel func())

	// HandleSessionOpen opens a session for req.Bean and writes a session_opened response carrying the session.
	HandleSessionOpen(ctx context.Context, req domain.InvocationRequest, w ResponseWriter) (cancel func())
}
