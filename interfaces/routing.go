package interfaces

import (
	"context"

	"myejbclient/domain"
)

// AffinityResolver turns an invocation's affinity into an ordered candidate list.
//
// Resolution is a pure read over registry snapshots: it never mutates state and produces a
// snapshot-consistent list for exactly one attempt.
//
// Implemented by service.affinityResolver. Called from service.invocationDispatcher before discovery.
//
//go:generate moq -stub -out mock/affinity_resolver.go -pkg mock . AffinityResolver
type AffinityResolver interface {
	// Resolve returns candidates for bean under affinity, most preferred first.
	// Returns: (candidates, nil) with at least one element; (nil, ErrNoSuchDeployment) when no node hosts the bean under that affinity;
	// (nil, ErrSessionTargetUnavailable) when a session's target is gone; (nil, ErrInvalidAffinity) for malformed affinity.
	Resolve(bean domain.BeanIdentifier, affinity domain.Affinity) ([]domain.Candidate, error)
}

// Selection is the outcome of a successful discovery: the committed candidate and its ready connection.
// Reachable lists every candidate that answered before the commit, in resolver order.
type Selection struct {
	Candidate  domain.Candidate
	Connection Connection
	Reachable  []domain.Candidate
}

// DiscoveryCoordinator searches candidates for a reachable node under the discovery budgets.
//
// Implemented by service.discoveryCoordinator. Called from service.invocationDispatcher.
//
//go:generate moq -stub -out mock/discovery_coordinator.go -pkg mock . DiscoveryCoordinator
type DiscoveryCoordinator interface {
	// Discover tries candidates concurrently and commits to one.
	// Parameters: ctx: invocation context (cancellation aborts discovery immediately); candidates: resolver output.
	// Returns: (Selection, nil); (Selection{}, ErrDiscoveryTimeout) when the total budget passes with nothing reachable;
	// (Selection{}, ErrNoAvailableNode) when every attempt failed; (Selection{}, ctx.Err()) when ctx ends first.
	Discover(ctx context.Context, candidates []domain.Candidate) (Selection, error)
}

// CancelHandle cancels one invocation. Cancel transitions the invocation from pending to cancelled
// exactly once; later calls, and calls after completion, do nothing. It is a best-effort signal to
// the remote side.
type CancelHandle interface {
	// Cancel requests cancellation; returns true only for the call that moved the invocation to cancelled.
	Cancel() bool
}

// InvocationDispatcher owns the lifecycle of invocations.
//
// Implemented by service.invocationDispatcher. Called from service.ClientContext.
type InvocationDispatcher interface {
	// Dispatch starts the invocation and returns immediately.
	// Returns: a CancelHandle and a channel that receives exactly one Outcome and is then closed.
	Dispatch(ctx context.Context, req domain.InvocationRequest) (CancelHandle, <-chan domain.Outcome)
}

// Executor runs invocation work. service.GoExecutor runs each task on its own goroutine;
// service.SameGoroutineExecutor runs it inline and is used for loop-back targets.
type Executor interface {
	Execute(task func())
}
