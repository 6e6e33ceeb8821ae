package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoSuchDeployment is returned when no node hosts the bean (under the invocation's affinity) or the server has no such bean.
var ErrNoSuchDeployment = errors.New("no such deployment")

// ErrNoSuchMethod is returned when the bean exists but has no method matching the locator.
var ErrNoSuchMethod = errors.New("no such method")

// ErrDiscoveryTimeout is returned when the total discovery budget passed with no reachable node.
var ErrDiscoveryTimeout = errors.New("discovery timed out")

// ErrConnectFailure wraps a single failed connection attempt.
var ErrConnectFailure = errors.New("connect failure")

// ErrNoAvailableNode is returned when every connection attempt of a discovery failed before the total budget.
var ErrNoAvailableNode = errors.New("no available node")

// ErrSessionTargetUnavailable is returned when a session's node (or every member of its cluster) no longer hosts the bean.
var ErrSessionTargetUnavailable = errors.New("session target unavailable")

// ErrCancelled is the error of an outcome that was cancelled before a response arrived.
var ErrCancelled = errors.New("invocation cancelled")

// ErrInvalidAffinity is returned for an affinity the resolver cannot route (missing name, unknown kind).
var ErrInvalidAffinity = errors.New("invalid affinity")

// ErrMalformedRequest is returned when a request frame cannot be decoded into an invocation.
var ErrMalformedRequest = errors.New("malformed request")

// ErrNodeClosed is returned by a node server that is shutting down.
var ErrNodeClosed = errors.New("node is shutting down")

// ErrClientClosed is returned by ClientContext operations after Close.
var ErrClientClosed = errors.New("client context is closed")

// ConnectError is one failed connection attempt: node, address and the dial error.
type ConnectError struct {
	Node    string
	Address string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("%s: node %s at %s: %v", ErrConnectFailure, e.Node, e.Address, e.Err)
}

// Is makes errors.Is(err, ErrConnectFailure) true for every ConnectError.
func (e *ConnectError) Is(target error) bool {
	return target == ErrConnectFailure
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// NoAvailableNodeError carries the attempt failures of a discovery where no candidate was reachable.
type NoAvailableNodeError struct {
	Failures []*ConnectError
}

func (e *NoAvailableNodeError) Error() string {
	if len(e.Failures) == 0 {
		return ErrNoAvailableNode.Error()
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("%s: %s", ErrNoAvailableNode, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrNoAvailableNode) true.
func (e *NoAvailableNodeError) Is(target error) bool {
	return target == ErrNoAvailableNode
}

// Unwrap exposes the individual attempt failures to errors.Is/As.
func (e *NoAvailableNodeError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f)
	}
	return out
}

// RemoteInvocationError is the bean method's own failure reported by the node; Message is passed through verbatim.
type RemoteInvocationError struct {
	Message string
}

func (e *RemoteInvocationError) Error() string {
	return e.Message
}
