package domain

import (
	"strings"

	"github.com/google/uuid"
)

// MethodLocator identifies a method by name and parameter type names.
type MethodLocator struct {
	Name       string
	ParamTypes []string
}

// String returns "name(type1,type2)"; used as the method key on the server side.
func (m MethodLocator) String() string {
	return m.Name + "(" + strings.Join(m.ParamTypes, ",") + ")"
}

// InvocationRequest is one remote method call. OneWay marks an asynchronous void method: the caller
// is released as soon as the request is accepted for sending. SessionOpen turns the request into a
// session-open request for Bean (Method and Params are ignored).
type InvocationRequest struct {
	ID          string
	Bean        BeanIdentifier
	Method      MethodLocator
	Affinity    Affinity
	Params      []any
	OneWay      bool
	SessionOpen bool
}

// NewInvocationID mints a request identity.
func NewInvocationID() string {
	return uuid.NewString()
}

// ResponseKind discriminates what a node wrote back for a request.
type ResponseKind string

const (
	ResponseResult           ResponseKind = "result"
	ResponseException        ResponseKind = "exception"
	ResponseNoSuchDeployment ResponseKind = "no_such_deployment"
	ResponseNoSuchMethod     ResponseKind = "no_such_method"
	ResponseCancelled        ResponseKind = "cancelled"
	ResponseSessionOpened    ResponseKind = "session_opened"
)

// InvocationResponse is the single reply a node writes for a request. Session is set when the node
// converted the invocation to stateful (lazy session creation) or opened a session.
type InvocationResponse struct {
	ID           string
	Kind         ResponseKind
	Value        any
	ErrorMessage string
	Session      *Session
}

// InvocationState is the tri-state cancellation flag of one invocation.
type InvocationState int32

const (
	InvocationPending InvocationState = iota
	InvocationCancelled
	InvocationCompleted
)

// String returns pending|cancelled|completed.
func (s InvocationState) String() string {
	switch s {
	case InvocationCancelled:
		return "cancelled"
	case InvocationCompleted:
		return "completed"
	default:
		return "pending"
	}
}

// OutcomeKind is the terminal result class delivered to the caller.
type OutcomeKind string

const (
	OutcomeResult    OutcomeKind = "result"
	OutcomeException OutcomeKind = "exception"
	OutcomeCancelled OutcomeKind = "cancelled"
)

// Outcome is the one terminal outcome of an invocation. Value is set for results; Err for exceptions
// (routing errors or the remote method's own error); Node is the node that handled it (empty when
// no node was selected); Session is set when the invocation opened or converted a session.
type Outcome struct {
	Kind    OutcomeKind
	Value   any
	Err     error
	Node    string
	Session *Session
}

// Candidate is a node an invocation may be routed to, with the mapping chosen for this caller.
// Cluster is the cluster the candidate was found through (empty for standalone nodes); Index is its
// position in the resolver's ordering (lower is preferred).
type Candidate struct {
	Node    NodeInfo
	Mapping MappingInfo
	Cluster string
	Index   int
}
