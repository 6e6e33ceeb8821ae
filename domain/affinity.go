package domain

import (
	"strings"
)

// AffinityKind selects how an invocation is pinned: none, node, cluster or session.
type AffinityKind string

const (
	AffinityNone    AffinityKind = "none"
	AffinityNode    AffinityKind = "node"
	AffinityCluster AffinityKind = "cluster"
	AffinitySession AffinityKind = "session"
)

// Affinity is the routing constraint of one invocation. Exactly one Kind applies.
// Name is the node or cluster name for node/cluster affinity. For session affinity SessionID is set
// and TargetKind/Name describe the node or cluster the session resolves through.
// Values are immutable; build them with the constructors below.
type Affinity struct {
	Kind       AffinityKind
	Name       string
	SessionID  SessionID
	TargetKind AffinityKind
}

// NoAffinity returns the affinity of an unconstrained invocation.
func NoAffinity() Affinity {
	return Affinity{Kind: AffinityNone}
}

// NodeAffinity pins an invocation to one named node.
func NodeAffinity(node string) Affinity {
	return Affinity{Kind: AffinityNode, Name: node}
}

// ClusterAffinity restricts an invocation to members of one cluster.
func ClusterAffinity(cluster string) Affinity {
	return Affinity{Kind: AffinityCluster, Name: cluster}
}

// SessionAffinity binds a session to the node or cluster chosen when the session was opened.
//
// Parameters: id: session identity; target: NodeAffinity or ClusterAffinity captured at session creation.
//
// Returns: (session affinity, nil); (Affinity{}, *AffinityError) when id is empty or target is not node/cluster.
//
// Called from service.InvocationHandler when converting a stateless-addressed stateful invocation and from ParseAffinity.
func SessionAffinity(id SessionID, target Affinity) (Affinity, error) {
	if id == "" {
		return Affinity{}, &AffinityError{Value: string(target.Kind), Reason: "session id must be non-empty"}
	}
	if target.Kind != AffinityNode && target.Kind != AffinityCluster {
		return Affinity{}, &AffinityError{Value: target.String(), Reason: "session target must be node or cluster"}
	}
	if target.Name == "" {
		return Affinity{}, &AffinityError{Value: target.String(), Reason: "session target name must be non-empty"}
	}
	return Affinity{Kind: AffinitySession, Name: target.Name, SessionID: id, TargetKind: target.Kind}, nil
}

// Target returns the node or cluster affinity a session affinity resolves through; other kinds return themselves.
func (a Affinity) Target() Affinity {
	if a.Kind != AffinitySession {
		return a
	}
	return Affinity{Kind: a.TargetKind, Name: a.Name}
}

// IsNone reports whether the affinity places no constraint (the zero value counts as none).
func (a Affinity) IsNone() bool {
	return a.Kind == "" || a.Kind == AffinityNone
}

// String renders the affinity in the form accepted by ParseAffinity: "none", "node:n1", "cluster:ejb",
// "session:<id>@cluster:ejb".
func (a Affinity) String() string {
	switch a.Kind {
	case AffinityNode, AffinityCluster:
		return string(a.Kind) + ":" + a.Name
	case AffinitySession:
		return string(AffinitySession) + ":" + string(a.SessionID) + "@" + a.Target().String()
	default:
		return string(AffinityNone)
	}
}

// ParseAffinity parses the String form of an affinity. Empty string parses as none.
//
// Parameter s: affinity text from config, CLI flags or the wire envelope.
//
// Returns: (Affinity, nil) on success; (Affinity{}, *AffinityError) on unknown kind or missing name.
//
// Called from adapters/grpcnode codec and cmd/client flag parsing.
func ParseAffinity(s string) (Affinity, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == string(AffinityNone) {
		return NoAffinity(), nil
	}
	kind, rest, ok := strings.Cut(s, ":")
	if !ok || rest == "" {
		return Affinity{}, &AffinityError{Value: s, Reason: "expected kind:name"}
	}
	switch AffinityKind(kind) {
	case AffinityNode:
		return NodeAffinity(rest), nil
	case AffinityCluster:
		return ClusterAffinity(rest), nil
	case AffinitySession:
		id, target, ok := strings.Cut(rest, "@")
		if !ok {
			return Affinity{}, &AffinityError{Value: s, Reason: "session affinity needs @target"}
		}
		t, err := ParseAffinity(target)
		if err != nil {
			return Affinity{}, err
		}
		return SessionAffinity(SessionID(id), t)
	default:
		return Affinity{}, &AffinityError{Value: s, Reason: "kind must be none|node|cluster|session"}
	}
}

// AffinityError is returned when an affinity cannot be built or parsed.
type AffinityError struct {
	Value  string
	Reason string
}

// Error returns "affinity \"<value>\": <reason>".
func (e *AffinityError) Error() string {
	return "affinity \"" + e.Value + "\": " + e.Reason
}
