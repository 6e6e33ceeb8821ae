package helpers

import (
	"strings"

	"google.golang.org/grpc/metadata"
)

// HeaderInvocationID is the gRPC metadata key carrying the invocation id on an invoke stream.
const HeaderInvocationID = "invocation-id"

// HeaderSessionID is the gRPC metadata key carrying the session id of a session-bound invocation.
const HeaderSessionID = "session-id"

// HeaderClientNode is the gRPC metadata key naming the calling endpoint (used in server logs).
const HeaderClientNode = "client-node"

// GetHeaderValue returns the first value of header key in metadata. Key is lowercased (gRPC canonicalizes keys).
//
// Parameters: md: incoming or outgoing metadata (nil allowed: returns ("", false)); key: header name (empty string gives ("", false)).
//
// Returns: (value, true) when there is a non-empty value; ("", false) when md is nil, key is missing or value is empty.
//
// Called from GetInvocationID, GetSessionID and the grpcnode server when reading stream metadata.
func GetHeaderValue(md metadata.MD, key string) (string, bool) {
	if md == nil || key == "" {
		return "", false
	}
	vals := md.Get(strings.ToLower(key))
	if len(vals) == 0 || vals[0] == "" {
		return "", false
	}
	return vals[0], true
}

// GetInvocationID returns the first value of the "invocation-id" header in metadata.
func GetInvocationID(md metadata.MD) (string, bool) {
	return GetHeaderValue(md, HeaderInvocationID)
}

// GetSessionID returns the first value of the "session-id" header; whitespace-only values count as missing.
func GetSessionID(md metadata.MD) (string, bool) {
	v, ok := GetHeaderValue(md, HeaderSessionID)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

// InvocationMetadata builds outgoing stream metadata for one invocation. Empty values are omitted.
//
// Parameters: invocationID: request id; sessionID: session id or ""; clientNode: caller endpoint name or "".
//
// Returns: metadata.MD (never nil).
//
// Called from adapters/grpcnode channel when opening an invoke stream.
func InvocationMetadata(invocationID, sessionID, clientNode string) metadata.MD {
	md := metadata.MD{}
	if invocationID != "" {
		md.Set(HeaderInvocationID, invocationID)
	}
	if sessionID != "" {
		md.Set(HeaderSessionID, sessionID)
	}
	if clientNode != "" {
		md.Set(HeaderClientNode, clientNode)
	}
	return md
}
