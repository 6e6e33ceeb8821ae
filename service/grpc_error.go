package service

import (
	"context"
	"errors"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const msgNodeUnavailable = "node unavailable"
const msgMalformedRequest = "malformed request"
const msgInternal = "internal node error"

// NodeErrorToGRPCStreamInterceptor returns a stream server interceptor: runs the handler and maps the returned error via nodeErrorToGRPC, logs the error for diagnostics.
//
// Parameter logger: logger for "stream handler error" with method and err.
//
// Returns: grpc.StreamServerInterceptor. The error it returns is already a gRPC status (Unavailable, InvalidArgument, Canceled, etc.).
//
// Called from cmd/node and the grpcnode tests when creating the gRPC server (grpc.ChainStreamInterceptor).
func NodeErrorToGRPCStreamInterceptor(logger log.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		err := handler(srv, ss)
		if err != nil {
			level.Info(logger).Log(
				"msg", "stream handler error",
				"method", info.FullMethod,
				"err", err,
			)
			err = nodeErrorToGRPC(err)
		}
		return err
	}
}

// nodeErrorToGRPC maps node stream handler errors to gRPC status: nil → nil; an existing status with code != Unknown is returned as-is;
// ErrMalformedRequest and ErrInvalidAffinity → InvalidArgument; ErrNodeClosed → Unavailable "node unavailable";
// context.Canceled → Canceled; context.DeadlineExceeded → DeadlineExceeded; rest → Internal "internal node error".
//
// Parameter err: error returned by handler; nil is allowed.
//
// Returns: nil if err == nil; otherwise *status.Error with the appropriate code and message.
//
// Called from NodeErrorToGRPCStreamInterceptor after calling the handler.
func nodeErrorToGRPC(err error) error {
	if err == nil {
		return nil
	}
	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		return s.Err()
	}
	switch {
	case errors.Is(err, ErrMalformedRequest):
		return status.Error(codes.InvalidArgument, msgMalformedRequest)
	case errors.Is(err, ErrInvalidAffinity):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrNodeClosed):
		return status.Error(codes.Unavailable, msgNodeUnavailable)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, msgInternal)
	}
}

// IsNodeUnavailable reports whether an error from a node stream means the node itself is gone
// (as opposed to a problem with the request). The client treats such errors as a node failure.
//
// Called from adapters/grpcnode channel when classifying Send and Receive errors.
func IsNodeUnavailable(err error) bool {
	if err == nil {
		return false
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.Aborted:
		return true
	default:
		return false
	}
}
