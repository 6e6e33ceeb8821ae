package grpcnode

import (
	"google.golang.org/grpc"
)

// ServiceName is the gRPC service every node registers.
const ServiceName = "myejbclient.v1.NodeService"

const (
	invokeMethod = "/" + ServiceName + "/Invoke"
	watchMethod  = "/" + ServiceName + "/Watch"
)

// Invoke is a bidi stream: the client sends one request frame and optionally one cancel frame; the
// node sends exactly one response frame and ends the stream.
var invokeStreamDesc = grpc.StreamDesc{StreamName: "Invoke", ServerStreams: true, ClientStreams: true}

// Watch is a server stream: the client sends one empty frame; the node sends its topology and module
// snapshot and then every change until the client goes away.
var watchStreamDesc = grpc.StreamDesc{StreamName: "Watch", ServerStreams: true}

// nodeService is the handler type checked by grpc.Server.RegisterService.
type nodeService interface {
	invoke(stream grpc.ServerStream) error
	watch(stream grpc.ServerStream) error
}

// serviceDesc is written by hand: messages are structpb.Struct, so no generated code is needed.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*nodeService)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    invokeStreamDesc.StreamName,
			Handler:       func(srv any, stream grpc.ServerStream) error { return srv.(nodeService).invoke(stream) },
			ServerStreams: true,
			ClientStreams: true,
		},
		{
			StreamName:    watchStreamDesc.StreamName,
			Handler:       func(srv any, stream grpc.ServerStream) error { return srv.(nodeService).watch(stream) },
			ServerStreams: true,
		},
	},
	Metadata: "adapters/grpcnode",
}
