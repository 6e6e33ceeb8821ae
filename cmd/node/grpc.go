package main

import (
	"myejbclient/adapters/grpcnode"
	"myejbclient/service"

	"github.com/go-kit/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// newGRPCServer builds the node's gRPC server: the node protocol plus the standard health and
// reflection services. The overall health status starts SERVING; the caller flips it on shutdown.
func newGRPCServer(nodeServer *grpcnode.Server, logger log.Logger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(grpc.ChainStreamInterceptor(service.NodeErrorToGRPCStreamInterceptor(logger)))
	nodeServer.Register(srv)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(srv, healthServer)

	reflection.Register(srv)
	return srv, healthServer
}
