// Package main is the entry point of a server node. It loads configuration (env + YAML), deploys the
// built-in Echo and Counter beans into the configured module, seeds the cluster registry with the
// configured membership and serves the node protocol (adapters/grpcnode) with gRPC health and
// reflection on SERVICE_PORT_GRPC. When
// SERVICE_PORT_HTTP is set it serves the admin API (adapters/admin); when REDIS_ADDR is set it announces
// itself in redis with a TTL (service.Announcer over adapters/myredis). On SIGINT/SIGTERM open streams
// are ended and the gRPC server stops gracefully within the shutdown timeout.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"myejbclient/adapters/admin"
	"myejbclient/adapters/grpcnode"
	"myejbclient/adapters/myredis"
	"myejbclient/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.WithPrefix(logger, "ts", log.DefaultTimestampUTC)
	logger = log.WithPrefix(logger, "caller", log.DefaultCaller)

	cfg, err := LoadConfig()
	if err != nil {
		level.Error(logger).Log("msg", "failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger = log.With(logger, "node", cfg.Node.Name)
	level.Info(logger).Log(
		"msg", "configuration loaded",
		"service_port_grpc", cfg.GRPCPort,
		"service_port_http", cfg.HTTPPort,
		"cluster", cfg.Cluster.Name,
		"module", cfg.Module.String(),
	)

	clock := service.NewTimeProvider(func() time.Time { return time.Now().UTC() })
	modules := service.NewModuleAvailabilityRegistry(logger)
	repo := service.NewDeploymentRepository(cfg.Node.Name, modules)
	for _, b := range builtinBeans(cfg.Node.Name, logger) {
		repo.Deploy(cfg.Module, b)
	}
	clusters := service.NewClusterRegistry(logger)
	if cfg.Cluster.Name != "" {
		clusters.AddCluster(cfg.Cluster)
	}
	handler := service.NewInvocationHandler(cfg.Cluster.Name, repo, clusters, service.GoExecutor{}, clock, logger)
	nodeServer := grpcnode.NewServer(handler, clusters, modules, logger)
	srv, healthServer := newGRPCServer(nodeServer, logger)

	lis, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.GRPCPort))
	if err != nil {
		level.Error(logger).Log("msg", "listen", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		level.Info(logger).Log("msg", "serving node protocol", "port", cfg.GRPCPort)
		return srv.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		level.Info(logger).Log("msg", "shutting down")
		healthServer.Shutdown()
		nodeServer.Close()
		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(cfg.ShutdownTimeout):
			srv.Stop()
		}
		return nil
	})

	if cfg.HTTPPort > 0 {
		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		admin.NewHTTPServer(cfg.Node, clusters, modules, clock, logger).RegisterHandlers(e)
		g.Go(func() error {
			addr := ":" + strconv.Itoa(cfg.HTTPPort)
			level.Info(logger).Log("msg", "serving admin API", "addr", addr)
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		})
	}

	if cfg.RedisAddr != "" {
		redisClient, err := myredis.NewRedisUniversalClient(cfg.RedisAddr)
		if err != nil {
			level.Error(logger).Log("msg", "failed to create redis client", "err", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		announcer := service.NewAnnouncer(myredis.NewInstanceCache(redisClient), cfg.Node, cfg.AnnounceTTL, clock, logger)
		g.Go(func() error { return announcer.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		level.Error(logger).Log("msg", "node stopped with error", "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log("msg", "node stopped")
}
