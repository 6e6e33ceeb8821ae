package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"myejbclient/domain"
	"myejbclient/helpers"
	"myejbclient/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// DefaultWatchRetryInterval is the pause before re-watching a node whose stream broke.
const DefaultWatchRetryInterval = 2 * time.Second

// ClientConfig configures a ClientContext. A zero Discovery means the default budgets.
// LocalIP selects node mappings (nil: unconstrained mappings only). RefreshInterval re-polls node
// sources for new configured connections (0 polls only at Start). Executor runs invocations
// (nil: GoExecutor).
type ClientConfig struct {
	Discovery          domain.DiscoveryConfig
	LocalIP            net.IP
	WatchRetryInterval time.Duration
	RefreshInterval    time.Duration
	Executor           interfaces.Executor
}

// DefaultClientConfig returns default budgets with a 2s watch retry and no source refresh.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Discovery:          domain.DefaultDiscoveryConfig(),
		WatchRetryInterval: DefaultWatchRetryInterval,
	}
}

// ClientContext is the client endpoint: it owns the cluster and module registries, the connection
// pool, discovery and dispatch. Everything that would otherwise be process-wide lives here, so
// several independent clients can coexist in one process.
type ClientContext struct {
	cfg        ClientConfig
	sources    []interfaces.NodeSource
	clusters   *ClusterRegistry
	modules    *ModuleAvailabilityRegistry
	directory  *NodeDirectory
	sessions   *SessionStore
	pool       interfaces.ConnectionPool
	dispatcher *invocationDispatcher
	warmer     *TopologyWarmer
	logger     log.Logger

	mu      sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewClientContext wires the routing core. Panics on nil connector or logger and on invalid budgets.
//
// Parameters: cfg: budgets and local address; connector: node transport (adapters/grpcnode.Connector in prod);
// sources: configured connections (static YAML, HTTP discoverer, redis); may be empty when nodes are learned later.
//
// Returns: *ClientContext, not started.
//
// Called from cmd/client and adapter integration tests.
func NewClientContext(cfg ClientConfig, connector interfaces.Connector, sources []interfaces.NodeSource, logger log.Logger) *ClientContext {
	logger = helpers.NilPanic(logger, "service.client_context.go: logger is required")
	if cfg.Discovery == (domain.DiscoveryConfig{}) {
		cfg.Discovery = domain.DefaultDiscoveryConfig()
	}
	if cfg.WatchRetryInterval == 0 {
		cfg.WatchRetryInterval = DefaultWatchRetryInterval
	}
	if cfg.Executor == nil {
		cfg.Executor = GoExecutor{}
	}
	for i, s := range sources {
		helpers.NilPanic(s, fmt.Sprintf("service.client_context.go: source %d is nil", i))
	}

	clusters := NewClusterRegistry(logger)
	modules := NewModuleAvailabilityRegistry(logger)
	directory := NewNodeDirectory()
	sessions := NewSessionStore()
	pool := NewConnectionPool(connector, logger)
	resolver := NewAffinityResolver(clusters, modules, directory, sessions, cfg.LocalIP, logger)
	coordinator := NewDiscoveryCoordinator(pool, cfg.Discovery, logger)

	return &ClientContext{
		cfg:        cfg,
		sources:    sources,
		clusters:   clusters,
		modules:    modules,
		directory:  directory,
		sessions:   sessions,
		pool:       pool,
		dispatcher: NewInvocationDispatcher(resolver, coordinator, pool, sessions, cfg.Executor, cfg.Discovery, logger),
		warmer: NewTopologyWarmer(pool, clusters, directory,
			NewTopologyApplier(clusters), NewModuleAvailabilityApplier(modules),
			cfg.LocalIP, cfg.Discovery.ConnectTimeout, cfg.WatchRetryInterval, logger),
		logger: log.With(logger, "component", "client_context"),
	}
}

// Start loads the configured connections and opens a watch stream to each of them.
// A failing source is logged and skipped.
//
// Parameter ctx: bounds source loading only; streams live until Close.
//
// Returns: nil; ErrClientClosed after Close; an error joining every source failure when sources were given and none of them succeeded.
//
// Called from cmd/client after construction.
func (c *ClientContext) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.mu.Unlock()

	_, err := c.Refresh(ctx)
	c.warmer.Start(runCtx)
	if c.cfg.RefreshInterval > 0 {
		c.wg.Add(1)
		go c.refreshLoop(runCtx)
	}
	return err
}

// Refresh polls every node source once, merging new nodes and watching the fresh ones.
//
// Returns: names of nodes that were not configured before; an error joining every source failure when
// sources were given and none of them succeeded.
func (c *ClientContext) Refresh(ctx context.Context) ([]string, error) {
	var errs []error
	var fresh []string
	for _, src := range c.sources {
		nodes, err := src.GetNodes(ctx)
		if err != nil {
			level.Warn(c.logger).Log("msg", "node source failed", "err", err)
			errs = append(errs, err)
			continue
		}
		for _, name := range c.directory.Merge(nodes) {
			fresh = append(fresh, name)
			if n, ok := c.directory.Get(name); ok {
				c.warmer.Track(n)
			}
		}
	}
	if len(fresh) > 0 {
		level.Info(c.logger).Log("msg", "configured connections added", "nodes", fmt.Sprint(fresh))
	}
	if len(errs) > 0 && len(errs) == len(c.sources) {
		return fresh, fmt.Errorf("every node source failed: %w", errors.Join(errs...))
	}
	return fresh, nil
}

func (c *ClientContext) refreshLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = c.Refresh(ctx)
		}
	}
}

// CreateInvocation dispatches req.
//
// Returns: a CancelHandle and a channel receiving exactly one Outcome; after Close the outcome is an exception with ErrClientClosed.
func (c *ClientContext) CreateInvocation(ctx context.Context, req domain.InvocationRequest) (interfaces.CancelHandle, <-chan domain.Outcome) {
	if c.isClosed() {
		inv := newInvocation(req, func() {})
		inv.complete(failed(ErrClientClosed, ""))
		return inv, inv.outcome
	}
	return c.dispatcher.Dispatch(ctx, req)
}

// Invoke dispatches req and waits for its outcome.
//
// Called from cmd/client.
func (c *ClientContext) Invoke(ctx context.Context, req domain.InvocationRequest) domain.Outcome {
	_, done := c.CreateInvocation(ctx, req)
	return <-done
}

// OpenSession opens a session on bean under affinity.
func (c *ClientContext) OpenSession(ctx context.Context, bean domain.BeanIdentifier, affinity domain.Affinity) (domain.Session, error) {
	if c.isClosed() {
		return domain.Session{}, ErrClientClosed
	}
	return c.dispatcher.OpenSession(ctx, bean, affinity)
}

// Session returns a session opened or converted through this client.
func (c *ClientContext) Session(id domain.SessionID) (domain.Session, bool) {
	return c.sessions.Get(id)
}

// RegisterTopologyListener subscribes l to the client's cluster registry; the current topology is delivered first when non-empty.
func (c *ClientContext) RegisterTopologyListener(l interfaces.TopologyListener) interfaces.ListenerHandle {
	return c.clusters.AddListener(l)
}

// RegisterModuleAvailabilityListener subscribes l to module availability; every node's current modules are delivered first.
func (c *ClientContext) RegisterModuleAvailabilityListener(l interfaces.ModuleAvailabilityListener) interfaces.ListenerHandle {
	return c.modules.AddListener(l)
}

// Unregister removes a listener registered through this client. Nil is ignored.
func (c *ClientContext) Unregister(h interfaces.ListenerHandle) {
	if h != nil {
		h.Close()
	}
}

// Topology returns a copy of the client's cluster view.
func (c *ClientContext) Topology() domain.Topology {
	return c.clusters.Snapshot()
}

// Deployments returns the client's module availability view per node.
func (c *ClientContext) Deployments() []domain.NodeDeployments {
	return c.modules.Snapshot()
}

// ConfiguredNodes returns the configured connections in configuration order.
func (c *ClientContext) ConfiguredNodes() []domain.NodeInfo {
	return c.directory.Nodes()
}

// Watching returns the names of nodes with an active watch loop.
func (c *ClientContext) Watching() []string {
	return c.warmer.Watching()
}

// Close stops every watch stream and closes pooled connections. Idempotent.
func (c *ClientContext) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.warmer.Stop()
	c.wg.Wait()
	err := c.pool.Close()
	level.Info(c.logger).Log("msg", "client context closed")
	return err
}

func (c *ClientContext) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
