package service

import (
	"context"
	"net"
	"slices"
	"sync"
	"time"

	"myejbclient/domain"
	"myejbclient/helpers"
	"myejbclient/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// TopologyWarmer keeps one watch stream open per known node: every configured connection plus
// every cluster member learned from topology. Each stream feeds the node's pushed topology and
// module availability into the client's registries. When a stream ends the node's modules are
// forgotten (if the module listener is a nodeForgetter) so a reconnect starts from the node's
// fresh snapshot. A broken stream drops the node's pooled connection and is retried after the
// retry interval; a node that leaves every cluster and is not a configured connection stops
// being watched.
//
// It is itself a TopologyListener on the ClusterRegistry it feeds, which is how learned members
// start being watched.
type TopologyWarmer struct {
	pool           interfaces.ConnectionPool
	clusters       *ClusterRegistry
	directory      *NodeDirectory
	topology       interfaces.TopologyListener
	modules        interfaces.ModuleAvailabilityListener
	localIP        net.IP
	connectTimeout time.Duration
	retryInterval  time.Duration
	logger         log.Logger

	mu       sync.Mutex
	ctx      context.Context
	stop     context.CancelFunc
	handle   interfaces.ListenerHandle
	watching map[string]context.CancelFunc
	wg       sync.WaitGroup
}

var _ interfaces.TopologyListener = (*TopologyWarmer)(nil)

// nodeForgetter is implemented by module listeners that can drop one node's state.
type nodeForgetter interface {
	ForgetNode(node string)
}

var _ nodeForgetter = (*ModuleAvailabilityApplier)(nil)

// NewTopologyWarmer creates a stopped warmer. Panics on nil dependencies or non-positive durations.
//
// Parameters: topology, modules: receive every pushed event (TopologyApplier and ModuleAvailabilityApplier in prod);
// localIP: selects node mappings (nil: unconstrained mappings only); connectTimeout: bounds each connection attempt;
// retryInterval: pause before re-watching a node whose stream broke.
//
// Called from service.NewClientContext.
func NewTopologyWarmer(
	pool interfaces.ConnectionPool,
	clusters *ClusterRegistry,
	directory *NodeDirectory,
	topology interfaces.TopologyListener,
	modules interfaces.ModuleAvailabilityListener,
	localIP net.IP,
	connectTimeout time.Duration,
	retryInterval time.Duration,
	logger log.Logger,
) *TopologyWarmer {
	return &TopologyWarmer{
		pool:           helpers.NilPanic(pool, "service.topology_warmer.go: pool is required"),
		clusters:       helpers.NilPanic(clusters, "service.topology_warmer.go: clusters is required"),
		directory:      helpers.NilPanic(directory, "service.topology_warmer.go: directory is required"),
		topology:       helpers.NilPanic(topology, "service.topology_warmer.go: topology listener is required"),
		modules:        helpers.NilPanic(modules, "service.topology_warmer.go: module listener is required"),
		localIP:        localIP,
		connectTimeout: helpers.DurationPanic(connectTimeout, "service.topology_warmer.go: connect timeout must be positive"),
		retryInterval:  helpers.DurationPanic(retryInterval, "service.topology_warmer.go: retry interval must be positive"),
		logger:         log.With(helpers.NilPanic(logger, "service.topology_warmer.go: logger is required"), "component", "topology_warmer"),
		watching:       make(map[string]context.CancelFunc),
	}
}

// Start watches every configured node and subscribes to cluster membership. Later calls do nothing.
//
// Parameter ctx: lifetime of all watch streams; Stop ends them earlier.
//
// Called from ClientContext.Start.
func (w *TopologyWarmer) Start(ctx context.Context) {
	w.mu.Lock()
	if w.ctx != nil {
		w.mu.Unlock()
		return
	}
	w.ctx, w.stop = context.WithCancel(ctx)
	w.mu.Unlock()

	for _, n := range w.directory.Nodes() {
		w.Track(n)
	}
	handle := w.clusters.AddListener(w)
	w.mu.Lock()
	w.handle = handle
	w.mu.Unlock()
}

// Track starts watching node unless it is already watched.
//
// Returns: true when a new watch loop was started; false when already watched, not started, stopped,
// or no mapping of node applies to the local address.
//
// Called from Start, cluster events and ClientContext.Refresh for freshly discovered nodes.
func (w *TopologyWarmer) Track(node domain.NodeInfo) bool {
	mapping, ok := node.MappingFor(w.localIP)
	if !ok {
		level.Debug(w.logger).Log("msg", "no applicable mapping, not watching", "node", node.Name)
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx == nil || w.ctx.Err() != nil {
		return false
	}
	if _, ok := w.watching[node.Name]; ok {
		return false
	}
	wctx, cancel := context.WithCancel(w.ctx)
	w.watching[node.Name] = cancel
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.watch(wctx, domain.Candidate{Node: node.Clone(), Mapping: mapping})
	}()
	return true
}

// Untrack stops watching node. Returns false when it was not watched.
func (w *TopologyWarmer) Untrack(node string) bool {
	w.mu.Lock()
	cancel, ok := w.watching[node]
	delete(w.watching, node)
	w.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Watching returns the names of watched nodes, sorted.
func (w *TopologyWarmer) Watching() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.watching))
	for name := range w.watching {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Stop ends every watch stream and waits for the loops to exit. Safe to call more than once.
//
// Called from ClientContext.Close.
func (w *TopologyWarmer) Stop() {
	w.mu.Lock()
	stop, handle := w.stop, w.handle
	w.handle = nil
	clear(w.watching)
	w.mu.Unlock()
	if handle != nil {
		handle.Close()
	}
	if stop != nil {
		stop()
	}
	w.wg.Wait()
}

func (w *TopologyWarmer) watch(ctx context.Context, c domain.Candidate) {
	logger := log.With(w.logger, "node", c.Node.Name, "address", c.Mapping.Address())
	for {
		actx, cancel := context.WithTimeout(ctx, w.connectTimeout)
		conn, err := w.pool.Get(actx, c)
		cancel()
		if err == nil {
			level.Debug(logger).Log("msg", "watching node")
			err = conn.Watch(ctx, w.topology, w.modules)
			w.forgetModules(c.Node.Name)
			if ctx.Err() == nil {
				w.pool.OnNodeFailure(c.Node.Name)
			}
		}
		if ctx.Err() != nil {
			return
		}
		level.Info(logger).Log("msg", "node watch failed, retrying", "err", err, "retry_in", w.retryInterval)
		timer := time.NewTimer(w.retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// forgetModules drops what node reported; nothing is known about it until it is watched again.
func (w *TopologyWarmer) forgetModules(node string) {
	if f, ok := w.modules.(nodeForgetter); ok {
		f.ForgetNode(node)
		level.Debug(w.logger).Log("msg", "node watch ended, modules forgotten", "node", node)
	}
}

// ClusterTopology watches every member of the reported clusters.
func (w *TopologyWarmer) ClusterTopology(clusters []domain.ClusterInfo) {
	for _, c := range clusters {
		for _, n := range c.Nodes {
			w.Track(n)
		}
	}
}

// ClusterNewNodesAdded watches the added members.
func (w *TopologyWarmer) ClusterNewNodesAdded(delta domain.ClusterInfo) {
	for _, n := range delta.Nodes {
		w.Track(n)
	}
}

// ClusterRemoval stops watching members that are no longer known anywhere.
func (w *TopologyWarmer) ClusterRemoval(names []string) {
	w.forgetUnknown()
}

// ClusterNodesRemoved stops watching removed members that are no longer known anywhere.
func (w *TopologyWarmer) ClusterNodesRemoved(removals []domain.ClusterRemovalInfo) {
	w.forgetUnknown()
}

func (w *TopologyWarmer) forgetUnknown() {
	for _, name := range w.Watching() {
		if _, ok := w.directory.Get(name); ok {
			continue
		}
		if _, ok := w.clusters.FindNode(name); ok {
			continue
		}
		if w.Untrack(name) {
			level.Debug(w.logger).Log("msg", "node left topology, watch stopped", "node", name)
		}
	}
}
