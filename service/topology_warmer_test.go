package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"myejbclient/domain"
	"myejbclient/interfaces"
	"myejbclient/interfaces/mock"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// watchingConn returns a connection whose Watch runs push once and then blocks until ctx is done.
func watchingConn(name string, push func(interfaces.TopologyListener, interfaces.ModuleAvailabilityListener)) *mock.ConnectionMock {
	conn := newMockConn(name)
	conn.WatchFunc = func(ctx context.Context, topology interfaces.TopologyListener, modules interfaces.ModuleAvailabilityListener) error {
		if push != nil {
			push(topology, modules)
		}
		<-ctx.Done()
		return ctx.Err()
	}
	return conn
}

type warmerFixture struct {
	pool      *mock.ConnectionPoolMock
	clusters  *ClusterRegistry
	modules   *ModuleAvailabilityRegistry
	directory *NodeDirectory
	warmer    *TopologyWarmer
}

func newWarmerFixture(t *testing.T, conns map[string]*mock.ConnectionMock, configured ...domain.NodeInfo) *warmerFixture {
	t.Helper()
	f := &warmerFixture{
		clusters:  NewClusterRegistry(log.NewNopLogger()),
		modules:   NewModuleAvailabilityRegistry(log.NewNopLogger()),
		directory: NewNodeDirectory(configured...),
	}
	f.pool = &mock.ConnectionPoolMock{
		GetFunc: func(ctx context.Context, c domain.Candidate) (interfaces.Connection, error) {
			if conn, ok := conns[c.Node.Name]; ok {
				return conn, nil
			}
			return nil, errors.New("connection refused")
		},
	}
	f.warmer = NewTopologyWarmer(f.pool, f.clusters, f.directory,
		NewTopologyApplier(f.clusters), NewModuleAvailabilityApplier(f.modules),
		nil, time.Second, 10*time.Millisecond, log.NewNopLogger())
	t.Cleanup(f.warmer.Stop)
	return f
}

func TestNewTopologyWarmer_Panics(t *testing.T) {
	pool := &mock.ConnectionPoolMock{}
	clusters := NewClusterRegistry(log.NewNopLogger())
	dir := NewNodeDirectory()
	topo := &mock.TopologyListenerMock{}
	mods := &mock.ModuleAvailabilityListenerMock{}
	l := log.NewNopLogger()
	assert.PanicsWithValue(t, "service.topology_warmer.go: pool is required", func() {
		NewTopologyWarmer(nil, clusters, dir, topo, mods, nil, time.Second, time.Second, l)
	})
	assert.PanicsWithValue(t, "service.topology_warmer.go: connect timeout must be positive", func() {
		NewTopologyWarmer(pool, clusters, dir, topo, mods, nil, 0, time.Second, l)
	})
	assert.PanicsWithValue(t, "service.topology_warmer.go: retry interval must be positive", func() {
		NewTopologyWarmer(pool, clusters, dir, topo, mods, nil, time.Second, -time.Second, l)
	})
	assert.PanicsWithValue(t, "service.topology_warmer.go: logger is required", func() {
		NewTopologyWarmer(pool, clusters, dir, topo, mods, nil, time.Second, time.Second, nil)
	})
}

func TestTopologyWarmer_WatchesConfiguredAndLearnedNodes(t *testing.T) {
	conns := map[string]*mock.ConnectionMock{
		"n1": watchingConn("n1", func(tl interfaces.TopologyListener, ml interfaces.ModuleAvailabilityListener) {
			tl.ClusterTopology([]domain.ClusterInfo{cluster("ejb", node("n1", 1), node("n2", 2))})
			ml.ModuleAvailable("n1", []domain.ModuleIdentifier{testModule})
		}),
		"n2": watchingConn("n2", func(tl interfaces.TopologyListener, ml interfaces.ModuleAvailabilityListener) {
			ml.ModuleAvailable("n2", []domain.ModuleIdentifier{testModule})
		}),
	}
	f := newWarmerFixture(t, conns, node("n1", 1))
	f.warmer.Start(context.Background())

	require.Eventually(t, func() bool {
		return len(f.modules.NodesHosting(echoBean)) == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"n1", "n2"}, f.warmer.Watching())
	assert.True(t, f.clusters.IsClusterMember("ejb", "n2"))
	assert.False(t, f.warmer.Track(node("n1", 1)), "already watched")
}

func TestTopologyWarmer_RetriesBrokenStream(t *testing.T) {
	var watches atomic.Int32
	conn := newMockConn("n1")
	conn.WatchFunc = func(ctx context.Context, _ interfaces.TopologyListener, _ interfaces.ModuleAvailabilityListener) error {
		if watches.Add(1) == 1 {
			return errors.New("stream reset")
		}
		<-ctx.Done()
		return ctx.Err()
	}
	f := newWarmerFixture(t, map[string]*mock.ConnectionMock{"n1": conn}, node("n1", 1))
	f.warmer.Start(context.Background())

	require.Eventually(t, func() bool { return watches.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	require.Len(t, f.pool.OnNodeFailureCalls(), 1)
	assert.Equal(t, "n1", f.pool.OnNodeFailureCalls()[0].Node)
}

func TestTopologyWarmer_ReconnectStartsFromFreshModules(t *testing.T) {
	var watches atomic.Int32
	conn := newMockConn("n1")
	conn.WatchFunc = func(ctx context.Context, _ interfaces.TopologyListener, modules interfaces.ModuleAvailabilityListener) error {
		if watches.Add(1) == 1 {
			modules.ModuleAvailable("n1", []domain.ModuleIdentifier{testModule, otherModule})
			return errors.New("stream reset")
		}
		// otherModule was undeployed while the stream was down
		modules.ModuleAvailable("n1", []domain.ModuleIdentifier{testModule})
		<-ctx.Done()
		return ctx.Err()
	}
	f := newWarmerFixture(t, map[string]*mock.ConnectionMock{"n1": conn}, node("n1", 1))
	f.warmer.Start(context.Background())

	require.Eventually(t, func() bool { return watches.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(f.modules.NodesHosting(echoBean)) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, f.modules.NodesHosting(domain.BeanIdentifier{Module: otherModule, BeanName: "Other"}))
	snapshot := f.modules.Snapshot()
	require.Len(t, snapshot, 1)
	require.Len(t, snapshot[0].Deployments, 1)
	assert.Equal(t, testModule, snapshot[0].Deployments[0].Module)
}

func TestTopologyWarmer_UntrackForgetsModules(t *testing.T) {
	push := func(name string) func(interfaces.TopologyListener, interfaces.ModuleAvailabilityListener) {
		return func(_ interfaces.TopologyListener, modules interfaces.ModuleAvailabilityListener) {
			modules.ModuleAvailable(name, []domain.ModuleIdentifier{testModule})
		}
	}
	conns := map[string]*mock.ConnectionMock{
		"n1": watchingConn("n1", push("n1")),
		"n2": watchingConn("n2", push("n2")),
	}
	f := newWarmerFixture(t, conns, node("n1", 1))
	f.warmer.Start(context.Background())
	f.clusters.AddCluster(cluster("ejb", node("n1", 1), node("n2", 2)))
	require.Eventually(t, func() bool { return len(f.modules.NodesHosting(echoBean)) == 2 }, 2*time.Second, 5*time.Millisecond)

	f.clusters.RemoveClusterNodes(domain.ClusterRemovalInfo{Name: "ejb", NodeNames: []string{"n2"}})
	require.Eventually(t, func() bool { return len(f.modules.NodesHosting(echoBean)) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"n1"}, f.modules.NodesHosting(echoBean))
}

func TestTopologyWarmer_RetriesFailedConnect(t *testing.T) {
	f := newWarmerFixture(t, nil, node("n1", 1))
	f.warmer.Start(context.Background())
	require.Eventually(t, func() bool { return len(f.pool.GetCalls()) >= 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, f.pool.OnNodeFailureCalls())
}

func TestTopologyWarmer_StopsWatchingNodeThatLeftTopology(t *testing.T) {
	conns := map[string]*mock.ConnectionMock{
		"n1": watchingConn("n1", nil),
		"n2": watchingConn("n2", nil),
	}
	f := newWarmerFixture(t, conns, node("n1", 1))
	f.warmer.Start(context.Background())
	f.clusters.AddCluster(cluster("ejb", node("n1", 1), node("n2", 2)))
	require.Equal(t, []string{"n1", "n2"}, f.warmer.Watching())

	f.clusters.RemoveClusterNodes(domain.ClusterRemovalInfo{Name: "ejb", NodeNames: []string{"n1", "n2"}})
	assert.Equal(t, []string{"n1"}, f.warmer.Watching(), "configured connection stays watched")
}

func TestTopologyWarmer_TrackBeforeStartAndAfterStop(t *testing.T) {
	f := newWarmerFixture(t, map[string]*mock.ConnectionMock{"n1": watchingConn("n1", nil)})
	assert.False(t, f.warmer.Track(node("n1", 1)))
	f.warmer.Start(context.Background())
	assert.True(t, f.warmer.Track(node("n1", 1)))
	f.warmer.Stop()
	assert.Empty(t, f.warmer.Watching())
	assert.False(t, f.warmer.Track(node("n1", 1)))
	f.warmer.Stop()
}

func TestTopologyWarmer_SkipsNodeWithoutApplicableMapping(t *testing.T) {
	f := newWarmerFixture(t, nil)
	f.warmer.Start(context.Background())
	constrained := domain.NodeInfo{Name: "n9", Mappings: []domain.MappingInfo{{DestHost: "10.0.0.9", DestPort: 1, SourceIP: []byte{10, 0, 0, 0}, NetmaskBits: 8}}}
	assert.False(t, f.warmer.Track(constrained))
	assert.Empty(t, f.pool.GetCalls())
}
