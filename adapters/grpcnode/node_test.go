package grpcnode

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"myejbclient/domain"
	"myejbclient/interfaces"
	"myejbclient/service"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

var counterBean = domain.BeanIdentifier{Module: testModule, BeanName: "Counter"}

// beanLog records what the beans of every test node observed. Counter state is kept per node and
// session, so a call served by the wrong node starts counting again from 1.
type beanLog struct {
	fired       chan any
	started     chan string
	interrupted chan string

	mu     sync.Mutex
	counts map[string]map[domain.SessionID]int
}

func newBeanLog() *beanLog {
	return &beanLog{
		fired:       make(chan any, 8),
		started:     make(chan string, 8),
		interrupted: make(chan string, 8),
		counts:      make(map[string]map[domain.SessionID]int),
	}
}

func (p *beanLog) next(node string, id domain.SessionID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.counts[node] == nil {
		p.counts[node] = make(map[domain.SessionID]int)
	}
	p.counts[node][id]++
	return p.counts[node][id]
}

func testBeans(node string, p *beanLog) []service.Bean {
	return []service.Bean{
		{
			Name: "Echo",
			Methods: map[string]service.Method{
				"echo(string)": {Func: func(_ context.Context, _ domain.SessionID, params []any) (any, error) {
					return node + ":" + params[0].(string), nil
				}},
				"fire(string)": {OneWay: true, Func: func(_ context.Context, _ domain.SessionID, params []any) (any, error) {
					p.fired <- params[0]
					return nil, nil
				}},
				"block()": {Func: func(ctx context.Context, _ domain.SessionID, _ []any) (any, error) {
					p.started <- node
					<-ctx.Done()
					p.interrupted <- node
					return nil, ctx.Err()
				}},
				"fail()": {Func: func(context.Context, domain.SessionID, []any) (any, error) {
					return nil, errors.New("counter overflow")
				}},
			},
		},
		{
			Name:     "Counter",
			Stateful: true,
			Methods: map[string]service.Method{
				"next()": {Func: func(_ context.Context, session domain.SessionID, _ []any) (any, error) {
					return p.next(node, session), nil
				}},
			},
		},
	}
}

type testNode struct {
	name     string
	addr     string
	info     domain.NodeInfo
	srv      *Server
	gs       *grpc.Server
	stopOnce sync.Once
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return lis
}

func nodeInfo(name string, lis net.Listener) domain.NodeInfo {
	port := lis.Addr().(*net.TCPAddr).Port
	return domain.NodeInfo{Name: name, Mappings: []domain.MappingInfo{{DestHost: "127.0.0.1", DestPort: port}}}
}

// startNode serves the test beans of name on lis as a member of cluster "ejb" with the given members.
func startNode(t *testing.T, name string, lis net.Listener, p *beanLog, members ...domain.NodeInfo) *testNode {
	t.Helper()
	logger := log.NewNopLogger()
	modules := service.NewModuleAvailabilityRegistry(logger)
	repo := service.NewDeploymentRepository(name, modules)
	for _, b := range testBeans(name, p) {
		repo.Deploy(testModule, b)
	}
	clusters := service.NewClusterRegistry(logger)
	clusters.AddCluster(domain.ClusterInfo{Name: "ejb", Nodes: members})
	clock := service.NewTimeProvider(func() time.Time { return time.Now().UTC() })
	handler := service.NewInvocationHandler("ejb", repo, clusters, service.GoExecutor{}, clock, logger)

	srv := NewServer(handler, clusters, modules, logger)
	gs := grpc.NewServer(grpc.ChainStreamInterceptor(service.NodeErrorToGRPCStreamInterceptor(logger)))
	srv.Register(gs)
	go func() { _ = gs.Serve(lis) }()

	n := &testNode{name: name, addr: lis.Addr().String(), info: nodeInfo(name, lis), srv: srv, gs: gs}
	t.Cleanup(n.stop)
	return n
}

func (n *testNode) stop() {
	n.stopOnce.Do(func() {
		n.srv.Close()
		n.gs.Stop()
	})
}

// startCluster starts two nodes n1 and n2 that both list n1, n2 as members of "ejb".
func startCluster(t *testing.T, p *beanLog) (*testNode, *testNode) {
	t.Helper()
	l1, l2 := listen(t), listen(t)
	members := []domain.NodeInfo{nodeInfo("n1", l1), nodeInfo("n2", l2)}
	return startNode(t, "n1", l1, p, members...), startNode(t, "n2", l2, p, members...)
}

func testDiscovery() domain.DiscoveryConfig {
	return domain.DiscoveryConfig{
		Timeout:               5 * time.Second,
		AdditionalNodeTimeout: 300 * time.Millisecond,
		ConnectTimeout:        3 * time.Second,
	}
}

// newClient starts a client context configured with the given nodes and waits until it knows the
// modules of wantNodes nodes.
func newClient(t *testing.T, wantNodes int, configured ...domain.NodeInfo) *service.ClientContext {
	t.Helper()
	c := service.NewClientContext(service.ClientConfig{
		Discovery:          testDiscovery(),
		WatchRetryInterval: 50 * time.Millisecond,
	}, NewConnector("test-client", log.NewNopLogger()), []interfaces.NodeSource{service.NewStaticNodeSource(configured)}, log.NewNopLogger())
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	require.Eventually(t, func() bool { return len(c.Deployments()) == wantNodes }, 5*time.Second, 10*time.Millisecond)
	return c
}

func echo(affinity domain.Affinity, arg string) domain.InvocationRequest {
	return domain.InvocationRequest{
		Bean:     echoBean,
		Method:   domain.MethodLocator{Name: "echo", ParamTypes: []string{"string"}},
		Affinity: affinity,
		Params:   []any{arg},
	}
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting")
		var zero T
		return zero
	}
}
