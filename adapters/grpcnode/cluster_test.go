package grpcnode

import (
	"context"
	"net"
	"testing"
	"time"

	"myejbclient/domain"
	"myejbclient/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCluster_LearnsMembersFromConfiguredNode(t *testing.T) {
	n1, _ := startCluster(t, newBeanLog())
	c := newClient(t, 2, n1.info)

	ejb, ok := c.Topology().Cluster("ejb")
	require.True(t, ok)
	assert.Equal(t, []string{"n1", "n2"}, ejb.NodeNames())
	assert.Equal(t, []string{"n1", "n2"}, c.Watching())
}

func TestCluster_AffinityRouting(t *testing.T) {
	n1, _ := startCluster(t, newBeanLog())
	c := newClient(t, 2, n1.info)

	tests := []struct {
		name     string
		affinity domain.Affinity
		want     string
	}{
		{name: "cluster_lowest_index", affinity: domain.ClusterAffinity("ejb"), want: "n1:hi"},
		{name: "node_n2", affinity: domain.NodeAffinity("n2"), want: "n2:hi"},
		{name: "node_n1", affinity: domain.NodeAffinity("n1"), want: "n1:hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := c.Invoke(context.Background(), echo(tt.affinity, "hi"))
			require.NoError(t, out.Err)
			assert.Equal(t, domain.OutcomeResult, out.Kind)
			assert.Equal(t, tt.want, out.Value)
		})
	}

	out := c.Invoke(context.Background(), echo(domain.NodeAffinity("n9"), "hi"))
	assert.ErrorIs(t, out.Err, service.ErrNoSuchDeployment)
}

func TestCluster_RemoteErrors(t *testing.T) {
	n1, _ := startCluster(t, newBeanLog())
	c := newClient(t, 2, n1.info)

	out := c.Invoke(context.Background(), domain.InvocationRequest{Bean: echoBean, Method: domain.MethodLocator{Name: "fail"}, Affinity: domain.NodeAffinity("n1")})
	var remote *service.RemoteInvocationError
	require.ErrorAs(t, out.Err, &remote)
	assert.Equal(t, "counter overflow", remote.Message)
	assert.Equal(t, "n1", out.Node)

	out = c.Invoke(context.Background(), domain.InvocationRequest{Bean: echoBean, Method: domain.MethodLocator{Name: "missing"}, Affinity: domain.NodeAffinity("n1")})
	assert.ErrorIs(t, out.Err, service.ErrNoSuchMethod)

	out = c.Invoke(context.Background(), domain.InvocationRequest{Bean: domain.BeanIdentifier{Module: testModule, BeanName: "Ghost"}, Method: domain.MethodLocator{Name: "x"}, Affinity: domain.NodeAffinity("n1")})
	assert.ErrorIs(t, out.Err, service.ErrNoSuchDeployment)
}

func TestCluster_StatefulConversionKeepsClusterAffinity(t *testing.T) {
	n1, _ := startCluster(t, newBeanLog())
	c := newClient(t, 2, n1.info)
	next := domain.InvocationRequest{Bean: counterBean, Method: domain.MethodLocator{Name: "next"}}

	first := c.Invoke(context.Background(), next)
	require.NoError(t, first.Err)
	require.NotNil(t, first.Session)
	assert.Equal(t, float64(1), first.Value)
	assert.Equal(t, domain.ClusterAffinity("ejb"), first.Session.Affinity.Target())
	stored, ok := c.Session(first.Session.ID)
	require.True(t, ok)
	assert.False(t, stored.CreatedAt.IsZero())

	next.Affinity = first.Session.Affinity
	for want := 2; want <= 4; want++ {
		out := c.Invoke(context.Background(), next)
		require.NoError(t, out.Err)
		assert.Equal(t, float64(want), out.Value)
		assert.Equal(t, first.Node, out.Node, "session calls stay on the node holding the state")
		assert.Nil(t, out.Session)
	}
}

func TestCluster_SessionStaysOnCreatingNode(t *testing.T) {
	n1, _ := startCluster(t, newBeanLog())
	c := newClient(t, 2, n1.info)

	// n2 is second in membership and registration order, so only the session can keep calls there.
	first := c.Invoke(context.Background(), domain.InvocationRequest{Bean: counterBean, Method: domain.MethodLocator{Name: "next"}, Affinity: domain.NodeAffinity("n2")})
	require.NoError(t, first.Err)
	require.NotNil(t, first.Session)
	assert.Equal(t, "n2", first.Node)
	assert.Equal(t, "n2", first.Session.Node)
	assert.Equal(t, domain.ClusterAffinity("ejb"), first.Session.Affinity.Target())

	next := domain.InvocationRequest{Bean: counterBean, Method: domain.MethodLocator{Name: "next"}, Affinity: first.Session.Affinity}
	for want := 2; want <= 4; want++ {
		out := c.Invoke(context.Background(), next)
		require.NoError(t, out.Err)
		assert.Equal(t, "n2", out.Node)
		assert.Equal(t, float64(want), out.Value)
	}
}

func TestCluster_SessionFallsBackWhenCreatingNodeStops(t *testing.T) {
	n1, n2 := startCluster(t, newBeanLog())
	c := newClient(t, 2, n1.info)

	s, err := c.OpenSession(context.Background(), counterBean, domain.NodeAffinity("n2"))
	require.NoError(t, err)
	require.Equal(t, "n2", s.Node)
	next := domain.InvocationRequest{Bean: counterBean, Method: domain.MethodLocator{Name: "next"}, Affinity: s.Affinity}
	out := c.Invoke(context.Background(), next)
	require.NoError(t, out.Err)
	assert.Equal(t, "n2", out.Node)

	n2.stop()
	require.Eventually(t, func() bool { return len(c.Deployments()) == 1 }, 5*time.Second, 10*time.Millisecond,
		"the client forgets the modules of a node whose watch ended")
	out = c.Invoke(context.Background(), next)
	require.NoError(t, out.Err)
	assert.Equal(t, "n1", out.Node, "another cluster member serves while the creating node is gone")
}

func TestCluster_OpenSession(t *testing.T) {
	n1, _ := startCluster(t, newBeanLog())
	c := newClient(t, 2, n1.info)

	s, err := c.OpenSession(context.Background(), counterBean, domain.NodeAffinity("n2"))
	require.NoError(t, err)
	assert.Equal(t, counterBean, s.Bean)
	assert.Equal(t, domain.ClusterAffinity("ejb"), s.Affinity.Target())
	assert.Equal(t, "n2", s.Node)

	out := c.Invoke(context.Background(), domain.InvocationRequest{Bean: counterBean, Method: domain.MethodLocator{Name: "next"}, Affinity: s.Affinity})
	require.NoError(t, out.Err)
	assert.Equal(t, "n2", out.Node)
	assert.Equal(t, float64(1), out.Value)

	_, err = c.OpenSession(context.Background(), echoBean, domain.NodeAffinity("n2"))
	var remote *service.RemoteInvocationError
	assert.ErrorAs(t, err, &remote)
}

func TestCluster_OneWayIsDelivered(t *testing.T) {
	p := newBeanLog()
	n1, _ := startCluster(t, p)
	c := newClient(t, 2, n1.info)

	out := c.Invoke(context.Background(), domain.InvocationRequest{
		Bean:     echoBean,
		Method:   domain.MethodLocator{Name: "fire", ParamTypes: []string{"string"}},
		Affinity: domain.NodeAffinity("n1"),
		Params:   []any{"ping"},
		OneWay:   true,
	})
	require.NoError(t, out.Err)
	assert.Equal(t, domain.OutcomeResult, out.Kind)
	assert.Equal(t, "ping", receive[any](t, p.fired))
}

func TestCluster_CancelInterruptsRunningMethod(t *testing.T) {
	p := newBeanLog()
	n1, _ := startCluster(t, p)
	c := newClient(t, 2, n1.info)

	h, done := c.CreateInvocation(context.Background(), domain.InvocationRequest{
		Bean:     echoBean,
		Method:   domain.MethodLocator{Name: "block"},
		Affinity: domain.NodeAffinity("n2"),
	})
	assert.Equal(t, "n2", receive[string](t, p.started))
	require.True(t, h.Cancel())
	assert.False(t, h.Cancel())

	out := receive(t, done)
	assert.Equal(t, domain.OutcomeCancelled, out.Kind)
	assert.ErrorIs(t, out.Err, service.ErrCancelled)
	assert.Equal(t, "n2", receive[string](t, p.interrupted))
}

func TestCluster_BlackHoledMemberBoundedByAdditionalTimeout(t *testing.T) {
	n1, n2 := startCluster(t, newBeanLog())
	c := newClient(t, 2, n1.info)

	// n2 keeps its address but stops answering: connections are accepted by the kernel and never
	// get an HTTP/2 handshake.
	n2.stop()
	hole, err := net.Listen("tcp", n2.addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = hole.Close() })
	// let the client observe n2's watch stream break so its pooled connection is dropped
	time.Sleep(200 * time.Millisecond)

	cfg := testDiscovery()
	start := time.Now()
	out := c.Invoke(context.Background(), echo(domain.ClusterAffinity("ejb"), "hi"))
	elapsed := time.Since(start)

	require.NoError(t, out.Err)
	assert.Equal(t, "n1:hi", out.Value)
	assert.Less(t, elapsed, cfg.AdditionalNodeTimeout+time.Second, "commit must come from the additional node timeout, not the connect timeout")
	assert.Less(t, elapsed, cfg.ConnectTimeout)
}

func TestCluster_NodeAffinityToBlackHoleTimesOutPerAttempt(t *testing.T) {
	n1, n2 := startCluster(t, newBeanLog())
	c := newClient(t, 2, n1.info)
	n2.stop()
	hole, err := net.Listen("tcp", n2.addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = hole.Close() })
	time.Sleep(200 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	out := c.Invoke(ctx, echo(domain.NodeAffinity("n2"), "hi"))
	assert.Error(t, out.Err)
	assert.Less(t, time.Since(start), 2*time.Second, "the caller's deadline caps discovery")
}
