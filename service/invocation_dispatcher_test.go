package service

import (
	"context"
	"errors"
	"fmt"
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

type dispatcherFixture struct {
	resolver    *mock.AffinityResolverMock
	coordinator *mock.DiscoveryCoordinatorMock
	pool        *mock.ConnectionPoolMock
	sessions    *SessionStore
	channel     *mock.ChannelMock
	conn        *mock.ConnectionMock
}

// newDispatcherFixture wires a resolver returning n1, a coordinator selecting it and a channel
// answering with resp.
func newDispatcherFixture(resp domain.InvocationResponse) *dispatcherFixture {
	f := &dispatcherFixture{sessions: NewSessionStore(), pool: &mock.ConnectionPoolMock{}}
	f.channel = &mock.ChannelMock{
		ReceiveFunc: func(ctx context.Context) (domain.InvocationResponse, error) { return resp, nil },
	}
	f.conn = newMockConn("n1")
	f.conn.OpenChannelFunc = func(ctx context.Context) (interfaces.Channel, error) { return f.channel, nil }
	f.resolver = &mock.AffinityResolverMock{
		ResolveFunc: func(bean domain.BeanIdentifier, a domain.Affinity) ([]domain.Candidate, error) {
			return []domain.Candidate{candidate("n1", 1, 0)}, nil
		},
	}
	f.coordinator = &mock.DiscoveryCoordinatorMock{
		DiscoverFunc: func(ctx context.Context, cs []domain.Candidate) (interfaces.Selection, error) {
			return interfaces.Selection{Candidate: cs[0], Connection: f.conn, Reachable: cs}, nil
		},
	}
	return f
}

func (f *dispatcherFixture) dispatcher() *invocationDispatcher {
	return NewInvocationDispatcher(f.resolver, f.coordinator, f.pool, f.sessions, GoExecutor{}, cfg(5*time.Second, time.Second, time.Second), log.NewNopLogger())
}

func echoRequest() domain.InvocationRequest {
	return domain.InvocationRequest{
		Bean:     echoBean,
		Method:   domain.MethodLocator{Name: "echo", ParamTypes: []string{"string"}},
		Affinity: domain.ClusterAffinity("ejb"),
		Params:   []any{"hi"},
	}
}

func waitOutcome(t *testing.T, ch <-chan domain.Outcome) domain.Outcome {
	t.Helper()
	select {
	case out, ok := <-ch:
		require.True(t, ok, "outcome channel closed without outcome")
		_, open := <-ch
		assert.False(t, open, "outcome channel must close after the outcome")
		return out
	case <-time.After(2 * time.Second):
		t.Fatal("no outcome delivered")
		return domain.Outcome{}
	}
}

func TestNewInvocationDispatcher_Panics(t *testing.T) {
	f := newDispatcherFixture(domain.InvocationResponse{})
	c := domain.DefaultDiscoveryConfig()
	l := log.NewNopLogger()
	tests := []struct {
		name string
		msg  string
		fn   func()
	}{
		{"resolver_nil", "service.invocation_dispatcher.go: resolver is required", func() {
			NewInvocationDispatcher(nil, f.coordinator, f.pool, f.sessions, GoExecutor{}, c, l)
		}},
		{"coordinator_nil", "service.invocation_dispatcher.go: coordinator is required", func() {
			NewInvocationDispatcher(f.resolver, nil, f.pool, f.sessions, GoExecutor{}, c, l)
		}},
		{"pool_nil", "service.invocation_dispatcher.go: pool is required", func() {
			NewInvocationDispatcher(f.resolver, f.coordinator, nil, f.sessions, GoExecutor{}, c, l)
		}},
		{"sessions_nil", "service.invocation_dispatcher.go: sessions is required", func() {
			NewInvocationDispatcher(f.resolver, f.coordinator, f.pool, nil, GoExecutor{}, c, l)
		}},
		{"executor_nil", "service.invocation_dispatcher.go: executor is required", func() {
			NewInvocationDispatcher(f.resolver, f.coordinator, f.pool, f.sessions, nil, c, l)
		}},
		{"logger_nil", "service.invocation_dispatcher.go: logger is required", func() {
			NewInvocationDispatcher(f.resolver, f.coordinator, f.pool, f.sessions, GoExecutor{}, c, nil)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PanicsWithValue(t, tt.msg, tt.fn)
		})
	}
}

func TestDispatcher_ResponseKinds(t *testing.T) {
	tests := []struct {
		name     string
		resp     domain.InvocationResponse
		wantKind domain.OutcomeKind
		wantVal  any
		wantErr  error
	}{
		{name: "result", resp: domain.InvocationResponse{Kind: domain.ResponseResult, Value: "hi"}, wantKind: domain.OutcomeResult, wantVal: "hi"},
		{name: "no_such_deployment", resp: domain.InvocationResponse{Kind: domain.ResponseNoSuchDeployment}, wantKind: domain.OutcomeException, wantErr: ErrNoSuchDeployment},
		{name: "no_such_method", resp: domain.InvocationResponse{Kind: domain.ResponseNoSuchMethod}, wantKind: domain.OutcomeException, wantErr: ErrNoSuchMethod},
		{name: "remote_cancelled", resp: domain.InvocationResponse{Kind: domain.ResponseCancelled}, wantKind: domain.OutcomeCancelled, wantErr: ErrCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDispatcherFixture(tt.resp)
			_, done := f.dispatcher().Dispatch(context.Background(), echoRequest())
			out := waitOutcome(t, done)
			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Equal(t, tt.wantVal, out.Value)
			assert.Equal(t, "n1", out.Node)
			if tt.wantErr != nil {
				assert.ErrorIs(t, out.Err, tt.wantErr)
			} else {
				assert.NoError(t, out.Err)
			}
			require.Len(t, f.channel.SendCalls(), 1)
			assert.NotEmpty(t, f.channel.SendCalls()[0].Req.ID)
			assert.NotEmpty(t, f.channel.CloseCalls())
		})
	}
}

func TestDispatcher_RemoteExceptionPassedThrough(t *testing.T) {
	f := newDispatcherFixture(domain.InvocationResponse{Kind: domain.ResponseException, ErrorMessage: "counter overflow"})
	_, done := f.dispatcher().Dispatch(context.Background(), echoRequest())
	out := waitOutcome(t, done)
	require.Equal(t, domain.OutcomeException, out.Kind)
	var remote *RemoteInvocationError
	require.True(t, errors.As(out.Err, &remote))
	assert.Equal(t, "counter overflow", out.Err.Error())
}

func TestDispatcher_ResolutionErrorsNotRetried(t *testing.T) {
	f := newDispatcherFixture(domain.InvocationResponse{})
	f.resolver.ResolveFunc = func(domain.BeanIdentifier, domain.Affinity) ([]domain.Candidate, error) {
		return nil, ErrSessionTargetUnavailable
	}
	_, done := f.dispatcher().Dispatch(context.Background(), echoRequest())
	out := waitOutcome(t, done)
	assert.ErrorIs(t, out.Err, ErrSessionTargetUnavailable)
	assert.Len(t, f.resolver.ResolveCalls(), 1)
	assert.Empty(t, f.coordinator.DiscoverCalls())
}

func TestDispatcher_DiscoveryTimeoutSurfaces(t *testing.T) {
	f := newDispatcherFixture(domain.InvocationResponse{})
	f.coordinator.DiscoverFunc = func(context.Context, []domain.Candidate) (interfaces.Selection, error) {
		return interfaces.Selection{}, ErrDiscoveryTimeout
	}
	_, done := f.dispatcher().Dispatch(context.Background(), echoRequest())
	out := waitOutcome(t, done)
	assert.Equal(t, domain.OutcomeException, out.Kind)
	assert.ErrorIs(t, out.Err, ErrDiscoveryTimeout)
	assert.Empty(t, f.channel.SendCalls())
}

func TestDispatcher_CancelBeforeSelectionSendsNothing(t *testing.T) {
	f := newDispatcherFixture(domain.InvocationResponse{})
	entered := make(chan struct{})
	f.coordinator.DiscoverFunc = func(ctx context.Context, cs []domain.Candidate) (interfaces.Selection, error) {
		close(entered)
		<-ctx.Done()
		return interfaces.Selection{}, ctx.Err()
	}
	h, done := f.dispatcher().Dispatch(context.Background(), echoRequest())
	<-entered
	assert.True(t, h.Cancel())
	assert.False(t, h.Cancel())
	out := waitOutcome(t, done)
	assert.Equal(t, domain.OutcomeCancelled, out.Kind)
	assert.ErrorIs(t, out.Err, ErrCancelled)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, f.channel.SendCalls())
	assert.Empty(t, f.conn.OpenChannelCalls())
}

func TestDispatcher_CancelAfterSendSignalsNode(t *testing.T) {
	f := newDispatcherFixture(domain.InvocationResponse{})
	received := make(chan struct{})
	f.channel.ReceiveFunc = func(ctx context.Context) (domain.InvocationResponse, error) {
		close(received)
		<-ctx.Done()
		return domain.InvocationResponse{}, ctx.Err()
	}
	h, done := f.dispatcher().Dispatch(context.Background(), echoRequest())
	<-received

	start := time.Now()
	require.True(t, h.Cancel())
	out := waitOutcome(t, done)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, domain.OutcomeCancelled, out.Kind)
	assert.Equal(t, "n1", out.Node)
	calls := f.channel.SendCancelCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, f.channel.SendCalls()[0].Req.ID, calls[0].InvocationID)
	assert.Empty(t, f.pool.OnNodeFailureCalls())
}

func TestDispatcher_CancelRacingResponseYieldsOneOutcome(t *testing.T) {
	for i := 0; i < 200; i++ {
		f := newDispatcherFixture(domain.InvocationResponse{Kind: domain.ResponseResult, Value: i})
		release := make(chan struct{})
		f.channel.ReceiveFunc = func(ctx context.Context) (domain.InvocationResponse, error) {
			<-release
			return domain.InvocationResponse{Kind: domain.ResponseResult, Value: i}, nil
		}
		h, done := f.dispatcher().Dispatch(context.Background(), echoRequest())
		go close(release)
		cancelled := h.Cancel()

		var outs []domain.Outcome
		for out := range done {
			outs = append(outs, out)
		}
		require.Len(t, outs, 1)
		if cancelled {
			assert.Equal(t, domain.OutcomeCancelled, outs[0].Kind)
		} else {
			assert.Equal(t, domain.OutcomeResult, outs[0].Kind)
			assert.Equal(t, i, outs[0].Value)
		}
		assert.False(t, h.Cancel())
	}
}

func TestDispatcher_OneWayCompletesOnSend(t *testing.T) {
	f := newDispatcherFixture(domain.InvocationResponse{})
	f.channel.ReceiveFunc = func(ctx context.Context) (domain.InvocationResponse, error) {
		t.Error("one-way invocation must not await a response")
		return domain.InvocationResponse{}, nil
	}
	req := echoRequest()
	req.OneWay = true
	_, done := f.dispatcher().Dispatch(context.Background(), req)
	out := waitOutcome(t, done)
	assert.Equal(t, domain.OutcomeResult, out.Kind)
	assert.Nil(t, out.Value)
	assert.Len(t, f.channel.SendCalls(), 1)
}

func TestDispatcher_SendFailureRetriesOtherNode(t *testing.T) {
	f := newDispatcherFixture(domain.InvocationResponse{Kind: domain.ResponseResult, Value: "from n2"})
	broken := &mock.ChannelMock{
		SendFunc: func(context.Context, domain.InvocationRequest) error { return errors.New("stream reset") },
	}
	conn1 := newMockConn("n1")
	conn1.OpenChannelFunc = func(context.Context) (interfaces.Channel, error) { return broken, nil }
	conn2 := newMockConn("n2")
	conn2.OpenChannelFunc = func(context.Context) (interfaces.Channel, error) { return f.channel, nil }

	f.resolver.ResolveFunc = func(domain.BeanIdentifier, domain.Affinity) ([]domain.Candidate, error) {
		return []domain.Candidate{candidate("n1", 1, 0), candidate("n2", 2, 1)}, nil
	}
	f.coordinator.DiscoverFunc = func(ctx context.Context, cs []domain.Candidate) (interfaces.Selection, error) {
		if cs[0].Node.Name == "n1" {
			return interfaces.Selection{Candidate: cs[0], Connection: conn1}, nil
		}
		return interfaces.Selection{Candidate: cs[0], Connection: conn2}, nil
	}

	_, done := f.dispatcher().Dispatch(context.Background(), echoRequest())
	out := waitOutcome(t, done)
	assert.Equal(t, "from n2", out.Value)
	assert.Equal(t, "n2", out.Node)

	require.Len(t, f.pool.OnNodeFailureCalls(), 1)
	assert.Equal(t, "n1", f.pool.OnNodeFailureCalls()[0].Node)
	discovers := f.coordinator.DiscoverCalls()
	require.Len(t, discovers, 2)
	assert.Equal(t, []string{"n2"}, names(discovers[1].Candidates))
	assert.Equal(t, 0, discovers[1].Candidates[0].Index)
}

func TestDispatcher_AllNodesFailingSend(t *testing.T) {
	f := newDispatcherFixture(domain.InvocationResponse{})
	f.channel.SendFunc = func(context.Context, domain.InvocationRequest) error { return errors.New("broken pipe") }
	_, done := f.dispatcher().Dispatch(context.Background(), echoRequest())
	out := waitOutcome(t, done)
	assert.ErrorIs(t, out.Err, ErrNoAvailableNode)
	assert.ErrorIs(t, out.Err, ErrConnectFailure)
}

func TestDispatcher_UnencodableRequestNotRetried(t *testing.T) {
	f := newDispatcherFixture(domain.InvocationResponse{})
	f.channel.SendFunc = func(context.Context, domain.InvocationRequest) error {
		return fmt.Errorf("param 0: %w", ErrMalformedRequest)
	}
	_, done := f.dispatcher().Dispatch(context.Background(), echoRequest())
	out := waitOutcome(t, done)
	assert.ErrorIs(t, out.Err, ErrMalformedRequest)
	assert.Equal(t, "n1", out.Node)
	assert.Len(t, f.coordinator.DiscoverCalls(), 1)
	assert.Empty(t, f.pool.OnNodeFailureCalls())
}

func TestDispatcher_ReceiveFailureIsTerminal(t *testing.T) {
	f := newDispatcherFixture(domain.InvocationResponse{})
	f.channel.ReceiveFunc = func(context.Context) (domain.InvocationResponse, error) {
		return domain.InvocationResponse{}, errors.New("connection reset")
	}
	_, done := f.dispatcher().Dispatch(context.Background(), echoRequest())
	out := waitOutcome(t, done)
	assert.Equal(t, domain.OutcomeException, out.Kind)
	assert.Contains(t, out.Err.Error(), "connection reset")
	assert.Len(t, f.coordinator.DiscoverCalls(), 1)
	require.Len(t, f.pool.OnNodeFailureCalls(), 1)
}

func TestDispatcher_ContextCancelCancelsInvocation(t *testing.T) {
	f := newDispatcherFixture(domain.InvocationResponse{})
	f.coordinator.DiscoverFunc = func(ctx context.Context, cs []domain.Candidate) (interfaces.Selection, error) {
		<-ctx.Done()
		return interfaces.Selection{}, ctx.Err()
	}
	ctx, cancel := context.WithCancel(context.Background())
	_, done := f.dispatcher().Dispatch(ctx, echoRequest())
	cancel()
	out := waitOutcome(t, done)
	assert.Equal(t, domain.OutcomeCancelled, out.Kind)
}

func TestDispatcher_SessionIsStoredAndImmutable(t *testing.T) {
	pinned, err := domain.SessionAffinity("s-1", domain.NodeAffinity("n1"))
	require.NoError(t, err)
	session := domain.Session{ID: "s-1", Bean: echoBean, Affinity: pinned}
	f := newDispatcherFixture(domain.InvocationResponse{Kind: domain.ResponseResult, Value: 1, Session: &session})
	d := f.dispatcher()

	_, done := d.Dispatch(context.Background(), echoRequest())
	out := waitOutcome(t, done)
	require.NotNil(t, out.Session)
	assert.Equal(t, pinned, out.Session.Affinity)

	drifted, err := domain.SessionAffinity("s-1", domain.ClusterAffinity("elsewhere"))
	require.NoError(t, err)
	req := echoRequest()
	req.Affinity = drifted
	_, done = d.Dispatch(context.Background(), req)
	waitOutcome(t, done)

	calls := f.resolver.ResolveCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, pinned, calls[1].Affinity)
	stored, ok := f.sessions.Get("s-1")
	require.True(t, ok)
	assert.Equal(t, pinned, stored.Affinity)
}

func TestDispatcher_OpenSession(t *testing.T) {
	aff, err := domain.SessionAffinity("s-9", domain.ClusterAffinity("ejb"))
	require.NoError(t, err)
	session := domain.Session{ID: "s-9", Bean: echoBean, Affinity: aff}

	t.Run("returns_session", func(t *testing.T) {
		f := newDispatcherFixture(domain.InvocationResponse{Kind: domain.ResponseSessionOpened, Session: &session})
		got, err := f.dispatcher().OpenSession(context.Background(), echoBean, domain.ClusterAffinity("ejb"))
		require.NoError(t, err)
		want := session
		want.Node = "n1"
		assert.Equal(t, want, got, "a session without a creating node is credited to the node that answered")
		assert.Empty(t, session.Node, "the response is not modified")
		assert.True(t, f.channel.SendCalls()[0].Req.SessionOpen)
		assert.Equal(t, 1, f.sessions.Len())
	})
	t.Run("missing_session_is_error", func(t *testing.T) {
		f := newDispatcherFixture(domain.InvocationResponse{Kind: domain.ResponseSessionOpened})
		_, err := f.dispatcher().OpenSession(context.Background(), echoBean, domain.NoAffinity())
		assert.Error(t, err)
	})
	t.Run("no_such_deployment", func(t *testing.T) {
		f := newDispatcherFixture(domain.InvocationResponse{Kind: domain.ResponseNoSuchDeployment})
		_, err := f.dispatcher().OpenSession(context.Background(), echoBean, domain.NoAffinity())
		assert.ErrorIs(t, err, ErrNoSuchDeployment)
	})
}

func TestDispatcher_SameGoroutineExecutor(t *testing.T) {
	f := newDispatcherFixture(domain.InvocationResponse{Kind: domain.ResponseResult, Value: "inline"})
	d := NewInvocationDispatcher(f.resolver, f.coordinator, f.pool, f.sessions, SameGoroutineExecutor{}, domain.DefaultDiscoveryConfig(), log.NewNopLogger())
	var ran atomic.Bool
	f.channel.SendFunc = func(context.Context, domain.InvocationRequest) error {
		ran.Store(true)
		return nil
	}
	_, done := d.Dispatch(context.Background(), echoRequest())
	assert.True(t, ran.Load())
	out := waitOutcome(t, done)
	assert.Equal(t, "inline", out.Value)
}
