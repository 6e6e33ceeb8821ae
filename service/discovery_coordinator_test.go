package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"myejbclient/domain"
	"myejbclient/interfaces"
	"myejbclient/interfaces/mock"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// behaviour of one node in a fake pool
type nodeBehaviour struct {
	delay time.Duration
	err   error
	hang  bool
}

// fakePool answers Get per node after a delay, with an error, or never (until ctx ends).
func fakePool(behaviours map[string]nodeBehaviour) *mock.ConnectionPoolMock {
	return &mock.ConnectionPoolMock{
		GetFunc: func(ctx context.Context, c domain.Candidate) (interfaces.Connection, error) {
			b := behaviours[c.Node.Name]
			if b.hang {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			select {
			case <-time.After(b.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if b.err != nil {
				return nil, b.err
			}
			return newMockConn(c.Node.Name), nil
		},
	}
}

func cfg(total, additional, connect time.Duration) domain.DiscoveryConfig {
	return domain.DiscoveryConfig{Timeout: total, AdditionalNodeTimeout: additional, ConnectTimeout: connect}
}

func TestNewDiscoveryCoordinator_Panics(t *testing.T) {
	good := domain.DefaultDiscoveryConfig()
	t.Run("pool_nil", func(t *testing.T) {
		assert.PanicsWithValue(t, "service.discovery_coordinator.go: pool is required", func() {
			NewDiscoveryCoordinator(nil, good, log.NewNopLogger())
		})
	})
	t.Run("logger_nil", func(t *testing.T) {
		assert.PanicsWithValue(t, "service.discovery_coordinator.go: logger is required", func() {
			NewDiscoveryCoordinator(&mock.ConnectionPoolMock{}, good, nil)
		})
	})
	t.Run("invalid_config", func(t *testing.T) {
		assert.Panics(t, func() {
			NewDiscoveryCoordinator(&mock.ConnectionPoolMock{}, cfg(0, 0, time.Second), log.NewNopLogger())
		})
	})
}

func TestDiscoveryCoordinator_CommitsAfterAdditionalTimeout(t *testing.T) {
	pool := fakePool(map[string]nodeBehaviour{
		"n1": {delay: 10 * time.Millisecond},
		"n2": {hang: true},
	})
	d := NewDiscoveryCoordinator(pool, cfg(5*time.Second, 150*time.Millisecond, 3*time.Second), log.NewNopLogger())

	start := time.Now()
	sel, err := d.Discover(context.Background(), []domain.Candidate{candidate("n1", 1, 0), candidate("n2", 2, 1)})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "n1", sel.Candidate.Node.Name)
	assert.Equal(t, "n1", sel.Connection.Node())
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestDiscoveryCoordinator_CommitsWhenAllAnswered(t *testing.T) {
	pool := fakePool(map[string]nodeBehaviour{
		"n1": {delay: 40 * time.Millisecond},
		"n2": {delay: 5 * time.Millisecond},
	})
	d := NewDiscoveryCoordinator(pool, cfg(10*time.Second, 5*time.Second, 3*time.Second), log.NewNopLogger())

	start := time.Now()
	sel, err := d.Discover(context.Background(), []domain.Candidate{candidate("n1", 1, 0), candidate("n2", 2, 1)})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "n1", sel.Candidate.Node.Name)
	assert.Equal(t, []string{"n1", "n2"}, names(sel.Reachable))
}

func TestDiscoveryCoordinator_ZeroAdditionalTimeoutTakesFirstReachable(t *testing.T) {
	pool := fakePool(map[string]nodeBehaviour{
		"n1": {hang: true},
		"n2": {delay: 5 * time.Millisecond},
	})
	d := NewDiscoveryCoordinator(pool, cfg(10*time.Second, 0, 3*time.Second), log.NewNopLogger())

	start := time.Now()
	sel, err := d.Discover(context.Background(), []domain.Candidate{candidate("n1", 1, 0), candidate("n2", 2, 1)})
	require.NoError(t, err)
	assert.Equal(t, "n2", sel.Candidate.Node.Name)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDiscoveryCoordinator_TotalTimeout(t *testing.T) {
	pool := fakePool(map[string]nodeBehaviour{"n1": {hang: true}, "n2": {hang: true}})
	d := NewDiscoveryCoordinator(pool, cfg(100*time.Millisecond, 50*time.Millisecond, 5*time.Second), log.NewNopLogger())

	start := time.Now()
	_, err := d.Discover(context.Background(), []domain.Candidate{candidate("n1", 1, 0), candidate("n2", 2, 1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDiscoveryTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDiscoveryCoordinator_CtxDeadlineCapsBudget(t *testing.T) {
	pool := fakePool(map[string]nodeBehaviour{"n1": {hang: true}})
	d := NewDiscoveryCoordinator(pool, cfg(10*time.Second, 0, 5*time.Second), log.NewNopLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := d.Discover(ctx, []domain.Candidate{candidate("n1", 1, 0)})
	assert.ErrorIs(t, err, ErrDiscoveryTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDiscoveryCoordinator_AllAttemptsFail(t *testing.T) {
	refused := errors.New("connection refused")
	pool := fakePool(map[string]nodeBehaviour{"n1": {err: refused}, "n2": {err: refused}})
	d := NewDiscoveryCoordinator(pool, cfg(10*time.Second, time.Second, time.Second), log.NewNopLogger())

	_, err := d.Discover(context.Background(), []domain.Candidate{candidate("n1", 1, 0), candidate("n2", 2, 1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoAvailableNode)
	assert.ErrorIs(t, err, ErrConnectFailure)
	assert.ErrorIs(t, err, refused)
	var nae *NoAvailableNodeError
	require.True(t, errors.As(err, &nae))
	assert.Len(t, nae.Failures, 2)
}

func TestDiscoveryCoordinator_BlackHoleBoundedByConnectTimeout(t *testing.T) {
	pool := fakePool(map[string]nodeBehaviour{"n2": {hang: true}})
	d := NewDiscoveryCoordinator(pool, cfg(10*time.Second, 5*time.Second, 100*time.Millisecond), log.NewNopLogger())

	start := time.Now()
	_, err := d.Discover(context.Background(), []domain.Candidate{candidate("n2", 2, 0)})
	elapsed := time.Since(start)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, time.Second)
}

func TestDiscoveryCoordinator_BlackHoleDoesNotDelayHealthyNode(t *testing.T) {
	pool := fakePool(map[string]nodeBehaviour{
		"n1": {delay: 5 * time.Millisecond},
		"n2": {hang: true},
	})
	d := NewDiscoveryCoordinator(pool, cfg(10*time.Second, 2*time.Second, 200*time.Millisecond), log.NewNopLogger())

	start := time.Now()
	sel, err := d.Discover(context.Background(), []domain.Candidate{candidate("n2", 2, 0), candidate("n1", 1, 1)})
	require.NoError(t, err)
	assert.Equal(t, "n1", sel.Candidate.Node.Name)
	// the hung attempt fails at its connect timeout, which completes the answer set before the additional timeout
	assert.Less(t, time.Since(start), time.Second)
}

func TestDiscoveryCoordinator_CancelAbortsImmediately(t *testing.T) {
	pool := fakePool(map[string]nodeBehaviour{"n1": {hang: true}})
	d := NewDiscoveryCoordinator(pool, cfg(10*time.Second, time.Second, 5*time.Second), log.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	start := time.Now()
	_, err := d.Discover(ctx, []domain.Candidate{candidate("n1", 1, 0)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDiscoveryCoordinator_CancelsOutstandingAttemptsOnCommit(t *testing.T) {
	stopped := make(chan struct{})
	pool := &mock.ConnectionPoolMock{
		GetFunc: func(ctx context.Context, c domain.Candidate) (interfaces.Connection, error) {
			if c.Node.Name == "n1" {
				return newMockConn("n1"), nil
			}
			<-ctx.Done()
			close(stopped)
			return nil, ctx.Err()
		},
	}
	d := NewDiscoveryCoordinator(pool, cfg(10*time.Second, 0, 5*time.Second), log.NewNopLogger())
	_, err := d.Discover(context.Background(), []domain.Candidate{candidate("n1", 1, 0), candidate("n2", 2, 1)})
	require.NoError(t, err)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("outstanding attempt was not cancelled")
	}
}

func TestDiscoveryCoordinator_NoCandidates(t *testing.T) {
	d := NewDiscoveryCoordinator(&mock.ConnectionPoolMock{}, domain.DefaultDiscoveryConfig(), log.NewNopLogger())
	_, err := d.Discover(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoAvailableNode)
}

func TestDiscoveryCoordinator_PreferredAlreadyConnected(t *testing.T) {
	pool := fakePool(map[string]nodeBehaviour{"n1": {hang: true}, "n2": {hang: true}})
	conn := newMockConn("n2")
	pool.CachedFunc = func(node string) (interfaces.Connection, bool) {
		if node == "n2" {
			return conn, true
		}
		return nil, false
	}
	d := NewDiscoveryCoordinator(pool, cfg(5*time.Second, time.Second, 3*time.Second), log.NewNopLogger())

	start := time.Now()
	sel, err := d.Discover(context.Background(), []domain.Candidate{candidate("n1", 1, 1), candidate("n2", 2, 0)})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, "n2", sel.Candidate.Node.Name)
	assert.Same(t, conn, sel.Connection)
	assert.Equal(t, []domain.Candidate{candidate("n2", 2, 0)}, sel.Reachable)
	assert.Empty(t, pool.GetCalls(), "nothing is dialed")
}

func TestDiscoveryCoordinator_OtherCandidateConnectedStillDiscovers(t *testing.T) {
	pool := fakePool(map[string]nodeBehaviour{"n1": {delay: 10 * time.Millisecond}, "n2": {}})
	pool.CachedFunc = func(node string) (interfaces.Connection, bool) {
		if node == "n2" {
			return newMockConn("n2"), true
		}
		return nil, false
	}
	d := NewDiscoveryCoordinator(pool, cfg(5*time.Second, 200*time.Millisecond, 3*time.Second), log.NewNopLogger())

	sel, err := d.Discover(context.Background(), []domain.Candidate{candidate("n1", 1, 0), candidate("n2", 2, 1)})
	require.NoError(t, err)
	assert.Equal(t, "n1", sel.Candidate.Node.Name)
	assert.Len(t, pool.GetCalls(), 2)
	require.Len(t, pool.CachedCalls(), 1)
	assert.Equal(t, "n1", pool.CachedCalls()[0].Node)
}
