package service

import (
	"context"
	"errors"
	"sync"

	"myejbclient/domain"
	"myejbclient/helpers"
	"myejbclient/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/singleflight"
)

// ErrConnPoolClosed is returned by Get when the pool has been closed.
var ErrConnPoolClosed = errors.New("conn pool is closed")

// connectionPool implements interfaces.ConnectionPool. It keeps at most one connection per node name.
// Concurrent Gets for the same node share one dial (singleflight); the dial runs detached from the
// caller's cancellation but keeps the caller's deadline, so an attempt abandoned by one discovery can
// still warm the pool for the next one while never outliving the connect timeout. Each caller waits
// only as long as its own ctx allows. Fields: connector, logger; under mu: conns (node → connection), closed.
type connectionPool struct {
	connector interfaces.Connector
	logger    log.Logger
	dials     singleflight.Group

	mu     sync.Mutex
	conns  map[string]interfaces.Connection
	closed bool
}

// NewConnectionPool creates an empty pool. Panics on nil connector or logger.
//
// Parameters: connector: dials nodes (adapters/grpcnode.Connector in prod); logger: dial failures are logged at debug.
//
// Returns: interfaces.ConnectionPool (*connectionPool).
//
// Called from service.NewClientContext.
func NewConnectionPool(connector interfaces.Connector, logger log.Logger) interfaces.ConnectionPool {
	return &connectionPool{
		connector: helpers.NilPanic(connector, "service.connection_pool.go: connector is required"),
		logger:    log.With(helpers.NilPanic(logger, "service.connection_pool.go: logger is required"), "component", "connection_pool"),
		conns:     make(map[string]interfaces.Connection),
	}
}

// Get returns the cached connection for candidate.Node.Name when it is still healthy; otherwise the
// stale one is closed and a new one is dialed.
//
// Parameters: ctx: attempt context; its deadline bounds the dial, its cancellation only stops this caller from waiting; candidate: node and mapping to dial.
//
// Returns: (conn, nil) on success; (nil, ErrConnPoolClosed) if the pool is closed; (nil, ctx.Err()) when ctx ends first; (nil, dial error) otherwise.
//
// Called from discoveryCoordinator attempts and ClientContext warm-up.
func (p *connectionPool) Get(ctx context.Context, candidate domain.Candidate) (interfaces.Connection, error) {
	name := candidate.Node.Name
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrConnPoolClosed
	}
	if conn := p.conns[name]; conn != nil {
		if conn.Healthy() {
			p.mu.Unlock()
			return conn, nil
		}
		delete(p.conns, name)
		_ = conn.Close()
	}
	p.mu.Unlock()

	ch := p.dials.DoChan(name, func() (any, error) {
		return p.dial(ctx, candidate)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(interfaces.Connection), nil
	}
}

// dial runs one Connect for candidate and caches the result. Runs inside the singleflight group.
func (p *connectionPool) dial(ctx context.Context, candidate domain.Candidate) (interfaces.Connection, error) {
	dctx := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		dctx, cancel = context.WithDeadline(dctx, deadline)
		defer cancel()
	}
	conn, err := p.connector.Connect(dctx, candidate)
	if err != nil {
		level.Debug(p.logger).Log("msg", "dial failed", "node", candidate.Node.Name, "address", candidate.Mapping.Address(), "err", err)
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = conn.Close()
		return nil, ErrConnPoolClosed
	}
	if old := p.conns[candidate.Node.Name]; old != nil && old != conn {
		_ = old.Close()
	}
	p.conns[candidate.Node.Name] = conn
	return conn, nil
}

// Cached returns the pooled connection of node without dialing.
//
// Returns: (conn, true) when a healthy connection is cached.
func (p *connectionPool) Cached(node string) (interfaces.Connection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	conn := p.conns[node]
	if conn == nil || !conn.Healthy() {
		return nil, false
	}
	return conn, true
}

// OnNodeFailure closes and removes the connection of node so the next Get redials.
//
// Called from invocationDispatcher when a send fails on a selected connection.
func (p *connectionPool) OnNodeFailure(node string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if conn := p.conns[node]; conn != nil {
		_ = conn.Close()
		delete(p.conns, node)
	}
	p.dials.Forget(node)
}

// Close marks the pool closed and closes all cached connections. Idempotent: repeated call returns nil with no side effects.
//
// Returns: nil (connection close errors are not returned).
//
// Called from ClientContext.Close.
func (p *connectionPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for _, conn := range p.conns {
		_ = conn.Close()
	}
	p.conns = map[string]interfaces.Connection{}
	return nil
}
