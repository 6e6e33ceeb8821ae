package grpcnode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"myejbclient/domain"
	"myejbclient/helpers"
	"myejbclient/interfaces"
	"myejbclient/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// drainTimeout bounds how long a closed channel keeps reading so a just-sent request still reaches the node.
const drainTimeout = 5 * time.Second

var errWatchEnded = errors.New("watch stream ended by node")

// Connector implements interfaces.Connector over gRPC. Every Connect creates its own ClientConn and
// waits for it to become Ready, so the attempt context's deadline is the connect timeout: a node
// that accepts TCP but never answers the HTTP/2 handshake fails when the deadline passes.
type Connector struct {
	clientNode string
	options    []grpc.DialOption
	logger     log.Logger
}

var _ interfaces.Connector = (*Connector)(nil)

// NewConnector creates the connector. Panics on nil logger.
//
// Parameters: clientNode: name sent in the client-node header ("" omits it); options: extra dial options
// (insecure transport credentials are always applied first).
//
// Called from cmd/client and grpcnode tests.
func NewConnector(clientNode string, logger log.Logger, options ...grpc.DialOption) *Connector {
	return &Connector{
		clientNode: clientNode,
		options:    options,
		logger:     log.With(helpers.NilPanic(logger, "grpcnode.connector.go: logger is required"), "component", "grpcnode_connector"),
	}
}

// Connect dials candidate's mapping and waits until the connection is Ready.
//
// Returns: (Connection, nil); (nil, error) when the connection fails (transient failure) or ctx ends first.
func (c *Connector) Connect(ctx context.Context, candidate domain.Candidate) (interfaces.Connection, error) {
	addr := candidate.Mapping.Address()
	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, c.options...)
	cc, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	cc.Connect()
	for {
		state := cc.GetState()
		switch state {
		case connectivity.Ready:
			level.Debug(c.logger).Log("msg", "connected", "node", candidate.Node.Name, "address", addr)
			return &connection{node: candidate.Node.Name, address: addr, clientNode: c.clientNode, cc: cc, logger: c.logger}, nil
		case connectivity.TransientFailure, connectivity.Shutdown:
			_ = cc.Close()
			return nil, fmt.Errorf("dial %s: %s", addr, strings.ToLower(state.String()))
		}
		if !cc.WaitForStateChange(ctx, state) {
			_ = cc.Close()
			return nil, fmt.Errorf("dial %s: %w", addr, ctx.Err())
		}
	}
}

// connection implements interfaces.Connection over one ClientConn. It turns unhealthy when the
// ClientConn leaves Ready for a failure state or a stream reports the node unavailable.
type connection struct {
	node       string
	address    string
	clientNode string
	cc         *grpc.ClientConn
	logger     log.Logger
	broken     atomic.Bool
	closeOnce  sync.Once
}

func (c *connection) Node() string {
	return c.node
}

func (c *connection) Healthy() bool {
	if c.broken.Load() {
		return false
	}
	switch c.cc.GetState() {
	case connectivity.TransientFailure, connectivity.Shutdown:
		return false
	default:
		return true
	}
}

// observe marks the connection broken when err means the node is gone.
func (c *connection) observe(err error) {
	if service.IsNodeUnavailable(err) && !c.broken.Swap(true) {
		level.Debug(c.logger).Log("msg", "connection marked broken", "node", c.node, "err", err)
	}
}

// OpenChannel keeps ctx's values but not its cancellation: the stream ends through Close (after
// draining) or through the ctx given to Receive, so a one-way request already queued is not reset
// when the invocation completes.
func (c *connection) OpenChannel(ctx context.Context) (interfaces.Channel, error) {
	if !c.Healthy() {
		return nil, fmt.Errorf("connection to %s at %s is broken", c.node, c.address)
	}
	cctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &channel{conn: c, ctx: cctx, cancel: cancel}, nil
}

// Watch opens the node's watch stream and applies every event until ctx ends or the stream breaks.
func (c *connection) Watch(ctx context.Context, topology interfaces.TopologyListener, modules interfaces.ModuleAvailabilityListener) error {
	md := helpers.InvocationMetadata("", "", c.clientNode)
	stream, err := c.cc.NewStream(metadata.NewOutgoingContext(ctx, md), &watchStreamDesc, watchMethod)
	if err != nil {
		c.observe(err)
		return err
	}
	if err := stream.SendMsg(&structpb.Struct{}); err != nil {
		c.observe(err)
		return err
	}
	_ = stream.CloseSend()
	for {
		frame := new(structpb.Struct)
		if err := stream.RecvMsg(frame); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return errWatchEnded
			}
			c.observe(err)
			return err
		}
		if err := applyEvent(frame, topology, modules); err != nil {
			level.Debug(c.logger).Log("msg", "watch event ignored", "node", c.node, "err", err)
		}
	}
}

func (c *connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.cc.Close()
	})
	return err
}

// channel implements interfaces.Channel as one Invoke stream, created on Send. Sends are serialized
// by mu; only the dispatcher goroutine receives.
type channel struct {
	conn   *connection
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	stream grpc.ClientStream
	closed bool
}

// Send opens the invoke stream with the request metadata and writes the request frame.
//
// Returns: nil once the frame is queued; error wrapping service.ErrMalformedRequest when the request cannot
// be encoded; transport error otherwise.
func (ch *channel) Send(ctx context.Context, req domain.InvocationRequest) error {
	frame, err := encodeRequest(req)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.closed {
		return errors.New("channel is closed")
	}
	if ch.stream != nil {
		return errors.New("channel already carries an invocation")
	}
	md := helpers.InvocationMetadata(req.ID, string(req.Affinity.SessionID), ch.conn.clientNode)
	stream, err := ch.conn.cc.NewStream(metadata.NewOutgoingContext(ch.ctx, md), &invokeStreamDesc, invokeMethod)
	if err != nil {
		ch.conn.observe(err)
		return err
	}
	if err := stream.SendMsg(frame); err != nil {
		ch.conn.observe(err)
		return err
	}
	ch.stream = stream
	return nil
}

// SendCancel writes a cancel frame. Does nothing when no request was sent or the channel is closed.
// A write still blocked when ctx ends tears the stream down, which the node also treats as a cancel.
func (ch *channel) SendCancel(ctx context.Context, invocationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.stream == nil || ch.closed {
		return nil
	}
	stop := context.AfterFunc(ctx, ch.cancel)
	defer stop()
	if err := ch.stream.SendMsg(cancelFrame(invocationID)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Receive waits for the response frame; ctx ending tears the stream down.
func (ch *channel) Receive(ctx context.Context) (domain.InvocationResponse, error) {
	ch.mu.Lock()
	stream := ch.stream
	ch.mu.Unlock()
	if stream == nil {
		return domain.InvocationResponse{}, errors.New("no request was sent on this channel")
	}
	stop := context.AfterFunc(ctx, ch.cancel)
	defer stop()
	frame := new(structpb.Struct)
	if err := stream.RecvMsg(frame); err != nil {
		if ctx.Err() != nil {
			return domain.InvocationResponse{}, ctx.Err()
		}
		if errors.Is(err, io.EOF) {
			return domain.InvocationResponse{}, fmt.Errorf("node %s closed the stream without a response", ch.conn.node)
		}
		ch.conn.observe(err)
		return domain.InvocationResponse{}, err
	}
	return decodeResponse(frame)
}

// Close half-closes the stream and keeps reading in the background until the node ends it or
// drainTimeout passes; only then is the stream context cancelled. Idempotent.
func (ch *channel) Close() error {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return nil
	}
	ch.closed = true
	stream := ch.stream
	if stream != nil {
		_ = stream.CloseSend()
	}
	ch.mu.Unlock()

	if stream == nil {
		ch.cancel()
		return nil
	}
	go func() {
		timer := time.AfterFunc(drainTimeout, ch.cancel)
		defer timer.Stop()
		for {
			if err := stream.RecvMsg(new(structpb.Struct)); err != nil {
				break
			}
		}
		ch.cancel()
	}()
	return nil
}
