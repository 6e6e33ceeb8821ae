package grpcnode

import (
	"context"
	"errors"
	"io"
	"sync"

	"myejbclient/domain"
	"myejbclient/helpers"
	"myejbclient/interfaces"
	"myejbclient/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// watchBuffer is the number of pending events a watch stream may lag behind before it is dropped.
const watchBuffer = 256

var errResponseWritten = errors.New("response already written")
var errStreamFinished = errors.New("invoke stream finished")

// Server hosts one node's side of the protocol: Invoke runs requests through the InvocationHandler,
// Watch streams the node's cluster topology and its own module availability. Register it on a
// grpc.Server; Close makes it refuse new streams and ends open ones.
type Server struct {
	handler  interfaces.InvocationHandler
	clusters *service.ClusterRegistry
	modules  *service.ModuleAvailabilityRegistry
	logger   log.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates the node server. Panics on nil dependencies.
//
// Parameters: handler: runs invocations (service.InvocationHandler); clusters: topology pushed to watchers;
// modules: the node's own deployments pushed to watchers.
//
// Called from cmd/node and grpcnode tests.
func NewServer(
	handler interfaces.InvocationHandler,
	clusters *service.ClusterRegistry,
	modules *service.ModuleAvailabilityRegistry,
	logger log.Logger,
) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		handler:  helpers.NilPanic(handler, "grpcnode.server.go: handler is required"),
		clusters: helpers.NilPanic(clusters, "grpcnode.server.go: clusters is required"),
		modules:  helpers.NilPanic(modules, "grpcnode.server.go: modules is required"),
		logger:   log.With(helpers.NilPanic(logger, "grpcnode.server.go: logger is required"), "component", "grpcnode_server"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register adds the node service to r.
func (s *Server) Register(r grpc.ServiceRegistrar) {
	r.RegisterService(&serviceDesc, s)
}

// Close ends open streams with service.ErrNodeClosed and refuses new ones. Idempotent.
func (s *Server) Close() {
	s.cancel()
}

func (s *Server) invoke(stream grpc.ServerStream) error {
	if s.ctx.Err() != nil {
		return service.ErrNodeClosed
	}
	ctx := stream.Context()
	frame := new(structpb.Struct)
	if err := stream.RecvMsg(frame); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	req, err := decodeRequest(frame)
	if err != nil {
		return err
	}
	logger := s.logger
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if req.ID == "" {
			req.ID, _ = helpers.GetInvocationID(md)
		}
		if client, ok := helpers.GetHeaderValue(md, helpers.HeaderClientNode); ok {
			logger = log.With(logger, "client", client)
		}
	}
	logger = log.With(logger, "invocation", req.ID)
	level.Debug(logger).Log("msg", "invocation received", "bean", req.Bean.String(), "method", req.Method.String(), "affinity", req.Affinity)

	w := newStreamWriter(stream)
	defer w.finish()
	var cancel func()
	if req.SessionOpen {
		cancel = s.handler.HandleSessionOpen(ctx, req, w)
	} else {
		cancel = s.handler.HandleInvocation(ctx, req, w)
	}
	go readCancels(stream, cancel)

	select {
	case <-w.done:
		return w.err
	case <-ctx.Done():
		cancel()
		level.Debug(logger).Log("msg", "client went away, invocation cancelled")
		return ctx.Err()
	case <-s.ctx.Done():
		cancel()
		return service.ErrNodeClosed
	}
}

// readCancels raises cancel on a cancel frame and when the client side of the stream breaks.
// A clean half-close (io.EOF) is not a cancellation: one-way and ordinary callers close after sending.
func readCancels(stream grpc.ServerStream, cancel func()) {
	for {
		frame := new(structpb.Struct)
		if err := stream.RecvMsg(frame); err != nil {
			if !errors.Is(err, io.EOF) {
				cancel()
			}
			return
		}
		if str(frame, "type") == frameCancel {
			cancel()
		}
	}
}

func (s *Server) watch(stream grpc.ServerStream) error {
	if s.ctx.Err() != nil {
		return service.ErrNodeClosed
	}
	ctx := stream.Context()
	if err := stream.RecvMsg(new(structpb.Struct)); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	sink := &watchSink{events: make(chan *structpb.Struct, watchBuffer), overflow: make(chan struct{})}
	topologyHandle := s.clusters.AddListener(sink)
	defer topologyHandle.Close()
	modulesHandle := s.modules.AddListener(sink)
	defer modulesHandle.Close()

	for {
		select {
		case ev := <-sink.events:
			if err := stream.SendMsg(ev); err != nil {
				return err
			}
		case <-sink.overflow:
			level.Warn(s.logger).Log("msg", "watcher too slow, dropping stream")
			return status.Error(codes.ResourceExhausted, "watch stream too slow")
		case <-ctx.Done():
			return nil
		case <-s.ctx.Done():
			return service.ErrNodeClosed
		}
	}
}

// streamWriter implements interfaces.ResponseWriter over an invoke stream: the first Write sends,
// later ones fail, and nothing is sent once the handler returned.
type streamWriter struct {
	mu      sync.Mutex
	stream  grpc.ServerStream
	written bool
	closed  bool
	done    chan struct{}
	err     error
}

func newStreamWriter(stream grpc.ServerStream) *streamWriter {
	return &streamWriter{stream: stream, done: make(chan struct{})}
}

func (w *streamWriter) Write(resp domain.InvocationResponse) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.written {
		return errResponseWritten
	}
	if w.closed {
		return errStreamFinished
	}
	w.written = true
	frame, err := encodeResponse(resp)
	if err != nil {
		frame, _ = encodeResponse(domain.InvocationResponse{
			ID:           resp.ID,
			Kind:         domain.ResponseException,
			ErrorMessage: err.Error(),
			Session:      resp.Session,
		})
	}
	w.err = w.stream.SendMsg(frame)
	close(w.done)
	return w.err
}

func (w *streamWriter) finish() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

// watchSink turns registry events into frames. Registries call it after releasing their locks, so
// it must not block: when the buffer is full the stream is dropped and the client re-watches.
type watchSink struct {
	events   chan *structpb.Struct
	overflow chan struct{}
	once     sync.Once
}

func (s *watchSink) push(ev *structpb.Struct) {
	select {
	case s.events <- ev:
	default:
		s.once.Do(func() { close(s.overflow) })
	}
}

func (s *watchSink) ClusterTopology(clusters []domain.ClusterInfo) { s.push(clustersEvent(clusters)) }

func (s *watchSink) ClusterRemoval(names []string) { s.push(removalEvent(names)) }

func (s *watchSink) ClusterNewNodesAdded(delta domain.ClusterInfo) { s.push(nodesAddedEvent(delta)) }

func (s *watchSink) ClusterNodesRemoved(removals []domain.ClusterRemovalInfo) {
	s.push(nodesRemovedEvent(removals))
}

func (s *watchSink) ModuleAvailable(node string, modules []domain.ModuleIdentifier) {
	s.push(moduleEvent(eventModuleAvailable, node, modules))
}

func (s *watchSink) ModuleUnavailable(node string, modules []domain.ModuleIdentifier) {
	s.push(moduleEvent(eventModuleUnavailable, node, modules))
}
