package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"myejbclient/domain"
	"myejbclient/helpers"
	"myejbclient/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// InvocationHandler implements interfaces.InvocationHandler: the node side of the invocation
// protocol. For every request it writes exactly one response through the ResponseWriter.
//
// Order of checks for an invocation: bean lookup (no_such_deployment), session conversion for a
// stateful bean addressed without a session, method lookup (no_such_method), one-way reply, then
// the method runs on the executor unless the cancel flag was raised first (cancelled).
type InvocationHandler struct {
	node        string
	cluster     string
	deployments *DeploymentRepository
	clusters    *ClusterRegistry
	executor    interfaces.Executor
	clock       interfaces.TimeProvider
	logger      log.Logger
}

var _ interfaces.InvocationHandler = (*InvocationHandler)(nil)

// NewInvocationHandler creates the handler. Panics on nil dependencies.
//
// Parameters: cluster: the cluster this node belongs to ("" for a standalone node); clusters: consulted
// for membership when choosing a new session's affinity; clock: Session.CreatedAt.
//
// Called from cmd/node and grpcnode tests.
func NewInvocationHandler(
	cluster string,
	deployments *DeploymentRepository,
	clusters *ClusterRegistry,
	executor interfaces.Executor,
	clock interfaces.TimeProvider,
	logger log.Logger,
) *InvocationHandler {
	deployments = helpers.NilPanic(deployments, "service.invocation_handler.go: deployments is required")
	return &InvocationHandler{
		node:        deployments.Node(),
		cluster:     cluster,
		deployments: deployments,
		clusters:    helpers.NilPanic(clusters, "service.invocation_handler.go: clusters is required"),
		executor:    helpers.NilPanic(executor, "service.invocation_handler.go: executor is required"),
		clock:       helpers.NilPanic(clock, "service.invocation_handler.go: clock is required"),
		logger:      log.With(helpers.NilPanic(logger, "service.invocation_handler.go: logger is required"), "component", "invocation_handler"),
	}
}

// HandleInvocation processes req and writes its single response.
//
// Returns: cancel func raising the invocation's cancel flag and cancelling the method's context;
// when raised before the method starts, a cancelled response is written instead of running it.
//
// Called from grpcnode.Server for every invoke stream.
func (h *InvocationHandler) HandleInvocation(ctx context.Context, req domain.InvocationRequest, w interfaces.ResponseWriter) func() {
	bean, ok := h.deployments.Find(req.Bean)
	if !ok {
		h.write(w, domain.InvocationResponse{ID: req.ID, Kind: domain.ResponseNoSuchDeployment, ErrorMessage: "no such deployment: " + req.Bean.String()})
		return func() {}
	}

	var session *domain.Session
	sessionID := req.Affinity.SessionID
	if bean.Stateful && req.Affinity.Kind != domain.AffinitySession {
		s, err := h.newSession(req.Bean)
		if err != nil {
			h.write(w, domain.InvocationResponse{ID: req.ID, Kind: domain.ResponseException, ErrorMessage: err.Error()})
			return func() {}
		}
		session, sessionID = &s, s.ID
		level.Debug(h.logger).Log("msg", "converted to stateful", "bean", req.Bean.String(), "session", s.ID, "affinity", s.Affinity)
	}

	method, ok := bean.Methods[req.Method.String()]
	if !ok {
		h.write(w, domain.InvocationResponse{ID: req.ID, Kind: domain.ResponseNoSuchMethod, ErrorMessage: fmt.Sprintf("no such method %s on %s", req.Method, req.Bean)})
		return func() {}
	}

	if method.OneWay {
		h.write(w, domain.InvocationResponse{ID: req.ID, Kind: domain.ResponseResult, Session: session})
		octx := context.WithoutCancel(ctx)
		h.executor.Execute(func() {
			if _, err := method.Func(octx, sessionID, req.Params); err != nil {
				level.Info(h.logger).Log("msg", "one-way method failed", "method", req.Method.String(), "err", err)
			}
		})
		return func() {}
	}

	mctx, mcancel := context.WithCancel(ctx)
	var cancelled atomic.Bool
	h.executor.Execute(func() {
		defer mcancel()
		if cancelled.Load() {
			h.write(w, domain.InvocationResponse{ID: req.ID, Kind: domain.ResponseCancelled, Session: session})
			return
		}
		value, err := method.Func(mctx, sessionID, req.Params)
		if err != nil {
			h.write(w, domain.InvocationResponse{ID: req.ID, Kind: domain.ResponseException, ErrorMessage: err.Error(), Session: session})
			return
		}
		h.write(w, domain.InvocationResponse{ID: req.ID, Kind: domain.ResponseResult, Value: value, Session: session})
	})
	return func() {
		cancelled.Store(true)
		mcancel()
	}
}

// HandleSessionOpen creates a session for a stateful bean and writes session_opened with it.
func (h *InvocationHandler) HandleSessionOpen(ctx context.Context, req domain.InvocationRequest, w interfaces.ResponseWriter) func() {
	bean, ok := h.deployments.Find(req.Bean)
	if !ok {
		h.write(w, domain.InvocationResponse{ID: req.ID, Kind: domain.ResponseNoSuchDeployment, ErrorMessage: "no such deployment: " + req.Bean.String()})
		return func() {}
	}
	if !bean.Stateful {
		h.write(w, domain.InvocationResponse{ID: req.ID, Kind: domain.ResponseException, ErrorMessage: fmt.Sprintf("%s is not a stateful bean", req.Bean)})
		return func() {}
	}
	var cancelled atomic.Bool
	h.executor.Execute(func() {
		if cancelled.Load() {
			h.write(w, domain.InvocationResponse{ID: req.ID, Kind: domain.ResponseCancelled})
			return
		}
		s, err := h.newSession(req.Bean)
		if err != nil {
			h.write(w, domain.InvocationResponse{ID: req.ID, Kind: domain.ResponseException, ErrorMessage: err.Error()})
			return
		}
		h.write(w, domain.InvocationResponse{ID: req.ID, Kind: domain.ResponseSessionOpened, Session: &s})
	})
	return func() { cancelled.Store(true) }
}

// newSession mints a session whose affinity is the node's cluster when the node is currently a
// member of it, else the node itself.
func (h *InvocationHandler) newSession(bean domain.BeanIdentifier) (domain.Session, error) {
	target := domain.NodeAffinity(h.node)
	if h.cluster != "" && h.clusters.IsClusterMember(h.cluster, h.node) {
		target = domain.ClusterAffinity(h.cluster)
	}
	id := domain.NewSessionID()
	affinity, err := domain.SessionAffinity(id, target)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{ID: id, Bean: bean, Affinity: affinity, Node: h.node, CreatedAt: h.clock.Now()}, nil
}

func (h *InvocationHandler) write(w interfaces.ResponseWriter, resp domain.InvocationResponse) {
	if err := w.Write(resp); err != nil {
		level.Debug(h.logger).Log("msg", "response dropped", "invocation", resp.ID, "kind", resp.Kind, "err", err)
	}
}
