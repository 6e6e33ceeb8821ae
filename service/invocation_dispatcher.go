package service

import (
	"context"
	"errors"
	"fmt"

	"myejbclient/domain"
	"myejbclient/helpers"
	"myejbclient/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// invocationDispatcher implements interfaces.InvocationDispatcher. Every invocation follows the
// same path on the executor: resolve affinity, discover a node, open a channel, send, await the one
// response. A send failure before any reply excludes that node and re-runs resolve and discover while
// the invocation's discovery budget lasts; a request that cannot be encoded and every other error
// are terminal.
type invocationDispatcher struct {
	resolver    interfaces.AffinityResolver
	coordinator interfaces.DiscoveryCoordinator
	pool        interfaces.ConnectionPool
	sessions    *SessionStore
	executor    interfaces.Executor
	cfg         domain.DiscoveryConfig
	logger      log.Logger
}

// NewInvocationDispatcher creates the dispatcher. Panics on any nil dependency.
//
// Parameters: cfg: discovery budgets; cfg.Timeout bounds all discovery rounds of one invocation together.
//
// Returns: *invocationDispatcher (also exposes OpenSession).
//
// Called from service.NewClientContext.
func NewInvocationDispatcher(
	resolver interfaces.AffinityResolver,
	coordinator interfaces.DiscoveryCoordinator,
	pool interfaces.ConnectionPool,
	sessions *SessionStore,
	executor interfaces.Executor,
	cfg domain.DiscoveryConfig,
	logger log.Logger,
) *invocationDispatcher {
	return &invocationDispatcher{
		resolver:    helpers.NilPanic(resolver, "service.invocation_dispatcher.go: resolver is required"),
		coordinator: helpers.NilPanic(coordinator, "service.invocation_dispatcher.go: coordinator is required"),
		pool:        helpers.NilPanic(pool, "service.invocation_dispatcher.go: pool is required"),
		sessions:    helpers.NilPanic(sessions, "service.invocation_dispatcher.go: sessions is required"),
		executor:    helpers.NilPanic(executor, "service.invocation_dispatcher.go: executor is required"),
		cfg:         cfg,
		logger:      log.With(helpers.NilPanic(logger, "service.invocation_dispatcher.go: logger is required"), "component", "dispatcher"),
	}
}

// Dispatch starts req and returns at once (unless the executor runs inline).
//
// Parameters: ctx: cancelling it cancels the invocation like CancelHandle.Cancel; req: an empty ID is minted; a session affinity whose session is known is replaced by the stored one.
//
// Returns: CancelHandle and a channel receiving exactly one Outcome, then closed.
//
// Called from ClientContext.CreateInvocation and OpenSession.
func (d *invocationDispatcher) Dispatch(ctx context.Context, req domain.InvocationRequest) (interfaces.CancelHandle, <-chan domain.Outcome) {
	if req.ID == "" {
		req.ID = domain.NewInvocationID()
	}
	if req.Affinity.Kind == domain.AffinitySession {
		if s, ok := d.sessions.Get(req.Affinity.SessionID); ok {
			req.Affinity = s.Affinity
		}
	}
	rctx, abort := context.WithCancel(ctx)
	inv := newInvocation(req, abort)
	go func() {
		<-rctx.Done()
		inv.Cancel()
	}()
	d.executor.Execute(func() { d.run(rctx, inv) })
	return inv, inv.outcome
}

// OpenSession sends a session-open request for bean and waits for the session.
//
// Returns: (session, nil); (Session{}, error) when the invocation failed, was cancelled or the node returned no session.
func (d *invocationDispatcher) OpenSession(ctx context.Context, bean domain.BeanIdentifier, affinity domain.Affinity) (domain.Session, error) {
	_, done := d.Dispatch(ctx, domain.InvocationRequest{Bean: bean, Affinity: affinity, SessionOpen: true})
	out := <-done
	if out.Err != nil {
		return domain.Session{}, out.Err
	}
	if out.Session == nil {
		return domain.Session{}, fmt.Errorf("node %s returned no session for %s", out.Node, bean)
	}
	return *out.Session, nil
}

// run drives inv to its terminal outcome. ctx is the invocation context; Cancel aborts it.
func (d *invocationDispatcher) run(ctx context.Context, inv *invocation) {
	req := inv.req
	logger := log.With(d.logger, "invocation", req.ID, "bean", req.Bean.String())
	dctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	excluded := make(map[string]bool)
	var sendFailures []*ConnectError
	for {
		candidates, err := d.resolver.Resolve(req.Bean, req.Affinity)
		if err != nil {
			inv.complete(failed(err, ""))
			return
		}
		candidates = withoutNodes(candidates, excluded)
		if len(candidates) == 0 {
			inv.complete(failed(&NoAvailableNodeError{Failures: sendFailures}, ""))
			return
		}

		sel, err := d.coordinator.Discover(dctx, candidates)
		if err != nil {
			if inv.cancelled() {
				return
			}
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				err = fmt.Errorf("%w: %w", ErrDiscoveryTimeout, err)
			}
			inv.complete(failed(err, ""))
			return
		}
		nodeName := sel.Candidate.Node.Name

		ch, err := sel.Connection.OpenChannel(ctx)
		if err == nil {
			inv.attach(ch, nodeName)
			if inv.State() != domain.InvocationPending {
				_ = ch.Close()
				return
			}
			err = ch.Send(ctx, req)
			if err != nil {
				_ = ch.Close()
			}
		}
		if err != nil {
			if inv.cancelled() {
				return
			}
			if errors.Is(err, ErrMalformedRequest) {
				inv.complete(failed(err, nodeName))
				return
			}
			level.Info(logger).Log("msg", "send failed, excluding node", "node", nodeName, "err", err)
			d.pool.OnNodeFailure(nodeName)
			excluded[nodeName] = true
			sendFailures = append(sendFailures, &ConnectError{Node: nodeName, Address: sel.Candidate.Mapping.Address(), Err: err})
			continue
		}
		if inv.markSent() {
			sendCancel(ch, req.ID)
		}
		if req.OneWay {
			_ = ch.Close()
			inv.complete(domain.Outcome{Kind: domain.OutcomeResult, Node: nodeName})
			return
		}
		d.await(ctx, inv, ch, nodeName, logger)
		return
	}
}

// await receives the single response and completes inv with it.
func (d *invocationDispatcher) await(ctx context.Context, inv *invocation, ch interfaces.Channel, nodeName string, logger log.Logger) {
	resp, err := ch.Receive(ctx)
	_ = ch.Close()
	if err != nil {
		if inv.cancelled() {
			return
		}
		level.Info(logger).Log("msg", "receive failed", "node", nodeName, "err", err)
		d.pool.OnNodeFailure(nodeName)
		inv.complete(failed(fmt.Errorf("node %s: lost connection awaiting response: %w", nodeName, err), nodeName))
		return
	}
	out := d.outcome(inv.req, resp, nodeName)
	if inv.complete(out) {
		level.Debug(logger).Log("msg", "invocation completed", "node", nodeName, "kind", out.Kind)
	}
}

// outcome maps a node response onto the caller's outcome; a session carried by the response is stored first.
func (d *invocationDispatcher) outcome(req domain.InvocationRequest, resp domain.InvocationResponse, nodeName string) domain.Outcome {
	var session *domain.Session
	if resp.Session != nil {
		learned := *resp.Session
		if learned.Node == "" {
			learned.Node = nodeName
		}
		stored, _ := d.sessions.Put(learned)
		session = &stored
	}
	out := domain.Outcome{Node: nodeName, Session: session}
	switch resp.Kind {
	case domain.ResponseResult, domain.ResponseSessionOpened:
		out.Kind = domain.OutcomeResult
		out.Value = resp.Value
	case domain.ResponseException:
		out.Kind = domain.OutcomeException
		out.Err = &RemoteInvocationError{Message: resp.ErrorMessage}
	case domain.ResponseNoSuchDeployment:
		out.Kind = domain.OutcomeException
		out.Err = fmt.Errorf("%w: %s on node %s", ErrNoSuchDeployment, req.Bean, nodeName)
	case domain.ResponseNoSuchMethod:
		out.Kind = domain.OutcomeException
		out.Err = fmt.Errorf("%w: %s on %s", ErrNoSuchMethod, req.Method, req.Bean)
	case domain.ResponseCancelled:
		out.Kind = domain.OutcomeCancelled
		out.Err = ErrCancelled
	default:
		out.Kind = domain.OutcomeException
		out.Err = fmt.Errorf("node %s: unknown response kind %q", nodeName, resp.Kind)
	}
	return out
}

func failed(err error, nodeName string) domain.Outcome {
	return domain.Outcome{Kind: domain.OutcomeException, Err: err, Node: nodeName}
}

// withoutNodes drops excluded nodes and renumbers Index.
func withoutNodes(candidates []domain.Candidate, excluded map[string]bool) []domain.Candidate {
	if len(excluded) == 0 {
		return candidates
	}
	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if excluded[c.Node.Name] {
			continue
		}
		c.Index = len(out)
		out = append(out, c)
	}
	return out
}
