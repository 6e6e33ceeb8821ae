package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"myejbclient/domain"
	"myejbclient/helpers"
	"myejbclient/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// discoveryCoordinator implements interfaces.DiscoveryCoordinator. One Discover call is one run of
// the Idle → Searching → Found | TimedOut state machine:
//   - every candidate is attempted concurrently through the pool, each attempt bounded by ConnectTimeout;
//   - the first reachable candidate arms the AdditionalNodeTimeout timer;
//   - the run commits when that timer fires or every attempt has answered, choosing the reachable
//     candidate with the lowest resolver index;
//   - Timeout (capped by the ctx deadline) with nothing reachable is TimedOut.
//
// When the preferred candidate already has a healthy pooled connection the run commits to it at
// once: no other candidate could win.
//
// Attempts still running at commit are cancelled. A hung dial (black hole) turns into a
// ConnectError when its attempt deadline passes, so it never holds a run beyond the budgets.
type discoveryCoordinator struct {
	pool   interfaces.ConnectionPool
	cfg    domain.DiscoveryConfig
	logger log.Logger
}

// attemptResult is the answer of one connection attempt.
type attemptResult struct {
	candidate domain.Candidate
	conn      interfaces.Connection
	err       error
}

// NewDiscoveryCoordinator creates a coordinator. Panics on nil pool or logger and on invalid cfg.
//
// Parameters: pool: source of connections (dial or cached); cfg: the three discovery budgets (validated); logger: state transitions at debug.
//
// Returns: interfaces.DiscoveryCoordinator (*discoveryCoordinator).
//
// Called from service.NewClientContext.
func NewDiscoveryCoordinator(pool interfaces.ConnectionPool, cfg domain.DiscoveryConfig, logger log.Logger) interfaces.DiscoveryCoordinator {
	if err := cfg.Validate(); err != nil {
		panic("service.discovery_coordinator.go: " + err.Error())
	}
	return &discoveryCoordinator{
		pool:   helpers.NilPanic(pool, "service.discovery_coordinator.go: pool is required"),
		cfg:    cfg,
		logger: log.With(helpers.NilPanic(logger, "service.discovery_coordinator.go: logger is required"), "component", "discovery"),
	}
}

// Discover runs one search over candidates.
//
// Parameters: ctx: cancellation aborts the run at once; a ctx deadline earlier than Timeout becomes the total budget; candidates: resolver output (Index order is preference order).
//
// Returns: (Selection, nil) on Found; (Selection{}, ErrDiscoveryTimeout) on TimedOut;
// (Selection{}, *NoAvailableNodeError) when every attempt failed first;
// (Selection{}, ctx.Err()) when ctx is cancelled.
//
// Called from invocationDispatcher.run.
func (d *discoveryCoordinator) Discover(ctx context.Context, candidates []domain.Candidate) (interfaces.Selection, error) {
	if len(candidates) == 0 {
		return interfaces.Selection{}, &NoAvailableNodeError{}
	}
	start := time.Now()
	if sel, ok := d.connected(candidates, start); ok {
		return sel, nil
	}
	budget := d.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < budget {
		budget = time.Until(deadline)
	}
	d.transition(domain.DiscoveryIdle, domain.DiscoverySearching, "candidates", len(candidates), "budget", budget)

	attemptCtx, cancelAttempts := context.WithCancel(ctx)
	defer cancelAttempts()

	results := make(chan attemptResult, len(candidates))
	for _, c := range candidates {
		go d.attempt(attemptCtx, c, results)
	}

	total := time.NewTimer(budget)
	defer total.Stop()
	var (
		additional  *time.Timer
		additionalC <-chan time.Time
		reachable   []attemptResult
		failures    []*ConnectError
		pending     = len(candidates)
	)
	defer func() {
		if additional != nil {
			additional.Stop()
		}
	}()

	for {
		select {
		case r := <-results:
			pending--
			if r.err != nil {
				failures = append(failures, &ConnectError{Node: r.candidate.Node.Name, Address: r.candidate.Mapping.Address(), Err: r.err})
			} else {
				reachable = append(reachable, r)
				if len(reachable) == 1 {
					if d.cfg.AdditionalNodeTimeout == 0 {
						return d.commit(reachable, start, "first_reachable")
					}
					level.Debug(d.logger).Log("msg", "first node reachable", "node", r.candidate.Node.Name, "elapsed", time.Since(start), "additional_timeout", d.cfg.AdditionalNodeTimeout)
					additional = time.NewTimer(d.cfg.AdditionalNodeTimeout)
					additionalC = additional.C
				}
			}
			if pending == 0 {
				if len(reachable) > 0 {
					return d.commit(reachable, start, "all_answered")
				}
				d.transition(domain.DiscoverySearching, domain.DiscoveryTimedOut, "reason", "all_failed", "elapsed", time.Since(start))
				return interfaces.Selection{}, &NoAvailableNodeError{Failures: failures}
			}
		case <-additionalC:
			return d.commit(reachable, start, "additional_timeout")
		case <-total.C:
			return d.timeout(reachable, failures, start)
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return d.timeout(reachable, failures, start)
			}
			d.transition(domain.DiscoverySearching, domain.DiscoveryIdle, "reason", "cancelled", "elapsed", time.Since(start))
			return interfaces.Selection{}, ctx.Err()
		}
	}
}

// connected returns the preferred candidate when the pool holds a healthy connection to it.
func (d *discoveryCoordinator) connected(candidates []domain.Candidate, start time.Time) (interfaces.Selection, bool) {
	best := slices.MinFunc(candidates, func(a, b domain.Candidate) int { return a.Index - b.Index })
	conn, ok := d.pool.Cached(best.Node.Name)
	if !ok {
		return interfaces.Selection{}, false
	}
	sel, _ := d.commit([]attemptResult{{candidate: best, conn: conn}}, start, "already_connected")
	return sel, true
}

// attempt connects to one candidate under the per-attempt timeout and always posts one result.
func (d *discoveryCoordinator) attempt(ctx context.Context, c domain.Candidate, results chan<- attemptResult) {
	actx, cancel := context.WithTimeout(ctx, d.cfg.ConnectTimeout)
	defer cancel()
	conn, err := d.pool.Get(actx, c)
	results <- attemptResult{candidate: c, conn: conn, err: err}
}

// commit picks the reachable candidate with the lowest index.
func (d *discoveryCoordinator) commit(reachable []attemptResult, start time.Time, reason string) (interfaces.Selection, error) {
	sorted := slices.Clone(reachable)
	slices.SortFunc(sorted, func(a, b attemptResult) int { return a.candidate.Index - b.candidate.Index })
	best := sorted[0]
	sel := interfaces.Selection{Candidate: best.candidate, Connection: best.conn, Reachable: make([]domain.Candidate, 0, len(sorted))}
	for _, r := range sorted {
		sel.Reachable = append(sel.Reachable, r.candidate)
	}
	d.transition(domain.DiscoverySearching, domain.DiscoveryFound, "reason", reason, "node", best.candidate.Node.Name, "reachable", len(sorted), "elapsed", time.Since(start))
	return sel, nil
}

// timeout ends the run when the total budget is spent; a node found in the meantime still wins.
func (d *discoveryCoordinator) timeout(reachable []attemptResult, failures []*ConnectError, start time.Time) (interfaces.Selection, error) {
	if len(reachable) > 0 {
		return d.commit(reachable, start, "total_timeout")
	}
	d.transition(domain.DiscoverySearching, domain.DiscoveryTimedOut, "reason", "total_timeout", "failed", len(failures), "elapsed", time.Since(start))
	return interfaces.Selection{}, fmt.Errorf("%w after %s", ErrDiscoveryTimeout, time.Since(start).Round(time.Millisecond))
}

func (d *discoveryCoordinator) transition(from, to domain.DiscoveryState, keyvals ...any) {
	level.Debug(d.logger).Log(append([]any{"msg", "discovery state", "from", from, "to", to}, keyvals...)...)
}
