package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"myejbclient/domain"
	"myejbclient/interfaces"
)

// cancelSignalTimeout bounds the best-effort cancel write so Cancel never blocks on a stuck channel.
const cancelSignalTimeout = time.Second

// invocation is the state of one dispatched request. state moves from pending to exactly one of
// completed or cancelled (CAS, first writer wins); only the winner writes to outcome.
//
// The remaining fields coordinate the remote cancel signal: channel is the live channel once one is
// opened, sent is set after the request was written, and cancelSent makes sure the cancel signal
// is written at most once whether Cancel or the dispatcher notices the race first.
type invocation struct {
	req     domain.InvocationRequest
	state   atomic.Int32
	outcome chan domain.Outcome
	abort   context.CancelFunc

	mu         sync.Mutex
	channel    interfaces.Channel
	node       string
	sent       bool
	cancelSent bool
}

var _ interfaces.CancelHandle = (*invocation)(nil)

func newInvocation(req domain.InvocationRequest, abort context.CancelFunc) *invocation {
	return &invocation{req: req, outcome: make(chan domain.Outcome, 1), abort: abort}
}

// State returns the current tri-state flag.
func (i *invocation) State() domain.InvocationState {
	return domain.InvocationState(i.state.Load())
}

// complete delivers o unless the invocation already finished or was cancelled.
func (i *invocation) complete(o domain.Outcome) bool {
	if !i.state.CompareAndSwap(int32(domain.InvocationPending), int32(domain.InvocationCompleted)) {
		return false
	}
	i.outcome <- o
	close(i.outcome)
	i.abort()
	return true
}

// Cancel moves a pending invocation to cancelled. When the request was already written the
// cancel signal is sent to the node; the caller's outcome is delivered right after that write is
// handed off, without waiting for an acknowledgement.
func (i *invocation) Cancel() bool {
	if !i.state.CompareAndSwap(int32(domain.InvocationPending), int32(domain.InvocationCancelled)) {
		return false
	}
	i.mu.Lock()
	ch, node := i.channel, i.node
	signal := i.sent && !i.cancelSent && ch != nil
	if signal {
		i.cancelSent = true
	}
	i.mu.Unlock()
	if signal {
		sendCancel(ch, i.req.ID)
	}
	i.abort()
	i.outcome <- domain.Outcome{Kind: domain.OutcomeCancelled, Err: ErrCancelled, Node: node}
	close(i.outcome)
	return true
}

// attach records the channel the request is about to be written to.
func (i *invocation) attach(ch interfaces.Channel, node string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.channel = ch
	i.node = node
}

// markSent records that the request was written. Returns true when Cancel already ran without
// being able to signal the node; the caller must then send the cancel signal itself.
func (i *invocation) markSent() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.sent = true
	if i.State() == domain.InvocationCancelled && !i.cancelSent {
		i.cancelSent = true
		return true
	}
	return false
}

func (i *invocation) cancelled() bool {
	return i.State() == domain.InvocationCancelled
}

func sendCancel(ch interfaces.Channel, id string) {
	ctx, cancel := context.WithTimeout(context.Background(), cancelSignalTimeout)
	defer cancel()
	_ = ch.SendCancel(ctx, id)
}
