package service

import (
	"testing"

	"myejbclient/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_PutKeepsFirstAffinity(t *testing.T) {
	s := NewSessionStore()
	first, err := domain.SessionAffinity("s-1", domain.NodeAffinity("n1"))
	require.NoError(t, err)
	second, err := domain.SessionAffinity("s-1", domain.NodeAffinity("n2"))
	require.NoError(t, err)

	got, inserted := s.Put(domain.Session{ID: "s-1", Affinity: first})
	assert.True(t, inserted)
	assert.Equal(t, first, got.Affinity)

	got, inserted = s.Put(domain.Session{ID: "s-1", Affinity: second})
	assert.False(t, inserted)
	assert.Equal(t, first, got.Affinity)

	stored, ok := s.Get("s-1")
	require.True(t, ok)
	assert.Equal(t, first, stored.Affinity)
	assert.Equal(t, 1, s.Len())

	s.Forget("s-1")
	_, ok = s.Get("s-1")
	assert.False(t, ok)
}

func TestExecutors(t *testing.T) {
	t.Run("same_goroutine_runs_inline", func(t *testing.T) {
		ran := false
		SameGoroutineExecutor{}.Execute(func() { ran = true })
		assert.True(t, ran)
	})
	t.Run("go_executor_runs_async", func(t *testing.T) {
		done := make(chan struct{})
		GoExecutor{}.Execute(func() { close(done) })
		<-done
	})
}

func TestInvocation_StateTransitions(t *testing.T) {
	t.Run("complete_then_cancel", func(t *testing.T) {
		aborted := 0
		inv := newInvocation(domain.InvocationRequest{ID: "i"}, func() { aborted++ })
		assert.Equal(t, domain.InvocationPending, inv.State())
		assert.True(t, inv.complete(domain.Outcome{Kind: domain.OutcomeResult}))
		assert.False(t, inv.Cancel())
		assert.False(t, inv.complete(domain.Outcome{Kind: domain.OutcomeResult}))
		assert.Equal(t, domain.InvocationCompleted, inv.State())
		assert.Equal(t, 1, aborted)
	})
	t.Run("cancel_then_complete", func(t *testing.T) {
		inv := newInvocation(domain.InvocationRequest{ID: "i"}, func() {})
		assert.True(t, inv.Cancel())
		assert.False(t, inv.complete(domain.Outcome{Kind: domain.OutcomeResult}))
		assert.Equal(t, domain.InvocationCancelled, inv.State())
		out := <-inv.outcome
		assert.Equal(t, domain.OutcomeCancelled, out.Kind)
	})
	t.Run("cancel_before_send_defers_signal_to_sender", func(t *testing.T) {
		inv := newInvocation(domain.InvocationRequest{ID: "i"}, func() {})
		inv.attach(nil, "n1")
		assert.True(t, inv.Cancel())
		assert.True(t, inv.markSent())
	})
}
