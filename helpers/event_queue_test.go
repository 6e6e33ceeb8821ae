package helpers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_DeliversInOrder(t *testing.T) {
	var q EventQueue
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		q.Enqueue(func() { got = append(got, i) })
	}
	q.Drain()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestEventQueue_ReentrantEnqueueRunsAfterCurrent(t *testing.T) {
	var q EventQueue
	var got []string
	q.Enqueue(func() {
		got = append(got, "outer-start")
		q.Enqueue(func() { got = append(got, "inner") })
		q.Drain()
		got = append(got, "outer-end")
	})
	q.Drain()
	assert.Equal(t, []string{"outer-start", "outer-end", "inner"}, got)
}

func TestEventQueue_NilIgnored(t *testing.T) {
	var q EventQueue
	q.Enqueue(nil)
	q.Drain()
}

func TestEventQueue_PanicDoesNotWedge(t *testing.T) {
	var q EventQueue
	q.Enqueue(func() { panic("boom") })
	require.PanicsWithValue(t, "boom", func() { q.Drain() })
	ran := false
	q.Enqueue(func() { ran = true })
	q.Drain()
	assert.True(t, ran)
}

func TestEventQueue_ConcurrentProducers(t *testing.T) {
	var q EventQueue
	var mu sync.Mutex
	count := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(func() {
				mu.Lock()
				count++
				mu.Unlock()
			})
			q.Drain()
		}()
	}
	wg.Wait()
	q.Drain()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 20, count)
}

func TestEventQueue_DrainDuringOtherDrainerReturnsAtOnce(t *testing.T) {
	var q EventQueue
	entered := make(chan struct{})
	release := make(chan struct{})
	delivered := make(chan string, 2)
	q.Enqueue(func() {
		close(entered)
		<-release
		delivered <- "first"
	})
	done := make(chan struct{})
	go func() {
		q.Drain()
		close(done)
	}()
	<-entered

	q.Enqueue(func() { delivered <- "second" })
	q.Drain()
	assert.Empty(t, delivered, "the active drainer still holds the first event")

	close(release)
	<-done
	require.Len(t, delivered, 2)
	assert.Equal(t, "first", <-delivered)
	assert.Equal(t, "second", <-delivered)
}
