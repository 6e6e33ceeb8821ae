package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"myejbclient/domain"
	"myejbclient/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Built-in bean names deployed on every node.
const (
	echoBeanName    = "Echo"
	counterBeanName = "Counter"
)

// maxSleep caps Echo.sleep so a caller cannot park a node goroutine for long.
const maxSleep = time.Minute

// counters holds the Counter bean state per session.
type counters struct {
	mu     sync.Mutex
	values map[domain.SessionID]int
}

func (c *counters) next(id domain.SessionID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[id]++
	return c.values[id]
}

// builtinBeans returns the beans a node deploys: Echo (stateless) and Counter (stateful; its state
// lives on the node that opened the session).
//
// Echo methods: echo(string) returns the argument; whoami() returns the node name; fail(string)
// raises the message; sleep(long) waits the given milliseconds unless cancelled; fire(string) is
// one-way and only logs. Counter methods: next() returns 1, 2, ... per session.
func builtinBeans(node string, logger log.Logger) []service.Bean {
	state := &counters{values: make(map[domain.SessionID]int)}
	return []service.Bean{
		{
			Name: echoBeanName,
			Methods: map[string]service.Method{
				"echo(string)": {Func: func(_ context.Context, _ domain.SessionID, p []any) (any, error) {
					return p[0], nil
				}},
				"whoami()": {Func: func(context.Context, domain.SessionID, []any) (any, error) {
					return node, nil
				}},
				"fail(string)": {Func: func(_ context.Context, _ domain.SessionID, p []any) (any, error) {
					return nil, errors.New(fmt.Sprint(p[0]))
				}},
				"sleep(long)": {Func: func(ctx context.Context, _ domain.SessionID, p []any) (any, error) {
					ms, ok := p[0].(float64)
					if !ok || ms < 0 {
						return nil, fmt.Errorf("sleep wants a non-negative number of milliseconds, got %v", p[0])
					}
					d := min(time.Duration(ms)*time.Millisecond, maxSleep)
					t := time.NewTimer(d)
					defer t.Stop()
					select {
					case <-t.C:
						return node, nil
					case <-ctx.Done():
						return nil, ctx.Err()
					}
				}},
				"fire(string)": {OneWay: true, Func: func(_ context.Context, _ domain.SessionID, p []any) (any, error) {
					level.Info(logger).Log("msg", "one-way call", "bean", echoBeanName, "arg", p[0])
					return nil, nil
				}},
			},
		},
		{
			Name:     counterBeanName,
			Stateful: true,
			Methods: map[string]service.Method{
				"next()": {Func: func(_ context.Context, s domain.SessionID, _ []any) (any, error) {
					return state.next(s), nil
				}},
			},
		},
	}
}
