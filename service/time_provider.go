package service

import (
	"time"

	"myejbclient/helpers"
	"myejbclient/interfaces"
)

// timeProvider implements interfaces.TimeProvider. It returns the current time via the injected now func.
// Used by service.InvocationHandler to stamp new sessions. Built in cmd/node with time.Now().UTC.
type timeProvider struct {
	now func() time.Time
}

// NewTimeProvider creates a TimeProvider that returns time via the given now func. Panics on nil now.
//
// Parameter now: no-arg function returning current time (in prod: time.Now().UTC, in tests: helpers.TestNow).
//
// Returns: interfaces.TimeProvider (*timeProvider).
//
// Called from cmd/node when building the invocation handler.
func NewTimeProvider(now func() time.Time) interfaces.TimeProvider {
	return &timeProvider{now: helpers.NilPanic(now, "service.time_provider.go: now is required")}
}

// Now returns current time from the injected function.
//
// Called from service.InvocationHandler.newSession for Session.CreatedAt.
func (t *timeProvider) Now() time.Time {
	return t.now()
}
