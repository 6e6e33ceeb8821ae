package interfaces

import "time"

// TimeProvider supplies the current time for session timestamps.
// Injected so tests can use a fixed clock instead of time.Now().
//
// Used by service.InvocationHandler (Session.CreatedAt).
// Constructed in cmd binaries as service.NewTimeProvider(func() time.Time { return time.Now().UTC() }).
//
//go:generate moq -stub -out mock/time_provider.go -pkg mock . TimeProvider
type TimeProvider interface {
	// Now returns current time (UTC in prod; in tests: fixed time).
	Now() time.Time
}
