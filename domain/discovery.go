package domain

import (
	"fmt"
	"time"
)

// Default discovery budgets.
const (
	DefaultDiscoveryTimeout      = 30 * time.Second
	DefaultAdditionalNodeTimeout = 2 * time.Second
	DefaultConnectTimeout        = 5 * time.Second
)

// DiscoveryConfig holds the time budgets of node discovery.
// Timeout bounds the whole search; AdditionalNodeTimeout bounds the extra wait once one node is
// reachable (0 commits to the first reachable node); ConnectTimeout bounds every single attempt.
type DiscoveryConfig struct {
	Timeout               time.Duration
	AdditionalNodeTimeout time.Duration
	ConnectTimeout        time.Duration
}

// DefaultDiscoveryConfig returns the default budgets.
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		Timeout:               DefaultDiscoveryTimeout,
		AdditionalNodeTimeout: DefaultAdditionalNodeTimeout,
		ConnectTimeout:        DefaultConnectTimeout,
	}
}

// Validate checks that Timeout and ConnectTimeout are positive and AdditionalNodeTimeout is not negative.
//
// Returns: nil when valid; error naming the first invalid field.
//
// Called from service.NewDiscoveryCoordinator and cmd config loaders.
func (c DiscoveryConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("discovery timeout must be positive, got %s", c.Timeout)
	}
	if c.AdditionalNodeTimeout < 0 {
		return fmt.Errorf("additional node timeout must not be negative, got %s", c.AdditionalNodeTimeout)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive, got %s", c.ConnectTimeout)
	}
	return nil
}

// DiscoveryState is the state of one discovery run.
type DiscoveryState string

const (
	DiscoveryIdle      DiscoveryState = "idle"
	DiscoverySearching DiscoveryState = "searching"
	DiscoveryFound     DiscoveryState = "found"
	DiscoveryTimedOut  DiscoveryState = "timed_out"
)
