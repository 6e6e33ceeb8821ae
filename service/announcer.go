package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"myejbclient/domain"
	"myejbclient/helpers"
	"myejbclient/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Announcer keeps a node's instance in a shared cache while the node runs: the entry is rewritten
// every ttl/3 so it expires after ttl when the node dies, and deleted when Run returns.
type Announcer struct {
	cache    interfaces.Cache[domain.Instance]
	node     domain.NodeInfo
	ttl      time.Duration
	interval time.Duration
	clock    interfaces.TimeProvider
	logger   log.Logger
}

// NewAnnouncer creates an announcer for node. Panics on nil dependencies, non-positive ttl or a node
// without an unconstrained mapping (nothing a remote caller could dial).
//
// Called from cmd/node when REDIS_ADDR is set.
func NewAnnouncer(cache interfaces.Cache[domain.Instance], node domain.NodeInfo, ttl time.Duration, clock interfaces.TimeProvider, logger log.Logger) *Announcer {
	helpers.StrPanic(node.Name, "service.announcer.go: node name is required")
	if _, ok := domain.InstanceOf(node, time.Time{}, ttl); !ok {
		panic("service.announcer.go: node has no announceable mapping")
	}
	ttl = helpers.DurationPanic(ttl, "service.announcer.go: ttl must be positive")
	return &Announcer{
		cache:    helpers.NilPanic(cache, "service.announcer.go: cache is required"),
		node:     node.Clone(),
		ttl:      ttl,
		interval: max(ttl/3, time.Millisecond),
		clock:    helpers.NilPanic(clock, "service.announcer.go: clock is required"),
		logger:   log.With(helpers.NilPanic(logger, "service.announcer.go: logger is required"), "component", "announcer", "node", node.Name),
	}
}

// Announce writes the instance once.
func (a *Announcer) Announce(ctx context.Context) error {
	inst, _ := domain.InstanceOf(a.node, a.clock.Now(), a.ttl)
	if err := a.cache.WriteValue(ctx, a.node.Name, inst, a.ttl); err != nil {
		return fmt.Errorf("announce %s: %w", a.node.Name, err)
	}
	return nil
}

// Run announces until ctx ends, then withdraws the instance. A failed write is logged and retried
// on the next tick.
//
// Returns: the first Announce error when the initial write fails; nil after ctx ends.
func (a *Announcer) Run(ctx context.Context) error {
	if err := a.Announce(ctx); err != nil {
		return err
	}
	level.Info(a.logger).Log("msg", "node announced", "ttl", a.ttl)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.ttl)
			defer cancel()
			if err := a.cache.DeleteValue(wctx, a.node.Name); err != nil {
				level.Warn(a.logger).Log("msg", "withdraw failed, entry expires with its ttl", "err", err)
			} else {
				level.Info(a.logger).Log("msg", "node withdrawn")
			}
			return nil
		case <-ticker.C:
			if err := a.Announce(ctx); err != nil && ctx.Err() == nil {
				level.Warn(a.logger).Log("msg", "announce failed", "err", err)
			}
		}
	}
}

// CacheNodeSource lists the nodes announced in a shared cache.
type CacheNodeSource struct {
	cache interfaces.Cache[domain.Instance]
}

var _ interfaces.NodeSource = (*CacheNodeSource)(nil)

// NewCacheNodeSource panics on nil cache.
func NewCacheNodeSource(cache interfaces.Cache[domain.Instance]) *CacheNodeSource {
	return &CacheNodeSource{cache: helpers.NilPanic(cache, "service.announcer.go: cache is required")}
}

// GetNodes returns the announced nodes sorted by name. Incomplete announcements are skipped.
func (s *CacheNodeSource) GetNodes(ctx context.Context) ([]domain.NodeInfo, error) {
	instances, err := s.cache.ListAllValues(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.NodeInfo, 0, len(instances))
	for _, inst := range instances {
		n, err := inst.Node()
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
