package helpers

import (
	"time"

	"myejbclient/domain"
)

// TestNow returns a fixed time (2026-02-11 12:00:00 UTC) for deterministic tests (session and announcement timestamps).
//
// Called from tests (e.g. service/invocation_handler_test, service/announcer_test, adapters/admin/http_test).
func TestNow() time.Time {
	return time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
}

// TestNode returns a node reachable by every caller on host:port through a single unconstrained mapping.
//
// Called from tests that need a plain announceable or listable node.
func TestNode(name, host string, port int) domain.NodeInfo {
	return domain.NodeInfo{Name: name, Mappings: []domain.MappingInfo{{DestHost: host, DestPort: port}}}
}
