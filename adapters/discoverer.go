package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"myejbclient/domain"
	"myejbclient/helpers"
	"myejbclient/interfaces"
)

// requestTimeout caps one GET /v1/instances when the caller's context has no earlier deadline.
const requestTimeout = 5 * time.Second

// DiscovererHTTP creates an interfaces.NodeSource that reads the node list from a MyDiscoverer-compatible
// registry (or a node's admin API): GET baseURL/v1/instances. Panics on empty baseURL or nil client.
//
// Parameters: baseURL: registry base URL (e.g. http://mydiscoverer:8080), no trailing slash; client: HTTP client.
//
// Returns: interfaces.NodeSource (*discovererHTTP).
//
// Called from cmd/client for every configured discoverer URL.
func DiscovererHTTP(baseURL string, client *http.Client) interfaces.NodeSource {
	return &discovererHTTP{
		baseURL: helpers.StrPanic(baseURL, "adapters.discoverer.go: baseURL is required"),
		client:  helpers.NilPanic(client, "adapters.discoverer.go: http client is required"),
	}
}

type discovererHTTP struct {
	baseURL string
	client  *http.Client
}

// instancesResponse is the JSON shape of GET /v1/instances: { "instances": [ domain.Instance ] }.
type instancesResponse struct {
	Instances []domain.Instance `json:"instances"`
}

// GetNodes performs GET baseURL/v1/instances. A 404 (entity_not_found when nothing is registered) is an
// empty list. Every instance becomes a node with one unconstrained mapping ipv4:port.
//
// Returns: (nodes, nil) on 200 or 404; (nil, error) on other status, network error, bad JSON or an instance
// without id, address or port.
//
// Called from service.ClientContext.Refresh.
func (d *discovererHTTP) GetNodes(ctx context.Context) ([]domain.NodeInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/v1/instances", nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return []domain.NodeInfo{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discoverer returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var raw instancesResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if raw.Instances == nil {
		return nil, fmt.Errorf("discoverer response missing instances field")
	}
	out := make([]domain.NodeInfo, 0, len(raw.Instances))
	for _, r := range raw.Instances {
		node, err := r.Node()
		if err != nil {
			return nil, fmt.Errorf("discoverer returned %w", err)
		}
		out = append(out, node)
	}
	return out, nil
}
