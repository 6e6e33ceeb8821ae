package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"myejbclient/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscovererHTTP_Panics(t *testing.T) {
	t.Run("baseURL_empty", func(t *testing.T) {
		assert.PanicsWithValue(t, "adapters.discoverer.go: baseURL is required", func() {
			DiscovererHTTP("", &http.Client{})
		})
	})
	t.Run("client_nil", func(t *testing.T) {
		assert.PanicsWithValue(t, "adapters.discoverer.go: http client is required", func() {
			DiscovererHTTP("http://localhost:8080", nil)
		})
	})
}

func TestDiscovererHTTP_GetNodes(t *testing.T) {
	tests := []struct {
		name           string
		statusCode     int
		body           string
		wantNodes      []domain.NodeInfo
		wantErr        bool
		wantErrContain string
	}{
		{
			name:       "success",
			statusCode: http.StatusOK,
			body:       `{"instances":[{"instance_id":"n1","ipv4":"127.0.0.1","port":9000}]}`,
			wantNodes: []domain.NodeInfo{
				{Name: "n1", Mappings: []domain.MappingInfo{{DestHost: "127.0.0.1", DestPort: 9000}}},
			},
		},
		{
			name:       "success_empty_list",
			statusCode: http.StatusOK,
			body:       `{"instances":[]}`,
			wantNodes:  []domain.NodeInfo{},
		},
		{
			name:       "success_extra_fields_ignored",
			statusCode: http.StatusOK,
			body:       `{"instances":[{"instance_id":"n2","service_type":"ejb","ipv4":"10.0.0.1","port":9001,"ttl_ms":5000}]}`,
			wantNodes: []domain.NodeInfo{
				{Name: "n2", Mappings: []domain.MappingInfo{{DestHost: "10.0.0.1", DestPort: 9001}}},
			},
		},
		{
			name:       "404_treated_as_empty_list",
			statusCode: http.StatusNotFound,
			body:       `{}`,
			wantNodes:  []domain.NodeInfo{},
		},
		{
			name:           "non_200_returns_error",
			statusCode:     http.StatusInternalServerError,
			body:           `{}`,
			wantErr:        true,
			wantErrContain: "500",
		},
		{
			name:       "invalid_json_returns_error",
			statusCode: http.StatusOK,
			body:       `not json`,
			wantErr:    true,
		},
		{
			name:           "missing_instances_returns_error",
			statusCode:     http.StatusOK,
			body:           `{}`,
			wantErr:        true,
			wantErrContain: "missing instances",
		},
		{
			name:           "instance_without_port_returns_error",
			statusCode:     http.StatusOK,
			body:           `{"instances":[{"instance_id":"n3","ipv4":"10.0.0.1"}]}`,
			wantErr:        true,
			wantErrContain: "incomplete instance",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotMethod, gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				gotPath = r.URL.Path
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			got, err := DiscovererHTTP(server.URL, server.Client()).GetNodes(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				if tt.wantErrContain != "" {
					assert.Contains(t, err.Error(), tt.wantErrContain)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, http.MethodGet, gotMethod)
			assert.Equal(t, "/v1/instances", gotPath)
			assert.Equal(t, tt.wantNodes, got)
		})
	}
}

func TestDiscovererHTTP_GetNodesHonoursContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := DiscovererHTTP(server.URL, server.Client()).GetNodes(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
