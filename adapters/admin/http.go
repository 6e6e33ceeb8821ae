// Package admin serves a node's read-only HTTP API: cluster topology, deployed modules and a
// MyDiscoverer-compatible instance listing that clients can use as a node source.
package admin

import (
	"net/http"

	"myejbclient/domain"
	"myejbclient/helpers"
	"myejbclient/interfaces"
	"myejbclient/service"

	"github.com/go-kit/log"
	"github.com/labstack/echo/v4"
)

// HTTPServer answers the admin routes from the node's registries.
type HTTPServer struct {
	self     domain.NodeInfo
	clusters *service.ClusterRegistry
	modules  *service.ModuleAvailabilityRegistry
	clock    interfaces.TimeProvider
	logger   log.Logger
}

// NewHTTPServer creates the admin server. Panics on nil dependencies or an unnamed node.
//
// Parameters: self: this node (listed first by /v1/instances); clusters, modules: the node's registries.
//
// Called from cmd/node.
func NewHTTPServer(self domain.NodeInfo, clusters *service.ClusterRegistry, modules *service.ModuleAvailabilityRegistry, clock interfaces.TimeProvider, logger log.Logger) *HTTPServer {
	helpers.StrPanic(self.Name, "admin.http.go: node name is required")
	return &HTTPServer{
		self:     self.Clone(),
		clusters: helpers.NilPanic(clusters, "admin.http.go: clusters is required"),
		modules:  helpers.NilPanic(modules, "admin.http.go: modules is required"),
		clock:    helpers.NilPanic(clock, "admin.http.go: clock is required"),
		logger:   log.With(helpers.NilPanic(logger, "admin.http.go: logger is required"), "component", "admin_http"),
	}
}

// RegisterHandlers adds the admin routes and error handler to e.
func (h *HTTPServer) RegisterHandlers(e *echo.Echo) {
	RegisterErrorHandler(e, h.logger)
	e.GET("/v1/clusters", h.GetClusters)
	e.GET("/v1/clusters/:name", h.GetCluster)
	e.GET("/v1/modules", h.GetModules)
	e.GET("/v1/instances", h.GetInstances)
}

// GetClusters (GET /v1/clusters) returns the topology snapshot.
func (h *HTTPServer) GetClusters(ectx echo.Context) error {
	return ectx.JSON(http.StatusOK, toClustersResponse(h.clusters.Snapshot()))
}

// GetCluster (GET /v1/clusters/{name}) returns one cluster; 404 when unknown.
func (h *HTTPServer) GetCluster(ectx echo.Context) error {
	name := ectx.Param("name")
	c, ok := h.clusters.Cluster(name)
	if !ok {
		return NewAdminError(ErrEntityNotFound, "cluster not found", nil)
	}
	return ectx.JSON(http.StatusOK, toClustersResponse(domain.Topology{Clusters: []domain.ClusterInfo{c}}).Clusters[0])
}

// GetModules (GET /v1/modules) returns every node's deployments.
func (h *HTTPServer) GetModules(ectx echo.Context) error {
	return ectx.JSON(http.StatusOK, toModulesResponse(h.modules.Snapshot()))
}

// GetInstances (GET /v1/instances) lists this node and its cluster members in the MyDiscoverer format.
func (h *HTTPServer) GetInstances(ectx echo.Context) error {
	instances := toInstances(h.self, h.clusters.Snapshot(), h.clock.Now())
	if len(instances) == 0 {
		return NewAdminError(ErrEntityNotFound, "Entity not found", nil)
	}
	return ectx.JSON(http.StatusOK, InstancesResponse{Instances: instances})
}
