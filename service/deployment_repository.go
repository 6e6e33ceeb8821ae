package service

import (
	"context"
	"sync"

	"myejbclient/domain"
	"myejbclient/helpers"
)

// MethodFunc runs one bean method. session is the invocation's session ("" for stateless calls).
type MethodFunc func(ctx context.Context, session domain.SessionID, params []any) (any, error)

// Method is one invocable bean method. OneWay methods are asynchronous void methods: the node replies
// before running them.
type Method struct {
	Func   MethodFunc
	OneWay bool
}

// Bean is a deployed component. Methods are keyed by MethodLocator.String(), e.g. "echo(string)".
// A Stateful bean addressed without a session gets one created on its first invocation.
type Bean struct {
	Name     string
	Stateful bool
	Methods  map[string]Method
}

// DeploymentRepository is the node's bean table. Every deploy and undeploy is mirrored into the
// node's ModuleAvailabilityRegistry under the node's own name, which feeds the watch streams of
// connected clients.
type DeploymentRepository struct {
	node    string
	modules *ModuleAvailabilityRegistry

	mu    sync.RWMutex
	beans map[domain.BeanIdentifier]Bean
}

// NewDeploymentRepository panics on empty node or nil modules.
//
// Called from cmd/node and grpcnode tests.
func NewDeploymentRepository(node string, modules *ModuleAvailabilityRegistry) *DeploymentRepository {
	return &DeploymentRepository{
		node:    helpers.StrPanic(node, "service.deployment_repository.go: node is required"),
		modules: helpers.NilPanic(modules, "service.deployment_repository.go: modules is required"),
		beans:   make(map[domain.BeanIdentifier]Bean),
	}
}

// Deploy adds or replaces bean in module.
func (r *DeploymentRepository) Deploy(module domain.ModuleIdentifier, bean Bean) {
	id := domain.BeanIdentifier{Module: module, BeanName: helpers.StrPanic(bean.Name, "service.deployment_repository.go: bean name is required")}
	r.mu.Lock()
	r.beans[id] = bean
	r.mu.Unlock()
	r.modules.Register(r.node, module, bean.Name)
}

// Undeploy removes the bean. Returns false when it was not deployed.
func (r *DeploymentRepository) Undeploy(id domain.BeanIdentifier) bool {
	r.mu.Lock()
	_, ok := r.beans[id]
	delete(r.beans, id)
	r.mu.Unlock()
	if !ok {
		return false
	}
	r.modules.Unregister(r.node, id.Module, id.BeanName)
	return true
}

// Find returns the deployed bean.
func (r *DeploymentRepository) Find(id domain.BeanIdentifier) (Bean, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.beans[id]
	return b, ok
}

// Node returns the name deployments are registered under.
func (r *DeploymentRepository) Node() string {
	return r.node
}

// Modules returns the availability registry the repository reports into.
func (r *DeploymentRepository) Modules() *ModuleAvailabilityRegistry {
	return r.modules
}
