package service

import (
	"slices"
	"sync"
	"sync/atomic"

	"myejbclient/domain"
	"myejbclient/helpers"
	"myejbclient/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// ModuleAvailabilityRegistry tracks which modules (and which beans in them) are available on which
// node. Bean-level state is kept internally; every notification is scoped to module identifiers.
// Mutation and notification follow ClusterRegistry: serialized under mu, delivered after unlock in
// mutation order, possibly by another goroutine after the mutating call has returned.
type ModuleAvailabilityRegistry struct {
	logger log.Logger

	mu        sync.RWMutex
	nodes     map[string]*nodeModules
	nodeOrder []string
	listeners []*moduleRegistration

	events helpers.EventQueue
}

// nodeModules is the module table of one node; order is module registration order.
type nodeModules struct {
	modules map[domain.ModuleIdentifier][]string
	order   []domain.ModuleIdentifier
}

type moduleRegistration struct {
	listener interfaces.ModuleAvailabilityListener
	registry *ModuleAvailabilityRegistry
	closed   atomic.Bool
}

// NewModuleAvailabilityRegistry creates an empty registry. Panics on nil logger.
func NewModuleAvailabilityRegistry(logger log.Logger) *ModuleAvailabilityRegistry {
	return &ModuleAvailabilityRegistry{
		logger: log.With(helpers.NilPanic(logger, "service.module_registry.go: logger is required"), "component", "module_registry"),
		nodes:  make(map[string]*nodeModules),
	}
}

// Register marks bean of module as deployed on node and fires ModuleAvailable(node, [module]).
//
// Returns: false when the bean was already registered (no event).
func (r *ModuleAvailabilityRegistry) Register(node string, module domain.ModuleIdentifier, bean string) bool {
	r.mu.Lock()
	nm := r.nodeLocked(node)
	beans, ok := nm.modules[module]
	if ok && slices.Contains(beans, bean) {
		r.mu.Unlock()
		return false
	}
	if !ok {
		nm.order = append(nm.order, module)
	}
	nm.modules[module] = append(slices.Clone(beans), bean)
	r.fanOutLocked(func(l interfaces.ModuleAvailabilityListener) {
		l.ModuleAvailable(node, []domain.ModuleIdentifier{module})
	})
	r.mu.Unlock()
	r.events.Drain()
	return true
}

// Unregister removes bean of module from node. When that was the module's last bean the module is
// dropped and ModuleUnavailable(node, [module]) fires; otherwise ModuleAvailable(node, [module])
// re-announces the module with its reduced bean list.
//
// Returns: false when the bean was not registered (no event).
func (r *ModuleAvailabilityRegistry) Unregister(node string, module domain.ModuleIdentifier, bean string) bool {
	r.mu.Lock()
	nm, ok := r.nodes[node]
	if !ok {
		r.mu.Unlock()
		return false
	}
	beans := nm.modules[module]
	idx := slices.Index(beans, bean)
	if idx < 0 {
		r.mu.Unlock()
		return false
	}
	rest := slices.Delete(slices.Clone(beans), idx, idx+1)
	if len(rest) == 0 {
		r.dropModuleLocked(node, nm, module)
		r.fanOutLocked(func(l interfaces.ModuleAvailabilityListener) {
			l.ModuleUnavailable(node, []domain.ModuleIdentifier{module})
		})
	} else {
		nm.modules[module] = rest
		r.fanOutLocked(func(l interfaces.ModuleAvailabilityListener) {
			l.ModuleAvailable(node, []domain.ModuleIdentifier{module})
		})
	}
	r.mu.Unlock()
	r.events.Drain()
	return true
}

// ReportAvailable replaces, per module, the bean list of node with the reported one. Modules not in
// the report are left untouched. ModuleAvailable fires once with every module that is new or whose
// bean list changed.
//
// Called from ModuleAvailabilityApplier (client) and DeploymentRepository (node).
func (r *ModuleAvailabilityRegistry) ReportAvailable(node string, deployments []domain.ModuleDeployment) {
	r.mu.Lock()
	nm := r.nodeLocked(node)
	var changed []domain.ModuleIdentifier
	for _, d := range deployments {
		beans, ok := nm.modules[d.Module]
		if ok && slices.Equal(beans, d.Beans) {
			continue
		}
		if !ok {
			nm.order = append(nm.order, d.Module)
		}
		nm.modules[d.Module] = slices.Clone(d.Beans)
		if !slices.Contains(changed, d.Module) {
			changed = append(changed, d.Module)
		}
	}
	if len(nm.modules) == 0 {
		r.dropNodeLocked(node)
	}
	if len(changed) > 0 {
		r.fanOutLocked(func(l interfaces.ModuleAvailabilityListener) {
			l.ModuleAvailable(node, slices.Clone(changed))
		})
	}
	r.mu.Unlock()
	r.events.Drain()
}

// ReportUnavailable drops the listed modules of node and fires ModuleUnavailable with those that were present.
func (r *ModuleAvailabilityRegistry) ReportUnavailable(node string, modules []domain.ModuleIdentifier) {
	r.mu.Lock()
	nm, ok := r.nodes[node]
	if !ok {
		r.mu.Unlock()
		return
	}
	var removed []domain.ModuleIdentifier
	for _, m := range modules {
		if _, ok := nm.modules[m]; !ok {
			continue
		}
		r.dropModuleLocked(node, nm, m)
		removed = append(removed, m)
	}
	if len(removed) > 0 {
		r.fanOutLocked(func(l interfaces.ModuleAvailabilityListener) {
			l.ModuleUnavailable(node, slices.Clone(removed))
		})
	}
	r.mu.Unlock()
	r.events.Drain()
}

// RemoveNode forgets every module of node and fires ModuleUnavailable with all of them.
func (r *ModuleAvailabilityRegistry) RemoveNode(node string) {
	r.mu.Lock()
	nm, ok := r.nodes[node]
	if !ok {
		r.mu.Unlock()
		return
	}
	removed := slices.Clone(nm.order)
	r.dropNodeLocked(node)
	if len(removed) > 0 {
		r.fanOutLocked(func(l interfaces.ModuleAvailabilityListener) {
			l.ModuleUnavailable(node, slices.Clone(removed))
		})
	}
	r.mu.Unlock()
	level.Debug(r.logger).Log("msg", "node modules removed", "node", node, "modules", len(removed))
	r.events.Drain()
}

// NodesHosting returns the nodes hosting bean, in node registration order.
func (r *ModuleAvailabilityRegistry) NodesHosting(bean domain.BeanIdentifier) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, node := range r.nodeOrder {
		if r.hostsLocked(node, bean) {
			out = append(out, node)
		}
	}
	return out
}

// Hosts reports whether node hosts bean.
func (r *ModuleAvailabilityRegistry) Hosts(node string, bean domain.BeanIdentifier) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hostsLocked(node, bean)
}

// Beans returns the bean names of module on node.
func (r *ModuleAvailabilityRegistry) Beans(node string, module domain.ModuleIdentifier) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nm, ok := r.nodes[node]
	if !ok {
		return nil, false
	}
	beans, ok := nm.modules[module]
	return slices.Clone(beans), ok
}

// Snapshot returns every node's modules, nodes and modules in registration order.
func (r *ModuleAvailabilityRegistry) Snapshot() []domain.NodeDeployments {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.NodeDeployments, 0, len(r.nodeOrder))
	for _, node := range r.nodeOrder {
		nm := r.nodes[node]
		nd := domain.NodeDeployments{Node: node, Deployments: make([]domain.ModuleDeployment, 0, len(nm.order))}
		for _, m := range nm.order {
			nd.Deployments = append(nd.Deployments, domain.ModuleDeployment{Module: m, Beans: slices.Clone(nm.modules[m])})
		}
		out = append(out, nd)
	}
	return out
}

// AddListener registers listener and delivers ModuleAvailable once per node (node registration
// order) with everything currently available there, before any later incremental event.
func (r *ModuleAvailabilityRegistry) AddListener(listener interfaces.ModuleAvailabilityListener) interfaces.ListenerHandle {
	reg := &moduleRegistration{
		listener: helpers.NilPanic(listener, "service.module_registry.go: listener is required"),
		registry: r,
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, reg)
	for _, node := range r.nodeOrder {
		modules := slices.Clone(r.nodes[node].order)
		r.events.Enqueue(func() {
			if !reg.closed.Load() {
				reg.listener.ModuleAvailable(node, modules)
			}
		})
	}
	r.mu.Unlock()
	r.events.Drain()
	return reg
}

// Close unregisters the listener; idempotent.
func (reg *moduleRegistration) Close() {
	if reg.closed.Swap(true) {
		return
	}
	r := reg.registry
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.listeners {
		if l == reg {
			r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)
			return
		}
	}
}

func (r *ModuleAvailabilityRegistry) hostsLocked(node string, bean domain.BeanIdentifier) bool {
	nm, ok := r.nodes[node]
	if !ok {
		return false
	}
	beans, ok := nm.modules[bean.Module]
	if !ok {
		return false
	}
	return domain.ModuleDeployment{Module: bean.Module, Beans: beans}.Hosts(bean.BeanName)
}

func (r *ModuleAvailabilityRegistry) nodeLocked(node string) *nodeModules {
	nm, ok := r.nodes[node]
	if !ok {
		nm = &nodeModules{modules: make(map[domain.ModuleIdentifier][]string)}
		r.nodes[node] = nm
		r.nodeOrder = append(r.nodeOrder, node)
	}
	return nm
}

func (r *ModuleAvailabilityRegistry) dropModuleLocked(node string, nm *nodeModules, module domain.ModuleIdentifier) {
	delete(nm.modules, module)
	if i := slices.Index(nm.order, module); i >= 0 {
		nm.order = slices.Delete(nm.order, i, i+1)
	}
	if len(nm.modules) == 0 {
		r.dropNodeLocked(node)
	}
}

func (r *ModuleAvailabilityRegistry) dropNodeLocked(node string) {
	delete(r.nodes, node)
	if i := slices.Index(r.nodeOrder, node); i >= 0 {
		r.nodeOrder = slices.Delete(r.nodeOrder, i, i+1)
	}
}

func (r *ModuleAvailabilityRegistry) fanOutLocked(deliver func(l interfaces.ModuleAvailabilityListener)) {
	for _, reg := range r.listeners {
		r.events.Enqueue(func() {
			if !reg.closed.Load() {
				deliver(reg.listener)
			}
		})
	}
}
