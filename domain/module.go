package domain

// ModuleIdentifier names a deployment: application, module and distinct name (any may be empty
// except ModuleName).
type ModuleIdentifier struct {
	AppName      string
	ModuleName   string
	DistinctName string
}

// String returns "app/module/distinct" (empty parts kept so the form is unambiguous).
func (m ModuleIdentifier) String() string {
	return m.AppName + "/" + m.ModuleName + "/" + m.DistinctName
}

// BeanIdentifier names one bean inside a module.
type BeanIdentifier struct {
	Module   ModuleIdentifier
	BeanName string
}

// String returns "app/module/distinct/bean".
func (b BeanIdentifier) String() string {
	return b.Module.String() + "/" + b.BeanName
}

// ModuleDeployment is one module's complete bean list as reported by a node. A report always
// replaces the previous list for that module on that node. An empty Beans list means only
// module-level availability is known (the client view learned from pushed module events); every
// bean of the module is then assumed hosted and the node itself answers no_such_deployment.
type ModuleDeployment struct {
	Module ModuleIdentifier
	Beans  []string
}

// Hosts reports whether the deployment covers bean.
func (d ModuleDeployment) Hosts(bean string) bool {
	if len(d.Beans) == 0 {
		return true
	}
	for _, b := range d.Beans {
		if b == bean {
			return true
		}
	}
	return false
}

// NodeDeployments is every module available on one node.
type NodeDeployments struct {
	Node        string
	Deployments []ModuleDeployment
}
