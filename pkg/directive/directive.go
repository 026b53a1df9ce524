// Package directive attaches attribute-keyed lifecycle hooks to dom nodes.
//
// A directive is registered under an attribute name. When a subtree is
// attached, every element carrying that attribute gets Attach with the
// attribute value; changing the value later goes through Reconfigure; and
// detaching the subtree calls Detach. The surrounding UI code calls the
// registry at node lifecycle boundaries instead of the registry observing
// the tree.
//
// Usage:
//
//	reg := directive.NewRegistry(logger)
//	reg.Register("tooltip", directive.Funcs{
//	    OnAttach: func(n *dom.Node, v string) { ... },
//	})
//	reg.Attach(document)
package directive

import (
	"log/slog"
	"sort"

	"github.com/vango-dev/writdesk/pkg/dom"
)

// Directive is the lifecycle of one attribute on one node.
type Directive interface {
	Attach(n *dom.Node, value string)
	Reconfigure(n *dom.Node, value string)
	Detach(n *dom.Node)
}

// Funcs adapts plain functions to a Directive. Nil hooks are skipped.
type Funcs struct {
	OnAttach      func(n *dom.Node, value string)
	OnReconfigure func(n *dom.Node, value string)
	OnDetach      func(n *dom.Node)
}

// Attach implements Directive.
func (f Funcs) Attach(n *dom.Node, value string) {
	if f.OnAttach != nil {
		f.OnAttach(n, value)
	}
}

// Reconfigure implements Directive.
func (f Funcs) Reconfigure(n *dom.Node, value string) {
	if f.OnReconfigure != nil {
		f.OnReconfigure(n, value)
	}
}

// Detach implements Directive.
func (f Funcs) Detach(n *dom.Node) {
	if f.OnDetach != nil {
		f.OnDetach(n)
	}
}

// Registry maps attribute names to directives and tracks which nodes have
// been attached.
type Registry struct {
	directives map[string]Directive
	names      []string // registration order, also attach order per node
	attached   map[*dom.Node]map[string]struct{}
	logger     *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		directives: make(map[string]Directive),
		attached:   make(map[*dom.Node]map[string]struct{}),
		logger:     logger,
	}
}

// Register installs d under the attribute name. Registering a name twice
// replaces the directive for nodes attached afterwards.
func (r *Registry) Register(name string, d Directive) {
	if _, ok := r.directives[name]; !ok {
		r.names = append(r.names, name)
	}
	r.directives[name] = d
}

// Names returns the registered attribute names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	sort.Strings(out)
	return out
}

// Attach runs Attach for every registered attribute on root and its
// descendants that is not attached yet. Template content stays inert.
func (r *Registry) Attach(root *dom.Node) {
	root.Walk(func(n *dom.Node) bool {
		if !n.IsElement() {
			return false
		}
		for _, name := range r.names {
			value, ok := n.Attr(name)
			if !ok || r.isAttached(n, name) {
				continue
			}
			r.mark(n, name)
			r.logger.Debug("directive attach", "directive", name, "node", n.ID(), "value", value)
			r.directives[name].Attach(n, value)
		}
		return true
	})
}

// Reconfigure sets the attribute to value and runs Reconfigure, or Attach
// when the node had no such directive attached.
func (r *Registry) Reconfigure(n *dom.Node, name, value string) {
	d, ok := r.directives[name]
	n.SetAttr(name, value)
	if !ok {
		return
	}
	if !r.isAttached(n, name) {
		r.mark(n, name)
		d.Attach(n, value)
		return
	}
	r.logger.Debug("directive reconfigure", "directive", name, "node", n.ID(), "value", value)
	d.Reconfigure(n, value)
}

// Detach runs Detach for every attached directive on root and its
// descendants. Children are detached before their parents.
func (r *Registry) Detach(root *dom.Node) {
	for _, child := range root.Children() {
		r.Detach(child)
	}
	names, ok := r.attached[root]
	if !ok {
		return
	}
	delete(r.attached, root)
	for _, name := range r.names {
		if _, ok := names[name]; !ok {
			continue
		}
		r.logger.Debug("directive detach", "directive", name, "node", root.ID())
		r.directives[name].Detach(root)
	}
}

// Remove detaches the directive name from n and deletes the attribute.
func (r *Registry) Remove(n *dom.Node, name string) {
	n.RemoveAttr(name)
	names, ok := r.attached[n]
	if !ok {
		return
	}
	if _, ok := names[name]; !ok {
		return
	}
	delete(names, name)
	if len(names) == 0 {
		delete(r.attached, n)
	}
	r.directives[name].Detach(n)
}

// Attached reports whether the directive name is attached to n.
func (r *Registry) Attached(n *dom.Node, name string) bool {
	return r.isAttached(n, name)
}

// Len returns the number of nodes with at least one attached directive.
func (r *Registry) Len() int {
	return len(r.attached)
}

func (r *Registry) isAttached(n *dom.Node, name string) bool {
	_, ok := r.attached[n][name]
	return ok
}

func (r *Registry) mark(n *dom.Node, name string) {
	names, ok := r.attached[n]
	if !ok {
		names = make(map[string]struct{})
		r.attached[n] = names
	}
	names[name] = struct{}{}
}
