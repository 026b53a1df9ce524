package directive

import "github.com/vango-dev/writdesk/pkg/dom"

// Renderer moves view nodes in and out of hosts and keeps directives in
// step: rendered nodes are attached, cleared nodes are detached.
type Renderer struct {
	Registry *Registry
}

// Render appends the view nodes to host and attaches their directives.
// Nodes already shown elsewhere move to host.
func (r Renderer) Render(view []*dom.Node, host *dom.Node) {
	host.AppendChild(view...)
	if r.Registry == nil {
		return
	}
	for _, n := range view {
		r.Registry.Attach(n)
	}
}

// Clear detaches host's children and their directives.
func (r Renderer) Clear(host *dom.Node) {
	for _, n := range host.Clear() {
		if r.Registry != nil {
			r.Registry.Detach(n)
		}
	}
}
