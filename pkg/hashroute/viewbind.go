package hashroute

import "github.com/vango-dev/writdesk/pkg/dom"

// ViewBind keeps a host node showing a route's view: either one named
// route, or whichever route is active (an anonymous bind).
type ViewBind struct {
	router *Router
	host   *dom.Node
	name   string // "" for anonymous binds
}

// Host returns the bound host node.
func (b *ViewBind) Host() *dom.Node {
	return b.host
}

// Name returns the bound route name, or "" for an anonymous bind.
func (b *ViewBind) Name() string {
	return b.name
}

// Anonymous reports whether the bind follows the active route.
func (b *ViewBind) Anonymous() bool {
	return b.name == ""
}

// Consume implements Consumer. The host is always cleared; the view is
// rendered only on a transition to active.
func (b *ViewBind) Consume(route *Route, active bool, _ string) {
	b.router.renderer.Clear(b.host)
	if active && route.HasView() {
		b.router.renderer.Render(route.View(), b.host)
	}
}

// Revoke unregisters the bind. Revoking twice is a no-op. The host keeps
// whatever it currently shows.
func (b *ViewBind) Revoke() {
	r := b.router
	if b.name != "" {
		if route, ok := r.routes[b.name]; ok {
			route.consumers.remove(b)
		}
		if r.viewBinds[b.host] == b {
			delete(r.viewBinds, b.host)
			r.metrics.unbound("named")
		}
		return
	}
	if r.activeBinds.get(b.host) == b {
		r.activeBinds.remove(b.host)
		r.metrics.unbound("anonymous")
	}
}

// ViewBind binds host to the named route and returns the bind, or nil when
// host is a template. A previous named bind on host is revoked first.
//
// If the route is already active the view renders immediately; otherwise a
// reconcile pass runs so a route matching the address bar activates now.
func (r *Router) ViewBind(name string, host *dom.Node) *ViewBind {
	if host == nil || host.IsTemplate() {
		return nil
	}
	name = Normalize(name)
	if old, ok := r.viewBinds[host]; ok {
		old.Revoke()
	}

	b := &ViewBind{router: r, host: host, name: name}
	r.RegisterHandler(name, b)
	r.viewBinds[host] = b
	r.metrics.bound("named")

	if r.current() == name {
		b.Consume(r.routes[name], true, name)
	} else {
		r.Reconcile()
	}
	return b
}

// ActiveBind binds host to whichever route is active and returns the bind,
// or nil when host is a template. A previous anonymous bind on host is
// revoked first.
func (r *Router) ActiveBind(host *dom.Node) *ViewBind {
	if host == nil || host.IsTemplate() {
		return nil
	}
	if old := r.activeBinds.get(host); old != nil {
		old.Revoke()
	}

	b := &ViewBind{router: r, host: host}
	r.activeBinds.set(host, b)
	r.metrics.bound("anonymous")

	if route, ok := r.routes[r.current()]; ok {
		b.Consume(route, true, route.name)
	} else {
		r.Reconcile()
	}
	return b
}

// Unbind revokes the named bind owned by host, if any.
func (r *Router) Unbind(host *dom.Node) {
	if b, ok := r.viewBinds[host]; ok {
		b.Revoke()
	}
}

// UnbindActive revokes the anonymous bind owned by host, if any.
func (r *Router) UnbindActive(host *dom.Node) {
	if b := r.activeBinds.get(host); b != nil {
		b.Revoke()
	}
}

// BoundTo returns the named bind owned by host.
func (r *Router) BoundTo(host *dom.Node) (*ViewBind, bool) {
	b, ok := r.viewBinds[host]
	return b, ok
}

// bindRegistry is an insertion-ordered host → bind map.
type bindRegistry struct {
	order []*dom.Node
	binds map[*dom.Node]*ViewBind
}

func (m *bindRegistry) get(host *dom.Node) *ViewBind {
	return m.binds[host]
}

func (m *bindRegistry) set(host *dom.Node, b *ViewBind) {
	if m.binds == nil {
		m.binds = make(map[*dom.Node]*ViewBind)
	}
	if _, ok := m.binds[host]; !ok {
		m.order = append(m.order, host)
	}
	m.binds[host] = b
}

func (m *bindRegistry) remove(host *dom.Node) {
	if _, ok := m.binds[host]; !ok {
		return
	}
	delete(m.binds, host)
	for i, h := range m.order {
		if h == host {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *bindRegistry) snapshot() []*ViewBind {
	out := make([]*ViewBind, 0, len(m.order))
	for _, h := range m.order {
		out = append(out, m.binds[h])
	}
	return out
}

func (m *bindRegistry) len() int {
	return len(m.order)
}
