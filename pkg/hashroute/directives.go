package hashroute

import (
	"github.com/vango-dev/writdesk/pkg/directive"
	"github.com/vango-dev/writdesk/pkg/dom"
)

// Attribute names of the router directives.
const (
	AttrRoute       = "route"
	AttrRouteActive = "route-active"
	AttrRouteLink   = "route-link"
)

// RouteDirective registers templates as route views and binds other
// elements to the named route.
type RouteDirective struct {
	Router *Router
}

// Attach implements directive.Directive.
func (d RouteDirective) Attach(n *dom.Node, name string) {
	if n.IsTemplate() {
		d.Router.RegisterTemplate(name, n)
		return
	}
	d.Router.ViewBind(name, n)
}

// Reconfigure implements directive.Directive.
func (d RouteDirective) Reconfigure(n *dom.Node, name string) {
	d.Router.Unbind(n)
	d.Router.ViewBind(name, n)
}

// Detach implements directive.Directive.
func (d RouteDirective) Detach(n *dom.Node) {
	d.Router.Unbind(n)
}

// ActiveDirective binds an element to whichever route is active.
type ActiveDirective struct {
	Router *Router
}

// Attach implements directive.Directive.
func (d ActiveDirective) Attach(n *dom.Node, _ string) {
	d.Router.ActiveBind(n)
}

// Reconfigure implements directive.Directive. The attribute value is not
// used, so there is nothing to do.
func (d ActiveDirective) Reconfigure(*dom.Node, string) {}

// Detach implements directive.Directive.
func (d ActiveDirective) Detach(n *dom.Node) {
	d.Router.UnbindActive(n)
}

// LinkDirective activates a route when its element is clicked.
type LinkDirective struct {
	Router    *Router
	listeners map[*dom.Node]*dom.Listener
}

// NewLinkDirective creates a link directive for r.
func NewLinkDirective(r *Router) *LinkDirective {
	return &LinkDirective{Router: r, listeners: make(map[*dom.Node]*dom.Listener)}
}

// Attach implements directive.Directive. The click listener reads the
// attribute at click time, so a reconfigured target needs no new listener.
func (d *LinkDirective) Attach(n *dom.Node, target string) {
	if old, ok := d.listeners[n]; ok {
		old.Off()
	}
	d.listeners[n] = n.On("click", func(*dom.Event) {
		current, ok := n.Attr(AttrRouteLink)
		if !ok {
			current = target
		}
		d.Router.Activate(current)
	})
	d.clickIfCurrent(n, target)
}

// Reconfigure implements directive.Directive.
func (d *LinkDirective) Reconfigure(n *dom.Node, target string) {
	d.clickIfCurrent(n, target)
}

// Detach implements directive.Directive.
func (d *LinkDirective) Detach(n *dom.Node) {
	if l, ok := d.listeners[n]; ok {
		l.Off()
		delete(d.listeners, n)
	}
}

func (d *LinkDirective) clickIfCurrent(n *dom.Node, target string) {
	if Normalize(target) == d.Router.location.Hash() {
		n.Click()
	}
}

// Install registers the route, route-active and route-link directives.
func (r *Router) Install(reg *directive.Registry) {
	reg.Register(AttrRoute, RouteDirective{Router: r})
	reg.Register(AttrRouteActive, ActiveDirective{Router: r})
	reg.Register(AttrRouteLink, NewLinkDirective(r))
}
