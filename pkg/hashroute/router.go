package hashroute

import (
	"context"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/writdesk/pkg/dom"
	"github.com/vango-dev/writdesk/pkg/location"
	"github.com/vango-dev/writdesk/pkg/loop"
)

// Default tracer name for router spans.
const defaultTracerName = "writdesk/hashroute"

// Location is the address-bar fragment the router reads and writes.
type Location interface {
	Hash() string
	SetHash(hash string)
}

// Watcher announces address-bar changes.
type Watcher interface {
	OnChange(fn func(hash string)) (off func())
}

// Scheduler defers work until after the current task.
type Scheduler interface {
	Post(fn func()) error
}

// Renderer is the rendering primitive view binds use: move a view into a
// host, and empty a host.
type Renderer interface {
	Render(view []*dom.Node, host *dom.Node)
	Clear(host *dom.Node)
}

// DOMRenderer renders by moving nodes, with no directive handling.
type DOMRenderer struct{}

// Render implements Renderer.
func (DOMRenderer) Render(view []*dom.Node, host *dom.Node) { host.AppendChild(view...) }

// Clear implements Renderer.
func (DOMRenderer) Clear(host *dom.Node) { host.Clear() }

// Router owns the route table, the view-bind registries and the active
// route marker of one document. It must only be used from the goroutine
// that runs its scheduler.
type Router struct {
	routes      map[string]*Route
	viewBinds   map[*dom.Node]*ViewBind
	activeBinds bindRegistry
	active      string
	activating  string
	pending     string

	location  Location
	renderer  Renderer
	scheduler Scheduler
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
}

// Option configures a Router.
type Option func(*Router)

// WithLocation sets the address bar. Defaults to an in-memory address bar
// on the router's scheduler.
func WithLocation(loc Location) Option {
	return func(r *Router) {
		r.location = loc
	}
}

// WithRenderer sets the rendering primitive. Defaults to DOMRenderer.
func WithRenderer(renderer Renderer) Option {
	return func(r *Router) {
		r.renderer = renderer
	}
}

// WithScheduler sets the scheduler used for deferred reconciles.
// Defaults to a fresh loop.Loop the caller never drains, so real callers
// always pass their session loop.
func WithScheduler(s Scheduler) Option {
	return func(r *Router) {
		r.scheduler = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithMetrics records router activity in m. Metrics are shared between
// routers; see NewMetrics.
func WithMetrics(m *Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithTracer sets the tracer. Defaults to the global provider's tracer.
func WithTracer(t trace.Tracer) Option {
	return func(r *Router) {
		r.tracer = t
	}
}

// New creates a router.
func New(opts ...Option) *Router {
	r := &Router{
		routes:    make(map[string]*Route),
		viewBinds: make(map[*dom.Node]*ViewBind),
		renderer:  DOMRenderer{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.scheduler == nil {
		r.scheduler = loop.New()
	}
	if r.location == nil {
		r.location = location.New(r.scheduler, "")
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(defaultTracerName)
	}
	return r
}

// =============================================================================
// Registration
// =============================================================================

// RegisterView sets the view of the named route, creating the route if
// needed. Existing consumers are kept.
func (r *Router) RegisterView(name string, view ...*dom.Node) {
	name = Normalize(name)
	route := r.ensure(name)
	route.view = view
	route.hasView = true
	r.metrics.registered("view")
	r.logger.Debug("route view registered", "route", name, "nodes", len(view))
	r.scheduleReconcile()
}

// RegisterTemplate extracts the template's content as the route's view and
// removes the template from its parent. A non-template node becomes the
// view itself.
func (r *Router) RegisterTemplate(name string, tmpl *dom.Node) {
	if !tmpl.IsTemplate() {
		r.RegisterView(name, tmpl)
		return
	}
	view := tmpl.TakeContent()
	tmpl.Remove()
	r.RegisterView(name, view...)
}

// RegisterHandler adds c to the named route's consumers, creating the route
// if needed. Adding a consumer already present is a no-op.
func (r *Router) RegisterHandler(name string, c Consumer) {
	name = Normalize(name)
	route := r.ensure(name)
	if route.consumers.add(c) {
		r.metrics.registered("handler")
	}
	r.scheduleReconcile()
}

// RemoveHandler removes c from the named route's consumers.
func (r *Router) RemoveHandler(name string, c Consumer) bool {
	route, ok := r.routes[Normalize(name)]
	if !ok {
		return false
	}
	return route.consumers.remove(c)
}

// WhenActive runs fn once, the first time the named route is active.
// If the route is already active fn runs after the current task.
// The returned handler can be passed to RemoveHandler to cancel.
func (r *Router) WhenActive(name string, fn func(route *Route)) *Handler {
	name = Normalize(name)
	var h *Handler
	h = HandlerFunc(func(route *Route, active bool, _ string) {
		if !active {
			return
		}
		route.consumers.remove(h)
		fn(route)
	})
	r.RegisterHandler(name, h)

	if r.active == name {
		err := r.scheduler.Post(func() {
			if route, ok := r.routes[name]; ok && r.active == name && route.consumers.has(h) {
				h.Consume(route, true, name)
			}
		})
		if err != nil {
			r.logger.Warn("when-active callback not scheduled", "route", name, "error", err)
		}
	}
	return h
}

func (r *Router) ensure(name string) *Route {
	route, ok := r.routes[name]
	if !ok {
		route = &Route{name: name}
		r.routes[name] = route
	}
	return route
}

func (r *Router) scheduleReconcile() {
	if err := r.scheduler.Post(r.Reconcile); err != nil {
		r.logger.Warn("reconcile not scheduled", "error", err)
	}
}

// Revoke removes the named route: every consumer that implements Revoker is
// revoked, the consumer set is cleared and the route is deleted. Revoking
// the active route also clears the active marker, so registering the name
// again and activating it works.
func (r *Router) Revoke(name string) bool {
	name = Normalize(name)
	route, ok := r.routes[name]
	if !ok {
		return false
	}
	for _, c := range route.consumers.snapshot() {
		if rv, ok := c.(Revoker); ok {
			rv.Revoke()
		}
	}
	route.consumers.clear()
	delete(r.routes, name)
	if r.active == name {
		r.active = ""
	}
	r.metrics.revoked()
	r.logger.Debug("route revoked", "route", name)
	return true
}

// =============================================================================
// Activation
// =============================================================================

// Activate makes the named route active and notifies consumers. An empty
// name means the current address-bar fragment, or "#" when it is empty.
//
// It does nothing when the route does not exist (a non-empty name is
// remembered and activated once a later registration creates it), is
// already active, or is being activated. The last case stops directives
// inside the view being rendered from activating it again. When the name
// differs from the address bar, the address bar is written first; the
// change notification that follows finds the route active and stops there.
//
// New-route consumers and anonymous binds are notified before the previous
// route's consumers receive their deactivation.
//
// The activation span is a root span: the router runs on the session loop
// and has no request context to nest under.
func (r *Router) Activate(name string) {
	r.activate(name, name != "")
}

// activate resolves name and activates it. Only explicit requests remember
// an unregistered name as pending; reconciles leave pending alone.
func (r *Router) activate(name string, remember bool) {
	if name == "" {
		name = r.location.Hash()
	}
	name = Normalize(name)

	route, ok := r.routes[name]
	if !ok {
		if remember {
			r.pending = name
		}
		return
	}
	r.pending = ""
	if name == r.active || name == r.activating {
		return
	}

	prevActivating := r.activating
	r.activating = name
	defer func() { r.activating = prevActivating }()

	_, span := r.tracer.Start(context.Background(), "hashroute.activate",
		trace.WithAttributes(
			attribute.String("hashroute.route", name),
			attribute.String("hashroute.previous", r.active),
		))
	defer span.End()

	if name != r.location.Hash() {
		r.location.SetHash(name)
	}

	for _, c := range route.consumers.snapshot() {
		if route.consumers.has(c) {
			c.Consume(route, true, name)
		}
	}
	for _, b := range r.activeBinds.snapshot() {
		if r.activeBinds.get(b.host) == b {
			b.Consume(route, true, name)
		}
	}

	if prev := r.active; prev != "" && prev != name {
		if old, ok := r.routes[prev]; ok {
			for _, c := range old.consumers.snapshot() {
				if old.consumers.has(c) {
					c.Consume(old, false, prev)
				}
			}
			r.metrics.deactivated(prev)
		}
	}

	r.active = name
	r.metrics.activated(name)
	span.SetAttributes(attribute.Int("hashroute.consumers", route.consumers.len()))
	r.logger.Debug("route activated", "route", name)
}

// RequestActivate writes the named route to the address bar and returns.
// Consumers are notified later, by the Reconcile the address-bar change
// triggers.
func (r *Router) RequestActivate(name string) {
	name = Normalize(name)
	if _, ok := r.routes[name]; !ok {
		r.pending = name
		return
	}
	r.pending = ""
	if name == r.active || name == r.activating {
		return
	}
	if name == r.location.Hash() {
		r.scheduleReconcile()
		return
	}
	r.location.SetHash(name)
}

// Reconcile activates the pending route if it has since been registered,
// and otherwise the route named by the address bar. Resolving to any
// registered route drops the pending name.
func (r *Router) Reconcile() {
	if r.pending != "" {
		if _, ok := r.routes[r.pending]; ok {
			r.activate(r.pending, false)
			return
		}
	}
	r.activate("", false)
}

// current is the route being activated, or else the active route.
func (r *Router) current() string {
	if r.activating != "" {
		return r.activating
	}
	return r.active
}

// Listen reconciles after every change announced by w.
func (r *Router) Listen(w Watcher) (off func()) {
	return w.OnChange(func(string) { r.Reconcile() })
}

// =============================================================================
// Accessors
// =============================================================================

// Active returns the active route name, or "" before the first activation.
func (r *Router) Active() string {
	return r.active
}

// Lookup returns the named route.
func (r *Router) Lookup(name string) (*Route, bool) {
	route, ok := r.routes[Normalize(name)]
	return route, ok
}

// Views returns the named route's view nodes.
func (r *Router) Views(name string) []*dom.Node {
	route, ok := r.routes[Normalize(name)]
	if !ok {
		return nil
	}
	return route.view
}

// Routes returns the registered route names, sorted.
func (r *Router) Routes() []string {
	names := make([]string, 0, len(r.routes))
	for name := range r.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Location returns the router's address bar.
func (r *Router) Location() Location {
	return r.location
}
