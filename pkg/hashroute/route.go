package hashroute

import (
	"github.com/vango-dev/writdesk/pkg/dom"
	"github.com/vango-dev/writdesk/pkg/location"
)

// Normalize returns name with a leading "#". The empty name becomes "#".
func Normalize(name string) string {
	name = location.Normalize(name)
	if name == "" {
		return "#"
	}
	return name
}

// Consumer is notified of a route's activation transitions.
//
// Consumers are kept in a set keyed by the interface value, so the dynamic
// type must be comparable; pointer types are the usual choice.
type Consumer interface {
	Consume(route *Route, active bool, name string)
}

// Revoker is implemented by consumers that can unregister themselves.
// Revoking a route revokes every consumer that implements it.
type Revoker interface {
	Revoke()
}

// Handler adapts a function to a Consumer. Its identity is the pointer:
// registering the same *Handler twice on a route adds it once.
type Handler struct {
	fn func(route *Route, active bool, name string)
}

// HandlerFunc wraps fn in a Handler.
func HandlerFunc(fn func(route *Route, active bool, name string)) *Handler {
	return &Handler{fn: fn}
}

// Consume implements Consumer.
func (h *Handler) Consume(route *Route, active bool, name string) {
	h.fn(route, active, name)
}

// Route is a named, addressable UI state.
type Route struct {
	name      string
	view      []*dom.Node
	hasView   bool
	consumers consumerSet
}

// Name returns the route's "#"-prefixed name.
func (r *Route) Name() string {
	return r.name
}

// View returns the route's view nodes. The slice is shared; callers must
// not modify it.
func (r *Route) View() []*dom.Node {
	return r.view
}

// HasView reports whether a view has been registered for the route.
func (r *Route) HasView() bool {
	return r.hasView
}

// Consumers returns the number of registered consumers.
func (r *Route) Consumers() int {
	return r.consumers.len()
}

// consumerSet is an insertion-ordered set of consumers.
type consumerSet struct {
	items []Consumer
	index map[Consumer]struct{}
}

func (s *consumerSet) add(c Consumer) bool {
	if s.index == nil {
		s.index = make(map[Consumer]struct{})
	}
	if _, ok := s.index[c]; ok {
		return false
	}
	s.index[c] = struct{}{}
	s.items = append(s.items, c)
	return true
}

func (s *consumerSet) remove(c Consumer) bool {
	if _, ok := s.index[c]; !ok {
		return false
	}
	delete(s.index, c)
	for i, other := range s.items {
		if other == c {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

func (s *consumerSet) has(c Consumer) bool {
	_, ok := s.index[c]
	return ok
}

// snapshot returns a copy safe to range over while consumers add or remove
// themselves.
func (s *consumerSet) snapshot() []Consumer {
	out := make([]Consumer, len(s.items))
	copy(out, s.items)
	return out
}

func (s *consumerSet) len() int {
	return len(s.items)
}

func (s *consumerSet) clear() {
	s.items = nil
	s.index = nil
}
