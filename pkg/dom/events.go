package dom

// Event is delivered to listeners.
type Event struct {
	Type   string // "click", "input", ...
	Target *Node
	Value  string // For input events, the new value
}

// Listener is a registered event callback.
type Listener struct {
	node  *Node
	event string
	fn    func(*Event)
}

// On registers fn for events of the given type on n.
func (n *Node) On(event string, fn func(*Event)) *Listener {
	if n.listeners == nil {
		n.listeners = make(map[string][]*Listener)
	}
	l := &Listener{node: n, event: event, fn: fn}
	n.listeners[event] = append(n.listeners[event], l)
	return l
}

// Off removes the listener. Calling Off more than once is a no-op.
func (l *Listener) Off() {
	if l == nil || l.node == nil {
		return
	}
	list := l.node.listeners[l.event]
	for i, other := range list {
		if other == l {
			l.node.listeners[l.event] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(l.node.listeners[l.event]) == 0 {
		delete(l.node.listeners, l.event)
	}
	l.node = nil
}

// Listening reports whether n has listeners for the event type.
func (n *Node) Listening(event string) bool {
	return len(n.listeners[event]) > 0
}

// Events returns the event types n has listeners for.
func (n *Node) Events() []string {
	if len(n.listeners) == 0 {
		return nil
	}
	out := make([]string, 0, len(n.listeners))
	for ev := range n.listeners {
		out = append(out, ev)
	}
	return out
}

// Dispatch delivers ev to n's listeners in registration order.
// Events do not bubble.
func (n *Node) Dispatch(ev *Event) {
	if ev.Target == nil {
		ev.Target = n
	}
	list := n.listeners[ev.Type]
	if len(list) == 0 {
		return
	}
	snapshot := make([]*Listener, len(list))
	copy(snapshot, list)
	for _, l := range snapshot {
		l.fn(ev)
	}
}

// Click synthesizes a click on n.
func (n *Node) Click() {
	n.Dispatch(&Event{Type: "click", Target: n})
}

// Input synthesizes an input event carrying value. The node's "value"
// attribute is updated first.
func (n *Node) Input(value string) {
	n.SetAttr("value", value)
	n.Dispatch(&Event{Type: "input", Target: n, Value: value})
}
