package dom

import (
	"strconv"
	"strings"

	"go.uber.org/atomic"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement  Kind = iota // <div>, <button>, etc.
	KindText                 // Plain text node
	KindRaw                  // Raw HTML (dangerous)
	KindTemplate             // <template> with inert content
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindRaw:
		return "Raw"
	case KindTemplate:
		return "Template"
	default:
		return "Unknown"
	}
}

var idCounter atomic.Uint64

func nextID() string {
	return "n" + strconv.FormatUint(idCounter.Inc(), 10)
}

// Node is a document node.
type Node struct {
	Kind Kind
	Tag  string // Element tag name (e.g., "div")
	Text string // For KindText and KindRaw

	id        string
	attrs     map[string]string
	children  []*Node
	parent    *Node
	content   []*Node // Template content, never attached to the live tree
	listeners map[string][]*Listener
}

func newNode(kind Kind, tag string) *Node {
	return &Node{Kind: kind, Tag: tag, id: nextID()}
}

// ID returns the node's stable identifier.
func (n *Node) ID() string {
	return n.id
}

// IsTemplate reports whether n is a template node.
func (n *Node) IsTemplate() bool {
	return n != nil && n.Kind == KindTemplate
}

// IsElement reports whether n is an element or a template.
func (n *Node) IsElement() bool {
	return n != nil && (n.Kind == KindElement || n.Kind == KindTemplate)
}

// Parent returns the node's parent, or nil when detached.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a snapshot of the node's children.
// Mutating the tree while ranging over the snapshot is safe.
func (n *Node) Children() []*Node {
	if len(n.children) == 0 {
		return nil
	}
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// FirstChild returns the first child, or nil.
func (n *Node) FirstChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// Content returns a snapshot of a template's inert content.
func (n *Node) Content() []*Node {
	if len(n.content) == 0 {
		return nil
	}
	out := make([]*Node, len(n.content))
	copy(out, n.content)
	return out
}

// TakeContent detaches and returns a template's content.
// The template is left empty.
func (n *Node) TakeContent() []*Node {
	out := n.content
	n.content = nil
	return out
}

// AppendChild appends nodes to n, detaching them from any previous parent.
// For templates the nodes are appended to the inert content instead.
func (n *Node) AppendChild(children ...*Node) {
	for _, c := range children {
		if c == nil || c == n {
			continue
		}
		c.Remove()
		if n.Kind == KindTemplate {
			n.content = append(n.content, c)
			continue
		}
		c.parent = n
		n.children = append(n.children, c)
	}
}

// Remove detaches n from its parent. It is a no-op for detached nodes.
func (n *Node) Remove() {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// Clear detaches every child of n, the equivalent of setting textContent to "".
// The removed children are returned so callers can reuse them.
func (n *Node) Clear() []*Node {
	removed := n.children
	for _, c := range removed {
		c.parent = nil
	}
	n.children = nil
	return removed
}

// TextContent concatenates the text of n and its descendants.
func (n *Node) TextContent() string {
	if n.Kind == KindText {
		return n.Text
	}
	var b strings.Builder
	for _, c := range n.children {
		if c.Kind == KindRaw {
			continue
		}
		b.WriteString(c.TextContent())
	}
	return b.String()
}

// SetText replaces n's children with a single text node.
func (n *Node) SetText(text string) {
	if n.Kind == KindText {
		n.Text = text
		return
	}
	n.Clear()
	n.AppendChild(Text(text))
}

// Attr returns the value of an attribute and whether it is present.
func (n *Node) Attr(key string) (string, bool) {
	if n.attrs == nil {
		return "", false
	}
	v, ok := n.attrs[key]
	return v, ok
}

// HasAttr reports whether the attribute is present.
func (n *Node) HasAttr(key string) bool {
	_, ok := n.Attr(key)
	return ok
}

// SetAttr sets an attribute.
func (n *Node) SetAttr(key, value string) {
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[key] = value
}

// RemoveAttr removes an attribute.
func (n *Node) RemoveAttr(key string) {
	delete(n.attrs, key)
}

// Attrs returns a copy of the node's attributes.
func (n *Node) Attrs() map[string]string {
	out := make(map[string]string, len(n.attrs))
	for k, v := range n.attrs {
		out[k] = v
	}
	return out
}

// HasClass reports whether the class attribute contains class.
func (n *Node) HasClass(class string) bool {
	v, _ := n.Attr("class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth-first in document order.
// Returning false from fn skips the node's children. Template content is
// never visited.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		c.Walk(fn)
	}
}

// Find returns the first node in the subtree rooted at n matching pred.
func (n *Node) Find(pred func(*Node) bool) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if pred(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindByID returns the node with the given ID in the subtree rooted at n.
func (n *Node) FindByID(id string) *Node {
	return n.Find(func(c *Node) bool { return c.id == id })
}

// FindClass returns the first element carrying class.
func (n *Node) FindClass(class string) *Node {
	return n.Find(func(c *Node) bool { return c.IsElement() && c.HasClass(class) })
}

// Clone returns a deep copy of n with fresh IDs.
// Listeners are not copied and the clone is detached.
func (n *Node) Clone() *Node {
	c := newNode(n.Kind, n.Tag)
	c.Text = n.Text
	for k, v := range n.attrs {
		c.SetAttr(k, v)
	}
	for _, child := range n.children {
		c.AppendChild(child.Clone())
	}
	for _, child := range n.content {
		c.content = append(c.content, child.Clone())
	}
	return c
}
