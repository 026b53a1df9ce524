package dom

import (
	"fmt"
	"strings"
)

// Attr is a single attribute passed to element factories.
type Attr struct {
	Key   string
	Value string
}

// Attribute creates an attribute.
func Attribute(key, value string) Attr { return Attr{Key: key, Value: value} }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return Attribute("class", strings.Join(classes, " ")) }

// Data creates a data-* attribute.
func Data(key, value string) Attr { return Attribute("data-"+key, value) }

// Text creates a text node.
func Text(content string) *Node {
	n := newNode(KindText, "")
	n.Text = content
	return n
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *Node {
	return Text(fmt.Sprintf(format, args...))
}

// Raw creates an unescaped HTML node.
// Use with caution - can lead to XSS if content is user-provided.
func Raw(html string) *Node {
	n := newNode(KindRaw, "")
	n.Text = html
	return n
}

// Element creates an element. Items may be Attr, *Node, []*Node or string
// (a text child); nil items are skipped.
func Element(tag string, items ...any) *Node {
	n := newNode(KindElement, tag)
	apply(n, items)
	return n
}

// Template creates a template whose children become its inert content.
func Template(items ...any) *Node {
	n := newNode(KindTemplate, "template")
	apply(n, items)
	return n
}

func apply(n *Node, items []any) {
	for _, item := range items {
		switch v := item.(type) {
		case nil:
			continue
		case Attr:
			n.SetAttr(v.Key, v.Value)
		case []Attr:
			for _, a := range v {
				n.SetAttr(a.Key, a.Value)
			}
		case *Node:
			if v != nil {
				n.AppendChild(v)
			}
		case []*Node:
			n.AppendChild(v...)
		case string:
			n.AppendChild(Text(v))
		}
	}
}

// Convenience factories for the handful of tags writdesk composes.

func Div(items ...any) *Node      { return Element("div", items...) }
func Span(items ...any) *Node     { return Element("span", items...) }
func Nav(items ...any) *Node      { return Element("nav", items...) }
func Main(items ...any) *Node     { return Element("main", items...) }
func Aside(items ...any) *Node    { return Element("aside", items...) }
func Section(items ...any) *Node  { return Element("section", items...) }
func Article(items ...any) *Node  { return Element("article", items...) }
func Header(items ...any) *Node   { return Element("header", items...) }
func H1(items ...any) *Node       { return Element("h1", items...) }
func H2(items ...any) *Node       { return Element("h2", items...) }
func P(items ...any) *Node        { return Element("p", items...) }
func A(items ...any) *Node        { return Element("a", items...) }
func Button(items ...any) *Node   { return Element("button", items...) }
func Input(items ...any) *Node    { return Element("input", items...) }
func Textarea(items ...any) *Node { return Element("textarea", items...) }
func Ul(items ...any) *Node       { return Element("ul", items...) }
func Li(items ...any) *Node       { return Element("li", items...) }
