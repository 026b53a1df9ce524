package app

import (
	"strings"

	"github.com/vango-dev/writdesk/pkg/dom"
	"github.com/vango-dev/writdesk/pkg/writ"
)

// TagEditor is the editor's tag input: a row of removable tags and a text
// input. Typing a comma commits the text before it as a tag.
type TagEditor struct {
	list  *writ.TagList
	root  *dom.Node
	row   *dom.Node
	input *dom.Node
	add   *dom.Node

	// OnUpdate is called after a user edit with the current tags.
	OnUpdate func(tags []string)
	// OnError is called when a tag is refused.
	OnError func(err error)
}

// NewTagEditor builds the component.
func NewTagEditor() *TagEditor {
	e := &TagEditor{list: writ.NewTagList()}
	e.row = dom.Span(dom.Class("tag-row"))
	e.input = dom.Input(dom.Attribute("type", "text"), dom.Attribute("placeholder", "tags"))
	e.add = dom.Button(dom.Class("add-tag"), "+")
	e.root = dom.Div(dom.Class("tag-input"), e.row, e.input, e.add)

	e.input.On("input", func(ev *dom.Event) { e.typed(ev.Value) })
	e.add.On("click", func(*dom.Event) {
		v, _ := e.input.Attr("value")
		e.commit(v)
	})
	return e
}

// Root returns the component root node.
func (e *TagEditor) Root() *dom.Node {
	return e.root
}

// Tags returns the current tags.
func (e *TagEditor) Tags() []string {
	return e.list.Tags()
}

// Set replaces the tags without calling OnUpdate.
func (e *TagEditor) Set(tags []string) {
	e.list.Clear()
	e.row.Clear()
	for _, t := range tags {
		if e.list.Add(t) == nil {
			e.row.AppendChild(e.chip(writ.NormalizeTag(t)))
		}
	}
}

func (e *TagEditor) typed(value string) {
	if !strings.Contains(value, ",") {
		return
	}
	parts := strings.Split(value, ",")
	rest := parts[len(parts)-1]
	changed := false
	for _, p := range parts[:len(parts)-1] {
		if e.addTag(p) {
			changed = true
		}
	}
	e.input.SetAttr("value", rest)
	if changed {
		e.updated()
	}
}

func (e *TagEditor) commit(value string) {
	if e.addTag(value) {
		e.input.SetAttr("value", "")
		e.updated()
	}
}

func (e *TagEditor) addTag(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	if err := e.list.Add(raw); err != nil {
		if e.OnError != nil {
			e.OnError(err)
		}
		return false
	}
	e.row.AppendChild(e.chip(writ.NormalizeTag(raw)))
	return true
}

func (e *TagEditor) chip(tag string) *dom.Node {
	remove := dom.Button(dom.Class("remove-tag"), "✕")
	chip := dom.Span(dom.Class("tag"), dom.Data("tag", tag), tag, remove)
	remove.On("click", func(*dom.Event) {
		if e.list.Remove(tag) {
			chip.Remove()
			e.updated()
		}
	})
	return chip
}

func (e *TagEditor) updated() {
	if e.OnUpdate != nil {
		e.OnUpdate(e.list.Tags())
	}
}
