package app

import (
	"context"
	"strings"

	"github.com/vango-dev/writdesk/pkg/dom"
	"github.com/vango-dev/writdesk/pkg/hashroute"
	"github.com/vango-dev/writdesk/pkg/writ"
)

// Admin routes.
const (
	RouteEditor  = "#editor"
	RoutePreview = "#preview"
	RouteUpdate  = "#update"
)

// editorListSize is how many writs the editor list loads.
const editorListSize = 100

// admin is the editing document: a writ list, a markdown editor with tags
// and injected HTML, a preview, and the backend update report.
type admin struct {
	app   *App
	tags  *TagEditor
	wired bool

	entries   *dom.Node
	newWrit   *dom.Node
	pad       *dom.Node
	injection *dom.Node
	publish   *dom.Node
	save      *dom.Node
	remove    *dom.Node

	writs  map[string]*writ.Writ
	active *writ.Writ
}

func newAdmin(a *App) *admin {
	return &admin{app: a, tags: NewTagEditor(), writs: make(map[string]*writ.Writ)}
}

func (ad *admin) links() []*dom.Node {
	update := dom.Button(dom.Class("update-app"), "Update app")
	update.On("click", func(*dom.Event) { ad.updateApp() })
	return []*dom.Node{
		dom.A(dom.Attribute(hashroute.AttrRouteLink, RouteEditor), "Editor"),
		dom.A(dom.Attribute(hashroute.AttrRouteLink, RoutePreview), "Preview"),
		update,
	}
}

func (ad *admin) templates() []*dom.Node {
	return []*dom.Node{
		dom.Template(dom.Attribute(hashroute.AttrRoute, RouteEditor),
			dom.Aside(dom.Class("writlist"),
				dom.Button(dom.Class("new-writ"), "New writ"),
				dom.Div(dom.Class("entries")),
			),
			dom.Section(dom.Class("editor"),
				dom.Textarea(dom.Class("pad")),
				dom.Div(dom.Class("meta"),
					ad.tags.Root(),
					dom.Textarea(dom.Class("injection"), dom.Attribute("placeholder", "injected html")),
				),
				dom.Div(dom.Class("actions"),
					dom.Button(dom.Class("publish"), "Publish"),
					dom.Button(dom.Class("save"), "Save"),
					dom.Button(dom.Class("delete"), "Delete"),
				),
			),
		),
		dom.Template(dom.Attribute(hashroute.AttrRoute, RoutePreview),
			dom.Section(dom.Class("preview"),
				dom.Article(dom.Class("markdown-body")),
				dom.A(dom.Attribute(hashroute.AttrRouteLink, RouteEditor), "Back to editor"),
			),
		),
	}
}

func (ad *admin) install() {
	r := ad.app.router
	r.WhenActive(RouteEditor, func(*hashroute.Route) { ad.wire() })
	r.RegisterHandler(RoutePreview, hashroute.HandlerFunc(func(_ *hashroute.Route, active bool, _ string) {
		if active {
			ad.renderPreview()
		}
	}))
}

// findIn returns the first node with class among the views' subtrees.
func findIn(views []*dom.Node, class string) *dom.Node {
	for _, v := range views {
		if n := v.FindClass(class); n != nil {
			return n
		}
	}
	return nil
}

// wire hooks up the editor the first time its view is shown and loads the
// writ list.
func (ad *admin) wire() {
	if ad.wired {
		return
	}
	ad.wired = true

	views := ad.app.router.Views(RouteEditor)
	ad.entries = findIn(views, "entries")
	ad.newWrit = findIn(views, "new-writ")
	ad.pad = findIn(views, "pad")
	ad.injection = findIn(views, "injection")
	ad.publish = findIn(views, "publish")
	ad.save = findIn(views, "save")
	ad.remove = findIn(views, "delete")

	ad.newWrit.On("click", func(*dom.Event) { ad.startNew() })
	ad.pad.On("input", func(ev *dom.Event) { ad.edited(ev.Value) })
	ad.injection.On("input", func(ev *dom.Event) {
		if ad.active != nil {
			ad.active.Injection = strings.TrimSpace(ev.Value)
		}
	})
	ad.publish.On("click", func(*dom.Event) { ad.togglePublish() })
	ad.save.On("click", func(*dom.Event) { ad.saveActive() })
	ad.remove.On("click", func(*dom.Event) { ad.deleteActive() })

	ad.tags.OnUpdate = func(tags []string) {
		if ad.active != nil {
			ad.active.Tags = tags
		}
	}
	ad.tags.OnError = func(err error) { ad.app.notify(err.Error()) }

	ad.populate()
}

func (ad *admin) populate() {
	var got []writ.Writ
	ad.app.background("editor list", func(ctx context.Context) error {
		var err error
		got, err = ad.app.backend.Query(ctx, writ.EditorQuery(writ.Query{Limit: []int64{0, editorListSize}}))
		return err
	}, func(err error) {
		if err != nil {
			ad.app.fail("loading writs", err)
			return
		}
		ad.entries.Clear()
		for i := range got {
			w := got[i]
			cur := ad.active
			if cur != nil && cur.Key == "" && cur.Title == w.Title {
				// A new writ gets its key from the backend on save.
				cur.Key = w.Key
			}
			if cur != nil && cur.Key == w.Key {
				ad.writs[w.Key] = cur
			} else {
				ad.writs[w.Key] = &w
			}
			ad.entries.AppendChild(ad.entry(w.Key, w.Title))
		}
	})
}

func (ad *admin) entry(key, title string) *dom.Node {
	n := dom.Div(dom.Class("writ"), dom.Attribute("title", title), dom.Data("key", key), title)
	n.On("click", func(*dom.Event) {
		if w, ok := ad.writs[key]; ok && w != ad.active {
			ad.edit(w)
		}
	})
	return n
}

// edit loads w into the editor.
func (ad *admin) edit(w *writ.Writ) {
	ad.active = w
	setField(ad.pad, writ.JoinTitle(w.Title, w.Markdown))
	setField(ad.injection, w.Injection)
	ad.tags.Set(w.Tags)
	ad.publishState()
}

func setField(n *dom.Node, text string) {
	n.SetText(text)
	n.SetAttr("value", text)
}

func (ad *admin) edited(text string) {
	if ad.active == nil {
		return
	}
	ad.active.Title, ad.active.Markdown = writ.SplitTitle(text)
}

func (ad *admin) publishState() {
	if ad.active != nil && ad.active.Public {
		ad.publish.SetAttr("class", "publish published")
		ad.publish.SetText("Unpublish")
		return
	}
	ad.publish.SetAttr("class", "publish")
	ad.publish.SetText("Publish")
}

// startNew saves the current writ if it can be saved and opens a blank one.
func (ad *admin) startNew() {
	if ad.active != nil && ad.active.Saveable() {
		ad.saveActive()
	}
	ad.edit(&writ.Writ{})
}

func (ad *admin) togglePublish() {
	if ad.active == nil {
		return
	}
	ad.active.Public = !ad.active.Public
	ad.publishState()
	ad.saveActive()
}

func (ad *admin) saveActive() {
	if ad.active == nil {
		return
	}
	if !ad.active.Saveable() {
		ad.app.notify("a writ needs a title, some markdown and at least one tag")
		return
	}
	snapshot := *ad.active
	snapshot.Tags = writ.NormalizeTags(snapshot.Tags)
	ad.app.background("save writ", func(ctx context.Context) error {
		return ad.app.backend.Save(ctx, &snapshot)
	}, func(err error) {
		if err != nil {
			ad.app.fail("saving writ", err)
			return
		}
		ad.app.notify("saved " + snapshot.Title)
		ad.populate()
	})
}

func (ad *admin) deleteActive() {
	if ad.active == nil || ad.active.Key == "" {
		return
	}
	key := ad.active.Key
	ad.app.background("delete writ", func(ctx context.Context) error {
		return ad.app.backend.Delete(ctx, key)
	}, func(err error) {
		if err != nil {
			ad.app.fail("deleting writ", err)
			return
		}
		delete(ad.writs, key)
		if ad.active != nil && ad.active.Key == key {
			ad.edit(&writ.Writ{})
		}
		ad.app.notify("writ deleted")
		ad.populate()
	})
}

func (ad *admin) renderPreview() {
	body := findIn(ad.app.router.Views(RoutePreview), "markdown-body")
	if body == nil {
		return
	}
	body.Clear()
	if ad.active == nil || (ad.active.Title == "" && ad.active.Markdown == "") {
		body.AppendChild(dom.P(dom.Class("empty"), "Nothing to preview."))
		return
	}
	body.AppendChild(dom.H1(ad.active.Title))
	html, err := writ.RenderBody(&writ.Writ{Markdown: ad.active.Markdown})
	if err != nil {
		ad.app.fail("rendering preview", err)
		return
	}
	body.AppendChild(html)
}

// updateApp asks the backend to update itself and shows its report on the
// update route, registered on first use.
func (ad *admin) updateApp() {
	var report string
	ad.app.background("update app", func(ctx context.Context) error {
		var err error
		report, err = ad.app.backend.UpdateApp(ctx)
		return err
	}, func(err error) {
		if err != nil {
			ad.app.fail("updating app", err)
			return
		}
		r := ad.app.router
		r.Revoke(RouteUpdate)
		r.RegisterView(RouteUpdate, dom.Section(dom.Class("update-report"), dom.Raw(report)))
		r.Activate(RouteUpdate)
	})
}
