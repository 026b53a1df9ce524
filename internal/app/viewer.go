package app

import (
	"context"

	"github.com/vango-dev/writdesk/pkg/dom"
	"github.com/vango-dev/writdesk/pkg/hashroute"
	"github.com/vango-dev/writdesk/pkg/writ"
)

// Viewer routes.
const (
	RouteHome  = "#home"
	RouteWrits = "#writs"
	RouteWrit  = "#writ"
)

// latestCount is how many writs the home view shows.
const latestCount = 5

// viewer is the public document: latest writs, a paged list, and a writ
// display.
type viewer struct {
	app *App

	latest  *dom.Node
	entries *dom.Node
	more    *dom.Node
	display writDisplay

	writs   map[string]*writ.Writ
	listed  int
	page    int
	loading bool
	done    bool
	current string
}

type writDisplay struct {
	title, created, author, content, tags, injection *dom.Node
}

func newViewer(a *App) *viewer {
	return &viewer{app: a, writs: make(map[string]*writ.Writ)}
}

func (v *viewer) links() []*dom.Node {
	return []*dom.Node{
		dom.A(dom.Attribute(hashroute.AttrRouteLink, RouteHome), "Home"),
		dom.A(dom.Attribute(hashroute.AttrRouteLink, RouteWrits), "Writs"),
	}
}

func (v *viewer) templates() []*dom.Node {
	v.latest = dom.Div(dom.Class("latest"))
	v.entries = dom.Div(dom.Class("entries"))
	v.more = dom.Button(dom.Class("more"), "More")
	v.display = writDisplay{
		title:     dom.H1(dom.Class("title")),
		created:   dom.Span(dom.Class("created")),
		author:    dom.Span(dom.Class("author")),
		content:   dom.Article(dom.Class("markdown-body")),
		tags:      dom.Div(dom.Class("tags")),
		injection: dom.Div(dom.Class("injection")),
	}
	d := v.display

	return []*dom.Node{
		dom.Template(dom.Attribute(hashroute.AttrRoute, RouteHome),
			dom.Section(dom.Class("home"), dom.H2("Latest"), v.latest),
		),
		dom.Template(dom.Attribute(hashroute.AttrRoute, RouteWrits),
			dom.Aside(dom.Class("writlist"), v.entries, v.more),
		),
		dom.Template(dom.Attribute(hashroute.AttrRoute, RouteWrit),
			dom.Section(dom.Class("writdisplay"),
				dom.Header(d.title, d.created, dom.Span("/"), d.author),
				d.content,
				dom.Element("footer", d.tags),
				d.injection,
			),
		),
	}
}

func (v *viewer) install() {
	r := v.app.router
	v.more.On("click", func(*dom.Event) { v.loadPage() })

	r.RegisterHandler(RouteHome, hashroute.HandlerFunc(func(_ *hashroute.Route, active bool, _ string) {
		if active {
			v.loadLatest()
		}
	}))
	r.RegisterHandler(RouteWrits, hashroute.HandlerFunc(func(_ *hashroute.Route, active bool, _ string) {
		if active && v.listed == 0 {
			v.loadPage()
		}
	}))
}

func (v *viewer) loadLatest() {
	var got []writ.Writ
	v.app.background("latest writs", func(ctx context.Context) error {
		var err error
		got, err = v.app.backend.Writs(ctx, 0, latestCount)
		return err
	}, func(err error) {
		if err != nil {
			v.app.fail("loading writs", err)
			return
		}
		v.latest.Clear()
		for i := range got {
			w := v.remember(got[i])
			v.latest.AppendChild(v.entry(w))
		}
		if len(got) == 0 {
			v.latest.AppendChild(dom.P(dom.Class("empty"), "Nothing published yet."))
		}
	})
}

// loadPage fetches the next list page. Only one page load runs at a time.
func (v *viewer) loadPage() {
	if v.loading || v.done {
		return
	}
	v.loading = true
	page, count := v.page, v.app.config.PageSize

	var got []writ.Writ
	v.app.background("writ list", func(ctx context.Context) error {
		var err error
		got, err = v.app.backend.List(ctx, page, count)
		return err
	}, func(err error) {
		v.loading = false
		if err != nil {
			v.app.fail("loading writs", err)
			return
		}
		for i := range got {
			w := v.remember(got[i])
			v.entries.AppendChild(v.entry(w))
			v.listed++
		}
		v.page++
		if len(got) < count {
			v.done = true
			v.more.SetAttr("hidden", "")
		}
		if v.current == "" && len(got) > 0 {
			v.fill(got[len(got)-1].Key)
		}
	})
}

func (v *viewer) remember(w writ.Writ) *writ.Writ {
	if known, ok := v.writs[w.Key]; ok && known.Markdown != "" && w.Markdown == "" {
		return known
	}
	stored := w
	v.writs[w.Key] = &stored
	return &stored
}

func (v *viewer) entry(w *writ.Writ) *dom.Node {
	key := w.Key
	n := dom.Div(dom.Class("writ"), dom.Data("key", key),
		dom.Span(dom.Class("title"), w.Title),
		dom.Span(dom.Class("created"), formatDate(w.Created)),
	)
	n.On("click", func(*dom.Event) { v.show(key) })
	return n
}

// show displays the writ and activates the writ route. List entries carry
// no body, so a writ without one is fetched first.
func (v *viewer) show(key string) {
	w, ok := v.writs[key]
	if !ok {
		return
	}
	if w.Markdown != "" || w.Content != "" {
		v.fill(key)
		v.app.router.Activate(RouteWrit)
		return
	}

	var full *writ.Writ
	v.app.background("writ", func(ctx context.Context) error {
		var err error
		full, err = v.app.backend.Get(ctx, key)
		return err
	}, func(err error) {
		if err != nil {
			v.app.fail("loading writ", err)
			return
		}
		v.writs[key] = full
		v.fill(key)
		v.app.router.Activate(RouteWrit)
	})
}

// fill writes the writ into the display nodes, shown or not.
func (v *viewer) fill(key string) {
	w, ok := v.writs[key]
	if !ok {
		return
	}
	v.current = key
	d := v.display
	d.title.SetText(w.Title)
	d.created.SetText(formatDate(w.Created))
	d.author.SetText(w.Author)

	d.content.Clear()
	if body, err := writ.RenderBody(w); err != nil {
		v.app.logger.Warn("render writ body", "writ", key, "error", err)
	} else {
		d.content.AppendChild(body)
	}

	d.tags.Clear()
	for _, t := range w.Tags {
		d.tags.AppendChild(dom.Span(dom.Class("tag"), t))
	}

	d.injection.Clear()
	if w.Injection != "" {
		d.injection.AppendChild(dom.Raw(w.Injection))
	}
}
