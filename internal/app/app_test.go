package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/vango-dev/writdesk/pkg/directive"
	"github.com/vango-dev/writdesk/pkg/dom"
	"github.com/vango-dev/writdesk/pkg/hashroute"
	"github.com/vango-dev/writdesk/pkg/location"
	"github.com/vango-dev/writdesk/pkg/loop"
	"github.com/vango-dev/writdesk/pkg/writ"
)

// fakeBackend is an in-memory Backend. It is called from background
// goroutines, so every method locks.
type fakeBackend struct {
	mu      sync.Mutex
	writs   []writ.Writ
	saved   []writ.Writ
	deleted []string
	queries []writ.Query
	err     error
	report  string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		writs: []writ.Writ{
			{Key: "w1", Title: "First", Markdown: "one", Tags: []string{"go"}, Public: true, Author: "ann"},
			{Key: "w2", Title: "Second", Markdown: "two", Tags: []string{"web"}},
		},
		report: "<h3>attempting server update</h3>",
	}
}

func (f *fakeBackend) Query(_ context.Context, q writ.Query) ([]writ.Writ, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return append([]writ.Writ(nil), f.writs...), nil
}

func (f *fakeBackend) Get(_ context.Context, key string) (*writ.Writ, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, w := range f.writs {
		if w.Key == key {
			return &w, nil
		}
	}
	return nil, writ.ErrNotFound
}

func (f *fakeBackend) Save(_ context.Context, w *writ.Writ) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, *w)
	for i := range f.writs {
		if f.writs[i].Key == w.Key && w.Key != "" {
			f.writs[i] = *w
			return nil
		}
	}
	stored := *w
	if stored.Key == "" {
		stored.Key = "new-" + w.Title
	}
	f.writs = append(f.writs, stored)
	return nil
}

func (f *fakeBackend) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, key)
	kept := f.writs[:0]
	for _, w := range f.writs {
		if w.Key != key {
			kept = append(kept, w)
		}
	}
	f.writs = kept
	return nil
}

func (f *fakeBackend) List(_ context.Context, page, count int) ([]writ.Writ, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []writ.Writ
	for i := page * count; i < len(f.writs) && i < (page+1)*count; i++ {
		entry := f.writs[i]
		entry.Markdown = ""
		out = append(out, entry)
	}
	return out, nil
}

func (f *fakeBackend) Writs(_ context.Context, _, count int) ([]writ.Writ, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if count > len(f.writs) {
		count = len(f.writs)
	}
	return append([]writ.Writ(nil), f.writs[:count]...), nil
}

func (f *fakeBackend) UpdateApp(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.report, f.err
}

func (f *fakeBackend) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type harness struct {
	t       *testing.T
	app     *App
	loop    *loop.Loop
	bar     *location.AddressBar
	router  *hashroute.Router
	backend *fakeBackend
}

func newHarness(t *testing.T, mode Mode, hash string, backend *fakeBackend) *harness {
	t.Helper()
	l := loop.New()
	bar := location.New(l, hash)
	reg := directive.NewRegistry(nil)
	r := hashroute.New(
		hashroute.WithScheduler(l),
		hashroute.WithLocation(bar),
		hashroute.WithRenderer(directive.Renderer{Registry: reg}),
	)
	r.Listen(bar)
	r.Install(reg)

	a, err := New(Config{Mode: mode, Title: "Desk", MessageTTL: -1}, Deps{
		Backend:  backend,
		Router:   r,
		Registry: reg,
		Poster:   l,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(a.Close)

	h := &harness{t: t, app: a, loop: l, bar: bar, router: r, backend: backend}
	a.Start()
	h.settle()
	return h
}

// settle runs the loop until no task is queued and no backend call is in
// flight.
func (h *harness) settle() {
	h.t.Helper()
	for i := 0; i < 50; i++ {
		h.app.Wait()
		if h.loop.Drain() == 0 {
			return
		}
	}
	h.t.Fatal("loop did not settle")
}

func (h *harness) find(class string) *dom.Node {
	h.t.Helper()
	n := h.app.Document().FindClass(class)
	if n == nil {
		h.t.Fatalf("no .%s in the document", class)
	}
	return n
}

func (h *harness) link(route string) *dom.Node {
	h.t.Helper()
	n := h.app.Document().Find(func(n *dom.Node) bool {
		v, ok := n.Attr(hashroute.AttrRouteLink)
		return ok && v == route
	})
	if n == nil {
		h.t.Fatalf("no link to %s", route)
	}
	return n
}

func (h *harness) entry(key string) *dom.Node {
	h.t.Helper()
	n := h.app.Document().Find(func(n *dom.Node) bool {
		v, _ := n.Attr("data-key")
		return n.HasClass("writ") && v == key
	})
	if n == nil {
		h.t.Fatalf("no entry for %s", key)
	}
	return n
}

func TestNewValidates(t *testing.T) {
	l := loop.New()
	r := hashroute.New(hashroute.WithScheduler(l))
	reg := directive.NewRegistry(nil)

	if _, err := New(Config{Mode: "editor"}, Deps{Backend: newFakeBackend(), Router: r, Registry: reg, Poster: l}); err == nil {
		t.Error("unknown mode should fail")
	}
	if _, err := New(Config{}, Deps{Router: r, Registry: reg, Poster: l}); err == nil {
		t.Error("missing backend should fail")
	}
}

func TestConfigDefaults(t *testing.T) {
	tests := []struct {
		mode  Mode
		route string
	}{
		{"", "#home"},
		{ModeViewer, "#home"},
		{ModeAdmin, "#editor"},
	}
	for _, tt := range tests {
		cfg := Config{Mode: tt.mode}.withDefaults()
		if cfg.DefaultRoute != tt.route {
			t.Errorf("mode %q: DefaultRoute = %q, want %q", tt.mode, cfg.DefaultRoute, tt.route)
		}
		if cfg.PageSize != 15 || cfg.Title != "writdesk" {
			t.Errorf("mode %q: defaults = %+v", tt.mode, cfg)
		}
	}
	if got := (Config{DefaultRoute: "#writs"}).withDefaults().DefaultRoute; got != "#writs" {
		t.Errorf("explicit DefaultRoute overridden: %q", got)
	}
}

func TestStartWritesDefaultRoute(t *testing.T) {
	h := newHarness(t, ModeViewer, "", newFakeBackend())
	if h.bar.Hash() != RouteHome {
		t.Errorf("Hash() = %q, want %s", h.bar.Hash(), RouteHome)
	}
	if h.router.Active() != RouteHome {
		t.Errorf("Active() = %q, want %s", h.router.Active(), RouteHome)
	}
	if got := h.find("msg").TextContent(); got != "" {
		t.Errorf("message = %q", got)
	}
	if h.app.Document().TextContent() == "" || !strings.Contains(h.app.Document().TextContent(), "Desk") {
		t.Error("document should carry the title")
	}
}

func TestStartKeepsDeepLink(t *testing.T) {
	h := newHarness(t, ModeViewer, "#writs", newFakeBackend())
	if h.router.Active() != RouteWrits {
		t.Errorf("Active() = %q, want %s", h.router.Active(), RouteWrits)
	}
	if h.bar.Hash() != RouteWrits {
		t.Errorf("Hash() = %q", h.bar.Hash())
	}
}

func TestBackendFailureShowsMessage(t *testing.T) {
	fb := newFakeBackend()
	fb.setErr(errors.New("boom"))
	h := newHarness(t, ModeViewer, "", fb)
	if got := h.app.Message(); !strings.Contains(got, "loading writs failed: boom") {
		t.Errorf("Message() = %q", got)
	}
}
