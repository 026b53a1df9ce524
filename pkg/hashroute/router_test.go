package hashroute

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/writdesk/pkg/dom"
	"github.com/vango-dev/writdesk/pkg/location"
	"github.com/vango-dev/writdesk/pkg/loop"
)

func newTestRouter(t *testing.T) (*Router, *loop.Loop, *location.AddressBar) {
	t.Helper()
	l := loop.New()
	bar := location.New(l, "")
	r := New(WithScheduler(l), WithLocation(bar))
	r.Listen(bar)
	return r, l, bar
}

// transitions records consumer calls as "name:true" / "name:false".
type transitions struct {
	calls []string
}

func (tr *transitions) handler(label string) *Handler {
	return HandlerFunc(func(_ *Route, active bool, name string) {
		tr.calls = append(tr.calls, fmt.Sprintf("%s:%s:%t", label, name, active))
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "#"},
		{"#", "#"},
		{"home", "#home"},
		{"#home", "#home"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHandlerRegisteredTwiceRunsOnce(t *testing.T) {
	r, l, _ := newTestRouter(t)
	calls := 0
	h := HandlerFunc(func(_ *Route, active bool, _ string) {
		if active {
			calls++
		}
	})

	r.RegisterHandler("home", h)
	r.RegisterHandler("#home", h)
	l.Drain()

	r.Activate("#home")
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	route, _ := r.Lookup("home")
	if route.Consumers() != 1 {
		t.Errorf("Consumers() = %d, want 1", route.Consumers())
	}
}

func TestActivationOrderNewBeforeOld(t *testing.T) {
	r, l, _ := newTestRouter(t)
	tr := &transitions{}
	r.RegisterHandler("#a", tr.handler("a"))
	r.RegisterHandler("#b", tr.handler("b"))
	r.ActiveBind(dom.Main())
	l.Drain()

	r.Activate("#a")
	tr.calls = nil
	r.Activate("#b")

	want := []string{"b:#b:true", "a:#a:false"}
	if len(tr.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", tr.calls, want)
	}
	for i := range want {
		if tr.calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, tr.calls[i], want[i])
		}
	}
	if r.Active() != "#b" {
		t.Errorf("Active() = %q", r.Active())
	}
}

func TestActiveMarkerSetAfterNotification(t *testing.T) {
	r, l, _ := newTestRouter(t)
	var seenActive string
	r.RegisterHandler("#a", HandlerFunc(func(*Route, bool, string) {
		seenActive = r.Active()
	}))
	l.Drain()

	r.Activate("#a")
	if seenActive != "" {
		t.Errorf("consumer saw Active() = %q, want previous (empty)", seenActive)
	}
}

func TestReactivationIsIdempotent(t *testing.T) {
	r, l, _ := newTestRouter(t)
	tr := &transitions{}
	r.RegisterHandler("#a", tr.handler("a"))
	l.Drain()

	r.Activate("#a")
	tr.calls = nil
	r.Activate("a")
	r.Activate("#a")
	r.Reconcile()

	if len(tr.calls) != 0 {
		t.Errorf("calls = %v, want none", tr.calls)
	}
}

func TestActivateMissingRouteIsNoop(t *testing.T) {
	r, _, bar := newTestRouter(t)
	r.Activate("#nowhere")
	if r.Active() != "" {
		t.Errorf("Active() = %q", r.Active())
	}
	if bar.Hash() != "" {
		t.Errorf("address bar written for a missing route: %q", bar.Hash())
	}
}

func TestActivateWritesAddressBar(t *testing.T) {
	r, l, bar := newTestRouter(t)
	tr := &transitions{}
	r.RegisterHandler("#editor", tr.handler("e"))
	l.Drain()

	r.Activate("editor")
	if bar.Hash() != "#editor" {
		t.Errorf("Hash() = %q", bar.Hash())
	}

	// The hash change comes back as a reconcile and must not re-notify.
	l.Drain()
	if len(tr.calls) != 1 {
		t.Errorf("calls = %v, want exactly one activation", tr.calls)
	}
}

func TestHashChangeReconciles(t *testing.T) {
	r, l, bar := newTestRouter(t)
	tr := &transitions{}
	r.RegisterHandler("#writs", tr.handler("w"))
	l.Drain()

	bar.Navigate("writs")
	if len(tr.calls) != 0 {
		t.Fatal("activation must wait for the change event")
	}
	l.Drain()
	if r.Active() != "#writs" || len(tr.calls) != 1 {
		t.Errorf("Active() = %q calls = %v", r.Active(), tr.calls)
	}
}

func TestRegistrationSchedulesReconcile(t *testing.T) {
	r, l, bar := newTestRouter(t)
	bar.Navigate("#home")
	l.Drain()

	r.RegisterView("#home", dom.P("welcome"))
	if r.Active() != "" {
		t.Fatal("registration must not activate synchronously")
	}
	l.Drain()
	if r.Active() != "#home" {
		t.Errorf("Active() = %q, want #home", r.Active())
	}
}

func TestRequestActivateIsTwoPhase(t *testing.T) {
	r, l, bar := newTestRouter(t)
	tr := &transitions{}
	r.RegisterHandler("#a", tr.handler("a"))
	l.Drain()

	r.RequestActivate("a")
	if bar.Hash() != "#a" {
		t.Errorf("Hash() = %q", bar.Hash())
	}
	if len(tr.calls) != 0 {
		t.Fatal("RequestActivate must not notify synchronously")
	}
	l.Drain()
	if len(tr.calls) != 1 || r.Active() != "#a" {
		t.Errorf("calls = %v Active() = %q", tr.calls, r.Active())
	}
}

func TestRequestActivateWhenHashAlreadyMatches(t *testing.T) {
	r, l, bar := newTestRouter(t)
	bar.Navigate("#a")
	l.Drain()

	tr := &transitions{}
	r.RegisterHandler("#a", tr.handler("a"))
	r.RequestActivate("#a")
	l.Drain()
	if r.Active() != "#a" || len(tr.calls) != 1 {
		t.Errorf("Active() = %q calls = %v", r.Active(), tr.calls)
	}
}

func TestRegisterViewKeepsConsumers(t *testing.T) {
	r, l, _ := newTestRouter(t)
	tr := &transitions{}
	r.RegisterHandler("#a", tr.handler("a"))
	r.RegisterView("#a", dom.P("one"))
	r.RegisterView("#a", dom.P("two"))
	l.Drain()

	route, ok := r.Lookup("#a")
	if !ok || route.Consumers() != 1 {
		t.Fatal("consumer lost on view re-registration")
	}
	if got := route.View()[0].TextContent(); got != "two" {
		t.Errorf("view = %q, want two", got)
	}
}

func TestRegisterTemplateExtractsContent(t *testing.T) {
	r, _, _ := newTestRouter(t)
	tmpl := dom.Template(dom.H1("Title"), dom.P("Body"))
	doc := dom.Div(tmpl)

	r.RegisterTemplate("home", tmpl)

	if tmpl.Parent() != nil || len(doc.Children()) != 0 {
		t.Error("template should be removed from the document")
	}
	views := r.Views("#home")
	if len(views) != 2 || views[0].TextContent() != "Title" {
		t.Errorf("views = %v", views)
	}
	for _, v := range views {
		if v.Parent() != nil {
			t.Error("view nodes must be detached")
		}
	}
}

func TestRegisterTemplateWithPlainNode(t *testing.T) {
	r, _, _ := newTestRouter(t)
	n := dom.P("plain")
	r.RegisterTemplate("#p", n)
	if views := r.Views("#p"); len(views) != 1 || views[0] != n {
		t.Errorf("views = %v", views)
	}
}

func TestRevokeRoute(t *testing.T) {
	r, l, _ := newTestRouter(t)
	host := dom.Aside()
	r.RegisterView("#a", dom.P("a"))
	bind := r.ViewBind("#a", host)
	h := HandlerFunc(func(*Route, bool, string) {})
	r.RegisterHandler("#a", h)
	l.Drain()

	if !r.Revoke("a") {
		t.Fatal("Revoke returned false")
	}
	if _, ok := r.Lookup("#a"); ok {
		t.Error("route should be deleted")
	}
	if _, ok := r.BoundTo(host); ok {
		t.Error("bind should be revoked")
	}
	bind.Revoke() // already revoked
	if r.Revoke("#a") {
		t.Error("second Revoke should report false")
	}
}

func TestRevokeActiveRouteClearsMarker(t *testing.T) {
	r, l, _ := newTestRouter(t)
	tr := &transitions{}
	r.RegisterHandler("#a", tr.handler("first"))
	l.Drain()
	r.Activate("#a")

	r.Revoke("#a")
	if r.Active() != "" {
		t.Fatalf("Active() = %q after revoking it", r.Active())
	}

	tr.calls = nil
	r.RegisterHandler("#a", tr.handler("second"))
	r.Activate("#a")
	if len(tr.calls) != 1 || tr.calls[0] != "second:#a:true" {
		t.Errorf("calls = %v", tr.calls)
	}
}

func TestWhenActiveRunsOnce(t *testing.T) {
	r, l, _ := newTestRouter(t)
	r.RegisterView("#a", dom.P("a"))
	r.RegisterView("#b", dom.P("b"))
	l.Drain()

	runs := 0
	r.WhenActive("a", func(route *Route) {
		if route.Name() != "#a" {
			t.Errorf("route = %q", route.Name())
		}
		runs++
	})

	r.Activate("#a")
	r.Activate("#b")
	r.Activate("#a")
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
	route, _ := r.Lookup("#a")
	if route.Consumers() != 0 {
		t.Error("one-shot handler should remove itself")
	}
}

func TestWhenActiveOnActiveRoute(t *testing.T) {
	r, l, _ := newTestRouter(t)
	r.RegisterView("#a", dom.P("a"))
	l.Drain()
	r.Activate("#a")

	runs := 0
	r.WhenActive("#a", func(*Route) { runs++ })
	if runs != 0 {
		t.Fatal("must not run synchronously")
	}
	l.Drain()
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
}

func TestWhenActiveCancelled(t *testing.T) {
	r, l, _ := newTestRouter(t)
	r.RegisterView("#a", dom.P("a"))
	l.Drain()

	runs := 0
	h := r.WhenActive("#a", func(*Route) { runs++ })
	if !r.RemoveHandler("#a", h) {
		t.Fatal("RemoveHandler returned false")
	}
	r.Activate("#a")
	if runs != 0 {
		t.Error("cancelled handler ran")
	}
	if r.RemoveHandler("#missing", h) {
		t.Error("RemoveHandler on a missing route should report false")
	}
}

func TestConsumerRemovedDuringNotificationIsSkipped(t *testing.T) {
	r, l, _ := newTestRouter(t)
	second := 0
	var h2 *Handler
	h1 := HandlerFunc(func(*Route, bool, string) { r.RemoveHandler("#a", h2) })
	h2 = HandlerFunc(func(*Route, bool, string) { second++ })
	r.RegisterHandler("#a", h1)
	r.RegisterHandler("#a", h2)
	l.Drain()

	r.Activate("#a")
	if second != 0 {
		t.Error("removed consumer should not be notified")
	}
}

func TestAccessors(t *testing.T) {
	r, l, _ := newTestRouter(t)
	r.RegisterView("#b")
	r.RegisterHandler("a", HandlerFunc(func(*Route, bool, string) {}))
	l.Drain()

	routes := r.Routes()
	if len(routes) != 2 || routes[0] != "#a" || routes[1] != "#b" {
		t.Errorf("Routes() = %v", routes)
	}
	if b, _ := r.Lookup("#b"); !b.HasView() {
		t.Error("#b has an (empty) view")
	}
	if a, _ := r.Lookup("#a"); a.HasView() {
		t.Error("#a has no view")
	}
	if r.Views("#zzz") != nil {
		t.Error("Views of a missing route should be nil")
	}
	if r.Location() == nil {
		t.Error("Location() is nil")
	}
}

func TestDefaultsWithoutOptions(t *testing.T) {
	r := New()
	r.RegisterView("#x", dom.P("x"))
	r.Activate("#x")
	if r.Active() != "#x" || r.Location().Hash() != "#x" {
		t.Errorf("Active() = %q Hash() = %q", r.Active(), r.Location().Hash())
	}
}

func TestPendingActivation(t *testing.T) {
	r, l, bar := newTestRouter(t)
	r.RegisterView("#home", dom.P("home"))
	l.Drain()

	r.Activate("#later")
	r.RegisterView("#later", dom.P("later"))
	l.Drain()
	if r.Active() != "#later" || bar.Hash() != "#later" {
		t.Errorf("Active() = %q Hash() = %q, want #later", r.Active(), bar.Hash())
	}
}

func TestPendingDroppedWhenRegisteredRouteResolves(t *testing.T) {
	tests := []struct {
		name    string
		resolve func(r *Router, bar *location.AddressBar)
	}{
		{"activate active route", func(r *Router, _ *location.AddressBar) { r.Activate("#home") }},
		{"request active route", func(r *Router, _ *location.AddressBar) { r.RequestActivate("#home") }},
		{"navigate to other route", func(_ *Router, bar *location.AddressBar) { bar.Navigate("#writs") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, l, bar := newTestRouter(t)
			r.RegisterView("#home", dom.P("home"))
			r.RegisterView("#writs", dom.P("writs"))
			l.Drain()
			r.Activate("#home")
			l.Drain()

			r.Activate("#later")
			tt.resolve(r, bar)
			l.Drain()
			want := r.Active()

			r.RegisterView("#later", dom.P("later"))
			l.Drain()
			if r.Active() != want || bar.Hash() != want {
				t.Errorf("Active() = %q Hash() = %q, want %s", r.Active(), bar.Hash(), want)
			}
		})
	}
}

func TestWhenActiveLogsUnscheduledCallback(t *testing.T) {
	var buf bytes.Buffer
	l := loop.New()
	bar := location.New(l, "")
	r := New(WithScheduler(l), WithLocation(bar),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	r.RegisterView("#a", dom.P("a"))
	r.Activate("#a")
	l.Close()

	ran := false
	r.WhenActive("#a", func(*Route) { ran = true })
	if ran {
		t.Error("callback ran synchronously")
	}
	if !strings.Contains(buf.String(), "when-active callback not scheduled") {
		t.Errorf("log = %q", buf.String())
	}
}
