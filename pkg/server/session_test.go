package server

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/writdesk/pkg/dom"
	"github.com/vango-dev/writdesk/pkg/hashroute"
)

// counterDoc is a small document with two routes, a counter button and a
// text input mirrored into the counter.
type counterDoc struct {
	env    Env
	button *dom.Node
	input  *dom.Node
	count  *dom.Node
	link   *dom.Node
	closed int
}

func (d *counterDoc) Start() *dom.Node {
	d.env.Router.RegisterView("#one", dom.P("one"))
	d.env.Router.RegisterView("#two", dom.P("two"))

	n := 0
	d.button = dom.Button(dom.Class("inc"), "inc")
	d.button.On("click", func(*dom.Event) {
		n++
		d.count.SetText(strconv.Itoa(n))
	})
	d.count = dom.Span(dom.Class("count"), "0")
	d.input = dom.Input(dom.Class("name"))
	d.input.On("input", func(e *dom.Event) {
		d.count.SetText(e.Value)
	})
	d.link = dom.A(dom.Attribute(hashroute.AttrRouteLink, "#two"), "two")

	root := dom.Div(d.button, d.count, d.input, d.link,
		dom.Main(dom.Attribute(hashroute.AttrRouteActive, "")))
	d.env.Registry.Attach(root)
	if d.env.Router.Location().Hash() == "" {
		d.env.Router.RequestActivate("#one")
	}
	return root
}

func (d *counterDoc) Close() { d.closed++ }

type docRecorder struct {
	mu   sync.Mutex
	docs []*counterDoc
}

func (r *docRecorder) factory(env Env) (Document, error) {
	d := &counterDoc{env: env}
	r.mu.Lock()
	r.docs = append(r.docs, d)
	r.mu.Unlock()
	return d, nil
}

func (r *docRecorder) doc(i int) *counterDoc {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.docs[i]
}

func (r *docRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

func newTestServer(t *testing.T, config *ServerConfig) (*Server, *docRecorder, *prometheus.Registry) {
	t.Helper()
	rec := &docRecorder{}
	reg := prometheus.NewRegistry()
	if config == nil {
		config = DefaultServerConfig()
	}
	return New(config, rec.factory, WithRegistry(reg, "")), rec, reg
}

// startSession starts a session without a connection and drives its loop
// by hand.
func startSession(t *testing.T, srv *Server, hash string) *Session {
	t.Helper()
	sess, err := srv.newSession("s1", hash, "192.0.2.1")
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	t.Cleanup(sess.Close)
	if err := sess.loop.Post(sess.startDocument); err != nil {
		t.Fatal(err)
	}
	sess.loop.Drain()
	return sess
}

func frames(t *testing.T, sess *Session) []ServerMessage {
	t.Helper()
	var out []ServerMessage
	for {
		select {
		case data := <-sess.send:
			var msg ServerMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("frame %s: %v", data, err)
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func lastBody(msgs []ServerMessage) (string, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == MsgBody {
			return msgs[i].HTML, true
		}
	}
	return "", false
}

func TestSessionStartWritesDefaultRouteAndBody(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	sess := startSession(t, srv, "")

	msgs := frames(t, sess)
	if len(msgs) != 2 {
		t.Fatalf("frames = %+v, want hash then body", msgs)
	}
	if msgs[0].Type != MsgHash || msgs[0].Hash != "#one" {
		t.Errorf("first frame = %+v, want hash #one", msgs[0])
	}
	body, _ := lastBody(msgs)
	if !strings.Contains(body, "<main route-active><p>one</p></main>") {
		t.Errorf("body does not show #one: %s", body)
	}
	if sess.Hash() != "#one" {
		t.Errorf("Hash() = %q", sess.Hash())
	}
}

func TestSessionDeepLink(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	sess := startSession(t, srv, "#two")

	msgs := frames(t, sess)
	if len(msgs) != 1 || msgs[0].Type != MsgBody {
		t.Fatalf("frames = %+v, want a single body", msgs)
	}
	if !strings.Contains(msgs[0].HTML, "<p>two</p>") {
		t.Errorf("body does not show #two: %s", msgs[0].HTML)
	}
}

func TestSessionEvents(t *testing.T) {
	srv, rec, _ := newTestServer(t, nil)
	sess := startSession(t, srv, "#one")
	frames(t, sess)
	doc := rec.doc(0)

	tests := []struct {
		name string
		msg  ClientMessage
		want string
	}{
		{"click", ClientMessage{Type: MsgClick, ID: doc.button.ID()}, `<span class="count">1</span>`},
		{"input", ClientMessage{Type: MsgInput, ID: doc.input.ID(), Value: "ada"}, `<span class="count">ada</span>`},
		{"route link", ClientMessage{Type: MsgClick, ID: doc.link.ID()}, "<p>two</p>"},
		{"browser hash", ClientMessage{Type: MsgHash, Hash: "#one"}, "<p>one</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := sess.Dispatch(tt.msg); err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			sess.loop.Drain()
			body, ok := lastBody(frames(t, sess))
			if !ok {
				t.Fatal("no body sent")
			}
			if !strings.Contains(body, tt.want) {
				t.Errorf("body missing %s: %s", tt.want, body)
			}
		})
	}
	if got := doc.input.Attrs()["value"]; got != "ada" {
		t.Errorf("input value = %q", got)
	}
}

func TestRouteLinkWritesHash(t *testing.T) {
	srv, rec, _ := newTestServer(t, nil)
	sess := startSession(t, srv, "#one")
	frames(t, sess)

	if err := sess.Dispatch(ClientMessage{Type: MsgClick, ID: rec.doc(0).link.ID()}); err != nil {
		t.Fatal(err)
	}
	sess.loop.Drain()
	msgs := frames(t, sess)
	if len(msgs) == 0 || msgs[0].Type != MsgHash || msgs[0].Hash != "#two" {
		t.Errorf("frames = %+v, want hash #two first", msgs)
	}
}

func TestBrowserHashIsNotEchoed(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	sess := startSession(t, srv, "#one")
	frames(t, sess)

	if err := sess.Dispatch(ClientMessage{Type: MsgHash, Hash: "#two"}); err != nil {
		t.Fatal(err)
	}
	sess.loop.Drain()
	for _, msg := range frames(t, sess) {
		if msg.Type == MsgHash {
			t.Errorf("browser hash echoed: %+v", msg)
		}
	}
}

func TestUnchangedBodyIsNotResent(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	sess := startSession(t, srv, "#one")
	frames(t, sess)

	if err := sess.Dispatch(ClientMessage{Type: MsgClick, ID: "stale"}); err != nil {
		t.Fatal(err)
	}
	sess.loop.Drain()
	if msgs := frames(t, sess); len(msgs) != 0 {
		t.Errorf("frames = %+v, want none", msgs)
	}
}

func TestDroppedBodyIsResent(t *testing.T) {
	config := DefaultServerConfig()
	config.Session.MaxSendQueue = 1
	srv, _, _ := newTestServer(t, config)
	sess := startSession(t, srv, "")

	msgs := frames(t, sess)
	if len(msgs) != 1 || msgs[0].Type != MsgHash {
		t.Fatalf("frames = %+v, want only the hash", msgs)
	}

	if err := sess.Dispatch(ClientMessage{Type: MsgClick, ID: "stale"}); err != nil {
		t.Fatal(err)
	}
	sess.loop.Drain()
	if _, ok := lastBody(frames(t, sess)); !ok {
		t.Error("body dropped by a full queue should be sent on the next flush")
	}
}

func TestSessionClose(t *testing.T) {
	srv, rec, _ := newTestServer(t, nil)
	sess := startSession(t, srv, "#one")

	sess.Close()
	sess.Close()
	if rec.doc(0).closed != 1 {
		t.Errorf("document closed %d times", rec.doc(0).closed)
	}
	if !sess.IsClosed() {
		t.Error("IsClosed() = false")
	}
	select {
	case <-sess.Done():
	default:
		t.Error("Done() not closed")
	}
	if err := sess.Dispatch(ClientMessage{Type: MsgHash, Hash: "#two"}); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Dispatch after close = %v", err)
	}
}

func TestFactoryErrorIsSessionError(t *testing.T) {
	boom := errors.New("boom")
	srv := New(nil, func(Env) (Document, error) { return nil, boom })
	_, err := srv.newSession("s9", "", "")

	var se *SessionError
	if !errors.As(err, &se) || se.SessionID != "s9" || !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}

	if _, err := New(nil, nil).newSession("s1", "", ""); !errors.Is(err, ErrNoDocument) {
		t.Errorf("nil factory: %v", err)
	}
}
