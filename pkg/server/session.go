package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"

	"github.com/vango-dev/writdesk/pkg/directive"
	"github.com/vango-dev/writdesk/pkg/dom"
	"github.com/vango-dev/writdesk/pkg/hashroute"
	"github.com/vango-dev/writdesk/pkg/location"
	"github.com/vango-dev/writdesk/pkg/loop"
	"github.com/vango-dev/writdesk/pkg/render"
)

// Document is what a session shows. Start runs on the session loop and
// returns the root to mirror; Close may run on any goroutine.
type Document interface {
	Start() *dom.Node
	Close()
}

// Env is the per-session machinery a document is built on.
type Env struct {
	SessionID string
	Router    *hashroute.Router
	Registry  *directive.Registry
	Loop      *loop.Loop
	Logger    *slog.Logger
}

// DocumentFactory builds the document of a new session.
type DocumentFactory func(env Env) (Document, error)

// Session is one connected browser.
type Session struct {
	ID        string
	CreatedAt time.Time
	Remote    string

	config  *SessionConfig
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer

	conn *websocket.Conn

	// Owned by the loop goroutine.
	loop     *loop.Loop
	bar      *location.AddressBar
	router   *hashroute.Router
	registry *directive.Registry
	doc      Document
	root     *dom.Node
	renderer *render.Renderer
	lastBody string

	send      chan []byte
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
	onClose   func(*Session)
}

// newSession wires a session's loop, address bar, router and document. The
// document is not started until Start.
func (srv *Server) newSession(id, hash, remote string) (*Session, error) {
	if srv.factory == nil {
		return nil, ErrNoDocument
	}
	cfg := srv.config.Session
	logger := srv.logger.With("session_id", id)

	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		Remote:    remote,
		config:    cfg,
		logger:    logger,
		metrics:   srv.metrics,
		tracer:    srv.tracer,
		renderer:  render.NewRenderer(render.RendererConfig{NodeIDs: true}),
		send:      make(chan []byte, cfg.MaxSendQueue),
		done:      make(chan struct{}),
	}
	s.loop = loop.New(
		loop.WithQueueSize(cfg.MaxEventQueue),
		loop.WithLogger(logger),
		loop.WithIdle(s.flush),
	)
	s.bar = location.New(s.loop, hash)
	s.bar.SetSink(func(h string) {
		s.enqueue(ServerMessage{Type: MsgHash, Hash: h})
	})
	s.registry = directive.NewRegistry(logger)
	s.router = hashroute.New(
		hashroute.WithScheduler(s.loop),
		hashroute.WithLocation(s.bar),
		hashroute.WithRenderer(directive.Renderer{Registry: s.registry}),
		hashroute.WithLogger(logger),
		hashroute.WithMetrics(srv.routerMetrics),
		hashroute.WithTracer(srv.tracer),
	)
	s.router.Listen(s.bar)
	s.router.Install(s.registry)

	doc, err := srv.factory(Env{
		SessionID: id,
		Router:    s.router,
		Registry:  s.registry,
		Loop:      s.loop,
		Logger:    logger,
	})
	if err != nil {
		s.loop.Close()
		return nil, NewSessionError(id, "document", err)
	}
	s.doc = doc
	return s, nil
}

// Start queues the document start and runs the loop. With a connection it
// also starts the WriteLoop.
func (s *Session) Start() error {
	if err := s.loop.Post(s.startDocument); err != nil {
		return NewSessionError(s.ID, "start", err)
	}
	go func() {
		_ = s.loop.Run(context.Background())
	}()
	if s.conn != nil {
		go s.WriteLoop()
	}
	return nil
}

func (s *Session) startDocument() {
	s.root = s.doc.Start()
	s.logger.Info("session started", "hash", s.bar.Hash(), "remote", s.Remote)
}

// Dispatch posts a client frame onto the session loop.
func (s *Session) Dispatch(msg ClientMessage) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return s.loop.Post(func() { s.handle(msg) })
}

func (s *Session) handle(msg ClientMessage) {
	_, span := s.tracer.Start(context.Background(), "session.message",
		trace.WithAttributes(
			attribute.String("session.id", s.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	switch msg.Type {
	case MsgHello, MsgHash:
		s.bar.Navigate(msg.Hash)
	case MsgClick:
		if n := s.lookup(msg.ID); n != nil {
			n.Click()
		}
	case MsgInput:
		if n := s.lookup(msg.ID); n != nil {
			n.Input(msg.Value)
		}
	}
}

// lookup finds a listening node. Stale ids from a body the browser had not
// replaced yet are ignored.
func (s *Session) lookup(id string) *dom.Node {
	if s.root == nil {
		return nil
	}
	n := s.root.FindByID(id)
	if n == nil {
		s.logger.Debug("event for unknown node", "id", id)
	}
	return n
}

// flush sends the document when it differs from the last body sent. It is
// the loop's idle hook.
func (s *Session) flush() {
	if s.root == nil || s.closed.Load() {
		return
	}
	html, err := s.renderer.RenderToString(s.root)
	if err != nil {
		s.logger.Error("render failed", "error", err)
		return
	}
	if html == s.lastBody {
		return
	}
	s.lastBody = html
	s.metrics.bodyFlushed(len(html))
	s.enqueue(ServerMessage{Type: MsgBody, HTML: html})
}

// enqueue hands a frame to the WriteLoop. It never blocks the loop.
func (s *Session) enqueue(msg ServerMessage) {
	data, err := EncodeServerMessage(msg)
	if err != nil {
		s.logger.Error("encode frame", "type", msg.Type, "error", err)
		return
	}
	select {
	case s.send <- data:
		s.metrics.frameSent(msg.Type)
	default:
		s.metrics.frameDropped("send_queue_full")
		s.logger.Warn("frame dropped", "type", msg.Type, "error", ErrSendQueueFull)
		if msg.Type == MsgBody {
			// Resend on the next flush.
			s.lastBody = ""
		}
	}
}

// Hash returns the session's address bar fragment. It must be called on
// the loop.
func (s *Session) Hash() string {
	return s.bar.Hash()
}

// Router returns the session's router.
func (s *Session) Router() *hashroute.Router {
	return s.router
}

// Loop returns the session loop.
func (s *Session) Loop() *loop.Loop {
	return s.loop
}

// Done returns a channel that's closed when the session closes.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// IsClosed reports whether Close has been called.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Close stops the session: it cancels the document, stops the loop and
// closes the connection. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.loop.Close()
		if s.doc != nil {
			s.doc.Close()
		}
		if s.conn != nil {
			deadline := time.Now().Add(time.Second)
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			_ = s.conn.Close()
		}
		executed, panics := s.loop.Stats()
		s.logger.Info("session closed",
			"duration", time.Since(s.CreatedAt).Round(time.Millisecond),
			"tasks", executed,
			"panics", panics)
		if s.onClose != nil {
			s.onClose(s)
		}
	})
}

func (s *Session) String() string {
	return fmt.Sprintf("session %s (%s)", s.ID, s.Remote)
}
