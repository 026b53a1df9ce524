package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/writdesk/pkg/hashroute"
	"github.com/vango-dev/writdesk/pkg/render"
)

// Server serves the page shell and one Session per WebSocket.
type Server struct {
	config         *ServerConfig
	factory        DocumentFactory
	logger         *slog.Logger
	tracer         trace.Tracer
	metrics        *Metrics
	routerMetrics  *hashroute.Metrics
	gatherer       prometheus.Gatherer
	trustedProxies *proxyMatcher
	upgrader       websocket.Upgrader
	renderer       *render.Renderer
	router         chi.Router
	httpServer     *http.Server

	mu       sync.Mutex
	sessions map[string]*Session
	reserved int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the tracer used for sessions and their routers.
func WithTracer(t trace.Tracer) Option {
	return func(s *Server) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithRegistry registers server and router metrics under namespace on reg
// and serves reg on the metrics path. An empty namespace means "writdesk".
func WithRegistry(reg *prometheus.Registry, namespace string) Option {
	return func(s *Server) {
		s.metrics = NewMetrics(MetricsConfig{Namespace: namespace, Registry: reg})
		s.routerMetrics = hashroute.NewMetrics(hashroute.MetricsConfig{Namespace: namespace, Registry: reg})
		s.gatherer = reg
	}
}

// New creates a server. A nil config uses DefaultServerConfig.
func New(config *ServerConfig, factory DocumentFactory, opts ...Option) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	if config.Session == nil {
		config.Session = DefaultSessionConfig()
	}
	if config.SocketPath == "" {
		config.SocketPath = "/ws"
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 30 * time.Second
	}
	s := &Server{
		config:   config,
		factory:  factory,
		logger:   slog.Default(),
		tracer:   otel.Tracer("writdesk/server"),
		renderer: render.NewRenderer(render.RendererConfig{}),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	s.trustedProxies = newProxyMatcher(config.TrustedProxies, s.logger)

	checkOrigin := config.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = SameOriginCheck
	}
	s.upgrader = websocket.Upgrader{
		HandshakeTimeout: config.Session.HandshakeTimeout,
		CheckOrigin:      checkOrigin,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handlePage)
	r.Get(s.config.SocketPath, s.HandleWebSocket)
	r.Get("/healthz", s.handleHealth)
	if s.config.MetricsPath != "" {
		gatherer := s.gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		r.Handle(s.config.MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	err := s.renderer.RenderPage(w, render.PageData{
		Title:       s.config.Title,
		StyleSheets: s.config.StyleSheets,
		SocketPath:  s.config.SocketPath,
	})
	if err != nil {
		s.logger.Error("page render failed", "error", err)
	}
}

type health struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(health{Status: "ok", Sessions: s.SessionCount()})
}

// HandleWebSocket upgrades the connection, waits for the hello frame and
// runs a session until the connection ends.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.reserve() {
		s.logger.Warn("session refused", "error", ErrMaxSessionsReached, "remote", s.clientIP(r))
		http.Error(w, "too many sessions", http.StatusServiceUnavailable)
		return
	}
	defer s.release()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	hello, err := readHello(conn, s.config.Session)
	if err != nil {
		s.logger.Debug("handshake failed", "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseProtocolError, "expected hello"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	sess, err := s.newSession(uuid.NewString(), hello.Hash, s.clientIP(r))
	if err != nil {
		s.logger.Error("session setup failed", "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "session setup failed"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}
	sess.conn = conn
	sess.onClose = s.unregister
	s.register(sess)

	if err := sess.Start(); err != nil {
		s.logger.Error("session start failed", "error", err)
		sess.Close()
		return
	}
	sess.ReadLoop()
}

func (s *Server) reserve() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.config.MaxSessions > 0 && s.reserved >= s.config.MaxSessions {
		return false
	}
	s.reserved++
	return true
}

func (s *Server) release() {
	s.mu.Lock()
	s.reserved--
	s.mu.Unlock()
}

func (s *Server) register(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.metrics.sessionOpened()
}

func (s *Server) unregister(sess *Session) {
	s.mu.Lock()
	_, ok := s.sessions[sess.ID]
	delete(s.sessions, sess.ID)
	s.mu.Unlock()
	if ok {
		s.metrics.sessionClosed()
	}
}

// Session returns an open session by ID.
func (s *Server) Session(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// SessionIDs returns the IDs of open sessions, sorted.
func (s *Server) SessionIDs() []string {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// closeSessions closes every open session.
func (s *Server) closeSessions() {
	s.mu.Lock()
	open := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()
	for _, sess := range open {
		sess.Close()
	}
}

// Run starts the HTTP server and blocks until it fails, ctx is done or the
// process is interrupted, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.config.ValidateConfig(); err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-shutdown:
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every session and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.closeSessions()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
