// Package app composes the writdesk documents, admin and viewer, and wires
// them to a session's router and the writ backend.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/writdesk/pkg/directive"
	"github.com/vango-dev/writdesk/pkg/dom"
	"github.com/vango-dev/writdesk/pkg/hashroute"
	"github.com/vango-dev/writdesk/pkg/writ"
)

// Mode selects which document is served.
type Mode string

const (
	ModeViewer Mode = "viewer"
	ModeAdmin  Mode = "admin"
)

// DefaultRoute is the route a session opens on when the address bar is
// empty.
func (m Mode) DefaultRoute() string {
	if m == ModeAdmin {
		return "#editor"
	}
	return "#home"
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeViewer || m == ModeAdmin
}

// Backend is the part of the writ backend the documents use. *writ.Client
// implements it.
type Backend interface {
	Query(ctx context.Context, q writ.Query) ([]writ.Writ, error)
	Get(ctx context.Context, key string) (*writ.Writ, error)
	Save(ctx context.Context, w *writ.Writ) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, page, count int) ([]writ.Writ, error)
	Writs(ctx context.Context, page, count int) ([]writ.Writ, error)
	UpdateApp(ctx context.Context) (string, error)
}

// Poster queues work on the session loop.
type Poster interface {
	Post(fn func()) error
}

// Config configures a document.
type Config struct {
	Mode         Mode
	Title        string
	DefaultRoute string        // default: Mode.DefaultRoute()
	PageSize     int           // default: 15
	FetchTimeout time.Duration // default: 10s
	MessageTTL   time.Duration // default: 5s; negative keeps messages
}

func (c Config) withDefaults() Config {
	if c.Mode == "" {
		c.Mode = ModeViewer
	}
	if c.Title == "" {
		c.Title = "writdesk"
	}
	if c.DefaultRoute == "" {
		c.DefaultRoute = c.Mode.DefaultRoute()
	}
	if c.PageSize <= 0 {
		c.PageSize = 15
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.MessageTTL == 0 {
		c.MessageTTL = 5 * time.Second
	}
	return c
}

// Deps are the session objects a document is wired to.
type Deps struct {
	Backend  Backend
	Router   *hashroute.Router
	Registry *directive.Registry
	Poster   Poster
	Logger   *slog.Logger
}

// App is one session's document.
type App struct {
	config   Config
	backend  Backend
	router   *hashroute.Router
	registry *directive.Registry
	poster   Poster
	logger   *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	doc    *dom.Node
	msg    *dom.Node
	msgSeq int

	viewer *viewer
	admin  *admin
}

// New creates a document. Nothing is built until Start.
func New(cfg Config, deps Deps) (*App, error) {
	cfg = cfg.withDefaults()
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("app: unknown mode %q", cfg.Mode)
	}
	if deps.Backend == nil || deps.Router == nil || deps.Registry == nil || deps.Poster == nil {
		return nil, fmt.Errorf("app: backend, router, registry and poster are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		config:   cfg,
		backend:  deps.Backend,
		router:   deps.Router,
		registry: deps.Registry,
		poster:   deps.Poster,
		logger:   logger.With("mode", string(cfg.Mode)),
		ctx:      ctx,
		cancel:   cancel,
	}
	if cfg.Mode == ModeAdmin {
		a.admin = newAdmin(a)
	} else {
		a.viewer = newViewer(a)
	}
	return a, nil
}

// Start builds the document, attaches its directives and, when the address
// bar is empty, requests the default route. It returns the document root.
// Start must run on the session loop.
func (a *App) Start() *dom.Node {
	a.msg = dom.Div(dom.Class("msg"))
	nav := dom.Nav(dom.H1(a.config.Title))

	var templates []*dom.Node
	if a.admin != nil {
		nav.AppendChild(a.admin.links()...)
		templates = a.admin.templates()
	} else {
		nav.AppendChild(a.viewer.links()...)
		templates = a.viewer.templates()
	}
	nav.AppendChild(a.msg)

	a.doc = dom.Div(dom.Class("writdesk", string(a.config.Mode)))
	a.doc.AppendChild(templates...)
	a.doc.AppendChild(nav, dom.Main(dom.Attribute(hashroute.AttrRouteActive, "")))

	if a.admin != nil {
		a.admin.install()
	} else {
		a.viewer.install()
	}
	a.registry.Attach(a.doc)

	if a.router.Location().Hash() == "" {
		a.router.RequestActivate(a.config.DefaultRoute)
	}
	a.logger.Debug("document started", "routes", a.router.Routes())
	return a.doc
}

// Document returns the root built by Start.
func (a *App) Document() *dom.Node {
	return a.doc
}

// Config returns the effective configuration.
func (a *App) Config() Config {
	return a.config
}

// Close cancels in-flight backend calls.
func (a *App) Close() {
	a.cancel()
}

// Wait blocks until every in-flight backend call has posted its result to
// the loop. The results still have to be run by the loop.
func (a *App) Wait() {
	a.inflight.Wait()
}

// background runs call off the loop and posts done, with call's error, back
// onto it. call must only write state that done reads.
func (a *App) background(op string, call func(ctx context.Context) error, done func(err error)) {
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		ctx, cancel := context.WithTimeout(a.ctx, a.config.FetchTimeout)
		err := call(ctx)
		cancel()
		if perr := a.poster.Post(func() { done(err) }); perr != nil {
			a.logger.Warn("backend result dropped", "op", op, "error", perr)
		}
	}()
}

// Message returns the text of the message area.
func (a *App) Message() string {
	if a.msg == nil {
		return ""
	}
	return a.msg.TextContent()
}

// notify shows msg in the message area and clears it after MessageTTL
// unless a newer message replaced it.
func (a *App) notify(msg string) {
	a.msgSeq++
	seq := a.msgSeq
	a.msg.SetText(msg)
	if a.config.MessageTTL < 0 {
		return
	}
	time.AfterFunc(a.config.MessageTTL, func() {
		_ = a.poster.Post(func() {
			if a.msgSeq == seq {
				a.msg.SetText("")
			}
		})
	})
}

func (a *App) fail(op string, err error) {
	a.logger.Warn("backend call failed", "op", op, "error", err)
	a.notify(op + " failed: " + err.Error())
}

// formatDate renders a writ timestamp the way the lists show it.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 January 2006 | 15:04")
}
