package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SessionConfig holds configuration for individual sessions.
type SessionConfig struct {
	// ReadTimeout is the maximum time to wait for a frame or pong from the
	// client.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a frame.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// HandshakeTimeout is the maximum time to wait for the hello frame.
	// Default: 10 seconds.
	HandshakeTimeout time.Duration

	// HeartbeatInterval is the time between heartbeat pings.
	// Default: 30 seconds.
	HeartbeatInterval time.Duration

	// MaxMessageSize is the maximum size of an incoming WebSocket message.
	// Default: 64KB.
	MaxMessageSize int64

	// MaxEventQueue is the size of the session loop's task queue.
	// Default: 256.
	MaxEventQueue int

	// MaxSendQueue is the number of outgoing frames buffered per session.
	// Default: 32.
	MaxSendQueue int
}

// DefaultSessionConfig returns a SessionConfig with sensible defaults.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		MaxMessageSize:    64 * 1024,
		MaxEventQueue:     256,
		MaxSendQueue:      32,
	}
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	// Address is the listen address.
	// Default: ":8080".
	Address string

	// Title is the page title of the shell.
	Title string

	// StyleSheets are linked from the page shell.
	StyleSheets []string

	// SocketPath is the WebSocket endpoint.
	// Default: "/ws".
	SocketPath string

	// MetricsPath serves Prometheus metrics. Empty disables the endpoint.
	MetricsPath string

	// ReadHeaderTimeout, ReadTimeout, WriteTimeout and IdleTimeout are
	// passed to http.Server.
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30 seconds.
	ShutdownTimeout time.Duration

	// MaxSessions caps concurrent sessions. Zero means unlimited.
	MaxSessions int

	// TrustedProxies are IPs or CIDRs whose Forwarded and X-Forwarded-For
	// headers are believed when logging client addresses.
	TrustedProxies []string

	// CheckOrigin validates the WebSocket Origin header.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// Session configures each session.
	Session *SessionConfig
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:           ":8080",
		Title:             "writdesk",
		SocketPath:        "/ws",
		MetricsPath:       "/metrics",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		CheckOrigin:       SameOriginCheck,
		Session:           DefaultSessionConfig(),
	}
}

// ValidateConfig checks the configuration for values the server cannot run
// with.
func (c *ServerConfig) ValidateConfig() error {
	if c.Address == "" {
		return errors.New("server: address is required")
	}
	if !strings.HasPrefix(c.SocketPath, "/") {
		return errors.New("server: socket path must start with /")
	}
	if c.MetricsPath != "" && !strings.HasPrefix(c.MetricsPath, "/") {
		return errors.New("server: metrics path must start with /")
	}
	if c.MetricsPath == c.SocketPath {
		return errors.New("server: metrics path and socket path collide")
	}
	if c.MaxSessions < 0 {
		return errors.New("server: max sessions must not be negative")
	}
	s := c.Session
	if s == nil {
		return errors.New("server: session config is required")
	}
	if s.HeartbeatInterval <= 0 || s.ReadTimeout <= s.HeartbeatInterval {
		return errors.New("server: read timeout must exceed a positive heartbeat interval")
	}
	if s.MaxEventQueue <= 0 || s.MaxSendQueue <= 0 {
		return errors.New("server: queue sizes must be positive")
	}
	return nil
}

// SameOriginCheck validates that the WebSocket request origin matches the host.
// This is the default for CheckOrigin.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// No Origin header (e.g., same-origin request or curl)
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := r.Host
	if host == "" {
		return false
	}
	return originURL.Host == host
}

// Clone returns a copy of the ServerConfig.
func (c *ServerConfig) Clone() *ServerConfig {
	clone := *c
	clone.StyleSheets = append([]string(nil), c.StyleSheets...)
	clone.TrustedProxies = append([]string(nil), c.TrustedProxies...)
	if c.Session != nil {
		session := *c.Session
		clone.Session = &session
	}
	return &clone
}
