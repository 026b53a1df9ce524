package config

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/vango-dev/writdesk/internal/errors"
)

// DefaultFileName is the config file looked up when no path is given.
const DefaultFileName = "writdesk.toml"

// Config is the complete writdesk configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Backend BackendConfig `toml:"backend"`
	Session SessionConfig `toml:"session"`
	App     AppConfig     `toml:"app"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
	Archive ArchiveConfig `toml:"archive"`

	// path is where the config was loaded from.
	path string
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	SocketPath      string   `toml:"socket_path"`
	StyleSheets     []string `toml:"stylesheets"`
	TrustedProxies  []string `toml:"trusted_proxies"`
	MaxSessions     int      `toml:"max_sessions"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// BackendConfig configures the writ backend client.
type BackendConfig struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
	// Token is sent as the Auth cookie. Admin deployments need one.
	Token string `toml:"token"`
}

// SessionConfig configures each browser session.
type SessionConfig struct {
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	Heartbeat    Duration `toml:"heartbeat"`
	MaxQueue     int      `toml:"max_queue"`
	MaxSendQueue int      `toml:"max_send_queue"`
}

// AppConfig configures the served document.
type AppConfig struct {
	Mode         string   `toml:"mode"`
	Title        string   `toml:"title"`
	DefaultRoute string   `toml:"default_route"`
	PageSize     int      `toml:"page_size"`
	MessageTTL   Duration `toml:"message_ttl"`
}

// LogConfig configures slog.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled"`
	Namespace string `toml:"namespace"`
	Path      string `toml:"path"`
}

// ArchiveConfig configures the snapshot store.
type ArchiveConfig struct {
	Driver          string `toml:"driver"`
	Dir             string `toml:"dir"`
	Bucket          string `toml:"bucket"`
	Prefix          string `toml:"prefix"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "",
			Port:            8080,
			SocketPath:      "/ws",
			ShutdownTimeout: seconds(30),
		},
		Backend: BackendConfig{
			URL:     "http://localhost:3000",
			Timeout: seconds(10),
		},
		Session: SessionConfig{
			ReadTimeout:  seconds(60),
			WriteTimeout: seconds(10),
			Heartbeat:    seconds(30),
			MaxQueue:     256,
			MaxSendQueue: 32,
		},
		App: AppConfig{
			Mode:       "viewer",
			Title:      "writdesk",
			PageSize:   15,
			MessageTTL: seconds(5),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "writdesk",
			Path:      "/metrics",
		},
		Archive: ArchiveConfig{
			Driver: "disk",
			Dir:    "snapshots",
		},
	}
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(name)
	})
}

// Load reads the config file at path over the defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("W100").
			WithDetailf("could not read %s", path).
			WithSuggestion("Run 'writdesk config --defaults > " + DefaultFileName + "' to start from the defaults").
			Wrap(err)
	}

	cfg := New()
	cfg.path = path
	md, err := toml.Decode(expandEnvVars(string(data)), cfg)
	if err != nil {
		verr := errors.New("W101").Wrap(err)
		var perr toml.ParseError
		if stderrors.As(err, &perr) {
			verr.WithDetail(perr.Message).WithLocation(path, perr.Position.Line, 0)
		}
		return nil, verr
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New("W101").
			WithDetail("unknown keys: " + strings.Join(keys, ", ")).
			WithSuggestion("Check the key names against 'writdesk config --defaults'")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path, or returns the validated defaults when path is
// empty and no DefaultFileName exists in the working directory.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFileName); err == nil {
		return Load(DefaultFileName)
	}
	cfg := New()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the config was loaded from, or "".
func (c *Config) Path() string {
	return c.path
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("W102").
			WithDetailf("server.port is %d", c.Server.Port).
			WithSuggestion("Port must be between 0 and 65535")
	}
	if !strings.HasPrefix(c.Server.SocketPath, "/") {
		return errors.New("W102").
			WithDetailf("server.socket_path %q must start with /", c.Server.SocketPath)
	}
	if c.Server.MaxSessions < 0 {
		return errors.New("W102").WithDetail("server.max_sessions must not be negative")
	}

	u, err := url.Parse(c.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("W103").
			WithDetailf("backend.url is %q", c.Backend.URL).
			WithSuggestion("Use an http:// or https:// URL")
	}

	switch c.App.Mode {
	case "viewer", "admin":
	default:
		return errors.New("W104").
			WithDetailf("app.mode is %q", c.App.Mode).
			WithSuggestion(`Use "viewer" or "admin"`)
	}
	if c.App.DefaultRoute != "" && !strings.HasPrefix(c.App.DefaultRoute, "#") {
		return errors.New("W104").
			WithDetailf("app.default_route %q must start with #", c.App.DefaultRoute)
	}
	if c.App.PageSize < 1 || c.App.PageSize > 50 {
		return errors.New("W104").
			WithDetailf("app.page_size is %d", c.App.PageSize).
			WithSuggestion("Page size must be between 1 and 50")
	}

	for name, d := range map[string]Duration{
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"backend.timeout":         c.Backend.Timeout,
		"session.read_timeout":    c.Session.ReadTimeout,
		"session.write_timeout":   c.Session.WriteTimeout,
		"session.heartbeat":       c.Session.Heartbeat,
	} {
		if d.Duration <= 0 {
			return errors.New("W105").WithDetailf("%s must be positive", name)
		}
	}

	if c.Session.ReadTimeout.Duration <= c.Session.Heartbeat.Duration {
		return errors.New("W109").
			WithDetail("session.read_timeout must exceed session.heartbeat").
			WithSuggestion("Pongs arrive once per heartbeat; the read deadline needs room for one")
	}
	if c.Session.MaxQueue < 1 || c.Session.MaxSendQueue < 1 {
		return errors.New("W109").WithDetail("session queue sizes must be positive")
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("W106").
			WithDetailf("log.format is %q", c.Log.Format).
			WithSuggestion(`Use "text" or "json"`)
	}

	if c.Metrics.Enabled {
		if !strings.HasPrefix(c.Metrics.Path, "/") || c.Metrics.Path == c.Server.SocketPath {
			return errors.New("W108").
				WithDetailf("metrics.path %q must start with / and differ from the socket path", c.Metrics.Path)
		}
		if c.Metrics.Namespace == "" {
			return errors.New("W108").WithDetail("metrics.namespace is empty")
		}
	}

	switch c.Archive.Driver {
	case "disk":
		if c.Archive.Dir == "" {
			return errors.New("W107").WithDetail("archive.dir is required for the disk driver")
		}
	case "s3":
		if c.Archive.Bucket == "" {
			return errors.New("W107").WithDetail("archive.bucket is required for the s3 driver")
		}
		if (c.Archive.AccessKeyID == "") != (c.Archive.SecretAccessKey == "") {
			return errors.New("W107").
				WithDetail("archive.access_key_id and archive.secret_access_key must be set together")
		}
	default:
		return errors.New("W107").
			WithDetailf("archive.driver is %q", c.Archive.Driver).
			WithSuggestion(`Use "disk" or "s3"`)
	}
	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.New("W106").
			WithDetailf("log.level is %q", c.Log.Level).
			WithSuggestion(`Use "debug", "info", "warn" or "error"`)
	}
	return level, nil
}

// Encode writes the configuration as TOML.
func (c *Config) Encode() (string, error) {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return "", fmt.Errorf("config: encode: %w", err)
	}
	return b.String(), nil
}
