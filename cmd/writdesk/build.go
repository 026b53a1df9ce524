package main

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/vango-dev/writdesk/internal/app"
	"github.com/vango-dev/writdesk/internal/config"
	"github.com/vango-dev/writdesk/internal/errors"
	"github.com/vango-dev/writdesk/pkg/archive"
	"github.com/vango-dev/writdesk/pkg/server"
	"github.com/vango-dev/writdesk/pkg/writ"
)

// newBackend builds the writ client the config describes.
func newBackend(cfg *config.Config, logger *slog.Logger) (*writ.Client, error) {
	client, err := writ.NewClient(cfg.Backend.URL,
		writ.WithTimeout(cfg.Backend.Timeout.Duration),
		writ.WithToken(cfg.Backend.Token),
		writ.WithLogger(logger),
	)
	if err != nil {
		return nil, errors.New("W122").Wrap(err).
			WithSuggestion("Set backend.url to an http or https URL")
	}
	return client, nil
}

// backendError maps a client error onto a CLI error code.
func backendError(err error) error {
	var apiErr *writ.APIError
	if stderrors.As(err, &apiErr) &&
		(apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
		return errors.New("W121").Wrap(err).
			WithSuggestion("Set backend.token to a valid Auth cookie")
	}
	return errors.FromError(err, "W120")
}

// serverConfig maps the file config onto the HTTP server config.
func serverConfig(cfg *config.Config) *server.ServerConfig {
	sc := server.DefaultServerConfig()
	sc.Address = cfg.Address()
	sc.Title = cfg.App.Title
	sc.StyleSheets = cfg.Server.StyleSheets
	sc.SocketPath = cfg.Server.SocketPath
	sc.TrustedProxies = cfg.Server.TrustedProxies
	sc.MaxSessions = cfg.Server.MaxSessions
	sc.ShutdownTimeout = cfg.Server.ShutdownTimeout.Duration
	if cfg.Metrics.Enabled {
		sc.MetricsPath = cfg.Metrics.Path
	} else {
		sc.MetricsPath = ""
	}

	sc.Session.ReadTimeout = cfg.Session.ReadTimeout.Duration
	sc.Session.WriteTimeout = cfg.Session.WriteTimeout.Duration
	sc.Session.HeartbeatInterval = cfg.Session.Heartbeat.Duration
	sc.Session.MaxEventQueue = cfg.Session.MaxQueue
	sc.Session.MaxSendQueue = cfg.Session.MaxSendQueue
	return sc
}

// appConfig maps the file config onto the document config.
func appConfig(cfg *config.Config) app.Config {
	return app.Config{
		Mode:         app.Mode(cfg.App.Mode),
		Title:        cfg.App.Title,
		DefaultRoute: cfg.App.DefaultRoute,
		PageSize:     cfg.App.PageSize,
		FetchTimeout: cfg.Backend.Timeout.Duration,
		MessageTTL:   cfg.App.MessageTTL.Duration,
	}
}

// documentFactory builds one app document per session.
func documentFactory(cfg *config.Config, backend app.Backend) server.DocumentFactory {
	ac := appConfig(cfg)
	return func(env server.Env) (server.Document, error) {
		doc, err := app.New(ac, app.Deps{
			Backend:  backend,
			Router:   env.Router,
			Registry: env.Registry,
			Poster:   env.Loop,
			Logger:   env.Logger,
		})
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
}

// newStore opens the snapshot store archive.driver names.
func newStore(cfg *config.Config) (archive.Store, error) {
	ac := cfg.Archive
	switch ac.Driver {
	case "s3":
		client := archive.NewS3Client(archive.S3Config{
			Bucket:          ac.Bucket,
			Prefix:          ac.Prefix,
			Region:          ac.Region,
			Endpoint:        ac.Endpoint,
			AccessKeyID:     ac.AccessKeyID,
			SecretAccessKey: ac.SecretAccessKey,
		})
		return archive.NewS3Store(client, ac.Bucket, ac.Prefix), nil
	default:
		store, err := archive.NewDiskStore(ac.Dir)
		if err != nil {
			return nil, errors.New("W141").Wrap(err).
				WithDetailf("Snapshot directory %s could not be used.", ac.Dir)
		}
		return store, nil
	}
}
