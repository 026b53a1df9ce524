package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/writdesk/internal/config"
	"github.com/vango-dev/writdesk/internal/errors"
	"github.com/vango-dev/writdesk/pkg/server"
)

type serveOptions struct {
	port    int
	host    string
	mode    string
	backend string
}

func serveCmd(g *globals) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the viewer or admin panel",
		Long: `Start the HTTP server.

The page at / opens a WebSocket to the socket path; each connection gets
its own session and document. The viewer mode browses public writs and
the admin mode edits them.

Flags override the config file.`,
		Example: `  writdesk serve
  writdesk serve --mode admin --port 9090
  writdesk serve --backend https://writs.example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, cfg); err != nil {
				return err
			}
			return runServe(cmd, cfg)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Port to listen on")
	cmd.Flags().StringVar(&opts.host, "host", "", "Host to bind to")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Document mode (viewer or admin)")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Writ backend URL")
	return cmd
}

// apply copies the flags that were set onto cfg and revalidates it.
func (o *serveOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = o.port
	}
	if flags.Changed("host") {
		cfg.Server.Host = o.host
	}
	if flags.Changed("mode") {
		cfg.App.Mode = o.mode
	}
	if flags.Changed("backend") {
		cfg.Backend.URL = o.backend
	}
	return cfg.Validate()
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	logger := newLogger(cfg, cmd.ErrOrStderr())

	backend, err := newBackend(cfg, logger)
	if err != nil {
		return err
	}

	opts := []server.Option{server.WithLogger(logger)}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, server.WithRegistry(reg, cfg.Metrics.Namespace))
	}

	srv := server.New(serverConfig(cfg), documentFactory(cfg, backend), opts...)

	fmt.Fprint(out, banner)
	success(out, "Serving %s mode on %s", bold(cfg.App.Mode), bold(displayAddress(cfg)))
	info(out, "Backend  %s", backend.BaseURL())
	if cfg.Metrics.Enabled {
		info(out, "Metrics  %s", cfg.Metrics.Path)
	}
	if cfg.App.Mode == "admin" && cfg.Backend.Token == "" {
		warn(out, "admin mode without backend.token: saves and deletes will be refused")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx); err != nil {
		return errors.New("W160").Wrap(err)
	}
	return nil
}

func displayAddress(cfg *config.Config) string {
	host := cfg.Server.Host
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
}
