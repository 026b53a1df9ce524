package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/writdesk/internal/app"
	"github.com/vango-dev/writdesk/internal/config"
	"github.com/vango-dev/writdesk/pkg/directive"
	"github.com/vango-dev/writdesk/pkg/hashroute"
	"github.com/vango-dev/writdesk/pkg/location"
	"github.com/vango-dev/writdesk/pkg/loop"
)

func routesCmd(g *globals) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the routes a document registers",
		Long: `Build a document without a browser and list its routes.

Each route shows whether it carries a view and how many consumers are
subscribed to it. No backend requests are made.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("mode") {
				cfg.App.Mode = mode
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return printRoutes(cmd.OutOrStdout(), cfg)
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Document mode (viewer or admin)")
	return cmd
}

// printRoutes starts a detached document and prints its route table. The
// loop is never run, so the default route is requested but not activated.
func printRoutes(w io.Writer, cfg *config.Config) error {
	logger := newLogger(cfg, io.Discard)
	backend, err := newBackend(cfg, logger)
	if err != nil {
		return err
	}

	l := loop.New(loop.WithLogger(logger))
	defer l.Close()
	bar := location.New(l, "")
	registry := directive.NewRegistry(logger)
	router := hashroute.New(
		hashroute.WithScheduler(l),
		hashroute.WithLocation(bar),
		hashroute.WithRenderer(directive.Renderer{Registry: registry}),
		hashroute.WithLogger(logger),
	)
	router.Listen(bar)
	router.Install(registry)

	doc, err := app.New(appConfig(cfg), app.Deps{
		Backend:  backend,
		Router:   router,
		Registry: registry,
		Poster:   l,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	doc.Start()
	defer doc.Close()

	fmt.Fprintf(w, "%s %s (default %s)\n\n", bold("Routes for"), cfg.App.Mode, doc.Config().DefaultRoute)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROUTE\tVIEW\tCONSUMERS")
	for _, name := range router.Routes() {
		route, _ := router.Lookup(name)
		view := faint("-")
		if route.HasView() {
			view = fmt.Sprintf("%d nodes", len(route.View()))
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", name, view, route.Consumers())
	}
	return tw.Flush()
}
