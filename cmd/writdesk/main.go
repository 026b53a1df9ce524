// Command writdesk serves the writ viewer and admin panel and runs
// operator tasks against the writ backend.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vango-dev/writdesk/internal/config"
	"github.com/vango-dev/writdesk/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬ ┬┬─┐┬┌┬┐┌┬┐┌─┐┌─┐┬┌─
  │││├┬┘│ │  ││├┤ └─┐├┴┐
  └┴┘┴└─┴ ┴ ─┴┘└─┘└─┘┴ ┴
`

// globals are the persistent flags.
type globals struct {
	configPath string
	noColor    bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:   "writdesk",
		Short: "Server-driven writ viewer and admin panel",
		Long: `writdesk serves a browser front end for a writ backend.

Each browser tab gets a live session on the server: the page is a thin
shim that mirrors the session's document over a WebSocket, and navigation
is driven by the URL fragment (#home, #writs, #editor, ...).

Besides serving, writdesk talks to the backend directly to export
snapshots, check usernames and trigger backend updates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor {
				color.NoColor = true
				errors.DisableColors()
			}
		},
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "",
		"Config file (default ./"+config.DefaultFileName+" when present)")
	rootCmd.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "Disable coloured output")

	rootCmd.AddCommand(
		serveCmd(g),
		routesCmd(g),
		configCmd(g),
		exportCmd(g),
		snapshotsCmd(g),
		checkUsernameCmd(g),
		authCmd(g),
		updateAppCmd(g),
		versionCmd(),
	)
	return rootCmd
}

func (g *globals) load() (*config.Config, error) {
	return config.LoadOrDefault(g.configPath)
}

// newLogger builds the slog logger log.level and log.format ask for.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, err := cfg.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	faint  = color.New(color.FgHiBlack).SprintFunc()
)

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", yellow("⚠"), fmt.Sprintf(format, args...))
}
