package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/writdesk/internal/errors"
	"github.com/vango-dev/writdesk/pkg/archive"
	"github.com/vango-dev/writdesk/pkg/writ"
)

func exportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export every writ to a snapshot",
		Long: `Query every writ, private ones included, and store the result as a
JSON snapshot in the archive store (a directory or an S3 bucket).

Private writs are only returned with a valid backend.token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())
			backend, err := newBackend(cfg, logger)
			if err != nil {
				return err
			}
			store, err := newStore(cfg)
			if err != nil {
				return err
			}

			key, n, err := archive.Export(cmd.Context(), backend, store, time.Now())
			if err != nil {
				var apiErr *writ.APIError
				if stderrors.As(err, &apiErr) {
					return backendError(err)
				}
				return errors.New("W140").Wrap(err)
			}
			success(cmd.OutOrStdout(), "Exported %d writs to %s", n, bold(key))
			return nil
		},
	}
}

func snapshotsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots [key]",
		Short: "List stored snapshots, or summarise one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			store, err := newStore(cfg)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return showSnapshot(cmd.Context(), cmd.OutOrStdout(), store, args[0])
			}
			return listSnapshots(cmd.Context(), cmd.OutOrStdout(), store)
		},
	}
	return cmd
}

func listSnapshots(ctx context.Context, w io.Writer, store archive.Store) error {
	objects, err := archive.Snapshots(ctx, store)
	if err != nil {
		return errors.New("W141").Wrap(err)
	}
	if len(objects) == 0 {
		info(w, "No snapshots yet. Run %s to take one.", bold("writdesk export"))
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
	for _, o := range objects {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", o.Key, o.Size, o.Modified.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func showSnapshot(ctx context.Context, w io.Writer, store archive.Store, key string) error {
	snap, err := archive.Load(ctx, store, key)
	if err != nil {
		if stderrors.Is(err, archive.ErrNotFound) {
			return errors.New("W142").WithDetailf("No snapshot is stored under %s.", key).
				WithSuggestion("Run writdesk snapshots to list the stored keys")
		}
		return errors.New("W141").Wrap(err)
	}
	fmt.Fprintf(w, "%s %s, %d writs\n\n", bold(key), snap.Taken.Format(time.RFC3339), len(snap.Writs))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTITLE\tPUBLIC\tTAGS")
	for _, wr := range snap.Writs {
		fmt.Fprintf(tw, "%s\t%s\t%v\t%s\n", wr.Key, wr.Title, wr.Public, writ.NewTagList(wr.Tags...))
	}
	return tw.Flush()
}
