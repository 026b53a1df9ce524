package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/writdesk/internal/config"
)

const masked = "********"

func configCmd(g *globals) *cobra.Command {
	var defaults bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration writdesk would run with, as TOML.

Secrets are masked. With --defaults the built-in defaults are printed,
which makes a starting point for a new writdesk.toml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			if !defaults {
				var err error
				if cfg, err = g.load(); err != nil {
					return err
				}
			}
			text, err := maskSecrets(cfg).Encode()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if path := cfg.Path(); path != "" {
				fmt.Fprintf(out, "# %s\n", path)
			}
			fmt.Fprint(out, text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&defaults, "defaults", false, "Print the built-in defaults")
	return cmd
}

// maskSecrets returns a copy of cfg with credentials replaced.
func maskSecrets(cfg *config.Config) *config.Config {
	c := *cfg
	if c.Backend.Token != "" {
		c.Backend.Token = masked
	}
	if c.Archive.AccessKeyID != "" {
		c.Archive.AccessKeyID = masked
	}
	if c.Archive.SecretAccessKey != "" {
		c.Archive.SecretAccessKey = masked
	}
	return &c
}
