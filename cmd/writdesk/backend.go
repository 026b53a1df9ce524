package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/writdesk/internal/config"
	"github.com/vango-dev/writdesk/internal/errors"
	"github.com/vango-dev/writdesk/pkg/writ"
)

// withBackend loads the config and builds a client for a backend command.
func withBackend(g *globals, cmd *cobra.Command) (*config.Config, *writ.Client, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, nil, err
	}
	client, err := newBackend(cfg, newLogger(cfg, cmd.ErrOrStderr()))
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

func checkUsernameCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "check-username <name>",
		Short: "Check whether a username is available",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("W161").WithDetail("check-username takes exactly one username.")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := withBackend(g, cmd)
			if err != nil {
				return err
			}
			ok, err := client.CheckUsername(cmd.Context(), args[0])
			if err != nil {
				return backendError(err)
			}
			out := cmd.OutOrStdout()
			if ok {
				success(out, "%s is available", bold(args[0]))
			} else {
				fmt.Fprintf(out, "%s %s is taken\n", red("✗"), bold(args[0]))
			}
			return nil
		},
	}
}

func authCmd(g *globals) *cobra.Command {
	var email, username string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Ask the backend to mail a login link",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || username == "" {
				return errors.New("W161").WithDetail("auth needs both --email and --username.")
			}
			_, client, err := withBackend(g, cmd)
			if err != nil {
				return err
			}
			msg, err := client.Auth(cmd.Context(), email, username)
			if err != nil {
				return backendError(err)
			}
			success(cmd.OutOrStdout(), "Login link requested for %s", bold(email))
			if msg != "" {
				info(cmd.OutOrStdout(), "%s", msg)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&username, "username", "", "Account username")
	return cmd
}

func updateAppCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "update-app",
		Short: "Trigger a backend self update",
		Long: `Ask the backend to update itself and print its report.

This is the same request the admin panel's update route makes and needs
an admin backend.token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := withBackend(g, cmd)
			if err != nil {
				return err
			}
			report, err := client.UpdateApp(cmd.Context())
			if err != nil {
				return backendError(err)
			}
			success(cmd.OutOrStdout(), "Backend updated")
			fmt.Fprintln(cmd.OutOrStdout(), report)
			return nil
		},
	}
}
