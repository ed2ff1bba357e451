package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/sitewatch/internal/client"
	"github.com/hamed0406/sitewatch/internal/domain"
)

func newRootCmd() *cobra.Command {
	var apiBase string

	root := &cobra.Command{
		Use:   "sitewatch",
		Short: "Manage and check the endpoints watched by a sitewatch API",
		Long: `sitewatch talks to a running sitewatch API.

Register endpoints, remove them, and see whether each one is online,
returning an HTTP error, slow, or unreachable.`,
		SilenceUsage: true,
	}
	def := os.Getenv("API_BASE")
	if def == "" {
		def = "http://localhost:8080"
	}
	root.PersistentFlags().StringVar(&apiBase, "api", def, "API base URL (env API_BASE)")

	api := func() *client.Client { return client.New(apiBase) }

	root.AddCommand(
		newAddCmd(api),
		newListCmd(api),
		newRemoveCmd(api),
		newStatusCmd(api),
		newDNSCmd(api),
	)
	return root
}

func newAddCmd(api func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Register an endpoint",
		Long: `Register an endpoint. URLs without a scheme get https:// prepended.

Example:
  sitewatch add Example example.com`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ep, err := api().AddEndpoint(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("add endpoint: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) as %s\n", ep.Name, ep.TargetURL, ep.ID)
			return nil
		},
	}
}

func newListCmd(api func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eps, err := api().ListEndpoints(cmd.Context())
			if err != nil {
				return fmt.Errorf("list endpoints: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(eps) == 0 {
				fmt.Fprintln(out, "No endpoints registered yet.")
				fmt.Fprintln(out, "\nAdd one with:")
				fmt.Fprintln(out, "  sitewatch add <name> <url>")
				return nil
			}
			renderEndpoints(out, eps)
			return nil
		},
	}
}

func newRemoveCmd(api func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove an endpoint",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.EndpointID(args[0])
			if err := api().DeleteEndpoint(cmd.Context(), id); err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("no endpoint with id %s", id)
				}
				return fmt.Errorf("remove endpoint: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
			return nil
		},
	}
}

func newStatusCmd(api func() *client.Client) *cobra.Command {
	var latest bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Probe every endpoint and show the results",
		Long: `Probe every endpoint now and show one row per endpoint.

With --latest, show the background rechecker's last observations instead
of probing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			var (
				recs []domain.ViewRecord
				err  error
			)
			if latest {
				recs, err = api().LatestStatuses(ctx)
			} else {
				recs, err = api().LiveStatuses(ctx)
			}
			if err != nil {
				return fmt.Errorf("fetch statuses: %w", err)
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to show.")
				return nil
			}
			renderStatuses(cmd.OutOrStdout(), recs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "show stored observations instead of probing")
	return cmd
}

func newDNSCmd(api func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "dns <id>",
		Short: "Explain how an endpoint's host resolves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := api().DNS(cmd.Context(), domain.EndpointID(args[0]))
			if err != nil {
				return fmt.Errorf("dns diagnostic: %w", err)
			}
			renderDNS(cmd.OutOrStdout(), rep)
			return nil
		},
	}
}
