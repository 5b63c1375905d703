package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/HatiCode/climacast/pkg/client"
)

type options struct {
	server  string
	grpc    string
	timeout time.Duration
	json    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "climactl",
		Short: "Query a climacast server",
		Long: `climactl talks to a running climacast server.

Examples:
  climactl predict --co2 415.2
  climactl predict --co2 415.2 --feature co2_5yr_avg=412.8
  climactl predict --co2 415.2 --grpc localhost:50051
  climactl info --json
  climactl health`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.server, "server", "s", envOr("CLIMACTL_SERVER", "http://localhost:8080"), "climacast HTTP base URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "request timeout")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON output")

	root.AddCommand(
		newPredictCmd(opts),
		newHealthCmd(opts),
		newInfoCmd(opts),
	)
	return root
}

func (o *options) httpClient() *client.PredictorClient {
	return client.NewPredictorClientWithTimeout(o.server, o.timeout)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is healthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.httpClient().Health(cmd.Context()); err != nil {
				return fmt.Errorf("server unhealthy: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
}

func newInfoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the model the server is serving",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := opts.httpClient().Model(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, info)
			}
			fmt.Fprintf(out, "Model:      %s\n", info.Model)
			fmt.Fprintf(out, "Features:   %v\n", info.Features)
			fmt.Fprintf(out, "Target:     %s\n", info.Target)
			fmt.Fprintf(out, "Source:     %s\n", info.Source)
			fmt.Fprintf(out, "Run:        %s\n", info.RunID)
			fmt.Fprintf(out, "Mean MAE:   %.4f\n", info.MeanError)
			return nil
		},
	}
}
