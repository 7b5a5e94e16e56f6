// Package cmd implements the awhy command line client for the
// AreWeHeadlessYet pages API.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/areweheadlessyet/internal/config"
	"github.com/samvad-hq/areweheadlessyet/pkg/cms"
	"github.com/samvad-hq/areweheadlessyet/pkg/httpclient"
)

// NewRootCmd builds the awhy command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "awhy",
		Short: "Query the AreWeHeadlessYet CMS",
		Long: `awhy reads pages from the AreWeHeadlessYet Wagtail API and prints them as JSON.

Connection settings come from the environment (BASE_URL, INSTANCE, AUTH_USER,
AUTH_PASSWORD, REQUEST_TIMEOUT_SECONDS) or configs/.env, and can be overridden
with the flags below.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("base-url", "", "CMS base URL, e.g. https://areweheadlessyet.wagtail.org/")
	flags.String("instance", "", `deployment instance; "staging" enables basic auth`)
	flags.String("auth-user", "", "basic auth user for staging")
	flags.String("auth-password", "", "basic auth password for staging")

	root.AddCommand(
		homeIDCmd(),
		homeCmd(),
		topicsCmd(),
		topicPagesCmd(),
		topicCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// clientFor builds a CMS client from config, with flags taking precedence.
func clientFor(cmd *cobra.Command) (*cms.Client, error) {
	cfg, err := config.Load(config.WithFlags(cmd.Flags()))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cms.New(cfg.CMS(), cms.WithHTTPClient(httpclient.NewRestyClient(cfg.RequestTimeout)))
}

// query wraps a client call as a cobra RunE that prints the result.
func query(fn func(ctx context.Context, c *cms.Client, args []string) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		client, err := clientFor(cmd)
		if err != nil {
			return err
		}
		out, err := fn(cmd.Context(), client, args)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
