package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/areweheadlessyet/pkg/cms"
)

func homeIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "home-id",
		Short: "Print the id of the home page",
		Args:  cobra.NoArgs,
		RunE: query(func(ctx context.Context, c *cms.Client, _ []string) (any, error) {
			return c.HomePageID(ctx)
		}),
	}
}

func homeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Print the home page",
		Args:  cobra.NoArgs,
		RunE: query(func(ctx context.Context, c *cms.Client, _ []string) (any, error) {
			return c.HomePage(ctx)
		}),
	}
}

func topicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "Print the topic summaries with the response metadata",
		Args:  cobra.NoArgs,
		RunE: query(func(ctx context.Context, c *cms.Client, _ []string) (any, error) {
			return c.Topics(ctx)
		}),
	}
}

func topicPagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topic-pages",
		Short: "Print every topic page with all fields",
		Args:  cobra.NoArgs,
		RunE: query(func(ctx context.Context, c *cms.Client, _ []string) (any, error) {
			return c.TopicPages(ctx)
		}),
	}
}

func topicCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topic <slug>",
		Short: "Print a single topic page by slug",
		Args:  cobra.ExactArgs(1),
		RunE: query(func(ctx context.Context, c *cms.Client, args []string) (any, error) {
			return c.TopicPage(ctx, args[0])
		}),
	}
}
