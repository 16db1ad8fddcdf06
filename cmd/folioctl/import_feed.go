package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"folio/feeder"
	"folio/importer"
)

var feedLimit int

var importFeedCmd = &cobra.Command{
	Use:   "import-feed <url>",
	Short: "Import RSS/Atom feed items as unpublished posts",
	Long: `Fetch a feed and create an unpublished post for every item whose slug is not
taken yet. HTML content is reduced to plain text, so review each post before publishing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		feed, err := feeder.Fetch(ctx, args[0], feedLimit)
		if err != nil {
			return err
		}

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		results, err := importer.New(s.posts, authorID).ImportFeed(ctx, feed)
		printResults(cmd.OutOrStdout(), results)
		if err != nil {
			return fmt.Errorf("some items failed:\n%w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importFeedCmd)
	importFeedCmd.Flags().IntVar(&feedLimit, "limit", 0, "Import at most this many items (0 = all)")
}
