package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"folio/config"
	"folio/importer"
	"folio/logger"
	"folio/summarizer"
)

var (
	importWatch     bool
	importAIExcerpt bool
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import Markdown posts from a directory",
	Long: `Import every **/*.md file under dir. YAML frontmatter supplies title, slug,
excerpt, tags, published and cover_image. A post with the same slug owned by the
author is updated, otherwise a new post is created.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		im := importer.New(s.posts, authorID)
		if importAIExcerpt {
			gen, err := summarizer.New(ctx, config.GetConfig().Summarizer)
			if err != nil {
				return err
			}
			im.WithExcerpts(gen)
		}

		out := cmd.OutOrStdout()
		results, err := im.ImportDir(ctx, args[0])
		printResults(out, results)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "some files failed:\n%v\n", err)
		}
		if !importWatch {
			return err
		}

		logger.InfoWithFields("watching for changes", logger.Fields{"dir": args[0]})
		err = im.Watch(ctx, args[0], func(res importer.Result, err error) {
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
				return
			}
			printResults(out, []importer.Result{res})
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func printResults(w io.Writer, results []importer.Result) {
	for _, r := range results {
		fmt.Fprintf(w, "%-8s %s (%s)\n", r.Action, r.Slug, r.Source)
	}
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVarP(&importWatch, "watch", "w", false, "Keep running and re-import files when they change")
	importCmd.Flags().BoolVar(&importAIExcerpt, "ai-excerpt", false, "Generate missing excerpts with Gemini (summarizer.gemini_api_key)")
}
