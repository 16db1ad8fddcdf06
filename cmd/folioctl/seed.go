package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"folio/frontmatter"
	"folio/importer"
)

//go:embed seed/*.md
var seedFS embed.FS

// seedPosts 는 샘플 포스트(공개 2개, 비공개 1개)를 가져온다. 이미 있으면 갱신하거나 건너뛴다.
func seedPosts(ctx context.Context, im *importer.Importer) ([]importer.Result, error) {
	names, err := fs.Glob(seedFS, "seed/*.md")
	if err != nil {
		return nil, err
	}

	var (
		results []importer.Result
		errs    []error
	)
	for _, name := range names {
		data, err := seedFS.ReadFile(name)
		if err != nil {
			return results, err
		}
		doc, err := frontmatter.Parse(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		res, err := im.ImportDocument(ctx, doc, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the sample posts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		results, err := seedPosts(ctx, importer.New(s.posts, authorID))
		printResults(cmd.OutOrStdout(), results)
		return err
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
