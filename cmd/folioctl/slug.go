package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"folio/slug"
)

var slugMaxLength int

var slugCmd = &cobra.Command{
	Use:   "slug <title...>",
	Short: "Print the slug generated for a title",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := slug.Generate(strings.Join(args, " "), slugMaxLength)
		if s == "" {
			return errors.New("title has no letters or digits")
		}
		fmt.Fprintln(cmd.OutOrStdout(), s)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(slugCmd)
	slugCmd.Flags().IntVar(&slugMaxLength, "max-length", slug.DefaultMaxLength, "Maximum slug length")
}
