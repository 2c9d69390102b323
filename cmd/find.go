package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leibooks/leibooks/internal/presentation"
)

var findCmd = &cobra.Command{
	Use:   "find <pattern>",
	Short: "Find books whose title matches a regular expression",
	Long: `Find books whose title contains a match for a regular expression and
print them as JSON, in catalog order.

Patterns use RE2 syntax and are unanchored: "Alph" matches "Alphabet".
Use ^ and $ to anchor, and (?i) for a case-insensitive match.

Examples:
  leibooks find Alph
  leibooks find '^The '
  leibooks find '(?i)dune'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := openService(false)
		if err != nil {
			return err
		}
		defer func() { _ = svc.Close() }()

		docs, err := svc.Find(args[0])
		if err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
		formatter := presentation.NewFormatter(cmd.OutOrStdout())
		return formatter.FormatDocuments(presentation.FromDocuments(docs))
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
}
