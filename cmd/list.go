package cmd

import (
	"github.com/spf13/cobra"

	"github.com/leibooks/leibooks/internal/presentation"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every book in the catalog",
	Long: `List every book in the library as JSON, in catalog order.

Examples:
  leibooks list
  leibooks list --catalog ~/books.yaml

  # Titles only
  leibooks list | jq -r '.[].title'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := openService(false)
		if err != nil {
			return err
		}
		defer func() { _ = svc.Close() }()

		formatter := presentation.NewFormatter(cmd.OutOrStdout())
		return formatter.FormatDocuments(presentation.FromDocuments(svc.List()))
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
