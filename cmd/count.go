package cmd

import (
	"github.com/spf13/cobra"

	"github.com/leibooks/leibooks/internal/presentation"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of books in the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := openService(false)
		if err != nil {
			return err
		}
		defer func() { _ = svc.Close() }()

		return presentation.NewFormatter(cmd.OutOrStdout()).FormatCount(svc.Count())
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
}
