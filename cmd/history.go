package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	applib "github.com/leibooks/leibooks/internal/application/library"
	"github.com/leibooks/leibooks/internal/audit"
	"github.com/leibooks/leibooks/internal/presentation"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent library changes from the audit journal",
	Long: `Show the most recent library changes recorded in the audit journal,
newest first, as JSON.

The journal is written by "leibooks watch" when audit.enabled is true in
the config: the initial catalog load and every change picked up while
watching are recorded.

Examples:
  leibooks history
  leibooks history --limit 5
  leibooks history | jq -r '.[] | "\(.kind) \(.title)"'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyLimit < 1 {
			return fmt.Errorf("--limit must be at least 1, got %d", historyLimit)
		}
		if !cfg.Audit.Enabled {
			return fmt.Errorf("%w: set audit.enabled: true in %s", applib.ErrAuditDisabled, configFileLabel())
		}

		journal, err := audit.Open(cfg.Audit.DBPath)
		if err != nil {
			return err
		}
		defer func() { _ = journal.Close() }()

		entries, err := journal.Recent(historyLimit)
		if err != nil {
			return err
		}
		return presentation.NewFormatter(cmd.OutOrStdout()).FormatHistory(presentation.FromJournal(entries))
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries to show")
	rootCmd.AddCommand(historyCmd)
}
