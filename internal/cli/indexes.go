package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/idxadvisor/idxadvisor/internal/report"
)

var indexesDropManaged bool

var indexesCmd = &cobra.Command{
	Use:   "indexes <table>",
	Short: "List a table's indexes and flag duplicates and redundancy",
	Long: `List the indexes of one table and report hygiene findings: exact
duplicates (same columns, same order) and redundant indexes whose
columns are a left-prefix of a wider index on the same table.

With --drop-managed, drop every advisor-created index on the table
instead of reporting.

Examples:
  idxadvisor indexes orders
  idxadvisor indexes orders --drop-managed`,
	Args: cobra.ExactArgs(1),
	RunE: runIndexes,
}

func init() {
	indexesCmd.Flags().BoolVar(&indexesDropManaged, "drop-managed", false, "Drop all advisor-created indexes on the table")
	rootCmd.AddCommand(indexesCmd)
}

func runIndexes(cmd *cobra.Command, args []string) error {
	e, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := opTimeout(e.cfg)
	defer cancel()

	if indexesDropManaged {
		dropped, err := e.eng.DropManaged(ctx, args[0])
		if err != nil {
			return err
		}
		if len(dropped) == 0 {
			fmt.Println("No advisor-created indexes to drop.")
			return nil
		}
		for _, name := range dropped {
			fmt.Printf("Dropped %s\n", name)
		}
		return nil
	}

	existing, rep, err := e.eng.Indexes(ctx, args[0])
	if err != nil {
		return err
	}
	return report.WriteIndexes(os.Stdout, args[0], existing, rep)
}
