package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/idxadvisor/idxadvisor/internal/report"
)

var pkMinUsage float64

var pkExhaustionCmd = &cobra.Command{
	Use:   "pk-exhaustion",
	Short: "Report auto-increment primary keys approaching their type limit",
	Long: `Read every auto-incrementing column's current counter value, compute
how much of the column type's range has been consumed, and report the
worst offenders first. Usage at or above 50% is flagged yellow, at or
above 80% red.

Examples:
  idxadvisor pk-exhaustion
  idxadvisor pk-exhaustion --min-usage 25`,
	Args: cobra.NoArgs,
	RunE: runPKExhaustion,
}

func init() {
	pkExhaustionCmd.Flags().Float64Var(&pkMinUsage, "min-usage", 0, "Hide columns below this usage percentage")
	rootCmd.AddCommand(pkExhaustionCmd)
}

func runPKExhaustion(cmd *cobra.Command, _ []string) error {
	e, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := opTimeout(e.cfg)
	defer cancel()

	entries, err := e.eng.PKExhaustion(ctx, pkMinUsage)
	if err != nil {
		return err
	}
	return report.WritePKExhaustion(os.Stdout, entries)
}
