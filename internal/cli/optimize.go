package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idxadvisor/idxadvisor/internal/engine"
)

var (
	optimizeTables        []string
	optimizeMinOccurrence uint64
	optimizeSkipBacktest  bool
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Infer, create, and backtest indexes from captured statements",
	Long: `Read the server's statement capture, extract index candidates from
frequent read statements, create the qualified ones, and drop any that
the before/after plan measurements show no improvement for.

Only one optimize run may be active at a time; a concurrent invocation
exits immediately.

Examples:
  idxadvisor optimize
  idxadvisor optimize --tables orders,invoices
  idxadvisor optimize --min-occurrence 10 --skip-backtest`,
	Args: cobra.NoArgs,
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().StringSliceVar(&optimizeTables, "tables", nil, "Restrict the run to these tables")
	optimizeCmd.Flags().Uint64Var(&optimizeMinOccurrence, "min-occurrence", 0, "Ignore statements observed this many times or fewer")
	optimizeCmd.Flags().BoolVar(&optimizeSkipBacktest, "skip-backtest", false, "Keep every successfully created index without measuring")
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, _ []string) error {
	e, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := opTimeout(e.cfg)
	defer cancel()

	summary, err := e.eng.Optimize(ctx, engine.Options{
		Tables:        optimizeTables,
		MinOccurrence: optimizeMinOccurrence,
		SkipBacktest:  optimizeSkipBacktest,
	})
	printSummary(summary)
	return err
}

func printSummary(s engine.Summary) {
	fmt.Printf("Run %s\n", s.RunID)
	fmt.Printf("  created: %d\n", len(s.Created))
	for _, name := range s.Created {
		fmt.Printf("    %s\n", name)
	}
	fmt.Printf("  dropped (no improvement): %d\n", len(s.Dropped))
	for _, name := range s.Dropped {
		fmt.Printf("    %s\n", name)
	}
	if len(s.Failed) > 0 {
		fmt.Printf("  failed: %s\n", strings.Join(s.Failed, ", "))
	}
	if len(s.TablesSkipped) > 0 {
		fmt.Fprintf(os.Stderr, "  skipped missing tables: %s\n", strings.Join(s.TablesSkipped, ", "))
	}
}
