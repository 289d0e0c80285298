// Package report renders pipeline results for terminal output.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/idxadvisor/idxadvisor/internal/hygiene"
	"github.com/idxadvisor/idxadvisor/internal/pkmon"
)

// WriteIndexes renders a table's existing indexes followed by its
// duplicate and redundancy findings.
func WriteIndexes(w io.Writer, table string, existing []hygiene.ExistingIndex, rep hygiene.Report) error {
	fmt.Fprintf(w, "Indexes on %s\n\n", table)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tCOLUMNS")
	for _, ix := range existing {
		fmt.Fprintf(tw, "%s\t%s\n", ix.KeyName, strings.Join(ix.Columns, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(rep.Duplicates) == 0 && len(rep.Redundant) == 0 {
		fmt.Fprintln(w, "\nNo duplicate or redundant indexes found.")
		return nil
	}

	if len(rep.Duplicates) > 0 {
		fmt.Fprintln(w, "\nDuplicate indexes:")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DUPLICATE\tKEPT\tCOLUMNS")
		for _, d := range rep.Duplicates {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Redundant, d.SupersededBy, strings.Join(d.Columns, ", "))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(rep.Redundant) > 0 {
		fmt.Fprintln(w, "\nRedundant indexes (left-prefix of a wider index):")
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "REDUNDANT\tSUPERSEDED BY\tCOLUMNS")
		for _, r := range rep.Redundant {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Redundant, r.SupersededBy, strings.Join(r.Columns, ", "))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// WritePKExhaustion renders the primary-key exhaustion table, worst
// offenders first.
func WritePKExhaustion(w io.Writer, entries []pkmon.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No auto-increment columns above the reporting threshold.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tCURRENT\tMAX\tUSAGE\tSTATUS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\t%s\n", e.Table, e.Current, e.Max, e.UsagePct, e.Severity)
	}
	return tw.Flush()
}
