package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/structdraw/backend/internal/ledger"
)

var (
	filterQuery   string
	filterFormula string
)

var filterCmd = &cobra.Command{
	Use:   "filter [fixture.yaml]",
	Short: "Print the rows matching a search query",
	Long: `Search the bill of materials the way the ledger panel does: a row
matches when its type, size, material or notes contain the query, ignoring
case. The weight total covers the matching rows.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().StringVarP(&filterQuery, "query", "q", "", "search text")
	filterCmd.Flags().StringVar(&filterFormula, "formula", string(ledger.WeightFormulaUnit), "weight total formula (unit or extended)")
}

func runFilter(cmd *cobra.Command, args []string) error {
	result, err := loadFixture(fixtureArg(args))
	if err != nil {
		return err
	}

	rows := ledger.Filter(result.Rows, filterQuery)
	formula := ledger.ParseWeightFormula(filterFormula)

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSIZE\tLENGTH\tQTY\tWEIGHT\tMATERIAL\tNOTES")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%d\t%g\t%s\t%s\n",
			r.ID, r.Type, r.Size, r.Length, r.Quantity, r.Weight, r.Material, r.Notes)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nShowing %d of %d items\n", len(rows), len(result.Rows))
	fmt.Fprintf(out, "Total weight (%s): %.1f lbs\n", formula, formula.Total(rows))
	return nil
}
