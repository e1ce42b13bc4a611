package main

import (
	"fmt"

	"github.com/matsen/abstractlab/internal/coverage"
	"github.com/matsen/abstractlab/internal/paper"
	"github.com/matsen/abstractlab/internal/report"
	"github.com/matsen/abstractlab/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cellsCmd)
}

var cellsCmd = &cobra.Command{
	Use:   "cells",
	Short: "Show cached unknown-token totals by label and partition",
	Long: `Aggregate the stats cache by label and partition in SQL and print the
coverage report. Run 'alab rebuild' first.`,
	RunE: runCells,
}

func runCells(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()
	warnIfStale(repoRoot, db)

	count, err := db.Count()
	if err != nil {
		exitWithError(ExitError, "counting documents: %v", err)
	}
	if count == 0 {
		exitWithError(ExitNoDocuments, "stats cache is empty\n\nRun 'alab rebuild' to fill it.")
	}

	rows, err := db.Cells()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	cells := cellsFromRows(rows)

	if humanOutput {
		fmt.Println("-- <UNK> LAB --")
		for _, c := range cells {
			fmt.Println(c.String())
		}
	} else {
		outputJSON(cells)
	}
	return nil
}

// cellsFromRows lays SQL aggregates out like coverage.Ledger.CoverageCells:
// every known label with both partitions, extra labels after, empty cells
// averaging 0.
func cellsFromRows(rows []storage.CellRow) []coverage.Cell {
	type key struct {
		label string
		part  paper.Partition
	}
	byKey := make(map[key]storage.CellRow, len(rows))
	seen := make(map[string]bool)
	for _, r := range rows {
		byKey[key{r.Label, r.Partition}] = r
		seen[r.Label] = true
	}

	var cells []coverage.Cell
	for _, label := range paper.OrderLabels(seen) {
		for _, part := range paper.Partitions {
			r := byKey[key{label, part}]
			cells = append(cells, coverage.Cell{
				Label:     label,
				Partition: part,
				Documents: r.Documents,
				Unknown:   r.Unknown,
				Average:   report.Average(r.Unknown, r.Documents),
			})
		}
	}
	return cells
}
