package main

import (
	"fmt"

	"github.com/matsen/abstractlab/internal/storage"
	"github.com/spf13/cobra"
)

const (
	DefaultSearchLimit = 50 // Default limit for search results
	SearchTitleMaxLen  = 70 // Used in search result summaries
)

var searchLimit int

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", DefaultSearchLimit, "Maximum results to return")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over cached abstracts",
	Long: `Search the titles and abstracts in the stats cache.

Run 'alab rebuild' first.

Examples:
  alab search "meta analysis"
  alab search randomised --limit 10 --human`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()
	warnIfStale(repoRoot, db)

	hits, err := db.Search(args[0], searchLimit)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		if len(hits) == 0 {
			fmt.Println("No documents found")
			return nil
		}
		for _, h := range hits {
			fmt.Printf("%s [%s, %s]\n", h.DocID, h.Classification, h.Partition)
			if h.Title != "" {
				fmt.Printf("  %s\n", truncateString(h.Title, SearchTitleMaxLen))
			}
		}
	} else {
		if hits == nil {
			hits = []storage.SearchHit{}
		}
		outputJSON(hits)
	}
	return nil
}
