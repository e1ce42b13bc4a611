package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/abstractlab/internal/occurrence"
	"github.com/matsen/abstractlab/internal/paper"
	"github.com/matsen/abstractlab/internal/report"
	"github.com/matsen/abstractlab/internal/storage"
	"github.com/spf13/cobra"
)

var (
	occWords     []string
	occFrom      string
	occDocs      []string
	occAscending bool
	occPapersSet string
	occTestYear  string
)

func init() {
	occurrencesCmd.Flags().StringSliceVar(&occWords, "words", nil, "Words to watch for in the corpus (comma-separated)")
	occurrencesCmd.Flags().StringVar(&occFrom, "from", "", "Observation JSONL file ({\"doc_id\",\"word\",\"index\"} per line)")
	occurrencesCmd.Flags().StringArrayVar(&occDocs, "doc", nil, "Limit output to this document (can be repeated)")
	occurrencesCmd.Flags().BoolVar(&occAscending, "ascending", false, "Rank top words least frequent first")
	occurrencesCmd.Flags().StringVar(&occPapersSet, "papers-set", "", "Corpus path (overrides corpus-path)")
	occurrencesCmd.Flags().StringVar(&occTestYear, "test-year", "", "Fold section or year held out for testing")
	rootCmd.AddCommand(occurrencesCmd)
}

var occurrencesCmd = &cobra.Command{
	Use:   "occurrences",
	Short: "Report where words occur inside documents",
	Long: `Record the positions at which words occur in each document and report,
per document, how often each position and each word was hit.

Observations come either from scanning the leading span of every abstract
for the --words list, or from an observation file given with --from.

Examples:
  alab occurrences --words review,randomised --human
  alab occurrences --from attention.jsonl --doc train-12
  alab occurrences --words trial --ascending --human`,
	RunE: runOccurrences,
}

func runOccurrences(cmd *cobra.Command, args []string) error {
	if occFrom == "" && len(occWords) == 0 {
		exitWithError(ExitError, "one of --words or --from is required")
	}

	order := report.Descending
	if occAscending {
		order = report.Ascending
	}
	ledger := occurrence.New(occurrence.WithRankOrder(order), occurrence.WithLogger(logger))

	if occFrom != "" {
		obs, err := storage.ReadObservations(occFrom)
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		if err := recordObservations(ledger, obs); err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
	} else {
		repoRoot := mustFindRepository()
		cfg := mustLoadConfig(repoRoot)
		if occPapersSet != "" {
			cfg.CorpusPath = occPapersSet
		}
		if occTestYear != "" {
			cfg.TestYear = occTestYear
		}
		split := mustLoadSplit(cfg.CorpusPath, cfg.TestYear)
		if err := scanOccurrences(ledger, split, occWords, cfg.Span); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}

	if ledger.Len() == 0 {
		exitWithError(ExitNoDocuments, "no occurrences recorded")
	}

	if humanOutput {
		text, err := ledger.Report(occDocs...)
		if err != nil {
			exitOnLedgerError(err)
		}
		fmt.Print(text)
		return nil
	}

	summaries, err := ledger.Summarize(occDocs...)
	if err != nil {
		exitOnLedgerError(err)
	}
	outputJSON(summaries)
	return nil
}

func exitOnLedgerError(err error) {
	if errors.Is(err, occurrence.ErrNotFound) {
		exitWithError(ExitDataError, "%v", err)
	}
	exitWithError(ExitError, "%v", err)
}

// recordObservations registers each observed document and records its words
// in file order.
func recordObservations(ledger *occurrence.Ledger, obs []storage.Observation) error {
	for _, o := range obs {
		ledger.Register(o.DocID)
		if err := ledger.Record(o.Word, o.Index, o.DocID); err != nil {
			return err
		}
	}
	return nil
}

// scanOccurrences records every watched word found within the leading span
// of each abstract. Matching ignores case and records the lower-case word.
// Only documents with at least one hit are registered; their title,
// classification and partition become metadata.
func scanOccurrences(ledger *occurrence.Ledger, split *storage.Split, words []string, span int) error {
	watched := make(map[string]bool, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			watched[w] = true
		}
	}

	var firstErr error
	splitPapers(split, func(id string, p paper.Paper, part paper.Partition) {
		if firstErr != nil {
			return
		}
		registered := false
		for i, tok := range p.Lead(span) {
			word := strings.ToLower(tok)
			if !watched[word] {
				continue
			}
			if !registered {
				ledger.Register(id)
				ledger.SetMetadata(id, "title", p.Title)
				ledger.SetMetadata(id, "classification", p.Classification)
				ledger.SetMetadata(id, "partition", string(part))
				registered = true
			}
			if err := ledger.Record(word, i, id); err != nil {
				firstErr = err
				return
			}
		}
	})
	return firstErr
}
