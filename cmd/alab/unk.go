package main

import (
	"fmt"

	"github.com/matsen/abstractlab/internal/coverage"
	"github.com/spf13/cobra"
)

var (
	unkSpan      int
	unkPapersSet string
	unkTestYear  string
	unkSave      bool
	unkDump      string
)

func init() {
	unkCmd.Flags().IntVar(&unkSpan, "span", 0, "Leading abstract tokens per document (default from config)")
	unkCmd.Flags().StringVar(&unkPapersSet, "papers-set", "", "Corpus path (overrides corpus-path)")
	unkCmd.Flags().StringVar(&unkTestYear, "test-year", "", "Fold section or year held out for testing")
	unkCmd.Flags().BoolVar(&unkSave, "save", false, "Write per-document unknown counts to unk_per_doc.json")
	unkCmd.Flags().StringVar(&unkDump, "dump", "", "Write stored records to doc_lab_out_<TAG>.json")
	rootCmd.AddCommand(unkCmd)
}

var unkCmd = &cobra.Command{
	Use:   "unk",
	Short: "Report out-of-vocabulary tokens by label and partition",
	Long: `Count, for every document, the leading-span tokens that fall outside the
training vocabulary, and aggregate the counts by label and partition.

The vocabulary is every token in the leading span of the training fold, so
training documents report no unknowns and test documents show how much of
their text never appeared in training.`,
	RunE: runUnk,
}

// UnkResult is the response for the unk command.
type UnkResult struct {
	Documents  int             `json:"documents"`
	Vocabulary int             `json:"vocabulary"`
	Span       int             `json:"span"`
	Cells      []coverage.Cell `json:"cells"`
}

func runUnk(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	if cmd.Flags().Changed("span") {
		cfg.Span = unkSpan
	}
	if unkPapersSet != "" {
		cfg.CorpusPath = unkPapersSet
	}
	if unkTestYear != "" {
		cfg.TestYear = unkTestYear
	}

	split := mustLoadSplit(cfg.CorpusPath, cfg.TestYear)
	vocab := trainVocabulary(split.Train, cfg.Span)

	ledger := coverage.New(cfg.Span, vocab,
		coverage.WithSnapshotWriter(mustOutputDir(repoRoot, cfg)),
		coverage.WithLogger(logger))
	stored, err := fillCoverage(ledger, split)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	if stored == 0 {
		exitWithError(ExitNoDocuments, "no documents with an abstract")
	}

	if unkSave {
		if _, err := ledger.UnknownTokenCounts(true); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}
	if unkDump != "" {
		if err := ledger.Persist(unkDump); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}

	if humanOutput {
		fmt.Print(ledger.CoverageReport())
	} else {
		outputJSON(UnkResult{
			Documents:  stored,
			Vocabulary: len(vocab),
			Span:       ledger.Span(),
			Cells:      ledger.CoverageCells(),
		})
	}
	return nil
}
