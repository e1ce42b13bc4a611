package main

import (
	"fmt"

	"github.com/matsen/abstractlab/internal/config"
	"github.com/matsen/abstractlab/internal/coverage"
	"github.com/matsen/abstractlab/internal/paper"
	"github.com/matsen/abstractlab/internal/storage"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the stats cache from the corpus",
	Long: `Rebuild the SQLite stats cache from the configured corpus.

Stores every document with an abstract, its partition and unknown-token
count against the training vocabulary, plus the vocabulary word counts.
Use this after changing the corpus, span or test year.`,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status     string `json:"status"`
	Documents  int    `json:"documents"`
	Vocabulary int    `json:"vocabulary"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	split := mustLoadSplit(cfg.CorpusPath, cfg.TestYear)
	vocab := trainVocabulary(split.Train, cfg.Span)

	ledger := coverage.New(cfg.Span, vocab, coverage.WithLogger(logger))
	if _, err := fillCoverage(ledger, split); err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	records, words, err := statsRecords(ledger)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	count, err := db.Rebuild(records, words)
	if err != nil {
		exitWithError(ExitDataError, "rebuilding stats database: %v", err)
	}

	key, err := storage.SourceKey(config.ExpandPath(cfg.CorpusPath), cfg.Span, cfg.TestYear)
	if err != nil {
		exitWithError(ExitError, "hashing corpus: %v", err)
	}
	if err := db.SetMeta(storage.MetaSourceKey, key); err != nil {
		exitWithError(ExitError, "storing cache metadata: %v", err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt stats database with %d documents and %d vocabulary words\n", count, len(vocab))
	} else {
		outputJSON(RebuildResult{
			Status:     "rebuilt",
			Documents:  count,
			Vocabulary: len(vocab),
		})
	}
	return nil
}

// statsRecords derives the cache rows from a filled coverage ledger.
func statsRecords(ledger *coverage.Ledger) ([]storage.StatsRecord, map[string]int, error) {
	unk, err := ledger.UnknownTokenCounts(false)
	if err != nil {
		return nil, nil, err
	}
	words, err := ledger.WordFrequencyReport(0, false)
	if err != nil {
		return nil, nil, err
	}

	records := make([]storage.StatsRecord, 0, len(unk))
	for _, id := range ledger.IDs() {
		p, part, _ := ledger.Get(id)
		records = append(records, storage.StatsRecord{
			DocID:     id,
			Partition: part,
			Paper:     withID(p, id),
			Unknown:   unk[id],
		})
	}
	return records, words, nil
}

func withID(p paper.Paper, id string) paper.Paper {
	p.ID = id
	return p
}
