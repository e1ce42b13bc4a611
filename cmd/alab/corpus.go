package main

import (
	"errors"
	"os"
	"sort"

	"github.com/matsen/abstractlab/internal/config"
	"github.com/matsen/abstractlab/internal/coverage"
	"github.com/matsen/abstractlab/internal/paper"
	"github.com/matsen/abstractlab/internal/storage"
	"go.uber.org/zap"
)

// Positional ID prefixes for papers without an id field.
const (
	trainPrefix = "train"
	testPrefix  = "test"
)

// mustLoadSplit reads the corpus at path and splits it on testYear.
func mustLoadSplit(path, testYear string) *storage.Split {
	if path == "" {
		exitWithError(ExitConfigError, "corpus path not configured\n\nRun 'alab config corpus-path <path>' or pass --papers-set.")
	}
	path = config.ExpandPath(path)
	if _, err := os.Stat(path); err != nil {
		exitWithError(ExitConfigError, "corpus not found: %s", path)
	}

	split, err := storage.LoadSplit(path, testYear)
	if err != nil {
		if errors.Is(err, storage.ErrFoldMissing) {
			exitWithError(ExitDataError, "%v\n\nCheck test-year against the sections of the fold file.", err)
		}
		exitWithError(ExitDataError, "loading corpus: %v", err)
	}
	logger.Debug("loaded corpus",
		zap.String("path", path),
		zap.String("test_year", testYear),
		zap.Int("train", len(split.Train)),
		zap.Int("test", len(split.Test)))
	return split
}

// trainVocabulary returns the distinct tokens found in the leading span of
// the training papers, sorted. Tokens are kept exactly as stored so they match
// what the coverage ledger looks up.
func trainVocabulary(train []paper.Paper, span int) []string {
	seen := make(map[string]struct{})
	for _, p := range train {
		for _, tok := range p.Lead(span) {
			seen[tok] = struct{}{}
		}
	}

	vocab := make([]string, 0, len(seen))
	for tok := range seen {
		vocab = append(vocab, tok)
	}
	sort.Strings(vocab)
	return vocab
}

// fillCoverage adds every paper of the split to ledger, tagged by partition.
// It returns the number of papers stored.
func fillCoverage(ledger *coverage.Ledger, split *storage.Split) (int, error) {
	stored := 0
	var firstErr error
	splitPapers(split, func(id string, p paper.Paper, part paper.Partition) {
		if firstErr != nil {
			return
		}
		ok, err := ledger.Add(id, p, part)
		if err != nil {
			firstErr = err
			return
		}
		if ok {
			stored++
		}
	})
	return stored, firstErr
}

// splitPapers yields each paper of the split with its doc ID and partition.
func splitPapers(split *storage.Split, fn func(id string, p paper.Paper, part paper.Partition)) {
	for i, p := range split.Train {
		fn(p.DocID(trainPrefix, i), p, paper.Train)
	}
	for i, p := range split.Test {
		fn(p.DocID(testPrefix, i), p, paper.Test)
	}
}
