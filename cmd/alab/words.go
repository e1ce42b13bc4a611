package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/abstractlab/internal/coverage"
	"github.com/matsen/abstractlab/internal/report"
	"github.com/spf13/cobra"
)

// DefaultTopWords is how many words the words command shows.
const DefaultTopWords = 20

var (
	wordsTop       int
	wordsVocab     string
	wordsSave      bool
	wordsPapersSet string
	wordsTestYear  string
	wordsCached    bool
)

func init() {
	wordsCmd.Flags().IntVar(&wordsTop, "top", DefaultTopWords, "Number of most frequent words to show")
	wordsCmd.Flags().StringVar(&wordsVocab, "vocab", "", "Vocabulary file, one word per line (default: training vocabulary)")
	wordsCmd.Flags().BoolVar(&wordsSave, "save", false, "Write every word count to word_count_per_doc.json")
	wordsCmd.Flags().StringVar(&wordsPapersSet, "papers-set", "", "Corpus path (overrides corpus-path)")
	wordsCmd.Flags().StringVar(&wordsTestYear, "test-year", "", "Fold section or year held out for testing")
	wordsCmd.Flags().BoolVar(&wordsCached, "cached", false, "Read counts from the stats cache built by 'alab rebuild'")
	rootCmd.AddCommand(wordsCmd)
}

var wordsCmd = &cobra.Command{
	Use:   "words",
	Short: "Count vocabulary words across abstracts",
	Long: `Count how often each vocabulary word occurs within the leading span of
every abstract in the corpus, and list the most frequent ones.

With --cached the counts come from the stats cache instead of the corpus.`,
	RunE: runWords,
}

// WordsResult is the response for the words command.
type WordsResult struct {
	Documents  int                `json:"documents"`
	Vocabulary int                `json:"vocabulary,omitempty"`
	Cached     bool               `json:"cached,omitempty"`
	Top        []report.WordCount `json:"top"`
}

func runWords(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	if wordsCached {
		printWords(cachedWords(repoRoot))
		return nil
	}

	cfg := mustLoadConfig(repoRoot)
	if wordsPapersSet != "" {
		cfg.CorpusPath = wordsPapersSet
	}
	if wordsTestYear != "" {
		cfg.TestYear = wordsTestYear
	}

	split := mustLoadSplit(cfg.CorpusPath, cfg.TestYear)

	var vocab []string
	if wordsVocab != "" {
		var err error
		vocab, err = readVocabulary(wordsVocab)
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
	} else {
		vocab = trainVocabulary(split.Train, cfg.Span)
	}

	ledger := coverage.New(cfg.Span, vocab,
		coverage.WithSnapshotWriter(mustOutputDir(repoRoot, cfg)),
		coverage.WithLogger(logger))
	stored, err := fillCoverage(ledger, split)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	counts, err := ledger.WordFrequencyReport(wordsTop, wordsSave)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	printWords(WordsResult{
		Documents:  stored,
		Vocabulary: len(vocab),
		Top:        report.Rank(counts, wordsTop, report.Descending),
	})
	return nil
}

// cachedWords reads the top words and document count from the stats cache.
func cachedWords(repoRoot string) WordsResult {
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

	top, err := db.TopWords(wordsTop)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return WordsResult{Documents: count, Cached: true, Top: top}
}

func printWords(res WordsResult) {
	if humanOutput {
		for i, wc := range res.Top {
			fmt.Printf("%d. %s (%d)\n", i+1, wc.Word, wc.Count)
		}
		return
	}
	if res.Top == nil {
		res.Top = []report.WordCount{}
	}
	outputJSON(res)
}

// readVocabulary reads one word per line, skipping blanks and # comments.
// Words are kept as written since abstracts are matched token for token.
func readVocabulary(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vocabulary: %w", err)
	}
	defer f.Close()

	var words []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		w := strings.TrimSpace(scanner.Text())
		if w == "" || strings.HasPrefix(w, "#") || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading vocabulary: %w", err)
	}
	return words, nil
}
