package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/matsen/abstractlab/internal/classify"
	"github.com/matsen/abstractlab/internal/config"
	"github.com/matsen/abstractlab/internal/scatter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Output file names; the suffix is "_tfidf" when tf-idf weighting is on.
const (
	bowLogPrefix     = "BOW_LOG"
	scatterPrefix    = "pca_bow"
	scatterExtension = "_scatter.csv"
	tfidfSuffix      = "_tfidf"

	DefaultScatterLimit = 2000
)

var (
	classifyK            int
	classifySpan         int
	classifyPapersSet    string
	classifyTestYear     string
	classifyMetric       string
	classifyTFIDF        bool
	classifyScatter      bool
	classifyScatterLimit int
	classifyWorkers      int
)

func init() {
	classifyCmd.Flags().IntVar(&classifyK, "k", config.DefaultNeighbors, "Number of neighbours")
	classifyCmd.Flags().IntVar(&classifySpan, "span", config.DefaultSpan, "Leading abstract tokens per document")
	classifyCmd.Flags().StringVar(&classifyPapersSet, "papers-set", "", "Corpus path (overrides corpus-path)")
	classifyCmd.Flags().StringVar(&classifyTestYear, "test-year", "", "Fold section or year held out for testing")
	classifyCmd.Flags().StringVar(&classifyMetric, "distance-metric", config.DefaultDistanceMetric, "Distance metric: minkowski, euclidean, manhattan, cosine, dot (or an alias: l1, l2, cityblock, dot_product)")
	classifyCmd.Flags().BoolVar(&classifyTFIDF, "tf-idf", false, "Weight counts by tf-idf")
	classifyCmd.Flags().BoolVar(&classifyScatter, "scatter", false, "Write a 2-D PCA scatter CSV of the training vectors")
	classifyCmd.Flags().IntVar(&classifyScatterLimit, "scatter-limit", DefaultScatterLimit, "Maximum documents in the scatter CSV (0 for all)")
	classifyCmd.Flags().IntVar(&classifyWorkers, "workers", runtime.NumCPU(), "Parallel prediction workers")
	rootCmd.AddCommand(classifyCmd)
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify test abstracts with k-nearest neighbours",
	Long: `Vectorize the leading span of each abstract as a bag of words, fit a
k-nearest-neighbour classifier on the training fold, and evaluate it on the
test fold.

Flags override the repository config. Results are printed and written to
BOW_LOG (BOW_LOG_tfidf with --tf-idf) in the output directory.

Examples:
  alab classify
  alab classify --k 5 --distance-metric cosine --tf-idf
  alab classify --papers-set folds.json --test-year 2011 --scatter`,
	RunE: runClassify,
}

// ClassifyResult is the response for the classify command.
type ClassifyResult struct {
	Train       int                  `json:"train"`
	Test        int                  `json:"test"`
	K           int                  `json:"k"`
	Span        int                  `json:"span"`
	Metric      string               `json:"distance_metric"`
	TFIDF       bool                 `json:"tf_idf"`
	Evaluation  *classify.Evaluation `json:"evaluation"`
	LogPath     string               `json:"log_path"`
	ScatterPath string               `json:"scatter_path,omitempty"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	applyClassifyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	metric, err := classify.ParseMetric(cfg.DistanceMetric)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	split := mustLoadSplit(cfg.CorpusPath, cfg.TestYear)
	out := mustOutputDir(repoRoot, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := classify.Run(ctx, split.Train, split.Test, classify.Options{
		K:       cfg.Neighbors,
		Span:    cfg.Span,
		Metric:  metric,
		TFIDF:   cfg.TFIDF,
		Workers: classifyWorkers,
	}, logger)
	if err != nil {
		if errors.Is(err, classify.ErrNoDocuments) {
			exitWithError(ExitNoDocuments, "%v", err)
		}
		exitWithError(ExitError, "classifying: %v", err)
	}

	suffix := outputSuffix(cfg.TFIDF)
	logPath := out.Path(bowLogPrefix + suffix)
	logText := classifyLog(cfg, len(split.Train), len(split.Test)) + res.Evaluation.String()
	if err := os.WriteFile(logPath, []byte(logText), 0644); err != nil {
		exitWithError(ExitError, "writing log: %v", err)
	}
	logger.Info("wrote classification log", zap.String("path", logPath))

	result := ClassifyResult{
		Train:      len(split.Train),
		Test:       len(split.Test),
		K:          cfg.Neighbors,
		Span:       cfg.Span,
		Metric:     cfg.DistanceMetric,
		TFIDF:      cfg.TFIDF,
		Evaluation: res.Evaluation,
		LogPath:    logPath,
	}

	if classifyScatter {
		points, err := scatter.Points(res.TrainData, res.TrainLabels, classifyScatterLimit)
		if err != nil {
			exitWithError(ExitError, "projecting vectors: %v", err)
		}
		result.ScatterPath = out.Path(scatterPrefix + suffix + scatterExtension)
		if err := scatter.WriteCSVFile(result.ScatterPath, points); err != nil {
			exitWithError(ExitError, "%v", err)
		}
		logger.Info("wrote scatter", zap.String("path", result.ScatterPath), zap.Int("points", len(points)))
	}

	if humanOutput {
		fmt.Print(res.Evaluation.String())
		fmt.Printf("\nLog written to %s\n", logPath)
		if result.ScatterPath != "" {
			fmt.Printf("Scatter written to %s\n", result.ScatterPath)
		}
	} else {
		outputJSON(result)
	}
	return nil
}

// applyClassifyFlags copies explicitly set flags over the config.
func applyClassifyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("k") {
		cfg.Neighbors = classifyK
	}
	if flags.Changed("span") {
		cfg.Span = classifySpan
	}
	if flags.Changed("papers-set") {
		cfg.CorpusPath = classifyPapersSet
	}
	if flags.Changed("test-year") {
		cfg.TestYear = classifyTestYear
	}
	if flags.Changed("distance-metric") {
		cfg.DistanceMetric = classifyMetric
	}
	if flags.Changed("tf-idf") {
		cfg.TFIDF = classifyTFIDF
	}
}

// outputSuffix returns the file-name suffix for the weighting scheme.
func outputSuffix(tfidf bool) string {
	if tfidf {
		return tfidfSuffix
	}
	return ""
}

// classifyLog renders the run parameters that head the log file.
func classifyLog(cfg *config.Config, train, test int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Papers set: %s\n", cfg.CorpusPath)
	fmt.Fprintf(&b, "Test year: %s\n", cfg.TestYear)
	fmt.Fprintf(&b, "Train documents: %d\n", train)
	fmt.Fprintf(&b, "Test documents: %d\n", test)
	fmt.Fprintf(&b, "K: %d\n", cfg.Neighbors)
	fmt.Fprintf(&b, "Span: %d\n", cfg.Span)
	fmt.Fprintf(&b, "Distance metric: %s\n", cfg.DistanceMetric)
	fmt.Fprintf(&b, "TF-IDF: %t\n\n", cfg.TFIDF)
	return b.String()
}
