// Package main provides the alab CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/matsen/abstractlab/internal/config"
	"github.com/matsen/abstractlab/internal/logging"
	"github.com/matsen/abstractlab/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	verbose     bool

	// logger is built before any command runs
	logger = zap.NewNop()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "alab",
	Short: "Abstract classification and vocabulary statistics",
	Long: `alab classifies scientific-paper abstracts as systematic reviews or
primary studies and keeps per-document word statistics about the corpus.

Corpora are fold JSON files or JSONL paper files; derived statistics are
cached in an ephemeral SQLite database. All commands output JSON by default.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug progress to stderr")
	rootCmd.Version = Version
}

// setup loads .env and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}

	l, err := logging.New(config.GetLogLevel(), verbose)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// getRepoRoot returns the directory commands operate from.
// ALAB_ROOT overrides the working directory.
func getRepoRoot() (string, int) {
	if root := os.Getenv(config.EnvRoot); root != "" {
		return root, 0
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}
	return cwd, 0
}

// mustFindRepository finds and validates the repository, exits on error.
// Returns the repository root path.
func mustFindRepository() string {
	start, exitCode := getRepoRoot()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	repoRoot, err := config.FindRepository(start)
	if err != nil {
		exitWithError(ExitConfigError, "%v\n\nRun 'alab init' to create one.", err)
	}
	return repoRoot
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustOpenDatabase opens the SQLite stats cache, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(repoRoot string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(repoRoot), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustOutputDir resolves and creates the output directory.
func mustOutputDir(repoRoot string, cfg *config.Config) *storage.SnapshotDir {
	dir, err := storage.NewSnapshotDir(config.OutputPath(repoRoot, cfg))
	if err != nil {
		exitWithError(ExitError, "creating output directory: %v", err)
	}
	return dir
}

// warnIfStale logs a warning when the stats cache was built from a different
// corpus, span or test year than the current config describes.
func warnIfStale(repoRoot string, db *storage.DB) {
	cfg, err := config.Load(repoRoot)
	if err != nil || cfg.CorpusPath == "" {
		return
	}
	stored, err := db.GetMeta(storage.MetaSourceKey)
	if err != nil {
		logger.Debug("reading cache metadata", zap.Error(err))
		return
	}
	current, err := storage.SourceKey(config.ExpandPath(cfg.CorpusPath), cfg.Span, cfg.TestYear)
	if err != nil {
		return
	}
	if stored != current {
		logger.Warn("stats cache is stale; run 'alab rebuild'")
	}
}
