// Package config handles repository configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/abstractlab/internal/classify"
)

// Config represents repository configuration stored in .alab/config.json.
type Config struct {
	CorpusPath     string `json:"corpus_path"`          // Fold JSON or JSONL corpus
	TestYear       string `json:"test_year"`            // Fold section (or year) held out for testing
	Span           int    `json:"span"`                 // Leading abstract tokens considered
	Neighbors      int    `json:"neighbors"`            // K for nearest-neighbour classification
	DistanceMetric string `json:"distance_metric"`      // minkowski, euclidean, manhattan, cosine, dot
	TFIDF          bool   `json:"tf_idf"`               // Weight counts by tf-idf
	OutputDir      string `json:"output_dir,omitempty"` // Where snapshots and logs go
}

const (
	LabDir     = ".alab"
	ConfigFile = "config.json"
	CacheDir   = "cache"
	DBFile     = "stats.db"
	OutDir     = "out"
)

// Defaults for a new repository.
const (
	DefaultSpan           = 80
	DefaultNeighbors      = 10
	DefaultDistanceMetric = "minkowski"
	DefaultTestYear       = "2011"
)

// Default returns the configuration written by alab init.
func Default() *Config {
	return &Config{
		TestYear:       DefaultTestYear,
		Span:           DefaultSpan,
		Neighbors:      DefaultNeighbors,
		DistanceMetric: DefaultDistanceMetric,
	}
}

// LabPath returns the path to the .alab directory from a root path.
func LabPath(root string) string {
	return filepath.Join(root, LabDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, LabDir, ConfigFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, LabDir, CacheDir)
}

// DBPath returns the path to stats.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, LabDir, CacheDir, DBFile)
}

// IsRepository checks if the given path contains an abstractlab repository.
func IsRepository(root string) bool {
	info, err := os.Stat(LabPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find an abstractlab repository.
// Returns the repository root path or an error if not found.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in an abstractlab repository (no %s directory found)", LabDir)
		}
		abs = parent
	}
}

// Load reads configuration from the repository at the given root.
// Fields missing from the file keep their defaults.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks every field of the configuration.
func (c *Config) Validate() error {
	if c.Span < 0 {
		return fmt.Errorf("span must be >= 0, got %d", c.Span)
	}
	if c.Neighbors < 1 {
		return fmt.Errorf("neighbors must be >= 1, got %d", c.Neighbors)
	}
	if err := ValidateDistanceMetric(c.DistanceMetric); err != nil {
		return err
	}
	return ValidateCorpusPath(c.CorpusPath)
}

// ValidateDistanceMetric checks that the classifier accepts the metric name.
func ValidateDistanceMetric(metric string) error {
	if _, err := classify.ParseMetric(metric); err != nil {
		return fmt.Errorf("invalid distance_metric: %s (valid: %v)", metric, classify.MetricNames())
	}
	return nil
}

// ValidateCorpusPath checks that the corpus path exists and is a file.
func ValidateCorpusPath(path string) error {
	if path == "" {
		return nil // Empty is allowed (not yet configured)
	}

	expandedPath := ExpandPath(path)

	info, err := os.Stat(expandedPath)
	if err != nil {
		return fmt.Errorf("path does not exist: %s", expandedPath)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory: %s", expandedPath)
	}

	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}

// OutputPath resolves where snapshots and logs are written, in order of
// precedence: ALAB_OUTPUT_DIR, the repository config, the global config,
// and finally .alab/out under root.
func OutputPath(root string, cfg *Config) string {
	if dir := os.Getenv(EnvOutputDir); dir != "" {
		return ExpandPath(dir)
	}
	if cfg != nil && cfg.OutputDir != "" {
		return ExpandPath(cfg.OutputDir)
	}
	if dir := GetDefaultOutputDir(); dir != "" {
		return dir
	}
	return filepath.Join(root, LabDir, OutDir)
}
