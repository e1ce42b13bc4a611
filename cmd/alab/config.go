package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/abstractlab/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Usage:
  alab config                            # Show all config
  alab config span                       # Get specific value
  alab config corpus-path ~/data/fold.json
  alab config distance-metric cosine

Keys:
  corpus-path      Fold JSON or JSONL corpus
  test-year        Fold section (or publication year) held out for testing
  span             Leading abstract tokens considered (default 80)
  neighbors        K for nearest-neighbour classification (default 10)
  distance-metric  minkowski, euclidean, manhattan, cosine, dot
                   (aliases: l1, l2, cityblock, dot_product)
  tf-idf           Weight counts by tf-idf (true/false)
  output-dir       Where snapshots, logs and scatter files are written`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// configKeys lists the keys in display order.
var configKeys = []string{"corpus-path", "test-year", "span", "neighbors", "distance-metric", "tf-idf", "output-dir"}

func runConfig(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	// No args: show all config
	if len(args) == 0 {
		if humanOutput {
			for _, key := range configKeys {
				value, _ := configValue(cfg, key)
				fmt.Printf("%-16s %s\n", key+":", value)
			}
		} else {
			outputJSON(cfg)
		}
		return nil
	}

	key := normalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		value, ok := configValue(cfg, key)
		if !ok {
			exitWithError(ExitError, "unknown configuration key: %s", args[0])
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			outputJSON(map[string]string{strings.ReplaceAll(key, "-", "_"): value})
		}
		return nil
	}

	// Two args: set value
	value := args[1]
	if code, err := setConfigValue(cfg, key, value); err != nil {
		exitWithError(code, "%v", err)
	}

	if err := cfg.Save(repoRoot); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{
			Status: "updated",
			Key:    key,
			Value:  value,
		})
	}
	return nil
}

// configValue returns the string form of a key's value.
func configValue(cfg *config.Config, key string) (string, bool) {
	switch key {
	case "corpus-path":
		return cfg.CorpusPath, true
	case "test-year":
		return cfg.TestYear, true
	case "span":
		return strconv.Itoa(cfg.Span), true
	case "neighbors":
		return strconv.Itoa(cfg.Neighbors), true
	case "distance-metric":
		return cfg.DistanceMetric, true
	case "tf-idf":
		return strconv.FormatBool(cfg.TFIDF), true
	case "output-dir":
		return cfg.OutputDir, true
	}
	return "", false
}

// setConfigValue validates and stores value under key. On failure it
// returns the exit code to use.
func setConfigValue(cfg *config.Config, key, value string) (int, error) {
	switch key {
	case "corpus-path":
		path := config.ExpandPath(value)
		if err := config.ValidateCorpusPath(path); err != nil {
			return ExitConfigError, err
		}
		cfg.CorpusPath = path

	case "test-year":
		if strings.TrimSpace(value) == "" {
			return ExitError, fmt.Errorf("test-year must not be empty")
		}
		cfg.TestYear = value

	case "span", "neighbors":
		n, err := strconv.Atoi(value)
		if err != nil {
			return ExitError, fmt.Errorf("%s must be an integer: %s", key, value)
		}
		if key == "span" {
			if n < 0 {
				return ExitError, fmt.Errorf("span must be >= 0, got %d", n)
			}
			cfg.Span = n
		} else {
			if n < 1 {
				return ExitError, fmt.Errorf("neighbors must be >= 1, got %d", n)
			}
			cfg.Neighbors = n
		}

	case "distance-metric":
		if err := config.ValidateDistanceMetric(value); err != nil {
			return ExitError, err
		}
		cfg.DistanceMetric = value

	case "tf-idf":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return ExitError, fmt.Errorf("tf-idf must be true or false: %s", value)
		}
		cfg.TFIDF = b

	case "output-dir":
		cfg.OutputDir = config.ExpandPath(value)

	default:
		return ExitError, fmt.Errorf("unknown configuration key: %s", key)
	}
	return ExitSuccess, nil
}

// normalizeKey converts key formats (tf-idf, tf_idf, TF_IDF) to consistent format
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "-")
	return key
}
