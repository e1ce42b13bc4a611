package main

import (
	"fmt"
	"os"

	"github.com/matsen/abstractlab/internal/config"
	"github.com/spf13/cobra"
)

var initCorpus string

func init() {
	initCmd.Flags().StringVar(&initCorpus, "corpus", "", "Path to a fold JSON or JSONL corpus")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new abstractlab repository",
	Long: `Initialize a new abstractlab repository in the current directory.

Creates:
  .alab/
  ├── config.json     # Default config
  └── cache/          # Stats database (gitignored)`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, exitCode := getRepoRoot()
	if exitCode != 0 {
		os.Exit(exitCode)
	}

	if config.IsRepository(root) {
		exitWithError(ExitError, "directory already contains an abstractlab repository")
	}

	cfg := config.Default()
	if initCorpus != "" {
		path := config.ExpandPath(initCorpus)
		if err := config.ValidateCorpusPath(path); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		cfg.CorpusPath = path
	}

	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating %s directory: %v", config.LabDir, err)
	}
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "creating config.json: %v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized abstractlab repository in %s\n", root)
	} else {
		outputJSON(StatusResponse{
			Status: "initialized",
			Path:   root,
		})
	}
	return nil
}
