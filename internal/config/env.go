package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by the CLI.
const (
	EnvRoot      = "ALAB_ROOT"       // Overrides the working directory
	EnvOutputDir = "ALAB_OUTPUT_DIR" // Overrides the output directory
)

// LoadDotEnv loads variables from a .env file without overriding variables
// already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}
