package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ComputeFileHash computes a SHA256 hash of a file's contents.
// A missing file hashes like an empty one.
func ComputeFileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			h := sha256.Sum256([]byte{})
			return hex.EncodeToString(h[:]), nil
		}
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SourceKey identifies the inputs a stats cache was built from. The cache is
// stale when the corpus content, span or test year change.
func SourceKey(corpusPath string, span int, testYear string) (string, error) {
	hash, err := ComputeFileHash(corpusPath)
	if err != nil {
		return "", err
	}
	return hash + ":" + strconv.Itoa(span) + ":" + testYear, nil
}
