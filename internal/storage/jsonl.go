// Package storage handles corpus files, JSON snapshots, and the SQLite stats cache.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/matsen/abstractlab/internal/paper"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
// This constant is shared across all JSONL file readers.
const MaxJSONLLineCapacity = 1024 * 1024

// ReadAll reads all papers from a JSONL file.
func ReadAll(path string) ([]paper.Paper, error) {
	var papers []paper.Paper
	err := scanJSONL(path, func(lineNum int, line []byte) error {
		var p paper.Paper
		if err := json.Unmarshal(line, &p); err != nil {
			return fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		papers = append(papers, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return papers, nil
}

// Observation is one line of an occurrence observation file.
type Observation struct {
	DocID string `json:"doc_id"`
	Word  string `json:"word"`
	Index int    `json:"index"`
}

// ReadObservations reads word observations from a JSONL file.
func ReadObservations(path string) ([]Observation, error) {
	var obs []Observation
	err := scanJSONL(path, func(lineNum int, line []byte) error {
		var o Observation
		if err := json.Unmarshal(line, &o); err != nil {
			return fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		if o.DocID == "" {
			return fmt.Errorf("line %d: missing doc_id", lineNum)
		}
		if o.Index < 0 {
			return fmt.Errorf("line %d: negative index %d", lineNum, o.Index)
		}
		obs = append(obs, o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return obs, nil
}

// scanJSONL calls fn for every non-empty line of path.
// A missing file yields no lines and no error.
func scanJSONL(path string, fn func(lineNum int, line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Empty file returns empty slice
		}
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}
		if err := fn(lineNum, line); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// Append adds a paper to the end of a JSONL file.
func Append(path string, p paper.Paper) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening corpus file for append: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding paper: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing paper: %w", err)
	}
	if _, err := f.WriteString("\n"); err != nil {
		return fmt.Errorf("writing newline: %w", err)
	}

	return nil
}

// FindByID searches for a paper by ID.
func FindByID(papers []paper.Paper, id string) (int, bool) {
	for i, p := range papers {
		if p.ID == id {
			return i, true
		}
	}
	return -1, false
}

// GenerateUniqueID returns an ID that doesn't conflict with existing papers.
// If the base ID exists, appends -2, -3, etc.
func GenerateUniqueID(papers []paper.Paper, baseID string) string {
	if _, found := FindByID(papers, baseID); !found {
		return baseID
	}

	// Start at 2: baseID is taken, so first duplicate becomes baseID-2
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", baseID, i)
		if _, found := FindByID(papers, candidate); !found {
			return candidate
		}
	}
}
