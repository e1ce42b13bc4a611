package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matsen/abstractlab/internal/paper"
)

// OthersKey is the fold-file section holding every non-test year.
const OthersKey = "others"

// ErrFoldMissing is returned when a fold file lacks a requested section.
var ErrFoldMissing = errors.New("fold section not found")

// Fold is one section of a fold file.
type Fold struct {
	Docs []paper.Paper `json:"docs"`
}

// Split is a train/test division of a corpus.
type Split struct {
	Train []paper.Paper
	Test  []paper.Paper
}

// ReadFold reads a fold file of the form
// {"<year>": {"docs": [...]}, "others": {"docs": [...]}}.
// The testYear section becomes Test and the others section becomes Train.
func ReadFold(path, testYear string) (*Split, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fold file: %w", err)
	}

	var folds map[string]Fold
	if err := json.Unmarshal(data, &folds); err != nil {
		return nil, fmt.Errorf("parsing fold file: %w", err)
	}

	test, ok := folds[testYear]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFoldMissing, testYear)
	}
	train, ok := folds[OthersKey]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFoldMissing, OthersKey)
	}

	return &Split{Train: train.Docs, Test: test.Docs}, nil
}

// SplitByYear divides papers into those published in testYear and the rest.
func SplitByYear(papers []paper.Paper, testYear int) *Split {
	s := &Split{}
	for _, p := range papers {
		if p.Year == testYear {
			s.Test = append(s.Test, p)
		} else {
			s.Train = append(s.Train, p)
		}
	}
	return s
}

// LoadSplit reads a corpus and splits it on testYear. Files ending in
// .jsonl are read as one paper per line and split by the year field;
// anything else is read as a fold file.
func LoadSplit(path, testYear string) (*Split, error) {
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		year, err := strconv.Atoi(testYear)
		if err != nil {
			return nil, fmt.Errorf("test year %q is not a number: %w", testYear, err)
		}
		papers, err := ReadAll(path)
		if err != nil {
			return nil, err
		}
		return SplitByYear(papers, year), nil
	}
	return ReadFold(path, testYear)
}
