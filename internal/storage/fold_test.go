package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matsen/abstractlab/internal/paper"
)

const foldContent = `{
  "2011": {"docs": [{"abstract": ["we", "review"], "classification": "systematic-review"}]},
  "others": {"docs": [
    {"abstract": ["a", "trial"], "classification": "primary-study"},
    {"abstract": [], "classification": "primary-study"}
  ]}
}`

func writeFold(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fold_2011_span_80.json")
	if err := os.WriteFile(path, []byte(foldContent), 0644); err != nil {
		t.Fatalf("Failed to write fold file: %v", err)
	}
	return path
}

func TestReadFold(t *testing.T) {
	split, err := ReadFold(writeFold(t), "2011")
	if err != nil {
		t.Fatalf("ReadFold() error = %v", err)
	}
	if len(split.Test) != 1 || len(split.Train) != 2 {
		t.Fatalf("ReadFold() = %d test, %d train; want 1, 2", len(split.Test), len(split.Train))
	}
	if split.Test[0].Classification != paper.SystematicReview {
		t.Errorf("Test[0].Classification = %q", split.Test[0].Classification)
	}
}

func TestReadFold_MissingYear(t *testing.T) {
	_, err := ReadFold(writeFold(t), "1999")
	if !errors.Is(err, ErrFoldMissing) {
		t.Errorf("ReadFold() error = %v, want ErrFoldMissing", err)
	}
}

func TestSplitByYear(t *testing.T) {
	papers := []paper.Paper{{ID: "a", Year: 2010}, {ID: "b", Year: 2011}, {ID: "c"}}
	split := SplitByYear(papers, 2011)
	if len(split.Test) != 1 || split.Test[0].ID != "b" {
		t.Errorf("Test = %v", split.Test)
	}
	if len(split.Train) != 2 {
		t.Errorf("Train = %v", split.Train)
	}
}

func TestLoadSplit_JSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	content := `{"id":"a","year":2011,"abstract":["x"],"classification":"primary-study"}
{"id":"b","year":2012,"abstract":["y"],"classification":"primary-study"}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write corpus: %v", err)
	}

	split, err := LoadSplit(path, "2011")
	if err != nil {
		t.Fatalf("LoadSplit() error = %v", err)
	}
	if len(split.Test) != 1 || len(split.Train) != 1 {
		t.Errorf("LoadSplit() = %d test, %d train", len(split.Test), len(split.Train))
	}

	if _, err := LoadSplit(path, "latest"); err == nil {
		t.Error("LoadSplit() should reject a non-numeric year for JSONL corpora")
	}
}
