package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestComputeFileHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.jsonl")

	empty, err := ComputeFileHash(path)
	if err != nil {
		t.Fatalf("ComputeFileHash (nonexistent): %v", err)
	}
	if empty == "" {
		t.Error("hash should not be empty for nonexistent file")
	}

	if err := os.WriteFile(path, []byte(`{"id":"1"}`+"\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	first, err := ComputeFileHash(path)
	if err != nil {
		t.Fatalf("ComputeFileHash: %v", err)
	}
	if first == empty {
		t.Error("hash should change when content is written")
	}

	again, _ := ComputeFileHash(path)
	if again != first {
		t.Error("hash should be stable for unchanged content")
	}
}

func TestSourceKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folds.json")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	base, err := SourceKey(path, 80, "2011")
	if err != nil {
		t.Fatalf("SourceKey() error = %v", err)
	}

	for _, other := range []struct {
		span int
		year string
	}{{40, "2011"}, {80, "2012"}} {
		key, _ := SourceKey(path, other.span, other.year)
		if key == base {
			t.Errorf("SourceKey(span=%d, year=%s) should differ from base", other.span, other.year)
		}
	}

	same, _ := SourceKey(path, 80, "2011")
	if same != base {
		t.Errorf("SourceKey() = %q, want %q", same, base)
	}
}
