package storage

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matsen/abstractlab/internal/paper"
	"github.com/matsen/abstractlab/internal/report"
)

// setupTestDB creates a stats database loaded with a small corpus.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenDB(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	records := []StatsRecord{
		{
			DocID:     "sr1",
			Partition: paper.Train,
			Paper:     paper.Paper{Title: "Statins: a meta-analysis", Abstract: []string{"we", "pooled", "trials"}, Classification: paper.SystematicReview, Year: 2010},
			Unknown:   1,
		},
		{
			DocID:     "ps1",
			Partition: paper.Train,
			Paper:     paper.Paper{Abstract: []string{"patients", "were", "randomised"}, Classification: paper.PrimaryStudy},
			Unknown:   2,
		},
		{
			DocID:     "ps2",
			Partition: paper.Train,
			Paper:     paper.Paper{Abstract: []string{"cohort"}, Classification: paper.PrimaryStudy},
			Unknown:   4,
		},
		{
			DocID:     "ps3",
			Partition: paper.Test,
			Paper:     paper.Paper{Abstract: []string{"cohort", "study"}, Classification: paper.PrimaryStudy},
			Unknown:   0,
		},
	}
	words := map[string]int{"trials": 5, "cohort": 5, "we": 1}

	n, err := db.Rebuild(records, words)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if n != len(records) {
		t.Fatalf("Rebuild() = %d, want %d", n, len(records))
	}
	return db
}

func TestRebuild_ReplacesContent(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.Rebuild([]StatsRecord{{DocID: "only", Partition: paper.Test, Paper: paper.Paper{Abstract: []string{"x"}, Classification: paper.PrimaryStudy}}}, nil); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	count, err := db.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
	words, _ := db.TopWords(10)
	if len(words) != 0 {
		t.Errorf("TopWords() = %v, want empty after rebuild", words)
	}
}

func TestGetDoc(t *testing.T) {
	db := setupTestDB(t)

	r, err := db.GetDoc("sr1")
	if err != nil {
		t.Fatalf("GetDoc() error = %v", err)
	}
	if r == nil {
		t.Fatal("GetDoc() returned nil")
	}
	if r.Partition != paper.Train || r.Unknown != 1 || r.Paper.Year != 2010 {
		t.Errorf("GetDoc() = %+v", r)
	}
	if !reflect.DeepEqual(r.Paper.Abstract, []string{"we", "pooled", "trials"}) {
		t.Errorf("Abstract = %v", r.Paper.Abstract)
	}

	missing, err := db.GetDoc("nope")
	if err != nil || missing != nil {
		t.Errorf("GetDoc(nope) = %v, %v; want nil, nil", missing, err)
	}
}

func TestCells(t *testing.T) {
	db := setupTestDB(t)

	cells, err := db.Cells()
	if err != nil {
		t.Fatalf("Cells() error = %v", err)
	}
	want := []CellRow{
		{Label: paper.PrimaryStudy, Partition: paper.Train, Documents: 2, Unknown: 6},
		{Label: paper.PrimaryStudy, Partition: paper.Test, Documents: 1, Unknown: 0},
		{Label: paper.SystematicReview, Partition: paper.Train, Documents: 1, Unknown: 1},
	}
	if !reflect.DeepEqual(cells, want) {
		t.Errorf("Cells() = %+v, want %+v", cells, want)
	}
}

func TestTopWords(t *testing.T) {
	db := setupTestDB(t)

	words, err := db.TopWords(2)
	if err != nil {
		t.Fatalf("TopWords() error = %v", err)
	}
	want := []report.WordCount{{Word: "cohort", Count: 5}, {Word: "trials", Count: 5}}
	if !reflect.DeepEqual(words, want) {
		t.Errorf("TopWords() = %v, want %v", words, want)
	}
}

func TestSearch(t *testing.T) {
	db := setupTestDB(t)

	hits, err := db.Search("cohort", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 || hits[0].DocID != "ps2" || hits[1].DocID != "ps3" {
		t.Errorf("Search(cohort) = %+v", hits)
	}

	hits, err = db.Search("meta-analysis", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].DocID != "sr1" || hits[0].Title == "" {
		t.Errorf("Search(meta-analysis) = %+v", hits)
	}

	hits, _ = db.Search("   ", 10)
	if len(hits) != 0 {
		t.Errorf("Search(blank) = %v, want empty", hits)
	}
}

func TestPrepareFTSQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"cohort", "cohort"},
		{"  trial ", "trial"},
		{"meta-analysis", `"meta-analysis"`},
		{`say "hi"`, `"say ""hi"""`},
	}
	for _, tt := range tests {
		if got := prepareFTSQuery(tt.in); got != tt.want {
			t.Errorf("prepareFTSQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMeta(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetMeta(MetaSourceKey)
	if err != nil {
		t.Fatalf("GetMeta() error = %v", err)
	}
	if got != "" {
		t.Errorf("GetMeta() before set = %q, want empty", got)
	}

	for _, value := range []string{"abc:80:2011", "def:40:2012"} {
		if err := db.SetMeta(MetaSourceKey, value); err != nil {
			t.Fatalf("SetMeta() error = %v", err)
		}
		got, err := db.GetMeta(MetaSourceKey)
		if err != nil {
			t.Fatalf("GetMeta() error = %v", err)
		}
		if got != value {
			t.Errorf("GetMeta() = %q, want %q", got, value)
		}
	}
}
