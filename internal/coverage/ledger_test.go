package coverage

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/matsen/abstractlab/internal/paper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// memWriter records snapshots in memory.
type memWriter struct {
	snapshots map[string]any
	err       error
}

func (w *memWriter) WriteSnapshot(name string, v any) error {
	if w.err != nil {
		return w.err
	}
	if w.snapshots == nil {
		w.snapshots = make(map[string]any)
	}
	w.snapshots[name] = v
	return nil
}

func ps(tokens ...string) paper.Paper {
	return paper.Paper{Abstract: tokens, Classification: paper.PrimaryStudy}
}

func sr(tokens ...string) paper.Paper {
	return paper.Paper{Abstract: tokens, Classification: paper.SystematicReview}
}

func mustAdd(t *testing.T, l *Ledger, id string, p paper.Paper, part paper.Partition) {
	t.Helper()
	added, err := l.Add(id, p, part)
	if err != nil {
		t.Fatalf("Add(%s) error = %v", id, err)
	}
	if !added {
		t.Fatalf("Add(%s) = false, want true", id)
	}
}

func TestAdd_EmptyAbstractDropped(t *testing.T) {
	l := New(10, nil)

	added, err := l.Add("empty", ps(), paper.Train)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if added {
		t.Error("Add() = true for empty abstract")
	}
	if _, _, ok := l.Get("empty"); ok {
		t.Error("Get() found a record with an empty abstract")
	}
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}

	for _, c := range l.CoverageCells() {
		if c.Documents != 0 {
			t.Errorf("cell %s/%s has %d documents, want 0", c.Label, c.Partition, c.Documents)
		}
	}
}

func TestAdd_InvalidPartition(t *testing.T) {
	l := New(10, nil)
	if _, err := l.Add("d", ps("a"), paper.Partition("dev")); !errors.Is(err, ErrInvalidPartition) {
		t.Errorf("Add() error = %v, want ErrInvalidPartition", err)
	}
}

func TestAdd_CountedInExactlyOneCell(t *testing.T) {
	l := New(10, []string{"a"})
	mustAdd(t, l, "d1", sr("a", "b"), paper.Test)

	total := 0
	for _, c := range l.CoverageCells() {
		total += c.Documents
		if c.Documents == 1 && (c.Label != paper.SystematicReview || c.Partition != paper.Test) {
			t.Errorf("document counted in %s/%s", c.Label, c.Partition)
		}
	}
	if total != 1 {
		t.Errorf("document counted %d times, want 1", total)
	}
}

func TestUnknownTokenCounts_Span(t *testing.T) {
	l := New(3, nil)
	l.SetVocabulary([]string{"a", "b"})
	mustAdd(t, l, "doc", ps("a", "x", "y", "b"), paper.Train)

	counts, err := l.UnknownTokenCounts(false)
	if err != nil {
		t.Fatalf("UnknownTokenCounts() error = %v", err)
	}
	if counts["doc"] != 2 {
		t.Errorf("counts[doc] = %d, want 2", counts["doc"])
	}
}

func TestSetVocabulary_Replaces(t *testing.T) {
	l := New(10, []string{"a"})
	mustAdd(t, l, "doc", ps("a", "b"), paper.Train)

	if l.IsUnknown("a") || !l.IsUnknown("b") {
		t.Fatal("IsUnknown() wrong for initial vocabulary")
	}

	l.SetVocabulary([]string{"b"})
	if !l.IsUnknown("a") || l.IsUnknown("b") {
		t.Error("SetVocabulary() merged instead of replacing")
	}

	counts, _ := l.UnknownTokenCounts(false)
	if counts["doc"] != 1 {
		t.Errorf("counts[doc] = %d, want 1", counts["doc"])
	}
}

func TestWordFrequencyReport(t *testing.T) {
	w := &memWriter{}
	l := New(3, []string{"a", "b", "c"}, WithSnapshotWriter(w))
	mustAdd(t, l, "d1", ps("a", "a", "b", "c"), paper.Train)
	mustAdd(t, l, "d2", sr("b", "x", "a"), paper.Test)

	counts, err := l.WordFrequencyReport(2, true)
	if err != nil {
		t.Fatalf("WordFrequencyReport() error = %v", err)
	}
	want := map[string]int{"a": 3, "b": 2, "c": 0}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("WordFrequencyReport() = %v, want %v", counts, want)
	}

	saved, ok := w.snapshots[WordCountFile].(map[string]int)
	if !ok {
		t.Fatalf("snapshot %s not written", WordCountFile)
	}
	if len(saved) != 3 {
		t.Errorf("persisted %d words, want full mapping of 3", len(saved))
	}
}

func TestWordFrequencyReport_LogsTopWords(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := New(10, []string{"d", "c", "b", "a"}, WithLogger(zap.New(core)))
	mustAdd(t, l, "d1", ps("a", "a", "d", "c", "b"), paper.Train)

	if _, err := l.WordFrequencyReport(3, false); err != nil {
		t.Fatalf("WordFrequencyReport() error = %v", err)
	}

	type entry struct {
		rank  int64
		word  string
		count int64
	}
	want := []entry{{1, "a", 2}, {2, "b", 1}, {3, "c", 1}}

	got := logs.FilterMessage("frequent word").All()
	if len(got) != len(want) {
		t.Fatalf("logged %d words, want %d", len(got), len(want))
	}
	for i, e := range got {
		fields := e.ContextMap()
		g := entry{fields["rank"].(int64), fields["word"].(string), fields["count"].(int64)}
		if g != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, g, want[i])
		}
	}
}

func TestWordFrequencyReport_ZeroTopLogsNothing(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := New(10, []string{"a", "b"}, WithLogger(zap.New(core)))
	mustAdd(t, l, "d1", ps("a", "b"), paper.Train)

	if _, err := l.WordFrequencyReport(0, false); err != nil {
		t.Fatalf("WordFrequencyReport() error = %v", err)
	}
	if n := logs.FilterMessage("frequent word").Len(); n != 0 {
		t.Errorf("logged %d words with topN 0, want none", n)
	}
}

func TestWordFrequencyReport_Empty(t *testing.T) {
	counts, err := New(5, nil).WordFrequencyReport(10, false)
	if err != nil {
		t.Fatalf("WordFrequencyReport() error = %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("WordFrequencyReport() = %v, want empty", counts)
	}
}

func TestCoverageReport_NoTestDocuments(t *testing.T) {
	l := New(10, []string{"k"})
	mustAdd(t, l, "p1", ps("k", "u1", "u2"), paper.Train)
	mustAdd(t, l, "p2", ps("u1", "u2", "u3", "u4"), paper.Train)

	got := l.CoverageReport()
	want := "-- <UNK> LAB --\n" +
		"Systematic review train: 0 documents, 0 <unk> count, 0.0 average <unk> per document\n" +
		"Systematic review test: 0 documents, 0 <unk> count, 0.0 average <unk> per document\n" +
		"Primary study train: 2 documents, 6 <unk> count, 3.0 average <unk> per document\n" +
		"Primary study test: 0 documents, 0 <unk> count, 0.0 average <unk> per document\n"
	if got != want {
		t.Errorf("CoverageReport() =\n%s\nwant\n%s", got, want)
	}
}

func TestCoverageCells_EmptyLedger(t *testing.T) {
	l := New(10, []string{"a"})

	cells := l.CoverageCells()
	if len(cells) != 4 {
		t.Fatalf("CoverageCells() returned %d cells, want 4 known-label cells", len(cells))
	}
	for i, c := range cells {
		if c.Label != paper.Labels[i/2] || c.Partition != paper.Partitions[i%2] {
			t.Errorf("cell %d = %s %s, want %s %s", i, c.Label, c.Partition, paper.Labels[i/2], paper.Partitions[i%2])
		}
		if c.Documents != 0 || c.Unknown != 0 || c.Average != 0 {
			t.Errorf("cell %d = %+v, want zero counts", i, c)
		}
	}

	counts, err := l.UnknownTokenCounts(false)
	if err != nil || len(counts) != 0 {
		t.Errorf("UnknownTokenCounts() = %v, %v; want empty", counts, err)
	}
}

func TestCoverageCells_ExtraLabel(t *testing.T) {
	l := New(10, nil)
	mustAdd(t, l, "o1", paper.Paper{Abstract: []string{"a"}, Classification: "editorial"}, paper.Test)

	cells := l.CoverageCells()
	if len(cells) != 6 {
		t.Fatalf("CoverageCells() returned %d cells, want 6", len(cells))
	}
	last := cells[5]
	if last.Label != "editorial" || last.Partition != paper.Test || last.Documents != 1 || last.Unknown != 1 {
		t.Errorf("last cell = %+v", last)
	}
	if !strings.HasPrefix(last.String(), "editorial test: 1 documents") {
		t.Errorf("String() = %q", last.String())
	}
}

func TestReset_ClearsRecordsAndPartitions(t *testing.T) {
	l := New(10, nil)
	mustAdd(t, l, "d", ps("a"), paper.Test)
	l.Reset()

	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
	if _, part, ok := l.Get("d"); ok || part != "" {
		t.Errorf("Get() after Reset = %q, %v", part, ok)
	}
	counts, _ := l.UnknownTokenCounts(false)
	if len(counts) != 0 {
		t.Errorf("UnknownTokenCounts() after Reset = %v", counts)
	}
}

func TestPersist(t *testing.T) {
	w := &memWriter{}
	l := New(10, nil, WithSnapshotWriter(w))
	mustAdd(t, l, "d", sr("a"), paper.Train)

	if err := l.Persist("fold1"); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	records, ok := w.snapshots["doc_lab_out_fold1.json"].(map[string]paper.Paper)
	if !ok {
		t.Fatal("dump not written under doc_lab_out_fold1.json")
	}
	if records["d"].Classification != paper.SystematicReview {
		t.Errorf("dumped record = %+v", records["d"])
	}
}

func TestPersist_Errors(t *testing.T) {
	l := New(10, nil)
	if err := l.Persist(""); !errors.Is(err, ErrNoWriter) {
		t.Errorf("Persist() without writer = %v, want ErrNoWriter", err)
	}

	boom := errors.New("disk full")
	l = New(10, nil, WithSnapshotWriter(&memWriter{err: boom}))
	if _, err := l.UnknownTokenCounts(true); !errors.Is(err, boom) {
		t.Errorf("UnknownTokenCounts(true) error = %v, want wrapped %v", err, boom)
	}
}

func TestDumpFile(t *testing.T) {
	if got := DumpFile(""); got != "doc_lab_out_.json" {
		t.Errorf("DumpFile(\"\") = %q", got)
	}
}

func TestNew_NegativeSpan(t *testing.T) {
	l := New(-4, nil)
	if l.Span() != 0 {
		t.Errorf("Span() = %d, want 0", l.Span())
	}
	mustAdd(t, l, "d", ps("x"), paper.Train)
	counts, _ := l.UnknownTokenCounts(false)
	if counts["d"] != 0 {
		t.Errorf("counts[d] = %d, want 0 with zero span", counts["d"])
	}
}
