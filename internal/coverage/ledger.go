// Package coverage tracks how much of each abstract falls outside a fixed
// vocabulary, and aggregates those counts by label and partition.
package coverage

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/matsen/abstractlab/internal/paper"
	"github.com/matsen/abstractlab/internal/report"
	"go.uber.org/zap"
)

// Snapshot file names.
const (
	WordCountFile    = "word_count_per_doc.json"
	UnknownCountFile = "unk_per_doc.json"
	dumpPrefix       = "doc_lab_out_"
)

// progressEvery controls how often UnknownTokenCounts logs progress.
const progressEvery = 100

var (
	// ErrInvalidPartition is returned by Add for a tag other than train or test.
	ErrInvalidPartition = errors.New("invalid partition")
	// ErrNoWriter is returned when persisting without a configured SnapshotWriter.
	ErrNoWriter = errors.New("no snapshot writer configured")
)

// DumpFile returns the file name Persist writes for tag.
func DumpFile(tag string) string {
	return dumpPrefix + tag + ".json"
}

// SnapshotWriter stores a named JSON snapshot.
type SnapshotWriter interface {
	WriteSnapshot(name string, v any) error
}

// Cell is one (label, partition) aggregation bucket.
type Cell struct {
	Label     string          `json:"label"`
	Partition paper.Partition `json:"partition"`
	Documents int             `json:"documents"`
	Unknown   int             `json:"unknown"`
	Average   float64         `json:"average"`
}

// String renders the cell as one coverage report line.
func (c Cell) String() string {
	return fmt.Sprintf("%s %s: %d documents, %d <unk> count, %s average <unk> per document",
		paper.DisplayLabel(c.Label), c.Partition, c.Documents, c.Unknown, report.FormatFloat(c.Average))
}

// Ledger stores papers with a non-empty abstract, each tagged with a
// partition. Span and vocabulary are ledger-wide.
//
// Ledger is not safe for concurrent use.
type Ledger struct {
	span       int
	vocab      []string
	known      map[string]struct{}
	records    map[string]paper.Paper
	partitions map[string]paper.Partition

	writer SnapshotWriter
	logger *zap.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithSnapshotWriter sets where persisted snapshots go.
func WithSnapshotWriter(w SnapshotWriter) Option {
	return func(l *Ledger) { l.writer = w }
}

// WithLogger sets the logger used for progress and top-word output.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New returns an empty ledger considering the first span tokens of each
// abstract. A negative span is treated as 0.
func New(span int, vocabulary []string, opts ...Option) *Ledger {
	if span < 0 {
		span = 0
	}
	l := &Ledger{
		span:       span,
		records:    make(map[string]paper.Paper),
		partitions: make(map[string]paper.Partition),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.SetVocabulary(vocabulary)
	return l
}

// Span returns the number of leading tokens considered per abstract.
func (l *Ledger) Span() int {
	return l.span
}

// Len returns the number of stored records.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Add stores p under id tagged with part. Papers with an empty abstract are
// dropped and Add reports false.
func (l *Ledger) Add(id string, p paper.Paper, part paper.Partition) (bool, error) {
	if !part.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidPartition, part)
	}
	if !p.HasAbstract() {
		return false, nil
	}
	l.records[id] = p
	l.partitions[id] = part
	return true, nil
}

// Get returns the record and partition stored under id.
func (l *Ledger) Get(id string) (paper.Paper, paper.Partition, bool) {
	p, ok := l.records[id]
	if !ok {
		return paper.Paper{}, "", false
	}
	return p, l.partitions[id], true
}

// SetVocabulary replaces the working vocabulary. Counts computed before the
// call are not comparable with counts computed after it.
func (l *Ledger) SetVocabulary(words []string) {
	l.vocab = append([]string(nil), words...)
	l.known = make(map[string]struct{}, len(words))
	for _, w := range words {
		l.known[w] = struct{}{}
	}
}

// IsUnknown reports whether word is absent from the vocabulary.
func (l *Ledger) IsUnknown(word string) bool {
	_, ok := l.known[word]
	return !ok
}

// Reset clears all records and their partition tags.
func (l *Ledger) Reset() {
	l.records = make(map[string]paper.Paper)
	l.partitions = make(map[string]paper.Partition)
}

// IDs returns the stored identifiers in ascending order.
func (l *Ledger) IDs() []string {
	ids := make([]string, 0, len(l.records))
	for id := range l.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WordFrequencyReport counts each vocabulary word within the leading span of
// every abstract. The topN most frequent words are logged at info level,
// none when topN is 0. The full mapping is returned and, when persist is
// set, written to WordCountFile.
func (l *Ledger) WordFrequencyReport(topN int, persist bool) (map[string]int, error) {
	counts := make(map[string]int, len(l.vocab))
	for _, w := range l.vocab {
		counts[w] = 0
	}

	for _, p := range l.records {
		for _, tok := range p.Lead(l.span) {
			if _, ok := counts[tok]; ok {
				counts[tok]++
			}
		}
	}

	if persist {
		if err := l.write(WordCountFile, counts); err != nil {
			return nil, err
		}
	}

	if topN > 0 {
		for i, wc := range report.Rank(counts, topN, report.Descending) {
			l.logger.Info("frequent word",
				zap.Int("rank", i+1), zap.String("word", wc.Word), zap.Int("count", wc.Count))
		}
	}

	return counts, nil
}

// UnknownTokenCounts counts, per document, the leading-span tokens absent
// from the vocabulary. When persist is set the mapping is written to
// UnknownCountFile.
func (l *Ledger) UnknownTokenCounts(persist bool) (map[string]int, error) {
	l.logger.Debug("counting unknown tokens", zap.Int("documents", len(l.records)))
	counts := l.unknownCounts()

	if persist {
		if err := l.write(UnknownCountFile, counts); err != nil {
			return nil, err
		}
	}
	return counts, nil
}

func (l *Ledger) unknownCounts() map[string]int {
	counts := make(map[string]int, len(l.records))
	for i, id := range l.IDs() {
		n := 0
		for _, tok := range l.records[id].Lead(l.span) {
			if l.IsUnknown(tok) {
				n++
			}
		}
		counts[id] = n

		if i%progressEvery == 0 {
			l.logger.Debug("unknown token progress", zap.Int("processed", i))
		}
	}
	return counts
}

// CoverageCells aggregates unknown-token counts by label and partition.
// Every known label gets both partitions; other labels follow in lexical
// order. Empty cells have an average of 0.
func (l *Ledger) CoverageCells() []Cell {
	counts := l.unknownCounts()

	type key struct {
		label string
		part  paper.Partition
	}
	docs := make(map[key]int)
	unk := make(map[key]int)
	seen := make(map[string]bool)

	for id, n := range counts {
		k := key{l.records[id].Classification, l.partitions[id]}
		docs[k]++
		unk[k] += n
		seen[k.label] = true
	}

	var cells []Cell
	for _, label := range paper.OrderLabels(seen) {
		for _, part := range paper.Partitions {
			k := key{label, part}
			cells = append(cells, Cell{
				Label:     label,
				Partition: part,
				Documents: docs[k],
				Unknown:   unk[k],
				Average:   report.Average(unk[k], docs[k]),
			})
		}
	}
	return cells
}

// CoverageReport renders CoverageCells as text, one line per cell.
func (l *Ledger) CoverageReport() string {
	var b strings.Builder
	b.WriteString("-- <UNK> LAB --\n")
	for _, c := range l.CoverageCells() {
		b.WriteString(c.String())
		b.WriteString("\n")
	}
	return b.String()
}

// Persist writes every stored paper record, keyed by id, to DumpFile(tag).
func (l *Ledger) Persist(tag string) error {
	return l.write(DumpFile(tag), l.records)
}

func (l *Ledger) write(name string, v any) error {
	if l.writer == nil {
		return ErrNoWriter
	}
	if err := l.writer.WriteSnapshot(name, v); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	l.logger.Debug("wrote snapshot", zap.String("file", name))
	return nil
}
