// Package occurrence records where words were observed inside documents and
// summarizes those observations per document.
package occurrence

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/matsen/abstractlab/internal/report"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a document has no occurrence sequence.
var ErrNotFound = errors.New("document not registered")

// TopWords is the number of words listed per document in Report.
const TopWords = 5

// Status is the outcome of Register.
type Status int

const (
	Created Status = iota
	AlreadyExists
)

func (s Status) String() string {
	if s == AlreadyExists {
		return "already exists"
	}
	return "created"
}

// Occurrence is one observation of Word at Index within a document.
type Occurrence struct {
	Index int    `json:"index"`
	Word  string `json:"word"`
}

// Summary holds the frequency tables derived from one document's occurrences.
type Summary struct {
	IndexOccurrence map[int]int    `json:"index_occurrence"`
	WordOccurrence  map[string]int `json:"word_occurrence"`
	Meta            map[string]any `json:"meta"`
}

// Ledger accumulates occurrences per document. Metadata is stored apart from
// the occurrence sequences and survives Unregister and Reset.
//
// Ledger is not safe for concurrent use.
type Ledger struct {
	results map[string][]Occurrence
	meta    map[string]map[string]any

	order  report.Order
	logger *zap.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithRankOrder sets the ranking direction of the top words in Report.
func WithRankOrder(order report.Order) Option {
	return func(l *Ledger) { l.order = order }
}

// WithLogger sets the logger used for ledger events.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New returns an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		results: make(map[string][]Occurrence),
		meta:    make(map[string]map[string]any),
		order:   report.Descending,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register creates an empty occurrence sequence for id. Registering an
// existing id leaves its sequence untouched.
func (l *Ledger) Register(id string) Status {
	if _, ok := l.results[id]; ok {
		return AlreadyExists
	}
	l.results[id] = []Occurrence{}
	return Created
}

// SetMetadata upserts one metadata field for id, registered or not.
func (l *Ledger) SetMetadata(id, key string, value any) {
	m, ok := l.meta[id]
	if !ok {
		m = make(map[string]any)
		l.meta[id] = m
	}
	m[key] = value
}

// Unregister removes id's occurrence sequence. Metadata is kept.
func (l *Ledger) Unregister(id string) error {
	if _, ok := l.results[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(l.results, id)
	return nil
}

// Record appends an observation of word at index to id's sequence.
func (l *Ledger) Record(word string, index int, id string) error {
	seq, ok := l.results[id]
	if !ok {
		l.logger.Debug("dropping occurrence for unregistered document",
			zap.String("doc_id", id), zap.String("word", word), zap.Int("index", index))
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	l.results[id] = append(seq, Occurrence{Index: index, Word: word})
	return nil
}

// Raw returns a copy of id's occurrences in insertion order.
func (l *Ledger) Raw(id string) ([]Occurrence, error) {
	seq, ok := l.results[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := make([]Occurrence, len(seq))
	copy(out, seq)
	return out, nil
}

// IDs returns the registered document identifiers in ascending order.
func (l *Ledger) IDs() []string {
	ids := make([]string, 0, len(l.results))
	for id := range l.results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered documents.
func (l *Ledger) Len() int {
	return len(l.results)
}

// Reset clears every occurrence sequence. Metadata is kept.
func (l *Ledger) Reset() {
	l.results = make(map[string][]Occurrence)
}

// Summarize computes frequency tables for the given documents, or for every
// registered document when ids is empty.
func (l *Ledger) Summarize(ids ...string) (map[string]Summary, error) {
	if len(ids) == 0 {
		ids = l.IDs()
	}

	out := make(map[string]Summary, len(ids))
	for _, id := range ids {
		seq, ok := l.results[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		out[id] = l.summarize(id, seq)
	}
	return out, nil
}

func (l *Ledger) summarize(id string, seq []Occurrence) Summary {
	s := Summary{
		IndexOccurrence: make(map[int]int),
		WordOccurrence:  make(map[string]int),
		Meta:            make(map[string]any, len(l.meta[id])),
	}
	for _, occ := range seq {
		s.IndexOccurrence[occ.Index]++
		s.WordOccurrence[occ.Word]++
	}
	for k, v := range l.meta[id] {
		s.Meta[k] = v
	}
	return s
}

// Report renders a text summary of the given documents, or of every
// registered document when ids is empty. Documents appear in ascending id
// order. Each block lists the index histogram, the top words, and totals.
func (l *Ledger) Report(ids ...string) (string, error) {
	summaries, err := l.Summarize(ids...)
	if err != nil {
		return "", err
	}

	docIDs := make([]string, 0, len(summaries))
	for id := range summaries {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	var b strings.Builder
	for _, id := range docIDs {
		s := summaries[id]
		fmt.Fprintf(&b, "\nid: %s\n", id)

		b.WriteString("\n")
		b.WriteString(report.Histogram(s.IndexOccurrence))

		b.WriteString("\n")
		b.WriteString(report.RankedList(report.Rank(s.WordOccurrence, TopWords, l.order)))

		total := 0
		for _, c := range s.IndexOccurrence {
			total += c
		}
		fmt.Fprintf(&b, "Total words = %d\n", len(s.IndexOccurrence))
		fmt.Fprintf(&b, "Total occurrences = %d\n", total)
	}
	return b.String(), nil
}
