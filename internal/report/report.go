// Package report holds the text-formatting helpers shared by the ledgers.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Order selects the direction of a ranking by count.
type Order int

const (
	// Descending ranks the most frequent words first.
	Descending Order = iota
	// Ascending ranks the least frequent words first. This reproduces the
	// output of the legacy occurrence reports.
	Ascending
)

// String returns the flag form of the order.
func (o Order) String() string {
	if o == Ascending {
		return "ascending"
	}
	return "descending"
}

// WordCount pairs a word with a count.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Rank sorts counts by count in the given order, breaking ties by ascending
// word, and keeps the first n entries. n <= 0 keeps everything.
func Rank(counts map[string]int, n int, order Order) []WordCount {
	ranked := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		ranked = append(ranked, WordCount{Word: w, Count: c})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			if order == Ascending {
				return ranked[i].Count < ranked[j].Count
			}
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Word < ranked[j].Word
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// SortedIndices returns the keys of an index table in ascending order.
func SortedIndices(counts map[int]int) []int {
	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}

// Histogram renders an index table as a bar-delimited line, one cell per
// index in ascending order: {0:2, 1:1} becomes "|2|1|".
func Histogram(counts map[int]int) string {
	var b strings.Builder
	for _, idx := range SortedIndices(counts) {
		fmt.Fprintf(&b, "|%d", counts[idx])
	}
	b.WriteString("|")
	return b.String()
}

// RankedList renders words as "1. word" lines with 1-based ranks.
func RankedList(words []WordCount) string {
	var b strings.Builder
	for i, wc := range words {
		fmt.Fprintf(&b, "%d. %s\n", i+1, wc.Word)
	}
	return b.String()
}

// FormatFloat renders f the way the legacy reports did: shortest
// representation, always with a fractional part ("3.0", "2.5").
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

// Average divides total by n, returning 0 for an empty bucket.
func Average(total, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}
