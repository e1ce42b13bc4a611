// Package paper defines the core domain types for classified abstracts.
package paper

import (
	"fmt"
	"sort"
)

// Classification labels.
const (
	SystematicReview = "systematic-review"
	PrimaryStudy     = "primary-study"
)

// Labels lists the known classification labels in reporting order.
var Labels = []string{SystematicReview, PrimaryStudy}

// Partition tags which half of a year-based split a paper belongs to.
type Partition string

const (
	Train Partition = "train"
	Test  Partition = "test"
)

// Partitions lists the partitions in reporting order.
var Partitions = []Partition{Train, Test}

// Valid reports whether p is one of the known partitions.
func (p Partition) Valid() bool {
	return p == Train || p == Test
}

// Paper is one corpus record: a tokenized abstract and its label.
type Paper struct {
	// Identity
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
	Year  int    `json:"year,omitempty"`

	// Content
	Abstract       []string `json:"abstract"`
	Classification string   `json:"classification"`
}

// HasAbstract reports whether the paper carries at least one abstract token.
func (p Paper) HasAbstract() bool {
	return len(p.Abstract) > 0
}

// Lead returns the first span tokens of the abstract.
// A span larger than the abstract returns the whole abstract.
func (p Paper) Lead(span int) []string {
	if span < 0 {
		span = 0
	}
	if span > len(p.Abstract) {
		span = len(p.Abstract)
	}
	return p.Abstract[:span]
}

// DocID returns the paper's identifier, or a positional one when the
// corpus did not provide an ID.
func (p Paper) DocID(prefix string, pos int) string {
	if p.ID != "" {
		return p.ID
	}
	return fmt.Sprintf("%s-%d", prefix, pos)
}

// IsKnownLabel reports whether label is one of Labels.
func IsKnownLabel(label string) bool {
	for _, l := range Labels {
		if l == label {
			return true
		}
	}
	return false
}

// DisplayLabel returns the human form of a label ("Systematic review").
// Unknown labels are returned unchanged.
func DisplayLabel(label string) string {
	switch label {
	case SystematicReview:
		return "Systematic review"
	case PrimaryStudy:
		return "Primary study"
	default:
		return label
	}
}

// OrderLabels returns the known labels followed by any extra labels present
// in seen, the extras sorted lexically.
func OrderLabels(seen map[string]bool) []string {
	ordered := append([]string(nil), Labels...)
	var extra []string
	for label := range seen {
		if !IsKnownLabel(label) {
			extra = append(extra, label)
		}
	}
	sort.Strings(extra)
	return append(ordered, extra...)
}
