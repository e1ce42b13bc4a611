package classify

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/matsen/abstractlab/internal/paper"
	"github.com/matsen/abstractlab/internal/report"
)

// ErrLengthMismatch is returned when paired slices differ in length.
var ErrLengthMismatch = errors.New("length mismatch")

// MetricLabels is the label order used for per-class metrics and the
// confusion matrix.
var MetricLabels = []string{paper.PrimaryStudy, paper.SystematicReview}

// ClassMetrics holds precision, recall and F1 for one label.
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Evaluation summarizes predictions against true labels.
type Evaluation struct {
	Labels    []string       `json:"labels"`
	Accuracy  float64        `json:"accuracy"`
	PerClass  []ClassMetrics `json:"per_class"`
	Confusion [][]int        `json:"confusion"`
}

// Evaluate compares predictions with truth. Confusion rows are true labels
// and columns predicted labels, both in labels order. Metrics with a zero
// denominator are 0.
func Evaluate(truth, pred, labels []string) (*Evaluation, error) {
	if len(truth) != len(pred) {
		return nil, fmt.Errorf("%w: %d labels, %d predictions", ErrLengthMismatch, len(truth), len(pred))
	}

	pos := make(map[string]int, len(labels))
	for i, l := range labels {
		pos[l] = i
	}

	confusion := make([][]int, len(labels))
	for i := range confusion {
		confusion[i] = make([]int, len(labels))
	}

	correct := 0
	tp := make([]int, len(labels))
	predicted := make([]int, len(labels))
	actual := make([]int, len(labels))

	for i := range truth {
		if truth[i] == pred[i] {
			correct++
		}
		ti, tok := pos[truth[i]]
		pi, pok := pos[pred[i]]
		if tok {
			actual[ti]++
		}
		if pok {
			predicted[pi]++
		}
		if tok && pok {
			confusion[ti][pi]++
			if ti == pi {
				tp[ti]++
			}
		}
	}

	e := &Evaluation{
		Labels:    append([]string(nil), labels...),
		Accuracy:  ratio(correct, len(truth)),
		Confusion: confusion,
	}
	for i, l := range labels {
		p := ratio(tp[i], predicted[i])
		r := ratio(tp[i], actual[i])
		f := 0.0
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}
		e.PerClass = append(e.PerClass, ClassMetrics{Label: l, Precision: p, Recall: r, F1: f, Support: actual[i]})
	}
	return e, nil
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// abbrev shortens a label for metric lines ("primary-study" -> "PS").
func abbrev(label string) string {
	var b strings.Builder
	for _, part := range strings.Split(label, "-") {
		if part != "" {
			b.WriteString(strings.ToUpper(part[:1]))
		}
	}
	return b.String()
}

// String renders the evaluation as the classification log text.
func (e *Evaluation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Accuracy: %s\n", report.FormatFloat(e.Accuracy))

	sections := []struct {
		name string
		get  func(ClassMetrics) float64
	}{
		{"Precision", func(m ClassMetrics) float64 { return m.Precision }},
		{"Recall", func(m ClassMetrics) float64 { return m.Recall }},
		{"F1", func(m ClassMetrics) float64 { return m.F1 }},
	}
	for _, s := range sections {
		for _, m := range e.PerClass {
			fmt.Fprintf(&b, "%s %s: %s\n", s.name, abbrev(m.Label), report.FormatFloat(s.get(m)))
		}
	}

	b.WriteString("Confusion matrix:\n\n")
	b.WriteString(FormatMatrix(e.Confusion))
	b.WriteString("\n")
	return b.String()
}

// FormatMatrix renders an integer matrix in bracketed rows with
// right-aligned cells: [[3 1]\n [0 4]].
func FormatMatrix(m [][]int) string {
	width := 1
	for _, row := range m {
		for _, v := range row {
			if w := len(strconv.Itoa(v)); w > width {
				width = w
			}
		}
	}

	rows := make([]string, len(m))
	for i, row := range m {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprintf("%*d", width, v)
		}
		rows[i] = "[" + strings.Join(cells, " ") + "]"
	}
	return "[" + strings.Join(rows, "\n ") + "]"
}
