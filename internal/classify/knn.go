package classify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrNotFitted is returned when predicting before Fit.
	ErrNotFitted = errors.New("classifier not fitted")
	// ErrUnknownMetric is returned by ParseMetric for unsupported names.
	ErrUnknownMetric = errors.New("unknown distance metric")
)

// Metric selects how neighbours are ranked.
type Metric int

const (
	Euclidean Metric = iota // minkowski with p=2
	Manhattan
	Cosine
	Dot
)

// metricNames maps every accepted metric name to its Metric.
// "minkowski" is euclidean.
var metricNames = map[string]Metric{
	"minkowski":   Euclidean,
	"euclidean":   Euclidean,
	"l2":          Euclidean,
	"manhattan":   Manhattan,
	"l1":          Manhattan,
	"cityblock":   Manhattan,
	"cosine":      Cosine,
	"dot":         Dot,
	"dot_product": Dot,
}

// ParseMetric maps a metric name to a Metric.
func ParseMetric(name string) (Metric, error) {
	m, ok := metricNames[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
	}
	return m, nil
}

// MetricNames returns every name ParseMetric accepts, sorted.
func MetricNames() []string {
	names := make([]string, 0, len(metricNames))
	for name := range metricNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m Metric) String() string {
	switch m {
	case Manhattan:
		return "manhattan"
	case Cosine:
		return "cosine"
	case Dot:
		return "dot"
	default:
		return "euclidean"
	}
}

// Distance returns how far apart a and b are; smaller is nearer. For Dot the
// distance is the negated inner product.
func (m Metric) Distance(a, b Vector) float64 {
	switch m {
	case Manhattan:
		var sum float64
		for i, x := range a {
			sum += math.Abs(x - b[i])
		}
		for i, y := range b {
			if _, ok := a[i]; !ok {
				sum += math.Abs(y)
			}
		}
		return sum
	case Cosine:
		na, nb := a.Norm(), b.Norm()
		if na == 0 || nb == 0 {
			return 1
		}
		return 1 - a.Dot(b)/(na*nb)
	case Dot:
		return -a.Dot(b)
	default:
		d := a.Dot(a) + b.Dot(b) - 2*a.Dot(b)
		if d < 0 {
			d = 0 // rounding
		}
		return math.Sqrt(d)
	}
}

// KNN is a k-nearest-neighbour classifier with majority voting.
type KNN struct {
	k      int
	metric Metric
	train  []Vector
	labels []string
}

// NewKNN returns a classifier voting over k neighbours.
func NewKNN(k int, metric Metric) (*KNN, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}
	return &KNN{k: k, metric: metric}, nil
}

// Fit stores the labelled training vectors.
func (c *KNN) Fit(vectors []Vector, labels []string) error {
	if len(vectors) != len(labels) {
		return fmt.Errorf("%w: %d vectors, %d labels", ErrLengthMismatch, len(vectors), len(labels))
	}
	if len(vectors) == 0 {
		return fmt.Errorf("no training vectors")
	}
	c.train = vectors
	c.labels = labels
	return nil
}

type neighbour struct {
	idx  int
	dist float64
}

// Neighbours returns the indices of the k training vectors nearest to v,
// nearest first. Equal distances keep training order.
func (c *KNN) Neighbours(v Vector) []int {
	k := c.k
	if k > len(c.train) {
		k = len(c.train)
	}

	best := make([]neighbour, 0, k+1)
	for i, t := range c.train {
		d := c.metric.Distance(v, t)
		if len(best) == k && d >= best[k-1].dist {
			continue
		}
		pos := sort.Search(len(best), func(j int) bool { return best[j].dist > d })
		best = append(best, neighbour{})
		copy(best[pos+1:], best[pos:])
		best[pos] = neighbour{idx: i, dist: d}
		if len(best) > k {
			best = best[:k]
		}
	}

	out := make([]int, len(best))
	for i, n := range best {
		out[i] = n.idx
	}
	return out
}

// Predict returns the majority label among v's neighbours. Ties go to the
// lexically smallest label.
func (c *KNN) Predict(v Vector) (string, error) {
	if len(c.train) == 0 {
		return "", ErrNotFitted
	}

	votes := make(map[string]int)
	for _, idx := range c.Neighbours(v) {
		votes[c.labels[idx]]++
	}

	var winner string
	best := -1
	for label, n := range votes {
		if n > best || (n == best && label < winner) {
			winner, best = label, n
		}
	}
	return winner, nil
}

// PredictAll predicts every vector using up to workers goroutines, keeping
// input order. workers <= 0 uses GOMAXPROCS.
func (c *KNN) PredictAll(ctx context.Context, vectors []Vector, workers int) ([]string, error) {
	if len(c.train) == 0 {
		return nil, ErrNotFitted
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]string, len(vectors))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range vectors {
		i := i
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			label, err := c.Predict(vectors[i])
			if err != nil {
				return err
			}
			out[i] = label
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
