// Package scatter projects document vectors onto two dimensions and writes
// them out for plotting.
package scatter

import (
	"errors"
	"math"

	"github.com/matsen/abstractlab/internal/classify"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrTooFewPoints is returned when there are fewer than two vectors.
	ErrTooFewPoints = errors.New("need at least two vectors to project")
	// ErrNoConvergence is returned when the eigendecomposition fails.
	ErrNoConvergence = errors.New("eigendecomposition did not converge")
)

// Project returns the scores of each vector on the first dims principal
// components, one row per vector.
//
// The principal scores are read off the eigendecomposition of the centered
// n×n Gram matrix, so the sparse n×vocabulary matrix is never densified.
// Each score column is signed so its largest-magnitude entry is positive.
func Project(vectors []classify.Vector, dims int) (*mat.Dense, error) {
	n := len(vectors)
	if n < 2 {
		return nil, ErrTooFewPoints
	}
	if dims > n {
		dims = n
	}

	gram := centeredGram(vectors)

	var eig mat.EigenSym
	if ok := eig.Factorize(gram, true); !ok {
		return nil, ErrNoConvergence
	}
	values := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Eigenvalues come back in ascending order.
	scores := mat.NewDense(n, dims, nil)
	col := make([]float64, n)
	for c := 0; c < dims; c++ {
		idx := n - 1 - c
		mat.Col(col, idx, &vecs)
		floats.Scale(math.Sqrt(math.Max(values[idx], 0)), col)
		fixSign(col)
		scores.SetCol(c, col)
	}
	return scores, nil
}

// centeredGram returns K = Xc·Xcᵀ for the mean-centered rows of X.
func centeredGram(vectors []classify.Vector) *mat.SymDense {
	n := len(vectors)
	gram := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			gram.SetSym(i, j, vectors[i].Dot(vectors[j]))
		}
	}

	rowMeans := make([]float64, n)
	row := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			row[j] = gram.At(i, j)
		}
		rowMeans[i] = floats.Sum(row) / float64(n)
	}
	grand := floats.Sum(rowMeans) / float64(n)

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			gram.SetSym(i, j, gram.At(i, j)-rowMeans[i]-rowMeans[j]+grand)
		}
	}
	return gram
}

// fixSign makes the largest-magnitude entry of u positive.
func fixSign(u []float64) {
	if len(u) == 0 {
		return
	}
	maxIdx := 0
	for i := range u {
		if math.Abs(u[i]) > math.Abs(u[maxIdx]) {
			maxIdx = i
		}
	}
	if u[maxIdx] < 0 {
		floats.Scale(-1, u)
	}
}
