// Package classify turns abstracts into bag-of-words vectors and labels them
// with a k-nearest-neighbour classifier.
package classify

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenPattern keeps runs of two or more letters, digits or underscores.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Vector is a sparse feature vector keyed by feature index.
type Vector map[int]float64

// Dot returns the inner product of v and w.
func (v Vector) Dot(w Vector) float64 {
	if len(w) < len(v) {
		v, w = w, v
	}
	var sum float64
	for i, x := range v {
		sum += x * w[i]
	}
	return sum
}

// Norm returns the euclidean length of v.
func (v Vector) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Analyze lower-cases doc and splits it into terms.
func Analyze(doc string) []string {
	return tokenPattern.FindAllString(strings.ToLower(doc), -1)
}

// Vectorizer maps documents to term-count vectors over a vocabulary learned
// by Fit. Feature indices follow the lexical order of terms.
type Vectorizer struct {
	index map[string]int
	terms []string
}

// NewVectorizer returns an unfitted vectorizer.
func NewVectorizer() *Vectorizer {
	return &Vectorizer{index: make(map[string]int)}
}

// Fit learns the vocabulary of docs, replacing any previous one.
func (v *Vectorizer) Fit(docs []string) {
	seen := make(map[string]struct{})
	for _, doc := range docs {
		for _, term := range Analyze(doc) {
			seen[term] = struct{}{}
		}
	}

	v.terms = make([]string, 0, len(seen))
	for term := range seen {
		v.terms = append(v.terms, term)
	}
	sort.Strings(v.terms)

	v.index = make(map[string]int, len(v.terms))
	for i, term := range v.terms {
		v.index[term] = i
	}
}

// Transform counts the vocabulary terms of doc. Terms outside the
// vocabulary are ignored.
func (v *Vectorizer) Transform(doc string) Vector {
	vec := make(Vector)
	for _, term := range Analyze(doc) {
		if i, ok := v.index[term]; ok {
			vec[i]++
		}
	}
	return vec
}

// TransformAll applies Transform to each document.
func (v *Vectorizer) TransformAll(docs []string) []Vector {
	out := make([]Vector, len(docs))
	for i, doc := range docs {
		out[i] = v.Transform(doc)
	}
	return out
}

// FitTransform fits the vocabulary on docs and returns their vectors.
func (v *Vectorizer) FitTransform(docs []string) []Vector {
	v.Fit(docs)
	return v.TransformAll(docs)
}

// Vocabulary returns the learned terms in feature order.
func (v *Vectorizer) Vocabulary() []string {
	return append([]string(nil), v.terms...)
}

// Features returns the vocabulary size.
func (v *Vectorizer) Features() int {
	return len(v.terms)
}

// TFIDF re-weights count vectors by smoothed inverse document frequency,
// idf(t) = ln((1+n)/(1+df(t))) + 1, and scales each result to unit length.
type TFIDF struct {
	idf []float64
}

// FitTFIDF learns document frequencies from count vectors over features terms.
func FitTFIDF(vectors []Vector, features int) *TFIDF {
	df := make([]int, features)
	for _, vec := range vectors {
		for i, x := range vec {
			if x > 0 && i < features {
				df[i]++
			}
		}
	}

	n := float64(len(vectors))
	idf := make([]float64, features)
	for i, d := range df {
		idf[i] = math.Log((1+n)/(1+float64(d))) + 1
	}
	return &TFIDF{idf: idf}
}

// Transform returns a weighted, l2-normalized copy of vec.
func (t *TFIDF) Transform(vec Vector) Vector {
	out := make(Vector, len(vec))
	for i, x := range vec {
		if i < len(t.idf) {
			out[i] = x * t.idf[i]
		}
	}
	if norm := out.Norm(); norm > 0 {
		for i := range out {
			out[i] /= norm
		}
	}
	return out
}

// TransformAll applies Transform to each vector.
func (t *TFIDF) TransformAll(vectors []Vector) []Vector {
	out := make([]Vector, len(vectors))
	for i, vec := range vectors {
		out[i] = t.Transform(vec)
	}
	return out
}
