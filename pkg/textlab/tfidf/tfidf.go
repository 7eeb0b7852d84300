// Package tfidf weights count matrices by smoothed inverse document
// frequency.
package tfidf

import (
	"math"

	"github.com/cognicore/textlab/pkg/textlab/sparse"
)

// Weighter holds IDF weights fitted once on a corpus count matrix.
type Weighter struct {
	docs     int
	df       []int
	idf      []float64
	weighted *sparse.Matrix
}

// Fit computes per-column IDF over counts and the weighted matrix.
//
//	idf(t) = ln((1 + n) / (1 + df(t))) + 1
//
// where n is the number of rows and df(t) the number of rows with a
// non-zero count for t.
func Fit(counts *sparse.Matrix) *Weighter {
	n, _ := counts.Dims()
	df := counts.ColumnNonZeros()

	idf := make([]float64, len(df))
	for j, d := range df {
		idf[j] = IDF(n, d)
	}

	return &Weighter{
		docs:     n,
		df:       df,
		idf:      idf,
		weighted: counts.ScaleColumns(idf),
	}
}

// IDF returns the smoothed inverse document frequency of a term found in df
// of n documents.
func IDF(n, df int) float64 {
	return math.Log(float64(1+n)/float64(1+df)) + 1
}

// IDF returns a copy of the fitted IDF vector, indexed by vocabulary column.
func (w *Weighter) IDF() []float64 {
	out := make([]float64, len(w.idf))
	copy(out, w.idf)
	return out
}

// DF returns a copy of the per-column document frequencies.
func (w *Weighter) DF() []int {
	out := make([]int, len(w.df))
	copy(out, w.df)
	return out
}

// Docs returns the number of documents the weights were fitted on.
func (w *Weighter) Docs() int {
	return w.docs
}

// Weighted returns the TF-IDF matrix (count x idf per cell).
func (w *Weighter) Weighted() *sparse.Matrix {
	return w.weighted
}

// Transform applies the fitted IDF weights to a count vector, such as a
// vectorized query. It never refits.
func (w *Weighter) Transform(counts sparse.Vector) sparse.Vector {
	return counts.Scale(w.idf)
}
