// Package topics factors a document-term count matrix into latent topics
// with non-negative matrix factorization (NMF).
//
// Results are deterministic for a fixed seed, topic count and input matrix.
package topics

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/textlab/pkg/textlab/internalerr"
	"github.com/cognicore/textlab/pkg/textlab/sparse"
)

const (
	DefaultTopN      = 10
	DefaultMaxIter   = 200
	DefaultTolerance = 1e-4

	// divisor guard for the multiplicative updates
	updateEps = 1e-10
	// how often the reconstruction loss is evaluated
	lossEvery = 10
)

// Options configures the factorization.
type Options struct {
	K         int     // number of topics
	TopN      int     // terms reported per topic
	Seed      int64   // initialisation seed
	MaxIter   int     // upper bound on update rounds
	Tolerance float64 // relative loss improvement that stops iteration
}

// Terms resolves column indices to tokens.
type Terms interface {
	Token(i int) string
}

// TermWeight is a vocabulary term with its weight in a topic.
type TermWeight struct {
	Index  int     `json:"index"`
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Topic lists the top terms of one latent topic.
type Topic struct {
	Index int          `json:"topic"`
	Terms []TermWeight `json:"terms"`
}

// Model is a fitted topic model. DocTopic is documents x K and TopicTerm is
// K x vocabulary; both are nil when nothing was factorized.
type Model struct {
	Topics     []Topic
	DocTopic   *mat.Dense
	TopicTerm  *mat.Dense
	Iterations int
	Loss       float64
}

// Fit factors counts (documents x vocabulary) as W·H with W, H >= 0,
// minimising the Frobenius reconstruction error with Lee-Seung
// multiplicative updates.
//
// K <= 0, or K greater than the number of documents, is a configuration
// error. A matrix with no rows yields an empty model. A matrix with no
// columns yields K topics without terms.
func Fit(counts *sparse.Matrix, terms Terms, opts Options) (*Model, error) {
	opts = withDefaults(opts)
	n, m := counts.Dims()
	if opts.K <= 0 {
		return nil, fmt.Errorf("%w: topic count must be positive, got %d", internalerr.ErrInvalidConfig, opts.K)
	}
	if n == 0 {
		return &Model{}, nil
	}
	if opts.K > n {
		return nil, fmt.Errorf("%w: topic count %d exceeds document count %d", internalerr.ErrInvalidConfig, opts.K, n)
	}
	if m == 0 {
		model := &Model{Topics: make([]Topic, opts.K)}
		for k := range model.Topics {
			model.Topics[k] = Topic{Index: k, Terms: []TermWeight{}}
		}
		return model, nil
	}

	w, h := initFactors(counts, opts)
	xNorm := squaredNorm(counts)

	initial := loss(counts, w, h, xNorm)
	prev := initial
	iter := 0
	for iter < opts.MaxIter {
		iter++
		updateH(counts, w, h)
		updateW(counts, w, h)

		if iter%lossEvery != 0 {
			continue
		}
		cur := loss(counts, w, h, xNorm)
		if initial > 0 && (prev-cur)/initial < opts.Tolerance {
			prev = cur
			break
		}
		prev = cur
	}

	model := &Model{
		DocTopic:   w,
		TopicTerm:  h,
		Iterations: iter,
		Loss:       math.Sqrt(math.Max(0, loss(counts, w, h, xNorm))),
		Topics:     make([]Topic, opts.K),
	}
	for k := 0; k < opts.K; k++ {
		model.Topics[k] = Topic{Index: k, Terms: TopTerms(h.RawRowView(k), terms, opts.TopN)}
	}
	return model, nil
}

// TopTerms returns the n largest weights with their terms, ordered by weight
// descending with ties broken by ascending index.
func TopTerms(weights []float64, terms Terms, n int) []TermWeight {
	idx := sparse.TopK(weights, n)
	out := make([]TermWeight, len(idx))
	for i, j := range idx {
		out[i] = TermWeight{Index: j, Term: terms.Token(j), Weight: weights[j]}
	}
	return out
}

// DominantTopic returns the topic with the largest weight for document i,
// or -1 when the model has no factors.
func (m *Model) DominantTopic(i int) int {
	if m.DocTopic == nil {
		return -1
	}
	row := m.DocTopic.RawRowView(i)
	best := sparse.TopK(row, 1)
	if len(best) == 0 {
		return -1
	}
	return best[0]
}

func withDefaults(opts Options) Options {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultMaxIter
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	return opts
}

// initFactors draws |N(0,1)| entries scaled by sqrt(mean(X)/K).
func initFactors(x *sparse.Matrix, opts Options) (*mat.Dense, *mat.Dense) {
	n, m := x.Dims()
	total := 0.0
	for _, s := range x.RowSums() {
		total += s
	}
	scale := math.Sqrt(total / float64(n*m) / float64(opts.K))
	if scale == 0 {
		scale = 1
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	wData := make([]float64, n*opts.K)
	for i := range wData {
		wData[i] = scale * math.Abs(rng.NormFloat64())
	}
	hData := make([]float64, opts.K*m)
	for i := range hData {
		hData[i] = scale * math.Abs(rng.NormFloat64())
	}
	return mat.NewDense(n, opts.K, wData), mat.NewDense(opts.K, m, hData)
}

// updateH applies H <- H * (WᵀX) / (WᵀW H).
func updateH(x *sparse.Matrix, w, h *mat.Dense) {
	n, m := x.Dims()
	k, _ := h.Dims()

	wtx := mat.NewDense(k, m, nil)
	for i := 0; i < n; i++ {
		wRow := w.RawRowView(i)
		row := x.Row(i)
		for p, j := range row.Indices {
			v := row.Values[p]
			for t := 0; t < k; t++ {
				wtx.Set(t, j, wtx.At(t, j)+wRow[t]*v)
			}
		}
	}

	var wtw, denom mat.Dense
	wtw.Mul(w.T(), w)
	denom.Mul(&wtw, h)

	for t := 0; t < k; t++ {
		hRow := h.RawRowView(t)
		numRow := wtx.RawRowView(t)
		denRow := denom.RawRowView(t)
		for j := range hRow {
			hRow[j] *= numRow[j] / (denRow[j] + updateEps)
		}
	}
}

// updateW applies W <- W * (XHᵀ) / (W H Hᵀ).
func updateW(x *sparse.Matrix, w, h *mat.Dense) {
	n, _ := x.Dims()
	k, _ := h.Dims()

	xht := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		out := xht.RawRowView(i)
		row := x.Row(i)
		for p, j := range row.Indices {
			v := row.Values[p]
			for t := 0; t < k; t++ {
				out[t] += v * h.At(t, j)
			}
		}
	}

	var hht, denom mat.Dense
	hht.Mul(h, h.T())
	denom.Mul(w, &hht)

	for i := 0; i < n; i++ {
		wRow := w.RawRowView(i)
		numRow := xht.RawRowView(i)
		denRow := denom.RawRowView(i)
		for t := range wRow {
			wRow[t] *= numRow[t] / (denRow[t] + updateEps)
		}
	}
}

// loss returns ||X - WH||² using ||X||² - 2<X, WH> + <WᵀW, HHᵀ>, touching
// only the non-zero cells of X.
func loss(x *sparse.Matrix, w, h *mat.Dense, xNorm float64) float64 {
	n, _ := x.Dims()
	k, _ := h.Dims()

	cross := 0.0
	for i := 0; i < n; i++ {
		wRow := w.RawRowView(i)
		row := x.Row(i)
		for p, j := range row.Indices {
			wh := 0.0
			for t := 0; t < k; t++ {
				wh += wRow[t] * h.At(t, j)
			}
			cross += row.Values[p] * wh
		}
	}

	var wtw, hht mat.Dense
	wtw.Mul(w.T(), w)
	hht.Mul(h, h.T())
	quad := 0.0
	for a := 0; a < k; a++ {
		for b := 0; b < k; b++ {
			quad += wtw.At(a, b) * hht.At(a, b)
		}
	}
	return xNorm - 2*cross + quad
}

func squaredNorm(x *sparse.Matrix) float64 {
	n, _ := x.Dims()
	total := 0.0
	for i := 0; i < n; i++ {
		for _, v := range x.Row(i).Values {
			total += v * v
		}
	}
	return total
}
