// Package rank scores documents against queries by cosine similarity of
// their TF-IDF vectors.
package rank

import (
	"math"
	"sort"
	"strings"

	"github.com/cognicore/textlab/pkg/textlab/sparse"
	"github.com/cognicore/textlab/pkg/textlab/tfidf"
	"github.com/cognicore/textlab/pkg/textlab/vectorize"
)

// DefaultEpsilon is the threshold above which a similarity counts as a match.
const DefaultEpsilon = 1e-12

// Ranker scores documents against free-text queries by cosine similarity in
// TF-IDF space.
type Ranker struct {
	fitted   *vectorize.Fitted
	weighter *tfidf.Weighter
	norms    []float64
}

// NewRanker creates a ranker over the fitted vocabulary and IDF weights.
func NewRanker(fitted *vectorize.Fitted, weighter *tfidf.Weighter) *Ranker {
	weighted := weighter.Weighted()
	rows, _ := weighted.Dims()
	norms := make([]float64, rows)
	for i := 0; i < rows; i++ {
		norms[i] = weighted.Row(i).Norm()
	}
	return &Ranker{fitted: fitted, weighter: weighter, norms: norms}
}

// Scored pairs a document row index with its similarity to the query.
type Scored struct {
	Doc   int     `json:"index"`
	Score float64 `json:"cosine_similarity"`
}

// Ranking is every document ordered by score descending, ties by ascending
// document index.
type Ranking []Scored

// QueryVector embeds query into the weighted column space.
func (r *Ranker) QueryVector(query string) sparse.Vector {
	return r.weighter.Transform(r.fitted.Transform(query))
}

// Rank scores every document against query. A query with no known tokens
// scores every document 0.
func (r *Ranker) Rank(query string) Ranking {
	q := r.QueryVector(query)
	qNorm := q.Norm()
	weighted := r.weighter.Weighted()

	ranking := make(Ranking, len(r.norms))
	for i := range r.norms {
		ranking[i] = Scored{Doc: i, Score: cosine(q, weighted.Row(i), qNorm, r.norms[i])}
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].Score != ranking[j].Score {
			return ranking[i].Score > ranking[j].Score
		}
		return ranking[i].Doc < ranking[j].Doc
	})
	return ranking
}

// RankTerms ranks documents against the space-joined query terms.
func (r *Ranker) RankTerms(terms []string) Ranking {
	return r.Rank(strings.Join(terms, " "))
}

// Positive returns the entries scoring strictly above eps, keeping order.
func (rk Ranking) Positive(eps float64) Ranking {
	out := make(Ranking, 0, len(rk))
	for _, s := range rk {
		if s.Score > eps {
			out = append(out, s)
		}
	}
	return out
}

// Top returns at most k leading entries.
func (rk Ranking) Top(k int) Ranking {
	if k >= 0 && k < len(rk) {
		return rk[:k]
	}
	return rk
}

// Cosine returns the cosine similarity of a and b. A zero vector on either
// side gives 0.
func Cosine(a, b sparse.Vector) float64 {
	return cosine(a, b, a.Norm(), b.Norm())
}

func cosine(a, b sparse.Vector, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	sim := a.Dot(b) / (na * nb)
	return math.Max(0, math.Min(1, sim))
}
