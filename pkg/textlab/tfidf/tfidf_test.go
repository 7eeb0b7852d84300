package tfidf

import (
	"math"
	"testing"

	"github.com/cognicore/textlab/pkg/textlab/sparse"
)

func countMatrix() *sparse.Matrix {
	// columns: cat, cats, dog, dogs, sat
	b := sparse.NewBuilder(5)
	b.AddRow(sparse.NewVector(map[int]float64{0: 1, 4: 1}))
	b.AddRow(sparse.NewVector(map[int]float64{2: 1, 4: 1}))
	b.AddRow(sparse.NewVector(map[int]float64{1: 1, 3: 1}))
	return b.Build()
}

func TestFitIDF(t *testing.T) {
	w := Fit(countMatrix())

	idf := w.IDF()
	rare := math.Log(4.0/2.0) + 1
	common := math.Log(4.0/3.0) + 1
	expected := []float64{rare, rare, rare, rare, common}
	for j := range expected {
		if math.Abs(idf[j]-expected[j]) > 1e-12 {
			t.Errorf("idf[%d] = %v, want %v", j, idf[j], expected[j])
		}
	}
	if df := w.DF(); df[4] != 2 || df[0] != 1 {
		t.Errorf("unexpected df %v", df)
	}
	if w.Docs() != 3 {
		t.Errorf("Docs() = %d", w.Docs())
	}
}

func TestWeightedMatrix(t *testing.T) {
	counts := countMatrix()
	w := Fit(counts)
	weighted := w.Weighted()
	idf := w.IDF()

	rows, cols := weighted.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			want := counts.At(i, j) * idf[j]
			if got := weighted.At(i, j); math.Abs(got-want) > 1e-12 {
				t.Errorf("weighted(%d,%d) = %v, want %v", i, j, got, want)
			}
		}
	}
	if weighted.NNZ() != counts.NNZ() {
		t.Error("zero counts must stay zero after weighting")
	}
}

func TestTransformUsesFittedWeights(t *testing.T) {
	w := Fit(countMatrix())
	before := w.IDF()

	q := w.Transform(sparse.NewVector(map[int]float64{0: 2}))
	if q.NNZ() != 1 || math.Abs(q.At(0)-2*before[0]) > 1e-12 {
		t.Errorf("unexpected weighted query %+v", q)
	}
	if !w.Transform(sparse.Vector{}).IsZero() {
		t.Error("zero counts must weight to zero")
	}
	after := w.IDF()
	for j := range before {
		if before[j] != after[j] {
			t.Fatal("Transform must not refit")
		}
	}
}

func TestFitIsDeterministic(t *testing.T) {
	a, b := Fit(countMatrix()), Fit(countMatrix())
	if !a.Weighted().Equal(b.Weighted()) {
		t.Error("weighted matrices differ")
	}
	ai, bi := a.IDF(), b.IDF()
	for j := range ai {
		if ai[j] != bi[j] {
			t.Errorf("idf[%d] differs", j)
		}
	}
}

func TestFitEmpty(t *testing.T) {
	w := Fit(sparse.NewBuilder(0).Build())
	if len(w.IDF()) != 0 || w.Docs() != 0 {
		t.Error("expected empty weighter")
	}
}
