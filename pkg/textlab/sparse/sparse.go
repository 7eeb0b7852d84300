// Package sparse provides the sparse vector and row-compressed matrix used by
// every stage of the pipeline. Rows are documents and columns are vocabulary
// indices; zeros are never stored.
package sparse

import (
	"math"
	"sort"
)

// Vector is a sparse row vector as parallel arrays of indices and values.
// Indices are sorted ascending and Values never contain zeros.
type Vector struct {
	Indices []int
	Values  []float64
}

// NewVector builds a Vector from an index->value map, dropping zeros.
func NewVector(entries map[int]float64) Vector {
	idx := make([]int, 0, len(entries))
	for i, v := range entries {
		if v != 0 {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)

	vals := make([]float64, len(idx))
	for k, i := range idx {
		vals[k] = entries[i]
	}
	return Vector{Indices: idx, Values: vals}
}

// NNZ returns the number of stored (non-zero) entries.
func (v Vector) NNZ() int {
	return len(v.Indices)
}

// IsZero reports whether the vector has no non-zero entries.
func (v Vector) IsZero() bool {
	return len(v.Indices) == 0
}

// At returns the value at column j, or 0 when absent.
func (v Vector) At(j int) float64 {
	k := sort.SearchInts(v.Indices, j)
	if k < len(v.Indices) && v.Indices[k] == j {
		return v.Values[k]
	}
	return 0
}

// Sum returns the sum of all entries.
func (v Vector) Sum() float64 {
	total := 0.0
	for _, x := range v.Values {
		total += x
	}
	return total
}

// Dot computes the dot product of two sparse vectors by merging their
// sorted index lists.
func (v Vector) Dot(o Vector) float64 {
	dot := 0.0
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			dot += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return dot
}

// Norm returns the Euclidean length of the vector.
func (v Vector) Norm() float64 {
	sum := 0.0
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Scale returns a new vector where entry j is multiplied by weights[j].
// Entries that become zero are dropped.
func (v Vector) Scale(weights []float64) Vector {
	out := Vector{
		Indices: make([]int, 0, len(v.Indices)),
		Values:  make([]float64, 0, len(v.Values)),
	}
	for k, j := range v.Indices {
		var w float64
		if j < len(weights) {
			w = weights[j]
		}
		x := v.Values[k] * w
		if x == 0 {
			continue
		}
		out.Indices = append(out.Indices, j)
		out.Values = append(out.Values, x)
	}
	return out
}

// Dense expands the vector into a slice of length n.
func (v Vector) Dense(n int) []float64 {
	out := make([]float64, n)
	for k, j := range v.Indices {
		if j < n {
			out[j] = v.Values[k]
		}
	}
	return out
}

// Matrix is an immutable row-compressed (CSR) sparse matrix.
type Matrix struct {
	rows, cols int
	indptr     []int
	indices    []int
	data       []float64
}

// Builder assembles a Matrix one row at a time.
type Builder struct {
	cols    int
	indptr  []int
	indices []int
	data    []float64
}

// NewBuilder creates a builder for a matrix with the given column count.
func NewBuilder(cols int) *Builder {
	return &Builder{cols: cols, indptr: []int{0}}
}

// AddRow appends a row. Entries outside [0, cols) and zeros are ignored.
func (b *Builder) AddRow(row Vector) {
	for k, j := range row.Indices {
		if j < 0 || j >= b.cols || row.Values[k] == 0 {
			continue
		}
		b.indices = append(b.indices, j)
		b.data = append(b.data, row.Values[k])
	}
	b.indptr = append(b.indptr, len(b.indices))
}

// Build returns the assembled matrix. The builder must not be reused.
func (b *Builder) Build() *Matrix {
	return &Matrix{
		rows:    len(b.indptr) - 1,
		cols:    b.cols,
		indptr:  b.indptr,
		indices: b.indices,
		data:    b.data,
	}
}

// Dims returns the number of rows and columns.
func (m *Matrix) Dims() (rows, cols int) {
	return m.rows, m.cols
}

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int {
	return len(m.data)
}

// Row returns row i as a Vector sharing the matrix storage. Callers must not
// modify it.
func (m *Matrix) Row(i int) Vector {
	lo, hi := m.indptr[i], m.indptr[i+1]
	return Vector{Indices: m.indices[lo:hi], Values: m.data[lo:hi]}
}

// At returns the value at (i, j).
func (m *Matrix) At(i, j int) float64 {
	return m.Row(i).At(j)
}

// RowSums returns the sum of each row.
func (m *Matrix) RowSums() []float64 {
	sums := make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			sums[i] += m.data[k]
		}
	}
	return sums
}

// ColSums returns the sum of each column.
func (m *Matrix) ColSums() []float64 {
	sums := make([]float64, m.cols)
	for k, j := range m.indices {
		sums[j] += m.data[k]
	}
	return sums
}

// ColumnNonZeros returns, per column, how many rows hold a non-zero value.
// For a term matrix this is the document frequency.
func (m *Matrix) ColumnNonZeros() []int {
	counts := make([]int, m.cols)
	for _, j := range m.indices {
		counts[j]++
	}
	return counts
}

// ScaleColumns returns a new matrix where column j is multiplied by
// weights[j].
func (m *Matrix) ScaleColumns(weights []float64) *Matrix {
	b := NewBuilder(m.cols)
	for i := 0; i < m.rows; i++ {
		b.AddRow(m.Row(i).Scale(weights))
	}
	return b.Build()
}

// Equal reports whether two matrices have identical shape and entries.
func (m *Matrix) Equal(o *Matrix) bool {
	if m.rows != o.rows || m.cols != o.cols || len(m.data) != len(o.data) {
		return false
	}
	for i := range m.indptr {
		if m.indptr[i] != o.indptr[i] {
			return false
		}
	}
	for k := range m.indices {
		if m.indices[k] != o.indices[k] || m.data[k] != o.data[k] {
			return false
		}
	}
	return true
}

// TopK returns the indices of the k largest values, ordered by value
// descending with ties broken by ascending index. k larger than len(values)
// returns every index.
func TopK(values []float64, k int) []int {
	if k <= 0 {
		return nil
	}
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		va, vb := values[idx[a]], values[idx[b]]
		if va != vb {
			return va > vb
		}
		return idx[a] < idx[b]
	})
	if k < len(idx) {
		idx = idx[:k]
	}
	return idx
}
