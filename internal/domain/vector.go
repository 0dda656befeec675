package domain

import (
	"math"
	"sort"
)

// SparseVector is a weighted term vector. Indices are strictly increasing.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// NewSparseVector builds a SparseVector from a column→weight map, dropping zeros.
func NewSparseVector(weights map[int]float64) SparseVector {
	idx := make([]int, 0, len(weights))
	for i, w := range weights {
		if w != 0 {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	vals := make([]float64, len(idx))
	for n, i := range idx {
		vals[n] = weights[i]
	}
	return SparseVector{Indices: idx, Values: vals}
}

// DenseToSparse converts a dense embedding into a SparseVector.
func DenseToSparse(dense []float32) SparseVector {
	idx := make([]int, 0, len(dense))
	vals := make([]float64, 0, len(dense))
	for i, v := range dense {
		if v != 0 {
			idx = append(idx, i)
			vals = append(vals, float64(v))
		}
	}
	return SparseVector{Indices: idx, Values: vals}
}

// IsZero reports whether the vector has no non-zero entries.
func (v SparseVector) IsZero() bool { return len(v.Indices) == 0 }

// Norm returns the L2 norm.
func (v SparseVector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Normalize returns an L2-normalised copy. The zero vector is returned unchanged.
func (v SparseVector) Normalize() SparseVector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	vals := make([]float64, len(v.Values))
	for i, x := range v.Values {
		vals[i] = x / n
	}
	return SparseVector{Indices: append([]int(nil), v.Indices...), Values: vals}
}

// Dot returns the inner product of two sparse vectors.
func (v SparseVector) Dot(o SparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Dense expands the vector into width columns. Indices outside the width are dropped.
func (v SparseVector) Dense(width int) []float64 {
	out := make([]float64, width)
	for n, i := range v.Indices {
		if i >= 0 && i < width {
			out[i] = v.Values[n]
		}
	}
	return out
}

// MaxIndex returns the largest populated column, or -1 for the zero vector.
func (v SparseVector) MaxIndex() int {
	if len(v.Indices) == 0 {
		return -1
	}
	return v.Indices[len(v.Indices)-1]
}
