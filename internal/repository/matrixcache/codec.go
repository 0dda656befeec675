package matrixcache

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kailas-cloud/soclens/internal/domain"
)

// Layout: uint32 row count, then per row uint32 nnz followed by nnz pairs of
// (uint32 column, float64 weight). Little endian throughout.

func encodeMatrix(rows []domain.SparseVector) []byte {
	size := 4
	for _, r := range rows {
		size += 4 + len(r.Indices)*12
	}

	buf := make([]byte, size)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(rows))) //nolint:gosec // row counts fit in uint32
	off += 4
	for _, r := range rows {
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(r.Indices))) //nolint:gosec // bounded by vocabulary
		off += 4
		for i, col := range r.Indices {
			binary.LittleEndian.PutUint32(buf[off:], uint32(col)) //nolint:gosec // columns are non-negative
			binary.LittleEndian.PutUint64(buf[off+4:], math.Float64bits(r.Values[i]))
			off += 12
		}
	}
	return buf
}

func decodeMatrix(data []byte) ([]domain.SparseVector, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("invalid matrix cache data: len=%d", len(data))
	}
	n := int(binary.LittleEndian.Uint32(data))
	off := 4

	rows := make([]domain.SparseVector, 0, min(n, len(data)/4))
	for r := 0; r < n; r++ {
		if off+4 > len(data) {
			return nil, fmt.Errorf("invalid matrix cache data: truncated at row %d", r)
		}
		nnz := int(binary.LittleEndian.Uint32(data[off:]))
		off += 4
		if off+nnz*12 > len(data) {
			return nil, fmt.Errorf("invalid matrix cache data: row %d overruns buffer", r)
		}

		var row domain.SparseVector
		if nnz > 0 {
			row.Indices = make([]int, nnz)
			row.Values = make([]float64, nnz)
		}
		for i := range nnz {
			row.Indices[i] = int(binary.LittleEndian.Uint32(data[off:]))
			row.Values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[off+4:]))
			off += 12
		}
		rows = append(rows, row)
	}
	if off != len(data) {
		return nil, fmt.Errorf("invalid matrix cache data: %d trailing bytes", len(data)-off)
	}
	return rows, nil
}
