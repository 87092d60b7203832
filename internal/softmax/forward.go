package softmax

import (
	"math"

	"github.com/071975/NeMo/internal/tensor"
)

// maskedScore is the sentinel written for suppressed positions. A large
// finite negative constant rather than -Inf: it stays finite through
// scaling and exponentiation, so a fully masked row yields a defined
// near-uniform output instead of 0/0 = NaN.
const maskedScore = -10000.0

// forwardRow computes the scaled masked softmax of one row into dst.
// src, dst and mask are the row-length slices for this work-group; scale
// multiplies every unmasked score before the reduction.
func forwardRow[T, A tensor.Float](dst, src []T, mask []uint8, scale A, s *groupScratch[A]) {
	n := len(src)

	// Load + mask + scale into the working buffer.
	for i := 0; i < n; i++ {
		if mask[i] == 1 {
			s.row[i] = maskedScore
		} else {
			s.row[i] = A(src[i]) * scale
		}
	}

	// Phase 1: row maximum.
	rowMax := s.reduce(n, maxOp[A], maskedScore)

	// Exponentiate in place, shifted by the maximum.
	for i := 0; i < n; i++ {
		s.row[i] = A(math.Exp(float64(s.row[i] - rowMax)))
	}

	// Phase 2: row sum.
	rowSum := s.reduce(n, addOp[A], 0)

	// Normalize and store.
	for i := 0; i < n; i++ {
		dst[i] = T(s.row[i] / rowSum)
	}
}

// maskOffset returns the element offset of the mask row for a given
// work-group. With padBatches == 1 the mask is broadcast: one mask row
// per query position, reused for every batch and head. Otherwise the
// mask is per batch, shared across heads.
func maskOffset(row, queryLen, attnHeads, keyLen, padBatches int) int {
	queryID := row % queryLen
	if padBatches == 1 {
		return queryID * keyLen
	}
	maskBatch := row / attnHeads / queryLen
	return (maskBatch*queryLen + queryID) * keyLen
}
