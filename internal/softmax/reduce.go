package softmax

import "github.com/071975/NeMo/internal/tensor"

// addOp is the reduction operator for the sum phases.
func addOp[A tensor.Float](a, b A) A {
	return a + b
}

// maxOp is the reduction operator for the max phase.
func maxOp[A tensor.Float](a, b A) A {
	if a < b {
		return b
	}
	return a
}

// laneReduce reduces a fixed-width lane group with a butterfly exchange:
// at each step offset = width/2 … 1, lane i combines its value with the
// value held by lane i+offset. After log2(width) steps lane 0 holds the
// full reduction, which is returned. The lane slice is scratch and is
// clobbered in place.
//
// width must be a power of two.
func laneReduce[A tensor.Float](lanes []A, op func(A, A) A) A {
	for offset := len(lanes) / 2; offset > 0; offset /= 2 {
		for i := 0; i < offset; i++ {
			lanes[i] = op(lanes[i], lanes[i+offset])
		}
	}
	return lanes[0]
}
