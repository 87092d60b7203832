package softmax

import "github.com/071975/NeMo/internal/tensor"

// backwardRow computes the softmax input gradient for one row:
//
//	gradIn_i = scale * (g_i*p_i - p_i * sum_j g_j*p_j)
//
// where p is the forward output and g the upstream gradient. Masking is
// not re-applied: masked positions already carry near-zero probability,
// which suppresses their gradient naturally.
func backwardRow[T, A tensor.Float](gradIn, grad, output []T, scale A, s *groupScratch[A]) {
	n := len(grad)

	// Elementwise products g_i * p_i into the working buffer.
	for i := 0; i < n; i++ {
		s.row[i] = A(grad[i]) * A(output[i])
	}

	// Single-phase sum reduction over the products.
	weightedSum := s.reduce(n, addOp[A], 0)

	for i := 0; i < n; i++ {
		gradIn[i] = T(scale * (s.row[i] - A(output[i])*weightedSum))
	}
}
