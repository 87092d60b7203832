// Package softmax provides the public API for the fused scaled masked
// softmax operator over batched attention scores.
//
// The operator reduces a 4-D score tensor [batches, attn_heads,
// query_len, key_len] along the key axis, one independent work-group per
// (batch, head, query) row, with a numerically stable two-phase
// reduction in the forward pass and the closed-form softmax
// Jacobian-vector product in the backward pass.
//
// Example:
//
//	dst := make([]float32, batches*heads*queryLen*keyLen)
//	softmax.Forward(dst, src, mask, float32(1.0/math.Sqrt(headDim)),
//	    queryLen, keyLen, batches, heads, 1)
package softmax

import (
	"github.com/071975/NeMo/internal/parallel"
	internalsoftmax "github.com/071975/NeMo/internal/softmax"
	"github.com/071975/NeMo/internal/tensor"
)

// MaxElements is the maximum supported row length (key_len). Longer rows
// are a fatal precondition violation.
const MaxElements = internalsoftmax.MaxElements

// GroupWidth is the number of lanes cooperating on one row.
const GroupWidth = internalsoftmax.GroupWidth

// Float is the constraint for storage and accumulation element types.
type Float = tensor.Float

// Config controls how work-groups are scheduled across worker goroutines.
type Config = parallel.Config

// DefaultConfig returns the default dispatch configuration based on CPU count.
func DefaultConfig() Config {
	return parallel.DefaultConfig()
}

// Serial returns a configuration that forces sequential dispatch.
func Serial() Config {
	return parallel.Serial()
}

// Forward computes the scaled masked softmax of every row.
//
// dst and src hold batches*attnHeads*queryLen*keyLen elements; mask holds
// padBatches*queryLen*keyLen byte flags (1 = suppress). scale multiplies
// every unmasked score; its type A is the accumulation type and should be
// float32 or wider. padBatches is 1 for a broadcast mask or equal to
// batches for a per-batch mask.
//
// Panics if keyLen exceeds MaxElements or buffer lengths are
// inconsistent with the dimensions. keyLen == 0 is a no-op.
func Forward[T, A Float](dst, src []T, mask []uint8, scale A,
	queryLen, keyLen, batches, attnHeads, padBatches int) {
	internalsoftmax.Forward(dst, src, mask, scale, queryLen, keyLen, batches, attnHeads, padBatches)
}

// ForwardWithConfig is Forward with an explicit dispatch configuration.
func ForwardWithConfig[T, A Float](dst, src []T, mask []uint8, scale A,
	queryLen, keyLen, batches, attnHeads, padBatches int, cfg Config) {
	internalsoftmax.ForwardWithConfig(dst, src, mask, scale, queryLen, keyLen, batches, attnHeads,
		padBatches, cfg)
}

// Backward computes the gradient of Forward with respect to the
// pre-softmax scores: scale * p * (g - sum(g*p)) per row, where p is the
// forward output and g the upstream gradient.
//
// Same length bound and panics as Forward. Masking is not re-applied;
// masked positions carry near-zero probability, which suppresses their
// gradient naturally.
func Backward[T, A Float](gradInput, gradOutput, output []T, scale A,
	queryLen, keyLen, batches, attnHeads int) {
	internalsoftmax.Backward(gradInput, gradOutput, output, scale, queryLen, keyLen, batches, attnHeads)
}

// BackwardWithConfig is Backward with an explicit dispatch configuration.
func BackwardWithConfig[T, A Float](gradInput, gradOutput, output []T, scale A,
	queryLen, keyLen, batches, attnHeads int, cfg Config) {
	internalsoftmax.BackwardWithConfig(gradInput, gradOutput, output, scale, queryLen, keyLen,
		batches, attnHeads, cfg)
}
