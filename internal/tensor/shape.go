package tensor

import "fmt"

// Shape represents the dimensions of a tensor.
// Attention-score tensors are 4-D: [batches, attn_heads, query_len, key_len].
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// ComputeStrides calculates row-major strides for the shape.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// ScoreShape builds the canonical 4-D attention-score shape.
func ScoreShape(batches, attnHeads, queryLen, keyLen int) Shape {
	return Shape{batches, attnHeads, queryLen, keyLen}
}

// MaskShape builds the mask shape for a launch. padBatches is 1 for a
// broadcast mask shared across batches and heads, or equal to the batch
// count for a per-batch mask shared across heads.
func MaskShape(padBatches, queryLen, keyLen int) Shape {
	return Shape{padBatches, 1, queryLen, keyLen}
}
