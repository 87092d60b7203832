package softmax

import (
	"fmt"

	"github.com/071975/NeMo/internal/parallel"
	"github.com/071975/NeMo/internal/tensor"
)

// checkLaunch validates the launch dimensions shared by forward and
// backward. key_len outside [0, MaxElements] is a correctness bound, not
// a transient fault: it aborts immediately via panic.
func checkLaunch(name string, bufLen, queryLen, keyLen, batches, attnHeads int) int {
	if keyLen < 0 || keyLen > MaxElements {
		panic(fmt.Sprintf("%s: key_len %d out of range [0, %d]", name, keyLen, MaxElements))
	}
	if queryLen < 0 || batches < 0 || attnHeads < 0 {
		panic(fmt.Sprintf("%s: negative dimension (batches=%d, attn_heads=%d, query_len=%d)",
			name, batches, attnHeads, queryLen))
	}
	rows := batches * attnHeads * queryLen
	if bufLen != rows*keyLen {
		panic(fmt.Sprintf("%s: buffer length %d does not match %d rows x key_len %d",
			name, bufLen, rows, keyLen))
	}
	return rows
}

// Forward computes the scaled masked softmax over every row of a
// [batches, attn_heads, query_len, key_len] score tensor with the
// default dispatch configuration.
//
// T is the storage element type of src and dst; A is the accumulation
// type, inferred from scale. A must hold sums of up to MaxElements
// exponentials, so it should be float32 or wider regardless of T.
//
// padBatches selects mask addressing: 1 broadcasts one mask row per
// query position across all batches and heads; batches gives each batch
// its own mask, shared across heads.
func Forward[T, A tensor.Float](dst, src []T, mask []uint8, scale A,
	queryLen, keyLen, batches, attnHeads, padBatches int) {
	ForwardWithConfig(dst, src, mask, scale, queryLen, keyLen, batches, attnHeads, padBatches,
		parallel.DefaultConfig())
}

// ForwardWithConfig is Forward with an explicit dispatch configuration.
func ForwardWithConfig[T, A tensor.Float](dst, src []T, mask []uint8, scale A,
	queryLen, keyLen, batches, attnHeads, padBatches int, cfg parallel.Config) {
	rows := checkLaunch("softmax forward", len(src), queryLen, keyLen, batches, attnHeads)
	if len(dst) != len(src) {
		panic(fmt.Sprintf("softmax forward: dst length %d does not match src length %d",
			len(dst), len(src)))
	}
	if padBatches != 1 && padBatches != batches {
		panic(fmt.Sprintf("softmax forward: pad_batches %d must be 1 or batches (%d)",
			padBatches, batches))
	}
	if keyLen == 0 {
		return
	}
	if len(mask) != padBatches*queryLen*keyLen {
		panic(fmt.Sprintf("softmax forward: mask length %d does not match pad_batches %d x query_len %d x key_len %d",
			len(mask), padBatches, queryLen, keyLen))
	}

	parallel.ForGroups(rows, cfg, func(start, end int) {
		scratch := newGroupScratch[A]()
		for row := start; row < end; row++ {
			offset := row * keyLen
			moff := maskOffset(row, queryLen, attnHeads, keyLen, padBatches)
			forwardRow(
				dst[offset:offset+keyLen],
				src[offset:offset+keyLen],
				mask[moff:moff+keyLen],
				scale, scratch,
			)
		}
	})
}

// Backward computes the gradient of Forward with respect to the
// pre-softmax scores, given the upstream gradient and the forward
// output, with the default dispatch configuration.
func Backward[T, A tensor.Float](gradInput, gradOutput, output []T, scale A,
	queryLen, keyLen, batches, attnHeads int) {
	BackwardWithConfig(gradInput, gradOutput, output, scale, queryLen, keyLen, batches, attnHeads,
		parallel.DefaultConfig())
}

// BackwardWithConfig is Backward with an explicit dispatch configuration.
func BackwardWithConfig[T, A tensor.Float](gradInput, gradOutput, output []T, scale A,
	queryLen, keyLen, batches, attnHeads int, cfg parallel.Config) {
	rows := checkLaunch("softmax backward", len(gradOutput), queryLen, keyLen, batches, attnHeads)
	if len(gradInput) != len(gradOutput) || len(output) != len(gradOutput) {
		panic(fmt.Sprintf("softmax backward: buffer lengths differ (grad_input=%d, grad_output=%d, output=%d)",
			len(gradInput), len(gradOutput), len(output)))
	}
	if keyLen == 0 {
		return
	}

	parallel.ForGroups(rows, cfg, func(start, end int) {
		scratch := newGroupScratch[A]()
		for row := start; row < end; row++ {
			offset := row * keyLen
			backwardRow(
				gradInput[offset:offset+keyLen],
				gradOutput[offset:offset+keyLen],
				output[offset:offset+keyLen],
				scale, scratch,
			)
		}
	})
}
