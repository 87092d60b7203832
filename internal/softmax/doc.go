// Package softmax implements the fused scaled masked softmax operator for
// batched attention scores.
//
// The operator treats a 4-D score tensor [batches, attn_heads, query_len,
// key_len] as a collection of independent rows, one per (batch, head,
// query) triple, and reduces each row along the key axis:
//
//	Forward:  dst = softmax(mask ? -10000 : src*scale)   per row
//	Backward: grad_in = scale * (g*p - p * sum(g*p))     per row
//
// Each row is processed by one work-group: a fixed-width set of 256 lanes
// organized into 32-lane sub-groups. Row reductions (max for stability,
// then sum for normalization) run as two-level trees — a butterfly
// reduction inside each sub-group, partial results parked in a 128-slot
// buffer, then the same butterfly over the partials. Rows never share
// state, so work-groups are dispatched freely across worker goroutines.
//
// Masked positions are forced to the finite sentinel -10000 rather than
// -Inf. A fully masked row therefore produces a finite, near-uniform
// distribution instead of NaN; this matches the reference behavior and is
// an accepted approximation, not a bug.
package softmax
