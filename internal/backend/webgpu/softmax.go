//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/071975/NeMo/internal/softmax"
	"github.com/071975/NeMo/internal/tensor"
)

// ForwardSoftmax runs the fused scaled masked softmax on GPU, one
// workgroup per row, and writes the probabilities into dst.
//
// dst and src are Float32 score tensors of batches*attnHeads*queryLen*keyLen
// elements; mask is a Uint8 tensor of padBatches*queryLen*keyLen elements.
// The key-length bound is the same fatal precondition as the CPU dispatch.
func (b *Backend) ForwardSoftmax(dst, src, mask *tensor.RawTensor, scale float32,
	queryLen, keyLen, batches, attnHeads, padBatches int) error {
	if keyLen < 0 || keyLen > softmax.MaxElements {
		panic(fmt.Sprintf("softmax forward: key_len %d out of range [0, %d]", keyLen, softmax.MaxElements))
	}
	if keyLen == 0 {
		return nil
	}
	if src.DType() != tensor.Float32 || dst.DType() != tensor.Float32 {
		return fmt.Errorf("webgpu: softmax requires float32 tensors, got src %s dst %s",
			src.DType(), dst.DType())
	}
	if mask.DType() != tensor.Uint8 {
		return fmt.Errorf("webgpu: mask must be uint8, got %s", mask.DType())
	}
	rows := batches * attnHeads * queryLen
	if src.NumElements() != rows*keyLen || dst.NumElements() != rows*keyLen {
		return fmt.Errorf("webgpu: score tensor size mismatch: src %d, dst %d, want %d",
			src.NumElements(), dst.NumElements(), rows*keyLen)
	}
	if padBatches != 1 && padBatches != batches {
		return fmt.Errorf("webgpu: pad_batches %d must be 1 or batches (%d)", padBatches, batches)
	}
	if mask.NumElements() != padBatches*queryLen*keyLen {
		return fmt.Errorf("webgpu: mask size %d does not match pad_batches %d x query_len %d x key_len %d",
			mask.NumElements(), padBatches, queryLen, keyLen)
	}

	shader := b.compileShader("scaled_masked_softmax", scaledMaskedSoftmaxShader)
	pipeline := b.getOrCreatePipeline("scaled_masked_softmax", shader)

	bufferSrc := b.createBuffer(src.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferSrc.Release()

	// Mask bytes are bound as array<u32>; createBuffer pads to the word
	// boundary, the shader unpacks one flag per byte.
	bufferMask := b.createBuffer(mask.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferMask.Release()

	//nolint:gosec // G115: ByteSize() returns a non-negative int
	dstSize := uint64(dst.ByteSize())
	bufferDst := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  dstSize,
	})
	defer bufferDst.Release()

	// Params: scale f32, then query_len, key_len, attn_heads, pad_batches u32.
	params := make([]byte, 32)
	binary.LittleEndian.PutUint32(params[0:4], math.Float32bits(scale))
	//nolint:gosec // G115: launch dimensions are validated non-negative
	binary.LittleEndian.PutUint32(params[4:8], uint32(queryLen))
	//nolint:gosec // G115: launch dimensions are validated non-negative
	binary.LittleEndian.PutUint32(params[8:12], uint32(keyLen))
	//nolint:gosec // G115: launch dimensions are validated non-negative
	binary.LittleEndian.PutUint32(params[12:16], uint32(attnHeads))
	//nolint:gosec // G115: launch dimensions are validated non-negative
	binary.LittleEndian.PutUint32(params[16:20], uint32(padBatches))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	maskSize := (uint64(mask.ByteSize()) + 3) &^ 3 //nolint:gosec // G115: non-negative
	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	//nolint:gosec // G115: ByteSize() returns a non-negative int
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferSrc, 0, uint64(src.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferMask, 0, maskSize),
		wgpu.BufferBindingEntry(2, bufferDst, 0, dstSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 32),
	})
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)

	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)

	// One workgroup per row; rows are fully independent.
	//nolint:gosec // G115: row count is non-negative
	computePass.DispatchWorkgroups(uint32(rows), 1, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	resultData, err := b.readBuffer(bufferDst, dstSize)
	if err != nil {
		return err
	}

	copy(dst.Data(), resultData)
	return nil
}

// BackwardSoftmax runs the softmax gradient kernel on GPU and writes the
// pre-softmax score gradient into gradInput. gradOutput is the upstream
// gradient and output the forward pass result.
func (b *Backend) BackwardSoftmax(gradInput, gradOutput, output *tensor.RawTensor, scale float32,
	queryLen, keyLen, batches, attnHeads int) error {
	if keyLen < 0 || keyLen > softmax.MaxElements {
		panic(fmt.Sprintf("softmax backward: key_len %d out of range [0, %d]", keyLen, softmax.MaxElements))
	}
	if keyLen == 0 {
		return nil
	}
	for _, t := range []*tensor.RawTensor{gradInput, gradOutput, output} {
		if t.DType() != tensor.Float32 {
			return fmt.Errorf("webgpu: softmax backward requires float32 tensors, got %s", t.DType())
		}
	}
	rows := batches * attnHeads * queryLen
	if gradInput.NumElements() != rows*keyLen || gradOutput.NumElements() != rows*keyLen ||
		output.NumElements() != rows*keyLen {
		return fmt.Errorf("webgpu: gradient tensor size mismatch: grad_input %d, grad_output %d, output %d, want %d",
			gradInput.NumElements(), gradOutput.NumElements(), output.NumElements(), rows*keyLen)
	}

	shader := b.compileShader("softmax_grad", softmaxGradShader)
	pipeline := b.getOrCreatePipeline("softmax_grad", shader)

	bufferGrad := b.createBuffer(gradOutput.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferGrad.Release()

	bufferOutput := b.createBuffer(output.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferOutput.Release()

	//nolint:gosec // G115: ByteSize() returns a non-negative int
	resultSize := uint64(gradInput.ByteSize())
	bufferResult := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  resultSize,
	})
	defer bufferResult.Release()

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], math.Float32bits(scale))
	//nolint:gosec // G115: launch dimensions are validated non-negative
	binary.LittleEndian.PutUint32(params[4:8], uint32(keyLen))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	//nolint:gosec // G115: ByteSize() returns a non-negative int
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferGrad, 0, uint64(gradOutput.ByteSize())),
		wgpu.BufferBindingEntry(1, bufferOutput, 0, uint64(output.ByteSize())),
		wgpu.BufferBindingEntry(2, bufferResult, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufferParams, 0, 16),
	})
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)

	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)

	//nolint:gosec // G115: row count is non-negative
	computePass.DispatchWorkgroups(uint32(rows), 1, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	resultData, err := b.readBuffer(bufferResult, resultSize)
	if err != nil {
		return err
	}

	copy(gradInput.Data(), resultData)
	return nil
}
