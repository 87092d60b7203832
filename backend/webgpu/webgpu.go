//go:build windows

// Package webgpu provides the GPU execution path for the fused softmax
// operator.
//
// WebGPU is a cross-platform graphics and compute API; the fused kernels
// are expressed as WGSL compute shaders dispatched one workgroup per row.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
//
//	err = gpu.ForwardSoftmax(dst, src, mask, scale, queryLen, keyLen, batches, attnHeads, padBatches)
package webgpu

import (
	internalwebgpu "github.com/071975/NeMo/internal/backend/webgpu"
)

// Backend runs the fused softmax kernels on a WebGPU device.
type Backend = internalwebgpu.Backend

// New creates a new WebGPU backend.
// Returns an error if WebGPU is not available or initialization fails.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable reports whether a WebGPU adapter can be acquired.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
