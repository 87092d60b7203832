//go:build windows

package webgpu

// WGSL compute shaders for the fused softmax kernels.
//
// One workgroup of 256 threads processes one row. WGSL exposes no warp
// shuffle, so the sub-group butterfly becomes a shared-memory tree
// reduction over a workgroup array, with a barrier at each halving step.
// Row values are recomputed from storage in each phase instead of being
// staged in workgroup memory: a 4096-element f32 row would consume the
// entire 16 KiB default workgroup-storage budget on its own.

// groupWidth is the number of threads cooperating on one row.
const groupWidth = 256

// scaledMaskedSoftmaxShader computes dst = softmax(mask ? -10000 : src*scale)
// per row. The mask is bound as array<u32> with four byte flags packed
// per word. Three barrier-separated phases: max reduction, exponentiate
// + sum reduction, normalize.
const scaledMaskedSoftmaxShader = `
@group(0) @binding(0) var<storage, read> src: array<f32>;
@group(0) @binding(1) var<storage, read> mask: array<u32>;
@group(0) @binding(2) var<storage, read_write> dst: array<f32>;

struct Params {
    scale: f32,
    query_len: u32,
    key_len: u32,
    attn_heads: u32,
    pad_batches: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

const SENTINEL: f32 = -10000.0;

var<workgroup> partials: array<f32, 256>;

fn masked_score(mask_base: u32, offset: u32, i: u32) -> f32 {
    let m = mask_base + i;
    let flag = (mask[m / 4u] >> ((m % 4u) * 8u)) & 0xffu;
    if (flag == 1u) {
        return SENTINEL;
    }
    return src[offset + i] * params.scale;
}

@compute @workgroup_size(256)
fn main(@builtin(workgroup_id) group_id: vec3<u32>,
        @builtin(local_invocation_id) local_id: vec3<u32>) {
    let row = group_id.x;
    let local = local_id.x;
    let n = params.key_len;
    let offset = row * n;

    let query_id = row % params.query_len;
    var mask_base: u32;
    if (params.pad_batches == 1u) {
        mask_base = query_id * n;
    } else {
        let mask_batch = row / (params.attn_heads * params.query_len);
        mask_base = (mask_batch * params.query_len + query_id) * n;
    }

    // Phase 1: row maximum over the masked, scaled scores.
    var local_max: f32 = SENTINEL;
    for (var i: u32 = local; i < n; i = i + 256u) {
        local_max = max(local_max, masked_score(mask_base, offset, i));
    }
    partials[local] = local_max;
    workgroupBarrier();
    for (var stride: u32 = 128u; stride > 0u; stride = stride / 2u) {
        if (local < stride) {
            partials[local] = max(partials[local], partials[local + stride]);
        }
        workgroupBarrier();
    }
    let row_max = partials[0];
    workgroupBarrier();

    // Phase 2: exponentials into dst, sum reduction over them.
    var local_sum: f32 = 0.0;
    for (var i: u32 = local; i < n; i = i + 256u) {
        let e = exp(masked_score(mask_base, offset, i) - row_max);
        dst[offset + i] = e;
        local_sum = local_sum + e;
    }
    partials[local] = local_sum;
    workgroupBarrier();
    for (var stride: u32 = 128u; stride > 0u; stride = stride / 2u) {
        if (local < stride) {
            partials[local] = partials[local] + partials[local + stride];
        }
        workgroupBarrier();
    }
    let row_sum = partials[0];
    workgroupBarrier();

    // Phase 3: normalize in place.
    for (var i: u32 = local; i < n; i = i + 256u) {
        dst[offset + i] = dst[offset + i] / row_sum;
    }
}
`

// softmaxGradShader computes grad_input = scale * (g*p - p * sum(g*p))
// per row, where p is the forward output and g the upstream gradient.
// One sum-reduction phase, then the write-back.
const softmaxGradShader = `
@group(0) @binding(0) var<storage, read> grad: array<f32>;
@group(0) @binding(1) var<storage, read> output: array<f32>;
@group(0) @binding(2) var<storage, read_write> grad_input: array<f32>;

struct Params {
    scale: f32,
    key_len: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

var<workgroup> partials: array<f32, 256>;

@compute @workgroup_size(256)
fn main(@builtin(workgroup_id) group_id: vec3<u32>,
        @builtin(local_invocation_id) local_id: vec3<u32>) {
    let row = group_id.x;
    let local = local_id.x;
    let n = params.key_len;
    let offset = row * n;

    var local_sum: f32 = 0.0;
    for (var i: u32 = local; i < n; i = i + 256u) {
        local_sum = local_sum + grad[offset + i] * output[offset + i];
    }
    partials[local] = local_sum;
    workgroupBarrier();
    for (var stride: u32 = 128u; stride > 0u; stride = stride / 2u) {
        if (local < stride) {
            partials[local] = partials[local] + partials[local + stride];
        }
        workgroupBarrier();
    }
    let weighted_sum = partials[0];
    workgroupBarrier();

    for (var i: u32 = local; i < n; i = i + 256u) {
        let p = output[offset + i];
        grad_input[offset + i] = params.scale * (grad[offset + i] * p - p * weighted_sum);
    }
}
`
