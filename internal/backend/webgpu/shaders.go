//go:build windows

package webgpu

// Every shader takes a 16-byte uniform: the element count, one scalar operand
// and the row stride of a two-dimensional dispatch.
const paramsSize = 16

// binaryShader builds an element-wise kernel result = expr(a, b).
func binaryShader(expr string) string {
	return `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    scalar: f32,
    stride: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x + global_id.y * params.stride;
    if (idx < params.size) {
        result[idx] = ` + expr + `;
    }
}
`
}

var (
	addShader = binaryShader("a[idx] + b[idx]")
	subShader = binaryShader("a[idx] - b[idx]")
	mulShader = binaryShader("a[idx] * b[idx]")
	divShader = binaryShader("a[idx] / b[idx]")
	// equalShader writes 1 where |a-b| < eps (params.scalar).
	equalShader = binaryShader("select(0.0, 1.0, abs(a[idx] - b[idx]) < params.scalar)")
)

// unaryShader builds an element-wise kernel result = expr(input).
func unaryShader(expr string) string {
	return `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    scalar: f32,
    stride: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x + global_id.y * params.stride;
    if (idx < params.size) {
        result[idx] = ` + expr + `;
    }
}
`
}

var (
	squareShader = unaryShader("input[idx] * input[idx]")
	scaleShader  = unaryShader("input[idx] * params.scalar")
	// addScaledShader computes result += scalar * input.
	addScaledShader = unaryShader("result[idx] + params.scalar * input[idx]")
	// broadcastShader copies input[0] into every element.
	broadcastShader = unaryShader("input[0]")
)

// fillShader sets every element to params.scalar.
const fillShader = `
@group(0) @binding(0) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    scalar: f32,
    stride: u32,
}
@group(0) @binding(1) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x + global_id.y * params.stride;
    if (idx < params.size) {
        result[idx] = params.scalar;
    }
}
`

// sumShader reduces input into result[0] with a single workgroup:
// strided partial sums followed by a tree reduction in workgroup memory.
const sumShader = `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
    scalar: f32,
    stride: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

var<workgroup> partial: array<f32, 256>;

@compute @workgroup_size(256)
fn main(@builtin(local_invocation_id) local_id: vec3<u32>) {
    let tid = local_id.x;
    var acc: f32 = 0.0;
    for (var i: u32 = tid; i < params.size; i = i + 256u) {
        acc = acc + input[i];
    }
    partial[tid] = acc;
    workgroupBarrier();

    for (var stride: u32 = 128u; stride > 0u; stride = stride >> 1u) {
        if (tid < stride) {
            partial[tid] = partial[tid] + partial[tid + stride];
        }
        workgroupBarrier();
    }

    if (tid == 0u) {
        result[0] = partial[0];
    }
}
`
