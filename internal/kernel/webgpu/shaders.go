package webgpu

import "github.com/loom-ml/loom/internal/kernel"

// WGSL compute shaders for element-wise operations on f32.

// workgroupSize is the number of threads per workgroup.
const workgroupSize = 256

const binaryShaderHeader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
`

const unaryShaderHeader = `
@group(0) @binding(0) var<storage, read> x: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
`

const shaderFooter = `
    }
}
`

var binaryShaders = map[kernel.BinaryKind]string{
	kernel.BinAdd: binaryShaderHeader + `        result[idx] = a[idx] + b[idx];` + shaderFooter,
	kernel.BinSub: binaryShaderHeader + `        result[idx] = a[idx] - b[idx];` + shaderFooter,
	kernel.BinMul: binaryShaderHeader + `        result[idx] = a[idx] * b[idx];` + shaderFooter,
	kernel.BinDiv: binaryShaderHeader + `        result[idx] = a[idx] / b[idx];` + shaderFooter,
	kernel.BinPow: binaryShaderHeader + `        result[idx] = pow(a[idx], b[idx]);` + shaderFooter,
}

var unaryShaders = map[kernel.UnaryKind]string{
	kernel.UnRelu:    unaryShaderHeader + `        result[idx] = max(x[idx], 0.0);` + shaderFooter,
	kernel.UnSigmoid: unaryShaderHeader + `        result[idx] = 1.0 / (1.0 + exp(-x[idx]));` + shaderFooter,
	kernel.UnTanh:    unaryShaderHeader + `        result[idx] = tanh(x[idx]);` + shaderFooter,
	kernel.UnSqrt:    unaryShaderHeader + `        result[idx] = sqrt(x[idx]);` + shaderFooter,
	kernel.UnNeg:     unaryShaderHeader + `        result[idx] = -x[idx];` + shaderFooter,
	kernel.UnAbs:     unaryShaderHeader + `        result[idx] = abs(x[idx]);` + shaderFooter,
	kernel.UnLog:     unaryShaderHeader + `        result[idx] = log(x[idx]);` + shaderFooter,
}
