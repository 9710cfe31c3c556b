// Package webgpu provides WebGPU kernel boxes for element-wise operators.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
package webgpu

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/loom-ml/loom/internal/kernel"
	"github.com/loom-ml/loom/internal/tensor"
)

// resourceKey locates the shared Device inside kernel.Resources.
const resourceKey = "webgpu.device"

// Device wraps one WebGPU device with shader and pipeline caches.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex
}

// New initializes a WebGPU device. Fails when no adapter is available.
func New() (dev *Device, err error) {
	// Recover from panic if the native library is not found.
	defer func() {
		if r := recover(); r != nil {
			dev = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("webgpu: failed to create instance: %w", err)
	}
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", err)
	}
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", err)
	}
	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}
	return &Device{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
	}, nil
}

// Release frees the device, adapter and instance. Cached shader modules and
// pipelines are not released individually.
func (d *Device) Release() {
	d.queue = nil
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
}

func (d *Device) pipeline(name, code string) *wgpu.ComputePipeline {
	d.mu.RLock()
	if p, ok := d.pipelines[name]; ok {
		d.mu.RUnlock()
		return p
	}
	d.mu.RUnlock()

	shader := d.device.CreateShaderModuleWGSL(code)
	pipeline := d.device.CreateComputePipelineSimple(nil, shader, "main")

	d.mu.Lock()
	d.shaders[name] = shader
	d.pipelines[name] = pipeline
	d.mu.Unlock()
	return pipeline
}

func deviceFrom(res *kernel.Resources) (*Device, error) {
	if d, ok := res.Get(resourceKey).(*Device); ok {
		return d, nil
	}
	d, err := New()
	if err != nil {
		return nil, err
	}
	res.Put(resourceKey, d)
	return d, nil
}

// NewBinaryCollector returns the WebGPU collector for an element-wise binary
// kind. Candidates require F32 inputs of identical shape; broadcast plans
// stay on the CPU.
func NewBinaryCollector(kind kernel.BinaryKind) kernel.Collector {
	code, ok := binaryShaders[kind]
	if !ok {
		return kernel.None()
	}
	return kernel.CollectorFunc(func(inputs, outputs []*tensor.Tensor) []kernel.Box {
		if len(inputs) != 2 || len(outputs) != 1 {
			return nil
		}
		if inputs[0].DataType != tensor.F32 || inputs[1].DataType != tensor.F32 {
			return nil
		}
		if !inputs[0].Shape.Equal(inputs[1].Shape) {
			return nil
		}
		n, ok := outputs[0].Shape.Elements()
		if !ok {
			return nil
		}
		return []kernel.Box{&elementwiseBox{
			name:   fmt.Sprintf("%s/f32/webgpu", kind),
			code:   code,
			count:  n,
			inputs: 2,
		}}
	})
}

// NewUnaryCollector returns the WebGPU collector for an element-wise unary
// kind on F32.
func NewUnaryCollector(kind kernel.UnaryKind) kernel.Collector {
	code, ok := unaryShaders[kind]
	if !ok {
		return kernel.None()
	}
	return kernel.CollectorFunc(func(inputs, outputs []*tensor.Tensor) []kernel.Box {
		if len(inputs) != 1 || len(outputs) != 1 {
			return nil
		}
		if inputs[0].DataType != tensor.F32 {
			return nil
		}
		n, ok := outputs[0].Shape.Elements()
		if !ok {
			return nil
		}
		return []kernel.Box{&elementwiseBox{
			name:   fmt.Sprintf("%s/f32/webgpu", kind),
			code:   code,
			count:  n,
			inputs: 1,
		}}
	})
}

// elementwiseBox dispatches one WGSL compute shader over count elements.
type elementwiseBox struct {
	name   string
	code   string
	count  int64
	inputs int
}

func (b *elementwiseBox) Name() string { return b.name }

func (b *elementwiseBox) Lower(res *kernel.Resources) (kernel.Routine, error) {
	dev, err := deviceFrom(res)
	if err != nil {
		return nil, err
	}
	pipeline := dev.pipeline(b.name, b.code)
	count := b.count
	wantInputs := b.inputs

	return func(_ *kernel.Resources, inputs, outputs [][]byte) error {
		if len(inputs) != wantInputs || len(outputs) != 1 {
			return fmt.Errorf("webgpu: %s expects %d inputs and 1 output", b.name, wantInputs)
		}
		resultSize := uint64(count * 4)

		var gpuBuffers []*wgpu.Buffer
		release := func() {
			for _, buf := range gpuBuffers {
				buf.Release()
			}
		}
		defer release()

		entries := make([]wgpu.BindGroupEntry, 0, wantInputs+2)
		for i, in := range inputs {
			buf := dev.upload(in, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
			gpuBuffers = append(gpuBuffers, buf)
			entries = append(entries, wgpu.BufferBindingEntry(uint32(i), buf, 0, uint64(len(in))))
		}
		result := dev.device.CreateBuffer(&wgpu.BufferDescriptor{
			Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
			Size:  resultSize,
		})
		gpuBuffers = append(gpuBuffers, result)
		entries = append(entries, wgpu.BufferBindingEntry(uint32(wantInputs), result, 0, resultSize))

		params := make([]byte, 16)
		binary.LittleEndian.PutUint32(params[0:4], uint32(count))
		paramBuf := dev.upload(params, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
		gpuBuffers = append(gpuBuffers, paramBuf)
		entries = append(entries, wgpu.BufferBindingEntry(uint32(wantInputs+1), paramBuf, 0, 16))

		bindGroup := dev.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), entries)
		defer bindGroup.Release()

		encoder := dev.device.CreateCommandEncoder(nil)
		pass := encoder.BeginComputePass(nil)
		pass.SetPipeline(pipeline)
		pass.SetBindGroup(0, bindGroup, nil)
		pass.DispatchWorkgroups(uint32((count+workgroupSize-1)/workgroupSize), 1, 1)
		pass.End()
		dev.queue.Submit(encoder.Finish(nil))

		data, err := dev.read(result, resultSize)
		if err != nil {
			return err
		}
		copy(outputs[0], data)
		return nil
	}, nil
}

func (d *Device) upload(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := (uint64(len(data)) + 15) &^ 15
	buffer := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mapped := unsafe.Slice((*byte)(buffer.GetMappedRange(0, size)), size)
	copy(mapped, data)
	buffer.Unmap()
	return buffer
}

func (d *Device) read(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := d.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	d.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(d.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("webgpu: failed to map staging buffer: %w", err)
	}
	mapped := unsafe.Slice((*byte)(staging.GetMappedRange(0, size)), size)
	out := make([]byte, size)
	copy(out, mapped)
	staging.Unmap()
	return out, nil
}
