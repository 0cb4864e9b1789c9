package opengl_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/glal"
	"github.com/andewx/glal/opengl"
	"github.com/andewx/glal/opengl/soft"
)

func TestPhysicalDevice(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	assert.Equal(t, glal.LifetimePermissive, f.inst.Lifetime())
	p := f.device.PhysicalDevice()
	assert.Equal(t, "OpenGL 4.6", p.Name())
	assert.True(t, p.Supports(glal.FeatureCompute))
	assert.False(t, p.Supports(glal.FeatureRayTracing))
	assert.Equal(t, uint32(16384), p.Limits().MaxTextureSize2D)
	assert.Equal(t, glal.BackendOpenGL, f.device.Backend())
}

func TestDisabledFeature(t *testing.T) {
	inst := opengl.NewInstance(soft.NewContext(), glal.InstanceDesc{
		DisabledFeatures: []glal.DeviceFeature{glal.FeatureGeometryShader},
	})
	p := inst.PhysicalDevices()[0]
	assert.False(t, p.Supports(glal.FeatureGeometryShader))
	assert.True(t, p.Supports(glal.FeatureTessellation))
}

func TestBufferMapRoundTrip(t *testing.T) {
	f := newFixture(t, glal.LifetimeStrict)
	upload := f.device.CreateBuffer(glal.BufferDesc{Size: 16, Usage: glal.UsageVertex, Memory: glal.MemoryHostToDevice})
	readback := f.device.CreateBuffer(glal.BufferDesc{Size: 16, Usage: glal.UsageVertex, Memory: glal.MemoryDeviceToHost})

	data := upload.Map()
	require.Len(t, data, 16)
	for i := range data {
		data[i] = byte(i * 3)
	}
	upload.Unmap()

	cmd := f.device.CreateCommandBuffer(glal.CommandBufferOnce)
	cmd.Begin()
	cmd.CopyBuffer(upload, readback, 4, 0, 12)
	cmd.End()
	f.submit(cmd, nil)
	assert.Equal(t, glal.CommandBufferInitial, cmd.State(), "one-shot buffers reset after submit")

	got := readback.Map()
	assert.Equal(t, []byte{12, 15, 18, 21, 24, 27, 30, 33, 36, 39, 42, 45, 0, 0, 0, 0}, got)
	readback.Unmap()

	f.device.DestroyCommandBuffer(cmd)
	f.device.DestroyBuffer(upload)
	f.device.DestroyBuffer(readback)
	f.device.PhysicalDevice().DestroyDevice(f.device)
	f.inst.Destroy()
	assert.Empty(t, f.ctx.Errors())
	assert.Zero(t, f.ctx.Live().Buffers)
}

func TestBufferMapRejected(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	for _, size := range []uint64{1, 4, 16, 4096} {
		local := f.device.CreateBuffer(glal.BufferDesc{Size: size, Usage: glal.UsageStorage, Memory: glal.MemoryDeviceLocal})
		assert.Contains(t, requireFatal(t, func() { local.Map() }), "device local memory not accessible", "size %d", size)
	}

	host := f.device.CreateBuffer(glal.BufferDesc{Size: 16, Usage: glal.UsageStorage, Memory: glal.MemoryHostToDevice})
	host.Map()
	assert.Contains(t, requireFatal(t, func() { host.Map() }), "already mapped")
	host.Unmap()
	assert.Contains(t, requireFatal(t, func() { host.Unmap() }), "not mapped")
}

func TestInvalidDescriptor(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	msg := requireFatal(t, func() {
		f.device.CreateBuffer(glal.BufferDesc{Size: 0, Usage: glal.UsageVertex})
	})
	assert.Contains(t, msg, "invalid descriptor")
	assert.Contains(t, msg, "buffer size is zero")
}

func TestStrictLifetimeRequiresExplicitDestroy(t *testing.T) {
	f := newFixture(t, glal.LifetimeStrict)
	buf := f.device.CreateBuffer(glal.BufferDesc{Size: 4, Usage: glal.UsageVertex, Memory: glal.MemoryHostToDevice})
	msg := requireFatal(t, func() { f.device.PhysicalDevice().DestroyDevice(f.device) })
	assert.Contains(t, msg, "not all buffers were explicitly destroyed")

	assert.Contains(t, requireFatal(t, f.inst.Destroy), "not all devices were explicitly destroyed",
		"a failed device destroy leaves the device owned")
	f.device.DestroyBuffer(buf)
	require.NoError(t, glal.Recover(func() { f.device.PhysicalDevice().DestroyDevice(f.device) }))
	require.NoError(t, glal.Recover(f.inst.Destroy))
	assert.Zero(t, f.ctx.Live().Buffers)
}

func TestStrictLifetimeRequiresDeviceDestroy(t *testing.T) {
	f := newFixture(t, glal.LifetimeStrict)
	assert.Contains(t, requireFatal(t, f.inst.Destroy), "not all devices were explicitly destroyed")
}

func TestPermissiveLifetimeDestroysLeftovers(t *testing.T) {
	f := newFixture(t, glal.LifetimePermissive)
	f.device.CreateBuffer(glal.BufferDesc{Size: 4, Usage: glal.UsageVertex, Memory: glal.MemoryHostToDevice})
	f.device.CreateSampler(glal.SamplerDesc{Min: glal.FilterLinear, Mag: glal.FilterLinear})
	f.swapchain(2)
	require.NoError(t, glal.Recover(f.inst.Destroy))

	live := f.ctx.Live()
	assert.Zero(t, live.Buffers)
	assert.Zero(t, live.Samplers)
	assert.Zero(t, live.Textures)
	assert.Contains(t, f.logs.String(), "destroying 1 buffers left alive")
}

func TestForeignHandle(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	other := f.device.PhysicalDevice().CreateDevice()
	b := other.CreateBuffer(glal.BufferDesc{Size: 4, Usage: glal.UsageVertex, Memory: glal.MemoryHostToDevice})
	msg := requireFatal(t, func() { f.device.DestroyBuffer(b) })
	assert.Contains(t, msg, "buffer "+b.Handle().String()+" is not owned by device")
	other.DestroyBuffer(b)
}

func TestUseAfterDestroy(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	b := f.device.CreateBuffer(glal.BufferDesc{Size: 4, Usage: glal.UsageVertex, Memory: glal.MemoryHostToDevice})
	f.device.DestroyBuffer(b)
	assert.Contains(t, requireFatal(t, func() { f.device.DestroyBuffer(b) }), "used after destroy")
	assert.Contains(t, requireFatal(t, func() { b.Map() }), "used after destroy")
}

func TestImageViewBorrowsImage(t *testing.T) {
	f := newFixture(t, glal.LifetimeStrict)
	img := f.device.CreateImage(glal.ImageDesc{
		Format:          glal.FormatRGBA8UNorm,
		Dimension:       glal.Image2D,
		Extent:          glal.Extent3D{Width: 4, Height: 4, Depth: 1},
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	view := f.device.CreateImageView(glal.ImageViewDesc{Image: img, Format: glal.FormatRGBA8UNorm, Dimension: glal.Image2D})
	assert.Equal(t, img, view.Image())
	assert.Contains(t, requireFatal(t, func() { f.device.DestroyImage(img) }), "live views")
	f.device.DestroyImageView(view)
	f.device.DestroyImage(img)
	assert.Zero(t, f.ctx.Live().Textures)
}

func TestImageViewFormatMustMatch(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	img := f.device.CreateImage(glal.ImageDesc{
		Format:          glal.FormatRGBA8UNorm,
		Dimension:       glal.Image2D,
		Extent:          glal.Extent3D{Width: 4, Height: 4, Depth: 1},
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	msg := requireFatal(t, func() {
		f.device.CreateImageView(glal.ImageViewDesc{Image: img, Format: glal.FormatRGBA32F, Dimension: glal.Image2D})
	})
	assert.Contains(t, msg, "incompatible")
}

func TestArrayImageStorage(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	f.device.CreateImage(glal.ImageDesc{
		Format:          glal.FormatRGBA16F,
		Dimension:       glal.Image2D,
		Extent:          glal.Extent3D{Width: 8, Height: 4, Depth: 1},
		MipLevelCount:   2,
		ArrayLayerCount: 3,
	})
	assert.Empty(t, f.ctx.Errors())
	assert.Equal(t, 1, f.ctx.Live().Textures)
}

func TestSamplerParameters(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	desc := glal.SamplerDesc{Min: glal.FilterLinear, Mag: glal.FilterNearest, AddressU: glal.AddressClamp, AddressV: glal.AddressMirror}
	s := f.device.CreateSampler(desc)
	assert.Equal(t, desc, s.Desc())
	assert.Empty(t, f.ctx.Errors())
}

func TestShaderModuleRejectsMissingEntryPoint(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	code := soft.SPIRV(glal.StageVertex, "vs_main")
	msg := requireFatal(t, func() {
		f.device.CreateShaderModule(glal.ShaderModuleDesc{Stage: glal.StageVertex, Code: code, Size: uint64(len(code))})
	})
	assert.Contains(t, msg, "failed to specialize shader")
	assert.Zero(t, f.ctx.Live().Shaders)
}

func TestVertexStride(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	p := f.graphicsPipeline(nil)
	assert.Equal(t, uint32(20), p.VertexStride())
	assert.Equal(t, glal.PipelineGraphics, p.Type())
	assert.Equal(t, triangleAttributes, p.VertexAttributes())
}

func TestPipelineLinkFailure(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	layout := f.device.CreatePipelineLayout(glal.PipelineLayoutDesc{})
	msg := requireFatal(t, func() {
		f.device.CreatePipeline(glal.PipelineDesc{
			Type: glal.PipelineGraphics,
			Stages: []glal.PipelineStage{
				{Stage: glal.StageVertex, Module: f.shader(glal.StageVertex)},
				{Stage: glal.StageTessellationControl, Module: f.shader(glal.StageTessellationControl)},
			},
			Layout: layout,
		})
	})
	assert.Contains(t, msg, "failed to link program")
	assert.Zero(t, f.ctx.Live().Programs)
}

func TestRayGenShaderUnsupported(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	code := soft.SPIRV(glal.StageRayGen, "main")
	msg := requireFatal(t, func() {
		f.device.CreateShaderModule(glal.ShaderModuleDesc{Stage: glal.StageRayGen, Code: code, Size: uint64(len(code))})
	})
	assert.Contains(t, msg, "shader stage not supported")
}

func TestDescriptorBindingResolution(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	layout := f.device.CreateDescriptorSetLayout(glal.DescriptorSetLayoutDesc{
		Bindings: []glal.DescriptorBinding{{Binding: 0, Type: glal.DescriptorUniformBuffer, Count: 1, Stages: glal.StageVertex}},
	})
	set := f.device.CreateDescriptorSet(glal.DescriptorSetDesc{Layouts: []glal.DescriptorSetLayout{layout}})
	ubo := f.device.CreateBuffer(glal.BufferDesc{Size: 64, Usage: glal.UsageUniform, Memory: glal.MemoryHostToDevice})

	set.BindBuffer(0, ubo)
	entries := set.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, glal.DescriptorUniformBuffer, entries[0].Type)
	assert.Equal(t, uint64(64), entries[0].Size)

	assert.Contains(t, requireFatal(t, func() { set.BindBuffer(7, ubo) }), "missing descriptor for binding 7")

	second := f.device.CreateDescriptorSetLayout(glal.DescriptorSetLayoutDesc{
		Set:      1,
		Bindings: []glal.DescriptorBinding{{Binding: 0, Type: glal.DescriptorUniformBuffer, Count: 1, Stages: glal.StageVertex}},
	})
	other := f.device.CreateDescriptorSet(glal.DescriptorSetDesc{Layouts: []glal.DescriptorSetLayout{second}})
	other.BindBuffer(0, ubo)

	cmd := f.device.CreateCommandBuffer(glal.CommandBufferReusable)
	cmd.Begin()
	assert.Contains(t, requireFatal(t, func() { cmd.BindDescriptorSet(1, set) }), "declares set 0 but is bound at set 1")
	cmd.BindDescriptorSet(0, set)
	cmd.BindDescriptorSet(1, other)
	cmd.End()
	f.submit(cmd, nil)

	r, ok := f.ctx.IndexedBuffer(opengl.UNIFORM_BUFFER, 0)
	require.True(t, ok)
	assert.Equal(t, 64, r.Size)
	r, ok = f.ctx.IndexedBuffer(opengl.UNIFORM_BUFFER, glal.BindingStride)
	require.True(t, ok, "set 1 binds one stride up")
	assert.Equal(t, 0, r.Offset)
	_, ok = f.ctx.IndexedBuffer(opengl.SHADER_STORAGE_BUFFER, 0)
	assert.False(t, ok)
}

func TestMultiLayoutSetPlacement(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	first := f.device.CreateDescriptorSetLayout(glal.DescriptorSetLayoutDesc{
		Set:      2,
		Bindings: []glal.DescriptorBinding{{Binding: 0, Type: glal.DescriptorUniformBuffer, Count: 1, Stages: glal.StageVertex}},
	})
	second := f.device.CreateDescriptorSetLayout(glal.DescriptorSetLayoutDesc{
		Set:      3,
		Bindings: []glal.DescriptorBinding{{Binding: 1, Type: glal.DescriptorStorageBuffer, Count: 1, Stages: glal.StageFragment}},
	})
	ubo := f.device.CreateBuffer(glal.BufferDesc{Size: 32, Usage: glal.UsageUniform, Memory: glal.MemoryHostToDevice})
	ssbo := f.device.CreateBuffer(glal.BufferDesc{Size: 16, Usage: glal.UsageStorage, Memory: glal.MemoryDeviceLocal})

	set := f.device.CreateDescriptorSet(glal.DescriptorSetDesc{Layouts: []glal.DescriptorSetLayout{first, second}})
	set.BindBuffer(0, ubo)
	set.BindBuffer(1, ssbo)

	cmd := f.device.CreateCommandBuffer(glal.CommandBufferOnce)
	cmd.Begin()
	assert.Contains(t, requireFatal(t, func() { cmd.BindDescriptorSet(0, set) }), "declares set 2 but is bound at set 0")
	cmd.BindDescriptorSet(2, set)
	cmd.End()
	f.submit(cmd, nil)

	r, ok := f.ctx.IndexedBuffer(opengl.UNIFORM_BUFFER, 2*glal.BindingStride)
	require.True(t, ok, "the first layout lands on its own set")
	assert.Equal(t, 32, r.Size)
	r, ok = f.ctx.IndexedBuffer(opengl.SHADER_STORAGE_BUFFER, 3*glal.BindingStride+1)
	require.True(t, ok, "the second layout lands on the next set")
	assert.Equal(t, 16, r.Size)
	_, ok = f.ctx.IndexedBuffer(opengl.SHADER_STORAGE_BUFFER, 2*glal.BindingStride+1)
	assert.False(t, ok)
	assert.Empty(t, f.ctx.Errors())
}

func TestDescriptorBufferUsage(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	layout := f.device.CreateDescriptorSetLayout(glal.DescriptorSetLayoutDesc{
		Bindings: []glal.DescriptorBinding{
			{Binding: 0, Type: glal.DescriptorStorageBuffer, Count: 1, Stages: glal.StageCompute},
			{Binding: 1, Type: glal.DescriptorCombinedImageSampler, Count: 1, Stages: glal.StageFragment},
		},
	})
	set := f.device.CreateDescriptorSet(glal.DescriptorSetDesc{Layouts: []glal.DescriptorSetLayout{layout}})
	vbo := f.device.CreateBuffer(glal.BufferDesc{Size: 64, Usage: glal.UsageVertex, Memory: glal.MemoryHostToDevice})
	assert.Contains(t, requireFatal(t, func() { set.BindBuffer(0, vbo) }), "lacks")
	assert.Contains(t, requireFatal(t, func() { set.BindBuffer(1, vbo) }), "not a buffer")

	ssbo := f.device.CreateBuffer(glal.BufferDesc{Size: 64, Usage: glal.UsageStorage, Memory: glal.MemoryDeviceLocal})
	assert.Contains(t, requireFatal(t, func() { set.BindBufferRange(0, ssbo, 32, 64) }), "exceeds")
	assert.Contains(t, requireFatal(t, func() { set.BindBufferRange(0, ssbo, math.MaxUint64, 2) }), "exceeds")
	assert.Contains(t, requireFatal(t, func() { set.BindBufferRange(0, ssbo, 8, math.MaxUint64) }), "exceeds")
	set.BindBufferRange(0, ssbo, 16, 32)

	img := f.device.CreateImage(glal.ImageDesc{
		Format:          glal.FormatRGBA8UNorm,
		Dimension:       glal.Image2D,
		Extent:          glal.Extent3D{Width: 2, Height: 2, Depth: 1},
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	view := f.device.CreateImageView(glal.ImageViewDesc{Image: img, Format: glal.FormatRGBA8UNorm, Dimension: glal.Image2D})
	sampler := f.device.CreateSampler(glal.SamplerDesc{})
	set.BindImageView(1, view, sampler)

	cmd := f.device.CreateCommandBuffer(glal.CommandBufferOnce)
	cmd.Begin()
	cmd.BindDescriptorSet(0, set)
	cmd.End()
	f.submit(cmd, nil)

	r, ok := f.ctx.IndexedBuffer(opengl.SHADER_STORAGE_BUFFER, 0)
	require.True(t, ok)
	assert.Equal(t, 16, r.Offset)
	assert.Equal(t, 32, r.Size)
	assert.NotZero(t, f.ctx.TextureUnit(1))
	assert.NotZero(t, f.ctx.SamplerUnit(1))
	assert.Empty(t, f.ctx.Errors())
}

func TestWholeBufferBindingMatchesRange(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	layout := f.device.CreateDescriptorSetLayout(glal.DescriptorSetLayoutDesc{
		Bindings: []glal.DescriptorBinding{{Binding: 2, Type: glal.DescriptorUniformBuffer, Count: 1, Stages: glal.StageFragment}},
	})
	ubo := f.device.CreateBuffer(glal.BufferDesc{Size: 48, Usage: glal.UsageUniform, Memory: glal.MemoryHostToDevice})

	bound := func(bind func(glal.DescriptorSet)) (glal.DescriptorEntry, soft.BufferRange) {
		set := f.device.CreateDescriptorSet(glal.DescriptorSetDesc{Layouts: []glal.DescriptorSetLayout{layout}})
		bind(set)
		cmd := f.device.CreateCommandBuffer(glal.CommandBufferOnce)
		cmd.Begin()
		cmd.BindDescriptorSet(0, set)
		cmd.End()
		f.submit(cmd, nil)
		r, ok := f.ctx.IndexedBuffer(opengl.UNIFORM_BUFFER, 2)
		require.True(t, ok)
		return set.Entries()[0], r
	}
	wholeEntry, whole := bound(func(s glal.DescriptorSet) { s.BindBuffer(2, ubo) })
	rangeEntry, ranged := bound(func(s glal.DescriptorSet) { s.BindBufferRange(2, ubo, 0, ubo.Size()) })
	assert.Equal(t, rangeEntry, wholeEntry)
	assert.Equal(t, ranged, whole)
	assert.Equal(t, 48, whole.Size)
}
