package glal

// BindingStride is the number of native binding points reserved per
// descriptor set in backends with global binding points. Set N binding B
// lands on native point N*BindingStride+B.
const BindingStride = 8

// InRange reports whether size bytes at offset fit in length bytes. It
// does not overflow for any input.
func InRange(offset, size, length uint64) bool {
	return size <= length && offset <= length-size
}

type Extent2D struct {
	Width  uint32
	Height uint32
}

type Extent3D struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

// Extent3D widens e with a depth of 1.
func (e Extent2D) Extent3D() Extent3D {
	return Extent3D{Width: e.Width, Height: e.Height, Depth: 1}
}

// Extent2D drops the depth of e.
func (e Extent3D) Extent2D() Extent2D {
	return Extent2D{Width: e.Width, Height: e.Height}
}

// Texels returns the number of texels in e, treating a zero depth or height as 1.
func (e Extent3D) Texels() uint64 {
	h, d := uint64(e.Height), uint64(e.Depth)
	if h == 0 {
		h = 1
	}
	if d == 0 {
		d = 1
	}
	return uint64(e.Width) * h * d
}

type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

// DescriptorBinding declares one slot of a DescriptorSetLayout.
type DescriptorBinding struct {
	Binding uint32
	Type    DescriptorType
	Count   uint32
	Stages  ShaderStage
}

type DeviceLimits struct {
	MaxTextureSize2D  uint32
	MaxUniformBuffers uint32
	MaxBufferSize     uint64
}

// PipelineStage pairs a shader stage with the module that implements it.
type PipelineStage struct {
	Stage  ShaderStage
	Module ShaderModule
}

// RenderTarget is one attachment of a render pass.
// When Clear is set the attachment is cleared to Value on BeginRenderPass.
type RenderTarget struct {
	View  ImageView
	Clear bool
	Value ClearValue
}

type VertexAttribute struct {
	Binding  uint32
	Location uint32
	Type     DataType
	Count    uint32
	Offset   uint32
}

// VertexBinding overrides the derived stride of a vertex buffer binding.
type VertexBinding struct {
	Binding  uint32
	Stride   uint32
	Instance bool
}

type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

type Rect2D struct {
	X, Y          int32
	Width, Height uint32
}

// DescriptorEntry is one accumulated binding of a DescriptorSet.
type DescriptorEntry struct {
	Binding uint32
	Type    DescriptorType
	Buffer  Buffer
	Offset  uint64
	Size    uint64
	View    ImageView
	Sampler Sampler
}
