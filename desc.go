package glal

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic = 0x07230203

// InstanceDesc configures a backend instance.
type InstanceDesc struct {
	ApplicationName  string
	EnableValidation bool
	// Lifetime selects the teardown policy. Backends substitute their
	// own default when it is LifetimeDefault.
	Lifetime Lifetime
	// Extensions lists native instance extensions required by the
	// presentation layer (the strict backend only).
	Extensions []string
	// DisabledFeatures are reported as unsupported regardless of what
	// the physical device offers.
	DisabledFeatures []DeviceFeature
	Logger           *Logger
}

type BufferDesc struct {
	Size   uint64
	Usage  BufferUsage
	Memory MemoryUsage
}

func (d BufferDesc) Validate() error {
	if d.Size == 0 {
		return errors.New("buffer size is zero")
	}
	if d.Usage == 0 {
		return errors.New("buffer usage is not set")
	}
	if d.Memory > MemoryDeviceToHost {
		return errors.Newf("unknown memory usage %d", d.Memory)
	}
	return nil
}

type ImageDesc struct {
	Format          ImageFormat
	Dimension       ImageType
	Extent          Extent3D
	MipLevelCount   uint32
	ArrayLayerCount uint32
}

func (d ImageDesc) Validate() error {
	if d.Format == FormatUndefined || d.Format.BytesPerPixel() == 0 {
		return errors.Newf("image format %v is not usable", d.Format)
	}
	if d.Extent.Width == 0 {
		return errors.New("image width is zero")
	}
	switch d.Dimension {
	case Image1D:
		if d.Extent.Height > 1 || d.Extent.Depth > 1 {
			return errors.Newf("1D image with extent %v", d.Extent)
		}
	case Image2D:
		if d.Extent.Height == 0 || d.Extent.Depth > 1 {
			return errors.Newf("2D image with extent %v", d.Extent)
		}
	case Image3D:
		if d.Extent.Height == 0 || d.Extent.Depth == 0 {
			return errors.Newf("3D image with extent %v", d.Extent)
		}
		if d.ArrayLayerCount > 1 {
			return errors.New("3D images cannot have array layers")
		}
	default:
		return errors.Newf("unknown image dimension %d", d.Dimension)
	}
	if d.MipLevelCount == 0 {
		return errors.New("image mip level count is zero")
	}
	if d.ArrayLayerCount == 0 {
		return errors.New("image array layer count is zero")
	}
	return nil
}

type ImageViewDesc struct {
	Image     Image
	Format    ImageFormat
	Dimension ImageType
}

func (d ImageViewDesc) Validate() error {
	if d.Image == nil {
		return errors.New("image view has no image")
	}
	if d.Format.BytesPerPixel() != d.Image.Format().BytesPerPixel() {
		return errors.Newf("view format %v is incompatible with image format %v", d.Format, d.Image.Format())
	}
	if d.Dimension != d.Image.Dimension() {
		return errors.Newf("view dimension %v differs from image dimension %v", d.Dimension, d.Image.Dimension())
	}
	return nil
}

type SamplerDesc struct {
	Min      Filter
	Mag      Filter
	AddressU AddressMode
	AddressV AddressMode
	AddressW AddressMode
}

func (d SamplerDesc) Validate() error {
	if d.Min > FilterLinear || d.Mag > FilterLinear {
		return errors.New("unknown sampler filter")
	}
	for _, m := range []AddressMode{d.AddressU, d.AddressV, d.AddressW} {
		if m > AddressMirror {
			return errors.Newf("unknown address mode %d", m)
		}
	}
	return nil
}

// ShaderModuleDesc carries one SPIR-V module. Size must equal len(Code).
type ShaderModuleDesc struct {
	Stage ShaderStage
	Code  []byte
	Size  uint64
}

func (d ShaderModuleDesc) Validate() error {
	if !d.Stage.Single() {
		return errors.Newf("shader module stage %v is not a single stage", d.Stage)
	}
	if d.Size != uint64(len(d.Code)) {
		return errors.Newf("shader module size %d does not match code length %d", d.Size, len(d.Code))
	}
	if len(d.Code) < 20 || len(d.Code)%4 != 0 {
		return errors.Newf("shader module code length %d is not a SPIR-V module", len(d.Code))
	}
	if binary.LittleEndian.Uint32(d.Code) != SPIRVMagic {
		return errors.New("shader module code is missing the SPIR-V magic number")
	}
	return nil
}

// Words returns the code as SPIR-V words.
func (d ShaderModuleDesc) Words() []uint32 {
	words := make([]uint32, len(d.Code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(d.Code[i*4:])
	}
	return words
}

type DescriptorSetLayoutDesc struct {
	Set      uint32
	Bindings []DescriptorBinding
}

func (d DescriptorSetLayoutDesc) Validate() error {
	if len(d.Bindings) == 0 {
		return errors.New("descriptor set layout has no bindings")
	}
	seen := make(map[uint32]bool, len(d.Bindings))
	for _, b := range d.Bindings {
		if seen[b.Binding] {
			return errors.Newf("binding %d declared twice", b.Binding)
		}
		seen[b.Binding] = true
		if b.Count == 0 {
			return errors.Newf("binding %d has a zero count", b.Binding)
		}
		if b.Stages == 0 {
			return errors.Newf("binding %d is not visible to any stage", b.Binding)
		}
		if b.Binding >= BindingStride {
			return errors.Newf("binding %d exceeds the %d bindings per set", b.Binding, BindingStride)
		}
		if b.Type > DescriptorPushConstant {
			return errors.Newf("binding %d has unknown type %d", b.Binding, b.Type)
		}
	}
	return nil
}

type PipelineLayoutDesc struct {
	Layouts []DescriptorSetLayout
}

func (d PipelineLayoutDesc) Validate() error {
	seen := make(map[uint32]bool, len(d.Layouts))
	for _, l := range d.Layouts {
		if l == nil {
			return errors.New("pipeline layout references a nil set layout")
		}
		if seen[l.Set()] {
			return errors.Newf("set %d appears twice in pipeline layout", l.Set())
		}
		seen[l.Set()] = true
	}
	return nil
}

type PipelineDesc struct {
	Type             PipelineType
	Stages           []PipelineStage
	VertexAttributes []VertexAttribute
	VertexBindings   []VertexBinding
	Topology         PrimitiveTopology
	PrimitiveRestart bool
	Layout           PipelineLayout
	DepthTest        bool
	DepthWrite       bool
	BlendEnable      bool
	// ColorFormats and DepthFormat describe the attachments the pipeline
	// renders into. Backends with implicit framebuffers ignore them.
	ColorFormats []ImageFormat
	DepthFormat  ImageFormat
}

func (d PipelineDesc) Validate() error {
	if d.Layout == nil {
		return errors.New("pipeline has no layout")
	}
	if len(d.Stages) == 0 {
		return errors.New("pipeline has no stages")
	}
	var stages ShaderStage
	for _, s := range d.Stages {
		if s.Module == nil {
			return errors.Newf("pipeline stage %v has no module", s.Stage)
		}
		if s.Module.Stage() != s.Stage {
			return errors.Newf("pipeline stage %v uses a %v module", s.Stage, s.Module.Stage())
		}
		if stages&s.Stage != 0 {
			return errors.Newf("pipeline stage %v given twice", s.Stage)
		}
		stages |= s.Stage
	}
	switch d.Type {
	case PipelineCompute:
		if stages != StageCompute {
			return errors.Newf("compute pipeline with stages %v", stages)
		}
		if len(d.VertexAttributes) > 0 {
			return errors.New("compute pipeline with vertex attributes")
		}
	case PipelineGraphics:
		if stages&StageVertex == 0 {
			return errors.New("graphics pipeline without a vertex stage")
		}
		if stages&(StageCompute|StageRayGen|StageRayHit|StageRayMiss) != 0 {
			return errors.Newf("graphics pipeline with stages %v", stages)
		}
	case PipelineRayTracing:
		if stages&StageRayGen == 0 {
			return errors.New("ray tracing pipeline without a ray generation stage")
		}
	default:
		return errors.Newf("unknown pipeline type %d", d.Type)
	}
	for _, a := range d.VertexAttributes {
		if a.Type == TypeNone {
			return errors.Newf("vertex attribute at location %d: data type is not set", a.Location)
		}
		if a.Count == 0 || a.Count > 4 {
			return errors.Newf("vertex attribute at location %d has %d components", a.Location, a.Count)
		}
	}
	if d.DepthFormat != FormatUndefined && !d.DepthFormat.IsDepth() {
		return errors.Newf("depth format %v has no depth aspect", d.DepthFormat)
	}
	return nil
}

type DescriptorSetDesc struct {
	Layouts []DescriptorSetLayout
}

func (d DescriptorSetDesc) Validate() error {
	if len(d.Layouts) == 0 {
		return errors.New("descriptor set has no layouts")
	}
	for _, l := range d.Layouts {
		if l == nil {
			return errors.New("descriptor set references a nil layout")
		}
	}
	return nil
}

// SwapchainDesc describes a frame ring. NativeWindowHandle is opaque to
// the core and forwarded to the presentation call.
type SwapchainDesc struct {
	NativeWindowHandle interface{}
	Extent             Extent2D
	Format             ImageFormat
	ImageCount         uint32
}

func (d SwapchainDesc) Validate() error {
	if d.NativeWindowHandle == nil {
		return errors.New("swapchain has no window handle")
	}
	if d.ImageCount == 0 {
		return errors.New("swapchain image count is zero")
	}
	if d.Extent.Width == 0 || d.Extent.Height == 0 {
		return errors.Newf("swapchain extent %v is empty", d.Extent)
	}
	if d.Format == FormatUndefined || d.Format.IsDepth() {
		return errors.Newf("swapchain format %v is not a color format", d.Format)
	}
	return nil
}

type RenderPassDesc struct {
	Color   []RenderTarget
	Depth   []RenderTarget
	Stencil []RenderTarget
}

func (d RenderPassDesc) Validate() error {
	for _, list := range [][]RenderTarget{d.Color, d.Depth, d.Stencil} {
		for i, t := range list {
			if t.View == nil {
				return errors.Newf("render target %d has no view", i)
			}
		}
	}
	if len(d.Color)+len(d.Depth)+len(d.Stencil) == 0 {
		return errors.New("render pass has no attachments")
	}
	return nil
}

// Extent returns the extent of the first attachment of d.
func (d RenderPassDesc) Extent() Extent2D {
	for _, list := range [][]RenderTarget{d.Color, d.Depth, d.Stencil} {
		if len(list) > 0 {
			return list[0].View.Image().Extent().Extent2D()
		}
	}
	return Extent2D{}
}
