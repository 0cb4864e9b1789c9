package opengl

import (
	"github.com/andewx/glal"
)

// formatInfo is the internal format, external format and component type
// of an image format.
type formatInfo struct {
	internal uint32
	external uint32
	xtype    uint32
}

func (d *Device) translateImageFormat(f glal.ImageFormat) formatInfo {
	switch f {
	case glal.FormatRGBA8UNorm:
		return formatInfo{RGBA8, RGBA, UNSIGNED_BYTE}
	case glal.FormatRGBA8SRGB:
		return formatInfo{SRGB8_ALPHA8, RGBA, UNSIGNED_BYTE}
	case glal.FormatBGRA8UNorm:
		return formatInfo{RGBA8, BGRA, UNSIGNED_BYTE}
	case glal.FormatRG16F:
		return formatInfo{RG16F, RG, HALF_FLOAT}
	case glal.FormatRGBA16F:
		return formatInfo{RGBA16F, RGBA, HALF_FLOAT}
	case glal.FormatRGBA32F:
		return formatInfo{RGBA32F, RGBA, FLOAT}
	case glal.FormatD24S8:
		return formatInfo{DEPTH24_STENCIL8, DEPTH_STENCIL, UNSIGNED_INT_24_8}
	case glal.FormatD32F:
		return formatInfo{DEPTH_COMPONENT32F, DEPTH_COMPONENT, FLOAT}
	}
	d.log.Fatalf(componentImage, "image format %v not supported", f)
	return formatInfo{}
}

// translateDataType returns the GL type of t and whether it is normalized.
func (d *Device) translateDataType(t glal.DataType) (uint32, bool) {
	switch t {
	case glal.TypeUInt8:
		return UNSIGNED_BYTE, true
	case glal.TypeUInt16:
		return UNSIGNED_SHORT, false
	case glal.TypeUInt32:
		return UNSIGNED_INT, false
	case glal.TypeInt8:
		return BYTE, true
	case glal.TypeInt16:
		return SHORT, false
	case glal.TypeInt32:
		return INT, false
	case glal.TypeHalf:
		return HALF_FLOAT, false
	case glal.TypeFloat:
		return FLOAT, false
	case glal.TypeFixed:
		return FIXED, false
	case glal.TypeDouble:
		return DOUBLE, false
	}
	d.log.Fatalf(componentPipeline, "data type is not set")
	return 0, false
}

func (d *Device) translateTopology(t glal.PrimitiveTopology) uint32 {
	switch t {
	case glal.TopologyTriangleList:
		return TRIANGLES
	case glal.TopologyTriangleStrip:
		return TRIANGLE_STRIP
	case glal.TopologyTriangleFan:
		return TRIANGLE_FAN
	case glal.TopologyPointList:
		return POINTS
	case glal.TopologyLineList:
		return LINES
	case glal.TopologyLineStrip:
		return LINE_STRIP
	}
	d.log.Fatalf(componentPipeline, "primitive topology %v not supported", t)
	return 0
}

func (d *Device) translateShaderStage(s glal.ShaderStage) uint32 {
	switch s {
	case glal.StageVertex:
		return VERTEX_SHADER
	case glal.StageGeometry:
		return GEOMETRY_SHADER
	case glal.StageTessellationControl:
		return TESS_CONTROL_SHADER
	case glal.StageTessellationEvaluation:
		return TESS_EVALUATION_SHADER
	case glal.StageFragment:
		return FRAGMENT_SHADER
	case glal.StageCompute:
		return COMPUTE_SHADER
	}
	d.log.Fatalf(componentShader, "shader stage not supported")
	return 0
}

func translateFilter(f glal.Filter) int32 {
	if f == glal.FilterLinear {
		return LINEAR
	}
	return NEAREST
}

func translateAddressMode(m glal.AddressMode) int32 {
	switch m {
	case glal.AddressClamp:
		return CLAMP_TO_EDGE
	case glal.AddressMirror:
		return MIRRORED_REPEAT
	}
	return REPEAT
}

// textureTarget picks the texture target for an image of the given
// dimension and layer count.
func textureTarget(dim glal.ImageType, layers uint32) uint32 {
	switch dim {
	case glal.Image1D:
		if layers > 1 {
			return TEXTURE_1D_ARRAY
		}
		return TEXTURE_1D
	case glal.Image3D:
		return TEXTURE_3D
	}
	if layers > 1 {
		return TEXTURE_2D_ARRAY
	}
	return TEXTURE_2D
}

// bufferTarget is the indexed binding target of a buffer descriptor.
func bufferTarget(t glal.DescriptorType) uint32 {
	if t == glal.DescriptorUniformBuffer {
		return UNIFORM_BUFFER
	}
	return SHADER_STORAGE_BUFFER
}

func storageFlags(m glal.MemoryUsage) (flags uint32, access uint32) {
	switch m {
	case glal.MemoryHostToDevice:
		return MAP_READ_BIT | MAP_WRITE_BIT | DYNAMIC_STORAGE_BIT, READ_WRITE
	case glal.MemoryDeviceToHost:
		return MAP_READ_BIT, READ_ONLY
	}
	return 0, 0
}

const (
	componentInstance   = "opengl.instance"
	componentDevice     = "opengl.device"
	componentBuffer     = "opengl.buffer"
	componentImage      = "opengl.image"
	componentSampler    = "opengl.sampler"
	componentShader     = "opengl.shader"
	componentDescriptor = "opengl.descriptor"
	componentPipeline   = "opengl.pipeline"
	componentCommand    = "opengl.command"
	componentSync       = "opengl.sync"
	componentSwapchain  = "opengl.swapchain"
)
