package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

var vkFormats = map[glal.ImageFormat]vk.Format{
	glal.FormatRGBA8UNorm: vk.FormatR8g8b8a8Unorm,
	glal.FormatRGBA8SRGB:  vk.FormatR8g8b8a8Srgb,
	glal.FormatBGRA8UNorm: vk.FormatB8g8r8a8Unorm,
	glal.FormatRG16F:      vk.FormatR16g16Sfloat,
	glal.FormatRGBA16F:    vk.FormatR16g16b16a16Sfloat,
	glal.FormatRGBA32F:    vk.FormatR32g32b32a32Sfloat,
	glal.FormatD24S8:      vk.FormatD24UnormS8Uint,
	glal.FormatD32F:       vk.FormatD32Sfloat,
}

var vkFilters = map[glal.Filter]vk.Filter{
	glal.FilterNearest: vk.FilterNearest,
	glal.FilterLinear:  vk.FilterLinear,
}

var vkAddressModes = map[glal.AddressMode]vk.SamplerAddressMode{
	glal.AddressRepeat: vk.SamplerAddressModeRepeat,
	glal.AddressClamp:  vk.SamplerAddressModeClampToEdge,
	glal.AddressMirror: vk.SamplerAddressModeMirroredRepeat,
}

var vkTopologies = map[glal.PrimitiveTopology]vk.PrimitiveTopology{
	glal.TopologyTriangleList:  vk.PrimitiveTopologyTriangleList,
	glal.TopologyTriangleStrip: vk.PrimitiveTopologyTriangleStrip,
	glal.TopologyTriangleFan:   vk.PrimitiveTopologyTriangleFan,
	glal.TopologyPointList:     vk.PrimitiveTopologyPointList,
	glal.TopologyLineList:      vk.PrimitiveTopologyLineList,
	glal.TopologyLineStrip:     vk.PrimitiveTopologyLineStrip,
}

var vkDescriptorTypes = map[glal.DescriptorType]vk.DescriptorType{
	glal.DescriptorUniformBuffer:         vk.DescriptorTypeUniformBuffer,
	glal.DescriptorStorageBuffer:         vk.DescriptorTypeStorageBuffer,
	glal.DescriptorReadOnlyStorageBuffer: vk.DescriptorTypeStorageBuffer,
	glal.DescriptorCombinedImageSampler:  vk.DescriptorTypeCombinedImageSampler,
	glal.DescriptorSampledImage:          vk.DescriptorTypeSampledImage,
	glal.DescriptorStorageImage:          vk.DescriptorTypeStorageImage,
	glal.DescriptorSampler:               vk.DescriptorTypeSampler,
}

var vkBindPoints = map[glal.PipelineType]vk.PipelineBindPoint{
	glal.PipelineGraphics: vk.PipelineBindPointGraphics,
	glal.PipelineCompute:  vk.PipelineBindPointCompute,
}

var vkImageTypes = map[glal.ImageType]vk.ImageType{
	glal.Image1D: vk.ImageType1d,
	glal.Image2D: vk.ImageType2d,
	glal.Image3D: vk.ImageType3d,
}

var vkIndexTypes = map[glal.DataType]vk.IndexType{
	glal.TypeUInt16: vk.IndexTypeUint16,
	glal.TypeUInt32: vk.IndexTypeUint32,
}

// vkVertexFormats is keyed by data type and component count.
var vkVertexFormats = map[glal.DataType][4]vk.Format{
	glal.TypeUInt8:  {vk.FormatR8Unorm, vk.FormatR8g8Unorm, vk.FormatR8g8b8Unorm, vk.FormatR8g8b8a8Unorm},
	glal.TypeInt8:   {vk.FormatR8Snorm, vk.FormatR8g8Snorm, vk.FormatR8g8b8Snorm, vk.FormatR8g8b8a8Snorm},
	glal.TypeUInt16: {vk.FormatR16Uint, vk.FormatR16g16Uint, vk.FormatR16g16b16Uint, vk.FormatR16g16b16a16Uint},
	glal.TypeInt16:  {vk.FormatR16Sint, vk.FormatR16g16Sint, vk.FormatR16g16b16Sint, vk.FormatR16g16b16a16Sint},
	glal.TypeUInt32: {vk.FormatR32Uint, vk.FormatR32g32Uint, vk.FormatR32g32b32Uint, vk.FormatR32g32b32a32Uint},
	glal.TypeInt32:  {vk.FormatR32Sint, vk.FormatR32g32Sint, vk.FormatR32g32b32Sint, vk.FormatR32g32b32a32Sint},
	glal.TypeHalf:   {vk.FormatR16Sfloat, vk.FormatR16g16Sfloat, vk.FormatR16g16b16Sfloat, vk.FormatR16g16b16a16Sfloat},
	glal.TypeFloat:  {vk.FormatR32Sfloat, vk.FormatR32g32Sfloat, vk.FormatR32g32b32Sfloat, vk.FormatR32g32b32a32Sfloat},
	glal.TypeDouble: {vk.FormatR64Sfloat, vk.FormatR64g64Sfloat, vk.FormatR64g64b64Sfloat, vk.FormatR64g64b64a64Sfloat},
}

// translate looks key up in table and is fatal when it is missing.
func translate[K comparable, V any](log *glal.Logger, component string, table map[K]V, key K, what string) V {
	v, ok := table[key]
	if !ok {
		log.Fatalf(component, "%s %v not supported", what, key)
	}
	return v
}

// fromVkFormat is the reverse of vkFormats.
func fromVkFormat(f vk.Format) (glal.ImageFormat, bool) {
	for k, v := range vkFormats {
		if v == f {
			return k, true
		}
	}
	return glal.FormatUndefined, false
}

func vertexFormat(log *glal.Logger, a glal.VertexAttribute) vk.Format {
	formats := translate(log, componentPipeline, vkVertexFormats, a.Type, "vertex data type")
	if a.Count == 0 || a.Count > 4 {
		log.Fatalf(componentPipeline, "vertex attribute at location %d has %d components", a.Location, a.Count)
	}
	return formats[a.Count-1]
}

// shaderStages converts a stage mask. Ray tracing stages have no
// equivalent in Vulkan 1.0.
func shaderStages(log *glal.Logger, s glal.ShaderStage) vk.ShaderStageFlags {
	bits := []struct {
		stage glal.ShaderStage
		flag  vk.ShaderStageFlagBits
	}{
		{glal.StageVertex, vk.ShaderStageVertexBit},
		{glal.StageGeometry, vk.ShaderStageGeometryBit},
		{glal.StageTessellationControl, vk.ShaderStageTessellationControlBit},
		{glal.StageTessellationEvaluation, vk.ShaderStageTessellationEvaluationBit},
		{glal.StageFragment, vk.ShaderStageFragmentBit},
		{glal.StageCompute, vk.ShaderStageComputeBit},
	}
	var flags vk.ShaderStageFlags
	for _, b := range bits {
		if s&b.stage != 0 {
			flags |= vk.ShaderStageFlags(b.flag)
			s &^= b.stage
		}
	}
	if s != 0 {
		log.Fatalf(componentShader, "shader stage %v not supported", s)
	}
	return flags
}

// aspectMask returns the aspects of an image of format f.
func aspectMask(f glal.ImageFormat) vk.ImageAspectFlags {
	switch {
	case f.HasStencil():
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit)
	case f.IsDepth():
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	return vk.ImageAspectFlags(vk.ImageAspectColorBit)
}

func viewType(t glal.ImageType, layers uint32) vk.ImageViewType {
	switch t {
	case glal.Image1D:
		if layers > 1 {
			return vk.ImageViewType1dArray
		}
		return vk.ImageViewType1d
	case glal.Image3D:
		return vk.ImageViewType3d
	}
	if layers > 1 {
		return vk.ImageViewType2dArray
	}
	return vk.ImageViewType2d
}

func bufferUsage(u glal.BufferUsage) vk.BufferUsageFlags {
	flags := vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit | vk.BufferUsageTransferDstBit)
	if u&glal.UsageVertex != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)
	}
	if u&glal.UsageIndex != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)
	}
	if u&glal.UsageUniform != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit)
	}
	if u&glal.UsageStorage != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit)
	}
	return flags
}

// memoryProperties returns the required and preferred property flags for
// memory of usage m.
func memoryProperties(m glal.MemoryUsage) (required, preferred vk.MemoryPropertyFlags) {
	switch m {
	case glal.MemoryHostToDevice:
		required = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
		return required, required
	case glal.MemoryDeviceToHost:
		required = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
		return required, required | vk.MemoryPropertyFlags(vk.MemoryPropertyHostCachedBit)
	}
	required = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	return required, required
}

func imageUsage(f glal.ImageFormat) vk.ImageUsageFlags {
	flags := vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit)
	if f.IsDepth() {
		return flags | vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
	}
	flags |= vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	switch f {
	case glal.FormatRGBA8UNorm, glal.FormatRGBA16F, glal.FormatRGBA32F:
		flags |= vk.ImageUsageFlags(vk.ImageUsageStorageBit)
	}
	return flags
}
