package glal

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Backend tags the native API an object was created on.
type Backend uint8

const (
	BackendOpenGL Backend = iota
	BackendVulkan
)

func (b Backend) String() string {
	switch b {
	case BackendOpenGL:
		return "opengl"
	case BackendVulkan:
		return "vulkan"
	}
	return fmt.Sprintf("Backend(%d)", uint8(b))
}

type AddressMode uint8

const (
	AddressRepeat AddressMode = iota
	AddressClamp
	AddressMirror
)

func (m AddressMode) String() string {
	return enumString(m, []string{"Repeat", "Clamp", "Mirror"})
}

// BufferUsage is a mask of the ways a Buffer may be bound.
type BufferUsage uint8

const (
	UsageVertex BufferUsage = 1 << iota
	UsageIndex
	UsageUniform
	UsageStorage
)

func (u BufferUsage) String() string {
	return flagString(uint32(u), []string{"Vertex", "Index", "Uniform", "Storage"})
}

type CommandBufferUsage uint8

const (
	CommandBufferOnce CommandBufferUsage = iota
	CommandBufferReusable
)

func (u CommandBufferUsage) String() string {
	return enumString(u, []string{"Once", "Reusable"})
}

// DataType is the scalar type of a vertex attribute or index element.
type DataType uint8

const (
	TypeNone DataType = iota
	TypeUInt8
	TypeUInt16
	TypeUInt32
	TypeInt8
	TypeInt16
	TypeInt32
	TypeHalf
	TypeFloat
	TypeFixed
	TypeDouble
)

var dataTypeNames = []string{"None", "UInt8", "UInt16", "UInt32", "Int8", "Int16", "Int32", "Half", "Float", "Fixed", "Double"}

func (t DataType) String() string {
	return enumString(t, dataTypeNames)
}

// Size returns the byte size of one component of type t.
// TypeNone has no size.
func (t DataType) Size() uint32 {
	switch t {
	case TypeUInt8, TypeInt8:
		return 1
	case TypeUInt16, TypeInt16, TypeHalf:
		return 2
	case TypeUInt32, TypeInt32, TypeFloat, TypeFixed:
		return 4
	case TypeDouble:
		return 8
	}
	return 0
}

// Normalized reports whether integer components of type t are
// normalized to [0, 1] or [-1, 1] when fed to a shader.
func (t DataType) Normalized() bool {
	return t == TypeUInt8 || t == TypeInt8
}

type DescriptorType uint8

const (
	DescriptorUniformBuffer DescriptorType = iota
	DescriptorStorageBuffer
	DescriptorReadOnlyStorageBuffer
	DescriptorCombinedImageSampler
	DescriptorSampledImage
	DescriptorStorageImage
	DescriptorSampler
	DescriptorPushConstant
)

func (t DescriptorType) String() string {
	return enumString(t, []string{"UniformBuffer", "StorageBuffer", "ReadOnlyStorageBuffer",
		"CombinedImageSampler", "SampledImage", "StorageImage", "Sampler", "PushConstant"})
}

// IsBuffer reports whether descriptors of type t reference a Buffer.
func (t DescriptorType) IsBuffer() bool {
	return t == DescriptorUniformBuffer || t == DescriptorStorageBuffer || t == DescriptorReadOnlyStorageBuffer
}

// IsImage reports whether descriptors of type t reference an ImageView and/or Sampler.
func (t DescriptorType) IsImage() bool {
	switch t {
	case DescriptorCombinedImageSampler, DescriptorSampledImage, DescriptorStorageImage, DescriptorSampler:
		return true
	}
	return false
}

type DeviceFeature uint8

const (
	FeatureCompute DeviceFeature = iota
	FeatureGeometryShader
	FeatureTessellation
	FeatureRayTracing
	FeatureExplicitBarriers
	FeatureDescriptorSets
	FeatureTimelineSemaphore
)

var featureNames = []string{"Compute", "GeometryShader", "Tessellation", "RayTracing",
	"ExplicitBarriers", "DescriptorSets", "TimelineSemaphore"}

func (f DeviceFeature) String() string {
	return enumString(f, featureNames)
}

// ParseDeviceFeature looks a feature up by name, ignoring case.
func ParseDeviceFeature(s string) (DeviceFeature, error) {
	i, err := parseEnum(s, featureNames, "device feature")
	return DeviceFeature(i), err
}

type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
)

func (f Filter) String() string {
	return enumString(f, []string{"Nearest", "Linear"})
}

// ImageType is the dimensionality of an Image or ImageView.
type ImageType uint8

const (
	Image1D ImageType = iota
	Image2D
	Image3D
)

func (t ImageType) String() string {
	return enumString(t, []string{"1D", "2D", "3D"})
}

type ImageFormat uint8

const (
	FormatUndefined ImageFormat = iota
	FormatRGBA8UNorm
	FormatRGBA8SRGB
	FormatBGRA8UNorm
	FormatRG16F
	FormatRGBA16F
	FormatRGBA32F
	FormatD24S8
	FormatD32F
)

var formatNames = []string{"Undefined", "RGBA8_UNorm", "RGBA8_SRGB", "BGRA8_UNorm", "RG16F",
	"RGBA16F", "RGBA32F", "D24S8", "D32F"}

func (f ImageFormat) String() string {
	return enumString(f, formatNames)
}

// ParseImageFormat looks a format up by name, ignoring case.
func ParseImageFormat(s string) (ImageFormat, error) {
	i, err := parseEnum(s, formatNames, "image format")
	return ImageFormat(i), err
}

// BytesPerPixel returns the texel size of f.
func (f ImageFormat) BytesPerPixel() uint32 {
	switch f {
	case FormatRGBA8UNorm, FormatRGBA8SRGB, FormatBGRA8UNorm, FormatRG16F, FormatD24S8, FormatD32F:
		return 4
	case FormatRGBA16F:
		return 8
	case FormatRGBA32F:
		return 16
	}
	return 0
}

// IsDepth reports whether f has a depth aspect.
func (f ImageFormat) IsDepth() bool {
	return f == FormatD24S8 || f == FormatD32F
}

// HasStencil reports whether f has a stencil aspect.
func (f ImageFormat) HasStencil() bool {
	return f == FormatD24S8
}

type MemoryUsage uint8

const (
	MemoryDeviceLocal MemoryUsage = iota
	MemoryHostToDevice
	MemoryDeviceToHost
)

func (m MemoryUsage) String() string {
	return enumString(m, []string{"DeviceLocal", "HostToDevice", "DeviceToHost"})
}

// HostVisible reports whether buffers in m can be mapped.
func (m MemoryUsage) HostVisible() bool {
	return m == MemoryHostToDevice || m == MemoryDeviceToHost
}

type PipelineType uint8

const (
	PipelineGraphics PipelineType = iota
	PipelineCompute
	PipelineRayTracing
)

func (t PipelineType) String() string {
	return enumString(t, []string{"Graphics", "Compute", "RayTracing"})
}

type PrimitiveTopology uint8

const (
	TopologyTriangleList PrimitiveTopology = iota
	TopologyTriangleStrip
	TopologyTriangleFan
	TopologyPointList
	TopologyLineList
	TopologyLineStrip
)

func (t PrimitiveTopology) String() string {
	return enumString(t, []string{"TriangleList", "TriangleStrip", "TriangleFan", "PointList", "LineList", "LineStrip"})
}

// QueueType is a mask of queue capabilities.
type QueueType uint8

const (
	QueueGraphics QueueType = 1 << iota
	QueueCompute
	QueueTransfer
	QueuePresent
)

func (q QueueType) String() string {
	return flagString(uint32(q), []string{"Graphics", "Compute", "Transfer", "Present"})
}

// ResourceState is the usage a Buffer or Image is transitioned into.
type ResourceState uint8

const (
	StateUndefined ResourceState = iota
	StateVertexBuffer
	StateIndexBuffer
	StateConstantBuffer
	StateShaderResource
	StateUnorderedAccess
	StateRenderTarget
	StateDepthStencil
	StateCopySrc
	StateCopyDst
	StatePresent
)

func (s ResourceState) String() string {
	return enumString(s, []string{"Undefined", "VertexBuffer", "IndexBuffer", "ConstantBuffer",
		"ShaderResource", "UnorderedAccess", "RenderTarget", "DepthStencil", "CopySrc", "CopyDst", "Present"})
}

// ShaderStage is a mask of programmable stages.
type ShaderStage uint16

const (
	StageVertex ShaderStage = 1 << iota
	StageGeometry
	StageTessellationControl
	StageTessellationEvaluation
	StageFragment
	StageCompute
	StageRayGen
	StageRayHit
	StageRayMiss
)

func (s ShaderStage) String() string {
	return flagString(uint32(s), []string{"Vertex", "Geometry", "TessellationControl",
		"TessellationEvaluation", "Fragment", "Compute", "RayGen", "RayHit", "RayMiss"})
}

// Single reports whether exactly one stage bit is set.
func (s ShaderStage) Single() bool {
	return s != 0 && s&(s-1) == 0
}

func enumString[T ~uint8](v T, names []string) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%d", uint8(v))
}

func flagString(v uint32, names []string) string {
	if v == 0 {
		return "0"
	}
	var parts []string
	for i, n := range names {
		if v&(1<<i) != 0 {
			parts = append(parts, n)
			v &^= 1 << i
		}
	}
	if v != 0 {
		parts = append(parts, fmt.Sprintf("%#x", v))
	}
	return strings.Join(parts, "|")
}

func parseEnum(s string, names []string, what string) (int, error) {
	for i, n := range names {
		if strings.EqualFold(n, s) {
			return i, nil
		}
	}
	return 0, errors.Newf("unknown %s %q", what, s)
}
