package vulkan

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

func panicLogger() *glal.Logger {
	log := glal.NewLogger(&bytes.Buffer{}, glal.LevelVerbose)
	log.SetFatalHandler(glal.PanicOnFatal)
	return log
}

func requireFatal(t *testing.T, fn func()) string {
	t.Helper()
	err := glal.Recover(fn)
	require.Error(t, err, "expected a fatal diagnostic")
	return err.Error()
}

func TestFormatsRoundTrip(t *testing.T) {
	for f := glal.FormatRGBA8UNorm; f <= glal.FormatD32F; f++ {
		native, ok := vkFormats[f]
		require.True(t, ok, "format %v has no native equivalent", f)
		back, ok := fromVkFormat(native)
		require.True(t, ok)
		assert.Equal(t, f, back)
	}
	_, ok := fromVkFormat(vk.FormatA2b10g10r10UnormPack32)
	assert.False(t, ok)
}

func TestVertexFormat(t *testing.T) {
	log := panicLogger()
	assert.Equal(t, vk.FormatR32g32b32Sfloat, vertexFormat(log, glal.VertexAttribute{Type: glal.TypeFloat, Count: 3}))
	assert.Equal(t, vk.FormatR8g8b8a8Unorm, vertexFormat(log, glal.VertexAttribute{Type: glal.TypeUInt8, Count: 4}))
	assert.Equal(t, vk.FormatR16g16Sfloat, vertexFormat(log, glal.VertexAttribute{Type: glal.TypeHalf, Count: 2}))

	msg := requireFatal(t, func() { vertexFormat(log, glal.VertexAttribute{Type: glal.TypeFixed, Count: 2}) })
	assert.Contains(t, msg, "vertex data type Fixed not supported")
	msg = requireFatal(t, func() { vertexFormat(log, glal.VertexAttribute{Location: 3, Type: glal.TypeFloat, Count: 5}) })
	assert.Contains(t, msg, "vertex attribute at location 3 has 5 components")
}

func TestTranslateUnsupported(t *testing.T) {
	log := panicLogger()
	assert.Equal(t, vk.IndexTypeUint16, translate(log, componentCommand, vkIndexTypes, glal.TypeUInt16, "index type"))

	msg := requireFatal(t, func() { translate(log, componentCommand, vkIndexTypes, glal.TypeUInt8, "index type") })
	assert.Contains(t, msg, "index type UInt8 not supported")
	msg = requireFatal(t, func() {
		translate(log, componentDescriptor, vkDescriptorTypes, glal.DescriptorPushConstant, "descriptor type")
	})
	assert.Contains(t, msg, "descriptor type PushConstant not supported")
}

func TestShaderStages(t *testing.T) {
	log := panicLogger()
	got := shaderStages(log, glal.StageVertex|glal.StageFragment)
	assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit), got)
	assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageComputeBit), shaderStages(log, glal.StageCompute))

	msg := requireFatal(t, func() { shaderStages(log, glal.StageVertex|glal.StageRayGen) })
	assert.Contains(t, msg, "shader stage RayGen not supported")
}

func TestAspectMask(t *testing.T) {
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectColorBit), aspectMask(glal.FormatRGBA8UNorm))
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit), aspectMask(glal.FormatD32F))
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit|vk.ImageAspectStencilBit), aspectMask(glal.FormatD24S8))
}

func TestViewType(t *testing.T) {
	assert.Equal(t, vk.ImageViewType1d, viewType(glal.Image1D, 1))
	assert.Equal(t, vk.ImageViewType1dArray, viewType(glal.Image1D, 4))
	assert.Equal(t, vk.ImageViewType2d, viewType(glal.Image2D, 1))
	assert.Equal(t, vk.ImageViewType2dArray, viewType(glal.Image2D, 6))
	assert.Equal(t, vk.ImageViewType3d, viewType(glal.Image3D, 1))
}

func TestBufferUsage(t *testing.T) {
	transfer := vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit | vk.BufferUsageTransferDstBit)
	assert.Equal(t, transfer|vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), bufferUsage(glal.UsageVertex))
	assert.Equal(t,
		transfer|vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit|vk.BufferUsageUniformBufferBit|vk.BufferUsageStorageBufferBit),
		bufferUsage(glal.UsageIndex|glal.UsageUniform|glal.UsageStorage))
}

func TestMemoryProperties(t *testing.T) {
	required, preferred := memoryProperties(glal.MemoryDeviceLocal)
	assert.Equal(t, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), required)
	assert.Equal(t, required, preferred)

	required, preferred = memoryProperties(glal.MemoryDeviceToHost)
	assert.NotZero(t, required&vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit))
	assert.NotZero(t, preferred&vk.MemoryPropertyFlags(vk.MemoryPropertyHostCachedBit))
	assert.Zero(t, required&vk.MemoryPropertyFlags(vk.MemoryPropertyHostCachedBit))
}

func TestImageUsage(t *testing.T) {
	depth := imageUsage(glal.FormatD24S8)
	assert.NotZero(t, depth&vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit))
	assert.Zero(t, depth&vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit))

	assert.NotZero(t, imageUsage(glal.FormatRGBA16F)&vk.ImageUsageFlags(vk.ImageUsageStorageBit))
	assert.Zero(t, imageUsage(glal.FormatRGBA8SRGB)&vk.ImageUsageFlags(vk.ImageUsageStorageBit))
}
