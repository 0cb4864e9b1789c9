package glal

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func spirvHeader() []byte {
	code := make([]byte, 20)
	binary.LittleEndian.PutUint32(code, SPIRVMagic)
	binary.LittleEndian.PutUint32(code[4:], 0x00010000)
	return code
}

func TestBufferDescValidate(t *testing.T) {
	assert.NoError(t, BufferDesc{Size: 64, Usage: UsageUniform}.Validate())
	assert.Error(t, BufferDesc{Usage: UsageUniform}.Validate())
	assert.Error(t, BufferDesc{Size: 64}.Validate())
}

func TestInRange(t *testing.T) {
	assert.True(t, InRange(0, 16, 16))
	assert.True(t, InRange(12, 4, 16))
	assert.True(t, InRange(16, 0, 16))
	assert.False(t, InRange(13, 4, 16))
	assert.False(t, InRange(0, 17, 16))
	assert.False(t, InRange(math.MaxUint64, 2, 16), "offset wraps")
	assert.False(t, InRange(2, math.MaxUint64, 16), "size wraps")
	assert.False(t, InRange(math.MaxUint64-3, 8, math.MaxUint64))
}

func TestImageDescValidate(t *testing.T) {
	ok := ImageDesc{Format: FormatRGBA8UNorm, Dimension: Image2D, Extent: Extent3D{800, 600, 1}, MipLevelCount: 1, ArrayLayerCount: 1}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.Dimension = Image1D
	assert.Error(t, bad.Validate(), "1D image with a height")

	bad = ok
	bad.MipLevelCount = 0
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Format = FormatUndefined
	assert.Error(t, bad.Validate())

	vol := ImageDesc{Format: FormatRGBA32F, Dimension: Image3D, Extent: Extent3D{4, 4, 4}, MipLevelCount: 1, ArrayLayerCount: 2}
	assert.Error(t, vol.Validate())
}

func TestShaderModuleDescValidate(t *testing.T) {
	code := spirvHeader()
	assert.NoError(t, ShaderModuleDesc{Stage: StageVertex, Code: code, Size: uint64(len(code))}.Validate())
	assert.Error(t, ShaderModuleDesc{Stage: StageVertex | StageFragment, Code: code, Size: uint64(len(code))}.Validate())
	assert.Error(t, ShaderModuleDesc{Stage: StageVertex, Code: code, Size: 4}.Validate())
	assert.Error(t, ShaderModuleDesc{Stage: StageVertex, Code: code[:18], Size: 18}.Validate())

	bad := append([]byte(nil), code...)
	bad[0] = 0
	assert.Error(t, ShaderModuleDesc{Stage: StageVertex, Code: bad, Size: uint64(len(bad))}.Validate())

	words := ShaderModuleDesc{Code: code}.Words()
	assert.Equal(t, uint32(SPIRVMagic), words[0])
}

func TestDescriptorSetLayoutDescValidate(t *testing.T) {
	b := DescriptorBinding{Binding: 0, Type: DescriptorUniformBuffer, Count: 1, Stages: StageVertex}
	assert.NoError(t, DescriptorSetLayoutDesc{Bindings: []DescriptorBinding{b}}.Validate())
	assert.Error(t, DescriptorSetLayoutDesc{}.Validate())
	assert.Error(t, DescriptorSetLayoutDesc{Bindings: []DescriptorBinding{b, b}}.Validate())

	high := b
	high.Binding = BindingStride
	assert.Error(t, DescriptorSetLayoutDesc{Bindings: []DescriptorBinding{high}}.Validate())

	noStage := b
	noStage.Stages = 0
	assert.Error(t, DescriptorSetLayoutDesc{Bindings: []DescriptorBinding{noStage}}.Validate())
}

func TestSwapchainDescValidate(t *testing.T) {
	d := SwapchainDesc{NativeWindowHandle: struct{}{}, Extent: Extent2D{800, 600}, Format: FormatBGRA8UNorm, ImageCount: 2}
	assert.NoError(t, d.Validate())
	d.ImageCount = 0
	assert.Error(t, d.Validate())
	d.ImageCount = 2
	d.Format = FormatD32F
	assert.Error(t, d.Validate())
}

func TestVertexStride(t *testing.T) {
	attrs := []VertexAttribute{
		{Location: 0, Type: TypeFloat, Count: 2},
		{Location: 1, Type: TypeFloat, Count: 3},
	}
	assert.Equal(t, uint32(20), VertexStride(attrs, 0))
	assert.Equal(t, uint32(0), VertexStride(attrs, 1))

	strides := BindingStrides(PipelineDesc{
		VertexAttributes: append(attrs, VertexAttribute{Binding: 1, Location: 2, Type: TypeUInt8, Count: 4}),
		VertexBindings:   []VertexBinding{{Binding: 1, Stride: 16, Instance: true}},
	})
	assert.Equal(t, map[uint32]uint32{0: 20, 1: 16}, strides)
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "Vertex|Fragment", (StageVertex | StageFragment).String())
	assert.Equal(t, "RGBA8_UNorm", FormatRGBA8UNorm.String())
	assert.Equal(t, uint32(4), TypeFloat.Size())
	assert.True(t, TypeUInt8.Normalized())
	f, err := ParseDeviceFeature("geometryshader")
	assert.NoError(t, err)
	assert.Equal(t, FeatureGeometryShader, f)
}
