package vulkan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

func TestBarrierSameState(t *testing.T) {
	_, ok := barrierFor(glal.StateRenderTarget, glal.StateRenderTarget)
	assert.False(t, ok)
}

func TestBarrierFromUndefined(t *testing.T) {
	b, ok := barrierFor(glal.StateUndefined, glal.StateCopyDst)
	require.True(t, ok)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), b.srcStage)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTransferBit), b.dstStage)
	assert.Zero(t, b.srcAccess)
	assert.Equal(t, vk.AccessFlags(vk.AccessTransferWriteBit), b.dstAccess)
	assert.Equal(t, vk.ImageLayoutUndefined, b.oldLayout)
	assert.Equal(t, vk.ImageLayoutTransferDstOptimal, b.newLayout)
}

func TestBarrierToPresent(t *testing.T) {
	b, ok := barrierFor(glal.StateRenderTarget, glal.StatePresent)
	require.True(t, ok)
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit), b.srcStage)
	assert.Equal(t, vk.AccessFlags(vk.AccessColorAttachmentReadBit|vk.AccessColorAttachmentWriteBit), b.srcAccess)
	assert.Zero(t, b.dstAccess)
	assert.Equal(t, vk.ImageLayoutColorAttachmentOptimal, b.oldLayout)
	assert.Equal(t, vk.ImageLayoutPresentSrc, b.newLayout)
}

func TestBarrierUploadThenSample(t *testing.T) {
	b, ok := barrierFor(glal.StateCopyDst, glal.StateShaderResource)
	require.True(t, ok)
	assert.Equal(t, vk.AccessFlags(vk.AccessTransferWriteBit), b.srcAccess)
	assert.Equal(t, vk.AccessFlags(vk.AccessShaderReadBit), b.dstAccess)
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, layoutOf(glal.StateShaderResource))
	assert.Equal(t, vk.ImageLayoutGeneral, layoutOf(glal.StateUnorderedAccess))
}

func TestTransitionAllowed(t *testing.T) {
	cases := []struct {
		kind  glal.Kind
		state glal.ResourceState
		want  bool
	}{
		{glal.KindBuffer, glal.StateVertexBuffer, true},
		{glal.KindBuffer, glal.StateConstantBuffer, true},
		{glal.KindBuffer, glal.StateCopySrc, true},
		{glal.KindBuffer, glal.StateRenderTarget, false},
		{glal.KindBuffer, glal.StatePresent, false},
		{glal.KindImage, glal.StateRenderTarget, true},
		{glal.KindImage, glal.StateDepthStencil, true},
		{glal.KindImage, glal.StatePresent, true},
		{glal.KindImage, glal.StateIndexBuffer, false},
		{glal.KindImage, glal.StateUndefined, false},
		{glal.KindImage, glal.ResourceState(200), false},
		{glal.KindSampler, glal.StateShaderResource, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, transitionAllowed(c.kind, c.state), "%v to %v", c.kind, c.state)
	}
}

func TestImageBarrierCoversSubresources(t *testing.T) {
	img := &Image{desc: glal.ImageDesc{Format: glal.FormatD24S8, MipLevelCount: 3, ArrayLayerCount: 2}}
	b, _ := barrierFor(glal.StateUndefined, glal.StateDepthStencil)
	ib := b.imageBarrier(img)
	assert.Equal(t, vk.ImageLayoutDepthStencilAttachmentOptimal, ib.NewLayout)
	assert.Equal(t, uint32(3), ib.SubresourceRange.LevelCount)
	assert.Equal(t, uint32(2), ib.SubresourceRange.LayerCount)
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit|vk.ImageAspectStencilBit), ib.SubresourceRange.AspectMask)
	assert.Equal(t, uint32(vk.QueueFamilyIgnored), ib.SrcQueueFamilyIndex)
}
