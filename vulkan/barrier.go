package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

// usage is the synchronization scope and image layout of one resource
// state.
type usage struct {
	stage  vk.PipelineStageFlags
	access vk.AccessFlags
	layout vk.ImageLayout
}

const shaderPipelineStages = vk.PipelineStageVertexShaderBit | vk.PipelineStageFragmentShaderBit | vk.PipelineStageComputeShaderBit

var usages = [...]usage{
	glal.StateUndefined: {
		stage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		layout: vk.ImageLayoutUndefined,
	},
	glal.StateVertexBuffer: {
		stage:  vk.PipelineStageFlags(vk.PipelineStageVertexInputBit),
		access: vk.AccessFlags(vk.AccessVertexAttributeReadBit),
	},
	glal.StateIndexBuffer: {
		stage:  vk.PipelineStageFlags(vk.PipelineStageVertexInputBit),
		access: vk.AccessFlags(vk.AccessIndexReadBit),
	},
	glal.StateConstantBuffer: {
		stage:  vk.PipelineStageFlags(shaderPipelineStages),
		access: vk.AccessFlags(vk.AccessUniformReadBit),
	},
	glal.StateShaderResource: {
		stage:  vk.PipelineStageFlags(shaderPipelineStages),
		access: vk.AccessFlags(vk.AccessShaderReadBit),
		layout: vk.ImageLayoutShaderReadOnlyOptimal,
	},
	glal.StateUnorderedAccess: {
		stage:  vk.PipelineStageFlags(shaderPipelineStages),
		access: vk.AccessFlags(vk.AccessShaderReadBit | vk.AccessShaderWriteBit),
		layout: vk.ImageLayoutGeneral,
	},
	glal.StateRenderTarget: {
		stage:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		access: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
		layout: vk.ImageLayoutColorAttachmentOptimal,
	},
	glal.StateDepthStencil: {
		stage:  vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit),
		access: vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
		layout: vk.ImageLayoutDepthStencilAttachmentOptimal,
	},
	glal.StateCopySrc: {
		stage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		access: vk.AccessFlags(vk.AccessTransferReadBit),
		layout: vk.ImageLayoutTransferSrcOptimal,
	},
	glal.StateCopyDst: {
		stage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		access: vk.AccessFlags(vk.AccessTransferWriteBit),
		layout: vk.ImageLayoutTransferDstOptimal,
	},
	glal.StatePresent: {
		stage:  vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		layout: vk.ImageLayoutPresentSrc,
	},
}

// barrier is the dependency recorded by one transition.
type barrier struct {
	srcStage, dstStage   vk.PipelineStageFlags
	srcAccess, dstAccess vk.AccessFlags
	oldLayout, newLayout vk.ImageLayout
}

// barrierFor plans the dependency between a resource last used as from
// and its next use as to. ok is false when no barrier is needed.
func barrierFor(from, to glal.ResourceState) (b barrier, ok bool) {
	if from == to {
		return barrier{}, false
	}
	src, dst := usages[from], usages[to]
	b = barrier{
		srcStage:  src.stage,
		dstStage:  dst.stage,
		srcAccess: src.access,
		dstAccess: dst.access,
		oldLayout: src.layout,
		newLayout: dst.layout,
	}
	// Contents of an undefined image are discarded, so there is nothing to
	// wait for.
	if from == glal.StateUndefined {
		b.srcAccess = 0
	}
	return b, true
}

// layoutOf returns the image layout of state s.
func layoutOf(s glal.ResourceState) vk.ImageLayout {
	return usages[s].layout
}

// transitionAllowed reports whether a resource of kind may enter state s.
func transitionAllowed(kind glal.Kind, s glal.ResourceState) bool {
	if int(s) >= len(usages) || s == glal.StateUndefined {
		return false
	}
	switch kind {
	case glal.KindBuffer:
		switch s {
		case glal.StateVertexBuffer, glal.StateIndexBuffer, glal.StateConstantBuffer,
			glal.StateShaderResource, glal.StateUnorderedAccess, glal.StateCopySrc, glal.StateCopyDst:
			return true
		}
	case glal.KindImage:
		switch s {
		case glal.StateShaderResource, glal.StateUnorderedAccess, glal.StateRenderTarget,
			glal.StateDepthStencil, glal.StateCopySrc, glal.StateCopyDst, glal.StatePresent:
			return true
		}
	}
	return false
}

// imageBarrier builds the image memory barrier for b over every
// subresource of img.
func (b barrier) imageBarrier(img *Image) vk.ImageMemoryBarrier {
	return vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       b.srcAccess,
		DstAccessMask:       b.dstAccess,
		OldLayout:           b.oldLayout,
		NewLayout:           b.newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.image,
		SubresourceRange:    img.subresources(),
	}
}

func (b barrier) bufferBarrier(buf *Buffer) vk.BufferMemoryBarrier {
	return vk.BufferMemoryBarrier{
		SType:               vk.StructureTypeBufferMemoryBarrier,
		SrcAccessMask:       b.srcAccess,
		DstAccessMask:       b.dstAccess,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Buffer:              buf.buffer,
		Offset:              0,
		Size:                vk.DeviceSize(vk.WholeSize),
	}
}
