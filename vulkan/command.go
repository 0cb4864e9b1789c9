package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

// CommandBuffer records straight into a native command buffer allocated
// from its own pool. Guards and resource state tracking run at record
// time.
type CommandBuffer struct {
	object
	device *Device
	usage  glal.CommandBufferUsage
	state  glal.CommandBufferState
	pool   vk.CommandPool
	cmd    vk.CommandBuffer

	pipeline *Pipeline
	indexed  bool
	// swapchains lists the swapchains whose images the recording writes,
	// so that Submit can order their presentation after it.
	swapchains map[*Swapchain]bool
}

func newCommandBuffer(d *Device, usage glal.CommandBufferUsage) *CommandBuffer {
	c := &CommandBuffer{device: d, usage: usage}
	ret := vk.CreateCommandPool(d.device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: d.queue.family,
	}, nil, &c.pool)
	check(d.log, componentCommand, ret, "failed to create command pool")

	cmds := make([]vk.CommandBuffer, 1)
	ret = vk.AllocateCommandBuffers(d.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, cmds)
	check(d.log, componentCommand, ret, "failed to allocate command buffer")
	c.cmd = cmds[0]
	return c
}

// release frees the pool, and with it the command buffer.
func (c *CommandBuffer) release() {
	vk.DestroyCommandPool(c.device.device, c.pool, nil)
}

// Native returns the VkCommandBuffer.
func (c *CommandBuffer) Native() vk.CommandBuffer {
	return c.cmd
}

func (c *CommandBuffer) log() *glal.Logger {
	return c.device.log
}

func (c *CommandBuffer) requireRecording() {
	c.device.commandBuffers.Lookup(c.handle)
	if c.state != glal.CommandBufferRecording && c.state != glal.CommandBufferRenderPass {
		c.log().Fatalf(componentCommand, "command buffer is not recording")
	}
}

func (c *CommandBuffer) requireOutsideRenderPass(op string) {
	c.requireRecording()
	if c.state == glal.CommandBufferRenderPass {
		c.log().Fatalf(componentCommand, "%s inside a render pass", op)
	}
}

func (c *CommandBuffer) requirePipeline(typ glal.PipelineType) {
	if c.pipeline == nil {
		c.log().Fatalf(componentCommand, "pipeline not set")
	}
	if c.pipeline.desc.Type != typ {
		if typ == glal.PipelineGraphics {
			c.log().Fatalf(componentCommand, "pipeline is not graphics")
		}
		c.log().Fatalf(componentCommand, "pipeline is not compute")
	}
}

func (c *CommandBuffer) Usage() glal.CommandBufferUsage {
	return c.usage
}

func (c *CommandBuffer) State() glal.CommandBufferState {
	return c.state
}

// Begin starts recording. Beginning resets the native buffer implicitly,
// so the caller must have waited for any submission still using it.
func (c *CommandBuffer) Begin() {
	c.device.commandBuffers.Lookup(c.handle)
	if c.state == glal.CommandBufferRecording || c.state == glal.CommandBufferRenderPass {
		c.log().Fatalf(componentCommand, "command buffer is already recording")
	}
	c.Reset()
	var flags vk.CommandBufferUsageFlags
	if c.usage == glal.CommandBufferOnce {
		flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	ret := vk.BeginCommandBuffer(c.cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: flags,
	})
	check(c.log(), componentCommand, ret, "failed to begin command buffer")
	c.state = glal.CommandBufferRecording
}

func (c *CommandBuffer) End() {
	c.requireRecording()
	if c.state == glal.CommandBufferRenderPass {
		c.log().Fatalf(componentCommand, "render pass not ended")
	}
	check(c.log(), componentCommand, vk.EndCommandBuffer(c.cmd), "failed to end command buffer")
	c.state = glal.CommandBufferExecutable
}

// Reset drops the recording state. The native buffer is reset by the next
// Begin.
func (c *CommandBuffer) Reset() {
	c.state = glal.CommandBufferInitial
	c.pipeline = nil
	c.indexed = false
	c.swapchains = nil
}

// touch notes that img is written by the recording.
func (c *CommandBuffer) touch(img *Image) {
	if img.swapchain == nil {
		return
	}
	if c.swapchains == nil {
		c.swapchains = make(map[*Swapchain]bool)
	}
	c.swapchains[img.swapchain] = true
}

func (c *CommandBuffer) BeginRenderPass(desc glal.RenderPassDesc) {
	c.requireOutsideRenderPass("render pass begun")
	if err := desc.Validate(); err != nil {
		c.log().Fatalf(componentCommand, "invalid render pass: %v", err)
	}
	d := c.device
	plan := planRenderPass(d, desc)
	pass := d.passes.renderPass(plan.key)
	fb := d.passes.framebuffer(pass, plan.views, plan.extent)
	extent := vk.Extent2D{Width: plan.extent.Width, Height: plan.extent.Height}

	vk.CmdBeginRenderPass(c.cmd, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      pass,
		Framebuffer:     fb,
		RenderArea:      vk.Rect2D{Extent: extent},
		ClearValueCount: uint32(len(plan.clears)),
		PClearValues:    plan.clears,
	}, vk.SubpassContentsInline)
	vk.CmdSetViewport(c.cmd, 0, 1, []vk.Viewport{{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MaxDepth: 1.0,
	}})
	vk.CmdSetScissor(c.cmd, 0, 1, []vk.Rect2D{{Extent: extent}})

	for i, v := range plan.views {
		v.image.state = plan.finals[i]
		c.touch(v.image)
	}
	c.state = glal.CommandBufferRenderPass
}

func (c *CommandBuffer) EndRenderPass() {
	c.requireRecording()
	if c.state != glal.CommandBufferRenderPass {
		c.log().Fatalf(componentCommand, "no render pass to end")
	}
	vk.CmdEndRenderPass(c.cmd)
	c.state = glal.CommandBufferRecording
}

func (c *CommandBuffer) BindPipeline(pipeline glal.Pipeline) {
	c.requireRecording()
	p := resolve(c.log(), c.device.pipelines, pipeline, glal.KindPipeline)
	vk.CmdBindPipeline(c.cmd, p.bindPoint, p.pipeline)
	c.pipeline = p
}

func (c *CommandBuffer) BindVertexBuffer(buffer glal.Buffer, offset uint64) {
	c.requireRecording()
	log := c.log()
	if c.pipeline == nil {
		log.Fatalf(componentCommand, "pipeline not set")
	}
	b := resolve(log, c.device.buffers, buffer, glal.KindBuffer)
	if b.desc.Usage&glal.UsageVertex == 0 {
		log.Fatalf(componentCommand, "buffer %v lacks vertex usage", b.handle)
	}
	vk.CmdBindVertexBuffers(c.cmd, 0, 1, []vk.Buffer{b.buffer}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (c *CommandBuffer) BindIndexBuffer(buffer glal.Buffer, typ glal.DataType) {
	c.requireRecording()
	log := c.log()
	b := resolve(log, c.device.buffers, buffer, glal.KindBuffer)
	if b.desc.Usage&glal.UsageIndex == 0 {
		log.Fatalf(componentCommand, "buffer %v lacks index usage", b.handle)
	}
	indexType := translate(log, componentCommand, vkIndexTypes, typ, "index type")
	vk.CmdBindIndexBuffer(c.cmd, b.buffer, 0, indexType)
	c.indexed = true
}

// BindDescriptorSet flushes pending writes and binds the native set of
// each layout at set plus its position.
func (c *CommandBuffer) BindDescriptorSet(set uint32, descriptors glal.DescriptorSet) {
	c.requireRecording()
	log := c.log()
	s := resolve(log, c.device.descriptorSets, descriptors, glal.KindDescriptorSet)
	if c.pipeline == nil {
		log.Fatalf(componentCommand, "pipeline not set")
	}
	s.requirePlacement(set)
	s.flush()
	vk.CmdBindDescriptorSets(c.cmd, c.pipeline.bindPoint, c.pipeline.layout.layout,
		set, uint32(len(s.sets)), s.sets, 0, nil)
}

func (c *CommandBuffer) requireDraw() {
	c.requireRecording()
	c.requirePipeline(glal.PipelineGraphics)
	if c.state != glal.CommandBufferRenderPass {
		c.log().Fatalf(componentCommand, "draw outside a render pass")
	}
}

func (c *CommandBuffer) Draw(vertexCount, firstVertex uint32) {
	c.requireDraw()
	vk.CmdDraw(c.cmd, vertexCount, 1, firstVertex, 0)
}

func (c *CommandBuffer) DrawIndexed(indexCount, firstIndex uint32) {
	c.requireDraw()
	if !c.indexed {
		c.log().Fatalf(componentCommand, "index buffer not set")
	}
	vk.CmdDrawIndexed(c.cmd, indexCount, 1, firstIndex, 0, 0)
}

func (c *CommandBuffer) Dispatch(x, y, z uint32) {
	c.requireOutsideRenderPass("dispatch")
	c.requirePipeline(glal.PipelineCompute)
	vk.CmdDispatch(c.cmd, x, y, z)
}

func (c *CommandBuffer) CopyBuffer(src, dst glal.Buffer, srcOffset, dstOffset, size uint64) {
	c.requireOutsideRenderPass("copy")
	log := c.log()
	log.Assert(src != nil, componentCommand, "missing src buffer")
	log.Assert(dst != nil, componentCommand, "missing dst buffer")
	s := resolve(log, c.device.buffers, src, glal.KindBuffer)
	d := resolve(log, c.device.buffers, dst, glal.KindBuffer)
	if !glal.InRange(srcOffset, size, s.desc.Size) || !glal.InRange(dstOffset, size, d.desc.Size) {
		log.Fatalf(componentCommand, "copy of %d bytes from offset %d to offset %d is out of range", size, srcOffset, dstOffset)
	}
	vk.CmdCopyBuffer(c.cmd, s.buffer, d.buffer, 1, []vk.BufferCopy{{
		SrcOffset: vk.DeviceSize(srcOffset),
		DstOffset: vk.DeviceSize(dstOffset),
		Size:      vk.DeviceSize(size),
	}})
}

// CopyBufferToImage fills mip level 0 of every layer of dst with tightly
// packed texels, transitioning dst to CopyDst first.
func (c *CommandBuffer) CopyBufferToImage(src glal.Buffer, dst glal.Image) {
	c.requireOutsideRenderPass("copy")
	log := c.log()
	log.Assert(src != nil, componentCommand, "missing src buffer")
	log.Assert(dst != nil, componentCommand, "missing dst image")
	s := resolve(log, c.device.buffers, src, glal.KindBuffer)
	img := resolve(log, c.device.images, dst, glal.KindImage)
	if img.desc.Format.IsDepth() {
		log.Fatalf(componentCommand, "copy into a %v image not supported", img.desc.Format)
	}
	e := img.desc.Extent
	need := e.Texels() * uint64(img.desc.ArrayLayerCount) * uint64(img.desc.Format.BytesPerPixel())
	if s.desc.Size < need {
		log.Fatalf(componentCommand, "buffer %v of %d bytes cannot fill image %v of %d bytes", s.handle, s.desc.Size, img.handle, need)
	}
	c.transitionImage(img, glal.StateCopyDst)
	vk.CmdCopyBufferToImage(c.cmd, s.buffer, img.image, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: aspectMask(img.desc.Format),
			LayerCount: img.desc.ArrayLayerCount,
		},
		ImageExtent: vk.Extent3D{Width: e.Width, Height: max(e.Height, 1), Depth: max(e.Depth, 1)},
	}})
}

func (c *CommandBuffer) transitionImage(img *Image, state glal.ResourceState) {
	if b, ok := barrierFor(img.state, state); ok {
		vk.CmdPipelineBarrier(c.cmd, b.srcStage, b.dstStage, 0, 0, nil, 0, nil,
			1, []vk.ImageMemoryBarrier{b.imageBarrier(img)})
	}
	img.state = state
	c.touch(img)
}

func (c *CommandBuffer) transitionBuffer(buf *Buffer, state glal.ResourceState) {
	if b, ok := barrierFor(buf.state, state); ok {
		vk.CmdPipelineBarrier(c.cmd, b.srcStage, b.dstStage, 0, 0, nil,
			1, []vk.BufferMemoryBarrier{b.bufferBarrier(buf)}, 0, nil)
	}
	buf.state = state
}

// Transition records the barrier from the last recorded use of resource.
func (c *CommandBuffer) Transition(resource glal.Object, state glal.ResourceState) {
	c.requireOutsideRenderPass("transition")
	log := c.log()
	if resource == nil {
		log.Fatalf(componentCommand, "missing transition resource")
	}
	kind := resource.Handle().Kind
	switch kind {
	case glal.KindBuffer, glal.KindImage:
	default:
		log.Fatalf(componentCommand, "cannot transition a %v", kind)
	}
	if !transitionAllowed(kind, state) {
		log.Fatalf(componentCommand, "cannot transition a %v to %v", kind, state)
	}
	if kind == glal.KindBuffer {
		c.transitionBuffer(resolve(log, c.device.buffers, resource, glal.KindBuffer), state)
		return
	}
	c.transitionImage(resolve(log, c.device.images, resource, glal.KindImage), state)
}

func (c *CommandBuffer) SetViewport(v glal.Viewport) {
	c.requireRecording()
	vk.CmdSetViewport(c.cmd, 0, 1, []vk.Viewport{{
		X:        v.X,
		Y:        v.Y,
		Width:    v.Width,
		Height:   v.Height,
		MinDepth: v.MinDepth,
		MaxDepth: v.MaxDepth,
	}})
}

func (c *CommandBuffer) SetScissor(s glal.Rect2D) {
	c.requireRecording()
	vk.CmdSetScissor(c.cmd, 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{X: s.X, Y: s.Y},
		Extent: vk.Extent2D{Width: s.Width, Height: s.Height},
	}})
}
