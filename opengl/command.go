package opengl

import (
	"github.com/andewx/glal"
)

// replay is the context state threaded through recorded commands when a
// command buffer is executed.
type replay struct {
	gl        GL
	vao       uint32
	fb        uint32
	indexType uint32
	indexSize int
}

type command func(r *replay)

// CommandBuffer records commands as closures. Every guard runs at record
// time; Queue.Submit replays the list on the context.
type CommandBuffer struct {
	object
	device   *Device
	usage    glal.CommandBufferUsage
	state    glal.CommandBufferState
	commands []command

	pipeline *Pipeline
	indexed  bool
}

func (c *CommandBuffer) log() *glal.Logger {
	return c.device.log
}

func (c *CommandBuffer) record(cmd command) {
	c.commands = append(c.commands, cmd)
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

// Begin starts recording. An executable buffer is reset implicitly.
func (c *CommandBuffer) Begin() {
	c.device.commandBuffers.Lookup(c.handle)
	if c.state == glal.CommandBufferRecording || c.state == glal.CommandBufferRenderPass {
		c.log().Fatalf(componentCommand, "command buffer is already recording")
	}
	c.Reset()
	c.state = glal.CommandBufferRecording
}

func (c *CommandBuffer) End() {
	c.requireRecording()
	if c.state == glal.CommandBufferRenderPass {
		c.log().Fatalf(componentCommand, "render pass not ended")
	}
	c.state = glal.CommandBufferExecutable
}

func (c *CommandBuffer) Reset() {
	c.state = glal.CommandBufferInitial
	c.commands = nil
	c.pipeline = nil
	c.indexed = false
}

type attachment struct {
	point uint32
	image *Image
	glal.RenderTarget
}

func (c *CommandBuffer) BeginRenderPass(desc glal.RenderPassDesc) {
	c.requireOutsideRenderPass("render pass begun")
	log := c.log()
	if err := desc.Validate(); err != nil {
		log.Fatalf(componentCommand, "invalid render pass: %v", err)
	}
	log.Assert(len(desc.Depth) <= 1, componentCommand, "opengl only supports one depth attachment per render pass")
	log.Assert(len(desc.Stencil) <= 1, componentCommand, "opengl only supports one stencil attachment per render pass")

	var attachments []attachment
	add := func(point uint32, t glal.RenderTarget) {
		v := resolve(log, c.device.views, t.View, glal.KindImageView)
		attachments = append(attachments, attachment{point: point, image: v.image, RenderTarget: t})
	}
	for i, t := range desc.Color {
		add(COLOR_ATTACHMENT0+uint32(i), t)
	}
	for _, t := range desc.Depth {
		add(DEPTH_ATTACHMENT, t)
	}
	for _, t := range desc.Stencil {
		add(STENCIL_ATTACHMENT, t)
	}
	extent := desc.Extent()

	c.record(func(r *replay) {
		gl := r.gl
		r.fb = gl.CreateFramebuffer()
		var draw []uint32
		for _, a := range attachments {
			gl.NamedFramebufferTexture(r.fb, a.point, a.image.id, 0)
			if a.point >= COLOR_ATTACHMENT0 && a.point < DEPTH_ATTACHMENT {
				draw = append(draw, a.point)
			}
		}
		gl.NamedFramebufferDrawBuffers(r.fb, draw)
		if gl.CheckNamedFramebufferStatus(r.fb, FRAMEBUFFER) != FRAMEBUFFER_COMPLETE {
			log.Fatalf(componentCommand, "incomplete framebuffer")
		}
		color := int32(0)
		for _, a := range attachments {
			switch a.point {
			case DEPTH_ATTACHMENT:
				if a.Clear {
					gl.DepthMask(true)
					gl.ClearNamedFramebufferfv(r.fb, DEPTH, 0, [4]float32{a.Value.Depth})
				}
			case STENCIL_ATTACHMENT:
				if a.Clear {
					gl.ClearNamedFramebufferiv(r.fb, STENCIL, 0, int32(a.Value.Stencil))
				}
			default:
				if a.Clear {
					gl.ClearNamedFramebufferfv(r.fb, COLOR, color, a.Value.Color)
				}
				color++
			}
		}
		gl.BindFramebuffer(FRAMEBUFFER, r.fb)
		gl.Viewport(0, 0, int32(extent.Width), int32(extent.Height))
	})
	c.state = glal.CommandBufferRenderPass
}

func (c *CommandBuffer) EndRenderPass() {
	c.requireRecording()
	if c.state != glal.CommandBufferRenderPass {
		c.log().Fatalf(componentCommand, "no render pass to end")
	}
	c.record(func(r *replay) {
		r.gl.BindFramebuffer(FRAMEBUFFER, 0)
		r.gl.DeleteFramebuffer(r.fb)
		r.fb = 0
	})
	c.state = glal.CommandBufferRecording
}

func (c *CommandBuffer) BindPipeline(pipeline glal.Pipeline) {
	c.requireRecording()
	p := resolve(c.log(), c.device.pipelines, pipeline, glal.KindPipeline)
	c.record(func(r *replay) {
		p.bind(r.gl, r.vao)
	})
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
	stride := int32(c.pipeline.stride(0))
	c.record(func(r *replay) {
		r.gl.VertexArrayVertexBuffer(r.vao, 0, b.id, int(offset), stride)
	})
}

func (c *CommandBuffer) BindIndexBuffer(buffer glal.Buffer, typ glal.DataType) {
	c.requireRecording()
	log := c.log()
	b := resolve(log, c.device.buffers, buffer, glal.KindBuffer)
	if b.desc.Usage&glal.UsageIndex == 0 {
		log.Fatalf(componentCommand, "buffer %v lacks index usage", b.handle)
	}
	var xtype uint32
	switch typ {
	case glal.TypeUInt8:
		xtype = UNSIGNED_BYTE
	case glal.TypeUInt16:
		xtype = UNSIGNED_SHORT
	case glal.TypeUInt32:
		xtype = UNSIGNED_INT
	default:
		log.Fatalf(componentCommand, "index type %v not supported", typ)
	}
	size := int(typ.Size())
	c.record(func(r *replay) {
		r.gl.VertexArrayElementBuffer(r.vao, b.id)
		r.indexType, r.indexSize = xtype, size
	})
	c.indexed = true
}

func (c *CommandBuffer) BindDescriptorSet(set uint32, descriptors glal.DescriptorSet) {
	c.requireRecording()
	s := resolve(c.log(), c.device.descriptorSets, descriptors, glal.KindDescriptorSet)
	s.requirePlacement(set)
	snapshot := s.snapshot()
	c.record(func(r *replay) {
		bindDescriptors(r.gl, set, snapshot)
	})
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
	mode := c.pipeline.mode
	c.record(func(r *replay) {
		r.gl.BindVertexArray(r.vao)
		r.gl.DrawArrays(mode, int32(firstVertex), int32(vertexCount))
	})
}

func (c *CommandBuffer) DrawIndexed(indexCount, firstIndex uint32) {
	c.requireDraw()
	if !c.indexed {
		c.log().Fatalf(componentCommand, "index buffer not set")
	}
	mode := c.pipeline.mode
	c.record(func(r *replay) {
		r.gl.BindVertexArray(r.vao)
		r.gl.DrawElementsBaseVertex(mode, int32(indexCount), r.indexType, int(firstIndex)*r.indexSize, 0)
	})
}

func (c *CommandBuffer) Dispatch(x, y, z uint32) {
	c.requireOutsideRenderPass("dispatch")
	c.requirePipeline(glal.PipelineCompute)
	c.record(func(r *replay) {
		r.gl.DispatchCompute(x, y, z)
	})
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
	c.record(func(r *replay) {
		r.gl.CopyNamedBufferSubData(s.id, d.id, int(srcOffset), int(dstOffset), int(size))
	})
}

func (c *CommandBuffer) CopyBufferToImage(src glal.Buffer, dst glal.Image) {
	c.requireOutsideRenderPass("copy")
	log := c.log()
	log.Assert(src != nil, componentCommand, "missing src buffer")
	log.Assert(dst != nil, componentCommand, "missing dst image")
	s := resolve(log, c.device.buffers, src, glal.KindBuffer)
	img := resolve(log, c.device.images, dst, glal.KindImage)
	if need := img.byteSize(); s.desc.Size < need {
		log.Fatalf(componentCommand, "buffer %v of %d bytes cannot fill image %v of %d bytes", s.handle, s.desc.Size, img.handle, need)
	}
	c.record(func(r *replay) {
		r.gl.BindBuffer(PIXEL_UNPACK_BUFFER, s.id)
		r.gl.PixelStorei(UNPACK_ALIGNMENT, 1)
		img.upload(nil)
		r.gl.BindBuffer(PIXEL_UNPACK_BUFFER, 0)
	})
}

// Transition only checks ownership: the context orders all accesses.
func (c *CommandBuffer) Transition(resource glal.Object, state glal.ResourceState) {
	c.requireRecording()
	log := c.log()
	if resource == nil {
		log.Fatalf(componentCommand, "missing transition resource")
	}
	switch resource.Handle().Kind {
	case glal.KindBuffer:
		resolve(log, c.device.buffers, resource, glal.KindBuffer)
	case glal.KindImage:
		resolve(log, c.device.images, resource, glal.KindImage)
	default:
		log.Fatalf(componentCommand, "cannot transition a %v", resource.Handle().Kind)
	}
}

func (c *CommandBuffer) SetViewport(v glal.Viewport) {
	c.requireRecording()
	c.record(func(r *replay) {
		r.gl.Viewport(int32(v.X), int32(v.Y), int32(v.Width), int32(v.Height))
	})
}

func (c *CommandBuffer) SetScissor(s glal.Rect2D) {
	c.requireRecording()
	c.record(func(r *replay) {
		r.gl.Enable(SCISSOR_TEST)
		r.gl.Scissor(s.X, s.Y, int32(s.Width), int32(s.Height))
	})
}

// execute replays the recorded commands inside a fresh vertex array.
func (c *CommandBuffer) execute() {
	gl := c.device.gl
	r := &replay{gl: gl}
	r.vao = gl.CreateVertexArray()
	gl.BindVertexArray(r.vao)
	for _, cmd := range c.commands {
		cmd(r)
	}
	gl.UseProgram(0)
	gl.BindVertexArray(0)
	gl.DeleteVertexArray(r.vao)
	gl.Disable(SCISSOR_TEST)
}
