package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

const maxColorAttachments = 8

// attachmentKey is everything a render pass fixes about one attachment.
type attachmentKey struct {
	format  vk.Format
	load    vk.AttachmentLoadOp
	stencil vk.AttachmentLoadOp
	initial vk.ImageLayout
	final   vk.ImageLayout
}

func (k attachmentKey) description() vk.AttachmentDescription {
	return vk.AttachmentDescription{
		Format:         k.format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         k.load,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  k.stencil,
		StencilStoreOp: vk.AttachmentStoreOpStore,
		InitialLayout:  k.initial,
		FinalLayout:    k.final,
	}
}

type passKey struct {
	color    [maxColorAttachments]attachmentKey
	colors   int
	depth    attachmentKey
	hasDepth bool
}

type framebufferKey struct {
	pass          vk.RenderPass
	views         [maxColorAttachments + 1]vk.ImageView
	count         int
	width, height uint32
}

// passCache creates render passes and framebuffers on first use. Render
// passes live as long as the device; framebuffers go with their views.
type passCache struct {
	device       *Device
	passes       map[passKey]vk.RenderPass
	framebuffers map[framebufferKey]vk.Framebuffer
}

func newPassCache(d *Device) *passCache {
	return &passCache{
		device:       d,
		passes:       make(map[passKey]vk.RenderPass),
		framebuffers: make(map[framebufferKey]vk.Framebuffer),
	}
}

func (c *passCache) release() {
	dev := c.device.device
	for k, fb := range c.framebuffers {
		vk.DestroyFramebuffer(dev, fb, nil)
		delete(c.framebuffers, k)
	}
	for k, rp := range c.passes {
		vk.DestroyRenderPass(dev, rp, nil)
		delete(c.passes, k)
	}
}

// forgetView destroys every framebuffer that references view.
func (c *passCache) forgetView(view vk.ImageView) {
	for k, fb := range c.framebuffers {
		for _, v := range k.views[:k.count] {
			if v == view {
				vk.DestroyFramebuffer(c.device.device, fb, nil)
				delete(c.framebuffers, k)
				break
			}
		}
	}
}

// compatible returns a render pass pipelines targeting the given formats
// can be created against.
func (c *passCache) compatible(colors []glal.ImageFormat, depth glal.ImageFormat) vk.RenderPass {
	log := c.device.log
	if len(colors) > maxColorAttachments {
		log.Fatalf(componentPipeline, "%d color attachments exceed the limit of %d", len(colors), maxColorAttachments)
	}
	var key passKey
	for i, f := range colors {
		key.color[i] = attachmentKey{
			format:  translate(log, componentPipeline, vkFormats, f, "color format"),
			load:    vk.AttachmentLoadOpClear,
			stencil: vk.AttachmentLoadOpDontCare,
			initial: vk.ImageLayoutUndefined,
			final:   vk.ImageLayoutColorAttachmentOptimal,
		}
	}
	key.colors = len(colors)
	if depth != glal.FormatUndefined {
		key.hasDepth = true
		key.depth = attachmentKey{
			format:  translate(log, componentPipeline, vkFormats, depth, "depth format"),
			load:    vk.AttachmentLoadOpClear,
			stencil: vk.AttachmentLoadOpDontCare,
			initial: vk.ImageLayoutUndefined,
			final:   vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
	}
	return c.renderPass(key)
}

func (c *passCache) renderPass(key passKey) vk.RenderPass {
	if rp, ok := c.passes[key]; ok {
		return rp
	}
	var attachments []vk.AttachmentDescription
	var colorRefs []vk.AttachmentReference
	for _, a := range key.color[:key.colors] {
		colorRefs = append(colorRefs, vk.AttachmentReference{
			Attachment: uint32(len(attachments)),
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		})
		attachments = append(attachments, a.description())
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorRefs)),
		PColorAttachments:    colorRefs,
	}
	if key.hasDepth {
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: uint32(len(attachments)),
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
		attachments = append(attachments, key.depth.description())
	}

	attachmentStages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit |
		vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
	attachmentAccess := vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit |
		vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit)
	dependencies := []vk.SubpassDependency{
		{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
			DstStageMask:  attachmentStages,
			SrcAccessMask: vk.AccessFlags(vk.AccessMemoryWriteBit),
			DstAccessMask: attachmentAccess,
		},
		{
			SrcSubpass:    0,
			DstSubpass:    vk.SubpassExternal,
			SrcStageMask:  attachmentStages,
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
			SrcAccessMask: attachmentAccess,
			DstAccessMask: vk.AccessFlags(vk.AccessMemoryReadBit | vk.AccessMemoryWriteBit),
		},
	}

	var rp vk.RenderPass
	ret := vk.CreateRenderPass(c.device.device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}, nil, &rp)
	check(c.device.log, componentCommand, ret, "failed to create render pass")
	c.passes[key] = rp
	return rp
}

func (c *passCache) framebuffer(pass vk.RenderPass, views []*ImageView, extent glal.Extent2D) vk.Framebuffer {
	key := framebufferKey{pass: pass, count: len(views), width: extent.Width, height: extent.Height}
	native := make([]vk.ImageView, len(views))
	for i, v := range views {
		key.views[i] = v.view
		native[i] = v.view
	}
	if fb, ok := c.framebuffers[key]; ok {
		return fb
	}
	var fb vk.Framebuffer
	ret := vk.CreateFramebuffer(c.device.device, &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      pass,
		AttachmentCount: uint32(len(native)),
		PAttachments:    native,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}, nil, &fb)
	check(c.device.log, componentCommand, ret, "failed to create framebuffer")
	c.framebuffers[key] = fb
	return fb
}

// renderPassPlan is a render pass resolved against the tracked state of
// its attachments.
type renderPassPlan struct {
	key    passKey
	views  []*ImageView
	clears []vk.ClearValue
	extent glal.Extent2D
	// finals are the states the attachments are left in.
	finals []glal.ResourceState
}

func loadOp(clear bool) vk.AttachmentLoadOp {
	if clear {
		return vk.AttachmentLoadOpClear
	}
	return vk.AttachmentLoadOpLoad
}

// planRenderPass resolves desc. Depth and stencil share one attachment, so
// when both are given they must name the same view.
func planRenderPass(d *Device, desc glal.RenderPassDesc) renderPassPlan {
	log := d.log
	if len(desc.Color) > maxColorAttachments {
		log.Fatalf(componentCommand, "%d color attachments exceed the limit of %d", len(desc.Color), maxColorAttachments)
	}
	if len(desc.Depth) > 1 || len(desc.Stencil) > 1 {
		log.Fatalf(componentCommand, "vulkan only supports one depth stencil attachment per render pass")
	}
	plan := renderPassPlan{extent: desc.Extent()}
	add := func(t glal.RenderTarget) *ImageView {
		v := resolve(log, d.views, t.View, glal.KindImageView)
		if v.image.desc.Extent.Extent2D() != plan.extent {
			log.Fatalf(componentCommand, "incomplete framebuffer: attachment %v is %v, expected %v",
				v.handle, v.image.desc.Extent.Extent2D(), plan.extent)
		}
		plan.views = append(plan.views, v)
		return v
	}

	for i, t := range desc.Color {
		v := add(t)
		if v.image.desc.Format.IsDepth() {
			log.Fatalf(componentCommand, "color attachment %d has depth format %v", i, v.image.desc.Format)
		}
		plan.key.color[i] = attachmentKey{
			format:  translate(log, componentCommand, vkFormats, v.desc.Format, "color format"),
			load:    loadOp(t.Clear),
			stencil: vk.AttachmentLoadOpDontCare,
			initial: layoutOf(v.image.state),
			final:   vk.ImageLayoutColorAttachmentOptimal,
		}
		plan.clears = append(plan.clears, vk.NewClearValue(t.Value.Color[:]))
		plan.finals = append(plan.finals, glal.StateRenderTarget)
	}
	plan.key.colors = len(desc.Color)

	var depth, stencil *glal.RenderTarget
	if len(desc.Depth) == 1 {
		depth = &desc.Depth[0]
	}
	if len(desc.Stencil) == 1 {
		stencil = &desc.Stencil[0]
	}
	if depth != nil && stencil != nil && depth.View.Handle() != stencil.View.Handle() {
		log.Fatalf(componentCommand, "depth and stencil targets must share one view")
	}
	target := depth
	if target == nil {
		target = stencil
	}
	if target != nil {
		v := add(*target)
		f := v.image.desc.Format
		if !f.IsDepth() {
			log.Fatalf(componentCommand, "depth stencil attachment has color format %v", f)
		}
		key := attachmentKey{
			format:  translate(log, componentCommand, vkFormats, v.desc.Format, "depth format"),
			load:    vk.AttachmentLoadOpLoad,
			stencil: vk.AttachmentLoadOpDontCare,
			initial: layoutOf(v.image.state),
			final:   vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
		var value glal.ClearValue
		if depth != nil {
			key.load = loadOp(depth.Clear)
			value.Depth = depth.Value.Depth
		}
		if f.HasStencil() {
			key.stencil = vk.AttachmentLoadOpLoad
			if stencil != nil {
				key.stencil = loadOp(stencil.Clear)
				value.Stencil = stencil.Value.Stencil
			}
		}
		plan.key.depth, plan.key.hasDepth = key, true
		plan.clears = append(plan.clears, vk.NewClearDepthStencil(value.Depth, value.Stencil))
		plan.finals = append(plan.finals, glal.StateDepthStencil)
	}
	return plan
}
