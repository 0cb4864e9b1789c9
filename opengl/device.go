package opengl

import (
	"github.com/cockroachdb/errors"

	"github.com/andewx/glal"
)

// object carries the handle every backend object is registered under.
type object struct {
	handle glal.Handle
}

func (o *object) Handle() glal.Handle {
	return o.handle
}

func (o *object) Backend() glal.Backend {
	return glal.BackendOpenGL
}

// resolve maps a public object back to the concrete value registered in t.
func resolve[T any](log *glal.Logger, t *glal.Table[T], o glal.Object, kind glal.Kind) T {
	if o == nil {
		log.Fatalf(componentDevice, "missing %v", kind)
	}
	if o.Backend() != glal.BackendOpenGL {
		log.Fatalf(componentDevice, "%v %v belongs to the %v backend", kind, o.Handle(), o.Backend())
	}
	return t.Lookup(o.Handle())
}

// Device owns every object created through it, one table per kind.
type Device struct {
	object
	physical *PhysicalDevice
	gl       GL
	log      *glal.Logger
	id       uint32
	name     string
	queue    *Queue

	buffers         *glal.Table[*Buffer]
	images          *glal.Table[*Image]
	views           *glal.Table[*ImageView]
	samplers        *glal.Table[*Sampler]
	shaders         *glal.Table[*ShaderModule]
	setLayouts      *glal.Table[*DescriptorSetLayout]
	pipelineLayouts *glal.Table[*PipelineLayout]
	pipelines       *glal.Table[*Pipeline]
	descriptorSets  *glal.Table[*DescriptorSet]
	swapchains      *glal.Table[*Swapchain]
	commandBuffers  *glal.Table[*CommandBuffer]
	fences          *glal.Table[*Fence]
}

func newDevice(p *PhysicalDevice) *Device {
	d := &Device{
		physical: p,
		gl:       p.instance.gl,
		log:      p.instance.log,
		id:       glal.NewOwnerID(),
	}
	d.name = glal.Describe(glal.KindDevice, d.id, "")
	d.buffers = newTable[*Buffer](d, glal.KindBuffer)
	d.images = newTable[*Image](d, glal.KindImage)
	d.views = newTable[*ImageView](d, glal.KindImageView)
	d.samplers = newTable[*Sampler](d, glal.KindSampler)
	d.shaders = newTable[*ShaderModule](d, glal.KindShaderModule)
	d.setLayouts = newTable[*DescriptorSetLayout](d, glal.KindDescriptorSetLayout)
	d.pipelineLayouts = newTable[*PipelineLayout](d, glal.KindPipelineLayout)
	d.pipelines = newTable[*Pipeline](d, glal.KindPipeline)
	d.descriptorSets = newTable[*DescriptorSet](d, glal.KindDescriptorSet)
	d.swapchains = newTable[*Swapchain](d, glal.KindSwapchain)
	d.commandBuffers = newTable[*CommandBuffer](d, glal.KindCommandBuffer)
	d.fences = newTable[*Fence](d, glal.KindFence)
	d.queue = &Queue{device: d}
	return d
}

func newTable[T any](d *Device, kind glal.Kind) *glal.Table[T] {
	return glal.NewTable[T](d.id, kind, d.name, componentDevice, d.log)
}

func (d *Device) validate(component string, err error) {
	if err != nil {
		d.log.Fatal(component, errors.Wrap(err, "invalid descriptor"))
	}
}

func (d *Device) PhysicalDevice() glal.PhysicalDevice {
	return d.physical
}

func (d *Device) Supports(feature glal.DeviceFeature) bool {
	return d.physical.Supports(feature)
}

func (d *Device) Limits() glal.DeviceLimits {
	return d.physical.Limits()
}

// Queue returns the single queue of the context, which has every
// capability.
func (d *Device) Queue(typ glal.QueueType) glal.Queue {
	return d.queue
}

// WaitIdle blocks until the context has executed every issued command.
func (d *Device) WaitIdle() {
	d.gl.Finish()
}

// destroy applies the instance lifetime policy to every table, dependents
// before the objects they borrow.
func (d *Device) destroy() {
	policy := d.physical.instance.lifetime
	d.swapchains.Teardown(policy, d.releaseSwapchain)
	d.commandBuffers.Teardown(policy, func(*CommandBuffer) {})
	d.fences.Teardown(policy, (*Fence).release)
	d.descriptorSets.Teardown(policy, func(*DescriptorSet) {})
	d.pipelines.Teardown(policy, (*Pipeline).release)
	d.pipelineLayouts.Teardown(policy, func(*PipelineLayout) {})
	d.setLayouts.Teardown(policy, func(*DescriptorSetLayout) {})
	d.shaders.Teardown(policy, (*ShaderModule).release)
	d.samplers.Teardown(policy, (*Sampler).release)
	d.views.Teardown(policy, func(v *ImageView) { v.image.views-- })
	d.images.Teardown(policy, (*Image).release)
	d.buffers.Teardown(policy, (*Buffer).release)
	d.log.Infof(componentDevice, "destroyed %s", d.name)
}

func (d *Device) CreateBuffer(desc glal.BufferDesc) glal.Buffer {
	d.validate(componentBuffer, desc.Validate())
	b := newBuffer(d, desc)
	b.handle = d.buffers.Add(b)
	d.log.Debugf(componentBuffer, "created buffer %v (%d bytes, %v, %v)", b.handle, desc.Size, desc.Usage, desc.Memory)
	return b
}

func (d *Device) DestroyBuffer(buffer glal.Buffer) {
	b := resolve(d.log, d.buffers, buffer, glal.KindBuffer)
	d.buffers.Remove(b.handle)
	b.release()
}

func (d *Device) CreateImage(desc glal.ImageDesc) glal.Image {
	d.validate(componentImage, desc.Validate())
	img := newImage(d, desc)
	img.handle = d.images.Add(img)
	d.log.Debugf(componentImage, "created %v image %v (%v, %v)", desc.Dimension, img.handle, desc.Format, desc.Extent)
	return img
}

func (d *Device) DestroyImage(image glal.Image) {
	img := resolve(d.log, d.images, image, glal.KindImage)
	if img.swapchain {
		d.log.Fatalf(componentImage, "image %v is owned by a swapchain", img.handle)
	}
	if img.views > 0 && d.physical.instance.lifetime == glal.LifetimeStrict {
		d.log.Fatalf(componentImage, "image %v destroyed with %d live views", img.handle, img.views)
	}
	d.images.Remove(img.handle)
	img.release()
}

func (d *Device) CreateImageView(desc glal.ImageViewDesc) glal.ImageView {
	d.validate(componentImage, desc.Validate())
	img := resolve(d.log, d.images, desc.Image, glal.KindImage)
	v := newImageView(img, desc)
	v.handle = d.views.Add(v)
	return v
}

func (d *Device) DestroyImageView(view glal.ImageView) {
	v := resolve(d.log, d.views, view, glal.KindImageView)
	if v.image.swapchain {
		d.log.Fatalf(componentImage, "image view %v is owned by a swapchain", v.handle)
	}
	d.views.Remove(v.handle)
	v.image.views--
}

func (d *Device) CreateSampler(desc glal.SamplerDesc) glal.Sampler {
	d.validate(componentSampler, desc.Validate())
	s := newSampler(d, desc)
	s.handle = d.samplers.Add(s)
	return s
}

func (d *Device) DestroySampler(sampler glal.Sampler) {
	s := resolve(d.log, d.samplers, sampler, glal.KindSampler)
	d.samplers.Remove(s.handle)
	s.release()
}

func (d *Device) CreateShaderModule(desc glal.ShaderModuleDesc) glal.ShaderModule {
	d.validate(componentShader, desc.Validate())
	m := newShaderModule(d, desc)
	m.handle = d.shaders.Add(m)
	d.log.Debugf(componentShader, "created %v shader module %v", desc.Stage, m.handle)
	return m
}

func (d *Device) DestroyShaderModule(module glal.ShaderModule) {
	m := resolve(d.log, d.shaders, module, glal.KindShaderModule)
	d.shaders.Remove(m.handle)
	m.release()
}

func (d *Device) CreateDescriptorSetLayout(desc glal.DescriptorSetLayoutDesc) glal.DescriptorSetLayout {
	d.validate(componentDescriptor, desc.Validate())
	l := &DescriptorSetLayout{set: desc.Set, bindings: append([]glal.DescriptorBinding(nil), desc.Bindings...)}
	l.handle = d.setLayouts.Add(l)
	return l
}

func (d *Device) DestroyDescriptorSetLayout(layout glal.DescriptorSetLayout) {
	l := resolve(d.log, d.setLayouts, layout, glal.KindDescriptorSetLayout)
	d.setLayouts.Remove(l.handle)
}

func (d *Device) CreatePipelineLayout(desc glal.PipelineLayoutDesc) glal.PipelineLayout {
	d.validate(componentPipeline, desc.Validate())
	l := &PipelineLayout{}
	for _, sl := range desc.Layouts {
		l.layouts = append(l.layouts, resolve(d.log, d.setLayouts, sl, glal.KindDescriptorSetLayout))
	}
	l.handle = d.pipelineLayouts.Add(l)
	return l
}

func (d *Device) DestroyPipelineLayout(layout glal.PipelineLayout) {
	l := resolve(d.log, d.pipelineLayouts, layout, glal.KindPipelineLayout)
	d.pipelineLayouts.Remove(l.handle)
}

func (d *Device) CreatePipeline(desc glal.PipelineDesc) glal.Pipeline {
	d.validate(componentPipeline, desc.Validate())
	p := newPipeline(d, desc)
	p.handle = d.pipelines.Add(p)
	d.log.Debugf(componentPipeline, "created %v pipeline %v", desc.Type, p.handle)
	return p
}

func (d *Device) DestroyPipeline(pipeline glal.Pipeline) {
	p := resolve(d.log, d.pipelines, pipeline, glal.KindPipeline)
	d.pipelines.Remove(p.handle)
	p.release()
}

func (d *Device) CreateDescriptorSet(desc glal.DescriptorSetDesc) glal.DescriptorSet {
	d.validate(componentDescriptor, desc.Validate())
	s := &DescriptorSet{device: d, entries: make(map[uint32]descriptor)}
	for _, l := range desc.Layouts {
		s.layouts = append(s.layouts, resolve(d.log, d.setLayouts, l, glal.KindDescriptorSetLayout))
	}
	s.handle = d.descriptorSets.Add(s)
	return s
}

func (d *Device) DestroyDescriptorSet(set glal.DescriptorSet) {
	s := resolve(d.log, d.descriptorSets, set, glal.KindDescriptorSet)
	d.descriptorSets.Remove(s.handle)
}

func (d *Device) CreateSwapchain(desc glal.SwapchainDesc) glal.Swapchain {
	d.validate(componentSwapchain, desc.Validate())
	sc := newSwapchain(d, desc)
	sc.handle = d.swapchains.Add(sc)
	d.log.Infof(componentSwapchain, "created swapchain %v (%d images, %dx%d, %v)",
		sc.handle, desc.ImageCount, desc.Extent.Width, desc.Extent.Height, desc.Format)
	return sc
}

func (d *Device) DestroySwapchain(swapchain glal.Swapchain) {
	sc := resolve(d.log, d.swapchains, swapchain, glal.KindSwapchain)
	d.swapchains.Remove(sc.handle)
	d.releaseSwapchain(sc)
}

func (d *Device) releaseSwapchain(sc *Swapchain) {
	for i := range sc.images {
		d.views.Remove(sc.views[i].handle)
		d.images.Remove(sc.images[i].handle)
		sc.images[i].release()
	}
	sc.images, sc.views, sc.fences = nil, nil, nil
}

func (d *Device) CreateCommandBuffer(usage glal.CommandBufferUsage) glal.CommandBuffer {
	cmd := &CommandBuffer{device: d, usage: usage}
	cmd.handle = d.commandBuffers.Add(cmd)
	return cmd
}

func (d *Device) DestroyCommandBuffer(cmd glal.CommandBuffer) {
	c := resolve(d.log, d.commandBuffers, cmd, glal.KindCommandBuffer)
	d.commandBuffers.Remove(c.handle)
	c.commands = nil
}

func (d *Device) CreateFence() glal.Fence {
	f := &Fence{device: d}
	f.handle = d.fences.Add(f)
	return f
}

func (d *Device) DestroyFence(fence glal.Fence) {
	f := resolve(d.log, d.fences, fence, glal.KindFence)
	d.fences.Remove(f.handle)
	f.release()
}
