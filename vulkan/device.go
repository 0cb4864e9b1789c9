package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

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
	return glal.BackendVulkan
}

// resolve maps a public object back to the concrete value registered in t.
func resolve[T any](log *glal.Logger, t *glal.Table[T], o glal.Object, kind glal.Kind) T {
	if o == nil {
		log.Fatalf(componentDevice, "missing %v", kind)
	}
	if o.Backend() != glal.BackendVulkan {
		log.Fatalf(componentDevice, "%v %v belongs to the %v backend", kind, o.Handle(), o.Backend())
	}
	return t.Lookup(o.Handle())
}

// Device owns the VkDevice and every object created through it.
type Device struct {
	object
	physical *PhysicalDevice
	device   vk.Device
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

	passes      *passCache
	emptyLayout vk.DescriptorSetLayout
}

func newDevice(p *PhysicalDevice) *Device {
	log := p.instance.log
	family, ok := p.queueFamily()
	if !ok {
		log.Fatalf(componentDevice, "%s has no graphics and compute queue family", p.name)
	}

	var extensions []string
	if contains(p.extensions, swapchainExtension) {
		extensions = append(extensions, safeString(swapchainExtension))
	}
	features := p.enabledFeatures()
	var device vk.Device
	ret := vk.CreateDevice(p.gpu, &vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos: []vk.DeviceQueueCreateInfo{{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(p.instance.layers)),
		PpEnabledLayerNames:     p.instance.layers,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
	}, nil, &device)
	check(log, componentDevice, ret, "failed to create device")

	d := &Device{
		physical: p,
		device:   device,
		log:      log,
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
	d.passes = newPassCache(d)

	var queue vk.Queue
	vk.GetDeviceQueue(device, family, 0, &queue)
	d.queue = &Queue{device: d, queue: queue, family: family}
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

// Native returns the VkDevice.
func (d *Device) Native() vk.Device {
	return d.device
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

// Queue returns the universal queue. Every queue type maps onto it.
func (d *Device) Queue(typ glal.QueueType) glal.Queue {
	return d.queue
}

func (d *Device) WaitIdle() {
	check(d.log, componentDevice, vk.DeviceWaitIdle(d.device), "failed to wait for device idle")
}

// destroy waits for the device to go idle and applies the instance
// lifetime policy to every table, dependents before the objects they
// borrow.
func (d *Device) destroy() {
	policy := d.physical.instance.lifetime
	vk.DeviceWaitIdle(d.device)
	d.swapchains.Teardown(policy, d.releaseSwapchain)
	d.commandBuffers.Teardown(policy, (*CommandBuffer).release)
	d.fences.Teardown(policy, (*Fence).release)
	d.descriptorSets.Teardown(policy, (*DescriptorSet).release)
	d.pipelines.Teardown(policy, (*Pipeline).release)
	d.pipelineLayouts.Teardown(policy, (*PipelineLayout).release)
	d.setLayouts.Teardown(policy, (*DescriptorSetLayout).release)
	d.shaders.Teardown(policy, (*ShaderModule).release)
	d.samplers.Teardown(policy, (*Sampler).release)
	d.views.Teardown(policy, (*ImageView).release)
	d.images.Teardown(policy, (*Image).release)
	d.buffers.Teardown(policy, (*Buffer).release)
	d.passes.release()
	if d.emptyLayout != vk.DescriptorSetLayout(vk.NullHandle) {
		vk.DestroyDescriptorSetLayout(d.device, d.emptyLayout, nil)
	}
	vk.DestroyDevice(d.device, nil)
	d.log.Infof(componentDevice, "destroyed %s", d.name)
}

// emptySetLayout returns the layout that fills unused set numbers of a
// pipeline layout.
func (d *Device) emptySetLayout() vk.DescriptorSetLayout {
	if d.emptyLayout == vk.DescriptorSetLayout(vk.NullHandle) {
		ret := vk.CreateDescriptorSetLayout(d.device, &vk.DescriptorSetLayoutCreateInfo{
			SType: vk.StructureTypeDescriptorSetLayoutCreateInfo,
		}, nil, &d.emptyLayout)
		check(d.log, componentDescriptor, ret, "failed to create empty descriptor set layout")
	}
	return d.emptyLayout
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
	if img.swapchain != nil {
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
	if v.image.swapchain != nil {
		d.log.Fatalf(componentImage, "image view %v is owned by a swapchain", v.handle)
	}
	d.views.Remove(v.handle)
	v.release()
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
	l := newDescriptorSetLayout(d, desc)
	l.handle = d.setLayouts.Add(l)
	return l
}

func (d *Device) DestroyDescriptorSetLayout(layout glal.DescriptorSetLayout) {
	l := resolve(d.log, d.setLayouts, layout, glal.KindDescriptorSetLayout)
	d.setLayouts.Remove(l.handle)
	l.release()
}

func (d *Device) CreatePipelineLayout(desc glal.PipelineLayoutDesc) glal.PipelineLayout {
	d.validate(componentPipeline, desc.Validate())
	var layouts []*DescriptorSetLayout
	for _, sl := range desc.Layouts {
		layouts = append(layouts, resolve(d.log, d.setLayouts, sl, glal.KindDescriptorSetLayout))
	}
	l := newPipelineLayout(d, layouts)
	l.handle = d.pipelineLayouts.Add(l)
	return l
}

func (d *Device) DestroyPipelineLayout(layout glal.PipelineLayout) {
	l := resolve(d.log, d.pipelineLayouts, layout, glal.KindPipelineLayout)
	d.pipelineLayouts.Remove(l.handle)
	l.release()
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
	var layouts []*DescriptorSetLayout
	for _, l := range desc.Layouts {
		layouts = append(layouts, resolve(d.log, d.setLayouts, l, glal.KindDescriptorSetLayout))
	}
	s := newDescriptorSet(d, layouts)
	s.handle = d.descriptorSets.Add(s)
	return s
}

func (d *Device) DestroyDescriptorSet(set glal.DescriptorSet) {
	s := resolve(d.log, d.descriptorSets, set, glal.KindDescriptorSet)
	d.descriptorSets.Remove(s.handle)
	s.release()
}

func (d *Device) CreateSwapchain(desc glal.SwapchainDesc) glal.Swapchain {
	d.validate(componentSwapchain, desc.Validate())
	sc := newSwapchain(d, desc)
	sc.handle = d.swapchains.Add(sc)
	d.log.Infof(componentSwapchain, "created swapchain %v (%d images, %dx%d, %v)",
		sc.handle, len(sc.images), sc.extent.Width, sc.extent.Height, sc.format)
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
		sc.views[i].release()
		d.images.Remove(sc.images[i].handle)
	}
	sc.release()
}

func (d *Device) CreateCommandBuffer(usage glal.CommandBufferUsage) glal.CommandBuffer {
	c := newCommandBuffer(d, usage)
	c.handle = d.commandBuffers.Add(c)
	return c
}

func (d *Device) DestroyCommandBuffer(cmd glal.CommandBuffer) {
	c := resolve(d.log, d.commandBuffers, cmd, glal.KindCommandBuffer)
	d.commandBuffers.Remove(c.handle)
	c.release()
}

func (d *Device) CreateFence() glal.Fence {
	f := newFence(d)
	f.handle = d.fences.Add(f)
	return f
}

func (d *Device) DestroyFence(fence glal.Fence) {
	f := resolve(d.log, d.fences, fence, glal.KindFence)
	d.fences.Remove(f.handle)
	f.release()
}
