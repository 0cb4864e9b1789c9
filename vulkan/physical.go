package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

type PhysicalDevice struct {
	object
	instance   *Instance
	gpu        vk.PhysicalDevice
	props      vk.PhysicalDeviceProperties
	features   vk.PhysicalDeviceFeatures
	memory     vk.PhysicalDeviceMemoryProperties
	families   []vk.QueueFamilyProperties
	extensions []string
	devices    *glal.Table[*Device]
	id         uint32
	name       string
}

func newPhysicalDevice(inst *Instance, gpu vk.PhysicalDevice) *PhysicalDevice {
	p := &PhysicalDevice{instance: inst, gpu: gpu, id: glal.NewOwnerID()}
	vk.GetPhysicalDeviceProperties(gpu, &p.props)
	p.props.Deref()
	p.props.Limits.Deref()
	vk.GetPhysicalDeviceFeatures(gpu, &p.features)
	p.features.Deref()
	vk.GetPhysicalDeviceMemoryProperties(gpu, &p.memory)
	p.memory.Deref()

	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	p.families = make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, p.families)
	for i := range p.families {
		p.families[i].Deref()
	}

	extensions, err := deviceExtensions(gpu)
	if err != nil {
		inst.log.Warnf(componentInstance, "enumerating device extensions: %v", err)
	}
	p.extensions = extensions
	p.name = vk.ToString(p.props.DeviceName[:])
	p.devices = glal.NewTable[*Device](p.id, glal.KindDevice, glal.Describe(glal.KindPhysicalDevice, p.id, p.name), componentInstance, inst.log)
	return p
}

func (p *PhysicalDevice) Name() string {
	return p.name
}

// queueFamily returns the first family with graphics and compute
// capabilities, which serves every queue type.
func (p *PhysicalDevice) queueFamily() (uint32, bool) {
	want := vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit)
	for i, f := range p.families {
		if f.QueueFlags&want == want && f.QueueCount > 0 {
			return uint32(i), true
		}
	}
	return 0, false
}

func (p *PhysicalDevice) hasCompute() bool {
	for _, f := range p.families {
		if f.QueueFlags&vk.QueueFlags(vk.QueueComputeBit) != 0 {
			return true
		}
	}
	return false
}

func (p *PhysicalDevice) Supports(feature glal.DeviceFeature) bool {
	if p.instance.disabled[feature] {
		return false
	}
	switch feature {
	case glal.FeatureCompute:
		return p.hasCompute()
	case glal.FeatureGeometryShader:
		return p.features.GeometryShader.B()
	case glal.FeatureTessellation:
		return p.features.TessellationShader.B()
	case glal.FeatureExplicitBarriers, glal.FeatureDescriptorSets:
		return true
	}
	return false
}

func (p *PhysicalDevice) Limits() glal.DeviceLimits {
	l := p.props.Limits
	return glal.DeviceLimits{
		MaxTextureSize2D:  l.MaxImageDimension2D,
		MaxUniformBuffers: l.MaxPerStageDescriptorUniformBuffers,
		MaxBufferSize:     uint64(l.MaxStorageBufferRange),
	}
}

// enabledFeatures requests the optional features the device supports and
// the instance did not disable.
func (p *PhysicalDevice) enabledFeatures() vk.PhysicalDeviceFeatures {
	var f vk.PhysicalDeviceFeatures
	if p.Supports(glal.FeatureGeometryShader) {
		f.GeometryShader = vk.True
	}
	if p.Supports(glal.FeatureTessellation) {
		f.TessellationShader = vk.True
	}
	return f
}

func (p *PhysicalDevice) CreateDevice() glal.Device {
	d := newDevice(p)
	d.handle = p.devices.Add(d)
	p.instance.log.Infof(componentDevice, "created %s on %s (queue family %d)", d.name, p.name, d.queue.family)
	return d
}

func (p *PhysicalDevice) DestroyDevice(device glal.Device) {
	d := resolve(p.instance.log, p.devices, device, glal.KindDevice)
	// A strict teardown failure leaves the device registered.
	d.destroy()
	p.devices.Remove(d.handle)
}
