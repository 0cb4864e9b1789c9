package opengl

import (
	"github.com/andewx/glal"
)

// supportedFeatures is what every 4.6 core context provides.
var supportedFeatures = map[glal.DeviceFeature]bool{
	glal.FeatureCompute:        true,
	glal.FeatureGeometryShader: true,
	glal.FeatureTessellation:   true,
}

type PhysicalDevice struct {
	object
	instance *Instance
	devices  *glal.Table[*Device]
	id       uint32
}

func newPhysicalDevice(inst *Instance) *PhysicalDevice {
	p := &PhysicalDevice{instance: inst, id: glal.NewOwnerID()}
	p.devices = glal.NewTable[*Device](p.id, glal.KindDevice, glal.Describe(glal.KindPhysicalDevice, p.id, "opengl"), componentInstance, inst.log)
	return p
}

func (p *PhysicalDevice) Name() string {
	return "OpenGL 4.6"
}

func (p *PhysicalDevice) Supports(feature glal.DeviceFeature) bool {
	return supportedFeatures[feature] && !p.instance.disabled[feature]
}

func (p *PhysicalDevice) Limits() glal.DeviceLimits {
	return glal.DeviceLimits{
		MaxTextureSize2D:  uint32(p.instance.gl.GetIntegerv(MAX_TEXTURE_SIZE)),
		MaxUniformBuffers: 16,
		MaxBufferSize:     1 << 30,
	}
}

func (p *PhysicalDevice) CreateDevice() glal.Device {
	d := newDevice(p)
	d.handle = p.devices.Add(d)
	p.instance.log.Infof(componentDevice, "created %s on %s", d.name, p.Name())
	return d
}

func (p *PhysicalDevice) DestroyDevice(device glal.Device) {
	d := resolve(p.instance.log, p.devices, device, glal.KindDevice)
	// A strict teardown failure leaves the device registered.
	d.destroy()
	p.devices.Remove(d.handle)
}
