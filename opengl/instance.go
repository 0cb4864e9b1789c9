// Package opengl realizes the glal object model on OpenGL 4.6 with direct
// state access and SPIR-V shaders. It is the permissive backend: resource
// transitions are no-ops, submission replays recorded commands
// synchronously and objects left alive at teardown are destroyed with a
// warning unless the instance asks for strict lifetimes.
//
// The backend issues every native call through the GL interface, which is
// implemented by package opengl/native on a real context and by package
// opengl/soft in memory.
package opengl

import (
	"github.com/andewx/glal"
)

// Instance is the permissive backend's enumeration root. A GL context
// exposes exactly one adapter, so there is one PhysicalDevice.
type Instance struct {
	gl         GL
	log        *glal.Logger
	lifetime   glal.Lifetime
	validation bool
	disabled   map[glal.DeviceFeature]bool

	physicals *glal.Table[*PhysicalDevice]
	physical  *PhysicalDevice
}

// NewInstance wraps the context behind gl. The context must stay current
// on the calling thread for the lifetime of the instance.
func NewInstance(gl GL, desc glal.InstanceDesc) *Instance {
	inst := &Instance{
		gl:         gl,
		log:        desc.Logger,
		lifetime:   desc.Lifetime.Or(glal.LifetimePermissive),
		validation: desc.EnableValidation,
		disabled:   make(map[glal.DeviceFeature]bool, len(desc.DisabledFeatures)),
	}
	for _, f := range desc.DisabledFeatures {
		inst.disabled[f] = true
	}
	id := glal.NewOwnerID()
	inst.physicals = glal.NewTable[*PhysicalDevice](id, glal.KindPhysicalDevice, "opengl instance", componentInstance, inst.log)

	if inst.validation {
		gl.Enable(DEBUG_OUTPUT)
		gl.Enable(DEBUG_OUTPUT_SYNCHRONOUS)
		gl.DebugMessageCallback(inst.debugMessage)
	}

	inst.physical = newPhysicalDevice(inst)
	inst.physical.handle = inst.physicals.Add(inst.physical)
	inst.log.Infof(componentInstance, "created opengl instance for %q (lifetime %v, validation %v)",
		desc.ApplicationName, inst.lifetime, inst.validation)
	return inst
}

func (inst *Instance) debugMessage(source, xtype, id, severity uint32, message string) {
	level := glal.LevelDebug
	switch severity {
	case DEBUG_SEVERITY_HIGH:
		level = glal.LevelError
	case DEBUG_SEVERITY_MEDIUM:
		level = glal.LevelWarning
	case DEBUG_SEVERITY_LOW:
		level = glal.LevelInfo
	}
	inst.log.Logf(level, "opengl.debug", "%s (source %#x, type %#x, id %d)", message, source, xtype, id)
}

func (inst *Instance) Backend() glal.Backend {
	return glal.BackendOpenGL
}

// GL returns the context the instance drives.
func (inst *Instance) GL() GL {
	return inst.gl
}

func (inst *Instance) Lifetime() glal.Lifetime {
	return inst.lifetime
}

func (inst *Instance) PhysicalDevices() []glal.PhysicalDevice {
	return []glal.PhysicalDevice{inst.physical}
}

// Destroy tears down the physical device and every device it still owns.
func (inst *Instance) Destroy() {
	inst.physical.devices.Teardown(inst.lifetime, func(d *Device) { d.destroy() })
	inst.physicals.Remove(inst.physical.handle)
	if inst.validation {
		inst.gl.Disable(DEBUG_OUTPUT)
	}
	inst.log.Infof(componentInstance, "destroyed opengl instance")
}
