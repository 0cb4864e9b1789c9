// Package vulkan realizes the glal object model on Vulkan 1.0 through
// vulkan-go. It is the strict backend: every object has to be destroyed
// explicitly unless the instance asks for permissive lifetimes, resource
// transitions record real pipeline barriers and submission is
// asynchronous behind fences.
package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

// DriverName is the name the Vulkan driver registers under.
const DriverName = "vulkan"

// ErrNoDevice is returned by Open when the loader reports no physical
// device.
var ErrNoDevice = errors.New("vulkan: no physical devices found")

func init() {
	glal.Register(driver{})
}

type driver struct{}

func (driver) Name() string {
	return DriverName
}

// Open loads the system Vulkan loader and creates an instance.
func (driver) Open(desc glal.InstanceDesc) (glal.Instance, error) {
	if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return nil, errors.Wrap(err, "locating the vulkan loader")
	}
	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "initializing vulkan")
	}
	return NewInstance(desc)
}

// Instance owns the VkInstance and one PhysicalDevice per GPU.
type Instance struct {
	instance   vk.Instance
	log        *glal.Logger
	lifetime   glal.Lifetime
	validation bool
	layers     []string
	disabled   map[glal.DeviceFeature]bool
	debug      vk.DebugReportCallback

	physicals *glal.Table[*PhysicalDevice]
	list      []*PhysicalDevice
}

// NewInstance creates the VkInstance. The loader must have been
// initialized with vk.Init.
func NewInstance(desc glal.InstanceDesc) (*Instance, error) {
	inst := &Instance{
		log:        desc.Logger,
		lifetime:   desc.Lifetime.Or(glal.LifetimeStrict),
		validation: desc.EnableValidation,
		disabled:   make(map[glal.DeviceFeature]bool, len(desc.DisabledFeatures)),
	}
	for _, f := range desc.DisabledFeatures {
		inst.disabled[f] = true
	}

	available, err := instanceExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "enumerating instance extensions")
	}
	extensions := append([]string(nil), desc.Extensions...)
	if inst.validation && contains(available, debugReportExtension) {
		extensions = append(extensions, debugReportExtension)
	}
	if absent := missing(extensions, available); len(absent) > 0 {
		return nil, errors.Newf("vulkan: missing required instance extensions %q", absent)
	}
	if inst.validation {
		layers, err := validationLayers()
		if err != nil {
			return nil, errors.Wrap(err, "enumerating layers")
		}
		if contains(layers, validationLayer) {
			inst.layers = []string{safeString(validationLayer)}
		} else {
			inst.log.Warnf(componentInstance, "validation requested but %s is not installed", validationLayer)
		}
	}
	extensions = safeStrings(extensions)

	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
			ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
			PApplicationName:   safeString(desc.ApplicationName),
			PEngineName:        "glal\x00",
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(inst.layers)),
		PpEnabledLayerNames:     inst.layers,
	}, nil, &inst.instance)
	if err := newError(ret); err != nil {
		return nil, errors.Wrap(err, "creating instance")
	}
	if err := vk.InitInstance(inst.instance); err != nil {
		vk.DestroyInstance(inst.instance, nil)
		return nil, errors.Wrap(err, "loading instance entry points")
	}

	if inst.validation && contains(extensions, debugReportExtension) {
		ret := vk.CreateDebugReportCallback(inst.instance, &vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: inst.debugReport,
		}, nil, &inst.debug)
		if isError(ret) {
			inst.log.Warnf(componentInstance, "debug report callback unavailable: %v", newError(ret))
		}
	}

	gpus, err := inst.enumerate()
	if err != nil {
		inst.release()
		return nil, err
	}
	id := glal.NewOwnerID()
	inst.physicals = glal.NewTable[*PhysicalDevice](id, glal.KindPhysicalDevice, "vulkan instance", componentInstance, inst.log)
	for _, gpu := range gpus {
		p := newPhysicalDevice(inst, gpu)
		p.handle = inst.physicals.Add(p)
		inst.list = append(inst.list, p)
	}
	inst.log.Infof(componentInstance, "created vulkan instance for %q with %d GPUs (lifetime %v, validation %v)",
		desc.ApplicationName, len(inst.list), inst.lifetime, inst.validation)
	return inst, nil
}

func (inst *Instance) enumerate() ([]vk.PhysicalDevice, error) {
	var count uint32
	if err := newError(vk.EnumeratePhysicalDevices(inst.instance, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "enumerating physical devices")
	}
	if count == 0 {
		return nil, ErrNoDevice
	}
	gpus := make([]vk.PhysicalDevice, count)
	if err := newError(vk.EnumeratePhysicalDevices(inst.instance, &count, gpus)); err != nil {
		return nil, errors.Wrap(err, "enumerating physical devices")
	}
	return gpus[:count], nil
}

func (inst *Instance) debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	level := glal.LevelDebug
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		level = glal.LevelError
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		level = glal.LevelWarning
	case flags&vk.DebugReportFlags(vk.DebugReportInformationBit) != 0:
		level = glal.LevelInfo
	}
	inst.log.Logf(level, "vulkan.debug", "[%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	return vk.Bool32(vk.False)
}

func (inst *Instance) Backend() glal.Backend {
	return glal.BackendVulkan
}

// Native returns the VkInstance, for window surface creation.
func (inst *Instance) Native() vk.Instance {
	return inst.instance
}

func (inst *Instance) Lifetime() glal.Lifetime {
	return inst.lifetime
}

func (inst *Instance) PhysicalDevices() []glal.PhysicalDevice {
	out := make([]glal.PhysicalDevice, len(inst.list))
	for i, p := range inst.list {
		out[i] = p
	}
	return out
}

// Destroy tears down every physical device and the devices they own.
// Live devices are fatal under LifetimeStrict.
func (inst *Instance) Destroy() {
	for _, p := range inst.list {
		p.devices.Teardown(inst.lifetime, func(d *Device) { d.destroy() })
		inst.physicals.Remove(p.handle)
	}
	inst.list = nil
	inst.release()
	inst.log.Infof(componentInstance, "destroyed vulkan instance")
}

func (inst *Instance) release() {
	if inst.debug != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(inst.instance, inst.debug, nil)
		inst.debug = vk.NullDebugReportCallback
	}
	if inst.instance != nil {
		vk.DestroyInstance(inst.instance, nil)
		inst.instance = nil
	}
}
