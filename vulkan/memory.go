package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

// findMemoryType picks the first memory type allowed by typeBits that has
// every preferred property, falling back to one with the required
// properties.
func findMemoryType(props vk.PhysicalDeviceMemoryProperties, typeBits uint32, required, preferred vk.MemoryPropertyFlags) (uint32, bool) {
	for _, want := range []vk.MemoryPropertyFlags{preferred, required} {
		for i := uint32(0); i < props.MemoryTypeCount; i++ {
			if typeBits&(1<<i) == 0 {
				continue
			}
			t := props.MemoryTypes[i]
			t.Deref()
			if t.PropertyFlags&want == want {
				return i, true
			}
		}
	}
	return 0, false
}

// allocate binds fresh memory satisfying reqs for usage m.
func (d *Device) allocate(component string, reqs vk.MemoryRequirements, m glal.MemoryUsage) vk.DeviceMemory {
	reqs.Deref()
	required, preferred := memoryProperties(m)
	index, ok := findMemoryType(d.physical.memory, reqs.MemoryTypeBits, required, preferred)
	if !ok {
		d.log.Fatalf(component, "unsupported memory requirements (types %#x, %v)", reqs.MemoryTypeBits, m)
	}
	var mem vk.DeviceMemory
	ret := vk.AllocateMemory(d.device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: index,
	}, nil, &mem)
	check(d.log, componentMemory, ret, "failed to allocate memory")
	return mem
}
