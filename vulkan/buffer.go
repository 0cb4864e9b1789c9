package vulkan

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

type Buffer struct {
	object
	device *Device
	buffer vk.Buffer
	memory vk.DeviceMemory
	desc   glal.BufferDesc
	state  glal.ResourceState
	mapped []byte
}

func newBuffer(d *Device, desc glal.BufferDesc) *Buffer {
	b := &Buffer{device: d, desc: desc}
	ret := vk.CreateBuffer(d.device, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(desc.Size),
		Usage:       bufferUsage(desc.Usage),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &b.buffer)
	check(d.log, componentBuffer, ret, "failed to create buffer")

	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.device, b.buffer, &reqs)
	b.memory = d.allocate(componentBuffer, reqs, desc.Memory)
	check(d.log, componentBuffer, vk.BindBufferMemory(d.device, b.buffer, b.memory, 0), "failed to bind buffer memory")
	return b
}

func (b *Buffer) release() {
	dev := b.device.device
	if b.mapped != nil {
		vk.UnmapMemory(dev, b.memory)
		b.mapped = nil
	}
	vk.DestroyBuffer(dev, b.buffer, nil)
	vk.FreeMemory(dev, b.memory, nil)
}

// Native returns the VkBuffer.
func (b *Buffer) Native() vk.Buffer {
	return b.buffer
}

func (b *Buffer) Size() uint64 {
	return b.desc.Size
}

func (b *Buffer) Usage() glal.BufferUsage {
	return b.desc.Usage
}

func (b *Buffer) Memory() glal.MemoryUsage {
	return b.desc.Memory
}

// Map maps the coherent allocation. Writes are visible to the device at
// the next submission.
func (b *Buffer) Map() []byte {
	b.device.buffers.Lookup(b.handle)
	log := b.device.log
	if !b.desc.Memory.HostVisible() {
		log.Fatalf(componentBuffer, "device local memory not accessible")
	}
	if b.mapped != nil {
		log.Fatalf(componentBuffer, "buffer %v is already mapped", b.handle)
	}
	var ptr unsafe.Pointer
	ret := vk.MapMemory(b.device.device, b.memory, 0, vk.DeviceSize(b.desc.Size), 0, &ptr)
	check(log, componentBuffer, ret, "failed to map buffer memory")
	b.mapped = unsafe.Slice((*byte)(ptr), b.desc.Size)
	return b.mapped
}

func (b *Buffer) Unmap() {
	b.device.buffers.Lookup(b.handle)
	if b.mapped == nil {
		b.device.log.Fatalf(componentBuffer, "buffer %v is not mapped", b.handle)
	}
	b.mapped = nil
	vk.UnmapMemory(b.device.device, b.memory)
}
