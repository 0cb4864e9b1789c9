package opengl

import (
	"github.com/andewx/glal"
)

type Buffer struct {
	object
	device *Device
	id     uint32
	desc   glal.BufferDesc
	access uint32
	mapped []byte
}

func newBuffer(d *Device, desc glal.BufferDesc) *Buffer {
	flags, access := storageFlags(desc.Memory)
	b := &Buffer{device: d, desc: desc, access: access}
	b.id = d.gl.CreateBuffer()
	d.gl.NamedBufferStorage(b.id, int(desc.Size), nil, flags)
	return b
}

func (b *Buffer) release() {
	if b.mapped != nil {
		b.device.gl.UnmapNamedBuffer(b.id)
		b.mapped = nil
	}
	b.device.gl.DeleteBuffer(b.id)
}

// Name returns the GL buffer name.
func (b *Buffer) Name() uint32 {
	return b.id
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

func (b *Buffer) Map() []byte {
	b.device.buffers.Lookup(b.handle)
	log := b.device.log
	if !b.desc.Memory.HostVisible() {
		log.Fatalf(componentBuffer, "device local memory not accessible")
	}
	if b.mapped != nil {
		log.Fatalf(componentBuffer, "buffer %v is already mapped", b.handle)
	}
	b.mapped = b.device.gl.MapNamedBuffer(b.id, b.access)
	log.Assert(b.mapped != nil, componentBuffer, "failed to map buffer %v", b.handle)
	return b.mapped
}

func (b *Buffer) Unmap() {
	b.device.buffers.Lookup(b.handle)
	if b.mapped == nil {
		b.device.log.Fatalf(componentBuffer, "buffer %v is not mapped", b.handle)
	}
	b.mapped = nil
	if !b.device.gl.UnmapNamedBuffer(b.id) {
		b.device.log.Warnf(componentBuffer, "buffer %v contents were lost while mapped", b.handle)
	}
}
