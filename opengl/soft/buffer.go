package soft

import (
	"github.com/andewx/glal/opengl"
)

type buffer struct {
	data      []byte
	flags     uint32
	immutable bool
	mapped    bool
}

type indexKey struct {
	target uint32
	index  uint32
}

// BufferRange is the state of one indexed buffer binding point.
type BufferRange struct {
	Buffer uint32
	Offset int
	Size   int
}

func (c *Context) CreateBuffer() uint32 {
	id := c.name()
	c.buffers[id] = &buffer{}
	return id
}

func (c *Context) DeleteBuffer(id uint32) {
	if _, ok := c.buffers[id]; !ok {
		c.fail("DeleteBuffer: unknown buffer %d", id)
		return
	}
	delete(c.buffers, id)
	for target, b := range c.bound {
		if b == id {
			delete(c.bound, target)
		}
	}
	for k, r := range c.indexed {
		if r.Buffer == id {
			delete(c.indexed, k)
		}
	}
}

func (c *Context) buffer(op string, id uint32) *buffer {
	b, ok := c.buffers[id]
	if !ok {
		c.fail("%s: unknown buffer %d", op, id)
	}
	return b
}

func (c *Context) NamedBufferStorage(id uint32, size int, data []byte, flags uint32) {
	b := c.buffer("NamedBufferStorage", id)
	if b == nil {
		return
	}
	if b.immutable {
		c.fail("NamedBufferStorage: buffer %d already has immutable storage", id)
		return
	}
	if size <= 0 {
		c.fail("NamedBufferStorage: invalid size %d", size)
		return
	}
	b.data = make([]byte, size)
	copy(b.data, data)
	b.flags = flags
	b.immutable = true
}

func (c *Context) MapNamedBuffer(id uint32, access uint32) []byte {
	b := c.buffer("MapNamedBuffer", id)
	if b == nil {
		return nil
	}
	var need uint32
	switch access {
	case opengl.READ_ONLY:
		need = opengl.MAP_READ_BIT
	case opengl.WRITE_ONLY:
		need = opengl.MAP_WRITE_BIT
	case opengl.READ_WRITE:
		need = opengl.MAP_READ_BIT | opengl.MAP_WRITE_BIT
	default:
		c.fail("MapNamedBuffer: invalid access %#x", access)
		return nil
	}
	if b.flags&need != need {
		c.fail("MapNamedBuffer: buffer %d storage flags %#x do not allow access %#x", id, b.flags, access)
		return nil
	}
	if b.mapped {
		c.fail("MapNamedBuffer: buffer %d is already mapped", id)
		return nil
	}
	b.mapped = true
	return b.data
}

func (c *Context) UnmapNamedBuffer(id uint32) bool {
	b := c.buffer("UnmapNamedBuffer", id)
	if b == nil {
		return false
	}
	if !b.mapped {
		c.fail("UnmapNamedBuffer: buffer %d is not mapped", id)
		return false
	}
	b.mapped = false
	return true
}

func (c *Context) CopyNamedBufferSubData(src, dst uint32, srcOffset, dstOffset, size int) {
	s, d := c.buffer("CopyNamedBufferSubData", src), c.buffer("CopyNamedBufferSubData", dst)
	if s == nil || d == nil {
		return
	}
	if srcOffset < 0 || dstOffset < 0 || size < 0 || srcOffset+size > len(s.data) || dstOffset+size > len(d.data) {
		c.fail("CopyNamedBufferSubData: range out of bounds")
		return
	}
	copy(d.data[dstOffset:dstOffset+size], s.data[srcOffset:srcOffset+size])
}

func (c *Context) BindBuffer(target, id uint32) {
	if id == 0 {
		delete(c.bound, target)
		return
	}
	if c.buffer("BindBuffer", id) == nil {
		return
	}
	c.bound[target] = id
}

func (c *Context) BindBufferRange(target, index, id uint32, offset, size int) {
	b := c.buffer("BindBufferRange", id)
	if b == nil {
		return
	}
	if target != opengl.UNIFORM_BUFFER && target != opengl.SHADER_STORAGE_BUFFER {
		c.fail("BindBufferRange: invalid target %#x", target)
		return
	}
	if offset < 0 || size <= 0 || offset+size > len(b.data) {
		c.fail("BindBufferRange: range [%d, %d) exceeds buffer %d", offset, offset+size, id)
		return
	}
	c.indexed[indexKey{target, index}] = BufferRange{Buffer: id, Offset: offset, Size: size}
	c.bound[target] = id
}

// BufferData returns the storage of buffer id.
func (c *Context) BufferData(id uint32) ([]byte, bool) {
	b, ok := c.buffers[id]
	if !ok {
		return nil, false
	}
	return b.data, true
}

// IndexedBuffer returns the range bound at index of target.
func (c *Context) IndexedBuffer(target, index uint32) (BufferRange, bool) {
	r, ok := c.indexed[indexKey{target, index}]
	return r, ok
}
