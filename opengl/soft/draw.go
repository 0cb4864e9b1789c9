package soft

import (
	"sort"

	"github.com/andewx/glal/opengl"
)

type attrib struct {
	enabled    bool
	binding    uint32
	size       int32
	xtype      uint32
	normalized bool
	offset     uint32
}

type vertexBuffer struct {
	buffer  uint32
	offset  int
	stride  int32
	divisor uint32
}

type vertexArray struct {
	attribs  map[uint32]*attrib
	bindings map[uint32]*vertexBuffer
	element  uint32
}

// Attrib is the format of one vertex attribute at the time of a draw.
type Attrib struct {
	Location   uint32
	Binding    uint32
	Size       int32
	Type       uint32
	Normalized bool
	Offset     uint32
}

// DrawCall is a draw as the context saw it. VertexBuffer and Stride
// describe vertex binding 0.
type DrawCall struct {
	Mode          uint32
	First         int32
	Count         int32
	Indexed       bool
	IndexType     uint32
	Offset        int
	BaseVertex    int32
	Program       uint32
	Framebuffer   uint32
	Viewport      [4]int32
	VertexBuffer  uint32
	Stride        int32
	ElementBuffer uint32
	Attribs       []Attrib
	DepthTest     bool
	Blend         bool
}

func (c *Context) CreateVertexArray() uint32 {
	id := c.name()
	c.vertexArrays[id] = &vertexArray{
		attribs:  make(map[uint32]*attrib),
		bindings: make(map[uint32]*vertexBuffer),
	}
	return id
}

func (c *Context) DeleteVertexArray(id uint32) {
	if _, ok := c.vertexArrays[id]; !ok {
		c.fail("DeleteVertexArray: unknown vertex array %d", id)
		return
	}
	delete(c.vertexArrays, id)
	if c.vertexArray == id {
		c.vertexArray = 0
	}
}

func (c *Context) vao(op string, id uint32) *vertexArray {
	v, ok := c.vertexArrays[id]
	if !ok {
		c.fail("%s: unknown vertex array %d", op, id)
	}
	return v
}

func (c *Context) BindVertexArray(id uint32) {
	if id != 0 && c.vao("BindVertexArray", id) == nil {
		return
	}
	c.vertexArray = id
}

func (v *vertexArray) attrib(index uint32) *attrib {
	a, ok := v.attribs[index]
	if !ok {
		a = &attrib{binding: index, size: 4, xtype: opengl.FLOAT}
		v.attribs[index] = a
	}
	return a
}

func (v *vertexArray) binding(index uint32) *vertexBuffer {
	b, ok := v.bindings[index]
	if !ok {
		b = &vertexBuffer{stride: 16}
		v.bindings[index] = b
	}
	return b
}

func (c *Context) EnableVertexArrayAttrib(id, index uint32) {
	if v := c.vao("EnableVertexArrayAttrib", id); v != nil {
		v.attrib(index).enabled = true
	}
}

func (c *Context) VertexArrayAttribBinding(id, index, binding uint32) {
	if v := c.vao("VertexArrayAttribBinding", id); v != nil {
		v.attrib(index).binding = binding
	}
}

func (c *Context) VertexArrayAttribFormat(id, index uint32, size int32, xtype uint32, normalized bool, offset uint32) {
	v := c.vao("VertexArrayAttribFormat", id)
	if v == nil {
		return
	}
	if size < 1 || size > 4 {
		c.fail("VertexArrayAttribFormat: invalid size %d", size)
		return
	}
	a := v.attrib(index)
	a.size, a.xtype, a.normalized, a.offset = size, xtype, normalized, offset
}

func (c *Context) VertexArrayBindingDivisor(id, binding, divisor uint32) {
	if v := c.vao("VertexArrayBindingDivisor", id); v != nil {
		v.binding(binding).divisor = divisor
	}
}

func (c *Context) VertexArrayVertexBuffer(id, binding, buf uint32, offset int, stride int32) {
	v := c.vao("VertexArrayVertexBuffer", id)
	if v == nil {
		return
	}
	if buf != 0 && c.buffer("VertexArrayVertexBuffer", buf) == nil {
		return
	}
	if offset < 0 || stride < 0 {
		c.fail("VertexArrayVertexBuffer: negative offset or stride")
		return
	}
	b := v.binding(binding)
	b.buffer, b.offset, b.stride = buf, offset, stride
}

func (c *Context) VertexArrayElementBuffer(id, buf uint32) {
	v := c.vao("VertexArrayElementBuffer", id)
	if v == nil {
		return
	}
	if buf != 0 && c.buffer("VertexArrayElementBuffer", buf) == nil {
		return
	}
	v.element = buf
}

// drawState checks the state a draw needs and captures it.
func (c *Context) drawState(op string, mode uint32) (DrawCall, bool) {
	switch mode {
	case opengl.POINTS, opengl.LINES, opengl.LINE_STRIP, opengl.TRIANGLES, opengl.TRIANGLE_STRIP, opengl.TRIANGLE_FAN:
	default:
		c.fail("%s: invalid mode %#x", op, mode)
		return DrawCall{}, false
	}
	if c.program == 0 {
		c.fail("%s: no program in use", op)
		return DrawCall{}, false
	}
	if c.programs[c.program].compute {
		c.fail("%s: program %d is a compute program", op, c.program)
		return DrawCall{}, false
	}
	v, ok := c.vertexArrays[c.vertexArray]
	if !ok {
		c.fail("%s: no vertex array bound", op)
		return DrawCall{}, false
	}
	if c.framebuffer != 0 && c.CheckNamedFramebufferStatus(c.framebuffer, opengl.DRAW_FRAMEBUFFER) != opengl.FRAMEBUFFER_COMPLETE {
		c.fail("%s: framebuffer %d is incomplete", op, c.framebuffer)
		return DrawCall{}, false
	}
	call := DrawCall{
		Mode:          mode,
		Program:       c.program,
		Framebuffer:   c.framebuffer,
		Viewport:      c.viewport,
		ElementBuffer: v.element,
		DepthTest:     c.caps[opengl.DEPTH_TEST],
		Blend:         c.caps[opengl.BLEND],
	}
	if b, ok := v.bindings[0]; ok {
		call.VertexBuffer, call.Stride = b.buffer, b.stride
	}
	for loc, a := range v.attribs {
		if !a.enabled {
			continue
		}
		call.Attribs = append(call.Attribs, Attrib{Location: loc, Binding: a.binding, Size: a.size, Type: a.xtype, Normalized: a.normalized, Offset: a.offset})
	}
	sort.Slice(call.Attribs, func(i, j int) bool { return call.Attribs[i].Location < call.Attribs[j].Location })
	return call, true
}

func (c *Context) DrawArrays(mode uint32, first, count int32) {
	call, ok := c.drawState("DrawArrays", mode)
	if !ok {
		return
	}
	if first < 0 || count < 0 {
		c.fail("DrawArrays: negative first or count")
		return
	}
	call.First, call.Count = first, count
	c.draws = append(c.draws, call)
}

func (c *Context) DrawElementsBaseVertex(mode uint32, count int32, xtype uint32, offset int, baseVertex int32) {
	call, ok := c.drawState("DrawElementsBaseVertex", mode)
	if !ok {
		return
	}
	var size int
	switch xtype {
	case opengl.UNSIGNED_BYTE:
		size = 1
	case opengl.UNSIGNED_SHORT:
		size = 2
	case opengl.UNSIGNED_INT:
		size = 4
	default:
		c.fail("DrawElementsBaseVertex: invalid type %#x", xtype)
		return
	}
	if call.ElementBuffer == 0 {
		c.fail("DrawElementsBaseVertex: no element buffer bound")
		return
	}
	if count < 0 || offset < 0 || offset+int(count)*size > len(c.buffers[call.ElementBuffer].data) {
		c.fail("DrawElementsBaseVertex: %d indices at offset %d exceed element buffer %d", count, offset, call.ElementBuffer)
		return
	}
	call.Indexed, call.Count, call.IndexType, call.Offset, call.BaseVertex = true, count, xtype, offset, baseVertex
	c.draws = append(c.draws, call)
}

func (c *Context) DispatchCompute(x, y, z uint32) {
	if c.program == 0 || !c.programs[c.program].compute {
		c.fail("DispatchCompute: no compute program in use")
		return
	}
	c.dispatches = append(c.dispatches, [3]uint32{x, y, z})
}

// Draws returns the draws issued so far.
func (c *Context) Draws() []DrawCall {
	return append([]DrawCall(nil), c.draws...)
}

// Dispatches returns the work group counts of every compute dispatch.
func (c *Context) Dispatches() [][3]uint32 {
	return append([][3]uint32(nil), c.dispatches...)
}
