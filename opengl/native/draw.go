package native

import (
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/andewx/glal/opengl"
)

func (Context) CreateVertexArray() uint32 {
	var id uint32
	gl.CreateVertexArrays(1, &id)
	return id
}

func (Context) DeleteVertexArray(vao uint32) {
	gl.DeleteVertexArrays(1, &vao)
}

func (Context) BindVertexArray(vao uint32) {
	gl.BindVertexArray(vao)
}

func (Context) EnableVertexArrayAttrib(vao, index uint32) {
	gl.EnableVertexArrayAttrib(vao, index)
}

func (Context) VertexArrayAttribBinding(vao, index, binding uint32) {
	gl.VertexArrayAttribBinding(vao, index, binding)
}

func (Context) VertexArrayAttribFormat(vao, index uint32, size int32, xtype uint32, normalized bool, offset uint32) {
	gl.VertexArrayAttribFormat(vao, index, size, xtype, normalized, offset)
}

func (Context) VertexArrayBindingDivisor(vao, binding, divisor uint32) {
	gl.VertexArrayBindingDivisor(vao, binding, divisor)
}

func (Context) VertexArrayVertexBuffer(vao, binding, buffer uint32, offset int, stride int32) {
	gl.VertexArrayVertexBuffer(vao, binding, buffer, offset, stride)
}

func (Context) VertexArrayElementBuffer(vao, buffer uint32) {
	gl.VertexArrayElementBuffer(vao, buffer)
}

func (Context) CreateFramebuffer() uint32 {
	var id uint32
	gl.CreateFramebuffers(1, &id)
	return id
}

func (Context) DeleteFramebuffer(fb uint32) {
	gl.DeleteFramebuffers(1, &fb)
}

func (Context) NamedFramebufferTexture(fb, attachment, texture uint32, level int32) {
	gl.NamedFramebufferTexture(fb, attachment, texture, level)
}

func (Context) NamedFramebufferDrawBuffers(fb uint32, buffers []uint32) {
	if len(buffers) == 0 {
		gl.NamedFramebufferDrawBuffer(fb, gl.NONE)
		return
	}
	gl.NamedFramebufferDrawBuffers(fb, int32(len(buffers)), &buffers[0])
}

func (Context) CheckNamedFramebufferStatus(fb, target uint32) uint32 {
	return gl.CheckNamedFramebufferStatus(fb, target)
}

func (Context) BindFramebuffer(target, fb uint32) {
	gl.BindFramebuffer(target, fb)
}

func (Context) ClearNamedFramebufferfv(fb, buffer uint32, drawBuffer int32, value [4]float32) {
	gl.ClearNamedFramebufferfv(fb, buffer, drawBuffer, &value[0])
}

func (Context) ClearNamedFramebufferiv(fb, buffer uint32, drawBuffer int32, value int32) {
	gl.ClearNamedFramebufferiv(fb, buffer, drawBuffer, &value)
}

func (Context) BlitNamedFramebuffer(src, dst uint32, srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1 int32, mask, filter uint32) {
	gl.BlitNamedFramebuffer(src, dst, srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1, mask, filter)
}

func (Context) Enable(capability uint32) {
	gl.Enable(capability)
}

func (Context) Disable(capability uint32) {
	gl.Disable(capability)
}

func (Context) DepthMask(flag bool) {
	gl.DepthMask(flag)
}

func (Context) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (Context) Scissor(x, y, width, height int32) {
	gl.Scissor(x, y, width, height)
}

func (Context) PixelStorei(pname uint32, param int32) {
	gl.PixelStorei(pname, param)
}

func (Context) GetIntegerv(pname uint32) int32 {
	var v int32
	gl.GetIntegerv(pname, &v)
	return v
}

func (Context) DrawArrays(mode uint32, first, count int32) {
	gl.DrawArrays(mode, first, count)
}

func (Context) DrawElementsBaseVertex(mode uint32, count int32, xtype uint32, offset int, baseVertex int32) {
	gl.DrawElementsBaseVertex(mode, count, xtype, gl.PtrOffset(offset), baseVertex)
}

func (Context) DispatchCompute(x, y, z uint32) {
	gl.DispatchCompute(x, y, z)
}

func (Context) FenceSync(condition, flags uint32) uintptr {
	return gl.FenceSync(condition, flags)
}

func (Context) ClientWaitSync(sync uintptr, flags uint32, timeout uint64) uint32 {
	return gl.ClientWaitSync(sync, flags, timeout)
}

func (Context) DeleteSync(sync uintptr) {
	gl.DeleteSync(sync)
}

func (Context) Finish() {
	gl.Finish()
}

func (Context) DebugMessageCallback(fn opengl.DebugProc) {
	if fn == nil {
		gl.DebugMessageCallback(nil, nil)
		return
	}
	gl.DebugMessageCallback(func(source, xtype, id, severity uint32, length int32, message string, _ unsafe.Pointer) {
		fn(source, xtype, id, severity, message)
	}, nil)
}
