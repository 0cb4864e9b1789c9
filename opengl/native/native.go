// Package native implements opengl.GL on the current OpenGL 4.6 context
// through go-gl and registers the "opengl" driver.
//
// The context has to be created and made current on the calling thread
// before the driver is opened, for example by window.New with the OpenGL
// API. Every call must then come from that thread.
package native

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/gl/v4.6-core/gl"

	"github.com/andewx/glal"
	"github.com/andewx/glal/opengl"
)

// DriverName is the name the native driver registers under.
const DriverName = "opengl"

func init() {
	glal.Register(driver{})
}

type driver struct{}

func (driver) Name() string {
	return DriverName
}

// Open loads the GL entry points of the current context.
func (driver) Open(desc glal.InstanceDesc) (glal.Instance, error) {
	if err := gl.Init(); err != nil {
		return nil, errors.Wrap(err, "loading OpenGL entry points")
	}
	desc.Logger.Infof("opengl.native", "OpenGL %s on %s", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))
	return opengl.NewInstance(Context{}, desc), nil
}

// Context forwards to the GL context current on the calling thread.
type Context struct{}

var _ opengl.GL = Context{}

// pixels returns the pointer argument for an upload: nil reads from the
// bound PIXEL_UNPACK_BUFFER at offset 0.
func pixels(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return gl.Ptr(data)
}

func (Context) CreateBuffer() uint32 {
	var id uint32
	gl.CreateBuffers(1, &id)
	return id
}

func (Context) DeleteBuffer(buffer uint32) {
	gl.DeleteBuffers(1, &buffer)
}

func (Context) NamedBufferStorage(buffer uint32, size int, data []byte, flags uint32) {
	gl.NamedBufferStorage(buffer, size, pixels(data), flags)
}

func (Context) MapNamedBuffer(buffer uint32, access uint32) []byte {
	var size int32
	gl.GetNamedBufferParameteriv(buffer, gl.BUFFER_SIZE, &size)
	ptr := gl.MapNamedBuffer(buffer, access)
	if ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), int(size))
}

func (Context) UnmapNamedBuffer(buffer uint32) bool {
	return gl.UnmapNamedBuffer(buffer)
}

func (Context) CopyNamedBufferSubData(src, dst uint32, srcOffset, dstOffset, size int) {
	gl.CopyNamedBufferSubData(src, dst, srcOffset, dstOffset, size)
}

func (Context) BindBuffer(target, buffer uint32) {
	gl.BindBuffer(target, buffer)
}

func (Context) BindBufferRange(target, index, buffer uint32, offset, size int) {
	gl.BindBufferRange(target, index, buffer, offset, size)
}

func (Context) CreateTexture(target uint32) uint32 {
	var id uint32
	gl.CreateTextures(target, 1, &id)
	return id
}

func (Context) DeleteTexture(texture uint32) {
	gl.DeleteTextures(1, &texture)
}

func (Context) TextureStorage1D(texture uint32, levels int32, internalFormat uint32, width int32) {
	gl.TextureStorage1D(texture, levels, internalFormat, width)
}

func (Context) TextureStorage2D(texture uint32, levels int32, internalFormat uint32, width, height int32) {
	gl.TextureStorage2D(texture, levels, internalFormat, width, height)
}

func (Context) TextureStorage3D(texture uint32, levels int32, internalFormat uint32, width, height, depth int32) {
	gl.TextureStorage3D(texture, levels, internalFormat, width, height, depth)
}

func (Context) TextureSubImage1D(texture uint32, level, x, width int32, format, xtype uint32, data []byte) {
	gl.TextureSubImage1D(texture, level, x, width, format, xtype, pixels(data))
}

func (Context) TextureSubImage2D(texture uint32, level, x, y, width, height int32, format, xtype uint32, data []byte) {
	gl.TextureSubImage2D(texture, level, x, y, width, height, format, xtype, pixels(data))
}

func (Context) TextureSubImage3D(texture uint32, level, x, y, z, width, height, depth int32, format, xtype uint32, data []byte) {
	gl.TextureSubImage3D(texture, level, x, y, z, width, height, depth, format, xtype, pixels(data))
}

func (Context) BindTextureUnit(unit, texture uint32) {
	gl.BindTextureUnit(unit, texture)
}

func (Context) CreateSampler() uint32 {
	var id uint32
	gl.CreateSamplers(1, &id)
	return id
}

func (Context) DeleteSampler(sampler uint32) {
	gl.DeleteSamplers(1, &sampler)
}

func (Context) SamplerParameteri(sampler, pname uint32, param int32) {
	gl.SamplerParameteri(sampler, pname, param)
}

func (Context) BindSampler(unit, sampler uint32) {
	gl.BindSampler(unit, sampler)
}
