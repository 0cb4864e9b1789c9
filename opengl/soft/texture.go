package soft

import (
	"github.com/andewx/glal/opengl"
)

type texture struct {
	target   uint32
	levels   int32
	internal uint32
	width    int32
	height   int32
	depth    int32
	data     []byte
}

// TextureInfo describes the storage of a texture.
type TextureInfo struct {
	Target         uint32
	Levels         int32
	InternalFormat uint32
	Width          int32
	Height         int32
	Depth          int32
}

// internalSize returns the texel size of an internal format.
func internalSize(internal uint32) int {
	switch internal {
	case opengl.RGBA8, opengl.SRGB8_ALPHA8, opengl.RG16F, opengl.DEPTH24_STENCIL8, opengl.DEPTH_COMPONENT32F:
		return 4
	case opengl.RGBA16F:
		return 8
	case opengl.RGBA32F:
		return 16
	}
	return 0
}

// externalSize returns the size of one pixel in client memory.
func externalSize(format, xtype uint32) int {
	if xtype == opengl.UNSIGNED_INT_24_8 {
		return 4
	}
	var components int
	switch format {
	case opengl.RGBA, opengl.BGRA:
		components = 4
	case opengl.RG:
		components = 2
	case opengl.DEPTH_COMPONENT:
		components = 1
	default:
		return 0
	}
	switch xtype {
	case opengl.UNSIGNED_BYTE, opengl.BYTE:
		return components
	case opengl.HALF_FLOAT, opengl.UNSIGNED_SHORT, opengl.SHORT:
		return components * 2
	case opengl.FLOAT, opengl.UNSIGNED_INT, opengl.INT:
		return components * 4
	}
	return 0
}

func isDepthFormat(internal uint32) bool {
	return internal == opengl.DEPTH24_STENCIL8 || internal == opengl.DEPTH_COMPONENT32F
}

func (c *Context) CreateTexture(target uint32) uint32 {
	switch target {
	case opengl.TEXTURE_1D, opengl.TEXTURE_2D, opengl.TEXTURE_3D, opengl.TEXTURE_1D_ARRAY, opengl.TEXTURE_2D_ARRAY:
	default:
		c.fail("CreateTexture: invalid target %#x", target)
		return 0
	}
	id := c.name()
	c.textures[id] = &texture{target: target}
	return id
}

func (c *Context) DeleteTexture(id uint32) {
	if _, ok := c.textures[id]; !ok {
		c.fail("DeleteTexture: unknown texture %d", id)
		return
	}
	delete(c.textures, id)
	for unit, t := range c.textureUnits {
		if t == id {
			delete(c.textureUnits, unit)
		}
	}
}

func (c *Context) texture(op string, id uint32) *texture {
	t, ok := c.textures[id]
	if !ok {
		c.fail("%s: unknown texture %d", op, id)
	}
	return t
}

func (c *Context) storage(op string, id uint32, dims int, levels int32, internal uint32, w, h, d int32) {
	t := c.texture(op, id)
	if t == nil {
		return
	}
	var want int
	switch t.target {
	case opengl.TEXTURE_1D:
		want = 1
	case opengl.TEXTURE_2D, opengl.TEXTURE_1D_ARRAY:
		want = 2
	default:
		want = 3
	}
	switch {
	case want != dims:
		c.fail("%s: texture %d has target %#x", op, id, t.target)
	case t.data != nil:
		c.fail("%s: texture %d already has immutable storage", op, id)
	case internalSize(internal) == 0:
		c.fail("%s: unsupported internal format %#x", op, internal)
	case levels < 1 || w < 1 || h < 1 || d < 1:
		c.fail("%s: invalid size %dx%dx%d with %d levels", op, w, h, d, levels)
	case w > MaxTextureSize || h > MaxTextureSize || d > MaxTextureSize:
		c.fail("%s: size %dx%dx%d exceeds %d", op, w, h, d, MaxTextureSize)
	default:
		t.levels, t.internal, t.width, t.height, t.depth = levels, internal, w, h, d
		t.data = make([]byte, int(w)*int(h)*int(d)*internalSize(internal))
	}
}

func (c *Context) TextureStorage1D(id uint32, levels int32, internal uint32, w int32) {
	c.storage("TextureStorage1D", id, 1, levels, internal, w, 1, 1)
}

func (c *Context) TextureStorage2D(id uint32, levels int32, internal uint32, w, h int32) {
	c.storage("TextureStorage2D", id, 2, levels, internal, w, h, 1)
}

func (c *Context) TextureStorage3D(id uint32, levels int32, internal uint32, w, h, d int32) {
	c.storage("TextureStorage3D", id, 3, levels, internal, w, h, d)
}

func (c *Context) subImage(op string, id uint32, level, x, y, z, w, h, d int32, format, xtype uint32, pixels []byte) {
	t := c.texture(op, id)
	if t == nil {
		return
	}
	if t.data == nil {
		c.fail("%s: texture %d has no storage", op, id)
		return
	}
	if level != 0 {
		// Only the base level keeps texels.
		return
	}
	if x < 0 || y < 0 || z < 0 || x+w > t.width || y+h > t.height || z+d > t.depth {
		c.fail("%s: region exceeds texture %d", op, id)
		return
	}
	size := internalSize(t.internal)
	if externalSize(format, xtype) != size {
		c.fail("%s: conversion from format %#x type %#x to %#x not supported", op, format, xtype, t.internal)
		return
	}
	n := int(w) * int(h) * int(d) * size
	if pixels == nil {
		unpack, ok := c.bound[opengl.PIXEL_UNPACK_BUFFER]
		if !ok {
			// No client memory and no unpack buffer: contents stay undefined.
			return
		}
		src := c.buffers[unpack].data
		if len(src) < n {
			c.fail("%s: unpack buffer %d holds %d of %d bytes", op, unpack, len(src), n)
			return
		}
		pixels = src
	}
	if len(pixels) < n {
		c.fail("%s: %d bytes of pixels for a %d byte region", op, len(pixels), n)
		return
	}
	swap := format == opengl.BGRA && size == 4
	row := int(w) * size
	i := 0
	for zz := z; zz < z+d; zz++ {
		for yy := y; yy < y+h; yy++ {
			off := ((int(zz)*int(t.height)+int(yy))*int(t.width) + int(x)) * size
			copy(t.data[off:off+row], pixels[i:i+row])
			if swap {
				for p := off; p < off+row; p += 4 {
					t.data[p], t.data[p+2] = t.data[p+2], t.data[p]
				}
			}
			i += row
		}
	}
}

func (c *Context) TextureSubImage1D(id uint32, level, x, w int32, format, xtype uint32, pixels []byte) {
	c.subImage("TextureSubImage1D", id, level, x, 0, 0, w, 1, 1, format, xtype, pixels)
}

func (c *Context) TextureSubImage2D(id uint32, level, x, y, w, h int32, format, xtype uint32, pixels []byte) {
	c.subImage("TextureSubImage2D", id, level, x, y, 0, w, h, 1, format, xtype, pixels)
}

func (c *Context) TextureSubImage3D(id uint32, level, x, y, z, w, h, d int32, format, xtype uint32, pixels []byte) {
	c.subImage("TextureSubImage3D", id, level, x, y, z, w, h, d, format, xtype, pixels)
}

func (c *Context) BindTextureUnit(unit, id uint32) {
	if id == 0 {
		delete(c.textureUnits, unit)
		return
	}
	if c.texture("BindTextureUnit", id) == nil {
		return
	}
	c.textureUnits[unit] = id
}

// TextureUnit returns the texture bound to unit.
func (c *Context) TextureUnit(unit uint32) uint32 {
	return c.textureUnits[unit]
}

// Texture returns the storage description and base level texels of id.
func (c *Context) Texture(id uint32) (TextureInfo, []byte, bool) {
	t, ok := c.textures[id]
	if !ok {
		return TextureInfo{}, nil, false
	}
	info := TextureInfo{Target: t.target, Levels: t.levels, InternalFormat: t.internal, Width: t.width, Height: t.height, Depth: t.depth}
	return info, t.data, true
}

func (c *Context) CreateSampler() uint32 {
	id := c.name()
	c.samplers[id] = make(map[uint32]int32)
	return id
}

func (c *Context) DeleteSampler(id uint32) {
	if _, ok := c.samplers[id]; !ok {
		c.fail("DeleteSampler: unknown sampler %d", id)
		return
	}
	delete(c.samplers, id)
	for unit, s := range c.samplerUnits {
		if s == id {
			delete(c.samplerUnits, unit)
		}
	}
}

func (c *Context) SamplerParameteri(id, pname uint32, param int32) {
	s, ok := c.samplers[id]
	if !ok {
		c.fail("SamplerParameteri: unknown sampler %d", id)
		return
	}
	s[pname] = param
}

// SamplerParameter returns a parameter set on sampler id.
func (c *Context) SamplerParameter(id, pname uint32) int32 {
	return c.samplers[id][pname]
}

func (c *Context) BindSampler(unit, id uint32) {
	if id == 0 {
		delete(c.samplerUnits, unit)
		return
	}
	if _, ok := c.samplers[id]; !ok {
		c.fail("BindSampler: unknown sampler %d", id)
		return
	}
	c.samplerUnits[unit] = id
}

// SamplerUnit returns the sampler bound to unit.
func (c *Context) SamplerUnit(unit uint32) uint32 {
	return c.samplerUnits[unit]
}
