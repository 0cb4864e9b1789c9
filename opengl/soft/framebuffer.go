package soft

import (
	"encoding/binary"
	"math"

	"github.com/andewx/glal/opengl"
)

type framebuffer struct {
	attachments map[uint32]uint32
	drawBuffers []uint32
}

// Frame is the content of the default framebuffer after a blit.
type Frame struct {
	Width  int32
	Height int32
	// Format is the internal format of the blitted color attachment.
	Format uint32
	Pixels []byte
}

// At returns the texel bytes at x, y.
func (f Frame) At(x, y int32) []byte {
	size := int32(internalSize(f.Format))
	off := (y*f.Width + x) * size
	return f.Pixels[off : off+size]
}

func (c *Context) CreateFramebuffer() uint32 {
	id := c.name()
	c.framebuffers[id] = &framebuffer{
		attachments: make(map[uint32]uint32),
		drawBuffers: []uint32{opengl.COLOR_ATTACHMENT0},
	}
	return id
}

func (c *Context) DeleteFramebuffer(id uint32) {
	if _, ok := c.framebuffers[id]; !ok {
		c.fail("DeleteFramebuffer: unknown framebuffer %d", id)
		return
	}
	delete(c.framebuffers, id)
	if c.framebuffer == id {
		c.framebuffer = 0
	}
}

func (c *Context) fbo(op string, id uint32) *framebuffer {
	fb, ok := c.framebuffers[id]
	if !ok {
		c.fail("%s: unknown framebuffer %d", op, id)
	}
	return fb
}

func (c *Context) NamedFramebufferTexture(id, attachment, tex uint32, level int32) {
	fb := c.fbo("NamedFramebufferTexture", id)
	if fb == nil {
		return
	}
	if tex == 0 {
		delete(fb.attachments, attachment)
		return
	}
	if c.texture("NamedFramebufferTexture", tex) == nil {
		return
	}
	if level != 0 {
		c.fail("NamedFramebufferTexture: level %d not supported", level)
		return
	}
	if attachment == opengl.DEPTH_STENCIL_ATTACHMENT {
		fb.attachments[opengl.DEPTH_ATTACHMENT] = tex
		fb.attachments[opengl.STENCIL_ATTACHMENT] = tex
		return
	}
	fb.attachments[attachment] = tex
}

func (c *Context) NamedFramebufferDrawBuffers(id uint32, buffers []uint32) {
	fb := c.fbo("NamedFramebufferDrawBuffers", id)
	if fb == nil {
		return
	}
	for _, b := range buffers {
		if !isColorAttachment(b) {
			c.fail("NamedFramebufferDrawBuffers: invalid draw buffer %#x", b)
			return
		}
	}
	fb.drawBuffers = append([]uint32(nil), buffers...)
}

func isColorAttachment(point uint32) bool {
	return point >= opengl.COLOR_ATTACHMENT0 && point < opengl.COLOR_ATTACHMENT0+32
}

func (c *Context) CheckNamedFramebufferStatus(id, target uint32) uint32 {
	if id == 0 {
		return opengl.FRAMEBUFFER_COMPLETE
	}
	fb := c.fbo("CheckNamedFramebufferStatus", id)
	if fb == nil {
		return 0
	}
	if len(fb.attachments) == 0 {
		return opengl.INCOMPLETE_MISSING_ATTACHMENT
	}
	for point, tex := range fb.attachments {
		t, ok := c.textures[tex]
		if !ok || t.data == nil {
			return opengl.INCOMPLETE_ATTACHMENT
		}
		switch {
		case isColorAttachment(point):
			if isDepthFormat(t.internal) {
				return opengl.INCOMPLETE_ATTACHMENT
			}
		case point == opengl.DEPTH_ATTACHMENT:
			if !isDepthFormat(t.internal) {
				return opengl.INCOMPLETE_ATTACHMENT
			}
		case point == opengl.STENCIL_ATTACHMENT:
			if t.internal != opengl.DEPTH24_STENCIL8 {
				return opengl.INCOMPLETE_ATTACHMENT
			}
		}
	}
	return opengl.FRAMEBUFFER_COMPLETE
}

func (c *Context) BindFramebuffer(target, id uint32) {
	if id != 0 && c.fbo("BindFramebuffer", id) == nil {
		return
	}
	switch target {
	case opengl.FRAMEBUFFER, opengl.DRAW_FRAMEBUFFER:
		c.framebuffer = id
	case opengl.READ_FRAMEBUFFER:
	default:
		c.fail("BindFramebuffer: invalid target %#x", target)
	}
}

// CurrentFramebuffer returns the draw framebuffer.
func (c *Context) CurrentFramebuffer() uint32 {
	return c.framebuffer
}

// Attachment returns the texture attached to point of framebuffer id.
func (c *Context) Attachment(id, point uint32) uint32 {
	if fb, ok := c.framebuffers[id]; ok {
		return fb.attachments[point]
	}
	return 0
}

// clearTarget resolves the texture a clear of buffer writes to.
func (c *Context) clearTarget(op string, id, buffer uint32, drawBuffer int32) *texture {
	fb := c.fbo(op, id)
	if fb == nil {
		return nil
	}
	var point uint32
	switch buffer {
	case opengl.COLOR:
		if drawBuffer < 0 || int(drawBuffer) >= len(fb.drawBuffers) {
			c.fail("%s: draw buffer %d out of range", op, drawBuffer)
			return nil
		}
		point = fb.drawBuffers[drawBuffer]
	case opengl.DEPTH:
		point = opengl.DEPTH_ATTACHMENT
	case opengl.STENCIL:
		point = opengl.STENCIL_ATTACHMENT
	default:
		c.fail("%s: invalid buffer %#x", op, buffer)
		return nil
	}
	tex, ok := fb.attachments[point]
	if !ok {
		// Clearing an absent attachment has no effect.
		return nil
	}
	return c.textures[tex]
}

// clearRect returns the region of t a clear writes, honoring the scissor.
func (c *Context) clearRect(t *texture) (x0, y0, x1, y1 int32) {
	x1, y1 = t.width, t.height
	if c.caps[opengl.SCISSOR_TEST] {
		s := c.scissor
		x0, y0 = max(s[0], 0), max(s[1], 0)
		x1, y1 = min(s[0]+s[2], x1), min(s[1]+s[3], y1)
	}
	return x0, y0, x1, y1
}

func (c *Context) fill(t *texture, write func(texel []byte)) {
	size := int32(internalSize(t.internal))
	x0, y0, x1, y1 := c.clearRect(t)
	for z := int32(0); z < t.depth; z++ {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				off := ((z*t.height+y)*t.width + x) * size
				write(t.data[off : off+size])
			}
		}
	}
}

func (c *Context) ClearNamedFramebufferfv(id, buffer uint32, drawBuffer int32, value [4]float32) {
	if buffer == opengl.STENCIL {
		c.fail("ClearNamedFramebufferfv: stencil is cleared with integer values")
		return
	}
	t := c.clearTarget("ClearNamedFramebufferfv", id, buffer, drawBuffer)
	if t == nil {
		return
	}
	if buffer == opengl.DEPTH && !c.depthMask {
		return
	}
	texel := encode(t.internal, value)
	if t.internal == opengl.DEPTH24_STENCIL8 {
		depth := texel
		c.fill(t, func(dst []byte) {
			stencil := dst[0]
			copy(dst, depth)
			dst[0] = stencil
		})
		return
	}
	c.fill(t, func(dst []byte) { copy(dst, texel) })
}

func (c *Context) ClearNamedFramebufferiv(id, buffer uint32, drawBuffer int32, value int32) {
	if buffer != opengl.STENCIL {
		c.fail("ClearNamedFramebufferiv: buffer %#x is not an integer buffer", buffer)
		return
	}
	t := c.clearTarget("ClearNamedFramebufferiv", id, buffer, drawBuffer)
	if t == nil {
		return
	}
	c.fill(t, func(dst []byte) { dst[0] = byte(value) })
}

// encode converts a clear value to one texel of internal.
func encode(internal uint32, v [4]float32) []byte {
	switch internal {
	case opengl.RGBA8, opengl.SRGB8_ALPHA8:
		b := make([]byte, 4)
		for i := range b {
			b[i] = unorm8(v[i])
		}
		return b
	case opengl.RGBA32F:
		b := make([]byte, 16)
		for i := 0; i < 4; i++ {
			binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v[i]))
		}
		return b
	case opengl.RGBA16F, opengl.RG16F:
		n := 4
		if internal == opengl.RG16F {
			n = 2
		}
		b := make([]byte, n*2)
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint16(b[i*2:], Half(v[i]))
		}
		return b
	case opengl.DEPTH_COMPONENT32F:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, math.Float32bits(v[0]))
		return b
	case opengl.DEPTH24_STENCIL8:
		d := uint32(math.Round(float64(clamp01(v[0])) * 0xffffff))
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, d<<8)
		return b
	}
	return make([]byte, internalSize(internal))
}

func clamp01(f float32) float32 {
	return min(max(f, 0), 1)
}

func unorm8(f float32) byte {
	return byte(math.Round(float64(clamp01(f)) * 255))
}

// Half converts f to an IEEE 754 binary16 value, rounding to nearest even.
func Half(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int32(bits>>23&0xff) - 127 + 15
	mant := bits & 0x7fffff
	switch {
	case bits&0x7fffffff == 0:
		return sign
	case bits>>23&0xff == 0xff:
		if mant != 0 {
			return sign | 0x7e00
		}
		return sign | 0x7c00
	case exp >= 0x1f:
		return sign | 0x7c00
	case exp <= 0:
		if exp < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint32(14 - exp)
		half := mant >> shift
		rem := mant & (1<<shift - 1)
		mid := uint32(1) << (shift - 1)
		if rem > mid || (rem == mid && half&1 == 1) {
			half++
		}
		return sign | uint16(half)
	}
	half := uint32(exp)<<10 | mant>>13
	rem := mant & 0x1fff
	if rem > 0x1000 || (rem == 0x1000 && half&1 == 1) {
		half++
	}
	return sign | uint16(half)
}

// BlitNamedFramebuffer copies color between framebuffers with nearest
// sampling. Framebuffer 0 is the screen, whose size follows the
// destination rectangle of the last blit.
func (c *Context) BlitNamedFramebuffer(src, dst uint32, srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1 int32, mask, filter uint32) {
	if mask != opengl.COLOR_BUFFER_BIT {
		c.fail("BlitNamedFramebuffer: only color blits are supported")
		return
	}
	if filter != opengl.NEAREST && filter != opengl.LINEAR {
		c.fail("BlitNamedFramebuffer: invalid filter %#x", filter)
		return
	}
	if srcX1 <= srcX0 || srcY1 <= srcY0 || dstX1 <= dstX0 || dstY1 <= dstY0 {
		c.fail("BlitNamedFramebuffer: empty or mirrored rectangle")
		return
	}
	s := c.readTexture("BlitNamedFramebuffer", src)
	if s == nil {
		return
	}
	if srcX0 < 0 || srcY0 < 0 || srcX1 > s.width || srcY1 > s.height {
		c.fail("BlitNamedFramebuffer: source rectangle exceeds framebuffer %d", src)
		return
	}
	size := int32(internalSize(s.internal))
	w, h := dstX1-dstX0, dstY1-dstY0
	var out []byte
	var stride int32
	if dst == 0 {
		c.screen = Frame{Width: dstX1, Height: dstY1, Format: s.internal, Pixels: make([]byte, dstX1*dstY1*size)}
		out, stride = c.screen.Pixels, dstX1
	} else {
		fb := c.fbo("BlitNamedFramebuffer", dst)
		if fb == nil || len(fb.drawBuffers) == 0 {
			return
		}
		d := c.textures[fb.attachments[fb.drawBuffers[0]]]
		if d == nil || d.internal != s.internal {
			c.fail("BlitNamedFramebuffer: destination format does not match source")
			return
		}
		if dstX1 > d.width || dstY1 > d.height {
			c.fail("BlitNamedFramebuffer: destination rectangle exceeds framebuffer %d", dst)
			return
		}
		out, stride = d.data, d.width
	}
	sw, sh := srcX1-srcX0, srcY1-srcY0
	for y := int32(0); y < h; y++ {
		sy := srcY0 + y*sh/h
		for x := int32(0); x < w; x++ {
			sx := srcX0 + x*sw/w
			from := (sy*s.width + sx) * size
			to := ((dstY0+y)*stride + dstX0 + x) * size
			copy(out[to:to+size], s.data[from:from+size])
		}
	}
}

func (c *Context) readTexture(op string, id uint32) *texture {
	if id == 0 {
		c.fail("%s: the screen cannot be read", op)
		return nil
	}
	fb := c.fbo(op, id)
	if fb == nil {
		return nil
	}
	t, ok := c.textures[fb.attachments[opengl.COLOR_ATTACHMENT0]]
	if !ok {
		c.fail("%s: framebuffer %d has no color attachment 0", op, id)
		return nil
	}
	return t
}

// Screen returns the default framebuffer.
func (c *Context) Screen() Frame {
	return c.screen
}
