// Package soft is an in-memory OpenGL 4.6 context implementing opengl.GL.
//
// It keeps real storage for buffers and textures, checks SPIR-V binaries,
// links programs by stage, checks framebuffer completeness, performs clears,
// copies, uploads and blits, and records draw and dispatch calls instead of
// rasterizing. Misuse that a real context reports through glGetError is
// collected in Errors and forwarded to the debug callback.
//
// A Context is used from one goroutine, except for sync objects: Stall
// holds back every fence inserted afterwards until Resume, so that a
// ClientWaitSync on another goroutine blocks the way it does on a busy GPU.
package soft

import (
	"fmt"
	"sync"

	"github.com/andewx/glal/opengl"
)

// MaxTextureSize is the value reported for MAX_TEXTURE_SIZE.
const MaxTextureSize = 16384

type Context struct {
	next uint32

	buffers      map[uint32]*buffer
	textures     map[uint32]*texture
	samplers     map[uint32]map[uint32]int32
	shaders      map[uint32]*shader
	programs     map[uint32]*program
	vertexArrays map[uint32]*vertexArray
	framebuffers map[uint32]*framebuffer

	bound        map[uint32]uint32
	indexed      map[indexKey]BufferRange
	textureUnits map[uint32]uint32
	samplerUnits map[uint32]uint32
	program      uint32
	vertexArray  uint32
	framebuffer  uint32
	caps         map[uint32]bool
	depthMask    bool
	viewport     [4]int32
	scissor      [4]int32
	pixelStore   map[uint32]int32

	screen     Frame
	draws      []DrawCall
	dispatches [][3]uint32
	errors     []string
	debug      opengl.DebugProc

	mu       sync.Mutex
	cond     *sync.Cond
	syncs    map[uintptr]*syncObject
	nextSync uintptr
	stalled  bool
}

var _ opengl.GL = (*Context)(nil)

func NewContext() *Context {
	c := &Context{
		buffers:      make(map[uint32]*buffer),
		textures:     make(map[uint32]*texture),
		samplers:     make(map[uint32]map[uint32]int32),
		shaders:      make(map[uint32]*shader),
		programs:     make(map[uint32]*program),
		vertexArrays: make(map[uint32]*vertexArray),
		framebuffers: make(map[uint32]*framebuffer),
		bound:        make(map[uint32]uint32),
		indexed:      make(map[indexKey]BufferRange),
		textureUnits: make(map[uint32]uint32),
		samplerUnits: make(map[uint32]uint32),
		caps:         make(map[uint32]bool),
		depthMask:    true,
		pixelStore:   map[uint32]int32{opengl.UNPACK_ALIGNMENT: 4},
		syncs:        make(map[uintptr]*syncObject),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *Context) name() uint32 {
	c.next++
	return c.next
}

// fail records a GL error and reports it through the debug callback.
func (c *Context) fail(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	c.errors = append(c.errors, msg)
	if c.debug != nil {
		c.debug(0x8246, 0x824C, uint32(len(c.errors)), opengl.DEBUG_SEVERITY_HIGH, msg)
	}
}

// Errors returns every error recorded so far.
func (c *Context) Errors() []string {
	return append([]string(nil), c.errors...)
}

func (c *Context) DebugMessageCallback(fn opengl.DebugProc) {
	c.debug = fn
}

func (c *Context) Enable(capability uint32) {
	c.caps[capability] = true
}

func (c *Context) Disable(capability uint32) {
	delete(c.caps, capability)
}

// Enabled reports whether capability is enabled.
func (c *Context) Enabled(capability uint32) bool {
	return c.caps[capability]
}

func (c *Context) DepthMask(flag bool) {
	c.depthMask = flag
}

func (c *Context) Viewport(x, y, width, height int32) {
	c.viewport = [4]int32{x, y, width, height}
}

// CurrentViewport returns the last Viewport rectangle.
func (c *Context) CurrentViewport() [4]int32 {
	return c.viewport
}

func (c *Context) Scissor(x, y, width, height int32) {
	c.scissor = [4]int32{x, y, width, height}
}

func (c *Context) PixelStorei(pname uint32, param int32) {
	c.pixelStore[pname] = param
}

func (c *Context) GetIntegerv(pname uint32) int32 {
	switch pname {
	case opengl.MAX_TEXTURE_SIZE:
		return MaxTextureSize
	case opengl.UNPACK_ALIGNMENT:
		return c.pixelStore[pname]
	}
	c.fail("GetIntegerv: unsupported pname %#x", pname)
	return 0
}

// Counts is the number of live objects of each kind.
type Counts struct {
	Buffers      int
	Textures     int
	Samplers     int
	Shaders      int
	Programs     int
	VertexArrays int
	Framebuffers int
	Syncs        int
}

func (c *Context) Live() Counts {
	c.mu.Lock()
	syncs := len(c.syncs)
	c.mu.Unlock()
	return Counts{
		Buffers:      len(c.buffers),
		Textures:     len(c.textures),
		Samplers:     len(c.samplers),
		Shaders:      len(c.shaders),
		Programs:     len(c.programs),
		VertexArrays: len(c.vertexArrays),
		Framebuffers: len(c.framebuffers),
		Syncs:        syncs,
	}
}
