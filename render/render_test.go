package render

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/glal"
	"github.com/andewx/glal/opengl"
	"github.com/andewx/glal/opengl/soft"
)

func TestVertexLayout(t *testing.T) {
	data := encode(Triangle)
	require.Len(t, data, 3*20)
	second := data[20:40]
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(second[0:])))
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(second[4:])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(second[12:])), "green")
	assert.Equal(t, 64, binary.Size(Uniforms{}))
}

func TestTransform(t *testing.T) {
	m := Transform(0, glal.Extent2D{Width: 800, Height: 600})
	assert.InDelta(t, 0.75, m.At(0, 0), 1e-6, "x is scaled by the aspect ratio")
	assert.InDelta(t, 1, m.At(1, 1), 1e-6)

	m = Transform(100, glal.Extent2D{Width: 600, Height: 600})
	v := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, math.Cos(1), v.X(), 1e-5)
	assert.InDelta(t, math.Sin(1), v.Y(), 1e-5)
	assert.InDelta(t, 1, v.W(), 1e-6)

	assert.Equal(t, Transform(0, glal.Extent2D{Width: 1, Height: 1}), Transform(0, glal.Extent2D{Width: 5, Height: 0}),
		"an empty extent is treated as square")
}

func TestClipCorrection(t *testing.T) {
	assert.Equal(t, mgl32.Ident4(), ClipCorrection(glal.BackendOpenGL))

	m := ClipCorrection(glal.BackendVulkan)
	top := m.Mul4x1(mgl32.Vec4{0, 1, -1, 1})
	assert.Equal(t, mgl32.Vec4{0, -1, 0, 1}, top, "near plane at depth 0, y flipped")
	far := m.Mul4x1(mgl32.Vec4{0, 0, 1, 1})
	assert.Equal(t, float32(1), far.Z())
}

func TestFrameStats(t *testing.T) {
	var s FrameStats
	assert.Zero(t, s.Mean())
	for _, d := range []time.Duration{3 * time.Millisecond, time.Millisecond, 5 * time.Millisecond} {
		s.add(d)
	}
	assert.Equal(t, uint64(3), s.Frames)
	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 5*time.Millisecond, s.Max)
	assert.Equal(t, 5*time.Millisecond, s.Last)
	assert.Equal(t, 3*time.Millisecond, s.Mean())
	assert.Equal(t, "3 frames, mean 3ms, min 1ms, max 5ms", s.String())

	var timed FrameStats
	startTimer().stop(&timed)
	assert.Equal(t, uint64(1), timed.Frames)
}

type scene struct {
	ctx    *soft.Context
	inst   *opengl.Instance
	window *soft.Window
	p      *glal.Presentation
	r      *Renderer
}

func newScene(t *testing.T) *scene {
	t.Helper()
	log := glal.NewLogger(&bytes.Buffer{}, glal.LevelVerbose)
	log.SetFatalHandler(glal.PanicOnFatal)
	ctx := soft.NewContext()
	inst := opengl.NewInstance(ctx, glal.InstanceDesc{ApplicationName: t.Name(), Lifetime: glal.LifetimeStrict, Logger: log})
	device := inst.PhysicalDevices()[0].CreateDevice()
	window := soft.NewWindow(ctx)
	cfg := glal.DefaultConfig()
	sc := device.CreateSwapchain(cfg.SwapchainDesc(window, glal.Extent2D{Width: 800, Height: 600}))
	p := &glal.Presentation{Device: device, Swapchain: sc}
	r := New(p, Shaders{
		Vertex:   soft.SPIRV(glal.StageVertex, "main"),
		Fragment: soft.SPIRV(glal.StageFragment, "main"),
	}, log)
	return &scene{ctx: ctx, inst: inst, window: window, p: p, r: r}
}

// destroy tears the scene down under the strict lifetime policy, which
// fails if the renderer leaked anything.
func (s *scene) destroy(t *testing.T) {
	s.r.Destroy()
	s.p.Device.DestroySwapchain(s.p.Swapchain)
	s.p.Device.PhysicalDevice().DestroyDevice(s.p.Device)
	s.inst.Destroy()
	live := s.ctx.Live()
	assert.Zero(t, live.Buffers+live.Textures+live.Shaders+live.Programs+live.VertexArrays+live.Framebuffers)
}

func TestRendererFrames(t *testing.T) {
	s := newScene(t)
	require.Empty(t, s.ctx.Draws(), "the upload draws nothing")

	before := s.p.Swapchain.ImageIndex()
	s.r.Frame()
	s.r.Frame()
	assert.Equal(t, before, s.p.Swapchain.ImageIndex(), "two frames go round a ring of two")
	require.Empty(t, s.ctx.Errors())

	draws := s.ctx.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, int32(3), draws[1].Count)
	assert.Equal(t, int32(20), draws[1].Stride)
	assert.Equal(t, [4]int32{0, 0, 800, 600}, draws[1].Viewport)

	ubo, ok := s.ctx.IndexedBuffer(opengl.UNIFORM_BUFFER, 0)
	require.True(t, ok)
	assert.Equal(t, 64, ubo.Size)

	require.Equal(t, 2, s.window.Swaps())
	frame := s.window.LastFrame()
	assert.Equal(t, []byte{13, 13, 26, 255}, frame.At(0, 0))

	stats := s.r.Stats()
	assert.Equal(t, uint64(2), stats.Frames)
	assert.LessOrEqual(t, stats.Min, stats.Max)
	s.destroy(t)
}

func TestRendererResize(t *testing.T) {
	s := newScene(t)
	s.r.Frame()
	s.r.Resize(s.p, glal.Extent2D{Width: 640, Height: 480})
	assert.Equal(t, glal.Extent2D{Width: 640, Height: 480}, s.p.Swapchain.Extent())

	s.r.Frame()
	draws := s.ctx.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, [4]int32{0, 0, 640, 480}, draws[1].Viewport)
	assert.Equal(t, int32(640), s.window.LastFrame().Width)

	s.r.Resize(s.p, glal.Extent2D{})
	assert.Equal(t, glal.Extent2D{Width: 640, Height: 480}, s.p.Swapchain.Extent(), "minimized windows keep the swapchain")
	s.destroy(t)
}
