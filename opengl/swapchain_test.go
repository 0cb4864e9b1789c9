package opengl_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/glal"
	"github.com/andewx/glal/opengl"
)

func TestSwapchainRingOrder(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	sc := f.swapchain(2)
	fences := []glal.Fence{f.device.CreateFence(), f.device.CreateFence(), f.device.CreateFence()}

	var got []uint32
	for _, fence := range fences {
		got = append(got, sc.AcquireNextImage(fence))
		f.device.Queue(glal.QueueGraphics).Submit(nil, fence)
	}
	assert.Equal(t, []uint32{1, 0, 1}, got)
	assert.Equal(t, uint32(1), sc.ImageIndex())
}

func TestSwapchainAcquireWaitsForSlotFence(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	sc := f.swapchain(2)
	first, second := f.device.CreateFence(), f.device.CreateFence()
	queue := f.device.Queue(glal.QueueGraphics)

	f.ctx.Stall()
	require.Equal(t, uint32(1), sc.AcquireNextImage(first))
	queue.Submit(nil, first)
	require.Equal(t, uint32(0), sc.AcquireNextImage(second))
	queue.Submit(nil, second)
	assert.False(t, first.Signaled())
	assert.Equal(t, 2, f.ctx.Pending())

	acquired := make(chan uint32, 1)
	go func() {
		acquired <- sc.AcquireNextImage(nil)
	}()
	select {
	case <-acquired:
		t.Fatal("acquire returned before the slot's fence signaled")
	case <-time.After(50 * time.Millisecond):
	}

	f.ctx.Resume()
	select {
	case index := <-acquired:
		assert.Equal(t, uint32(1), index)
	case <-time.After(5 * time.Second):
		t.Fatal("acquire still blocked after the fence signaled")
	}
	assert.True(t, first.Signaled())
	assert.True(t, second.Signaled())
}

func TestSwapchainSkipsDestroyedFence(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	sc := f.swapchain(1)
	fence := f.device.CreateFence()
	f.ctx.Stall()
	sc.AcquireNextImage(fence)
	f.device.Queue(glal.QueueGraphics).Submit(nil, fence)
	f.device.DestroyFence(fence)
	assert.Equal(t, uint32(0), sc.AcquireNextImage(nil))
	f.ctx.Resume()
}

func TestFenceLifecycle(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	fence := f.device.CreateFence()
	assert.False(t, fence.Signaled(), "a new fence is unsignaled")
	f.device.Queue(glal.QueueCompute).Submit(nil, fence)
	assert.True(t, fence.Signaled())
	fence.Wait()
	fence.Reset()
	assert.False(t, fence.Signaled())
	fence.Wait()
	assert.True(t, fence.Signaled(), "waiting on a reset fence signals it behind issued work")
	f.device.DestroyFence(fence)
	assert.Zero(t, f.ctx.Live().Syncs)
}

func TestSwapchainImagesAreOwned(t *testing.T) {
	f := newFixture(t, glal.LifetimeStrict)
	sc := f.swapchain(3)
	assert.Equal(t, uint32(3), sc.ImageCount())
	assert.Equal(t, glal.FormatRGBA8UNorm, sc.Format())
	assert.Equal(t, glal.Extent2D{Width: 800, Height: 600}, sc.Extent())
	assert.Equal(t, glal.Extent3D{Width: 800, Height: 600, Depth: 1}, sc.Image(2).Extent())
	assert.Equal(t, sc.Image(1), sc.ImageView(1).Image())

	assert.Contains(t, requireFatal(t, func() { f.device.DestroyImage(sc.Image(0)) }), "owned by a swapchain")
	assert.Contains(t, requireFatal(t, func() { f.device.DestroyImageView(sc.ImageView(0)) }), "owned by a swapchain")
	assert.Contains(t, requireFatal(t, func() { sc.Image(3) }), "out of range")

	f.device.DestroySwapchain(sc)
	assert.Zero(t, f.ctx.Live().Textures)
	f.device.PhysicalDevice().DestroyDevice(f.device)
}

func TestSwapchainNeedsSwappableWindow(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	msg := requireFatal(t, func() {
		f.device.CreateSwapchain(glal.SwapchainDesc{
			NativeWindowHandle: "window",
			Extent:             glal.Extent2D{Width: 4, Height: 4},
			Format:             glal.FormatRGBA8UNorm,
			ImageCount:         2,
		})
	})
	assert.Contains(t, msg, "cannot swap buffers")
}

func TestPresentationRecreate(t *testing.T) {
	f := newFixture(t, glal.LifetimeDefault)
	p := &glal.Presentation{Device: f.device, Swapchain: f.swapchain(2)}
	old := p.Swapchain

	assert.False(t, p.Recreate(glal.Extent2D{Width: 800, Height: 600}), "same extent")
	assert.False(t, p.Recreate(glal.Extent2D{Width: 0, Height: 600}), "minimized")
	require.True(t, p.Recreate(glal.Extent2D{Width: 640, Height: 480}))
	assert.NotEqual(t, old.Handle(), p.Swapchain.Handle())
	assert.Equal(t, glal.Extent2D{Width: 640, Height: 480}, p.Swapchain.Extent())
	assert.Equal(t, uint32(2), p.Swapchain.ImageCount())
	assert.Equal(t, 2, f.ctx.Live().Textures)
	assert.Contains(t, requireFatal(t, func() { old.AcquireNextImage(nil) }), "used after destroy")
}

// TestTriangleFrame records and presents one frame of the triangle sample.
func TestTriangleFrame(t *testing.T) {
	f := newFixture(t, glal.LifetimeStrict)
	physicals := f.inst.PhysicalDevices()
	require.Len(t, physicals, 1)

	sc := f.swapchain(2)
	vbo := f.device.CreateBuffer(glal.BufferDesc{Size: 3 * 20, Usage: glal.UsageVertex, Memory: glal.MemoryHostToDevice})
	vs, fs := f.shader(glal.StageVertex), f.shader(glal.StageFragment)
	layout := f.device.CreatePipelineLayout(glal.PipelineLayoutDesc{})
	pipeline := f.device.CreatePipeline(glal.PipelineDesc{
		Type:             glal.PipelineGraphics,
		Stages:           []glal.PipelineStage{{Stage: glal.StageVertex, Module: vs}, {Stage: glal.StageFragment, Module: fs}},
		VertexAttributes: triangleAttributes,
		Topology:         glal.TopologyTriangleList,
		Layout:           layout,
	})
	cmd := f.device.CreateCommandBuffer(glal.CommandBufferOnce)
	fence := f.device.CreateFence()
	queue := f.device.Queue(glal.QueueGraphics)

	before := sc.ImageIndex()
	index := sc.AcquireNextImage(fence)
	clear := glal.ClearValue{Color: [4]float32{0.05, 0.05, 0.10, 1.0}}

	cmd.Begin()
	cmd.Transition(sc.Image(index), glal.StateRenderTarget)
	cmd.BeginRenderPass(glal.RenderPassDesc{Color: []glal.RenderTarget{{View: sc.ImageView(index), Clear: true, Value: clear}}})
	cmd.BindPipeline(pipeline)
	cmd.BindVertexBuffer(vbo, 0)
	cmd.Draw(3, 0)
	cmd.EndRenderPass()
	cmd.Transition(sc.Image(index), glal.StatePresent)
	cmd.End()
	queue.Submit([]glal.CommandBuffer{cmd}, fence)
	queue.Present(sc)

	assert.Equal(t, (before+1)%sc.ImageCount(), sc.ImageIndex())
	require.Empty(t, f.ctx.Errors())

	draws := f.ctx.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, int32(3), draws[0].Count)
	assert.Equal(t, int32(20), draws[0].Stride)
	assert.Equal(t, [4]int32{0, 0, 800, 600}, draws[0].Viewport)

	require.Equal(t, 1, f.window.Swaps())
	frame := f.window.LastFrame()
	assert.Equal(t, int32(800), frame.Width)
	assert.Equal(t, int32(600), frame.Height)
	assert.Equal(t, uint32(opengl.RGBA8), frame.Format)
	assert.Equal(t, []byte{13, 13, 26, 255}, frame.At(0, 0))
	assert.Equal(t, []byte{13, 13, 26, 255}, frame.At(799, 599))

	fence.Wait()
	f.device.DestroyFence(fence)
	f.device.DestroyCommandBuffer(cmd)
	f.device.DestroyPipeline(pipeline)
	f.device.DestroyPipelineLayout(layout)
	f.device.DestroyShaderModule(vs)
	f.device.DestroyShaderModule(fs)
	f.device.DestroyBuffer(vbo)
	f.device.DestroySwapchain(sc)
	physicals[0].DestroyDevice(f.device)
	f.inst.Destroy()

	live := f.ctx.Live()
	assert.Zero(t, live.Buffers+live.Textures+live.Shaders+live.Programs+live.VertexArrays+live.Framebuffers+live.Syncs)
}
