package opengl_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andewx/glal"
	"github.com/andewx/glal/opengl"
	"github.com/andewx/glal/opengl/soft"
)

type fixture struct {
	ctx    *soft.Context
	inst   *opengl.Instance
	device glal.Device
	window *soft.Window
	logs   *bytes.Buffer
}

func newFixture(t *testing.T, lifetime glal.Lifetime) *fixture {
	t.Helper()
	var buf bytes.Buffer
	log := glal.NewLogger(&buf, glal.LevelVerbose)
	log.SetFatalHandler(glal.PanicOnFatal)
	ctx := soft.NewContext()
	inst := opengl.NewInstance(ctx, glal.InstanceDesc{
		ApplicationName:  t.Name(),
		EnableValidation: true,
		Lifetime:         lifetime,
		Logger:           log,
	})
	physicals := inst.PhysicalDevices()
	require.Len(t, physicals, 1)
	return &fixture{
		ctx:    ctx,
		inst:   inst,
		device: physicals[0].CreateDevice(),
		window: soft.NewWindow(ctx),
		logs:   &buf,
	}
}

// requireFatal runs fn and returns the message of the fatal diagnostic it
// raised.
func requireFatal(t *testing.T, fn func()) string {
	t.Helper()
	err := glal.Recover(fn)
	require.Error(t, err, "expected a fatal diagnostic")
	return err.Error()
}

func (f *fixture) shader(stage glal.ShaderStage) glal.ShaderModule {
	code := soft.SPIRV(stage, "main")
	return f.device.CreateShaderModule(glal.ShaderModuleDesc{Stage: stage, Code: code, Size: uint64(len(code))})
}

var triangleAttributes = []glal.VertexAttribute{
	{Binding: 0, Location: 0, Type: glal.TypeFloat, Count: 2, Offset: 0},
	{Binding: 0, Location: 1, Type: glal.TypeFloat, Count: 3, Offset: 8},
}

func (f *fixture) graphicsPipeline(layout glal.PipelineLayout) glal.Pipeline {
	if layout == nil {
		layout = f.device.CreatePipelineLayout(glal.PipelineLayoutDesc{})
	}
	return f.device.CreatePipeline(glal.PipelineDesc{
		Type: glal.PipelineGraphics,
		Stages: []glal.PipelineStage{
			{Stage: glal.StageVertex, Module: f.shader(glal.StageVertex)},
			{Stage: glal.StageFragment, Module: f.shader(glal.StageFragment)},
		},
		VertexAttributes: triangleAttributes,
		Topology:         glal.TopologyTriangleList,
		Layout:           layout,
	})
}

func (f *fixture) computePipeline() glal.Pipeline {
	return f.device.CreatePipeline(glal.PipelineDesc{
		Type:   glal.PipelineCompute,
		Stages: []glal.PipelineStage{{Stage: glal.StageCompute, Module: f.shader(glal.StageCompute)}},
		Layout: f.device.CreatePipelineLayout(glal.PipelineLayoutDesc{}),
	})
}

func (f *fixture) swapchain(count uint32) glal.Swapchain {
	return f.device.CreateSwapchain(glal.SwapchainDesc{
		NativeWindowHandle: f.window,
		Extent:             glal.Extent2D{Width: 800, Height: 600},
		Format:             glal.FormatRGBA8UNorm,
		ImageCount:         count,
	})
}

func (f *fixture) submit(cmd glal.CommandBuffer, fence glal.Fence) {
	f.device.Queue(glal.QueueGraphics).Submit([]glal.CommandBuffer{cmd}, fence)
}
