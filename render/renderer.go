// Package render draws the triangle scene through any glal backend.
//
// A Renderer owns every object of the scene and records one command
// buffer per frame. It does not own the Presentation it draws into.
package render

import (
	"bytes"
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/andewx/glal"
)

const component = "render"

// Vertex is the vertex layout of the scene: a 2D position followed by an
// RGB color, 20 bytes packed.
type Vertex struct {
	Position mgl32.Vec2
	Color    mgl32.Vec3
}

// Triangle is the scene geometry.
var Triangle = []Vertex{
	{Position: mgl32.Vec2{0.0, -0.5}, Color: mgl32.Vec3{1, 0, 0}},
	{Position: mgl32.Vec2{0.5, 0.5}, Color: mgl32.Vec3{0, 1, 0}},
	{Position: mgl32.Vec2{-0.5, 0.5}, Color: mgl32.Vec3{0, 0, 1}},
}

var vertexAttributes = []glal.VertexAttribute{
	{Binding: 0, Location: 0, Type: glal.TypeFloat, Count: 2, Offset: 0},
	{Binding: 0, Location: 1, Type: glal.TypeFloat, Count: 3, Offset: 8},
}

// Uniforms is the content of the uniform buffer at set 0, binding 0.
type Uniforms struct {
	Transform mgl32.Mat4
}

// ClearColor is the background of the scene.
var ClearColor = glal.ClearValue{Color: [4]float32{0.05, 0.05, 0.10, 1.0}}

// Spin is the rotation of the triangle per frame, in radians.
const Spin = 0.01

// Shaders is the SPIR-V code of the scene's two stages. The vertex
// stage reads Vertex at locations 0 and 1 and Uniforms at set 0,
// binding 0.
type Shaders struct {
	Vertex   []byte
	Fragment []byte
}

type Renderer struct {
	p     *glal.Presentation
	log   *glal.Logger
	queue glal.Queue

	vs, fs         glal.ShaderModule
	setLayout      glal.DescriptorSetLayout
	pipelineLayout glal.PipelineLayout
	pipeline       glal.Pipeline
	vertices       glal.Buffer
	uniforms       glal.Buffer
	descriptors    glal.DescriptorSet
	cmd            glal.CommandBuffer
	fence          glal.Fence

	clip      mgl32.Mat4
	submitted bool
	stats     FrameStats
}

// New creates the scene on p.Device for the swapchain p.Swapchain and
// uploads the triangle.
func New(p *glal.Presentation, shaders Shaders, log *glal.Logger) *Renderer {
	d := p.Device
	r := &Renderer{p: p, log: log, queue: d.Queue(glal.QueueGraphics), clip: ClipCorrection(d.Backend())}

	r.vs = d.CreateShaderModule(glal.ShaderModuleDesc{Stage: glal.StageVertex, Code: shaders.Vertex, Size: uint64(len(shaders.Vertex))})
	r.fs = d.CreateShaderModule(glal.ShaderModuleDesc{Stage: glal.StageFragment, Code: shaders.Fragment, Size: uint64(len(shaders.Fragment))})
	r.setLayout = d.CreateDescriptorSetLayout(glal.DescriptorSetLayoutDesc{
		Set:      0,
		Bindings: []glal.DescriptorBinding{{Binding: 0, Type: glal.DescriptorUniformBuffer, Count: 1, Stages: glal.StageVertex}},
	})
	r.pipelineLayout = d.CreatePipelineLayout(glal.PipelineLayoutDesc{Layouts: []glal.DescriptorSetLayout{r.setLayout}})
	r.pipeline = d.CreatePipeline(glal.PipelineDesc{
		Type: glal.PipelineGraphics,
		Stages: []glal.PipelineStage{
			{Stage: glal.StageVertex, Module: r.vs},
			{Stage: glal.StageFragment, Module: r.fs},
		},
		VertexAttributes: vertexAttributes,
		Topology:         glal.TopologyTriangleList,
		Layout:           r.pipelineLayout,
		ColorFormats:     []glal.ImageFormat{p.Swapchain.Format()},
	})

	vertexData := encode(Triangle)
	r.vertices = d.CreateBuffer(glal.BufferDesc{Size: uint64(len(vertexData)), Usage: glal.UsageVertex, Memory: glal.MemoryDeviceLocal})
	r.uniforms = d.CreateBuffer(glal.BufferDesc{Size: uint64(binary.Size(Uniforms{})), Usage: glal.UsageUniform, Memory: glal.MemoryHostToDevice})
	r.descriptors = d.CreateDescriptorSet(glal.DescriptorSetDesc{Layouts: []glal.DescriptorSetLayout{r.setLayout}})
	r.descriptors.BindBuffer(0, r.uniforms)
	r.cmd = d.CreateCommandBuffer(glal.CommandBufferOnce)
	r.fence = d.CreateFence()

	r.upload(vertexData)
	log.Infof(component, "scene ready: %d vertices, %v swapchain with %d images",
		len(Triangle), p.Swapchain.Format(), p.Swapchain.ImageCount())
	return r
}

// upload copies data into the device local vertex buffer through a
// staging buffer and waits for the copy.
func (r *Renderer) upload(data []byte) {
	d := r.p.Device
	staging := d.CreateBuffer(glal.BufferDesc{Size: uint64(len(data)), Usage: glal.UsageVertex, Memory: glal.MemoryHostToDevice})
	copy(staging.Map(), data)
	staging.Unmap()

	r.cmd.Begin()
	r.cmd.Transition(staging, glal.StateCopySrc)
	r.cmd.Transition(r.vertices, glal.StateCopyDst)
	r.cmd.CopyBuffer(staging, r.vertices, 0, 0, uint64(len(data)))
	r.cmd.Transition(r.vertices, glal.StateVertexBuffer)
	r.cmd.End()
	r.queue.Submit([]glal.CommandBuffer{r.cmd}, r.fence)
	r.fence.Wait()
	d.DestroyBuffer(staging)
}

// encode packs v little endian, the layout every backend reads.
func encode(v interface{}) []byte {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Transform returns the uniform transform of frame n on a swapchain of
// the given extent: the triangle turned by n*Spin and corrected for the
// aspect ratio.
func Transform(n uint64, extent glal.Extent2D) mgl32.Mat4 {
	aspect := float32(1)
	if extent.Height > 0 {
		aspect = float32(extent.Width) / float32(extent.Height)
	}
	projection := mgl32.Ortho2D(-aspect, aspect, -1, 1)
	return projection.Mul4(mgl32.HomogRotate3DZ(float32(n) * Spin))
}

// ClipCorrection maps GL clip space, which Transform produces, to the
// clip space of backend. Vulkan has Y pointing down and a [0, 1] depth
// range.
func ClipCorrection(backend glal.Backend) mgl32.Mat4 {
	if backend != glal.BackendVulkan {
		return mgl32.Ident4()
	}
	return mgl32.Mat4{
		1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, 0.5, 0,
		0, 0, 0.5, 1,
	}
}

// Frame acquires the next swapchain slot, updates the uniforms, records
// and submits the draw and presents the slot.
func (r *Renderer) Frame() {
	t := startTimer()
	sc := r.p.Swapchain

	index := sc.AcquireNextImage(r.fence)
	// The command buffer and the uniforms are reused every frame.
	if r.submitted {
		r.fence.Wait()
	}

	uniforms := Uniforms{Transform: r.clip.Mul4(Transform(r.stats.Frames, sc.Extent()))}
	copy(r.uniforms.Map(), encode(uniforms))
	r.uniforms.Unmap()

	img, view := sc.Image(index), sc.ImageView(index)
	r.cmd.Begin()
	r.cmd.Transition(r.uniforms, glal.StateConstantBuffer)
	r.cmd.Transition(img, glal.StateRenderTarget)
	r.cmd.BeginRenderPass(glal.RenderPassDesc{
		Color: []glal.RenderTarget{{View: view, Clear: true, Value: ClearColor}},
	})
	r.cmd.BindPipeline(r.pipeline)
	r.cmd.BindDescriptorSet(0, r.descriptors)
	r.cmd.BindVertexBuffer(r.vertices, 0)
	r.cmd.Draw(uint32(len(Triangle)), 0)
	r.cmd.EndRenderPass()
	r.cmd.Transition(img, glal.StatePresent)
	r.cmd.End()

	r.queue.Submit([]glal.CommandBuffer{r.cmd}, r.fence)
	r.submitted = true
	r.queue.Present(sc)
	t.stop(&r.stats)
	r.log.Verbosef(component, "frame %d on slot %d took %v", r.stats.Frames, index, r.stats.Last)
}

// Resize recreates the swapchain of p at extent. It is meant to be
// registered with window.Window.OnResize.
func (r *Renderer) Resize(p *glal.Presentation, extent glal.Extent2D) {
	if p.Recreate(extent) {
		r.log.Infof(component, "swapchain recreated at %dx%d", extent.Width, extent.Height)
	}
}

func (r *Renderer) Stats() FrameStats {
	return r.stats
}

// Destroy waits for the last frame and destroys the scene. The
// presentation is left to its owner.
func (r *Renderer) Destroy() {
	d := r.p.Device
	if r.submitted {
		r.fence.Wait()
	}
	d.DestroyFence(r.fence)
	d.DestroyCommandBuffer(r.cmd)
	d.DestroyDescriptorSet(r.descriptors)
	d.DestroyBuffer(r.uniforms)
	d.DestroyBuffer(r.vertices)
	d.DestroyPipeline(r.pipeline)
	d.DestroyPipelineLayout(r.pipelineLayout)
	d.DestroyDescriptorSetLayout(r.setLayout)
	d.DestroyShaderModule(r.fs)
	d.DestroyShaderModule(r.vs)
	r.log.Infof(component, "scene destroyed after %v", r.stats)
}
