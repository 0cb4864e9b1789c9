package opengl

import (
	"github.com/andewx/glal"
)

type Pipeline struct {
	object
	device   *Device
	program  uint32
	desc     glal.PipelineDesc
	layout   *PipelineLayout
	mode     uint32
	strides  map[uint32]uint32
	divisors map[uint32]uint32
}

func newPipeline(d *Device, desc glal.PipelineDesc) *Pipeline {
	p := &Pipeline{
		device:   d,
		desc:     desc,
		layout:   resolve(d.log, d.pipelineLayouts, desc.Layout, glal.KindPipelineLayout),
		divisors: make(map[uint32]uint32),
	}
	if desc.Type == glal.PipelineRayTracing {
		d.log.Fatalf(componentPipeline, "ray tracing pipelines not supported")
	}
	if desc.Type == glal.PipelineGraphics {
		p.mode = d.translateTopology(desc.Topology)
		p.strides = glal.BindingStrides(desc)
		for _, b := range desc.VertexBindings {
			if b.Instance {
				p.divisors[b.Binding] = 1
			}
		}
	}
	for _, a := range desc.VertexAttributes {
		d.translateDataType(a.Type)
	}

	gl := d.gl
	p.program = gl.CreateProgram()
	for _, s := range desc.Stages {
		m := resolve(d.log, d.shaders, s.Module, glal.KindShaderModule)
		gl.AttachShader(p.program, m.id)
	}
	gl.LinkProgram(p.program)
	if gl.GetProgramiv(p.program, LINK_STATUS) != TRUE {
		info := gl.GetProgramInfoLog(p.program)
		gl.DeleteProgram(p.program)
		d.log.Fatalf(componentPipeline, "failed to link program: %s", info)
	}
	gl.ValidateProgram(p.program)
	if gl.GetProgramiv(p.program, VALIDATE_STATUS) != TRUE {
		info := gl.GetProgramInfoLog(p.program)
		gl.DeleteProgram(p.program)
		d.log.Fatalf(componentPipeline, "failed to validate program: %s", info)
	}
	return p
}

func (p *Pipeline) release() {
	p.device.gl.DeleteProgram(p.program)
}

// bind makes the program current and lays out vao for its attributes.
func (p *Pipeline) bind(gl GL, vao uint32) {
	gl.UseProgram(p.program)
	for _, a := range p.desc.VertexAttributes {
		xtype, normalized := p.device.translateDataType(a.Type)
		gl.EnableVertexArrayAttrib(vao, a.Location)
		gl.VertexArrayAttribBinding(vao, a.Location, a.Binding)
		gl.VertexArrayAttribFormat(vao, a.Location, int32(a.Count), xtype, normalized, a.Offset)
	}
	for binding, divisor := range p.divisors {
		gl.VertexArrayBindingDivisor(vao, binding, divisor)
	}
	if p.desc.Type != glal.PipelineGraphics {
		return
	}
	toggle(gl, DEPTH_TEST, p.desc.DepthTest)
	gl.DepthMask(p.desc.DepthWrite)
	toggle(gl, BLEND, p.desc.BlendEnable)
	toggle(gl, PRIMITIVE_RESTART_FIXED_INDEX, p.desc.PrimitiveRestart)
}

func toggle(gl GL, capability uint32, on bool) {
	if on {
		gl.Enable(capability)
	} else {
		gl.Disable(capability)
	}
}

func (p *Pipeline) Type() glal.PipelineType {
	return p.desc.Type
}

func (p *Pipeline) Layout() glal.PipelineLayout {
	return p.layout
}

func (p *Pipeline) VertexAttributes() []glal.VertexAttribute {
	return p.desc.VertexAttributes
}

func (p *Pipeline) VertexStride() uint32 {
	return p.strides[0]
}

// stride returns the vertex stride of binding.
func (p *Pipeline) stride(binding uint32) uint32 {
	return p.strides[binding]
}

func (p *Pipeline) Topology() glal.PrimitiveTopology {
	return p.desc.Topology
}

func (p *Pipeline) DepthTest() bool {
	return p.desc.DepthTest
}

func (p *Pipeline) DepthWrite() bool {
	return p.desc.DepthWrite
}

func (p *Pipeline) BlendEnable() bool {
	return p.desc.BlendEnable
}
