package opengl

import (
	"github.com/andewx/glal"
)

// entryPoint is the SPIR-V entry point every module is specialized with.
const entryPoint = "main"

type ShaderModule struct {
	object
	device *Device
	id     uint32
	stage  glal.ShaderStage
}

func newShaderModule(d *Device, desc glal.ShaderModuleDesc) *ShaderModule {
	m := &ShaderModule{device: d, stage: desc.Stage}
	gl := d.gl
	m.id = gl.CreateShader(d.translateShaderStage(desc.Stage))
	gl.ShaderBinary(m.id, SHADER_BINARY_FORMAT_SPIR_V, desc.Code)
	gl.SpecializeShader(m.id, entryPoint)
	if gl.GetShaderiv(m.id, COMPILE_STATUS) != TRUE {
		info := gl.GetShaderInfoLog(m.id)
		gl.DeleteShader(m.id)
		d.log.Fatalf(componentShader, "failed to specialize shader: %s", info)
	}
	return m
}

func (m *ShaderModule) release() {
	m.device.gl.DeleteShader(m.id)
}

func (m *ShaderModule) Stage() glal.ShaderStage {
	return m.stage
}
