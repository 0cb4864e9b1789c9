package native

import (
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"
)

func (Context) CreateShader(xtype uint32) uint32 {
	return gl.CreateShader(xtype)
}

func (Context) DeleteShader(shader uint32) {
	gl.DeleteShader(shader)
}

func (Context) ShaderBinary(shader, format uint32, binary []byte) {
	gl.ShaderBinary(1, &shader, format, gl.Ptr(binary), int32(len(binary)))
}

func (Context) SpecializeShader(shader uint32, entryPoint string) {
	name, free := gl.Strs(entryPoint + "\x00")
	defer free()
	gl.SpecializeShader(shader, *name, 0, nil, nil)
}

func (Context) GetShaderiv(shader, pname uint32) int32 {
	var v int32
	gl.GetShaderiv(shader, pname, &v)
	return v
}

func (Context) GetShaderInfoLog(shader uint32) string {
	var n int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &n)
	if n == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(n+1))
	gl.GetShaderInfoLog(shader, n, nil, gl.Str(log))
	return gl.GoStr(gl.Str(log))
}

func (Context) CreateProgram() uint32 {
	return gl.CreateProgram()
}

func (Context) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

func (Context) AttachShader(program, shader uint32) {
	gl.AttachShader(program, shader)
}

func (Context) LinkProgram(program uint32) {
	gl.LinkProgram(program)
}

func (Context) ValidateProgram(program uint32) {
	gl.ValidateProgram(program)
}

func (Context) GetProgramiv(program, pname uint32) int32 {
	var v int32
	gl.GetProgramiv(program, pname, &v)
	return v
}

func (Context) GetProgramInfoLog(program uint32) string {
	var n int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &n)
	if n == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(n+1))
	gl.GetProgramInfoLog(program, n, nil, gl.Str(log))
	return gl.GoStr(gl.Str(log))
}

func (Context) UseProgram(program uint32) {
	gl.UseProgram(program)
}
