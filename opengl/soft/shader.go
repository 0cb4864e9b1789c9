package soft

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/andewx/glal"
	"github.com/andewx/glal/opengl"
)

// SPIR-V execution models.
const (
	ModelVertex                 = 0
	ModelTessellationControl    = 1
	ModelTessellationEvaluation = 2
	ModelGeometry               = 3
	ModelFragment               = 4
	ModelGLCompute              = 5
)

const (
	opMemoryModel = 14
	opEntryPoint  = 15
	opCapability  = 17
)

var shaderModels = map[uint32]uint32{
	opengl.VERTEX_SHADER:          ModelVertex,
	opengl.TESS_CONTROL_SHADER:    ModelTessellationControl,
	opengl.TESS_EVALUATION_SHADER: ModelTessellationEvaluation,
	opengl.GEOMETRY_SHADER:        ModelGeometry,
	opengl.FRAGMENT_SHADER:        ModelFragment,
	opengl.COMPUTE_SHADER:         ModelGLCompute,
}

var stageModels = map[glal.ShaderStage]uint32{
	glal.StageVertex:                 ModelVertex,
	glal.StageTessellationControl:    ModelTessellationControl,
	glal.StageTessellationEvaluation: ModelTessellationEvaluation,
	glal.StageGeometry:               ModelGeometry,
	glal.StageFragment:               ModelFragment,
	glal.StageCompute:                ModelGLCompute,
}

// SPIRV assembles a minimal SPIR-V module declaring entry as the entry
// point of stage. It is enough for the context's binary checks and for
// the driver's shader module validation.
func SPIRV(stage glal.ShaderStage, entry string) []byte {
	words := []uint32{glal.SPIRVMagic, 0x00010000, 0, 2, 0}
	words = append(words, 2<<16|opCapability, 1)
	words = append(words, 3<<16|opMemoryModel, 0, 1)
	name := packString(entry)
	words = append(words, uint32(3+len(name))<<16|opEntryPoint, stageModels[stage], 1)
	words = append(words, name...)
	code := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(code[i*4:], w)
	}
	return code
}

func packString(s string) []uint32 {
	b := append([]byte(s), 0)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words
}

func unpackString(words []uint32) string {
	var sb strings.Builder
	for _, w := range words {
		for i := 0; i < 4; i++ {
			ch := byte(w >> (8 * i))
			if ch == 0 {
				return sb.String()
			}
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

type entry struct {
	model uint32
	name  string
}

// entryPoints lists the OpEntryPoint instructions of a SPIR-V module.
func entryPoints(code []byte) ([]entry, error) {
	if len(code) < 20 || len(code)%4 != 0 {
		return nil, fmt.Errorf("binary of %d bytes is not a SPIR-V module", len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	if words[0] != glal.SPIRVMagic {
		return nil, fmt.Errorf("bad SPIR-V magic %#x", words[0])
	}
	var entries []entry
	for i := 5; i < len(words); {
		count, op := int(words[i]>>16), words[i]&0xffff
		if count == 0 || i+count > len(words) {
			return nil, fmt.Errorf("truncated instruction at word %d", i)
		}
		if op == opEntryPoint && count >= 4 {
			entries = append(entries, entry{model: words[i+1], name: unpackString(words[i+3 : i+count])})
		}
		i += count
	}
	return entries, nil
}

type shader struct {
	xtype       uint32
	binary      []byte
	specialized bool
	log         string
}

func (c *Context) CreateShader(xtype uint32) uint32 {
	if _, ok := shaderModels[xtype]; !ok {
		c.fail("CreateShader: invalid type %#x", xtype)
		return 0
	}
	id := c.name()
	c.shaders[id] = &shader{xtype: xtype}
	return id
}

func (c *Context) DeleteShader(id uint32) {
	if _, ok := c.shaders[id]; !ok {
		c.fail("DeleteShader: unknown shader %d", id)
		return
	}
	delete(c.shaders, id)
}

func (c *Context) shader(op string, id uint32) *shader {
	s, ok := c.shaders[id]
	if !ok {
		c.fail("%s: unknown shader %d", op, id)
	}
	return s
}

func (c *Context) ShaderBinary(id, format uint32, code []byte) {
	s := c.shader("ShaderBinary", id)
	if s == nil {
		return
	}
	if format != opengl.SHADER_BINARY_FORMAT_SPIR_V {
		c.fail("ShaderBinary: unsupported format %#x", format)
		return
	}
	if _, err := entryPoints(code); err != nil {
		c.fail("ShaderBinary: %v", err)
		return
	}
	s.binary = append([]byte(nil), code...)
	s.specialized = false
}

func (c *Context) SpecializeShader(id uint32, name string) {
	s := c.shader("SpecializeShader", id)
	if s == nil {
		return
	}
	if s.binary == nil {
		c.fail("SpecializeShader: shader %d has no SPIR-V binary", id)
		s.log = "no SPIR-V binary loaded"
		return
	}
	entries, _ := entryPoints(s.binary)
	for _, e := range entries {
		if e.name == name && e.model == shaderModels[s.xtype] {
			s.specialized = true
			s.log = ""
			return
		}
	}
	s.log = fmt.Sprintf("entry point %q for execution model %d not found", name, shaderModels[s.xtype])
}

func (c *Context) GetShaderiv(id, pname uint32) int32 {
	s := c.shader("GetShaderiv", id)
	if s == nil {
		return 0
	}
	switch pname {
	case opengl.COMPILE_STATUS:
		if s.specialized {
			return opengl.TRUE
		}
		return 0
	case opengl.INFO_LOG_LENGTH:
		if s.log == "" {
			return 0
		}
		return int32(len(s.log) + 1)
	}
	c.fail("GetShaderiv: invalid pname %#x", pname)
	return 0
}

func (c *Context) GetShaderInfoLog(id uint32) string {
	if s := c.shader("GetShaderInfoLog", id); s != nil {
		return s.log
	}
	return ""
}

type program struct {
	shaders   []uint32
	linked    bool
	validated bool
	compute   bool
	log       string
}

func (c *Context) CreateProgram() uint32 {
	id := c.name()
	c.programs[id] = &program{}
	return id
}

func (c *Context) DeleteProgram(id uint32) {
	if _, ok := c.programs[id]; !ok {
		c.fail("DeleteProgram: unknown program %d", id)
		return
	}
	delete(c.programs, id)
	if c.program == id {
		c.program = 0
	}
}

func (c *Context) programObject(op string, id uint32) *program {
	p, ok := c.programs[id]
	if !ok {
		c.fail("%s: unknown program %d", op, id)
	}
	return p
}

func (c *Context) AttachShader(pid, sid uint32) {
	p, s := c.programObject("AttachShader", pid), c.shader("AttachShader", sid)
	if p == nil || s == nil {
		return
	}
	for _, id := range p.shaders {
		if id == sid {
			c.fail("AttachShader: shader %d already attached to program %d", sid, pid)
			return
		}
	}
	p.shaders = append(p.shaders, sid)
}

// LinkProgram applies the stage rules of the core profile: at least one
// specialized shader, one shader per stage, and compute shaders alone.
func (c *Context) LinkProgram(pid uint32) {
	p := c.programObject("LinkProgram", pid)
	if p == nil {
		return
	}
	p.linked, p.validated, p.compute = false, false, false
	if len(p.shaders) == 0 {
		p.log = "no shaders attached"
		return
	}
	stages := map[uint32]bool{}
	for _, sid := range p.shaders {
		s, ok := c.shaders[sid]
		if !ok {
			p.log = fmt.Sprintf("shader %d was deleted", sid)
			return
		}
		if !s.specialized {
			p.log = fmt.Sprintf("shader %d is not specialized", sid)
			return
		}
		if stages[s.xtype] {
			p.log = fmt.Sprintf("more than one shader of type %#x", s.xtype)
			return
		}
		stages[s.xtype] = true
	}
	if stages[opengl.COMPUTE_SHADER] {
		if len(stages) > 1 {
			p.log = "compute shader linked with other stages"
			return
		}
		p.compute = true
	} else if !stages[opengl.VERTEX_SHADER] {
		p.log = "no vertex shader"
		return
	}
	if (stages[opengl.TESS_CONTROL_SHADER] || stages[opengl.TESS_EVALUATION_SHADER]) && !stages[opengl.TESS_EVALUATION_SHADER] {
		p.log = "tessellation control shader without evaluation shader"
		return
	}
	p.linked = true
	p.log = ""
}

func (c *Context) ValidateProgram(pid uint32) {
	p := c.programObject("ValidateProgram", pid)
	if p == nil {
		return
	}
	p.validated = p.linked
	if !p.linked {
		p.log = "program is not linked"
	}
}

func (c *Context) GetProgramiv(pid, pname uint32) int32 {
	p := c.programObject("GetProgramiv", pid)
	if p == nil {
		return 0
	}
	var ok bool
	switch pname {
	case opengl.LINK_STATUS:
		ok = p.linked
	case opengl.VALIDATE_STATUS:
		ok = p.validated
	case opengl.INFO_LOG_LENGTH:
		if p.log == "" {
			return 0
		}
		return int32(len(p.log) + 1)
	default:
		c.fail("GetProgramiv: invalid pname %#x", pname)
	}
	if ok {
		return opengl.TRUE
	}
	return 0
}

func (c *Context) GetProgramInfoLog(pid uint32) string {
	if p := c.programObject("GetProgramInfoLog", pid); p != nil {
		return p.log
	}
	return ""
}

func (c *Context) UseProgram(pid uint32) {
	if pid != 0 {
		p := c.programObject("UseProgram", pid)
		if p == nil {
			return
		}
		if !p.linked {
			c.fail("UseProgram: program %d is not linked", pid)
			return
		}
	}
	c.program = pid
}

// CurrentProgram returns the program in use.
func (c *Context) CurrentProgram() uint32 {
	return c.program
}
