package soft

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/glal"
	"github.com/andewx/glal/opengl"
)

func TestHalf(t *testing.T) {
	for _, tc := range []struct {
		in   float32
		want uint16
	}{
		{0, 0x0000},
		{1, 0x3c00},
		{0.5, 0x3800},
		{-2, 0xc000},
		{65504, 0x7bff},
		{1e6, 0x7c00},
		{5.960464477539063e-08, 0x0001},
		{0.1, 0x2e66},
	} {
		assert.Equal(t, tc.want, Half(tc.in), "Half(%v)", tc.in)
	}
}

func TestEntryPoints(t *testing.T) {
	entries, err := entryPoints(SPIRV(glal.StageFragment, "main"))
	require.NoError(t, err)
	assert.Equal(t, []entry{{model: ModelFragment, name: "main"}}, entries)

	entries, err = entryPoints(SPIRV(glal.StageCompute, "cs_entry"))
	require.NoError(t, err)
	assert.Equal(t, []entry{{model: ModelGLCompute, name: "cs_entry"}}, entries)

	code := SPIRV(glal.StageVertex, "main")
	code[0] = 0
	_, err = entryPoints(code)
	assert.ErrorContains(t, err, "magic")

	_, err = entryPoints(SPIRV(glal.StageVertex, "main")[:22])
	assert.Error(t, err)
}

func (c *Context) testShader(t *testing.T, xtype uint32, stage glal.ShaderStage) uint32 {
	t.Helper()
	id := c.CreateShader(xtype)
	c.ShaderBinary(id, opengl.SHADER_BINARY_FORMAT_SPIR_V, SPIRV(stage, "main"))
	c.SpecializeShader(id, "main")
	require.Equal(t, int32(opengl.TRUE), c.GetShaderiv(id, opengl.COMPILE_STATUS))
	return id
}

func TestSpecializeWrongEntryPoint(t *testing.T) {
	c := NewContext()
	id := c.CreateShader(opengl.VERTEX_SHADER)
	c.ShaderBinary(id, opengl.SHADER_BINARY_FORMAT_SPIR_V, SPIRV(glal.StageFragment, "main"))
	c.SpecializeShader(id, "main")
	assert.Zero(t, c.GetShaderiv(id, opengl.COMPILE_STATUS))
	assert.Contains(t, c.GetShaderInfoLog(id), "not found")
	assert.Positive(t, c.GetShaderiv(id, opengl.INFO_LOG_LENGTH))
}

func TestLinkRules(t *testing.T) {
	for _, tc := range []struct {
		name   string
		stages map[uint32]glal.ShaderStage
		extra  uint32
		log    string
	}{
		{name: "graphics", stages: map[uint32]glal.ShaderStage{opengl.VERTEX_SHADER: glal.StageVertex, opengl.FRAGMENT_SHADER: glal.StageFragment}},
		{name: "compute", stages: map[uint32]glal.ShaderStage{opengl.COMPUTE_SHADER: glal.StageCompute}},
		{name: "empty", log: "no shaders attached"},
		{name: "fragment only", stages: map[uint32]glal.ShaderStage{opengl.FRAGMENT_SHADER: glal.StageFragment}, log: "no vertex shader"},
		{name: "mixed compute", stages: map[uint32]glal.ShaderStage{opengl.VERTEX_SHADER: glal.StageVertex, opengl.COMPUTE_SHADER: glal.StageCompute}, log: "compute shader linked with other stages"},
		{name: "duplicate", stages: map[uint32]glal.ShaderStage{opengl.VERTEX_SHADER: glal.StageVertex}, extra: opengl.VERTEX_SHADER, log: "more than one shader"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := NewContext()
			p := c.CreateProgram()
			for xtype, stage := range tc.stages {
				c.AttachShader(p, c.testShader(t, xtype, stage))
			}
			if tc.extra != 0 {
				c.AttachShader(p, c.testShader(t, tc.extra, glal.StageVertex))
			}
			c.LinkProgram(p)
			if tc.log == "" {
				assert.Equal(t, int32(opengl.TRUE), c.GetProgramiv(p, opengl.LINK_STATUS))
				c.ValidateProgram(p)
				assert.Equal(t, int32(opengl.TRUE), c.GetProgramiv(p, opengl.VALIDATE_STATUS))
				c.UseProgram(p)
				assert.Equal(t, p, c.CurrentProgram())
				return
			}
			assert.Zero(t, c.GetProgramiv(p, opengl.LINK_STATUS))
			assert.Contains(t, c.GetProgramInfoLog(p), tc.log)
			c.UseProgram(p)
			assert.NotEmpty(t, c.Errors())
		})
	}
}

func TestUnspecializedShaderDoesNotLink(t *testing.T) {
	c := NewContext()
	vs := c.CreateShader(opengl.VERTEX_SHADER)
	c.ShaderBinary(vs, opengl.SHADER_BINARY_FORMAT_SPIR_V, SPIRV(glal.StageVertex, "main"))
	p := c.CreateProgram()
	c.AttachShader(p, vs)
	c.LinkProgram(p)
	assert.Contains(t, c.GetProgramInfoLog(p), "not specialized")
}

func TestBufferMapAccess(t *testing.T) {
	c := NewContext()
	b := c.CreateBuffer()
	c.NamedBufferStorage(b, 8, []byte{1, 2, 3}, opengl.MAP_READ_BIT)
	assert.Nil(t, c.MapNamedBuffer(b, opengl.READ_WRITE))
	data := c.MapNamedBuffer(b, opengl.READ_ONLY)
	assert.Equal(t, []byte{1, 2, 3, 0, 0, 0, 0, 0}, data)
	assert.Nil(t, c.MapNamedBuffer(b, opengl.READ_ONLY), "double map")
	assert.True(t, c.UnmapNamedBuffer(b))
	assert.False(t, c.UnmapNamedBuffer(b))

	c.NamedBufferStorage(b, 8, nil, 0)
	assert.Len(t, c.Errors(), 4, "storage is immutable")
}

func TestDebugCallbackReceivesErrors(t *testing.T) {
	c := NewContext()
	var got []string
	c.DebugMessageCallback(func(source, xtype, id, severity uint32, message string) {
		assert.Equal(t, uint32(opengl.DEBUG_SEVERITY_HIGH), severity)
		got = append(got, message)
	})
	c.DeleteTexture(42)
	assert.Equal(t, []string{"DeleteTexture: unknown texture 42"}, got)
}

func newColorTexture(c *Context, internal uint32, w, h int32) uint32 {
	tex := c.CreateTexture(opengl.TEXTURE_2D)
	c.TextureStorage2D(tex, 1, internal, w, h)
	return tex
}

func TestFramebufferCompleteness(t *testing.T) {
	c := NewContext()
	fb := c.CreateFramebuffer()
	assert.Equal(t, uint32(opengl.INCOMPLETE_MISSING_ATTACHMENT), c.CheckNamedFramebufferStatus(fb, opengl.FRAMEBUFFER))

	depth := newColorTexture(c, opengl.DEPTH_COMPONENT32F, 4, 4)
	c.NamedFramebufferTexture(fb, opengl.COLOR_ATTACHMENT0, depth, 0)
	assert.Equal(t, uint32(opengl.INCOMPLETE_ATTACHMENT), c.CheckNamedFramebufferStatus(fb, opengl.FRAMEBUFFER))

	c.NamedFramebufferTexture(fb, opengl.COLOR_ATTACHMENT0, newColorTexture(c, opengl.RGBA8, 4, 4), 0)
	c.NamedFramebufferTexture(fb, opengl.DEPTH_ATTACHMENT, depth, 0)
	assert.Equal(t, uint32(opengl.FRAMEBUFFER_COMPLETE), c.CheckNamedFramebufferStatus(fb, opengl.FRAMEBUFFER))

	c.NamedFramebufferTexture(fb, opengl.STENCIL_ATTACHMENT, depth, 0)
	assert.Equal(t, uint32(opengl.INCOMPLETE_ATTACHMENT), c.CheckNamedFramebufferStatus(fb, opengl.FRAMEBUFFER), "D32F has no stencil")
}

func TestClearHonorsScissor(t *testing.T) {
	c := NewContext()
	tex := newColorTexture(c, opengl.RGBA8, 4, 4)
	fb := c.CreateFramebuffer()
	c.NamedFramebufferTexture(fb, opengl.COLOR_ATTACHMENT0, tex, 0)
	c.Enable(opengl.SCISSOR_TEST)
	c.Scissor(2, 2, 8, 8)
	c.ClearNamedFramebufferfv(fb, opengl.COLOR, 0, [4]float32{1, 0, 0, 1})
	c.Disable(opengl.SCISSOR_TEST)

	_, texels, ok := c.Texture(tex)
	require.True(t, ok)
	assert.Equal(t, []byte{0, 0, 0, 0}, texels[0:4])
	off := (2*4 + 2) * 4
	assert.Equal(t, []byte{255, 0, 0, 255}, texels[off:off+4])
	off = (3*4 + 3) * 4
	assert.Equal(t, []byte{255, 0, 0, 255}, texels[off:off+4])
}

func TestBlitScalesToScreen(t *testing.T) {
	c := NewContext()
	tex := newColorTexture(c, opengl.RGBA8, 2, 1)
	c.TextureSubImage2D(tex, 0, 0, 0, 2, 1, opengl.RGBA, opengl.UNSIGNED_BYTE, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	fb := c.CreateFramebuffer()
	c.NamedFramebufferTexture(fb, opengl.COLOR_ATTACHMENT0, tex, 0)
	c.BlitNamedFramebuffer(fb, 0, 0, 0, 2, 1, 0, 0, 4, 2, opengl.COLOR_BUFFER_BIT, opengl.NEAREST)
	require.Empty(t, c.Errors())

	w := NewWindow(c)
	w.SwapBuffers()
	frame := w.LastFrame()
	assert.Equal(t, 1, w.Swaps())
	assert.Equal(t, int32(4), frame.Width)
	assert.Equal(t, []byte{1, 2, 3, 4}, frame.At(1, 1))
	assert.Equal(t, []byte{5, 6, 7, 8}, frame.At(2, 0))
}

func TestDrawRequiresState(t *testing.T) {
	c := NewContext()
	c.DrawArrays(opengl.TRIANGLES, 0, 3)
	assert.Contains(t, c.Errors()[0], "no program in use")

	p := c.CreateProgram()
	c.AttachShader(p, c.testShader(t, opengl.VERTEX_SHADER, glal.StageVertex))
	c.LinkProgram(p)
	c.UseProgram(p)
	c.DrawArrays(opengl.TRIANGLES, 0, 3)
	assert.Contains(t, c.Errors()[1], "no vertex array bound")

	vao := c.CreateVertexArray()
	c.BindVertexArray(vao)
	c.DrawElementsBaseVertex(opengl.TRIANGLES, 3, opengl.UNSIGNED_SHORT, 0, 0)
	assert.Contains(t, c.Errors()[2], "no element buffer")

	c.DrawArrays(opengl.TRIANGLES, 0, 3)
	require.Len(t, c.Draws(), 1)
	assert.Equal(t, p, c.Draws()[0].Program)

	c.DispatchCompute(1, 1, 1)
	assert.Contains(t, c.Errors()[3], "no compute program")
}

func TestSyncStall(t *testing.T) {
	c := NewContext()
	assert.Equal(t, uint32(opengl.WAIT_FAILED), c.ClientWaitSync(99, 0, 0))

	done := c.FenceSync(opengl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	assert.Equal(t, uint32(opengl.ALREADY_SIGNALED), c.ClientWaitSync(done, 0, 0))

	c.Stall()
	pending := c.FenceSync(opengl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	assert.Equal(t, uint32(opengl.TIMEOUT_EXPIRED), c.ClientWaitSync(pending, 0, 0))
	assert.Equal(t, uint32(opengl.TIMEOUT_EXPIRED), c.ClientWaitSync(pending, 0, uint64(time.Millisecond)))
	assert.Equal(t, 1, c.Pending())

	go func() {
		time.Sleep(10 * time.Millisecond)
		c.Resume()
	}()
	assert.Equal(t, uint32(opengl.CONDITION_SATISFIED), c.ClientWaitSync(pending, opengl.SYNC_FLUSH_COMMANDS_BIT, uint64(5*time.Second)))
	c.Finish()

	c.DeleteSync(done)
	c.DeleteSync(pending)
	assert.Zero(t, c.Live().Syncs)
}

func TestDriverOpensInstance(t *testing.T) {
	inst, err := glal.Open(DriverName, glal.InstanceDesc{ApplicationName: "soft"})
	require.NoError(t, err)
	defer inst.Destroy()
	assert.Equal(t, glal.BackendOpenGL, inst.Backend())
	c, ok := ContextOf(inst)
	require.True(t, ok)
	assert.NotNil(t, c)
}
