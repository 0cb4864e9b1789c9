package opengl

// GL is the subset of the OpenGL 4.6 core profile (direct state access and
// SPIR-V shaders) the backend drives. Every call is made on the thread that
// owns the current context.
//
// Signatures follow the C entry points with Go slices in place of pointer
// and length pairs. A nil pixels slice in the TextureSubImage calls reads
// from the buffer bound to PIXEL_UNPACK_BUFFER.
type GL interface {
	CreateBuffer() uint32
	DeleteBuffer(buffer uint32)
	NamedBufferStorage(buffer uint32, size int, data []byte, flags uint32)
	MapNamedBuffer(buffer uint32, access uint32) []byte
	UnmapNamedBuffer(buffer uint32) bool
	CopyNamedBufferSubData(src, dst uint32, srcOffset, dstOffset, size int)
	BindBuffer(target, buffer uint32)
	BindBufferRange(target, index, buffer uint32, offset, size int)

	CreateTexture(target uint32) uint32
	DeleteTexture(texture uint32)
	TextureStorage1D(texture uint32, levels int32, internalFormat uint32, width int32)
	TextureStorage2D(texture uint32, levels int32, internalFormat uint32, width, height int32)
	TextureStorage3D(texture uint32, levels int32, internalFormat uint32, width, height, depth int32)
	TextureSubImage1D(texture uint32, level, x, width int32, format, xtype uint32, pixels []byte)
	TextureSubImage2D(texture uint32, level, x, y, width, height int32, format, xtype uint32, pixels []byte)
	TextureSubImage3D(texture uint32, level, x, y, z, width, height, depth int32, format, xtype uint32, pixels []byte)
	BindTextureUnit(unit, texture uint32)

	CreateSampler() uint32
	DeleteSampler(sampler uint32)
	SamplerParameteri(sampler, pname uint32, param int32)
	BindSampler(unit, sampler uint32)

	CreateShader(xtype uint32) uint32
	DeleteShader(shader uint32)
	ShaderBinary(shader, format uint32, binary []byte)
	SpecializeShader(shader uint32, entryPoint string)
	GetShaderiv(shader, pname uint32) int32
	GetShaderInfoLog(shader uint32) string

	CreateProgram() uint32
	DeleteProgram(program uint32)
	AttachShader(program, shader uint32)
	LinkProgram(program uint32)
	ValidateProgram(program uint32)
	GetProgramiv(program, pname uint32) int32
	GetProgramInfoLog(program uint32) string
	UseProgram(program uint32)

	CreateVertexArray() uint32
	DeleteVertexArray(vao uint32)
	BindVertexArray(vao uint32)
	EnableVertexArrayAttrib(vao, index uint32)
	VertexArrayAttribBinding(vao, index, binding uint32)
	VertexArrayAttribFormat(vao, index uint32, size int32, xtype uint32, normalized bool, offset uint32)
	VertexArrayBindingDivisor(vao, binding, divisor uint32)
	VertexArrayVertexBuffer(vao, binding, buffer uint32, offset int, stride int32)
	VertexArrayElementBuffer(vao, buffer uint32)

	CreateFramebuffer() uint32
	DeleteFramebuffer(fb uint32)
	NamedFramebufferTexture(fb, attachment, texture uint32, level int32)
	NamedFramebufferDrawBuffers(fb uint32, buffers []uint32)
	CheckNamedFramebufferStatus(fb, target uint32) uint32
	BindFramebuffer(target, fb uint32)
	ClearNamedFramebufferfv(fb, buffer uint32, drawBuffer int32, value [4]float32)
	ClearNamedFramebufferiv(fb, buffer uint32, drawBuffer int32, value int32)
	BlitNamedFramebuffer(src, dst uint32, srcX0, srcY0, srcX1, srcY1, dstX0, dstY0, dstX1, dstY1 int32, mask, filter uint32)

	Enable(capability uint32)
	Disable(capability uint32)
	DepthMask(flag bool)
	Viewport(x, y, width, height int32)
	Scissor(x, y, width, height int32)
	PixelStorei(pname uint32, param int32)
	GetIntegerv(pname uint32) int32

	DrawArrays(mode uint32, first, count int32)
	DrawElementsBaseVertex(mode uint32, count int32, xtype uint32, offset int, baseVertex int32)
	DispatchCompute(x, y, z uint32)

	FenceSync(condition, flags uint32) uintptr
	ClientWaitSync(sync uintptr, flags uint32, timeout uint64) uint32
	DeleteSync(sync uintptr)
	Finish()

	// DebugMessageCallback installs fn as the debug output sink.
	DebugMessageCallback(fn DebugProc)
}

// DebugProc receives GL debug output.
type DebugProc func(source, xtype, id, severity uint32, message string)

const (
	TRUE = 1

	BYTE           = 0x1400
	UNSIGNED_BYTE  = 0x1401
	SHORT          = 0x1402
	UNSIGNED_SHORT = 0x1403
	INT            = 0x1404
	UNSIGNED_INT   = 0x1405
	FLOAT          = 0x1406
	DOUBLE         = 0x140A
	HALF_FLOAT     = 0x140B
	FIXED          = 0x140C

	POINTS         = 0x0000
	LINES          = 0x0001
	LINE_STRIP     = 0x0003
	TRIANGLES      = 0x0004
	TRIANGLE_STRIP = 0x0005
	TRIANGLE_FAN   = 0x0006

	ARRAY_BUFFER          = 0x8892
	ELEMENT_ARRAY_BUFFER  = 0x8893
	PIXEL_UNPACK_BUFFER   = 0x88EC
	UNIFORM_BUFFER        = 0x8A11
	SHADER_STORAGE_BUFFER = 0x90D2

	MAP_READ_BIT        = 0x0001
	MAP_WRITE_BIT       = 0x0002
	DYNAMIC_STORAGE_BIT = 0x0100
	READ_ONLY           = 0x88B8
	WRITE_ONLY          = 0x88B9
	READ_WRITE          = 0x88BA

	TEXTURE_1D       = 0x0DE0
	TEXTURE_2D       = 0x0DE1
	TEXTURE_3D       = 0x806F
	TEXTURE_1D_ARRAY = 0x8C18
	TEXTURE_2D_ARRAY = 0x8C1A

	RGBA8              = 0x8058
	SRGB8_ALPHA8       = 0x8C43
	RG16F              = 0x822F
	RGBA16F            = 0x881A
	RGBA32F            = 0x8814
	DEPTH24_STENCIL8   = 0x88F0
	DEPTH_COMPONENT32F = 0x8CAC

	RGBA              = 0x1908
	BGRA              = 0x80E1
	RG                = 0x8227
	DEPTH_STENCIL     = 0x84F9
	DEPTH_COMPONENT   = 0x1902
	UNSIGNED_INT_24_8 = 0x84FA

	TEXTURE_MAG_FILTER = 0x2800
	TEXTURE_MIN_FILTER = 0x2801
	TEXTURE_WRAP_S     = 0x2802
	TEXTURE_WRAP_T     = 0x2803
	TEXTURE_WRAP_R     = 0x8072
	NEAREST            = 0x2600
	LINEAR             = 0x2601
	REPEAT             = 0x2901
	CLAMP_TO_EDGE      = 0x812F
	MIRRORED_REPEAT    = 0x8370

	VERTEX_SHADER               = 0x8B31
	FRAGMENT_SHADER             = 0x8B30
	GEOMETRY_SHADER             = 0x8DD9
	TESS_CONTROL_SHADER         = 0x8E88
	TESS_EVALUATION_SHADER      = 0x8E87
	COMPUTE_SHADER              = 0x91B9
	SHADER_BINARY_FORMAT_SPIR_V = 0x9551
	COMPILE_STATUS              = 0x8B81
	LINK_STATUS                 = 0x8B82
	VALIDATE_STATUS             = 0x8B83
	INFO_LOG_LENGTH             = 0x8B84

	FRAMEBUFFER                   = 0x8D40
	READ_FRAMEBUFFER              = 0x8CA8
	DRAW_FRAMEBUFFER              = 0x8CA9
	COLOR_ATTACHMENT0             = 0x8CE0
	DEPTH_ATTACHMENT              = 0x8D00
	STENCIL_ATTACHMENT            = 0x8D20
	DEPTH_STENCIL_ATTACHMENT      = 0x821A
	FRAMEBUFFER_COMPLETE          = 0x8CD5
	INCOMPLETE_ATTACHMENT         = 0x8CD6
	INCOMPLETE_MISSING_ATTACHMENT = 0x8CD7

	COLOR            = 0x1800
	DEPTH            = 0x1801
	STENCIL          = 0x1802
	COLOR_BUFFER_BIT = 0x4000

	SYNC_GPU_COMMANDS_COMPLETE = 0x9117
	SYNC_FLUSH_COMMANDS_BIT    = 0x0001
	ALREADY_SIGNALED           = 0x911A
	TIMEOUT_EXPIRED            = 0x911B
	CONDITION_SATISFIED        = 0x911C
	WAIT_FAILED                = 0x911D

	DEBUG_OUTPUT                  = 0x92E0
	DEBUG_OUTPUT_SYNCHRONOUS      = 0x8242
	DEBUG_SEVERITY_HIGH           = 0x9146
	DEBUG_SEVERITY_MEDIUM         = 0x9147
	DEBUG_SEVERITY_LOW            = 0x9148
	DEBUG_SEVERITY_NOTIFICATION   = 0x826B
	MAX_TEXTURE_SIZE              = 0x0D33
	BLEND                         = 0x0BE2
	DEPTH_TEST                    = 0x0B71
	SCISSOR_TEST                  = 0x0C11
	PRIMITIVE_RESTART_FIXED_INDEX = 0x8D69
	UNPACK_ALIGNMENT              = 0x0CF5
)
