package glal

// Object is implemented by every value a backend hands out.
// The handle identifies the object within its owner and the backend tag
// names the native API that realizes it.
type Object interface {
	Handle() Handle
	Backend() Backend
}

// Instance is the enumeration root of a backend.
type Instance interface {
	Backend() Backend
	PhysicalDevices() []PhysicalDevice
	// Destroy releases the instance. Physical devices that still own
	// devices are fatal under LifetimeStrict and torn down otherwise.
	Destroy()
}

// PhysicalDevice represents one adapter and owns the devices created on it.
type PhysicalDevice interface {
	Object
	Name() string
	Supports(feature DeviceFeature) bool
	Limits() DeviceLimits
	CreateDevice() Device
	DestroyDevice(device Device)
}

// Device is the factory and lifetime authority for every other object.
// Destroying an object the device does not own is fatal.
type Device interface {
	Object
	PhysicalDevice() PhysicalDevice
	Supports(feature DeviceFeature) bool
	Limits() DeviceLimits
	Queue(typ QueueType) Queue
	WaitIdle()

	CreateBuffer(desc BufferDesc) Buffer
	DestroyBuffer(buffer Buffer)
	CreateImage(desc ImageDesc) Image
	DestroyImage(image Image)
	CreateImageView(desc ImageViewDesc) ImageView
	DestroyImageView(view ImageView)
	CreateSampler(desc SamplerDesc) Sampler
	DestroySampler(sampler Sampler)
	CreateShaderModule(desc ShaderModuleDesc) ShaderModule
	DestroyShaderModule(module ShaderModule)
	CreateDescriptorSetLayout(desc DescriptorSetLayoutDesc) DescriptorSetLayout
	DestroyDescriptorSetLayout(layout DescriptorSetLayout)
	CreatePipelineLayout(desc PipelineLayoutDesc) PipelineLayout
	DestroyPipelineLayout(layout PipelineLayout)
	CreatePipeline(desc PipelineDesc) Pipeline
	DestroyPipeline(pipeline Pipeline)
	CreateDescriptorSet(desc DescriptorSetDesc) DescriptorSet
	DestroyDescriptorSet(set DescriptorSet)
	CreateSwapchain(desc SwapchainDesc) Swapchain
	DestroySwapchain(swapchain Swapchain)
	CreateCommandBuffer(usage CommandBufferUsage) CommandBuffer
	DestroyCommandBuffer(cmd CommandBuffer)
	CreateFence() Fence
	DestroyFence(fence Fence)
}

// Buffer is a linear block of memory.
type Buffer interface {
	Object
	Size() uint64
	Usage() BufferUsage
	Memory() MemoryUsage
	// Map gives host access to the whole buffer until Unmap.
	// The slice must not be retained past Unmap.
	// Mapping MemoryDeviceLocal is fatal.
	Map() []byte
	Unmap()
}

type Image interface {
	Object
	Format() ImageFormat
	Dimension() ImageType
	Extent() Extent3D
	MipLevelCount() uint32
	ArrayLayerCount() uint32
}

// ImageView borrows exactly one Image.
type ImageView interface {
	Object
	Image() Image
	Format() ImageFormat
	Dimension() ImageType
}

type Sampler interface {
	Object
	Desc() SamplerDesc
}

type ShaderModule interface {
	Object
	Stage() ShaderStage
}

type DescriptorSetLayout interface {
	Object
	Set() uint32
	Bindings() []DescriptorBinding
	Binding(index uint32) (DescriptorBinding, bool)
}

type PipelineLayout interface {
	Object
	Layouts() []DescriptorSetLayout
}

type Pipeline interface {
	Object
	Type() PipelineType
	Layout() PipelineLayout
	VertexAttributes() []VertexAttribute
	// VertexStride is the packed size of one vertex on binding 0.
	VertexStride() uint32
	Topology() PrimitiveTopology
	DepthTest() bool
	DepthWrite() bool
	BlendEnable() bool
}

// DescriptorSet accumulates buffer and image bindings that are applied
// as one unit when the set is bound on a command buffer.
type DescriptorSet interface {
	Object
	Layouts() []DescriptorSetLayout
	// BindBuffer binds the whole buffer, which is the range [0, Size()).
	BindBuffer(binding uint32, buffer Buffer)
	BindBufferRange(binding uint32, buffer Buffer, offset, size uint64)
	BindImageView(binding uint32, view ImageView, sampler Sampler)
	Entries() []DescriptorEntry
}

// Swapchain is a ring of frame slots, each owning one Image and ImageView.
type Swapchain interface {
	Object
	Desc() SwapchainDesc
	Extent() Extent2D
	Format() ImageFormat
	ImageCount() uint32
	ImageIndex() uint32
	Image(index uint32) Image
	ImageView(index uint32) ImageView
	// AcquireNextImage advances the ring, waits on the fence last
	// recorded for the new slot, records fence in its place and
	// returns the slot index.
	AcquireNextImage(fence Fence) uint32
	// Present copies the current slot to the window and swaps buffers.
	Present()
}

// CommandBufferState is the recording state of a CommandBuffer.
type CommandBufferState uint8

const (
	CommandBufferInitial CommandBufferState = iota
	CommandBufferRecording
	CommandBufferRenderPass
	CommandBufferExecutable
)

func (s CommandBufferState) String() string {
	return enumString(s, []string{"Initial", "Recording", "RenderPass", "Executable"})
}

type CommandBuffer interface {
	Object
	Usage() CommandBufferUsage
	State() CommandBufferState
	Begin()
	End()
	Reset()
	BeginRenderPass(desc RenderPassDesc)
	EndRenderPass()
	BindPipeline(pipeline Pipeline)
	BindVertexBuffer(buffer Buffer, offset uint64)
	BindIndexBuffer(buffer Buffer, typ DataType)
	BindDescriptorSet(set uint32, descriptors DescriptorSet)
	Draw(vertexCount, firstVertex uint32)
	DrawIndexed(indexCount, firstIndex uint32)
	Dispatch(x, y, z uint32)
	CopyBuffer(src, dst Buffer, srcOffset, dstOffset, size uint64)
	CopyBufferToImage(src Buffer, dst Image)
	// Transition declares that resource (a Buffer or an Image) is used as
	// state from here on.
	Transition(resource Object, state ResourceState)
	SetViewport(viewport Viewport)
	SetScissor(scissor Rect2D)
}

type Fence interface {
	Object
	Wait()
	Reset()
	Signaled() bool
}

type Queue interface {
	Type() QueueType
	Submit(cmds []CommandBuffer, fence Fence)
	Present(swapchain Swapchain)
}
