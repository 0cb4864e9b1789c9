package vulkan_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/glal"
	"github.com/andewx/glal/vulkan"
)

// openDevice creates a device on the first GPU, skipping the test on
// machines without a Vulkan loader or GPU.
func openDevice(t *testing.T, lifetime glal.Lifetime) (glal.Instance, glal.Device) {
	t.Helper()
	var buf bytes.Buffer
	log := glal.NewLogger(&buf, glal.LevelVerbose)
	log.SetFatalHandler(glal.PanicOnFatal)
	inst, err := glal.Open(vulkan.DriverName, glal.InstanceDesc{
		ApplicationName: t.Name(),
		Lifetime:        lifetime,
		Logger:          log,
	})
	if err != nil {
		t.Skipf("vulkan unavailable: %v", err)
	}
	physicals := inst.PhysicalDevices()
	require.NotEmpty(t, physicals)
	return inst, physicals[0].CreateDevice()
}

func TestDeviceDefaults(t *testing.T) {
	inst, device := openDevice(t, glal.LifetimeDefault)
	assert.Equal(t, glal.BackendVulkan, inst.Backend())
	assert.Equal(t, glal.LifetimeStrict, inst.(*vulkan.Instance).Lifetime())
	assert.True(t, device.Supports(glal.FeatureExplicitBarriers))
	assert.True(t, device.Supports(glal.FeatureDescriptorSets))
	assert.NotNil(t, device.Queue(glal.QueueGraphics))
	assert.Same(t, device.Queue(glal.QueueGraphics), device.Queue(glal.QueueTransfer))

	device.PhysicalDevice().DestroyDevice(device)
	inst.Destroy()
}

func TestBufferCopyRoundTrip(t *testing.T) {
	inst, device := openDevice(t, glal.LifetimeStrict)
	upload := device.CreateBuffer(glal.BufferDesc{Size: 16, Usage: glal.UsageVertex, Memory: glal.MemoryHostToDevice})
	readback := device.CreateBuffer(glal.BufferDesc{Size: 16, Usage: glal.UsageVertex, Memory: glal.MemoryDeviceToHost})

	data := upload.Map()
	require.Len(t, data, 16)
	for i := range data {
		data[i] = byte(i * 3)
	}
	upload.Unmap()

	cmd := device.CreateCommandBuffer(glal.CommandBufferOnce)
	cmd.Begin()
	cmd.CopyBuffer(upload, readback, 4, 0, 12)
	cmd.Transition(readback, glal.StateCopySrc)
	cmd.End()

	fence := device.CreateFence()
	assert.False(t, fence.Signaled())
	device.Queue(glal.QueueTransfer).Submit([]glal.CommandBuffer{cmd}, fence)
	fence.Wait()
	assert.True(t, fence.Signaled())

	got := readback.Map()
	assert.Equal(t, []byte{12, 15, 18, 21, 24, 27, 30, 33, 36, 39, 42, 45}, got[:12])
	readback.Unmap()

	fence.Reset()
	assert.False(t, fence.Signaled())
	fence.Wait()

	device.DestroyFence(fence)
	device.DestroyCommandBuffer(cmd)
	device.DestroyBuffer(upload)
	device.DestroyBuffer(readback)
	device.PhysicalDevice().DestroyDevice(device)
	inst.Destroy()
}

func TestStrictLifetimeLeak(t *testing.T) {
	inst, device := openDevice(t, glal.LifetimeStrict)
	buf := device.CreateBuffer(glal.BufferDesc{Size: 64, Usage: glal.UsageUniform, Memory: glal.MemoryHostToDevice})
	err := glal.Recover(func() { device.PhysicalDevice().DestroyDevice(device) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not all")

	device.DestroyBuffer(buf)
	assert.NoError(t, glal.Recover(func() { device.PhysicalDevice().DestroyDevice(device) }), "the device is still owned")
	assert.NoError(t, glal.Recover(inst.Destroy))
}

func TestPermissiveLifetimeTeardown(t *testing.T) {
	inst, device := openDevice(t, glal.LifetimePermissive)
	device.CreateBuffer(glal.BufferDesc{Size: 64, Usage: glal.UsageUniform, Memory: glal.MemoryHostToDevice})
	device.CreateFence()
	assert.NoError(t, glal.Recover(inst.Destroy))
}

func TestDrawWithoutPipeline(t *testing.T) {
	inst, device := openDevice(t, glal.LifetimePermissive)
	defer inst.Destroy()
	cmd := device.CreateCommandBuffer(glal.CommandBufferReusable)
	cmd.Begin()
	err := glal.Recover(func() { cmd.Draw(3, 0) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline")
}
