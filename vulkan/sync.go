package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

// waitTimeout bounds each WaitForFences call; Wait loops until the fence
// signals.
const waitTimeout = 1_000_000_000

type Fence struct {
	object
	device *Device
	fence  vk.Fence
	// submitted is set while a queue operation will signal the fence.
	submitted bool
}

func newFence(d *Device) *Fence {
	f := &Fence{device: d}
	ret := vk.CreateFence(d.device, &vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}, nil, &f.fence)
	check(d.log, componentSync, ret, "failed to create fence")
	return f
}

func (f *Fence) release() {
	vk.DestroyFence(f.device.device, f.fence, nil)
}

// arm prepares the fence to be signalled by the next submission.
func (f *Fence) arm() {
	if f.submitted {
		check(f.device.log, componentSync, vk.ResetFences(f.device.device, 1, []vk.Fence{f.fence}), "failed to reset fence")
	}
	f.submitted = true
}

// Wait blocks until the work guarded by the fence completes. A fence that
// was never submitted guards everything submitted before the call.
func (f *Fence) Wait() {
	d := f.device
	d.fences.Lookup(f.handle)
	if !f.submitted {
		f.arm()
		check(d.log, componentSync, vk.QueueSubmit(d.queue.queue, 0, nil, f.fence), "failed to signal fence")
	}
	for {
		ret := vk.WaitForFences(d.device, 1, []vk.Fence{f.fence}, vk.True, waitTimeout)
		switch ret {
		case vk.Success:
			return
		case vk.Timeout:
			d.log.Verbosef(componentSync, "fence %v still pending", f.handle)
		default:
			check(d.log, componentSync, ret, "failed to wait for fence")
		}
	}
}

func (f *Fence) Reset() {
	f.device.fences.Lookup(f.handle)
	if f.submitted {
		check(f.device.log, componentSync, vk.ResetFences(f.device.device, 1, []vk.Fence{f.fence}), "failed to reset fence")
		f.submitted = false
	}
}

func (f *Fence) Signaled() bool {
	f.device.fences.Lookup(f.handle)
	return f.submitted && vk.GetFenceStatus(f.device.device, f.fence) == vk.Success
}

// Queue is the device's universal queue.
type Queue struct {
	device *Device
	queue  vk.Queue
	family uint32
}

func (q *Queue) Type() glal.QueueType {
	return glal.QueueGraphics | glal.QueueCompute | glal.QueueTransfer | glal.QueuePresent
}

// Submit executes cmds as one batch and signals fence when it completes.
// Batches that write swapchain images signal the semaphore the next
// Present of that swapchain waits on.
func (q *Queue) Submit(cmds []glal.CommandBuffer, fence glal.Fence) {
	d := q.device
	native := vk.Fence(vk.NullHandle)
	if fence != nil {
		f := resolve(d.log, d.fences, fence, glal.KindFence)
		f.arm()
		native = f.fence
	}
	buffers := make([]vk.CommandBuffer, 0, len(cmds))
	var signals []vk.Semaphore
	for _, cmd := range cmds {
		c := resolve(d.log, d.commandBuffers, cmd, glal.KindCommandBuffer)
		if c.state != glal.CommandBufferExecutable {
			d.log.Fatalf(componentSync, "command buffer %v is not executable (%v)", c.handle, c.state)
		}
		buffers = append(buffers, c.cmd)
		for sc := range c.swapchains {
			if s, ok := sc.render(); ok {
				signals = append(signals, s)
			}
		}
		if c.usage == glal.CommandBufferOnce {
			c.Reset()
		}
	}
	ret := vk.QueueSubmit(q.queue, 1, []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		CommandBufferCount:   uint32(len(buffers)),
		PCommandBuffers:      buffers,
		SignalSemaphoreCount: uint32(len(signals)),
		PSignalSemaphores:    signals,
	}}, native)
	check(d.log, componentSync, ret, "failed to submit command buffers")
}

func (q *Queue) Present(swapchain glal.Swapchain) {
	sc := resolve(q.device.log, q.device.swapchains, swapchain, glal.KindSwapchain)
	sc.Present()
}
