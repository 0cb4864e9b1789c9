package opengl

import (
	"github.com/andewx/glal"
)

// waitTimeout bounds each ClientWaitSync call; Wait loops until the sync
// object signals.
const waitTimeout = 1_000_000_000

// Fence wraps a GL sync object inserted after the work it guards.
type Fence struct {
	object
	device *Device
	sync   uintptr
}

func (f *Fence) release() {
	if f.sync != 0 {
		f.device.gl.DeleteSync(f.sync)
		f.sync = 0
	}
}

// signal inserts a sync object behind everything issued so far.
func (f *Fence) signal() {
	f.release()
	f.sync = f.device.gl.FenceSync(SYNC_GPU_COMMANDS_COMPLETE, 0)
}

// Wait blocks until the work guarded by the fence completes. A fence that
// was never signalled guards everything issued before the call.
func (f *Fence) Wait() {
	f.device.fences.Lookup(f.handle)
	if f.sync == 0 {
		f.signal()
	}
	for {
		switch f.device.gl.ClientWaitSync(f.sync, SYNC_FLUSH_COMMANDS_BIT, waitTimeout) {
		case ALREADY_SIGNALED, CONDITION_SATISFIED:
			return
		case TIMEOUT_EXPIRED:
			f.device.log.Verbosef(componentSync, "fence %v still pending", f.handle)
		default:
			f.device.log.Fatalf(componentSync, "failed to wait for fence %v", f.handle)
		}
	}
}

func (f *Fence) Reset() {
	f.device.fences.Lookup(f.handle)
	f.release()
}

func (f *Fence) Signaled() bool {
	f.device.fences.Lookup(f.handle)
	if f.sync == 0 {
		return false
	}
	switch f.device.gl.ClientWaitSync(f.sync, 0, 0) {
	case ALREADY_SIGNALED, CONDITION_SATISFIED:
		return true
	}
	return false
}

// Queue is the context's single in-order queue.
type Queue struct {
	device *Device
}

func (q *Queue) Type() glal.QueueType {
	return glal.QueueGraphics | glal.QueueCompute | glal.QueueTransfer | glal.QueuePresent
}

// Submit replays every command buffer in order, then signals fence.
func (q *Queue) Submit(cmds []glal.CommandBuffer, fence glal.Fence) {
	d := q.device
	var f *Fence
	if fence != nil {
		f = resolve(d.log, d.fences, fence, glal.KindFence)
	}
	for _, cmd := range cmds {
		c := resolve(d.log, d.commandBuffers, cmd, glal.KindCommandBuffer)
		if c.state != glal.CommandBufferExecutable {
			d.log.Fatalf(componentSync, "command buffer %v is not executable (%v)", c.handle, c.state)
		}
		c.execute()
		if c.usage == glal.CommandBufferOnce {
			c.Reset()
		}
	}
	if f != nil {
		f.signal()
	}
}

func (q *Queue) Present(swapchain glal.Swapchain) {
	sc := resolve(q.device.log, q.device.swapchains, swapchain, glal.KindSwapchain)
	sc.Present()
}
