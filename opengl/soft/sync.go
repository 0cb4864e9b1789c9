package soft

import (
	"time"

	"github.com/andewx/glal/opengl"
)

type syncObject struct {
	signaled bool
}

// FenceSync inserts a fence. Commands run synchronously, so the fence is
// signaled at once unless the context is stalled.
func (c *Context) FenceSync(condition, flags uint32) uintptr {
	if condition != opengl.SYNC_GPU_COMMANDS_COMPLETE || flags != 0 {
		c.fail("FenceSync: invalid condition %#x or flags %#x", condition, flags)
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSync++
	c.syncs[c.nextSync] = &syncObject{signaled: !c.stalled}
	return c.nextSync
}

// ClientWaitSync may be called from any goroutine.
func (c *Context) ClientWaitSync(sync uintptr, flags uint32, timeout uint64) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.syncs[sync]
	if !ok {
		return opengl.WAIT_FAILED
	}
	if s.signaled {
		return opengl.ALREADY_SIGNALED
	}
	if timeout == 0 {
		return opengl.TIMEOUT_EXPIRED
	}
	deadline := time.Now().Add(time.Duration(timeout))
	timer := time.AfterFunc(time.Duration(timeout), func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer timer.Stop()
	for !s.signaled {
		if _, alive := c.syncs[sync]; !alive {
			return opengl.WAIT_FAILED
		}
		if !time.Now().Before(deadline) {
			return opengl.TIMEOUT_EXPIRED
		}
		c.cond.Wait()
	}
	return opengl.CONDITION_SATISFIED
}

func (c *Context) DeleteSync(sync uintptr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.syncs[sync]; !ok {
		return
	}
	delete(c.syncs, sync)
	c.cond.Broadcast()
}

// Finish blocks while the context is stalled.
func (c *Context) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.stalled {
		c.cond.Wait()
	}
}

// Stall leaves every fence inserted from now on unsignaled until Resume.
func (c *Context) Stall() {
	c.mu.Lock()
	c.stalled = true
	c.mu.Unlock()
}

// Resume signals every pending fence and wakes the waiters.
func (c *Context) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stalled = false
	for _, s := range c.syncs {
		s.signaled = true
	}
	c.cond.Broadcast()
}

// Pending reports how many fences are not yet signaled.
func (c *Context) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.syncs {
		if !s.signaled {
			n++
		}
	}
	return n
}
