package soft

import (
	"sync"
)

// Window is a headless presentation target. SwapBuffers snapshots the
// context's screen.
type Window struct {
	ctx *Context

	mu    sync.Mutex
	swaps int
	last  Frame
}

func NewWindow(ctx *Context) *Window {
	return &Window{ctx: ctx}
}

func (w *Window) SwapBuffers() {
	screen := w.ctx.Screen()
	screen.Pixels = append([]byte(nil), screen.Pixels...)
	w.mu.Lock()
	w.swaps++
	w.last = screen
	w.mu.Unlock()
}

// Swaps returns the number of presented frames.
func (w *Window) Swaps() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.swaps
}

// LastFrame returns the most recently presented frame.
func (w *Window) LastFrame() Frame {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}
