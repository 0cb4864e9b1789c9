// Package window opens the glfw window a Swapchain presents to.
//
// glfw must be driven from the main thread: call Init from main (or after
// runtime.LockOSThread in init) and keep every Window call on that thread.
package window

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/andewx/glal"
)

// API selects the client API the window is prepared for.
type API uint8

const (
	// OpenGL creates a 4.6 core context and makes it current.
	OpenGL API = iota
	// Vulkan creates no context; the backend creates a surface.
	Vulkan
)

func (a API) String() string {
	if a == Vulkan {
		return "Vulkan"
	}
	return "OpenGL"
}

// APIFor returns the API a backend driver presents with.
func APIFor(driver string) API {
	if driver == "vulkan" {
		return Vulkan
	}
	return OpenGL
}

// Init initializes glfw.
func Init() error {
	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "initializing glfw")
	}
	return nil
}

// Terminate destroys the remaining windows and releases glfw.
func Terminate() {
	glfw.Terminate()
}

// Window is a glfw window. Its Handle satisfies the native window
// handle of both backends.
type Window struct {
	window *glfw.Window
	api    API
	resize func(extent glal.Extent2D)
}

// New creates a window sized and titled by cfg.
func New(cfg glal.WindowConfig, api API) (*Window, error) {
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Resizable, boolHint(cfg.Resizable))
	glfw.WindowHint(glfw.Visible, glfw.True)
	switch api {
	case Vulkan:
		if !glfw.VulkanSupported() {
			return nil, errors.New("glfw: vulkan is not supported")
		}
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	default:
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 6)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	}

	win, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Title, nil, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %dx%d %v window", cfg.Width, cfg.Height, api)
	}
	if api == OpenGL {
		win.MakeContextCurrent()
		glfw.SwapInterval(1)
	}
	w := &Window{window: win, api: api}
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if w.resize != nil {
			w.resize(glal.Extent2D{Width: uint32(width), Height: uint32(height)})
		}
	})
	return w, nil
}

func boolHint(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

// Handle returns the value passed as SwapchainDesc.NativeWindowHandle.
func (w *Window) Handle() *glfw.Window {
	return w.window
}

func (w *Window) API() API {
	return w.api
}

// RequiredExtensions lists the instance extensions a Vulkan surface for
// this window needs. It is empty for OpenGL windows.
func (w *Window) RequiredExtensions() []string {
	if w.api != Vulkan {
		return nil
	}
	return w.window.GetRequiredInstanceExtensions()
}

// FramebufferExtent returns the drawable size in pixels.
func (w *Window) FramebufferExtent() glal.Extent2D {
	width, height := w.window.GetFramebufferSize()
	return glal.Extent2D{Width: uint32(width), Height: uint32(height)}
}

// OnResize calls fn with the presentation context p whenever the
// framebuffer is resized. Pass a nil fn to remove the handler.
func (w *Window) OnResize(p *glal.Presentation, fn func(p *glal.Presentation, extent glal.Extent2D)) {
	if fn == nil {
		w.resize = nil
		return
	}
	w.resize = func(extent glal.Extent2D) {
		fn(p, extent)
	}
}

// Poll processes pending window events, running resize handlers.
func (w *Window) Poll() {
	glfw.PollEvents()
}

func (w *Window) ShouldClose() bool {
	return w.window.ShouldClose()
}

func (w *Window) SetShouldClose(close bool) {
	w.window.SetShouldClose(close)
}

func (w *Window) Destroy() {
	w.window.Destroy()
}
