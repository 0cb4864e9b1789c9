// Command triangle draws a spinning triangle through the selected glal
// backend.
//
//	triangle --backend vulkan --shaders ./shaders --validation
//	triangle --backend software --frames 3
//
// The software backend runs headless and needs no shaders on disk. The
// other backends read triangle.vert.spv and triangle.frag.spv from the
// --shaders directory.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	flag "github.com/spf13/pflag"

	"github.com/andewx/glal"
	_ "github.com/andewx/glal/opengl/native"
	"github.com/andewx/glal/opengl/soft"
	"github.com/andewx/glal/render"
	_ "github.com/andewx/glal/vulkan"
	"github.com/andewx/glal/window"
)

func init() {
	// glfw and OpenGL contexts are bound to the main thread.
	runtime.LockOSThread()
}

type options struct {
	config     string
	backend    string
	frames     int
	validation bool
	shaders    string
}

func main() {
	var opts options
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flags.StringVarP(&opts.config, "config", "c", "", "YAML or TOML configuration file")
	flags.StringVarP(&opts.backend, "backend", "b", "", "driver to open: "+strings.Join(driverNames(), ", "))
	flags.IntVarP(&opts.frames, "frames", "n", 0, "number of frames to draw, 0 runs until the window closes")
	flags.BoolVar(&opts.validation, "validation", false, "enable backend validation")
	flags.StringVar(&opts.shaders, "shaders", "", "directory holding triangle.vert.spv and triangle.frag.spv")
	flags.Parse(os.Args[1:])

	cfg, err := configure(opts, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "triangle: %v\n", err)
		os.Exit(2)
	}
	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "triangle: %v\n", err)
		os.Exit(2)
	}
	defer log.Close()

	if err := run(cfg, opts, log); err != nil {
		log.Errorf("triangle", "%+v", err)
		log.Close()
		os.Exit(1)
	}
}

func driverNames() []string {
	var names []string
	for _, drv := range glal.Drivers() {
		names = append(names, drv.Name())
	}
	return names
}

// configure loads the configuration file and applies the flags the user
// set on top of it.
func configure(opts options, flags *flag.FlagSet) (glal.Config, error) {
	cfg := glal.DefaultConfig()
	if opts.config != "" {
		var err error
		if cfg, err = glal.LoadConfig(opts.config); err != nil {
			return glal.Config{}, err
		}
	}
	if flags.Changed("backend") {
		cfg.Backend = opts.backend
	}
	if flags.Changed("validation") {
		cfg.Validation = opts.validation
	}
	if cfg.Backend == soft.DriverName && opts.frames == 0 {
		return glal.Config{}, errors.New("the software backend has no window to close, set --frames")
	}
	return cfg, cfg.Validate()
}

// loadShaders returns the scene's SPIR-V for backend.
func loadShaders(backend, dir string) (render.Shaders, error) {
	if backend == soft.DriverName {
		return render.Shaders{
			Vertex:   soft.SPIRV(glal.StageVertex, "main"),
			Fragment: soft.SPIRV(glal.StageFragment, "main"),
		}, nil
	}
	if dir == "" {
		return render.Shaders{}, errors.Newf("the %s backend needs --shaders", backend)
	}
	vs, err := os.ReadFile(filepath.Join(dir, "triangle.vert.spv"))
	if err != nil {
		return render.Shaders{}, errors.Wrap(err, "reading vertex shader")
	}
	fs, err := os.ReadFile(filepath.Join(dir, "triangle.frag.spv"))
	if err != nil {
		return render.Shaders{}, errors.Wrap(err, "reading fragment shader")
	}
	return render.Shaders{Vertex: vs, Fragment: fs}, nil
}

func run(cfg glal.Config, opts options, log *glal.Logger) error {
	shaders, err := loadShaders(cfg.Backend, opts.shaders)
	if err != nil {
		return err
	}
	desc := cfg.InstanceDesc(log)

	var (
		win    *window.Window
		handle interface{}
		extent = glal.Extent2D{Width: cfg.Window.Width, Height: cfg.Window.Height}
	)
	if cfg.Backend != soft.DriverName {
		if err := window.Init(); err != nil {
			return err
		}
		defer window.Terminate()
		if win, err = window.New(cfg.Window, window.APIFor(cfg.Backend)); err != nil {
			return err
		}
		defer win.Destroy()
		desc.Extensions = win.RequiredExtensions()
		handle, extent = win.Handle(), win.FramebufferExtent()
	}

	inst, err := glal.Open(cfg.Backend, desc)
	if err != nil {
		return err
	}
	defer inst.Destroy()
	if handle == nil {
		ctx, _ := soft.ContextOf(inst)
		handle = soft.NewWindow(ctx)
	}

	physicals := inst.PhysicalDevices()
	if len(physicals) == 0 {
		return errors.Newf("%s: no physical device", cfg.Backend)
	}
	physical := physicals[0]
	device := physical.CreateDevice()
	defer physical.DestroyDevice(device)

	p := &glal.Presentation{Device: device, Swapchain: device.CreateSwapchain(cfg.SwapchainDesc(handle, extent))}
	defer func() { device.DestroySwapchain(p.Swapchain) }()

	r := render.New(p, shaders, log)
	defer r.Destroy()
	if win != nil {
		win.OnResize(p, r.Resize)
	}

	for n := 0; opts.frames == 0 || n < opts.frames; n++ {
		if win != nil {
			win.Poll()
			if win.ShouldClose() {
				break
			}
		}
		r.Frame()
	}
	log.Infof("triangle", "%s: %v", physical.Name(), r.Stats())
	return nil
}
