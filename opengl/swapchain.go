package opengl

import (
	"github.com/andewx/glal"
)

// SwapBufferer is the native window handle the permissive backend presents
// to, such as *glfw.Window.
type SwapBufferer interface {
	SwapBuffers()
}

// Swapchain renders into ImageCount offscreen images and blits the
// current one to the default framebuffer on Present.
type Swapchain struct {
	object
	device *Device
	desc   glal.SwapchainDesc
	window SwapBufferer
	images []*Image
	views  []*ImageView
	fences []*Fence
	index  uint32
}

func newSwapchain(d *Device, desc glal.SwapchainDesc) *Swapchain {
	window, ok := desc.NativeWindowHandle.(SwapBufferer)
	if !ok {
		d.log.Fatalf(componentSwapchain, "native window handle %T cannot swap buffers", desc.NativeWindowHandle)
	}
	sc := &Swapchain{
		device: d,
		desc:   desc,
		window: window,
		fences: make([]*Fence, desc.ImageCount),
	}
	imageDesc := glal.ImageDesc{
		Format:          desc.Format,
		Dimension:       glal.Image2D,
		Extent:          desc.Extent.Extent3D(),
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	}
	for i := uint32(0); i < desc.ImageCount; i++ {
		img := newImage(d, imageDesc)
		img.swapchain = true
		img.handle = d.images.Add(img)
		v := newImageView(img, glal.ImageViewDesc{Image: img, Format: desc.Format, Dimension: glal.Image2D})
		v.handle = d.views.Add(v)
		sc.images = append(sc.images, img)
		sc.views = append(sc.views, v)
	}
	return sc
}

func (sc *Swapchain) Desc() glal.SwapchainDesc {
	return sc.desc
}

func (sc *Swapchain) Extent() glal.Extent2D {
	return sc.desc.Extent
}

func (sc *Swapchain) Format() glal.ImageFormat {
	return sc.desc.Format
}

func (sc *Swapchain) ImageCount() uint32 {
	return sc.desc.ImageCount
}

func (sc *Swapchain) ImageIndex() uint32 {
	return sc.index
}

func (sc *Swapchain) slot(index uint32) uint32 {
	sc.device.swapchains.Lookup(sc.handle)
	if index >= sc.desc.ImageCount {
		sc.device.log.Fatalf(componentSwapchain, "swapchain image %d out of range (%d images)", index, sc.desc.ImageCount)
	}
	return index
}

func (sc *Swapchain) Image(index uint32) glal.Image {
	return sc.images[sc.slot(index)]
}

func (sc *Swapchain) ImageView(index uint32) glal.ImageView {
	return sc.views[sc.slot(index)]
}

// AcquireNextImage advances to the next slot and waits until the frame
// previously submitted with that slot's fence has completed.
func (sc *Swapchain) AcquireNextImage(fence glal.Fence) uint32 {
	d := sc.device
	d.swapchains.Lookup(sc.handle)
	var f *Fence
	if fence != nil {
		f = resolve(d.log, d.fences, fence, glal.KindFence)
	}
	sc.index = (sc.index + 1) % sc.desc.ImageCount
	if prev := sc.fences[sc.index]; prev != nil {
		if _, alive := d.fences.Get(prev.handle); alive {
			prev.Wait()
		}
	}
	sc.fences[sc.index] = f
	return sc.index
}

func (sc *Swapchain) Present() {
	d := sc.device
	d.swapchains.Lookup(sc.handle)
	gl := d.gl
	w, h := int32(sc.desc.Extent.Width), int32(sc.desc.Extent.Height)
	fb := gl.CreateFramebuffer()
	gl.NamedFramebufferTexture(fb, COLOR_ATTACHMENT0, sc.images[sc.index].id, 0)
	gl.BlitNamedFramebuffer(fb, 0, 0, 0, w, h, 0, 0, w, h, COLOR_BUFFER_BIT, NEAREST)
	gl.DeleteFramebuffer(fb)
	sc.window.SwapBuffers()
}
