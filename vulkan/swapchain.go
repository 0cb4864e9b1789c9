package vulkan

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

// SurfaceCreator is the native window handle the Vulkan backend presents
// to, such as *glfw.Window.
type SurfaceCreator interface {
	CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error)
}

// Swapchain wraps a VkSwapchainKHR. Slot images and views are registered
// with the device like any other, but only the swapchain may destroy them.
type Swapchain struct {
	object
	device    *Device
	desc      glal.SwapchainDesc
	surface   vk.Surface
	swapchain vk.Swapchain
	extent    glal.Extent2D
	format    glal.ImageFormat
	vkFormat  vk.Format
	images    []*Image
	views     []*ImageView
	fences    []*Fence
	index     uint32

	// acquired is waited on by AcquireNextImage so the returned slot is
	// ready to be written.
	acquired vk.Fence
	// rendered[i] is signalled by the submission that writes slot i and
	// waited on by its presentation.
	rendered []vk.Semaphore
	signaled []bool
}

func newSwapchain(d *Device, desc glal.SwapchainDesc) *Swapchain {
	log := d.log
	window, ok := desc.NativeWindowHandle.(SurfaceCreator)
	if !ok {
		log.Fatalf(componentSwapchain, "native window handle %T cannot create a surface", desc.NativeWindowHandle)
	}
	inst := d.physical.instance
	ptr, err := window.CreateWindowSurface(inst.instance, nil)
	if err != nil {
		log.Fatalf(componentSwapchain, "failed to create window surface: %v", err)
	}
	sc := &Swapchain{device: d, desc: desc, surface: vk.SurfaceFromPointer(ptr)}

	var supported vk.Bool32
	vk.GetPhysicalDeviceSurfaceSupport(d.physical.gpu, d.queue.family, sc.surface, &supported)
	if supported != vk.True {
		vk.DestroySurface(inst.instance, sc.surface, nil)
		log.Fatalf(componentSwapchain, "queue family %d cannot present to the surface", d.queue.family)
	}

	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(d.physical.gpu, sc.surface, &caps)
	check(log, componentSwapchain, ret, "failed to query surface capabilities")
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	surfaceFormat := sc.chooseFormat()
	sc.extent = chooseExtent(caps, desc.Extent)
	count := max(desc.ImageCount, caps.MinImageCount)
	if caps.MaxImageCount > 0 {
		count = min(count, caps.MaxImageCount)
	}

	transform := vk.SurfaceTransformIdentityBit
	if vk.SurfaceTransformFlagBits(caps.SupportedTransforms)&transform == 0 {
		transform = caps.CurrentTransform
	}
	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for _, flag := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			compositeAlpha = flag
			break
		}
	}
	usage := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit|vk.ImageUsageTransferDstBit|vk.ImageUsageTransferSrcBit) &
		caps.SupportedUsageFlags

	ret = vk.CreateSwapchain(d.device, &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          sc.surface,
		MinImageCount:    count,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      vk.Extent2D{Width: sc.extent.Width, Height: sc.extent.Height},
		ImageArrayLayers: 1,
		ImageUsage:       usage,
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     transform,
		CompositeAlpha:   compositeAlpha,
		PresentMode:      vk.PresentModeFifo,
		Clipped:          vk.True,
	}, nil, &sc.swapchain)
	check(log, componentSwapchain, ret, "failed to create swapchain")

	var n uint32
	check(log, componentSwapchain, vk.GetSwapchainImages(d.device, sc.swapchain, &n, nil), "failed to get swapchain images")
	natives := make([]vk.Image, n)
	check(log, componentSwapchain, vk.GetSwapchainImages(d.device, sc.swapchain, &n, natives), "failed to get swapchain images")

	for _, native := range natives[:n] {
		img := swapchainImage(sc, native)
		img.handle = d.images.Add(img)
		v := newImageView(img, glal.ImageViewDesc{Image: img, Format: sc.format, Dimension: glal.Image2D})
		v.handle = d.views.Add(v)
		sc.images = append(sc.images, img)
		sc.views = append(sc.views, v)

		var s vk.Semaphore
		ret := vk.CreateSemaphore(d.device, &vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}, nil, &s)
		check(log, componentSwapchain, ret, "failed to create semaphore")
		sc.rendered = append(sc.rendered, s)
	}
	sc.fences = make([]*Fence, n)
	sc.signaled = make([]bool, n)
	ret = vk.CreateFence(d.device, &vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}, nil, &sc.acquired)
	check(log, componentSwapchain, ret, "failed to create fence")
	return sc
}

// chooseFormat picks the surface format matching the requested one, or
// the first one glal can describe.
func (sc *Swapchain) chooseFormat() vk.SurfaceFormat {
	d := sc.device
	want := translate(d.log, componentSwapchain, vkFormats, sc.desc.Format, "swapchain format")

	var count uint32
	vk.GetPhysicalDeviceSurfaceFormats(d.physical.gpu, sc.surface, &count, nil)
	formats := make([]vk.SurfaceFormat, count)
	vk.GetPhysicalDeviceSurfaceFormats(d.physical.gpu, sc.surface, &count, formats)
	for i := range formats {
		formats[i].Deref()
	}

	sc.format, sc.vkFormat = sc.desc.Format, want
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return vk.SurfaceFormat{Format: want, ColorSpace: formats[0].ColorSpace}
	}
	for _, f := range formats {
		if f.Format == want {
			return f
		}
	}
	for _, f := range formats {
		if format, ok := fromVkFormat(f.Format); ok {
			d.log.Warnf(componentSwapchain, "surface does not support %v, using %v", sc.desc.Format, format)
			sc.format, sc.vkFormat = format, f.Format
			return f
		}
	}
	d.log.Fatalf(componentSwapchain, "surface supports no usable format")
	return vk.SurfaceFormat{}
}

// chooseExtent follows the surface when it fixes the extent and clamps the
// requested one otherwise.
func chooseExtent(caps vk.SurfaceCapabilities, want glal.Extent2D) glal.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return glal.Extent2D{Width: caps.CurrentExtent.Width, Height: caps.CurrentExtent.Height}
	}
	return glal.Extent2D{
		Width:  min(max(want.Width, caps.MinImageExtent.Width), caps.MaxImageExtent.Width),
		Height: min(max(want.Height, caps.MinImageExtent.Height), caps.MaxImageExtent.Height),
	}
}

// release destroys the native swapchain once the device has unregistered
// its slot images and views.
func (sc *Swapchain) release() {
	d := sc.device
	for _, s := range sc.rendered {
		vk.DestroySemaphore(d.device, s, nil)
	}
	vk.DestroyFence(d.device, sc.acquired, nil)
	vk.DestroySwapchain(d.device, sc.swapchain, nil)
	vk.DestroySurface(d.physical.instance.instance, sc.surface, nil)
	sc.images, sc.views, sc.fences, sc.rendered = nil, nil, nil, nil
}

// render returns the semaphore the current slot's presentation waits on,
// the first time a submission writes the slot since it was acquired.
func (sc *Swapchain) render() (vk.Semaphore, bool) {
	if sc.signaled == nil || sc.signaled[sc.index] {
		return vk.Semaphore(vk.NullHandle), false
	}
	sc.signaled[sc.index] = true
	return sc.rendered[sc.index], true
}

func (sc *Swapchain) Desc() glal.SwapchainDesc {
	return sc.desc
}

func (sc *Swapchain) Extent() glal.Extent2D {
	return sc.extent
}

func (sc *Swapchain) Format() glal.ImageFormat {
	return sc.format
}

func (sc *Swapchain) ImageCount() uint32 {
	return uint32(len(sc.images))
}

func (sc *Swapchain) ImageIndex() uint32 {
	return sc.index
}

func (sc *Swapchain) slot(index uint32) uint32 {
	sc.device.swapchains.Lookup(sc.handle)
	if index >= uint32(len(sc.images)) {
		sc.device.log.Fatalf(componentSwapchain, "swapchain image %d out of range (%d images)", index, len(sc.images))
	}
	return index
}

func (sc *Swapchain) Image(index uint32) glal.Image {
	return sc.images[sc.slot(index)]
}

func (sc *Swapchain) ImageView(index uint32) glal.ImageView {
	return sc.views[sc.slot(index)]
}

// AcquireNextImage asks the presentation engine for the next slot, waits
// until it is released and until the frame previously submitted with that
// slot's fence has completed.
func (sc *Swapchain) AcquireNextImage(fence glal.Fence) uint32 {
	d := sc.device
	d.swapchains.Lookup(sc.handle)
	var f *Fence
	if fence != nil {
		f = resolve(d.log, d.fences, fence, glal.KindFence)
	}
	var index uint32
	ret := vk.AcquireNextImage(d.device, sc.swapchain, vk.MaxUint64, vk.Semaphore(vk.NullHandle), sc.acquired, &index)
	switch ret {
	case vk.Success:
	case vk.Suboptimal:
		d.log.Verbosef(componentSwapchain, "swapchain %v is suboptimal for the surface", sc.handle)
	default:
		check(d.log, componentSwapchain, ret, "failed to acquire swapchain image")
	}
	check(d.log, componentSwapchain, vk.WaitForFences(d.device, 1, []vk.Fence{sc.acquired}, vk.True, vk.MaxUint64), "failed to wait for image acquisition")
	check(d.log, componentSwapchain, vk.ResetFences(d.device, 1, []vk.Fence{sc.acquired}), "failed to reset fence")

	sc.index = index
	if prev := sc.fences[index]; prev != nil {
		if _, alive := d.fences.Get(prev.handle); alive {
			prev.Wait()
		}
	}
	sc.fences[index] = f
	sc.signaled[index] = false
	return index
}

// Present queues the current slot for display after the submission that
// rendered it. It does not wait for the image to be shown.
func (sc *Swapchain) Present() {
	d := sc.device
	d.swapchains.Lookup(sc.handle)
	var waits []vk.Semaphore
	if sc.signaled[sc.index] {
		waits = append(waits, sc.rendered[sc.index])
	}
	ret := vk.QueuePresent(d.queue.queue, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(waits)),
		PWaitSemaphores:    waits,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.swapchain},
		PImageIndices:      []uint32{sc.index},
	})
	sc.signaled[sc.index] = false
	switch ret {
	case vk.Success:
	case vk.Suboptimal, vk.ErrorOutOfDate:
		d.log.Warnf(componentSwapchain, "swapchain %v is out of date, recreate it", sc.handle)
	default:
		check(d.log, componentSwapchain, ret, "failed to present")
	}
}
