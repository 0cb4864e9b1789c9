package glal

// Presentation is the explicit context handed to resize handlers: the
// Device and the Swapchain it presents through.
type Presentation struct {
	Device    Device
	Swapchain Swapchain
}

// Recreate replaces the swapchain with one of the given extent, keeping
// every other parameter. Swapchains cannot be resized in place.
// An empty extent (a minimized window) leaves the swapchain untouched
// and reports false.
func (p *Presentation) Recreate(extent Extent2D) bool {
	if extent.Width == 0 || extent.Height == 0 {
		return false
	}
	desc := p.Swapchain.Desc()
	if desc.Extent == extent {
		return false
	}
	p.Device.WaitIdle()
	p.Device.DestroySwapchain(p.Swapchain)
	desc.Extent = extent
	p.Swapchain = p.Device.CreateSwapchain(desc)
	return true
}
