package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

type Image struct {
	object
	device *Device
	image  vk.Image
	memory vk.DeviceMemory
	format vk.Format
	desc   glal.ImageDesc
	// state is the last use recorded on any command buffer.
	state glal.ResourceState
	// views counts the live views borrowing the image.
	views int
	// swapchain is set on images owned by a Swapchain slot.
	swapchain *Swapchain
}

func newImage(d *Device, desc glal.ImageDesc) *Image {
	img := &Image{
		device: d,
		desc:   desc,
		format: translate(d.log, componentImage, vkFormats, desc.Format, "image format"),
	}
	e := desc.Extent
	ret := vk.CreateImage(d.device, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: translate(d.log, componentImage, vkImageTypes, desc.Dimension, "image dimension"),
		Format:    img.format,
		Extent: vk.Extent3D{
			Width:  e.Width,
			Height: max(e.Height, 1),
			Depth:  max(e.Depth, 1),
		},
		MipLevels:     desc.MipLevelCount,
		ArrayLayers:   desc.ArrayLayerCount,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         imageUsage(desc.Format),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &img.image)
	check(d.log, componentImage, ret, "failed to create image")

	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device, img.image, &reqs)
	img.memory = d.allocate(componentImage, reqs, glal.MemoryDeviceLocal)
	check(d.log, componentImage, vk.BindImageMemory(d.device, img.image, img.memory, 0), "failed to bind image memory")
	return img
}

// swapchainImage wraps an image the presentation engine owns.
func swapchainImage(sc *Swapchain, image vk.Image) *Image {
	return &Image{
		device: sc.device,
		image:  image,
		format: sc.vkFormat,
		desc: glal.ImageDesc{
			Format:          sc.format,
			Dimension:       glal.Image2D,
			Extent:          sc.extent.Extent3D(),
			MipLevelCount:   1,
			ArrayLayerCount: 1,
		},
		swapchain: sc,
	}
}

func (img *Image) subresources() vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask: aspectMask(img.desc.Format),
		LevelCount: img.desc.MipLevelCount,
		LayerCount: img.desc.ArrayLayerCount,
	}
}

func (img *Image) release() {
	if img.swapchain != nil {
		return
	}
	vk.DestroyImage(img.device.device, img.image, nil)
	vk.FreeMemory(img.device.device, img.memory, nil)
}

// Native returns the VkImage.
func (img *Image) Native() vk.Image {
	return img.image
}

func (img *Image) Format() glal.ImageFormat {
	return img.desc.Format
}

func (img *Image) Dimension() glal.ImageType {
	return img.desc.Dimension
}

func (img *Image) Extent() glal.Extent3D {
	return img.desc.Extent
}

func (img *Image) MipLevelCount() uint32 {
	return img.desc.MipLevelCount
}

func (img *Image) ArrayLayerCount() uint32 {
	return img.desc.ArrayLayerCount
}

type ImageView struct {
	object
	image *Image
	view  vk.ImageView
	desc  glal.ImageViewDesc
}

func newImageView(img *Image, desc glal.ImageViewDesc) *ImageView {
	d := img.device
	v := &ImageView{image: img, desc: desc}
	ret := vk.CreateImageView(d.device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img.image,
		ViewType: viewType(desc.Dimension, img.desc.ArrayLayerCount),
		Format:   translate(d.log, componentImage, vkFormats, desc.Format, "image format"),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: img.subresources(),
	}, nil, &v.view)
	check(d.log, componentImage, ret, "failed to create image view")
	img.views++
	return v
}

// release destroys the view and every framebuffer built on it.
func (v *ImageView) release() {
	d := v.image.device
	d.passes.forgetView(v.view)
	vk.DestroyImageView(d.device, v.view, nil)
	v.image.views--
}

// Native returns the VkImageView.
func (v *ImageView) Native() vk.ImageView {
	return v.view
}

func (v *ImageView) Image() glal.Image {
	return v.image
}

func (v *ImageView) Format() glal.ImageFormat {
	return v.desc.Format
}

func (v *ImageView) Dimension() glal.ImageType {
	return v.desc.Dimension
}
