package opengl

import (
	"github.com/andewx/glal"
)

type Image struct {
	object
	device *Device
	id     uint32
	target uint32
	desc   glal.ImageDesc
	format formatInfo
	// views counts the live views borrowing the image.
	views int
	// swapchain marks images owned by a Swapchain slot.
	swapchain bool
}

func newImage(d *Device, desc glal.ImageDesc) *Image {
	img := &Image{
		device: d,
		desc:   desc,
		target: textureTarget(desc.Dimension, desc.ArrayLayerCount),
		format: d.translateImageFormat(desc.Format),
	}
	gl := d.gl
	img.id = gl.CreateTexture(img.target)
	w, h, depth := img.size()
	levels := int32(desc.MipLevelCount)
	switch img.target {
	case TEXTURE_1D:
		gl.TextureStorage1D(img.id, levels, img.format.internal, w)
	case TEXTURE_1D_ARRAY, TEXTURE_2D:
		gl.TextureStorage2D(img.id, levels, img.format.internal, w, h)
	default:
		gl.TextureStorage3D(img.id, levels, img.format.internal, w, h, depth)
	}
	img.upload(nil)
	return img
}

// size returns the storage extent, with array layers folded into the
// next dimension up.
func (img *Image) size() (w, h, d int32) {
	e := img.desc.Extent
	w, h, d = int32(e.Width), int32(max(e.Height, 1)), int32(max(e.Depth, 1))
	switch img.target {
	case TEXTURE_1D_ARRAY:
		h = int32(img.desc.ArrayLayerCount)
	case TEXTURE_2D_ARRAY:
		d = int32(img.desc.ArrayLayerCount)
	}
	return w, h, d
}

// upload writes the whole of mip level 0. A nil pixels slice reads from
// the bound PIXEL_UNPACK_BUFFER.
func (img *Image) upload(pixels []byte) {
	gl := img.device.gl
	w, h, d := img.size()
	f := img.format
	switch img.target {
	case TEXTURE_1D:
		gl.TextureSubImage1D(img.id, 0, 0, w, f.external, f.xtype, pixels)
	case TEXTURE_1D_ARRAY, TEXTURE_2D:
		gl.TextureSubImage2D(img.id, 0, 0, 0, w, h, f.external, f.xtype, pixels)
	default:
		gl.TextureSubImage3D(img.id, 0, 0, 0, 0, w, h, d, f.external, f.xtype, pixels)
	}
}

// byteSize is the size of mip level 0 across all layers.
func (img *Image) byteSize() uint64 {
	w, h, d := img.size()
	return uint64(w) * uint64(h) * uint64(d) * uint64(img.desc.Format.BytesPerPixel())
}

func (img *Image) release() {
	img.device.gl.DeleteTexture(img.id)
}

// Name returns the GL texture name of the image.
func (img *Image) Name() uint32 {
	return img.id
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

// ImageView is the image's own texture: the permissive backend attaches
// and samples textures directly.
type ImageView struct {
	object
	image *Image
	desc  glal.ImageViewDesc
}

func newImageView(img *Image, desc glal.ImageViewDesc) *ImageView {
	img.views++
	return &ImageView{image: img, desc: desc}
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
