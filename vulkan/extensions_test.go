package vulkan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

func TestMissingExtensions(t *testing.T) {
	available := []string{"VK_KHR_surface\x00", "VK_KHR_xcb_surface", debugReportExtension}
	assert.Empty(t, missing([]string{"VK_KHR_surface", "VK_KHR_xcb_surface\x00"}, available))
	assert.Equal(t, []string{"VK_KHR_wayland_surface"}, missing([]string{"VK_KHR_surface", "VK_KHR_wayland_surface"}, available))
	assert.True(t, contains(available, debugReportExtension))
	assert.False(t, contains(available, swapchainExtension))
}

func TestSafeString(t *testing.T) {
	assert.Equal(t, "main\x00", safeString("main"))
	assert.Equal(t, "main\x00", safeString("main\x00"))
	assert.Equal(t, []string{"a\x00", "b\x00"}, safeStrings([]string{"a", "b\x00"}))
}

func TestChooseExtent(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 1024, Height: 768},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}
	assert.Equal(t, glal.Extent2D{Width: 1024, Height: 768}, chooseExtent(caps, glal.Extent2D{Width: 800, Height: 600}),
		"a fixed surface extent wins")

	caps.CurrentExtent = vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32}
	assert.Equal(t, glal.Extent2D{Width: 800, Height: 600}, chooseExtent(caps, glal.Extent2D{Width: 800, Height: 600}))
	assert.Equal(t, glal.Extent2D{Width: 4096, Height: 1}, chooseExtent(caps, glal.Extent2D{Width: 9000, Height: 0}))
}

func TestPoolSizes(t *testing.T) {
	layouts := []*DescriptorSetLayout{
		{set: 0, bindings: []glal.DescriptorBinding{
			{Binding: 0, Type: glal.DescriptorUniformBuffer, Count: 1, Stages: glal.StageVertex},
			{Binding: 1, Type: glal.DescriptorCombinedImageSampler, Count: 2, Stages: glal.StageFragment},
		}},
		{set: 1, bindings: []glal.DescriptorBinding{
			{Binding: 0, Type: glal.DescriptorStorageBuffer, Count: 1, Stages: glal.StageCompute},
			{Binding: 1, Type: glal.DescriptorReadOnlyStorageBuffer, Count: 3, Stages: glal.StageCompute},
		}},
	}
	sizes := poolSizes(layouts)
	got := make(map[vk.DescriptorType]uint32)
	for _, s := range sizes {
		got[s.Type] = s.DescriptorCount
	}
	assert.Equal(t, map[vk.DescriptorType]uint32{
		vk.DescriptorTypeUniformBuffer:        1,
		vk.DescriptorTypeCombinedImageSampler: 2,
		vk.DescriptorTypeStorageBuffer:        4,
	}, got)
}

func TestDescriptorSetPlacement(t *testing.T) {
	d := &Device{log: panicLogger()}
	s := &DescriptorSet{device: d, layouts: []*DescriptorSetLayout{{set: 1}, {set: 2}}}
	assert.NotPanics(t, func() { s.requirePlacement(1) })
	assert.Contains(t, requireFatal(t, func() { s.requirePlacement(0) }), "declares set 1 but is bound at set 0")

	gap := &DescriptorSet{device: d, layouts: []*DescriptorSetLayout{{set: 0}, {set: 2}}}
	assert.Contains(t, requireFatal(t, func() { gap.requirePlacement(0) }), "layout 1 declares set 2 but is bound at set 1")
}
