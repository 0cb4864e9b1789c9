package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

const (
	componentInstance   = "vulkan.instance"
	componentDevice     = "vulkan.device"
	componentMemory     = "vulkan.memory"
	componentBuffer     = "vulkan.buffer"
	componentImage      = "vulkan.image"
	componentSampler    = "vulkan.sampler"
	componentShader     = "vulkan.shader"
	componentDescriptor = "vulkan.descriptor"
	componentPipeline   = "vulkan.pipeline"
	componentCommand    = "vulkan.command"
	componentSync       = "vulkan.sync"
	componentSwapchain  = "vulkan.swapchain"
)

func isError(ret vk.Result) bool {
	return ret != vk.Success
}

// newError converts a failed result into an error carrying the result
// code and a stack.
func newError(ret vk.Result) error {
	if !isError(ret) {
		return nil
	}
	return errors.WithStackDepth(errors.Newf("vulkan error: %v (%d)", vk.Error(ret), int32(ret)), 1)
}

// check is fatal when ret is not vk.Success.
func check(log *glal.Logger, component string, ret vk.Result, what string) {
	if isError(ret) {
		log.Fatal(component, errors.Wrap(newError(ret), what))
	}
}
