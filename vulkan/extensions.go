package vulkan

import (
	"strings"

	vk "github.com/vulkan-go/vulkan"
)

// validationLayer is enabled when the instance asks for validation and
// the loader provides it.
const validationLayer = "VK_LAYER_KHRONOS_validation"

const (
	debugReportExtension = "VK_EXT_debug_report"
	swapchainExtension   = "VK_KHR_swapchain"
)

// instanceExtensions lists the instance extensions available on the platform.
func instanceExtensions() ([]string, error) {
	var count uint32
	if err := newError(vk.EnumerateInstanceExtensionProperties("", &count, nil)); err != nil {
		return nil, err
	}
	list := make([]vk.ExtensionProperties, count)
	if err := newError(vk.EnumerateInstanceExtensionProperties("", &count, list)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// deviceExtensions lists the extensions gpu provides.
func deviceExtensions(gpu vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := newError(vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil)); err != nil {
		return nil, err
	}
	list := make([]vk.ExtensionProperties, count)
	if err := newError(vk.EnumerateDeviceExtensionProperties(gpu, "", &count, list)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// validationLayers lists the layers available on the platform.
func validationLayers() ([]string, error) {
	var count uint32
	if err := newError(vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, err
	}
	list := make([]vk.LayerProperties, count)
	if err := newError(vk.EnumerateInstanceLayerProperties(&count, list)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, layer := range list {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

// missing returns the entries of wanted that actual lacks.
func missing(wanted, actual []string) []string {
	have := make(map[string]bool, len(actual))
	for _, a := range actual {
		have[strings.TrimRight(a, "\x00")] = true
	}
	var out []string
	for _, w := range wanted {
		if !have[strings.TrimRight(w, "\x00")] {
			out = append(out, w)
		}
	}
	return out
}

// contains reports whether name is listed in names.
func contains(names []string, name string) bool {
	return len(missing([]string{name}, names)) == 0
}

// safeString terminates s for the C side.
func safeString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}
