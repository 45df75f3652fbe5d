package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// SurfaceSupport is a snapshot of what an adapter can present to a surface.
// It goes stale as soon as the window changes and is queried again for every
// swapchain build.
type SurfaceSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// QuerySurfaceSupport queries the capabilities, formats and present modes
// this adapter offers for surface
func (p *PhysicalDevice) QuerySurfaceSupport(surface vk.Surface) (*SurfaceSupport, error) {
	var ret SurfaceSupport

	err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(p.VKPhysicalDevice, surface, &ret.Capabilities))
	if err != nil {
		return nil, errors.Wrap(err, "surface capabilities")
	}
	ret.Capabilities.Deref()
	ret.Capabilities.CurrentExtent.Deref()
	ret.Capabilities.MinImageExtent.Deref()
	ret.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	err = vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &formatCount, nil))
	if err != nil {
		return nil, errors.Wrap(err, "surface formats")
	}
	ret.Formats = make([]vk.SurfaceFormat, formatCount)
	if formatCount > 0 {
		err = vk.Error(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &formatCount, ret.Formats))
		if err != nil {
			return nil, errors.Wrap(err, "surface formats")
		}
		ret.Formats = ret.Formats[:formatCount]
		for i := range ret.Formats {
			ret.Formats[i].Deref()
		}
	}

	var modeCount uint32
	err = vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &modeCount, nil))
	if err != nil {
		return nil, errors.Wrap(err, "surface present modes")
	}
	ret.PresentModes = make([]vk.PresentMode, modeCount)
	if modeCount > 0 {
		err = vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &modeCount, ret.PresentModes))
		if err != nil {
			return nil, errors.Wrap(err, "surface present modes")
		}
		ret.PresentModes = ret.PresentModes[:modeCount]
	}

	return &ret, nil
}
