package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// PhysicalDevice is an adapter reported by the instance, the properties,
// features and memory layout are captured once when it is enumerated.
type PhysicalDevice struct {
	DeviceName                       string
	VKPhysicalDevice                 vk.PhysicalDevice
	VKPhysicalDeviceProperties       vk.PhysicalDeviceProperties
	VKPhysicalDeviceFeatures         vk.PhysicalDeviceFeatures
	VKPhysicalDeviceMemoryProperties vk.PhysicalDeviceMemoryProperties
}

func newPhysicalDevice(device vk.PhysicalDevice) *PhysicalDevice {
	p := &PhysicalDevice{VKPhysicalDevice: device}

	vk.GetPhysicalDeviceProperties(device, &p.VKPhysicalDeviceProperties)
	p.VKPhysicalDeviceProperties.Deref()
	p.VKPhysicalDeviceProperties.Limits.Deref()
	p.DeviceName = vk.ToString(p.VKPhysicalDeviceProperties.DeviceName[:])

	vk.GetPhysicalDeviceFeatures(device, &p.VKPhysicalDeviceFeatures)
	p.VKPhysicalDeviceFeatures.Deref()

	vk.GetPhysicalDeviceMemoryProperties(device, &p.VKPhysicalDeviceMemoryProperties)
	p.VKPhysicalDeviceMemoryProperties.Deref()
	for i := range p.VKPhysicalDeviceMemoryProperties.MemoryTypes {
		p.VKPhysicalDeviceMemoryProperties.MemoryTypes[i].Deref()
	}
	for i := range p.VKPhysicalDeviceMemoryProperties.MemoryHeaps {
		p.VKPhysicalDeviceMemoryProperties.MemoryHeaps[i].Deref()
	}

	return p
}

func (p *PhysicalDevice) String() string {
	return p.DeviceName
}

// Limits returns the device limits
func (p *PhysicalDevice) Limits() vk.PhysicalDeviceLimits {
	return p.VKPhysicalDeviceProperties.Limits
}

func (p *PhysicalDevice) SupportsSamplerAnisotropy() bool {
	return p.VKPhysicalDeviceFeatures.SamplerAnisotropy == vk.True
}

func (p *PhysicalDevice) QueueFamilies() (QueueFamilySlice, error) {
	var queueFamilyCount uint32

	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &queueFamilyCount, nil)

	if queueFamilyCount == 0 {
		return nil, nil
	}

	queues := make([]vk.QueueFamilyProperties, queueFamilyCount)

	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &queueFamilyCount, queues)

	ret := make([]*QueueFamily, queueFamilyCount)
	for i, queue := range queues {
		ret[i] = &QueueFamily{Index: i, PhysicalDevice: p, VKQueueFamilyProperties: queue}
		ret[i].VKQueueFamilyProperties.Deref()
	}

	return ret, nil
}

// SupportedExtensions returns the names of the device extensions
func (p *PhysicalDevice) SupportedExtensions() ([]string, error) {
	var count uint32
	err := vk.Error(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, nil))
	if err != nil {
		return nil, err
	}

	ext := make([]vk.ExtensionProperties, count)

	err = vk.Error(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, ext))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(ext))
	for _, e := range ext {
		e.Deref()
		names = append(names, vk.ToString(e.ExtensionName[:]))
	}
	return names, nil
}

// MemoryTypes returns the memory types advertised by the device
func (p *PhysicalDevice) MemoryTypes() []vk.MemoryType {
	mp := &p.VKPhysicalDeviceMemoryProperties
	return mp.MemoryTypes[:mp.MemoryTypeCount]
}

// MemoryHeaps returns the memory heaps advertised by the device
func (p *PhysicalDevice) MemoryHeaps() []vk.MemoryHeap {
	mp := &p.VKPhysicalDeviceMemoryProperties
	return mp.MemoryHeaps[:mp.MemoryHeapCount]
}

// FindMemoryType returns the index of a memory type allowed by memoryTypeBits
// which has every one of the requested properties
func (p *PhysicalDevice) FindMemoryType(memoryTypeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	return SelectMemoryType(p.MemoryTypes(), memoryTypeBits, properties)
}

// FindSupportedFormat returns the first candidate whose tiling supports features
func (p *PhysicalDevice) FindSupportedFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error) {
	for _, format := range candidates {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(p.VKPhysicalDevice, format, &props)
		props.Deref()

		switch tiling {
		case vk.ImageTilingLinear:
			if props.LinearTilingFeatures&features == features {
				return format, nil
			}
		case vk.ImageTilingOptimal:
			if props.OptimalTilingFeatures&features == features {
				return format, nil
			}
		}
	}
	return vk.FormatUndefined, errors.Errorf("none of the formats %v support features %x", candidates, features)
}

// DepthFormatCandidates are tried in order by FindDepthFormat
var DepthFormatCandidates = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}

// FindDepthFormat picks a depth attachment format supported by the device
func (p *PhysicalDevice) FindDepthFormat() (vk.Format, error) {
	return p.FindSupportedFormat(DepthFormatCandidates, vk.ImageTilingOptimal,
		vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit))
}

// Report gathers everything needed to decide whether this adapter can be
// used. The surface may be vk.NullSurface for headless use.
func (p *PhysicalDevice) Report(surface vk.Surface) (*AdapterReport, error) {
	r := &AdapterReport{
		Name:              p.DeviceName,
		Headless:          surface == vk.NullSurface,
		SamplerAnisotropy: p.SupportsSamplerAnisotropy(),
	}

	var err error
	r.Extensions, err = p.SupportedExtensions()
	if err != nil {
		return nil, errors.Wrapf(err, "%s: enumerate extensions", p.DeviceName)
	}

	families, err := p.QueueFamilies()
	if err != nil {
		return nil, errors.Wrapf(err, "%s: enumerate queue families", p.DeviceName)
	}
	for _, f := range families {
		qr := QueueFamilyReport{
			Index: f.Index,
			Flags: f.VKQueueFamilyProperties.QueueFlags,
			Count: f.VKQueueFamilyProperties.QueueCount,
		}
		if !r.Headless {
			qr.Present, err = f.SupportsPresent(surface)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: query present support", p.DeviceName)
			}
		}
		r.QueueFamilies = append(r.QueueFamilies, qr)
	}

	if !r.Headless && containsString(r.Extensions, SwapchainExtension) {
		support, err := p.QuerySurfaceSupport(surface)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: query surface support", p.DeviceName)
		}
		r.SurfaceFormats = len(support.Formats)
		r.PresentModes = len(support.PresentModes)
	}

	return r, nil
}
