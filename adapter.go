package vkframe

import (
	"fmt"
	"strings"

	vk "github.com/vulkan-go/vulkan"
)

// QueueFamilyReport is what selection needs to know about a queue family
type QueueFamilyReport struct {
	Index   int
	Flags   vk.QueueFlags
	Count   uint32
	Present bool
}

// AdapterReport describes an adapter in terms of the requirements checked
// during device selection.
type AdapterReport struct {
	Name              string
	Headless          bool
	Extensions        []string
	QueueFamilies     []QueueFamilyReport
	SurfaceFormats    int
	PresentModes      int
	SamplerAnisotropy bool
}

// Evaluate checks the adapter against cfg. When the returned reasons are
// empty the adapter is suitable and indices holds the queue families to use.
func (r *AdapterReport) Evaluate(cfg *Config) (indices QueueFamilyIndices, reasons []string) {
	required := cfg.DeviceExtensions
	if r.Headless {
		required = withoutString(required, SwapchainExtension)
	}
	for _, m := range missing(required, r.Extensions) {
		reasons = append(reasons, fmt.Sprintf("missing extension %s", m))
	}

	indices, ok := pickQueueFamilies(r.QueueFamilies, r.Headless)
	if !ok {
		if r.Headless {
			reasons = append(reasons, "no graphics queue family")
		} else {
			reasons = append(reasons, "no graphics and present capable queue families")
		}
	}

	if !r.Headless {
		if r.SurfaceFormats == 0 {
			reasons = append(reasons, "no surface formats")
		}
		if r.PresentModes == 0 {
			reasons = append(reasons, "no present modes")
		}
	}

	if cfg.RequireSamplerAnisotropy && !r.SamplerAnisotropy {
		reasons = append(reasons, "sampler anisotropy not supported")
	}

	return indices, reasons
}

// pickQueueFamilies prefers a single family doing both graphics and present,
// otherwise the first of each. Transfers share the graphics family so
// uploaded resources never change queue ownership.
func pickQueueFamilies(families []QueueFamilyReport, headless bool) (QueueFamilyIndices, bool) {
	graphics, present := -1, -1
	for _, f := range families {
		if f.Count == 0 || !hasQueueFlag(f.Flags, vk.QueueGraphicsBit) {
			continue
		}
		if headless || f.Present {
			return QueueFamilyIndices{Graphics: f.Index, Present: f.Index, Transfer: f.Index}, true
		}
		if graphics == -1 {
			graphics = f.Index
		}
	}
	if headless {
		return QueueFamilyIndices{}, false
	}
	for _, f := range families {
		if f.Count > 0 && f.Present {
			present = f.Index
			break
		}
	}
	if graphics == -1 || present == -1 {
		return QueueFamilyIndices{}, false
	}
	return QueueFamilyIndices{Graphics: graphics, Present: present, Transfer: graphics}, true
}

// rejection collects why each adapter was passed over
type rejection struct {
	name    string
	reasons []string
}

func formatRejections(rs []rejection) string {
	if len(rs) == 0 {
		return "no adapters found"
	}
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = fmt.Sprintf("%s: %s", r.name, strings.Join(r.reasons, ", "))
	}
	return strings.Join(parts, "; ")
}

func withoutString(list []string, s string) []string {
	ret := make([]string, 0, len(list))
	for _, l := range list {
		if l != s {
			ret = append(ret, l)
		}
	}
	return ret
}
