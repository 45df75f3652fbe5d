package vkframe

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type QueueFamilySlice []*QueueFamily

type QueueFamily struct {
	Index                   int
	PhysicalDevice          *PhysicalDevice
	VKQueueFamilyProperties vk.QueueFamilyProperties
}

func (q *QueueFamily) IsCompute() bool {
	return hasQueueFlag(q.VKQueueFamilyProperties.QueueFlags, vk.QueueComputeBit)
}

func (q *QueueFamily) IsGraphics() bool {
	return hasQueueFlag(q.VKQueueFamilyProperties.QueueFlags, vk.QueueGraphicsBit)
}

func (q *QueueFamily) IsTransfer() bool {
	return hasQueueFlag(q.VKQueueFamilyProperties.QueueFlags, vk.QueueTransferBit)
}

// SupportsPresent reports whether this family can present to surface
func (q *QueueFamily) SupportsPresent(surface vk.Surface) (bool, error) {
	var supportsPresent vk.Bool32
	err := vk.Error(vk.GetPhysicalDeviceSurfaceSupport(q.PhysicalDevice.VKPhysicalDevice, uint32(q.Index), surface, &supportsPresent))
	if err != nil {
		return false, err
	}
	return supportsPresent == vk.True, nil
}

func (q *QueueFamily) String() string {
	return fmt.Sprintf("{ Index: %d Compute: %v Graphics: %v Transfer: %v }", q.Index, q.IsCompute(), q.IsGraphics(), q.IsTransfer())
}

func hasQueueFlag(flags vk.QueueFlags, bit vk.QueueFlagBits) bool {
	return flags&vk.QueueFlags(bit) == vk.QueueFlags(bit)
}

// QueueFamilyIndices are the queue families chosen for each class of work,
// they may coincide.
type QueueFamilyIndices struct {
	Graphics int
	Present  int
	Transfer int
}

// Unique returns each distinct family index once, in graphics, present, transfer order
func (q QueueFamilyIndices) Unique() []int {
	ret := []int{q.Graphics}
	for _, i := range []int{q.Present, q.Transfer} {
		seen := false
		for _, r := range ret {
			if r == i {
				seen = true
			}
		}
		if !seen {
			ret = append(ret, i)
		}
	}
	return ret
}

func (q QueueFamilyIndices) String() string {
	return fmt.Sprintf("{ Graphics: %d Present: %d Transfer: %d }", q.Graphics, q.Present, q.Transfer)
}
