package vkframe

import (
	vk "github.com/vulkan-go/vulkan"
)

// Semaphore orders work between queue submissions on the GPU
type Semaphore struct {
	Device      *Device
	VKSemaphore vk.Semaphore
}

//CreateSemaphore creates a binary semaphore
func (d *Device) CreateSemaphore() (*Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var sema vk.Semaphore

	err := vk.Error(vk.CreateSemaphore(d.VKDevice, &semaphoreCreateInfo, nil, &sema))
	if err != nil {
		return nil, err
	}

	return &Semaphore{Device: d, VKSemaphore: sema}, nil
}

func (s *Semaphore) Destroy() {
	vk.DestroySemaphore(s.Device.VKDevice, s.VKSemaphore, nil)
}
