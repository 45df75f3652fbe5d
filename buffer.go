package vkframe

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Buffer are used to map hunks of data that are then bound to resources used by the pipeline
// and command buffers to render data.
type Buffer struct {
	Device   *Device
	VKBuffer vk.Buffer
	Size     uint64
	Usage    vk.BufferUsageFlags
}

// CreateBuffer creates a buffer with its own memory allocation bound to it.
// Staging buffers ask for HostVisibleCoherent, steady state resources for DeviceLocal.
func (d *Device) CreateBuffer(size uint64, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (*Buffer, *DeviceMemory, error) {
	buffer, err := d.createBuffer(size, usage)
	if err != nil {
		return nil, nil, err
	}

	memory, err := d.Allocate(buffer.VKMemoryRequirements(), properties)
	if err != nil {
		buffer.Destroy()
		return nil, nil, errors.Wrap(err, "buffer memory")
	}

	err = buffer.Bind(memory, 0)
	if err != nil {
		memory.Destroy()
		buffer.Destroy()
		return nil, nil, errors.Wrap(err, "bind buffer memory")
	}

	return buffer, memory, nil
}

func (d *Device) createBuffer(size uint64, usage vk.BufferUsageFlags) (*Buffer, error) {
	if size == 0 {
		return nil, errors.New("create buffer: zero size")
	}

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var buffer vk.Buffer
	err := vk.Error(vk.CreateBuffer(d.VKDevice, &bufferCreateInfo, nil, &buffer))
	if err != nil {
		return nil, errors.Wrap(err, "create buffer")
	}

	var ret Buffer
	ret.VKBuffer = buffer
	ret.Device = d
	ret.Size = size
	ret.Usage = usage

	return &ret, nil
}

func (b *Buffer) VKMemoryRequirements() vk.MemoryRequirements {
	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(b.Device.VKDevice, b.VKBuffer, &memoryRequirements)
	memoryRequirements.Deref()
	return memoryRequirements
}

// DescriptorInfo describes size bytes of the buffer starting at offset
func (b *Buffer) DescriptorInfo(offset, size uint64) vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: b.VKBuffer,
		Offset: vk.DeviceSize(offset),
		Range:  vk.DeviceSize(size),
	}
}

func (b *Buffer) Bind(memory *DeviceMemory, offset uint64) error {
	return vk.Error(vk.BindBufferMemory(b.Device.VKDevice, b.VKBuffer, memory.VKDeviceMemory, vk.DeviceSize(offset)))
}

func (b *Buffer) String() string {
	return fmt.Sprintf("{ Size: %d Usage: %#x }", b.Size, uint32(b.Usage))
}

func (b *Buffer) Destroy() {
	vk.DestroyBuffer(b.Device.VKDevice, b.VKBuffer, nil)
}
