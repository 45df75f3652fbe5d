package vkframe

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Memory property combinations used throughout the package
const (
	HostVisibleCoherent = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	DeviceLocal         = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
)

// DeviceMemory maps to Vulkan DeviceMemory and can either be memory on the host or on the device
type DeviceMemory struct {
	Device         *Device
	VKDeviceMemory vk.DeviceMemory
	Size           uint64
	TypeIndex      uint32
	Properties     vk.MemoryPropertyFlags
	Ptr            unsafe.Pointer
}

// SelectMemoryType returns the index of the first memory type permitted by
// typeBits that carries every flag in required.
func SelectMemoryType(types []vk.MemoryType, typeBits uint32, required vk.MemoryPropertyFlags) (uint32, error) {
	for i, mt := range types {
		if i >= 32 {
			break
		}
		if typeBits&(1<<uint(i)) != 0 && mt.PropertyFlags&required == required {
			return uint32(i), nil
		}
	}
	return 0, errors.Wrapf(ErrNoCompatibleMemoryType, "type bits %#x, properties %#x", typeBits, uint32(required))
}

// Allocate allocates memory satisfying the given requirements and properties
func (d *Device) Allocate(requirements vk.MemoryRequirements, properties vk.MemoryPropertyFlags) (*DeviceMemory, error) {
	typeIndex, err := d.PhysicalDevice.FindMemoryType(requirements.MemoryTypeBits, properties)
	if err != nil {
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: typeIndex,
	}

	var deviceMemory vk.DeviceMemory
	err = vk.Error(vk.AllocateMemory(d.VKDevice, &allocateInfo, nil, &deviceMemory))
	if err != nil {
		return nil, errors.Wrapf(err, "allocate %d bytes", uint64(requirements.Size))
	}

	var ret DeviceMemory
	ret.Size = uint64(requirements.Size)
	ret.Device = d
	ret.VKDeviceMemory = deviceMemory
	ret.TypeIndex = typeIndex
	ret.Properties = properties

	return &ret, nil
}

// IsMapped returns true if the device memory is currently mapped
func (d *DeviceMemory) IsMapped() bool {
	return d.Ptr != nil
}

// Destroy destorys this memory
func (d *DeviceMemory) Destroy() {
	if d.IsMapped() {
		d.Unmap()
	}
	vk.FreeMemory(d.Device.VKDevice, d.VKDeviceMemory, nil)
}

// Map will map the entirety of this memory, mapping mapped memory returns the existing pointer
func (d *DeviceMemory) Map() (unsafe.Pointer, error) {
	if d.Ptr != nil {
		return d.Ptr, nil
	}
	var res unsafe.Pointer
	err := vk.Error(vk.MapMemory(d.Device.VKDevice, d.VKDeviceMemory, 0, vk.DeviceSize(d.Size), 0, &res))
	if err != nil {
		return nil, err
	}
	d.Ptr = res
	return res, nil
}

// Bytes returns the mapped memory as a byte slice, nil when unmapped
func (d *DeviceMemory) Bytes() []byte {
	return ToBytes(d.Ptr, int(d.Size))
}

// MapCopyUnmap will map this memory, copy the specified data to it and unmap
func (d *DeviceMemory) MapCopyUnmap(data []byte) error {
	if uint64(len(data)) > d.Size {
		return errors.Errorf("copy of %d bytes exceeds allocation of %d", len(data), d.Size)
	}
	_, err := d.Map()
	if err != nil {
		return err
	}
	copy(d.Bytes(), data)
	d.Unmap()
	return nil
}

// Unmap this memory
func (d *DeviceMemory) Unmap() {
	d.Ptr = nil
	vk.UnmapMemory(d.Device.VKDevice, d.VKDeviceMemory)
}
