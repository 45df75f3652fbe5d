package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// UniformRing is one persistently mapped host visible buffer split into a
// uniform block per frame slot. A frame writes only its own slot, which the
// GPU is done reading once the slot's fence has signaled.
type UniformRing struct {
	Buffer *Buffer
	Memory *DeviceMemory

	blockSize uint64
	slots     []*Allocation
}

// layoutUniformSlots places count blocks of size bytes, each starting at a
// multiple of alignment, and returns them with the total size needed
func layoutUniformSlots(size uint64, count int, alignment uint64) ([]*Allocation, uint64, error) {
	if size == 0 || count <= 0 {
		return nil, 0, errors.Errorf("uniform ring: %d slots of %d bytes", count, size)
	}
	stride := makeAlignUp(size, alignment)
	a := &LinearAllocator{Size: stride * uint64(count)}

	slots := make([]*Allocation, count)
	for i := range slots {
		slots[i] = a.Allocate(size, alignment)
		if slots[i] == nil {
			return nil, 0, errors.Errorf("uniform ring: no room for slot %d in %s", i, a)
		}
	}
	return slots, a.Size, nil
}

// CreateUniformRing creates a ring holding one block of size bytes for each
// of slots frame slots
func (r *ResourceManager) CreateUniformRing(size uint64, slots int) (*UniformRing, error) {
	alignment := uint64(r.Device.PhysicalDevice.Limits().MinUniformBufferOffsetAlignment)
	allocs, total, err := layoutUniformSlots(size, slots, alignment)
	if err != nil {
		return nil, err
	}

	buffer, memory, err := r.CreateBuffer(total, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), HostVisibleCoherent)
	if err != nil {
		return nil, errors.Wrap(err, "uniform ring buffer")
	}
	_, err = memory.Map()
	if err != nil {
		return nil, errors.Wrap(err, "map uniform ring")
	}

	return &UniformRing{
		Buffer:    buffer,
		Memory:    memory,
		blockSize: size,
		slots:     allocs,
	}, nil
}

// Slots is the number of blocks in the ring
func (u *UniformRing) Slots() int {
	return len(u.slots)
}

// Offset is the byte offset of a slot's block within the buffer
func (u *UniformRing) Offset(slot int) uint64 {
	return u.slots[slot].Offset
}

// Write copies data into a slot's block
func (u *UniformRing) Write(slot int, data []byte) error {
	if slot < 0 || slot >= len(u.slots) {
		return errors.Errorf("uniform slot %d of %d", slot, len(u.slots))
	}
	if uint64(len(data)) > u.blockSize {
		return errors.Errorf("uniform write of %d bytes into %d byte block", len(data), u.blockSize)
	}
	a := u.slots[slot]
	copy(u.Memory.Bytes()[a.Offset:a.End()], data)
	return nil
}

// DescriptorInfo describes a slot's block for a uniform buffer descriptor
func (u *UniformRing) DescriptorInfo(slot int) vk.DescriptorBufferInfo {
	return u.Buffer.DescriptorInfo(u.slots[slot].Offset, u.blockSize)
}
