package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorSetLayout describes the layout of a descriptor set
type DescriptorSetLayout struct {
	Device                        *Device
	VKDescriptorSetLayout         vk.DescriptorSetLayout
	VKDescriptorSetLayoutBindings []vk.DescriptorSetLayoutBinding
}

func (d *Device) NewDescriptorSetLayout() *DescriptorSetLayout {
	return &DescriptorSetLayout{Device: d}
}

// AddBinding adds a single descriptor binding visible to stages
func (d *DescriptorSetLayout) AddBinding(binding int, dtype vk.DescriptorType, stages vk.ShaderStageFlagBits) *DescriptorSetLayout {
	d.VKDescriptorSetLayoutBindings = append(d.VKDescriptorSetLayoutBindings, vk.DescriptorSetLayoutBinding{
		Binding:         uint32(binding),
		DescriptorType:  dtype,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(stages),
	})
	return d
}

// Create creates the vulkan object for the bindings added so far
func (d *DescriptorSetLayout) Create() error {
	info := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(d.VKDescriptorSetLayoutBindings)),
		PBindings:    d.VKDescriptorSetLayoutBindings,
	}

	var layout vk.DescriptorSetLayout
	err := vk.Error(vk.CreateDescriptorSetLayout(d.Device.VKDevice, &info, nil, &layout))
	if err != nil {
		return errors.Wrap(err, "create descriptor set layout")
	}
	d.VKDescriptorSetLayout = layout
	return nil
}

// Destroy destroys this descriptor set layout
func (d *DescriptorSetLayout) Destroy() {
	vk.DestroyDescriptorSetLayout(d.Device.VKDevice, d.VKDescriptorSetLayout, nil)
}

// DescriptorPool hands out descriptor sets
type DescriptorPool struct {
	Device           *Device
	VKDescriptorPool vk.DescriptorPool
}

// CreateDescriptorPool creates a pool for maxSets sets with room for count
// descriptors of each type in sizes
func (d *Device) CreateDescriptorPool(maxSets int, sizes map[vk.DescriptorType]int) (*DescriptorPool, error) {
	poolSizes := make([]vk.DescriptorPoolSize, 0, len(sizes))
	for dtype, count := range sizes {
		poolSizes = append(poolSizes, vk.DescriptorPoolSize{
			Type:            dtype,
			DescriptorCount: uint32(count),
		})
	}

	info := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(maxSets),
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}

	var pool vk.DescriptorPool
	err := vk.Error(vk.CreateDescriptorPool(d.VKDevice, &info, nil, &pool))
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor pool")
	}
	return &DescriptorPool{Device: d, VKDescriptorPool: pool}, nil
}

// Allocate allocates count descriptor sets sharing layout
func (d *DescriptorPool) Allocate(layout *DescriptorSetLayout, count int) ([]*DescriptorSet, error) {
	if count <= 0 {
		return nil, errors.Errorf("allocate %d descriptor sets", count)
	}
	layouts := make([]vk.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = layout.VKDescriptorSetLayout
	}

	info := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     d.VKDescriptorPool,
		DescriptorSetCount: uint32(count),
		PSetLayouts:        layouts,
	}

	sets := make([]vk.DescriptorSet, count)
	err := vk.Error(vk.AllocateDescriptorSets(d.Device.VKDevice, &info, &sets[0]))
	if err != nil {
		return nil, errors.Wrap(err, "allocate descriptor sets")
	}

	ret := make([]*DescriptorSet, count)
	for i := range sets {
		ret[i] = &DescriptorSet{Device: d.Device, VKDescriptorSet: sets[i]}
	}
	return ret, nil
}

func (d *DescriptorPool) Destroy() {
	vk.DestroyDescriptorPool(d.Device.VKDevice, d.VKDescriptorPool, nil)
}

// DescriptorSet is a binding of resources to a descriptor, per a specific DescriptorSetLayout
type DescriptorSet struct {
	Device          *Device
	VKDescriptorSet vk.DescriptorSet
	writes          []vk.WriteDescriptorSet
}

// AddUniformBuffer binds a range of a buffer as a uniform buffer
func (s *DescriptorSet) AddUniformBuffer(binding int, info vk.DescriptorBufferInfo) *DescriptorSet {
	s.writes = append(s.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      uint32(binding),
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo:     []vk.DescriptorBufferInfo{info},
	})
	return s
}

// AddTexture binds a texture as a combined image sampler
func (s *DescriptorSet) AddTexture(binding int, t *Texture) *DescriptorSet {
	s.writes = append(s.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      uint32(binding),
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo:      []vk.DescriptorImageInfo{t.DescriptorInfo()},
	})
	return s
}

// Write applies the pending writes to the descriptor set
func (s *DescriptorSet) Write() {
	if len(s.writes) == 0 {
		return
	}
	for i := range s.writes {
		s.writes[i].DstSet = s.VKDescriptorSet
	}
	vk.UpdateDescriptorSets(s.Device.VKDevice, uint32(len(s.writes)), s.writes, 0, nil)
	s.writes = nil
}
