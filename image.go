package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Image is a vulkan image and the layout it was last transitioned to.
// Swapchain images share this type but are owned by the swapchain.
type Image struct {
	Device    *Device
	VKImage   vk.Image
	VKFormat  vk.Format
	Extent    vk.Extent2D
	MipLevels uint32
	Usage     vk.ImageUsageFlags
	Layout    vk.ImageLayout
}

// ImageOptions describes a 2D image to create
type ImageOptions struct {
	Extent    vk.Extent2D
	Format    vk.Format
	Usage     vk.ImageUsageFlags
	Tiling    vk.ImageTiling
	MipLevels uint32
}

// CreateImage creates a 2D image with its own memory allocation bound to it
func (d *Device) CreateImage(opts ImageOptions, properties vk.MemoryPropertyFlags) (*Image, *DeviceMemory, error) {
	if opts.Extent.Width == 0 || opts.Extent.Height == 0 {
		return nil, nil, errors.Errorf("create image: empty extent %dx%d", opts.Extent.Width, opts.Extent.Height)
	}
	if opts.MipLevels == 0 {
		opts.MipLevels = 1
	}

	imageInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  opts.Extent.Width,
			Height: opts.Extent.Height,
			Depth:  1,
		},
		MipLevels:     opts.MipLevels,
		ArrayLayers:   1,
		Format:        opts.Format,
		Tiling:        opts.Tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         opts.Usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	var image vk.Image
	err := vk.Error(vk.CreateImage(d.VKDevice, &imageInfo, nil, &image))
	if err != nil {
		return nil, nil, errors.Wrap(err, "create image")
	}

	ret := &Image{
		Device:    d,
		VKImage:   image,
		VKFormat:  opts.Format,
		Extent:    opts.Extent,
		MipLevels: opts.MipLevels,
		Usage:     opts.Usage,
		Layout:    vk.ImageLayoutUndefined,
	}

	memory, err := d.Allocate(ret.VKMemoryRequirements(), properties)
	if err != nil {
		ret.Destroy()
		return nil, nil, errors.Wrap(err, "image memory")
	}

	err = vk.Error(vk.BindImageMemory(d.VKDevice, image, memory.VKDeviceMemory, 0))
	if err != nil {
		memory.Destroy()
		ret.Destroy()
		return nil, nil, errors.Wrap(err, "bind image memory")
	}

	return ret, memory, nil
}

func (i *Image) VKMemoryRequirements() vk.MemoryRequirements {
	var memRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(i.Device.VKDevice, i.VKImage, &memRequirements)
	memRequirements.Deref()
	return memRequirements
}

// Aspect returns the aspect flags matching the image format
func (i *Image) Aspect() vk.ImageAspectFlags {
	return aspectForFormat(i.VKFormat)
}

// ByteSize is the tightly packed size of a mip level for 4 byte per pixel formats
func (i *Image) ByteSize(level uint32) uint64 {
	e := mipExtent(i.Extent, level)
	return uint64(e.Width) * uint64(e.Height) * 4
}

func (i *Image) Destroy() {
	vk.DestroyImage(i.Device.VKDevice, i.VKImage, nil)
}

func aspectForFormat(format vk.Format) vk.ImageAspectFlags {
	switch format {
	case vk.FormatD32Sfloat, vk.FormatD16Unorm, vk.FormatX8D24UnormPack32:
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	case vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint, vk.FormatD16UnormS8Uint:
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit)
	}
	return vk.ImageAspectFlags(vk.ImageAspectColorBit)
}

// HasStencilComponent reports whether format carries a stencil aspect
func HasStencilComponent(format vk.Format) bool {
	return aspectForFormat(format)&vk.ImageAspectFlags(vk.ImageAspectStencilBit) != 0
}

func mipExtent(e vk.Extent2D, level uint32) vk.Extent2D {
	w, h := e.Width>>level, e.Height>>level
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	return vk.Extent2D{Width: w, Height: h}
}

type ImageView struct {
	Device      *Device
	VKImageView vk.ImageView
}

// CreateImageView creates a view over every mip level of the image
func (i *Image) CreateImageView() (*ImageView, error) {
	levels := i.MipLevels
	if levels == 0 {
		levels = 1
	}
	createInfo := &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    i.VKImage,
		ViewType: vk.ImageViewType2d,
		Format:   i.VKFormat,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: i.Aspect(),
			LevelCount: levels,
			LayerCount: 1,
		},
	}

	var view vk.ImageView

	err := vk.Error(vk.CreateImageView(i.Device.VKDevice, createInfo, nil, &view))
	if err != nil {
		return nil, errors.Wrap(err, "create image view")
	}
	var ret ImageView
	ret.Device = i.Device
	ret.VKImageView = view

	return &ret, nil
}

func (i *ImageView) Destroy() {
	vk.DestroyImageView(i.Device.VKDevice, i.VKImageView, nil)
}

type Sampler struct {
	Device    *Device
	VKSampler vk.Sampler
}

// CreateSampler creates a linear, repeating sampler covering mipLevels levels.
// Anisotropic filtering is used when the device enabled it.
func (d *Device) CreateSampler(mipLevels uint32, maxAnisotropy float32) (*Sampler, error) {
	info := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		CompareOp:               vk.CompareOpAlways,
		MinLod:                  0,
		MaxLod:                  float32(mipLevels),
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}

	if d.AnisotropyEnabled() && maxAnisotropy > 1 {
		limit := d.PhysicalDevice.Limits().MaxSamplerAnisotropy
		if maxAnisotropy > limit {
			maxAnisotropy = limit
		}
		info.AnisotropyEnable = vk.True
		info.MaxAnisotropy = maxAnisotropy
	}

	var sampler vk.Sampler
	err := vk.Error(vk.CreateSampler(d.VKDevice, &info, nil, &sampler))
	if err != nil {
		return nil, errors.Wrap(err, "create sampler")
	}
	return &Sampler{Device: d, VKSampler: sampler}, nil
}

func (s *Sampler) Destroy() {
	vk.DestroySampler(s.Device.VKDevice, s.VKSampler, nil)
}
