package vkframe

import (
	"log"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ChooseSurfaceFormat returns the preferred format and color space pair when
// the surface lists it, and the first listed format otherwise. A surface
// reporting a single undefined format accepts any format.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat, format vk.Format, colorSpace vk.ColorSpace) (vk.SurfaceFormat, error) {
	if len(formats) == 0 {
		return vk.SurfaceFormat{}, errors.Wrap(ErrSwapchainCreationFailed, "surface lists no formats")
	}
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return vk.SurfaceFormat{Format: format, ColorSpace: colorSpace}, nil
	}
	for _, f := range formats {
		if f.Format == format && f.ColorSpace == colorSpace {
			return f, nil
		}
	}
	return formats[0], nil
}

// ChoosePresentMode returns preferred when listed. FIFO is always available
// and is used otherwise.
func ChoosePresentMode(modes []vk.PresentMode, preferred vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == preferred {
			return m
		}
	}
	return vk.PresentModeFifo
}

// ChooseExtent returns the surface's current extent, or when the surface
// leaves it to the swapchain, the window size clamped to the allowed range
func ChooseExtent(caps vk.SurfaceCapabilities, window vk.Extent2D) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clampUint32(window.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clampUint32(window.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum, MaxImageCount of
// zero means there is no maximum
func ChooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

var compositeAlphaPreference = []vk.CompositeAlphaFlagBits{
	vk.CompositeAlphaOpaqueBit,
	vk.CompositeAlphaPreMultipliedBit,
	vk.CompositeAlphaPostMultipliedBit,
	vk.CompositeAlphaInheritBit,
}

func chooseCompositeAlpha(supported vk.CompositeAlphaFlags) vk.CompositeAlphaFlagBits {
	for _, a := range compositeAlphaPreference {
		if supported&vk.CompositeAlphaFlags(a) != 0 {
			return a
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

// SwapchainPlan holds every decision needed to create a swapchain
type SwapchainPlan struct {
	Format         vk.SurfaceFormat
	PresentMode    vk.PresentMode
	Extent         vk.Extent2D
	ImageCount     uint32
	Transform      vk.SurfaceTransformFlagBits
	CompositeAlpha vk.CompositeAlphaFlagBits
}

// PlanSwapchain decides how to build a swapchain for the given surface
// support snapshot and window size
func PlanSwapchain(support *SurfaceSupport, cfg *Config, window vk.Extent2D) (SwapchainPlan, error) {
	format, err := ChooseSurfaceFormat(support.Formats, cfg.PreferredSurfaceFormat, cfg.PreferredColorSpace)
	if err != nil {
		return SwapchainPlan{}, err
	}
	caps := support.Capabilities
	return SwapchainPlan{
		Format:         format,
		PresentMode:    ChoosePresentMode(support.PresentModes, cfg.PreferredPresentMode),
		Extent:         ChooseExtent(caps, window),
		ImageCount:     ChooseImageCount(caps),
		Transform:      caps.CurrentTransform,
		CompositeAlpha: chooseCompositeAlpha(caps.SupportedCompositeAlpha),
	}, nil
}

// Swapchain owns the presentable images and one view for each of them
type Swapchain struct {
	Device      *Device
	VKSwapchain vk.Swapchain
	Format      vk.Format
	ColorSpace  vk.ColorSpace
	Extent      vk.Extent2D
	PresentMode vk.PresentMode
	Images      []*Image
	Views       []*ImageView
}

// CreateSwapchain builds a swapchain following plan. When old is given it is
// handed to the driver for reuse but stays alive, the caller destroys it once
// nothing refers to it anymore.
func (d *Device) CreateSwapchain(surface vk.Surface, plan SwapchainPlan, old *Swapchain) (*Swapchain, error) {
	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    plan.ImageCount,
		ImageFormat:      plan.Format.Format,
		ImageColorSpace:  plan.Format.ColorSpace,
		ImageExtent:      plan.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     plan.Transform,
		CompositeAlpha:   plan.CompositeAlpha,
		PresentMode:      plan.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	if old != nil {
		createInfo.OldSwapchain = old.VKSwapchain
	}

	if d.QueueFamilies.Graphics != d.QueueFamilies.Present {
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{uint32(d.QueueFamilies.Graphics), uint32(d.QueueFamilies.Present)}
	} else {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var swapchain vk.Swapchain
	err := vkResult(vk.CreateSwapchain(d.VKDevice, &createInfo, nil, &swapchain), ErrSwapchainCreationFailed, "create swapchain")
	if err != nil {
		return nil, err
	}

	ret := &Swapchain{
		Device:      d,
		VKSwapchain: swapchain,
		Format:      plan.Format.Format,
		ColorSpace:  plan.Format.ColorSpace,
		Extent:      plan.Extent,
		PresentMode: plan.PresentMode,
	}

	err = ret.fetchImages()
	if err != nil {
		ret.Destroy()
		return nil, err
	}

	log.Printf("swapchain %dx%d with %d images, format %d, present mode %d",
		plan.Extent.Width, plan.Extent.Height, len(ret.Images), plan.Format.Format, plan.PresentMode)

	return ret, nil
}

func (s *Swapchain) fetchImages() error {
	var imageCount uint32
	err := vkResult(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, nil), ErrSwapchainCreationFailed, "get swapchain images")
	if err != nil {
		return err
	}
	images := make([]vk.Image, imageCount)
	err = vkResult(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, images), ErrSwapchainCreationFailed, "get swapchain images")
	if err != nil {
		return err
	}

	s.Images = make([]*Image, 0, imageCount)
	s.Views = make([]*ImageView, 0, imageCount)
	for _, img := range images[:imageCount] {
		image := &Image{
			Device:    s.Device,
			VKImage:   img,
			VKFormat:  s.Format,
			Extent:    s.Extent,
			MipLevels: 1,
			Usage:     vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
			Layout:    vk.ImageLayoutUndefined,
		}
		view, err := image.CreateImageView()
		if err != nil {
			return errors.Wrap(ErrSwapchainCreationFailed, err.Error())
		}
		s.Images = append(s.Images, image)
		s.Views = append(s.Views, view)
	}
	return nil
}

// ImageCount is the number of presentable images
func (s *Swapchain) ImageCount() int {
	return len(s.Images)
}

// Destroy destroys the image views and the swapchain. The images belong to
// the swapchain and are released with it.
func (s *Swapchain) Destroy() {
	for _, v := range s.Views {
		v.Destroy()
	}
	s.Views = nil
	s.Images = nil
	vk.DestroySwapchain(s.Device.VKDevice, s.VKSwapchain, nil)
}
