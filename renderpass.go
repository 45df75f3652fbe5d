package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// RenderPass is a single subpass render pass drawing to a presentable color
// attachment and optionally a depth attachment
type RenderPass struct {
	Device       *Device
	VKRenderPass vk.RenderPass
	ColorFormat  vk.Format
	// DepthFormat is vk.FormatUndefined when the pass has no depth attachment
	DepthFormat vk.Format
}

// HasDepth reports whether the pass has a depth attachment
func (r *RenderPass) HasDepth() bool {
	return r.DepthFormat != vk.FormatUndefined
}

// VKRenderPassCreateInfo describes the render pass: the color attachment is
// cleared and left ready for presentation, the depth attachment is cleared
// and discarded
func VKRenderPassCreateInfo(colorFormat, depthFormat vk.Format) vk.RenderPassCreateInfo {
	attachments := []vk.AttachmentDescription{{
		Format:         colorFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachments := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments:    colorAttachments,
	}

	srcStages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	srcAccess := vk.AccessFlags(0)
	dstStages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	dstAccess := vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit)

	if depthFormat != vk.FormatUndefined {
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         depthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: 1,
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
		// one depth image serves every frame in flight, the clear must wait
		// for the depth writes of the previous frame
		srcStages |= vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
		srcAccess |= vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
		dstStages |= vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit)
		dstAccess |= vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit)
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  srcStages,
		SrcAccessMask: srcAccess,
		DstStageMask:  dstStages,
		DstAccessMask: dstAccess,
	}

	return vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
}

// CreateRenderPass creates a render pass for colorFormat, pass
// vk.FormatUndefined as depthFormat to leave out the depth attachment
func (d *Device) CreateRenderPass(colorFormat, depthFormat vk.Format) (*RenderPass, error) {
	info := VKRenderPassCreateInfo(colorFormat, depthFormat)

	var renderPass vk.RenderPass
	err := vk.Error(vk.CreateRenderPass(d.VKDevice, &info, nil, &renderPass))
	if err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}
	return &RenderPass{
		Device:       d,
		VKRenderPass: renderPass,
		ColorFormat:  colorFormat,
		DepthFormat:  depthFormat,
	}, nil
}

func (r *RenderPass) Destroy() {
	vk.DestroyRenderPass(r.Device.VKDevice, r.VKRenderPass, nil)
}

type Framebuffer struct {
	Device        *Device
	VKFramebuffer vk.Framebuffer
	Extent        vk.Extent2D
}

// CreateFramebuffer creates a framebuffer for the render pass, attachments
// are given in the order the render pass declares them
func (r *RenderPass) CreateFramebuffer(extent vk.Extent2D, attachments ...*ImageView) (*Framebuffer, error) {
	views := make([]vk.ImageView, len(attachments))
	for i, a := range attachments {
		views[i] = a.VKImageView
	}

	info := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      r.VKRenderPass,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	err := vk.Error(vk.CreateFramebuffer(r.Device.VKDevice, &info, nil, &framebuffer))
	if err != nil {
		return nil, errors.Wrap(err, "create framebuffer")
	}
	return &Framebuffer{Device: r.Device, VKFramebuffer: framebuffer, Extent: extent}, nil
}

func (f *Framebuffer) Destroy() {
	vk.DestroyFramebuffer(f.Device.VKDevice, f.VKFramebuffer, nil)
}
