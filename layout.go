package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// LayoutTransition is a change of image layout
type LayoutTransition struct {
	Old vk.ImageLayout
	New vk.ImageLayout
}

// Barrier holds the access masks and pipeline stages of a layout transition
type Barrier struct {
	SrcAccess vk.AccessFlags
	DstAccess vk.AccessFlags
	SrcStage  vk.PipelineStageFlags
	DstStage  vk.PipelineStageFlags
}

// layoutTransitions lists every transition the package will record. A
// transition missing from here is refused rather than given a guessed barrier.
var layoutTransitions = map[LayoutTransition]Barrier{
	{vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal}: {
		SrcAccess: 0,
		DstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	},
	{vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal}: {
		SrcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		DstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
	},
	{vk.ImageLayoutUndefined, vk.ImageLayoutColorAttachmentOptimal}: {
		SrcAccess: 0,
		DstAccess: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
	},
	{vk.ImageLayoutUndefined, vk.ImageLayoutDepthStencilAttachmentOptimal}: {
		SrcAccess: 0,
		DstAccess: vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
	},
	{vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutTransferSrcOptimal}: {
		SrcAccess: vk.AccessFlags(vk.AccessShaderReadBit),
		DstAccess: vk.AccessFlags(vk.AccessTransferReadBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	},
	{vk.ImageLayoutTransferSrcOptimal, vk.ImageLayoutShaderReadOnlyOptimal}: {
		SrcAccess: vk.AccessFlags(vk.AccessTransferReadBit),
		DstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
	},
	{vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutTransferSrcOptimal}: {
		SrcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
		DstAccess: vk.AccessFlags(vk.AccessTransferReadBit),
		SrcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		DstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	},
}

// LookupTransition returns the barrier for moving an image between layouts
func LookupTransition(from, to vk.ImageLayout) (Barrier, error) {
	b, ok := layoutTransitions[LayoutTransition{Old: from, New: to}]
	if !ok {
		return Barrier{}, errors.Wrapf(ErrUnsupportedLayoutTransition, "%s -> %s", layoutName(from), layoutName(to))
	}
	return b, nil
}

// SupportedTransitions returns every transition in the table
func SupportedTransitions() []LayoutTransition {
	ret := make([]LayoutTransition, 0, len(layoutTransitions))
	for t := range layoutTransitions {
		ret = append(ret, t)
	}
	return ret
}

// imageBarrier builds the barrier moving every mip level of img from
// oldLayout to newLayout
func imageBarrier(img *Image, oldLayout, newLayout vk.ImageLayout) (vk.ImageMemoryBarrier, Barrier, error) {
	b, err := LookupTransition(oldLayout, newLayout)
	if err != nil {
		return vk.ImageMemoryBarrier{}, Barrier{}, err
	}

	levels := img.MipLevels
	if levels == 0 {
		levels = 1
	}

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.VKImage,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     img.Aspect(),
			BaseMipLevel:   0,
			LevelCount:     levels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		SrcAccessMask: b.SrcAccess,
		DstAccessMask: b.DstAccess,
	}
	return barrier, b, nil
}

// TransitionImageLayout records the barrier moving img from its current
// layout to newLayout. The new layout is only stored on img once the buffer
// has executed, see commitLayouts.
func (c *CommandBuffer) TransitionImageLayout(img *Image, newLayout vk.ImageLayout) error {
	barrier, b, err := c.stageTransition(img, newLayout)
	if err != nil {
		return err
	}

	vk.CmdPipelineBarrier(c.VK(), b.SrcStage, b.DstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	return nil
}

// stageTransition builds the barrier for img starting from the layout this
// buffer last moved it to, and remembers newLayout as pending
func (c *CommandBuffer) stageTransition(img *Image, newLayout vk.ImageLayout) (vk.ImageMemoryBarrier, Barrier, error) {
	barrier, b, err := imageBarrier(img, c.layoutOf(img), newLayout)
	if err != nil {
		return barrier, b, err
	}
	if c.layouts == nil {
		c.layouts = make(map[*Image]vk.ImageLayout)
	}
	c.layouts[img] = newLayout
	return barrier, b, nil
}

// layoutOf is the layout img will be in at this point of the buffer
func (c *CommandBuffer) layoutOf(img *Image) vk.ImageLayout {
	if l, ok := c.layouts[img]; ok {
		return l
	}
	return img.Layout
}

// commitLayouts stores the pending layouts on their images, call it once
// the device has finished executing the buffer
func (c *CommandBuffer) commitLayouts() {
	for img, l := range c.layouts {
		img.Layout = l
	}
	c.layouts = nil
}

// discardLayouts forgets the pending layouts of a buffer that never ran
func (c *CommandBuffer) discardLayouts() {
	c.layouts = nil
}

func layoutName(l vk.ImageLayout) string {
	switch l {
	case vk.ImageLayoutUndefined:
		return "UNDEFINED"
	case vk.ImageLayoutGeneral:
		return "GENERAL"
	case vk.ImageLayoutColorAttachmentOptimal:
		return "COLOR_ATTACHMENT_OPTIMAL"
	case vk.ImageLayoutDepthStencilAttachmentOptimal:
		return "DEPTH_STENCIL_ATTACHMENT_OPTIMAL"
	case vk.ImageLayoutShaderReadOnlyOptimal:
		return "SHADER_READ_ONLY_OPTIMAL"
	case vk.ImageLayoutTransferSrcOptimal:
		return "TRANSFER_SRC_OPTIMAL"
	case vk.ImageLayoutTransferDstOptimal:
		return "TRANSFER_DST_OPTIMAL"
	case vk.ImageLayoutPresentSrc:
		return "PRESENT_SRC"
	}
	return "UNKNOWN"
}
