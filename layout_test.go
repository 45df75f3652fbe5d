package vkframe

import (
	"testing"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func TestLookupTransitionListed(t *testing.T) {
	transitions := SupportedTransitions()
	if len(transitions) != 7 {
		t.Fatalf("%d transitions listed, expected 7", len(transitions))
	}
	for _, tr := range transitions {
		b, err := LookupTransition(tr.Old, tr.New)
		if err != nil {
			t.Errorf("%s -> %s: %v", layoutName(tr.Old), layoutName(tr.New), err)
		}
		if b.DstAccess == 0 {
			t.Errorf("%s -> %s has no destination access", layoutName(tr.Old), layoutName(tr.New))
		}
	}
}

func TestLookupTransitionUnlisted(t *testing.T) {
	unlisted := []LayoutTransition{
		{vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutTransferDstOptimal},
		{vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutUndefined},
		{vk.ImageLayoutUndefined, vk.ImageLayoutPresentSrc},
	}
	for _, tr := range unlisted {
		_, err := LookupTransition(tr.Old, tr.New)
		if !errors.Is(err, ErrUnsupportedLayoutTransition) {
			t.Errorf("%s -> %s: expected unsupported transition, got %v", layoutName(tr.Old), layoutName(tr.New), err)
		}
	}
}

func TestImageBarrier(t *testing.T) {
	img := &Image{VKFormat: vk.FormatD32SfloatS8Uint, Layout: vk.ImageLayoutUndefined}
	barrier, b, err := imageBarrier(img, img.Layout, vk.ImageLayoutDepthStencilAttachmentOptimal)
	if err != nil {
		t.Fatal(err)
	}
	if barrier.SubresourceRange.LevelCount != 1 {
		t.Errorf("level count %d for an image without mip levels", barrier.SubresourceRange.LevelCount)
	}
	want := vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit)
	if barrier.SubresourceRange.AspectMask != want {
		t.Errorf("aspect %#x, expected depth and stencil", barrier.SubresourceRange.AspectMask)
	}
	if b.DstStage != vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit) {
		t.Errorf("destination stage %#x", b.DstStage)
	}

	img = &Image{VKFormat: TextureFormat, MipLevels: 5, Layout: vk.ImageLayoutTransferDstOptimal}
	barrier, _, err = imageBarrier(img, img.Layout, vk.ImageLayoutShaderReadOnlyOptimal)
	if err != nil {
		t.Fatal(err)
	}
	if barrier.SubresourceRange.LevelCount != 5 {
		t.Errorf("level count %d, expected every mip level", barrier.SubresourceRange.LevelCount)
	}

	if _, _, err := imageBarrier(img, img.Layout, vk.ImageLayoutColorAttachmentOptimal); err == nil {
		t.Error("barrier built for an unlisted transition")
	}
}

func TestTransitionLayoutPendingUntilCommit(t *testing.T) {
	img := &Image{VKFormat: TextureFormat, MipLevels: 3, Layout: vk.ImageLayoutUndefined}
	cmd := &CommandBuffer{}

	barrier, _, err := cmd.stageTransition(img, vk.ImageLayoutTransferDstOptimal)
	if err != nil {
		t.Fatal(err)
	}
	if barrier.OldLayout != vk.ImageLayoutUndefined {
		t.Errorf("first barrier starts from %s", layoutName(barrier.OldLayout))
	}
	barrier, _, err = cmd.stageTransition(img, vk.ImageLayoutShaderReadOnlyOptimal)
	if err != nil {
		t.Fatal(err)
	}
	if barrier.OldLayout != vk.ImageLayoutTransferDstOptimal {
		t.Errorf("second barrier starts from %s, expected the layout recorded before it", layoutName(barrier.OldLayout))
	}
	if img.Layout != vk.ImageLayoutUndefined {
		t.Errorf("image claims %s before the buffer ran", layoutName(img.Layout))
	}

	cmd.commitLayouts()
	if img.Layout != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Errorf("committed layout %s", layoutName(img.Layout))
	}
}

func TestTransitionLayoutDiscarded(t *testing.T) {
	img := &Image{VKFormat: TextureFormat, Layout: vk.ImageLayoutShaderReadOnlyOptimal}
	cmd := &CommandBuffer{}

	if _, _, err := cmd.stageTransition(img, vk.ImageLayoutTransferSrcOptimal); err != nil {
		t.Fatal(err)
	}
	// the buffer failed to submit, the image never left its layout
	cmd.discardLayouts()
	cmd.commitLayouts()
	if img.Layout != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Errorf("image left in %s by a buffer that never ran", layoutName(img.Layout))
	}

	barrier, _, err := (&CommandBuffer{}).stageTransition(img, vk.ImageLayoutTransferSrcOptimal)
	if err != nil {
		t.Fatal(err)
	}
	if barrier.OldLayout != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Errorf("next barrier starts from %s", layoutName(barrier.OldLayout))
	}

	cmd = &CommandBuffer{}
	if _, _, err := cmd.stageTransition(img, vk.ImageLayoutColorAttachmentOptimal); err == nil {
		t.Error("unlisted transition staged")
	}
	if cmd.layoutOf(img) != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Error("failed transition left a pending layout")
	}
}
