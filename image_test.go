package vkframe

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestHasStencilComponent(t *testing.T) {
	for _, f := range []vk.Format{vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint} {
		if !HasStencilComponent(f) {
			t.Errorf("format %d has a stencil aspect", f)
		}
	}
	for _, f := range []vk.Format{vk.FormatD32Sfloat, vk.FormatR8g8b8a8Srgb} {
		if HasStencilComponent(f) {
			t.Errorf("format %d has no stencil aspect", f)
		}
	}
}

func TestMipExtent(t *testing.T) {
	img := &Image{Extent: vk.Extent2D{Width: 300, Height: 20}, MipLevels: 9}
	if e := mipExtent(img.Extent, 3); e.Width != 37 || e.Height != 2 {
		t.Errorf("level 3 is %dx%d", e.Width, e.Height)
	}
	if e := mipExtent(img.Extent, 8); e.Width != 1 || e.Height != 1 {
		t.Errorf("level 8 is %dx%d", e.Width, e.Height)
	}
	if s := img.ByteSize(0); s != 300*20*4 {
		t.Errorf("base level of %d bytes", s)
	}
	if s := img.ByteSize(5); s != 9*1*4 {
		t.Errorf("level 5 of %d bytes", s)
	}
}
