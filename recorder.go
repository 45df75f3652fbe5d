package vkframe

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// RecordMode selects how command buffers are reused between frames
type RecordMode int

const (
	// RecordPerImage keeps one command buffer per swapchain image, recorded
	// once for every swapchain build. Suitable for static scenes.
	RecordPerImage RecordMode = iota
	// RecordPerFrame keeps one command buffer per frame slot and records it
	// again every frame.
	RecordPerFrame
)

func (m RecordMode) String() string {
	switch m {
	case RecordPerImage:
		return "per-image"
	case RecordPerFrame:
		return "per-frame"
	}
	return fmt.Sprintf("RecordMode(%d)", int(m))
}

// CommandEncoder is the part of a command buffer the recorder drives.
// *CommandBuffer implements it.
type CommandEncoder interface {
	VK() vk.CommandBuffer
	Reset() error
	Begin() error
	BeginRenderPass(renderPass vk.RenderPass, framebuffer vk.Framebuffer, extent vk.Extent2D, clearValues []vk.ClearValue)
	EndRenderPass()
	End() error
}

// RenderTarget is what a DrawFunc renders into. FrameIndex is -1 when
// recording per image, the buffer is then reused by every frame slot.
type RenderTarget struct {
	RenderPass  vk.RenderPass
	Framebuffer vk.Framebuffer
	Extent      vk.Extent2D
	FrameIndex  int
	ImageIndex  uint32
}

// DrawFunc records the draw commands of a frame, it is called with the
// render pass already begun
type DrawFunc func(cmd CommandEncoder, target RenderTarget) error

// CommandRecorder owns the choice of which command buffer a frame submits
// and when that buffer is recorded
type CommandRecorder struct {
	mode        RecordMode
	draw        DrawFunc
	clearValues []vk.ClearValue

	renderPass   vk.RenderPass
	framebuffers []vk.Framebuffer
	extent       vk.Extent2D

	buffers  []CommandEncoder
	recorded []bool
}

// NewCommandRecorder creates a recorder calling draw for every recording
func NewCommandRecorder(mode RecordMode, draw DrawFunc, clearValues []vk.ClearValue) *CommandRecorder {
	return &CommandRecorder{
		mode:        mode,
		draw:        draw,
		clearValues: clearValues,
	}
}

func (r *CommandRecorder) Mode() RecordMode {
	return r.mode
}

// BufferCount is the number of command buffers the recorder needs for a
// swapchain with the given number of images and frame slots
func (r *CommandRecorder) BufferCount(images, slots int) int {
	if r.mode == RecordPerImage {
		return images
	}
	return slots
}

// Bind attaches the recorder to the objects of a swapchain build. Every
// buffer is considered unrecorded afterwards.
func (r *CommandRecorder) Bind(renderPass vk.RenderPass, framebuffers []vk.Framebuffer, extent vk.Extent2D, buffers []CommandEncoder) error {
	if len(buffers) == 0 {
		return errors.New("bind recorder: no command buffers")
	}
	if r.mode == RecordPerImage && len(buffers) != len(framebuffers) {
		return errors.Errorf("bind recorder: %d command buffers for %d images", len(buffers), len(framebuffers))
	}
	r.renderPass = renderPass
	r.framebuffers = framebuffers
	r.extent = extent
	r.buffers = buffers
	r.recorded = make([]bool, len(buffers))
	return nil
}

// Invalidate forces every buffer to be recorded again before its next use
func (r *CommandRecorder) Invalidate() {
	for i := range r.recorded {
		r.recorded[i] = false
	}
}

// SetClearValues replaces the clear values used by the render pass, every
// buffer is recorded again before its next use
func (r *CommandRecorder) SetClearValues(values []vk.ClearValue) {
	r.clearValues = values
	r.Invalidate()
}

// RecordAll records every per image buffer ahead of time. It does nothing
// when recording per frame.
func (r *CommandRecorder) RecordAll() error {
	if r.mode != RecordPerImage {
		return nil
	}
	for i := range r.buffers {
		_, err := r.RecordFrame(-1, uint32(i))
		if err != nil {
			return err
		}
	}
	return nil
}

// RecordFrame returns the command buffer to submit for the given frame slot
// and swapchain image, recording it first if needed. The caller must have
// waited for any earlier submission of that buffer.
func (r *CommandRecorder) RecordFrame(frameIndex int, imageIndex uint32) (CommandEncoder, error) {
	if int(imageIndex) >= len(r.framebuffers) {
		return nil, errors.Errorf("record: image %d of %d", imageIndex, len(r.framebuffers))
	}

	target := RenderTarget{
		RenderPass:  r.renderPass,
		Framebuffer: r.framebuffers[imageIndex],
		Extent:      r.extent,
		FrameIndex:  frameIndex,
		ImageIndex:  imageIndex,
	}

	var slot int
	switch r.mode {
	case RecordPerImage:
		slot = int(imageIndex)
		target.FrameIndex = -1
		if r.recorded[slot] {
			return r.buffers[slot], nil
		}
	case RecordPerFrame:
		if frameIndex < 0 || frameIndex >= len(r.buffers) {
			return nil, errors.Errorf("record: frame %d of %d", frameIndex, len(r.buffers))
		}
		slot = frameIndex
	default:
		return nil, errors.Errorf("record: unknown mode %s", r.mode)
	}

	cmd := r.buffers[slot]
	err := r.record(cmd, target)
	if err != nil {
		r.recorded[slot] = false
		return nil, err
	}
	r.recorded[slot] = true
	return cmd, nil
}

func (r *CommandRecorder) record(cmd CommandEncoder, target RenderTarget) error {
	err := cmd.Reset()
	if err != nil {
		return errors.Wrap(err, "reset command buffer")
	}
	err = cmd.Begin()
	if err != nil {
		return errors.Wrap(err, "begin command buffer")
	}

	cmd.BeginRenderPass(target.RenderPass, target.Framebuffer, target.Extent, r.clearValues)
	if r.draw != nil {
		err = r.draw(cmd, target)
	}
	cmd.EndRenderPass()
	if err != nil {
		if endErr := cmd.End(); endErr != nil {
			return errors.Wrapf(err, "draw image %d (end command buffer: %v)", target.ImageIndex, endErr)
		}
		return errors.Wrapf(err, "draw image %d", target.ImageIndex)
	}

	return errors.Wrap(cmd.End(), "end command buffer")
}

// ClearValues builds the clear values for a render pass with a color and,
// when depth is set, a depth attachment
func ClearValues(color [4]float32, depth bool) []vk.ClearValue {
	ret := []vk.ClearValue{vk.NewClearValue(color[:])}
	if depth {
		ret = append(ret, vk.NewClearDepthStencil(1.0, 0))
	}
	return ret
}

// encoders converts command buffers to the encoder interface
func encoders(buffers []*CommandBuffer) []CommandEncoder {
	ret := make([]CommandEncoder, len(buffers))
	for i, b := range buffers {
		ret[i] = b
	}
	return ret
}
