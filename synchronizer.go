package vkframe

import (
	"fmt"

	"github.com/pkg/errors"
)

// FrameState is the position of the current frame in its lifecycle
type FrameState int

const (
	FrameIdle FrameState = iota
	FrameAcquiring
	FrameRecording
	FrameSubmitted
	FramePresenting
)

func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "idle"
	case FrameAcquiring:
		return "acquiring"
	case FrameRecording:
		return "recording"
	case FrameSubmitted:
		return "submitted"
	case FramePresenting:
		return "presenting"
	}
	return fmt.Sprintf("FrameState(%d)", int(s))
}

const noOwner = -1

// FrameSynchronizer paces the CPU against the GPU using a fixed ring of
// frame slots. A slot is reused only after the fence of its previous
// submission has signaled, so at most len(slots) frames are outstanding.
// A swapchain image is recorded into only after the slot that last rendered
// to it has finished.
//
// Swapchain rebuilds requested while a frame is in progress are deferred to
// the start of the next frame.
type FrameSynchronizer struct {
	engine   frameEngine
	recreate func() error

	slots      int
	frameIndex int
	frameCount uint64
	state      FrameState

	imageOwner []int

	recreatePending bool
	outOfDateStreak int
}

func newFrameSynchronizer(engine frameEngine, slots, images int, recreate func() error) *FrameSynchronizer {
	s := &FrameSynchronizer{
		engine:   engine,
		recreate: recreate,
		slots:    slots,
	}
	s.ResetImages(images)
	return s
}

// FrameIndex is the slot the next frame will use
func (s *FrameSynchronizer) FrameIndex() int {
	return s.frameIndex
}

// FrameCount is the number of frames submitted so far
func (s *FrameSynchronizer) FrameCount() uint64 {
	return s.frameCount
}

func (s *FrameSynchronizer) State() FrameState {
	return s.state
}

func (s *FrameSynchronizer) Slots() int {
	return s.slots
}

// RequestRecreate asks for a swapchain rebuild at the start of the next frame
func (s *FrameSynchronizer) RequestRecreate() {
	s.recreatePending = true
}

// ResetImages forgets which slot last used each image, it is called once a
// swapchain with images images has been built
func (s *FrameSynchronizer) ResetImages(images int) {
	s.imageOwner = make([]int, images)
	for i := range s.imageOwner {
		s.imageOwner[i] = noOwner
	}
}

func (s *FrameSynchronizer) rebuild() error {
	s.recreatePending = false
	err := s.recreate()
	if err != nil {
		return errors.Wrap(err, "recreate swapchain")
	}
	return nil
}

// BeginFrame waits for the current slot to be free and acquires the next
// swapchain image. When ok is false no image was acquired, the swapchain may
// have been rebuilt, and the caller should skip this frame without recording
// or submitting. Any returned error is fatal.
func (s *FrameSynchronizer) BeginFrame() (imageIndex uint32, ok bool, err error) {
	if s.state != FrameIdle {
		return 0, false, errors.Errorf("begin frame while %s", s.state)
	}
	slot := s.frameIndex

	err = s.engine.WaitForFence(slot)
	if err != nil {
		return 0, false, err
	}

	if s.recreatePending {
		// an out of date acquire after this rebuild is the first against the new chain
		s.outOfDateStreak = 0
		return 0, false, s.rebuild()
	}

	s.state = FrameAcquiring
	imageIndex, err = s.engine.AcquireNextImage(slot)
	if err != nil {
		s.state = FrameIdle
		if !errors.Is(err, ErrSwapchainOutOfDate) {
			return 0, false, err
		}
		s.outOfDateStreak++
		if s.outOfDateStreak > 1 {
			return 0, false, errors.Wrap(err, "swapchain out of date right after recreation")
		}
		return 0, false, s.rebuild()
	}
	s.outOfDateStreak = 0

	if int(imageIndex) >= len(s.imageOwner) {
		s.state = FrameIdle
		return 0, false, errors.Errorf("acquired image %d of %d", imageIndex, len(s.imageOwner))
	}

	if owner := s.imageOwner[imageIndex]; owner != noOwner && owner != slot {
		err = s.engine.WaitForFence(owner)
		if err != nil {
			s.state = FrameIdle
			return 0, false, errors.Wrapf(err, "wait for image %d", imageIndex)
		}
	}
	s.imageOwner[imageIndex] = slot

	s.state = FrameRecording
	return imageIndex, true, nil
}

// SubmitFrame submits cmd for the image returned by BeginFrame and presents
// it. The frame index advances once the submission has been accepted, even
// if presentation then asks for a rebuild.
func (s *FrameSynchronizer) SubmitFrame(cmd CommandEncoder, imageIndex uint32) error {
	if s.state != FrameRecording {
		return errors.Errorf("submit frame while %s", s.state)
	}
	slot := s.frameIndex

	err := s.engine.ResetFence(slot)
	if err != nil {
		s.state = FrameIdle
		return err
	}

	err = s.engine.Submit(slot, cmd, imageIndex)
	if err != nil {
		s.state = FrameIdle
		return err
	}
	s.state = FrameSubmitted
	s.frameCount++
	s.frameIndex = (s.frameIndex + 1) % s.slots

	s.state = FramePresenting
	err = s.engine.Present(slot, imageIndex)
	s.state = FrameIdle

	switch {
	case err == nil:
		return nil
	case IsRecoverable(err):
		return s.rebuild()
	default:
		return err
	}
}
