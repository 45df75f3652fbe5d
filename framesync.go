package vkframe

import (
	"github.com/pkg/errors"
)

// FrameSync is the set of primitives guarding one frame slot. ImageAvailable
// is signaled by acquisition and waited on by the submission, RenderFinished
// is signaled by the submission and waited on by presentation, InFlight is
// signaled when the GPU finishes the slot's submission.
type FrameSync struct {
	ImageAvailable *Semaphore
	RenderFinished *Semaphore
	InFlight       *Fence
}

// CreateFrameSyncs creates count sync sets. Their fences start signaled so
// the first wait on each slot returns immediately.
func (d *Device) CreateFrameSyncs(count int) ([]*FrameSync, error) {
	ret := make([]*FrameSync, 0, count)
	for i := 0; i < count; i++ {
		s, err := d.createFrameSync()
		if err != nil {
			for _, c := range ret {
				c.Destroy()
			}
			return nil, errors.Wrapf(err, "frame sync %d", i)
		}
		ret = append(ret, s)
	}
	return ret, nil
}

func (d *Device) createFrameSync() (*FrameSync, error) {
	var ret FrameSync
	var err error

	ret.ImageAvailable, err = d.CreateSemaphore()
	if err != nil {
		return nil, errors.Wrap(err, "image available semaphore")
	}

	ret.RenderFinished, err = d.CreateSemaphore()
	if err != nil {
		ret.ImageAvailable.Destroy()
		return nil, errors.Wrap(err, "render finished semaphore")
	}

	ret.InFlight, err = d.CreateFence(true)
	if err != nil {
		ret.ImageAvailable.Destroy()
		ret.RenderFinished.Destroy()
		return nil, errors.Wrap(err, "in flight fence")
	}

	return &ret, nil
}

func (f *FrameSync) Destroy() {
	f.ImageAvailable.Destroy()
	f.RenderFinished.Destroy()
	f.InFlight.Destroy()
}
