package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// frameEngine is the device side of a frame. The synchronizer only decides
// when each step happens, slot selects the FrameSync set to use.
type frameEngine interface {
	WaitForFence(slot int) error
	ResetFence(slot int) error
	AcquireNextImage(slot int) (uint32, error)
	Submit(slot int, cmd CommandEncoder, imageIndex uint32) error
	Present(slot int, imageIndex uint32) error
}

// swapchainPresenter runs frames against a swapchain with one FrameSync set
// per slot. The swapchain is replaced on every rebuild, the sync sets live
// as long as the presenter.
type swapchainPresenter struct {
	device    *Device
	swapchain *Swapchain
	syncs     []*FrameSync
	timeout   uint64
}

func newSwapchainPresenter(device *Device, syncs []*FrameSync, timeout uint64) *swapchainPresenter {
	return &swapchainPresenter{
		device:  device,
		syncs:   syncs,
		timeout: timeout,
	}
}

// SetSwapchain points presentation at a new swapchain
func (p *swapchainPresenter) SetSwapchain(s *Swapchain) {
	p.swapchain = s
}

func (p *swapchainPresenter) WaitForFence(slot int) error {
	return errors.Wrapf(p.syncs[slot].InFlight.Wait(p.timeout), "wait for frame slot %d", slot)
}

func (p *swapchainPresenter) ResetFence(slot int) error {
	return errors.Wrapf(p.syncs[slot].InFlight.Reset(), "reset frame slot %d", slot)
}

func (p *swapchainPresenter) AcquireNextImage(slot int) (uint32, error) {
	if p.swapchain == nil {
		return 0, errors.New("acquire: no swapchain")
	}
	var imageIndex uint32
	res := vk.AcquireNextImage(p.device.VKDevice, p.swapchain.VKSwapchain, p.timeout,
		p.syncs[slot].ImageAvailable.VKSemaphore, vk.NullFence, &imageIndex)
	return imageIndex, classifyPresent(res, false, ErrPresentFailed, "acquire next image")
}

func (p *swapchainPresenter) Submit(slot int, cmd CommandEncoder, imageIndex uint32) error {
	s := p.syncs[slot]
	res := p.device.GraphicsQueue.SubmitFrame(cmd.VK(), s.ImageAvailable.VKSemaphore,
		s.RenderFinished.VKSemaphore, s.InFlight.VKFence)
	return errors.Wrapf(vk.Error(res), "submit frame for image %d", imageIndex)
}

func (p *swapchainPresenter) Present(slot int, imageIndex uint32) error {
	res := p.device.PresentQueue.Present(p.swapchain.VKSwapchain, imageIndex, p.syncs[slot].RenderFinished.VKSemaphore)
	return classifyPresent(res, true, ErrPresentFailed, "present")
}

// Destroy destroys the sync sets, the device must be idle
func (p *swapchainPresenter) Destroy() {
	for _, s := range p.syncs {
		s.Destroy()
	}
	p.syncs = nil
}
