package vkframe

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type Queue struct {
	Device      *Device
	FamilyIndex int
	VKQueue     vk.Queue
}

func (q *Queue) WaitIdle() error {
	return vk.Error(vk.QueueWaitIdle(q.VKQueue))
}

// SubmitWithFence submits buffers with no semaphores, fence is signaled once they complete
func (q *Queue) SubmitWithFence(fence *Fence, buffers ...*CommandBuffer) error {
	b := make([]vk.CommandBuffer, len(buffers))
	for i := range buffers {
		b[i] = buffers[i].VKCommandBuffer
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: uint32(len(b)),
		PCommandBuffers:    b,
	}

	return vk.Error(vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{submitInfo}, fence.VKFence))
}

// SubmitFrame submits a single command buffer which waits on wait at the
// color attachment output stage, and signals signal and fence on completion.
func (q *Queue) SubmitFrame(cmd vk.CommandBuffer, wait, signal vk.Semaphore, fence vk.Fence) vk.Result {
	submitInfo := []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{wait},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{signal},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cmd},
	}}
	return vk.QueueSubmit(q.VKQueue, 1, submitInfo, fence)
}

// Present hands image back to the presentation engine once wait is signaled
func (q *Queue) Present(swapchain vk.Swapchain, imageIndex uint32, wait vk.Semaphore) vk.Result {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{swapchain},
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait},
		PImageIndices:      []uint32{imageIndex},
	}
	return vk.QueuePresent(q.VKQueue, &presentInfo)
}

func (q *Queue) String() string {
	return fmt.Sprintf("{Device: %s Family: %d}", q.Device.String(), q.FamilyIndex)
}
