/*
Package vkframe drives the frame lifecycle of a Vulkan application written in go: bringing up a
device that can present to a window, keeping a swapchain alive across resizes, moving resource data
into device local memory and pacing CPU recording against GPU execution so neither side waits more
than it has to.

Vulkan leaves all of this to the application. A frame is only correct when the CPU never rewrites a
command buffer or uniform block the GPU may still be reading, when every swapchain image is written
by at most one frame at a time, and when nothing is destroyed while the device may still use it.
This package carries those rules so callers only describe what to draw.

Native vulkan structures are exposed on every object through fields prefixed with 'VK', so
applications are never limited to what this package wraps.

Frame lifecycle

A Renderer owns the instance, surface, device and everything built from the swapchain. Each frame
moves through the states of a FrameSynchronizer:

	Idle -> Acquiring -> Recording -> Submitted -> Presenting -> Idle

A fixed number of frame slots (frames in flight) each carry an image-available semaphore, a
render-finished semaphore and an in-flight fence. Beginning a frame waits on the slot's fence,
acquires an image, and if the image is still owned by another slot waits on that slot's fence
as well. Out of date or suboptimal results rebuild the swapchain at the next frame boundary.

Main pieces

	Config			instance, device and frame settings with validated defaults
	Device			logical device plus graphics, present and transfer queues
	Swapchain		images and views built from a SwapchainPlan
	Uploader		staged one shot transfers into device local buffers and images
	FrameSynchronizer	the per frame state machine over frame slots
	CommandRecorder		records command buffers per swapchain image or per frame slot
	ResourceManager		tracks buffers, images and samplers it created
	UniformRing		one uniform block per frame slot in a persistently mapped buffer
	Lifetime		waits for the device to go idle, then destroys newest first

A typical program creates a window, calls NewRenderer, registers pipelines with AddPipeline, calls
PrepareToDraw with its DrawFunc and then calls DrawFrame from its event loop until the window closes.
*/
package vkframe
