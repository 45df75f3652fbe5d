package vkframe

import (
	"log"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Renderer brings up a device presenting to a window and drives the frame
// loop: it owns the swapchain and everything built from it, rebuilds them
// when the window changes, and tears everything down once the device is idle.
//
// All methods must be called from the thread that created the window.
type Renderer struct {
	Config Config
	Window Window

	Instance        *Instance
	Surface         vk.Surface
	Device          *Device
	Uploader        *Uploader
	ResourceManager *ResourceManager
	CommandPool     *CommandPool
	PipelineCache   *PipelineCache

	pipelineConfigs map[string]*GraphicsPipelineConfig
	pipelines       map[string]*Pipeline

	depthFormat    vk.Format
	swapchain      *Swapchain
	renderPass     *RenderPass
	depthImage     *Image
	depthMemory    *DeviceMemory
	depthView      *ImageView
	framebuffers   []*Framebuffer
	commandBuffers []*CommandBuffer

	presenter *swapchainPresenter
	sync      *FrameSynchronizer
	recorder  *CommandRecorder

	// backend performs the device side of a swapchain rebuild, the
	// renderer itself unless replaced in tests
	backend swapchainBackend

	lifetime  *Lifetime
	extent    vk.Extent2D
	minimized bool
	prepared  bool
}

// swapchainBackend is the device work recreateSwapchain sequences
type swapchainBackend interface {
	waitIdle() error
	planSwapchain(window vk.Extent2D) (SwapchainPlan, error)
	// replaceSwapchain creates a swapchain from plan, retiring the current
	// one, then destroys the retired chain and everything built from it
	replaceSwapchain(plan SwapchainPlan) error
	// buildFrameObjects creates everything rendered through the new
	// swapchain and returns its image count
	buildFrameObjects() (int, error)
}

// NewRenderer creates the instance, surface, device and the objects which
// live as long as the device. The swapchain is built by PrepareToDraw.
func NewRenderer(cfg Config, window Window) (*Renderer, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		Config:          cfg,
		Window:          window,
		pipelineConfigs: make(map[string]*GraphicsPipelineConfig),
	}
	r.backend = r
	r.lifetime = NewLifetime(r.waitIdle)

	err = r.init()
	if err != nil {
		r.lifetime.Release()
		return nil, err
	}

	window.SetResizeCallback(r.Resize)
	return r, nil
}

func (r *Renderer) init() error {
	var err error

	r.Instance, err = r.Config.NewInstance(r.Window.RequiredInstanceExtensions())
	if err != nil {
		return errors.Wrap(err, "create instance")
	}
	r.lifetime.Own(r.Instance)

	r.Surface, err = r.Window.CreateSurface(r.Instance.VKInstance)
	if err != nil {
		return err
	}
	surface := r.Surface
	r.lifetime.OwnFunc(func() { r.Instance.DestroySurface(surface) })

	r.Device, err = CreateDevice(r.Instance, r.Surface, &r.Config)
	if err != nil {
		return err
	}
	r.lifetime.Own(r.Device)

	r.Uploader, err = r.Device.CreateUploader()
	if err != nil {
		return err
	}
	r.lifetime.Own(r.Uploader)

	r.ResourceManager = r.Device.CreateResourceManager(r.Uploader)
	r.ResourceManager.MaxAnisotropy = r.Config.MaxAnisotropy
	r.lifetime.Own(r.ResourceManager)

	r.CommandPool, err = r.Device.CreateCommandPool(r.Device.QueueFamilies.Graphics, false)
	if err != nil {
		return errors.Wrap(err, "create graphics command pool")
	}
	r.lifetime.Own(r.CommandPool)

	r.PipelineCache, err = r.Device.CreatePipelineCache()
	if err != nil {
		return err
	}
	r.lifetime.Own(r.PipelineCache)

	r.depthFormat = vk.FormatUndefined
	if r.Config.DepthBuffer {
		r.depthFormat, err = r.Device.PhysicalDevice.FindDepthFormat()
		if err != nil {
			return errors.Wrap(err, "depth format")
		}
	}
	return nil
}

func (r *Renderer) waitIdle() error {
	if r.Device == nil {
		return nil
	}
	return r.Device.WaitIdle()
}

// Own hands d to the renderer, it is destroyed by Destroy once the device is idle
func (r *Renderer) Own(d IDestructable) {
	r.lifetime.Own(d)
}

// AddPipeline registers a pipeline config. Pipelines are built for every
// swapchain and the config's shader modules are destroyed with the renderer.
func (r *Renderer) AddPipeline(name string, config *GraphicsPipelineConfig) {
	r.pipelineConfigs[name] = config
	r.lifetime.OwnFunc(config.Destroy)
	if r.prepared {
		r.sync.RequestRecreate()
	}
}

// PrepareToDraw creates the frame slots and builds the swapchain. draw is
// called whenever a command buffer is recorded.
func (r *Renderer) PrepareToDraw(draw DrawFunc) error {
	if r.prepared {
		return errors.New("renderer already prepared")
	}

	syncs, err := r.Device.CreateFrameSyncs(r.Config.FramesInFlight)
	if err != nil {
		return err
	}
	r.presenter = newSwapchainPresenter(r.Device, syncs, r.Config.fenceTimeout())
	r.lifetime.Own(r.presenter)
	r.lifetime.OwnFunc(r.destroySwapchain)

	return r.prepare(r.presenter, draw)
}

// prepare builds the recorder and synchronizer on top of engine and the
// first swapchain
func (r *Renderer) prepare(engine frameEngine, draw DrawFunc) error {
	r.recorder = NewCommandRecorder(r.Config.RecordMode, draw, ClearValues(r.Config.ClearColor, r.Config.DepthBuffer))
	r.sync = newFrameSynchronizer(engine, r.Config.FramesInFlight, 0, r.recreateSwapchain)

	err := r.recreateSwapchain()
	if err != nil {
		return err
	}
	r.prepared = true
	return nil
}

// DrawFrame records and submits one frame. Nothing is drawn while the window
// is minimized or while the swapchain is being rebuilt. Any returned error
// is fatal.
func (r *Renderer) DrawFrame() error {
	if !r.prepared {
		return errors.New("draw frame before PrepareToDraw")
	}

	if r.minimized {
		extent := r.Window.FramebufferExtent()
		if extent.Width == 0 || extent.Height == 0 {
			return nil
		}
		r.sync.RequestRecreate()
	}

	imageIndex, ok, err := r.sync.BeginFrame()
	if err != nil || !ok {
		return err
	}

	cmd, err := r.recorder.RecordFrame(r.sync.FrameIndex(), imageIndex)
	if err != nil {
		return err
	}

	return r.sync.SubmitFrame(cmd, imageIndex)
}

// SetClearColor changes the color the render pass clears to
func (r *Renderer) SetClearColor(color [4]float32) {
	r.Config.ClearColor = color
	if r.recorder != nil {
		r.recorder.SetClearValues(ClearValues(color, r.Config.DepthBuffer))
	}
}

// Invalidate makes the renderer record every command buffer again before its
// next use. Per image recordings capture their draw state once, call this
// after changing it.
func (r *Renderer) Invalidate() {
	if r.recorder != nil {
		r.recorder.Invalidate()
	}
}

// Resize notes that the window size changed, the swapchain is rebuilt at
// the start of the next frame
func (r *Renderer) Resize() {
	if r.sync != nil {
		r.sync.RequestRecreate()
	}
}

// Destroy waits for the device to go idle and destroys everything the
// renderer owns, newest first
func (r *Renderer) Destroy() error {
	return r.lifetime.Release()
}

// Extent is the size of the current swapchain images
func (r *Renderer) Extent() vk.Extent2D {
	return r.extent
}

// Minimized reports whether drawing is paused for a zero sized window
func (r *Renderer) Minimized() bool {
	return r.minimized
}

// FrameIndex is the frame slot the next frame will use
func (r *Renderer) FrameIndex() int {
	if r.sync == nil {
		return 0
	}
	return r.sync.FrameIndex()
}

// FrameCount is the number of frames submitted so far
func (r *Renderer) FrameCount() uint64 {
	if r.sync == nil {
		return 0
	}
	return r.sync.FrameCount()
}

// Pipeline returns the pipeline built from the named config for the current swapchain
func (r *Renderer) Pipeline(name string) *Pipeline {
	return r.pipelines[name]
}

func (r *Renderer) RenderPass() *RenderPass {
	return r.renderPass
}

func (r *Renderer) Swapchain() *Swapchain {
	return r.swapchain
}

// recreateSwapchain replaces the swapchain and everything built from it.
// It is only called at a frame boundary, and nothing is destroyed before the
// device is idle. A zero sized window leaves the current objects in place
// until the window is restored.
func (r *Renderer) recreateSwapchain() error {
	err := r.backend.waitIdle()
	if err != nil {
		return errors.Wrap(err, "wait for device idle")
	}

	window := r.Window.FramebufferExtent()
	if window.Width == 0 || window.Height == 0 {
		r.minimized = true
		return nil
	}

	plan, err := r.backend.planSwapchain(window)
	if err != nil {
		return err
	}
	if plan.Extent.Width == 0 || plan.Extent.Height == 0 {
		r.minimized = true
		return nil
	}

	err = r.backend.replaceSwapchain(plan)
	if err != nil {
		return err
	}
	images, err := r.backend.buildFrameObjects()
	if err != nil {
		return err
	}
	r.sync.ResetImages(images)

	r.extent = plan.Extent
	r.minimized = false
	return nil
}

func (r *Renderer) planSwapchain(window vk.Extent2D) (SwapchainPlan, error) {
	support, err := r.Device.PhysicalDevice.QuerySurfaceSupport(r.Surface)
	if err != nil {
		return SwapchainPlan{}, err
	}
	return PlanSwapchain(support, &r.Config, window)
}

func (r *Renderer) replaceSwapchain(plan SwapchainPlan) error {
	swapchain, err := r.Device.CreateSwapchain(r.Surface, plan, r.swapchain)
	if err != nil {
		return err
	}

	r.destroySwapchain()
	r.swapchain = swapchain
	return nil
}

func (r *Renderer) buildFrameObjects() (int, error) {
	err := r.createSwapchainObjects()
	if err != nil {
		return 0, err
	}
	return r.swapchain.ImageCount(), nil
}

func (r *Renderer) createSwapchainObjects() error {
	var err error
	sc := r.swapchain

	if r.depthFormat != vk.FormatUndefined {
		err = r.createDepthImage(sc.Extent)
		if err != nil {
			return err
		}
	}

	r.renderPass, err = r.Device.CreateRenderPass(sc.Format, r.depthFormat)
	if err != nil {
		return err
	}

	r.pipelines, err = r.Device.CreateGraphicsPipelines(r.PipelineCache, r.renderPass, sc.Extent, r.pipelineConfigs)
	if err != nil {
		return err
	}

	r.framebuffers = make([]*Framebuffer, 0, len(sc.Views))
	handles := make([]vk.Framebuffer, 0, len(sc.Views))
	for _, view := range sc.Views {
		attachments := []*ImageView{view}
		if r.depthView != nil {
			attachments = append(attachments, r.depthView)
		}
		fb, err := r.renderPass.CreateFramebuffer(sc.Extent, attachments...)
		if err != nil {
			return err
		}
		r.framebuffers = append(r.framebuffers, fb)
		handles = append(handles, fb.VKFramebuffer)
	}

	count := r.recorder.BufferCount(sc.ImageCount(), r.Config.FramesInFlight)
	r.commandBuffers, err = r.CommandPool.AllocateBuffers(count)
	if err != nil {
		return errors.Wrap(err, "allocate command buffers")
	}

	err = r.recorder.Bind(r.renderPass.VKRenderPass, handles, sc.Extent, encoders(r.commandBuffers))
	if err != nil {
		return err
	}
	err = r.recorder.RecordAll()
	if err != nil {
		return err
	}

	r.presenter.SetSwapchain(sc)

	log.Printf("rebuilt %s frame objects for %d images, %d pipelines", r.recorder.Mode(), sc.ImageCount(), len(r.pipelines))
	return nil
}

func (r *Renderer) createDepthImage(extent vk.Extent2D) error {
	var err error
	r.depthImage, r.depthMemory, err = r.Device.CreateImage(ImageOptions{
		Extent:    extent,
		Format:    r.depthFormat,
		Usage:     vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		Tiling:    vk.ImageTilingOptimal,
		MipLevels: 1,
	}, DeviceLocal)
	if err != nil {
		return errors.Wrap(err, "depth image")
	}

	r.depthView, err = r.depthImage.CreateImageView()
	if err != nil {
		return errors.Wrap(err, "depth image view")
	}

	return r.Uploader.OneShot(func(cmd *CommandBuffer) error {
		return cmd.TransitionImageLayout(r.depthImage, vk.ImageLayoutDepthStencilAttachmentOptimal)
	})
}

// destroySwapchainObjects destroys everything built for the current
// swapchain, leaving the swapchain itself
func (r *Renderer) destroySwapchainObjects() {
	r.CommandPool.FreeBuffers(r.commandBuffers)
	r.commandBuffers = nil

	for _, fb := range r.framebuffers {
		fb.Destroy()
	}
	r.framebuffers = nil

	for _, p := range r.pipelines {
		p.Destroy()
	}
	r.pipelines = nil

	if r.renderPass != nil {
		r.renderPass.Destroy()
		r.renderPass = nil
	}

	if r.depthView != nil {
		r.depthView.Destroy()
		r.depthView = nil
	}
	if r.depthImage != nil {
		r.depthImage.Destroy()
		r.depthImage = nil
	}
	if r.depthMemory != nil {
		r.depthMemory.Destroy()
		r.depthMemory = nil
	}
}

func (r *Renderer) destroySwapchain() {
	r.destroySwapchainObjects()
	if r.swapchain != nil {
		r.swapchain.Destroy()
		r.swapchain = nil
	}
}
