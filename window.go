package vkframe

import (
	"github.com/pkg/errors"
	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// Window is everything the renderer needs from the windowing system
type Window interface {
	// FramebufferExtent is the drawable size in pixels, zero while minimized
	FramebufferExtent() vk.Extent2D
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	// SetResizeCallback registers fn to be called when the drawable size changes
	SetResizeCallback(fn func())
	ShouldClose() bool
	PollEvents()
	WaitEvents()
}

// InitializeGLFW initializes glfw and loads vulkan through it. It must be
// called from the main thread before any window is created.
func InitializeGLFW() error {
	err := glfw.Init()
	if err != nil {
		return errors.Wrap(err, "init glfw")
	}
	err = InitializeWithProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err != nil {
		glfw.Terminate()
		return errors.Wrap(err, "init vulkan")
	}
	return nil
}

// GLFWWindow adapts a glfw window to the Window interface
type GLFWWindow struct {
	*glfw.Window
}

// NewGLFWWindow creates a resizable window without any client API attached
func NewGLFWWindow(width, height int, title string) (*GLFWWindow, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	window, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create window")
	}
	return &GLFWWindow{Window: window}, nil
}

func (w *GLFWWindow) FramebufferExtent() vk.Extent2D {
	width, height := w.Window.GetFramebufferSize()
	if width < 0 || height < 0 {
		return vk.Extent2D{}
	}
	return vk.Extent2D{Width: uint32(width), Height: uint32(height)}
}

func (w *GLFWWindow) RequiredInstanceExtensions() []string {
	return w.Window.GetRequiredInstanceExtensions()
}

func (w *GLFWWindow) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := w.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "create window surface")
	}
	return vk.SurfaceFromPointer(ptr), nil
}

func (w *GLFWWindow) SetResizeCallback(fn func()) {
	w.Window.SetFramebufferSizeCallback(func(_ *glfw.Window, _, _ int) {
		fn()
	})
}

func (w *GLFWWindow) ShouldClose() bool {
	return w.Window.ShouldClose()
}

func (w *GLFWWindow) PollEvents() {
	glfw.PollEvents()
}

func (w *GLFWWindow) WaitEvents() {
	glfw.WaitEvents()
}

// Destroy destroys the window, glfw itself is left initialized
func (w *GLFWWindow) Destroy() {
	w.Window.Destroy()
}
