package vkframe

import (
	"time"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// MaxFramesInFlight is the largest number of frame slots a Config may ask for
const MaxFramesInFlight = 8

// DefaultValidationLayer is the layer enabled when validation is requested
const DefaultValidationLayer = "VK_LAYER_KHRONOS_validation"

// SwapchainExtension must be supported by any adapter which presents
const SwapchainExtension = "VK_KHR_swapchain"

// Version is used to specify versions of components
type Version struct {
	Major int
	Minor int
	Patch int
}

// VKVersion returns a Vulkan compatible version representation
func (v Version) VKVersion() uint32 {
	return vk.MakeVersion(v.Major, v.Minor, v.Patch)
}

// Config holds every setting used while bringing up the renderer. It is
// built once, before NewRenderer, and copied by the components that read it;
// changing a Config afterwards has no effect on an existing renderer.
type Config struct {
	AppName    string
	EngineName string
	AppVersion Version
	// APIVersion the expected minimum version of the Vulkan API, defaults to 1.0.0
	APIVersion Version

	// FramesInFlight is the number of frames the CPU may record ahead of the GPU
	FramesInFlight int

	Validation         bool
	ValidationLayers   []string
	InstanceExtensions []string
	DeviceExtensions   []string

	RequireSamplerAnisotropy bool
	MaxAnisotropy            float32

	PreferredSurfaceFormat vk.Format
	PreferredColorSpace    vk.ColorSpace
	PreferredPresentMode   vk.PresentMode

	// FenceTimeout bounds every fence wait, zero waits forever
	FenceTimeout time.Duration

	RecordMode  RecordMode
	ClearColor  [4]float32
	DepthBuffer bool
}

// DefaultConfig returns the configuration used by the examples
func DefaultConfig(name string) Config {
	return Config{
		AppName:                  name,
		EngineName:               "vkframe",
		AppVersion:               Version{Major: 1},
		APIVersion:               Version{Major: 1},
		FramesInFlight:           2,
		ValidationLayers:         []string{DefaultValidationLayer},
		DeviceExtensions:         []string{SwapchainExtension},
		RequireSamplerAnisotropy: true,
		MaxAnisotropy:            16,
		PreferredSurfaceFormat:   vk.FormatB8g8r8a8Srgb,
		PreferredColorSpace:      vk.ColorSpaceSrgbNonlinear,
		PreferredPresentMode:     vk.PresentModeMailbox,
		RecordMode:               RecordPerImage,
		ClearColor:               [4]float32{0.2, 0.2, 0.2, 1},
		DepthBuffer:              true,
	}
}

// Validate checks the configuration for values the renderer cannot work with
func (c *Config) Validate() error {
	if c.AppName == "" {
		return errors.New("config: application name is empty")
	}
	if c.FramesInFlight < 1 || c.FramesInFlight > MaxFramesInFlight {
		return errors.Errorf("config: frames in flight must be within [1, %d], got %d", MaxFramesInFlight, c.FramesInFlight)
	}
	if c.Validation && len(c.ValidationLayers) == 0 {
		return errors.New("config: validation enabled without any layers")
	}
	if c.RequireSamplerAnisotropy && c.MaxAnisotropy < 1 {
		return errors.Errorf("config: max anisotropy must be at least 1, got %v", c.MaxAnisotropy)
	}
	switch c.RecordMode {
	case RecordPerImage, RecordPerFrame:
	default:
		return errors.Errorf("config: unknown record mode %d", c.RecordMode)
	}
	return nil
}

// fenceTimeout converts FenceTimeout to the value vulkan expects
func (c *Config) fenceTimeout() uint64 {
	if c.FenceTimeout <= 0 {
		return vk.MaxUint64
	}
	return uint64(c.FenceTimeout.Nanoseconds())
}

// withExtensions returns a copy of list with every missing entry of extra appended
func withExtensions(list []string, extra ...string) []string {
	ret := make([]string, 0, len(list)+len(extra))
	ret = append(ret, list...)
	for _, e := range extra {
		if !containsString(ret, e) {
			ret = append(ret, e)
		}
	}
	return ret
}

func containsString(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}
