package vkframe

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

var (
	// ErrNoSuitableAdapter is returned when no physical device satisfies the
	// configured requirements. It is not retried.
	ErrNoSuitableAdapter = errors.New("no suitable adapter")

	// ErrDeviceCreationFailed wraps failures creating the logical device
	ErrDeviceCreationFailed = errors.New("device creation failed")

	// ErrSwapchainOutOfDate signals that the surface no longer matches the
	// swapchain, the swapchain must be recreated.
	ErrSwapchainOutOfDate = errors.New("swapchain out of date")

	// ErrSwapchainSuboptimal signals that presentation succeeded but the
	// swapchain should be recreated.
	ErrSwapchainSuboptimal = errors.New("swapchain suboptimal")

	ErrSwapchainCreationFailed     = errors.New("swapchain creation failed")
	ErrNoCompatibleMemoryType      = errors.New("no compatible memory type")
	ErrMalformedShaderBinary       = errors.New("malformed shader binary")
	ErrUnsupportedLayoutTransition = errors.New("unsupported layout transition")
	ErrPresentFailed               = errors.New("present failed")
)

// resultError carries the raw vulkan result next to the error class it
// was sorted into.
type resultError struct {
	kind   error
	result vk.Result
}

func (e *resultError) Error() string {
	return fmt.Sprintf("%s (%s)", e.kind.Error(), resultString(e.result))
}

func (e *resultError) Unwrap() error {
	return e.kind
}

// ResultOf returns the vulkan result carried by err, if any.
func ResultOf(err error) (vk.Result, bool) {
	var re *resultError
	if errors.As(err, &re) {
		return re.result, true
	}
	return vk.Success, false
}

// vkResult converts a vulkan result into an error of the given class, nil is
// returned for vk.Success.
func vkResult(res vk.Result, kind error, msg string) error {
	if res == vk.Success {
		return nil
	}
	return errors.Wrap(&resultError{kind: kind, result: res}, msg)
}

// classifyPresent sorts the result of an acquire or present call.
// Suboptimal is only reported as an error when reportSuboptimal is set,
// acquisition treats it as success since the semaphore is signaled.
func classifyPresent(res vk.Result, reportSuboptimal bool, kind error, msg string) error {
	switch res {
	case vk.Success:
		return nil
	case vk.Suboptimal:
		if !reportSuboptimal {
			return nil
		}
		return vkResult(res, ErrSwapchainSuboptimal, msg)
	case vk.ErrorOutOfDate:
		return vkResult(res, ErrSwapchainOutOfDate, msg)
	default:
		return vkResult(res, kind, msg)
	}
}

// IsRecoverable reports whether err only requires the swapchain to be
// recreated.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrSwapchainOutOfDate) || errors.Is(err, ErrSwapchainSuboptimal)
}

func resultString(res vk.Result) string {
	switch res {
	case vk.NotReady:
		return "VK_NOT_READY"
	case vk.Timeout:
		return "VK_TIMEOUT"
	case vk.Suboptimal:
		return "VK_SUBOPTIMAL_KHR"
	case vk.ErrorOutOfDate:
		return "VK_ERROR_OUT_OF_DATE_KHR"
	case vk.ErrorSurfaceLost:
		return "VK_ERROR_SURFACE_LOST_KHR"
	case vk.ErrorDeviceLost:
		return "VK_ERROR_DEVICE_LOST"
	case vk.ErrorOutOfHostMemory:
		return "VK_ERROR_OUT_OF_HOST_MEMORY"
	case vk.ErrorOutOfDeviceMemory:
		return "VK_ERROR_OUT_OF_DEVICE_MEMORY"
	case vk.ErrorInitializationFailed:
		return "VK_ERROR_INITIALIZATION_FAILED"
	case vk.ErrorExtensionNotPresent:
		return "VK_ERROR_EXTENSION_NOT_PRESENT"
	case vk.ErrorFeatureNotPresent:
		return "VK_ERROR_FEATURE_NOT_PRESENT"
	}
	return fmt.Sprintf("VkResult(%d)", int32(res))
}
