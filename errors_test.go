package vkframe

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func TestVKResult(t *testing.T) {
	if err := vkResult(vk.Success, ErrDeviceCreationFailed, "create"); err != nil {
		t.Errorf("success produced %v", err)
	}

	err := vkResult(vk.ErrorInitializationFailed, ErrDeviceCreationFailed, "create device")
	if !errors.Is(err, ErrDeviceCreationFailed) {
		t.Errorf("%v is not a device creation failure", err)
	}
	res, ok := ResultOf(err)
	if !ok || res != vk.ErrorInitializationFailed {
		t.Errorf("result %v %v", res, ok)
	}
	if !strings.HasPrefix(err.Error(), "create device: ") || !strings.Contains(err.Error(), "VK_ERROR_INITIALIZATION_FAILED") {
		t.Errorf("message %q", err.Error())
	}

	if _, ok := ResultOf(errors.New("plain")); ok {
		t.Error("plain error carries a result")
	}
}

func TestClassifyPresent(t *testing.T) {
	if err := classifyPresent(vk.Suboptimal, false, ErrPresentFailed, "acquire"); err != nil {
		t.Errorf("suboptimal acquire reported %v", err)
	}

	err := classifyPresent(vk.Suboptimal, true, ErrPresentFailed, "present")
	if !errors.Is(err, ErrSwapchainSuboptimal) || !IsRecoverable(err) {
		t.Errorf("suboptimal present: %v", err)
	}

	err = classifyPresent(vk.ErrorOutOfDate, false, ErrPresentFailed, "acquire")
	if !errors.Is(err, ErrSwapchainOutOfDate) || !IsRecoverable(err) {
		t.Errorf("out of date: %v", err)
	}
	if !strings.Contains(err.Error(), "VK_ERROR_OUT_OF_DATE_KHR") {
		t.Errorf("message %q", err.Error())
	}

	err = classifyPresent(vk.ErrorSurfaceLost, true, ErrPresentFailed, "present")
	if !errors.Is(err, ErrPresentFailed) || IsRecoverable(err) {
		t.Errorf("surface lost: %v", err)
	}
}

func TestIsRecoverableWrapped(t *testing.T) {
	err := errors.Wrap(errors.Wrap(ErrSwapchainOutOfDate, "inner"), "outer")
	if !IsRecoverable(err) {
		t.Error("wrapped out of date error not recoverable")
	}
	if IsRecoverable(nil) {
		t.Error("nil recoverable")
	}
}
