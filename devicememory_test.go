package vkframe

import (
	"testing"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func TestSelectMemoryType(t *testing.T) {
	types := []vk.MemoryType{
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)},
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)},
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)},
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit | vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)},
	}
	tests := []struct {
		name     string
		bits     uint32
		required vk.MemoryPropertyFlags
		expected uint32
	}{
		{"device local", 0xf, DeviceLocal, 0},
		{"coherent", 0xf, HostVisibleCoherent, 2},
		{"lowest allowed", 0x8, DeviceLocal, 3},
		{"no requirement", 0x2, 0, 1},
	}
	for _, test := range tests {
		got, err := SelectMemoryType(types, test.bits, test.required)
		if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		if got != test.expected {
			t.Errorf("%s: type %d expected %d", test.name, got, test.expected)
		}
	}

	_, err := SelectMemoryType(types, 0x3, HostVisibleCoherent)
	if !errors.Is(err, ErrNoCompatibleMemoryType) {
		t.Errorf("expected no compatible memory type, got %v", err)
	}
	_, err = SelectMemoryType(types, 0, 0)
	if !errors.Is(err, ErrNoCompatibleMemoryType) {
		t.Errorf("empty type bits accepted")
	}
}
