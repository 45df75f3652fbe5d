package vkframe

import (
	"strings"
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

const (
	graphicsQueue = vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueTransferBit)
	computeQueue  = vk.QueueFlags(vk.QueueComputeBit | vk.QueueTransferBit)
)

func TestPickQueueFamilies(t *testing.T) {
	tests := []struct {
		name     string
		families []QueueFamilyReport
		headless bool
		expected QueueFamilyIndices
		ok       bool
	}{
		{
			"combined family preferred",
			[]QueueFamilyReport{
				{Index: 0, Flags: graphicsQueue, Count: 1},
				{Index: 1, Flags: computeQueue, Count: 1, Present: true},
				{Index: 2, Flags: graphicsQueue, Count: 1, Present: true},
			},
			false, QueueFamilyIndices{2, 2, 2}, true,
		},
		{
			"split families",
			[]QueueFamilyReport{
				{Index: 0, Flags: graphicsQueue, Count: 1},
				{Index: 1, Flags: computeQueue, Count: 1, Present: true},
			},
			false, QueueFamilyIndices{0, 1, 0}, true,
		},
		{
			"no present",
			[]QueueFamilyReport{{Index: 0, Flags: graphicsQueue, Count: 1}},
			false, QueueFamilyIndices{}, false,
		},
		{
			"headless ignores present",
			[]QueueFamilyReport{{Index: 0, Flags: computeQueue, Count: 1}, {Index: 1, Flags: graphicsQueue, Count: 2}},
			true, QueueFamilyIndices{1, 1, 1}, true,
		},
		{
			"empty family skipped",
			[]QueueFamilyReport{{Index: 0, Flags: graphicsQueue, Count: 0, Present: true}},
			false, QueueFamilyIndices{}, false,
		},
	}
	for _, test := range tests {
		got, ok := pickQueueFamilies(test.families, test.headless)
		if ok != test.ok {
			t.Errorf("%s: ok %v", test.name, ok)
			continue
		}
		if ok && got != test.expected {
			t.Errorf("%s: got %s expected %s", test.name, got, test.expected)
		}
	}
}

func TestQueueFamilyIndicesUnique(t *testing.T) {
	if u := (QueueFamilyIndices{1, 1, 1}).Unique(); len(u) != 1 || u[0] != 1 {
		t.Errorf("got %v", u)
	}
	if u := (QueueFamilyIndices{0, 2, 0}).Unique(); len(u) != 2 || u[0] != 0 || u[1] != 2 {
		t.Errorf("got %v", u)
	}
}

func usableReport() *AdapterReport {
	return &AdapterReport{
		Name:              "test adapter",
		Extensions:        []string{SwapchainExtension, "VK_KHR_maintenance1"},
		QueueFamilies:     []QueueFamilyReport{{Index: 0, Flags: graphicsQueue, Count: 1, Present: true}},
		SurfaceFormats:    2,
		PresentModes:      1,
		SamplerAnisotropy: true,
	}
}

func TestEvaluateAdapter(t *testing.T) {
	cfg := DefaultConfig("test")

	indices, reasons := usableReport().Evaluate(&cfg)
	if len(reasons) != 0 {
		t.Fatalf("usable adapter rejected: %v", reasons)
	}
	if indices != (QueueFamilyIndices{0, 0, 0}) {
		t.Errorf("indices %s", indices)
	}

	tests := []struct {
		name   string
		modify func(*AdapterReport, *Config)
		reason string
	}{
		{"swapchain", func(r *AdapterReport, c *Config) { r.Extensions = nil }, "missing extension " + SwapchainExtension},
		{"formats", func(r *AdapterReport, c *Config) { r.SurfaceFormats = 0 }, "no surface formats"},
		{"modes", func(r *AdapterReport, c *Config) { r.PresentModes = 0 }, "no present modes"},
		{"anisotropy", func(r *AdapterReport, c *Config) { r.SamplerAnisotropy = false }, "sampler anisotropy"},
		{"queues", func(r *AdapterReport, c *Config) { r.QueueFamilies[0].Present = false }, "present capable"},
		{"extra extension", func(r *AdapterReport, c *Config) { c.DeviceExtensions = append(c.DeviceExtensions, "VK_EXT_missing") }, "VK_EXT_missing"},
	}
	for _, test := range tests {
		r := usableReport()
		c := DefaultConfig("test")
		test.modify(r, &c)
		_, reasons := r.Evaluate(&c)
		if !strings.Contains(strings.Join(reasons, "; "), test.reason) {
			t.Errorf("%s: reasons %v do not mention %q", test.name, reasons, test.reason)
		}
	}

	cfg.RequireSamplerAnisotropy = false
	r := usableReport()
	r.SamplerAnisotropy = false
	if _, reasons := r.Evaluate(&cfg); len(reasons) != 0 {
		t.Errorf("anisotropy checked although not required: %v", reasons)
	}
}

func TestEvaluateHeadlessAdapter(t *testing.T) {
	cfg := DefaultConfig("test")
	r := &AdapterReport{
		Name:              "offscreen",
		Headless:          true,
		QueueFamilies:     []QueueFamilyReport{{Index: 0, Flags: graphicsQueue, Count: 1}},
		SamplerAnisotropy: true,
	}
	if _, reasons := r.Evaluate(&cfg); len(reasons) != 0 {
		t.Errorf("headless adapter rejected: %v", reasons)
	}
}

func TestFormatRejections(t *testing.T) {
	if s := formatRejections(nil); s != "no adapters found" {
		t.Errorf("got %q", s)
	}
	s := formatRejections([]rejection{{"a", []string{"x", "y"}}, {"b", []string{"z"}}})
	if s != "a: x, y; b: z" {
		t.Errorf("got %q", s)
	}
}
