package vkframe

import (
	"fmt"
	"log"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Device is the logical device together with the adapter it was created
// from and the queues used for each class of work. The queue family choice
// is made once, during creation.
type Device struct {
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device

	QueueFamilies QueueFamilyIndices
	GraphicsQueue *Queue
	PresentQueue  *Queue
	TransferQueue *Queue

	anisotropy bool
}

// CreateDevice selects the first adapter able to render and present to
// surface under cfg, and creates the logical device and its queues.
func CreateDevice(instance *Instance, surface vk.Surface, cfg *Config) (*Device, error) {
	if surface == vk.NullSurface {
		return nil, errors.New("create device: no surface")
	}
	return createDevice(instance, surface, cfg)
}

// CreateHeadlessDevice creates a device usable for transfers without any
// presentation support.
func CreateHeadlessDevice(instance *Instance, cfg *Config) (*Device, error) {
	return createDevice(instance, vk.NullSurface, cfg)
}

func createDevice(instance *Instance, surface vk.Surface, cfg *Config) (*Device, error) {
	pdevice, indices, err := selectAdapter(instance, surface, cfg)
	if err != nil {
		return nil, err
	}

	log.Printf("using adapter %s with queue families %s", pdevice, indices)

	extensions := cfg.DeviceExtensions
	if surface == vk.NullSurface {
		extensions = withoutString(extensions, SwapchainExtension)
	}

	families := indices.Unique()
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for j, index := range families {
		queueCreateInfos[j] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uint32(index),
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	var features vk.PhysicalDeviceFeatures
	anisotropy := cfg.RequireSamplerAnisotropy && pdevice.SupportsSamplerAnisotropy()
	if anisotropy {
		features.SamplerAnisotropy = vk.True
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
	}

	if cfg.Validation {
		deviceCreateInfo.EnabledLayerCount = uint32(len(cfg.ValidationLayers))
		deviceCreateInfo.PpEnabledLayerNames = safeStrings(cfg.ValidationLayers)
	}

	var ldevice vk.Device
	err = vkResult(vk.CreateDevice(pdevice.VKPhysicalDevice, &deviceCreateInfo, nil, &ldevice),
		ErrDeviceCreationFailed, pdevice.DeviceName)
	if err != nil {
		return nil, err
	}

	d := &Device{
		PhysicalDevice: pdevice,
		VKDevice:       ldevice,
		QueueFamilies:  indices,
		anisotropy:     anisotropy,
	}
	d.GraphicsQueue = d.GetQueue(indices.Graphics)
	d.PresentQueue = d.GetQueue(indices.Present)
	d.TransferQueue = d.GetQueue(indices.Transfer)

	return d, nil
}

func selectAdapter(instance *Instance, surface vk.Surface, cfg *Config) (*PhysicalDevice, QueueFamilyIndices, error) {
	adapters, err := instance.PhysicalDevices()
	if err != nil {
		return nil, QueueFamilyIndices{}, errors.Wrap(err, "enumerate adapters")
	}

	var rejected []rejection
	for _, a := range adapters {
		report, err := a.Report(surface)
		if err != nil {
			rejected = append(rejected, rejection{name: a.DeviceName, reasons: []string{err.Error()}})
			continue
		}
		indices, reasons := report.Evaluate(cfg)
		if len(reasons) == 0 {
			return a, indices, nil
		}
		rejected = append(rejected, rejection{name: a.DeviceName, reasons: reasons})
	}

	return nil, QueueFamilyIndices{}, errors.Wrap(ErrNoSuitableAdapter, formatRejections(rejected))
}

func (d *Device) Destroy() {
	vk.DestroyDevice(d.VKDevice, nil)
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.PhysicalDevice)
}

// WaitIdle blocks until the device has finished all submitted work
func (d *Device) WaitIdle() error {
	return errors.Wrap(vk.Error(vk.DeviceWaitIdle(d.VKDevice)), "wait for device idle")
}

// AnisotropyEnabled reports whether sampler anisotropy was enabled on this device
func (d *Device) AnisotropyEnabled() bool {
	return d.anisotropy
}

func (d *Device) GetQueue(family int) *Queue {
	var vkq vk.Queue

	vk.GetDeviceQueue(d.VKDevice, uint32(family), 0, &vkq)

	var queue Queue
	queue.FamilyIndex = family
	queue.Device = d
	queue.VKQueue = vkq

	return &queue
}
