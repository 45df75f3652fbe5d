package vkframe

import (
	"log"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// InitializeHeadless loads the system vulkan loader without any window
// system, it is enough for transfer and compute work.
func InitializeHeadless() error {
	err := vk.SetDefaultGetInstanceProcAddr()
	if err != nil {
		return err
	}
	return vk.Init()
}

// InitializeWithProcAddr loads vulkan through the supplied loader entry point,
// typically glfw.GetVulkanGetInstanceProcAddress()
func InitializeWithProcAddr(procAddr unsafe.Pointer) error {
	vk.SetGetInstanceProcAddr(procAddr)
	return vk.Init()
}

// SupportedLayers returns a list of supported layers for use by Vulkan
// this may crash if Vulkan has not been initialized previously
func SupportedLayers() ([]string, error) {
	var instanceLayerLen uint32
	err := vk.Error(vk.EnumerateInstanceLayerProperties(&instanceLayerLen, nil))
	if err != nil {
		return nil, err
	}
	instanceLayer := make([]vk.LayerProperties, instanceLayerLen)
	err = vk.Error(vk.EnumerateInstanceLayerProperties(&instanceLayerLen, instanceLayer))
	if err != nil {
		return nil, err
	}
	layerNames := make([]string, 0, len(instanceLayer))
	for _, layer := range instanceLayer {
		layer.Deref()
		layerNames = append(layerNames, vk.ToString(layer.LayerName[:]))
	}
	return layerNames, nil
}

// SupportedExtensions returns a list of supported instance extensions
func SupportedExtensions() ([]string, error) {
	var instanceExtLen uint32
	err := vk.Error(vk.EnumerateInstanceExtensionProperties("", &instanceExtLen, nil))
	if err != nil {
		return nil, err
	}
	instanceExt := make([]vk.ExtensionProperties, instanceExtLen)
	err = vk.Error(vk.EnumerateInstanceExtensionProperties("", &instanceExtLen, instanceExt))
	if err != nil {
		return nil, err
	}
	extNames := make([]string, 0, len(instanceExt))
	for _, ext := range instanceExt {
		ext.Deref()
		extNames = append(extNames, vk.ToString(ext.ExtensionName[:]))
	}
	return extNames, nil
}

// missing returns the entries of want which are not in have
func missing(want, have []string) []string {
	var ret []string
	for _, w := range want {
		if !containsString(have, w) {
			ret = append(ret, w)
		}
	}
	return ret
}

//Instance is an instance of the Vulkan subsystem
type Instance struct {
	//VKInstance is the native Vulkan instance object
	VKInstance vk.Instance

	debugCallback    vk.DebugReportCallback
	hasDebugCallback bool
}

// NewInstance creates the vulkan instance described by the config. The window
// system extensions are passed separately since they are only known once a
// window exists.
func (c *Config) NewInstance(windowExtensions []string) (*Instance, error) {
	layers := []string{}
	extensions := withExtensions(c.InstanceExtensions, windowExtensions...)

	if c.Validation {
		supported, err := SupportedLayers()
		if err != nil {
			return nil, errors.Wrap(err, "instance: enumerate layers")
		}
		if m := missing(c.ValidationLayers, supported); len(m) > 0 {
			return nil, errors.Errorf("instance: validation layers requested but not available: %v", m)
		}
		layers = append(layers, c.ValidationLayers...)
		extensions = withExtensions(extensions, "VK_EXT_debug_report")
	}

	supported, err := SupportedExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "instance: enumerate extensions")
	}
	if m := missing(extensions, supported); len(m) > 0 {
		return nil, errors.Errorf("instance: extensions not supported: %v", m)
	}

	apiVersion := c.APIVersion
	if apiVersion.Major < 1 {
		apiVersion.Major = 1
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         apiVersion.VKVersion(),
		ApplicationVersion: c.AppVersion.VKVersion(),
		PApplicationName:   safeString(c.AppName),
		PEngineName:        safeString(c.EngineName),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}

	instance := &Instance{}

	err = vk.Error(vk.CreateInstance(&createInfo, nil, &instance.VKInstance))
	if err != nil {
		return nil, errors.Wrap(err, "instance: create")
	}
	err = vk.InitInstance(instance.VKInstance)
	if err != nil {
		vk.DestroyInstance(instance.VKInstance, nil)
		return nil, errors.Wrap(err, "instance: load entry points")
	}

	if c.Validation {
		err = instance.SetDebugCallback(DefaultDebugCallback)
		if err != nil {
			log.Printf("unable to install debug callback: %v", err)
		}
	}

	return instance, nil
}

//PhysicalDevices returns a list of physical devices known to Vulkan
func (i *Instance) PhysicalDevices() ([]*PhysicalDevice, error) {
	var deviceCount uint32
	err := vk.Error(vk.EnumeratePhysicalDevices(i.VKInstance, &deviceCount, nil))
	if err != nil {
		return nil, err
	}

	if deviceCount == 0 {
		return nil, nil
	}

	devices := make([]vk.PhysicalDevice, deviceCount)
	err = vk.Error(vk.EnumeratePhysicalDevices(i.VKInstance, &deviceCount, devices))
	if err != nil {
		return nil, err
	}

	ret := make([]*PhysicalDevice, deviceCount)
	for i, device := range devices {
		ret[i] = newPhysicalDevice(device)
	}
	return ret, nil
}

// SetDebugCallback installs a debug report callback for errors and warnings
func (i *Instance) SetDebugCallback(callback vk.DebugReportCallbackFunc) error {
	var debugCallback vk.DebugReportCallback
	ret := vk.CreateDebugReportCallback(i.VKInstance, &vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: callback,
	}, nil, &debugCallback)
	err := vk.Error(ret)
	if err != nil {
		return err
	}
	i.debugCallback = debugCallback
	i.hasDebugCallback = true
	return nil
}

// DefaultDebugCallback - taken from github.com/vulkan-go/asche/
func DefaultDebugCallback(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		log.Printf("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		log.Printf("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		log.Printf("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		log.Printf("DEBUG: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		log.Printf("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}

// DestroySurface releases a surface created against this instance
func (i *Instance) DestroySurface(surface vk.Surface) {
	if surface != vk.NullSurface {
		vk.DestroySurface(i.VKInstance, surface, nil)
	}
}

func (i *Instance) Destroy() {
	if i.hasDebugCallback {
		vk.DestroyDebugReportCallback(i.VKInstance, i.debugCallback, nil)
	}
	vk.DestroyInstance(i.VKInstance, nil)
}
