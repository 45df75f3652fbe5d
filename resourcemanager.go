package vkframe

import (
	"log"

	units "github.com/docker/go-units"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type resourceKind int

const (
	bufferResource resourceKind = iota
	imageResource
	viewResource
	samplerResource
	memoryResource
)

type resource struct {
	kind       resourceKind
	object     IDestructable
	size       uint64
	properties vk.MemoryPropertyFlags
}

// ResourceManager creates long lived buffers, images and samplers and keeps
// track of them and their memory. Everything it created is destroyed by
// Destroy, newest first.
type ResourceManager struct {
	Device   *Device
	Uploader *Uploader
	// MaxAnisotropy is used for texture samplers, clamped to the device limit
	MaxAnisotropy float32

	resources []resource
}

// CreateResourceManager creates a resource manager uploading through u
func (d *Device) CreateResourceManager(u *Uploader) *ResourceManager {
	return &ResourceManager{Device: d, Uploader: u, MaxAnisotropy: 1}
}

func (r *ResourceManager) track(kind resourceKind, object IDestructable) {
	r.resources = append(r.resources, resource{kind: kind, object: object})
}

func (r *ResourceManager) trackMemory(memory *DeviceMemory) {
	r.resources = append(r.resources, resource{
		kind:       memoryResource,
		object:     memory,
		size:       memory.Size,
		properties: memory.Properties,
	})
}

// CreateBuffer creates a buffer with its own memory
func (r *ResourceManager) CreateBuffer(size uint64, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (*Buffer, *DeviceMemory, error) {
	buffer, memory, err := r.Device.CreateBuffer(size, usage, properties)
	if err != nil {
		return nil, nil, err
	}
	r.trackMemory(memory)
	r.track(bufferResource, buffer)
	return buffer, memory, nil
}

// CreateBufferWithData creates a device local buffer and uploads data to it
func (r *ResourceManager) CreateBufferWithData(data []byte, usage vk.BufferUsageFlagBits) (*Buffer, error) {
	buffer, _, err := r.CreateBuffer(uint64(len(data)), vk.BufferUsageFlags(usage|vk.BufferUsageTransferDstBit), DeviceLocal)
	if err != nil {
		return nil, err
	}
	err = r.Uploader.UploadBuffer(buffer, data)
	if err != nil {
		return nil, errors.Wrap(err, "upload buffer data")
	}
	return buffer, nil
}

// CreateImage creates an image with its own memory
func (r *ResourceManager) CreateImage(opts ImageOptions, properties vk.MemoryPropertyFlags) (*Image, error) {
	image, memory, err := r.Device.CreateImage(opts, properties)
	if err != nil {
		return nil, err
	}
	r.trackMemory(memory)
	r.track(imageResource, image)
	return image, nil
}

func (r *ResourceManager) CreateImageView(image *Image) (*ImageView, error) {
	view, err := image.CreateImageView()
	if err != nil {
		return nil, err
	}
	r.track(viewResource, view)
	return view, nil
}

func (r *ResourceManager) CreateSampler(mipLevels uint32, maxAnisotropy float32) (*Sampler, error) {
	sampler, err := r.Device.CreateSampler(mipLevels, maxAnisotropy)
	if err != nil {
		return nil, err
	}
	r.track(samplerResource, sampler)
	return sampler, nil
}

// MemoryUsage returns the bytes allocated in host visible and in device
// local only memory
func (r *ResourceManager) MemoryUsage() (host, device uint64) {
	for _, res := range r.resources {
		if res.kind != memoryResource {
			continue
		}
		if res.properties&vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) != 0 {
			host += res.size
		} else {
			device += res.size
		}
	}
	return host, device
}

func (r *ResourceManager) LogDetails() {
	counts := make(map[resourceKind]int)
	for _, res := range r.resources {
		counts[res.kind]++
	}
	host, device := r.MemoryUsage()
	log.Printf("resources: %d buffers, %d images, %d views, %d samplers in %d allocations",
		counts[bufferResource], counts[imageResource], counts[viewResource], counts[samplerResource], counts[memoryResource])
	log.Printf("memory: %s host visible, %s device local", units.BytesSize(float64(host)), units.BytesSize(float64(device)))
}

// Destroy destroys every tracked resource, the device must be idle
func (r *ResourceManager) Destroy() {
	for i := len(r.resources) - 1; i >= 0; i-- {
		r.resources[i].object.Destroy()
	}
	r.resources = nil
}
