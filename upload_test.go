package vkframe

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

// gpuFixture is a headless device, tests using it are skipped on machines
// without a vulkan driver
type gpuFixture struct {
	instance  *Instance
	device    *Device
	uploader  *Uploader
	resources *ResourceManager
}

func newGPUFixture(t *testing.T) *gpuFixture {
	t.Helper()
	if err := InitializeHeadless(); err != nil {
		t.Skipf("no vulkan loader: %v", err)
	}

	cfg := DefaultConfig("test")
	cfg.RequireSamplerAnisotropy = false

	instance, err := cfg.NewInstance(nil)
	if err != nil {
		t.Skipf("no vulkan instance: %v", err)
	}
	device, err := CreateHeadlessDevice(instance, &cfg)
	if err != nil {
		instance.Destroy()
		t.Skipf("no usable adapter: %v", err)
	}
	uploader, err := device.CreateUploader()
	if err != nil {
		device.Destroy()
		instance.Destroy()
		t.Fatal(err)
	}

	f := &gpuFixture{
		instance:  instance,
		device:    device,
		uploader:  uploader,
		resources: device.CreateResourceManager(uploader),
	}
	t.Cleanup(f.destroy)
	return f
}

func (f *gpuFixture) destroy() {
	f.device.WaitIdle()
	f.resources.Destroy()
	f.uploader.Destroy()
	f.device.Destroy()
	f.instance.Destroy()
}

func TestUploadBufferRoundTrip(t *testing.T) {
	f := newGPUFixture(t)

	data := make([]byte, 4099)
	for i := range data {
		data[i] = byte(i * 7)
	}
	buffer, err := f.resources.CreateBufferWithData(data, vk.BufferUsageTransferSrcBit)
	if err != nil {
		t.Fatal(err)
	}

	got, err := f.uploader.DownloadBuffer(buffer)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("downloaded buffer differs from the upload")
	}
}

func TestUploadVerticesAndIndices(t *testing.T) {
	f := newGPUFixture(t)

	vertices := Float32Slice{-1, -1, 0, 1, -1, 0, 0, 1, 0}
	vb, err := f.resources.UploadVertices(vertices)
	if err != nil {
		t.Fatal(err)
	}
	if vb.Size != uint64(len(vertices)*4) {
		t.Errorf("vertex buffer of %d bytes", vb.Size)
	}

	indices := IndexSliceUint32{0, 1, 2}
	ib, err := f.resources.UploadIndices(indices)
	if err != nil {
		t.Fatal(err)
	}
	if ib.Size != 12 {
		t.Errorf("index buffer of %d bytes", ib.Size)
	}
}

func TestUploadTextureRoundTrip(t *testing.T) {
	f := newGPUFixture(t)

	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 16), uint8(y * 32), 0x40, 0xff})
		}
	}

	texture, err := f.resources.CreateTexture(img, true)
	if err != nil {
		t.Fatal(err)
	}
	if texture.Image.MipLevels != 5 {
		t.Errorf("%d mip levels, expected 5", texture.Image.MipLevels)
	}

	got, err := f.uploader.DownloadImage(texture.Image, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, img.Pix) {
		t.Error("downloaded base level differs from the upload")
	}

	last, err := f.uploader.DownloadImage(texture.Image, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(last) != 4 {
		t.Errorf("smallest level holds %d bytes", len(last))
	}

	if _, err := f.uploader.DownloadImage(texture.Image, 5); err == nil {
		t.Error("downloaded a level beyond the chain")
	}
}

func TestUniformRingWrites(t *testing.T) {
	f := newGPUFixture(t)

	ring, err := f.resources.CreateUniformRing(64, 3)
	if err != nil {
		t.Fatal(err)
	}
	if ring.Slots() != 3 {
		t.Fatalf("%d slots", ring.Slots())
	}
	align := f.device.PhysicalDevice.Limits().MinUniformBufferOffsetAlignment
	for i := 1; i < ring.Slots(); i++ {
		if ring.Offset(i)%uint64(align) != 0 {
			t.Errorf("slot %d at unaligned offset %d", i, ring.Offset(i))
		}
	}
	if err := ring.Write(2, make([]byte, 64)); err != nil {
		t.Error(err)
	}
	if err := ring.Write(0, make([]byte, 65)); err == nil {
		t.Error("wrote past the end of a slot")
	}
	if err := ring.Write(3, nil); err == nil {
		t.Error("wrote to a slot beyond the ring")
	}
}
