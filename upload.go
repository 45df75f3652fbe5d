package vkframe

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Uploader moves data between host memory and device local resources
// through short lived staging buffers. Every operation is submitted on the
// transfer queue and waited on before it returns, so a resource is ready for
// use, and its staging buffer already destroyed, once the call completes.
type Uploader struct {
	Device *Device
	Queue  *Queue
	Pool   *CommandPool
}

// CreateUploader creates an uploader with its own transient command pool on
// the transfer queue family
func (d *Device) CreateUploader() (*Uploader, error) {
	pool, err := d.CreateCommandPool(d.QueueFamilies.Transfer, true)
	if err != nil {
		return nil, errors.Wrap(err, "create upload command pool")
	}
	return &Uploader{
		Device: d,
		Queue:  d.TransferQueue,
		Pool:   pool,
	}, nil
}

// OneShot records fn into a fresh command buffer, submits it and blocks
// until the device has finished executing it.
func (u *Uploader) OneShot(fn func(cmd *CommandBuffer) error) error {
	cmd, err := u.Pool.AllocateBuffer()
	if err != nil {
		return errors.Wrap(err, "allocate one shot command buffer")
	}
	defer u.Pool.FreeBuffer(cmd)
	defer cmd.discardLayouts()

	err = cmd.BeginOneTime()
	if err != nil {
		return errors.Wrap(err, "begin one shot command buffer")
	}

	err = fn(cmd)
	if err != nil {
		return err
	}

	err = cmd.End()
	if err != nil {
		return errors.Wrap(err, "end one shot command buffer")
	}

	fence, err := u.Device.CreateFence(false)
	if err != nil {
		return errors.Wrap(err, "create one shot fence")
	}
	defer fence.Destroy()

	err = u.Queue.SubmitWithFence(fence, cmd)
	if err != nil {
		return errors.Wrap(err, "submit one shot command buffer")
	}

	err = fence.Wait(vk.MaxUint64)
	if err != nil {
		return errors.Wrap(err, "wait for one shot command buffer")
	}
	cmd.commitLayouts()
	return nil
}

// staging creates a host visible buffer holding data
func (u *Uploader) staging(size uint64, usage vk.BufferUsageFlagBits, data []byte) (*Buffer, *DeviceMemory, error) {
	buffer, memory, err := u.Device.CreateBuffer(size, vk.BufferUsageFlags(usage), HostVisibleCoherent)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create staging buffer")
	}
	if data != nil {
		err = memory.MapCopyUnmap(data)
		if err != nil {
			buffer.Destroy()
			memory.Destroy()
			return nil, nil, errors.Wrap(err, "fill staging buffer")
		}
	}
	return buffer, memory, nil
}

// UploadBuffer copies data into the start of dst, dst must have been created
// with the transfer destination usage
func (u *Uploader) UploadBuffer(dst *Buffer, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if uint64(len(data)) > dst.Size {
		return errors.Errorf("upload of %d bytes exceeds buffer of %d", len(data), dst.Size)
	}

	staging, memory, err := u.staging(uint64(len(data)), vk.BufferUsageTransferSrcBit, data)
	if err != nil {
		return err
	}
	defer memory.Destroy()
	defer staging.Destroy()

	return u.OneShot(func(cmd *CommandBuffer) error {
		cmd.CmdCopyBuffer(staging, dst, uint64(len(data)))
		return nil
	})
}

// UploadImage fills every mip level of dst, levels[i] holding the tightly
// packed pixels of level i. The image ends up in the shader read only layout.
func (u *Uploader) UploadImage(dst *Image, levels ...[]byte) error {
	if len(levels) == 0 {
		return errors.New("upload image: no pixel data")
	}
	if uint32(len(levels)) > dst.MipLevels {
		return errors.Errorf("upload image: %d levels for an image with %d", len(levels), dst.MipLevels)
	}

	var total uint64
	offsets := make([]uint64, len(levels))
	for i, level := range levels {
		want := dst.ByteSize(uint32(i))
		if uint64(len(level)) != want {
			return errors.Errorf("upload image: level %d has %d bytes, expected %d", i, len(level), want)
		}
		offsets[i] = total
		total += want
	}

	staging, memory, err := u.staging(total, vk.BufferUsageTransferSrcBit, nil)
	if err != nil {
		return err
	}
	defer memory.Destroy()
	defer staging.Destroy()

	_, err = memory.Map()
	if err != nil {
		return errors.Wrap(err, "map staging buffer")
	}
	mapped := memory.Bytes()
	for i, level := range levels {
		copy(mapped[offsets[i]:], level)
	}
	memory.Unmap()

	return u.OneShot(func(cmd *CommandBuffer) error {
		err := cmd.TransitionImageLayout(dst, vk.ImageLayoutTransferDstOptimal)
		if err != nil {
			return err
		}
		regions := make([]vk.BufferImageCopy, len(levels))
		for i := range levels {
			regions[i] = imageCopyRegion(dst, uint32(i), offsets[i])
		}
		vk.CmdCopyBufferToImage(cmd.VK(), staging.VKBuffer, dst.VKImage, vk.ImageLayoutTransferDstOptimal,
			uint32(len(regions)), regions)
		return cmd.TransitionImageLayout(dst, vk.ImageLayoutShaderReadOnlyOptimal)
	})
}

// DownloadBuffer reads back the full contents of src, which must have been
// created with the transfer source usage
func (u *Uploader) DownloadBuffer(src *Buffer) ([]byte, error) {
	staging, memory, err := u.staging(src.Size, vk.BufferUsageTransferDstBit, nil)
	if err != nil {
		return nil, err
	}
	defer memory.Destroy()
	defer staging.Destroy()

	err = u.OneShot(func(cmd *CommandBuffer) error {
		cmd.CmdCopyBuffer(src, staging, src.Size)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return readBack(memory, src.Size)
}

// DownloadImage reads back one mip level of src. The image must be in the
// shader read only layout and is returned to it afterwards.
func (u *Uploader) DownloadImage(src *Image, level uint32) ([]byte, error) {
	if level >= src.MipLevels {
		return nil, errors.Errorf("download image: level %d of %d", level, src.MipLevels)
	}
	size := src.ByteSize(level)

	staging, memory, err := u.staging(size, vk.BufferUsageTransferDstBit, nil)
	if err != nil {
		return nil, err
	}
	defer memory.Destroy()
	defer staging.Destroy()

	err = u.OneShot(func(cmd *CommandBuffer) error {
		err := cmd.TransitionImageLayout(src, vk.ImageLayoutTransferSrcOptimal)
		if err != nil {
			return err
		}
		region := imageCopyRegion(src, level, 0)
		vk.CmdCopyImageToBuffer(cmd.VK(), src.VKImage, vk.ImageLayoutTransferSrcOptimal, staging.VKBuffer,
			1, []vk.BufferImageCopy{region})
		return cmd.TransitionImageLayout(src, vk.ImageLayoutShaderReadOnlyOptimal)
	})
	if err != nil {
		return nil, err
	}
	return readBack(memory, size)
}

// Destroy releases the upload command pool
func (u *Uploader) Destroy() {
	u.Pool.Destroy()
}

func imageCopyRegion(img *Image, level uint32, offset uint64) vk.BufferImageCopy {
	e := mipExtent(img.Extent, level)
	return vk.BufferImageCopy{
		BufferOffset:      vk.DeviceSize(offset),
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     img.Aspect(),
			MipLevel:       level,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{Width: e.Width, Height: e.Height, Depth: 1},
	}
}

func readBack(memory *DeviceMemory, size uint64) ([]byte, error) {
	_, err := memory.Map()
	if err != nil {
		return nil, errors.Wrap(err, "map read back buffer")
	}
	ret := make([]byte, size)
	copy(ret, memory.Bytes())
	memory.Unmap()
	return ret, nil
}
