package vkframe

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

type IndexSliceUint16 []uint16

func (i IndexSliceUint16) Bytes() []byte {
	if len(i) == 0 {
		return nil
	}
	size := len(i) * int(unsafe.Sizeof(uint16(1)))
	return ToBytes(unsafe.Pointer(&i[0]), size)
}

func (i IndexSliceUint16) IndexType() vk.IndexType {
	return vk.IndexTypeUint16
}

type IndexSliceUint32 []uint32

func (i IndexSliceUint32) Bytes() []byte {
	if len(i) == 0 {
		return nil
	}
	size := len(i) * int(unsafe.Sizeof(uint32(1)))
	return ToBytes(unsafe.Pointer(&i[0]), size)
}

func (i IndexSliceUint32) IndexType() vk.IndexType {
	return vk.IndexTypeUint32
}

// Float32Slice is raw vertex or uniform data
type Float32Slice []float32

func (f Float32Slice) Bytes() []byte {
	if len(f) == 0 {
		return nil
	}
	return ToBytes(unsafe.Pointer(&f[0]), len(f)*4)
}

// UploadIndices creates a device local index buffer holding src
func (r *ResourceManager) UploadIndices(src IndexSource) (*Buffer, error) {
	return r.CreateBufferWithData(src.Bytes(), vk.BufferUsageIndexBufferBit)
}

// UploadVertices creates a device local vertex buffer holding src
func (r *ResourceManager) UploadVertices(src BufferObject) (*Buffer, error) {
	return r.CreateBufferWithData(src.Bytes(), vk.BufferUsageVertexBufferBit)
}
