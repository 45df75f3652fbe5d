package vkframe

import (
	vk "github.com/vulkan-go/vulkan"
)

// IDestructable is anything holding device objects which must be released
// explicitly
type IDestructable interface {
	Destroy()
}

// BufferObject is host data destined for a GPU buffer
type BufferObject interface {
	Bytes() []byte
}

type IndexSource interface {
	BufferObject
	IndexType() vk.IndexType
}

// VertexDescriptor describes how vertex data is fed to a vertex shader
type VertexDescriptor interface {
	BindingDescription() vk.VertexInputBindingDescription
	AttributeDescriptions() []vk.VertexInputAttributeDescription
}
