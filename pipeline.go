package vkframe

import (
	"sort"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

type PipelineLayout struct {
	Device           *Device
	VKPipelineLayout vk.PipelineLayout
}

func (p *PipelineLayout) Destroy() {
	vk.DestroyPipelineLayout(p.Device.VKDevice, p.VKPipelineLayout, nil)
}

// CreatePipelineLayout creates a pipeline layout from descriptor set layouts
// and optional push constant ranges
func (d *Device) CreatePipelineLayout(descriptorSetLayouts []*DescriptorSetLayout, pushConstants []vk.PushConstantRange) (*PipelineLayout, error) {
	l := make([]vk.DescriptorSetLayout, len(descriptorSetLayouts))
	for i, dsl := range descriptorSetLayouts {
		l[i] = dsl.VKDescriptorSetLayout
	}

	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(l)),
		PSetLayouts:            l,
		PushConstantRangeCount: uint32(len(pushConstants)),
		PPushConstantRanges:    pushConstants,
	}

	var pipelineLayout vk.PipelineLayout
	err := vk.Error(vk.CreatePipelineLayout(d.VKDevice, &pipelineLayoutCreateInfo, nil, &pipelineLayout))
	if err != nil {
		return nil, errors.Wrap(err, "create pipeline layout")
	}

	return &PipelineLayout{Device: d, VKPipelineLayout: pipelineLayout}, nil
}

type PipelineCache struct {
	Device          *Device
	VKPipelineCache vk.PipelineCache
}

func (d *Device) CreatePipelineCache() (*PipelineCache, error) {
	pipelineCacheCreate := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}

	var pipelineCache vk.PipelineCache
	err := vk.Error(vk.CreatePipelineCache(d.VKDevice, &pipelineCacheCreate, nil, &pipelineCache))
	if err != nil {
		return nil, errors.Wrap(err, "create pipeline cache")
	}
	return &PipelineCache{Device: d, VKPipelineCache: pipelineCache}, nil
}

func (p *PipelineCache) Destroy() {
	vk.DestroyPipelineCache(p.Device.VKDevice, p.VKPipelineCache, nil)
}

// GraphicsPipelineConfig is a utility object to ease construction of graphics
// pipelines. A config outlives the pipelines built from it: pipelines are
// built again from the same config whenever the swapchain is rebuilt.
type GraphicsPipelineConfig struct {
	Device       *Device
	ShaderStages []vk.PipelineShaderStageCreateInfo

	PipelineLayout *PipelineLayout

	// PrimitiveTopology defaults to vk.PrimitiveTopologyTriangleList
	PrimitiveTopology vk.PrimitiveTopology

	// PolygonMode defaults to vk.PolygonModeFill
	PolygonMode vk.PolygonMode

	// LineWidth of rasterized lines, defaults to 1.0
	LineWidth float32

	// CullMode defaults to vk.CullModeBackBit
	CullMode vk.CullModeFlagBits

	// FrontFace defaults to vk.FrontFaceCounterClockwise
	FrontFace vk.FrontFace

	// DynamicState lists the states set from the command buffer, defaults to none
	DynamicState []vk.DynamicState

	// BlendAttachments defaults to a single attachment without blending
	BlendAttachments []vk.PipelineColorBlendAttachmentState

	// DepthTestEnable and DepthWriteEnable default to true, they are ignored
	// when the render pass has no depth attachment
	DepthTestEnable  bool
	DepthWriteEnable bool

	VertexInputBindingDescriptions   []vk.VertexInputBindingDescription
	VertexInputAttributeDescriptions []vk.VertexInputAttributeDescription

	toDestroy []IDestructable
}

// CreateGraphicsPipelineConfig creates a new config object
func (d *Device) CreateGraphicsPipelineConfig() *GraphicsPipelineConfig {
	return &GraphicsPipelineConfig{
		Device:            d,
		PrimitiveTopology: vk.PrimitiveTopologyTriangleList,
		PolygonMode:       vk.PolygonModeFill,
		LineWidth:         1.0,
		CullMode:          vk.CullModeBackBit,
		FrontFace:         vk.FrontFaceCounterClockwise,
		DepthTestEnable:   true,
		DepthWriteEnable:  true,
	}
}

// Destroy destroys the shader modules loaded by the config
func (g *GraphicsPipelineConfig) Destroy() {
	for _, d := range g.toDestroy {
		d.Destroy()
	}
	g.toDestroy = nil
}

// AddShaderStage loads a shader through loader and adds it as stage
func (g *GraphicsPipelineConfig) AddShaderStage(loader ShaderLoader, name, entryPoint string, stage vk.ShaderStageFlagBits) error {
	shader, err := g.Device.LoadShaderModule(loader, name)
	if err != nil {
		return err
	}
	g.ShaderStages = append(g.ShaderStages, shader.VKPipelineShaderStageCreateInfo(stage, entryPoint))
	g.toDestroy = append(g.toDestroy, shader)
	return nil
}

// SetPipelineLayout sets the pipeline layout
func (g *GraphicsPipelineConfig) SetPipelineLayout(layout *PipelineLayout) *GraphicsPipelineConfig {
	g.PipelineLayout = layout
	return g
}

// SetCullMode sets the cull mode
func (g *GraphicsPipelineConfig) SetCullMode(mode vk.CullModeFlagBits) *GraphicsPipelineConfig {
	g.CullMode = mode
	return g
}

// SetDynamicState specifies which part of the pipeline may be changed with command buffer commands
func (g *GraphicsPipelineConfig) SetDynamicState(states ...vk.DynamicState) *GraphicsPipelineConfig {
	g.DynamicState = states
	return g
}

// AddVertexDescriptor adds the binding and attributes of v
func (g *GraphicsPipelineConfig) AddVertexDescriptor(v VertexDescriptor) *GraphicsPipelineConfig {
	g.VertexInputBindingDescriptions = append(g.VertexInputBindingDescriptions, v.BindingDescription())
	g.VertexInputAttributeDescriptions = append(g.VertexInputAttributeDescriptions, v.AttributeDescriptions()...)
	return g
}

// VKGraphicsPipelineCreateInfo builds the create info for drawing into
// renderPass with a viewport covering extent
func (g *GraphicsPipelineConfig) VKGraphicsPipelineCreateInfo(renderPass *RenderPass, extent vk.Extent2D) (vk.GraphicsPipelineCreateInfo, error) {
	if len(g.ShaderStages) == 0 {
		return vk.GraphicsPipelineCreateInfo{}, errors.New("pipeline has no shader stages")
	}
	if g.PipelineLayout == nil {
		return vk.GraphicsPipelineCreateInfo{}, errors.New("pipeline has no layout")
	}

	vertexInputState := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(g.VertexInputBindingDescriptions)),
		PVertexBindingDescriptions:      g.VertexInputBindingDescriptions,
		VertexAttributeDescriptionCount: uint32(len(g.VertexInputAttributeDescriptions)),
		PVertexAttributeDescriptions:    g.VertexInputAttributeDescriptions,
	}

	inputAssemblyState := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               g.PrimitiveTopology,
		PrimitiveRestartEnable: vk.False,
	}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		PViewports: []vk.Viewport{{
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MinDepth: 0.0,
			MaxDepth: 1.0,
		}},
		ScissorCount: 1,
		PScissors:    []vk.Rect2D{{Extent: extent}},
	}

	rasterState := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             g.PolygonMode,
		LineWidth:               g.LineWidth,
		CullMode:                vk.CullModeFlags(g.CullMode),
		FrontFace:               g.FrontFace,
		DepthBiasEnable:         vk.False,
	}

	multisampleState := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:  vk.False,
		RasterizationSamples: vk.SampleCount1Bit,
	}

	blendAttachments := g.BlendAttachments
	if len(blendAttachments) == 0 {
		blendAttachments = []vk.PipelineColorBlendAttachmentState{{
			ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
			BlendEnable:    vk.False,
		}}
	}

	colorBlendState := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: uint32(len(blendAttachments)),
		PAttachments:    blendAttachments,
	}

	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(g.DynamicState)),
		PDynamicStates:    g.DynamicState,
	}

	depth := renderPass.HasDepth()
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vkBool(depth && g.DepthTestEnable),
		DepthWriteEnable:      vkBool(depth && g.DepthWriteEnable),
		DepthCompareOp:        vk.CompareOpLess,
		DepthBoundsTestEnable: vk.False,
		MinDepthBounds:        0.0,
		MaxDepthBounds:        1.0,
		StencilTestEnable:     vk.False,
	}

	return vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(g.ShaderStages)),
		PStages:             g.ShaderStages,
		PVertexInputState:   &vertexInputState,
		PInputAssemblyState: &inputAssemblyState,
		PDepthStencilState:  &depthStencil,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterState,
		PMultisampleState:   &multisampleState,
		PColorBlendState:    &colorBlendState,
		PDynamicState:       &dynamicState,
		Layout:              g.PipelineLayout.VKPipelineLayout,
		RenderPass:          renderPass.VKRenderPass,
		Subpass:             0,
	}, nil
}

// Pipeline is a graphics pipeline built from a GraphicsPipelineConfig
type Pipeline struct {
	Device     *Device
	Name       string
	VKPipeline vk.Pipeline
	Layout     *PipelineLayout
}

// Bind binds the pipeline for drawing
func (p *Pipeline) Bind(cmd CommandEncoder) {
	vk.CmdBindPipeline(cmd.VK(), vk.PipelineBindPointGraphics, p.VKPipeline)
}

// BindDescriptorSets binds sets starting at set 0 through the pipeline's layout
func (p *Pipeline) BindDescriptorSets(cmd CommandEncoder, sets ...*DescriptorSet) {
	vkSets := make([]vk.DescriptorSet, len(sets))
	for i := range sets {
		vkSets[i] = sets[i].VKDescriptorSet
	}
	vk.CmdBindDescriptorSets(cmd.VK(), vk.PipelineBindPointGraphics,
		p.Layout.VKPipelineLayout, 0, uint32(len(vkSets)), vkSets, 0, nil)
}

func (p *Pipeline) Destroy() {
	vk.DestroyPipeline(p.Device.VKDevice, p.VKPipeline, nil)
}

// CreateGraphicsPipelines builds every config in one call
func (d *Device) CreateGraphicsPipelines(cache *PipelineCache, renderPass *RenderPass, extent vk.Extent2D, configs map[string]*GraphicsPipelineConfig) (map[string]*Pipeline, error) {
	if len(configs) == 0 {
		return map[string]*Pipeline{}, nil
	}

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]vk.GraphicsPipelineCreateInfo, len(names))
	for i, name := range names {
		info, err := configs[name].VKGraphicsPipelineCreateInfo(renderPass, extent)
		if err != nil {
			return nil, errors.Wrapf(err, "graphics pipeline config '%s'", name)
		}
		infos[i] = info
	}

	var vkCache vk.PipelineCache
	if cache != nil {
		vkCache = cache.VKPipelineCache
	}

	pipelines := make([]vk.Pipeline, len(infos))
	err := vk.Error(vk.CreateGraphicsPipelines(d.VKDevice, vkCache, uint32(len(infos)), infos, nil, pipelines))
	if err != nil {
		return nil, errors.Wrap(err, "create graphics pipelines")
	}

	ret := make(map[string]*Pipeline, len(names))
	for i, name := range names {
		ret[name] = &Pipeline{
			Device:     d,
			Name:       name,
			VKPipeline: pipelines[i],
			Layout:     configs[name].PipelineLayout,
		}
	}
	return ret, nil
}

func vkBool(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}
