package vulkan

import (
	"sort"

	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

// PipelineLayout orders set layouts by set number. Set numbers no layout
// claims are filled with the device's empty layout.
type PipelineLayout struct {
	object
	device  *Device
	layout  vk.PipelineLayout
	layouts []*DescriptorSetLayout
}

// setLayouts returns the native layouts indexed by set number.
func setLayouts(d *Device, layouts []*DescriptorSetLayout) []vk.DescriptorSetLayout {
	if len(layouts) == 0 {
		return nil
	}
	var count uint32
	for _, l := range layouts {
		count = max(count, l.set+1)
	}
	out := make([]vk.DescriptorSetLayout, count)
	for i := range out {
		out[i] = vk.DescriptorSetLayout(vk.NullHandle)
	}
	for _, l := range layouts {
		out[l.set] = l.layout
	}
	for i := range out {
		if out[i] == vk.DescriptorSetLayout(vk.NullHandle) {
			out[i] = d.emptySetLayout()
		}
	}
	return out
}

func newPipelineLayout(d *Device, layouts []*DescriptorSetLayout) *PipelineLayout {
	l := &PipelineLayout{device: d, layouts: layouts}
	native := setLayouts(d, layouts)
	ret := vk.CreatePipelineLayout(d.device, &vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(native)),
		PSetLayouts:    native,
	}, nil, &l.layout)
	check(d.log, componentPipeline, ret, "failed to create pipeline layout")
	return l
}

func (l *PipelineLayout) release() {
	vk.DestroyPipelineLayout(l.device.device, l.layout, nil)
}

func (l *PipelineLayout) Layouts() []glal.DescriptorSetLayout {
	out := make([]glal.DescriptorSetLayout, len(l.layouts))
	for i, sl := range l.layouts {
		out[i] = sl
	}
	return out
}

type Pipeline struct {
	object
	device    *Device
	pipeline  vk.Pipeline
	bindPoint vk.PipelineBindPoint
	desc      glal.PipelineDesc
	layout    *PipelineLayout
	strides   map[uint32]uint32
}

func newPipeline(d *Device, desc glal.PipelineDesc) *Pipeline {
	p := &Pipeline{
		device: d,
		desc:   desc,
		layout: resolve(d.log, d.pipelineLayouts, desc.Layout, glal.KindPipelineLayout),
	}
	if desc.Type == glal.PipelineRayTracing {
		d.log.Fatalf(componentPipeline, "ray tracing pipelines not supported")
	}
	p.bindPoint = translate(d.log, componentPipeline, vkBindPoints, desc.Type, "pipeline type")

	stages := make([]vk.PipelineShaderStageCreateInfo, len(desc.Stages))
	for i, s := range desc.Stages {
		m := resolve(d.log, d.shaders, s.Module, glal.KindShaderModule)
		stages[i] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFlagBits(shaderStages(d.log, s.Stage)),
			Module: m.module,
			PName:  safeString("main"),
		}
	}

	pipelines := []vk.Pipeline{vk.NullPipeline}
	var ret vk.Result
	if desc.Type == glal.PipelineCompute {
		ret = vk.CreateComputePipelines(d.device, vk.PipelineCache(vk.NullHandle), 1, []vk.ComputePipelineCreateInfo{{
			SType:  vk.StructureTypeComputePipelineCreateInfo,
			Stage:  stages[0],
			Layout: p.layout.layout,
		}}, nil, pipelines)
	} else {
		p.strides = glal.BindingStrides(desc)
		info := p.graphicsInfo(stages)
		ret = vk.CreateGraphicsPipelines(d.device, vk.PipelineCache(vk.NullHandle), 1, []vk.GraphicsPipelineCreateInfo{info}, nil, pipelines)
	}
	check(d.log, componentPipeline, ret, "failed to create pipeline")
	p.pipeline = pipelines[0]
	return p
}

// vertexInput derives the binding and attribute descriptions.
func (p *Pipeline) vertexInput() vk.PipelineVertexInputStateCreateInfo {
	log := p.device.log
	instanced := make(map[uint32]bool)
	for _, b := range p.desc.VertexBindings {
		instanced[b.Binding] = b.Instance
	}
	numbers := make([]uint32, 0, len(p.strides))
	for binding := range p.strides {
		numbers = append(numbers, binding)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	bindings := make([]vk.VertexInputBindingDescription, len(numbers))
	for i, n := range numbers {
		rate := vk.VertexInputRateVertex
		if instanced[n] {
			rate = vk.VertexInputRateInstance
		}
		bindings[i] = vk.VertexInputBindingDescription{Binding: n, Stride: p.strides[n], InputRate: rate}
	}
	attributes := make([]vk.VertexInputAttributeDescription, len(p.desc.VertexAttributes))
	for i, a := range p.desc.VertexAttributes {
		attributes[i] = vk.VertexInputAttributeDescription{
			Location: a.Location,
			Binding:  a.Binding,
			Format:   vertexFormat(log, a),
			Offset:   a.Offset,
		}
	}
	return vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}
}

func bool32(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}

// graphicsInfo fills the fixed function state. Viewport and scissor are
// dynamic and set at BeginRenderPass.
func (p *Pipeline) graphicsInfo(stages []vk.PipelineShaderStageCreateInfo) vk.GraphicsPipelineCreateInfo {
	d, desc := p.device, p.desc
	if len(desc.ColorFormats) == 0 && desc.DepthFormat == glal.FormatUndefined {
		d.log.Fatalf(componentPipeline, "graphics pipeline declares no attachment formats")
	}
	vertexInput := p.vertexInput()
	assembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               translate(d.log, componentPipeline, vkTopologies, desc.Topology, "topology"),
		PrimitiveRestartEnable: bool32(desc.PrimitiveRestart),
	}
	viewport := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(vk.CullModeNone),
		FrontFace:   vk.FrontFaceClockwise,
		LineWidth:   1.0,
	}
	multisample := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}
	depth := vk.PipelineDepthStencilStateCreateInfo{
		SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:  bool32(desc.DepthTest),
		DepthWriteEnable: bool32(desc.DepthWrite),
		DepthCompareOp:   vk.CompareOpLess,
		MaxDepthBounds:   1.0,
	}
	attachments := make([]vk.PipelineColorBlendAttachmentState, len(desc.ColorFormats))
	for i := range attachments {
		attachments[i] = vk.PipelineColorBlendAttachmentState{
			BlendEnable:         bool32(desc.BlendEnable),
			SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
			DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
			ColorBlendOp:        vk.BlendOpAdd,
			SrcAlphaBlendFactor: vk.BlendFactorOne,
			DstAlphaBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
			AlphaBlendOp:        vk.BlendOpAdd,
			ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
				vk.ColorComponentBBit | vk.ColorComponentABit),
		}
	}
	blend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
	}
	dynamic := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamic)),
		PDynamicStates:    dynamic,
	}
	return vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &assembly,
		PViewportState:      &viewport,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisample,
		PDepthStencilState:  &depth,
		PColorBlendState:    &blend,
		PDynamicState:       &dynamicState,
		Layout:              p.layout.layout,
		RenderPass:          d.passes.compatible(desc.ColorFormats, desc.DepthFormat),
		Subpass:             0,
	}
}

func (p *Pipeline) release() {
	vk.DestroyPipeline(p.device.device, p.pipeline, nil)
}

func (p *Pipeline) Type() glal.PipelineType {
	return p.desc.Type
}

func (p *Pipeline) Layout() glal.PipelineLayout {
	return p.layout
}

func (p *Pipeline) VertexAttributes() []glal.VertexAttribute {
	return p.desc.VertexAttributes
}

func (p *Pipeline) VertexStride() uint32 {
	return p.strides[0]
}

func (p *Pipeline) Topology() glal.PrimitiveTopology {
	return p.desc.Topology
}

func (p *Pipeline) DepthTest() bool {
	return p.desc.DepthTest
}

func (p *Pipeline) DepthWrite() bool {
	return p.desc.DepthWrite
}

func (p *Pipeline) BlendEnable() bool {
	return p.desc.BlendEnable
}
