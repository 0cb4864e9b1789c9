package vulkan

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

type ShaderModule struct {
	object
	device *Device
	module vk.ShaderModule
	stage  glal.ShaderStage
}

func newShaderModule(d *Device, desc glal.ShaderModuleDesc) *ShaderModule {
	m := &ShaderModule{device: d, stage: desc.Stage}
	shaderStages(d.log, desc.Stage)
	ret := vk.CreateShaderModule(d.device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(desc.Code)),
		PCode:    desc.Words(),
	}, nil, &m.module)
	check(d.log, componentShader, ret, "failed to create shader module")
	return m
}

func (m *ShaderModule) release() {
	vk.DestroyShaderModule(m.device.device, m.module, nil)
}

func (m *ShaderModule) Stage() glal.ShaderStage {
	return m.stage
}

type Sampler struct {
	object
	device  *Device
	sampler vk.Sampler
	desc    glal.SamplerDesc
}

// maxLod lets a sampler reach every mip level of any image.
const maxLod = 1000

func newSampler(d *Device, desc glal.SamplerDesc) *Sampler {
	s := &Sampler{device: d, desc: desc}
	mipmap := vk.SamplerMipmapModeNearest
	if desc.Min == glal.FilterLinear {
		mipmap = vk.SamplerMipmapModeLinear
	}
	address := func(m glal.AddressMode) vk.SamplerAddressMode {
		return translate(d.log, componentSampler, vkAddressModes, m, "address mode")
	}
	ret := vk.CreateSampler(d.device, &vk.SamplerCreateInfo{
		SType:        vk.StructureTypeSamplerCreateInfo,
		MagFilter:    translate(d.log, componentSampler, vkFilters, desc.Mag, "filter"),
		MinFilter:    translate(d.log, componentSampler, vkFilters, desc.Min, "filter"),
		MipmapMode:   mipmap,
		AddressModeU: address(desc.AddressU),
		AddressModeV: address(desc.AddressV),
		AddressModeW: address(desc.AddressW),
		MaxLod:       maxLod,
		BorderColor:  vk.BorderColorFloatTransparentBlack,
	}, nil, &s.sampler)
	check(d.log, componentSampler, ret, "failed to create sampler")
	return s
}

func (s *Sampler) release() {
	vk.DestroySampler(s.device.device, s.sampler, nil)
}

func (s *Sampler) Desc() glal.SamplerDesc {
	return s.desc
}
