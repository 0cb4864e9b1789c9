package opengl

import (
	"github.com/andewx/glal"
)

type Sampler struct {
	object
	device *Device
	id     uint32
	desc   glal.SamplerDesc
}

func newSampler(d *Device, desc glal.SamplerDesc) *Sampler {
	s := &Sampler{device: d, desc: desc}
	gl := d.gl
	s.id = gl.CreateSampler()
	gl.SamplerParameteri(s.id, TEXTURE_MIN_FILTER, translateFilter(desc.Min))
	gl.SamplerParameteri(s.id, TEXTURE_MAG_FILTER, translateFilter(desc.Mag))
	gl.SamplerParameteri(s.id, TEXTURE_WRAP_S, translateAddressMode(desc.AddressU))
	gl.SamplerParameteri(s.id, TEXTURE_WRAP_T, translateAddressMode(desc.AddressV))
	gl.SamplerParameteri(s.id, TEXTURE_WRAP_R, translateAddressMode(desc.AddressW))
	return s
}

func (s *Sampler) release() {
	s.device.gl.DeleteSampler(s.id)
}

func (s *Sampler) Desc() glal.SamplerDesc {
	return s.desc
}
