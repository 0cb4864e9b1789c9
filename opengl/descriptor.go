package opengl

import (
	"sort"

	"github.com/andewx/glal"
)

type DescriptorSetLayout struct {
	object
	set      uint32
	bindings []glal.DescriptorBinding
}

func (l *DescriptorSetLayout) Set() uint32 {
	return l.set
}

func (l *DescriptorSetLayout) Bindings() []glal.DescriptorBinding {
	return l.bindings
}

func (l *DescriptorSetLayout) Binding(index uint32) (glal.DescriptorBinding, bool) {
	for _, b := range l.bindings {
		if b.Binding == index {
			return b, true
		}
	}
	return glal.DescriptorBinding{}, false
}

type PipelineLayout struct {
	object
	layouts []*DescriptorSetLayout
}

func (l *PipelineLayout) Layouts() []glal.DescriptorSetLayout {
	out := make([]glal.DescriptorSetLayout, len(l.layouts))
	for i, sl := range l.layouts {
		out[i] = sl
	}
	return out
}

// descriptor is one resolved binding of a DescriptorSet.
type descriptor struct {
	entry glal.DescriptorEntry
	// layout is the position of the declaring layout in the set.
	layout  uint32
	target  uint32
	buffer  *Buffer
	image   *Image
	sampler *Sampler
}

// DescriptorSet accumulates bindings until it is bound on a command
// buffer, where set N occupies binding points N*BindingStride onwards.
type DescriptorSet struct {
	object
	device  *Device
	layouts []*DescriptorSetLayout
	entries map[uint32]descriptor
}

func (s *DescriptorSet) Layouts() []glal.DescriptorSetLayout {
	out := make([]glal.DescriptorSetLayout, len(s.layouts))
	for i, l := range s.layouts {
		out[i] = l
	}
	return out
}

// lookup finds the declaration of binding in any of the set's layouts and
// the position of that layout.
func (s *DescriptorSet) lookup(binding uint32) (glal.DescriptorBinding, uint32) {
	for i, l := range s.layouts {
		if b, ok := l.Binding(binding); ok {
			return b, uint32(i)
		}
	}
	s.device.log.Fatalf(componentDescriptor, "missing descriptor for binding %d", binding)
	return glal.DescriptorBinding{}, 0
}

// requirePlacement checks that layout i of the set declares set number
// first+i, which is where BindDescriptorSet places it.
func (s *DescriptorSet) requirePlacement(first uint32) {
	for i, l := range s.layouts {
		if l.set != first+uint32(i) {
			s.device.log.Fatalf(componentDescriptor, "descriptor set layout %d declares set %d but is bound at set %d", i, l.set, first+uint32(i))
		}
	}
}

func (s *DescriptorSet) BindBuffer(binding uint32, buffer glal.Buffer) {
	if buffer == nil {
		s.device.log.Fatalf(componentDescriptor, "missing buffer for binding %d", binding)
	}
	s.BindBufferRange(binding, buffer, 0, buffer.Size())
}

func (s *DescriptorSet) BindBufferRange(binding uint32, buffer glal.Buffer, offset, size uint64) {
	d := s.device
	s.device.descriptorSets.Lookup(s.handle)
	decl, layout := s.lookup(binding)
	if !decl.Type.IsBuffer() {
		d.log.Fatalf(componentDescriptor, "binding %d is a %v descriptor, not a buffer", binding, decl.Type)
	}
	b := resolve(d.log, d.buffers, buffer, glal.KindBuffer)
	want := glal.UsageStorage
	if decl.Type == glal.DescriptorUniformBuffer {
		want = glal.UsageUniform
	}
	if b.desc.Usage&want == 0 {
		d.log.Fatalf(componentDescriptor, "buffer %v bound to %v binding %d lacks %v usage", b.handle, decl.Type, binding, want)
	}
	if size == 0 || !glal.InRange(offset, size, b.desc.Size) {
		d.log.Fatalf(componentDescriptor, "range of %d bytes at offset %d exceeds buffer %v of %d bytes", size, offset, b.handle, b.desc.Size)
	}
	s.entries[binding] = descriptor{
		entry: glal.DescriptorEntry{
			Binding: binding,
			Type:    decl.Type,
			Buffer:  buffer,
			Offset:  offset,
			Size:    size,
		},
		layout: layout,
		target: bufferTarget(decl.Type),
		buffer: b,
	}
}

func (s *DescriptorSet) BindImageView(binding uint32, view glal.ImageView, sampler glal.Sampler) {
	d := s.device
	s.device.descriptorSets.Lookup(s.handle)
	decl, layout := s.lookup(binding)
	if !decl.Type.IsImage() {
		d.log.Fatalf(componentDescriptor, "binding %d is a %v descriptor, not an image", binding, decl.Type)
	}
	desc := descriptor{
		entry:  glal.DescriptorEntry{Binding: binding, Type: decl.Type, View: view, Sampler: sampler},
		layout: layout,
	}
	if decl.Type != glal.DescriptorSampler {
		desc.image = resolve(d.log, d.views, view, glal.KindImageView).image
	}
	if decl.Type == glal.DescriptorCombinedImageSampler || decl.Type == glal.DescriptorSampler {
		desc.sampler = resolve(d.log, d.samplers, sampler, glal.KindSampler)
	}
	s.entries[binding] = desc
}

func (s *DescriptorSet) Entries() []glal.DescriptorEntry {
	out := make([]glal.DescriptorEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Binding < out[j].Binding })
	return out
}

// snapshot copies the current bindings for a recorded bind command.
func (s *DescriptorSet) snapshot() []descriptor {
	out := make([]descriptor, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].entry.Binding < out[j].entry.Binding })
	return out
}

// bindDescriptors applies the snapshot with the set's first layout at set;
// each following layout takes the next set number.
func bindDescriptors(gl GL, set uint32, descriptors []descriptor) {
	for _, e := range descriptors {
		point := (set+e.layout)*glal.BindingStride + e.entry.Binding
		switch {
		case e.buffer != nil:
			gl.BindBufferRange(e.target, point, e.buffer.id, int(e.entry.Offset), int(e.entry.Size))
		default:
			if e.image != nil {
				gl.BindTextureUnit(point, e.image.id)
			}
			if e.sampler != nil {
				gl.BindSampler(point, e.sampler.id)
			}
		}
	}
}
