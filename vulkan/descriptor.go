package vulkan

import (
	"sort"

	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/glal"
)

type DescriptorSetLayout struct {
	object
	device   *Device
	layout   vk.DescriptorSetLayout
	set      uint32
	bindings []glal.DescriptorBinding
}

func newDescriptorSetLayout(d *Device, desc glal.DescriptorSetLayoutDesc) *DescriptorSetLayout {
	l := &DescriptorSetLayout{device: d, set: desc.Set, bindings: append([]glal.DescriptorBinding(nil), desc.Bindings...)}
	bindings := make([]vk.DescriptorSetLayoutBinding, len(desc.Bindings))
	for i, b := range desc.Bindings {
		bindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  translate(d.log, componentDescriptor, vkDescriptorTypes, b.Type, "descriptor type"),
			DescriptorCount: b.Count,
			StageFlags:      shaderStages(d.log, b.Stages),
		}
	}
	ret := vk.CreateDescriptorSetLayout(d.device, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}, nil, &l.layout)
	check(d.log, componentDescriptor, ret, "failed to create descriptor set layout")
	return l
}

func (l *DescriptorSetLayout) release() {
	vk.DestroyDescriptorSetLayout(l.device.device, l.layout, nil)
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

// descriptor is one resolved binding of a DescriptorSet, kept with the
// native set it is written to.
type descriptor struct {
	entry   glal.DescriptorEntry
	set     vk.DescriptorSet
	buffer  *Buffer
	view    *ImageView
	sampler *Sampler
}

// write builds the descriptor write. The info slices must outlive the
// UpdateDescriptorSets call.
func (e descriptor) write() vk.WriteDescriptorSet {
	w := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          e.set,
		DstBinding:      e.entry.Binding,
		DescriptorCount: 1,
		DescriptorType:  vkDescriptorTypes[e.entry.Type],
	}
	if e.buffer != nil {
		w.PBufferInfo = []vk.DescriptorBufferInfo{{
			Buffer: e.buffer.buffer,
			Offset: vk.DeviceSize(e.entry.Offset),
			Range:  vk.DeviceSize(e.entry.Size),
		}}
		return w
	}
	info := vk.DescriptorImageInfo{ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal}
	if e.entry.Type == glal.DescriptorStorageImage {
		info.ImageLayout = vk.ImageLayoutGeneral
	}
	if e.view != nil {
		info.ImageView = e.view.view
	}
	if e.sampler != nil {
		info.Sampler = e.sampler.sampler
	}
	w.PImageInfo = []vk.DescriptorImageInfo{info}
	return w
}

// DescriptorSet owns a pool holding one native set per layout. Bindings
// accumulate until the set is bound, when pending writes are flushed.
type DescriptorSet struct {
	object
	device  *Device
	pool    vk.DescriptorPool
	layouts []*DescriptorSetLayout
	sets    []vk.DescriptorSet
	entries map[uint32]descriptor
	pending map[uint32]bool
}

// poolSizes counts the descriptors of every type declared by layouts.
func poolSizes(layouts []*DescriptorSetLayout) []vk.DescriptorPoolSize {
	counts := make(map[vk.DescriptorType]uint32)
	for _, l := range layouts {
		for _, b := range l.bindings {
			counts[vkDescriptorTypes[b.Type]] += b.Count
		}
	}
	sizes := make([]vk.DescriptorPoolSize, 0, len(counts))
	for t, n := range counts {
		sizes = append(sizes, vk.DescriptorPoolSize{Type: t, DescriptorCount: n})
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i].Type < sizes[j].Type })
	return sizes
}

func newDescriptorSet(d *Device, layouts []*DescriptorSetLayout) *DescriptorSet {
	s := &DescriptorSet{
		device:  d,
		layouts: layouts,
		entries: make(map[uint32]descriptor),
		pending: make(map[uint32]bool),
	}
	sizes := poolSizes(layouts)
	ret := vk.CreateDescriptorPool(d.device, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(len(layouts)),
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}, nil, &s.pool)
	check(d.log, componentDescriptor, ret, "failed to create descriptor pool")

	for _, l := range layouts {
		var set vk.DescriptorSet
		ret := vk.AllocateDescriptorSets(d.device, &vk.DescriptorSetAllocateInfo{
			SType:              vk.StructureTypeDescriptorSetAllocateInfo,
			DescriptorPool:     s.pool,
			DescriptorSetCount: 1,
			PSetLayouts:        []vk.DescriptorSetLayout{l.layout},
		}, &set)
		check(d.log, componentDescriptor, ret, "failed to allocate descriptor set")
		s.sets = append(s.sets, set)
	}
	return s
}

func (s *DescriptorSet) release() {
	vk.DestroyDescriptorPool(s.device.device, s.pool, nil)
}

func (s *DescriptorSet) Layouts() []glal.DescriptorSetLayout {
	out := make([]glal.DescriptorSetLayout, len(s.layouts))
	for i, l := range s.layouts {
		out[i] = l
	}
	return out
}

// lookup finds the declaration of binding and the native set holding it.
func (s *DescriptorSet) lookup(binding uint32) (glal.DescriptorBinding, vk.DescriptorSet) {
	for i, l := range s.layouts {
		if b, ok := l.Binding(binding); ok {
			return b, s.sets[i]
		}
	}
	s.device.log.Fatalf(componentDescriptor, "missing descriptor for binding %d", binding)
	return glal.DescriptorBinding{}, vk.DescriptorSet(vk.NullHandle)
}

// requirePlacement checks that layout i of the set declares set number
// first+i, the pipeline layout slot its native set is bound to.
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
	d.descriptorSets.Lookup(s.handle)
	decl, set := s.lookup(binding)
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
		set:    set,
		buffer: b,
	}
	s.pending[binding] = true
}

func (s *DescriptorSet) BindImageView(binding uint32, view glal.ImageView, sampler glal.Sampler) {
	d := s.device
	d.descriptorSets.Lookup(s.handle)
	decl, set := s.lookup(binding)
	if !decl.Type.IsImage() {
		d.log.Fatalf(componentDescriptor, "binding %d is a %v descriptor, not an image", binding, decl.Type)
	}
	e := descriptor{
		entry: glal.DescriptorEntry{Binding: binding, Type: decl.Type, View: view, Sampler: sampler},
		set:   set,
	}
	if decl.Type != glal.DescriptorSampler {
		e.view = resolve(d.log, d.views, view, glal.KindImageView)
	}
	if decl.Type == glal.DescriptorCombinedImageSampler || decl.Type == glal.DescriptorSampler {
		e.sampler = resolve(d.log, d.samplers, sampler, glal.KindSampler)
	}
	s.entries[binding] = e
	s.pending[binding] = true
}

func (s *DescriptorSet) Entries() []glal.DescriptorEntry {
	out := make([]glal.DescriptorEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Binding < out[j].Binding })
	return out
}

// flush writes every binding changed since the last flush.
func (s *DescriptorSet) flush() {
	if len(s.pending) == 0 {
		return
	}
	writes := make([]vk.WriteDescriptorSet, 0, len(s.pending))
	for binding := range s.pending {
		writes = append(writes, s.entries[binding].write())
	}
	vk.UpdateDescriptorSets(s.device.device, uint32(len(writes)), writes, 0, nil)
	s.pending = make(map[uint32]bool)
}
