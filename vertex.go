package glal

// VertexStride packs the attributes of binding in declaration order and
// returns the byte size of one vertex. Offsets are not consulted: the
// declaration order has to match the vertex struct layout.
func VertexStride(attrs []VertexAttribute, binding uint32) uint32 {
	var stride uint32
	for _, a := range attrs {
		if a.Binding == binding {
			stride += a.Type.Size() * a.Count
		}
	}
	return stride
}

// BindingStrides returns the stride of every binding referenced by desc.
// Explicit VertexBindings override the derived stride.
func BindingStrides(desc PipelineDesc) map[uint32]uint32 {
	strides := make(map[uint32]uint32)
	for _, a := range desc.VertexAttributes {
		strides[a.Binding] += a.Type.Size() * a.Count
	}
	for _, b := range desc.VertexBindings {
		strides[b.Binding] = b.Stride
	}
	return strides
}
