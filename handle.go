package glal

import (
	"fmt"
	"sync/atomic"
)

// Kind names an object kind inside a Handle.
type Kind uint8

const (
	KindNone Kind = iota
	KindPhysicalDevice
	KindDevice
	KindBuffer
	KindImage
	KindImageView
	KindSampler
	KindShaderModule
	KindDescriptorSetLayout
	KindPipelineLayout
	KindPipeline
	KindDescriptorSet
	KindSwapchain
	KindCommandBuffer
	KindFence
)

var kindNames = []string{"none", "physical device", "device", "buffer", "image", "image view", "sampler",
	"shader module", "descriptor set layout", "pipeline layout", "pipeline", "descriptor set",
	"swapchain", "command buffer", "fence"}

func (k Kind) String() string {
	return enumString(k, kindNames)
}

// Handle is a generation-checked reference into an owner's arena.
// The zero Handle refers to nothing.
type Handle struct {
	Owner uint32
	Kind  Kind
	Index uint32
	Gen   uint32
}

func (h Handle) IsNil() bool {
	return h.Gen == 0
}

func (h Handle) String() string {
	if h.IsNil() {
		return "nil"
	}
	return fmt.Sprintf("%d:%d.%d", h.Owner, h.Index, h.Gen)
}

var ownerSeq atomic.Uint32

// NewOwnerID returns a process-unique owner identity for handles.
func NewOwnerID() uint32 {
	return ownerSeq.Add(1)
}

type slot[T any] struct {
	val  T
	gen  uint32
	live bool
}

// Arena is a slot map. Insert, Get and Remove are O(1); removed slots are
// reused with a bumped generation so stale handles never resolve.
type Arena[T any] struct {
	owner uint32
	kind  Kind
	slots []slot[T]
	free  []uint32
	live  int
}

func NewArena[T any](owner uint32, kind Kind) *Arena[T] {
	return &Arena[T]{owner: owner, kind: kind}
}

func (a *Arena[T]) Insert(v T) Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{})
	}
	s := &a.slots[idx]
	s.gen++
	s.val = v
	s.live = true
	a.live++
	return Handle{Owner: a.owner, Kind: a.kind, Index: idx, Gen: s.gen}
}

// Owns reports whether h was issued by this arena, live or not.
func (a *Arena[T]) Owns(h Handle) bool {
	return h.Owner == a.owner && h.Kind == a.kind && int(h.Index) < len(a.slots) && !h.IsNil()
}

func (a *Arena[T]) Get(h Handle) (T, bool) {
	var zero T
	if !a.Owns(h) {
		return zero, false
	}
	s := &a.slots[h.Index]
	if !s.live || s.gen != h.Gen {
		return zero, false
	}
	return s.val, true
}

func (a *Arena[T]) Remove(h Handle) (T, bool) {
	var zero T
	v, ok := a.Get(h)
	if !ok {
		return zero, false
	}
	s := &a.slots[h.Index]
	s.val = zero
	s.live = false
	a.free = append(a.free, h.Index)
	a.live--
	return v, true
}

func (a *Arena[T]) Len() int {
	return a.live
}

// Each calls fn for every live value in slot order.
func (a *Arena[T]) Each(fn func(Handle, T)) {
	for i := range a.slots {
		s := &a.slots[i]
		if s.live {
			fn(Handle{Owner: a.owner, Kind: a.kind, Index: uint32(i), Gen: s.gen}, s.val)
		}
	}
}
