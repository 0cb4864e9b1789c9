package glal

import (
	"fmt"
	"strings"
)

// Lifetime selects what happens to objects still alive when their owner
// is torn down.
type Lifetime uint8

const (
	// LifetimeDefault lets the backend choose.
	LifetimeDefault Lifetime = iota
	// LifetimeStrict requires every object to be destroyed explicitly;
	// leftovers at teardown are fatal.
	LifetimeStrict
	// LifetimePermissive destroys leftovers at teardown with a warning.
	LifetimePermissive
)

var lifetimeNames = []string{"default", "strict", "permissive"}

func (l Lifetime) String() string {
	return enumString(l, lifetimeNames)
}

func ParseLifetime(s string) (Lifetime, error) {
	i, err := parseEnum(s, lifetimeNames, "lifetime policy")
	return Lifetime(i), err
}

// Or returns l, or def when l is LifetimeDefault.
func (l Lifetime) Or(def Lifetime) Lifetime {
	if l == LifetimeDefault {
		return def
	}
	return l
}

// Table is the ownership table of one object kind within one owner.
// Lookups of foreign or destroyed handles are fatal.
type Table[T any] struct {
	arena     *Arena[T]
	kind      Kind
	owner     string
	component string
	log       *Logger
}

// NewTable creates an empty table. owner names the owning object in
// diagnostics, e.g. "device 3".
func NewTable[T any](id uint32, kind Kind, owner, component string, log *Logger) *Table[T] {
	return &Table[T]{
		arena:     NewArena[T](id, kind),
		kind:      kind,
		owner:     owner,
		component: component,
		log:       log,
	}
}

func (t *Table[T]) Add(v T) Handle {
	return t.arena.Insert(v)
}

// Lookup resolves h or fails fatally.
func (t *Table[T]) Lookup(h Handle) T {
	v, ok := t.arena.Get(h)
	if !ok {
		t.fail(h)
	}
	return v
}

// Get resolves h without failing.
func (t *Table[T]) Get(h Handle) (T, bool) {
	return t.arena.Get(h)
}

// Remove unregisters h or fails fatally.
func (t *Table[T]) Remove(h Handle) T {
	v, ok := t.arena.Remove(h)
	if !ok {
		t.fail(h)
	}
	return v
}

func (t *Table[T]) fail(h Handle) {
	if h.IsNil() {
		t.log.Fatalf(t.component, "%s is nil", t.kind)
	}
	if !t.arena.Owns(h) {
		t.log.Fatalf(t.component, "%s %v is not owned by %s", t.kind, h, t.owner)
	}
	t.log.Fatalf(t.component, "%s %v used after destroy", t.kind, h)
}

func (t *Table[T]) Len() int {
	return t.arena.Len()
}

func (t *Table[T]) Each(fn func(Handle, T)) {
	t.arena.Each(fn)
}

// Drain removes every live object, calling release on each.
func (t *Table[T]) Drain(release func(T)) int {
	var handles []Handle
	t.arena.Each(func(h Handle, _ T) { handles = append(handles, h) })
	for _, h := range handles {
		v, _ := t.arena.Remove(h)
		release(v)
	}
	return len(handles)
}

// Teardown applies policy to whatever is still alive: fatal under
// LifetimeStrict, drained with a warning otherwise.
func (t *Table[T]) Teardown(policy Lifetime, release func(T)) {
	n := t.Len()
	if n == 0 {
		return
	}
	if policy == LifetimeStrict {
		t.RequireEmpty()
	}
	t.log.Warnf(t.component, "destroying %d %s left alive on %s", n, plural(t.kind), t.owner)
	t.Drain(release)
}

// RequireEmpty fails fatally when any object is still alive.
func (t *Table[T]) RequireEmpty() {
	if n := t.Len(); n > 0 {
		t.log.Fatalf(t.component, "not all %s were explicitly destroyed (%d alive on %s)", plural(t.kind), n, t.owner)
	}
}

func plural(k Kind) string {
	s := k.String()
	if strings.HasSuffix(s, "s") {
		return s + "es"
	}
	return s + "s"
}

// Describe names an owner for diagnostics.
func Describe(kind Kind, id uint32, name string) string {
	if name == "" {
		return fmt.Sprintf("%s %d", kind, id)
	}
	return fmt.Sprintf("%s %d (%s)", kind, id, name)
}
