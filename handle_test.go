package glal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaReuseBumpsGeneration(t *testing.T) {
	a := NewArena[string](7, KindBuffer)
	h1 := a.Insert("a")
	h2 := a.Insert("b")
	assert.Equal(t, 2, a.Len())

	v, ok := a.Remove(h1)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	h3 := a.Insert("c")
	assert.Equal(t, h1.Index, h3.Index)
	assert.Greater(t, h3.Gen, h1.Gen)

	_, ok = a.Get(h1)
	assert.False(t, ok, "stale handle resolved")
	v, ok = a.Get(h3)
	require.True(t, ok)
	assert.Equal(t, "c", v)
	v, _ = a.Get(h2)
	assert.Equal(t, "b", v)
}

func TestArenaForeignHandle(t *testing.T) {
	a := NewArena[int](1, KindImage)
	b := NewArena[int](2, KindImage)
	h := b.Insert(5)
	assert.False(t, a.Owns(h))
	_, ok := a.Get(h)
	assert.False(t, ok)
	assert.False(t, a.Owns(Handle{}))
}

func TestArenaEachInSlotOrder(t *testing.T) {
	a := NewArena[int](1, KindFence)
	for i := 0; i < 4; i++ {
		a.Insert(i)
	}
	var got []int
	a.Each(func(_ Handle, v int) { got = append(got, v) })
	assert.Equal(t, []int{0, 1, 2, 3}, got)
}

func testLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := NewLogger(&buf, LevelVerbose)
	l.SetFatalHandler(PanicOnFatal)
	return l, &buf
}

func TestTableForeignHandleIsFatal(t *testing.T) {
	log, _ := testLogger(t)
	a := NewTable[int](NewOwnerID(), KindBuffer, "device 1", "test", log)
	b := NewTable[int](NewOwnerID(), KindBuffer, "device 2", "test", log)
	h := b.Add(1)

	err := Recover(func() { a.Lookup(h) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not owned by device 1")
}

func TestTableUseAfterDestroyIsFatal(t *testing.T) {
	log, _ := testLogger(t)
	tab := NewTable[int](NewOwnerID(), KindImage, "device 1", "test", log)
	h := tab.Add(1)
	tab.Remove(h)

	err := Recover(func() { tab.Remove(h) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "used after destroy")
}

func TestTableTeardown(t *testing.T) {
	log, buf := testLogger(t)
	tab := NewTable[int](NewOwnerID(), KindSampler, "device 1", "test", log)
	tab.Add(1)
	tab.Add(2)

	err := Recover(func() { tab.Teardown(LifetimeStrict, func(int) {}) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not all samplers were explicitly destroyed")

	var released []int
	tab.Teardown(LifetimePermissive, func(v int) { released = append(released, v) })
	assert.ElementsMatch(t, []int{1, 2}, released)
	assert.Equal(t, 0, tab.Len())
	assert.Contains(t, buf.String(), "WARNING: ")
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "buffers", plural(KindBuffer))
	assert.Equal(t, "image views", plural(KindImageView))
}
