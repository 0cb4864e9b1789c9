package glal

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDriver struct {
	name string
	err  error
}

func (d stubDriver) Name() string { return d.name }

func (d stubDriver) Open(InstanceDesc) (Instance, error) {
	return nil, d.err
}

func TestRegistry(t *testing.T) {
	Register(stubDriver{name: "stub-b"})
	Register(stubDriver{name: "stub-a", err: errors.New("no context")})

	var names []string
	for _, d := range Drivers() {
		names = append(names, d.Name())
	}
	assert.Subset(t, names, []string{"stub-a", "stub-b"})
	assert.IsIncreasing(t, names)

	_, err := Open("stub-a", InstanceDesc{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening stub-a driver: no context")

	_, err = Open("missing", InstanceDesc{})
	assert.True(t, errors.Is(err, ErrNoDriver))

	assert.Panics(t, func() { Register(stubDriver{name: "stub-b"}) })
}
