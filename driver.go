package glal

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// Driver opens instances of one backend.
type Driver interface {
	// Name identifies the driver in Open and in configuration files.
	Name() string
	// Open creates an Instance. Drivers whose native layer needs prior
	// setup (a current GL context, a Vulkan loader) report its absence
	// as an error rather than failing fatally.
	Open(desc InstanceDesc) (Instance, error)
}

var (
	ErrNoDriver  = errors.New("glal: driver not registered")
	ErrDuplicate = errors.New("glal: driver already registered")
)

var drivers struct {
	sync.Mutex
	m map[string]Driver
}

// Register makes drv available to Open. It is meant to be called from
// the init function of the backend package.
func Register(drv Driver) {
	drivers.Lock()
	defer drivers.Unlock()
	if drivers.m == nil {
		drivers.m = make(map[string]Driver)
	}
	if _, dup := drivers.m[drv.Name()]; dup {
		panic(errors.Wrapf(ErrDuplicate, "%q", drv.Name()))
	}
	drivers.m[drv.Name()] = drv
}

// Drivers returns the registered drivers sorted by name.
func Drivers() []Driver {
	drivers.Lock()
	defer drivers.Unlock()
	list := make([]Driver, 0, len(drivers.m))
	for _, d := range drivers.m {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// Open opens an instance on the driver registered as name.
func Open(name string, desc InstanceDesc) (Instance, error) {
	drivers.Lock()
	drv, ok := drivers.m[name]
	drivers.Unlock()
	if !ok {
		return nil, errors.Wrapf(ErrNoDriver, "%q", name)
	}
	inst, err := drv.Open(desc)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s driver", name)
	}
	return inst, nil
}
