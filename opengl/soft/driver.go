package soft

import (
	"github.com/andewx/glal"
	"github.com/andewx/glal/opengl"
)

// DriverName is the name the software driver registers under.
const DriverName = "software"

func init() {
	glal.Register(driver{})
}

type driver struct{}

func (driver) Name() string {
	return DriverName
}

// Open creates an OpenGL instance on a fresh Context. The context is
// reachable through the instance's GL method.
func (driver) Open(desc glal.InstanceDesc) (glal.Instance, error) {
	return opengl.NewInstance(NewContext(), desc), nil
}

// ContextOf returns the Context behind an instance opened by the software
// driver.
func ContextOf(inst glal.Instance) (*Context, bool) {
	gi, ok := inst.(*opengl.Instance)
	if !ok {
		return nil, false
	}
	c, ok := gi.GL().(*Context)
	return c, ok
}
