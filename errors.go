package glal

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
)

// Diagnostic is the record of a fatal usage or native error.
type Diagnostic struct {
	Severity  Level
	Component string
	Err       error
}

func (d Diagnostic) Error() string {
	if d.Component == "" {
		return d.Err.Error()
	}
	return d.Component + ": " + d.Err.Error()
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

// FatalHandler receives every fatal diagnostic. If it returns, the
// diagnostic is raised as a panic so the failing call never continues.
type FatalHandler func(Diagnostic)

// ExitOnFatal prints the diagnostic with its stack and exits with status 1.
func ExitOnFatal(d Diagnostic) {
	fmt.Fprintf(os.Stderr, "%s\n%+v\n", d.Error(), d.Err)
	os.Exit(1)
}

// PanicOnFatal raises the diagnostic as a panic, to be caught by Recover.
func PanicOnFatal(d Diagnostic) {
	panic(d)
}

// Recover runs fn and converts a fatal diagnostic raised inside it into
// an error. Other panics propagate.
func Recover(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d, ok := r.(Diagnostic)
			if !ok {
				panic(r)
			}
			err = d
		}
	}()
	fn()
	return nil
}

// AsDiagnostic extracts the Diagnostic carried by err.
func AsDiagnostic(err error) (Diagnostic, bool) {
	var d Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return Diagnostic{}, false
}
