package failure

import (
	"errors"
	"fmt"
	"runtime"

	pkgerrors "github.com/pkg/errors"
)

// Named is an error that you can read a name from
type Named interface {
	Name() string
}

// WithStackTrace is an error that you can read a stack trace from
type WithStackTrace interface {
	Stack() string
}

type Failure interface {
	error
	Named
}

type NamedWithStackTrace interface {
	Named
	WithStackTrace
}

type namedWithStackTrace struct {
	name  string
	stack pkgerrors.StackTrace
}

func (n namedWithStackTrace) Name() string {
	return n.name
}

func (n namedWithStackTrace) Stack() string {
	return fmt.Sprintf("%+v", n.stack)
}

// NamedWithCurrentStackTrace captures the stack of the caller's caller. It is
// reserved for failures that indicate a bug in this module rather than bad
// input, where the location matters more than the message.
func NamedWithCurrentStackTrace(name string) NamedWithStackTrace {
	const depth = 32

	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	f := make(pkgerrors.StackTrace, n)
	for i := 0; i < n; i++ {
		f[i] = pkgerrors.Frame(pcs[i])
	}

	return namedWithStackTrace{name, f}
}

type failure struct {
	name    string
	message string
	cause   error
}

func (f failure) Name() string {
	return f.name
}

func (f failure) Error() string {
	return f.message
}

func (f failure) Unwrap() error {
	return f.cause
}

// New creates a named failure.
func New(name, message string) Failure {
	return failure{name: name, message: message}
}

// FromError converts any error into a Failure. Errors that already carry a
// name keep it, everything else is named "Error".
func FromError(err error) Failure {
	if f, ok := err.(Failure); ok {
		return f
	}
	return failure{name: NameOf(err), message: err.Error(), cause: err}
}

// NameOf returns the name of the first error in err's chain that has one, or
// "Error".
func NameOf(err error) string {
	var named Named
	if errors.As(err, &named) {
		return named.Name()
	}
	return "Error"
}
