// Package fatal reports broken invariants. The emitter never recovers from
// one: it panics with an *Error and the process dies unless the top-level
// handler installed by the CLI catches it first.
package fatal

import (
	"errors"
	"fmt"

	"zasm/pkg/color"

	"github.com/charmbracelet/log"
	"github.com/tebeka/atexit"
)

// ExitCode is the status used when the abort handler terminates the process.
const ExitCode = 70

// Error describes a violated invariant.
type Error struct {
	Where string // component that detected the violation
	Msg   string
}

func (e *Error) Error() string {
	if e.Where == "" {
		return e.Msg
	}
	return e.Where + ": " + e.Msg
}

// Assert panics with a diagnostic when cond is false.
func Assert(cond bool, where, format string, args ...any) {
	if !cond {
		panic(&Error{Where: where, Msg: fmt.Sprintf(format, args...)})
	}
}

// Unreachable panics unconditionally.
func Unreachable(where, format string, args ...any) {
	panic(&Error{Where: where, Msg: fmt.Sprintf(format, args...)})
}

// Recover converts a panic carrying an *Error into an ordinary error value.
// Any other panic is re-raised. Defer it directly:
//
//	defer fatal.Recover(&err)
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	var fe *Error
	if e, ok := r.(error); ok && errors.As(e, &fe) {
		*err = fe
		return
	}
	panic(r)
}

// Handle is the top-level abort handler. Deferred in main, it logs an
// invariant violation and exits through atexit so registered cleanups run.
func Handle() {
	r := recover()
	if r == nil {
		return
	}
	fe, ok := r.(*Error)
	if !ok {
		panic(r)
	}

	log.Error(color.BrightRedText("fatal invariant violation"), "where", fe.Where, "error", fe.Msg)
	atexit.Exit(ExitCode)
}
