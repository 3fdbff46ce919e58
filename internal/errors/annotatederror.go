// Package errors wraps the standard library errors package with annotated errors that carry the source location
// of the wrap site and structured [slog.Attr] annotations.
//
// Use [Wrap] at package boundaries where the extra context is worth it and log the result with [SlogError].
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// annotatedError is an error with a message, optional slog annotations, and the location where it was created.
type annotatedError struct {
	msg         string
	err         error
	annotations []slog.Attr
	source      string
}

func (e *annotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.err
}

// sentinelError has no source location so that it can be declared at package level and compared with [Is].
type sentinelError struct {
	msg string
}

func (e *sentinelError) Error() string {
	return e.msg
}

// NewSentinel creates an error meant to be declared as a package level variable, e.g. ErrNotFound.
func NewSentinel(msg string) error {
	return &sentinelError{msg: msg}
}

// New creates an error that remembers where it was created.
func New(msg string, annotations ...slog.Attr) error {
	return &annotatedError{
		msg:         msg,
		err:         nil,
		annotations: annotations,
		source:      callerSource(2), //nolint:mnd // skip New and callerSource.
	}
}

// Wrap annotates err with msg and attributes. Wrapping a nil error returns nil.
func Wrap(err error, msg string, annotations ...slog.Attr) error {
	if err == nil {
		return nil
	}
	return &annotatedError{
		msg:         msg,
		err:         err,
		annotations: annotations,
		source:      callerSource(2), //nolint:mnd // skip Wrap and callerSource.
	}
}

// DecoratePanic converts a value returned by recover into an error pointing at the line that panicked.
func DecoratePanic(excp any) error {
	if excp == nil {
		return nil
	}
	source := ""
	pcs := make([]uintptr, 32) //nolint:mnd // deep enough to find the panicking frame.
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	panicking := false
	for {
		frame, more := frames.Next()
		if panicking && !strings.HasPrefix(frame.Function, "runtime.") {
			source = fmt.Sprintf("%s:%d", frame.File, frame.Line)
			break
		}
		if frame.Function == "runtime.gopanic" {
			panicking = true
		}
		if !more {
			break
		}
	}
	if err, ok := excp.(error); ok {
		return &annotatedError{msg: "panic", err: err, annotations: nil, source: source}
	}
	return &annotatedError{msg: fmt.Sprintf("panic: %v", excp), err: nil, annotations: nil, source: source}
}

// SlogError renders err as an "error" group containing the message, the innermost known source location, and all
// annotations found in the error tree.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{Key: "error", Value: slog.StringValue("<nil>")}
	}
	var (
		annotations []any
		source      string
	)
	walk(err, func(e error) {
		if ae, ok := e.(*annotatedError); ok { //nolint:errorlint // only the node itself, not its chain.
			for _, a := range ae.annotations {
				annotations = append(annotations, a)
			}
			if ae.source != "" {
				source = ae.source
			}
		}
	})
	attrs := []any{slog.String("message", err.Error())}
	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", annotations...))
	}
	return slog.Group("error", attrs...)
}

// walk visits every error in the tree rooted at err, including branches created with Join.
func walk(err error, visit func(error)) {
	if err == nil {
		return
	}
	visit(err)
	switch e := err.(type) { //nolint:errorlint // we walk the tree ourselves.
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			walk(inner, visit)
		}
	case interface{ Unwrap() error }:
		walk(e.Unwrap(), visit)
	}
}

func callerSource(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// Is reports whether any error in err's tree matches target. See [errors.Is].
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target. See [errors.As].
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err. See [errors.Unwrap].
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join returns an error that wraps the given errors. See [errors.Join].
func Join(errs ...error) error {
	return errors.Join(errs...)
}
