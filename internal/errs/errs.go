// Package errs wraps errors with context and a capture point for logging.
package errs

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// Wrap prefixes err with msg. A nil err stays nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Traced is an error that remembers the call stack where it entered the cache,
// typically a failed producer call.
type Traced struct {
	err error
	pcs []uintptr
}

// WithStack records the caller's stack on err unless something in its chain
// already carries one.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	var t *Traced
	if errors.As(err, &t) {
		return err
	}

	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	return &Traced{err: err, pcs: pcs[:n]}
}

func (e *Traced) Error() string { return e.err.Error() }
func (e *Traced) Unwrap() error { return e.err }

// Frames renders the recorded stack as "function file:line", innermost first.
func (e *Traced) Frames() []string {
	frames := runtime.CallersFrames(e.pcs)
	var out []string
	for {
		f, more := frames.Next()
		out = append(out, fmt.Sprintf("%s %s:%d", f.Function, f.File, f.Line))
		if !more {
			return out
		}
	}
}

type loggable struct{ err error }

// Loggable renders err as a slog group: the message, every wrapped cause and,
// for traced errors, the stack.
//
//	logging.Warn(ctx, "refresh failed", slog.Any("err", errs.Loggable(err)))
func Loggable(err error) slog.LogValuer { return loggable{err: err} }

func (l loggable) LogValue() slog.Value {
	if l.err == nil {
		return slog.GroupValue()
	}

	attrs := []slog.Attr{slog.String("message", l.err.Error())}
	if causes := causes(l.err); len(causes) > 0 {
		attrs = append(attrs, slog.Any("causes", causes))
	}
	var t *Traced
	if errors.As(l.err, &t) {
		attrs = append(attrs, slog.String("stack", strings.Join(t.Frames(), "\n")))
	}
	return slog.GroupValue(attrs...)
}

// causes lists the messages of the errors err wraps, outermost first.
// Layers that add no text, such as Traced, are skipped.
func causes(err error) []string {
	var out []string
	prev := err.Error()
	for e := errors.Unwrap(err); e != nil; e = errors.Unwrap(e) {
		if msg := e.Error(); msg != prev {
			out = append(out, msg)
			prev = msg
		}
	}
	return out
}
