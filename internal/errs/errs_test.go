package errs

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapKeepsChain(t *testing.T) {
	r := require.New(t)
	base := errors.New("boom")

	err := Wrapf(Wrap(base, "load"), "refresh key %q", "a")
	r.ErrorIs(err, base)
	r.Equal(`refresh key "a": load: boom`, err.Error())
	r.Equal([]string{"load: boom", "boom"}, causes(err))

	r.NoError(Wrap(nil, "x"))
	r.NoError(Wrapf(nil, "x %d", 1))
}

func TestWrapfTreatsErrorTextLiterally(t *testing.T) {
	err := Wrapf(errors.New("100% broken"), "key %s", "a")
	require.Equal(t, "key a: 100% broken", err.Error())
}

func TestWithStackOnce(t *testing.T) {
	r := require.New(t)
	base := errors.New("boom")

	err := WithStack(base)
	r.ErrorIs(err, base)
	r.Same(err, WithStack(err))
	r.Same(err, errors.Unwrap(WithStack(Wrap(err, "outer"))))

	var tr *Traced
	r.ErrorAs(Wrap(err, "outer"), &tr)
	frames := tr.Frames()
	r.NotEmpty(frames)
	r.Contains(frames[0], "TestWithStackOnce")
}

func TestLoggable(t *testing.T) {
	r := require.New(t)

	v := Loggable(WithStack(Wrap(errors.New("boom"), "outer"))).LogValue()
	r.Equal(slog.KindGroup, v.Kind())

	attrs := v.Group()
	r.Len(attrs, 3)
	r.Equal("message", attrs[0].Key)
	r.Equal("outer: boom", attrs[0].Value.String())
	r.Equal("causes", attrs[1].Key)
	r.Equal([]string{"boom"}, attrs[1].Value.Any())
	r.Equal("stack", attrs[2].Key)

	r.Empty(Loggable(nil).LogValue().Group())
}
