package errors

import (
	"testing"

	"github.com/matryer/is"
)

func TestKindOf(t *testing.T) {
	is := is.New(t)

	err := E(KindNotFound, "node %q not found", "a")
	is.Equal(err.Error(), `node "a" not found`)
	is.Equal(KindOf(err), KindNotFound)

	wrapped := Wrap(err, "highlighting")
	is.Equal(KindOf(wrapped), KindNotFound)
	is.Equal(wrapped.Error(), `highlighting: node "a" not found`)

	is.Equal(KindOf(New("plain")), KindUnknown)
	is.Equal(KindOf(nil), KindUnknown)
}

func TestEWrapsOperand(t *testing.T) {
	is := is.New(t)
	base := New("base")

	err := E(KindInvalidArgument, "bad input: %w", base)
	is.True(Is(err, base))
	is.Equal(KindOf(err), KindInvalidArgument)
	is.Equal(err.Error(), "bad input: base")
}

type kinded struct{}

func (kinded) Error() string { return "kinded" }
func (kinded) Kind() Kind    { return KindNotFound }

func TestKindOfCustomKind(t *testing.T) {
	is := is.New(t)
	is.Equal(KindOf(Wrap(kinded{}, "ctx")), KindNotFound)
}

func TestWrapNil(t *testing.T) {
	is := is.New(t)
	is.NoErr(Wrap(nil, "nothing"))
}
