package stream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestObjectOutputStreamTracksDataLabelsOnly(t *testing.T) {
	o := NewObject()
	o.SelectSection("data")
	o.Emit(Label{Name: "counter"})
	o.Emit(Directive("\t.skip 8"))

	o.SelectSection("code")
	o.Emit(Label{Name: "main"})
	o.Emit(Directive("\tmovq $0, %rax"))

	o.PutFunctionCode("main", []byte{0xc3})

	sym, ok := o.File().Lookup("counter")
	require.True(t, ok)
	require.EqualValues(t, 8, sym.Size)

	_, ok = o.File().Lookup("main")
	require.True(t, ok)
	require.Len(t, o.File().Code, 1)
}

func TestObjectOutputStreamIgnoresNonSkipDirectives(t *testing.T) {
	o := NewObject()
	o.SelectSection("data")
	o.Emit(Label{Name: "g"})
	o.Emit(Directive("\t.byte 1"))

	_, ok := o.File().Lookup("g")
	require.False(t, ok)
}
