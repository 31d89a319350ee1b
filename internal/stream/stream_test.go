package stream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextOutputStreamEmitsSectionHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	ts := NewText(&buf)
	ts.SelectSection("data")
	ts.Emit(Label{Name: "g"})
	ts.SelectSection("data")
	ts.Emit(Directive("\t.skip 8"))
	ts.SelectSection("code")
	ts.Emit(Label{Name: "f"})
	require.NoError(t, ts.Flush())

	out := buf.String()
	require.Equal(t, 1, countOccurrences(out, ".section data"))
	require.Equal(t, 1, countOccurrences(out, ".section code"))
	require.Contains(t, out, "g:")
	require.Contains(t, out, "f:")
}

func countOccurrences(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}

func TestMasterOutputStreamFansOutToAllChildren(t *testing.T) {
	var a, b bytes.Buffer
	sa, sb := NewText(&a), NewText(&b)
	master := NewMaster(sa, sb)
	master.SelectSection("code")
	master.Emit(Label{Name: "shared"})
	require.NoError(t, sa.Flush())
	require.NoError(t, sb.Flush())

	ta := a.String()
	tb := b.String()
	require.Contains(t, ta, "shared:")
	require.Contains(t, tb, "shared:")
}

func TestFunctionOutputStreamCollectsItemsIgnoringSections(t *testing.T) {
	var collected []Item
	fs := NewFunctionStream(func(item Item) { collected = append(collected, item) })
	fs.SelectSection("data")
	fs.Emit(Label{Name: "a"})
	fs.Emit(Directive("nop"))

	require.Len(t, collected, 2)
	require.Equal(t, "a:", collected[0].String())
	require.Equal(t, "nop", collected[1].String())
}
