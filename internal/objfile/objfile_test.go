package objfile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutCodeAndDataRecordOffsets(t *testing.T) {
	f := New()
	off1 := f.PutCode("fn1", []byte{0x90, 0x90})
	off2 := f.PutCode("fn2", []byte{0xc3})
	require.Equal(t, 0, off1)
	require.Equal(t, 2, off2)

	doff := f.PutData("g1", 8)
	require.Equal(t, 0, doff)

	sym, ok := f.Lookup("fn2")
	require.True(t, ok)
	require.Equal(t, SectionCode, sym.Section)
	require.Equal(t, 2, sym.Offset)
	require.Equal(t, 1, sym.Size)

	gsym, ok := f.Lookup("g1")
	require.True(t, ok)
	require.Equal(t, SectionData, gsym.Section)
	require.Equal(t, 8, gsym.Size)
}

func TestLookupMissing(t *testing.T) {
	f := New()
	_, ok := f.Lookup("nope")
	require.False(t, ok)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	f := New()
	f.PutCode("main", []byte{0x48, 0x89, 0xe5, 0xc3})
	f.PutData("counter", 8)
	f.PutData("buf", 64)

	encoded := f.Encode()
	require.NotEmpty(t, encoded)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, f.Code, decoded.Code)
	require.Equal(t, f.Data, decoded.Data)
	require.Len(t, decoded.Symbols, 3)

	sym, ok := decoded.Lookup("main")
	require.True(t, ok)
	require.Equal(t, SectionCode, sym.Section)
	require.Equal(t, 4, sym.Size)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode([]byte("not an objfile"))
	require.Error(t, err)
}

func TestSectionString(t *testing.T) {
	require.Equal(t, "code", SectionCode.String())
	require.Equal(t, "data", SectionData.String())
}
