package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrel-lang/kestrelcc/internal/regalloc"
)

func TestNewAppliesDefaults(t *testing.T) {
	c := New()
	require.Equal(t, "briggs", c.AllocatorCoalescing)
	require.True(t, c.VerifierStrict)
	require.Equal(t, 0, c.MaxBlockLen)
	require.False(t, c.StopOnFirstError)
}

func TestOptionsOverrideDefaults(t *testing.T) {
	c := New(
		WithMaxBlockLen(12),
		WithCoalescing("off"),
		WithVerifierStrict(false),
		WithStopOnFirstError(true),
	)
	require.Equal(t, 12, c.MaxBlockLen)
	require.Equal(t, "off", c.AllocatorCoalescing)
	require.False(t, c.VerifierStrict)
	require.True(t, c.StopOnFirstError)
}

func TestCoalescingTranslation(t *testing.T) {
	require.Equal(t, regalloc.CoalesceOff, New(WithCoalescing("off")).Coalescing())
	require.Equal(t, regalloc.CoalesceConservative, New(WithCoalescing("briggs")).Coalescing())
	require.Equal(t, regalloc.CoalesceConservative, New().Coalescing())
}

func TestParsePartialYAMLKeepsRemainingDefaults(t *testing.T) {
	c, err := Parse([]byte("max_block_len: 40\n"))
	require.NoError(t, err)
	require.Equal(t, 40, c.MaxBlockLen)
	require.Equal(t, "briggs", c.AllocatorCoalescing)
	require.True(t, c.VerifierStrict)
}

func TestParseFullYAML(t *testing.T) {
	doc := `
max_block_len: 100
allocator:
  coalescing: off
verifier:
  strict: false
stop_on_first_error: true
`
	c, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, 100, c.MaxBlockLen)
	require.Equal(t, "off", c.AllocatorCoalescing)
	require.False(t, c.VerifierStrict)
	require.True(t, c.StopOnFirstError)
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kestrelcc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_block_len: 7\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7, c.MaxBlockLen)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
