package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleIR = `
func add1(i32) -> i32 {
entry(a: i32):
  one = const i32 1
  sum = add i32 a, one
  return sum
}
`

func writeIRFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.irtext")
	require.NoError(t, os.WriteFile(path, []byte(sampleIR), 0o644))
	return path
}

func TestCompileAMD64Lite(t *testing.T) {
	path := writeIRFile(t)
	var stdout, stderr bytes.Buffer

	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"compile", "--target", "amd64lite", path})

	err := cmd.Execute()
	require.NoError(t, err, "stderr: %s", stderr.String())
	require.NotEmpty(t, stdout.String())
	require.Contains(t, stdout.String(), ".section code")
}

func TestCompileUnknownTarget(t *testing.T) {
	path := writeIRFile(t)
	var stdout, stderr bytes.Buffer

	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"compile", "--target", "bogus", path})

	err := cmd.Execute()
	require.Error(t, err)
}

func TestCompileWritesToFile(t *testing.T) {
	path := writeIRFile(t)
	outPath := filepath.Join(t.TempDir(), "out.s")
	var stdout, stderr bytes.Buffer

	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"compile", "--target", "arm64lite", "--out", outPath, path})

	require.NoError(t, cmd.Execute())
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestVersionCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	require.Contains(t, stdout.String(), version)
}
