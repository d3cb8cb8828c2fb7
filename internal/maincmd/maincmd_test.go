package maincmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niels862/flexul/internal/maincmd"
)

func TestCmdMainRunsFileAndReturnsSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.fx")
	require.NoError(t, os.WriteFile(path, []byte(`fn main() { __exit__(7); }`), 0o644))

	var out, errOut bytes.Buffer
	c := maincmd.Cmd{BuildVersion: "0.0.0-test"}
	code := c.Main([]string{binPath(), path}, mainer.Stdio{Stdout: &out, Stderr: &errOut})

	assert.Equal(t, mainer.Success, code)
	assert.Empty(t, errOut.String())
	assert.Contains(t, out.String(), "exit code 7 (7)")
}

func TestCmdMainCompileErrorReturnsFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.fx")
	require.NoError(t, os.WriteFile(path, []byte(`fn main() { nope(); }`), 0o644))

	var out, errOut bytes.Buffer
	c := maincmd.Cmd{}
	code := c.Main([]string{binPath(), path}, mainer.Stdio{Stdout: &out, Stderr: &errOut})

	assert.Equal(t, mainer.Failure, code)
	assert.NotEmpty(t, errOut.String())
}

func TestCmdMainMissingPathIsInvalidArgs(t *testing.T) {
	var out, errOut bytes.Buffer
	c := maincmd.Cmd{}
	code := c.Main([]string{binPath()}, mainer.Stdio{Stdout: &out, Stderr: &errOut})

	assert.Equal(t, mainer.InvalidArgs, code)
}

func TestCmdMainVersion(t *testing.T) {
	var out, errOut bytes.Buffer
	c := maincmd.Cmd{BuildVersion: "1.2.3", BuildDate: "2026-01-01"}
	code := c.Main([]string{binPath(), "--version"}, mainer.Stdio{Stdout: &out, Stderr: &errOut})

	assert.Equal(t, mainer.Success, code)
	assert.Contains(t, out.String(), "1.2.3")
}

func binPath() string { return "flexul" }
