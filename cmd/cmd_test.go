package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohanku/release-please/pkg/exitcode"
	"github.com/rohanku/release-please/pkg/release"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func seedWorkspace(t *testing.T) string {
	dir := t.TempDir()
	writeFile(t, dir, "release-config.yaml", `packages:
  - path: crates/foo
    version: 0.2.0
`)
	writeFile(t, dir, "Cargo.toml", "[workspace]\nmembers = [\"crates/foo\", \"crates/bar\"]\n")
	writeFile(t, dir, "crates/foo/Cargo.toml", "[package]\nname = \"foo\"\nversion = \"0.1.0\"\n")
	writeFile(t, dir, "crates/bar/Cargo.toml", `[package]
name = "bar"
version = "0.1.0"

[dependencies]
foo = { path = "../foo", version = "0.1.0" }
`)
	return dir
}

func runCommand(t *testing.T, sub *cobra.Command, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	root.AddCommand(sub)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestPlanCommand(t *testing.T) {
	dir := seedWorkspace(t)
	out, err := runCommand(t, newPlanCommand(), "plan", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "crates/foo")
	assert.Contains(t, out, "0.2.0")
	assert.Contains(t, out, "crates/bar")
	assert.Contains(t, out, "0.1.1")
}

func TestPlanApplyRequiresRepository(t *testing.T) {
	dir := seedWorkspace(t)
	_, err := runCommand(t, newPlanCommand(), "plan", "--dir", dir, "--apply")
	require.Error(t, err)
	assert.Equal(t, exitcode.GitError, exitForError(err))
}

func TestPlanMissingConfig(t *testing.T) {
	_, err := runCommand(t, newPlanCommand(), "plan", "--dir", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, exitcode.ConfigError, exitForError(err))
}

func TestValidateCommand(t *testing.T) {
	dir := seedWorkspace(t)
	out, err := runCommand(t, newValidateCommand(), "validate", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
}

func TestValidateCommandRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "release-config.yaml", "bump-level: mega\n")
	_, err := runCommand(t, newValidateCommand(), "validate", "--dir", dir)
	require.Error(t, err)
	assert.Equal(t, exitcode.ValidationError, exitForError(err))
}

func TestRealizeUpdateWriteAndRemove(t *testing.T) {
	dir := t.TempDir()
	content := "hello\n"

	err := realizeUpdate(dir, release.Update{
		Path:            "sub/file.txt",
		CreateIfMissing: true,
		Updater:         &release.RawContent{Content: &content},
	}, nil)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "sub", "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	err = realizeUpdate(dir, release.Update{
		Path:    "sub/file.txt",
		Updater: &release.RawContent{Content: nil},
	}, nil)
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "sub", "file.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExitForError(t *testing.T) {
	assert.Equal(t, exitcode.GeneralError, exitForError(assert.AnError))
	assert.Equal(t, exitcode.GitError, exitForError(withExitCode(exitcode.GitError, assert.AnError)))
	assert.NoError(t, withExitCode(exitcode.GitError, nil))
}
