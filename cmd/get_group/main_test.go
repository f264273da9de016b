//go:build !windows

package main

import (
	"bytes"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/mtimeutils/internal/cli"
)

func TestGetGroup(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("a.txt", nil, 0o644))

	info, err := os.Lstat("a.txt")
	require.NoError(t, err)
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		t.Skip("no group ownership on this platform")
	}
	gid := strconv.FormatUint(uint64(st.Gid), 10)
	name := gid
	if g, err := user.LookupGroupId(gid); err == nil && g.Name != "" {
		name = g.Name
	}

	var stdout, stderr bytes.Buffer
	code := cli.Execute(command(), nil, strings.NewReader("a.txt\n"), &stdout, &stderr)
	assert.Equal(t, cli.ExitOK, code)
	assert.Equal(t, "a.txt\t"+name+"\t"+gid+"\n", stdout.String())
	assert.Empty(t, stderr.String())
}
