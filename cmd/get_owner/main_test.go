package main

import (
	"bytes"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/mtimeutils/internal/cli"
)

func TestGetOwner(t *testing.T) {
	if os.Getuid() < 0 {
		t.Skip("no numeric uids on this platform")
	}
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("a.txt", nil, 0o644))

	uid := strconv.Itoa(os.Getuid())
	name := uid
	if u, err := user.LookupId(uid); err == nil && u.Username != "" {
		name = u.Username
	}

	var stdout, stderr bytes.Buffer
	code := cli.Execute(command(), nil, strings.NewReader("a.txt\nmissing\n"), &stdout, &stderr)
	assert.Equal(t, cli.ExitOK, code)
	assert.Equal(t, "a.txt\t"+name+"\t"+uid+"\n", stdout.String())
	assert.Equal(t, "Err: Cannot stat file: missing\n", stderr.String())
}
