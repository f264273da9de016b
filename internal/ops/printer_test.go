package ops

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/mtimeutils/internal/ingest"
	"github.com/sadopc/mtimeutils/internal/model"
)

func TestPrinter_Lines(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out)

	p.PathLine("a.txt")
	p.TimeLine("b.txt", "1700000000")
	p.IdentityLine("c.txt", "root", 0)

	require.NoError(t, p.Flush())
	assert.Equal(t, "a.txt\nb.txt\t1700000000\nc.txt\troot\t0\n", out.String())
}

func TestPrinter_BuffersUntilFlush(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out)

	p.PathLine("x")
	assert.Zero(t, out.Len())
	require.NoError(t, p.Flush())
	assert.Equal(t, "x\n", out.String())
}

type failingWriter struct {
	err    error
	writes int
}

func (f *failingWriter) Write([]byte) (int, error) {
	f.writes++
	return 0, f.err
}

func TestPrinter_FirstErrorWins(t *testing.T) {
	boom := errors.New("broken pipe")
	fw := &failingWriter{err: boom}
	p := NewPrinter(fw)

	// Exceed the buffer so the underlying writer is hit before Flush.
	long := strings.Repeat("x", bufferSize)
	p.PathLine(long)
	p.PathLine(long)
	p.PathLine("after")

	require.ErrorIs(t, p.Flush(), boom)
	assert.Equal(t, 1, fw.writes)
}

func TestPrinter_JSONLine(t *testing.T) {
	in := ingest.New()
	defer in.Release()
	_, err := in.Ingest(strings.NewReader("/tmp/x\n"))
	require.NoError(t, err)
	line := in.Lines()[0]

	mtime := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	rec := model.NewRecord(line, model.Metadata{ModTime: mtime, Size: 12, Mode: 0o640, UID: 10, GID: 20})

	var out bytes.Buffer
	p := NewPrinter(&out)
	p.JSONLine(rec)
	require.NoError(t, p.Flush())

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "/tmp/x", got["path"])
	assert.Equal(t, "2024-03-01T09:00:00Z", got["mtime"])
	assert.EqualValues(t, mtime.Unix(), got["epoch"])
	assert.EqualValues(t, 12, got["size"])
	assert.Equal(t, "-rw-r-----", got["mode"])
	assert.EqualValues(t, 10, got["uid"])
	assert.EqualValues(t, 20, got["gid"])
	assert.True(t, strings.HasSuffix(out.String(), "}\n"))
}
