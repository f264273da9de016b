package ingest

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineStrings(lines []Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.String())
	}
	return out
}

func TestIngest_EmptyStreamIsNoInput(t *testing.T) {
	in := New()
	defer in.Release()

	n, err := in.Ingest(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, in.Len())
	assert.Empty(t, in.Lines())
}

func TestIngest_SingleNewlineIsNoInput(t *testing.T) {
	in := New()
	defer in.Release()

	n, err := in.Ingest(strings.NewReader("\n"))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, in.Len(), "lone newline must not stay in the buffer")
	assert.Empty(t, in.Lines())
}

func TestIngest_AppendsMissingFinalNewline(t *testing.T) {
	in := New()
	defer in.Release()

	n, err := in.Ingest(strings.NewReader("a\nb"))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Equal(t, 4, in.Len())
	assert.Equal(t, []string{"a", "b"}, lineStrings(in.Lines()))
}

func TestIngest_OnlyBlankLinesYieldNothing(t *testing.T) {
	in := New()
	defer in.Release()

	_, err := in.Ingest(strings.NewReader("\n\n\n"))
	require.NoError(t, err)
	assert.Empty(t, in.Lines())
}

func TestIngest_SmallChunksCaptureEverything(t *testing.T) {
	var sb strings.Builder
	want := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		name := "dir/file-" + strings.Repeat("x", i%17)
		want = append(want, name)
		sb.WriteString(name)
		sb.WriteString("\n")
		if i%7 == 0 {
			sb.WriteString("\n\n")
		}
	}

	in := New(WithChunkSize(5))
	defer in.Release()

	_, err := in.Ingest(iotest.OneByteReader(strings.NewReader(sb.String())))
	require.NoError(t, err)
	assert.Equal(t, want, lineStrings(in.Lines()))
}

func TestIngest_MultiplePassesAppend(t *testing.T) {
	in := New()
	defer in.Release()

	_, err := in.Ingest(strings.NewReader("first\n\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, lineStrings(in.Lines()))

	_, err = in.Ingest(strings.NewReader("second"))
	require.NoError(t, err)
	_, err = in.Ingest(strings.NewReader("\nthird\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, lineStrings(in.Lines()))
}

func TestIngest_LinesIsIdempotent(t *testing.T) {
	in := New()
	defer in.Release()

	_, err := in.Ingest(strings.NewReader("a\nb\n"))
	require.NoError(t, err)

	first := lineStrings(in.Lines())
	second := lineStrings(in.Lines())
	assert.Equal(t, first, second)
}

func TestIngest_LinesSurviveBufferGrowth(t *testing.T) {
	in := New()
	defer in.Release()

	_, err := in.Ingest(strings.NewReader("early\n"))
	require.NoError(t, err)
	lines := in.Lines()
	require.Len(t, lines, 1)

	_, err = in.Ingest(strings.NewReader(strings.Repeat("later\n", 100000)))
	require.NoError(t, err)

	assert.Equal(t, "early", lines[0].String())
}

func TestIngest_ReadErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	in := New()
	defer in.Release()

	r := io.MultiReader(strings.NewReader("a\n"), iotest.ErrReader(boom))
	n, err := in.Ingest(r)
	require.ErrorIs(t, err, boom)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, []string{"a"}, lineStrings(in.Lines()))
}

func TestIngest_FailedPassDoesNotGlueToNextPass(t *testing.T) {
	boom := errors.New("boom")
	in := New()
	defer in.Release()

	_, err := in.Ingest(io.MultiReader(strings.NewReader("a\nb"), iotest.ErrReader(boom)))
	require.ErrorIs(t, err, boom)

	_, err = in.Ingest(strings.NewReader("c\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, lineStrings(in.Lines()))
}

func TestIngest_LinesReturnsCopy(t *testing.T) {
	in := New()
	defer in.Release()

	_, err := in.Ingest(strings.NewReader("a\nb\n"))
	require.NoError(t, err)

	lines := in.Lines()
	lines[0] = lines[1]

	assert.Equal(t, []string{"a", "b"}, lineStrings(in.Lines()))
}

func TestIngest_TokenizesInPlace(t *testing.T) {
	in := New()
	defer in.Release()

	_, err := in.Ingest(strings.NewReader("x\ny\n"))
	require.NoError(t, err)
	lines := in.Lines()
	require.Len(t, lines, 2)

	raw := in.buf.Bytes()
	assert.Equal(t, []byte{'x', 0, 'y', 0}, raw)
	assert.Equal(t, 1, lines[1].Len())
}

func TestRelease_InvalidatesLines(t *testing.T) {
	in := New()
	_, err := in.Ingest(strings.NewReader("a\n"))
	require.NoError(t, err)
	lines := in.Lines()
	require.Len(t, lines, 1)

	in.Release()
	in.Release()

	assert.PanicsWithValue(t, ErrReleased, func() { _ = lines[0].String() })
	assert.PanicsWithValue(t, ErrReleased, func() { in.Lines() })
	_, err = in.Ingest(strings.NewReader("b\n"))
	assert.ErrorIs(t, err, ErrReleased)
	assert.Zero(t, in.Len())
}

func TestLine_ZeroValue(t *testing.T) {
	var l Line
	assert.Nil(t, l.Bytes())
	assert.Equal(t, "", l.String())
}
