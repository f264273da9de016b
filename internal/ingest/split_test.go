package ingest

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "only newline", in: "\n", want: nil},
		{name: "only newlines", in: "\n\n\n\n", want: nil},
		{name: "single", in: "a\n", want: []string{"a"}},
		{name: "no final newline", in: "a\nb", want: []string{"a", "b"}},
		{name: "leading blanks", in: "\n\n\na\nb\n", want: []string{"a", "b"}},
		{name: "interior blanks", in: "a\n\n\n\nb\n\nc\n", want: []string{"a", "b", "c"}},
		{name: "trailing blanks", in: "a\nb\n\n\n", want: []string{"a", "b"}},
		{name: "everything", in: "\n\nb.txt\n\na.txt\n\n\nc.txt", want: []string{"b.txt", "a.txt", "c.txt"}},
		{name: "spaces are content", in: " \n\t\n", want: []string{" ", "\t"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := []byte(tc.in)
			got := Split(buf)

			var gotStrs []string
			for _, g := range got {
				gotStrs = append(gotStrs, string(g))
			}
			assert.Equal(t, tc.want, gotStrs)
			assert.NotContains(t, string(buf), "\n", "newlines must be overwritten in place")
		})
	}
}

func TestSplit_ViewsAliasBuffer(t *testing.T) {
	buf := []byte("one\ntwo\n")
	lines := Split(buf)
	require.Len(t, lines, 2)

	buf[0] = 'O'
	assert.Equal(t, "One", string(lines[0]))

	// Appending to a view must not clobber the following line.
	_ = append(lines[0], 'X')
	assert.Equal(t, byte(0), buf[3])
}

func TestSplit_RandomizedBlankRuns(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	alphabet := []byte("abcxyz./_- ")

	for iter := 0; iter < 500; iter++ {
		k := rng.IntN(12)
		want := make([]string, 0, k)
		var in bytes.Buffer

		in.WriteString(newlines(rng.IntN(4)))
		for i := 0; i < k; i++ {
			line := make([]byte, 1+rng.IntN(8))
			for j := range line {
				line[j] = alphabet[rng.IntN(len(alphabet))]
			}
			want = append(want, string(line))
			in.Write(line)
			if i < k-1 {
				in.WriteString(newlines(1 + rng.IntN(4)))
			}
		}
		if rng.IntN(2) == 0 {
			in.WriteString(newlines(rng.IntN(4)))
		}

		got := Split(in.Bytes())
		require.Len(t, got, k, "input %q", in.String())
		for i := range got {
			assert.Equal(t, want[i], string(got[i]))
		}
	}
}

func newlines(n int) string {
	return string(bytes.Repeat([]byte{'\n'}, n))
}
