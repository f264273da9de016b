// Package ingest buffers a newline-delimited path list of unknown length and
// tokenizes it in place into borrowed line views.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
)

// DefaultChunkSize is the size of a single read from the input stream.
const DefaultChunkSize = 64 * 1024

var (
	// ErrTooLarge is returned when the input no longer fits in memory.
	ErrTooLarge = errors.New("ingest: input too large to buffer")
	// ErrReleased is the panic value for a Line used after Release.
	ErrReleased = errors.New("ingest: buffer already released")
)

// Ingester owns the raw input bytes and the table of lines cut from them.
// Lines alias the Ingester's storage and become invalid after Release.
type Ingester struct {
	buf       bytes.Buffer
	chunkSize int
	scanned   int // bytes already tokenized
	lines     []Line
	released  bool
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithChunkSize sets the read size. Values <= 0 select DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(in *Ingester) {
		if n > 0 {
			in.chunkSize = n
		}
	}
}

// New creates an empty Ingester.
func New(opts ...Option) *Ingester {
	in := &Ingester{chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Ingest reads r until EOF and appends everything to the buffer. It may be
// called repeatedly; every pass appends to the same storage.
//
// The returned count is the number of bytes captured by this pass. A pass that
// captures nothing, or only a single newline, reports 0 and leaves the buffer
// untouched. Otherwise the buffer is guaranteed to end with a newline.
func (in *Ingester) Ingest(r io.Reader) (n int64, err error) {
	if in.released {
		return 0, ErrReleased
	}

	start := in.buf.Len()
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if e, ok := p.(error); ok && errors.Is(e, bytes.ErrTooLarge) {
			err = ErrTooLarge
			return
		}
		panic(p)
	}()

	chunk := make([]byte, in.chunkSize)
	for {
		k, rerr := r.Read(chunk)
		if k > 0 {
			in.buf.Write(chunk[:k])
			n += int64(k)
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			in.terminate(start)
			return n, fmt.Errorf("ingest: read input: %w", rerr)
		}
	}

	if !in.terminate(start) {
		return 0, nil
	}
	return n, nil
}

// terminate closes the pass that began at start so the next pass starts on
// a fresh line. It reports false when the pass captured no input.
func (in *Ingester) terminate(start int) bool {
	pass := in.buf.Bytes()[start:]
	switch {
	case len(pass) == 0:
		return false
	case len(pass) == 1 && pass[0] == '\n':
		in.buf.Truncate(start)
		return false
	case pass[len(pass)-1] != '\n':
		in.buf.WriteByte('\n')
	}
	return true
}

// Lines tokenizes every complete line appended since the previous call and
// returns the ordered table of all non-empty lines seen so far. Newlines in
// the tokenized region are overwritten with NUL bytes. The returned slice is
// the caller's own copy of the table.
func (in *Ingester) Lines() []Line {
	in.mustLive()

	data := in.buf.Bytes()
	last := bytes.LastIndexByte(data[in.scanned:], '\n')
	if last < 0 {
		return slices.Clone(in.lines)
	}
	end := in.scanned + last + 1

	base := in.scanned
	splitSpans(data[base:end], func(off, n int) {
		in.lines = append(in.lines, Line{owner: in, off: base + off, n: n})
	})
	in.scanned = end

	return slices.Clone(in.lines)
}

// Len reports the number of buffered bytes.
func (in *Ingester) Len() int {
	if in.released {
		return 0
	}
	return in.buf.Len()
}

// Release drops the buffer. Every Line handed out becomes invalid.
func (in *Ingester) Release() {
	if in.released {
		return
	}
	in.released = true
	in.buf = bytes.Buffer{}
	in.lines = nil
	in.scanned = 0
}

func (in *Ingester) mustLive() {
	if in.released {
		panic(ErrReleased)
	}
}

// Line is a borrowed view of one non-empty input line.
type Line struct {
	owner *Ingester
	off   int
	n     int
}

// Bytes returns the line without copying. It panics with ErrReleased if the
// owning Ingester was released.
func (l Line) Bytes() []byte {
	if l.owner == nil {
		return nil
	}
	l.owner.mustLive()
	end := l.off + l.n
	return l.owner.buf.Bytes()[l.off:end:end]
}

// String returns a copy of the line.
func (l Line) String() string {
	return string(l.Bytes())
}

// Len is the length of the line in bytes.
func (l Line) Len() int { return l.n }
