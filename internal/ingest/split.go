package ingest

import "bytes"

// Split tokenizes buf in place and returns its non-empty lines as views into
// buf. Every newline is overwritten with a NUL byte. Blank lines are dropped
// wherever they occur, and a final line without a newline is still returned.
func Split(buf []byte) [][]byte {
	var out [][]byte
	splitSpans(buf, func(off, n int) {
		out = append(out, buf[off:off+n:off+n])
	})
	return out
}

// splitSpans calls emit(off, n) for every non-empty line of buf in order.
func splitSpans(buf []byte, emit func(off, n int)) {
	start := 0
	for start < len(buf) {
		i := bytes.IndexByte(buf[start:], '\n')
		if i < 0 {
			emit(start, len(buf)-start)
			return
		}
		end := start + i
		buf[end] = 0
		if end > start {
			emit(start, end-start)
		}
		start = end + 1
	}
}
