// Package ops writes record output for the command-line tools.
package ops

import (
	"bufio"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/sadopc/mtimeutils/internal/model"
)

const bufferSize = 64 * 1024

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops, avoiding verbose per-call checks.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) WriteString(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

func (ew *errWriter) Write(data []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(data)
	if err != nil {
		ew.err = err
	}
	return n, err
}

// jsonRecord is one line of --json output.
type jsonRecord struct {
	Path  string `json:"path"`
	MTime string `json:"mtime"`
	Epoch int64  `json:"epoch"`
	Size  int64  `json:"size"`
	Mode  string `json:"mode"`
	UID   uint32 `json:"uid"`
	GID   uint32 `json:"gid"`
}

// Printer buffers tab-separated record lines. Check Flush for the first
// write error.
type Printer struct {
	bw *bufio.Writer
	ew *errWriter
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	bw := bufio.NewWriterSize(out, bufferSize)
	return &Printer{bw: bw, ew: &errWriter{w: bw}}
}

// PathLine writes "path\n".
func (p *Printer) PathLine(path string) {
	p.ew.WriteString(path)
	p.ew.WriteString("\n")
}

// TimeLine writes "path\twhen\n".
func (p *Printer) TimeLine(path, when string) {
	p.ew.WriteString(path)
	p.ew.WriteString("\t")
	p.ew.WriteString(when)
	p.ew.WriteString("\n")
}

// IdentityLine writes "path\tname\tid\n".
func (p *Printer) IdentityLine(path, name string, id uint32) {
	p.ew.WriteString(path)
	p.ew.WriteString("\t")
	p.ew.WriteString(name)
	p.ew.WriteString("\t")
	p.ew.WriteString(strconv.FormatUint(uint64(id), 10))
	p.ew.WriteString("\n")
}

// JSONLine writes rec as a single JSON object followed by a newline.
func (p *Printer) JSONLine(rec model.Record) {
	if p.ew.err != nil {
		return
	}
	data, err := json.Marshal(jsonRecord{
		Path:  rec.Path(),
		MTime: rec.Meta.ModTime.Format(time.RFC3339Nano),
		Epoch: rec.Meta.ModTime.Unix(),
		Size:  rec.Meta.Size,
		Mode:  rec.Meta.Mode.String(),
		UID:   rec.Meta.UID,
		GID:   rec.Meta.GID,
	})
	if err != nil {
		p.ew.err = err
		return
	}
	_, _ = p.ew.Write(data)
	p.ew.WriteString("\n")
}

// Flush writes buffered output and returns the first error seen.
func (p *Printer) Flush() error {
	if p.ew.err != nil {
		return p.ew.err
	}
	return p.bw.Flush()
}
