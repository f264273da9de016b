// Package scanner pairs every ingested path with a single lstat result.
package scanner

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/sadopc/mtimeutils/internal/ingest"
	"github.com/sadopc/mtimeutils/internal/model"
)

// Statter queries metadata without following symbolic links.
type Statter interface {
	Lstat(name string) (os.FileInfo, error)
}

// Owned is implemented by FileInfo values that carry ownership outside of
// Sys(), such as results fetched over SFTP.
type Owned interface {
	Ownership() (uid, gid uint32, ok bool)
}

// LocalFS stats paths on the local filesystem.
type LocalFS struct{}

// Lstat calls os.Lstat.
func (LocalFS) Lstat(name string) (os.FileInfo, error) {
	return os.Lstat(name)
}

// Gatherer stats paths one by one. Failures are reported to the diagnostic
// writer and recorded on the affected record; they never stop the batch.
type Gatherer struct {
	fs     Statter
	diag   *diagnostics
	logger *slog.Logger
	last   Summary
}

// NewGatherer creates a Gatherer. A nil fs selects LocalFS and a nil logger
// discards log output.
func NewGatherer(fs Statter, diag io.Writer, logger *slog.Logger) *Gatherer {
	if fs == nil {
		fs = LocalFS{}
	}
	if diag == nil {
		diag = io.Discard
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Gatherer{fs: fs, diag: newDiagnostics(diag), logger: logger}
}

// Gather returns one record per line, in the same order.
func (g *Gatherer) Gather(lines []ingest.Line) []model.Record {
	start := time.Now()
	records := make([]model.Record, len(lines))
	failed := 0

	for i, line := range lines {
		name := line.String()
		info, err := g.fs.Lstat(name)
		if err != nil {
			failed++
			g.diag.cannotStat(name)
			g.logger.Debug("lstat failed", "path", name, "error", err)
			records[i] = model.FailedRecord(line, err)
			continue
		}
		records[i] = model.NewRecord(line, metadataOf(info))
	}

	g.last = Summary{
		Paths:     len(lines),
		Failed:    failed,
		StartTime: start,
		Duration:  time.Since(start),
	}
	return records
}

// Last returns the summary of the most recent Gather call.
func (g *Gatherer) Last() Summary {
	return g.last
}

// Collect reads all of r into in, tokenizes it, and stats every line
// collected so far. Input without any non-empty line yields nil records.
func Collect(in *ingest.Ingester, r io.Reader, g *Gatherer) ([]model.Record, error) {
	if _, err := in.Ingest(r); err != nil {
		return nil, err
	}
	lines := in.Lines()
	if len(lines) == 0 {
		return nil, nil
	}
	return g.Gather(lines), nil
}

func metadataOf(info os.FileInfo) model.Metadata {
	meta := model.Metadata{
		ModTime: info.ModTime(),
		Size:    info.Size(),
		Mode:    info.Mode(),
	}
	if o, ok := info.(Owned); ok {
		meta.UID, meta.GID, meta.HasOwner = o.Ownership()
		return meta
	}
	meta.UID, meta.GID, meta.HasOwner = platformOwner(info)
	return meta
}
