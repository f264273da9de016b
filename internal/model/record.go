package model

import (
	"os"
	"time"

	"github.com/sadopc/mtimeutils/internal/ingest"
)

// Status tells whether a record carries usable metadata.
type Status uint8

const (
	// StatPending is the zero value: no lookup has been made.
	StatPending Status = iota
	// StatOK means Meta holds the lstat result.
	StatOK
	// StatFailed means the lookup failed; Err holds the cause.
	StatFailed
)

func (s Status) String() string {
	switch s {
	case StatOK:
		return "ok"
	case StatFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Metadata is the subset of lstat results the tools consume.
type Metadata struct {
	ModTime time.Time
	Size    int64
	Mode    os.FileMode
	UID     uint32
	GID     uint32
	// HasOwner is false when the platform did not report uid/gid.
	HasOwner bool
}

// Record pairs one input path with its metadata. Name borrows from the
// ingest buffer and is only valid until that buffer is released.
type Record struct {
	Name   ingest.Line
	Meta   Metadata
	Status Status
	Err    error
}

// NewRecord returns a successful record.
func NewRecord(name ingest.Line, meta Metadata) Record {
	return Record{Name: name, Meta: meta, Status: StatOK}
}

// FailedRecord returns a record for a path whose lookup failed.
func FailedRecord(name ingest.Line, err error) Record {
	return Record{Name: name, Status: StatFailed, Err: err}
}

// OK reports whether the record should appear in output.
func (r Record) OK() bool { return r.Status == StatOK }

// Path returns a copy of the record's path.
func (r Record) Path() string { return r.Name.String() }
